package config

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marmos91/cifsgate/pkg/config"
)

var pathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the default configuration path",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), config.GetDefaultConfigPath())
	},
}
