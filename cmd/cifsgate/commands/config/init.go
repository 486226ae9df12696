package config

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/marmos91/cifsgate/internal/cli/prompt"
	"github.com/marmos91/cifsgate/pkg/config"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a starter configuration",
	Long: `Write a starter configuration with one SMB handler, the IPC$ pipe and a
PUBLIC share limited to 192.168.0.0/16.

An existing file is only replaced after confirmation or with --force.

Examples:
  cifsgate config init
  cifsgate config init --config /etc/cifsgate/config.yaml --force`,
	Args: cobra.NoArgs,
	RunE: runConfigInit,
}

func init() {
	initCmd.Flags().BoolVarP(&initForce, "force", "f", false, "Overwrite an existing configuration file")
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		path = config.GetDefaultConfigPath()
	}

	force := initForce
	if _, err := os.Stat(path); err == nil && !force {
		ok, err := prompt.ConfirmWithForce(fmt.Sprintf("%s exists, overwrite it?", path), false)
		if err != nil {
			if prompt.IsAborted(err) {
				return fmt.Errorf("configuration file already exists at %s (use --force to overwrite)", path)
			}
			return err
		}
		if !ok {
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Keeping existing configuration")
			return nil
		}
		force = true
	}

	if err := config.InitConfigToPath(path, force); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(out, "Configuration written to %s\n\n", path)
	_, _ = fmt.Fprintln(out, "Next steps:")
	_, _ = fmt.Fprintln(out, "  cifsgate hash-password       # create a password hash for auth.users")
	_, _ = fmt.Fprintln(out, "  cifsgate config validate     # check your edits")
	_, _ = fmt.Fprintln(out, "  cifsgate start               # run the server")
	return nil
}
