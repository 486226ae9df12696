package commands

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/marmos91/cifsgate/internal/cli/prompt"
	"github.com/marmos91/cifsgate/pkg/auth"
)

var (
	hashStdin bool
	hashCost  int
)

var hashPasswordCmd = &cobra.Command{
	Use:   "hash-password",
	Short: "Generate a bcrypt hash for auth.users",
	Long: `Prompt for a password and print its bcrypt hash for the
password_hash field of a configured user.

Examples:
  cifsgate hash-password
  echo -n 's3cret-pass' | cifsgate hash-password --stdin`,
	Args: cobra.NoArgs,
	RunE: runHashPassword,
}

func init() {
	hashPasswordCmd.Flags().BoolVar(&hashStdin, "stdin", false, "Read the password from the first line of stdin")
	hashPasswordCmd.Flags().IntVar(&hashCost, "cost", auth.DefaultBcryptCost, "bcrypt cost factor")
}

func runHashPassword(cmd *cobra.Command, args []string) error {
	var (
		password string
		err      error
	)
	if hashStdin {
		line, readErr := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
		if readErr != nil && line == "" {
			return fmt.Errorf("failed to read password: %w", readErr)
		}
		password = strings.TrimRight(line, "\r\n")
	} else {
		password, err = prompt.NewPassword()
		if err != nil {
			if prompt.IsAborted(err) {
				return fmt.Errorf("password entry aborted")
			}
			return err
		}
	}

	hash, err := auth.HashPasswordWithCost(password, hashCost)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintln(cmd.OutOrStdout(), hash)
	return nil
}
