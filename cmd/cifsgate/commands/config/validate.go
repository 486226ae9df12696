package config

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marmos91/cifsgate/pkg/config"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a configuration file",
	Long: `Validate a cifsgate configuration file.

Checks syntax, field values and every access control rule, then prints a
summary and any warnings.

Examples:
  cifsgate config validate
  cifsgate config validate --config /etc/cifsgate/config.yaml`,
	Args: cobra.NoArgs,
	RunE: runConfigValidate,
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	configPath, _ := cmd.Flags().GetString("config")

	cfg, err := config.MustLoad(configPath)
	if err != nil {
		return err
	}
	mgr, shares, err := config.BuildAccessControl(cfg, nil)
	if err != nil {
		return fmt.Errorf("access control: %w", err)
	}

	displayPath := configPath
	if displayPath == "" {
		displayPath = config.GetDefaultConfigPath()
	}

	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(out, "Configuration file: %s\n", displayPath)
	_, _ = fmt.Fprintln(out, "Validation: OK")

	if warnings := warningsFor(cfg); len(warnings) > 0 {
		_, _ = fmt.Fprintln(out, "\nWarnings:")
		for _, w := range warnings {
			_, _ = fmt.Fprintf(out, "  - %s\n", w)
		}
	}

	_, _ = fmt.Fprintf(out, "\nConfiguration summary:\n")
	_, _ = fmt.Fprintf(out, "  Server name:     %s\n", cfg.Server.Name)
	for _, h := range cfg.Server.Handlers {
		_, _ = fmt.Fprintf(out, "  Handler:         %s (%s) on %s:%d\n", h.Name, h.Type, h.BindAddress, h.Port)
	}
	_, _ = fmt.Fprintf(out, "  Shares:          %d\n", shares.Len())
	_, _ = fmt.Fprintf(out, "  Server rules:    %d (default %s)\n", len(mgr.Rules()), mgr.DefaultVerdict())
	_, _ = fmt.Fprintf(out, "  Users:           %d\n", len(cfg.Auth.Users))
	_, _ = fmt.Fprintf(out, "  Log level:       %s\n", cfg.Logging.Level)
	return nil
}

// warningsFor reports settings that are valid but probably unintended.
func warningsFor(cfg *config.Config) []string {
	var warnings []string
	if len(cfg.Auth.Users) == 0 && !cfg.Auth.AllowGuest && !cfg.Auth.AllowNull {
		warnings = append(warnings, "no users configured and guest/null logons disabled: nobody can log on")
	}
	if cfg.AccessControl.OnError == config.OnErrorSkip {
		warnings = append(warnings, "access_control.on_error is skip: invalid rules are dropped at startup")
	}
	for _, h := range cfg.Server.Handlers {
		if h.Port < 1024 {
			warnings = append(warnings, fmt.Sprintf("handler %q uses privileged port %d", h.Name, h.Port))
		}
	}
	if cfg.API.Enabled && cfg.API.BindAddress != "127.0.0.1" && cfg.API.BindAddress != "::1" {
		warnings = append(warnings, fmt.Sprintf("the unauthenticated admin API listens on %s", cfg.API.BindAddress))
	}
	return warnings
}
