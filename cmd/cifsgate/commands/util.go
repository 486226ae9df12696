package commands

import (
	"fmt"
	"net"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/marmos91/cifsgate/internal/cli/output"
	"github.com/marmos91/cifsgate/internal/logger"
	"github.com/marmos91/cifsgate/pkg/apiclient"
	"github.com/marmos91/cifsgate/pkg/config"
)

// InitLogger initializes the structured logger from configuration.
func InitLogger(cfg *config.Config) error {
	loggerCfg := logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	}
	if err := logger.Init(loggerCfg); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	return nil
}

func getConfigSource(path string) string {
	if path != "" {
		return path
	}
	if config.DefaultConfigExists() {
		return config.GetDefaultConfigPath()
	}
	return "defaults"
}

// adminFlags are shared by the commands that query a running server.
type adminFlags struct {
	apiURL string
	output string
}

func (f *adminFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.apiURL, "api", "", "admin API URL (default: derived from the config, else http://127.0.0.1:8080)")
	cmd.Flags().StringVarP(&f.output, "output", "o", "table", "Output format (table|json|yaml)")
}

// client resolves the API address: --api first, then the api section of
// the configuration, then the built-in default.
func (f *adminFlags) client() *apiclient.Client {
	if f.apiURL != "" {
		return apiclient.New(f.apiURL)
	}
	host, port := "127.0.0.1", 8080
	if cfg, err := config.Load(GetConfigFile()); err == nil {
		port = cfg.API.Port
		if ip := net.ParseIP(cfg.API.BindAddress); ip != nil && !ip.IsUnspecified() {
			host = ip.String()
		}
	}
	return apiclient.New("http://" + net.JoinHostPort(host, strconv.Itoa(port)))
}

func (f *adminFlags) printer(cmd *cobra.Command) (*output.Printer, error) {
	format, err := output.ParseFormat(f.output)
	if err != nil {
		return nil, err
	}
	return output.NewPrinter(cmd.OutOrStdout(), format, true), nil
}
