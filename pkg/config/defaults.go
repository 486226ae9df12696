package config

import (
	"strings"
	"time"

	"github.com/marmos91/cifsgate/internal/bytesize"
	"github.com/marmos91/cifsgate/pkg/acl"
)

const (
	// DefaultSMBPort is used for a tcp handler when no handlers are
	// configured. It avoids the privileged port 445.
	DefaultSMBPort = 12445

	defaultMaxMessageSize = 128 * bytesize.KiB
)

// ApplyDefaults sets default values for any unspecified configuration fields.
// Zero values are replaced; explicit values are preserved.
func ApplyDefaults(cfg *Config) {
	applyLoggingDefaults(&cfg.Logging)
	applyTelemetryDefaults(&cfg.Telemetry)
	applyMetricsDefaults(&cfg.Metrics)
	applyAPIDefaults(&cfg.API)
	applyServerDefaults(&cfg.Server)
	applyAccessControlDefaults(&cfg.AccessControl)
	applyShareDefaults(cfg.Shares)
	applyAuthDefaults(&cfg.Auth)
	applyLockDefaults(&cfg.Locks)
}

// applyLoggingDefaults sets logging defaults and normalizes the level to
// uppercase.
func applyLoggingDefaults(cfg *LoggingConfig) {
	if cfg.Level == "" {
		cfg.Level = "INFO"
	}
	cfg.Level = strings.ToUpper(cfg.Level)

	if cfg.Format == "" {
		cfg.Format = "text"
	}
	if cfg.Output == "" {
		cfg.Output = "stdout"
	}
}

func applyTelemetryDefaults(cfg *TelemetryConfig) {
	if cfg.Endpoint == "" {
		cfg.Endpoint = "localhost:4317"
	}
	if cfg.SampleRate == 0 {
		cfg.SampleRate = 1.0
	}

	if cfg.Profiling.Endpoint == "" {
		cfg.Profiling.Endpoint = "http://localhost:4040"
	}
	if len(cfg.Profiling.ProfileTypes) == 0 {
		cfg.Profiling.ProfileTypes = []string{"cpu", "alloc_space", "inuse_space", "goroutines"}
	}
}

// applyMetricsDefaults sets the port only when metrics are enabled.
func applyMetricsDefaults(cfg *MetricsConfig) {
	if cfg.Enabled && cfg.Port == 0 {
		cfg.Port = 9090
	}
}

func applyAPIDefaults(cfg *APIConfig) {
	if cfg.BindAddress == "" {
		cfg.BindAddress = "127.0.0.1"
	}
	if cfg.Port == 0 {
		cfg.Port = 8080
	}
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = 10 * time.Second
	}
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = 10 * time.Second
	}
	if cfg.IdleTimeout == 0 {
		cfg.IdleTimeout = 60 * time.Second
	}
}

// applyServerDefaults fills in the server name and, when none is declared,
// a single native SMB handler.
func applyServerDefaults(cfg *ServerConfig) {
	if cfg.Name == "" {
		cfg.Name = "CIFSGATE"
	}
	cfg.Name = strings.ToUpper(cfg.Name)

	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 30 * time.Second
	}

	if len(cfg.Handlers) == 0 {
		cfg.Handlers = []HandlerConfig{{Name: "smb", Type: "tcp", Port: DefaultSMBPort}}
	}
	for i := range cfg.Handlers {
		applyHandlerDefaults(&cfg.Handlers[i])
	}
}

func applyHandlerDefaults(cfg *HandlerConfig) {
	if cfg.Type == "" {
		cfg.Type = "tcp"
	}
	cfg.Type = strings.ToLower(cfg.Type)
	if cfg.Name == "" {
		cfg.Name = cfg.Type
	}
	if cfg.BindAddress == "" {
		cfg.BindAddress = "0.0.0.0"
	}
	if cfg.Port == 0 {
		switch cfg.Type {
		case "netbios":
			cfg.Port = 139
		default:
			cfg.Port = 445
		}
	}
	if cfg.MaxMessageSize == 0 {
		cfg.MaxMessageSize = defaultMaxMessageSize
	}
}

func applyAccessControlDefaults(cfg *AccessControlConfig) {
	if cfg.OnError == "" {
		cfg.OnError = "abort"
	}
	cfg.OnError = strings.ToLower(cfg.OnError)
}

func applyShareDefaults(shares []ShareConfig) {
	for i := range shares {
		if shares[i].Type == "" {
			shares[i].Type = "disk"
		}
		shares[i].Type = strings.ToLower(shares[i].Type)
	}
}

func applyAuthDefaults(cfg *AuthConfig) {
	if cfg.GuestUser == "" {
		cfg.GuestUser = "guest"
	}
}

func applyLockDefaults(cfg *LockConfig) {
	if cfg.MaxLocksPerFile == 0 {
		cfg.MaxLocksPerFile = 1000
	}
}

// GetDefaultConfig returns a Config with all default values applied: one
// native SMB handler, access allowed unless a rule says otherwise, guest
// logons enabled and the IPC$ pipe share.
func GetDefaultConfig() *Config {
	cfg := &Config{
		AccessControl: AccessControlConfig{
			Default: acl.Allow,
		},
		Shares: []ShareConfig{
			{Name: "IPC$", Type: "pipe", Comment: "Remote IPC"},
		},
		Auth: AuthConfig{
			AllowGuest: true,
		},
	}

	ApplyDefaults(cfg)
	return cfg
}
