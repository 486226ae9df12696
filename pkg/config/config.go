package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/marmos91/cifsgate/internal/bytesize"
	"github.com/marmos91/cifsgate/pkg/acl"
)

const appName = "cifsgate"

// Config is the cifsgate server configuration.
//
// The file declares the listeners, the access-control rules, the shares and
// the configured users. There is no runtime store: the server is rebuilt from
// this file on every start.
//
// Configuration sources (in order of precedence):
//  1. Environment variables (CIFSGATE_*)
//  2. Configuration file (YAML or TOML)
//  3. Default values
type Config struct {
	// Logging controls log output behavior
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`

	// Telemetry controls OpenTelemetry tracing and Pyroscope profiling
	Telemetry TelemetryConfig `mapstructure:"telemetry" yaml:"telemetry"`

	// Metrics contains Prometheus metrics server configuration
	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics"`

	// API configures the read-only admin HTTP API
	API APIConfig `mapstructure:"api" yaml:"api"`

	// Server holds the server name and the session handlers to start
	Server ServerConfig `mapstructure:"server" yaml:"server"`

	// AccessControl holds the server-wide rules, evaluated after share rules
	AccessControl AccessControlConfig `mapstructure:"access_control" yaml:"access_control"`

	// Shares lists the exported devices in announcement order
	Shares []ShareConfig `mapstructure:"shares" validate:"dive" yaml:"shares"`

	// Auth configures the local authenticator
	Auth AuthConfig `mapstructure:"auth" yaml:"auth"`

	// Locks configures the byte-range lock table
	Locks LockConfig `mapstructure:"locks" yaml:"locks"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	// Level is the minimum log level to output
	// Valid values: DEBUG, INFO, WARN, ERROR (case-insensitive, normalized to uppercase)
	Level string `mapstructure:"level" validate:"required,oneof=DEBUG INFO WARN ERROR debug info warn error" yaml:"level"`

	// Format specifies the log output format
	// Valid values: text, json
	Format string `mapstructure:"format" validate:"required,oneof=text json" yaml:"format"`

	// Output specifies where logs are written: stdout, stderr, or a file path
	Output string `mapstructure:"output" validate:"required" yaml:"output"`
}

// TelemetryConfig controls OpenTelemetry distributed tracing.
type TelemetryConfig struct {
	// Enabled controls whether distributed tracing is enabled
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Endpoint is the OTLP collector endpoint (host:port)
	// Default: "localhost:4317"
	Endpoint string `mapstructure:"endpoint" validate:"required_if=Enabled true" yaml:"endpoint"`

	// Insecure disables TLS towards the collector
	Insecure bool `mapstructure:"insecure" yaml:"insecure"`

	// SampleRate is the fraction of traces sampled, 0.0 to 1.0
	SampleRate float64 `mapstructure:"sample_rate" validate:"omitempty,gte=0,lte=1" yaml:"sample_rate"`

	// Profiling contains Pyroscope continuous profiling configuration
	Profiling ProfilingConfig `mapstructure:"profiling" yaml:"profiling"`
}

// ProfilingConfig controls Pyroscope continuous profiling.
type ProfilingConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Endpoint is the Pyroscope server URL
	// Default: "http://localhost:4040"
	Endpoint string `mapstructure:"endpoint" validate:"omitempty,url" yaml:"endpoint"`

	// ProfileTypes lists the profiles to collect, see telemetry.ProfileTypeNames
	ProfileTypes []string `mapstructure:"profile_types" yaml:"profile_types"`
}

// MetricsConfig configures the Prometheus metrics HTTP server.
// When Enabled is false, no metrics are collected.
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Port is the HTTP port for the metrics endpoint
	// Default: 9090
	Port int `mapstructure:"port" validate:"omitempty,min=1,max=65535" yaml:"port"`
}

// APIConfig configures the admin HTTP API.
type APIConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// BindAddress defaults to 127.0.0.1; the API has no authentication
	BindAddress string `mapstructure:"bind_address" validate:"omitempty,ip" yaml:"bind_address"`

	// Port defaults to 8080
	Port int `mapstructure:"port" validate:"omitempty,min=1,max=65535" yaml:"port"`

	ReadTimeout  time.Duration `mapstructure:"read_timeout" validate:"gte=0" yaml:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout" validate:"gte=0" yaml:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout" validate:"gte=0" yaml:"idle_timeout"`
}

// ServerConfig holds server-wide settings and the session handlers.
type ServerConfig struct {
	// Name is the server's NetBIOS name, also matched against NetBIOS
	// session requests
	Name string `mapstructure:"name" validate:"required,max=15" yaml:"name"`

	// ShutdownTimeout is the maximum time to wait for graceful shutdown
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"required,gt=0" yaml:"shutdown_timeout"`

	// Handlers are started in order. Names must be unique.
	Handlers []HandlerConfig `mapstructure:"handlers" validate:"required,min=1,unique=Name,dive" yaml:"handlers"`
}

// HandlerConfig describes one listening session handler.
type HandlerConfig struct {
	Name string `mapstructure:"name" validate:"required" yaml:"name"`

	// Type is tcp (native SMB, port 445) or netbios (session service, port 139)
	Type string `mapstructure:"type" validate:"required,oneof=tcp netbios" yaml:"type"`

	BindAddress string `mapstructure:"bind_address" validate:"omitempty,ip" yaml:"bind_address"`
	Port        int    `mapstructure:"port" validate:"min=0,max=65535" yaml:"port"`

	// MaxConnections limits concurrent clients, 0 for unlimited
	MaxConnections int `mapstructure:"max_connections" validate:"gte=0" yaml:"max_connections"`

	// MaxMessageSize bounds a single framed message, e.g. "128KiB"
	MaxMessageSize bytesize.ByteSize `mapstructure:"max_message_size" validate:"lte=16777215" yaml:"max_message_size"`

	IdleTimeout     time.Duration `mapstructure:"idle_timeout" validate:"gte=0" yaml:"idle_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout" validate:"gte=0" yaml:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"gte=0" yaml:"shutdown_timeout"`
}

// AccessControlConfig configures the server-wide access-control manager.
type AccessControlConfig struct {
	// Default is the verdict when no rule applies: allow, disallow or
	// default (which denies)
	Default acl.Verdict `mapstructure:"default" yaml:"default"`

	// OnError decides what happens to a rule that fails to parse: abort
	// stops loading, skip logs a warning and drops the rule
	OnError string `mapstructure:"on_error" validate:"required,oneof=abort skip" yaml:"on_error"`

	Rules []RuleConfig `mapstructure:"rules" validate:"dive" yaml:"rules"`
}

// RuleConfig is one access-control rule. Every key besides type is handed to
// the rule parser registered for the type.
//
//	- type: address
//	  subnet: 192.168.1.0
//	  mask: 255.255.255.0
//	  access: allow
type RuleConfig struct {
	Type   string     `mapstructure:"type" validate:"required" yaml:"type"`
	Params acl.Params `mapstructure:",remain" yaml:",inline"`
}

// ShareConfig declares one shared device.
type ShareConfig struct {
	Name string `mapstructure:"name" validate:"required,max=80" yaml:"name"`

	// Type is disk, printer, pipe or admin. Default: disk
	Type    string `mapstructure:"type" validate:"omitempty,oneof=disk printer print pipe ipc admin" yaml:"type"`
	Comment string `mapstructure:"comment" yaml:"comment,omitempty"`

	// Rules are evaluated before the server-wide rules
	Rules []RuleConfig `mapstructure:"rules" validate:"dive" yaml:"rules,omitempty"`
}

// AuthConfig configures the local authenticator.
type AuthConfig struct {
	// AllowGuest maps unknown users to GuestUser
	AllowGuest bool   `mapstructure:"allow_guest" yaml:"allow_guest"`
	GuestUser  string `mapstructure:"guest_user" yaml:"guest_user"`

	// AllowNull accepts logons with an empty user name and password
	AllowNull bool `mapstructure:"allow_null" yaml:"allow_null"`

	Users []UserConfig `mapstructure:"users" validate:"unique=Name,dive" yaml:"users"`
}

// UserConfig is a configured account.
type UserConfig struct {
	Name string `mapstructure:"name" validate:"required" yaml:"name"`

	// PasswordHash is a bcrypt hash, see "cifsgate hash-password"
	PasswordHash string `mapstructure:"password_hash" validate:"required" yaml:"password_hash"`

	Domain string `mapstructure:"domain" yaml:"domain,omitempty"`
	Admin  bool   `mapstructure:"admin" yaml:"admin,omitempty"`
}

// LockConfig contains lock table configuration.
type LockConfig struct {
	// MaxLocksPerFile is the maximum number of byte-range locks on a file,
	// 0 for unlimited. Default: 1000
	MaxLocksPerFile int `mapstructure:"max_locks_per_file" validate:"gte=0" yaml:"max_locks_per_file"`
}

// Load loads configuration from file, environment, and defaults.
//
// An empty configPath searches the default location. A missing file is not
// an error: the defaults are used, with environment overrides applied.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setupViper(v, configPath)

	if _, err := readConfigFile(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, viper.DecodeHook(configDecodeHooks())); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// MustLoad loads configuration with helpful error messages when the file is
// missing.
func MustLoad(configPath string) (*Config, error) {
	if configPath == "" {
		if !DefaultConfigExists() {
			return nil, fmt.Errorf("no configuration file found at default location: %s\n\n"+
				"Please initialize a configuration file first:\n"+
				"  cifsgate config init\n\n"+
				"Or specify a custom config file:\n"+
				"  cifsgate <command> --config /path/to/config.yaml",
				GetDefaultConfigPath())
		}
		configPath = GetDefaultConfigPath()
	} else if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("configuration file not found: %s\n\n"+
			"Please create the configuration file:\n"+
			"  cifsgate config init --config %s",
			configPath, configPath)
	}

	cfg, err := Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, nil
}

// SaveConfig writes the configuration as YAML. The file is created 0600
// since it carries password hashes.
func SaveConfig(cfg *Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	return writeConfigFile(path, data)
}

func writeConfigFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// setupViper configures environment overrides and the file search.
// Environment variables use the CIFSGATE_ prefix, for example
// CIFSGATE_LOGGING_LEVEL=DEBUG or CIFSGATE_SERVER_NAME=FILESRV.
func setupViper(v *viper.Viper, configPath string) {
	v.SetEnvPrefix(strings.ToUpper(appName))
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindEnvKeys(v, "", reflect.TypeOf(Config{}))

	// The zero verdict denies, so an omitted default must be set here rather
	// than in ApplyDefaults.
	v.SetDefault("access_control.default", strings.ToLower(acl.Allow.String()))

	if configPath != "" {
		v.SetConfigFile(configPath)
		return
	}
	v.AddConfigPath(getConfigDir())
	v.SetConfigName("config")
	v.SetConfigType("yaml")
}

// bindEnvKeys registers every scalar key of t with viper. AutomaticEnv only
// consults the environment for keys viper already knows, so without this an
// override for a key missing from the file would be ignored by Unmarshal.
func bindEnvKeys(v *viper.Viper, prefix string, t reflect.Type) {
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		tag := strings.Split(f.Tag.Get("mapstructure"), ",")[0]
		if tag == "" {
			continue
		}
		key := tag
		if prefix != "" {
			key = prefix + "." + tag
		}
		if f.Type.Kind() == reflect.Struct && f.Type != reflect.TypeOf(time.Duration(0)) {
			bindEnvKeys(v, key, f.Type)
			continue
		}
		if f.Type.Kind() == reflect.Slice && f.Type.Elem().Kind() == reflect.Struct {
			continue
		}
		_ = v.BindEnv(key)
	}
}

// readConfigFile reports whether a configuration file was read.
func readConfigFile(v *viper.Viper) (bool, error) {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return false, nil
		}
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to read config file: %w", err)
	}
	return true, nil
}

func configDecodeHooks() mapstructure.DecodeHookFunc {
	return mapstructure.ComposeDecodeHookFunc(
		byteSizeDecodeHook(),
		durationDecodeHook(),
		verdictDecodeHook(),
		mapstructure.StringToSliceHookFunc(","),
	)
}

// byteSizeDecodeHook accepts "128KiB" style strings as well as plain numbers.
func byteSizeDecodeHook() mapstructure.DecodeHookFunc {
	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != reflect.TypeOf(bytesize.ByteSize(0)) {
			return data, nil
		}

		switch v := data.(type) {
		case string:
			return bytesize.Parse(v)
		case int:
			if v < 0 {
				return nil, fmt.Errorf("negative byte size %d", v)
			}
			return bytesize.ByteSize(v), nil
		case int64:
			if v < 0 {
				return nil, fmt.Errorf("negative byte size %d", v)
			}
			return bytesize.ByteSize(v), nil
		case uint64:
			return bytesize.ByteSize(v), nil
		case float64:
			if v < 0 {
				return nil, fmt.Errorf("negative byte size %v", v)
			}
			return bytesize.ByteSize(v), nil
		default:
			return data, nil
		}
	}
}

// durationDecodeHook converts "30s" style strings to time.Duration.
func durationDecodeHook() mapstructure.DecodeHookFunc {
	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != reflect.TypeOf(time.Duration(0)) {
			return data, nil
		}

		switch v := data.(type) {
		case string:
			return time.ParseDuration(v)
		case int:
			// Raw integers are nanoseconds.
			return time.Duration(v), nil
		case int64:
			return time.Duration(v), nil
		case float64:
			return time.Duration(v), nil
		default:
			return data, nil
		}
	}
}

// verdictDecodeHook converts allow, disallow/deny and default to acl.Verdict.
func verdictDecodeHook() mapstructure.DecodeHookFunc {
	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != reflect.TypeOf(acl.Verdict(0)) {
			return data, nil
		}
		if s, ok := data.(string); ok {
			return acl.ParseVerdict(s)
		}
		return data, nil
	}
}

// getConfigDir returns $XDG_CONFIG_HOME/cifsgate, falling back to
// ~/.config/cifsgate, or the current directory when neither resolves.
func getConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, appName)
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", appName)
}

// GetDefaultConfigPath returns the default configuration file path.
func GetDefaultConfigPath() string {
	return filepath.Join(getConfigDir(), "config.yaml")
}

// DefaultConfigExists checks if a config file exists at the default location.
func DefaultConfigExists() bool {
	_, err := os.Stat(GetDefaultConfigPath())
	return err == nil
}

// GetConfigDir returns the configuration directory path.
func GetConfigDir() string {
	return getConfigDir()
}
