package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

const configHeader = `# cifsgate configuration file
#
# Environment variables override file values, e.g. CIFSGATE_LOGGING_LEVEL=DEBUG.
# Generate password hashes with: cifsgate hash-password
#
# Access control rules are evaluated share rules first, then the rules below,
# and the first rule that matches decides. Rule types: address (ip, or subnet
# and mask), user, domain and protocol; every rule takes access: allow|disallow.

`

// InitConfig writes a starter configuration to the default location and
// returns its path. An existing file is kept unless force is set.
func InitConfig(force bool) (string, error) {
	path := GetDefaultConfigPath()
	if err := InitConfigToPath(path, force); err != nil {
		return "", err
	}
	return path, nil
}

// InitConfigToPath writes a starter configuration to path.
func InitConfigToPath(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("configuration file already exists at %s (use --force to overwrite)", path)
		}
	}

	data, err := yaml.Marshal(starterConfig())
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	return writeConfigFile(path, append([]byte(configHeader), data...))
}

// starterConfig is the default configuration plus a public share that only
// the local network may use.
func starterConfig() *Config {
	cfg := GetDefaultConfig()
	cfg.Shares = append([]ShareConfig{{
		Name:    "PUBLIC",
		Type:    "disk",
		Comment: "Public files",
		Rules: []RuleConfig{
			{Type: "address", Params: map[string]any{"subnet": "192.168.0.0", "mask": "255.255.0.0", "access": "allow"}},
			{Type: "address", Params: map[string]any{"subnet": "0.0.0.0", "mask": "0.0.0.0", "access": "disallow"}},
		},
	}}, cfg.Shares...)
	return cfg
}
