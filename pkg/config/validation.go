package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/marmos91/cifsgate/internal/telemetry"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the struct tags and then the rules a tag cannot express.
// All problems are reported together.
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return err
		}
		msgs := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			msgs = append(msgs, describeFieldError(fe))
		}
		return errors.New(strings.Join(msgs, "; "))
	}

	var errs []error

	seen := make(map[string]bool, len(cfg.Shares))
	for _, s := range cfg.Shares {
		key := strings.ToUpper(s.Name)
		if seen[key] {
			errs = append(errs, fmt.Errorf("shares: duplicate share name %q", s.Name))
		}
		seen[key] = true
	}

	addrs := make(map[string]string, len(cfg.Server.Handlers))
	for _, h := range cfg.Server.Handlers {
		addr := fmt.Sprintf("%s:%d", h.BindAddress, h.Port)
		if other, ok := addrs[addr]; ok && h.Port != 0 {
			errs = append(errs, fmt.Errorf("server.handlers: %q and %q both listen on %s", other, h.Name, addr))
		}
		addrs[addr] = h.Name
	}

	for _, u := range cfg.Auth.Users {
		if !strings.HasPrefix(u.PasswordHash, "$2") {
			errs = append(errs, fmt.Errorf("auth.users: password_hash of %q is not a bcrypt hash", u.Name))
		}
	}

	if cfg.Telemetry.Profiling.Enabled {
		if cfg.Telemetry.Profiling.Endpoint == "" {
			errs = append(errs, errors.New("telemetry.profiling: endpoint is required when profiling is enabled"))
		}
		if _, err := telemetry.ParseProfileTypes(cfg.Telemetry.Profiling.ProfileTypes); err != nil {
			errs = append(errs, fmt.Errorf("telemetry.profiling: %w", err))
		}
	}

	if cfg.Metrics.Enabled && cfg.API.Enabled && cfg.Metrics.Port == cfg.API.Port {
		errs = append(errs, fmt.Errorf("metrics and api both use port %d", cfg.API.Port))
	}

	return errors.Join(errs...)
}

// describeFieldError renders a validator error with its namespace and tag,
// e.g. "Config.Logging.Level: failed on 'oneof' (value \"TRACE\")".
func describeFieldError(fe validator.FieldError) string {
	msg := fmt.Sprintf("%s: failed on '%s'", fe.Namespace(), fe.Tag())
	if fe.Param() != "" {
		msg += fmt.Sprintf(" [%s]", fe.Param())
	}
	if s := fmt.Sprint(fe.Value()); s != "" {
		msg += fmt.Sprintf(" (value %q)", s)
	}
	return msg
}
