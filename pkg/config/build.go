package config

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/marmos91/cifsgate/internal/adapter/smb/session"
	"github.com/marmos91/cifsgate/internal/logger"
	"github.com/marmos91/cifsgate/pkg/acl"
	"github.com/marmos91/cifsgate/pkg/auth"
	"github.com/marmos91/cifsgate/pkg/lock"
	"github.com/marmos91/cifsgate/pkg/server"
	"github.com/marmos91/cifsgate/pkg/share"
)

// Rule parse failure policies for AccessControlConfig.OnError.
const (
	OnErrorAbort = "abort"
	OnErrorSkip  = "skip"
)

// BuildAccessControl creates the access-control manager and the share list.
//
// Rules are parsed with the built-in rule types plus any extra parsers.
// With on_error set to skip, a rule that fails to parse is logged and
// dropped; otherwise the first failure is returned.
func BuildAccessControl(cfg *Config, metrics *acl.Metrics, parsers ...acl.Parser) (*acl.Manager, *share.List, error) {
	opts := []acl.Option{
		acl.WithDefaultVerdict(cfg.AccessControl.Default),
		acl.WithMetrics(metrics),
	}
	parse := acl.NewManager(opts...)
	for _, p := range parsers {
		parse.AddAccessControlType(p)
	}

	skip := cfg.AccessControl.OnError == OnErrorSkip
	buildRules := func(where string, rules []RuleConfig) ([]acl.AccessControl, error) {
		out := make([]acl.AccessControl, 0, len(rules))
		for i, rc := range rules {
			r, err := parse.CreateAccessControl(rc.Type, rc.Params)
			if err != nil {
				if skip {
					logger.Warn("Skipping invalid access control rule",
						logger.KeyRule, fmt.Sprintf("%s[%d]", where, i), logger.KeyRuleType, rc.Type, logger.KeyError, err)
					continue
				}
				return nil, fmt.Errorf("%s[%d]: %w", where, i, err)
			}
			out = append(out, r)
		}
		return out, nil
	}

	global, err := buildRules("access_control.rules", cfg.AccessControl.Rules)
	if err != nil {
		return nil, nil, err
	}

	devices := make([]*share.Device, 0, len(cfg.Shares))
	for _, sc := range cfg.Shares {
		typ, err := share.ParseType(sc.Type)
		if err != nil {
			return nil, nil, fmt.Errorf("share %q: %w", sc.Name, err)
		}
		rules, err := buildRules(fmt.Sprintf("shares[%s].rules", sc.Name), sc.Rules)
		if err != nil {
			return nil, nil, err
		}
		devices = append(devices, &share.Device{
			Name:    sc.Name,
			Type:    typ,
			Comment: sc.Comment,
			Rules:   rules,
		})
	}

	shares, err := share.NewList(devices...)
	if err != nil {
		return nil, nil, err
	}

	mgr := acl.NewManager(append(opts, acl.WithRules(global...))...)
	for _, p := range parsers {
		mgr.AddAccessControlType(p)
	}
	return mgr, shares, nil
}

// BuildAuthenticator creates the local authenticator from the auth section.
func BuildAuthenticator(cfg *Config) *auth.LocalAuthenticator {
	users := make([]auth.User, 0, len(cfg.Auth.Users))
	for _, u := range cfg.Auth.Users {
		users = append(users, auth.User{
			Name:         u.Name,
			PasswordHash: u.PasswordHash,
			Domain:       u.Domain,
			Admin:        u.Admin,
		})
	}
	return auth.NewLocalAuthenticator(auth.LocalConfig{
		Users:      users,
		AllowGuest: cfg.Auth.AllowGuest,
		GuestUser:  cfg.Auth.GuestUser,
		AllowNull:  cfg.Auth.AllowNull,
	})
}

// TCPConfig converts a handler entry to the listener configuration.
func (h HandlerConfig) TCPConfig(serverName string) server.TCPConfig {
	kind := server.KindTCP
	if h.Type == "netbios" {
		kind = server.KindNetBIOS
	}
	return server.TCPConfig{
		Name:            h.Name,
		Kind:            kind,
		BindAddress:     h.BindAddress,
		Port:            h.Port,
		MaxConnections:  h.MaxConnections,
		MaxMessageSize:  h.MaxMessageSize.Int(),
		IdleTimeout:     h.IdleTimeout,
		WriteTimeout:    h.WriteTimeout,
		ShutdownTimeout: h.ShutdownTimeout,
		ServerName:      serverName,
	}
}

// BuildServer wires a server and its handlers from cfg. Metrics register
// with reg when it is non-nil. A nil dispatcher drops every message.
func BuildServer(cfg *Config, reg prometheus.Registerer, dispatcher server.Dispatcher) (*server.Server, error) {
	var (
		aclMetrics     *acl.Metrics
		lockMetrics    *lock.Metrics
		sessionMetrics *session.Metrics
		serverMetrics  *server.Metrics
	)
	if reg != nil {
		aclMetrics = acl.NewMetrics(reg)
		lockMetrics = lock.NewMetrics(reg)
		sessionMetrics = session.NewMetrics(reg)
		serverMetrics = server.NewMetrics(reg)
	}

	mgr, shares, err := BuildAccessControl(cfg, aclMetrics)
	if err != nil {
		return nil, fmt.Errorf("access control: %w", err)
	}

	srv := server.New(server.Options{
		Name:            cfg.Server.Name,
		ACL:             mgr,
		Shares:          shares,
		Locks:           lock.NewTable(cfg.Locks.MaxLocksPerFile, lockMetrics),
		Authenticator:   BuildAuthenticator(cfg),
		SessionMetrics:  sessionMetrics,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	})

	for _, hc := range cfg.Server.Handlers {
		h := server.NewTCPHandler(hc.TCPConfig(cfg.Server.Name), srv, dispatcher, serverMetrics)
		if err := srv.AddHandler(h); err != nil {
			return nil, fmt.Errorf("handler %q: %w", hc.Name, err)
		}
	}
	return srv, nil
}
