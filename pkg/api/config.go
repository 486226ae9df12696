package api

import (
	"net"
	"strconv"
	"time"
)

// Config configures the admin HTTP server.
type Config struct {
	// BindAddress defaults to 127.0.0.1
	BindAddress string

	// Port defaults to 8080. A negative port binds an ephemeral one.
	Port int

	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// applyDefaults fills in zero values. It is idempotent with the defaults
// applied during config loading so servers built directly in tests work.
func (c *Config) applyDefaults() {
	if c.BindAddress == "" {
		c.BindAddress = "127.0.0.1"
	}
	if c.Port == 0 {
		c.Port = 8080
	}
	if c.Port < 0 {
		c.Port = 0
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = 10 * time.Second
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = 10 * time.Second
	}
	if c.IdleTimeout == 0 {
		c.IdleTimeout = 60 * time.Second
	}
}

func (c *Config) address() string {
	return net.JoinHostPort(c.BindAddress, strconv.Itoa(c.Port))
}
