// Package auth resolves the identity a client presents at session setup.
//
// The LocalAuthenticator checks credentials against users declared in the
// server configuration and classifies the logon as normal, administrator,
// guest or null. Challenge/response mechanisms (NTLM, Kerberos) are left to
// the protocol dispatcher, which hands the recovered user name and password
// here.
package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/marmos91/cifsgate/internal/adapter/smb/session"
	"github.com/marmos91/cifsgate/internal/logger"
)

var (
	// ErrAuthFailed is returned when credentials are rejected.
	ErrAuthFailed = errors.New("authentication failed")
)

// Authenticator completes a ClientInfo: it verifies the credentials and sets
// the logon type, and may fill in the domain.
type Authenticator interface {
	Authenticate(ctx context.Context, ci *session.ClientInfo) error
}

// User is a configured account.
type User struct {
	Name         string
	PasswordHash string // bcrypt
	Domain       string
	Admin        bool
}

// LocalConfig configures a LocalAuthenticator.
type LocalConfig struct {
	Users      []User
	AllowGuest bool
	GuestUser  string
	AllowNull  bool
}

// LocalAuthenticator authenticates against a fixed user list.
type LocalAuthenticator struct {
	users      map[string]User
	allowGuest bool
	guestUser  string
	allowNull  bool
}

// NewLocalAuthenticator builds an authenticator. User names compare
// case-insensitively.
func NewLocalAuthenticator(cfg LocalConfig) *LocalAuthenticator {
	a := &LocalAuthenticator{
		users:      make(map[string]User, len(cfg.Users)),
		allowGuest: cfg.AllowGuest,
		guestUser:  cfg.GuestUser,
		allowNull:  cfg.AllowNull,
	}
	if a.guestUser == "" {
		a.guestUser = "guest"
	}
	for _, u := range cfg.Users {
		a.users[strings.ToLower(u.Name)] = u
	}
	return a
}

// Authenticate implements Authenticator.
//
// An empty user name and password is a null logon. A known user must supply
// the matching password. Unknown users become guests when guest access is
// enabled.
func (a *LocalAuthenticator) Authenticate(ctx context.Context, ci *session.ClientInfo) error {
	if ci.UserName == "" && !ci.HasPassword() {
		if !a.allowNull {
			return ErrAuthFailed
		}
		ci.LogonType = session.LogonNull
		return nil
	}

	u, known := a.users[strings.ToLower(ci.UserName)]
	switch {
	case known:
		if !VerifyPassword(string(ci.Password), u.PasswordHash) {
			logger.DebugCtx(ctx, "Password mismatch", logger.KeyUsername, ci.UserName)
			return ErrAuthFailed
		}
		ci.LogonType = session.LogonNormal
		if u.Admin {
			ci.LogonType = session.LogonAdministrator
		}
		if ci.Domain == "" {
			ci.Domain = u.Domain
		}
		return nil

	case a.allowGuest:
		logger.DebugCtx(ctx, "Mapping unknown user to guest",
			logger.KeyUsername, ci.UserName, "guest", a.guestUser)
		ci.UserName = a.guestUser
		ci.SetGuest(true)
		return nil
	}
	return ErrAuthFailed
}
