package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"strconv"
)

// Health calls the liveness probe.
func (c *Client) Health(ctx context.Context) (*Health, error) {
	return getResource[Health](ctx, c, "/health", nil)
}

// Ready calls the readiness probe. A 503 answer is not an error: the
// returned Health carries the reason.
func (c *Client) Ready(ctx context.Context) (*Health, error) {
	h, err := getResource[Health](ctx, c, "/health/ready", nil)
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.IsUnavailable() {
		var unhealthy Health
		if json.Unmarshal(apiErr.body, &unhealthy) == nil && unhealthy.Status != "" {
			return &unhealthy, nil
		}
	}
	return h, err
}

// Server returns the server summary.
func (c *Client) Server(ctx context.Context) (*ServerInfo, error) {
	return getResource[ServerInfo](ctx, c, "/server", nil)
}

// Handlers lists the session handlers.
func (c *Client) Handlers(ctx context.Context) ([]Handler, error) {
	return listResources[Handler](ctx, c, "/handlers", nil)
}

// Handler returns one session handler by name.
func (c *Client) Handler(ctx context.Context, name string) (*Handler, error) {
	return getResource[Handler](ctx, c, "/handlers/"+url.PathEscape(name), nil)
}

// Sessions lists the active sessions ordered by ID.
func (c *Client) Sessions(ctx context.Context) ([]Session, error) {
	return listResources[Session](ctx, c, "/sessions", nil)
}

// Session returns one session.
func (c *Client) Session(ctx context.Context, id uint32) (*Session, error) {
	return getResource[Session](ctx, c, "/sessions/"+formatID(id), nil)
}

// Shares lists every share, hidden ones included.
func (c *Client) Shares(ctx context.Context) ([]Share, error) {
	return listResources[Share](ctx, c, "/shares", nil)
}

// SharesFor lists the shares a session would see when enumerating.
func (c *Client) SharesFor(ctx context.Context, session uint32) ([]Share, error) {
	return listResources[Share](ctx, c, "/shares", url.Values{"session": {formatID(session)}})
}

// Share returns one share by name.
func (c *Client) Share(ctx context.Context, name string) (*Share, error) {
	return getResource[Share](ctx, c, "/shares/"+url.PathEscape(name), nil)
}

// CheckAccess asks for the verdict a session gets on a share.
func (c *Client) CheckAccess(ctx context.Context, share string, session uint32) (*Access, error) {
	return getResource[Access](ctx, c, "/shares/"+url.PathEscape(share)+"/access",
		url.Values{"session": {formatID(session)}})
}

func formatID(id uint32) string {
	return strconv.FormatUint(uint64(id), 10)
}
