package lnmarkets

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/buger/jsonparser"
)

// ErrNoCredentialIssued is returned when a login answer carries neither a
// token nor a session cookie.
var ErrNoCredentialIssued = errors.New("lnmarkets: login returned no token or session")

// TokenInfo describes one active JWT of the account.
type TokenInfo struct {
	JTI       string       `json:"jti"`
	Scopes    []TokenScope `json:"scopes"`
	Expiry    int64        `json:"expiry"`
	CreatedAt int64        `json:"created_at,omitempty"`
}

// Login exchanges account credentials for a Credential. A token in the
// answer yields a BearerToken, otherwise the session cookies yield a
// SessionHandle.
func (c *Client) Login(ctx context.Context, login, password string) (Credential, error) {
	if strings.TrimSpace(login) == "" || password == "" {
		return nil, invalid("login", errors.New("login and password required"))
	}
	resp, err := c.send(ctx, call{
		op:      "login",
		method:  http.MethodPost,
		path:    c.endpoints.Login,
		payload: map[string]any{"login": login, "password": password},
	})
	if err != nil {
		return nil, err
	}
	if token, err := jsonparser.GetString(resp.Body, "token"); err == nil && token != "" {
		return NewBearerToken(token), nil
	}
	if cookies := resp.Cookies(); len(cookies) > 0 {
		return &SessionHandle{Cookies: cookies}, nil
	}
	return nil, ErrNoCredentialIssued
}

// Invalidate ends a credential: a BearerToken is revoked (by jti when
// known), a SessionHandle is logged out.
func (c *Client) Invalidate(ctx context.Context, cred Credential) error {
	switch v := cred.(type) {
	case *BearerToken:
		return c.RevokeToken(ctx, v, v.JTI)
	case *SessionHandle:
		_, err := c.send(ctx, call{
			op:     "logout",
			method: http.MethodPost,
			path:   c.endpoints.Logout,
			cred:   v,
			auth:   true,
		})
		return err
	case nil:
		return invalid("credential", ErrCredentialRequired)
	default:
		return fmt.Errorf("lnmarkets: unsupported credential %T", cred)
	}
}

// GenerateToken creates a scoped JWT valid for expiry. cred is usually the
// SessionHandle of a credentials login.
func (c *Client) GenerateToken(ctx context.Context, cred Credential, expiry time.Duration, scopes ...TokenScope) (*BearerToken, error) {
	if expiry < time.Second {
		return nil, invalid("expiry", errors.New("expiry must be at least one second"))
	}
	names := make([]string, 0, len(scopes))
	for _, s := range scopes {
		names = append(names, string(s))
	}
	resp, err := c.send(ctx, call{
		op:     "generate token",
		method: http.MethodPost,
		path:   c.endpoints.Token,
		cred:   cred,
		payload: map[string]any{
			"expiry": int64(expiry / time.Second),
			"scopes": names,
		},
	})
	if err != nil {
		return nil, err
	}
	token, err := jsonparser.GetString(resp.Body, "token")
	if err != nil || token == "" {
		return nil, fmt.Errorf("lnmarkets: generate token: missing token in response")
	}
	out := NewBearerToken(token)
	out.Scopes = append([]TokenScope(nil), scopes...)
	out.Expiry = expiry
	if jti, err := jsonparser.GetString(resp.Body, "jti"); err == nil {
		out.JTI = jti
	}
	return out, nil
}

// ListTokens returns the active JWTs of the account.
func (c *Client) ListTokens(ctx context.Context, cred Credential) ([]TokenInfo, error) {
	var tokens []TokenInfo
	err := c.do(ctx, call{
		op:     "get user tokens",
		method: http.MethodGet,
		path:   c.endpoints.Token,
		cred:   cred,
	}, &tokens)
	if err != nil {
		return nil, err
	}
	return tokens, nil
}

// RevokeToken revokes the JWT identified by jti. An empty jti revokes the
// token presented by cred.
func (c *Client) RevokeToken(ctx context.Context, cred Credential, jti string) error {
	var query url.Values
	if jti != "" {
		query = url.Values{"jti": {jti}}
	}
	_, err := c.send(ctx, call{
		op:     "revoke user token",
		method: http.MethodDelete,
		path:   c.endpoints.Token,
		cred:   cred,
		query:  query,
	})
	return err
}
