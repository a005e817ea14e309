package lnmarkets

import (
	"net/http"
	"strings"
	"time"
)

// TokenScope is a permission granted to a generated token.
type TokenScope string

const (
	ScopeDeposit   TokenScope = "deposit"
	ScopeWithdraw  TokenScope = "withdraw"
	ScopePositions TokenScope = "positions"
	ScopeUser      TokenScope = "user"
)

// Credential authenticates requests. The caller owns its lifecycle; the
// client never mutates it. Revoke one with Client.Invalidate.
type Credential interface {
	// Attach adds the authentication headers to h.
	Attach(h http.Header)
	credential()
}

// BearerToken is a JWT sent as "Authorization: Bearer <token>".
type BearerToken struct {
	Token  string
	JTI    string // token identifier, when known
	Scopes []TokenScope
	Expiry time.Duration
}

// NewBearerToken wraps a raw token string.
func NewBearerToken(token string) *BearerToken {
	return &BearerToken{Token: strings.TrimSpace(token)}
}

// Attach sets the Authorization header.
func (t *BearerToken) Attach(h http.Header) {
	h.Set("Authorization", "Bearer "+t.Token)
}

func (*BearerToken) credential() {}

// SessionHandle carries the cookies of a credentials login.
type SessionHandle struct {
	Cookies []*http.Cookie
}

// Attach sets the Cookie header.
func (s *SessionHandle) Attach(h http.Header) {
	pairs := make([]string, 0, len(s.Cookies))
	for _, c := range s.Cookies {
		if c == nil || c.Name == "" {
			continue
		}
		pairs = append(pairs, c.Name+"="+c.Value)
	}
	if len(pairs) > 0 {
		h.Set("Cookie", strings.Join(pairs, "; "))
	}
}

func (*SessionHandle) credential() {}
