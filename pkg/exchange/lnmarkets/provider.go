package lnmarkets

import (
	"context"
	"errors"
	"sync"

	"github.com/shopspring/decimal"
	"github.com/zeromicro/go-zero/core/logx"

	"lnmarkets-api/pkg/exchange"
)

// Provider binds a Client to one account to satisfy exchange.Provider.
// With only login/password it logs in on first use.
type Provider struct {
	client *Client

	mu       sync.Mutex
	cred     Credential
	login    string
	password string
}

// NewProvider constructs a provider authenticated by a bearer token.
func NewProvider(token string, isTestnet bool, opts ...ClientOption) (*Provider, error) {
	client, err := NewClient(isTestnet, opts...)
	if err != nil {
		return nil, err
	}
	return &Provider{client: client, cred: NewBearerToken(token)}, nil
}

// NewProviderWithLogin constructs a provider that logs in lazily.
func NewProviderWithLogin(login, password string, isTestnet bool, opts ...ClientOption) (*Provider, error) {
	client, err := NewClient(isTestnet, opts...)
	if err != nil {
		return nil, err
	}
	return &Provider{client: client, login: login, password: password}, nil
}

func init() {
	exchange.RegisterProvider("lnmarkets", func(name string, cfg *exchange.ProviderConfig) (exchange.Provider, error) {
		opts := []ClientOption{WithDebug(cfg.Debug)}
		if cfg.Timeout > 0 {
			opts = append(opts, WithTimeout(cfg.Timeout))
		}
		if cfg.Profile != "" {
			opts = append(opts, WithProfile(Profile(cfg.Profile)))
		}
		if cfg.BaseURL != "" {
			opts = append(opts, WithBaseURL(cfg.BaseURL))
		}
		if cfg.Token != "" {
			return NewProvider(cfg.Token, cfg.Testnet, opts...)
		}
		return NewProviderWithLogin(cfg.Login, cfg.Password, cfg.Testnet, opts...)
	})
}

// Client exposes the underlying client.
func (p *Provider) Client() *Client {
	return p.client
}

// Credential returns the active credential, logging in when needed.
func (p *Provider) Credential(ctx context.Context) (Credential, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cred != nil {
		return p.cred, nil
	}
	if p.login == "" {
		return nil, invalid("credential", ErrCredentialRequired)
	}
	cred, err := p.client.Login(ctx, p.login, p.password)
	if err != nil {
		return nil, err
	}
	logx.WithContext(ctx).Infow("lnmarkets: logged in", logx.Field("login", p.login))
	p.cred = cred
	return cred, nil
}

// Close invalidates a credential obtained through login. Configured tokens
// are left alone.
func (p *Provider) Close(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cred == nil || p.login == "" {
		return nil
	}
	err := p.client.Invalidate(ctx, p.cred)
	p.cred = nil
	return err
}

// withCred resolves the credential and forgets it when the server rejects
// it, so the next call logs in again.
func withCred[T any](ctx context.Context, p *Provider, fn func(Credential) (T, error)) (T, error) {
	cred, err := p.Credential(ctx)
	if err != nil {
		var zero T
		return zero, err
	}
	out, err := fn(cred)
	var authErr *AuthError
	if errors.As(err, &authErr) && p.login != "" {
		p.mu.Lock()
		if p.cred == cred {
			p.cred = nil
		}
		p.mu.Unlock()
	}
	return out, err
}

// GetPositions lists positions matching filter.
func (p *Provider) GetPositions(ctx context.Context, filter exchange.PositionFilter) ([]exchange.Position, error) {
	return withCred(ctx, p, func(cred Credential) ([]exchange.Position, error) {
		set, err := p.client.ListPositions(ctx, cred, filter)
		if err != nil {
			return nil, err
		}
		return set.Positions, nil
	})
}

// OpenPosition submits a new position.
func (p *Provider) OpenPosition(ctx context.Context, order exchange.Order) (*exchange.Position, error) {
	return withCred(ctx, p, func(cred Credential) (*exchange.Position, error) {
		return p.client.CreatePosition(ctx, cred, order)
	})
}

// UpdatePosition changes a trigger level.
func (p *Provider) UpdatePosition(ctx context.Context, pid string, field exchange.UpdateField, value float64) (*exchange.Position, error) {
	return withCred(ctx, p, func(cred Credential) (*exchange.Position, error) {
		return p.client.UpdatePosition(ctx, cred, pid, field, value)
	})
}

// ClosePosition closes one position.
func (p *Provider) ClosePosition(ctx context.Context, pid string) (*exchange.Position, error) {
	return withCred(ctx, p, func(cred Credential) (*exchange.Position, error) {
		return p.client.ClosePosition(ctx, cred, pid)
	})
}

// CloseSide closes every running position on side.
func (p *Provider) CloseSide(ctx context.Context, side exchange.OrderSide) (decimal.Decimal, error) {
	return withCred(ctx, p, func(cred Credential) (decimal.Decimal, error) {
		return p.client.CloseSide(ctx, cred, side)
	})
}

// CloseAll closes every running position in one request.
func (p *Provider) CloseAll(ctx context.Context) (*exchange.CloseAllResult, error) {
	return withCred(ctx, p, func(cred Credential) (*exchange.CloseAllResult, error) {
		return p.client.CloseAll(ctx, cred)
	})
}

// CancelPosition cancels an unfilled limit order.
func (p *Provider) CancelPosition(ctx context.Context, pid string) (*exchange.Position, error) {
	return withCred(ctx, p, func(cred Credential) (*exchange.Position, error) {
		return p.client.CancelPosition(ctx, cred, pid)
	})
}

// AddMargin adds collateral to a position.
func (p *Provider) AddMargin(ctx context.Context, pid string, amount int64) (*exchange.Position, error) {
	return withCred(ctx, p, func(cred Credential) (*exchange.Position, error) {
		return p.client.AddMargin(ctx, cred, pid, amount)
	})
}

// CashIn takes profit out of a running position.
func (p *Provider) CashIn(ctx context.Context, pid string, amount int64) (*exchange.Position, error) {
	return withCred(ctx, p, func(cred Credential) (*exchange.Position, error) {
		return p.client.CashIn(ctx, cred, pid, amount)
	})
}

// RealizedProfit sums pl over closed positions.
func (p *Provider) RealizedProfit(ctx context.Context) (decimal.Decimal, error) {
	return withCred(ctx, p, func(cred Credential) (decimal.Decimal, error) {
		return p.client.RealizedProfit(ctx, cred)
	})
}

// UnrealizedProfit sums pl over running positions.
func (p *Provider) UnrealizedProfit(ctx context.Context) (decimal.Decimal, error) {
	return withCred(ctx, p, func(cred Credential) (decimal.Decimal, error) {
		return p.client.UnrealizedProfit(ctx, cred)
	})
}

// MarginWithheld sums margin over running positions.
func (p *Provider) MarginWithheld(ctx context.Context) (decimal.Decimal, error) {
	return withCred(ctx, p, func(cred Credential) (decimal.Decimal, error) {
		return p.client.MarginWithheld(ctx, cred)
	})
}

var _ exchange.Provider = (*Provider)(nil)
