package lnmarkets

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/zeromicro/go-zero/core/collection"
	"github.com/zeromicro/go-zero/core/logx"

	lnm "lnmarkets-api/pkg/exchange/lnmarkets"
	"lnmarkets-api/pkg/market"
)

const (
	defaultProviderTimeout = 8 * time.Second
	defaultCacheTTL        = time.Second

	// Symbol is the only instrument the venue lists.
	Symbol = "BTCUSD"
)

// ErrSymbolNotFound indicates that the requested symbol is not listed.
var ErrSymbolNotFound = errors.New("lnmarkets: symbol not found")

// Provider implements market.Provider on top of Client with a short-lived
// snapshot cache.
type Provider struct {
	client  *Client
	timeout time.Duration
	cache   *collection.Cache
}

type providerConfig struct {
	timeout       time.Duration
	cacheTTL      time.Duration
	clientOptions []Option
}

// ProviderOption customises the provider.
type ProviderOption func(*providerConfig)

// WithTimeout overrides the per-call timeout.
func WithTimeout(timeout time.Duration) ProviderOption {
	return func(cfg *providerConfig) {
		if timeout > 0 {
			cfg.timeout = timeout
		}
	}
}

// WithCacheTTL sets how long a snapshot is served from memory.
func WithCacheTTL(ttl time.Duration) ProviderOption {
	return func(cfg *providerConfig) {
		if ttl > 0 {
			cfg.cacheTTL = ttl
		}
	}
}

// WithClientOptions passes options to the underlying client.
func WithClientOptions(options ...Option) ProviderOption {
	return func(cfg *providerConfig) {
		cfg.clientOptions = append(cfg.clientOptions, options...)
	}
}

// NewProvider constructs an LN Markets market provider.
func NewProvider(opts ...ProviderOption) (*Provider, error) {
	cfg := &providerConfig{
		timeout:  defaultProviderTimeout,
		cacheTTL: defaultCacheTTL,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	client, err := NewClient(cfg.clientOptions...)
	if err != nil {
		return nil, err
	}
	cache, err := collection.NewCache(cfg.cacheTTL, collection.WithName("lnmarkets-snapshots"))
	if err != nil {
		return nil, fmt.Errorf("lnmarkets: snapshot cache: %w", err)
	}
	return &Provider{client: client, timeout: cfg.timeout, cache: cache}, nil
}

func init() {
	market.RegisterProvider("lnmarkets", func(name string, cfg *market.ProviderConfig) (market.Provider, error) {
		clientOptions := []Option{WithTestnet(cfg.Testnet)}
		if cfg.BaseURL != "" {
			clientOptions = append(clientOptions, WithBaseURL(cfg.BaseURL))
		}
		if cfg.Profile != "" {
			clientOptions = append(clientOptions, WithProfile(lnm.Profile(cfg.Profile)))
		}
		opts := []ProviderOption{WithClientOptions(clientOptions...)}
		if cfg.Timeout > 0 {
			opts = append(opts, WithTimeout(cfg.Timeout))
		}
		if cfg.CacheTTL > 0 {
			opts = append(opts, WithCacheTTL(cfg.CacheTTL))
		}
		return NewProvider(opts...)
	})
}

// Client exposes the underlying client.
func (p *Provider) Client() *Client {
	return p.client
}

// Snapshot returns the latest index and quote.
func (p *Provider) Snapshot(ctx context.Context, symbol string) (*market.Snapshot, error) {
	sym, err := normaliseSymbol(symbol)
	if err != nil {
		return nil, err
	}
	value, err := p.cache.Take(sym, func() (any, error) {
		return p.fetchSnapshot(ctx, sym)
	})
	if err != nil {
		return nil, err
	}
	snap := *value.(*market.Snapshot)
	return &snap, nil
}

func (p *Provider) fetchSnapshot(ctx context.Context, sym string) (*market.Snapshot, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	latest := HistoryQuery{Limit: 1}
	index, err := p.client.IndexHistory(ctx, latest)
	if err != nil {
		return nil, err
	}
	quotes, err := p.client.BidOfferHistory(ctx, latest)
	if err != nil {
		return nil, err
	}
	if len(index) == 0 || len(quotes) == 0 {
		return nil, fmt.Errorf("lnmarkets: empty history for %s", sym)
	}

	snap := &market.Snapshot{Symbol: sym}
	for _, pt := range index {
		if pt.Time.After(snap.IndexTime) || snap.IndexTime.IsZero() {
			snap.Index, snap.IndexTime = pt.Index, pt.Time
		}
	}
	for _, q := range quotes {
		if q.Time.After(snap.QuoteTime) || snap.QuoteTime.IsZero() {
			snap.Bid, snap.Offer, snap.QuoteTime = q.Bid, q.Offer, q.Time
		}
	}
	logx.WithContext(ctx).Debugw("lnmarkets: snapshot refreshed",
		logx.Field("symbol", sym),
		logx.Field("index", snap.Index.String()),
		logx.Field("bid", snap.Bid.String()),
		logx.Field("offer", snap.Offer.String()))
	return snap, nil
}

// Status reports whether new positions are accepted.
func (p *Provider) Status(ctx context.Context) (*market.Status, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	state, err := p.client.State(ctx)
	if err != nil {
		return nil, err
	}
	return &market.Status{NewPositions: state.NewPositions, Raw: state.Fields}, nil
}

func normaliseSymbol(symbol string) (string, error) {
	switch strings.ToUpper(strings.TrimSpace(symbol)) {
	case "", "BTC", "BTCUSD", "XBTUSD":
		return Symbol, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrSymbolNotFound, symbol)
	}
}

var _ market.Provider = (*Provider)(nil)
