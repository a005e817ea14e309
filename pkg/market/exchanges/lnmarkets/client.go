package lnmarkets

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/buger/jsonparser"
	"github.com/zeromicro/go-zero/core/logx"

	lnm "lnmarkets-api/pkg/exchange/lnmarkets"
	"lnmarkets-api/pkg/transport"
)

const defaultHTTPTimeout = 10 * time.Second

// ErrNewPositionsDisabled is returned by CheckTradable while the venue
// refuses new positions.
var ErrNewPositionsDisabled = errors.New("lnmarkets: new positions currently not allowed")

// Client reads the public state and history routes. None of them need a
// credential.
type Client struct {
	transport transport.Transport
	endpoints lnm.Endpoints
}

type clientConfig struct {
	transport  transport.Transport
	httpClient *http.Client
	profile    lnm.Profile
	baseURL    string
	testnet    bool
	timeout    time.Duration
}

// Option configures a new Client.
type Option func(*clientConfig)

// WithTransport shares an existing transport, e.g. the trading client's.
func WithTransport(t transport.Transport) Option {
	return func(c *clientConfig) {
		if t != nil {
			c.transport = t
		}
	}
}

// WithHTTPClient injects a custom http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *clientConfig) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithProfile selects the API version profile.
func WithProfile(p lnm.Profile) Option {
	return func(c *clientConfig) {
		if p != "" {
			c.profile = p
		}
	}
}

// WithBaseURL overrides the API root.
func WithBaseURL(u string) Option {
	return func(c *clientConfig) {
		if u != "" {
			c.baseURL = u
		}
	}
}

// WithTestnet targets the testnet root of the profile.
func WithTestnet(enabled bool) Option {
	return func(c *clientConfig) {
		c.testnet = enabled
	}
}

// WithHTTPTimeout sets the transport-level timeout.
func WithHTTPTimeout(d time.Duration) Option {
	return func(c *clientConfig) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// NewClient constructs a market data client.
func NewClient(opts ...Option) (*Client, error) {
	cfg := &clientConfig{profile: lnm.ProfileV1, timeout: defaultHTTPTimeout}
	for _, opt := range opts {
		opt(cfg)
	}
	ep, err := lnm.EndpointsFor(cfg.profile)
	if err != nil {
		return nil, err
	}
	tr := cfg.transport
	if tr == nil {
		baseURL := cfg.baseURL
		if baseURL == "" {
			baseURL = ep.BaseURL(cfg.testnet)
		}
		rt, err := transport.NewResty(baseURL,
			transport.WithHTTPClient(cfg.httpClient),
			transport.WithTimeout(cfg.timeout))
		if err != nil {
			return nil, err
		}
		tr = rt
	}
	return &Client{transport: tr, endpoints: ep}, nil
}

// State fetches the API status document.
func (c *Client) State(ctx context.Context) (*State, error) {
	body, err := c.get(ctx, "fetch state information", c.endpoints.State, nil)
	if err != nil {
		return nil, err
	}
	// The document is either the state itself or wrapped under "state".
	doc := body
	if inner, dt, _, err := jsonparser.Get(body, "state"); err == nil && dt == jsonparser.Object {
		doc = inner
	}
	var state State
	if err := json.Unmarshal(doc, &state); err != nil {
		return nil, fmt.Errorf("lnmarkets: decode state: %w", err)
	}
	if err := json.Unmarshal(doc, &state.Fields); err != nil {
		return nil, fmt.Errorf("lnmarkets: decode state: %w", err)
	}
	return &state, nil
}

// CheckTradable returns ErrNewPositionsDisabled while the venue refuses
// new positions.
func (c *Client) CheckTradable(ctx context.Context) error {
	state, err := c.State(ctx)
	if err != nil {
		return err
	}
	if !state.NewPositions {
		return ErrNewPositionsDisabled
	}
	return nil
}

// Node fetches the Lightning node description.
func (c *Client) Node(ctx context.Context) (*NodeInfo, error) {
	body, err := c.get(ctx, "fetch node information", c.endpoints.Node, nil)
	if err != nil {
		return nil, err
	}
	var node NodeInfo
	if err := json.Unmarshal(body, &node); err != nil {
		return nil, fmt.Errorf("lnmarkets: decode node: %w", err)
	}
	return &node, nil
}

// IndexHistory fetches index samples.
func (c *Client) IndexHistory(ctx context.Context, q HistoryQuery) ([]IndexPoint, error) {
	body, err := c.get(ctx, "fetch index data", c.endpoints.Index, q.values())
	if err != nil {
		return nil, err
	}
	var points []IndexPoint
	if err := json.Unmarshal(body, &points); err != nil {
		return nil, fmt.Errorf("lnmarkets: decode index history: %w", err)
	}
	return points, nil
}

// BidOfferHistory fetches quote samples.
func (c *Client) BidOfferHistory(ctx context.Context, q HistoryQuery) ([]BidOfferPoint, error) {
	body, err := c.get(ctx, "fetch bid-offer data", c.endpoints.BidOffer, q.values())
	if err != nil {
		return nil, err
	}
	var points []BidOfferPoint
	if err := json.Unmarshal(body, &points); err != nil {
		return nil, fmt.Errorf("lnmarkets: decode bid-offer history: %w", err)
	}
	return points, nil
}

func (c *Client) get(ctx context.Context, op, path string, query url.Values) ([]byte, error) {
	if path == "" {
		return nil, fmt.Errorf("%s: %w", op, lnm.ErrEndpointUnavailable)
	}
	header := http.Header{}
	header.Set("Accept", "application/json")
	resp, err := c.transport.Do(ctx, transport.Request{
		Method: http.MethodGet,
		Path:   path,
		Header: header,
		Query:  query,
	})
	if err != nil {
		logx.WithContext(ctx).Errorf("lnmarkets: %s path=%s err=%v", op, path, err)
		return nil, &lnm.TransportError{Op: op, Err: err}
	}
	if err := lnm.CheckResponse(op, resp); err != nil {
		return nil, err
	}
	return resp.Body, nil
}

func (q HistoryQuery) values() url.Values {
	v := url.Values{}
	if !q.From.IsZero() {
		v.Set("from", strconv.FormatInt(q.From.UnixMilli(), 10))
	}
	if !q.To.IsZero() {
		v.Set("to", strconv.FormatInt(q.To.UnixMilli(), 10))
	}
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	if len(v) == 0 {
		return nil
	}
	return v
}
