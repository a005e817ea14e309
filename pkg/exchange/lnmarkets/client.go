package lnmarkets

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/zeromicro/go-zero/core/logx"

	"lnmarkets-api/pkg/transport"
)

const defaultHTTPTimeout = 30 * time.Second

// Client issues LN Markets API calls. It holds no per-account state: every
// authenticated method takes the Credential to use.
type Client struct {
	transport transport.Transport
	endpoints Endpoints
	baseURL   string
	isTestnet bool
}

type clientConfig struct {
	transport  transport.Transport
	httpClient *http.Client
	profile    Profile
	endpoints  *Endpoints
	baseURL    string
	timeout    time.Duration
	debug      bool
}

// ClientOption customises the client.
type ClientOption func(*clientConfig)

// WithTransport replaces the HTTP transport entirely.
func WithTransport(t transport.Transport) ClientOption {
	return func(c *clientConfig) {
		if t != nil {
			c.transport = t
		}
	}
}

// WithHTTPClient overrides the http.Client used by the default transport.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *clientConfig) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithProfile selects the API version profile (default ProfileV1).
func WithProfile(p Profile) ClientOption {
	return func(c *clientConfig) {
		if p != "" {
			c.profile = p
		}
	}
}

// WithEndpoints installs a custom route table, overriding WithProfile.
func WithEndpoints(ep Endpoints) ClientOption {
	return func(c *clientConfig) {
		c.endpoints = &ep
	}
}

// WithBaseURL overrides the mainnet/testnet root of the profile.
func WithBaseURL(u string) ClientOption {
	return func(c *clientConfig) {
		if strings.TrimSpace(u) != "" {
			c.baseURL = strings.TrimSpace(u)
		}
	}
}

// WithTimeout sets the transport-level request timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *clientConfig) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithDebug dumps requests and responses through logx.
func WithDebug(enabled bool) ClientOption {
	return func(c *clientConfig) {
		c.debug = enabled
	}
}

// NewClient constructs a client for mainnet or testnet.
func NewClient(isTestnet bool, opts ...ClientOption) (*Client, error) {
	cfg := &clientConfig{
		profile: ProfileV1,
		timeout: defaultHTTPTimeout,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	var ep Endpoints
	if cfg.endpoints != nil {
		ep = *cfg.endpoints
	} else {
		var err error
		if ep, err = EndpointsFor(cfg.profile); err != nil {
			return nil, err
		}
	}
	baseURL := cfg.baseURL
	if baseURL == "" {
		baseURL = ep.BaseURL(isTestnet)
	}
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, fmt.Errorf("lnmarkets: invalid base url %q: %w", baseURL, err)
	}

	tr := cfg.transport
	if tr == nil {
		rt, err := transport.NewResty(baseURL,
			transport.WithHTTPClient(cfg.httpClient),
			transport.WithTimeout(cfg.timeout),
			transport.WithDebug(cfg.debug))
		if err != nil {
			return nil, fmt.Errorf("lnmarkets: create transport: %w", err)
		}
		tr = rt
	}

	return &Client{
		transport: tr,
		endpoints: ep,
		baseURL:   strings.TrimRight(baseURL, "/"),
		isTestnet: isTestnet,
	}, nil
}

// Endpoints returns the active route table.
func (c *Client) Endpoints() Endpoints {
	return c.endpoints
}

// BaseURL returns the API root requests are sent to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Transport exposes the underlying transport so sibling clients (market
// data) can share it.
func (c *Client) Transport() transport.Transport {
	return c.transport
}

// call describes one API request before serialization.
type call struct {
	op      string
	method  string
	path    string
	cred    Credential
	auth    bool // cred must be present
	query   url.Values
	payload map[string]any
}

// send builds, serializes and issues a call, returning the raw response
// once the status is 200.
func (c *Client) send(ctx context.Context, cl call) (*transport.Response, error) {
	if cl.path == "" {
		return nil, fmt.Errorf("%s: %w", cl.op, ErrEndpointUnavailable)
	}
	if cl.auth && cl.cred == nil {
		return nil, invalid("credential", ErrCredentialRequired)
	}

	header := http.Header{}
	header.Set("Accept", "application/json")
	if cl.cred != nil {
		cl.cred.Attach(header)
	}
	var body []byte
	if cl.payload != nil {
		encoded, err := json.Marshal(cl.payload)
		if err != nil {
			return nil, fmt.Errorf("lnmarkets: encode %s request: %w", cl.op, err)
		}
		body = encoded
	}

	logger := logx.WithContext(ctx).WithFields(
		logx.Field("op", cl.op),
		logx.Field("method", cl.method),
		logx.Field("path", cl.path))
	logger.Debugw("lnmarkets: request")

	resp, err := c.transport.Do(ctx, transport.Request{
		Method: cl.method,
		Path:   cl.path,
		Header: header,
		Query:  cl.query,
		Body:   body,
	})
	if err != nil {
		logger.Errorw("lnmarkets: transport failure", logx.Field("error", err.Error()))
		return nil, &TransportError{Op: cl.op, Err: err}
	}
	if err := CheckResponse(cl.op, resp); err != nil {
		logger.Errorw("lnmarkets: request rejected",
			logx.Field("status", resp.StatusCode),
			logx.Field("body", string(resp.Body)))
		return nil, err
	}
	return resp, nil
}

// do is send followed by JSON decoding of the body into result (when non-nil).
func (c *Client) do(ctx context.Context, cl call, result any) error {
	resp, err := c.send(ctx, cl)
	if err != nil {
		return err
	}
	if result == nil || len(resp.Body) == 0 {
		return nil
	}
	if err := json.Unmarshal(resp.Body, result); err != nil {
		return fmt.Errorf("lnmarkets: decode %s response: %w", cl.op, err)
	}
	return nil
}
