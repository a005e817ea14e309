package transport

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/zeromicro/go-zero/core/logx"
)

const (
	defaultTimeout   = 30 * time.Second
	defaultUserAgent = "lnmarkets-api-go"
)

// RestyTransport implements Transport on top of a resty client.
type RestyTransport struct {
	client *resty.Client
}

type restyConfig struct {
	httpClient *http.Client
	timeout    time.Duration
	userAgent  string
	debug      bool
}

// Option customises the resty transport.
type Option func(*restyConfig)

// WithHTTPClient wraps an existing http.Client (useful for recorders and
// custom round trippers).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *restyConfig) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *restyConfig) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *restyConfig) {
		if strings.TrimSpace(ua) != "" {
			c.userAgent = ua
		}
	}
}

// WithDebug enables resty request/response dumps through logx.
func WithDebug(enabled bool) Option {
	return func(c *restyConfig) {
		c.debug = enabled
	}
}

// NewResty builds a transport rooted at baseURL.
func NewResty(baseURL string, opts ...Option) (*RestyTransport, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, fmt.Errorf("transport: base url is required")
	}
	cfg := &restyConfig{
		timeout:   defaultTimeout,
		userAgent: defaultUserAgent,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	var client *resty.Client
	if cfg.httpClient != nil {
		client = resty.NewWithClient(cfg.httpClient)
	} else {
		client = resty.New()
	}
	client.
		SetBaseURL(baseURL).
		SetTimeout(cfg.timeout).
		SetRetryCount(0).
		SetHeader("User-Agent", cfg.userAgent).
		SetHeader("Accept", "application/json").
		SetLogger(restyLogger{}).
		SetDebug(cfg.debug)

	return &RestyTransport{client: client}, nil
}

// BaseURL reports the configured base URL.
func (t *RestyTransport) BaseURL() string {
	return t.client.BaseURL
}

// Do executes req. Non-2xx statuses are not errors at this layer.
func (t *RestyTransport) Do(ctx context.Context, req Request) (*Response, error) {
	method := strings.ToUpper(strings.TrimSpace(req.Method))
	if method == "" {
		method = http.MethodGet
	}
	r := t.client.R().SetContext(ctx)
	for key, values := range req.Header {
		r.SetHeaderMultiValues(map[string][]string{key: values})
	}
	if len(req.Query) > 0 {
		r.SetQueryParamsFromValues(req.Query)
	}
	if req.Body != nil {
		r.SetHeader("Content-Type", "application/json")
		r.SetBody(req.Body)
	}

	start := time.Now()
	resp, err := r.Execute(method, req.Path)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("transport: %s %s: %w", method, req.Path, err)
	}
	logx.WithContext(ctx).WithDuration(time.Since(start)).Debugw("transport: request done",
		logx.Field("method", method),
		logx.Field("path", req.Path),
		logx.Field("status", resp.StatusCode()))

	return &Response{
		StatusCode: resp.StatusCode(),
		Header:     resp.Header(),
		Body:       resp.Body(),
	}, nil
}

// restyLogger routes resty's internal logging into logx. logx has no warn
// level, warnings go to info.
type restyLogger struct{}

func (restyLogger) Errorf(format string, v ...interface{}) { logx.Errorf(format, v...) }
func (restyLogger) Warnf(format string, v ...interface{})  { logx.Infof(format, v...) }
func (restyLogger) Debugf(format string, v ...interface{}) { logx.Debugf(format, v...) }
