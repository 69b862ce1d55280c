package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"ollamachat/pkg/types"
)

const (
	mimeJSON          = "application/json"
	headerContentType = "Content-Type"

	pathTags     = "/api/tags"
	pathGenerate = "/api/generate"

	// maxErrorBody caps how much of a non-2xx body is read for the error message.
	maxErrorBody = 4096
)

// Defaults applied when corresponding Options fields are unset.
const (
	DefaultBaseURL        = "http://localhost:11434"
	defaultRequestTimeout = 60 * time.Second
	defaultConnectTimeout = 10 * time.Second
	defaultReadTimeout    = 60 * time.Second
)

// Options configures a Client. Zero values select the package defaults.
type Options struct {
	// BaseURL of the backend, e.g. http://localhost:11434.
	BaseURL string
	// RequestTimeout bounds a whole single-shot call (listing, availability,
	// Generate) and the wait for response headers of a streaming call.
	RequestTimeout time.Duration
	// ConnectTimeout bounds TCP connection establishment.
	ConnectTimeout time.Duration
	// ReadTimeout bounds each body read of a streaming call.
	ReadTimeout time.Duration
	// SkipAvailabilityCheck disables the model pre-check in Generate and
	// GenerateStream for callers that already checked.
	SkipAvailabilityCheck bool
	// HTTPClient replaces the transport built by New. Its Timeout should be 0;
	// deadlines are carried by the request context.
	HTTPClient *http.Client
	// Logger receives debug and warning lines. Nil discards them.
	Logger *zerolog.Logger
}

// Client talks to one backend through one shared *http.Client.
type Client struct {
	baseURL     string
	reqTimeout  time.Duration
	readTimeout time.Duration
	skipCheck   bool
	httpClient  *http.Client
	log         zerolog.Logger
	closed      atomic.Bool
	closeOnce   sync.Once
}

// New validates opts and builds the transport. The returned Client must be
// released with Close at shutdown.
func New(opts Options) (*Client, error) {
	base := strings.TrimSpace(opts.BaseURL)
	if base == "" {
		base = DefaultBaseURL
	}
	u, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("ollama: parse base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("ollama: base url %q must use http or https", base)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("ollama: base url %q has no host", base)
	}

	reqTimeout := opts.RequestTimeout
	if reqTimeout <= 0 {
		reqTimeout = defaultRequestTimeout
	}
	connectTimeout := opts.ConnectTimeout
	if connectTimeout <= 0 {
		connectTimeout = defaultConnectTimeout
	}
	readTimeout := opts.ReadTimeout
	if readTimeout <= 0 {
		readTimeout = defaultReadTimeout
	}

	cli := opts.HTTPClient
	if cli == nil {
		tr := &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			DialContext: (&net.Dialer{
				Timeout:   connectTimeout,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			MaxIdleConns:          100,
			MaxIdleConnsPerHost:   16,
			IdleConnTimeout:       90 * time.Second,
			TLSHandshakeTimeout:   10 * time.Second,
			ResponseHeaderTimeout: reqTimeout,
			ExpectContinueTimeout: 1 * time.Second,
		}
		// Timeout stays 0: single-shot calls get a context deadline, streaming
		// calls must not be cut off while tokens keep arriving.
		cli = &http.Client{Transport: tr, Timeout: 0}
	}

	lg := zerolog.Nop()
	if opts.Logger != nil {
		lg = *opts.Logger
	}

	return &Client{
		baseURL:     strings.TrimRight(base, "/"),
		reqTimeout:  reqTimeout,
		readTimeout: readTimeout,
		skipCheck:   opts.SkipAvailabilityCheck,
		httpClient:  cli,
		log:         lg.With().Str("component", "ollama").Logger(),
	}, nil
}

// BaseURL returns the normalised backend address.
func (c *Client) BaseURL() string { return c.baseURL }

// Close releases the shared transport. It is safe to call more than once.
func (c *Client) Close() error {
	c.closeOnce.Do(func() {
		c.closed.Store(true)
		c.httpClient.CloseIdleConnections()
		c.log.Debug().Msg("client closed")
	})
	return nil
}

// doJSON sends a request with an optional JSON payload and returns the
// response when the status is 2xx. Non-2xx answers are turned into
// BackendStatusError and the body is closed; transport failures become
// TransportError. The caller closes the returned body.
func (c *Client) doJSON(ctx context.Context, method, path string, payload any) (*http.Response, error) {
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("ollama %s %s: encode request: %w", method, path, err)
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("ollama %s %s: build request: %w", method, path, err)
	}
	if payload != nil {
		req.Header.Set(headerContentType, mimeJSON)
	}
	req.Header.Set("Accept", "application/x-ndjson, application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, TransportError{Op: method + " " + path, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer resp.Body.Close() //nolint:errcheck
		return nil, statusError(resp)
	}
	return resp, nil
}

// statusError builds a BackendStatusError, preferring the backend's own
// {"error": "..."} message.
func statusError(resp *http.Response) error {
	b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	var be types.BackendError
	if err := json.Unmarshal(b, &be); err == nil && be.Error != "" {
		return BackendStatusError{Status: resp.StatusCode, Message: be.Error}
	}
	status := resp.Status
	if status == "" {
		status = fmt.Sprintf("%d %s", resp.StatusCode, http.StatusText(resp.StatusCode))
	}
	return BackendStatusError{
		Status:  resp.StatusCode,
		Message: "ollama API error: backend returned " + status,
	}
}

// checkOpen fails fast once the client has been closed.
func (c *Client) checkOpen() error {
	if c.closed.Load() {
		return ErrClientClosed
	}
	return nil
}

// isCanceled reports whether err stems from the caller's own cancellation.
func isCanceled(ctx context.Context, err error) bool {
	return ctx.Err() != nil && errors.Is(err, context.Canceled)
}
