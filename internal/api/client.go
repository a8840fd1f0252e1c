// Package api is the HTTP client of the SavorViews backend.
//
// One Client represents one tab: it owns the cookie jar holding the tab's
// session credentials, and every request of the tab goes through it. The
// client never retries and never times out on its own unless configured;
// a pending request stays pending until its context is cancelled.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"strings"

	"github.com/ieraasyl/SavorViews/internal/middleware"
	"github.com/ieraasyl/SavorViews/pkg/config"
	"github.com/ieraasyl/SavorViews/pkg/utils"
	"golang.org/x/net/publicsuffix"
)

// maxBodySize bounds how much of a response body is read into memory.
const maxBodySize = 10 << 20

// Client sends requests to the backend with the tab's credentials.
type Client struct {
	baseURL    string
	httpClient *http.Client
	csrfHeader string
	userAgent  string
}

// NewClient creates a backend client with a fresh cookie jar.
// Outbound requests are logged and measured by the middleware transports.
//
// Example:
//
//	client, err := api.NewClient(&cfg.Backend)
//	if err != nil {
//	    log.Fatal().Err(err).Msg("Failed to create backend client")
//	}
func NewClient(cfg *config.BackendConfig) (*Client, error) {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}

	header := cfg.CSRFHeader
	if header == "" {
		header = config.DefaultCSRFHeader
	}

	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{
			Jar:       jar,
			Timeout:   cfg.Timeout,
			Transport: middleware.MetricsTransport(middleware.LoggingTransport(http.DefaultTransport)),
		},
		csrfHeader: header,
		userAgent:  cfg.UserAgent,
	}, nil
}

// BaseURL returns the backend root the client talks to.
func (c *Client) BaseURL() string { return c.baseURL }

// CSRFHeader returns the header name the anti-forgery token is sent in.
func (c *Client) CSRFHeader() string { return c.csrfHeader }

// UserAgent returns the User-Agent sent with every request.
func (c *Client) UserAgent() string { return c.userAgent }

// Get issues a read-only request. Reads carry no anti-forgery token.
func (c *Client) Get(ctx context.Context, path string) (*Response, error) {
	return c.do(ctx, http.MethodGet, path, "", nil)
}

// Send issues a state-changing request carrying token in the configured
// header. An empty token fails with ErrTokenMissing before any I/O.
//
// Example:
//
//	resp, err := client.Send(ctx, http.MethodPost, "/auth", token, form)
//	if errors.Is(err, api.ErrTokenMissing) {
//	    // nothing was sent
//	}
func (c *Client) Send(ctx context.Context, method, path, token string, body interface{}) (*Response, error) {
	if token == "" {
		return nil, Precondition(Op(method, path), ErrTokenMissing)
	}
	return c.do(ctx, method, path, token, body)
}

// Ping reports whether the backend answers at all. Any HTTP response,
// whatever its status, counts as reachable.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.do(ctx, http.MethodGet, "/csrf_token", "", nil)
	return err
}

func (c *Client) do(ctx context.Context, method, path, token string, body interface{}) (*Response, error) {
	op := Op(method, path)

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, Precondition(op, fmt.Errorf("failed to encode request body: %w", err))
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, Precondition(op, fmt.Errorf("failed to build request: %w", err))
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set(c.csrfHeader, token)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, Transport(op, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, Transport(op, fmt.Errorf("failed to read response body: %w", err))
	}

	requestID := utils.GetRequestID(ctx)
	if resp.Request != nil {
		if sent := resp.Request.Header.Get("X-Request-ID"); sent != "" {
			requestID = sent
		}
	}

	return &Response{
		Op:         op,
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       data,
		RequestID:  requestID,
	}, nil
}

// Op formats the operation name used in errors and logs.
func Op(method, path string) string {
	return method + " " + path
}

// Response is a fully read backend response.
type Response struct {
	Op         string
	StatusCode int
	Header     http.Header
	Body       []byte
	RequestID  string // X-Request-ID the request was sent with
}

// OK reports a 2xx status.
func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// IsJSON reports whether the response declares a JSON body.
func (r *Response) IsJSON() bool {
	return utils.IsJSONContentType(r.Header.Get("Content-Type"))
}

// Message returns the server's {"message": ...} text, if any.
func (r *Response) Message() string {
	if !r.IsJSON() {
		return ""
	}
	return utils.ExtractMessage(r.Body)
}

// Err returns nil for 2xx responses and an application error otherwise.
func (r *Response) Err() error {
	if r.OK() {
		return nil
	}
	err := Application(r.Op, r.StatusCode, r.Message())
	err.RequestID = r.RequestID
	return err
}

// Decode unmarshals a JSON body into v. A non-JSON content type or an
// undecodable body is a contract error.
func (r *Response) Decode(v interface{}) error {
	if !r.IsJSON() {
		return Contract(r.Op, ErrNotJSON)
	}
	if err := json.Unmarshal(r.Body, v); err != nil {
		return Contract(r.Op, fmt.Errorf("failed to decode response: %w", err))
	}
	return nil
}

// DecodeArray is Decode for collection endpoints: the body must be a JSON
// array, otherwise ErrNotArray is returned and v is left untouched.
func (r *Response) DecodeArray(v interface{}) error {
	if !r.IsJSON() {
		return Contract(r.Op, ErrNotJSON)
	}
	if trimmed := bytes.TrimSpace(r.Body); len(trimmed) == 0 || trimmed[0] != '[' {
		return Contract(r.Op, ErrNotArray)
	}
	return r.Decode(v)
}
