// Package client provides the HTTP transport for the harness. It bounds
// connect and read timeouts so a hung collaborator cannot stall a scenario
// indefinitely, and parses responses into a schema-free JSON tree.
//
// A non-2xx status is not a transport failure: it is handed back to the
// caller for domain-specific assertion. Only connection-level problems
// (refused, timed out, unreadable or malformed body) surface as ErrTransport.
package client

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
	"time"
)

// Errors returned by the client package.
var (
	// ErrInvalidConfig is returned when the client configuration is invalid.
	ErrInvalidConfig = errors.New("client: invalid configuration")
	// ErrTransport is returned for connection-level failures.
	ErrTransport = errors.New("client: transport failure")
)

// maxResponseSize bounds response reads to prevent memory exhaustion.
const maxResponseSize = 10 * 1024 * 1024 // 10 MB

// Config holds the client configuration.
type Config struct {
	// BaseURL is the entry point of the system under test.
	BaseURL string

	// ConnectTimeout bounds connection establishment.
	// Default: 10s
	ConnectTimeout time.Duration

	// ReadTimeout bounds the whole request/response exchange.
	// Default: 30s
	ReadTimeout time.Duration

	// Headers are additional headers included in all requests.
	Headers map[string]string
}

// Client is the HTTP workflow client. It is safe for concurrent use.
type Client struct {
	httpClient *http.Client
	baseURL    string
	headers    map[string]string
}

// New creates a new workflow client.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("%w: base URL is required", ErrInvalidConfig)
	}
	if _, err := url.Parse(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("%w: invalid base URL: %v", ErrInvalidConfig, err)
	}

	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = 10 * time.Second
	}
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = 30 * time.Second
	}

	transport := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout: cfg.ConnectTimeout,
		}).DialContext,
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
	}

	c := &Client{
		httpClient: &http.Client{
			Transport: transport,
			Timeout:   cfg.ReadTimeout,
		},
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		headers: map[string]string{
			"Content-Type": "application/json",
			"Accept":       "application/json",
			"User-Agent":   "shop-e2e/1.0",
		},
	}

	for k, v := range cfg.Headers {
		c.headers[k] = v
	}

	return c, nil
}

// Request represents an HTTP request to be executed.
type Request struct {
	Method  string
	Path    string
	Headers map[string]string
	Body    any
}

// Response represents an HTTP response. StatusCode is populated for every
// completed exchange, including non-2xx ones.
type Response struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
	Duration   time.Duration
}

// Do executes a single request. The request body, if any, is JSON-encoded.
func (c *Client) Do(ctx context.Context, req Request) (*Response, error) {
	var bodyReader io.Reader
	if req.Body != nil {
		bodyBytes, err := json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("marshaling request body: %w", err)
		}
		bodyReader = bytes.NewReader(bodyBytes)
	}

	path := req.Path
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	for k, v := range c.headers {
		httpReq.Header.Set(k, v)
	}
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}

	start := time.Now()
	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(httpResp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("%w: reading response body: %v", ErrTransport, err)
	}

	return &Response{
		StatusCode: httpResp.StatusCode,
		Headers:    httpResp.Header,
		Body:       body,
		Duration:   time.Since(start),
	}, nil
}

// Get performs a GET request.
func (c *Client) Get(ctx context.Context, path string, headers map[string]string) (*Response, error) {
	return c.Do(ctx, Request{Method: http.MethodGet, Path: path, Headers: headers})
}

// Post performs a POST request with a JSON body.
func (c *Client) Post(ctx context.Context, path string, headers map[string]string, body any) (*Response, error) {
	return c.Do(ctx, Request{Method: http.MethodPost, Path: path, Headers: headers, Body: body})
}

// Put performs a PUT request with a JSON body.
func (c *Client) Put(ctx context.Context, path string, headers map[string]string, body any) (*Response, error) {
	return c.Do(ctx, Request{Method: http.MethodPut, Path: path, Headers: headers, Body: body})
}

// BaseURL returns the client's base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// IsSuccess reports whether the response status is in the 2xx range.
func (r *Response) IsSuccess() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// JSON parses the response body into a traversable tree. A body that is not
// valid JSON is a transport failure: the collaborator broke its contract.
func (r *Response) JSON() (*Node, error) {
	node, err := ParseJSON(r.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: parsing response JSON: %v", ErrTransport, err)
	}
	return node, nil
}
