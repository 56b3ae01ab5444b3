package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	defaultTimeout        = 10 * time.Second
	defaultConnectTimeout = 5 * time.Second
	defaultTlsTimeout     = 5 * time.Second
)

func defaultHttpClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &http.Client{
		Transport: &http.Transport{
			DialContext: (&net.Dialer{
				Timeout: defaultConnectTimeout,
			}).DialContext,
			TLSHandshakeTimeout: defaultTlsTimeout,
			MaxIdleConnsPerHost: 8,
		},
		Timeout: timeout,
	}
}

// Client talks to the events backend.
type Client struct {
	baseURL    string
	httpClient *http.Client
	// called after every request with "METHOD /path-pattern" and its latency
	observe func(endpoint string, latency time.Duration)
}

type Option func(*Client)

func WithHttpClient(httpClient *http.Client) Option {
	return func(c *Client) {
		if httpClient != nil {
			c.httpClient = httpClient
		}
	}
}

func WithLatencyObserver(fn func(endpoint string, latency time.Duration)) Option {
	return func(c *Client) { c.observe = fn }
}

func NewClient(baseURL string, timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: defaultHttpClient(timeout),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

// do sends args as the JSON body (when not nil) and decodes a 2xx response
// body into result. An empty response body leaves result untouched.
func do[R any](ctx context.Context, c *Client, method, endpoint, path string, args any, result R) (R, error) {
	var body io.Reader
	if args != nil {
		requestBodyBytes, err := json.Marshal(args)
		if err != nil {
			var empty R
			return empty, err
		}
		body = bytes.NewReader(requestBodyBytes)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		var empty R
		return empty, err
	}
	req.Header.Set("Accept", "application/json")
	if args != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	r, err := c.httpClient.Do(req)
	if c.observe != nil {
		c.observe(method+" "+endpoint, time.Since(start))
	}
	if err != nil {
		var empty R
		return empty, err
	}
	defer r.Body.Close()

	responseBodyBytes, err := io.ReadAll(r.Body)
	if r.StatusCode < 200 || r.StatusCode > 299 {
		apiErr := &Error{Code: r.StatusCode}
		// the body is {"message": ...} when the backend explains itself
		if jsonErr := json.Unmarshal(responseBodyBytes, &apiErr.Info); jsonErr != nil {
			apiErr.Info.Message = strings.TrimSpace(string(responseBodyBytes))
		}
		return result, apiErr
	}
	if err != nil {
		return result, err
	}
	if len(bytes.TrimSpace(responseBodyBytes)) == 0 {
		return result, nil
	}
	if err := json.Unmarshal(responseBodyBytes, &result); err != nil {
		var empty R
		return empty, err
	}
	return result, nil
}

func eventPath(id string) string {
	return "/events/" + url.PathEscape(id)
}

func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("api.%s: %w", op, err)
}
