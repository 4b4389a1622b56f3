// Package client is the typed HTTP client of the hospital admin API.  It
// is the only place requests are built: callers get typed values back or a
// single error describing why there is none.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/iliyamo/hospital-admin/internal/logging"
)

// TokenSource supplies the bearer credential.  An empty token means the
// request goes out unauthenticated.
type TokenSource interface {
	AccessToken() string
}

// StaticToken is a fixed TokenSource.
type StaticToken string

func (t StaticToken) AccessToken() string { return string(t) }

// Client talks to one API base URL.
type Client struct {
	base   string
	http   *http.Client
	tokens TokenSource
	log    logrus.FieldLogger

	background sync.WaitGroup
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func WithTokenSource(ts TokenSource) Option {
	return func(c *Client) { c.tokens = ts }
}

func WithLogger(l logrus.FieldLogger) Option {
	return func(c *Client) { c.log = l }
}

// WithTimeout bounds every request, including fire-and-forget ones.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http = &http.Client{Timeout: d} }
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		base: strings.TrimRight(baseURL, "/"),
		http: &http.Client{Timeout: 15 * time.Second},
		log:  logging.Discard(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Users, Blog and Auth return the per-resource clients.
func (c *Client) Users() *UserClient { return newUserClient(c) }
func (c *Client) Blog() *BlogClient  { return newBlogClient(c) }
func (c *Client) Auth() *AuthClient  { return &AuthClient{c: c} }

// Flush waits for fire-and-forget requests still in flight.  Short-lived
// programs call it before exiting.
func (c *Client) Flush() { c.background.Wait() }

// goBackground runs fn detached from the caller's context.
func (c *Client) goBackground(fn func(ctx context.Context)) {
	c.background.Add(1)
	go func() {
		defer c.background.Done()
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		fn(ctx)
	}()
}

// do sends one request.  body is JSON-encoded when non-nil; the answer is
// decoded into out when out is non-nil and the body is not empty.  A 204 or
// an empty 2xx body is success with out untouched.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	u := c.base + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	var rd io.Reader
	if body != nil {
		bs, err := json.Marshal(body)
		if err != nil {
			return &TransportError{Method: method, URL: u, Err: err}
		}
		rd = bytes.NewReader(bs)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, rd)
	if err != nil {
		return &TransportError{Method: method, URL: u, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.tokens != nil {
		if tok := c.tokens.AccessToken(); tok != "" {
			req.Header.Set("Authorization", "Bearer "+tok)
		}
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.WithError(err).WithFields(logrus.Fields{"method": method, "url": u}).Debug("request failed")
		return &TransportError{Method: method, URL: u, Err: err}
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &TransportError{Method: method, URL: u, Err: err}
	}
	c.log.WithFields(logrus.Fields{
		"method":     method,
		"url":        u,
		"status":     resp.StatusCode,
		"latency_ms": time.Since(start).Milliseconds(),
	}).Debug("request")

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{Status: resp.StatusCode, Method: method, Path: path, Message: errorMessage(resp.StatusCode, raw)}
	}
	if out == nil || resp.StatusCode == http.StatusNoContent || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &TransportError{Method: method, URL: u, Err: err}
	}
	return nil
}

// errorMessage extracts a readable message from an error body: the
// "error" or "message" field of a JSON object, else the raw text, else
// the status text.
func errorMessage(status int, raw []byte) string {
	var obj struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if json.Unmarshal(raw, &obj) == nil {
		if obj.Error != "" {
			return obj.Error
		}
		if obj.Message != "" {
			return obj.Message
		}
	}
	if s := strings.TrimSpace(string(raw)); s != "" && len(s) <= 200 && !strings.HasPrefix(s, "{") {
		return s
	}
	if t := http.StatusText(status); t != "" {
		return strings.ToLower(t)
	}
	return "unexpected status " + strconv.Itoa(status)
}
