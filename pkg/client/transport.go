// Package client is a typed Go client for the TheLittleThings API. It wraps
// the transport, the friendship and challenge resources, and a challenge
// board that gates actions the way an interactive front end must.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/thelittlethings/backend/pkg/challenge"
	"go.uber.org/zap"
)

var defaultHTTPClient = &http.Client{Timeout: 15 * time.Second}

// APIError is a failed call. Kind is one of the challenge package sentinels,
// or nil when the status has no dedicated kind.
type APIError struct {
	StatusCode int
	Message    string
	Kind       error
}

func (e *APIError) Error() string {
	if e.StatusCode == 0 {
		return e.Message
	}
	return fmt.Sprintf("%d: %s", e.StatusCode, e.Message)
}

func (e *APIError) Unwrap() error { return e.Kind }

// Client talks to the API on behalf of one session
type Client struct {
	baseURL string
	http    *http.Client
	session *Session
	log     *zap.Logger
}

type Option func(*Client)

// WithHTTPClient replaces the default HTTP client, e.g. to change the timeout
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithLogger sets where dropped records and background failures are logged
func WithLogger(log *zap.Logger) Option {
	return func(c *Client) {
		if log != nil {
			c.log = log
		}
	}
}

// New returns a client for baseURL. A nil session starts signed out.
func New(baseURL string, session *Session, opts ...Option) *Client {
	if session == nil {
		session = &Session{}
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    defaultHTTPClient,
		session: session,
		log:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Session() *Session { return c.session }

// do sends one request. Authenticated calls without a token fail before
// anything goes on the wire.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out interface{}, auth bool) error {
	var token string
	if auth {
		if token = c.session.Token(); token == "" {
			return &APIError{StatusCode: http.StatusUnauthorized, Message: challenge.ErrUnauthenticated.Error(), Kind: challenge.ErrUnauthenticated}
		}
	}

	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(buf)
	}

	target := c.baseURL + "/api" + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &APIError{Message: fmt.Sprintf("%s %s: %v", method, path, err), Kind: challenge.ErrNetwork}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &APIError{StatusCode: resp.StatusCode, Message: fmt.Sprintf("read response: %v", err), Kind: challenge.ErrNetwork}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{
			StatusCode: resp.StatusCode,
			Message:    errorMessage(resp.StatusCode, raw),
			Kind:       challenge.ErrorForStatus(resp.StatusCode),
		}
	}

	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		var unknown *challenge.UnknownStateError
		if errors.As(err, &unknown) {
			return err
		}
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

// errorMessage picks the most readable text out of an error body
func errorMessage(code int, raw []byte) string {
	var body struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if json.Unmarshal(raw, &body) == nil {
		if body.Message != "" {
			return body.Message
		}
		if body.Error != "" {
			return body.Error
		}
	}
	if text := strings.TrimSpace(string(raw)); text != "" && !strings.HasPrefix(text, "{") {
		return text
	}
	return http.StatusText(code)
}
