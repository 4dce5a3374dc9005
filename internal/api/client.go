package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"empdir/internal/logging"
)

const maxErrorBody = 64 << 10

// TransportError reports that the request never produced an HTTP response.
type TransportError struct {
	Method   string
	Resource string
	Err      error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Method, e.Resource, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ServerError reports a non-200 answer, or a 200 answer whose envelope status
// is not 200. Payload holds the decoded envelope when the body parsed as one.
type ServerError struct {
	Method     string
	Resource   string
	StatusCode int
	Payload    *Envelope
	Body       string
}

func (e *ServerError) Error() string {
	detail := strings.TrimSpace(e.Body)
	if e.Payload != nil && e.Payload.Message != "" {
		detail = e.Payload.Message
	}
	if detail == "" {
		detail = http.StatusText(e.StatusCode)
	}
	return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Resource, e.StatusCode, detail)
}

// Client issues method+resource+payload requests against the remote service.
type Client struct {
	baseURL  string
	http     *http.Client
	log      logrus.FieldLogger
	inFlight atomic.Bool
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithLogger sets the logger used for failed calls.
func WithLogger(l logrus.FieldLogger) Option {
	return func(c *Client) {
		if l != nil {
			c.log = l
		}
	}
}

// WithTimeout bounds each request.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// NewClient builds a client rooted at baseURL.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
		log:     logging.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// InFlight reports whether a call is outstanding. With overlapping calls the
// flag follows whichever call finished last.
func (c *Client) InFlight() bool {
	return c.inFlight.Load()
}

// Call performs one request. payload may be nil. Failures come back as
// *TransportError or *ServerError.
func (c *Client) Call(ctx context.Context, method, resource string, payload any) (*Envelope, error) {
	c.inFlight.Store(true)
	defer c.inFlight.Store(false)

	env, err := c.do(ctx, method, resource, payload)
	if err != nil {
		c.log.WithFields(logrus.Fields{
			"method":   method,
			"resource": resource,
		}).WithError(err).Warn("api call failed")
		return nil, err
	}
	return env, nil
}

func (c *Client) do(ctx context.Context, method, resource string, payload any) (*Envelope, error) {
	var body io.Reader
	if payload != nil {
		buf, err := json.Marshal(payload)
		if err != nil {
			return nil, &TransportError{Method: method, Resource: resource, Err: fmt.Errorf("encode payload: %w", err)}
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+"/"+strings.TrimLeft(resource, "/"), body)
	if err != nil {
		return nil, &TransportError{Method: method, Resource: resource, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &TransportError{Method: method, Resource: resource, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes(resp.StatusCode)))
	if err != nil {
		return nil, &TransportError{Method: method, Resource: resource, Err: fmt.Errorf("read body: %w", err)}
	}

	if resp.StatusCode != http.StatusOK {
		serr := &ServerError{Method: method, Resource: resource, StatusCode: resp.StatusCode, Body: string(raw)}
		var env Envelope
		if len(bytes.TrimSpace(raw)) > 0 && json.Unmarshal(raw, &env) == nil {
			serr.Payload = &env
		}
		return nil, serr
	}

	var env Envelope
	if len(bytes.TrimSpace(raw)) > 0 {
		if err := json.Unmarshal(raw, &env); err != nil {
			return nil, &TransportError{Method: method, Resource: resource, Err: fmt.Errorf("decode body: %w", err)}
		}
	}
	if env.Status != 0 && env.Status != http.StatusOK {
		return nil, &ServerError{Method: method, Resource: resource, StatusCode: env.Status, Payload: &env, Body: string(raw)}
	}
	return &env, nil
}

func maxResponseBytes(status int) int64 {
	if status != http.StatusOK {
		return maxErrorBody
	}
	// list responses carry base64 images
	return 256 << 20
}

// IsTransport reports whether err is a transport failure.
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

// AsServerError extracts a *ServerError from err.
func AsServerError(err error) (*ServerError, bool) {
	var se *ServerError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}
