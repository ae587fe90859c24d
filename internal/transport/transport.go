// Package transport wraps an HTTP client with duration measurement.
//
// It is a pure measurement layer: it never logs and never touches the
// request ledger. Callers decide what to record.
package transport

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Result is a completed HTTP exchange with its measured duration.
type Result struct {
	Header     http.Header
	Body       []byte
	Duration   time.Duration
	StatusCode int
	Size       int64
	OK         bool
}

// Text returns the response body as a string.
func (r *Result) Text() string {
	return string(r.Body)
}

// DurationMs returns the duration in fractional milliseconds.
func (r *Result) DurationMs() float64 {
	return float64(r.Duration) / float64(time.Millisecond)
}

// Error is returned when the exchange failed before a complete response
// was read. Duration is still measured.
type Error struct {
	Err      error
	Method   string
	URL      string
	Duration time.Duration
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Method, e.URL, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// DurationMs returns the duration in fractional milliseconds.
func (e *Error) DurationMs() float64 {
	return float64(e.Duration) / float64(time.Millisecond)
}

// Doer is the subset of *http.Client used by Transport.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Transport issues requests and measures them.
type Transport struct {
	client Doer
	now    func() time.Time
}

// New creates a Transport over the given client. A nil client uses a
// client with the provided timeout (zero means no timeout).
func New(client Doer, timeout time.Duration) *Transport {
	if client == nil {
		client = &http.Client{Timeout: timeout}
	}
	return &Transport{client: client, now: time.Now}
}

// Do performs req and reads the full body. Duration covers issuing the
// request through the end of the body read.
func (t *Transport) Do(ctx context.Context, req *http.Request) (*Result, error) {
	if ctx != nil {
		req = req.WithContext(ctx)
	}

	start := t.now()
	resp, err := t.client.Do(req)
	if err != nil {
		return nil, &Error{Err: err, Method: req.Method, URL: req.URL.String(), Duration: t.since(start)}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	elapsed := t.since(start)
	if err != nil {
		return nil, &Error{
			Err:      fmt.Errorf("failed to read response body: %w", err),
			Method:   req.Method,
			URL:      req.URL.String(),
			Duration: elapsed,
		}
	}

	return &Result{
		Header:     resp.Header,
		Body:       body,
		Duration:   elapsed,
		StatusCode: resp.StatusCode,
		Size:       int64(len(body)),
		OK:         resp.StatusCode >= 200 && resp.StatusCode < 300,
	}, nil
}

func (t *Transport) since(start time.Time) time.Duration {
	d := t.now().Sub(start)
	if d < 0 {
		return 0
	}
	return d
}
