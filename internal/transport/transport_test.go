package transport

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

// MockRoundTripper implements http.RoundTripper for testing
type MockRoundTripper struct {
	RoundTripFunc func(req *http.Request) (*http.Response, error)
}

func (m *MockRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	return m.RoundTripFunc(req)
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("connection reset") }

func TestTransport_Do_Success(t *testing.T) {
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("ETag", "abc")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"file_id":"x"}`))
	}))
	defer s.Close()

	tr := New(nil, 2*time.Second)
	req, _ := http.NewRequest(http.MethodPost, s.URL, nil)
	res, err := tr.Do(context.Background(), req)
	if err != nil {
		t.Fatalf("Do() error: %v", err)
	}
	if !res.OK || res.StatusCode != http.StatusCreated {
		t.Errorf("got status %d ok=%v, want 201 ok=true", res.StatusCode, res.OK)
	}
	if res.Text() != `{"file_id":"x"}` {
		t.Errorf("Text() = %q", res.Text())
	}
	if res.Size != int64(len(res.Body)) {
		t.Errorf("Size = %d, want %d", res.Size, len(res.Body))
	}
	if res.Header.Get("ETag") != "abc" {
		t.Errorf("ETag header missing")
	}
	if res.Duration < 0 {
		t.Errorf("Duration should be >= 0, got %v", res.Duration)
	}
}

func TestTransport_Do_NonSuccessIsNotError(t *testing.T) {
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer s.Close()

	tr := New(nil, 2*time.Second)
	req, _ := http.NewRequest(http.MethodGet, s.URL, nil)
	res, err := tr.Do(context.Background(), req)
	if err != nil {
		t.Fatalf("Do() error: %v", err)
	}
	if res.OK {
		t.Error("500 should not be OK")
	}
	if !strings.Contains(res.Text(), "boom") {
		t.Errorf("body = %q, want boom", res.Text())
	}
}

func TestTransport_Do_NetworkError(t *testing.T) {
	tr := New(&http.Client{Transport: &MockRoundTripper{
		RoundTripFunc: func(req *http.Request) (*http.Response, error) {
			return nil, errors.New("dial tcp: connection refused")
		},
	}}, 0)

	step := 0
	base := time.Unix(0, 0)
	tr.now = func() time.Time {
		step++
		return base.Add(time.Duration(step) * 7 * time.Millisecond)
	}

	req, _ := http.NewRequest(http.MethodGet, "http://example.invalid/healthz", nil)
	_, err := tr.Do(context.Background(), req)

	var terr *Error
	if !errors.As(err, &terr) {
		t.Fatalf("want *Error, got %T (%v)", err, err)
	}
	if terr.Duration != 7*time.Millisecond {
		t.Errorf("Duration = %v, want 7ms", terr.Duration)
	}
	if !strings.Contains(terr.Error(), "connection refused") {
		t.Errorf("Error() = %q", terr.Error())
	}
}

func TestTransport_Do_BodyReadError(t *testing.T) {
	tr := New(&http.Client{Transport: &MockRoundTripper{
		RoundTripFunc: func(req *http.Request) (*http.Response, error) {
			return &http.Response{
				StatusCode: http.StatusOK,
				Body:       io.NopCloser(failingReader{}),
				Header:     make(http.Header),
			}, nil
		},
	}}, 0)

	req, _ := http.NewRequest(http.MethodGet, "http://example.invalid/metrics", nil)
	_, err := tr.Do(context.Background(), req)

	var terr *Error
	if !errors.As(err, &terr) {
		t.Fatalf("want *Error, got %T", err)
	}
	if !strings.Contains(terr.Error(), "failed to read response body") {
		t.Errorf("Error() = %q", terr.Error())
	}
}

func TestTransport_Do_ContextCancelled(t *testing.T) {
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer s.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	tr := New(nil, 0)
	req, _ := http.NewRequest(http.MethodGet, s.URL, nil)
	_, err := tr.Do(ctx, req)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("want context.Canceled, got %v", err)
	}
}
