package telemetry

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/j-veylop/filerepo-console/internal/ledger"
	"github.com/j-veylop/filerepo-console/internal/models"
)

func newTestServer(t *testing.T) (*httptest.Server, *ledger.Ledger) {
	t.Helper()
	l := ledger.New(10)
	m := NewMetrics()
	l.Observe(m.ObserveRecord)

	ts := httptest.NewServer(NewServer(m, l).Router())
	t.Cleanup(ts.Close)
	return ts, l
}

func get(t *testing.T, url string) (*http.Response, string) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	return resp, string(body)
}

func TestServer_Healthz(t *testing.T) {
	ts, _ := newTestServer(t)
	resp, body := get(t, ts.URL+"/healthz")
	if resp.StatusCode != http.StatusOK || body != "ok" {
		t.Errorf("got %d %q", resp.StatusCode, body)
	}
}

func TestServer_Metrics(t *testing.T) {
	ts, l := newTestServer(t)
	id := l.Append(ledger.Seed{Method: "GET", URL: "http://x/healthz"})
	l.Finalize(id, ledger.Update{Status: 200, DurationMs: 3})

	resp, body := get(t, ts.URL+"/metrics")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if !strings.Contains(body, `frc_requests_total{method="GET",outcome="success"} 1`) {
		t.Errorf("metrics output missing request counter:\n%s", body)
	}
}

func TestServer_Ledger(t *testing.T) {
	ts, l := newTestServer(t)
	for i := 0; i < 3; i++ {
		l.Append(ledger.Seed{Method: "GET", URL: "http://x/metrics"})
	}

	resp, body := get(t, ts.URL+"/ledger?limit=2")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if resp.Header.Get("Content-Type") != "application/json" {
		t.Errorf("Content-Type = %q", resp.Header.Get("Content-Type"))
	}
	var recs []models.RequestRecord
	if err := json.Unmarshal([]byte(body), &recs); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if len(recs) != 2 {
		t.Errorf("got %d records, want 2", len(recs))
	}

	resp, _ = get(t, ts.URL+"/ledger?limit=abc")
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("bad limit status = %d, want 400", resp.StatusCode)
	}
}

func TestServer_Stats(t *testing.T) {
	ts, l := newTestServer(t)
	id := l.Append(ledger.Seed{Method: "DELETE", URL: "http://x/v1/files/a"})
	l.Finalize(id, ledger.Update{Status: 404, DurationMs: 8})

	_, body := get(t, ts.URL+"/ledger/stats")
	var stats models.LatencyStats
	if err := json.Unmarshal([]byte(body), &stats); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if stats.Failure != 1 || stats.MaxMs != 8 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestServer_CORS(t *testing.T) {
	ts, _ := newTestServer(t)
	req, _ := http.NewRequest(http.MethodGet, ts.URL+"/healthz", nil)
	req.Header.Set("Origin", "http://dashboard.local")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Access-Control-Allow-Origin = %q, want *", got)
	}
}

func TestServer_StartShutdown(t *testing.T) {
	s := NewServer(NewMetrics(), ledger.New(5))
	if err := s.Start("127.0.0.1:0"); err != nil {
		t.Fatalf("Start() failed: %v", err)
	}
	resp, body := get(t, "http://"+s.Addr()+"/healthz")
	if resp.StatusCode != http.StatusOK || body != "ok" {
		t.Errorf("got %d %q", resp.StatusCode, body)
	}
	if err := s.Shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown() failed: %v", err)
	}
}
