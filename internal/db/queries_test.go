package db

import (
	"fmt"
	"testing"
	"time"

	"github.com/j-veylop/filerepo-console/internal/models"
)

func record(id, method string, status int, outcome models.Outcome, ms float64, at time.Time) models.RequestRecord {
	return models.RequestRecord{
		ID:         id,
		Timestamp:  at,
		Method:     method,
		URL:        "http://localhost:8000/v1/files",
		Status:     status,
		Outcome:    outcome,
		DurationMs: ms,
		ByteSize:   128,
	}
}

func TestInsertRequest(t *testing.T) {
	db := newTestDB(t)
	defer db.Close()

	now := time.Now().Truncate(time.Millisecond)
	rec := record("01A", "POST", 201, models.OutcomeSuccess, 12.5, now)
	rec.Note = "ui-1234"

	if err := db.InsertRequest(rec); err != nil {
		t.Fatalf("InsertRequest() failed: %v", err)
	}

	got, err := db.RecentRequests(10)
	if err != nil {
		t.Fatalf("RecentRequests() failed: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d records, want 1", len(got))
	}
	if got[0].ID != "01A" || got[0].Status != 201 || got[0].Outcome != models.OutcomeSuccess {
		t.Errorf("unexpected record: %+v", got[0])
	}
	if got[0].Note != "ui-1234" {
		t.Errorf("Note = %q", got[0].Note)
	}
	if !got[0].Timestamp.Equal(now) {
		t.Errorf("Timestamp = %v, want %v", got[0].Timestamp, now)
	}
}

func TestInsertRequest_ReplacesSameID(t *testing.T) {
	db := newTestDB(t)
	defer db.Close()

	now := time.Now()
	_ = db.InsertRequest(record("01A", "GET", 0, models.OutcomePending, 0, now))
	_ = db.InsertRequest(record("01A", "GET", 200, models.OutcomeSuccess, 3, now))

	got, _ := db.RecentRequests(10)
	if len(got) != 1 || got[0].Outcome != models.OutcomeSuccess {
		t.Errorf("expected single replaced row, got %+v", got)
	}
}

func TestRecentRequests_OrderAndLimit(t *testing.T) {
	db := newTestDB(t)
	defer db.Close()

	base := time.Now().Add(-time.Hour)
	for i := 0; i < 5; i++ {
		id := fmt.Sprintf("%02d", i)
		if err := db.InsertRequest(record(id, "GET", 200, models.OutcomeSuccess, 1, base.Add(time.Duration(i)*time.Minute))); err != nil {
			t.Fatalf("InsertRequest() failed: %v", err)
		}
	}

	got, err := db.RecentRequests(3)
	if err != nil {
		t.Fatalf("RecentRequests() failed: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("got %d, want 3", len(got))
	}
	if got[0].ID != "04" || got[2].ID != "02" {
		t.Errorf("order = %s..%s, want 04..02", got[0].ID, got[2].ID)
	}
}

func TestLatencyByMethod(t *testing.T) {
	db := newTestDB(t)
	defer db.Close()

	now := time.Now()
	rows := []models.RequestRecord{
		record("1", "GET", 200, models.OutcomeSuccess, 10, now),
		record("2", "GET", 503, models.OutcomeFailure, 30, now),
		record("3", "POST", 201, models.OutcomeSuccess, 50, now),
		record("4", "GET", 200, models.OutcomeSuccess, 99, now.Add(-48*time.Hour)),
	}
	for _, r := range rows {
		if err := db.InsertRequest(r); err != nil {
			t.Fatalf("InsertRequest() failed: %v", err)
		}
	}

	stats, err := db.LatencyByMethod(now.Add(-time.Hour))
	if err != nil {
		t.Fatalf("LatencyByMethod() failed: %v", err)
	}
	if len(stats) != 2 {
		t.Fatalf("got %d methods, want 2", len(stats))
	}

	get := stats[0]
	if get.Method != "GET" || get.Calls != 2 || get.Errors != 1 {
		t.Errorf("GET stats = %+v", get)
	}
	if get.AvgMs != 20 || get.MaxMs != 30 {
		t.Errorf("GET latency = avg %v max %v, want 20/30", get.AvgMs, get.MaxMs)
	}
	if get.TotalBytes != 256 {
		t.Errorf("GET bytes = %d, want 256", get.TotalBytes)
	}
}

func TestPruneRequests(t *testing.T) {
	db := newTestDB(t)
	defer db.Close()

	base := time.Now()
	for i := 0; i < 10; i++ {
		_ = db.InsertRequest(record(fmt.Sprintf("%02d", i), "GET", 200, models.OutcomeSuccess, 1, base.Add(time.Duration(i)*time.Second)))
	}

	n, err := db.PruneRequests(4)
	if err != nil {
		t.Fatalf("PruneRequests() failed: %v", err)
	}
	if n != 6 {
		t.Errorf("pruned %d, want 6", n)
	}
	got, _ := db.RecentRequests(100)
	if len(got) != 4 || got[3].ID != "06" {
		t.Errorf("remaining = %+v", got)
	}
}

func TestSamples(t *testing.T) {
	db := newTestDB(t)
	defer db.Close()

	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		s := models.NewMetricSample(float64(i*10), base.Add(time.Duration(i)*5*time.Second))
		if err := db.InsertSample("http://a", s); err != nil {
			t.Fatalf("InsertSample() failed: %v", err)
		}
	}
	_ = db.InsertSample("http://b", models.NewMetricSample(999, base))

	got, err := db.RecentSamples("http://a", 3)
	if err != nil {
		t.Fatalf("RecentSamples() failed: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("got %d samples, want 3", len(got))
	}
	if got[0].Value != 20 || got[2].Value != 40 {
		t.Errorf("values = %v..%v, want 20..40 oldest first", got[0].Value, got[2].Value)
	}
	if !got[0].At.Equal(base.Add(10 * time.Second)) {
		t.Errorf("At = %v", got[0].At)
	}
}

func TestParseTime_Invalid(t *testing.T) {
	if !parseTime("garbage").IsZero() {
		t.Error("parseTime should return zero time for bad input")
	}
}
