// Package ledger keeps a bounded, newest-first audit trail of every HTTP
// call the console issues.
package ledger

import (
	"math"
	"sort"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/j-veylop/filerepo-console/internal/models"
)

// DefaultCapacity is the number of records retained before eviction.
const DefaultCapacity = 250

// Seed describes a call about to be issued.
type Seed struct {
	Method string
	URL    string
	Note   string
}

// Update carries the terminal fields of a resolved call. An empty Outcome
// is derived from Status.
type Update struct {
	Outcome    models.Outcome
	Note       string
	Status     int
	DurationMs float64
	ByteSize   int64
}

// Observer is notified after a record is appended or finalized. It is
// invoked outside the ledger lock.
type Observer func(models.RequestRecord)

// Ledger is safe for concurrent use.
type Ledger struct {
	now       func() time.Time
	newID     func() string
	records   []models.RequestRecord
	observers []Observer
	capacity  int
	mu        sync.RWMutex
}

// New creates a ledger with the given capacity. Non-positive capacity uses
// DefaultCapacity.
func New(capacity int) *Ledger {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Ledger{
		now:      time.Now,
		newID:    func() string { return ulid.Make().String() },
		records:  make([]models.RequestRecord, 0, capacity),
		capacity: capacity,
	}
}

// Observe registers fn to receive appended and finalized records.
func (l *Ledger) Observe(fn Observer) {
	if fn == nil {
		return
	}
	l.mu.Lock()
	l.observers = append(l.observers, fn)
	l.mu.Unlock()
}

// Append records a pending call and returns its id. The oldest record is
// evicted once capacity is exceeded.
func (l *Ledger) Append(seed Seed) string {
	rec := models.RequestRecord{
		ID:        l.newID(),
		Timestamp: l.now(),
		Method:    seed.Method,
		URL:       seed.URL,
		Note:      seed.Note,
		Outcome:   models.OutcomePending,
	}

	l.mu.Lock()
	l.records = append(l.records, models.RequestRecord{})
	copy(l.records[1:], l.records[:len(l.records)-1])
	l.records[0] = rec
	if len(l.records) > l.capacity {
		l.records = l.records[:l.capacity]
	}
	observers := l.observers
	l.mu.Unlock()

	notify(observers, rec)
	return rec.ID
}

// Finalize resolves the record with the given id. It reports false when the
// id is unknown (including evicted) or the record was already resolved.
func (l *Ledger) Finalize(id string, upd Update) bool {
	l.mu.Lock()
	idx := l.indexOf(id)
	if idx < 0 || l.records[idx].Outcome.IsTerminal() {
		l.mu.Unlock()
		return false
	}

	rec := &l.records[idx]
	rec.Status = upd.Status
	rec.DurationMs = upd.DurationMs
	rec.ByteSize = upd.ByteSize
	rec.Outcome = resolveOutcome(upd)
	if upd.Note != "" {
		rec.Note = upd.Note
	}
	final := *rec
	observers := l.observers
	l.mu.Unlock()

	notify(observers, final)
	return true
}

// Get returns the record with the given id.
func (l *Ledger) Get(id string) (models.RequestRecord, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if idx := l.indexOf(id); idx >= 0 {
		return l.records[idx], true
	}
	return models.RequestRecord{}, false
}

// Records returns a newest-first copy of all retained records.
func (l *Ledger) Records() []models.RequestRecord {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]models.RequestRecord, len(l.records))
	copy(out, l.records)
	return out
}

// Len returns the number of retained records.
func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.records)
}

// Capacity returns the retention bound.
func (l *Ledger) Capacity() int {
	return l.capacity
}

// Stats aggregates outcome counts and latency over retained records.
// Latency figures only consider resolved records.
func (l *Ledger) Stats() models.LatencyStats {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var stats models.LatencyStats
	durations := make([]float64, 0, len(l.records))
	var sum float64

	for _, r := range l.records {
		stats.Total++
		switch r.Outcome {
		case models.OutcomeSuccess:
			stats.Success++
		case models.OutcomeFailure:
			stats.Failure++
		default:
			stats.Pending++
			continue
		}
		durations = append(durations, r.DurationMs)
		sum += r.DurationMs
	}

	if len(durations) == 0 {
		return stats
	}

	sort.Float64s(durations)
	stats.AvgMs = sum / float64(len(durations))
	stats.P50Ms = percentile(durations, 50)
	stats.P95Ms = percentile(durations, 95)
	stats.MaxMs = durations[len(durations)-1]
	return stats
}

func (l *Ledger) indexOf(id string) int {
	for i := range l.records {
		if l.records[i].ID == id {
			return i
		}
	}
	return -1
}

func resolveOutcome(upd Update) models.Outcome {
	if upd.Outcome.IsTerminal() {
		return upd.Outcome
	}
	if upd.Status >= 200 && upd.Status < 300 {
		return models.OutcomeSuccess
	}
	return models.OutcomeFailure
}

// percentile uses nearest-rank over sorted values.
func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	rank := int(math.Ceil(p/100*float64(len(sorted)))) - 1
	if rank < 0 {
		rank = 0
	}
	if rank >= len(sorted) {
		rank = len(sorted) - 1
	}
	return sorted[rank]
}

func notify(observers []Observer, rec models.RequestRecord) {
	for _, fn := range observers {
		fn(rec)
	}
}
