// Package files implements the console's file operations against the
// remote storage API.
//
// Every operation follows the same pipeline: validate local input, build
// the request, optionally attach an idempotency key, append a pending
// ledger entry, send it through the instrumented transport, and finalize
// the entry exactly once whatever the outcome. Errors never escape an
// operation; they are folded into the returned OperationResult.
package files

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/j-veylop/filerepo-console/internal/idempotency"
	"github.com/j-veylop/filerepo-console/internal/ledger"
	"github.com/j-veylop/filerepo-console/internal/logger"
	"github.com/j-veylop/filerepo-console/internal/models"
	"github.com/j-veylop/filerepo-console/internal/transport"
)

// Header names sent to the remote API.
const (
	HeaderAPIKey      = "X-Api-Key"
	HeaderAdminKey    = "Admin-Key"
	HeaderAdminKeyAlt = "X-Admin-Key"
)

// Target is where requests go and which credentials they carry.
type Target struct {
	BaseURL  string
	APIKey   string
	AdminKey string
}

// URL joins path onto the base URL.
func (t Target) URL(path string) string {
	return strings.TrimRight(t.BaseURL, "/") + path
}

// Service runs file operations. It is safe for concurrent use.
type Service struct {
	transport    *transport.Transport
	ledger       *ledger.Ledger
	keys         *idempotency.Generator
	lastUpload   *models.StoredFile
	lastDownload *models.DownloadedFile
	userAgent    string
	target       Target
	mu           sync.RWMutex
}

// New creates a file operations service.
func New(tr *transport.Transport, l *ledger.Ledger, keys *idempotency.Generator, target Target) *Service {
	return &Service{
		transport: tr,
		ledger:    l,
		keys:      keys,
		target:    target,
	}
}

// SetUserAgent sets the User-Agent sent with every request.
func (s *Service) SetUserAgent(ua string) {
	s.mu.Lock()
	s.userAgent = ua
	s.mu.Unlock()
}

// SetTarget replaces the request target.
func (s *Service) SetTarget(t Target) {
	s.mu.Lock()
	s.target = t
	s.mu.Unlock()
}

// Target returns the current request target.
func (s *Service) Target() Target {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.target
}

// LastUpload returns the most recent successful upload or new version.
func (s *Service) LastUpload() (models.StoredFile, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.lastUpload == nil {
		return models.StoredFile{}, false
	}
	return *s.lastUpload, true
}

// LastDownload returns the most recent saved download.
func (s *Service) LastDownload() (models.DownloadedFile, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.lastDownload == nil {
		return models.DownloadedFile{}, false
	}
	return *s.lastDownload, true
}

func (s *Service) setLastUpload(f models.StoredFile) {
	s.mu.Lock()
	s.lastUpload = &f
	s.mu.Unlock()
}

func (s *Service) setLastDownload(f models.DownloadedFile) {
	s.mu.Lock()
	s.lastDownload = &f
	s.mu.Unlock()
}

// call describes one outbound request.
type call struct {
	body        io.Reader
	method      string
	url         string
	contentType string
	key         string
	adminOnly   bool
}

// outcome carries what execute learned about a call.
type outcome struct {
	result   *transport.Result
	recordID string
}

// execute issues c and finalizes its ledger entry on every branch.
// A non-nil error is one of TransportError or ApplicationError.
func (s *Service) execute(ctx context.Context, c call) (outcome, error) {
	target := s.Target()

	s.mu.RLock()
	ua := s.userAgent
	s.mu.RUnlock()

	req, err := http.NewRequestWithContext(ctx, c.method, c.url, c.body)
	if err != nil {
		return outcome{}, &ValidationError{Field: "request", Reason: err.Error()}
	}
	if c.contentType != "" {
		req.Header.Set("Content-Type", c.contentType)
	}
	if ua != "" {
		req.Header.Set("User-Agent", ua)
	}
	if target.APIKey != "" {
		req.Header.Set(HeaderAPIKey, target.APIKey)
	}
	if target.AdminKey != "" {
		req.Header.Set(HeaderAdminKey, target.AdminKey)
		if c.adminOnly {
			req.Header.Set(HeaderAdminKeyAlt, target.AdminKey)
		}
	}
	if c.key != "" {
		req.Header.Set(idempotency.Header, c.key)
	}

	seedNote := ""
	if c.key != "" {
		seedNote = "idempotency-key " + c.key
	}
	id := s.ledger.Append(ledger.Seed{Method: c.method, URL: c.url, Note: seedNote})
	out := outcome{recordID: id}

	res, err := s.transport.Do(ctx, req)
	if err != nil {
		var terr *transport.Error
		if !errors.As(err, &terr) {
			terr = &transport.Error{Err: err, Method: c.method, URL: c.url}
		}
		s.ledger.Finalize(id, ledger.Update{
			Outcome:    models.OutcomeFailure,
			DurationMs: terr.DurationMs(),
			Note:       joinNote(seedNote, terr.Err.Error()),
		})
		logger.Warn("request failed", "method", c.method, "url", c.url, "error", terr.Err)
		return out, &TransportError{Err: terr}
	}

	out.result = res
	upd := ledger.Update{
		Status:     res.StatusCode,
		DurationMs: res.DurationMs(),
		ByteSize:   res.Size,
	}

	if !res.OK {
		msg := extractMessage(res.Body, res.StatusCode)
		upd.Outcome = models.OutcomeFailure
		upd.Note = joinNote(seedNote, msg)
		s.ledger.Finalize(id, upd)
		logger.Debug("request rejected", "method", c.method, "url", c.url, "status", res.StatusCode, "message", msg)
		return out, &ApplicationError{Status: res.StatusCode, Message: msg}
	}

	upd.Outcome = models.OutcomeSuccess
	s.ledger.Finalize(id, upd)
	return out, nil
}

func joinNote(parts ...string) string {
	var kept []string
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, "; ")
}

// fail builds a failed result from err, keeping the HTTP status when known.
func fail(op models.Operation, out outcome, key string, err error) models.OperationResult {
	res := models.OperationResult{
		Op:             op,
		Phase:          models.PhaseFailed,
		Message:        UserMessage(err),
		RecordID:       out.recordID,
		IdempotencyKey: key,
	}
	if out.result != nil {
		res.Status = out.result.StatusCode
	}
	return res
}

// abort builds the result for input rejected before any network activity.
func abort(op models.Operation, err error) models.OperationResult {
	return models.OperationResult{
		Op:      op,
		Phase:   models.PhaseAborted,
		Message: UserMessage(err),
	}
}

func required(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return &ValidationError{Field: field, Reason: "is required"}
	}
	return nil
}
