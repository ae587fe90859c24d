package files

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/j-veylop/filerepo-console/internal/logger"
	"github.com/j-veylop/filerepo-console/internal/models"
	"github.com/j-veylop/filerepo-console/internal/transport"
)

// UploadInput is a new-file upload request.
type UploadInput struct {
	FilePath string
	Dir      string
}

// DownloadInput is a versioned retrieval request. An empty Version fetches
// the latest version.
type DownloadInput struct {
	FileID  string
	Version string
	SaveDir string
}

// PutVersionInput uploads a new version of an existing file.
type PutVersionInput struct {
	FileID   string
	FilePath string
}

// DeleteInput removes a file and all its versions.
type DeleteInput struct {
	FileID string
}

// Upload posts a new file. On success the returned identifier and
// checksum become LastUpload.
func (s *Service) Upload(ctx context.Context, in UploadInput) models.OperationResult {
	const op = models.OpUpload

	if err := required("file", in.FilePath); err != nil {
		return abort(op, err)
	}
	body, contentType, err := multipartBody(in.FilePath)
	if err != nil {
		return abort(op, err)
	}

	key, _ := s.keys.Next()

	target := s.Target().URL("/v1/files")
	if dir := strings.TrimSpace(in.Dir); dir != "" {
		target += "?" + url.Values{"dir": {dir}}.Encode()
	}

	out, err := s.execute(ctx, call{
		method:      http.MethodPost,
		url:         target,
		body:        body,
		contentType: contentType,
		key:         key,
	})
	if err != nil {
		return fail(op, out, key, err)
	}

	return s.storedResult(op, out, key, "")
}

// PutVersion uploads a new version of an existing file.
func (s *Service) PutVersion(ctx context.Context, in PutVersionInput) models.OperationResult {
	const op = models.OpPut

	if err := required("file id", in.FileID); err != nil {
		return abort(op, err)
	}
	if err := required("file", in.FilePath); err != nil {
		return abort(op, err)
	}
	body, contentType, err := multipartBody(in.FilePath)
	if err != nil {
		return abort(op, err)
	}

	key, _ := s.keys.Next()
	fileID := strings.TrimSpace(in.FileID)

	out, err := s.execute(ctx, call{
		method:      http.MethodPut,
		url:         s.Target().URL("/v1/files/" + url.PathEscape(fileID)),
		body:        body,
		contentType: contentType,
		key:         key,
	})
	if err != nil {
		return fail(op, out, key, err)
	}

	return s.storedResult(op, out, key, fileID)
}

// storedResult finishes a successful write. A body that cannot be parsed
// still counts as success, with the raw text as the message.
func (s *Service) storedResult(op models.Operation, out outcome, key, fallbackID string) models.OperationResult {
	res := models.OperationResult{
		Op:             op,
		Phase:          models.PhaseSucceeded,
		RecordID:       out.recordID,
		IdempotencyKey: key,
		Status:         out.result.StatusCode,
	}

	stored, err := parseStored(out.result.Body, fallbackID)
	if err != nil {
		res.Message = UserMessage(err)
		logger.Warn("write response not understood", "op", string(op), "error", err)
		return res
	}

	s.setLastUpload(stored)
	res.Stored = &stored
	res.Message = storedMessage(op, stored)
	logger.Info("file stored", "op", string(op), "file_id", stored.ID, "version", stored.Version)
	return res
}

func storedMessage(op models.Operation, f models.StoredFile) string {
	verb := "Uploaded"
	if op == models.OpPut {
		verb = "Stored new version of"
	}
	msg := fmt.Sprintf("%s %s", verb, f.ID)
	if f.Version > 0 {
		msg += fmt.Sprintf(" (v%d)", f.Version)
	}
	if f.Checksum != "" {
		msg += " checksum " + f.Checksum
	}
	return msg
}

// Download fetches a file version and saves it under SaveDir.
func (s *Service) Download(ctx context.Context, in DownloadInput) models.OperationResult {
	const op = models.OpDownload

	fileID := strings.TrimSpace(in.FileID)
	version := strings.TrimSpace(in.Version)
	if err := required("file id", fileID); err != nil {
		return abort(op, err)
	}
	if err := validVersion(version); err != nil {
		return abort(op, err)
	}
	saveDir := in.SaveDir
	if saveDir == "" {
		saveDir = "."
	}

	target := s.Target().URL("/v1/files/" + url.PathEscape(fileID))
	if version != "" {
		target += "?" + url.Values{"version": {version}}.Encode()
	}

	out, err := s.execute(ctx, call{method: http.MethodGet, url: target})
	if err != nil {
		return fail(op, out, "", err)
	}

	name := downloadFilename(out.result.Header.Get("Content-Disposition"), fileID, version)
	path, err := writeFileAtomic(saveDir, name, out.result.Body)
	if err != nil {
		res := fail(op, out, "", err)
		logger.Error("download not saved", "file_id", fileID, "error", err)
		return res
	}

	dl := models.DownloadedFile{
		SavedAt:  time.Now(),
		FileID:   fileID,
		Version:  version,
		Filename: name,
		Path:     path,
		Checksum: etagChecksum(out.result.Header.Get("ETag")),
		Size:     out.result.Size,
	}
	s.setLastDownload(dl)

	return models.OperationResult{
		Op:       op,
		Phase:    models.PhaseSucceeded,
		Download: &dl,
		RecordID: out.recordID,
		Status:   out.result.StatusCode,
		Message:  fmt.Sprintf("Saved %s (%d bytes)", path, dl.Size),
	}
}

// Delete removes a file. Any 2xx is success; the body is ignored.
func (s *Service) Delete(ctx context.Context, in DeleteInput) models.OperationResult {
	const op = models.OpDelete

	fileID := strings.TrimSpace(in.FileID)
	if err := required("file id", fileID); err != nil {
		return abort(op, err)
	}

	out, err := s.execute(ctx, call{
		method: http.MethodDelete,
		url:    s.Target().URL("/v1/files/" + url.PathEscape(fileID)),
	})
	if err != nil {
		return fail(op, out, "", err)
	}

	s.mu.Lock()
	if s.lastUpload != nil && s.lastUpload.ID == fileID {
		s.lastUpload = nil
	}
	s.mu.Unlock()

	logger.Info("file deleted", "file_id", fileID)
	return models.OperationResult{
		Op:       op,
		Phase:    models.PhaseSucceeded,
		RecordID: out.recordID,
		Status:   out.result.StatusCode,
		Message:  "Deleted " + fileID,
	}
}

// Readiness queries the remote readiness endpoint. A 503 still carries a
// readiness payload, which is returned alongside the failure.
func (s *Service) Readiness(ctx context.Context) models.OperationResult {
	const op = models.OpReadiness

	out, err := s.execute(ctx, call{method: http.MethodGet, url: s.Target().URL("/readyz")})

	var ready *models.Readiness
	if out.result != nil {
		var r models.Readiness
		if json.Unmarshal(out.result.Body, &r) == nil && r.Status != "" {
			ready = &r
		}
	}

	if err != nil {
		res := fail(op, out, "", err)
		res.Readiness = ready
		if ready != nil {
			res.Message = readinessMessage(*ready)
		}
		return res
	}

	res := models.OperationResult{
		Op:        op,
		Phase:     models.PhaseSucceeded,
		Readiness: ready,
		RecordID:  out.recordID,
		Status:    out.result.StatusCode,
	}
	if ready != nil {
		res.Message = readinessMessage(*ready)
	} else {
		res.Message = UserMessage(&ParseError{Body: strings.TrimSpace(out.result.Text())})
	}
	return res
}

func readinessMessage(r models.Readiness) string {
	msg := fmt.Sprintf("%s (db %s, storage %s)", r.Status, r.DB, r.Storage)
	if r.Draining {
		msg += ", draining"
	}
	return msg
}

// SetDrain toggles the server's drain mode. It needs an admin key.
func (s *Service) SetDrain(ctx context.Context, draining bool) models.OperationResult {
	const op = models.OpDrain

	if err := required("admin key", s.Target().AdminKey); err != nil {
		return abort(op, err)
	}

	target := s.Target().URL("/admin/drain") + "?" + url.Values{"state": {strconv.FormatBool(draining)}}.Encode()
	out, err := s.execute(ctx, call{method: http.MethodPost, url: target, adminOnly: true})
	if err != nil {
		return fail(op, out, "", err)
	}

	state := "disabled"
	if draining {
		state = "enabled"
	}
	logger.Info("drain mode changed", "draining", draining)
	return models.OperationResult{
		Op:       op,
		Phase:    models.PhaseSucceeded,
		RecordID: out.recordID,
		Status:   out.result.StatusCode,
		Message:  "Drain mode " + state,
	}
}

// Probe issues a GET for path through the ledger and returns the response
// whatever its status. Only a transport failure yields an error.
func (s *Service) Probe(ctx context.Context, path string) (*transport.Result, error) {
	out, err := s.execute(ctx, call{method: http.MethodGet, url: s.Target().URL(path)})
	if out.result != nil {
		return out.result, nil
	}
	return nil, err
}
