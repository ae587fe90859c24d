package models

import "time"

// Phase is the lifecycle position of a single operation.
type Phase string

// Operation phases: idle, validating, then aborted or in-flight, then
// succeeded or failed.
const (
	PhaseIdle       Phase = "idle"
	PhaseValidating Phase = "validating"
	PhaseAborted    Phase = "aborted"
	PhaseInFlight   Phase = "in-flight"
	PhaseSucceeded  Phase = "succeeded"
	PhaseFailed     Phase = "failed"
)

// Operation names a user-facing file verb.
type Operation string

// Supported operations.
const (
	OpUpload    Operation = "upload"
	OpDownload  Operation = "download"
	OpPut       Operation = "put-version"
	OpDelete    Operation = "delete"
	OpReadiness Operation = "readiness"
	OpDrain     Operation = "drain"
)

// StoredFile describes a file version reported by the server after a write.
type StoredFile struct {
	ID       string `json:"file_id"`
	Checksum string `json:"checksum"`
	Path     string `json:"path,omitempty"`
	Server   string `json:"server,omitempty"`
	Version  int    `json:"version,omitempty"`
	Size     int64  `json:"size,omitempty"`
}

// DownloadedFile describes bytes saved locally after a retrieval.
type DownloadedFile struct {
	SavedAt  time.Time
	FileID   string
	Version  string
	Filename string
	Path     string
	Checksum string
	Size     int64
}

// OperationResult is the user-visible outcome of a file operation.
type OperationResult struct {
	Download       *DownloadedFile
	Stored         *StoredFile
	Readiness      *Readiness
	Op             Operation
	Phase          Phase
	Message        string
	RecordID       string
	IdempotencyKey string
	Status         int
}

// Succeeded reports whether the operation finished in the succeeded phase.
func (r OperationResult) Succeeded() bool {
	return r.Phase == PhaseSucceeded
}
