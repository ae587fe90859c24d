package files

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/j-veylop/filerepo-console/internal/models"
)

// multipartField is the form field the API reads the file from.
const multipartField = "file"

// multipartBody reads the file at path into a multipart form body.
func multipartBody(path string) (*bytes.Buffer, string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, "", &ValidationError{Field: "file", Reason: fmt.Sprintf("cannot be read: %v", err)}
	}
	if info.IsDir() {
		return nil, "", &ValidationError{Field: "file", Reason: "is a directory"}
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, "", &ValidationError{Field: "file", Reason: fmt.Sprintf("cannot be opened: %v", err)}
	}
	defer func() { _ = f.Close() }()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile(multipartField, filepath.Base(path))
	if err != nil {
		return nil, "", fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return nil, "", &ValidationError{Field: "file", Reason: fmt.Sprintf("cannot be read: %v", err)}
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to finalize form: %w", err)
	}

	return &buf, w.FormDataContentType(), nil
}

// flexString accepts a JSON string or number.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = flexString(n.String())
	return nil
}

// storedPayload is the success body of upload and new-version calls.
type storedPayload struct {
	FileID   flexString `json:"file_id"`
	ID       flexString `json:"id"`
	Checksum string     `json:"checksum"`
	SHA256   string     `json:"sha256"`
	Path     string     `json:"path"`
	Server   string     `json:"server"`
	Version  int        `json:"version"`
	Size     int64      `json:"size"`
}

// parseStored extracts the stored-file description. fallbackID is used
// when the body omits an identifier.
func parseStored(body []byte, fallbackID string) (models.StoredFile, error) {
	var p storedPayload
	if err := json.Unmarshal(body, &p); err != nil {
		return models.StoredFile{}, &ParseError{Err: err, Body: strings.TrimSpace(string(body))}
	}

	stored := models.StoredFile{
		ID:       firstNonEmpty(string(p.FileID), string(p.ID), fallbackID),
		Checksum: firstNonEmpty(p.Checksum, p.SHA256),
		Path:     p.Path,
		Server:   p.Server,
		Version:  p.Version,
		Size:     p.Size,
	}
	if stored.ID == "" {
		return stored, &ParseError{
			Err:  fmt.Errorf("response has no file identifier"),
			Body: strings.TrimSpace(string(body)),
		}
	}
	return stored, nil
}

// downloadFilename picks the local file name for a retrieval: the
// Content-Disposition filename when usable, else <id>_v<version> or
// <id>_latest.
func downloadFilename(contentDisposition, fileID, version string) string {
	if contentDisposition != "" {
		if _, params, err := mime.ParseMediaType(contentDisposition); err == nil {
			if name := safeName(params["filename"]); name != "" {
				return name
			}
		}
	}

	suffix := "latest"
	if version != "" {
		suffix = "v" + version
	}
	return safeName(fileID) + "_" + suffix
}

// safeName strips directory components so a name cannot escape the save
// directory.
func safeName(name string) string {
	name = strings.TrimSpace(name)
	name = strings.ReplaceAll(name, "\\", "/")
	name = filepath.Base(filepath.FromSlash(name))
	switch name {
	case ".", "..", string(filepath.Separator), "":
		return ""
	}
	return name
}

// writeFileAtomic saves data under dir/name through a temp file.
func writeFileAtomic(dir, name string, data []byte) (string, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", fmt.Errorf("failed to create download directory: %w", err)
	}

	dest := filepath.Join(dir, name)
	tmp, err := os.CreateTemp(dir, "."+name+".*.part")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return "", fmt.Errorf("failed to write %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return "", fmt.Errorf("failed to close %s: %w", name, err)
	}
	if err := os.Rename(tmpName, dest); err != nil {
		_ = os.Remove(tmpName)
		return "", fmt.Errorf("failed to save %s: %w", name, err)
	}
	return dest, nil
}

// validVersion accepts an empty string or a positive integer.
func validVersion(v string) error {
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		return &ValidationError{Field: "version", Reason: "must be a positive integer"}
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

// etagChecksum strips quoting and weak markers from an ETag value.
func etagChecksum(etag string) string {
	etag = strings.TrimPrefix(strings.TrimSpace(etag), "W/")
	return strings.Trim(etag, `"`)
}
