package files

import (
	"io"
	"mime"
	"mime/multipart"
	"os"
	"path/filepath"
	"testing"
)

func TestDownloadFilename(t *testing.T) {
	tests := []struct {
		name        string
		disposition string
		id          string
		version     string
		want        string
	}{
		{"Header", `attachment; filename="abc_v3"`, "abc", "3", "abc_v3"},
		{"HeaderWithExtension", `attachment; filename="report.pdf"`, "abc", "", "report.pdf"},
		{"HeaderPathStripped", `attachment; filename="../../etc/passwd"`, "abc", "", "passwd"},
		{"HeaderBackslashes", `attachment; filename="..\\secret.txt"`, "abc", "", "secret.txt"},
		{"HeaderWithoutFilename", `attachment`, "abc", "2", "abc_v2"},
		{"MalformedHeader", `;;;`, "abc", "", "abc_latest"},
		{"NoHeaderVersion", "", "abc", "7", "abc_v7"},
		{"NoHeaderLatest", "", "abc", "", "abc_latest"},
		{"DotFilename", `attachment; filename=".."`, "abc", "", "abc_latest"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := downloadFilename(tt.disposition, tt.id, tt.version); got != tt.want {
				t.Errorf("downloadFilename() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseStored(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		fallback string
		wantID   string
		wantSum  string
		wantErr  bool
	}{
		{"FileIDChecksum", `{"file_id":"f1","checksum":"c1","version":2}`, "", "f1", "c1", false},
		{"IDSha256", `{"id":"abc","sha256":"deadbeef"}`, "", "abc", "deadbeef", false},
		{"NumericID", `{"id":42,"sha256":"x"}`, "", "42", "x", false},
		{"FallbackID", `{"version":4,"checksum":"c"}`, "given", "given", "c", false},
		{"MissingID", `{"checksum":"c"}`, "", "", "c", true},
		{"NotJSON", `stored ok`, "", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseStored([]byte(tt.body), tt.fallback)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseStored() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got.ID != tt.wantID || got.Checksum != tt.wantSum {
				t.Errorf("parseStored() = %+v", got)
			}
		})
	}
}

func TestValidVersion(t *testing.T) {
	for _, ok := range []string{"", "1", "12"} {
		if err := validVersion(ok); err != nil {
			t.Errorf("validVersion(%q) = %v", ok, err)
		}
	}
	for _, bad := range []string{"0", "-1", "v2", "1.5"} {
		if err := validVersion(bad); err == nil {
			t.Errorf("validVersion(%q) should fail", bad)
		}
	}
}

func TestEtagChecksum(t *testing.T) {
	tests := map[string]string{
		`"abc123"`:   "abc123",
		`W/"abc123"`: "abc123",
		"plain":      "plain",
		"":           "",
	}
	for in, want := range tests {
		if got := etagChecksum(in); got != want {
			t.Errorf("etagChecksum(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestMultipartBody(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "notes.txt")
	if err := os.WriteFile(path, []byte("hello"), 0o600); err != nil {
		t.Fatal(err)
	}

	body, contentType, err := multipartBody(path)
	if err != nil {
		t.Fatalf("multipartBody() failed: %v", err)
	}

	_, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		t.Fatalf("bad content type %q: %v", contentType, err)
	}
	r := multipart.NewReader(body, params["boundary"])
	part, err := r.NextPart()
	if err != nil {
		t.Fatalf("NextPart() failed: %v", err)
	}
	if part.FormName() != "file" || part.FileName() != "notes.txt" {
		t.Errorf("part = %s/%s", part.FormName(), part.FileName())
	}
	data, _ := io.ReadAll(part)
	if string(data) != "hello" {
		t.Errorf("content = %q", data)
	}
}

func TestMultipartBody_Invalid(t *testing.T) {
	dir := t.TempDir()
	if _, _, err := multipartBody(dir); err == nil {
		t.Error("directory should be rejected")
	}
	if _, _, err := multipartBody(filepath.Join(dir, "missing")); err == nil {
		t.Error("missing file should be rejected")
	}
}

func TestWriteFileAtomic(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "downloads")
	path, err := writeFileAtomic(dir, "abc_v1", []byte("payload"))
	if err != nil {
		t.Fatalf("writeFileAtomic() failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil || string(data) != "payload" {
		t.Errorf("read back %q, %v", data, err)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Errorf("temp files left behind: %d entries", len(entries))
	}
}
