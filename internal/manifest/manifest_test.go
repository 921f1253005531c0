package manifest

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/datallboy/gofetch/internal/domain"
)

func writeManifest(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "manifest.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	abs := filepath.Join(dir, "elsewhere", "x.bin")

	path := writeManifest(t, dir, `
base_dir: instance
files:
  - url: https://example.com/a.jar
    path: libraries/a.jar
    size: 1024
    sha1: 2AAE6C35C94FCFB415DBE95F408B9CE91EE846ED
  - url: https://example.com/b.json
    path: b.json
    sha256: b94d27b9934d3e08a52e52d7da7dabfac484efe37a5380ee9088f7ace2efcde9
  - url: https://example.com/x.bin
    path: `+abs+`
    size: 0
`)

	files, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(files) != 3 {
		t.Fatalf("expected 3 files, got %d", len(files))
	}

	a := files[0]
	if a.Path != filepath.Join(dir, "instance", "libraries", "a.jar") {
		t.Errorf("unexpected path %s", a.Path)
	}
	if a.Size == nil || *a.Size != 1024 {
		t.Errorf("unexpected size %v", a.Size)
	}
	if a.Checksum == nil || a.Checksum.Algorithm != domain.SHA1 || a.Checksum.Hex != "2aae6c35c94fcfb415dbe95f408b9ce91ee846ed" {
		t.Errorf("unexpected checksum %v", a.Checksum)
	}

	b := files[1]
	if b.Size != nil {
		t.Errorf("expected no size, got %d", *b.Size)
	}
	if b.Checksum == nil || b.Checksum.Algorithm != domain.SHA256 {
		t.Errorf("unexpected checksum %v", b.Checksum)
	}

	x := files[2]
	if x.Path != abs {
		t.Errorf("absolute path changed: %s", x.Path)
	}
	if x.Size == nil || *x.Size != 0 {
		t.Error("an explicit zero size must be kept")
	}
	if x.Checksum != nil {
		t.Errorf("expected no checksum, got %v", x.Checksum)
	}
}

func TestLoadJSON(t *testing.T) {
	dir := t.TempDir()
	path := writeManifest(t, dir, `{"files": [{"url": "https://example.com/a", "path": "a", "md5": "5eb63bbbe01eeed093cb22bb8f5acdc3"}]}`)

	files, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(files) != 1 || files[0].Path != filepath.Join(dir, "a") {
		t.Fatalf("unexpected files %+v", files)
	}
	if files[0].Checksum.Algorithm != domain.MD5 {
		t.Errorf("expected md5, got %s", files[0].Checksum.Algorithm)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{"missing url", "files:\n  - path: a\n", "url is required"},
		{"missing path", "files:\n  - url: https://example.com/a\n", "path is required"},
		{"two checksums", "files:\n  - url: u\n    path: a\n    sha1: aa\n    md5: bb\n", "at most one"},
		{"unknown field", "files:\n  - url: u\n    path: a\n    crc: 1\n", "crc"},
		{"invalid yaml", "files: [", "could not decode"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeManifest(t, t.TempDir(), tt.content)
			_, err := Load(path)
			if err == nil {
				t.Fatal("expected an error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected an error for a missing manifest")
	}
}
