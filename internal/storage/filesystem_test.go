package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSanitizeKey(t *testing.T) {
	tests := []struct {
		key     string
		want    string
		wantErr bool
	}{
		{key: "job-1.zip", want: "job-1.zip"},
		{key: "/2026/job-1.zip", want: "2026/job-1.zip"},
		{key: `a\b\job.zip`, want: "a/b/job.zip"},
		{key: "./a/../job.zip", want: "job.zip"},
		{key: "../escape.zip", wantErr: true},
		{key: "..", wantErr: true},
		{key: "  ", wantErr: true},
	}
	for _, tc := range tests {
		t.Run(tc.key, func(t *testing.T) {
			got, err := sanitizeKey(tc.key)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("sanitizeKey(%q) = %q, want error", tc.key, got)
				}
				return
			}
			if err != nil || got != tc.want {
				t.Fatalf("sanitizeKey(%q) = %q, %v; want %q", tc.key, got, err, tc.want)
			}
		})
	}
}

func TestFileStorePut(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(filepath.Join(dir, "exports"))
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}

	path, err := store.Put(context.Background(), "2x3/job-1.zip", strings.NewReader("PK-archive"), -1, "application/zip")
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if path != filepath.Join(dir, "exports", "2x3", "job-1.zip") {
		t.Fatalf("path = %q", path)
	}
	data, err := os.ReadFile(path)
	if err != nil || string(data) != "PK-archive" {
		t.Fatalf("file = %q, %v", data, err)
	}

	entries, _ := os.ReadDir(filepath.Dir(path))
	if len(entries) != 1 {
		t.Fatalf("leftover files: %v", entries)
	}
}

func TestFileStorePutCanceled(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := store.Put(ctx, "job.zip", strings.NewReader("x"), 1, ""); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if _, err := os.Stat(filepath.Join(store.BasePath(), "job.zip")); !os.IsNotExist(err) {
		t.Fatalf("archive written despite cancel")
	}
}

func TestNewFileStoreRequiresPath(t *testing.T) {
	if _, err := NewFileStore(" "); err == nil {
		t.Fatalf("expected error")
	}
}
