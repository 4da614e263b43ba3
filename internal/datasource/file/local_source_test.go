package file

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLocalOpen(t *testing.T) {
	t.Parallel()

	canceled, cancel := context.WithCancel(context.Background())
	cancel()

	dir := t.TempDir()
	doc := filepath.Join(dir, "database.json")
	if err := os.WriteFile(doc, []byte(`{"object":"database"}`), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	tests := []struct {
		name        string
		path        string
		ctx         context.Context
		wantErrIs   error
		wantErrText string
		wantContent string
	}{
		{name: "reads document", path: doc, ctx: context.Background(), wantContent: `{"object":"database"}`},
		{name: "missing file", path: filepath.Join(dir, "missing.json"), ctx: context.Background(), wantErrIs: os.ErrNotExist, wantErrText: "open "},
		{name: "directory", path: dir, ctx: context.Background(), wantErrText: "is a directory"},
		{name: "canceled context", path: doc, ctx: canceled, wantErrIs: context.Canceled},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			l := NewLocal(tt.path)
			if l.Path() != tt.path {
				t.Fatalf("Path() = %q, want %q", l.Path(), tt.path)
			}
			rc, err := l.Open(tt.ctx)
			if tt.wantErrIs != nil || tt.wantErrText != "" {
				if err == nil {
					rc.Close()
					t.Fatal("Open() error = nil, want error")
				}
				if tt.wantErrIs != nil && !errors.Is(err, tt.wantErrIs) {
					t.Fatalf("Open() error = %v, want errors.Is %v", err, tt.wantErrIs)
				}
				if !strings.Contains(err.Error(), tt.wantErrText) {
					t.Fatalf("Open() error = %q, want it to contain %q", err, tt.wantErrText)
				}
				return
			}
			if err != nil {
				t.Fatalf("Open() error = %v", err)
			}
			defer rc.Close()
			b, err := io.ReadAll(rc)
			if err != nil {
				t.Fatalf("ReadAll: %v", err)
			}
			if string(b) != tt.wantContent {
				t.Fatalf("content = %q, want %q", b, tt.wantContent)
			}
		})
	}
}
