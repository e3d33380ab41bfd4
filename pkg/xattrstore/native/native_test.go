package native_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/marmos91/volbridge/pkg/volume"
	"github.com/marmos91/volbridge/pkg/xattrstore"
	"github.com/marmos91/volbridge/pkg/xattrstore/native"
	"github.com/marmos91/volbridge/pkg/xattrstore/storetest"
)

func newStore(t *testing.T) xattrstore.Store {
	t.Helper()
	root := t.TempDir()
	for _, f := range storetest.Files {
		full := filepath.Join(root, filepath.FromSlash(f))
		if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
			t.Fatalf("MkdirAll() failed: %v", err)
		}
		if err := os.WriteFile(full, nil, 0o644); err != nil {
			t.Fatalf("WriteFile() failed: %v", err)
		}
	}

	s, err := native.New(root)
	if errors.Is(err, volume.ErrNotSupported) {
		t.Skip("xattrs not supported on this platform")
	}
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	if err := s.Set(t.Context(), "/a", "user.probe", []byte("1")); errors.Is(err, volume.ErrNotSupported) {
		t.Skip("user xattrs not supported by the temp filesystem")
	} else if err != nil {
		t.Fatalf("probe Set() failed: %v", err)
	}
	if err := s.Remove(t.Context(), "/a", "user.probe"); err != nil {
		t.Fatalf("probe Remove() failed: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestConformance(t *testing.T) {
	storetest.RunConformanceSuite(t, newStore)
}

func TestMissingFile(t *testing.T) {
	s := newStore(t)
	_, err := s.Get(t.Context(), "/nope", "user.x")
	if !errors.Is(err, volume.ErrNotFound) {
		t.Fatalf("Get() error = %v, want ErrNotFound", err)
	}
}

func TestPathCannotEscapeRoot(t *testing.T) {
	s := newStore(t)
	ctx := t.Context()
	if err := s.Set(ctx, "/../../a", "user.k", []byte("v")); err != nil {
		t.Fatalf("Set() failed: %v", err)
	}
	got, err := s.Get(ctx, "/a", "user.k")
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	if string(got) != "v" {
		t.Fatalf("Get() = %q, want %q", got, "v")
	}
}
