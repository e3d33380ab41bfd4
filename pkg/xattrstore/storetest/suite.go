// Package storetest holds a conformance suite shared by every xattrstore
// implementation.
package storetest

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/marmos91/volbridge/pkg/volume"
	"github.com/marmos91/volbridge/pkg/xattrstore"
)

// StoreFactory creates a fresh store for each test. The factory should
// register teardown with t.Cleanup.
type StoreFactory func(t *testing.T) xattrstore.Store

// RunConformanceSuite runs every conformance test against factory.
func RunConformanceSuite(t *testing.T, factory StoreFactory) {
	t.Helper()

	t.Run("GetMissing", func(t *testing.T) { testGetMissing(t, factory(t)) })
	t.Run("SetGet", func(t *testing.T) { testSetGet(t, factory(t)) })
	t.Run("Overwrite", func(t *testing.T) { testOverwrite(t, factory(t)) })
	t.Run("EmptyValue", func(t *testing.T) { testEmptyValue(t, factory(t)) })
	t.Run("Remove", func(t *testing.T) { testRemove(t, factory(t)) })
	t.Run("ListSorted", func(t *testing.T) { testListSorted(t, factory(t)) })
	t.Run("PathIsolation", func(t *testing.T) { testPathIsolation(t, factory(t)) })
	t.Run("Concurrent", func(t *testing.T) { testConcurrent(t, factory(t)) })
}

// Files lists the paths a factory must make resolvable before handing out a
// store. Stores backed by a real filesystem need them to exist.
var Files = []string{"/a", "/b", "/dir/c"}

func testGetMissing(t *testing.T, s xattrstore.Store) {
	_, err := s.Get(t.Context(), "/a", "user.missing")
	if !errors.Is(err, volume.ErrNoData) {
		t.Fatalf("Get(missing) error = %v, want ErrNoData", err)
	}
}

func testSetGet(t *testing.T, s xattrstore.Store) {
	ctx := t.Context()
	want := []byte{0x02, 0x00, 0x00, 0x00, 0xff}
	if err := s.Set(ctx, "/a", "user.acl", want); err != nil {
		t.Fatalf("Set() failed: %v", err)
	}
	got, err := s.Get(ctx, "/a", "user.acl")
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	if string(got) != string(want) {
		t.Fatalf("Get() = %x, want %x", got, want)
	}
}

func testOverwrite(t *testing.T, s xattrstore.Store) {
	ctx := t.Context()
	if err := s.Set(ctx, "/a", "user.v", []byte("first value")); err != nil {
		t.Fatalf("Set() failed: %v", err)
	}
	if err := s.Set(ctx, "/a", "user.v", []byte("2nd")); err != nil {
		t.Fatalf("Set() failed: %v", err)
	}
	got, err := s.Get(ctx, "/a", "user.v")
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	if string(got) != "2nd" {
		t.Fatalf("Get() = %q, want %q", got, "2nd")
	}
}

func testEmptyValue(t *testing.T, s xattrstore.Store) {
	ctx := t.Context()
	if err := s.Set(ctx, "/a", "user.empty", nil); err != nil {
		t.Fatalf("Set() failed: %v", err)
	}
	got, err := s.Get(ctx, "/a", "user.empty")
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("Get() = %x, want empty", got)
	}
}

func testRemove(t *testing.T, s xattrstore.Store) {
	ctx := t.Context()
	if err := s.Set(ctx, "/a", "user.gone", []byte("x")); err != nil {
		t.Fatalf("Set() failed: %v", err)
	}
	if err := s.Remove(ctx, "/a", "user.gone"); err != nil {
		t.Fatalf("Remove() failed: %v", err)
	}
	if _, err := s.Get(ctx, "/a", "user.gone"); !errors.Is(err, volume.ErrNoData) {
		t.Fatalf("Get() after Remove error = %v, want ErrNoData", err)
	}
	if err := s.Remove(ctx, "/a", "user.gone"); !errors.Is(err, volume.ErrNoData) {
		t.Fatalf("second Remove() error = %v, want ErrNoData", err)
	}
}

func testListSorted(t *testing.T, s xattrstore.Store) {
	ctx := t.Context()
	for _, name := range []string{"user.c", "user.a", "user.b"} {
		if err := s.Set(ctx, "/dir/c", name, []byte(name)); err != nil {
			t.Fatalf("Set(%s) failed: %v", name, err)
		}
	}
	names, err := s.List(ctx, "/dir/c")
	if err != nil {
		t.Fatalf("List() failed: %v", err)
	}
	// Native filesystems may carry attributes of their own (selinux etc).
	var user []string
	for _, n := range names {
		if len(n) > 5 && n[:5] == "user." {
			user = append(user, n)
		}
	}
	if fmt.Sprint(user) != "[user.a user.b user.c]" {
		t.Fatalf("List() = %v, want [user.a user.b user.c]", user)
	}
}

func testPathIsolation(t *testing.T, s xattrstore.Store) {
	ctx := t.Context()
	if err := s.Set(ctx, "/a", "user.k", []byte("a")); err != nil {
		t.Fatalf("Set() failed: %v", err)
	}
	if _, err := s.Get(ctx, "/b", "user.k"); !errors.Is(err, volume.ErrNoData) {
		t.Fatalf("Get(/b) error = %v, want ErrNoData", err)
	}
	names, err := s.List(ctx, "/b")
	if err != nil {
		t.Fatalf("List(/b) failed: %v", err)
	}
	for _, n := range names {
		if n == "user.k" {
			t.Fatalf("List(/b) leaked attribute from /a: %v", names)
		}
	}
}

func testConcurrent(t *testing.T, s xattrstore.Store) {
	ctx := t.Context()
	var wg sync.WaitGroup
	errs := make(chan error, 16)
	for i := range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			name := fmt.Sprintf("user.n%02d", i)
			if err := s.Set(ctx, "/b", name, []byte{byte(i)}); err != nil {
				errs <- err
				return
			}
			if _, err := s.Get(ctx, "/b", name); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("concurrent access failed: %v", err)
	}
}
