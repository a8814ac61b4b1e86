package refstore

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/dotgit-vcs/dotgit/internal/dgerrors"
	"github.com/dotgit-vcs/dotgit/internal/objects"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return New(filepath.Join(t.TempDir(), "dotgit"), objects.DefaultFormat, nil)
}

const testHash = objects.Hash("aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")

func TestWriteReadDirectRef(t *testing.T) {
	s := newTestStore(t)

	if err := s.WriteRef("refs/heads/main", testHash); err != nil {
		t.Fatalf("WriteRef() error: %v", err)
	}
	h, ok, err := s.ReadRef("refs/heads/main")
	if err != nil || !ok {
		t.Fatalf("ReadRef() = (%s, %v, %v), want ok=true", h, ok, err)
	}
	if h != testHash {
		t.Errorf("ReadRef() = %s, want %s", h, testHash)
	}
}

func TestReadRefMissingReturnsNotOK(t *testing.T) {
	s := newTestStore(t)

	_, ok, err := s.ReadRef("refs/heads/nope")
	if err != nil {
		t.Fatalf("ReadRef() on a missing ref errored: %v", err)
	}
	if ok {
		t.Error("ReadRef() on a missing ref returned ok=true")
	}
}

func TestSymbolicHeadResolvesThroughBranch(t *testing.T) {
	s := newTestStore(t)

	if err := s.WriteRef(BranchRef("main"), testHash); err != nil {
		t.Fatal(err)
	}
	if err := s.SetHeadSymbolic(BranchRef("main")); err != nil {
		t.Fatalf("SetHeadSymbolic() error: %v", err)
	}

	hs, err := s.ReadHead()
	if err != nil {
		t.Fatalf("ReadHead() error: %v", err)
	}
	if hs.Kind != HeadSymbolic || hs.Ref != BranchRef("main") || hs.Resolved != testHash {
		t.Errorf("ReadHead() = %+v, want symbolic HEAD at %s resolving to %s", hs, BranchRef("main"), testHash)
	}
}

func TestSymbolicHeadOnUnbornBranchResolvesToZero(t *testing.T) {
	s := newTestStore(t)

	if err := s.SetHeadSymbolic(BranchRef("main")); err != nil {
		t.Fatal(err)
	}

	hs, err := s.ReadHead()
	if err != nil {
		t.Fatalf("ReadHead() on an unborn branch errored: %v", err)
	}
	if !hs.Resolved.IsZero() {
		t.Errorf("ReadHead() on an unborn branch resolved to %s, want ZeroHash", hs.Resolved)
	}
}

func TestDetachedHead(t *testing.T) {
	s := newTestStore(t)

	if err := s.SetHeadDirect(testHash); err != nil {
		t.Fatalf("SetHeadDirect() error: %v", err)
	}
	hs, err := s.ReadHead()
	if err != nil {
		t.Fatal(err)
	}
	if hs.Kind != HeadDirect || hs.Resolved != testHash {
		t.Errorf("ReadHead() = %+v, want direct HEAD at %s", hs, testHash)
	}
}

func TestReadHeadMissingIsInvalidHead(t *testing.T) {
	s := newTestStore(t)

	_, err := s.ReadHead()
	if err == nil {
		t.Fatal("ReadHead() with no HEAD file succeeded, want an error")
	}
	if !errors.Is(err, dgerrors.ErrInvalidHead) {
		t.Errorf("ReadHead() error = %v, want ErrInvalidHead", err)
	}
}

func TestDeleteRefReportsExistence(t *testing.T) {
	s := newTestStore(t)

	ok, err := s.DeleteRef("refs/heads/nonexistent")
	if err != nil || ok {
		t.Fatalf("DeleteRef(nonexistent) = (%v, %v), want (false, nil)", ok, err)
	}

	if err := s.WriteRef("refs/heads/main", testHash); err != nil {
		t.Fatal(err)
	}
	ok, err = s.DeleteRef("refs/heads/main")
	if err != nil || !ok {
		t.Fatalf("DeleteRef(main) = (%v, %v), want (true, nil)", ok, err)
	}
}

func TestResolveCyclicSymbolicRefIsInvalidHead(t *testing.T) {
	s := newTestStore(t)

	if err := atomicWriteString(s.refPath(BranchRef("a")), "ref: "+BranchRef("b")+"\n"); err != nil {
		t.Fatal(err)
	}
	if err := atomicWriteString(s.refPath(BranchRef("b")), "ref: "+BranchRef("a")+"\n"); err != nil {
		t.Fatal(err)
	}

	_, _, err := s.Resolve(BranchRef("a"))
	if err == nil {
		t.Fatal("Resolve() on a cyclic symbolic chain succeeded, want a depth-exceeded error")
	}
	if !errors.Is(err, dgerrors.ErrInvalidHead) {
		t.Errorf("Resolve() error = %v, want ErrInvalidHead", err)
	}
}

func TestNamesListsSortedShortNames(t *testing.T) {
	s := newTestStore(t)

	for _, name := range []string{"main", "feature", "alpha"} {
		if err := s.WriteRef(BranchRef(name), testHash); err != nil {
			t.Fatal(err)
		}
	}

	names, err := s.Names("heads")
	if err != nil {
		t.Fatalf("Names() error: %v", err)
	}
	want := []string{"alpha", "feature", "main"}
	if len(names) != len(want) {
		t.Fatalf("Names() = %v, want %v", names, want)
	}
	for i, n := range want {
		if names[i] != n {
			t.Errorf("Names()[%d] = %q, want %q", i, names[i], n)
		}
	}
}
