package objects

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/dotgit-vcs/dotgit/internal/dgerrors"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(filepath.Join(t.TempDir(), "objects"), DefaultFormat, nil)
	if err != nil {
		t.Fatalf("NewStore() error: %v", err)
	}
	return s
}

func TestPutGetBlobRoundTrip(t *testing.T) {
	s := newTestStore(t)

	h, err := s.PutBlob([]byte("hello world"))
	if err != nil {
		t.Fatalf("PutBlob() error: %v", err)
	}
	if !s.Exists(h) {
		t.Fatal("Exists() = false after PutBlob")
	}

	got, err := s.GetBlob(h)
	if err != nil {
		t.Fatalf("GetBlob() error: %v", err)
	}
	if string(got) != "hello world" {
		t.Errorf("GetBlob() = %q, want %q", got, "hello world")
	}
}

func TestPutBlobIsIdempotent(t *testing.T) {
	s := newTestStore(t)

	h1, err := s.PutBlob([]byte("same content"))
	if err != nil {
		t.Fatal(err)
	}
	h2, err := s.PutBlob([]byte("same content"))
	if err != nil {
		t.Fatal(err)
	}
	if h1 != h2 {
		t.Errorf("PutBlob() on identical content gave different hashes: %s != %s", h1, h2)
	}
}

func TestHashBlobMatchesPutBlob(t *testing.T) {
	s := newTestStore(t)
	content := []byte("some file content")

	predicted := s.HashBlob(content)
	actual, err := s.PutBlob(content)
	if err != nil {
		t.Fatal(err)
	}
	if predicted != actual {
		t.Errorf("HashBlob() = %s, want %s (matching PutBlob)", predicted, actual)
	}
}

func TestGetBlobMissingObject(t *testing.T) {
	s := newTestStore(t)

	h, err := ParseHash(DefaultFormat, "00000000000000000000000000000000000000000000000000000000000000aa")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.GetBlob(h); err == nil {
		t.Fatal("GetBlob() on a missing hash succeeded, want an error")
	}
}

func TestTreeRoundTripIgnoresEntryOrder(t *testing.T) {
	s := newTestStore(t)

	a := Tree{Entries: []TreeEntry{
		{Path: "b.txt", Hash: "bbb", Mode: ModeRegular},
		{Path: "a.txt", Hash: "aaa", Mode: ModeRegular},
	}}
	b := Tree{Entries: []TreeEntry{
		{Path: "a.txt", Hash: "aaa", Mode: ModeRegular},
		{Path: "b.txt", Hash: "bbb", Mode: ModeRegular},
	}}

	ha, err := s.PutTree(a)
	if err != nil {
		t.Fatal(err)
	}
	hb, err := s.PutTree(b)
	if err != nil {
		t.Fatal(err)
	}
	if ha != hb {
		t.Errorf("PutTree() hash depends on entry order: %s != %s", ha, hb)
	}

	got, err := s.GetTree(ha)
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Entries) != 2 {
		t.Fatalf("GetTree() = %+v, want 2 entries", got)
	}
}

func TestCommitRoundTrip(t *testing.T) {
	s := newTestStore(t)

	treeHash, err := s.PutTree(Tree{})
	if err != nil {
		t.Fatal(err)
	}
	c := Commit{
		Tree:    treeHash,
		Message: "initial commit",
		Author:  Signature{Name: "Ada", Email: "ada@example.com", When: time.Now()},
	}
	h, err := s.PutCommit(c)
	if err != nil {
		t.Fatalf("PutCommit() error: %v", err)
	}

	got, err := s.GetCommit(h)
	if err != nil {
		t.Fatalf("GetCommit() error: %v", err)
	}
	if got.Message != c.Message || got.Tree != c.Tree {
		t.Errorf("GetCommit() = %+v, want message %q tree %s", got, c.Message, c.Tree)
	}
}

func TestGetCommitMissingReturnsCommitMissing(t *testing.T) {
	s := newTestStore(t)

	h, err := ParseHash(DefaultFormat, "11111111111111111111111111111111111111111111111111111111111111bb")
	if err != nil {
		t.Fatal(err)
	}
	_, err = s.GetCommit(h)
	if err == nil {
		t.Fatal("GetCommit() on a missing hash succeeded, want an error")
	}
	var missing *dgerrors.CommitMissing
	if !errors.As(err, &missing) {
		t.Errorf("GetCommit() error = %v, want *dgerrors.CommitMissing", err)
	}
}

func TestWalkVisitsEveryStoredObject(t *testing.T) {
	s := newTestStore(t)

	want := map[Hash]bool{}
	for _, content := range []string{"one", "two", "three"} {
		h, err := s.PutBlob([]byte(content))
		if err != nil {
			t.Fatal(err)
		}
		want[h] = true
	}

	got := map[Hash]bool{}
	if err := s.Walk(func(h Hash) error {
		got[h] = true
		return nil
	}); err != nil {
		t.Fatalf("Walk() error: %v", err)
	}

	if len(got) != len(want) {
		t.Fatalf("Walk() visited %d objects, want %d", len(got), len(want))
	}
	for h := range want {
		if !got[h] {
			t.Errorf("Walk() missed object %s", h)
		}
	}
}
