package index

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/dotgit-vcs/dotgit/internal/objects"
)

func newTestIndex(t *testing.T) (*Index, string) {
	t.Helper()
	controlDir := t.TempDir()
	workDir := t.TempDir()

	store, err := objects.NewStore(filepath.Join(controlDir, "objects"), objects.DefaultFormat, nil)
	if err != nil {
		t.Fatal(err)
	}
	idx := Open(controlDir, store, nil)
	if err := idx.Load(); err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	return idx, workDir
}

func TestStageAndEntries(t *testing.T) {
	idx, workDir := newTestIndex(t)

	if err := os.WriteFile(filepath.Join(workDir, "a.txt"), []byte("hello"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := idx.Stage(workDir, "a.txt"); err != nil {
		t.Fatalf("Stage() error: %v", err)
	}

	entries := idx.Entries()
	e, ok := entries["a.txt"]
	if !ok {
		t.Fatal("Entries() missing staged path a.txt")
	}
	if !e.Staged {
		t.Error("staged entry's Staged flag = false")
	}
}

func TestUnstageReportsExistence(t *testing.T) {
	idx, workDir := newTestIndex(t)

	if err := os.WriteFile(filepath.Join(workDir, "a.txt"), []byte("hello"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := idx.Stage(workDir, "a.txt"); err != nil {
		t.Fatal(err)
	}

	existed, err := idx.Unstage("a.txt")
	if err != nil || !existed {
		t.Fatalf("Unstage(a.txt) = (%v, %v), want (true, nil)", existed, err)
	}

	existed, err = idx.Unstage("a.txt")
	if err != nil || existed {
		t.Fatalf("Unstage(a.txt) second time = (%v, %v), want (false, nil)", existed, err)
	}
}

func TestSavePersistsAcrossReload(t *testing.T) {
	controlDir := t.TempDir()
	workDir := t.TempDir()
	store, err := objects.NewStore(filepath.Join(controlDir, "objects"), objects.DefaultFormat, nil)
	if err != nil {
		t.Fatal(err)
	}

	idx1 := Open(controlDir, store, nil)
	if err := idx1.Load(); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(workDir, "a.txt"), []byte("hello"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := idx1.Stage(workDir, "a.txt"); err != nil {
		t.Fatal(err)
	}

	idx2 := Open(controlDir, store, nil)
	if err := idx2.Load(); err != nil {
		t.Fatalf("Load() (reload) error: %v", err)
	}
	if _, ok := idx2.Entries()["a.txt"]; !ok {
		t.Error("reloaded index missing a.txt")
	}
}

func TestComputeClassifiesChanges(t *testing.T) {
	idx, workDir := newTestIndex(t)

	if err := os.WriteFile(filepath.Join(workDir, "staged.txt"), []byte("one"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := idx.Stage(workDir, "staged.txt"); err != nil {
		t.Fatal(err)
	}

	// Modify after staging, without re-staging.
	if err := os.WriteFile(filepath.Join(workDir, "staged.txt"), []byte("changed"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(workDir, "untracked.txt"), []byte("new"), 0o644); err != nil {
		t.Fatal(err)
	}

	changes, err := idx.Compute(workDir, nil)
	if err != nil {
		t.Fatalf("Compute() error: %v", err)
	}

	foundUntracked := false
	for _, p := range changes.Untracked {
		if p == "untracked.txt" {
			foundUntracked = true
		}
	}
	if !foundUntracked {
		t.Errorf("Compute() Untracked = %v, want untracked.txt", changes.Untracked)
	}
}

func TestComputeDetectsDeleted(t *testing.T) {
	idx, workDir := newTestIndex(t)

	if err := os.WriteFile(filepath.Join(workDir, "gone.txt"), []byte("one"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := idx.Stage(workDir, "gone.txt"); err != nil {
		t.Fatal(err)
	}
	if err := os.Remove(filepath.Join(workDir, "gone.txt")); err != nil {
		t.Fatal(err)
	}

	changes, err := idx.Compute(workDir, nil)
	if err != nil {
		t.Fatalf("Compute() error: %v", err)
	}
	if len(changes.Deleted) != 1 || changes.Deleted[0] != "gone.txt" {
		t.Errorf("Compute() Deleted = %v, want [gone.txt]", changes.Deleted)
	}
}

func TestWriteTreeIsOrderIndependent(t *testing.T) {
	idx, workDir := newTestIndex(t)

	for _, name := range []string{"z.txt", "a.txt"} {
		if err := os.WriteFile(filepath.Join(workDir, name), []byte(name), 0o644); err != nil {
			t.Fatal(err)
		}
		if err := idx.Stage(workDir, name); err != nil {
			t.Fatal(err)
		}
	}

	h1, err := idx.WriteTree()
	if err != nil {
		t.Fatalf("WriteTree() error: %v", err)
	}
	h2, err := idx.WriteTree()
	if err != nil {
		t.Fatal(err)
	}
	if h1 != h2 {
		t.Errorf("WriteTree() not deterministic: %s != %s", h1, h2)
	}
}
