package status

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dotgit-vcs/dotgit/internal/index"
	"github.com/dotgit-vcs/dotgit/internal/objects"
)

func newIndexWithEntry(t *testing.T, workDir, path, content string) *index.Index {
	t.Helper()
	controlDir := t.TempDir()
	store, err := objects.NewStore(filepath.Join(controlDir, "objects"), objects.DefaultFormat, nil)
	if err != nil {
		t.Fatal(err)
	}
	idx := index.Open(controlDir, store, nil)
	if err := idx.Load(); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(workDir, path), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := idx.Stage(workDir, path); err != nil {
		t.Fatal(err)
	}
	return idx
}

func TestComputeCleanReportWhenNothingChanged(t *testing.T) {
	workDir := t.TempDir()
	idx := newIndexWithEntry(t, workDir, "a.txt", "hello")

	headTree := objects.Tree{Entries: []objects.TreeEntry{
		{Path: "a.txt", Hash: idx.Entries()["a.txt"].Hash, Mode: objects.ModeRegular},
	}}

	report, err := Compute("main", false, headTree, idx, workDir, nil, nil, false)
	if err != nil {
		t.Fatalf("Compute() error: %v", err)
	}
	if !report.Clean() {
		t.Errorf("Compute() = %+v, want Clean() == true", report)
	}
}

func TestComputeReportsStagedNewFile(t *testing.T) {
	workDir := t.TempDir()
	idx := newIndexWithEntry(t, workDir, "a.txt", "hello")

	report, err := Compute("main", false, objects.Tree{}, idx, workDir, nil, nil, false)
	if err != nil {
		t.Fatalf("Compute() error: %v", err)
	}
	if len(report.StagedNew) != 1 || report.StagedNew[0] != "a.txt" {
		t.Errorf("Compute() StagedNew = %v, want [a.txt]", report.StagedNew)
	}
}

func TestComputeReportsConflictsAndMergingFlag(t *testing.T) {
	workDir := t.TempDir()
	idx := newIndexWithEntry(t, workDir, "a.txt", "hello")

	report, err := Compute("main", false, objects.Tree{}, idx, workDir, nil, []string{"a.txt"}, true)
	if err != nil {
		t.Fatalf("Compute() error: %v", err)
	}
	if !report.Merging {
		t.Error("Compute() Merging = false, want true")
	}
	if len(report.Conflicts) != 1 || report.Conflicts[0] != "a.txt" {
		t.Errorf("Compute() Conflicts = %v, want [a.txt]", report.Conflicts)
	}
}

func TestFormatTextCleanTree(t *testing.T) {
	text := FormatText(Report{Branch: "main"})
	if !strings.Contains(text, "On branch main") {
		t.Errorf("FormatText() = %q, want branch header", text)
	}
	if !strings.Contains(text, "nothing to commit") {
		t.Errorf("FormatText() = %q, want a clean-tree message", text)
	}
}

func TestFormatTextDetachedHead(t *testing.T) {
	text := FormatText(Report{Detached: true})
	if !strings.Contains(text, "HEAD detached") {
		t.Errorf("FormatText() = %q, want a detached-HEAD header", text)
	}
}

func TestFormatTextListsUnmergedPaths(t *testing.T) {
	text := FormatText(Report{Branch: "main", Merging: true, Conflicts: []string{"a.txt"}})
	if !strings.Contains(text, "unmerged paths") && !strings.Contains(text, "Unmerged paths") {
		t.Errorf("FormatText() = %q, want an unmerged-paths section", text)
	}
	if !strings.Contains(text, "a.txt") {
		t.Errorf("FormatText() = %q, want the conflicted path listed", text)
	}
}
