package history

import (
	"testing"

	"github.com/dotgit-vcs/dotgit/internal/objects"
)

func TestWalkFollowsFirstParentOnly(t *testing.T) {
	commits := map[objects.Hash]objects.Commit{
		"c3":   {Message: "third", Parents: []objects.Hash{"c2", "side"}},
		"side": {Message: "side branch", Parents: []objects.Hash{"c1"}},
		"c2":   {Message: "second", Parents: []objects.Hash{"c1"}},
		"c1":   {Message: "first"},
	}
	get := func(h objects.Hash) (objects.Commit, error) { return commits[h], nil }

	entries, err := Walk(get, "c3", 0)
	if err != nil {
		t.Fatalf("Walk() error: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("Walk() = %d entries, want 3", len(entries))
	}
	if entries[0].Hash != "c3" || entries[2].Hash != "c1" {
		t.Errorf("Walk() order = %+v, want newest first ending at c1", entries)
	}
}

func TestWalkRespectsMaxDepth(t *testing.T) {
	commits := map[objects.Hash]objects.Commit{
		"c3": {Parents: []objects.Hash{"c2"}},
		"c2": {Parents: []objects.Hash{"c1"}},
		"c1": {},
	}
	get := func(h objects.Hash) (objects.Commit, error) { return commits[h], nil }

	entries, err := Walk(get, "c3", 2)
	if err != nil {
		t.Fatalf("Walk() error: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("Walk() with maxDepth=2 = %d entries, want 2", len(entries))
	}
}

func TestDiffTreesClassifiesChanges(t *testing.T) {
	old := objects.Tree{Entries: []objects.TreeEntry{
		{Path: "a.txt", Hash: "aaa"},
		{Path: "b.txt", Hash: "bbb"},
	}}
	newt := objects.Tree{Entries: []objects.TreeEntry{
		{Path: "a.txt", Hash: "aaa"},
		{Path: "b.txt", Hash: "bbb2"},
		{Path: "c.txt", Hash: "ccc"},
	}}

	changes := DiffTrees(old, newt)

	byPath := map[string]TreeChange{}
	for _, c := range changes {
		byPath[c.Path] = c
	}

	if len(changes) != 2 {
		t.Fatalf("DiffTrees() = %+v, want 2 changes", changes)
	}
	if byPath["b.txt"].Status != "modified" {
		t.Errorf("DiffTrees() b.txt status = %q, want modified", byPath["b.txt"].Status)
	}
	if byPath["c.txt"].Status != "added" {
		t.Errorf("DiffTrees() c.txt status = %q, want added", byPath["c.txt"].Status)
	}
}

func TestDiffTreesDetectsDeletion(t *testing.T) {
	old := objects.Tree{Entries: []objects.TreeEntry{{Path: "gone.txt", Hash: "ggg"}}}
	changes := DiffTrees(old, objects.Tree{})

	if len(changes) != 1 || changes[0].Status != "deleted" || changes[0].Path != "gone.txt" {
		t.Errorf("DiffTrees() = %+v, want a single deletion of gone.txt", changes)
	}
}
