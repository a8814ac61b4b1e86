package merge

import (
	"strings"
	"testing"

	"github.com/dotgit-vcs/dotgit/internal/objects"
)

func TestBaseSameCommit(t *testing.T) {
	h, ok, err := Base(nil, "abc", "abc")
	if err != nil || !ok || h != "abc" {
		t.Fatalf("Base(same, same) = (%s, %v, %v), want (abc, true, nil)", h, ok, err)
	}
}

func TestBaseFindsCommonAncestor(t *testing.T) {
	// root <- a <- ours
	//      <- b <- theirs
	graph := map[objects.Hash]struct {
		parents []objects.Hash
		when    int64
	}{
		"root":   {nil, 0},
		"a":      {[]objects.Hash{"root"}, 1},
		"b":      {[]objects.Hash{"root"}, 1},
		"ours":   {[]objects.Hash{"a"}, 2},
		"theirs": {[]objects.Hash{"b"}, 2},
	}
	lookup := func(h objects.Hash) ([]objects.Hash, int64, error) {
		n := graph[h]
		return n.parents, n.when, nil
	}

	base, ok, err := Base(lookup, "ours", "theirs")
	if err != nil {
		t.Fatalf("Base() error: %v", err)
	}
	if !ok || base != "root" {
		t.Errorf("Base() = (%s, %v), want (root, true)", base, ok)
	}
}

func TestBaseOrphanMerge(t *testing.T) {
	graph := map[objects.Hash]struct {
		parents []objects.Hash
		when    int64
	}{
		"ours":   {nil, 0},
		"theirs": {nil, 0},
	}
	lookup := func(h objects.Hash) ([]objects.Hash, int64, error) {
		n := graph[h]
		return n.parents, n.when, nil
	}

	_, ok, err := Base(lookup, "ours", "theirs")
	if err != nil {
		t.Fatalf("Base() error: %v", err)
	}
	if ok {
		t.Error("Base() on an orphan merge reported ok=true")
	}
}

func blobStore() (func(objects.Hash) ([]byte, error), func([]byte) (objects.Hash, error)) {
	blobs := map[objects.Hash][]byte{}
	counter := 0
	put := func(content []byte) (objects.Hash, error) {
		counter++
		h := objects.Hash(string(rune('a' + counter)))
		blobs[h] = content
		return h, nil
	}
	get := func(h objects.Hash) ([]byte, error) { return blobs[h], nil }
	return get, put
}

func TestMergeNonConflictingChanges(t *testing.T) {
	get, put := blobStore()
	baseHash, _ := put([]byte("base content"))
	oursHash, _ := put([]byte("ours change"))

	base := objects.Tree{Entries: []objects.TreeEntry{{Path: "a.txt", Hash: baseHash}}}
	ours := objects.Tree{Entries: []objects.TreeEntry{{Path: "a.txt", Hash: oursHash}}}
	theirs := objects.Tree{Entries: []objects.TreeEntry{{Path: "a.txt", Hash: baseHash}}}

	merged, conflicts, err := Merge(base, ours, theirs, "feature", ResolveMarkers, get, put)
	if err != nil {
		t.Fatalf("Merge() error: %v", err)
	}
	if len(conflicts) != 0 {
		t.Fatalf("Merge() conflicts = %v, want none", conflicts)
	}
	if len(merged.Entries) != 1 || merged.Entries[0].Hash != oursHash {
		t.Errorf("Merge() = %+v, want a.txt at ours' hash", merged.Entries)
	}
}

func TestMergeConflictingChangesProducesMarkers(t *testing.T) {
	get, put := blobStore()
	baseHash, _ := put([]byte("base\n"))
	oursHash, _ := put([]byte("ours\n"))
	theirsHash, _ := put([]byte("theirs\n"))

	base := objects.Tree{Entries: []objects.TreeEntry{{Path: "a.txt", Hash: baseHash}}}
	ours := objects.Tree{Entries: []objects.TreeEntry{{Path: "a.txt", Hash: oursHash}}}
	theirs := objects.Tree{Entries: []objects.TreeEntry{{Path: "a.txt", Hash: theirsHash}}}

	merged, conflicts, err := Merge(base, ours, theirs, "feature", ResolveMarkers, get, put)
	if err == nil {
		t.Fatal("Merge() with a real conflict succeeded, want an error")
	}
	if len(conflicts) != 1 || conflicts[0] != "a.txt" {
		t.Fatalf("Merge() conflicts = %v, want [a.txt]", conflicts)
	}

	if len(merged.Entries) != 1 {
		t.Fatalf("Merge() = %+v, want one conflicted entry", merged.Entries)
	}
	content, _ := get(merged.Entries[0].Hash)
	for _, marker := range []string{"<<<<<<<", "=======", ">>>>>>>"} {
		if !strings.Contains(string(content), marker) {
			t.Errorf("conflicted blob = %q, want marker %q", content, marker)
		}
	}
}

func TestMergeResolveOursTakesOursSide(t *testing.T) {
	get, put := blobStore()
	baseHash, _ := put([]byte("base\n"))
	oursHash, _ := put([]byte("ours\n"))
	theirsHash, _ := put([]byte("theirs\n"))

	base := objects.Tree{Entries: []objects.TreeEntry{{Path: "a.txt", Hash: baseHash}}}
	ours := objects.Tree{Entries: []objects.TreeEntry{{Path: "a.txt", Hash: oursHash}}}
	theirs := objects.Tree{Entries: []objects.TreeEntry{{Path: "a.txt", Hash: theirsHash}}}

	merged, conflicts, err := Merge(base, ours, theirs, "feature", ResolveOurs, get, put)
	if err != nil {
		t.Fatalf("Merge(ResolveOurs) error: %v", err)
	}
	if len(conflicts) != 0 {
		t.Errorf("Merge(ResolveOurs) conflicts = %v, want none", conflicts)
	}
	if merged.Entries[0].Hash != oursHash {
		t.Errorf("Merge(ResolveOurs) = %s, want ours hash %s", merged.Entries[0].Hash, oursHash)
	}
}

func TestMergeBothSidesConvergedIsNotAConflict(t *testing.T) {
	get, put := blobStore()
	baseHash, _ := put([]byte("base\n"))
	sameHash, _ := put([]byte("same change\n"))

	base := objects.Tree{Entries: []objects.TreeEntry{{Path: "a.txt", Hash: baseHash}}}
	ours := objects.Tree{Entries: []objects.TreeEntry{{Path: "a.txt", Hash: sameHash}}}
	theirs := objects.Tree{Entries: []objects.TreeEntry{{Path: "a.txt", Hash: sameHash}}}

	_, conflicts, err := Merge(base, ours, theirs, "feature", ResolveMarkers, get, put)
	if err != nil {
		t.Fatalf("Merge() error: %v", err)
	}
	if len(conflicts) != 0 {
		t.Errorf("Merge() conflicts = %v, want none for converged sides", conflicts)
	}
}
