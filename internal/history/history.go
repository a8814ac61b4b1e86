// Package history walks commit ancestry for log output and tree diffing.
// Ordering follows a first-parent chain, a narrower walk than gitvista's
// CommitLog (which floods all parents through a commitHeap to surface
// every reachable commit); dotgit's default log reports one line of
// descent, and the merge engine (internal/merge) is what explores full
// ancestry when it needs to.
package history

import (
	"github.com/dotgit-vcs/dotgit/internal/objects"
)

// DefaultMaxDepth bounds a history walk absent an explicit override.
const DefaultMaxDepth = 100

// CommitGetter resolves a hash to its commit record.
type CommitGetter func(h objects.Hash) (objects.Commit, error)

// Entry pairs a commit with its hash, since objects.Commit doesn't carry
// its own identity.
type Entry struct {
	Hash   objects.Hash
	Commit objects.Commit
}

// Walk returns commits from start back through first-parent ancestry,
// newest first, bounded by maxDepth (DefaultMaxDepth if <= 0) or the root
// commit, whichever comes first.
func Walk(get CommitGetter, start objects.Hash, maxDepth int) ([]Entry, error) {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}

	var out []Entry
	current := start
	for i := 0; i < maxDepth && !current.IsZero(); i++ {
		c, err := get(current)
		if err != nil {
			return nil, err
		}
		out = append(out, Entry{Hash: current, Commit: c})

		if len(c.Parents) == 0 {
			break
		}
		current = c.Parents[0]
	}
	return out, nil
}

// TreeChange is one path that differs between two trees, as reported by
// DiffTrees: added, modified, or deleted by blob-hash inequality.
type TreeChange struct {
	Path   string
	Status string // "added", "modified", "deleted"
	Old    objects.Hash
	New    objects.Hash
}

// DiffTrees compares old against newt; old may be the zero Tree for a root
// commit.
func DiffTrees(old, newt objects.Tree) []TreeChange {
	oldByPath := map[string]objects.TreeEntry{}
	for _, e := range old.Entries {
		oldByPath[e.Path] = e
	}
	newByPath := map[string]objects.TreeEntry{}
	for _, e := range newt.Entries {
		newByPath[e.Path] = e
	}

	seen := map[string]bool{}
	var changes []TreeChange

	for path, oldEntry := range oldByPath {
		seen[path] = true
		newEntry, inNew := newByPath[path]
		switch {
		case !inNew:
			changes = append(changes, TreeChange{Path: path, Status: "deleted", Old: oldEntry.Hash})
		case oldEntry.Hash != newEntry.Hash:
			changes = append(changes, TreeChange{Path: path, Status: "modified", Old: oldEntry.Hash, New: newEntry.Hash})
		}
	}
	for path, newEntry := range newByPath {
		if seen[path] {
			continue
		}
		changes = append(changes, TreeChange{Path: path, Status: "added", New: newEntry.Hash})
	}

	return changes
}
