package repo

import (
	"time"

	"github.com/dotgit-vcs/dotgit/internal/dgerrors"
	"github.com/dotgit-vcs/dotgit/internal/merge"
	"github.com/dotgit-vcs/dotgit/internal/objects"
	"github.com/dotgit-vcs/dotgit/internal/refstore"
)

// MergeResult reports what Merge actually did.
type MergeResult struct {
	FastForward bool
	NoOp        bool
	Commit      objects.Hash
	Conflicts   []string
}

// Merge combines sourceBranch into the current branch.
// A no-op merge (source already reachable from HEAD) and a fast-forward
// merge (HEAD is an ancestor of source) both avoid creating a merge
// commit. A conflicting merge persists MERGE_HEAD and returns its paths
// without advancing any reference.
func (r *Repo) Merge(sourceBranch string, resolution merge.Resolution) (MergeResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	src, ok, err := r.refs.ReadRef(refstore.BranchRef(sourceBranch))
	if err != nil {
		return MergeResult{}, err
	}
	if !ok {
		return MergeResult{}, &dgerrors.RefMissing{Name: sourceBranch}
	}

	tgt, err := r.headCommit()
	if err != nil {
		return MergeResult{}, err
	}

	if src == tgt {
		return MergeResult{NoOp: true, Commit: tgt}, nil
	}

	sourceIsAncestor, err := r.isAncestorOf(src, tgt)
	if err != nil {
		return MergeResult{}, err
	}
	if sourceIsAncestor {
		return MergeResult{NoOp: true, Commit: tgt}, nil
	}

	targetIsAncestor, err := r.isAncestorOf(tgt, src)
	if err != nil {
		return MergeResult{}, err
	}
	if targetIsAncestor {
		if err := r.advanceHead(src); err != nil {
			return MergeResult{}, err
		}
		if err := r.checkoutTreeInPlace(src); err != nil {
			return MergeResult{}, err
		}
		return MergeResult{FastForward: true, Commit: src}, nil
	}

	baseHash, _, err := merge.Base(r.commitLookup, tgt, src)
	if err != nil {
		return MergeResult{}, err
	}

	baseTree, err := r.treeOf(baseHash)
	if err != nil {
		return MergeResult{}, err
	}
	oursTree, err := r.treeOf(tgt)
	if err != nil {
		return MergeResult{}, err
	}
	theirsTree, err := r.treeOf(src)
	if err != nil {
		return MergeResult{}, err
	}

	mergedTree, conflicts, mergeErr := merge.Merge(baseTree, oursTree, theirsTree, sourceBranch, resolution, r.objects.GetBlob, r.objects.PutBlob)
	if mergeErr != nil {
		if len(conflicts) > 0 {
			if err := r.setMergeHead(src); err != nil {
				return MergeResult{}, err
			}
			if err := r.materializeConflicted(mergedTree); err != nil {
				return MergeResult{}, err
			}
			return MergeResult{Conflicts: conflicts}, mergeErr
		}
		return MergeResult{}, mergeErr
	}

	treeHash, err := r.objects.PutTree(mergedTree)
	if err != nil {
		return MergeResult{}, err
	}

	author := objects.Signature{Name: r.cfg.AuthorName(), Email: r.cfg.AuthorEmail(), When: time.Now()}
	commit := objects.Commit{
		Tree:      treeHash,
		Parents:   []objects.Hash{tgt, src},
		Message:   "Merge branch '" + sourceBranch + "'",
		Author:    author,
		Committer: author,
	}
	h, err := r.objects.PutCommit(commit)
	if err != nil {
		return MergeResult{}, err
	}
	if err := r.advanceHead(h); err != nil {
		return MergeResult{}, err
	}
	if err := r.checkoutTreeInPlace(h); err != nil {
		return MergeResult{}, err
	}

	return MergeResult{Commit: h}, nil
}

// commitLookup adapts the object store to merge.CommitLookup.
func (r *Repo) commitLookup(h objects.Hash) ([]objects.Hash, int64, error) {
	c, err := r.objects.GetCommit(h)
	if err != nil {
		return nil, 0, err
	}
	return c.Parents, c.Author.When.Unix(), nil
}

func (r *Repo) treeOf(h objects.Hash) (objects.Tree, error) {
	if h.IsZero() {
		return objects.Tree{}, nil
	}
	c, err := r.objects.GetCommit(h)
	if err != nil {
		return objects.Tree{}, err
	}
	return r.objects.GetTree(c.Tree)
}

// isAncestorOf reports whether ancestor is reachable from descendant via
// first-parent ancestry. Used for the fast-forward/no-op short circuits
// in Merge; full ancestor search (all parents) is merge.Base's job.
func (r *Repo) isAncestorOf(ancestor, descendant objects.Hash) (bool, error) {
	if ancestor.IsZero() {
		return true, nil
	}
	current := descendant
	for !current.IsZero() {
		if current == ancestor {
			return true, nil
		}
		c, err := r.objects.GetCommit(current)
		if err != nil {
			return false, err
		}
		if len(c.Parents) == 0 {
			return false, nil
		}
		current = c.Parents[0]
	}
	return false, nil
}

// checkoutTreeInPlace rewrites the workspace and index to match commit h's
// tree, without moving HEAD (the caller has already advanced it).
func (r *Repo) checkoutTreeInPlace(h objects.Hash) error {
	currentTree := r.indexAsTree()
	targetTree, err := r.treeOf(h)
	if err != nil {
		return err
	}
	if err := r.materialize(currentTree, targetTree); err != nil {
		return err
	}
	if err := r.idx.Clear(); err != nil {
		return err
	}
	for _, e := range targetTree.Entries {
		if err := r.idx.Stage(r.workDir, e.Path); err != nil {
			return err
		}
	}
	return nil
}

// indexAsTree is a best-effort snapshot of the workspace's prior tree
// shape, used only to know which paths to delete during an in-place
// checkout; the index (already at the pre-merge tree) stands in for it.
func (r *Repo) indexAsTree() objects.Tree {
	entries := r.idx.Entries()
	tree := objects.Tree{Entries: make([]objects.TreeEntry, 0, len(entries))}
	for path, e := range entries {
		tree.Entries = append(tree.Entries, objects.TreeEntry{Path: path, Hash: e.Hash, Mode: e.Mode})
	}
	return tree
}

// materializeConflicted writes every path in a tree produced by a
// conflicted merge into the workspace, including paths holding textual
// conflict markers, without touching the index (the merge has failed and
// MERGE_HEAD now records the pending state).
func (r *Repo) materializeConflicted(tree objects.Tree) error {
	current, err := r.headTree()
	if err != nil {
		return err
	}
	return r.materialize(current, tree)
}
