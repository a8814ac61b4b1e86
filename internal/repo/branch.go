package repo

import (
	"io/fs"
	"os"
	"path/filepath"

	"github.com/dotgit-vcs/dotgit/internal/dgerrors"
	"github.com/dotgit-vcs/dotgit/internal/objects"
	"github.com/dotgit-vcs/dotgit/internal/refstore"
)

// CreateBranch creates a new branch naming HEAD's current commit, failing
// with RefExists if the name is already taken.
func (r *Repo) CreateBranch(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	ref := refstore.BranchRef(name)
	if _, ok, err := r.refs.ReadRef(ref); err != nil {
		return err
	} else if ok {
		return &dgerrors.RefExists{Name: name}
	}

	head, err := r.headCommit()
	if err != nil {
		return err
	}
	return r.refs.WriteRef(ref, head)
}

// Branches returns every local branch name, sorted.
func (r *Repo) Branches() ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.refs.Names("heads")
}

// DeleteBranch removes a branch, refusing to delete the currently checked
// out branch, and (absent force) refusing to delete a branch whose tip
// isn't reachable from HEAD.
func (r *Repo) DeleteBranch(name string, force bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, detached, err := r.currentBranch()
	if err != nil {
		return err
	}
	if !detached && current == name {
		return &dgerrors.BranchInUse{Name: name}
	}

	ref := refstore.BranchRef(name)
	target, ok, err := r.refs.ReadRef(ref)
	if err != nil {
		return err
	}
	if !ok {
		return &dgerrors.RefMissing{Name: name}
	}

	if !force {
		merged, err := r.isAncestorOfHead(target)
		if err != nil {
			return err
		}
		if !merged {
			return &dgerrors.BranchNotMerged{Name: name}
		}
	}

	_, err = r.refs.DeleteRef(ref)
	return err
}

// isAncestorOfHead reports whether target is reachable from HEAD via
// first-parent ancestry, used as the merged-ness check for branch deletion.
func (r *Repo) isAncestorOfHead(target objects.Hash) (bool, error) {
	head, err := r.headCommit()
	if err != nil {
		return false, err
	}
	if head.IsZero() {
		return target.IsZero(), nil
	}
	current := head
	for !current.IsZero() {
		if current == target {
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

// Checkout switches the workspace to ref (a branch name or a commit hash),
// refusing to proceed when uncommitted changes would be lost unless force
// is set.
func (r *Repo) Checkout(ref string, force bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	targetHash, isBranch, err := r.resolveCheckoutTarget(ref)
	if err != nil {
		return err
	}

	if !force {
		dirty, err := r.isDirty()
		if err != nil {
			return err
		}
		if dirty {
			return dgerrors.ErrDirtyWorkspace
		}
	}

	targetTree := objects.Tree{}
	if !targetHash.IsZero() {
		c, err := r.objects.GetCommit(targetHash)
		if err != nil {
			return err
		}
		targetTree, err = r.objects.GetTree(c.Tree)
		if err != nil {
			return err
		}
	}

	currentTree, err := r.headTree()
	if err != nil {
		return err
	}

	if err := r.materialize(currentTree, targetTree); err != nil {
		return err
	}

	// Re-stage the new tree's entries into the index: checkout sets the
	// index to exactly match the commit being checked out.
	if err := r.idx.Clear(); err != nil {
		return err
	}
	for _, e := range targetTree.Entries {
		if err := r.idx.Stage(r.workDir, e.Path); err != nil {
			return err
		}
	}

	if isBranch {
		if err := r.refs.SetHeadSymbolic(refstore.BranchRef(ref)); err != nil {
			return err
		}
	} else {
		if err := r.refs.SetHeadDirect(targetHash); err != nil {
			return err
		}
	}

	return nil
}

func (r *Repo) resolveCheckoutTarget(ref string) (hash objects.Hash, isBranch bool, err error) {
	branchHash, ok, err := r.refs.ReadRef(refstore.BranchRef(ref))
	if err != nil {
		return "", false, err
	}
	if ok {
		return branchHash, true, nil
	}

	h, perr := objects.ParseHash(r.objects.Format(), ref)
	if perr != nil {
		return "", false, &dgerrors.RefMissing{Name: ref}
	}
	if _, err := r.objects.GetCommit(h); err != nil {
		return "", false, err
	}
	return h, false, nil
}

// isDirty reports whether the workspace has any staged or unstaged change
// relative to the index, the guard Checkout uses before replacing the
// workspace. Reset does not consult it; ResetHard overwrites a dirty
// workspace.
func (r *Repo) isDirty() (bool, error) {
	changes, err := r.idx.Compute(r.workDir, r.ignoreMatcher().IsIgnored)
	if err != nil {
		return false, err
	}
	if len(changes.Modified) > 0 || len(changes.Deleted) > 0 || len(changes.Staged) > 0 {
		return true, nil
	}

	headTree, err := r.headTree()
	if err != nil {
		return false, err
	}
	headByPath := map[string]objects.TreeEntry{}
	for _, e := range headTree.Entries {
		headByPath[e.Path] = e
	}
	entries := r.idx.Entries()
	for path, entry := range entries {
		headEntry, ok := headByPath[path]
		if !ok || headEntry.Hash != entry.Hash {
			return true, nil
		}
	}
	for path := range headByPath {
		if _, staged := entries[path]; !staged {
			return true, nil
		}
	}
	return false, nil
}

// materialize rewrites the workspace from currentTree's shape to
// targetTree's: paths absent from targetTree are removed, paths present
// are written with their blob content.
func (r *Repo) materialize(currentTree, targetTree objects.Tree) error {
	targetByPath := map[string]objects.TreeEntry{}
	for _, e := range targetTree.Entries {
		targetByPath[e.Path] = e
	}

	for _, e := range currentTree.Entries {
		if _, keep := targetByPath[e.Path]; !keep {
			full := filepath.Join(r.workDir, e.Path)
			if err := os.Remove(full); err != nil && !os.IsNotExist(err) {
				return &dgerrors.StorageError{Op: "remove workspace file on checkout", Err: err}
			}
		}
	}

	for _, e := range targetTree.Entries {
		content, err := r.objects.GetBlob(e.Hash)
		if err != nil {
			return err
		}
		full := filepath.Join(r.workDir, e.Path)
		if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
			return &dgerrors.StorageError{Op: "mkdir checkout target", Err: err}
		}
		perm := fs.FileMode(0o644)
		if e.Mode == objects.ModeExecutable {
			perm = 0o755
		}
		if err := os.WriteFile(full, content, perm); err != nil {
			return &dgerrors.StorageError{Op: "write checkout target", Err: err}
		}
	}
	return nil
}
