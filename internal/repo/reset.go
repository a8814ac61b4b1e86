package repo

import (
	"github.com/dotgit-vcs/dotgit/internal/objects"
)

// ResetMode selects how much of the workspace/index a reset touches:
// soft, mixed, or hard.
type ResetMode int

const (
	// ResetSoft moves HEAD only; index and workspace are untouched.
	ResetSoft ResetMode = iota
	// ResetMixed moves HEAD and resets the index to the target commit's
	// tree; the workspace is untouched.
	ResetMixed
	// ResetHard moves HEAD, the index, and the workspace to the target
	// commit's tree, discarding any uncommitted changes. This is the one
	// destructive reset mode; the caller invoking it has already accepted
	// the loss, so no DirtyWorkspace guard applies.
	ResetHard
)

// Reset moves the current branch (or HEAD directly, if detached) to
// target, applying mode's index/workspace semantics.
func (r *Repo) Reset(target objects.Hash, mode ResetMode) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, err := r.objects.GetCommit(target); err != nil {
		return err
	}

	if mode == ResetMixed || mode == ResetHard {
		targetTree, err := r.treeOf(target)
		if err != nil {
			return err
		}

		if mode == ResetHard {
			currentTree, err := r.headTree()
			if err != nil {
				return err
			}
			if err := r.materialize(currentTree, targetTree); err != nil {
				return err
			}
		}

		// Mixed and hard both leave the index matching the target tree;
		// hard has already made the workspace agree with it too, and
		// mixed records the target's blobs directly without requiring the
		// (deliberately untouched) workspace to match.
		if err := r.idx.SetFromTree(targetTree); err != nil {
			return err
		}
	}

	return r.advanceHead(target)
}
