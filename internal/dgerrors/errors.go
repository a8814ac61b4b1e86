// Package dgerrors defines the stable error taxonomy shared by every dotgit
// component, so callers can branch on error kind with errors.Is/errors.As
// instead of matching message strings.
package dgerrors

import (
	"errors"
	"fmt"
)

// Sentinel errors with no associated data. Wrap with fmt.Errorf("...: %w")
// to add context; errors.Is still matches through the wrap.
var (
	ErrRepositoryNotFound = errors.New("repository not found")
	ErrRepositoryExists   = errors.New("repository already exists")
	ErrInvalidHead        = errors.New("invalid HEAD")
	ErrCorruptIndex       = errors.New("corrupt index")
	ErrLockTimeout        = errors.New("index lock timeout")
	ErrDirtyWorkspace     = errors.New("uncommitted changes would be lost")
)

// ObjectMissing reports a hash absent from the object store.
type ObjectMissing struct{ Hash string }

func (e *ObjectMissing) Error() string { return fmt.Sprintf("object missing: %s", e.Hash) }

// CorruptObject reports an object whose recomputed hash didn't match its name.
type CorruptObject struct{ Hash string }

func (e *CorruptObject) Error() string { return fmt.Sprintf("corrupt object: %s", e.Hash) }

// CommitMissing reports a commit hash absent from the object store.
type CommitMissing struct{ Hash string }

func (e *CommitMissing) Error() string { return fmt.Sprintf("commit missing: %s", e.Hash) }

// RefExists reports an attempt to create a reference that already exists.
type RefExists struct{ Name string }

func (e *RefExists) Error() string { return fmt.Sprintf("reference already exists: %s", e.Name) }

// RefMissing reports an attempt to operate on a reference that doesn't exist.
type RefMissing struct{ Name string }

func (e *RefMissing) Error() string { return fmt.Sprintf("reference not found: %s", e.Name) }

// BranchInUse reports an attempt to delete the currently checked-out branch.
type BranchInUse struct{ Name string }

func (e *BranchInUse) Error() string {
	return fmt.Sprintf("branch %q is currently checked out", e.Name)
}

// BranchNotMerged reports a safety refusal to delete an unmerged branch.
type BranchNotMerged struct{ Name string }

func (e *BranchNotMerged) Error() string {
	return fmt.Sprintf("branch %q is not fully merged; use force to delete anyway", e.Name)
}

// MergeConflict reports paths that collided during a three-way merge.
type MergeConflict struct{ Paths []string }

func (e *MergeConflict) Error() string {
	return fmt.Sprintf("merge conflict in %d path(s): %v", len(e.Paths), e.Paths)
}

// StorageError wraps an underlying I/O failure from the object, ref, config,
// or index stores.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string { return fmt.Sprintf("storage error during %s: %v", e.Op, e.Err) }
func (e *StorageError) Unwrap() error { return e.Err }

// InvalidArgument reports a rejected user input.
type InvalidArgument struct{ Detail string }

func (e *InvalidArgument) Error() string { return fmt.Sprintf("invalid argument: %s", e.Detail) }
