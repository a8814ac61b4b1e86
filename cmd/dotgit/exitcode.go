package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/dotgit-vcs/dotgit/internal/dgerrors"
)

// exitCode maps a dotgit error to a stable process exit code, grounded on
// gitvista's gitcli convention of exiting 128 for repository-level fatal
// errors.
func exitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, dgerrors.ErrRepositoryNotFound):
		return 128
	case errors.Is(err, dgerrors.ErrRepositoryExists):
		return 129
	case errors.Is(err, dgerrors.ErrInvalidHead):
		return 130
	case errors.Is(err, dgerrors.ErrCorruptIndex):
		return 131
	case errors.Is(err, dgerrors.ErrLockTimeout):
		return 132
	case errors.Is(err, dgerrors.ErrDirtyWorkspace):
		return 133
	}

	var mergeConflict *dgerrors.MergeConflict
	var branchInUse *dgerrors.BranchInUse
	var branchNotMerged *dgerrors.BranchNotMerged
	var invalidArg *dgerrors.InvalidArgument
	switch {
	case errors.As(err, &mergeConflict):
		return 1
	case errors.As(err, &branchInUse):
		return 134
	case errors.As(err, &branchNotMerged):
		return 135
	case errors.As(err, &invalidArg):
		return 2
	}

	return 1
}

// fatal prints err to stderr and exits with the code it maps to.
func fatal(err error) {
	fmt.Fprintf(os.Stderr, "dotgit: %v\n", err)
	os.Exit(exitCode(err))
}
