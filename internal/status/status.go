// Package status composes the index's change detection with HEAD tree
// comparison and MERGE_HEAD state into staged/unstaged/untracked/conflict
// classifications, plus a human text formatter reproducing the canonical
// report layout. The classification walk is generalized from gitvista's
// hierarchical tree flattening to dotgit's already-flat Tree.
package status

import (
	"fmt"
	"sort"
	"strings"

	"github.com/dotgit-vcs/dotgit/internal/index"
	"github.com/dotgit-vcs/dotgit/internal/objects"
)

// Report is the full classification of every path that differs from a
// clean checkout.
type Report struct {
	Branch   string
	Detached bool
	Merging  bool

	StagedNew      []string
	StagedModified []string
	StagedDeleted  []string

	UnstagedModified []string
	UnstagedDeleted  []string

	Untracked []string
	Conflicts []string
}

// Clean reports whether nothing needs the user's attention.
func (r Report) Clean() bool {
	return len(r.StagedNew) == 0 && len(r.StagedModified) == 0 && len(r.StagedDeleted) == 0 &&
		len(r.UnstagedModified) == 0 && len(r.UnstagedDeleted) == 0 &&
		len(r.Untracked) == 0 && len(r.Conflicts) == 0
}

// Compute builds a Report from a HEAD tree (possibly empty, for an unborn
// branch), the loaded index, the workspace root, an ignore predicate, and
// the set of paths currently marked conflicted (non-empty only during a
// merge).
func Compute(branch string, detached bool, headTree objects.Tree, idx *index.Index, workspaceRoot string, isIgnored index.IsIgnoredFunc, conflictedPaths []string, merging bool) (Report, error) {
	report := Report{Branch: branch, Detached: detached, Merging: merging}

	headByPath := map[string]objects.TreeEntry{}
	for _, e := range headTree.Entries {
		headByPath[e.Path] = e
	}

	entries := idx.Entries()

	for path, entry := range entries {
		headEntry, inHead := headByPath[path]
		switch {
		case !inHead:
			report.StagedNew = append(report.StagedNew, path)
		case headEntry.Hash != entry.Hash:
			report.StagedModified = append(report.StagedModified, path)
		}
	}
	for path := range headByPath {
		if _, staged := entries[path]; !staged {
			report.StagedDeleted = append(report.StagedDeleted, path)
		}
	}

	changes, err := idx.Compute(workspaceRoot, isIgnored)
	if err != nil {
		return Report{}, err
	}
	// Both of Compute's hash-mismatch lists are workspace edits not yet
	// staged relative to the index entry.
	report.UnstagedModified = append(append([]string(nil), changes.Staged...), changes.Modified...)
	sort.Strings(report.UnstagedModified)
	report.UnstagedDeleted = changes.Deleted
	report.Untracked = changes.Untracked
	report.Conflicts = append([]string(nil), conflictedPaths...)

	sort.Strings(report.StagedNew)
	sort.Strings(report.StagedModified)
	sort.Strings(report.StagedDeleted)
	sort.Strings(report.Conflicts)

	return report, nil
}

// FormatText renders the canonical "On branch ..." human-readable status
// report.
func FormatText(r Report) string {
	var b strings.Builder

	if r.Detached {
		fmt.Fprintf(&b, "HEAD detached\n")
	} else {
		fmt.Fprintf(&b, "On branch %s\n", r.Branch)
	}
	if r.Merging {
		fmt.Fprintf(&b, "You have unmerged paths.\n")
	}

	wrote := false

	if len(r.StagedNew)+len(r.StagedModified)+len(r.StagedDeleted) > 0 {
		fmt.Fprintf(&b, "\nChanges to be committed:\n")
		for _, p := range r.StagedNew {
			fmt.Fprintf(&b, "\tnew file:   %s\n", p)
		}
		for _, p := range r.StagedModified {
			fmt.Fprintf(&b, "\tmodified:   %s\n", p)
		}
		for _, p := range r.StagedDeleted {
			fmt.Fprintf(&b, "\tdeleted:    %s\n", p)
		}
		wrote = true
	}

	if len(r.Conflicts) > 0 {
		fmt.Fprintf(&b, "\nUnmerged paths:\n")
		for _, p := range r.Conflicts {
			fmt.Fprintf(&b, "\tboth modified: %s\n", p)
		}
		wrote = true
	}

	if len(r.UnstagedModified)+len(r.UnstagedDeleted) > 0 {
		fmt.Fprintf(&b, "\nChanges not staged for commit:\n")
		for _, p := range r.UnstagedModified {
			fmt.Fprintf(&b, "\tmodified:   %s\n", p)
		}
		for _, p := range r.UnstagedDeleted {
			fmt.Fprintf(&b, "\tdeleted:    %s\n", p)
		}
		wrote = true
	}

	if len(r.Untracked) > 0 {
		fmt.Fprintf(&b, "\nUntracked files:\n")
		for _, p := range r.Untracked {
			fmt.Fprintf(&b, "\t%s\n", p)
		}
		wrote = true
	}

	if !wrote {
		fmt.Fprintf(&b, "\nnothing to commit, working tree clean\n")
	}

	return b.String()
}
