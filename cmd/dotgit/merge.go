package main

import (
	"fmt"
	"os"

	"github.com/dotgit-vcs/dotgit/internal/dgerrors"
	"github.com/dotgit-vcs/dotgit/internal/merge"
	"github.com/dotgit-vcs/dotgit/internal/repo"
)

func runMerge(r *repo.Repo, args []string) int {
	if len(args) == 0 {
		fatal(&dgerrors.InvalidArgument{Detail: "merge requires a source branch"})
	}

	result, err := r.Merge(args[0], merge.ResolveMarkers)
	if err != nil {
		if len(result.Conflicts) > 0 {
			fmt.Fprintf(os.Stderr, "Automatic merge failed; fix conflicts and then commit the result.\n")
			for _, p := range result.Conflicts {
				fmt.Fprintf(os.Stderr, "\tboth modified: %s\n", p)
			}
			return exitCode(err)
		}
		fatal(err)
	}

	switch {
	case result.NoOp:
		fmt.Println("Already up to date.")
	case result.FastForward:
		fmt.Printf("Fast-forward to %s\n", result.Commit.Short())
	default:
		fmt.Printf("Merge made commit %s\n", result.Commit.Short())
	}
	return 0
}
