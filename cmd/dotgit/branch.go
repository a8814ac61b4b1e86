package main

import (
	"fmt"

	"github.com/dotgit-vcs/dotgit/internal/dgerrors"
	"github.com/dotgit-vcs/dotgit/internal/repo"
	"github.com/dotgit-vcs/dotgit/internal/termcolor"
)

func runBranch(r *repo.Repo, args []string, cw *termcolor.Writer) int {
	force := false
	var deleteName string
	var createName string
	for i := 0; i < len(args); i++ {
		switch {
		case (args[i] == "-d" || args[i] == "-D") && i+1 < len(args):
			deleteName = args[i+1]
			force = force || args[i] == "-D"
			i++
		case args[i] == "--force":
			force = true
		default:
			createName = args[i]
		}
	}

	if deleteName != "" {
		if err := r.DeleteBranch(deleteName, force); err != nil {
			fatal(err)
		}
		fmt.Printf("Deleted branch %s\n", deleteName)
		return 0
	}

	if createName != "" {
		if err := r.CreateBranch(createName); err != nil {
			fatal(err)
		}
		return 0
	}

	if len(args) != 0 {
		fatal(&dgerrors.InvalidArgument{Detail: "unrecognized branch arguments"})
	}

	names, err := r.Branches()
	if err != nil {
		fatal(err)
	}
	for _, name := range names {
		fmt.Printf("  %s\n", cw.Green(name))
	}
	return 0
}
