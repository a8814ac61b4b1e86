package main

import (
	"github.com/dotgit-vcs/dotgit/internal/dgerrors"
	"github.com/dotgit-vcs/dotgit/internal/repo"
)

func runCheckout(r *repo.Repo, args []string) int {
	force := false
	var ref string
	for _, a := range args {
		if a == "-f" || a == "--force" {
			force = true
			continue
		}
		ref = a
	}
	if ref == "" {
		fatal(&dgerrors.InvalidArgument{Detail: "checkout requires a branch name or commit hash"})
	}
	if err := r.Checkout(ref, force); err != nil {
		fatal(err)
	}
	return 0
}
