package main

import (
	"fmt"

	"github.com/dotgit-vcs/dotgit/internal/dgerrors"
	"github.com/dotgit-vcs/dotgit/internal/repo"
)

func runCommit(r *repo.Repo, args []string) int {
	message := ""
	for i := 0; i < len(args); i++ {
		if args[i] == "-m" && i+1 < len(args) {
			message = args[i+1]
			i++
		}
	}
	if message == "" {
		fatal(&dgerrors.InvalidArgument{Detail: "commit requires -m <message>"})
	}

	h, err := r.Commit(message)
	if err != nil {
		fatal(err)
	}
	fmt.Printf("[%s] %s\n", h.Short(), message)
	return 0
}
