package main

import (
	"fmt"

	"github.com/dotgit-vcs/dotgit/internal/dgerrors"
	"github.com/dotgit-vcs/dotgit/internal/repo"
)

func runRemote(r *repo.Repo, args []string) int {
	if len(args) == 0 {
		for _, rm := range r.Remotes() {
			fmt.Println(rm.Name)
		}
		return 0
	}

	switch args[0] {
	case "add":
		if len(args) != 3 {
			fatal(&dgerrors.InvalidArgument{Detail: "remote add requires <name> <url>"})
		}
		if err := r.AddRemote(args[1], args[2]); err != nil {
			fatal(err)
		}
	case "remove", "rm":
		if len(args) != 2 {
			fatal(&dgerrors.InvalidArgument{Detail: "remote remove requires <name>"})
		}
		if _, err := r.RemoveRemote(args[1]); err != nil {
			fatal(err)
		}
	case "-v", "--verbose":
		for _, rm := range r.Remotes() {
			fmt.Printf("%s\t%s\n", rm.Name, rm.URL)
		}
	default:
		fatal(&dgerrors.InvalidArgument{Detail: "unknown remote subcommand: " + args[0]})
	}
	return 0
}
