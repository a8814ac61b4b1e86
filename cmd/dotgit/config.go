package main

import (
	"fmt"

	"github.com/dotgit-vcs/dotgit/internal/dgerrors"
	"github.com/dotgit-vcs/dotgit/internal/repo"
)

func runConfig(r *repo.Repo, args []string) int {
	for _, a := range args {
		if a == "--list" || a == "-l" {
			for _, e := range r.ConfigList() {
				fmt.Printf("%s.%s=%s\n", e.Section, e.Key, e.Value)
			}
			return 0
		}
	}

	switch len(args) {
	case 1:
		v, ok, err := r.ConfigGet(args[0])
		if err != nil {
			fatal(err)
		}
		if ok {
			fmt.Println(v)
		}
	case 2:
		if err := r.ConfigSet(args[0], args[1]); err != nil {
			fatal(err)
		}
	default:
		fatal(&dgerrors.InvalidArgument{Detail: "usage: config <key> [value] | config --list"})
	}
	return 0
}
