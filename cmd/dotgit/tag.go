package main

import (
	"fmt"

	"github.com/dotgit-vcs/dotgit/internal/repo"
)

func runTag(r *repo.Repo, args []string) int {
	deleteFlag := false
	var name, message string
	for i := 0; i < len(args); i++ {
		switch {
		case args[i] == "-d":
			deleteFlag = true
		case args[i] == "-m" && i+1 < len(args):
			message = args[i+1]
			i++
		case name == "":
			name = args[i]
		}
	}

	if deleteFlag {
		ok, err := r.DeleteTag(name)
		if err != nil {
			fatal(err)
		}
		if ok {
			fmt.Printf("Deleted tag %s\n", name)
		}
		return 0
	}

	if name != "" {
		if err := r.CreateTag(name, message); err != nil {
			fatal(err)
		}
		return 0
	}

	names, err := r.Tags()
	if err != nil {
		fatal(err)
	}
	for _, n := range names {
		fmt.Println(n)
	}
	return 0
}
