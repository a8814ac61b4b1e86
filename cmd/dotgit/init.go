package main

import (
	"fmt"
	"os"

	"github.com/dotgit-vcs/dotgit/internal/objects"
	"github.com/dotgit-vcs/dotgit/internal/repo"
)

func runInit(args []string) int {
	dir := "."
	if len(args) > 0 {
		dir = args[0]
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		fatal(err)
	}

	r, err := repo.Init(dir, objects.DefaultFormat, nil)
	if err != nil {
		fatal(err)
	}
	fmt.Printf("Initialized empty dotgit repository in %s\n", r.GitDir())
	return 0
}
