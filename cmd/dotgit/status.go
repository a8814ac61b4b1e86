package main

import (
	"fmt"

	"github.com/dotgit-vcs/dotgit/internal/repo"
	"github.com/dotgit-vcs/dotgit/internal/status"
)

func runStatus(r *repo.Repo, args []string) int {
	report, err := r.Status()
	if err != nil {
		fatal(err)
	}
	fmt.Print(status.FormatText(report))
	return 0
}
