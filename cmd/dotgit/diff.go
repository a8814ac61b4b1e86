package main

import (
	"fmt"

	"github.com/dotgit-vcs/dotgit/internal/diff"
	"github.com/dotgit-vcs/dotgit/internal/repo"
	"github.com/dotgit-vcs/dotgit/internal/termcolor"
)

func runDiff(r *repo.Repo, args []string, cw *termcolor.Writer) int {
	staged := false
	for _, a := range args {
		if a == "--staged" || a == "--cached" {
			staged = true
		}
	}

	diffs, err := r.Diff(staged, diff.DefaultContext)
	if err != nil {
		fatal(err)
	}

	for _, fd := range diffs {
		oldLabel, newLabel := "a/"+fd.Path, "b/"+fd.Path
		fmt.Println(cw.Bold(fmt.Sprintf("diff --dotgit %s %s", oldLabel, newLabel)))
		fmt.Print(diff.FormatUnified(fd, oldLabel, newLabel, cw))
	}
	return 0
}
