package main

import (
	"fmt"

	"github.com/dotgit-vcs/dotgit/internal/dgerrors"
	"github.com/dotgit-vcs/dotgit/internal/repo"
	"github.com/pterm/pterm"
)

func runAdd(r *repo.Repo, args []string) int {
	if len(args) == 0 {
		fatal(&dgerrors.InvalidArgument{Detail: "add requires at least one path"})
	}

	var spinner *pterm.SpinnerPrinter
	if len(args) > 1 {
		spinner, _ = pterm.DefaultSpinner.Start(fmt.Sprintf("staging %d paths", len(args)))
	}

	if err := r.Add(args); err != nil {
		if spinner != nil {
			spinner.Fail(err.Error())
		}
		fatal(err)
	}

	if spinner != nil {
		spinner.Success()
	}
	return 0
}
