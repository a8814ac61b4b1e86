package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dotgit-vcs/dotgit/internal/history"
	"github.com/dotgit-vcs/dotgit/internal/repo"
	"github.com/dotgit-vcs/dotgit/internal/termcolor"
)

func runLog(r *repo.Repo, args []string, cw *termcolor.Writer) int {
	oneline := false
	maxDepth := 0

	for i := 0; i < len(args); i++ {
		switch {
		case args[i] == "--oneline":
			oneline = true
		case args[i] == "-n" && i+1 < len(args):
			i++
			n, err := strconv.Atoi(args[i])
			if err != nil {
				fatal(err)
			}
			maxDepth = n
		}
	}

	entries, err := r.Log(maxDepth)
	if err != nil {
		fatal(err)
	}

	for i, e := range entries {
		if oneline {
			fmt.Printf("%s %s\n", cw.Yellow(e.Hash.Short()), firstLine(e.Commit.Message))
			continue
		}
		if i > 0 {
			fmt.Println()
		}
		fmt.Printf("%s %s\n", cw.Yellow("commit"), cw.Yellow(e.Hash.String()))
		if len(e.Commit.Parents) > 1 {
			parts := make([]string, len(e.Commit.Parents))
			for j, p := range e.Commit.Parents {
				parts[j] = p.Short()
			}
			fmt.Printf("Merge: %s\n", strings.Join(parts, " "))
		}
		fmt.Printf("Author: %s <%s>\n", e.Commit.Author.Name, e.Commit.Author.Email)
		fmt.Printf("Date:   %s\n", e.Commit.Author.When.Format("Mon Jan 2 15:04:05 2006 -0700"))
		fmt.Println()
		for _, line := range strings.Split(e.Commit.Message, "\n") {
			fmt.Printf("    %s\n", line)
		}
	}
	return 0
}

func firstLine(msg string) string {
	if idx := strings.IndexByte(msg, '\n'); idx >= 0 {
		return msg[:idx]
	}
	return msg
}
