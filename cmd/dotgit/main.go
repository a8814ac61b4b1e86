// Command dotgit is the CLI entry point: it registers every subcommand
// onto a cli.App and dispatches, opening the repository lazily only for
// commands that need one (init is the one command that must run without
// an existing repository).
package main

import (
	"fmt"
	"os"

	"github.com/dotgit-vcs/dotgit/internal/cli"
	"github.com/dotgit-vcs/dotgit/internal/repo"
	"github.com/dotgit-vcs/dotgit/internal/termcolor"
)

func main() {
	gf, args := parseGlobalFlags(os.Args[1:])

	for _, a := range args {
		if a == "--version" {
			printVersion()
			os.Exit(0)
		}
	}

	cw := termcolor.NewWriter(os.Stdout, gf.colorMode)

	app := cli.NewApp("dotgit", version)
	app.Stderr = os.Stderr

	// r is populated after dispatch determines the matched command needs
	// it (NeedsRepo); closures capture the pointer variable.
	var r *repo.Repo

	app.Register(&cli.Command{
		Name:    "init",
		Summary: "Create an empty dotgit repository",
		Usage:   "dotgit init [<directory>]",
		Run:     func(args []string) int { return runInit(args) },
	})

	app.Register(&cli.Command{
		Name:      "add",
		Summary:   "Stage file contents for the next commit",
		Usage:     "dotgit add <path>...",
		NeedsRepo: true,
		Run:       func(args []string) int { return runAdd(r, args) },
	})

	app.Register(&cli.Command{
		Name:      "commit",
		Summary:   "Record staged changes as a commit",
		Usage:     "dotgit commit -m <message>",
		NeedsRepo: true,
		Run:       func(args []string) int { return runCommit(r, args) },
	})

	app.Register(&cli.Command{
		Name:      "status",
		Summary:   "Show the working tree status",
		Usage:     "dotgit status",
		NeedsRepo: true,
		Run:       func(args []string) int { return runStatus(r, args) },
	})

	app.Register(&cli.Command{
		Name:      "diff",
		Summary:   "Show changes between commits, the index, or the workspace",
		Usage:     "dotgit diff [--staged]",
		NeedsRepo: true,
		Run:       func(args []string) int { return runDiff(r, args, cw) },
	})

	app.Register(&cli.Command{
		Name:      "log",
		Summary:   "Show commit history",
		Usage:     "dotgit log [--oneline] [-n <count>]",
		NeedsRepo: true,
		Run:       func(args []string) int { return runLog(r, args, cw) },
	})

	app.Register(&cli.Command{
		Name:      "branch",
		Summary:   "List, create, or delete branches",
		Usage:     "dotgit branch [<name>] [-d|-D <name>]",
		NeedsRepo: true,
		Run:       func(args []string) int { return runBranch(r, args, cw) },
	})

	app.Register(&cli.Command{
		Name:      "checkout",
		Summary:   "Switch the workspace to a branch or commit",
		Usage:     "dotgit checkout [-f] <ref>",
		NeedsRepo: true,
		Run:       func(args []string) int { return runCheckout(r, args) },
	})

	app.Register(&cli.Command{
		Name:      "merge",
		Summary:   "Merge a branch into the current branch",
		Usage:     "dotgit merge <branch>",
		NeedsRepo: true,
		Run:       func(args []string) int { return runMerge(r, args) },
	})

	app.Register(&cli.Command{
		Name:      "tag",
		Summary:   "List, create, or delete tags",
		Usage:     "dotgit tag [<name>] [-m <message>] [-d]",
		NeedsRepo: true,
		Run:       func(args []string) int { return runTag(r, args) },
	})

	app.Register(&cli.Command{
		Name:      "remote",
		Summary:   "Manage remote name/URL bindings",
		Usage:     "dotgit remote [add <name> <url>|remove <name>|-v]",
		NeedsRepo: true,
		Run:       func(args []string) int { return runRemote(r, args) },
	})

	app.Register(&cli.Command{
		Name:      "config",
		Summary:   "Get or set repository configuration",
		Usage:     "dotgit config <key> [value] | --list",
		NeedsRepo: true,
		Run:       func(args []string) int { return runConfig(r, args) },
	})

	app.Register(&cli.Command{
		Name:      "reset",
		Summary:   "Move HEAD and optionally the index/workspace",
		Usage:     "dotgit reset [--soft|--mixed|--hard] [<ref>]",
		NeedsRepo: true,
		Run:       func(args []string) int { return runReset(r, args) },
	})

	app.Register(&cli.Command{
		Name:      "watch",
		Summary:   "Serve live status over HTTP and WebSocket",
		Usage:     "dotgit watch [<addr>]",
		NeedsRepo: true,
		Run:       func(args []string) int { return runWatch(r, args) },
	})

	app.Register(&cli.Command{
		Name:    "version",
		Summary: "Show version information",
		Usage:   "dotgit version",
		Run:     func([]string) int { printVersion(); return 0 },
	})

	if len(args) > 0 {
		cmd := app.Lookup(args[0])
		if cmd != nil && cmd.NeedsRepo {
			repoPath := os.Getenv("DOTGIT_DIR")
			if repoPath == "" {
				repoPath = "."
			}
			var err error
			r, err = repo.Open(repoPath, nil)
			if err != nil {
				fmt.Fprintf(os.Stderr, "dotgit: %v\n", err)
				os.Exit(exitCode(err))
			}
		}
	}

	os.Exit(app.Run(args, cw))
}
