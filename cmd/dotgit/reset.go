package main

import (
	"github.com/dotgit-vcs/dotgit/internal/dgerrors"
	"github.com/dotgit-vcs/dotgit/internal/objects"
	"github.com/dotgit-vcs/dotgit/internal/repo"
)

func runReset(r *repo.Repo, args []string) int {
	mode := repo.ResetMixed
	var target string

	for _, a := range args {
		switch a {
		case "--soft":
			mode = repo.ResetSoft
		case "--mixed":
			mode = repo.ResetMixed
		case "--hard":
			mode = repo.ResetHard
		default:
			target = a
		}
	}
	if target == "" {
		target = "HEAD"
	}

	h, err := resolveRef(r, target)
	if err != nil {
		fatal(err)
	}
	if err := r.Reset(h, mode); err != nil {
		fatal(err)
	}
	return 0
}

// resolveRef resolves a branch name, "HEAD", or a raw commit hash to a
// commit hash. dotgit has no revision-walking syntax (HEAD~N and friends).
func resolveRef(r *repo.Repo, ref string) (objects.Hash, error) {
	if ref == "HEAD" {
		entries, err := r.Log(1)
		if err != nil {
			return "", err
		}
		if len(entries) == 0 {
			return "", &dgerrors.InvalidArgument{Detail: "HEAD has no commits yet"}
		}
		return entries[0].Hash, nil
	}

	branches, err := r.Branches()
	if err != nil {
		return "", err
	}
	for _, b := range branches {
		if b == ref {
			refs := r.Refs()
			h, ok, err := refs.ReadRef("refs/heads/" + ref)
			if err != nil {
				return "", err
			}
			if ok {
				return h, nil
			}
		}
	}

	h, err := objects.ParseHash(r.Objects().Format(), ref)
	if err != nil {
		return "", &dgerrors.RefMissing{Name: ref}
	}
	return h, nil
}
