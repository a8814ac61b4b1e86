// Package repo is dotgit's top-level orchestrator: it wires the object
// store, reference store, config store, staging index, diff engine, merge
// engine, and status engine into dotgit's command surface (init, add,
// commit, status, diff, branch, checkout, merge, log, tag, remote,
// config, reset).
//
// The Repo struct's shape (gitDir/workDir discovery, a loaded-on-open set
// of subsystems, an RWMutex guarding cross-operation consistency) is
// grounded on gitvista's Repository. Where gitvista only ever reads (it's
// a repository *browser*), Repo also owns the write path: every mutating
// operation here has no gitvista analogue and is built from scratch.
package repo

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/dotgit-vcs/dotgit/internal/config"
	"github.com/dotgit-vcs/dotgit/internal/dgerrors"
	"github.com/dotgit-vcs/dotgit/internal/diff"
	"github.com/dotgit-vcs/dotgit/internal/history"
	"github.com/dotgit-vcs/dotgit/internal/ignore"
	"github.com/dotgit-vcs/dotgit/internal/index"
	"github.com/dotgit-vcs/dotgit/internal/objects"
	"github.com/dotgit-vcs/dotgit/internal/refstore"
	"github.com/dotgit-vcs/dotgit/internal/remote"
	"github.com/dotgit-vcs/dotgit/internal/status"
)

// ControlDirName is the directory dotgit state lives under, inside a
// workspace (the equivalent of ".git").
const ControlDirName = ".dotgit"

// Repo is an opened dotgit repository: a workspace root plus every
// subsystem needed to run a command against it.
type Repo struct {
	gitDir  string
	workDir string

	objects *objects.Store
	refs    *refstore.Store
	cfg     *config.Document
	idx     *index.Index
	remotes *remote.Registry

	log *slog.Logger
	mu  sync.RWMutex
}

// Init creates a new repository at workDir: the control directory,
// default config, and an initial HEAD symbolic to refs/heads/main. Fails
// with RepositoryExists if the control directory is already present.
func Init(workDir string, format objects.Format, log *slog.Logger) (*Repo, error) {
	if log == nil {
		log = slog.Default()
	}
	gitDir := filepath.Join(workDir, ControlDirName)

	if _, err := os.Stat(gitDir); err == nil {
		return nil, dgerrors.ErrRepositoryExists
	}

	if format == "" {
		format = objects.DefaultFormat
	}

	objStore, err := objects.NewStore(filepath.Join(gitDir, "objects"), format, log)
	if err != nil {
		return nil, err
	}

	refStore := refstore.New(gitDir, format, log)
	if err := refStore.SetHeadSymbolic(refstore.BranchRef("main")); err != nil {
		return nil, err
	}

	cfg, err := config.Load(filepath.Join(gitDir, "config"))
	if err != nil {
		return nil, err
	}
	cfg.Set("core", "objectFormat", string(format))
	if err := cfg.Save(); err != nil {
		return nil, err
	}

	remotes, err := remote.Load(filepath.Join(gitDir, "remotes"))
	if err != nil {
		return nil, err
	}

	log.Info("initialized repository", "path", workDir, "format", format)

	return &Repo{
		gitDir:  gitDir,
		workDir: workDir,
		objects: objStore,
		refs:    refStore,
		cfg:     cfg,
		idx:     index.Open(gitDir, objStore, log),
		remotes: remotes,
		log:     log,
	}, nil
}

// Open locates and loads a repository starting from path, walking parent
// directories the way gitvista's findGitDirectory does, until a
// directory containing ControlDirName is found.
func Open(path string, log *slog.Logger) (*Repo, error) {
	if log == nil {
		log = slog.Default()
	}
	gitDir, workDir, err := findControlDir(path)
	if err != nil {
		return nil, err
	}

	format, err := detectFormat(gitDir)
	if err != nil {
		return nil, err
	}

	objStore, err := objects.NewStore(filepath.Join(gitDir, "objects"), format, log)
	if err != nil {
		return nil, err
	}
	refStore := refstore.New(gitDir, format, log)

	cfg, err := config.Load(filepath.Join(gitDir, "config"))
	if err != nil {
		return nil, err
	}
	remotes, err := remote.Load(filepath.Join(gitDir, "remotes"))
	if err != nil {
		return nil, err
	}

	r := &Repo{
		gitDir:  gitDir,
		workDir: workDir,
		objects: objStore,
		refs:    refStore,
		cfg:     cfg,
		idx:     index.Open(gitDir, objStore, log),
		remotes: remotes,
		log:     log,
	}
	if err := r.idx.Load(); err != nil {
		return nil, err
	}
	return r, nil
}

// findControlDir walks from path upward looking for a ControlDirName
// directory, the way gitvista's findGitDirectory walks for ".git".
func findControlDir(path string) (gitDir, workDir string, err error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", "", fmt.Errorf("resolve path: %w", err)
	}

	current := abs
	for {
		candidate := filepath.Join(current, ControlDirName)
		if info, err := os.Stat(candidate); err == nil && info.IsDir() {
			return candidate, current, nil
		}
		parent := filepath.Dir(current)
		if parent == current {
			return "", "", dgerrors.ErrRepositoryNotFound
		}
		current = parent
	}
}

func detectFormat(gitDir string) (objects.Format, error) {
	cfg, err := config.Load(filepath.Join(gitDir, "config"))
	if err != nil {
		return "", err
	}
	if v, ok := cfg.Get("core", "objectFormat"); ok {
		f := objects.Format(v)
		if f.Valid() {
			return f, nil
		}
	}
	return objects.DefaultFormat, nil
}

// WorkDir returns the workspace root.
func (r *Repo) WorkDir() string { return r.workDir }

// GitDir returns the control directory.
func (r *Repo) GitDir() string { return r.gitDir }

// Config returns the loaded configuration document.
func (r *Repo) Config() *config.Document { return r.cfg }

func (r *Repo) ignoreMatcher() *ignore.Matcher {
	return ignore.Load(r.workDir, ControlDirName, "", r.log)
}

// mergeHeadPath is the transient marker present while a merge has
// unresolved conflicts, holding the incoming commit hash.
func (r *Repo) mergeHeadPath() string { return filepath.Join(r.gitDir, "MERGE_HEAD") }

// MergeHead returns the commit hash of an in-progress merge, or ok=false
// if the repository is in the Clean state.
func (r *Repo) MergeHead() (objects.Hash, bool, error) {
	data, err := os.ReadFile(r.mergeHeadPath())
	if err != nil {
		if os.IsNotExist(err) {
			return "", false, nil
		}
		return "", false, &dgerrors.StorageError{Op: "read MERGE_HEAD", Err: err}
	}
	h, err := objects.ParseHash(r.objects.Format(), trimNewline(string(data)))
	if err != nil {
		return "", false, fmt.Errorf("corrupt MERGE_HEAD: %w", err)
	}
	return h, true, nil
}

func (r *Repo) setMergeHead(h objects.Hash) error {
	return os.WriteFile(r.mergeHeadPath(), []byte(string(h)+"\n"), 0o644)
}

func (r *Repo) clearMergeHead() error {
	err := os.Remove(r.mergeHeadPath())
	if err != nil && !os.IsNotExist(err) {
		return &dgerrors.StorageError{Op: "clear MERGE_HEAD", Err: err}
	}
	return nil
}

func trimNewline(s string) string {
	for len(s) > 0 && (s[len(s)-1] == '\n' || s[len(s)-1] == '\r') {
		s = s[:len(s)-1]
	}
	return s
}

// headCommit resolves the current HEAD to a commit hash, ZeroHash for an
// unborn branch (no commits yet).
func (r *Repo) headCommit() (objects.Hash, error) {
	hs, err := r.refs.ReadHead()
	if err != nil {
		return "", err
	}
	return hs.Resolved, nil
}

// headTree resolves HEAD to its tree, an empty Tree for an unborn branch.
func (r *Repo) headTree() (objects.Tree, error) {
	h, err := r.headCommit()
	if err != nil {
		return objects.Tree{}, err
	}
	if h.IsZero() {
		return objects.Tree{}, nil
	}
	c, err := r.objects.GetCommit(h)
	if err != nil {
		return objects.Tree{}, err
	}
	return r.objects.GetTree(c.Tree)
}

// currentBranch returns the short branch name HEAD points at, and whether
// HEAD is detached.
func (r *Repo) currentBranch() (name string, detached bool, err error) {
	hs, err := r.refs.ReadHead()
	if err != nil {
		return "", false, err
	}
	if hs.Kind == refstore.HeadDirect {
		return "", true, nil
	}
	const prefix = "refs/heads/"
	if len(hs.Ref) > len(prefix) && hs.Ref[:len(prefix)] == prefix {
		return hs.Ref[len(prefix):], false, nil
	}
	return hs.Ref, false, nil
}

// Add expands relPaths relative to the workspace root and stages each
// file.
func (r *Repo) Add(relPaths []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	ignored := r.ignoreMatcher()
	for _, rel := range relPaths {
		full := filepath.Join(r.workDir, rel)
		info, err := os.Stat(full)
		if err != nil {
			return &dgerrors.StorageError{Op: "stat path to add", Err: err}
		}
		if info.IsDir() {
			err := filepath.WalkDir(full, func(p string, d os.DirEntry, err error) error {
				if err != nil || d.IsDir() {
					return err
				}
				childRel, err := filepath.Rel(r.workDir, p)
				if err != nil {
					return err
				}
				childRel = filepath.ToSlash(childRel)
				if ignored.IsIgnored(childRel) {
					return nil
				}
				return r.idx.Stage(r.workDir, childRel)
			})
			if err != nil {
				return err
			}
			continue
		}
		if ignored.IsIgnored(filepath.ToSlash(rel)) {
			continue
		}
		if err := r.idx.Stage(r.workDir, filepath.ToSlash(rel)); err != nil {
			return err
		}
	}
	return nil
}

// Commit builds a tree from the index, creates a commit, and advances the
// current branch. If a merge is in progress, the commit records both
// parents and clears MERGE_HEAD on success.
func (r *Repo) Commit(message string) (objects.Hash, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.idx.Entries()) == 0 {
		return "", &dgerrors.InvalidArgument{Detail: "nothing to commit"}
	}

	treeHash, err := r.idx.WriteTree()
	if err != nil {
		return "", err
	}

	parents, err := r.commitParents()
	if err != nil {
		return "", err
	}

	if len(parents) == 1 {
		parentCommit, err := r.objects.GetCommit(parents[0])
		if err != nil {
			return "", err
		}
		if parentCommit.Tree == treeHash {
			return "", &dgerrors.InvalidArgument{Detail: "nothing to commit"}
		}
	}

	author := objects.Signature{Name: r.cfg.AuthorName(), Email: r.cfg.AuthorEmail(), When: time.Now()}
	commit := objects.Commit{Tree: treeHash, Parents: parents, Message: message, Author: author, Committer: author}

	h, err := r.objects.PutCommit(commit)
	if err != nil {
		return "", err
	}

	if err := r.advanceHead(h); err != nil {
		return "", err
	}

	if err := r.clearMergeHead(); err != nil {
		return "", err
	}

	r.log.Info("created commit", "hash", h.Short(), "parents", len(parents))
	return h, nil
}

func (r *Repo) commitParents() ([]objects.Hash, error) {
	head, err := r.headCommit()
	if err != nil {
		return nil, err
	}
	var parents []objects.Hash
	if !head.IsZero() {
		parents = append(parents, head)
	}
	if mh, ok, err := r.MergeHead(); err != nil {
		return nil, err
	} else if ok {
		parents = append(parents, mh)
	}
	return parents, nil
}

// advanceHead moves the current branch (or HEAD directly, if detached) to
// commit h.
func (r *Repo) advanceHead(h objects.Hash) error {
	hs, err := r.refs.ReadHead()
	if err != nil {
		return err
	}
	if hs.Kind == refstore.HeadDirect {
		return r.refs.SetHeadDirect(h)
	}
	return r.refs.WriteRef(hs.Ref, h)
}

// Status computes the full working-tree classification.
func (r *Repo) Status() (status.Report, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	branch, detached, err := r.currentBranch()
	if err != nil {
		return status.Report{}, err
	}
	tree, err := r.headTree()
	if err != nil {
		return status.Report{}, err
	}

	var conflictPaths []string
	_, merging, err := r.MergeHead()
	if err != nil {
		return status.Report{}, err
	}
	if merging {
		for path, e := range r.idx.Entries() {
			if !e.Staged {
				conflictPaths = append(conflictPaths, path)
			}
		}
	}

	return status.Compute(branch, detached, tree, r.idx, r.workDir, r.ignoreMatcher().IsIgnored, conflictPaths, merging)
}

// Diff compares the working tree against the index (staged=false) or the
// index against HEAD (staged=true).
func (r *Repo) Diff(staged bool, context int) ([]diff.FileDiff, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if context <= 0 {
		context = diff.DefaultContext
	}

	if staged {
		headTree, err := r.headTree()
		if err != nil {
			return nil, err
		}
		treeHash, err := r.idx.WriteTree()
		if err != nil {
			return nil, err
		}
		indexTree, err := r.objects.GetTree(treeHash)
		if err != nil {
			return nil, err
		}
		return r.diffTrees(headTree, indexTree, context)
	}

	changes, err := r.idx.Compute(r.workDir, r.ignoreMatcher().IsIgnored)
	if err != nil {
		return nil, err
	}

	var out []diff.FileDiff
	entries := r.idx.Entries()
	for _, path := range append(append([]string{}, changes.Modified...), changes.Staged...) {
		entry := entries[path]
		oldContent, err := r.objects.GetBlob(entry.Hash)
		if err != nil {
			return nil, err
		}
		newContent, err := os.ReadFile(filepath.Join(r.workDir, path))
		if err != nil {
			return nil, &dgerrors.StorageError{Op: "read workspace file for diff", Err: err}
		}
		out = append(out, diff.Compute(path, oldContent, newContent, context))
	}
	return out, nil
}

func (r *Repo) diffTrees(oldTree, newTree objects.Tree, context int) ([]diff.FileDiff, error) {
	changes := history.DiffTrees(oldTree, newTree)
	var out []diff.FileDiff
	for _, c := range changes {
		var oldContent, newContent []byte
		var err error
		if !c.Old.IsZero() {
			oldContent, err = r.objects.GetBlob(c.Old)
			if err != nil {
				return nil, err
			}
		}
		if !c.New.IsZero() {
			newContent, err = r.objects.GetBlob(c.New)
			if err != nil {
				return nil, err
			}
		}
		out = append(out, diff.Compute(c.Path, oldContent, newContent, context))
	}
	return out, nil
}

// Log walks first-parent history from HEAD.
func (r *Repo) Log(maxDepth int) ([]history.Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	head, err := r.headCommit()
	if err != nil {
		return nil, err
	}
	if head.IsZero() {
		return nil, nil
	}
	return history.Walk(r.objects.GetCommit, head, maxDepth)
}

// Objects exposes the object store for commands that need direct access
// (reset's hash parsing, the watch server's history page).
func (r *Repo) Objects() *objects.Store { return r.objects }

// Refs exposes the reference store.
func (r *Repo) Refs() *refstore.Store { return r.refs }

// Index exposes the staging index.
func (r *Repo) Index() *index.Index { return r.idx }

