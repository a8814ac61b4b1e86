// Package index implements dotgit's staging area: the pending next-commit
// snapshot, made safe for concurrent callers by an advisory file lock.
//
// The on-disk schema here is the richer {hash, size, mtime, mode, staged}
// per-entry record, in preference to a second, thinner duplicate of the
// tree schema. Field naming and the overall "cached stat triple plus
// hash" shape are carried over from gitvista's IndexEntry, adapted from
// Git's fixed-width binary record to canonical JSON (the encoding every
// other dotgit structured file already uses).
package index

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/gofrs/flock"

	"github.com/dotgit-vcs/dotgit/internal/dgerrors"
	"github.com/dotgit-vcs/dotgit/internal/objects"
)

// lockRetries and lockBackoff bound lock acquisition: retry up to a
// small bound with exponential back-off.
const (
	lockRetries    = 5
	lockBackoff    = 20 * time.Millisecond
	staleLockAfter = 10 * time.Second
)

// Entry is one path's worth of staged state.
type Entry struct {
	Hash   objects.Hash     `json:"hash"`
	Size   int64            `json:"size"`
	Mtime  time.Time        `json:"mtime"`
	Mode   objects.FileMode `json:"mode"`
	Staged bool             `json:"staged"`
}

// document is the on-disk shape of the index file.
type document struct {
	Entries map[string]Entry `json:"entries"`
}

// Index is a loaded staging area, bound to a workspace and the control
// directory holding its backing files.
type Index struct {
	path     string
	lockPath string
	store    *objects.Store
	log      *slog.Logger

	entries map[string]Entry
}

// Open locates an Index's backing files without loading them; call Load to
// populate entries under the file lock.
func Open(controlDir string, store *objects.Store, log *slog.Logger) *Index {
	if log == nil {
		log = slog.Default()
	}
	return &Index{
		path:     filepath.Join(controlDir, "index"),
		lockPath: filepath.Join(controlDir, "index.lock"),
		store:    store,
		log:      log,
		entries:  map[string]Entry{},
	}
}

// withLock acquires the index's advisory file lock for the duration of fn,
// stealing a lock that has gone stale, and always releases on the way out.
func (idx *Index) withLock(fn func() error) error {
	fl := flock.New(idx.lockPath)

	if info, err := os.Stat(idx.lockPath); err == nil {
		if time.Since(info.ModTime()) > staleLockAfter {
			idx.log.Warn("stealing stale index lock", "path", idx.lockPath, "age", time.Since(info.ModTime()))
			os.Remove(idx.lockPath)
		}
	}

	var locked bool
	var err error
	delay := lockBackoff
	for attempt := 1; ; attempt++ {
		if locked, err = fl.TryLock(); err != nil || locked || attempt == lockRetries {
			break
		}
		time.Sleep(delay)
		delay *= 2
	}
	if err != nil {
		return fmt.Errorf("%w: %v", dgerrors.ErrLockTimeout, err)
	}
	if !locked {
		return dgerrors.ErrLockTimeout
	}
	defer fl.Unlock()
	now := time.Now()
	_ = os.Chtimes(idx.lockPath, now, now)

	return fn()
}

// Load acquires the lock, reads and deserializes the index file (an empty
// Index if absent), and releases. A malformed file is CorruptIndex.
func (idx *Index) Load() error {
	return idx.withLock(func() error {
		data, err := os.ReadFile(idx.path)
		if err != nil {
			if os.IsNotExist(err) {
				idx.entries = map[string]Entry{}
				return nil
			}
			return &dgerrors.StorageError{Op: "read index", Err: err}
		}

		var doc document
		if err := json.Unmarshal(data, &doc); err != nil {
			return fmt.Errorf("%w: %v", dgerrors.ErrCorruptIndex, err)
		}
		if doc.Entries == nil {
			doc.Entries = map[string]Entry{}
		}
		idx.entries = doc.Entries
		return nil
	})
}

// save serializes and atomically writes the index file. Callers must hold
// idx's lock (i.e. call from inside withLock).
func (idx *Index) save() error {
	doc := document{Entries: idx.entries}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal index: %w", err)
	}

	dir := filepath.Dir(idx.path)
	tmp, err := os.CreateTemp(dir, ".tmp-index-*")
	if err != nil {
		return &dgerrors.StorageError{Op: "create temp index", Err: err}
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return &dgerrors.StorageError{Op: "write index", Err: err}
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return &dgerrors.StorageError{Op: "fsync index", Err: err}
	}
	if err := tmp.Close(); err != nil {
		return &dgerrors.StorageError{Op: "close index", Err: err}
	}
	return os.Rename(tmpPath, idx.path)
}

// Save acquires the lock, serializes, writes atomically, releases.
func (idx *Index) Save() error {
	return idx.withLock(func() error { return idx.save() })
}

// Stage reads path's content from disk, stores the resulting
// blob, and records a staged entry for it. The caller supplies workspaceRoot
// so the recorded path stays relative and portable.
func (idx *Index) Stage(workspaceRoot, relPath string) error {
	full := filepath.Join(workspaceRoot, relPath)
	content, err := os.ReadFile(full)
	if err != nil {
		return &dgerrors.StorageError{Op: "read workspace file", Err: err}
	}
	info, err := os.Stat(full)
	if err != nil {
		return &dgerrors.StorageError{Op: "stat workspace file", Err: err}
	}

	h, err := idx.store.PutBlob(content)
	if err != nil {
		return err
	}

	mode := objects.ModeRegular
	if info.Mode()&0o111 != 0 {
		mode = objects.ModeExecutable
	}
	if info.Mode()&fs.ModeSymlink != 0 {
		mode = objects.ModeSymlink
	}

	return idx.withLock(func() error {
		// Re-read from the already-loaded in-memory entries, since Load
		// populated idx.entries before this call.
		idx.entries[relPath] = Entry{
			Hash:   h,
			Size:   info.Size(),
			Mtime:  info.ModTime(),
			Mode:   mode,
			Staged: true,
		}
		return idx.save()
	})
}

// Unstage removes path's entry, reporting whether it existed.
func (idx *Index) Unstage(relPath string) (bool, error) {
	var existed bool
	err := idx.withLock(func() error {
		_, existed = idx.entries[relPath]
		delete(idx.entries, relPath)
		return idx.save()
	})
	return existed, err
}

// Clear removes every entry.
func (idx *Index) Clear() error {
	return idx.withLock(func() error {
		idx.entries = map[string]Entry{}
		return idx.save()
	})
}

// Entries returns a snapshot of the currently loaded entries, keyed by path.
func (idx *Index) Entries() map[string]Entry {
	out := make(map[string]Entry, len(idx.entries))
	for k, v := range idx.entries {
		out[k] = v
	}
	return out
}

// SetFromTree replaces the index wholesale with entries taken directly
// from tree, recording each path's blob hash and mode without touching
// the workspace. Used by reset's mixed and hard modes, where the index
// must match a target commit's tree regardless of what's currently on
// disk. Size and Mtime are left zero, which only affects the stat fast
// path in Compute: every Compute call rehashes these paths until they are
// staged again.
func (idx *Index) SetFromTree(tree objects.Tree) error {
	return idx.withLock(func() error {
		entries := make(map[string]Entry, len(tree.Entries))
		for _, e := range tree.Entries {
			entries[e.Path] = Entry{Hash: e.Hash, Mode: e.Mode, Staged: true}
		}
		idx.entries = entries
		return idx.save()
	})
}

// WriteTree builds a Tree object from the staged entries and persists it,
// returning its hash.
func (idx *Index) WriteTree() (objects.Hash, error) {
	paths := make([]string, 0, len(idx.entries))
	for p := range idx.entries {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	tree := objects.Tree{Entries: make([]objects.TreeEntry, 0, len(paths))}
	for _, p := range paths {
		e := idx.entries[p]
		tree.Entries = append(tree.Entries, objects.TreeEntry{Path: p, Hash: e.Hash, Mode: e.Mode})
	}
	return idx.store.PutTree(tree)
}

// Changes classifies workspace content against the index: staged vs.
// modified vs. deleted vs. untracked.
type Changes struct {
	Staged    []string
	Modified  []string
	Deleted   []string
	Untracked []string
}

// IsIgnoredFunc reports whether a relative path should be excluded from the
// untracked-file scan (the control directory and gitignore-style rules).
type IsIgnoredFunc func(relPath string) bool

// Compute walks workspaceRoot and classifies every indexed and untracked
// path.
func (idx *Index) Compute(workspaceRoot string, isIgnored IsIgnoredFunc) (Changes, error) {
	var c Changes

	for path, entry := range idx.entries {
		full := filepath.Join(workspaceRoot, path)
		info, err := os.Stat(full)
		if err != nil {
			if os.IsNotExist(err) {
				c.Deleted = append(c.Deleted, path)
				continue
			}
			return Changes{}, &dgerrors.StorageError{Op: "stat indexed file", Err: err}
		}

		same := info.Size() == entry.Size && info.ModTime().Equal(entry.Mtime)
		var h objects.Hash
		if same {
			h = entry.Hash
		} else {
			content, err := os.ReadFile(full)
			if err != nil {
				return Changes{}, &dgerrors.StorageError{Op: "read indexed file", Err: err}
			}
			h = idx.store.HashBlob(content)
		}

		if h != entry.Hash {
			if entry.Staged {
				c.Staged = append(c.Staged, path)
			} else {
				c.Modified = append(c.Modified, path)
			}
		}
	}

	err := filepath.WalkDir(workspaceRoot, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(workspaceRoot, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if isIgnored != nil && isIgnored(rel) {
			return nil
		}
		if _, tracked := idx.entries[rel]; tracked {
			return nil
		}
		c.Untracked = append(c.Untracked, rel)
		return nil
	})
	if err != nil {
		return Changes{}, &dgerrors.StorageError{Op: "walk workspace", Err: err}
	}

	sort.Strings(c.Staged)
	sort.Strings(c.Modified)
	sort.Strings(c.Deleted)
	sort.Strings(c.Untracked)
	return c, nil
}
