// Package refstore implements dotgit's reference graph: branches, tags, and
// HEAD, stored as small files under refs/ the way gitvista reads them,
// extended here with a write path gitvista never needed.
package refstore

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dotgit-vcs/dotgit/internal/dgerrors"
	"github.com/dotgit-vcs/dotgit/internal/objects"
)

// maxSymbolicDepth bounds the chase through symbolic references: reject
// cycles, five hops is enough in practice.
const maxSymbolicDepth = 5

// HeadKind distinguishes a HEAD pointing at a branch from one pointing
// directly at a commit (detached HEAD).
type HeadKind int

const (
	HeadSymbolic HeadKind = iota
	HeadDirect
)

// HeadState is the parsed content of the HEAD file.
type HeadState struct {
	Kind     HeadKind
	Ref      string       // set when Kind == HeadSymbolic; e.g. "refs/heads/main"
	Resolved objects.Hash // the commit HEAD currently names, ZeroHash if unborn
}

// Store reads and writes references rooted at a control directory (the
// directory containing refs/ and HEAD, conventionally <repo>/.dotgit).
type Store struct {
	root   string
	format objects.Format
	log    *slog.Logger
}

// New returns a Store rooted at dir.
func New(dir string, format objects.Format, log *slog.Logger) *Store {
	if log == nil {
		log = slog.Default()
	}
	return &Store{root: dir, format: format, log: log}
}

func (s *Store) refPath(name string) string {
	return filepath.Join(s.root, filepath.FromSlash(name))
}

// atomicWriteString writes content to path via temp-file-then-rename, the
// same durability pattern the object store uses for loose objects.
func atomicWriteString(path, content string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return &dgerrors.StorageError{Op: "mkdir ref dir", Err: err}
	}
	tmp, err := os.CreateTemp(dir, ".tmp-ref-*")
	if err != nil {
		return &dgerrors.StorageError{Op: "create temp ref", Err: err}
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.WriteString(content); err != nil {
		tmp.Close()
		return &dgerrors.StorageError{Op: "write ref", Err: err}
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return &dgerrors.StorageError{Op: "fsync ref", Err: err}
	}
	if err := tmp.Close(); err != nil {
		return &dgerrors.StorageError{Op: "close ref", Err: err}
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return &dgerrors.StorageError{Op: "rename ref", Err: err}
	}
	return nil
}

// WriteRef atomically writes a direct reference, creating parent
// directories as needed.
func (s *Store) WriteRef(name string, h objects.Hash) error {
	return atomicWriteString(s.refPath(name), string(h)+"\n")
}

// ReadRef returns the content of a single reference file, chasing a
// symbolic "ref: " indirection no more than maxSymbolicDepth hops, or
// ok=false if it doesn't exist.
func (s *Store) ReadRef(name string) (hash objects.Hash, ok bool, err error) {
	return s.readRefDepth(name, 0)
}

func (s *Store) readRefDepth(name string, depth int) (hash objects.Hash, ok bool, err error) {
	if depth > maxSymbolicDepth {
		return "", false, fmt.Errorf("%w: symbolic reference chase exceeded depth %d at %q", dgerrors.ErrInvalidHead, maxSymbolicDepth, name)
	}
	data, err := os.ReadFile(s.refPath(name))
	if err != nil {
		if os.IsNotExist(err) {
			return "", false, nil
		}
		return "", false, &dgerrors.StorageError{Op: "read ref", Err: err}
	}
	line := strings.TrimSpace(string(data))
	if strings.HasPrefix(line, "ref: ") {
		target := strings.TrimPrefix(line, "ref: ")
		h, resolved, rerr := s.readRefDepth(target, depth+1)
		if rerr != nil {
			return "", true, rerr
		}
		if !resolved {
			return "", true, nil
		}
		return h, true, nil
	}
	h, perr := objects.ParseHash(s.format, line)
	if perr != nil {
		return "", true, fmt.Errorf("invalid hash in ref %q: %w", name, perr)
	}
	return h, true, nil
}

// Resolve chases name (which may itself be symbolic) down to a commit
// hash.
func (s *Store) Resolve(name string) (hash objects.Hash, ok bool, err error) {
	return s.readRefDepth(name, 0)
}

// DeleteRef removes a reference, reporting whether it existed.
func (s *Store) DeleteRef(name string) (bool, error) {
	err := os.Remove(s.refPath(name))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, &dgerrors.StorageError{Op: "delete ref", Err: err}
	}
	return true, nil
}

// List recursively walks refs/<prefix>/ and returns every reference found
// beneath it, keyed by its full name (e.g. "refs/heads/main").
func (s *Store) List(prefix string) (map[string]objects.Hash, error) {
	out := map[string]objects.Hash{}
	dir := filepath.Join(s.root, "refs", prefix)

	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return out, nil
	}

	var walk func(sub string) error
	walk = func(sub string) error {
		full := filepath.Join(dir, sub)
		items, err := os.ReadDir(full)
		if err != nil {
			return err
		}
		for _, it := range items {
			rel := filepath.Join(sub, it.Name())
			if it.IsDir() {
				if err := walk(rel); err != nil {
					return err
				}
				continue
			}
			name := "refs/" + prefix + "/" + filepath.ToSlash(rel)
			h, ok, rerr := s.ReadRef(name)
			if rerr != nil {
				s.log.Warn("skipping unreadable ref", "ref", name, "error", rerr)
				continue
			}
			if ok {
				out[name] = h
			}
		}
		return nil
	}
	if err := walk(""); err != nil {
		return nil, &dgerrors.StorageError{Op: "walk refs", Err: err}
	}
	return out, nil
}

// Names returns the sorted short names (without the refs/<prefix>/
// leader) of every reference under prefix.
func (s *Store) Names(prefix string) ([]string, error) {
	refs, err := s.List(prefix)
	if err != nil {
		return nil, err
	}
	base := "refs/" + prefix + "/"
	names := make([]string, 0, len(refs))
	for name := range refs {
		names = append(names, strings.TrimPrefix(name, base))
	}
	sort.Strings(names)
	return names, nil
}

// SetHeadSymbolic points HEAD at a branch reference (e.g.
// "refs/heads/main"), whether or not that branch exists yet. The empty
// branch case is how an unborn repository behaves before the first commit.
func (s *Store) SetHeadSymbolic(ref string) error {
	return atomicWriteString(s.refPath("HEAD"), "ref: "+ref+"\n")
}

// SetHeadDirect points HEAD directly at a commit hash, entering detached
// HEAD state.
func (s *Store) SetHeadDirect(h objects.Hash) error {
	return atomicWriteString(s.refPath("HEAD"), string(h)+"\n")
}

// ReadHead parses the HEAD file. A missing HEAD is InvalidHead: every
// initialized repository must have one.
func (s *Store) ReadHead() (HeadState, error) {
	data, err := os.ReadFile(s.refPath("HEAD"))
	if err != nil {
		if os.IsNotExist(err) {
			return HeadState{}, fmt.Errorf("%w: HEAD file absent", dgerrors.ErrInvalidHead)
		}
		return HeadState{}, &dgerrors.StorageError{Op: "read HEAD", Err: err}
	}

	line := strings.TrimSpace(string(data))
	if strings.HasPrefix(line, "ref: ") {
		ref := strings.TrimPrefix(line, "ref: ")
		h, ok, err := s.readRefDepth(ref, 0)
		if err != nil {
			return HeadState{}, fmt.Errorf("%w: %v", dgerrors.ErrInvalidHead, err)
		}
		if !ok {
			return HeadState{Kind: HeadSymbolic, Ref: ref, Resolved: objects.ZeroHash}, nil
		}
		return HeadState{Kind: HeadSymbolic, Ref: ref, Resolved: h}, nil
	}

	if line == "" {
		return HeadState{}, fmt.Errorf("%w: empty HEAD file", dgerrors.ErrInvalidHead)
	}
	h, err := objects.ParseHash(s.format, line)
	if err != nil {
		return HeadState{}, fmt.Errorf("%w: %v", dgerrors.ErrInvalidHead, err)
	}
	return HeadState{Kind: HeadDirect, Resolved: h}, nil
}

// BranchRef formats a branch's full reference name.
func BranchRef(name string) string { return "refs/heads/" + name }

// TagRef formats a tag's full reference name.
func TagRef(name string) string { return "refs/tags/" + name }
