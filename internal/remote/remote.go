// Package remote implements dotgit's remote registry: named URL records
// with no network transport of their own (dotgit never fetches or pushes;
// remotes are bookkeeping only). The name-to-URL shape is grounded on
// go-git's config.RemoteConfig, persisted the way every other dotgit
// structured file is: canonical JSON, atomic rename.
package remote

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/dotgit-vcs/dotgit/internal/dgerrors"
)

// Remote is one named URL entry.
type Remote struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// Registry is the loaded set of remotes for a repository, backed by a single
// file under the control directory.
type Registry struct {
	path    string
	remotes map[string]string
}

// Load reads the remotes file at path, an empty Registry if absent.
func Load(path string) (*Registry, error) {
	r := &Registry{path: path, remotes: map[string]string{}}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return r, nil
		}
		return nil, &dgerrors.StorageError{Op: "read remotes", Err: err}
	}
	if err := json.Unmarshal(data, &r.remotes); err != nil {
		return nil, fmt.Errorf("parse remotes %s: %w", path, err)
	}
	return r, nil
}

// save writes the registry atomically.
func (r *Registry) save() error {
	data, err := json.MarshalIndent(r.remotes, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal remotes: %w", err)
	}

	dir := filepath.Dir(r.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return &dgerrors.StorageError{Op: "mkdir remotes dir", Err: err}
	}
	tmp, err := os.CreateTemp(dir, ".tmp-remotes-*")
	if err != nil {
		return &dgerrors.StorageError{Op: "create temp remotes", Err: err}
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return &dgerrors.StorageError{Op: "write remotes", Err: err}
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return &dgerrors.StorageError{Op: "fsync remotes", Err: err}
	}
	if err := tmp.Close(); err != nil {
		return &dgerrors.StorageError{Op: "close remotes", Err: err}
	}
	return os.Rename(tmpPath, r.path)
}

// Add registers name -> url, overwriting any existing entry under that name.
func (r *Registry) Add(name, url string) error {
	r.remotes[name] = url
	return r.save()
}

// Remove deletes name, reporting whether it existed.
func (r *Registry) Remove(name string) (bool, error) {
	_, existed := r.remotes[name]
	if !existed {
		return false, nil
	}
	delete(r.remotes, name)
	return true, r.save()
}

// Get returns the URL registered under name.
func (r *Registry) Get(name string) (string, bool) {
	url, ok := r.remotes[name]
	return url, ok
}

// List returns every remote, ordered by name.
func (r *Registry) List() []Remote {
	names := make([]string, 0, len(r.remotes))
	for name := range r.remotes {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]Remote, 0, len(names))
	for _, name := range names {
		out = append(out, Remote{Name: name, URL: r.remotes[name]})
	}
	return out
}
