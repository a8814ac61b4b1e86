// Package config implements dotgit's structured configuration document: a
// section -> key -> value map persisted as canonical JSON, grounded on the
// same section/key shape go-git's config.Config exposes (Core, User,
// Branch, Remote sections) but serialized the way gitvista serializes
// everything else under its control directory.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/dotgit-vcs/dotgit/internal/dgerrors"
)

// Document is the in-memory form of the config file: an ordered-by-name set
// of sections, each holding an ordered-by-name set of key/value pairs.
type Document struct {
	path     string
	sections map[string]map[string]string
}

// defaults synthesizes the core, user, branch (default = main), merge, and
// diff sections on first load if absent.
func defaults() map[string]map[string]string {
	return map[string]map[string]string{
		"core":   {},
		"user":   {},
		"branch": {"default": "main"},
		"merge":  {},
		"diff":   {},
	}
}

// Load reads the config file at path, synthesizing the default sections
// for any missing entirely. A missing file is not an error; it behaves
// as an empty document before defaults are applied.
func Load(path string) (*Document, error) {
	doc := &Document{path: path, sections: map[string]map[string]string{}}

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, &dgerrors.StorageError{Op: "read config", Err: err}
		}
	} else {
		if err := json.Unmarshal(data, &doc.sections); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	for section, keys := range defaults() {
		if _, ok := doc.sections[section]; !ok {
			doc.sections[section] = map[string]string{}
		}
		for k, v := range keys {
			if _, ok := doc.sections[section][k]; !ok {
				doc.sections[section][k] = v
			}
		}
	}

	return doc, nil
}

// Save serializes the full document and writes it atomically.
func (d *Document) Save() error {
	names := make([]string, 0, len(d.sections))
	for name := range d.sections {
		names = append(names, name)
	}
	sort.Strings(names)

	ordered := make(map[string]map[string]string, len(d.sections))
	for _, name := range names {
		ordered[name] = d.sections[name]
	}

	data, err := json.MarshalIndent(ordered, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	dir := filepath.Dir(d.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return &dgerrors.StorageError{Op: "mkdir config dir", Err: err}
	}
	tmp, err := os.CreateTemp(dir, ".tmp-config-*")
	if err != nil {
		return &dgerrors.StorageError{Op: "create temp config", Err: err}
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return &dgerrors.StorageError{Op: "write config", Err: err}
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return &dgerrors.StorageError{Op: "fsync config", Err: err}
	}
	if err := tmp.Close(); err != nil {
		return &dgerrors.StorageError{Op: "close config", Err: err}
	}
	return os.Rename(tmpPath, d.path)
}

// Get returns the value at (section, key), or ok=false if absent.
func (d *Document) Get(section, key string) (string, bool) {
	keys, ok := d.sections[section]
	if !ok {
		return "", false
	}
	v, ok := keys[key]
	return v, ok
}

// Set writes (section, key) = value, creating the section if needed.
func (d *Document) Set(section, key, value string) {
	if d.sections[section] == nil {
		d.sections[section] = map[string]string{}
	}
	d.sections[section][key] = value
}

// Unset removes (section, key), deleting the section entirely if it becomes
// empty.
func (d *Document) Unset(section, key string) {
	keys, ok := d.sections[section]
	if !ok {
		return
	}
	delete(keys, key)
	if len(keys) == 0 {
		delete(d.sections, section)
	}
}

// Entry is one (section, key, value) triple, used by List.
type Entry struct {
	Section string
	Key     string
	Value   string
}

// List returns every entry in the document, ordered by section then key.
func (d *Document) List() []Entry {
	sectionNames := make([]string, 0, len(d.sections))
	for name := range d.sections {
		sectionNames = append(sectionNames, name)
	}
	sort.Strings(sectionNames)

	var out []Entry
	for _, section := range sectionNames {
		keyNames := make([]string, 0, len(d.sections[section]))
		for k := range d.sections[section] {
			keyNames = append(keyNames, k)
		}
		sort.Strings(keyNames)
		for _, k := range keyNames {
			out = append(out, Entry{Section: section, Key: k, Value: d.sections[section][k]})
		}
	}
	return out
}

// AuthorName resolves the identity dotgit attaches to new commits: the
// user.name config value, falling back to the DOTGIT_AUTHOR_NAME /
// USER environment variables.
func (d *Document) AuthorName() string {
	if v, ok := d.Get("user", "name"); ok && v != "" {
		return v
	}
	if v := os.Getenv("DOTGIT_AUTHOR_NAME"); v != "" {
		return v
	}
	if v := os.Getenv("USER"); v != "" {
		return v
	}
	return "unknown"
}

// AuthorEmail resolves the email attached to new commits, mirroring
// AuthorName's fallback chain.
func (d *Document) AuthorEmail() string {
	if v, ok := d.Get("user", "email"); ok && v != "" {
		return v
	}
	if v := os.Getenv("DOTGIT_AUTHOR_EMAIL"); v != "" {
		return v
	}
	return "unknown@localhost"
}
