package repo

import (
	"strings"

	"github.com/dotgit-vcs/dotgit/internal/config"
	"github.com/dotgit-vcs/dotgit/internal/dgerrors"
)

// ConfigGet reads a "section.key" value.
func (r *Repo) ConfigGet(key string) (string, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	section, k, err := splitConfigKey(key)
	if err != nil {
		return "", false, err
	}
	v, ok := r.cfg.Get(section, k)
	return v, ok, nil
}

// ConfigSet writes a "section.key" value and persists the document.
func (r *Repo) ConfigSet(key, value string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	section, k, err := splitConfigKey(key)
	if err != nil {
		return err
	}
	r.cfg.Set(section, k, value)
	return r.cfg.Save()
}

// ConfigList returns every (section, key, value) entry.
func (r *Repo) ConfigList() []config.Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.cfg.List()
}

func splitConfigKey(key string) (section, k string, err error) {
	section, k, found := strings.Cut(key, ".")
	if !found || section == "" || k == "" {
		return "", "", &dgerrors.InvalidArgument{Detail: "config key must be \"section.key\": " + key}
	}
	return section, k, nil
}
