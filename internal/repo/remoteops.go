package repo

import "github.com/dotgit-vcs/dotgit/internal/remote"

// AddRemote registers a remote name -> url.
func (r *Repo) AddRemote(name, url string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.remotes.Add(name, url)
}

// RemoveRemote unregisters a remote, reporting whether it existed.
func (r *Repo) RemoveRemote(name string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.remotes.Remove(name)
}

// Remotes lists every registered remote.
func (r *Repo) Remotes() []remote.Remote {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.remotes.List()
}
