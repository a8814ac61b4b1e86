package repo

import (
	"time"

	"github.com/dotgit-vcs/dotgit/internal/dgerrors"
	"github.com/dotgit-vcs/dotgit/internal/objects"
	"github.com/dotgit-vcs/dotgit/internal/refstore"
)

// CreateTag creates a tag naming HEAD's current commit. An empty message
// produces a lightweight tag (a direct reference with no Tag object); a
// non-empty message produces an annotated Tag record.
func (r *Repo) CreateTag(name, message string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	ref := refstore.TagRef(name)
	if _, ok, err := r.refs.ReadRef(ref); err != nil {
		return err
	} else if ok {
		return &dgerrors.RefExists{Name: name}
	}

	head, err := r.headCommit()
	if err != nil {
		return err
	}
	if head.IsZero() {
		return &dgerrors.InvalidArgument{Detail: "cannot tag before the first commit"}
	}

	if message == "" {
		return r.refs.WriteRef(ref, head)
	}

	tagger := objects.Signature{Name: r.cfg.AuthorName(), Email: r.cfg.AuthorEmail(), When: time.Now()}
	tag := objects.Tag{Object: head, ObjKind: objects.CommitKind, Name: name, Tagger: tagger, Message: message}
	tagHash, err := r.objects.PutTag(tag)
	if err != nil {
		return err
	}
	return r.refs.WriteRef(ref, tagHash)
}

// DeleteTag removes a tag, reporting whether it existed.
func (r *Repo) DeleteTag(name string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.refs.DeleteRef(refstore.TagRef(name))
}

// Tags returns every tag name, sorted.
func (r *Repo) Tags() ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.refs.Names("tags")
}
