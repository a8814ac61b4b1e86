package objects

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"
)

// Kind distinguishes the three (four, counting annotated tags) object kinds:
// blob, tree, commit, and tag.
type Kind byte

const (
	BlobKind   Kind = 'b'
	TreeKind   Kind = 't'
	CommitKind Kind = 'c'
	TagKind    Kind = 'g'
)

func (k Kind) String() string {
	switch k {
	case BlobKind:
		return "blob"
	case TreeKind:
		return "tree"
	case CommitKind:
		return "commit"
	case TagKind:
		return "tag"
	default:
		return "unknown"
	}
}

// FileMode records the subset of a Unix file mode dotgit trees care about:
// whether a path is a regular file, an executable file, or a symlink.
// Directories are never represented: trees are a flat path -> entry mapping,
// not a hierarchy of subtree objects.
type FileMode uint32

const (
	ModeRegular    FileMode = 0o100644
	ModeExecutable FileMode = 0o100755
	ModeSymlink    FileMode = 0o120000
)

// Signature records who made a commit or tag and when: a name, an email,
// and an ISO-8601 timestamp.
type Signature struct {
	Name  string    `json:"name"`
	Email string    `json:"email"`
	When  time.Time `json:"when"`
}

func (s Signature) canonical() Signature {
	return Signature{Name: s.Name, Email: s.Email, When: s.When.UTC().Truncate(time.Second)}
}

// TreeEntry is one path's worth of a Tree: the blob it names and its mode.
type TreeEntry struct {
	Path string   `json:"path"`
	Hash Hash     `json:"hash"`
	Mode FileMode `json:"mode"`
}

// Tree is the canonical serialization of a staged snapshot: a flat mapping
// from path to {blob hash, mode}. Identity is computed from entries sorted
// lexicographically by path so that insertion order never affects the
// resulting hash.
type Tree struct {
	Entries []TreeEntry `json:"entries"`
}

// sorted returns a copy of t with entries ordered canonically.
func (t Tree) sorted() Tree {
	entries := make([]TreeEntry, len(t.Entries))
	copy(entries, t.Entries)
	sort.Slice(entries, func(i, j int) bool { return entries[i].Path < entries[j].Path })
	return Tree{Entries: entries}
}

// Lookup returns the entry for path, if present.
func (t Tree) Lookup(path string) (TreeEntry, bool) {
	for _, e := range t.Entries {
		if e.Path == path {
			return e, true
		}
	}
	return TreeEntry{}, false
}

// Commit is the canonical serialization of a snapshot in history: a tree
// plus zero-or-more parents, a message, an author, and a timestamp. Zero
// parents means a root commit; more than one means a merge.
type Commit struct {
	Tree      Hash      `json:"tree"`
	Parents   []Hash    `json:"parents"`
	Message   string    `json:"message"`
	Author    Signature `json:"author"`
	Committer Signature `json:"committer"`
}

func (c Commit) canonical() Commit {
	parents := make([]Hash, len(c.Parents))
	copy(parents, c.Parents)
	return Commit{
		Tree:      c.Tree,
		Parents:   parents,
		Message:   c.Message,
		Author:    c.Author.canonical(),
		Committer: c.Committer.canonical(),
	}
}

// Tag is an annotated tag record: {object, type, tagger, timestamp, message}.
// A lightweight tag has no Tag object at all; it's just a direct reference.
// This type only models the annotated case.
type Tag struct {
	Object  Hash      `json:"object"`
	ObjKind Kind      `json:"objectKind"`
	Name    string    `json:"name"`
	Tagger  Signature `json:"tagger"`
	Message string    `json:"message"`
}

func (t Tag) canonical() Tag {
	return Tag{Object: t.Object, ObjKind: t.ObjKind, Name: t.Name, Tagger: t.Tagger.canonical(), Message: t.Message}
}

// encodeBlob returns the canonical on-disk bytes for a blob: the raw content,
// unmodified. Storage never normalizes line endings or re-encodes anything.
func encodeBlob(content []byte) []byte { return content }

func encodeTree(t Tree) ([]byte, error) {
	return json.Marshal(t.sorted())
}

func decodeTree(data []byte) (Tree, error) {
	var t Tree
	if err := json.Unmarshal(data, &t); err != nil {
		return Tree{}, fmt.Errorf("decode tree: %w", err)
	}
	return t.sorted(), nil
}

func encodeCommit(c Commit) ([]byte, error) {
	return json.Marshal(c.canonical())
}

func decodeCommit(data []byte) (Commit, error) {
	var c Commit
	if err := json.Unmarshal(data, &c); err != nil {
		return Commit{}, fmt.Errorf("decode commit: %w", err)
	}
	return c.canonical(), nil
}

func encodeTag(t Tag) ([]byte, error) {
	return json.Marshal(t.canonical())
}

func decodeTag(data []byte) (Tag, error) {
	var t Tag
	if err := json.Unmarshal(data, &t); err != nil {
		return Tag{}, fmt.Errorf("decode tag: %w", err)
	}
	return t.canonical(), nil
}

// frame wraps a kind byte around an encoded body; this single byte is what
// lets Get tell a tree from a commit from a tag without out-of-band metadata,
// since dotgit's objects all live in one flat content-addressed namespace.
func frame(k Kind, body []byte) []byte {
	out := make([]byte, 0, len(body)+1)
	out = append(out, byte(k))
	out = append(out, body...)
	return out
}

func unframe(data []byte) (Kind, []byte, error) {
	if len(data) == 0 {
		return 0, nil, fmt.Errorf("empty object")
	}
	return Kind(data[0]), data[1:], nil
}
