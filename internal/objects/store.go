package objects

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/dotgit-vcs/dotgit/internal/dgerrors"
)

// Store is a keyless content-addressed object store rooted at a directory
// (conventionally <control-dir>/objects). Objects shard by the first two hex
// characters of their hash, exactly as gitvista's readLooseObjectRaw lays
// out real Git's objects/<aa>/<rest> directories.
type Store struct {
	dir    string
	format Format
	log    *slog.Logger
}

// NewStore returns a Store rooted at dir under the given hash format. dir is
// created if absent.
func NewStore(dir string, format Format, log *slog.Logger) (*Store, error) {
	if !format.Valid() {
		return nil, fmt.Errorf("invalid object format %q", format)
	}
	if log == nil {
		log = slog.Default()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, &dgerrors.StorageError{Op: "mkdir objects", Err: err}
	}
	return &Store{dir: dir, format: format, log: log}, nil
}

// Format returns the hash format this store was opened with.
func (s *Store) Format() Format { return s.format }

func (s *Store) path(h Hash) string {
	hex := string(h)
	return filepath.Join(s.dir, hex[:2], hex[2:])
}

// HashBlob returns the hash content would get if stored as a blob in this
// store, without writing anything. Used by change-detection code that needs
// to compare hashes without growing the object store on every status call.
func (s *Store) HashBlob(content []byte) Hash {
	return sum(s.format, frame(BlobKind, encodeBlob(content)))
}

// Exists reports whether an object named by h is present.
func (s *Store) Exists(h Hash) bool {
	_, err := os.Stat(s.path(h))
	return err == nil
}

// put computes the hash of framed bytes and writes them if absent. Identical
// bytes always yield the same hash and writing is a no-op the second time.
func (s *Store) put(framed []byte) (Hash, error) {
	h := sum(s.format, framed)
	if s.Exists(h) {
		return h, nil
	}

	dir := filepath.Dir(s.path(h))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", &dgerrors.StorageError{Op: "mkdir shard", Err: err}
	}

	tmp, err := os.CreateTemp(dir, ".tmp-obj-*")
	if err != nil {
		return "", &dgerrors.StorageError{Op: "create temp object", Err: err}
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath) // no-op once the rename below succeeds

	if _, err := tmp.Write(framed); err != nil {
		tmp.Close()
		return "", &dgerrors.StorageError{Op: "write object", Err: err}
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return "", &dgerrors.StorageError{Op: "fsync object", Err: err}
	}
	if err := tmp.Close(); err != nil {
		return "", &dgerrors.StorageError{Op: "close object", Err: err}
	}

	if err := os.Rename(tmpPath, s.path(h)); err != nil {
		return "", &dgerrors.StorageError{Op: "rename object", Err: err}
	}
	syncDir(dir)

	return h, nil
}

// syncDir fsyncs a directory so the rename that just landed in it survives a
// crash: fsync the file, then fsync its parent directory. Some platforms
// (notably Windows) don't support
// opening a directory for fsync; that failure is not fatal, since the
// preceding file fsync plus rename already make the write durable on those
// platforms' own terms.
func syncDir(dir string) {
	d, err := os.Open(dir)
	if err != nil {
		return
	}
	defer d.Close()
	_ = d.Sync()
}

// get reads and unframes the raw bytes stored under h.
func (s *Store) get(h Hash) (Kind, []byte, error) {
	data, err := os.ReadFile(s.path(h))
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil, &dgerrors.ObjectMissing{Hash: string(h)}
		}
		return 0, nil, &dgerrors.StorageError{Op: "read object", Err: err}
	}

	kind, body, err := unframe(data)
	if err != nil {
		return 0, nil, &dgerrors.CorruptObject{Hash: string(h)}
	}

	if recomputed := sum(s.format, data); recomputed != h {
		return 0, nil, &dgerrors.CorruptObject{Hash: string(h)}
	}

	return kind, body, nil
}

// PutBlob stores raw file bytes and returns their hash. Binary-safe: bytes
// are never normalized or re-encoded.
func (s *Store) PutBlob(content []byte) (Hash, error) {
	return s.put(frame(BlobKind, encodeBlob(content)))
}

// GetBlob retrieves the bytes of a blob, failing if h does not name one.
func (s *Store) GetBlob(h Hash) ([]byte, error) {
	kind, body, err := s.get(h)
	if err != nil {
		return nil, err
	}
	if kind != BlobKind {
		return nil, fmt.Errorf("object %s is a %s, not a blob", h.Short(), kind)
	}
	return body, nil
}

// PutTree persists a Tree and returns its hash. Entry order does not affect
// the result.
func (s *Store) PutTree(t Tree) (Hash, error) {
	body, err := encodeTree(t)
	if err != nil {
		return "", err
	}
	return s.put(frame(TreeKind, body))
}

// GetTree retrieves a Tree by hash.
func (s *Store) GetTree(h Hash) (Tree, error) {
	kind, body, err := s.get(h)
	if err != nil {
		return Tree{}, err
	}
	if kind != TreeKind {
		return Tree{}, fmt.Errorf("object %s is a %s, not a tree", h.Short(), kind)
	}
	return decodeTree(body)
}

// PutCommit persists a Commit and returns its hash.
func (s *Store) PutCommit(c Commit) (Hash, error) {
	body, err := encodeCommit(c)
	if err != nil {
		return "", err
	}
	return s.put(frame(CommitKind, body))
}

// GetCommit retrieves a Commit by hash.
func (s *Store) GetCommit(h Hash) (Commit, error) {
	kind, body, err := s.get(h)
	if err != nil {
		if _, ok := err.(*dgerrors.ObjectMissing); ok {
			return Commit{}, &dgerrors.CommitMissing{Hash: string(h)}
		}
		return Commit{}, err
	}
	if kind != CommitKind {
		return Commit{}, fmt.Errorf("object %s is a %s, not a commit", h.Short(), kind)
	}
	return decodeCommit(body)
}

// PutTag persists an annotated Tag record and returns its hash.
func (s *Store) PutTag(t Tag) (Hash, error) {
	body, err := encodeTag(t)
	if err != nil {
		return "", err
	}
	return s.put(frame(TagKind, body))
}

// GetTag retrieves an annotated Tag by hash.
func (s *Store) GetTag(h Hash) (Tag, error) {
	kind, body, err := s.get(h)
	if err != nil {
		return Tag{}, err
	}
	if kind != TagKind {
		return Tag{}, fmt.Errorf("object %s is a %s, not a tag", h.Short(), kind)
	}
	return decodeTag(body)
}

// Walk calls fn once per object in the store, in no particular order. It's
// used by integrity checks and by nothing on the hot path.
func (s *Store) Walk(fn func(h Hash) error) error {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return &dgerrors.StorageError{Op: "read objects dir", Err: err}
	}
	for _, shard := range entries {
		if !shard.IsDir() || len(shard.Name()) != 2 {
			continue
		}
		files, err := os.ReadDir(filepath.Join(s.dir, shard.Name()))
		if err != nil {
			return &dgerrors.StorageError{Op: "read object shard", Err: err}
		}
		for _, f := range files {
			h := Hash(shard.Name() + f.Name())
			if len(h) != s.format.HexSize() {
				continue
			}
			if err := fn(h); err != nil {
				return err
			}
		}
	}
	return nil
}
