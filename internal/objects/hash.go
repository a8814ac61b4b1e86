package objects

import (
	"crypto/sha1" //nolint:gosec // sha1 is an opt-in, legacy object format, not the default
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash"
)

// Format selects the hash function used to name objects in a store. Real git
// repositories historically use SHA1; dotgit defaults new repositories to the
// wider, collision-resistant SHA256 and keeps SHA1 as an opt-in for parity
// with older tooling, mirroring the sha1/sha256 split go-git's
// plumbing/format/config.ObjectFormat draws for the same reason.
type Format string

const (
	SHA1   Format = "sha1"
	SHA256 Format = "sha256"

	// DefaultFormat is used by Init when no format is configured.
	DefaultFormat = SHA256
)

// HexSize returns the length of a hex-encoded hash under this format.
func (f Format) HexSize() int {
	switch f {
	case SHA1:
		return 40
	case SHA256:
		return 64
	default:
		return DefaultFormat.HexSize()
	}
}

func (f Format) newHasher() hash.Hash {
	switch f {
	case SHA1:
		return sha1.New() //nolint:gosec
	default:
		return sha256.New()
	}
}

// Valid reports whether f is a recognized object format.
func (f Format) Valid() bool {
	return f == SHA1 || f == SHA256
}

// Hash is a content digest identifying an object. The zero value is the
// empty hash and never names a real object.
type Hash string

// ZeroHash is the distinguished empty Hash, used for "no parent tree" or
// "no commit yet" rather than a real object reference.
const ZeroHash Hash = ""

// IsZero reports whether h is the distinguished empty hash.
func (h Hash) IsZero() bool { return h == "" }

// String returns the hex representation of h.
func (h Hash) String() string { return string(h) }

// Short returns an abbreviated form suitable for display (first 7 hex chars,
// or the whole hash if shorter), matching the convention every Git tool uses.
func (h Hash) Short() string {
	if len(h) <= 7 {
		return string(h)
	}
	return string(h)[:7]
}

// sum computes the content hash of data under the given format.
func sum(f Format, data []byte) Hash {
	h := f.newHasher()
	h.Write(data)
	return Hash(hex.EncodeToString(h.Sum(nil)))
}

// ParseHash validates s as a hex digest under format f.
func ParseHash(f Format, s string) (Hash, error) {
	if len(s) != f.HexSize() {
		return "", fmt.Errorf("invalid hash length %d for format %s: %q", len(s), f, s)
	}
	if _, err := hex.DecodeString(s); err != nil {
		return "", fmt.Errorf("invalid hash %q: %w", s, err)
	}
	return Hash(s), nil
}
