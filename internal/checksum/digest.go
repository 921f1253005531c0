// Package checksum computes streaming digests for downloaded artifacts.
//
// Every supported algorithm is exposed through hash.Hash, so callers pick the
// algorithm once and then treat the digest uniformly.
package checksum

import (
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"os"

	"github.com/datallboy/gofetch/internal/domain"
)

// New returns a fresh streaming digest for alg.
func New(alg domain.Algorithm) (hash.Hash, error) {
	switch alg {
	case domain.SHA1:
		return sha1.New(), nil
	case domain.SHA256:
		return sha256.New(), nil
	case domain.MD5:
		return md5.New(), nil
	default:
		return nil, fmt.Errorf("unsupported checksum algorithm %q", alg)
	}
}

// Verifier accumulates bytes for a single transfer and compares the result
// against the expected checksum.
type Verifier struct {
	expected domain.Checksum
	h        hash.Hash
}

func NewVerifier(expected domain.Checksum) (*Verifier, error) {
	h, err := New(expected.Algorithm)
	if err != nil {
		return nil, err
	}
	return &Verifier{expected: domain.NewChecksum(expected.Algorithm, expected.Hex), h: h}, nil
}

// Write never returns an error.
func (v *Verifier) Write(p []byte) (int, error) {
	return v.h.Write(p)
}

// Sum returns the lowercase hex digest of everything written so far
func (v *Verifier) Sum() string {
	return hex.EncodeToString(v.h.Sum(nil))
}

// Verify reports the computed digest and whether it equals the expected one.
func (v *Verifier) Verify() (string, bool) {
	actual := v.Sum()
	return actual, actual == v.expected.Hex
}

// File hashes the file at path with alg.
func File(path string, alg domain.Algorithm) (string, error) {
	h, err := New(alg)
	if err != nil {
		return "", err
	}

	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
