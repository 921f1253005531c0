package domain

import (
	"fmt"
	"strings"
)

type Algorithm string

const (
	SHA1   Algorithm = "sha1"
	SHA256 Algorithm = "sha256"
	MD5    Algorithm = "md5"
)

// ParseAlgorithm accepts the algorithm names used in manifests and flags.
func ParseAlgorithm(s string) (Algorithm, error) {
	switch Algorithm(strings.ToLower(strings.TrimSpace(s))) {
	case SHA1:
		return SHA1, nil
	case SHA256:
		return SHA256, nil
	case MD5:
		return MD5, nil
	default:
		return "", fmt.Errorf("unsupported checksum algorithm %q", s)
	}
}

// Checksum is the expected digest of a remote artifact.
// Hex is always stored lowercase so it compares directly against computed digests.
type Checksum struct {
	Algorithm Algorithm `json:"algorithm"`
	Hex       string    `json:"hex"`
}

func NewChecksum(alg Algorithm, hex string) Checksum {
	return Checksum{Algorithm: alg, Hex: strings.ToLower(strings.TrimSpace(hex))}
}

func SHA1Sum(hex string) Checksum   { return NewChecksum(SHA1, hex) }
func SHA256Sum(hex string) Checksum { return NewChecksum(SHA256, hex) }
func MD5Sum(hex string) Checksum    { return NewChecksum(MD5, hex) }

func (c Checksum) String() string {
	return fmt.Sprintf("%s:%s", c.Algorithm, c.Hex)
}

// Descriptor names one remote resource and where it must land on disk.
// The With* helpers return modified copies; a Descriptor is never mutated in place.
type Descriptor struct {
	URL      string
	Path     string
	Checksum *Checksum
	Size     *uint64
}

func NewDescriptor(url, path string) Descriptor {
	return Descriptor{URL: url, Path: path}
}

func (d Descriptor) WithChecksum(c *Checksum) Descriptor {
	if c != nil {
		cp := *c
		c = &cp
	}
	d.Checksum = c
	return d
}

func (d Descriptor) WithSize(size uint64) Descriptor {
	d.Size = &size
	return d
}

// ExpectedSize returns the declared size, or 0 when none was given.
func (d Descriptor) ExpectedSize() uint64 {
	if d.Size == nil {
		return 0
	}
	return *d.Size
}

func (d Descriptor) String() string {
	return fmt.Sprintf("%s -> %s", d.URL, d.Path)
}

// TotalExpectedSize sums every declared size in the batch.
func TotalExpectedSize(files []Descriptor) uint64 {
	var total uint64
	for _, f := range files {
		total += f.ExpectedSize()
	}
	return total
}
