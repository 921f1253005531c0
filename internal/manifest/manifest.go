// Package manifest loads batch descriptors from a YAML (or JSON) file.
package manifest

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/datallboy/gofetch/internal/domain"
)

type Manifest struct {
	// BaseDir is the root for relative entry paths. When relative itself, it is
	// resolved against the manifest's directory.
	BaseDir string  `yaml:"base_dir"`
	Files   []Entry `yaml:"files"`
}

type Entry struct {
	URL    string  `yaml:"url"`
	Path   string  `yaml:"path"`
	Size   *uint64 `yaml:"size"`
	SHA1   string  `yaml:"sha1"`
	SHA256 string  `yaml:"sha256"`
	MD5    string  `yaml:"md5"`
}

// Load reads a manifest and returns its descriptors with absolute-or-resolved
// destination paths. JSON is accepted since it is valid YAML.
func Load(path string) ([]domain.Descriptor, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("could not open manifest: %w", err)
	}
	defer file.Close()

	m := &Manifest{}
	d := yaml.NewDecoder(file)
	d.KnownFields(true)
	if err := d.Decode(m); err != nil {
		return nil, fmt.Errorf("could not decode manifest %s: %w", path, err)
	}

	base := m.BaseDir
	if !filepath.IsAbs(base) {
		base = filepath.Join(filepath.Dir(path), base)
	}

	return m.Descriptors(base)
}

// Descriptors converts the entries, joining relative paths to base.
func (m *Manifest) Descriptors(base string) ([]domain.Descriptor, error) {
	files := make([]domain.Descriptor, 0, len(m.Files))
	for i, e := range m.Files {
		desc, err := e.descriptor(base)
		if err != nil {
			return nil, fmt.Errorf("files[%d]: %w", i, err)
		}
		files = append(files, desc)
	}
	return files, nil
}

func (e Entry) descriptor(base string) (domain.Descriptor, error) {
	if strings.TrimSpace(e.URL) == "" {
		return domain.Descriptor{}, errors.New("url is required")
	}
	if strings.TrimSpace(e.Path) == "" {
		return domain.Descriptor{}, fmt.Errorf("path is required for %s", e.URL)
	}

	sum, err := e.checksum()
	if err != nil {
		return domain.Descriptor{}, fmt.Errorf("%s: %w", e.URL, err)
	}

	dest := e.Path
	if !filepath.IsAbs(dest) {
		dest = filepath.Join(base, dest)
	}

	desc := domain.NewDescriptor(e.URL, dest).WithChecksum(sum)
	if e.Size != nil {
		desc = desc.WithSize(*e.Size)
	}
	return desc, nil
}

func (e Entry) checksum() (*domain.Checksum, error) {
	var sums []domain.Checksum
	if e.SHA1 != "" {
		sums = append(sums, domain.SHA1Sum(e.SHA1))
	}
	if e.SHA256 != "" {
		sums = append(sums, domain.SHA256Sum(e.SHA256))
	}
	if e.MD5 != "" {
		sums = append(sums, domain.MD5Sum(e.MD5))
	}

	switch len(sums) {
	case 0:
		return nil, nil
	case 1:
		return &sums[0], nil
	default:
		return nil, errors.New("at most one of sha1, sha256, md5 may be set")
	}
}
