package engine

import (
	"os"
	"strings"

	"github.com/datallboy/gofetch/internal/checksum"
	"github.com/datallboy/gofetch/internal/domain"
)

type Freshness int

const (
	NeedsDownload Freshness = iota
	LooksFresh
)

// CheckLocal decides from file metadata alone whether the destination already
// satisfies the descriptor. Any stat error counts as NeedsDownload.
func CheckLocal(file domain.Descriptor) Freshness {
	info, err := os.Stat(file.Path)
	if err != nil || !info.Mode().IsRegular() {
		return NeedsDownload
	}

	if file.Size != nil && uint64(info.Size()) != *file.Size {
		return NeedsDownload
	}

	return LooksFresh
}

// verifyLocal hashes the destination and compares it with the declared
// checksum. Without a checksum there is nothing to confirm, so it reports false.
func (e *Engine) verifyLocal(file domain.Descriptor) bool {
	if file.Checksum == nil {
		e.ctx.Logger.Debug("Deep check: %s has no checksum, refetching", file.Path)
		return false
	}

	actual, err := checksum.File(file.Path, file.Checksum.Algorithm)
	if err != nil {
		e.ctx.Logger.Warn("Deep check: could not hash %s: %v", file.Path, err)
		return false
	}

	if !strings.EqualFold(actual, file.Checksum.Hex) {
		e.ctx.Logger.Debug("Deep check: %s mismatch for %s - expected: %s - got: %s",
			file.Checksum.Algorithm, file.Path, file.Checksum.Hex, actual)
		return false
	}

	return true
}
