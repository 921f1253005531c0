package domain

import (
	"errors"
	"fmt"
)

// ErrInvalidConcurrency is returned when a batch is started without a positive concurrency limit
var ErrInvalidConcurrency = errors.New("concurrency limit must be positive")

// StatusError means the server answered with a non-2xx status once retries were exhausted.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status code %d for %s", e.StatusCode, e.URL)
}

// SizeMismatchError means the number of bytes written differs from the declared size.
type SizeMismatchError struct {
	Expected uint64
	Actual   uint64
}

func (e *SizeMismatchError) Error() string {
	return fmt.Sprintf("size mismatch: expected %d bytes, got %d", e.Expected, e.Actual)
}

// ChecksumMismatchError means the downloaded bytes hash to something other than the declared checksum.
// The file at Path is left on disk.
type ChecksumMismatchError struct {
	Expected string
	Actual   string
	URL      string
	Path     string
}

func (e *ChecksumMismatchError) Error() string {
	return fmt.Sprintf("checksum mismatch for %s (%s): expected %s, got %s", e.Path, e.URL, e.Expected, e.Actual)
}

// DownloadError wraps filesystem and other local failures during a download.
type DownloadError struct {
	Op   string
	Path string
	Err  error
}

func (e *DownloadError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *DownloadError) Unwrap() error {
	return e.Err
}
