package engine

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/datallboy/gofetch/internal/checksum"
	"github.com/datallboy/gofetch/internal/domain"
	"github.com/datallboy/gofetch/internal/progress"
)

const chunkSize = 128 * 1024

// transfer fetches one descriptor end to end: GET, stream to disk while
// hashing, then verify size and checksum. Bytes credited to agg are rolled
// back if the transfer does not succeed. A file that fails verification is
// left on disk.
func (e *Engine) transfer(ctx context.Context, file domain.Descriptor, agg *progress.Aggregator) (err error) {
	var verifier *checksum.Verifier
	if file.Checksum != nil {
		verifier, err = checksum.NewVerifier(*file.Checksum)
		if err != nil {
			return &domain.DownloadError{Op: "checksum", Path: file.Path, Err: err}
		}
	}

	resp, err := e.client.Get(ctx, file.URL)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := os.MkdirAll(filepath.Dir(file.Path), 0755); err != nil {
		return &domain.DownloadError{Op: "create directory", Path: filepath.Dir(file.Path), Err: err}
	}

	out, err := os.OpenFile(file.Path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return &domain.DownloadError{Op: "open", Path: file.Path, Err: err}
	}
	defer out.Close()

	// written is what this transfer has credited to agg; reported is how much
	// of BytesTotal this file accounts for so far.
	var written uint64
	reported := file.ExpectedSize()

	defer func() {
		if err != nil {
			agg.Rollback(written)
		}
	}()

	buf := make([]byte, chunkSize)
	for {
		n, readErr := resp.Body.Read(buf)
		if n > 0 {
			chunk := buf[:n]
			if verifier != nil {
				verifier.Write(chunk)
			}

			if _, err := out.Write(chunk); err != nil {
				return &domain.DownloadError{Op: "write", Path: file.Path, Err: err}
			}
			written += uint64(n)

			var growth uint64
			if written > reported {
				growth = written - reported
				reported = written
			}
			agg.Advance(uint64(n), growth)
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			return &domain.DownloadError{Op: "read body", Path: file.URL, Err: readErr}
		}
	}

	if err := out.Close(); err != nil {
		return &domain.DownloadError{Op: "close", Path: file.Path, Err: err}
	}

	if file.Size != nil && written != *file.Size {
		return &domain.SizeMismatchError{Expected: *file.Size, Actual: written}
	}

	if verifier != nil {
		if actual, ok := verifier.Verify(); !ok {
			e.ctx.Logger.Error("Checksum mismatch for file: %s - expected: %s - got: %s", file.Path, file.Checksum.Hex, actual)
			return &domain.ChecksumMismatchError{
				Expected: file.Checksum.Hex,
				Actual:   actual,
				URL:      file.URL,
				Path:     file.Path,
			}
		}
	}

	agg.FileCompleted()
	return nil
}
