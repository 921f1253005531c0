package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/datallboy/gofetch/internal/domain"
)

const runColumns = `id, name, status, deep_check, dry_run, download_required,
	files_total, files_completed, files_downloaded, bytes_total, bytes_completed,
	started_at, finished_at, error`

// SaveRun inserts or replaces the record for run.ID.
func (s *PersistentStore) SaveRun(run *domain.Run) error {
	query := `INSERT OR REPLACE INTO runs (` + runColumns + `)
              VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := s.db.Exec(query,
		run.ID,
		run.Name,
		string(run.Status),
		run.DeepCheck,
		run.DryRun,
		run.DownloadRequired,
		int64(run.FilesTotal),
		int64(run.FilesCompleted),
		int64(run.FilesDownloaded),
		int64(run.BytesTotal),
		int64(run.BytesCompleted),
		formatTime(run.StartedAt),
		formatTime(run.FinishedAt),
		run.Error,
	)
	if err != nil {
		return fmt.Errorf("failed to save run %s: %w", run.ID, err)
	}
	return nil
}

// GetRun returns nil, nil when no run has the given ID.
func (s *PersistentStore) GetRun(id string) (*domain.Run, error) {
	row := s.db.QueryRow(`SELECT `+runColumns+` FROM runs WHERE id = ? LIMIT 1`, id)

	run, err := scanRun(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to fetch run: %w", err)
	}
	return run, nil
}

// ListRuns returns up to limit runs, newest first. KSUIDs sort by creation time,
// so ordering by id is chronological.
func (s *PersistentStore) ListRuns(limit int) ([]*domain.Run, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.Query(`SELECT `+runColumns+` FROM runs ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	runs := make([]*domain.Run, 0, limit)
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}

	return runs, rows.Err()
}

// FailInterruptedRuns marks runs left in the running state by a previous process
// that exited before finishing them.
func (s *PersistentStore) FailInterruptedRuns() (int64, error) {
	res, err := s.db.Exec(`UPDATE runs SET status = ?, error = ? WHERE status = ?`,
		string(domain.StatusFailed), "Interrupted", string(domain.StatusRunning))
	if err != nil {
		return 0, fmt.Errorf("failed to update interrupted runs: %w", err)
	}
	return res.RowsAffected()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (*domain.Run, error) {
	run := &domain.Run{}
	var (
		status                                               string
		filesTotal, filesDone, downloaded, bytesTotal, bytes int64
		startedAt, finishedAt                                string
	)

	err := row.Scan(
		&run.ID, &run.Name, &status, &run.DeepCheck, &run.DryRun, &run.DownloadRequired,
		&filesTotal, &filesDone, &downloaded, &bytesTotal, &bytes,
		&startedAt, &finishedAt, &run.Error,
	)
	if err != nil {
		return nil, err
	}

	run.Status = domain.RunStatus(status)
	run.FilesTotal = uint64(filesTotal)
	run.FilesCompleted = uint64(filesDone)
	run.FilesDownloaded = uint64(downloaded)
	run.BytesTotal = uint64(bytesTotal)
	run.BytesCompleted = uint64(bytes)

	if run.StartedAt, err = parseTime(startedAt); err != nil {
		return nil, fmt.Errorf("run %s: bad started_at: %w", run.ID, err)
	}
	if run.FinishedAt, err = parseTime(finishedAt); err != nil {
		return nil, fmt.Errorf("run %s: bad finished_at: %w", run.ID, err)
	}

	return run, nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339Nano, s)
}
