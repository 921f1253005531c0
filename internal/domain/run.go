package domain

import "time"

// Outcome is the per-descriptor result of a batch. Failures are reported as errors.
type Outcome int

const (
	// OutcomeFresh means the local file already satisfied the descriptor.
	OutcomeFresh Outcome = iota
	// OutcomeDownloaded means the file was fetched and verified.
	OutcomeDownloaded
	// OutcomeRequired means the file needs fetching but the batch was a dry run.
	OutcomeRequired
)

func (o Outcome) String() string {
	switch o {
	case OutcomeFresh:
		return "fresh"
	case OutcomeDownloaded:
		return "downloaded"
	case OutcomeRequired:
		return "required"
	default:
		return "unknown"
	}
}

type RunStatus string

const (
	StatusRunning   RunStatus = "running"
	StatusCompleted RunStatus = "completed"
	StatusFailed    RunStatus = "failed"
)

// Run is the history record of one batch invocation
type Run struct {
	ID     string    `json:"id"`
	Name   string    `json:"name"`
	Status RunStatus `json:"status"`

	DeepCheck        bool `json:"deep_check"`
	DryRun           bool `json:"dry_run"`
	DownloadRequired bool `json:"download_required"`

	FilesTotal     uint64 `json:"files_total"`
	FilesCompleted uint64 `json:"files_completed"`
	// FilesDownloaded counts files actually transferred, excluding fresh ones.
	FilesDownloaded uint64 `json:"files_downloaded"`
	BytesTotal      uint64 `json:"bytes_total"`
	BytesCompleted  uint64 `json:"bytes_completed"`

	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at,omitempty"`
	Error      string    `json:"error,omitempty"`
}
