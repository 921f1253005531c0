package app

import (
	"github.com/datallboy/gofetch/internal/domain"
	"github.com/datallboy/gofetch/internal/infra/config"
	"github.com/datallboy/gofetch/internal/infra/logger"
)

// RunStore persists batch history. The engine only needs these three calls,
// so it never imports the sqlite package directly.
type RunStore interface {
	SaveRun(run *domain.Run) error
	GetRun(id string) (*domain.Run, error)
	ListRuns(limit int) ([]*domain.Run, error)
}

// Context holds the shared environment for gofetch: config, logger, and optional history store.
type Context struct {
	Config *config.Config
	Logger *logger.Logger

	// Store is nil when history is disabled.
	Store RunStore
}

// NewContext initializes the base environment.
func NewContext(cfg *config.Config, log *logger.Logger) *Context {
	if log == nil {
		log = logger.Nop()
	}
	return &Context{
		Config: cfg,
		Logger: log,
	}
}
