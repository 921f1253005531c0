package controllers

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v5"

	"github.com/datallboy/gofetch/internal/app"
	"github.com/datallboy/gofetch/internal/progress"
)

const defaultRunLimit = 20

type StatusController struct {
	App      *app.Context
	Progress *progress.Aggregator
}

// ProgressResponse is the live view of the current batch.
type ProgressResponse struct {
	progress.Snapshot
	Percent float64 `json:"percent"`
	Done    bool    `json:"done"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (ctrl *StatusController) HandleProgress(c *echo.Context) error {
	s := ctrl.Progress.Snapshot()
	return c.JSON(http.StatusOK, ProgressResponse{Snapshot: s, Percent: s.Percent(), Done: s.Done()})
}

func (ctrl *StatusController) HandleRuns(c *echo.Context) error {
	if ctrl.App.Store == nil {
		return c.JSON(http.StatusServiceUnavailable, errorResponse{Error: "run history is disabled"})
	}

	limit := defaultRunLimit
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return c.JSON(http.StatusBadRequest, errorResponse{Error: "limit must be a positive integer"})
		}
		limit = n
	}

	runs, err := ctrl.App.Store.ListRuns(limit)
	if err != nil {
		ctrl.App.Logger.Error("Failed to list runs: %v", err)
		return c.JSON(http.StatusInternalServerError, errorResponse{Error: err.Error()})
	}

	return c.JSON(http.StatusOK, runs)
}

func (ctrl *StatusController) HandleRun(c *echo.Context) error {
	if ctrl.App.Store == nil {
		return c.JSON(http.StatusServiceUnavailable, errorResponse{Error: "run history is disabled"})
	}

	id := c.Param("id")
	run, err := ctrl.App.Store.GetRun(id)
	if err != nil {
		ctrl.App.Logger.Error("Failed to fetch run %s: %v", id, err)
		return c.JSON(http.StatusInternalServerError, errorResponse{Error: err.Error()})
	}
	if run == nil {
		return c.JSON(http.StatusNotFound, errorResponse{Error: "run not found"})
	}

	return c.JSON(http.StatusOK, run)
}
