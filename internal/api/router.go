// Package api serves read-only batch status over HTTP.
package api

import (
	"github.com/labstack/echo/v5"
	"github.com/labstack/echo/v5/middleware"

	"github.com/datallboy/gofetch/internal/api/controllers"
	"github.com/datallboy/gofetch/internal/app"
	"github.com/datallboy/gofetch/internal/progress"
)

func RegisterRoutes(e *echo.Echo, app *app.Context, agg *progress.Aggregator) {

	// Middleware: Request Logger
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:  true,
		LogURI:     true,
		LogMethod:  true,
		LogLatency: true,
		LogValuesFunc: func(c *echo.Context, v middleware.RequestLoggerValues) error {
			app.Logger.Debug("%s %s | %d | %s", v.Method, v.URI, v.Status, v.Latency)
			return nil
		},
	}))

	statusCtrl := &controllers.StatusController{App: app, Progress: agg}

	e.GET("/api/progress", statusCtrl.HandleProgress)
	e.GET("/api/runs", statusCtrl.HandleRuns)
	e.GET("/api/runs/:id", statusCtrl.HandleRun)
}
