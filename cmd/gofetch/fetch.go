package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/datallboy/gofetch/internal/api"
	"github.com/datallboy/gofetch/internal/engine"
	"github.com/datallboy/gofetch/internal/manifest"
	"github.com/datallboy/gofetch/internal/progress"
)

type fetchFlags struct {
	concurrency int
	deepCheck   bool
	dryRun      bool
	quiet       bool
	statusAddr  string
}

func newFetchCmd(configPath *string) *cobra.Command {
	var f fetchFlags

	cmd := &cobra.Command{
		Use:   "fetch <manifest>",
		Short: "Bring every file in a manifest up to date",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFetch(cmd, *configPath, args[0], f)
		},
	}

	cmd.Flags().IntVarP(&f.concurrency, "concurrency", "j", 0, "maximum simultaneous transfers (default from config)")
	cmd.Flags().BoolVar(&f.deepCheck, "deep-check", false, "verify checksums of files that look up to date")
	cmd.Flags().BoolVar(&f.dryRun, "dry-run", false, "report whether a download is needed without fetching")
	cmd.Flags().BoolVarP(&f.quiet, "quiet", "q", false, "do not draw the progress bar")
	cmd.Flags().StringVar(&f.statusAddr, "status-addr", "", "serve progress and history on this address, e.g. :8090")
	return cmd
}

func runFetch(cmd *cobra.Command, configPath, manifestPath string, f fetchFlags) error {
	rt, err := bootstrap(configPath)
	if err != nil {
		return err
	}
	defer rt.Close()

	files, err := manifest.Load(manifestPath)
	if err != nil {
		return err
	}

	cfg := rt.app.Config
	opts := engine.Options{
		Concurrency:  cfg.Download.Concurrency,
		DeepCheck:    cfg.Download.DeepCheck,
		SkipDownload: f.dryRun,
	}
	if cmd.Flags().Changed("concurrency") {
		opts.Concurrency = f.concurrency
	}
	if cmd.Flags().Changed("deep-check") {
		opts.DeepCheck = f.deepCheck
	}

	// Setup Signal Handling for Graceful Shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	addr := cfg.API.Addr
	if f.statusAddr != "" {
		addr = f.statusAddr
	}
	if addr != "" {
		srv := api.NewServer(rt.app, rt.runner.Progress(), addr)
		if err := srv.Start(); err != nil {
			return fmt.Errorf("failed to start status API: %w", err)
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			srv.Shutdown(shutdownCtx)
		}()
	}

	var renderer *progress.Renderer
	if !f.quiet && !f.dryRun {
		renderer = progress.NewRenderer(cmd.OutOrStdout(), time.Second)
		renderer.Start(rt.runner.Progress())
	}

	run, err := rt.runner.Run(ctx, filepath.Base(manifestPath), files, opts)
	if renderer != nil {
		renderer.Stop()
	}
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	switch {
	case f.dryRun && run.DownloadRequired:
		fmt.Fprintln(out, "Download required")
	case f.dryRun:
		fmt.Fprintln(out, "Up to date")
	case run.DownloadRequired:
		fmt.Fprintf(out, "Fetched %d of %d file(s)\n", run.FilesDownloaded, run.FilesTotal)
	default:
		fmt.Fprintln(out, "Already up to date")
	}
	return nil
}
