package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/datallboy/gofetch/internal/domain"
	"github.com/datallboy/gofetch/internal/progress"
)

type getFlags struct {
	size   uint64
	sha1   string
	sha256 string
	md5    string
	quiet  bool
}

func newGetCmd(configPath *string) *cobra.Command {
	var f getFlags

	cmd := &cobra.Command{
		Use:   "get <url> <dest>",
		Short: "Download a single file, verifying it when a size or checksum is given",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			file, err := f.descriptor(cmd, args[0], args[1])
			if err != nil {
				return err
			}
			return runGet(cmd, *configPath, file, f.quiet)
		},
	}

	cmd.Flags().Uint64Var(&f.size, "size", 0, "expected size in bytes")
	cmd.Flags().StringVar(&f.sha1, "sha1", "", "expected SHA-1 hex digest")
	cmd.Flags().StringVar(&f.sha256, "sha256", "", "expected SHA-256 hex digest")
	cmd.Flags().StringVar(&f.md5, "md5", "", "expected MD5 hex digest")
	cmd.Flags().BoolVarP(&f.quiet, "quiet", "q", false, "do not draw the progress bar")
	cmd.MarkFlagsMutuallyExclusive("sha1", "sha256", "md5")
	return cmd
}

func (f getFlags) descriptor(cmd *cobra.Command, url, dest string) (domain.Descriptor, error) {
	if url == "" || dest == "" {
		return domain.Descriptor{}, errors.New("url and dest are required")
	}

	file := domain.NewDescriptor(url, dest)
	if cmd.Flags().Changed("size") {
		file = file.WithSize(f.size)
	}

	var sum *domain.Checksum
	switch {
	case f.sha1 != "":
		c := domain.SHA1Sum(f.sha1)
		sum = &c
	case f.sha256 != "":
		c := domain.SHA256Sum(f.sha256)
		sum = &c
	case f.md5 != "":
		c := domain.MD5Sum(f.md5)
		sum = &c
	}
	return file.WithChecksum(sum), nil
}

func runGet(cmd *cobra.Command, configPath string, file domain.Descriptor, quiet bool) error {
	rt, err := bootstrap(configPath)
	if err != nil {
		return err
	}
	defer rt.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	agg := progress.NewAggregator()
	var renderer *progress.Renderer
	if !quiet {
		renderer = progress.NewRenderer(cmd.OutOrStdout(), time.Second)
		renderer.Start(agg)
	}

	err = rt.engine.DownloadFile(ctx, file, agg)
	if renderer != nil {
		renderer.Stop()
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Saved %s (%s)\n", file.Path, humanize.IBytes(agg.Snapshot().BytesCompleted))
	return nil
}
