package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"schoolsite/internal/config"
	"schoolsite/internal/derivative"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		dirs    []string
		workers int
	)

	cmd := &cobra.Command{
		Use:   "optimize-images",
		Short: "Generate missing WebP derivatives for existing images",
		Long: `Walk image directories and create the WebP base and the responsive
widths (320, 640, 1024, 1600) next to every .jpg, .jpeg and .png that is
missing them. Existing derivatives are never rewritten.

Without --dir the configured assets/img and uploads roots are used.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			_ = godotenv.Load()

			if len(dirs) == 0 {
				cfg, err := config.Load()
				if err != nil {
					return err
				}
				dirs = []string{filepath.Join(cfg.AssetsDir, "img"), cfg.UploadsDir}
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			return run(ctx, cmd, dirs, workers)
		},
	}

	cmd.Flags().StringArrayVar(&dirs, "dir", nil, "directory to scan (repeatable)")
	cmd.Flags().IntVar(&workers, "workers", runtime.NumCPU(), "originals processed concurrently")
	return cmd
}

func run(ctx context.Context, cmd *cobra.Command, dirs []string, workers int) error {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "optimizing images in %v\n", dirs)

	start := time.Now()
	rep, err := derivative.NewGenerator(workers).Backfill(ctx, dirs, workers)
	fmt.Fprintf(out, "done in %s: scanned=%d created=%d skipped=%d failed=%d\n",
		time.Since(start).Round(time.Millisecond), rep.Scanned, rep.Created, rep.Skipped, rep.Failed)
	return err
}
