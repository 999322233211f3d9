package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/ncobase/rendercore/app"
	"github.com/ncobase/rendercore/ctxutil"
	"github.com/ncobase/rendercore/event"
	"github.com/ncobase/rendercore/logging/logger"
	"github.com/ncobase/rendercore/version"
	"github.com/spf13/cobra"
)

// NewRenderCommand creates the render command
func NewRenderCommand() *cobra.Command {
	var (
		file     string
		interval time.Duration
		noColor  bool
		quiet    bool
		stats    bool
	)

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Queue the renders in a manifest and wait for them",
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := LoadManifest(file)
			if err != nil {
				return err
			}

			a, cleanup, err := app.InitializeApp()
			if err != nil {
				return fmt.Errorf("failed to initialize app: %w", err)
			}
			defer cleanup()
			logger.SetVersion(version.GetVersionInfo().Version)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			ctx, _ = ctxutil.EnsureTraceID(ctx)

			var out io.Writer = cmd.OutOrStdout()
			if quiet {
				out = io.Discard
			}
			return runRender(ctx, a, m, out, interval, !noColor, stats)
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "job manifest (YAML)")
	cmd.Flags().DurationVar(&interval, "interval", time.Second, "panel redraw interval")
	cmd.Flags().BoolVar(&noColor, "no-color", false, "disable colors")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "do not draw the jobs panel")
	cmd.Flags().BoolVar(&stats, "stats", false, "print collected metrics as JSON when done")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func runRender(ctx context.Context, a *app.App, m *Manifest, out io.Writer, interval time.Duration, color, stats bool) error {
	var completed, cancelled atomic.Int64
	a.Bus.Subscribe(event.JobCompleted, func(event.Data) { completed.Add(1) })
	a.Bus.Subscribe(event.JobCancelled, func(event.Data) { cancelled.Add(1) })

	ids, err := a.SubmitAll(ctx, m.Jobs)
	if err != nil {
		logger.Warnf(ctx, "%v", err)
	}
	if len(ids) == 0 {
		return fmt.Errorf("nothing to render: %w", err)
	}
	logger.Infof(ctx, "queued %d render(s)", len(ids))

	done := make(chan error, 1)
	go func() { done <- a.Wait(ctx) }()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			fmt.Fprintln(out, a.Panel.Render(color))
		case err := <-done:
			if err != nil {
				sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				n := a.Shutdown(sctx)
				cancel()
				return fmt.Errorf("interrupted, cancelled %d render(s)", n)
			}
			fmt.Fprintf(out, "%d completed, %d cancelled\n", completed.Load(), cancelled.Load())
			if stats && a.Metrics != nil {
				b, err := json.MarshalIndent(a.Metrics.GetMetrics(), "", "  ")
				if err != nil {
					return fmt.Errorf("failed to encode metrics: %w", err)
				}
				fmt.Fprintln(out, string(b))
			}
			if c := cancelled.Load(); c > 0 {
				return fmt.Errorf("%d render(s) did not complete", c)
			}
			return nil
		}
	}
}
