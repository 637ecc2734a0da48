package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"tableflip.dev/tickr/pkg/server"
	"tableflip.dev/tickr/pkg/store"
)

func addServe(topLevel *cobra.Command) {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the timer over a local HTTP API.",
		Long: `Serve exposes the timer on a local HTTP API:

  GET  /api/health
  GET  /api/timer
  POST /api/timer/start   {"description": "...", "project_id": 3}
  POST /api/timer/pause
  POST /api/timer/resume
  POST /api/timer/stop
  POST /api/timer/sync
  GET  /api/entries?page=1&per_page=10
  GET  /api/log?last=1w`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmd.SilenceUsage = true
			e, err := loadEnv()
			if err != nil {
				return err
			}
			defer e.Close()

			listen := addr
			if listen == "" {
				listen = e.cfg.ServeAddr
			}
			srv := server.NewServer(listen, e.svc)
			if err := srv.Start(); err != nil {
				return fmt.Errorf("failed to start API server: %w", err)
			}
			defer srv.Stop()
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "tickr API listening on http://%s/api\n", srv.Addr())

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				return srv.Wait(gctx)
			})
			g.Go(func() error {
				return follow(gctx, e)
			})
			return g.Wait()
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (defaults to serve-addr from config).")
	topLevel.AddCommand(cmd)
}

// follow reloads the tracker when another process rewrites the timer
// record, until ctx is done.
func follow(ctx context.Context, e *env) error {
	events, err := e.svc.Watch(ctx)
	if err != nil {
		logger().Printf("store watch unavailable: %v", err)
		<-ctx.Done()
		return nil
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				<-ctx.Done()
				return nil
			}
			if ev.Type == store.EventTimerChanged || ev.Type == store.EventInvalidated {
				e.svc.Refresh()
			}
		}
	}
}
