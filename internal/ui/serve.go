package ui

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/javiermolinar/daybook/internal/api"
	"github.com/javiermolinar/daybook/internal/jobs"
	"github.com/javiermolinar/daybook/internal/logging"
)

const shutdownTimeout = 10 * time.Second

func (a *App) serveCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the background jobs",
		Long: `Serve the JSON API under /api/v1, the event stream and /metrics, and run
the morning greeting, bedtime review, task reminders and optional daily
auto-schedule jobs. Stops cleanly on SIGINT or SIGTERM.`,
		Example: `  daybook serve
  daybook serve --addr=:9090`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !cmd.Flags().Changed("addr") {
				addr = a.config.Server.Addr
			}
			if !a.debug && a.config.Log.Level == "warn" {
				a.logger = logging.Setup("info", a.config.Log.Format)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.serve(ctx, addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default from config)")
	return cmd
}

// serve blocks until ctx is done or the listener fails.
func (a *App) serve(ctx context.Context, addr string) error {
	svc, err := a.ensureService()
	if err != nil {
		return err
	}

	runner := jobs.New(a.logger)
	list, err := svc.Jobs(ctx, a.config.Jobs)
	if err != nil {
		return fmt.Errorf("configuring jobs: %w", err)
	}
	for _, j := range list {
		if err := runner.Add(j); err != nil {
			return fmt.Errorf("registering job %s: %w", j.Name, err)
		}
	}
	runner.Start(ctx)
	defer runner.Stop()

	handler := api.New(svc, api.Options{
		RateLimit:  a.config.Server.RateLimit,
		RateBurst:  a.config.Server.RateBurst,
		MaxRetries: a.config.LLM.MaxRetries,
	}, a.logger).Handler()

	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		// Event streams end with ctx instead of holding up Shutdown.
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info().Str("addr", addr).Int("jobs", len(list)).Bool("llm", svc.HasLLM()).Msg("daybook listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serving: %w", err)
	case <-ctx.Done():
	}

	a.logger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	return nil
}
