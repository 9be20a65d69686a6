package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/dgallion1/texgest/internal/api"
	"github.com/dgallion1/texgest/internal/pipeline"
)

const shutdownTimeout = 10 * time.Second

// NewServerCmd builds the command run by the texgest-server binary. It takes
// the same configuration flags as texgest.
func NewServerCmd() *cobra.Command {
	a := &app{}
	cmd := a.serveCmd()
	cmd.Use = "texgest-server"
	cmd.Version = fmt.Sprintf("%s (commit: %s)", version, commit)
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true
	cmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		return a.setup(cmd)
	}
	a.bindConfigFlags(cmd.PersistentFlags())
	return cmd
}

// ExecuteServer runs the server command.
func ExecuteServer() error {
	cmd := NewServerCmd()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), "error:", err)
		return err
	}
	return nil
}

func (a *app) serveCmd() *cobra.Command {
	var port string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: `Run the HTTP API and its build workers until interrupted.

Environment Variables:
  PORT               listen port (default 8090)
  TEXGEST_API_KEY    bearer token required by /api routes
  WORKER_COUNT       concurrent builds
  MAX_QUEUE_SIZE     queued builds before submissions fail
  MAX_UPLOAD_BYTES   request body limit
  JOB_TTL            how long finished builds are kept`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("port") {
				a.cfg.Port = port
			}
			if err := a.cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}
			level := slog.LevelInfo
			if a.flags.debug {
				level = slog.LevelDebug
			}
			a.log = slog.New(slog.NewJSONHandler(cmd.OutOrStdout(), &slog.HandlerOptions{Level: level}))

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			ln, err := net.Listen("tcp", ":"+a.cfg.Port)
			if err != nil {
				return err
			}
			return a.serve(ctx, ln)
		},
	}
	cmd.Flags().StringVar(&port, "port", "", "Listen port (env: PORT)")
	return cmd
}

// serve runs the API on ln until ctx is done, then drains the workers and
// shuts the server down.
func (a *app) serve(ctx context.Context, ln net.Listener) error {
	orch := pipeline.NewOrchestrator(a.cfg, a.log)
	orch.Start(ctx)

	httpServer := &http.Server{
		Handler:      api.NewServer(orch, a.log, a.cfg),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.log.Info("starting texgest", "addr", ln.Addr().String(), "workers", a.cfg.WorkerCount)
		errCh <- httpServer.Serve(ln)
	}()

	select {
	case err := <-errCh:
		orch.Stop()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	a.log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	err := httpServer.Shutdown(shutdownCtx)
	orch.Stop()
	return err
}
