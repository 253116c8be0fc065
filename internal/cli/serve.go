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

	"github.com/roach88/teamsplit/internal/config"
	"github.com/roach88/teamsplit/internal/engine"
	"github.com/roach88/teamsplit/internal/httpapi"
	"github.com/roach88/teamsplit/internal/persist"
)

const shutdownTimeout = 5 * time.Second

// ServeOptions holds flags for the serve command.
type ServeOptions struct {
	*RootOptions
	Listen    string
	StaticDir string
	Database  string

	// OnListen is called with the bound address once the server accepts
	// connections (for testing).
	OnListen func(addr string)
}

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	return newServeCommand(&ServeOptions{RootOptions: rootOpts})
}

func newServeCommand(opts *ServeOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the browser UI and the dispatch API",
		Long: `Serve the static UI and a JSON API over a single in-memory store.

Routes:
  GET  /api/state            current state and history position
  POST /api/dispatch         dispatch one action
  GET  /api/snapshots        saved splits, newest first
  POST /api/snapshots        save the current teams
  GET  /api/snapshots/{id}   one saved split
  GET  /api/stream           websocket of state changes

Flags override values from --config.

Examples:
  teamsplit serve
  teamsplit serve --listen :9000 --static ./web --db sqlite:///var/lib/teamsplit.db`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.LoadConfig()
			if err != nil {
				return err
			}
			applyServeOverrides(cmd, opts, &cfg)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, opts, cfg, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Listen, "listen", "", "listen address (default from config, :8080)")
	cmd.Flags().StringVar(&opts.StaticDir, "static", "", "static UI directory (default from config, web)")
	cmd.Flags().StringVar(&opts.Database, "db", "", "snapshot DSN (default from config, memory://)")

	return cmd
}

func applyServeOverrides(cmd *cobra.Command, opts *ServeOptions, cfg *config.Config) {
	if cmd.Flags().Changed("listen") {
		cfg.Listen = opts.Listen
	}
	if cmd.Flags().Changed("static") {
		cfg.StaticDir = opts.StaticDir
	}
	if cmd.Flags().Changed("db") {
		cfg.PersistDSN = opts.Database
	}
}

func runServe(ctx context.Context, opts *ServeOptions, cfg config.Config, cmd *cobra.Command) error {
	logger := opts.Logger(cmd.ErrOrStderr(), cfg)

	backend, err := persist.Open(cfg.PersistDSN)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open snapshot storage", err)
	}
	defer func() {
		if closeErr := backend.Close(); closeErr != nil {
			logger.Error("error closing snapshot storage", "error", closeErr)
		}
	}()

	store := engine.New(
		engine.WithLogger(logger),
		engine.WithHistoryCapacity(cfg.HistoryCapacity),
	)
	api, err := httpapi.New(store, backend,
		httpapi.WithLogger(logger),
		httpapi.WithStaticDir(cfg.StaticDir),
		httpapi.WithDefaultStrategy(cfg.Strategy),
	)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to build HTTP API", err)
	}

	ln, err := net.Listen("tcp", cfg.Listen)
	if err != nil {
		return WrapExitError(ExitCommandError, fmt.Sprintf("failed to listen on %s", cfg.Listen), err)
	}

	srv := &http.Server{
		Handler:           api,
		ReadHeaderTimeout: 10 * time.Second,
		ErrorLog:          slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()

	addr := ln.Addr().String()
	logger.Info("serving", "addr", addr, "static", cfg.StaticDir, "session", store.Session())
	if opts.OnListen != nil {
		opts.OnListen(addr)
	}

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return WrapExitError(ExitFailure, "server error", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return WrapExitError(ExitFailure, "shutdown failed", err)
	}
	<-errCh
	logger.Info("server stopped")
	return nil
}
