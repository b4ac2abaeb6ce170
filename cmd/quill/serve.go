package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	serverHTTP "quill/internal/delivery/server/http"
	"quill/internal/shared/async"
	"quill/internal/shared/logging"
)

const shutdownTimeout = 10 * time.Second

func (c *cli) newServeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			container, cleanup, err := c.container(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			logger := logging.NewComponentLogger("Main")
			cfg := container.Config.Server
			router := serverHTTP.NewRouter(serverHTTP.RouterDeps{
				Syncer:  container.Synchronizer,
				Reader:  container.Reader,
				Metrics: container.Metrics.Handler(),
				Logger:  logging.NewComponentLogger("HTTP"),
			}, serverHTTP.RouterConfig{
				EnableCORS:     cfg.EnableCORS,
				Debug:          cfg.Debug,
				MaxUploadBytes: cfg.MaxUploadBytes,
			})

			srv := &http.Server{
				Addr:              cfg.Addr,
				Handler:           router,
				ReadHeaderTimeout: 10 * time.Second,
				ReadTimeout:       2 * time.Minute,
				WriteTimeout:      2 * time.Minute,
				IdleTimeout:       120 * time.Second,
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			serveErr := async.Go(logger, "http-server", func() error {
				logger.Info("Server listening on %s", cfg.Addr)
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			})

			select {
			case err := <-serveErr:
				return err
			case <-ctx.Done():
			}

			logger.Info("Shutting down server...")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				return err
			}
			logger.Info("Server stopped")
			return nil
		},
	}
	cmd.Flags().String("server.addr", ":8080", "listen address")
	return cmd
}
