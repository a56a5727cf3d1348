package cmd

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/lehigh-university-libraries/culler/internal/handlers"
	"github.com/lehigh-university-libraries/culler/internal/triage"
	"github.com/pkg/browser"
	"github.com/spf13/cobra"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	var (
		port   string
		open   bool
		rescan bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start web server for the triage interface",
		Long: `Starts the culler web interface on the specified port.

The page shows the current image and lets you keep, delete and navigate
with buttons or the arrow, K and X keys. The session is logged when the
server shuts down.`,
		Example: `  # Start server on default port 8888
  culler serve

  # Start server on custom port and open it in the browser
  culler serve --port 3000 --open`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			svc, err := triage.NewService(cfg, triage.Options{Rescan: rescan})
			if err != nil {
				return err
			}
			defer func() {
				if err := svc.Close(); err != nil {
					slog.Error("Failed to save session", "err", err)
				}
			}()

			// Set up routes
			mux := http.NewServeMux()
			handlers.New(svc).Routes(mux)

			addr := ":" + port
			url := "http://localhost" + addr
			server := &http.Server{
				Addr:    addr,
				Handler: mux,
			}

			// Start server in goroutine
			serverErr := make(chan error, 1)
			go func() {
				slog.Info("Culler interface available", "addr", addr, "url", url)
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					serverErr <- err
				}
			}()

			if open {
				if err := browser.OpenURL(url); err != nil {
					slog.Warn("Unable to open browser", "url", url, "err", err)
				}
			}

			// Wait for context cancellation (Ctrl+C) or server error
			select {
			case <-cmd.Context().Done():
				slog.Info("Shutting down server...")
				// Give server 5 seconds to shut down gracefully
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := server.Shutdown(shutdownCtx); err != nil {
					slog.Error("Server shutdown failed", "err", err)
					return err
				}
				slog.Info("Server stopped")
				return nil
			case err := <-serverErr:
				return err
			}
		},
	}

	cmd.Flags().StringVarP(&port, "port", "p", "8888", "Port to listen on")
	cmd.Flags().BoolVar(&open, "open", false, "Open the interface in the default browser")
	cmd.Flags().BoolVar(&rescan, "rescan", false, "Rebuild the directory list before starting")

	return cmd
}
