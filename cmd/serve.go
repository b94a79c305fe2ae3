package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/BioHazard786/duo/internal/config"
	"github.com/BioHazard786/duo/internal/hub"
	"github.com/BioHazard786/duo/internal/server"
)

const shutdownTimeout = 10 * time.Second

var serveOpts config.ServerOptions

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the signaling relay",
	Long: `Run the signaling relay.

Examples:
  duo serve
  duo serve --port 8080 --allowed-origins https://app.example.com
  PORT=8080 LOG_LEVEL=debug duo serve`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServer(cmd.Context())
	},
}

func init() {
	serveOpts.BindFlags(serveCmd.Flags())
	rootCmd.AddCommand(serveCmd)
}

func runServer(ctx context.Context) error {
	cfg, err := config.LoadServer(serveOpts)
	if err != nil {
		return err
	}
	logger := slog.Default()

	h := hub.New(hub.Options{
		SendBuffer:     cfg.SendBuffer,
		MaxMessageSize: cfg.MaxMessageSize,
	}, logger)

	hubCtx, stopHub := context.WithCancel(context.Background())
	defer stopHub()
	go h.Run(hubCtx)

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           server.NewRouter(h, server.NewOriginPolicy(cfg.AllowedOrigins), logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		logger.Info("signaling server listening", "addr", srv.Addr, "origins", cfg.AllowedOrigins)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		stopHub()
		<-h.Done()
		return fmt.Errorf("listen on %s: %w", srv.Addr, err)
	case <-ctx.Done():
	}

	logger.Info("shutting down", "timeout", shutdownTimeout)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	err = srv.Shutdown(shutdownCtx)

	// Websockets are hijacked, so Shutdown does not wait for them. Stopping
	// the hub closes every send queue and the write pumps hang up.
	stopHub()
	<-h.Done()

	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
