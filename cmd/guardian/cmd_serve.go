package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	httpapi "github.com/covariant-labs/guardian/internal/interfaces/http"
	"github.com/covariant-labs/guardian/internal/persistence"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the analysis API server",
		Long:  "Serve POST /v1/analyze plus /health and /metrics until interrupted.",
		RunE:  runServe,
	}
	cmd.Flags().String("host", "", "Override the configured listen host")
	cmd.Flags().Int("port", 0, "Override the configured listen port")
	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadAppConfig()
	if err != nil {
		return err
	}

	if host, _ := cmd.Flags().GetString("host"); host != "" {
		cfg.HTTP.Host = host
	}
	if port, _ := cmd.Flags().GetInt("port"); port != 0 {
		cfg.HTTP.Port = port
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	deps, err := buildEngine(ctx, cfg, true)
	if err != nil {
		return err
	}
	defer deps.dbManager.Close()

	var dbHealth persistence.RepositoryHealth
	if deps.dbManager != nil {
		dbHealth = deps.dbManager.Health()
	}

	handlers := httpapi.NewHandlers(deps.bus, dbHealth)
	server, err := httpapi.NewServer(httpapi.ServerConfig{
		Host:          cfg.HTTP.Host,
		Port:          cfg.HTTP.Port,
		ReadTimeout:   cfg.HTTP.ReadTimeout,
		WriteTimeout:  cfg.HTTP.WriteTimeout,
		IdleTimeout:   cfg.HTTP.IdleTimeout,
		RatePerSecond: cfg.HTTP.RatePerSecond,
		RateBurst:     cfg.HTTP.RateBurst,
	}, handlers)
	if err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	log.Info().Str("addr", server.Address()).Str("backend", string(cfg.Engine.Backend)).Msg("guardian is serving")

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	deps.bus.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
