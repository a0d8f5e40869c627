package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"stellar-server/internal/config"
	"stellar-server/internal/game"
	"stellar-server/internal/logging"
	"stellar-server/internal/server"
	"stellar-server/internal/sim"
	"stellar-server/internal/stats"
	"stellar-server/internal/telemetry"
)

const shutdownTimeout = 5 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the game server",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(envDir)
	if err != nil {
		return err
	}

	log, closeLog := logging.New(logging.Options{
		Dir:    cfg.LogDir,
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
	})
	defer closeLog()
	zap.ReplaceGlobals(log)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.Setup(ctx, "stellar-server", cfg.OtelURL)
	if err != nil {
		log.Warn("tracing disabled", zap.Error(err))
	} else {
		defer shutdownTracing(context.Background())
	}

	var recorder *stats.Recorder
	engineOpts := game.Options{Log: log, Grace: cfg.RetainGrace}
	if cfg.StatsDB != "" {
		db, err := stats.OpenDB(cfg.StatsDB)
		if err != nil {
			log.Warn("stats disabled", zap.String("path", cfg.StatsDB), zap.Error(err))
		} else {
			defer db.Close()
			recorder = stats.NewRecorder(db, log)
			defer recorder.Stop()
			engineOpts.Stats = recorder
		}
	}

	engine := game.New(engineOpts)
	srv := server.New(engine, server.Options{
		WebDir:    cfg.WebDir,
		PostLimit: cfg.PostLimit,
		PublicURL: cfg.PublicURL,
		Tokens:    server.NewTokens(cfg.TokenSecret),
		Stats:     recorder,
		Log:       log,
	})

	go sim.New(engine, log).Run(ctx)
	go srv.Run(ctx)

	httpServer := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           srv.Routes(ctx),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server starting", zap.String("addr", httpServer.Addr), zap.String("web_dir", cfg.WebDir))
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
	case <-ctx.Done():
		log.Info("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Warn("http shutdown", zap.Error(err))
	}
	return nil
}
