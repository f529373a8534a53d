package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"financeiro/internal/cli"
	"financeiro/internal/cloud"
	"financeiro/internal/codec"
	apphttp "financeiro/internal/http"
	"financeiro/internal/ledger"
	"financeiro/internal/persist"
	"financeiro/internal/services"
	"financeiro/internal/storage"
)

func main() {
	logger := cli.SetupLogger()
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig(logger)

	ctx, stop := cli.SignalContext()
	defer stop()

	result := cli.InitBackend(ctx, logger, cfg)

	gateway := persist.NewGateway(
		result.Backend,
		codec.New(cfg.EncryptionKey),
		cloud.NewClient(cfg.SyncToken),
		cfg.SyncDebounce,
	)

	// A sync URL from the environment overrides whatever the store carries,
	// so LoadInitial sees it and performs the startup pull.
	if cfg.SyncURL != "" {
		if err := result.Backend.SetSetting(ctx, storage.KeyCloudURL, cfg.SyncURL); err != nil {
			logger.Error("Failed to seed sync url", "error", err)
			os.Exit(1)
		}
	}

	initial, err := gateway.LoadInitial(ctx)
	if err != nil {
		logger.Error("Failed to load ledger state", "error", err)
		os.Exit(1)
	}

	store := ledger.New(ledger.WithChangeFunc(gateway.HandleChange))
	store.Replace(initial)

	if err := gateway.Start(ctx); err != nil {
		logger.Error("Failed to start persistence gateway", "error", err)
		os.Exit(1)
	}

	service := services.NewFinanceService(store, gateway)
	srv := apphttp.NewServer(":"+cfg.Port, service)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Starting financeiro server",
			"port", cfg.Port,
			"backend", cfg.DataBackend,
			"sync_enabled", gateway.CloudURL() != "")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		// Stop flushes any pending cloud push before the store closes
		if err := gateway.Stop(shutdownCtx); err != nil {
			logger.Error("Persistence gateway stop error", "error", err)
		}
		if result.Cleanup != nil {
			if err := result.Cleanup(); err != nil {
				logger.Error("Backend cleanup error", "error", err)
			}
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server error", "error", err)
		os.Exit(1)
	}
	slog.Info("Server stopped gracefully")
}
