package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"fatura/internal/amqp"
	"fatura/internal/billing"
	"fatura/internal/cli"
	apphttp "fatura/internal/http"
	applog "fatura/internal/log"
	"fatura/internal/services"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(applog.ComponentApp)
	cfg := cli.LoadAndValidateConfig(logger)

	storeRes := cli.InitStore(logger, cfg)

	// AMQP publication is optional; without it purchases are stored but
	// never exported to the ledger.
	var publisher services.ExportPublisher
	if cfg.ExportEnabled() {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPExportQueue, cfg.AMQPDeleteQueue)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, continuing without ledger export", applog.FieldError, err)
		} else {
			publisher = client
			logger.Info("AMQP client initialized",
				"exchange", cfg.AMQPExchange,
				"export_queue", cfg.AMQPExportQueue,
				"delete_queue", cfg.AMQPDeleteQueue)
		}
	} else {
		logger.Info("AMQP disabled, purchases will not be exported")
	}

	engine := billing.NewEngine(storeRes.Store)
	ledger := services.NewLedgerService(engine, storeRes.Store, publisher)

	srv := apphttp.NewServer(":"+cfg.Port, ledger, engine, storeRes.Store)
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 10 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", applog.FieldError, err)
		}
		if err := ledger.Close(); err != nil {
			logger.Error("Ledger service close error", applog.FieldError, err)
		}
		if err := storeRes.Close(); err != nil {
			logger.Error("Store close error", applog.FieldError, err)
		}
	})

	logger.Info("Starting fatura server", "port", cfg.Port, "backend", cfg.DataBackend)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", applog.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
