// fatura-worker consumes purchase export and delete messages from AMQP and
// mirrors them into the Google Sheets ledger.
package main

import (
	"context"
	"errors"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"fatura/internal/amqp"
	"fatura/internal/cli"
	applog "fatura/internal/log"
	"fatura/internal/sheets"
	gsheet "fatura/internal/sheets/google"
	"fatura/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(applog.ComponentWorker)
	cfg := cli.LoadAndValidateConfig(logger)

	if !cfg.ExportEnabled() {
		logger.Error("AMQP_URL is required for the export worker")
		os.Exit(1)
	}

	storeRes := cli.InitStore(logger, cfg)
	defer func() {
		if err := storeRes.Close(); err != nil {
			logger.Error("Store close error", applog.FieldError, err)
		}
	}()

	var (
		writer  sheets.LedgerWriter
		deleter sheets.LedgerDeleter
	)
	if cfg.GoogleSpreadsheetID != "" {
		client, err := gsheet.NewFromEnv(context.Background())
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client", applog.FieldError, err)
			os.Exit(1)
		}
		writer, deleter = client, client
		logger.Info("Google Sheets ledger initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	} else {
		logger.Error("GOOGLE_SPREADSHEET_ID is required for the export worker")
		os.Exit(1)
	}

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPExportQueue, cfg.AMQPDeleteQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", applog.FieldError, err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	exportWorker := worker.NewExportWorker(storeRes.Store, writer, deleter)

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, nil)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return amqpClient.ConsumePurchaseExports(gctx, func(msg *amqp.PurchaseExportMessage) error {
			return exportWorker.HandleExportMessage(gctx, msg)
		})
	})
	g.Go(func() error {
		return amqpClient.ConsumePurchaseDeletes(gctx, func(msg *amqp.PurchaseDeleteMessage) error {
			return exportWorker.HandleDeleteMessage(gctx, msg)
		})
	})

	logger.Info("Export worker started",
		"export_queue", cfg.AMQPExportQueue,
		"delete_queue", cfg.AMQPDeleteQueue)

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Message consumption failed", applog.FieldError, err)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Export worker stopped gracefully")
}
