// subscription-worker materializes due subscription charges on a fixed
// interval: cardless subscriptions become real purchases, card-billed ones
// only record their charge date since invoices count them directly.
package main

import (
	"time"

	"fatura/internal/amqp"
	"fatura/internal/billing"
	"fatura/internal/cli"
	applog "fatura/internal/log"
	"fatura/internal/services"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(applog.ComponentWorker)
	cfg := cli.LoadAndValidateConfig(logger)

	storeRes := cli.InitStore(logger, cfg)
	defer func() {
		if err := storeRes.Close(); err != nil {
			logger.Error("Store close error", applog.FieldError, err)
		}
	}()

	var publisher services.ExportPublisher
	if cfg.ExportEnabled() {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPExportQueue, cfg.AMQPDeleteQueue)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, charges will not be exported", applog.FieldError, err)
		} else {
			publisher = client
			defer client.Close()
		}
	}

	engine := billing.NewEngine(storeRes.Store)
	ledger := services.NewLedgerService(engine, storeRes.Store, publisher)
	processor := services.NewSubscriptionProcessor(storeRes.Store, ledger)

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, nil)

	logger.Info("Subscription processor configured",
		"interval", cfg.SubscriptionInterval,
		"backend", cfg.DataBackend)

	run := func(now time.Time) {
		count, err := processor.ProcessDue(ctx)
		if err != nil {
			logger.Error("Subscription processing failed", applog.FieldError, err)
			return
		}
		logger.Info("Subscription processing complete",
			"charges_created", count,
			"next_check", now.Add(cfg.SubscriptionInterval).Format("15:04:05"))
	}

	// Process once on startup so a restart never delays due charges by a
	// full interval.
	run(time.Now())

	ticker := time.NewTicker(cfg.SubscriptionInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			cli.WaitForShutdown(ctx, done)
			logger.Info("Subscription worker stopped gracefully")
			return
		case now := <-ticker.C:
			run(now)
		}
	}
}
