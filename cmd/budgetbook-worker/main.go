package main

import (
	"context"
	"os"
	"time"

	"budgetbook/internal/amqp"
	"budgetbook/internal/cli"
	"budgetbook/internal/sheets"
	gsheet "budgetbook/internal/sheets/google"
	"budgetbook/internal/worker"
)

func main() {
	cli.LoadEnvFile()

	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"))
	logger.Info("Starting budgetbook-worker")

	cfg := cli.LoadAndValidateConfig(logger)

	// The worker only reads the ledger; it consumes events instead of publishing them.
	readCfg := *cfg
	readCfg.AMQPURL = ""
	res := cli.InitBackend(context.Background(), logger, &readCfg)
	cleanup := func() {
		if err := res.Cleanup(); err != nil {
			logger.Error("Backend cleanup error", "error", err)
		}
	}

	// Mirror reports to Google Sheets (optional)
	var sink sheets.ReportSink
	if cfg.SheetsEnabled() {
		client, err := gsheet.NewFromEnv(context.Background())
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client", "error", err)
			cleanup()
			os.Exit(1)
		}
		sink = client
		logger.Info("Google Sheets client initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	} else {
		logger.Info("Google Sheets disabled - no GOOGLE_SPREADSHEET_ID provided")
	}

	var consumer worker.Consumer
	if cfg.AMQPEnabled() {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", "error", err)
			cleanup()
			os.Exit(1)
		}
		consumer = client
		prev := cleanup
		cleanup = func() {
			_ = client.Close()
			prev()
		}
		logger.Info("Consuming ledger events", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	} else {
		logger.Info("AMQP disabled - relying on periodic refresh only")
	}

	if consumer == nil && cfg.RefreshInterval <= 0 {
		logger.Error("Nothing to do: AMQP is disabled and REFRESH_INTERVAL is 0")
		cleanup()
		os.Exit(1)
	}

	w := worker.NewAlertWorker(res.Ledger, sink, cfg.AlertThresholdPct)

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, nil)

	if err := w.Run(ctx, consumer, cfg.RefreshInterval); err != nil {
		logger.Error("Worker stopped with error", "error", err)
		cleanup()
		os.Exit(1)
	}
	cleanup()

	cli.WaitForShutdown(ctx, done)
	logger.Info("Worker shutdown complete")
}
