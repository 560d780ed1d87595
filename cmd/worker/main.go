package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/openjurist/enhancer/internal/bootstrap"
	"github.com/openjurist/enhancer/internal/config"
	"github.com/openjurist/enhancer/internal/core/domain"
	excelreport "github.com/openjurist/enhancer/internal/infrastructure/report/excel"
)

func main() {
	cfg := config.Load()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, "enhancer-worker", cfg)
	if err != nil {
		log.Fatalf("bootstrap error: %v", err)
	}
	defer app.Close(context.Background())

	metricsServer := &http.Server{
		Addr:    ":" + cfg.WorkerMetricsPort,
		Handler: app.Metrics.Handler(),
	}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			app.Logger.Error("metrics server failed", "error", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsServer.Shutdown(shutdownCtx)
	}()

	app.Logger.Info("worker subscribed", "subject", cfg.NATSSubject)
	err = app.Queue.SubscribeRunRequests(ctx, func(handlerCtx context.Context, req domain.RunRequest) error {
		runCtx, cancel := context.WithTimeout(handlerCtx, cfg.RunTimeout)
		defer cancel()

		app.Metrics.StartRun()
		started := time.Now()

		report, err := app.Enhancer.EnhanceBatch(runCtx, domain.BatchOptions{
			Limit:        orDefault(req.Limit, cfg.BatchLimit),
			Filters:      domain.SourceFilters{Court: req.Court},
			Strict:       req.Strict || cfg.StrictValidation,
			Workers:      cfg.Workers,
			StageTimeout: cfg.StageTimeout,
		})
		app.Metrics.FinishRun(time.Since(started), err)
		if err != nil {
			return err
		}

		app.Logger.Info("run complete",
			"run_id", report.RunID,
			"attempted", report.DocumentsAttempted,
			"processed", report.DocumentsProcessed,
			"dropped", report.DocumentsDropped,
			"quality_score", report.QualityScore,
			"completeness_score", report.CompletenessScore,
			"errors", report.Summary.ErrorCount,
			"warnings", report.Summary.WarningCount,
		)

		if cfg.XLSXReportPath != "" {
			path := filepath.Join(cfg.XLSXReportPath, "run-"+report.RunID+".xlsx")
			if err := excelreport.Write(report, path); err != nil {
				app.Logger.Warn("write xlsx report", "error", err, "path", path)
			}
		}
		return nil
	})
	if err != nil {
		log.Fatalf("worker subscribe error: %v", err)
	}
}

func orDefault(value, fallback int) int {
	if value > 0 {
		return value
	}
	return fallback
}
