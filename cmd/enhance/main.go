// Command enhance runs one enhancement batch from the terminal, or enqueues a
// run request for the workers instead of executing it in-process.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/openjurist/enhancer/internal/bootstrap"
	"github.com/openjurist/enhancer/internal/config"
	"github.com/openjurist/enhancer/internal/core/domain"
	natsqueue "github.com/openjurist/enhancer/internal/infrastructure/queue/nats"
	excelreport "github.com/openjurist/enhancer/internal/infrastructure/report/excel"
)

func main() {
	var (
		limit   = flag.Int("limit", 0, "maximum documents to fetch (0 uses the configured default)")
		court   = flag.String("court", "", "restrict the batch to one court id")
		strict  = flag.Bool("strict", false, "drop documents that fail validation instead of flagging them")
		enqueue = flag.Bool("enqueue", false, "publish the run request to the worker queue instead of running locally")
		xlsx    = flag.String("xlsx", "", "write the run report as an XLSX workbook to this path")
	)
	flag.Parse()

	cfg := config.Load()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	req := domain.RunRequest{
		Limit:  *limit,
		Court:  *court,
		Strict: *strict,
	}

	if *enqueue {
		queue, err := natsqueue.New(cfg.NATSURL, cfg.NATSSubject)
		if err != nil {
			log.Fatalf("connect queue: %v", err)
		}
		defer queue.Close()

		if err := queue.PublishRunRequest(ctx, req); err != nil {
			log.Fatalf("enqueue run request: %v", err)
		}
		log.Printf("run request published to %s", cfg.NATSSubject)
		return
	}

	app, err := bootstrap.New(ctx, "enhancer-cli", cfg)
	if err != nil {
		log.Fatalf("bootstrap error: %v", err)
	}
	defer app.Close(context.Background())

	runCtx, cancel := context.WithTimeout(ctx, cfg.RunTimeout)
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
		log.Fatalf("batch run failed: %v", err)
	}

	if *xlsx != "" {
		if err := excelreport.Write(report, *xlsx); err != nil {
			log.Fatalf("write xlsx report: %v", err)
		}
		log.Printf("report written to %s", *xlsx)
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(report); err != nil {
		log.Fatalf("encode report: %v", err)
	}
}

func orDefault(value, fallback int) int {
	if value > 0 {
		return value
	}
	return fallback
}
