// Package bootstrap wires configuration, infrastructure adapters and the
// enhancement pipeline into a runnable application.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/time/rate"

	"github.com/openjurist/enhancer/internal/config"
	"github.com/openjurist/enhancer/internal/core/usecase"
	citegraph "github.com/openjurist/enhancer/internal/infrastructure/citegraph/neo4j"
	"github.com/openjurist/enhancer/internal/infrastructure/extraction/legalnlp"
	"github.com/openjurist/enhancer/internal/infrastructure/extractor/pdftext"
	bleveindex "github.com/openjurist/enhancer/internal/infrastructure/index/bleve"
	natsqueue "github.com/openjurist/enhancer/internal/infrastructure/queue/nats"
	"github.com/openjurist/enhancer/internal/infrastructure/repository/postgres"
	"github.com/openjurist/enhancer/internal/infrastructure/resilience"
	"github.com/openjurist/enhancer/internal/infrastructure/source/courtlistener"
	"github.com/openjurist/enhancer/internal/observability/logging"
	"github.com/openjurist/enhancer/internal/observability/metrics"
)

type App struct {
	Config   config.Config
	Logger   *slog.Logger
	Metrics  *metrics.PipelineMetrics
	Queue    *natsqueue.Queue
	Enhancer *usecase.EnhanceBatchUseCase

	closers []func(context.Context) error
}

// New builds the full application graph for the given service name. The
// citation graph is optional and only wired when a Neo4j URI is configured.
func New(ctx context.Context, service string, cfg config.Config) (*App, error) {
	logger := logging.NewJSONLogger(service, cfg.LogLevel)

	policy, err := config.LoadPolicy(cfg.PolicyPath)
	if err != nil {
		return nil, fmt.Errorf("load policy: %w", err)
	}

	app := &App{
		Config:  cfg,
		Logger:  logger,
		Metrics: metrics.NewPipelineMetrics(service),
	}

	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	app.closers = append(app.closers, func(context.Context) error { return db.Close() })

	store := postgres.NewOpinionRepository(db)
	if err := store.EnsureSchema(ctx); err != nil {
		app.close(ctx)
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	index, err := bleveindex.New(cfg.BleveIndexPath)
	if err != nil {
		app.close(ctx)
		return nil, fmt.Errorf("open search index: %w", err)
	}
	app.closers = append(app.closers, func(context.Context) error { return index.Close() })

	executor := resilience.NewExecutor(resilience.DefaultConfig(), logger)

	queue, err := natsqueue.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, natsqueue.Options{
		Executor: executor,
	})
	if err != nil {
		app.close(ctx)
		return nil, fmt.Errorf("connect queue: %w", err)
	}
	app.Queue = queue
	app.closers = append(app.closers, func(context.Context) error {
		queue.Close()
		return nil
	})

	deps := usecase.EnhancerDeps{
		Source: courtlistener.New(cfg.SourceBaseURL, courtlistener.Options{
			Token:     cfg.SourceToken,
			PageSize:  cfg.SourcePageSize,
			RateLimit: rate.Limit(cfg.SourceRateLimit),
			Executor:  executor,
			PDF:       pdftext.New(),
		}),
		Courts:    legalnlp.NewCourtResolver(),
		Citations: legalnlp.NewCitationExtractor(),
		Reporters: legalnlp.NewReporterNormalizer(),
		Judges:    legalnlp.NewJudgeIdentifier(),
		Structure: legalnlp.NewStructureAnalyzer(),
		Keywords:  legalnlp.NewKeywordExtractor(),
		Store:     store,
		Index:     index,
		Classifier: usecase.NewClassifier(usecase.ClassifierThresholds{
			OpinionMinContent: policy.Classifier.OpinionMinContent,
			OrderMinContent:   policy.Classifier.OrderMinContent,
		}),
		Routing: usecase.NewAdaptiveRouting(usecase.RoutingRules{
			KeywordMinContent: policy.Routing.KeywordMinContent,
		}),
		Scoring:  usecase.NewCategoryScoring(scoreWeights(policy.Scoring)),
		Observer: app.Metrics,
		Logger:   logger,
	}

	if cfg.Neo4jURI != "" {
		graph, err := citegraph.New(ctx, cfg.Neo4jURI, cfg.Neo4jUser, cfg.Neo4jPassword)
		if err != nil {
			app.close(ctx)
			return nil, fmt.Errorf("connect citation graph: %w", err)
		}
		deps.Graph = graph
		app.closers = append(app.closers, graph.Close)
	}

	app.Enhancer = usecase.NewEnhanceBatchUseCase(deps)
	return app, nil
}

// Close releases adapters in reverse construction order.
func (a *App) Close(ctx context.Context) {
	a.close(ctx)
}

func (a *App) close(ctx context.Context) {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			a.Logger.Warn("close resource", "error", err)
		}
	}
	a.closers = nil
}

// scoreWeights overlays the configured weights on the defaults so a policy
// file may override a single weight without zeroing the rest.
func scoreWeights(p config.ScoringPolicy) usecase.ScoreWeights {
	w := usecase.DefaultScoreWeights()
	overlay(&w.OpinionCourt, p.Opinion.Court)
	overlay(&w.OpinionPerCitation, p.Opinion.PerCitation)
	overlay(&w.OpinionCitationCap, p.Opinion.CitationCap)
	overlay(&w.OpinionJudge, p.Opinion.Judge)
	overlay(&w.OpinionStructure, p.Opinion.Structure)
	overlay(&w.OpinionKeywords, p.Opinion.Keywords)
	overlay(&w.MetadataCourt, p.Metadata.Court)
	overlay(&w.MetadataJudge, p.Metadata.Judge)
	overlay(&w.MetadataCompleteness, p.Metadata.Completeness)
	overlay(&w.FlatBaseline, p.FlatBaseline)
	return w
}

func overlay(dst *float64, value float64) {
	if value > 0 {
		*dst = value
	}
}
