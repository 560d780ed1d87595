package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/openjurist/enhancer/internal/core/domain"
)

// PipelineMetrics instruments batch runs and individual stage executions.
// It implements the orchestrator's StageObserver contract.
type PipelineMetrics struct {
	registry    *prometheus.Registry
	serviceName string

	documentsTotal *prometheus.CounterVec
	documentScore  *prometheus.HistogramVec
	stageTotal     *prometheus.CounterVec
	stageDuration  *prometheus.HistogramVec
	runsInFlight   prometheus.Gauge
	runDuration    *prometheus.HistogramVec
}

func NewPipelineMetrics(service string) *PipelineMetrics {
	registry := prometheus.NewRegistry()

	documentsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "enhancer",
			Subsystem: "pipeline",
			Name:      "documents_total",
			Help:      "Enhanced documents by category.",
		},
		[]string{"service", "category"},
	)
	documentScore := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "enhancer",
			Subsystem: "pipeline",
			Name:      "document_quality_score",
			Help:      "Quality score distribution by category.",
			Buckets:   []float64{10, 20, 30, 40, 50, 60, 70, 80, 90, 100},
		},
		[]string{"service", "category"},
	)
	stageTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "enhancer",
			Subsystem: "pipeline",
			Name:      "stage_total",
			Help:      "Stage executions by stage and outcome.",
		},
		[]string{"service", "stage", "outcome"},
	)
	stageDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "enhancer",
			Subsystem: "pipeline",
			Name:      "stage_duration_seconds",
			Help:      "Stage execution duration by stage and outcome.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "stage", "outcome"},
	)
	runsInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "enhancer",
			Subsystem: "pipeline",
			Name:      "runs_in_flight",
			Help:      "Number of batch runs currently executing.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	runDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "enhancer",
			Subsystem: "pipeline",
			Name:      "run_duration_seconds",
			Help:      "Batch run duration by status.",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600, 1800},
		},
		[]string{"service", "status"},
	)

	registry.MustRegister(documentsTotal, documentScore, stageTotal, stageDuration, runsInFlight, runDuration)

	return &PipelineMetrics{
		registry:       registry,
		serviceName:    service,
		documentsTotal: documentsTotal,
		documentScore:  documentScore,
		stageTotal:     stageTotal,
		stageDuration:  stageDuration,
		runsInFlight:   runsInFlight,
		runDuration:    runDuration,
	}
}

func (m *PipelineMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *PipelineMetrics) service() string {
	return m.serviceName
}

func (m *PipelineMetrics) ObserveStage(stage domain.StageName, outcome string, duration time.Duration) {
	m.stageTotal.WithLabelValues(m.service(), string(stage), outcome).Inc()
	if outcome != "skipped" {
		m.stageDuration.WithLabelValues(m.service(), string(stage), outcome).Observe(duration.Seconds())
	}
}

func (m *PipelineMetrics) ObserveDocument(category domain.Category, score float64) {
	m.documentsTotal.WithLabelValues(m.service(), string(category)).Inc()
	m.documentScore.WithLabelValues(m.service(), string(category)).Observe(score)
}

func (m *PipelineMetrics) StartRun() {
	m.runsInFlight.Inc()
}

func (m *PipelineMetrics) FinishRun(duration time.Duration, err error) {
	m.runsInFlight.Dec()
	status := "success"
	if err != nil {
		status = "error"
	}
	m.runDuration.WithLabelValues(m.service(), status).Observe(duration.Seconds())
}
