package metrics

import (
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

const namespace = "normalize"

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	stageDuration  *prom.HistogramVec
	runDuration    prom.Histogram
	stageResults   *prom.CounterVec
	runOutcome     *prom.CounterVec
	bringups       *prom.CounterVec
	stepDuration   *prom.HistogramVec
	exampleOutcome *prom.CounterVec
	reviewRetries  *prom.CounterVec
}

// NewPrometheusRecorder constructs and registers Prometheus metrics on reg.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		stageDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Duration of individual pipeline stages",
			Buckets:   prom.DefBuckets,
		}, []string{"stage"}),
		runDuration: prom.NewHistogram(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Total run duration",
			Buckets:   prom.DefBuckets,
		}),
		stageResults: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "stage_results_total",
			Help:      "Stage result counts by outcome",
		}, []string{"stage", "result"}),
		runOutcome: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "run_outcomes_total",
			Help:      "Run outcomes by final status",
		}, []string{"outcome"}),
		bringups: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "bringups_total",
			Help:      "Bringup requests by whether the cached record was reused",
		}, []string{"cached"}),
		stepDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "bringup_step_duration_seconds",
			Help:      "Duration of individual bringup steps",
			Buckets:   prom.ExponentialBuckets(0.05, 2, 12),
		}, []string{"result"}),
		exampleOutcome: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "example_outcomes_total",
			Help:      "Usage example outcomes",
		}, []string{"outcome"}),
		reviewRetries: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "review_retries_total",
			Help:      "Review requests retried after rate limiting",
		}, []string{"provider"}),
	}
	reg.MustRegister(pr.stageDuration, pr.runDuration, pr.stageResults, pr.runOutcome,
		pr.bringups, pr.stepDuration, pr.exampleOutcome, pr.reviewRetries)
	return pr
}

func (p *PrometheusRecorder) ObserveStageDuration(stage string, d time.Duration) {
	if p == nil || p.stageDuration == nil {
		return
	}
	p.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

func (p *PrometheusRecorder) ObserveRunDuration(d time.Duration) {
	if p == nil || p.runDuration == nil {
		return
	}
	p.runDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncStageResult(stage string, result ResultLabel) {
	if p == nil || p.stageResults == nil {
		return
	}
	p.stageResults.WithLabelValues(stage, string(result)).Inc()
}

func (p *PrometheusRecorder) IncRunOutcome(outcome string) {
	if p == nil || p.runOutcome == nil {
		return
	}
	p.runOutcome.WithLabelValues(outcome).Inc()
}

func (p *PrometheusRecorder) IncBringup(cached bool) {
	if p == nil || p.bringups == nil {
		return
	}
	label := "false"
	if cached {
		label = "true"
	}
	p.bringups.WithLabelValues(label).Inc()
}

func (p *PrometheusRecorder) ObserveStepDuration(d time.Duration, success bool) {
	if p == nil || p.stepDuration == nil {
		return
	}
	res := string(ResultFailed)
	if success {
		res = string(ResultSuccess)
	}
	p.stepDuration.WithLabelValues(res).Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncExampleOutcome(outcome string) {
	if p == nil || p.exampleOutcome == nil {
		return
	}
	p.exampleOutcome.WithLabelValues(outcome).Inc()
}

func (p *PrometheusRecorder) IncReviewRetry(provider string) {
	if p == nil || p.reviewRetries == nil {
		return
	}
	p.reviewRetries.WithLabelValues(provider).Inc()
}
