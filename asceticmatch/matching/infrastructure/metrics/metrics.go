package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/krew-solutions/ascetic-match-go/asceticmatch/matching/domain/query"
)

const (
	namespace = "matchq"

	ResultMatched = "matched"
	ResultFailed  = "failed"
	ResultError   = "error"

	failuresMetric = namespace + "_failures_total"
	operatorLabel  = "operator"
)

// Metrics holds the collectors shared by instrumented matchers.
type Metrics struct {
	// Evaluations counts evaluated records by result.
	Evaluations *prometheus.CounterVec
	// Failures counts failed records by the operator reported first.
	Failures *prometheus.CounterVec
	// Duration is the evaluation latency of a single record.
	Duration prometheus.Histogram
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Evaluations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "matches_total",
				Help:      "Total number of evaluated records",
			},
			[]string{"result"},
		),
		Failures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "failures_total",
				Help:      "Total number of non-matching records by failing operator",
			},
			[]string{operatorLabel},
		),
		Duration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "evaluation_duration_seconds",
				Help:      "Evaluation latency of a single record in seconds",
				Buckets:   prometheus.ExponentialBuckets(1e-6, 4, 10),
			},
		),
	}
}

// InstrumentedMatcher wraps a matcher and records every evaluation.
type InstrumentedMatcher struct {
	matcher *query.Matcher
	metrics *Metrics
}

func NewInstrumentedMatcher(matcher *query.Matcher, metrics *Metrics) *InstrumentedMatcher {
	return &InstrumentedMatcher{
		matcher: matcher,
		metrics: metrics,
	}
}

func (m *InstrumentedMatcher) Match(record any) (bool, error) {
	result, err := m.Explain(record)
	if err != nil {
		return false, err
	}
	return result.Matched, nil
}

func (m *InstrumentedMatcher) Explain(record any) (query.ExplainResult, error) {
	start := time.Now()
	result, err := m.matcher.Explain(record)
	m.metrics.Duration.Observe(time.Since(start).Seconds())

	switch {
	case err != nil:
		m.metrics.Evaluations.WithLabelValues(ResultError).Inc()
	case result.Matched:
		m.metrics.Evaluations.WithLabelValues(ResultMatched).Inc()
	default:
		m.metrics.Evaluations.WithLabelValues(ResultFailed).Inc()
		m.metrics.Failures.WithLabelValues(result.Failure.Operator).Inc()
	}
	return result, err
}

// FailureCounts reads the failure counters back from g, keyed by operator.
func FailureCounts(g prometheus.Gatherer) (map[string]float64, error) {
	families, err := g.Gather()
	if err != nil {
		return nil, err
	}
	counts := map[string]float64{}
	for _, family := range families {
		if family.GetName() != failuresMetric {
			continue
		}
		for _, metric := range family.GetMetric() {
			for _, label := range metric.GetLabel() {
				if label.GetName() == operatorLabel {
					counts[label.GetValue()] += metric.GetCounter().GetValue()
				}
			}
		}
	}
	return counts, nil
}
