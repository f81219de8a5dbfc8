package corrector

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

var (
	tracer = otel.Tracer("ngramcorrector.corrector")
	meter  = otel.Meter("ngramcorrector.corrector")
)

var (
	suggestionsTotal metric.Int64Counter
	appliedTotal     metric.Int64Counter
	truncationsTotal metric.Int64Counter

	metricsOnce sync.Once
	metricsErr  error
)

// initMetrics initializes the metrics. Safe to call multiple times.
func initMetrics() error {
	metricsOnce.Do(func() {
		var err error

		suggestionsTotal, err = meter.Int64Counter(
			"corrector_suggestions_total",
			metric.WithDescription("Suggestions accepted by the merger or the lexicon"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		appliedTotal, err = meter.Int64Counter(
			"corrector_applied_total",
			metric.WithDescription("Changes applied to documents"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		truncationsTotal, err = meter.Int64Counter(
			"corrector_phonetic_truncations_total",
			metric.WithDescription("Phonetic cross-products cut short by the combination limit"),
		)
		if err != nil {
			metricsErr = err
			return
		}
	})
	return metricsErr
}

func recordSuggestions(ctx context.Context, phase Phase, n int) {
	if n == 0 || initMetrics() != nil {
		return
	}
	suggestionsTotal.Add(ctx, int64(n), metric.WithAttributes(attribute.String("phase", phase.String())))
}

func recordApplied(ctx context.Context, phase Phase, n int) {
	if n == 0 || initMetrics() != nil {
		return
	}
	appliedTotal.Add(ctx, int64(n), metric.WithAttributes(attribute.String("phase", phase.String())))
}

func recordTruncation(ctx context.Context, order int) {
	if initMetrics() != nil {
		return
	}
	truncationsTotal.Add(ctx, 1, metric.WithAttributes(attribute.Int("ngram.order", order)))
}

func startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return tracer.Start(ctx, "Corrector."+name, trace.WithAttributes(attrs...))
}

func spanError(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}
