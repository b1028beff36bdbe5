package metrics

import (
	"context"
	"log"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// AppMetrics holds the application's metric instruments. Fields are public
// so callers can attach their own attribute sets when the helpers below are
// too coarse.
type AppMetrics struct {
	ChatRequestsTotal      metric.Int64Counter
	ModificationsTotal     metric.Int64Counter
	MatchResultsTotal      metric.Int64Counter
	LlmCallDurationSeconds metric.Float64Histogram
	CandidatePoolSize      metric.Int64Histogram
}

var (
	appMetrics *AppMetrics
	once       sync.Once
)

// InitAppMetrics initializes the global metric instruments exactly once,
// using the meter from the globally configured MeterProvider.
func InitAppMetrics() {
	once.Do(func() {
		meter := otel.GetMeterProvider().Meter("curatrip-server")
		var err error
		m := &AppMetrics{}

		m.ChatRequestsTotal, err = meter.Int64Counter(
			"chat_requests_total",
			metric.WithDescription("Total chat requests handled, by classified intent"),
			metric.WithUnit("{request}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create chat_requests_total: %v", err)
		}

		m.ModificationsTotal, err = meter.Int64Counter(
			"itinerary_modifications_total",
			metric.WithDescription("Total itinerary mutations executed, by action and outcome"),
			metric.WithUnit("{mutation}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create itinerary_modifications_total: %v", err)
		}

		m.MatchResultsTotal, err = meter.Int64Counter(
			"place_match_results_total",
			metric.WithDescription("Place match results, by resolving tier"),
			metric.WithUnit("{match}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create place_match_results_total: %v", err)
		}

		m.LlmCallDurationSeconds, err = meter.Float64Histogram(
			"llm_call_duration_seconds",
			metric.WithDescription("Duration of completion calls, by caller"),
			metric.WithUnit("s"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create llm_call_duration_seconds: %v", err)
		}

		m.CandidatePoolSize, err = meter.Int64Histogram(
			"candidate_pool_size",
			metric.WithDescription("Size of the sourced candidate pool, by cascade step"),
			metric.WithUnit("{place}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create candidate_pool_size: %v", err)
		}

		log.Println("Application metrics instruments initialized.")
		appMetrics = m
	})
}

// Get returns the globally initialized AppMetrics instance.
// Panics if InitAppMetrics was not called first.
func Get() *AppMetrics {
	if appMetrics == nil {
		panic("metrics instruments not initialized. Call metrics.InitAppMetrics() first.")
	}
	return appMetrics
}

// The helpers below treat a nil receiver as a no-op recorder.

func (m *AppMetrics) RecordChatRequest(ctx context.Context, intent string) {
	if m == nil {
		return
	}
	m.ChatRequestsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("intent", intent)))
}

func (m *AppMetrics) RecordModification(ctx context.Context, action string, success bool) {
	if m == nil {
		return
	}
	m.ModificationsTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("action", action),
		attribute.Bool("success", success),
	))
}

func (m *AppMetrics) RecordMatchTier(ctx context.Context, tier string) {
	if m == nil {
		return
	}
	m.MatchResultsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("tier", tier)))
}

func (m *AppMetrics) RecordLlmCall(ctx context.Context, caller string, duration time.Duration, success bool) {
	if m == nil {
		return
	}
	m.LlmCallDurationSeconds.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String("caller", caller),
		attribute.Bool("success", success),
	))
}

func (m *AppMetrics) RecordCandidatePool(ctx context.Context, step string, size int) {
	if m == nil {
		return
	}
	m.CandidatePoolSize.Record(ctx, int64(size), metric.WithAttributes(attribute.String("step", step)))
}
