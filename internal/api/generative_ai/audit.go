package generativeAI

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// DBPool is the slice of pgxpool.Pool the audit writes need.
type DBPool interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

// InteractionRecord is one completion call as seen by the audit trail.
type InteractionRecord struct {
	EstimateID    uuid.NullUUID
	Caller        string
	Model         string
	PromptChars   int
	ResponseChars int
	Latency       time.Duration
	Success       bool
}

// InteractionRecorder persists completion-call audit rows.
type InteractionRecorder interface {
	RecordInteraction(ctx context.Context, rec InteractionRecord) error
}

// InteractionRecorderImpl stores audit rows in Postgres.
type InteractionRecorderImpl struct {
	logger *slog.Logger
	pgpool DBPool
}

var _ InteractionRecorder = (*InteractionRecorderImpl)(nil)

func NewInteractionRecorder(pgpool DBPool, logger *slog.Logger) *InteractionRecorderImpl {
	return &InteractionRecorderImpl{logger: logger, pgpool: pgpool}
}

func (r *InteractionRecorderImpl) RecordInteraction(ctx context.Context, rec InteractionRecord) error {
	ctx, span := otel.Tracer("InteractionRecorder").Start(ctx, "RecordInteraction")
	defer span.End()
	span.SetAttributes(semconv.DBSystemPostgreSQL)

	_, err := r.pgpool.Exec(ctx, `
        INSERT INTO llm_interactions (id, estimate_id, caller, model_used, prompt_chars, response_chars, latency_ms, success)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		uuid.New(), rec.EstimateID, rec.Caller, rec.Model,
		rec.PromptChars, rec.ResponseChars, rec.Latency.Milliseconds(), rec.Success)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "insert failed")
		return fmt.Errorf("failed to insert llm interaction: %w", err)
	}
	span.SetStatus(codes.Ok, "recorded")
	return nil
}
