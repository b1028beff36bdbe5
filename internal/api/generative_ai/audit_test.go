package generativeAI

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordInteraction(t *testing.T) {
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	t.Run("Inserts one audit row", func(t *testing.T) {
		pool, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer pool.Close()

		estimateID := uuid.NullUUID{UUID: uuid.New(), Valid: true}
		pool.ExpectExec("INSERT INTO llm_interactions").
			WithArgs(pgxmock.AnyArg(), estimateID, "intent_resolver", "gemini-2.0-flash", 420, 96, int64(125), true).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))

		rec := NewInteractionRecorder(pool, logger)
		err = rec.RecordInteraction(ctx, InteractionRecord{
			EstimateID:    estimateID,
			Caller:        "intent_resolver",
			Model:         "gemini-2.0-flash",
			PromptChars:   420,
			ResponseChars: 96,
			Latency:       125 * time.Millisecond,
			Success:       true,
		})
		require.NoError(t, err)
		assert.NoError(t, pool.ExpectationsWereMet())
	})

	t.Run("Insert failure propagates", func(t *testing.T) {
		pool, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer pool.Close()

		pool.ExpectExec("INSERT INTO llm_interactions").
			WillReturnError(assert.AnError)

		rec := NewInteractionRecorder(pool, logger)
		err = rec.RecordInteraction(ctx, InteractionRecord{Caller: "ranking"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to insert llm interaction")
	})
}

func TestNewAIClientValidation(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	t.Run("Missing API key rejected", func(t *testing.T) {
		_, err := NewAIClient(context.Background(), Config{}, logger, nil, nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "api key")
	})
}
