package main

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSetupLoggerDevelopment(t *testing.T) {
	t.Setenv("APP_ENV", "development")

	logger := setupLogger()

	assert.True(t, logger.Enabled(context.Background(), slog.LevelDebug))
	_, isJSON := logger.Handler().(*slog.JSONHandler)
	assert.False(t, isJSON, "development should use the tint handler")
}

func TestSetupLoggerDefaultsToDevelopment(t *testing.T) {
	t.Setenv("APP_ENV", "")

	logger := setupLogger()

	assert.True(t, logger.Enabled(context.Background(), slog.LevelDebug))
}

func TestSetupLoggerProduction(t *testing.T) {
	t.Setenv("APP_ENV", "production")

	logger := setupLogger()

	assert.False(t, logger.Enabled(context.Background(), slog.LevelDebug))
	assert.True(t, logger.Enabled(context.Background(), slog.LevelInfo))
	_, isJSON := logger.Handler().(*slog.JSONHandler)
	assert.True(t, isJSON, "production should log JSON")
}
