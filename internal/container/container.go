package container

import (
	"context"
	"log/slog"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"

	database "github.com/curatrip/curatrip-server/app/db"
	"github.com/curatrip/curatrip-server/app/observability/metrics"
	"github.com/curatrip/curatrip-server/config"
	"github.com/curatrip/curatrip-server/internal/api/catalog"
	"github.com/curatrip/curatrip-server/internal/api/conversation"
	generativeAI "github.com/curatrip/curatrip-server/internal/api/generative_ai"
	"github.com/curatrip/curatrip-server/internal/api/intent"
	"github.com/curatrip/curatrip-server/internal/api/itinerary"
	"github.com/curatrip/curatrip-server/internal/api/match"
	"github.com/curatrip/curatrip-server/internal/api/mutation"
	"github.com/curatrip/curatrip-server/internal/api/sourcing"
)

// Container holds all application dependencies.
type Container struct {
	Config  *config.Config
	Logger  *slog.Logger
	Pool    *pgxpool.Pool
	Metrics *metrics.AppMetrics

	ConversationHandler *conversation.Handler
	MutationHandler     *mutation.Handler
	ItineraryHandler    *itinerary.Handler
}

// NewContainer initializes the full dependency graph: pool, AI client,
// repositories, services, handlers.
func NewContainer(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Container, error) {
	dbConfig, err := database.NewDatabaseConfig(cfg, logger)
	if err != nil {
		logger.Error("Failed to generate database config", slog.Any("error", err))
		return nil, err
	}

	pool, err := database.Init(dbConfig.ConnectionURL, logger)
	if err != nil {
		logger.Error("Failed to initialize database pool", slog.Any("error", err))
		return nil, err
	}

	metrics.InitAppMetrics()
	appMetrics := metrics.Get()

	catalogRepo := catalog.NewRepository(pool, cfg.Matching.CatalogQueryTimeout, logger)
	itineraryRepo := itinerary.NewRepository(pool, logger)

	// Every completion call is audited to llm_interactions through the recorder.
	recorder := generativeAI.NewInteractionRecorder(pool, logger)
	aiClient, err := generativeAI.NewAIClient(ctx, generativeAI.Config{
		APIKey:      os.Getenv("GEMINI_API_KEY"),
		Model:       cfg.LLM.Model,
		Temperature: cfg.LLM.Temperature,
		CallTimeout: cfg.LLM.CallTimeout,
	}, logger, recorder, appMetrics)
	if err != nil {
		pool.Close()
		logger.Error("Failed to initialize AI client", slog.Any("error", err))
		return nil, err
	}

	matchService := match.NewService(catalogRepo, appMetrics, logger)
	sourcingService := sourcing.NewService(catalogRepo, appMetrics, logger)
	intentService := intent.NewService(aiClient, logger)
	itineraryService := itinerary.NewService(itineraryRepo, logger)
	mutationService := mutation.NewService(itineraryRepo, matchService, sourcingService, intentService, aiClient, appMetrics, logger, nil)
	conversationService := conversation.NewService(itineraryRepo, mutationService, aiClient, appMetrics, logger)

	return &Container{
		Config:              cfg,
		Logger:              logger,
		Pool:                pool,
		Metrics:             appMetrics,
		ConversationHandler: conversation.NewHandler(conversationService, logger),
		MutationHandler:     mutation.NewHandler(mutationService, itineraryService, logger),
		ItineraryHandler:    itinerary.NewHandler(itineraryService, logger),
	}, nil
}

// Close releases all resources held by the container.
func (c *Container) Close() {
	if c.Pool != nil {
		c.Pool.Close()
	}
}

// WaitForDB waits for the database to be ready.
func (c *Container) WaitForDB(ctx context.Context) bool {
	return database.WaitForDB(ctx, c.Pool, c.Logger)
}

// RunMigrations runs database migrations.
func (c *Container) RunMigrations(connectionURL string) error {
	return database.RunMigrations(connectionURL, c.Logger)
}
