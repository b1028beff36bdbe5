package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	database "github.com/curatrip/curatrip-server/app/db"
	"github.com/curatrip/curatrip-server/config"
	"github.com/curatrip/curatrip-server/internal/types"
)

const (
	seedChunkSize        = 500
	seedConcurrencyLimit = 4
)

type seedPlace struct {
	PlaceType   string   `json:"place_type"`
	NameKor     string   `json:"name_kor"`
	NameEng     string   `json:"name_eng"`
	Description string   `json:"description"`
	Keyword     string   `json:"keyword"`
	Categories  []string `json:"categories"`
	Region      string   `json:"region"`
	Images      []string `json:"images"`
	Latitude    float64  `json:"latitude"`
	Longitude   float64  `json:"longitude"`
	AIEnabled   *bool    `json:"ai_enabled"`
}

func main() {
	rootCmd := &cobra.Command{
		Use:   "curatrip-admin",
		Short: "Operator tasks for the curatrip itinerary service",
	}
	rootCmd.AddCommand(newMigrateCmd())
	rootCmd.AddCommand(newSeedCatalogCmd())
	rootCmd.AddCommand(newInteractionsCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadConfig() (config.Config, *slog.Logger, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found or error loading:", err)
	}
	cfg, err := config.InitConfig()
	if err != nil {
		return config.Config{}, nil, err
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	return cfg, logger, nil
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply embedded database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig()
			if err != nil {
				return err
			}
			dbConfig, err := database.NewDatabaseConfig(&cfg, logger)
			if err != nil {
				return err
			}
			return database.RunMigrations(dbConfig.ConnectionURL, logger)
		},
	}
}

func newSeedCatalogCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "seed-catalog",
		Short: "Bulk-load catalog places from a JSON file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig()
			if err != nil {
				return err
			}
			dbConfig, err := database.NewDatabaseConfig(&cfg, logger)
			if err != nil {
				return err
			}
			pool, err := database.Init(dbConfig.ConnectionURL, logger)
			if err != nil {
				return err
			}
			defer pool.Close()

			return seedCatalog(cmd.Context(), pool, logger, file)
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "path to the catalog JSON file")
	cmd.MarkFlagRequired("file")
	return cmd
}

func newInteractionsCmd() *cobra.Command {
	var limit int
	var caller string
	cmd := &cobra.Command{
		Use:   "interactions",
		Short: "Show recent model calls from the audit trail",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig()
			if err != nil {
				return err
			}
			dbConfig, err := database.NewDatabaseConfig(&cfg, logger)
			if err != nil {
				return err
			}
			pool, err := database.Init(dbConfig.ConnectionURL, logger)
			if err != nil {
				return err
			}
			defer pool.Close()

			return listInteractions(cmd.Context(), pool, os.Stdout, caller, limit)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "number of rows to show")
	cmd.Flags().StringVar(&caller, "caller", "", "only show calls from this caller")
	return cmd
}

func listInteractions(ctx context.Context, pool *pgxpool.Pool, out io.Writer, caller string, limit int) error {
	query := `
        SELECT id, estimate_id, caller, model_used, prompt_chars, response_chars, latency_ms, success, created_at
        FROM llm_interactions`
	args := []any{}
	if caller != "" {
		query += " WHERE caller = $1"
		args = append(args, caller)
	}
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d", len(args)+1)
	args = append(args, limit)

	rows, err := pool.Query(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to query llm interactions: %w", err)
	}
	defer rows.Close()

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "CREATED\tCALLER\tMODEL\tPROMPT\tRESPONSE\tLATENCY\tOK\tESTIMATE")
	for rows.Next() {
		var it types.LlmInteraction
		if err := rows.Scan(&it.ID, &it.EstimateID, &it.Caller, &it.ModelUsed,
			&it.PromptChars, &it.ResponseChars, &it.LatencyMs, &it.Success, &it.CreatedAt); err != nil {
			return fmt.Errorf("failed to scan llm interaction: %w", err)
		}
		estimate := "-"
		if it.EstimateID.Valid {
			estimate = it.EstimateID.UUID.String()
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%dms\t%t\t%s\n",
			it.CreatedAt.Format("2006-01-02 15:04:05"), it.Caller, it.ModelUsed,
			it.PromptChars, it.ResponseChars, it.LatencyMs, it.Success, estimate)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to read llm interactions: %w", err)
	}
	return w.Flush()
}

func seedCatalog(ctx context.Context, pool *pgxpool.Pool, logger *slog.Logger, path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read seed file: %w", err)
	}

	var places []seedPlace
	if err := json.Unmarshal(raw, &places); err != nil {
		return fmt.Errorf("failed to parse seed file: %w", err)
	}
	if len(places) == 0 {
		logger.Info("Seed file contains no places, nothing to do")
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(seedConcurrencyLimit)
	for start := 0; start < len(places); start += seedChunkSize {
		chunk := places[start:min(start+seedChunkSize, len(places))]
		g.Go(func() error {
			return copyChunk(gctx, pool, chunk)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	logger.Info("Catalog seeded", slog.Int("places", len(places)))
	return nil
}

func copyChunk(ctx context.Context, pool *pgxpool.Pool, chunk []seedPlace) error {
	rows := make([][]any, 0, len(chunk))
	for _, p := range chunk {
		placeType := p.PlaceType
		if placeType == "" {
			placeType = "place"
		}
		aiEnabled := true
		if p.AIEnabled != nil {
			aiEnabled = *p.AIEnabled
		}
		categories := p.Categories
		if categories == nil {
			categories = []string{}
		}
		images := p.Images
		if images == nil {
			images = []string{}
		}
		rows = append(rows, []any{
			uuid.New(), placeType, p.NameKor, p.NameEng, p.Description, p.Keyword,
			categories, p.Region, images, p.Latitude, p.Longitude, aiEnabled,
		})
	}

	_, err := pool.CopyFrom(ctx,
		pgx.Identifier{"catalog_places"},
		[]string{"id", "place_type", "name_kor", "name_eng", "description", "keyword", "categories", "region", "images", "latitude", "longitude", "ai_enabled"},
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		return fmt.Errorf("failed to copy catalog chunk: %w", err)
	}
	return nil
}
