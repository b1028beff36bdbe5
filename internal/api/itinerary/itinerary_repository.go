package itinerary

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/curatrip/curatrip-server/internal/types"
)

// DBPool is the slice of pgxpool.Pool the itinerary persistence needs.
// pgxmock satisfies it in tests.
type DBPool interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Repository persists estimates and their itinerary item lists. Writes are
// whole-list replacements inside one transaction; partial updates never hit
// the table.
type Repository interface {
	GetSession(ctx context.Context, estimateID uuid.UUID) (*types.EstimateSession, error)
	ListItems(ctx context.Context, itineraryID uuid.UUID) ([]types.ItineraryItem, error)
	ListItemsByEstimate(ctx context.Context, estimateID uuid.UUID) ([]types.ItineraryItem, error)
	ReplaceItems(ctx context.Context, itineraryID uuid.UUID, items []types.ItineraryItem) error
	UpdateEstimateStatus(ctx context.Context, estimateID uuid.UUID, status types.EstimateStatus) error
}

type RepositoryImpl struct {
	logger *slog.Logger
	pgpool DBPool
}

var _ Repository = (*RepositoryImpl)(nil)

func NewRepository(pgpool DBPool, logger *slog.Logger) *RepositoryImpl {
	return &RepositoryImpl{logger: logger, pgpool: pgpool}
}

func (r *RepositoryImpl) GetSession(ctx context.Context, estimateID uuid.UUID) (*types.EstimateSession, error) {
	ctx, span := otel.Tracer("ItineraryRepo").Start(ctx, "GetSession", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("estimate.id", estimateID.String()),
	))
	defer span.End()

	query := `
        SELECT e.id, i.id, e.customer_name, e.region, e.start_date, e.end_date,
               e.duration_days, e.interests, e.status, e.created_at, e.updated_at
        FROM estimates e
        JOIN itineraries i ON i.estimate_id = e.id
        WHERE e.id = $1`

	var session types.EstimateSession
	var customerName sql.NullString
	err := r.pgpool.QueryRow(ctx, query, estimateID).Scan(
		&session.EstimateID, &session.ItineraryID, &customerName, &session.Region,
		&session.StartDate, &session.EndDate, &session.DurationDays,
		&session.Interests, &session.Status, &session.CreatedAt, &session.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			span.SetStatus(codes.Error, "Estimate not found")
			return nil, types.ErrEstimateNotFound
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "Database query failed")
		return nil, fmt.Errorf("failed to fetch estimate session: %w", err)
	}
	session.CustomerName = customerName.String

	span.SetStatus(codes.Ok, "Session fetched")
	return &session, nil
}

func (r *RepositoryImpl) ListItems(ctx context.Context, itineraryID uuid.UUID) ([]types.ItineraryItem, error) {
	ctx, span := otel.Tracer("ItineraryRepo").Start(ctx, "ListItems", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("itinerary.id", itineraryID.String()),
	))
	defer span.End()

	query := `
        SELECT id, item_type, day_number, order_index, item_id, item_name, note, is_tbd, item_info
        FROM itinerary_items
        WHERE itinerary_id = $1
        ORDER BY day_number ASC, order_index ASC`

	rows, err := r.pgpool.Query(ctx, query, itineraryID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Database query failed")
		return nil, fmt.Errorf("failed to query itinerary_items: %w", err)
	}
	defer rows.Close()

	items, err := scanItems(rows)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	span.SetAttributes(attribute.Int("items.count", len(items)))
	span.SetStatus(codes.Ok, "Items fetched")
	return items, nil
}

func (r *RepositoryImpl) ListItemsByEstimate(ctx context.Context, estimateID uuid.UUID) ([]types.ItineraryItem, error) {
	ctx, span := otel.Tracer("ItineraryRepo").Start(ctx, "ListItemsByEstimate", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("estimate.id", estimateID.String()),
	))
	defer span.End()

	query := `
        SELECT ii.id, ii.item_type, ii.day_number, ii.order_index, ii.item_id, ii.item_name, ii.note, ii.is_tbd, ii.item_info
        FROM itinerary_items ii
        JOIN itineraries i ON i.id = ii.itinerary_id
        WHERE i.estimate_id = $1
        ORDER BY ii.day_number ASC, ii.order_index ASC`

	rows, err := r.pgpool.Query(ctx, query, estimateID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Database query failed")
		return nil, fmt.Errorf("failed to query itinerary_items by estimate: %w", err)
	}
	defer rows.Close()

	items, err := scanItems(rows)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	span.SetStatus(codes.Ok, "Items fetched")
	return items, nil
}

// ReplaceItems swaps the full item list in one transaction. The caller sees
// either the previous list or the new one, never a mix.
func (r *RepositoryImpl) ReplaceItems(ctx context.Context, itineraryID uuid.UUID, items []types.ItineraryItem) error {
	ctx, span := otel.Tracer("ItineraryRepo").Start(ctx, "ReplaceItems", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("itinerary.id", itineraryID.String()),
		attribute.Int("items.count", len(items)),
	))
	defer span.End()

	l := r.logger.With(slog.String("method", "ReplaceItems"))

	tx, err := r.pgpool.Begin(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to begin transaction")
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			l.WarnContext(ctx, "Failed to rollback transaction", slog.Any("error", rbErr))
		}
	}()

	if _, err := tx.Exec(ctx, `DELETE FROM itinerary_items WHERE itinerary_id = $1`, itineraryID); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to clear itinerary")
		return fmt.Errorf("failed to clear itinerary_items: %w", err)
	}

	if len(items) > 0 {
		batch := &pgx.Batch{}
		insert := `
            INSERT INTO itinerary_items
                (id, itinerary_id, item_type, day_number, order_index, item_id, item_name, note, is_tbd, item_info)
            VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

		for _, item := range items {
			id := item.ID
			if id == uuid.Nil {
				id = uuid.New()
			}
			itemID := uuid.NullUUID{}
			if item.ItemID != nil {
				itemID = uuid.NullUUID{UUID: *item.ItemID, Valid: true}
			}
			var itemInfo []byte
			if item.ItemInfo != nil {
				itemInfo, err = json.Marshal(item.ItemInfo)
				if err != nil {
					span.RecordError(err)
					return fmt.Errorf("failed to marshal item info: %w", err)
				}
			}
			batch.Queue(insert,
				id, itineraryID, string(item.Type), item.DayNumber, item.OrderIndex,
				itemID, item.ItemName, item.Note, item.IsTBD, itemInfo)
		}

		br := tx.SendBatch(ctx, batch)
		for i := 0; i < len(items); i++ {
			if _, err := br.Exec(); err != nil {
				_ = br.Close()
				span.RecordError(err)
				span.SetStatus(codes.Error, "Batch insert failed")
				return fmt.Errorf("failed to insert itinerary item %d: %w", i, err)
			}
		}
		if err := br.Close(); err != nil {
			span.RecordError(err)
			return fmt.Errorf("failed to close insert batch: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to commit transaction")
		return fmt.Errorf("failed to commit itinerary replace: %w", err)
	}

	span.SetStatus(codes.Ok, "Items replaced")
	return nil
}

func (r *RepositoryImpl) UpdateEstimateStatus(ctx context.Context, estimateID uuid.UUID, status types.EstimateStatus) error {
	ctx, span := otel.Tracer("ItineraryRepo").Start(ctx, "UpdateEstimateStatus", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("estimate.id", estimateID.String()),
		attribute.String("estimate.status", string(status)),
	))
	defer span.End()

	tag, err := r.pgpool.Exec(ctx,
		`UPDATE estimates SET status = $2, updated_at = now() WHERE id = $1`,
		estimateID, string(status))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Database update failed")
		return fmt.Errorf("failed to update estimate status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		span.SetStatus(codes.Error, "Estimate not found")
		return types.ErrEstimateNotFound
	}

	span.SetStatus(codes.Ok, "Status updated")
	return nil
}

func scanItems(rows pgx.Rows) ([]types.ItineraryItem, error) {
	var items []types.ItineraryItem
	for rows.Next() {
		var item types.ItineraryItem
		var itemID uuid.NullUUID
		var note sql.NullString
		var itemInfo []byte

		err := rows.Scan(
			&item.ID, &item.Type, &item.DayNumber, &item.OrderIndex,
			&itemID, &item.ItemName, &note, &item.IsTBD, &itemInfo,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan itinerary item row: %w", err)
		}
		if itemID.Valid {
			id := itemID.UUID
			item.ItemID = &id
		}
		item.Note = note.String
		if len(itemInfo) > 0 {
			var info types.PlaceSnapshot
			if err := json.Unmarshal(itemInfo, &info); err != nil {
				return nil, fmt.Errorf("failed to unmarshal item info: %w", err)
			}
			item.ItemInfo = &info
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read itinerary item rows: %w", err)
	}
	return items, nil
}
