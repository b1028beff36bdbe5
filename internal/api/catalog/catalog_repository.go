package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/curatrip/curatrip-server/internal/types"
)

// prefetchLimit bounds the bulk name prefetch; a batch of user-supplied
// fragments should never pull the whole catalog into memory.
const prefetchLimit = 500

// DefaultSimilarityThreshold is the minimum trigram similarity for a fuzzy
// hit when the caller does not override it.
const DefaultSimilarityThreshold = 0.3

// defaultQueryTimeout bounds one catalog round trip when config does not.
const defaultQueryTimeout = 5 * time.Second

// DBPool is the slice of pgxpool.Pool the catalog reads need. pgxmock
// satisfies it in tests.
type DBPool interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Repository reads the bookable-content catalog.
type Repository interface {
	// FindByIDs returns the catalog entries for ids, one query for the
	// whole batch. Unknown ids are silently absent from the result.
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]types.CatalogPlace, error)
	// SearchByNameFragments returns every entry whose English or Korean
	// name contains any of the given fragments, case-insensitively.
	SearchByNameFragments(ctx context.Context, fragments []string, eligibility types.EligibilityFilter) ([]types.CatalogPlace, error)
	// Search runs the structured filter search; zero rows is not an error.
	Search(ctx context.Context, filter types.CatalogFilter) ([]types.CatalogPlace, error)
	// FuzzySearch resolves all queries in one trigram round trip and keeps
	// the best above-threshold entry per query.
	FuzzySearch(ctx context.Context, queries []string, opts types.FuzzySearchOptions) (map[string]types.ScoredPlace, error)
	// FuzzyCandidates returns every entry scoring above the threshold for a
	// single term, best first.
	FuzzyCandidates(ctx context.Context, term string, limit int, opts types.FuzzySearchOptions) ([]types.ScoredPlace, error)
}

type RepositoryImpl struct {
	logger       *slog.Logger
	pgpool       DBPool
	queryTimeout time.Duration
}

var _ Repository = (*RepositoryImpl)(nil)

func NewRepository(pgpool DBPool, queryTimeout time.Duration, logger *slog.Logger) *RepositoryImpl {
	if queryTimeout <= 0 {
		queryTimeout = defaultQueryTimeout
	}
	return &RepositoryImpl{logger: logger, pgpool: pgpool, queryTimeout: queryTimeout}
}

const placeColumns = `id, place_type, name_kor, name_eng, description, keyword, categories, region, images, latitude, longitude, ai_enabled`

func (r *RepositoryImpl) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]types.CatalogPlace, error) {
	ctx, span := otel.Tracer("CatalogRepo").Start(ctx, "FindByIDs", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.sql.table", "catalog_places"),
		attribute.Int("ids.count", len(ids)),
	))
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, r.queryTimeout)
	defer cancel()

	if len(ids) == 0 {
		return nil, nil
	}

	query := fmt.Sprintf(`SELECT %s FROM catalog_places WHERE id = ANY($1)`, placeColumns)
	rows, err := r.pgpool.Query(ctx, query, ids)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Database query failed")
		return nil, fmt.Errorf("failed to query catalog_places by ids: %w", err)
	}
	defer rows.Close()

	places, err := scanPlaces(rows)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	span.SetStatus(codes.Ok, "Places fetched")
	return places, nil
}

func (r *RepositoryImpl) SearchByNameFragments(ctx context.Context, fragments []string, eligibility types.EligibilityFilter) ([]types.CatalogPlace, error) {
	ctx, span := otel.Tracer("CatalogRepo").Start(ctx, "SearchByNameFragments", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.sql.table", "catalog_places"),
		attribute.Int("fragments.count", len(fragments)),
	))
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, r.queryTimeout)
	defer cancel()

	l := r.logger.With(slog.String("method", "SearchByNameFragments"))

	patterns := make([]string, 0, len(fragments))
	for _, fragment := range fragments {
		fragment = strings.TrimSpace(fragment)
		if fragment == "" {
			continue
		}
		patterns = append(patterns, "%"+escapeLike(fragment)+"%")
	}
	if len(patterns) == 0 {
		return nil, nil
	}

	query := fmt.Sprintf(`
        SELECT %s
        FROM catalog_places
        WHERE (name_eng ILIKE ANY($1) OR name_kor ILIKE ANY($1))`, placeColumns)
	args := []any{patterns}
	query = appendEligibility(query, eligibility)
	query += fmt.Sprintf(" LIMIT %d", prefetchLimit)

	l.DebugContext(ctx, "Executing name fragment prefetch", slog.Int("patterns", len(patterns)))

	rows, err := r.pgpool.Query(ctx, query, args...)
	if err != nil {
		l.ErrorContext(ctx, "Failed to query name fragments", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Database query failed")
		return nil, fmt.Errorf("failed to search catalog_places by name fragments: %w", err)
	}
	defer rows.Close()

	places, err := scanPlaces(rows)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	span.SetAttributes(attribute.Int("places.count", len(places)))
	span.SetStatus(codes.Ok, "Prefetch complete")
	return places, nil
}

func (r *RepositoryImpl) Search(ctx context.Context, filter types.CatalogFilter) ([]types.CatalogPlace, error) {
	ctx, span := otel.Tracer("CatalogRepo").Start(ctx, "Search", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.sql.table", "catalog_places"),
		attribute.String("filter.type", string(filter.Type)),
		attribute.String("filter.text_query", filter.TextQuery),
		attribute.Int("filter.exclude_count", len(filter.ExcludeIDs)),
	))
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, r.queryTimeout)
	defer cancel()

	l := r.logger.With(slog.String("method", "Search"))

	query := fmt.Sprintf(`SELECT %s FROM catalog_places WHERE 1=1`, placeColumns)
	var args []any
	argCount := 1

	if filter.Type != "" {
		query += fmt.Sprintf(" AND place_type = $%d", argCount)
		args = append(args, string(filter.Type))
		argCount++
	}
	if len(filter.RegionVariants) > 0 {
		query += fmt.Sprintf(" AND region = ANY($%d)", argCount)
		args = append(args, filter.RegionVariants)
		argCount++
	}
	if filter.TextQuery != "" {
		pattern := "%" + escapeLike(filter.TextQuery) + "%"
		query += fmt.Sprintf(" AND (name_eng ILIKE $%d OR name_kor ILIKE $%d OR keyword ILIKE $%d OR description ILIKE $%d)",
			argCount, argCount, argCount, argCount)
		args = append(args, pattern)
		argCount++
	}

	// Categories and raw interest terms are one OR group: a tag overlap OR
	// a term appearing in the keyword/description text.
	var orParts []string
	if len(filter.Categories) > 0 {
		orParts = append(orParts, fmt.Sprintf("categories && $%d", argCount))
		args = append(args, filter.Categories)
		argCount++
	}
	if len(filter.InterestTerms) > 0 {
		termPatterns := make([]string, 0, len(filter.InterestTerms))
		for _, term := range filter.InterestTerms {
			termPatterns = append(termPatterns, "%"+escapeLike(term)+"%")
		}
		orParts = append(orParts, fmt.Sprintf("(keyword ILIKE ANY($%d) OR description ILIKE ANY($%d))", argCount, argCount))
		args = append(args, termPatterns)
		argCount++
	}
	if len(orParts) > 0 {
		query += " AND (" + strings.Join(orParts, " OR ") + ")"
	}

	if len(filter.ExcludeIDs) > 0 {
		query += fmt.Sprintf(" AND NOT (id = ANY($%d))", argCount)
		args = append(args, filter.ExcludeIDs)
		argCount++
	}
	query = appendEligibility(query, filter.Eligibility)

	query += " ORDER BY name_eng ASC"
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argCount)
		args = append(args, filter.Limit)
		argCount++
	}

	l.DebugContext(ctx, "Executing catalog search", slog.String("query", query), slog.Any("args", args))

	rows, err := r.pgpool.Query(ctx, query, args...)
	if err != nil {
		l.ErrorContext(ctx, "Failed to search catalog", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Database query failed")
		return nil, fmt.Errorf("failed to search catalog_places: %w", err)
	}
	defer rows.Close()

	places, err := scanPlaces(rows)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	span.SetAttributes(attribute.Int("places.count", len(places)))
	span.SetStatus(codes.Ok, "Search complete")
	return places, nil
}

func (r *RepositoryImpl) FuzzySearch(ctx context.Context, queries []string, opts types.FuzzySearchOptions) (map[string]types.ScoredPlace, error) {
	ctx, span := otel.Tracer("CatalogRepo").Start(ctx, "FuzzySearch", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.sql.table", "catalog_places"),
		attribute.Int("queries.count", len(queries)),
		attribute.Float64("threshold", opts.Threshold),
	))
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, r.queryTimeout)
	defer cancel()

	l := r.logger.With(slog.String("method", "FuzzySearch"))

	cleaned := make([]string, 0, len(queries))
	for _, q := range queries {
		if q = strings.TrimSpace(q); q != "" {
			cleaned = append(cleaned, q)
		}
	}
	if len(cleaned) == 0 {
		return map[string]types.ScoredPlace{}, nil
	}

	// One round trip for the whole batch: cross-join the unresolved queries
	// against the catalog, score by the best of the three trigram
	// similarities, keep the single best row per query above the threshold.
	query := fmt.Sprintf(`
        SELECT DISTINCT ON (q.query)
            q.query,
            %s,
            GREATEST(
                similarity(p.name_eng, q.query),
                similarity(p.name_kor, q.query),
                similarity(p.keyword, q.query)
            ) AS score
        FROM unnest($1::text[]) AS q(query)
        CROSS JOIN catalog_places p
        WHERE GREATEST(
                similarity(p.name_eng, q.query),
                similarity(p.name_kor, q.query),
                similarity(p.keyword, q.query)
            ) >= $2`, prefixColumns("p"))
	args := []any{cleaned, opts.Threshold}
	argCount := 3

	if opts.Type != "" {
		query += fmt.Sprintf(" AND p.place_type = $%d", argCount)
		args = append(args, string(opts.Type))
		argCount++
	}
	if len(opts.RegionVariants) > 0 {
		query += fmt.Sprintf(" AND p.region = ANY($%d)", argCount)
		args = append(args, opts.RegionVariants)
		argCount++
	}
	if len(opts.ExcludeIDs) > 0 {
		query += fmt.Sprintf(" AND NOT (p.id = ANY($%d))", argCount)
		args = append(args, opts.ExcludeIDs)
		argCount++
	}
	switch opts.Eligibility {
	case types.EligibleOnly:
		query += " AND p.ai_enabled = true"
	case types.IneligibleOnly:
		query += " AND p.ai_enabled = false"
	}
	query += " ORDER BY q.query, score DESC"

	l.DebugContext(ctx, "Executing batched fuzzy search", slog.Int("queries", len(cleaned)))

	rows, err := r.pgpool.Query(ctx, query, args...)
	if err != nil {
		l.ErrorContext(ctx, "Fuzzy search query failed", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Database query failed")
		return nil, fmt.Errorf("failed to fuzzy search catalog_places: %w", err)
	}
	defer rows.Close()

	results := make(map[string]types.ScoredPlace, len(cleaned))
	for rows.Next() {
		var matched string
		var place types.CatalogPlace
		var description, keyword sql.NullString
		var latitude, longitude sql.NullFloat64
		var score float64

		err := rows.Scan(
			&matched,
			&place.ID, &place.PlaceType, &place.NameKor, &place.NameEng,
			&description, &keyword, &place.Categories, &place.Region,
			&place.Images, &latitude, &longitude, &place.AIEnabled,
			&score,
		)
		if err != nil {
			span.RecordError(err)
			return nil, fmt.Errorf("failed to scan fuzzy search row: %w", err)
		}
		place.Description = description.String
		place.Keyword = keyword.String
		place.Latitude = latitude.Float64
		place.Longitude = longitude.Float64
		results[matched] = types.ScoredPlace{CatalogPlace: place, Score: score}
	}
	if err := rows.Err(); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to read fuzzy search rows: %w", err)
	}

	span.SetAttributes(attribute.Int("matches.count", len(results)))
	span.SetStatus(codes.Ok, "Fuzzy search complete")
	return results, nil
}

func (r *RepositoryImpl) FuzzyCandidates(ctx context.Context, term string, limit int, opts types.FuzzySearchOptions) ([]types.ScoredPlace, error) {
	ctx, span := otel.Tracer("CatalogRepo").Start(ctx, "FuzzyCandidates", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.sql.table", "catalog_places"),
		attribute.String("term", term),
		attribute.Float64("threshold", opts.Threshold),
	))
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, r.queryTimeout)
	defer cancel()

	l := r.logger.With(slog.String("method", "FuzzyCandidates"))

	term = strings.TrimSpace(term)
	if term == "" {
		return nil, nil
	}
	threshold := opts.Threshold
	if threshold <= 0 {
		threshold = DefaultSimilarityThreshold
	}

	query := fmt.Sprintf(`
        SELECT %s,
            GREATEST(
                similarity(name_eng, $1),
                similarity(name_kor, $1),
                similarity(keyword, $1)
            ) AS score
        FROM catalog_places
        WHERE GREATEST(
                similarity(name_eng, $1),
                similarity(name_kor, $1),
                similarity(keyword, $1)
            ) >= $2`, placeColumns)
	args := []any{term, threshold}
	argCount := 3

	if opts.Type != "" {
		query += fmt.Sprintf(" AND place_type = $%d", argCount)
		args = append(args, string(opts.Type))
		argCount++
	}
	if len(opts.RegionVariants) > 0 {
		query += fmt.Sprintf(" AND region = ANY($%d)", argCount)
		args = append(args, opts.RegionVariants)
		argCount++
	}
	if len(opts.ExcludeIDs) > 0 {
		query += fmt.Sprintf(" AND NOT (id = ANY($%d))", argCount)
		args = append(args, opts.ExcludeIDs)
		argCount++
	}
	query = appendEligibility(query, opts.Eligibility)

	query += " ORDER BY score DESC, name_eng ASC"
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argCount)
		args = append(args, limit)
		argCount++
	}

	l.DebugContext(ctx, "Executing fuzzy candidate search", slog.String("term", term))

	rows, err := r.pgpool.Query(ctx, query, args...)
	if err != nil {
		l.ErrorContext(ctx, "Fuzzy candidate query failed", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Database query failed")
		return nil, fmt.Errorf("failed to fuzzy search candidates: %w", err)
	}
	defer rows.Close()

	var results []types.ScoredPlace
	for rows.Next() {
		var place types.CatalogPlace
		var description, keyword sql.NullString
		var latitude, longitude sql.NullFloat64
		var score float64

		err := rows.Scan(
			&place.ID, &place.PlaceType, &place.NameKor, &place.NameEng,
			&description, &keyword, &place.Categories, &place.Region,
			&place.Images, &latitude, &longitude, &place.AIEnabled,
			&score,
		)
		if err != nil {
			span.RecordError(err)
			return nil, fmt.Errorf("failed to scan fuzzy candidate row: %w", err)
		}
		place.Description = description.String
		place.Keyword = keyword.String
		place.Latitude = latitude.Float64
		place.Longitude = longitude.Float64
		results = append(results, types.ScoredPlace{CatalogPlace: place, Score: score})
	}
	if err := rows.Err(); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to read fuzzy candidate rows: %w", err)
	}

	span.SetAttributes(attribute.Int("candidates.count", len(results)))
	span.SetStatus(codes.Ok, "Fuzzy candidates fetched")
	return results, nil
}

func appendEligibility(query string, eligibility types.EligibilityFilter) string {
	switch eligibility {
	case types.EligibleOnly:
		query += " AND ai_enabled = true"
	case types.IneligibleOnly:
		query += " AND ai_enabled = false"
	}
	return query
}

func prefixColumns(alias string) string {
	cols := strings.Split(placeColumns, ", ")
	for i, c := range cols {
		cols[i] = alias + "." + c
	}
	return strings.Join(cols, ", ")
}

// escapeLike neutralizes LIKE wildcards in user-supplied fragments.
func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `%`, `\%`)
	s = strings.ReplaceAll(s, `_`, `\_`)
	return s
}

func scanPlaces(rows pgx.Rows) ([]types.CatalogPlace, error) {
	var places []types.CatalogPlace
	for rows.Next() {
		var place types.CatalogPlace
		var description, keyword sql.NullString
		var latitude, longitude sql.NullFloat64

		err := rows.Scan(
			&place.ID, &place.PlaceType, &place.NameKor, &place.NameEng,
			&description, &keyword, &place.Categories, &place.Region,
			&place.Images, &latitude, &longitude, &place.AIEnabled,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan catalog place row: %w", err)
		}
		place.Description = description.String
		place.Keyword = keyword.String
		place.Latitude = latitude.Float64
		place.Longitude = longitude.Float64
		places = append(places, place)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read catalog place rows: %w", err)
	}
	return places, nil
}
