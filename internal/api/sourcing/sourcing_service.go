package sourcing

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"github.com/samber/lo"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/curatrip/curatrip-server/app/observability/metrics"
	"github.com/curatrip/curatrip-server/internal/api/catalog"
	"github.com/curatrip/curatrip-server/internal/types"
)

const (
	defaultLimit = 20

	// The region+type fallback pool is broad and exclude-free, so it can be
	// cached and filtered per call.
	broadPoolLimit   = 200
	poolCacheTTL     = 15 * time.Minute
	poolCacheCleanup = 5 * time.Minute
)

// Service finds catalog candidates for automated selection. Every step is
// restricted to aiEnabled entries.
type Service interface {
	// FindCandidates cascades from the most specific strategy to the
	// broadest, returning the first non-empty pool. Zero candidates is a
	// valid result, not an error.
	FindCandidates(ctx context.Context, q types.CandidateQuery) ([]types.CatalogPlace, error)
}

type ServiceImpl struct {
	logger      *slog.Logger
	catalogRepo catalog.Repository
	pools       *cache.Cache
	metrics     *metrics.AppMetrics
}

var _ Service = (*ServiceImpl)(nil)

func NewService(catalogRepo catalog.Repository, appMetrics *metrics.AppMetrics, logger *slog.Logger) *ServiceImpl {
	return &ServiceImpl{
		logger:      logger,
		catalogRepo: catalogRepo,
		pools:       cache.New(poolCacheTTL, poolCacheCleanup),
		metrics:     appMetrics,
	}
}

func (s *ServiceImpl) FindCandidates(ctx context.Context, q types.CandidateQuery) ([]types.CatalogPlace, error) {
	ctx, span := otel.Tracer("SourcingService").Start(ctx, "FindCandidates", trace.WithAttributes(
		attribute.String("query", q.Query),
		attribute.String("type", string(q.Type)),
		attribute.String("region", q.Region),
		attribute.Int("exclude.count", len(q.ExcludeIDs)),
	))
	defer span.End()

	l := s.logger.With(slog.String("method", "FindCandidates"))

	limit := q.Limit
	if limit <= 0 {
		limit = defaultLimit
	}
	var regionVariants []string
	if q.Region != "" {
		regionVariants = catalog.RegionVariants(q.Region)
	}

	if q.Query != "" {
		// Step 1: substring match across the text fields.
		places, err := s.catalogRepo.Search(ctx, types.CatalogFilter{
			Type:           q.Type,
			RegionVariants: regionVariants,
			TextQuery:      q.Query,
			ExcludeIDs:     q.ExcludeIDs,
			Eligibility:    types.EligibleOnly,
			Limit:          limit,
		})
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "Text search failed")
			return nil, fmt.Errorf("failed to source candidates by query: %w", err)
		}
		if len(places) > 0 {
			return s.won(ctx, span, "query", places), nil
		}

		// Step 2: compound names are often written without spaces.
		compact := strings.Join(strings.Fields(q.Query), "")
		if compact != q.Query && compact != "" {
			places, err = s.catalogRepo.Search(ctx, types.CatalogFilter{
				Type:           q.Type,
				RegionVariants: regionVariants,
				TextQuery:      compact,
				ExcludeIDs:     q.ExcludeIDs,
				Eligibility:    types.EligibleOnly,
				Limit:          limit,
			})
			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, "Compact text search failed")
				return nil, fmt.Errorf("failed to source candidates by compacted query: %w", err)
			}
			if len(places) > 0 {
				return s.won(ctx, span, "query_compact", places), nil
			}
		}

		// Step 3: trigram fallback, type/exclude scoped only.
		scored, err := s.catalogRepo.FuzzyCandidates(ctx, q.Query, limit, types.FuzzySearchOptions{
			Type:        q.Type,
			Threshold:   catalog.DefaultSimilarityThreshold,
			ExcludeIDs:  q.ExcludeIDs,
			Eligibility: types.EligibleOnly,
		})
		if err != nil {
			l.WarnContext(ctx, "Fuzzy sourcing unavailable, falling through",
				slog.String("query", q.Query), slog.Any("error", err))
		} else if len(scored) > 0 {
			places := lo.Map(scored, func(sp types.ScoredPlace, _ int) types.CatalogPlace {
				return sp.CatalogPlace
			})
			return s.won(ctx, span, "fuzzy", places), nil
		}
	}

	// Step 4: mapped categories OR raw interest terms.
	categories := lo.Uniq(append(append([]string{}, q.Categories...), catalog.CategoriesForInterests(q.Interests)...))
	if len(categories) > 0 || len(q.Interests) > 0 {
		places, err := s.catalogRepo.Search(ctx, types.CatalogFilter{
			Type:           q.Type,
			RegionVariants: regionVariants,
			Categories:     categories,
			InterestTerms:  q.Interests,
			ExcludeIDs:     q.ExcludeIDs,
			Eligibility:    types.EligibleOnly,
			Limit:          limit,
		})
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "Interest search failed")
			return nil, fmt.Errorf("failed to source candidates by interests: %w", err)
		}
		if len(places) > 0 {
			return s.won(ctx, span, "interest", places), nil
		}
	}

	// Step 5: broadest pool, region and type only.
	pool, err := s.regionTypePool(ctx, q.Region, q.Type, regionVariants)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Fallback pool fetch failed")
		return nil, err
	}
	places := withoutExcluded(pool, q.ExcludeIDs)
	if len(places) > limit {
		places = places[:limit]
	}
	return s.won(ctx, span, "region_type", places), nil
}

// regionTypePool serves the exclude-free fallback pool from cache when it
// can. Excludes vary per request, so they are filtered by the caller.
func (s *ServiceImpl) regionTypePool(ctx context.Context, region string, placeType types.ItemType, regionVariants []string) ([]types.CatalogPlace, error) {
	key := fmt.Sprintf("pool:%s:%s", strings.ToLower(region), placeType)
	if cached, found := s.pools.Get(key); found {
		if pool, ok := cached.([]types.CatalogPlace); ok {
			s.logger.DebugContext(ctx, "Fallback pool served from cache", slog.String("key", key))
			return pool, nil
		}
	}

	pool, err := s.catalogRepo.Search(ctx, types.CatalogFilter{
		Type:           placeType,
		RegionVariants: regionVariants,
		Eligibility:    types.EligibleOnly,
		Limit:          broadPoolLimit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch fallback candidate pool: %w", err)
	}
	s.pools.Set(key, pool, cache.DefaultExpiration)
	return pool, nil
}

func (s *ServiceImpl) won(ctx context.Context, span trace.Span, step string, places []types.CatalogPlace) []types.CatalogPlace {
	s.metrics.RecordCandidatePool(ctx, step, len(places))
	span.SetAttributes(
		attribute.String("winning_step", step),
		attribute.Int("candidates.count", len(places)),
	)
	span.SetStatus(codes.Ok, "Candidates sourced")
	return places
}

func withoutExcluded(pool []types.CatalogPlace, excludeIDs []uuid.UUID) []types.CatalogPlace {
	if len(excludeIDs) == 0 {
		return pool
	}
	excluded := make(map[uuid.UUID]struct{}, len(excludeIDs))
	for _, id := range excludeIDs {
		excluded[id] = struct{}{}
	}
	return lo.Filter(pool, func(place types.CatalogPlace, _ int) bool {
		_, skip := excluded[place.ID]
		return !skip
	})
}
