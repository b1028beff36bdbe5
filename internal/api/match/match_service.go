package match

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/curatrip/curatrip-server/app/observability/metrics"
	"github.com/curatrip/curatrip-server/internal/api/catalog"
	"github.com/curatrip/curatrip-server/internal/types"
)

// Options narrows a match batch. The zero value matches the whole catalog
// with catalog.DefaultSimilarityThreshold as the fuzzy floor.
type Options struct {
	FuzzyThreshold float64
	Region         string
	Eligibility    types.EligibilityFilter
	// SkipFuzzy stops after the partial tier. Callers that must not accept
	// a similarity guess (explicit-name adds) set this.
	SkipFuzzy bool
}

// Service resolves free-text place names against the catalog.
type Service interface {
	// Match resolves each input through three ordered tiers (exact name,
	// partial containment, trigram similarity). Order-preserving, one
	// result per input; unresolved inputs come back with MatchTierUnmatched.
	Match(ctx context.Context, inputs []types.MatchInput, opts Options) ([]types.MatchResult, error)
	// FindIneligibleMatches reports which of the given names resolve to a
	// catalog entry that is excluded from automated selection.
	FindIneligibleMatches(ctx context.Context, names []string, region string) (map[string]struct{}, error)
}

type ServiceImpl struct {
	logger      *slog.Logger
	catalogRepo catalog.Repository
	metrics     *metrics.AppMetrics
}

var _ Service = (*ServiceImpl)(nil)

func NewService(catalogRepo catalog.Repository, appMetrics *metrics.AppMetrics, logger *slog.Logger) *ServiceImpl {
	return &ServiceImpl{
		logger:      logger,
		catalogRepo: catalogRepo,
		metrics:     appMetrics,
	}
}

func (s *ServiceImpl) Match(ctx context.Context, inputs []types.MatchInput, opts Options) ([]types.MatchResult, error) {
	ctx, span := otel.Tracer("MatchService").Start(ctx, "Match")
	defer span.End()
	span.SetAttributes(attribute.Int("inputs.count", len(inputs)))

	results, err := s.matchBatch(ctx, inputs, opts)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Match batch failed")
		return nil, err
	}

	matched := 0
	for _, res := range results {
		s.metrics.RecordMatchTier(ctx, string(res.Tier))
		if res.Matched() {
			matched++
		}
	}
	span.SetAttributes(attribute.Int("matched.count", matched))
	span.SetStatus(codes.Ok, "Match complete")
	return results, nil
}

func (s *ServiceImpl) FindIneligibleMatches(ctx context.Context, names []string, region string) (map[string]struct{}, error) {
	ctx, span := otel.Tracer("MatchService").Start(ctx, "FindIneligibleMatches")
	defer span.End()
	span.SetAttributes(attribute.Int("names.count", len(names)))

	inputs := make([]types.MatchInput, 0, len(names))
	for _, name := range names {
		inputs = append(inputs, types.MatchInput{Name: name})
	}

	results, err := s.matchBatch(ctx, inputs, Options{
		Region:      region,
		Eligibility: types.IneligibleOnly,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Ineligible scan failed")
		return nil, err
	}

	hits := make(map[string]struct{})
	for _, res := range results {
		if res.Matched() {
			hits[res.Input.Name] = struct{}{}
		}
	}
	span.SetAttributes(attribute.Int("hits.count", len(hits)))
	span.SetStatus(codes.Ok, "Ineligible scan complete")
	return hits, nil
}

// matchBatch runs the tiers. The bulk prefetch failing is a hard error; a
// fuzzy-tier failure only downgrades the remaining inputs to unmatched.
func (s *ServiceImpl) matchBatch(ctx context.Context, inputs []types.MatchInput, opts Options) ([]types.MatchResult, error) {
	l := s.logger.With(slog.String("method", "Match"))

	results := make([]types.MatchResult, len(inputs))
	for i, input := range inputs {
		results[i] = types.MatchResult{Input: input, Tier: types.MatchTierUnmatched}
	}
	if len(inputs) == 0 {
		return results, nil
	}

	fragments := make([]string, 0, len(inputs)*2)
	for _, input := range inputs {
		if input.Name != "" {
			fragments = append(fragments, input.Name)
		}
		if input.LocalizedName != "" {
			fragments = append(fragments, input.LocalizedName)
		}
	}

	prefetched, err := s.catalogRepo.SearchByNameFragments(ctx, fragments, opts.Eligibility)
	if err != nil {
		l.ErrorContext(ctx, "Name prefetch failed", slog.Any("error", err))
		return nil, fmt.Errorf("failed to prefetch catalog names: %w", err)
	}
	if opts.Region != "" {
		prefetched = filterByRegion(prefetched, catalog.RegionVariants(opts.Region))
	}

	// Tier 1: exact lookup in a lower-cased name index. First entry wins on
	// duplicate names.
	index := make(map[string]*types.CatalogPlace, len(prefetched)*2)
	for i := range prefetched {
		place := &prefetched[i]
		for _, name := range []string{place.NameEng, place.NameKor} {
			key := strings.ToLower(strings.TrimSpace(name))
			if key == "" {
				continue
			}
			if _, taken := index[key]; !taken {
				index[key] = place
			}
		}
	}
	for i := range results {
		if place := lookupExact(index, results[i].Input); place != nil {
			results[i].Tier = types.MatchTierExact
			results[i].Place = place
		}
	}

	// Tier 2: bidirectional substring containment over the prefetched set,
	// tie-broken by the smallest name-length difference.
	for i := range results {
		if results[i].Matched() {
			continue
		}
		if place := bestPartialMatch(prefetched, results[i].Input); place != nil {
			results[i].Tier = types.MatchTierPartial
			results[i].Place = place
		}
	}

	// Tier 3: one batched trigram query for everything still unresolved.
	if opts.SkipFuzzy {
		return results, nil
	}
	var queries []string
	queryFor := make(map[int]string, len(results))
	for i := range results {
		if results[i].Matched() {
			continue
		}
		query := results[i].Input.Name
		if query == "" {
			query = results[i].Input.LocalizedName
		}
		if query == "" {
			continue
		}
		queries = append(queries, query)
		queryFor[i] = query
	}
	if len(queries) == 0 {
		return results, nil
	}

	threshold := opts.FuzzyThreshold
	if threshold <= 0 {
		threshold = catalog.DefaultSimilarityThreshold
	}
	fuzzy, err := s.catalogRepo.FuzzySearch(ctx, queries, types.FuzzySearchOptions{
		Threshold:      threshold,
		RegionVariants: regionVariantsOrNil(opts.Region),
		Eligibility:    opts.Eligibility,
	})
	if err != nil {
		// The trigram extension or its index being unavailable should not
		// fail the whole batch.
		l.WarnContext(ctx, "Fuzzy tier unavailable, leaving inputs unmatched",
			slog.Int("inputs", len(queries)), slog.Any("error", err))
		return results, nil
	}
	for i, query := range queryFor {
		if scored, ok := fuzzy[query]; ok {
			place := scored.CatalogPlace
			results[i].Tier = types.MatchTierFuzzy
			results[i].Place = &place
			results[i].Score = scored.Score
		}
	}
	return results, nil
}

func lookupExact(index map[string]*types.CatalogPlace, input types.MatchInput) *types.CatalogPlace {
	for _, name := range []string{input.Name, input.LocalizedName} {
		key := strings.ToLower(strings.TrimSpace(name))
		if key == "" {
			continue
		}
		if place, ok := index[key]; ok {
			return place
		}
	}
	return nil
}

func bestPartialMatch(places []types.CatalogPlace, input types.MatchInput) *types.CatalogPlace {
	var best *types.CatalogPlace
	bestDiff := 0
	for i := range places {
		place := &places[i]
		diff, ok := partialDiff(place, input)
		if !ok {
			continue
		}
		if best == nil || diff < bestDiff {
			best = place
			bestDiff = diff
		}
	}
	return best
}

// partialDiff reports whether any input name and any catalog name contain
// one another, and the smallest length difference across the containing
// pairs.
func partialDiff(place *types.CatalogPlace, input types.MatchInput) (int, bool) {
	minDiff := 0
	found := false
	for _, inputName := range []string{input.Name, input.LocalizedName} {
		in := strings.ToLower(strings.TrimSpace(inputName))
		if in == "" {
			continue
		}
		for _, candName := range []string{place.NameEng, place.NameKor} {
			cand := strings.ToLower(strings.TrimSpace(candName))
			if cand == "" {
				continue
			}
			if !strings.Contains(cand, in) && !strings.Contains(in, cand) {
				continue
			}
			diff := utf8.RuneCountInString(cand) - utf8.RuneCountInString(in)
			if diff < 0 {
				diff = -diff
			}
			if !found || diff < minDiff {
				minDiff = diff
				found = true
			}
		}
	}
	return minDiff, found
}

func filterByRegion(places []types.CatalogPlace, variants []string) []types.CatalogPlace {
	allowed := make(map[string]struct{}, len(variants))
	for _, v := range variants {
		allowed[strings.ToLower(v)] = struct{}{}
	}
	filtered := places[:0]
	for _, place := range places {
		if _, ok := allowed[strings.ToLower(place.Region)]; ok {
			filtered = append(filtered, place)
		}
	}
	return filtered
}

func regionVariantsOrNil(region string) []string {
	if region == "" {
		return nil
	}
	return catalog.RegionVariants(region)
}
