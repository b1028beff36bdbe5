package mutation

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/curatrip/curatrip-server/app/observability/metrics"
	generativeAI "github.com/curatrip/curatrip-server/internal/api/generative_ai"
	"github.com/curatrip/curatrip-server/internal/api/intent"
	"github.com/curatrip/curatrip-server/internal/api/itinerary"
	"github.com/curatrip/curatrip-server/internal/api/match"
	"github.com/curatrip/curatrip-server/internal/api/sourcing"
	"github.com/curatrip/curatrip-server/internal/types"
)

const (
	// An explicit place name this short is too ambiguous for a direct
	// name search.
	explicitNameMinRunes = 3

	// Below this pool size regenerate_day widens the search beyond the
	// trip's region.
	minDayPoolSize = 10

	// A regenerated day gets up to this many items.
	dayPickCount = 4

	regenCandidateLimit = 30
	pickCandidateLimit  = 12
)

// Service executes one itinerary mutation per call. Success=false results
// are ordinary flow (ambiguous request, nothing matched); errors are
// reserved for infrastructure failures.
type Service interface {
	// ModifyItinerary resolves the message into an intent (unless one is
	// supplied) and executes it against the stored itinerary.
	ModifyItinerary(ctx context.Context, session types.EstimateSession, message string, preParsed *types.ModificationIntent) (types.ModificationResult, error)
	// RegenerateDay rebuilds a single day with freshly sourced places.
	RegenerateDay(ctx context.Context, session types.EstimateSession, dayNumber int) (types.ModificationResult, error)
}

type ServiceImpl struct {
	logger        *slog.Logger
	itineraryRepo itinerary.Repository
	matcher       match.Service
	sourcer       sourcing.Service
	intents       intent.Service
	ranker        *ranker
	feedback      *feedbackPool
	locks         *keyedMutex
	metrics       *metrics.AppMetrics
}

var _ Service = (*ServiceImpl)(nil)

// NewService wires the engine. rng may be nil outside tests.
func NewService(
	itineraryRepo itinerary.Repository,
	matcher match.Service,
	sourcer sourcing.Service,
	intents intent.Service,
	ai generativeAI.CompletionClient,
	appMetrics *metrics.AppMetrics,
	logger *slog.Logger,
	rng *rand.Rand,
) *ServiceImpl {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &ServiceImpl{
		logger:        logger,
		itineraryRepo: itineraryRepo,
		matcher:       matcher,
		sourcer:       sourcer,
		intents:       intents,
		ranker:        &ranker{logger: logger, ai: ai},
		feedback:      newFeedbackPool(rng),
		locks:         newKeyedMutex(),
		metrics:       appMetrics,
	}
}

func (s *ServiceImpl) ModifyItinerary(ctx context.Context, session types.EstimateSession, message string, preParsed *types.ModificationIntent) (types.ModificationResult, error) {
	ctx, span := otel.Tracer("MutationService").Start(ctx, "ModifyItinerary", trace.WithAttributes(
		attribute.String("estimate.id", session.EstimateID.String()),
	))
	defer span.End()

	// One mutation per itinerary at a time; the read below must see the
	// previous write.
	unlock := s.locks.lock(session.ItineraryID)
	defer unlock()

	items, err := s.itineraryRepo.ListItems(ctx, session.ItineraryID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Itinerary load failed")
		return types.ModificationResult{}, fmt.Errorf("failed to load itinerary: %w", err)
	}

	resolved := types.ModificationIntent{}
	if preParsed != nil {
		resolved = *preParsed
	} else {
		resolved, err = s.intents.Resolve(ctx, intent.ResolveInput{
			Message:          message,
			ItinerarySummary: itinerary.SummarizeItems(items),
			Interests:        session.Interests,
			Region:           session.Region,
			EstimateID:       estimateNullUUID(session),
		})
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "Intent resolution failed")
			return types.ModificationResult{}, err
		}
	}
	span.SetAttributes(attribute.String("intent.action", string(resolved.Action)))

	result, err := s.execute(ctx, session, items, message, resolved)
	if err != nil {
		s.metrics.RecordModification(ctx, string(resolved.Action), false)
		span.RecordError(err)
		span.SetStatus(codes.Error, "Mutation failed")
		return types.ModificationResult{}, err
	}
	s.metrics.RecordModification(ctx, string(resolved.Action), result.Success)
	span.SetAttributes(attribute.Bool("mutation.success", result.Success))
	span.SetStatus(codes.Ok, "Mutation handled")
	return result, nil
}

func (s *ServiceImpl) RegenerateDay(ctx context.Context, session types.EstimateSession, dayNumber int) (types.ModificationResult, error) {
	ctx, span := otel.Tracer("MutationService").Start(ctx, "RegenerateDay", trace.WithAttributes(
		attribute.String("estimate.id", session.EstimateID.String()),
		attribute.Int("day", dayNumber),
	))
	defer span.End()

	unlock := s.locks.lock(session.ItineraryID)
	defer unlock()

	items, err := s.itineraryRepo.ListItems(ctx, session.ItineraryID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Itinerary load failed")
		return types.ModificationResult{}, fmt.Errorf("failed to load itinerary: %w", err)
	}

	resolved := types.ModificationIntent{
		Action:     types.ActionRegenerateDay,
		DayNumber:  &dayNumber,
		Confidence: 1,
	}
	result, err := s.regenerateDay(ctx, session, items, dayNumber, resolved)
	if err != nil {
		s.metrics.RecordModification(ctx, string(types.ActionRegenerateDay), false)
		span.RecordError(err)
		span.SetStatus(codes.Error, "Regeneration failed")
		return types.ModificationResult{}, err
	}
	s.metrics.RecordModification(ctx, string(types.ActionRegenerateDay), result.Success)
	span.SetAttributes(attribute.Bool("mutation.success", result.Success))
	span.SetStatus(codes.Ok, "Regeneration handled")
	return result, nil
}

func (s *ServiceImpl) execute(ctx context.Context, session types.EstimateSession, items []types.ItineraryItem, message string, resolved types.ModificationIntent) (types.ModificationResult, error) {
	result := types.ModificationResult{UpdatedItems: items, Intent: &resolved}

	if !resolved.Action.Valid() || !resolved.Actionable() {
		result.BotMessage = clarificationMessage(resolved)
		return result, nil
	}

	switch resolved.Action {
	case types.ActionRegenerateDay:
		day := 0
		if resolved.DayNumber != nil {
			day = *resolved.DayNumber
		}
		return s.regenerateDay(ctx, session, items, day, resolved)
	case types.ActionAddItem:
		return s.addItem(ctx, session, items, message, resolved)
	case types.ActionRemoveItem:
		return s.removeItem(ctx, session, items, resolved)
	case types.ActionReplaceItem:
		return s.replaceItem(ctx, session, items, message, resolved)
	case types.ActionGeneralFeedback:
		result.Success = true
		result.BotMessage = s.feedback.pick()
		return result, nil
	}
	result.BotMessage = clarificationMessage(resolved)
	return result, nil
}

func (s *ServiceImpl) regenerateDay(ctx context.Context, session types.EstimateSession, items []types.ItineraryItem, day int, resolved types.ModificationIntent) (types.ModificationResult, error) {
	l := s.logger.With(slog.String("method", "regenerateDay"), slog.Int("day", day))
	result := types.ModificationResult{UpdatedItems: items, Intent: &resolved}

	maxDay := lastDayNumber(session, items)
	if day < 1 || day > maxDay {
		result.BotMessage = fmt.Sprintf("Day %d doesn't exist on this itinerary. It covers days 1 to %d.", day, maxDay)
		return result, nil
	}

	// Places already planned on other days stay off the new day.
	exclude := usedCatalogIDs(items, day)
	candidates, err := s.sourcer.FindCandidates(ctx, types.CandidateQuery{
		Interests:  session.Interests,
		Region:     session.Region,
		Type:       types.ItemTypePlace,
		ExcludeIDs: exclude,
		Limit:      regenCandidateLimit,
	})
	if err != nil {
		return types.ModificationResult{}, err
	}
	if len(candidates) < minDayPoolSize {
		l.InfoContext(ctx, "Thin candidate pool, widening beyond region", slog.Int("pool", len(candidates)))
		widened, err := s.sourcer.FindCandidates(ctx, types.CandidateQuery{
			Interests:  session.Interests,
			Type:       types.ItemTypePlace,
			ExcludeIDs: exclude,
			Limit:      regenCandidateLimit,
		})
		if err != nil {
			return types.ModificationResult{}, err
		}
		candidates = mergeCandidates(candidates, widened)
	}
	if len(candidates) == 0 {
		result.BotMessage = fmt.Sprintf("I couldn't find fresh places for day %d right now, so I've left it unchanged.", day)
		return result, nil
	}

	count := dayPickCount
	if len(candidates) < count {
		count = len(candidates)
	}
	picks, reason := s.ranker.pickMany(ctx, needForDay(session, day), candidates, count, estimateNullUUID(session))

	rebuilt := make([]types.ItineraryItem, 0, len(items)+len(picks))
	for _, item := range items {
		if item.DayNumber != day {
			rebuilt = append(rebuilt, item)
		}
	}
	for i, pick := range picks {
		rebuilt = append(rebuilt, itemFromPlace(pick, day, i, ""))
	}
	sortItems(rebuilt)

	if err := s.itineraryRepo.ReplaceItems(ctx, session.ItineraryID, rebuilt); err != nil {
		return types.ModificationResult{}, fmt.Errorf("failed to persist regenerated day: %w", err)
	}

	message := fmt.Sprintf("Day %d now features %s.", day, joinNames(placeNames(picks)))
	if reason != "" {
		message += " " + reason
	}
	result.Success = true
	result.UpdatedItems = rebuilt
	result.BotMessage = message + " Want me to adjust anything else?"
	return result, nil
}

func (s *ServiceImpl) addItem(ctx context.Context, session types.EstimateSession, items []types.ItineraryItem, userMessage string, resolved types.ModificationIntent) (types.ModificationResult, error) {
	l := s.logger.With(slog.String("method", "addItem"))
	result := types.ModificationResult{UpdatedItems: items, Intent: &resolved}

	name := strings.TrimSpace(resolved.ItemName)
	category := strings.TrimSpace(resolved.Category)
	if name == "" && category == "" {
		result.BotMessage = "What would you like me to add? A specific place, or a kind of stop like a cafe or a market?"
		return result, nil
	}

	maxDay := lastDayNumber(session, items)
	targetDay := maxDay
	if resolved.DayNumber != nil {
		if *resolved.DayNumber < 1 || *resolved.DayNumber > maxDay {
			result.BotMessage = fmt.Sprintf("Day %d doesn't exist on this itinerary. It covers days 1 to %d.", *resolved.DayNumber, maxDay)
			return result, nil
		}
		targetDay = *resolved.DayNumber
	}

	// An explicit name gets a direct unrestricted name search first; the
	// customer may legitimately want a place already used on another day.
	if utf8.RuneCountInString(name) > explicitNameMinRunes {
		matches, err := s.matcher.Match(ctx, []types.MatchInput{{Name: name}}, match.Options{
			Eligibility: types.EligibleOnly,
			SkipFuzzy:   true,
		})
		if err != nil {
			return types.ModificationResult{}, err
		}
		if res := matches[0]; res.Matched() {
			if coreWordGuardAccepts(name, res.Place.DisplayName()) {
				return s.appendItem(ctx, session, items, resolved,
					itemFromPlace(*res.Place, targetDay, nextOrderIndex(items, targetDay), matchNote(name, res)),
					fmt.Sprintf("I've added %s to day %d.", res.Place.DisplayName(), targetDay))
			}
			l.InfoContext(ctx, "Name match rejected by core-word guard",
				slog.String("requested", name), slog.String("candidate", res.Place.DisplayName()))
		}
	}

	// A name matching an intentionally excluded entry must not be rescued
	// by sourcing lookalikes; it goes straight to human review.
	if name != "" {
		hits, err := s.matcher.FindIneligibleMatches(ctx, []string{name}, "")
		if err != nil {
			l.WarnContext(ctx, "Ineligible scan failed, continuing without it", slog.Any("error", err))
		} else if _, hit := hits[name]; hit {
			return s.appendTBD(ctx, session, items, resolved, name, targetDay,
				"This place exists in our catalog but isn't available for automated selection; a travel expert will confirm it.")
		}
	}

	interests := session.Interests
	if category != "" {
		interests = append(append([]string{}, session.Interests...), category)
	}
	candidates, err := s.sourcer.FindCandidates(ctx, types.CandidateQuery{
		Query:      name,
		Interests:  interests,
		Region:     session.Region,
		Type:       typeForCategory(category),
		ExcludeIDs: usedCatalogIDs(items, 0),
		Limit:      pickCandidateLimit,
	})
	if err != nil {
		return types.ModificationResult{}, err
	}
	if len(candidates) > 0 {
		pick, reason := s.ranker.pickOne(ctx, needForAdd(userMessage, name, category), candidates, estimateNullUUID(session))
		message := fmt.Sprintf("I've added %s to day %d.", pick.DisplayName(), targetDay)
		if reason != "" {
			message += " " + reason
		}
		return s.appendItem(ctx, session, items, resolved,
			itemFromPlace(pick, targetDay, nextOrderIndex(items, targetDay), reason), message)
	}

	// A named place with no catalog hit anywhere always lands as a
	// placeholder; the request is never silently dropped.
	if name != "" {
		return s.appendTBD(ctx, session, items, resolved, name, targetDay,
			"Not in our catalog yet; flagged for a travel expert to review.")
	}

	result.BotMessage = fmt.Sprintf("I couldn't find anything matching %q to add. Could you name a specific place, or a different kind of stop?", category)
	return result, nil
}

func (s *ServiceImpl) removeItem(ctx context.Context, session types.EstimateSession, items []types.ItineraryItem, resolved types.ModificationIntent) (types.ModificationResult, error) {
	result := types.ModificationResult{UpdatedItems: items, Intent: &resolved}

	needle := strings.ToLower(strings.TrimSpace(resolved.ItemName))
	if needle == "" {
		needle = strings.ToLower(strings.TrimSpace(resolved.Category))
	}
	if needle == "" {
		result.BotMessage = "Which item should I take out? You can name it, or describe it like \"the market on day 2\"."
		return result, nil
	}

	day := 0
	if resolved.DayNumber != nil {
		day = *resolved.DayNumber
	}

	kept := make([]types.ItineraryItem, 0, len(items))
	var removed []types.ItineraryItem
	for _, item := range items {
		inScope := day == 0 || item.DayNumber == day
		matched := strings.Contains(strings.ToLower(item.ItemName), needle) ||
			strings.Contains(strings.ToLower(string(item.Type)), needle)
		if inScope && matched {
			removed = append(removed, item)
		} else {
			kept = append(kept, item)
		}
	}
	if len(removed) == 0 {
		scope := ""
		if day > 0 {
			scope = fmt.Sprintf(" on day %d", day)
		}
		result.BotMessage = fmt.Sprintf("I couldn't find anything matching %q%s, so nothing was removed.", needle, scope)
		return result, nil
	}

	renumberDays(kept)
	if err := s.itineraryRepo.ReplaceItems(ctx, session.ItineraryID, kept); err != nil {
		return types.ModificationResult{}, fmt.Errorf("failed to persist removal: %w", err)
	}

	names := lo.Map(removed, func(item types.ItineraryItem, _ int) string { return item.ItemName })
	result.Success = true
	result.UpdatedItems = kept
	result.BotMessage = fmt.Sprintf("Done, I've removed %s. Anything else?", joinNames(names))
	return result, nil
}

func (s *ServiceImpl) replaceItem(ctx context.Context, session types.EstimateSession, items []types.ItineraryItem, userMessage string, resolved types.ModificationIntent) (types.ModificationResult, error) {
	result := types.ModificationResult{UpdatedItems: items, Intent: &resolved}

	needle := strings.ToLower(strings.TrimSpace(resolved.ItemName))
	if needle == "" {
		result.BotMessage = "Which item should I replace?"
		return result, nil
	}

	idx := -1
	for i, item := range items {
		if strings.Contains(strings.ToLower(item.ItemName), needle) {
			idx = i
			break
		}
	}
	if idx == -1 {
		result.BotMessage = fmt.Sprintf("I couldn't find %q on the itinerary, so nothing was changed.", resolved.ItemName)
		return result, nil
	}
	target := items[idx]

	replacementType := target.Type
	if resolved.Category != "" {
		replacementType = typeForCategory(resolved.Category)
	}
	interests := session.Interests
	if resolved.Category != "" {
		interests = append(append([]string{}, session.Interests...), resolved.Category)
	}
	candidates, err := s.sourcer.FindCandidates(ctx, types.CandidateQuery{
		Interests:  interests,
		Region:     session.Region,
		Type:       replacementType,
		ExcludeIDs: usedCatalogIDs(items, 0),
		Limit:      pickCandidateLimit,
	})
	if err != nil {
		return types.ModificationResult{}, err
	}
	if len(candidates) == 0 {
		result.BotMessage = fmt.Sprintf("I couldn't find a good replacement for %s right now, so I've left it in place.", target.ItemName)
		return result, nil
	}

	pick, reason := s.ranker.pickOne(ctx, needForReplace(userMessage, target, resolved), candidates, estimateNullUUID(session))

	updated := append([]types.ItineraryItem{}, items...)
	swapped := updated[idx]
	pickID := pick.ID
	swapped.ItemID = &pickID
	swapped.Type = pick.PlaceType
	swapped.ItemName = pick.DisplayName()
	swapped.IsTBD = false
	swapped.ItemInfo = pick.Snapshot()
	swapped.Note = reason
	updated[idx] = swapped

	if err := s.itineraryRepo.ReplaceItems(ctx, session.ItineraryID, updated); err != nil {
		return types.ModificationResult{}, fmt.Errorf("failed to persist replacement: %w", err)
	}

	message := fmt.Sprintf("I've swapped %s for %s on day %d.", target.ItemName, pick.DisplayName(), target.DayNumber)
	if reason != "" {
		message += " " + reason
	}
	result.Success = true
	result.UpdatedItems = updated
	result.BotMessage = message
	return result, nil
}

// appendItem persists items plus one new entry and builds the success result.
func (s *ServiceImpl) appendItem(ctx context.Context, session types.EstimateSession, items []types.ItineraryItem, resolved types.ModificationIntent, item types.ItineraryItem, message string) (types.ModificationResult, error) {
	updated := append(append([]types.ItineraryItem{}, items...), item)
	sortItems(updated)
	if err := s.itineraryRepo.ReplaceItems(ctx, session.ItineraryID, updated); err != nil {
		return types.ModificationResult{}, fmt.Errorf("failed to persist added item: %w", err)
	}
	return types.ModificationResult{
		Success:      true,
		UpdatedItems: updated,
		BotMessage:   message,
		Intent:       &resolved,
	}, nil
}

// appendTBD is the terminal outcome for a named place the catalog cannot
// satisfy: a placeholder carrying the literal requested name.
func (s *ServiceImpl) appendTBD(ctx context.Context, session types.EstimateSession, items []types.ItineraryItem, resolved types.ModificationIntent, name string, day int, note string) (types.ModificationResult, error) {
	item := types.ItineraryItem{
		Type:       typeForCategory(resolved.Category),
		DayNumber:  day,
		OrderIndex: nextOrderIndex(items, day),
		ItemName:   name,
		Note:       note,
		IsTBD:      true,
		ItemInfo:   &types.PlaceSnapshot{NameEng: titleCase(name)},
	}
	return s.appendItem(ctx, session, items, resolved, item,
		fmt.Sprintf("I've added %q to day %d as a placeholder. %s", name, day, note))
}

func clarificationMessage(resolved types.ModificationIntent) string {
	if resolved.Action.Valid() && !resolved.Actionable() {
		return "I want to be sure I change the right thing. Could you say a bit more specifically what you'd like to adjust?"
	}
	return "I couldn't quite work out what you'd like to change. Could you rephrase it? For example: \"replace the market on day 2\" or \"add Gyeongbokgung Palace\"."
}

func needForDay(session types.EstimateSession, day int) string {
	if len(session.Interests) > 0 {
		return fmt.Sprintf("a fresh set of places for day %d of a %s trip, interests: %s",
			day, session.Region, strings.Join(session.Interests, ", "))
	}
	return fmt.Sprintf("a fresh, varied set of places for day %d of a %s trip", day, session.Region)
}

func needForAdd(userMessage, name, category string) string {
	switch {
	case userMessage != "":
		return userMessage
	case name != "":
		return fmt.Sprintf("add %s to the itinerary", name)
	default:
		return fmt.Sprintf("add a %s to the itinerary", category)
	}
}

func needForReplace(userMessage string, target types.ItineraryItem, resolved types.ModificationIntent) string {
	if userMessage != "" {
		return userMessage
	}
	if resolved.Category != "" {
		return fmt.Sprintf("a %s to replace %s", resolved.Category, target.ItemName)
	}
	return fmt.Sprintf("a replacement for %s", target.ItemName)
}

func lastDayNumber(session types.EstimateSession, items []types.ItineraryItem) int {
	maxDay := session.DurationDays
	for _, item := range items {
		if item.DayNumber > maxDay {
			maxDay = item.DayNumber
		}
	}
	if maxDay < 1 {
		maxDay = 1
	}
	return maxDay
}

// usedCatalogIDs collects the distinct catalog ids items reference. skipDay
// 0 keeps every day in scope.
func usedCatalogIDs(items []types.ItineraryItem, skipDay int) []uuid.UUID {
	var ids []uuid.UUID
	seen := make(map[uuid.UUID]struct{})
	for _, item := range items {
		if item.DayNumber == skipDay || item.ItemID == nil {
			continue
		}
		if _, dup := seen[*item.ItemID]; dup {
			continue
		}
		seen[*item.ItemID] = struct{}{}
		ids = append(ids, *item.ItemID)
	}
	return ids
}

func nextOrderIndex(items []types.ItineraryItem, day int) int {
	next := 0
	for _, item := range items {
		if item.DayNumber == day && item.OrderIndex >= next {
			next = item.OrderIndex + 1
		}
	}
	return next
}

// renumberDays restores the dense 0-based order within each day.
func renumberDays(items []types.ItineraryItem) {
	sortItems(items)
	counters := make(map[int]int)
	for i := range items {
		items[i].OrderIndex = counters[items[i].DayNumber]
		counters[items[i].DayNumber]++
	}
}

func sortItems(items []types.ItineraryItem) {
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].DayNumber != items[j].DayNumber {
			return items[i].DayNumber < items[j].DayNumber
		}
		return items[i].OrderIndex < items[j].OrderIndex
	})
}

func itemFromPlace(place types.CatalogPlace, day, order int, note string) types.ItineraryItem {
	id := place.ID
	return types.ItineraryItem{
		Type:       place.PlaceType,
		DayNumber:  day,
		OrderIndex: order,
		ItemID:     &id,
		ItemName:   place.DisplayName(),
		Note:       note,
		ItemInfo:   place.Snapshot(),
	}
}

func matchNote(requested string, res types.MatchResult) string {
	return fmt.Sprintf("Matched catalog entry %q for requested %q (%s name match).",
		res.Place.DisplayName(), requested, res.Tier)
}

func mergeCandidates(primary, widened []types.CatalogPlace) []types.CatalogPlace {
	seen := make(map[uuid.UUID]struct{}, len(primary))
	for _, candidate := range primary {
		seen[candidate.ID] = struct{}{}
	}
	merged := primary
	for _, candidate := range widened {
		if _, dup := seen[candidate.ID]; dup {
			continue
		}
		seen[candidate.ID] = struct{}{}
		merged = append(merged, candidate)
	}
	return merged
}

func typeForCategory(category string) types.ItemType {
	switch strings.ToLower(strings.TrimSpace(category)) {
	case "restaurant", "dining":
		return types.ItemTypeRestaurant
	case "hotel", "accommodation", "stay":
		return types.ItemTypeAccommodation
	default:
		return types.ItemTypePlace
	}
}

func placeNames(places []types.CatalogPlace) []string {
	return lo.Map(places, func(place types.CatalogPlace, _ int) string { return place.DisplayName() })
}

func joinNames(names []string) string {
	switch len(names) {
	case 0:
		return ""
	case 1:
		return names[0]
	default:
		return strings.Join(names[:len(names)-1], ", ") + " and " + names[len(names)-1]
	}
}

func titleCase(s string) string {
	return cases.Title(language.English).String(s)
}

func estimateNullUUID(session types.EstimateSession) uuid.NullUUID {
	return uuid.NullUUID{UUID: session.EstimateID, Valid: true}
}
