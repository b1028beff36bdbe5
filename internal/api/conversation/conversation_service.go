package conversation

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/curatrip/curatrip-server/app/observability/metrics"
	generativeAI "github.com/curatrip/curatrip-server/internal/api/generative_ai"
	"github.com/curatrip/curatrip-server/internal/api/itinerary"
	"github.com/curatrip/curatrip-server/internal/api/mutation"
	"github.com/curatrip/curatrip-server/internal/types"
)

const (
	chatTemperature = float32(0.7)
	chatMaxTokens   = int32(1024)
)

// Service is the conversational entry point. One call classifies the message,
// answers it, and, for modification requests, delegates to the mutation
// engine. A failed delegation degrades to the plain reply; it never surfaces
// as an error to the customer.
type Service interface {
	Chat(ctx context.Context, estimateID uuid.UUID, message string, history []generativeAI.ChatTurn) (types.ChatResult, error)
}

type ServiceImpl struct {
	logger        *slog.Logger
	itineraryRepo itinerary.Repository
	mutator       mutation.Service
	ai            generativeAI.CompletionClient
	metrics       *metrics.AppMetrics
}

var _ Service = (*ServiceImpl)(nil)

func NewService(
	itineraryRepo itinerary.Repository,
	mutator mutation.Service,
	ai generativeAI.CompletionClient,
	appMetrics *metrics.AppMetrics,
	logger *slog.Logger,
) *ServiceImpl {
	return &ServiceImpl{
		logger:        logger,
		itineraryRepo: itineraryRepo,
		mutator:       mutator,
		ai:            ai,
		metrics:       appMetrics,
	}
}

func (s *ServiceImpl) Chat(ctx context.Context, estimateID uuid.UUID, message string, history []generativeAI.ChatTurn) (types.ChatResult, error) {
	ctx, span := otel.Tracer("ConversationService").Start(ctx, "Chat", trace.WithAttributes(
		attribute.String("estimate.id", estimateID.String()),
	))
	defer span.End()

	l := s.logger.With(slog.String("method", "Chat"), slog.String("estimateID", estimateID.String()))

	var (
		session *types.EstimateSession
		items   []types.ItineraryItem
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		loaded, err := s.itineraryRepo.GetSession(gctx, estimateID)
		if err != nil {
			return fmt.Errorf("failed to load session: %w", err)
		}
		session = loaded
		return nil
	})
	g.Go(func() error {
		loaded, err := s.itineraryRepo.ListItemsByEstimate(gctx, estimateID)
		if err != nil {
			return fmt.Errorf("failed to load itinerary items: %w", err)
		}
		items = loaded
		return nil
	})
	if err := g.Wait(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Session context load failed")
		return types.ChatResult{}, err
	}

	raw, err := s.ai.Complete(ctx, generativeAI.CompletionRequest{
		Prompt:          buildChatPrompt(session, items, message),
		SystemPrompt:    chatSystemPrompt,
		Temperature:     chatTemperature,
		MaxOutputTokens: chatMaxTokens,
		History:         history,
		Caller:          "conversation_chat",
		EstimateID:      uuid.NullUUID{UUID: session.EstimateID, Valid: true},
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Chat completion failed")
		return types.ChatResult{}, fmt.Errorf("failed to generate chat reply: %w", err)
	}

	reply := parseChatResponse(raw)
	span.SetAttributes(attribute.String("chat.intent", string(reply.intent)))
	s.metrics.RecordChatRequest(ctx, string(reply.intent))

	result := types.ChatResult{Response: reply.text, Intent: reply.intent}
	if reply.intent == types.ChatIntentModification && session.ItineraryID != uuid.Nil {
		modResult, err := s.mutator.ModifyItinerary(ctx, *session, message, reply.hint)
		if err != nil {
			// The customer still gets the conversational reply; the
			// modification can be retried.
			l.WarnContext(ctx, "Delegated mutation failed, returning plain reply", slog.Any("error", err))
			span.RecordError(err)
			span.SetStatus(codes.Ok, "Chat handled, mutation degraded")
			return result, nil
		}
		if modResult.BotMessage != "" {
			result.Response = modResult.BotMessage
		}
		result.UpdatedItems = modResult.UpdatedItems
		result.ModificationSuccess = &modResult.Success
	}

	l.InfoContext(ctx, "Chat handled", slog.String("intent", string(result.Intent)))
	span.SetStatus(codes.Ok, "Chat handled")
	return result, nil
}

// chatReply is the parsed shape of one classification-and-reply completion.
// hint is non-nil only when the model volunteered a complete, valid intent.
type chatReply struct {
	text   string
	intent types.ChatIntent
	hint   *types.ModificationIntent
}

const chatSystemPrompt = `You are the travel assistant of a Korea trip quoting service. Customers chat with you to refine a draft itinerary before a travel expert finalizes their quote. Always answer with a single JSON object and nothing else:
{"reply": "<your conversational answer, in the customer's language>", "classification": "question" | "modification" | "feedback" | "other", "intent": <object, only when classification is "modification">}
Classify as "modification" when the customer wants the itinerary changed, "question" when they ask about the trip or places, "feedback" for opinions that need no change, "other" for everything else.`

func buildChatPrompt(session *types.EstimateSession, items []types.ItineraryItem, message string) string {
	return fmt.Sprintf(`Customer message: %q

Trip context:
- Region: %s
- Dates: %s to %s (%d days)
- Declared interests: %s

Current itinerary:
%s

When you classify the message as "modification", include your best guess of the intended change:
{"action": "regenerate_day" | "add_item" | "remove_item" | "replace_item" | "general_feedback", "day_number": <number or null>, "item_name": "<place name or empty>", "category": "<kind of place or empty>", "confidence": <0.0-1.0>, "explanation": "<one line>"}`,
		message,
		session.Region,
		session.StartDate.Format("2006-01-02"),
		session.EndDate.Format("2006-01-02"),
		session.DurationDays,
		strings.Join(session.Interests, ", "),
		itinerary.SummarizeItems(items),
	)
}

// parseChatResponse never fails: anything that does not parse as the expected
// JSON object is treated as a plain reply classified "other".
func parseChatResponse(raw string) chatReply {
	fallback := chatReply{text: strings.TrimSpace(raw), intent: types.ChatIntentOther}

	var payload struct {
		Reply          string `json:"reply"`
		Classification string `json:"classification"`
		Intent         *struct {
			Action      string   `json:"action"`
			DayNumber   *int     `json:"day_number"`
			ItemName    string   `json:"item_name"`
			Category    string   `json:"category"`
			Confidence  *float64 `json:"confidence"`
			Explanation string   `json:"explanation"`
		} `json:"intent"`
	}
	if err := json.Unmarshal([]byte(generativeAI.ExtractJSONBlock(raw)), &payload); err != nil {
		return fallback
	}
	if strings.TrimSpace(payload.Reply) == "" {
		return fallback
	}

	reply := chatReply{
		text:   strings.TrimSpace(payload.Reply),
		intent: normalizeChatIntent(payload.Classification),
	}
	if payload.Intent == nil {
		return reply
	}

	// An incomplete or out-of-range hint is dropped rather than passed on;
	// the mutation engine then resolves the intent itself.
	action := types.ModificationAction(strings.ToLower(strings.TrimSpace(payload.Intent.Action)))
	if !action.Valid() ||
		payload.Intent.Confidence == nil ||
		*payload.Intent.Confidence < 0 || *payload.Intent.Confidence > 1 ||
		(payload.Intent.DayNumber != nil && *payload.Intent.DayNumber < 1) {
		return reply
	}
	reply.hint = &types.ModificationIntent{
		Action:      action,
		DayNumber:   payload.Intent.DayNumber,
		ItemName:    strings.TrimSpace(payload.Intent.ItemName),
		Category:    strings.TrimSpace(payload.Intent.Category),
		Confidence:  *payload.Intent.Confidence,
		Explanation: strings.TrimSpace(payload.Intent.Explanation),
	}
	return reply
}

func normalizeChatIntent(classification string) types.ChatIntent {
	switch types.ChatIntent(strings.ToLower(strings.TrimSpace(classification))) {
	case types.ChatIntentQuestion:
		return types.ChatIntentQuestion
	case types.ChatIntentModification:
		return types.ChatIntentModification
	case types.ChatIntentFeedback:
		return types.ChatIntentFeedback
	default:
		return types.ChatIntentOther
	}
}
