package intent

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	generativeAI "github.com/curatrip/curatrip-server/internal/api/generative_ai"
	"github.com/curatrip/curatrip-server/internal/types"
)

const (
	// Extraction wants determinism, not creativity.
	resolveTemperature = float32(0.2)
	resolveMaxTokens   = int32(512)
)

// ResolveInput carries the conversational context the prompt embeds.
type ResolveInput struct {
	Message          string
	ItinerarySummary string
	Interests        []string
	Region           string
	EstimateID       uuid.NullUUID
}

// Service distills a free-text customer message into a typed intent.
type Service interface {
	// Resolve makes one completion call and parses its JSON answer. An
	// unparseable answer degrades to the neutral intent; only the
	// completion call itself failing is an error.
	Resolve(ctx context.Context, input ResolveInput) (types.ModificationIntent, error)
}

type ServiceImpl struct {
	logger *slog.Logger
	ai     generativeAI.CompletionClient
}

var _ Service = (*ServiceImpl)(nil)

func NewService(ai generativeAI.CompletionClient, logger *slog.Logger) *ServiceImpl {
	return &ServiceImpl{logger: logger, ai: ai}
}

func (s *ServiceImpl) Resolve(ctx context.Context, input ResolveInput) (types.ModificationIntent, error) {
	ctx, span := otel.Tracer("IntentService").Start(ctx, "Resolve", trace.WithAttributes(
		attribute.Int("message.chars", len(input.Message)),
	))
	defer span.End()

	l := s.logger.With(slog.String("method", "Resolve"))

	raw, err := s.ai.Complete(ctx, generativeAI.CompletionRequest{
		Prompt:          buildResolvePrompt(input),
		SystemPrompt:    resolveSystemPrompt,
		Temperature:     resolveTemperature,
		MaxOutputTokens: resolveMaxTokens,
		Caller:          "intent_resolver",
		EstimateID:      input.EstimateID,
	})
	if err != nil {
		l.ErrorContext(ctx, "Intent completion call failed", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Completion call failed")
		return types.ModificationIntent{}, fmt.Errorf("failed to resolve intent: %w", err)
	}

	parsed, err := ParseIntentResponse(raw)
	if err != nil {
		l.WarnContext(ctx, "Unparseable intent response, returning neutral intent",
			slog.Any("error", err))
		span.SetAttributes(attribute.Bool("intent.parse_failed", true))
		span.SetStatus(codes.Ok, "Neutral fallback")
		return NeutralIntent(), nil
	}

	span.SetAttributes(
		attribute.String("intent.action", string(parsed.Action)),
		attribute.Float64("intent.confidence", parsed.Confidence),
	)
	span.SetStatus(codes.Ok, "Intent resolved")
	return parsed, nil
}

const resolveSystemPrompt = `You are the modification analyst for a Korea travel itinerary service. Given a customer's message and their current itinerary, identify the change they are asking for. Respond with a single JSON object and nothing else.`

func buildResolvePrompt(input ResolveInput) string {
	region := input.Region
	if region == "" {
		region = "unspecified"
	}
	interests := "none declared"
	if len(input.Interests) > 0 {
		interests = strings.Join(input.Interests, ", ")
	}

	return fmt.Sprintf(`Customer message: %q

Trip region: %s
Declared interests: %s

Current itinerary:
%s

Classify the requested change as JSON:
{
  "action": "regenerate_day" | "add_item" | "remove_item" | "replace_item" | "general_feedback",
  "day_number": <number, only when a specific day is referenced>,
  "item_name": "<the place the customer named, if any>",
  "category": "<the requested kind of place, e.g. restaurant or cafe, if any>",
  "confidence": <0.0 to 1.0>,
  "explanation": "<one short sentence>"
}

Rules:
- "regenerate_day" must carry the day_number it applies to.
- Use "general_feedback" for praise, thanks or smalltalk that asks for no change.
- Lower the confidence when the message is vague about what should change.`,
		input.Message, region, interests, input.ItinerarySummary)
}
