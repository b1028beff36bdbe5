package generativeAI

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/genai"

	"github.com/curatrip/curatrip-server/app/observability/metrics"
)

const (
	defaultModel       = "gemini-2.0-flash"
	defaultTemperature = float32(0.5)
	defaultCallTimeout = 30 * time.Second
)

// ChatTurn is one prior exchange supplied as completion history.
type ChatTurn struct {
	Role string `json:"role"` // "user" or "model"
	Text string `json:"text"`
}

// CompletionRequest is a single text-completion call. Caller and EstimateID
// only feed the interaction audit trail.
type CompletionRequest struct {
	Prompt          string
	SystemPrompt    string
	Temperature     float32
	MaxOutputTokens int32
	History         []ChatTurn
	Caller          string
	EstimateID      uuid.NullUUID
}

// CompletionClient is the text-completion boundary. Implementations return
// the raw model text; callers own all parsing and fallbacks.
type CompletionClient interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

// Config holds the Gemini connection settings, normally sourced from the
// application config.
type Config struct {
	APIKey      string
	Model       string
	Temperature float32
	CallTimeout time.Duration
}

// AIClient implements CompletionClient on the Gemini API.
type AIClient struct {
	client      *genai.Client
	logger      *slog.Logger
	recorder    InteractionRecorder
	metrics     *metrics.AppMetrics
	model       string
	temperature float32
	callTimeout time.Duration
}

var _ CompletionClient = (*AIClient)(nil)

// NewAIClient dials Gemini. recorder may be nil to disable the audit trail.
func NewAIClient(ctx context.Context, cfg Config, logger *slog.Logger, recorder InteractionRecorder, appMetrics *metrics.AppMetrics) (*AIClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini api key is not set")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}
	model := cfg.Model
	if model == "" {
		model = defaultModel
	}
	temperature := cfg.Temperature
	if temperature == 0 {
		temperature = defaultTemperature
	}
	callTimeout := cfg.CallTimeout
	if callTimeout <= 0 {
		callTimeout = defaultCallTimeout
	}
	return &AIClient{
		client:      client,
		logger:      logger,
		recorder:    recorder,
		metrics:     appMetrics,
		model:       model,
		temperature: temperature,
		callTimeout: callTimeout,
	}, nil
}

// Complete sends one prompt (with optional history and system instruction)
// and returns the raw response text. Every call carries a bounded timeout so
// a stalled upstream surfaces as a retryable failure, never a hang.
func (ai *AIClient) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	ctx, span := otel.Tracer("AIClient").Start(ctx, "Complete", trace.WithAttributes(
		attribute.String("llm.model", ai.model),
		attribute.String("llm.caller", req.Caller),
		attribute.Int("llm.prompt_chars", len(req.Prompt)),
	))
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, ai.callTimeout)
	defer cancel()

	temperature := req.Temperature
	if temperature == 0 {
		temperature = ai.temperature
	}
	config := &genai.GenerateContentConfig{
		Temperature: genai.Ptr[float32](temperature),
	}
	if req.MaxOutputTokens > 0 {
		config.MaxOutputTokens = req.MaxOutputTokens
	}
	if req.SystemPrompt != "" {
		config.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: req.SystemPrompt}},
		}
	}

	start := time.Now()
	text, err := ai.send(ctx, req, config)
	latency := time.Since(start)
	ai.metrics.RecordLlmCall(ctx, req.Caller, latency, err == nil)
	ai.record(req, text, latency, err == nil)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "completion failed")
		return "", err
	}
	span.SetAttributes(attribute.Int("llm.response_chars", len(text)))
	span.SetStatus(codes.Ok, "completion succeeded")
	return text, nil
}

func (ai *AIClient) send(ctx context.Context, req CompletionRequest, config *genai.GenerateContentConfig) (string, error) {
	history := make([]*genai.Content, 0, len(req.History))
	for _, turn := range req.History {
		role := genai.RoleUser
		if turn.Role == string(genai.RoleModel) {
			role = genai.RoleModel
		}
		history = append(history, genai.NewContentFromText(turn.Text, role))
	}

	chat, err := ai.client.Chats.Create(ctx, ai.model, config, history)
	if err != nil {
		return "", fmt.Errorf("failed to create chat: %w", err)
	}
	response, err := chat.SendMessage(ctx, genai.Part{Text: req.Prompt})
	if err != nil {
		return "", fmt.Errorf("failed to send message: %w", err)
	}

	var text string
	for _, candidate := range response.Candidates {
		if candidate.Content != nil && len(candidate.Content.Parts) > 0 {
			text = candidate.Content.Parts[0].Text
			break
		}
	}
	if text == "" {
		return "", fmt.Errorf("no text content in completion response")
	}
	return text, nil
}

// record writes the audit row outside the caller's deadline. Audit failures
// are logged and swallowed.
func (ai *AIClient) record(req CompletionRequest, text string, latency time.Duration, success bool) {
	if ai.recorder == nil {
		return
	}
	recordCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := ai.recorder.RecordInteraction(recordCtx, InteractionRecord{
		EstimateID:    req.EstimateID,
		Caller:        req.Caller,
		Model:         ai.model,
		PromptChars:   len(req.Prompt),
		ResponseChars: len(text),
		Latency:       latency,
		Success:       success,
	})
	if err != nil && ai.logger != nil {
		ai.logger.Warn("failed to record llm interaction",
			slog.String("caller", req.Caller), slog.Any("error", err))
	}
}
