package conversation

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/curatrip/curatrip-server/internal/api"
	generativeAI "github.com/curatrip/curatrip-server/internal/api/generative_ai"
	"github.com/curatrip/curatrip-server/internal/types"
)

// ChatRequest is one customer turn. History carries the prior exchanges; the
// server keeps no conversation state of its own.
type ChatRequest struct {
	Message string                  `json:"message"`
	History []generativeAI.ChatTurn `json:"history,omitempty"`
}

type Handler struct {
	chatService Service
	logger      *slog.Logger
}

func NewHandler(chatService Service, logger *slog.Logger) *Handler {
	return &Handler{
		chatService: chatService,
		logger:      logger,
	}
}

// Chat godoc
// @Summary      Chat About The Itinerary
// @Description  Classifies the message, answers it, and applies requested itinerary changes
// @Tags         Conversation
// @Accept       json
// @Produce      json
// @Param        sessionID path string true "Estimate session ID"
// @Param        request body ChatRequest true "Customer message and optional history"
// @Success      200 {object} types.ChatResult "Reply with classification and any updated items"
// @Failure      400 {object} types.Response "Invalid request"
// @Failure      404 {object} types.Response "Session not found"
// @Failure      500 {object} types.Response "Internal Server Error"
// @Security     BearerAuth
// @Router       /sessions/{sessionID}/chat [post]
func (h *Handler) Chat(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("ConversationHandler").Start(r.Context(), "Chat", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/sessions/{sessionID}/chat"),
	))
	defer span.End()

	l := h.logger.With(slog.String("handler", "Chat"))

	sessionID, err := uuid.Parse(chi.URLParam(r, "sessionID"))
	if err != nil {
		l.ErrorContext(ctx, "Invalid session ID format", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusBadRequest, "Invalid session ID format")
		return
	}

	var req ChatRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		l.WarnContext(ctx, "Invalid chat request body", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		api.ErrorResponse(w, r, http.StatusBadRequest, "Message must not be empty")
		return
	}

	result, err := h.chatService.Chat(ctx, sessionID, req.Message, req.History)
	if err != nil {
		if errors.Is(err, types.ErrEstimateNotFound) || errors.Is(err, types.ErrItineraryNotFound) {
			api.ErrorResponse(w, r, http.StatusNotFound, "Session not found")
			return
		}
		l.ErrorContext(ctx, "Chat failed", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to handle chat message")
		return
	}

	api.WriteJSONResponse(w, r, http.StatusOK, result)
}
