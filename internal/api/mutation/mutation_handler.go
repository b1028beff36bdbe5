package mutation

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/curatrip/curatrip-server/internal/api"
	"github.com/curatrip/curatrip-server/internal/api/itinerary"
	"github.com/curatrip/curatrip-server/internal/types"
)

// ModificationRequest carries one free-text change request. Intent, when
// supplied, is executed as-is instead of being resolved from the message.
type ModificationRequest struct {
	Message string                    `json:"message"`
	Intent  *types.ModificationIntent `json:"intent,omitempty"`
}

type Handler struct {
	mutationService  Service
	itineraryService itinerary.Service
	logger           *slog.Logger
}

func NewHandler(mutationService Service, itineraryService itinerary.Service, logger *slog.Logger) *Handler {
	return &Handler{
		mutationService:  mutationService,
		itineraryService: itineraryService,
		logger:           logger,
	}
}

// Modify godoc
// @Summary      Apply Itinerary Modification
// @Description  Resolves the message into a typed action and executes it against the itinerary
// @Tags         Mutation
// @Accept       json
// @Produce      json
// @Param        sessionID path string true "Estimate session ID"
// @Param        request body ModificationRequest true "Change request, optionally pre-resolved"
// @Success      200 {object} types.ModificationResult "Mutation outcome; success=false is ordinary flow"
// @Failure      400 {object} types.Response "Invalid request"
// @Failure      404 {object} types.Response "Session not found"
// @Failure      500 {object} types.Response "Internal Server Error"
// @Security     BearerAuth
// @Router       /sessions/{sessionID}/itinerary/modifications [post]
func (h *Handler) Modify(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("MutationHandler").Start(r.Context(), "Modify", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/sessions/{sessionID}/itinerary/modifications"),
	))
	defer span.End()

	l := h.logger.With(slog.String("handler", "Modify"))

	sessionID, err := uuid.Parse(chi.URLParam(r, "sessionID"))
	if err != nil {
		l.ErrorContext(ctx, "Invalid session ID format", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusBadRequest, "Invalid session ID format")
		return
	}

	var req ModificationRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		l.WarnContext(ctx, "Invalid modification request body", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.Message) == "" && req.Intent == nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, "Message or intent must be provided")
		return
	}

	session, _, err := h.itineraryService.GetItinerary(ctx, sessionID)
	if err != nil {
		if errors.Is(err, types.ErrEstimateNotFound) {
			api.ErrorResponse(w, r, http.StatusNotFound, "Session not found")
			return
		}
		l.ErrorContext(ctx, "Failed to load session", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to load session")
		return
	}

	result, err := h.mutationService.ModifyItinerary(ctx, *session, req.Message, req.Intent)
	if err != nil {
		l.ErrorContext(ctx, "Modification failed", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to apply modification")
		return
	}

	api.WriteJSONResponse(w, r, http.StatusOK, result)
}

// RegenerateDay godoc
// @Summary      Regenerate Itinerary Day
// @Description  Rebuilds one day with freshly sourced and ranked places
// @Tags         Mutation
// @Produce      json
// @Param        sessionID path string true "Estimate session ID"
// @Param        dayNumber path int true "Day to rebuild (1-based)"
// @Success      200 {object} types.ModificationResult "Mutation outcome; success=false is ordinary flow"
// @Failure      400 {object} types.Response "Invalid request"
// @Failure      404 {object} types.Response "Session not found"
// @Failure      500 {object} types.Response "Internal Server Error"
// @Security     BearerAuth
// @Router       /sessions/{sessionID}/itinerary/days/{dayNumber}/regenerate [post]
func (h *Handler) RegenerateDay(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("MutationHandler").Start(r.Context(), "RegenerateDay", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/sessions/{sessionID}/itinerary/days/{dayNumber}/regenerate"),
	))
	defer span.End()

	l := h.logger.With(slog.String("handler", "RegenerateDay"))

	sessionID, err := uuid.Parse(chi.URLParam(r, "sessionID"))
	if err != nil {
		l.ErrorContext(ctx, "Invalid session ID format", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusBadRequest, "Invalid session ID format")
		return
	}
	dayNumber, err := strconv.Atoi(chi.URLParam(r, "dayNumber"))
	if err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, "Invalid day number")
		return
	}

	session, _, err := h.itineraryService.GetItinerary(ctx, sessionID)
	if err != nil {
		if errors.Is(err, types.ErrEstimateNotFound) {
			api.ErrorResponse(w, r, http.StatusNotFound, "Session not found")
			return
		}
		l.ErrorContext(ctx, "Failed to load session", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to load session")
		return
	}

	result, err := h.mutationService.RegenerateDay(ctx, *session, dayNumber)
	if err != nil {
		l.ErrorContext(ctx, "Regeneration failed", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to regenerate day")
		return
	}

	api.WriteJSONResponse(w, r, http.StatusOK, result)
}
