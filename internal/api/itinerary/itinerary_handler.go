package itinerary

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/curatrip/curatrip-server/internal/api"
	"github.com/curatrip/curatrip-server/internal/types"
)

// ItineraryResponse is the full read model for one session's itinerary.
type ItineraryResponse struct {
	Session *types.EstimateSession `json:"session"`
	Items   []types.ItineraryItem  `json:"items"`
}

type Handler struct {
	itineraryService Service
	logger           *slog.Logger
}

func NewHandler(itineraryService Service, logger *slog.Logger) *Handler {
	return &Handler{
		itineraryService: itineraryService,
		logger:           logger,
	}
}

// GetItinerary godoc
// @Summary      Get Session Itinerary
// @Description  Returns the estimate session and its ordered per-day item list
// @Tags         Itinerary
// @Produce      json
// @Param        sessionID path string true "Estimate session ID"
// @Success      200 {object} ItineraryResponse "Session itinerary"
// @Failure      404 {object} types.Response "Session not found"
// @Failure      500 {object} types.Response "Internal Server Error"
// @Security     BearerAuth
// @Router       /sessions/{sessionID}/itinerary [get]
func (h *Handler) GetItinerary(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("ItineraryHandler").Start(r.Context(), "GetItinerary", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/sessions/{sessionID}/itinerary"),
	))
	defer span.End()

	l := h.logger.With(slog.String("handler", "GetItinerary"))

	sessionID, err := uuid.Parse(chi.URLParam(r, "sessionID"))
	if err != nil {
		l.ErrorContext(ctx, "Invalid session ID format", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusBadRequest, "Invalid session ID format")
		return
	}

	session, items, err := h.itineraryService.GetItinerary(ctx, sessionID)
	if err != nil {
		if errors.Is(err, types.ErrEstimateNotFound) {
			api.ErrorResponse(w, r, http.StatusNotFound, "Session not found")
			return
		}
		l.ErrorContext(ctx, "Failed to fetch itinerary", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to fetch itinerary")
		return
	}

	api.WriteJSONResponse(w, r, http.StatusOK, ItineraryResponse{Session: session, Items: items})
}

// Finalize godoc
// @Summary      Finalize Itinerary
// @Description  Marks the itinerary ready for human expert handoff
// @Tags         Itinerary
// @Produce      json
// @Param        sessionID path string true "Estimate session ID"
// @Success      200 {object} types.FinalizeResult "Finalize outcome"
// @Failure      404 {object} types.Response "Session not found"
// @Failure      500 {object} types.Response "Internal Server Error"
// @Security     BearerAuth
// @Router       /sessions/{sessionID}/finalize [post]
func (h *Handler) Finalize(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("ItineraryHandler").Start(r.Context(), "Finalize", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/sessions/{sessionID}/finalize"),
	))
	defer span.End()

	l := h.logger.With(slog.String("handler", "Finalize"))

	sessionID, err := uuid.Parse(chi.URLParam(r, "sessionID"))
	if err != nil {
		l.ErrorContext(ctx, "Invalid session ID format", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusBadRequest, "Invalid session ID format")
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

	result, err := h.itineraryService.Finalize(ctx, session)
	if err != nil {
		l.ErrorContext(ctx, "Failed to finalize itinerary", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to finalize itinerary")
		return
	}

	l.InfoContext(ctx, "Finalize handled", slog.Bool("success", result.Success))
	api.WriteJSONResponse(w, r, http.StatusOK, result)
}

// ExportCalendar godoc
// @Summary      Export Itinerary Calendar
// @Description  Renders the itinerary as an iCalendar file
// @Tags         Itinerary
// @Produce      text/calendar
// @Param        sessionID path string true "Estimate session ID"
// @Success      200 {string} string "iCalendar payload"
// @Failure      404 {object} types.Response "Session not found"
// @Failure      500 {object} types.Response "Internal Server Error"
// @Security     BearerAuth
// @Router       /sessions/{sessionID}/itinerary/calendar.ics [get]
func (h *Handler) ExportCalendar(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("ItineraryHandler").Start(r.Context(), "ExportCalendar", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/sessions/{sessionID}/itinerary/calendar.ics"),
	))
	defer span.End()

	l := h.logger.With(slog.String("handler", "ExportCalendar"))

	sessionID, err := uuid.Parse(chi.URLParam(r, "sessionID"))
	if err != nil {
		l.ErrorContext(ctx, "Invalid session ID format", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusBadRequest, "Invalid session ID format")
		return
	}

	serialized, err := h.itineraryService.ExportCalendar(ctx, sessionID)
	if err != nil {
		if errors.Is(err, types.ErrEstimateNotFound) {
			api.ErrorResponse(w, r, http.StatusNotFound, "Session not found")
			return
		}
		l.ErrorContext(ctx, "Failed to export calendar", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to export calendar")
		return
	}

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="itinerary.ics"`)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte(serialized)); err != nil {
		l.ErrorContext(ctx, "Failed to write calendar body", slog.Any("error", err))
	}
}
