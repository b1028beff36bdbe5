package itinerary

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/curatrip/curatrip-server/internal/types"
)

// Service carries the thin itinerary operations around the modification
// engine: reads for the frontend, the finalize transition, and calendar
// export.
type Service interface {
	GetItinerary(ctx context.Context, estimateID uuid.UUID) (*types.EstimateSession, []types.ItineraryItem, error)
	Finalize(ctx context.Context, session *types.EstimateSession) (*types.FinalizeResult, error)
	ExportCalendar(ctx context.Context, estimateID uuid.UUID) (string, error)
}

type ServiceImpl struct {
	logger *slog.Logger
	repo   Repository
}

var _ Service = (*ServiceImpl)(nil)

func NewService(repo Repository, logger *slog.Logger) *ServiceImpl {
	return &ServiceImpl{logger: logger, repo: repo}
}

func (s *ServiceImpl) GetItinerary(ctx context.Context, estimateID uuid.UUID) (*types.EstimateSession, []types.ItineraryItem, error) {
	ctx, span := otel.Tracer("ItineraryService").Start(ctx, "GetItinerary", trace.WithAttributes(
		attribute.String("estimate.id", estimateID.String()),
	))
	defer span.End()

	session, err := s.repo.GetSession(ctx, estimateID)
	if err != nil {
		span.RecordError(err)
		return nil, nil, err
	}
	items, err := s.repo.ListItems(ctx, session.ItineraryID)
	if err != nil {
		span.RecordError(err)
		return nil, nil, err
	}
	span.SetStatus(codes.Ok, "Itinerary fetched")
	return session, items, nil
}

// Finalize moves a draft estimate to finalized so the travel team picks it
// up. Refusals (already finalized, empty itinerary) are ordinary results,
// not errors.
func (s *ServiceImpl) Finalize(ctx context.Context, session *types.EstimateSession) (*types.FinalizeResult, error) {
	ctx, span := otel.Tracer("ItineraryService").Start(ctx, "Finalize", trace.WithAttributes(
		attribute.String("estimate.id", session.EstimateID.String()),
		attribute.String("estimate.status", string(session.Status)),
	))
	defer span.End()

	l := s.logger.With(slog.String("method", "Finalize"))

	switch session.Status {
	case types.EstimateStatusFinalized:
		return &types.FinalizeResult{
			Success:     false,
			Message:     "This itinerary has already been finalized. Our travel team is reviewing it.",
			ItineraryID: session.ItineraryID,
		}, nil
	case types.EstimateStatusArchived:
		return &types.FinalizeResult{
			Success:     false,
			Message:     "This estimate has been archived and can no longer be finalized.",
			ItineraryID: session.ItineraryID,
		}, nil
	}

	items, err := s.repo.ListItems(ctx, session.ItineraryID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	if len(items) == 0 {
		return &types.FinalizeResult{
			Success:     false,
			Message:     "Your itinerary is still empty. Add a few places before finalizing.",
			ItineraryID: session.ItineraryID,
		}, nil
	}

	if err := s.repo.UpdateEstimateStatus(ctx, session.EstimateID, types.EstimateStatusFinalized); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Status update failed")
		return nil, err
	}

	l.InfoContext(ctx, "Estimate finalized",
		slog.String("estimate_id", session.EstimateID.String()),
		slog.Int("item_count", len(items)))
	span.SetStatus(codes.Ok, "Finalized")

	return &types.FinalizeResult{
		Success:     true,
		Message:     "Your itinerary is finalized and on its way to our travel experts for review.",
		ItineraryID: session.ItineraryID,
	}, nil
}

// ExportCalendar renders the itinerary as iCalendar text, one all-day event
// per item, day offsets anchored on the trip start date.
func (s *ServiceImpl) ExportCalendar(ctx context.Context, estimateID uuid.UUID) (string, error) {
	ctx, span := otel.Tracer("ItineraryService").Start(ctx, "ExportCalendar", trace.WithAttributes(
		attribute.String("estimate.id", estimateID.String()),
	))
	defer span.End()

	session, items, err := s.GetItinerary(ctx, estimateID)
	if err != nil {
		span.RecordError(err)
		return "", err
	}

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//curatrip//itinerary//EN")
	calName := fmt.Sprintf("%s Trip", session.Region)
	if session.CustomerName != "" {
		calName = fmt.Sprintf("%s - %s", session.CustomerName, calName)
	}
	cal.SetName(calName)

	now := time.Now()
	for _, item := range items {
		day := session.StartDate.AddDate(0, 0, item.DayNumber-1)

		event := cal.AddEvent(fmt.Sprintf("%s@curatrip.io", item.ID))
		event.SetCreatedTime(now)
		event.SetDtStampTime(now)
		event.SetAllDayStartAt(day)
		event.SetAllDayEndAt(day.AddDate(0, 0, 1))

		summary := item.ItemName
		if item.IsTBD {
			summary = "[TBD] " + summary
		}
		event.SetSummary(summary)
		if item.Note != "" {
			event.SetDescription(item.Note)
		}
		if item.ItemInfo != nil && item.ItemInfo.NameKor != "" {
			event.SetLocation(item.ItemInfo.NameKor)
		}
	}

	span.SetAttributes(attribute.Int("events.count", len(items)))
	span.SetStatus(codes.Ok, "Calendar exported")
	return cal.Serialize(), nil
}
