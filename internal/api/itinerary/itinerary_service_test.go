package itinerary

import (
	"context"
	"log/slog"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/curatrip/curatrip-server/internal/types"
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) GetSession(ctx context.Context, estimateID uuid.UUID) (*types.EstimateSession, error) {
	args := m.Called(ctx, estimateID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.EstimateSession), args.Error(1)
}

func (m *MockRepository) ListItems(ctx context.Context, itineraryID uuid.UUID) ([]types.ItineraryItem, error) {
	args := m.Called(ctx, itineraryID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]types.ItineraryItem), args.Error(1)
}

func (m *MockRepository) ListItemsByEstimate(ctx context.Context, estimateID uuid.UUID) ([]types.ItineraryItem, error) {
	args := m.Called(ctx, estimateID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]types.ItineraryItem), args.Error(1)
}

func (m *MockRepository) ReplaceItems(ctx context.Context, itineraryID uuid.UUID, items []types.ItineraryItem) error {
	args := m.Called(ctx, itineraryID, items)
	return args.Error(0)
}

func (m *MockRepository) UpdateEstimateStatus(ctx context.Context, estimateID uuid.UUID, status types.EstimateStatus) error {
	args := m.Called(ctx, estimateID, status)
	return args.Error(0)
}

func setupServiceTest() (*ServiceImpl, *MockRepository) {
	mockRepo := new(MockRepository)
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	return NewService(mockRepo, logger), mockRepo
}

func draftSession() *types.EstimateSession {
	return &types.EstimateSession{
		EstimateID:   uuid.New(),
		ItineraryID:  uuid.New(),
		CustomerName: "Han Seo-yeon",
		Region:       "seoul",
		StartDate:    time.Date(2026, 4, 10, 0, 0, 0, 0, time.UTC),
		EndDate:      time.Date(2026, 4, 12, 0, 0, 0, 0, time.UTC),
		DurationDays: 3,
		Interests:    []string{"food", "history"},
		Status:       types.EstimateStatusDraft,
	}
}

func TestFinalize(t *testing.T) {
	ctx := context.Background()

	t.Run("Draft with items finalizes", func(t *testing.T) {
		service, mockRepo := setupServiceTest()
		session := draftSession()

		items := []types.ItineraryItem{{ID: uuid.New(), Type: types.ItemTypePlace, DayNumber: 1, ItemName: "Gyeongbokgung Palace"}}
		mockRepo.On("ListItems", mock.Anything, session.ItineraryID).Return(items, nil).Once()
		mockRepo.On("UpdateEstimateStatus", mock.Anything, session.EstimateID, types.EstimateStatusFinalized).Return(nil).Once()

		result, err := service.Finalize(ctx, session)
		require.NoError(t, err)
		assert.True(t, result.Success)
		assert.Equal(t, session.ItineraryID, result.ItineraryID)
		mockRepo.AssertExpectations(t)
	})

	t.Run("Already finalized refuses without touching storage", func(t *testing.T) {
		service, mockRepo := setupServiceTest()
		session := draftSession()
		session.Status = types.EstimateStatusFinalized

		result, err := service.Finalize(ctx, session)
		require.NoError(t, err)
		assert.False(t, result.Success)
		assert.Contains(t, result.Message, "already been finalized")
		mockRepo.AssertNotCalled(t, "UpdateEstimateStatus", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Empty itinerary refuses", func(t *testing.T) {
		service, mockRepo := setupServiceTest()
		session := draftSession()

		mockRepo.On("ListItems", mock.Anything, session.ItineraryID).Return([]types.ItineraryItem{}, nil).Once()

		result, err := service.Finalize(ctx, session)
		require.NoError(t, err)
		assert.False(t, result.Success)
		assert.Contains(t, result.Message, "empty")
		mockRepo.AssertNotCalled(t, "UpdateEstimateStatus", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Storage failure propagates", func(t *testing.T) {
		service, mockRepo := setupServiceTest()
		session := draftSession()

		mockRepo.On("ListItems", mock.Anything, session.ItineraryID).
			Return([]types.ItineraryItem{{ID: uuid.New(), ItemName: "Anywhere"}}, nil).Once()
		mockRepo.On("UpdateEstimateStatus", mock.Anything, session.EstimateID, types.EstimateStatusFinalized).
			Return(assert.AnError).Once()

		_, err := service.Finalize(ctx, session)
		require.Error(t, err)
	})
}

func TestExportCalendar(t *testing.T) {
	ctx := context.Background()

	t.Run("Renders one all-day event per item", func(t *testing.T) {
		service, mockRepo := setupServiceTest()
		session := draftSession()
		catalogRef := uuid.New()

		items := []types.ItineraryItem{
			{
				ID: uuid.New(), Type: types.ItemTypePlace, DayNumber: 1, OrderIndex: 0,
				ItemID: &catalogRef, ItemName: "Gyeongbokgung Palace",
				Note:     "Matched by name",
				ItemInfo: &types.PlaceSnapshot{NameKor: "경복궁"},
			},
			{
				ID: uuid.New(), Type: types.ItemTypePlace, DayNumber: 2, OrderIndex: 0,
				ItemName: "My Made Up Cafe XYZ", IsTBD: true,
			},
		}
		mockRepo.On("GetSession", mock.Anything, session.EstimateID).Return(session, nil).Once()
		mockRepo.On("ListItems", mock.Anything, session.ItineraryID).Return(items, nil).Once()

		serialized, err := service.ExportCalendar(ctx, session.EstimateID)
		require.NoError(t, err)

		assert.True(t, strings.HasPrefix(serialized, "BEGIN:VCALENDAR"))
		assert.Equal(t, 2, strings.Count(serialized, "BEGIN:VEVENT"))
		assert.Contains(t, serialized, "SUMMARY:Gyeongbokgung Palace")
		assert.Contains(t, serialized, "[TBD] My Made Up Cafe XYZ")
		assert.Contains(t, serialized, "DTSTART;VALUE=DATE:20260410")
		assert.Contains(t, serialized, "DTSTART;VALUE=DATE:20260411")
		mockRepo.AssertExpectations(t)
	})

	t.Run("Unknown session propagates sentinel", func(t *testing.T) {
		service, mockRepo := setupServiceTest()
		estimateID := uuid.New()

		mockRepo.On("GetSession", mock.Anything, estimateID).Return(nil, types.ErrEstimateNotFound).Once()

		_, err := service.ExportCalendar(ctx, estimateID)
		require.ErrorIs(t, err, types.ErrEstimateNotFound)
	})
}
