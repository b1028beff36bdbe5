package sourcing

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/curatrip/curatrip-server/internal/types"
)

type MockCatalogRepo struct {
	mock.Mock
}

func (m *MockCatalogRepo) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]types.CatalogPlace, error) {
	args := m.Called(ctx, ids)
	var places []types.CatalogPlace
	if args.Get(0) != nil {
		places = args.Get(0).([]types.CatalogPlace)
	}
	return places, args.Error(1)
}

func (m *MockCatalogRepo) SearchByNameFragments(ctx context.Context, fragments []string, eligibility types.EligibilityFilter) ([]types.CatalogPlace, error) {
	args := m.Called(ctx, fragments, eligibility)
	var places []types.CatalogPlace
	if args.Get(0) != nil {
		places = args.Get(0).([]types.CatalogPlace)
	}
	return places, args.Error(1)
}

func (m *MockCatalogRepo) Search(ctx context.Context, filter types.CatalogFilter) ([]types.CatalogPlace, error) {
	args := m.Called(ctx, filter)
	var places []types.CatalogPlace
	if args.Get(0) != nil {
		places = args.Get(0).([]types.CatalogPlace)
	}
	return places, args.Error(1)
}

func (m *MockCatalogRepo) FuzzySearch(ctx context.Context, queries []string, opts types.FuzzySearchOptions) (map[string]types.ScoredPlace, error) {
	args := m.Called(ctx, queries, opts)
	var results map[string]types.ScoredPlace
	if args.Get(0) != nil {
		results = args.Get(0).(map[string]types.ScoredPlace)
	}
	return results, args.Error(1)
}

func (m *MockCatalogRepo) FuzzyCandidates(ctx context.Context, term string, limit int, opts types.FuzzySearchOptions) ([]types.ScoredPlace, error) {
	args := m.Called(ctx, term, limit, opts)
	var results []types.ScoredPlace
	if args.Get(0) != nil {
		results = args.Get(0).([]types.ScoredPlace)
	}
	return results, args.Error(1)
}

func setupSourcingServiceTest() (*ServiceImpl, *MockCatalogRepo) {
	mockRepo := new(MockCatalogRepo)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewService(mockRepo, nil, logger), mockRepo
}

func eligiblePlace(nameEng string) types.CatalogPlace {
	return types.CatalogPlace{
		ID:        uuid.New(),
		PlaceType: types.ItemTypePlace,
		NameEng:   nameEng,
		Region:    "서울",
		AIEnabled: true,
	}
}

func TestFindCandidates(t *testing.T) {
	ctx := context.Background()

	t.Run("query substring hit wins immediately", func(t *testing.T) {
		service, mockRepo := setupSourcingServiceTest()

		market := eligiblePlace("Gwangjang Market")
		mockRepo.On("Search", mock.Anything, mock.MatchedBy(func(f types.CatalogFilter) bool {
			return f.TextQuery == "Gwangjang Market" &&
				f.Eligibility == types.EligibleOnly &&
				f.Limit == 5 &&
				len(f.RegionVariants) == 3
		})).Return([]types.CatalogPlace{market}, nil).Once()

		places, err := service.FindCandidates(ctx, types.CandidateQuery{
			Query:  "Gwangjang Market",
			Region: "seoul",
			Type:   types.ItemTypePlace,
			Limit:  5,
		})

		require.NoError(t, err)
		require.Len(t, places, 1)
		assert.Equal(t, market.ID, places[0].ID)
		mockRepo.AssertNotCalled(t, "FuzzyCandidates", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("retries with whitespace stripped before going fuzzy", func(t *testing.T) {
		service, mockRepo := setupSourcingServiceTest()

		lotteWorld := eligiblePlace("Lotteworld Adventure")
		mockRepo.On("Search", mock.Anything, mock.MatchedBy(func(f types.CatalogFilter) bool {
			return f.TextQuery == "Lotte World"
		})).Return([]types.CatalogPlace{}, nil).Once()
		mockRepo.On("Search", mock.Anything, mock.MatchedBy(func(f types.CatalogFilter) bool {
			return f.TextQuery == "LotteWorld"
		})).Return([]types.CatalogPlace{lotteWorld}, nil).Once()

		places, err := service.FindCandidates(ctx, types.CandidateQuery{Query: "Lotte World", Type: types.ItemTypePlace})

		require.NoError(t, err)
		require.Len(t, places, 1)
		assert.Equal(t, lotteWorld.ID, places[0].ID)
		mockRepo.AssertNotCalled(t, "FuzzyCandidates", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		mockRepo.AssertExpectations(t)
	})

	t.Run("falls back to trigram candidates scoped by type only", func(t *testing.T) {
		service, mockRepo := setupSourcingServiceTest()

		best := eligiblePlace("Gwangjang Market")
		second := eligiblePlace("Mangwon Market")
		mockRepo.On("Search", mock.Anything, mock.AnythingOfType("types.CatalogFilter")).
			Return([]types.CatalogPlace{}, nil).Twice()
		mockRepo.On("FuzzyCandidates", mock.Anything, "Gwanjang Markt", 20, mock.MatchedBy(func(opts types.FuzzySearchOptions) bool {
			return opts.Eligibility == types.EligibleOnly && len(opts.RegionVariants) == 0
		})).Return([]types.ScoredPlace{
			{CatalogPlace: best, Score: 0.71},
			{CatalogPlace: second, Score: 0.44},
		}, nil).Once()

		places, err := service.FindCandidates(ctx, types.CandidateQuery{
			Query:  "Gwanjang Markt",
			Region: "seoul",
			Type:   types.ItemTypePlace,
		})

		require.NoError(t, err)
		require.Len(t, places, 2)
		assert.Equal(t, best.ID, places[0].ID)
		mockRepo.AssertExpectations(t)
	})

	t.Run("fuzzy failure falls through to the interest step", func(t *testing.T) {
		service, mockRepo := setupSourcingServiceTest()

		bbqAlley := eligiblePlace("Mapo BBQ Alley")
		mockRepo.On("Search", mock.Anything, mock.MatchedBy(func(f types.CatalogFilter) bool {
			return f.TextQuery != ""
		})).Return([]types.CatalogPlace{}, nil).Twice()
		mockRepo.On("FuzzyCandidates", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return(nil, errors.New("pg_trgm unavailable")).Once()
		mockRepo.On("Search", mock.Anything, mock.MatchedBy(func(f types.CatalogFilter) bool {
			return len(f.Categories) == 1 && f.Categories[0] == "Theme:Foodie" &&
				len(f.InterestTerms) == 1 && f.InterestTerms[0] == "food"
		})).Return([]types.CatalogPlace{bbqAlley}, nil).Once()

		places, err := service.FindCandidates(ctx, types.CandidateQuery{
			Query:     "Mystery Spot",
			Interests: []string{"food"},
			Type:      types.ItemTypePlace,
		})

		require.NoError(t, err)
		require.Len(t, places, 1)
		assert.Equal(t, bbqAlley.ID, places[0].ID)
		mockRepo.AssertExpectations(t)
	})

	t.Run("no query goes straight to mapped categories and raw terms", func(t *testing.T) {
		service, mockRepo := setupSourcingServiceTest()

		palace := eligiblePlace("Gyeongbokgung Palace")
		mockRepo.On("Search", mock.Anything, mock.MatchedBy(func(f types.CatalogFilter) bool {
			return f.TextQuery == "" &&
				assert.ObjectsAreEqual([]string{"Theme:Foodie", "Theme:History"}, f.Categories) &&
				assert.ObjectsAreEqual([]string{"food", "history"}, f.InterestTerms)
		})).Return([]types.CatalogPlace{palace}, nil).Once()

		places, err := service.FindCandidates(ctx, types.CandidateQuery{
			Interests: []string{"food", "history"},
			Region:    "seoul",
			Type:      types.ItemTypePlace,
		})

		require.NoError(t, err)
		require.Len(t, places, 1)
		mockRepo.AssertNotCalled(t, "FuzzyCandidates", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		mockRepo.AssertExpectations(t)
	})

	t.Run("explicit categories merge with mapped interests", func(t *testing.T) {
		service, mockRepo := setupSourcingServiceTest()

		mockRepo.On("Search", mock.Anything, mock.MatchedBy(func(f types.CatalogFilter) bool {
			return assert.ObjectsAreEqual([]string{"Theme:Nature", "Theme:Foodie"}, f.Categories)
		})).Return([]types.CatalogPlace{eligiblePlace("Hangang Park")}, nil).Once()

		_, err := service.FindCandidates(ctx, types.CandidateQuery{
			Categories: []string{"Theme:Nature"},
			Interests:  []string{"food"},
			Type:       types.ItemTypePlace,
		})

		require.NoError(t, err)
		mockRepo.AssertExpectations(t)
	})

	t.Run("region and type fallback pool is cached and exclude-filtered per call", func(t *testing.T) {
		service, mockRepo := setupSourcingServiceTest()

		a := eligiblePlace("Bukchon Hanok Village")
		b := eligiblePlace("Namsan Seoul Tower")
		mockRepo.On("Search", mock.Anything, mock.MatchedBy(func(f types.CatalogFilter) bool {
			return f.Limit == broadPoolLimit && f.TextQuery == "" && f.Categories == nil
		})).Return([]types.CatalogPlace{a, b}, nil).Once()

		first, err := service.FindCandidates(ctx, types.CandidateQuery{Region: "seoul", Type: types.ItemTypePlace})
		require.NoError(t, err)
		assert.Len(t, first, 2)

		second, err := service.FindCandidates(ctx, types.CandidateQuery{
			Region:     "seoul",
			Type:       types.ItemTypePlace,
			ExcludeIDs: []uuid.UUID{a.ID},
		})
		require.NoError(t, err)
		require.Len(t, second, 1)
		assert.Equal(t, b.ID, second[0].ID)

		mockRepo.AssertNumberOfCalls(t, "Search", 1)
	})

	t.Run("zero candidates everywhere is not an error", func(t *testing.T) {
		service, mockRepo := setupSourcingServiceTest()

		mockRepo.On("Search", mock.Anything, mock.AnythingOfType("types.CatalogFilter")).
			Return([]types.CatalogPlace{}, nil)

		places, err := service.FindCandidates(ctx, types.CandidateQuery{Region: "jeju", Type: types.ItemTypeRestaurant})

		require.NoError(t, err)
		assert.Empty(t, places)
	})

	t.Run("text search failure is a hard error", func(t *testing.T) {
		service, mockRepo := setupSourcingServiceTest()

		mockRepo.On("Search", mock.Anything, mock.AnythingOfType("types.CatalogFilter")).
			Return(nil, errors.New("connection refused")).Once()

		places, err := service.FindCandidates(ctx, types.CandidateQuery{Query: "Namsan", Type: types.ItemTypePlace})

		require.Error(t, err)
		assert.Nil(t, places)
	})
}
