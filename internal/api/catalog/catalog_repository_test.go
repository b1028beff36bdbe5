package catalog

import (
	"context"
	"log/slog"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/curatrip/curatrip-server/internal/types"
)

var placeRowColumns = []string{
	"id", "place_type", "name_kor", "name_eng", "description", "keyword",
	"categories", "region", "images", "latitude", "longitude", "ai_enabled",
}

func setupRepositoryTest(t *testing.T) (*RepositoryImpl, pgxmock.PgxPoolIface) {
	t.Helper()
	pool, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	return NewRepository(pool, 0, logger), pool
}

func TestFindByIDs(t *testing.T) {
	ctx := context.Background()

	t.Run("Empty id list short-circuits", func(t *testing.T) {
		repo, pool := setupRepositoryTest(t)

		places, err := repo.FindByIDs(ctx, nil)
		require.NoError(t, err)
		assert.Nil(t, places)
		assert.NoError(t, pool.ExpectationsWereMet())
	})

	t.Run("Fetches batch in one query", func(t *testing.T) {
		repo, pool := setupRepositoryTest(t)

		idA, idB := uuid.New(), uuid.New()
		rows := pgxmock.NewRows(placeRowColumns).
			AddRow(idA, "place", "경복궁", "Gyeongbokgung Palace", "The main royal palace", "palace,history",
				[]string{"Theme:History"}, "서울", []string{"gbg.jpg"}, 37.5796, 126.977, true).
			AddRow(idB, "place", "남산타워", "N Seoul Tower", nil, nil,
				[]string{"Theme:Landmark"}, "서울", []string{}, nil, nil, true)

		pool.ExpectQuery("SELECT (.+) FROM catalog_places WHERE id = ANY").
			WithArgs([]uuid.UUID{idA, idB}).
			WillReturnRows(rows)

		places, err := repo.FindByIDs(ctx, []uuid.UUID{idA, idB})
		require.NoError(t, err)
		require.Len(t, places, 2)
		assert.Equal(t, "Gyeongbokgung Palace", places[0].NameEng)
		assert.Equal(t, "The main royal palace", places[0].Description)
		assert.Empty(t, places[1].Description)
		assert.Zero(t, places[1].Latitude)
		assert.NoError(t, pool.ExpectationsWereMet())
	})
}

func TestSearchByNameFragments(t *testing.T) {
	ctx := context.Background()

	t.Run("Builds wrapped ILIKE patterns", func(t *testing.T) {
		repo, pool := setupRepositoryTest(t)

		rows := pgxmock.NewRows(placeRowColumns).
			AddRow(uuid.New(), "place", "북촌한옥마을", "Bukchon Hanok Village, Seoul", "Traditional houses", "hanok,village",
				[]string{"Theme:Culture"}, "서울", []string{}, 37.5826, 126.9831, true)

		pool.ExpectQuery(`SELECT (.+) FROM catalog_places\s+WHERE \(name_eng ILIKE ANY`).
			WithArgs([]string{"%bukchon%"}).
			WillReturnRows(rows)

		places, err := repo.SearchByNameFragments(ctx, []string{"bukchon", "  "}, types.EligibleOnly)
		require.NoError(t, err)
		require.Len(t, places, 1)
		assert.Equal(t, "Bukchon Hanok Village, Seoul", places[0].NameEng)
		assert.NoError(t, pool.ExpectationsWereMet())
	})

	t.Run("All-blank fragments skip the query", func(t *testing.T) {
		repo, pool := setupRepositoryTest(t)

		places, err := repo.SearchByNameFragments(ctx, []string{"", "   "}, types.EligibilityAny)
		require.NoError(t, err)
		assert.Nil(t, places)
		assert.NoError(t, pool.ExpectationsWereMet())
	})
}

func TestSearch(t *testing.T) {
	ctx := context.Background()

	t.Run("Combines type, region, exclusion and limit", func(t *testing.T) {
		repo, pool := setupRepositoryTest(t)

		excluded := uuid.New()
		rows := pgxmock.NewRows(placeRowColumns).
			AddRow(uuid.New(), "place", "광장시장", "Gwangjang Market", "Street food", "market,food",
				[]string{"Theme:Foodie"}, "서울", []string{}, nil, nil, true)

		pool.ExpectQuery("SELECT (.+) FROM catalog_places WHERE 1=1 AND place_type = (.+) AND region = ANY(.+) AND NOT \\(id = ANY(.+) AND ai_enabled = true").
			WithArgs("place", []string{"서울", "seoul", "Seoul"}, []uuid.UUID{excluded}, 30).
			WillReturnRows(rows)

		places, err := repo.Search(ctx, types.CatalogFilter{
			Type:           types.ItemTypePlace,
			RegionVariants: []string{"서울", "seoul", "Seoul"},
			ExcludeIDs:     []uuid.UUID{excluded},
			Eligibility:    types.EligibleOnly,
			Limit:          30,
		})
		require.NoError(t, err)
		require.Len(t, places, 1)
		assert.Equal(t, "Gwangjang Market", places[0].NameEng)
		assert.NoError(t, pool.ExpectationsWereMet())
	})

	t.Run("Category and interest terms form one OR group", func(t *testing.T) {
		repo, pool := setupRepositoryTest(t)

		rows := pgxmock.NewRows(placeRowColumns)
		pool.ExpectQuery(`AND \(categories && (.+) OR \(keyword ILIKE ANY(.+) OR description ILIKE ANY(.+)\)`).
			WithArgs([]string{"Theme:Foodie"}, []string{"%street food%"}).
			WillReturnRows(rows)

		places, err := repo.Search(ctx, types.CatalogFilter{
			Categories:    []string{"Theme:Foodie"},
			InterestTerms: []string{"street food"},
		})
		require.NoError(t, err)
		assert.Empty(t, places)
		assert.NoError(t, pool.ExpectationsWereMet())
	})

	t.Run("Query error is wrapped", func(t *testing.T) {
		repo, pool := setupRepositoryTest(t)

		pool.ExpectQuery("SELECT (.+) FROM catalog_places").
			WillReturnError(assert.AnError)

		_, err := repo.Search(ctx, types.CatalogFilter{TextQuery: "tower"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to search catalog_places")
	})
}

func TestFuzzySearch(t *testing.T) {
	ctx := context.Background()

	t.Run("Best match per query above threshold", func(t *testing.T) {
		repo, pool := setupRepositoryTest(t)

		id := uuid.New()
		rows := pgxmock.NewRows(append([]string{"query"}, append(placeRowColumns, "score")...)).
			AddRow("gyengbokgung", id, "place", "경복궁", "Gyeongbokgung Palace", nil, "palace",
				[]string{"Theme:History"}, "서울", []string{}, nil, nil, true, 0.62)

		pool.ExpectQuery(`SELECT DISTINCT ON \(q.query\)`).
			WithArgs([]string{"gyengbokgung"}, 0.3, "place").
			WillReturnRows(rows)

		results, err := repo.FuzzySearch(ctx, []string{"gyengbokgung"}, types.FuzzySearchOptions{
			Type:        types.ItemTypePlace,
			Threshold:   0.3,
			Eligibility: types.EligibleOnly,
		})
		require.NoError(t, err)
		require.Len(t, results, 1)
		match, ok := results["gyengbokgung"]
		require.True(t, ok)
		assert.Equal(t, id, match.ID)
		assert.InDelta(t, 0.62, match.Score, 0.0001)
		assert.NoError(t, pool.ExpectationsWereMet())
	})

	t.Run("Blank queries return empty map without a round trip", func(t *testing.T) {
		repo, pool := setupRepositoryTest(t)

		results, err := repo.FuzzySearch(ctx, []string{"", " "}, types.FuzzySearchOptions{Threshold: 0.3})
		require.NoError(t, err)
		assert.Empty(t, results)
		assert.NoError(t, pool.ExpectationsWereMet())
	})

	t.Run("Query failure surfaces for the matcher to downgrade", func(t *testing.T) {
		repo, pool := setupRepositoryTest(t)

		pool.ExpectQuery(`SELECT DISTINCT ON \(q.query\)`).
			WillReturnError(assert.AnError)

		_, err := repo.FuzzySearch(ctx, []string{"anywhere"}, types.FuzzySearchOptions{Threshold: 0.3})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to fuzzy search")
	})
}

func TestFuzzyCandidates(t *testing.T) {
	ctx := context.Background()

	t.Run("Returns every hit above threshold best first", func(t *testing.T) {
		repo, pool := setupRepositoryTest(t)

		idA, idB := uuid.New(), uuid.New()
		rows := pgxmock.NewRows(append(placeRowColumns, "score")).
			AddRow(idA, "place", "광장시장", "Gwangjang Market", "Street food", "market",
				[]string{"Theme:Foodie"}, "서울", []string{}, nil, nil, true, 0.71).
			AddRow(idB, "place", "망원시장", "Mangwon Market", "Local market", "market",
				[]string{"Theme:Foodie"}, "서울", []string{}, nil, nil, true, 0.44)

		pool.ExpectQuery(`SELECT (.+) GREATEST\(\s*similarity\(name_eng, \$1\)`).
			WithArgs("gwangjan markt", 0.3, "place", 10).
			WillReturnRows(rows)

		results, err := repo.FuzzyCandidates(ctx, "gwangjan markt", 10, types.FuzzySearchOptions{
			Type:        types.ItemTypePlace,
			Eligibility: types.EligibleOnly,
		})
		require.NoError(t, err)
		require.Len(t, results, 2)
		assert.Equal(t, idA, results[0].ID)
		assert.InDelta(t, 0.71, results[0].Score, 0.0001)
		assert.Equal(t, idB, results[1].ID)
		assert.NoError(t, pool.ExpectationsWereMet())
	})

	t.Run("Blank term skips the query", func(t *testing.T) {
		repo, pool := setupRepositoryTest(t)

		results, err := repo.FuzzyCandidates(ctx, "   ", 10, types.FuzzySearchOptions{})
		require.NoError(t, err)
		assert.Nil(t, results)
		assert.NoError(t, pool.ExpectationsWereMet())
	})
}
