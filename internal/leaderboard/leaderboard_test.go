package leaderboard_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/huzhengnan/website-monitor-sub000/internal/leaderboard"
	"github.com/huzhengnan/website-monitor-sub000/internal/models"
)

func evaluation(name string, seo, overall int) models.SiteEvaluation {
	return models.SiteEvaluation{
		Evaluation: models.Evaluation{
			ID:           uuid.New(),
			SiteID:       uuid.New(),
			Date:         time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
			SEOScore:     seo,
			OverallScore: overall,
		},
		SiteName:   name,
		SiteDomain: name + ".com",
	}
}

func TestRank_StrictlyDescendingNoGaps(t *testing.T) {
	t.Parallel()

	latest := []models.SiteEvaluation{
		evaluation("c", 40, 0),
		evaluation("a", 90, 0),
		evaluation("d", 10, 0),
		evaluation("b", 65, 0),
	}

	got, err := leaderboard.Rank(latest, "seo", 1, 20)
	require.NoError(t, err)
	require.Len(t, got.Entries, 4)
	assert.Equal(t, 4, got.Total)

	for i, e := range got.Entries {
		assert.Equal(t, i+1, e.Rank)
		if i > 0 {
			assert.Greater(t, got.Entries[i-1].Scores.SEO, e.Scores.SEO)
		}
	}
	assert.Equal(t, "a", got.Entries[0].SiteName)
	assert.Equal(t, "a.com", got.Entries[0].Domain)
	assert.Equal(t, "2024-06-01", got.Entries[0].Date.String())
}

func TestRank_DenseTies(t *testing.T) {
	t.Parallel()

	latest := []models.SiteEvaluation{
		evaluation("zeta", 0, 80),
		evaluation("alpha", 0, 80),
		evaluation("mid", 0, 50),
		evaluation("low", 0, 20),
	}

	got, err := leaderboard.Rank(latest, "composite", 1, 20)
	require.NoError(t, err)

	ranks := make([]int, 0, len(got.Entries))
	names := make([]string, 0, len(got.Entries))
	for _, e := range got.Entries {
		ranks = append(ranks, e.Rank)
		names = append(names, e.SiteName)
	}
	assert.Equal(t, []int{1, 1, 2, 3}, ranks)
	assert.Equal(t, []string{"alpha", "zeta", "mid", "low"}, names)
}

func TestRank_Pagination(t *testing.T) {
	t.Parallel()

	latest := []models.SiteEvaluation{
		evaluation("a", 50, 0), evaluation("b", 40, 0), evaluation("c", 30, 0),
	}

	got, err := leaderboard.Rank(latest, "seo", 2, 2)
	require.NoError(t, err)
	require.Len(t, got.Entries, 1)
	assert.Equal(t, 3, got.Entries[0].Rank)
	assert.Equal(t, 3, got.Total)

	got, err = leaderboard.Rank(latest, "seo", 5, 2)
	require.NoError(t, err)
	assert.Empty(t, got.Entries)
	assert.NotNil(t, got.Entries)
}

func TestRank_Validation(t *testing.T) {
	t.Parallel()

	_, err := leaderboard.Rank(nil, "popularity", 1, 20)
	assert.True(t, models.IsValidationError(err))

	_, err = leaderboard.Rank(nil, "seo", 0, 20)
	assert.True(t, models.IsValidationError(err))

	_, err = leaderboard.Rank(nil, "seo", 1, 101)
	assert.True(t, models.IsValidationError(err))

	got, err := leaderboard.Rank(nil, "traffic", 1, 20)
	require.NoError(t, err)
	assert.Zero(t, got.Total)
}
