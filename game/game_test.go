package game

import (
	"errors"
	"fmt"
	"math/rand"
	"testing"

	"github.com/FiveEightyEight/musicbingo/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPool(n int) []models.Song {
	pool := make([]models.Song, n)
	for i := range pool {
		pool[i] = models.Song{
			ID:     uuid.NewSHA1(uuid.NameSpaceOID, []byte(fmt.Sprintf("song-%d", i))),
			Title:  fmt.Sprintf("Song %d", i),
			Artist: fmt.Sprintf("Artist %d", i%7),
		}
	}
	return pool
}

func seed(v int64) *int64 { return &v }

func TestGenerateCards_Completeness(t *testing.T) {
	pool := testPool(60)
	cards, err := GenerateCards(pool, 50, GenerateOptions{Seed: seed(1)})
	require.NoError(t, err)
	require.Len(t, cards, 50)

	inPool := make(map[uuid.UUID]struct{}, len(pool))
	for _, s := range pool {
		inPool[s.ID] = struct{}{}
	}
	gameID := cards[0].GameID
	assert.NotEqual(t, uuid.Nil, gameID)

	for i, c := range cards {
		require.NoError(t, c.Validate())
		assert.Equal(t, i+1, c.Number)
		assert.Equal(t, gameID, c.GameID)

		cells := make(map[models.Position]struct{})
		for id, p := range c.Positions {
			_, ok := inPool[id]
			assert.True(t, ok, "song %s not from pool", id)
			assert.NotEqual(t, models.FreeSpace, p)
			cells[p] = struct{}{}
		}
		assert.Len(t, cells, models.SongsPerCard)
	}
}

func TestGenerateCards_Unique(t *testing.T) {
	pool := testPool(60)
	cards, err := GenerateCards(pool, 200, GenerateOptions{Seed: seed(7)})
	require.NoError(t, err)

	sets := make(map[string]struct{}, len(cards))
	ids := make(map[uuid.UUID]struct{}, len(cards))
	for _, c := range cards {
		picked := make([]int, 0, len(c.Positions))
		for i, s := range pool {
			if _, ok := c.Positions[s.ID]; ok {
				picked = append(picked, i)
			}
		}
		h := cardHash(pool, picked)
		_, dup := sets[h]
		assert.False(t, dup, "card %d repeats a song set", c.Number)
		sets[h] = struct{}{}
		ids[c.ID] = struct{}{}
	}
	assert.Len(t, ids, len(cards))
}

func TestGenerateCards_Deterministic(t *testing.T) {
	pool := testPool(60)
	a, err := GenerateCards(pool, 20, GenerateOptions{Seed: seed(42)})
	require.NoError(t, err)
	b, err := GenerateCards(pool, 20, GenerateOptions{Seed: seed(42)})
	require.NoError(t, err)
	assert.Equal(t, a, b)

	c, err := GenerateCards(pool, 20, GenerateOptions{Seed: seed(43)})
	require.NoError(t, err)
	assert.NotEqual(t, a[0].Positions, c[0].Positions)
}

func TestGenerateCards_UsesGivenGameID(t *testing.T) {
	gameID := uuid.New()
	cards, err := GenerateCards(testPool(48), 3, GenerateOptions{Seed: seed(3), GameID: gameID})
	require.NoError(t, err)
	for _, c := range cards {
		assert.Equal(t, gameID, c.GameID)
	}
}

func TestGenerateCards_OverlapAndBalance(t *testing.T) {
	pool := testPool(60)
	cards, err := GenerateCards(pool, 100, GenerateOptions{Seed: seed(42)})
	require.NoError(t, err)

	st := Statistics(pool, cards)
	assert.Equal(t, 100, st.NumCards)
	assert.Equal(t, 60, st.SongsInPool)
	assert.Equal(t, maxOverlapPairs, st.Overlap.SampleSize)
	assert.GreaterOrEqual(t, st.Overlap.Average, 0.25)
	assert.LessOrEqual(t, st.Overlap.Average, 0.45)

	require.Greater(t, st.Usage.Min, 0)
	assert.LessOrEqual(t, float64(st.Usage.Max), 2.5*float64(st.Usage.Min))
	assert.InDelta(t, 40.0, st.Usage.Average, 0.001)
}

func TestGenerateCards_Errors(t *testing.T) {
	pool := testPool(60)

	for _, count := range []int{0, MaxCards + 1} {
		_, err := GenerateCards(pool, count, GenerateOptions{})
		assert.True(t, errors.Is(err, models.ErrGeneration))
		assert.True(t, errors.Is(err, models.ErrCountOutOfRange), "count %d", count)
		assert.False(t, errors.Is(err, models.ErrPoolTooSmall), "count %d", count)
	}

	_, err := GenerateCards(testPool(47), 10, GenerateOptions{})
	assert.True(t, errors.Is(err, models.ErrGeneration))
	assert.True(t, errors.Is(err, models.ErrPoolTooSmall))
	assert.False(t, errors.Is(err, models.ErrCountOutOfRange))

	dup := testPool(48)
	dup[10] = dup[3]
	_, err = GenerateCards(dup, 10, GenerateOptions{})
	assert.True(t, errors.Is(err, models.ErrGeneration))
	assert.False(t, errors.Is(err, models.ErrPoolTooSmall))
}

func TestGenerateCards_ExhaustedRetriesReportIndex(t *testing.T) {
	calls := 0
	sameSongs := func(_ *rand.Rand, _ []int, k int) []int {
		calls++
		picked := make([]int, k)
		for i := range picked {
			picked[i] = i
		}
		return picked
	}

	_, err := GenerateCards(testPool(48), 2, GenerateOptions{Seed: seed(1), MaxAttempts: 3, pick: sameSongs})
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrGeneration))

	var e *models.Error
	require.True(t, errors.As(err, &e))
	assert.Equal(t, 2, e.Index)
	assert.Equal(t, 1+3, calls)
}

func TestPickWeighted_DistinctAndFavoursUnused(t *testing.T) {
	usage := make([]int, 48)
	for i := 0; i < 24; i++ {
		usage[i] = 10
	}
	random := newTestRand(5)
	hits := 0
	for round := 0; round < 50; round++ {
		picked := pickWeighted(random, usage, models.SongsPerCard)
		require.Len(t, picked, models.SongsPerCard)
		seen := make(map[int]struct{})
		for _, idx := range picked {
			_, dup := seen[idx]
			require.False(t, dup)
			seen[idx] = struct{}{}
			if idx >= 24 {
				hits++
			}
		}
	}
	// Unused songs weigh 11 against 1, so they dominate every draw.
	assert.Greater(t, hits, 50*16)
}

func TestStatistics_SmallBatchUsesAllPairs(t *testing.T) {
	pool := testPool(48)
	cards, err := GenerateCards(pool, 5, GenerateOptions{Seed: seed(9)})
	require.NoError(t, err)
	st := Statistics(pool, cards)
	assert.Equal(t, 10, st.Overlap.SampleSize)
	assert.Equal(t, OverlapTargetRange, st.Overlap.TargetRange)
	assert.InDelta(t, st.Overlap.Average*100, st.Overlap.AveragePercentage, 1e-9)

	empty := Statistics(pool, nil)
	assert.Equal(t, 0, empty.NumCards)
	assert.Equal(t, 0, empty.Overlap.SampleSize)
}

func TestOverlap(t *testing.T) {
	pool := testPool(48)
	a := cardFrom(uuid.New(), 1, pool[:24])
	b := cardFrom(uuid.New(), 2, pool[12:36])
	assert.InDelta(t, 0.5, Overlap(a, b), 1e-9)
	assert.InDelta(t, 1.0, Overlap(a, a), 1e-9)
}
