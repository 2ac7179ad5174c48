package game

import (
	"math/rand"
	"sort"
	"strings"
	"time"

	"github.com/FiveEightyEight/musicbingo/models"
	"github.com/google/uuid"
)

const (
	MinPoolSize = 48
	MinCards    = 1
	MaxCards    = 1000

	defaultMaxAttempts = 100
)

type GenerateOptions struct {
	// Seed fixes the random sequence. Nil means a time based seed.
	Seed *int64
	// GameID is stamped on every card. Nil draws a fresh id for the batch.
	GameID uuid.UUID
	// MaxAttempts bounds the duplicate-card retries per card.
	MaxAttempts int

	pick func(random *rand.Rand, usage []int, k int) []int
}

// GenerateCards builds count unique cards from pool. Songs are drawn by weighted
// sampling without replacement, favouring the ones used least so far in the batch.
// The same pool, count and seed always produce the same cards, ids included.
func GenerateCards(pool []models.Song, count int, opts GenerateOptions) ([]models.Card, error) {
	if count < MinCards || count > MaxCards {
		return nil, models.GenerationRejected(models.ErrCountOutOfRange, "%d cards requested, must be %d-%d", count, MinCards, MaxCards)
	}
	if len(pool) < MinPoolSize {
		return nil, models.GenerationRejected(models.ErrPoolTooSmall, "%d songs, need at least %d", len(pool), MinPoolSize)
	}
	seen := make(map[uuid.UUID]struct{}, len(pool))
	for _, s := range pool {
		if _, dup := seen[s.ID]; dup {
			return nil, models.GenerationFailed(0, "playlist contains song %s twice", s.ID)
		}
		seen[s.ID] = struct{}{}
	}

	seed := time.Now().UnixNano()
	if opts.Seed != nil {
		seed = *opts.Seed
	}
	random := rand.New(rand.NewSource(seed))

	gameID := opts.GameID
	if gameID == uuid.Nil {
		id, err := uuid.NewRandomFromReader(random)
		if err != nil {
			return nil, models.GenerationFailed(0, "game id: %v", err)
		}
		gameID = id
	}
	maxAttempts := opts.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAttempts
	}
	pick := opts.pick
	if pick == nil {
		pick = pickWeighted
	}

	usage := make([]int, len(pool))
	hashes := make(map[string]struct{}, count)
	cards := make([]models.Card, 0, count)
	positions := models.CardPositions()

	for i := 0; i < count; i++ {
		var (
			picked []int
			hash   string
		)
		accepted := false
		for attempt := 0; attempt < maxAttempts; attempt++ {
			picked = pick(random, usage, models.SongsPerCard)
			hash = cardHash(pool, picked)
			if _, dup := hashes[hash]; !dup {
				accepted = true
				break
			}
		}
		if !accepted {
			return nil, models.GenerationFailed(i+1, "failed to generate unique card %d/%d after %d attempts", i+1, count, maxAttempts)
		}

		cardID, err := uuid.NewRandomFromReader(random)
		if err != nil {
			return nil, models.GenerationFailed(i+1, "card id: %v", err)
		}
		random.Shuffle(len(picked), func(a, b int) { picked[a], picked[b] = picked[b], picked[a] })

		card := models.Card{
			ID:        cardID,
			GameID:    gameID,
			Number:    i + 1,
			Positions: make(map[uuid.UUID]models.Position, models.SongsPerCard),
		}
		for slot, idx := range picked {
			card.Positions[pool[idx].ID] = positions[slot]
			usage[idx]++
		}
		hashes[hash] = struct{}{}
		cards = append(cards, card)
	}

	return cards, nil
}

// pickWeighted draws k distinct pool indexes. The weight of an index is
// max(usage) - usage[i] + 1, fixed for the whole draw.
func pickWeighted(random *rand.Rand, usage []int, k int) []int {
	maxUse := 0
	for _, u := range usage {
		if u > maxUse {
			maxUse = u
		}
	}
	weights := make([]int, len(usage))
	total := 0
	for i, u := range usage {
		weights[i] = maxUse - u + 1
		total += weights[i]
	}

	picked := make([]int, 0, k)
	for len(picked) < k && total > 0 {
		r := random.Intn(total)
		for i, w := range weights {
			if w == 0 {
				continue
			}
			if r < w {
				picked = append(picked, i)
				total -= w
				weights[i] = 0
				break
			}
			r -= w
		}
	}
	return picked
}

func cardHash(pool []models.Song, picked []int) string {
	ids := make([]string, len(picked))
	for i, idx := range picked {
		ids[i] = pool[idx].ID.String()
	}
	sort.Strings(ids)
	return strings.Join(ids, "|")
}
