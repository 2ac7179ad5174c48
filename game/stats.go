package game

import (
	"math/rand"

	"github.com/FiveEightyEight/musicbingo/models"
	"github.com/google/uuid"
)

// Overlap target for a well proportioned batch. Informational only.
const OverlapTargetRange = "30-40%"

const maxOverlapPairs = 1000

type UsageStats struct {
	Min     int     `json:"min"`
	Max     int     `json:"max"`
	Average float64 `json:"average"`
}

type OverlapStats struct {
	Average           float64 `json:"average"`
	AveragePercentage float64 `json:"average_percentage"`
	TargetRange       string  `json:"target_range"`
	SampleSize        int     `json:"sample_size"`
}

type Stats struct {
	NumCards     int          `json:"num_cards"`
	SongsInPool  int          `json:"songs_in_playlist"`
	SongsPerCard int          `json:"songs_per_card"`
	Usage        UsageStats   `json:"song_usage"`
	Overlap      OverlapStats `json:"overlap"`
}

// Overlap is the share of songs two cards have in common.
func Overlap(a, b models.Card) float64 {
	common := 0
	for id := range a.Positions {
		if _, ok := b.Positions[id]; ok {
			common++
		}
	}
	return float64(common) / float64(models.SongsPerCard)
}

// Statistics summarises a generated batch. Usage counts cover every pool song,
// so songs that never made it onto a card pull the minimum to zero. Overlap is
// averaged over all pairs for small batches and over a fixed sample otherwise.
func Statistics(pool []models.Song, cards []models.Card) Stats {
	st := Stats{
		NumCards:     len(cards),
		SongsInPool:  len(pool),
		SongsPerCard: models.SongsPerCard,
		Overlap:      OverlapStats{TargetRange: OverlapTargetRange},
	}
	if len(cards) == 0 {
		return st
	}

	counts := make(map[uuid.UUID]int, len(pool))
	for _, s := range pool {
		counts[s.ID] = 0
	}
	for _, c := range cards {
		for id := range c.Positions {
			counts[id]++
		}
	}
	first := true
	total := 0
	for _, n := range counts {
		total += n
		if first || n < st.Usage.Min {
			st.Usage.Min = n
		}
		if first || n > st.Usage.Max {
			st.Usage.Max = n
		}
		first = false
	}
	st.Usage.Average = float64(total) / float64(len(counts))

	sum, samples := sampleOverlap(cards)
	if samples > 0 {
		st.Overlap.Average = sum / float64(samples)
		st.Overlap.AveragePercentage = st.Overlap.Average * 100
		st.Overlap.SampleSize = samples
	}
	return st
}

func sampleOverlap(cards []models.Card) (float64, int) {
	n := len(cards)
	pairs := n * (n - 1) / 2
	if pairs == 0 {
		return 0, 0
	}
	sum := 0.0
	if pairs <= maxOverlapPairs {
		for i := 0; i < n; i++ {
			for j := i + 1; j < n; j++ {
				sum += Overlap(cards[i], cards[j])
			}
		}
		return sum, pairs
	}
	// Seeded by the batch size so repeated calls report the same figure.
	random := rand.New(rand.NewSource(int64(n)))
	for k := 0; k < maxOverlapPairs; k++ {
		i := random.Intn(n)
		j := random.Intn(n - 1)
		if j >= i {
			j++
		}
		sum += Overlap(cards[i], cards[j])
	}
	return sum, maxOverlapPairs
}
