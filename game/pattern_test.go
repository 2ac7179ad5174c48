package game

import (
	"math/rand"
	"testing"

	"github.com/FiveEightyEight/musicbingo/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func newTestRand(seed int64) *rand.Rand { return rand.New(rand.NewSource(seed)) }

// cardFrom lays songs out row-major over the non-center cells.
func cardFrom(gameID uuid.UUID, number int, songs []models.Song) models.Card {
	c := models.Card{
		ID:        uuid.New(),
		GameID:    gameID,
		Number:    number,
		Positions: make(map[uuid.UUID]models.Position, len(songs)),
	}
	for i, p := range models.CardPositions()[:len(songs)] {
		c.Positions[songs[i].ID] = p
	}
	return c
}

func cells(ps ...[2]int) map[models.Position]struct{} {
	out := make(map[models.Position]struct{}, len(ps))
	for _, p := range ps {
		out[models.Position{Row: p[0], Col: p[1]}] = struct{}{}
	}
	return out
}

func TestCheckWin_Table(t *testing.T) {
	topRow := cells([2]int{0, 0}, [2]int{0, 1}, [2]int{0, 2}, [2]int{0, 3}, [2]int{0, 4})
	mainDiag := cells([2]int{0, 0}, [2]int{1, 1}, [2]int{2, 2}, [2]int{3, 3}, [2]int{4, 4})
	antiDiag := cells([2]int{0, 4}, [2]int{1, 3}, [2]int{2, 2}, [2]int{3, 1}, [2]int{4, 0})
	corners := cells([2]int{0, 0}, [2]int{0, 4}, [2]int{4, 0}, [2]int{4, 4})
	middleCol := cells([2]int{0, 2}, [2]int{1, 2}, [2]int{2, 2}, [2]int{3, 2}, [2]int{4, 2})

	x := cells()
	for p := range mainDiag {
		x[p] = struct{}{}
	}
	for p := range antiDiag {
		x[p] = struct{}{}
	}

	full := cells()
	for _, p := range models.CardPositions() {
		full[p] = struct{}{}
	}

	tests := []struct {
		name    string
		pattern models.PatternType
		marked  map[models.Position]struct{}
		want    bool
	}{
		{"row on top row", models.PatternRow, topRow, true},
		{"column on top row", models.PatternColumn, topRow, false},
		{"five in a row on top row", models.PatternFiveInARow, topRow, true},
		{"diagonal on main diagonal", models.PatternDiagonal, mainDiag, true},
		{"diagonal on anti diagonal", models.PatternDiagonal, antiDiag, true},
		{"five in a row on main diagonal", models.PatternFiveInARow, mainDiag, true},
		{"four corners on corners", models.PatternFourCorners, corners, true},
		{"row on corners", models.PatternRow, corners, false},
		{"column on middle column", models.PatternColumn, middleCol, true},
		{"five in a row on middle column", models.PatternFiveInARow, middleCol, true},
		{"x on one diagonal", models.PatternX, mainDiag, false},
		{"x on both diagonals", models.PatternX, x, true},
		{"full card on x", models.PatternFullCard, x, false},
		{"full card without center", models.PatternFullCard, full, true},
		{"five in a row on corners", models.PatternFiveInARow, corners, false},
		{"unknown pattern", models.PatternType("zigzag"), full, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CheckWin(tt.pattern, tt.marked))
		})
	}
}

func TestXShapeHasNineCells(t *testing.T) {
	assert.Len(t, xShapes[0], 9)
	assert.Len(t, fullShapes[0], models.SongsPerCard)
	assert.Len(t, lineShapes, 12)
}

func TestEveryPatternHasShapes(t *testing.T) {
	for _, p := range models.PatternTypes {
		shapes, ok := shapesFor(p)
		assert.True(t, ok, p)
		assert.NotEmpty(t, shapes, p)
	}
}

func TestMatchesNeeded(t *testing.T) {
	onlyCenter := cells([2]int{2, 2})
	assert.Equal(t, 4, MatchesNeeded(models.PatternFiveInARow, onlyCenter))
	assert.Equal(t, 4, MatchesNeeded(models.PatternFourCorners, onlyCenter))
	assert.Equal(t, 8, MatchesNeeded(models.PatternX, onlyCenter))
	assert.Equal(t, 24, MatchesNeeded(models.PatternFullCard, onlyCenter))

	almost := cells([2]int{2, 2}, [2]int{0, 0}, [2]int{0, 1}, [2]int{0, 2}, [2]int{0, 3})
	assert.Equal(t, 1, MatchesNeeded(models.PatternRow, almost))
	assert.Equal(t, models.SongsPerCard, MatchesNeeded(models.PatternType("nope"), almost))
}
