package game

import "github.com/FiveEightyEight/musicbingo/models"

// A shape is a set of cells; a pattern is won when any one of its shapes is fully marked.
type shape []models.Position

var (
	rowShapes      = buildRows()
	columnShapes   = buildColumns()
	diagonalShapes = buildDiagonals()
	cornerShapes   = []shape{{{Row: 0, Col: 0}, {Row: 0, Col: 4}, {Row: 4, Col: 0}, {Row: 4, Col: 4}}}
	xShapes        = []shape{buildX()}
	fullShapes     = []shape{models.CardPositions()}
	lineShapes     = concatShapes(rowShapes, columnShapes, diagonalShapes)
)

// shapesFor is the single dispatch point over the closed set of patterns.
func shapesFor(p models.PatternType) ([]shape, bool) {
	switch p {
	case models.PatternFiveInARow:
		return lineShapes, true
	case models.PatternRow:
		return rowShapes, true
	case models.PatternColumn:
		return columnShapes, true
	case models.PatternDiagonal:
		return diagonalShapes, true
	case models.PatternFourCorners:
		return cornerShapes, true
	case models.PatternX:
		return xShapes, true
	case models.PatternFullCard:
		return fullShapes, true
	}
	return nil, false
}

// CheckWin reports whether marked completes pattern p. Callers include the free
// space in marked themselves; models.Card.Marked does.
func CheckWin(p models.PatternType, marked map[models.Position]struct{}) bool {
	return MatchesNeeded(p, marked) == 0
}

// MatchesNeeded is the fewest unmarked cells that would complete p.
// Unknown patterns can never be completed and report the whole card.
func MatchesNeeded(p models.PatternType, marked map[models.Position]struct{}) int {
	shapes, ok := shapesFor(p)
	if !ok {
		return models.SongsPerCard
	}
	best := -1
	for _, s := range shapes {
		missing := 0
		for _, cell := range s {
			if _, ok := marked[cell]; !ok {
				missing++
			}
		}
		if best < 0 || missing < best {
			best = missing
		}
		if best == 0 {
			break
		}
	}
	return best
}

func buildRows() []shape {
	out := make([]shape, models.GridSize)
	for r := range out {
		for c := 0; c < models.GridSize; c++ {
			out[r] = append(out[r], models.Position{Row: r, Col: c})
		}
	}
	return out
}

func buildColumns() []shape {
	out := make([]shape, models.GridSize)
	for c := range out {
		for r := 0; r < models.GridSize; r++ {
			out[c] = append(out[c], models.Position{Row: r, Col: c})
		}
	}
	return out
}

func buildDiagonals() []shape {
	var main, anti shape
	for i := 0; i < models.GridSize; i++ {
		main = append(main, models.Position{Row: i, Col: i})
		anti = append(anti, models.Position{Row: i, Col: models.GridSize - 1 - i})
	}
	return []shape{main, anti}
}

// buildX is the union of both diagonals, 9 cells with the center counted once.
func buildX() shape {
	seen := make(map[models.Position]struct{})
	var out shape
	for _, d := range buildDiagonals() {
		for _, cell := range d {
			if _, ok := seen[cell]; ok {
				continue
			}
			seen[cell] = struct{}{}
			out = append(out, cell)
		}
	}
	return out
}

func concatShapes(groups ...[]shape) []shape {
	var out []shape
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}
