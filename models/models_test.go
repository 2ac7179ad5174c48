package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fullCard() Card {
	c := Card{ID: uuid.New(), GameID: uuid.New(), Number: 1, Positions: map[uuid.UUID]Position{}}
	for _, p := range CardPositions() {
		c.Positions[uuid.New()] = p
	}
	return c
}

func TestCardPositions(t *testing.T) {
	ps := CardPositions()
	require.Len(t, ps, SongsPerCard)
	assert.Equal(t, Position{0, 0}, ps[0])
	assert.Equal(t, Position{2, 1}, ps[11])
	assert.Equal(t, Position{2, 3}, ps[12])
	assert.Equal(t, Position{4, 4}, ps[23])
	for _, p := range ps {
		assert.NotEqual(t, FreeSpace, p)
	}
}

func TestCard_Validate(t *testing.T) {
	require.NoError(t, fullCard().Validate())

	onCenter := fullCard()
	for id, p := range onCenter.Positions {
		if p == (Position{0, 0}) {
			onCenter.Positions[id] = FreeSpace
		}
	}

	clash := fullCard()
	for id, p := range clash.Positions {
		if p == (Position{0, 0}) {
			clash.Positions[id] = Position{0, 1}
		}
	}

	outside := fullCard()
	for id, p := range outside.Positions {
		if p == (Position{4, 4}) {
			outside.Positions[id] = Position{5, 0}
		}
	}

	short := fullCard()
	for id := range short.Positions {
		delete(short.Positions, id)
		break
	}

	noNumber := fullCard()
	noNumber.Number = 0

	for name, c := range map[string]Card{
		"center":    onCenter,
		"clash":     clash,
		"outside":   outside,
		"short":     short,
		"no number": noNumber,
	} {
		t.Run(name, func(t *testing.T) {
			err := c.Validate()
			assert.True(t, errors.Is(err, ErrValidation), "got %v", err)
		})
	}
}

func TestCard_GridAndSongAt(t *testing.T) {
	c := fullCard()
	grid := c.Grid()
	assert.Equal(t, uuid.Nil, grid[2][2])

	for id, p := range c.Positions {
		assert.Equal(t, id, grid[p.Row][p.Col])
		got, ok := c.SongAt(p)
		assert.True(t, ok)
		assert.Equal(t, id, got)
	}
	_, ok := c.SongAt(FreeSpace)
	assert.False(t, ok)
}

func TestCard_Marked(t *testing.T) {
	c := fullCard()
	marked := c.Marked(nil)
	assert.Len(t, marked, 1)
	_, ok := marked[FreeSpace]
	assert.True(t, ok)

	played := map[uuid.UUID]struct{}{uuid.New(): {}}
	for id, p := range c.Positions {
		if p.Row == 0 {
			played[id] = struct{}{}
		}
	}
	assert.Len(t, c.Marked(played), 6)
}

func TestCard_JSON(t *testing.T) {
	c := fullCard()
	raw, err := json.Marshal(c)
	require.NoError(t, err)

	var generic map[string]any
	require.NoError(t, json.Unmarshal(raw, &generic))
	assert.Contains(t, generic, "card_id")
	assert.Contains(t, generic, "card_number")
	positions, ok := generic["song_positions"].(map[string]any)
	require.True(t, ok)
	for _, v := range positions {
		pair, ok := v.([]any)
		require.True(t, ok)
		assert.Len(t, pair, 2)
	}

	var back Card
	require.NoError(t, json.Unmarshal(raw, &back))
	assert.Equal(t, c, back)
}

func TestPosition_UnmarshalRejectsWrongArity(t *testing.T) {
	var p Position
	assert.Error(t, json.Unmarshal([]byte(`[1,2,3]`), &p))
	assert.Error(t, json.Unmarshal([]byte(`{"row":1}`), &p))
	require.NoError(t, json.Unmarshal([]byte(`[3,1]`), &p))
	assert.Equal(t, Position{Row: 3, Col: 1}, p)
}

func TestParsePatternType(t *testing.T) {
	p, err := ParsePatternType(" X_Pattern ")
	require.NoError(t, err)
	assert.Equal(t, PatternX, p)
	assert.Equal(t, "X", p.DisplayName())

	_, err = ParsePatternType("zigzag")
	assert.True(t, errors.Is(err, ErrValidation))

	for _, p := range PatternTypes {
		assert.NotEmpty(t, p.Description(), p)
	}
}

func TestSong_Key(t *testing.T) {
	a := Song{Title: " Hey Jude", Artist: "The Beatles "}
	b := Song{Title: "hey jude", Artist: "THE BEATLES"}
	assert.Equal(t, a.Key(), b.Key())
}

func TestError_Kinds(t *testing.T) {
	err := NotFoundf("get game", "game %s not found", "x")
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.False(t, errors.Is(err, ErrValidation))
	assert.Equal(t, KindNotFound, KindOf(err))
	assert.Equal(t, "get game: game x not found", err.Error())

	wrapped := fmt.Errorf("handler: %w", Conflictf("start game", "illegal"))
	assert.True(t, errors.Is(wrapped, ErrStateConflict))
	assert.Equal(t, KindStateConflict, KindOf(wrapped))

	assert.Equal(t, ErrorKind(""), KindOf(errors.New("plain")))

	inner := errors.New("disk full")
	e := &Error{Kind: KindValidation, Msg: "bad", Err: inner}
	assert.True(t, errors.Is(e, inner))
	assert.Equal(t, "bad: disk full", e.Error())
}
