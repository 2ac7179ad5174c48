package game

import (
	"errors"
	"strings"
	"testing"

	"github.com/FiveEightyEight/musicbingo/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCardToken_RoundTrip(t *testing.T) {
	cardID, gameID := uuid.New(), uuid.New()
	token := NewCardToken(cardID, gameID)
	raw := token.String()
	assert.Equal(t, 3, len(strings.Split(raw, "|")))
	assert.Len(t, token.Checksum, 16)

	parsed, err := ParseCardToken(raw)
	require.NoError(t, err)
	assert.Equal(t, cardID, parsed.CardID)
	assert.Equal(t, gameID, parsed.GameID)
	assert.True(t, parsed.Valid())
	assert.Equal(t, token, parsed)

	card := models.Card{ID: cardID, GameID: gameID}
	assert.True(t, VerifyCardToken(card, raw))
	assert.False(t, VerifyCardToken(models.Card{ID: uuid.New(), GameID: gameID}, raw))
}

func TestCardToken_SingleCharacterMutation(t *testing.T) {
	cardID, gameID := uuid.New(), uuid.New()
	card := models.Card{ID: cardID, GameID: gameID}
	raw := NewCardToken(cardID, gameID).String()

	for i := range raw {
		for _, repl := range []byte{'0', 'f', 'A', '|', '-', 'z'} {
			if raw[i] == repl {
				continue
			}
			mutated := raw[:i] + string(repl) + raw[i+1:]
			assert.False(t, VerifyCardToken(card, mutated), "mutation at %d to %q accepted", i, repl)
		}
	}
}

func TestParseCardToken_Malformed(t *testing.T) {
	good := NewCardToken(uuid.New(), uuid.New())
	tests := []struct {
		name string
		raw  string
	}{
		{"empty", ""},
		{"two fields", good.CardID.String() + "|" + good.GameID.String()},
		{"four fields", good.String() + "|extra"},
		{"bad card id", "not-a-uuid|" + good.GameID.String() + "|" + good.Checksum},
		{"upper case id", strings.ToUpper(good.CardID.String()) + "|" + good.GameID.String() + "|" + good.Checksum},
		{"short checksum", good.CardID.String() + "|" + good.GameID.String() + "|abc"},
		{"non hex checksum", good.CardID.String() + "|" + good.GameID.String() + "|zzzzzzzzzzzzzzzz"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseCardToken(tt.raw)
			require.Error(t, err)
			assert.True(t, errors.Is(err, models.ErrValidation))
		})
	}
}
