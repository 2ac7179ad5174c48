package game

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/FiveEightyEight/musicbingo/models"
	"github.com/google/uuid"
)

const (
	tokenSeparator = "|"
	checksumLength = 16
)

// CardToken is the short string printed in a card's QR code:
// card_id|game_id|checksum.
type CardToken struct {
	CardID   uuid.UUID
	GameID   uuid.UUID
	Checksum string
}

func NewCardToken(cardID, gameID uuid.UUID) CardToken {
	return CardToken{CardID: cardID, GameID: gameID, Checksum: tokenChecksum(cardID, gameID)}
}

func (t CardToken) String() string {
	return t.CardID.String() + tokenSeparator + t.GameID.String() + tokenSeparator + t.Checksum
}

// Valid recomputes the checksum from the two ids.
func (t CardToken) Valid() bool {
	return t.Checksum == tokenChecksum(t.CardID, t.GameID)
}

// ParseCardToken accepts only the canonical form produced by String, so any
// edit to the text either fails here or fails Valid.
func ParseCardToken(raw string) (CardToken, error) {
	parts := strings.Split(raw, tokenSeparator)
	if len(parts) != 3 {
		return CardToken{}, models.Validationf("parse token", "expected 3 fields, got %d", len(parts))
	}
	cardID, err := parseCanonicalUUID(parts[0])
	if err != nil {
		return CardToken{}, models.Validationf("parse token", "card id: %v", err)
	}
	gameID, err := parseCanonicalUUID(parts[1])
	if err != nil {
		return CardToken{}, models.Validationf("parse token", "game id: %v", err)
	}
	sum := parts[2]
	if len(sum) != checksumLength || strings.ToLower(sum) != sum {
		return CardToken{}, models.Validationf("parse token", "checksum must be %d lower-case hex characters", checksumLength)
	}
	if _, err := hex.DecodeString(sum); err != nil {
		return CardToken{}, models.Validationf("parse token", "checksum is not hex")
	}
	return CardToken{CardID: cardID, GameID: gameID, Checksum: sum}, nil
}

// VerifyCardToken reports whether raw is a valid token for card. Malformed
// input is a failed verification, never an error.
func VerifyCardToken(card models.Card, raw string) bool {
	t, err := ParseCardToken(raw)
	if err != nil {
		return false
	}
	return t.Valid() && t.CardID == card.ID && t.GameID == card.GameID
}

func tokenChecksum(cardID, gameID uuid.UUID) string {
	sum := sha256.Sum256([]byte(cardID.String() + ":" + gameID.String()))
	return hex.EncodeToString(sum[:])[:checksumLength]
}

func parseCanonicalUUID(s string) (uuid.UUID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, err
	}
	if id.String() != s {
		return uuid.Nil, models.Validationf("parse token", "id %q is not in canonical form", s)
	}
	return id, nil
}
