package game

import "github.com/FiveEightyEight/musicbingo/models"

// ExportCards packages a generated batch for printing and for loading into a game.
// Card numbers are renumbered 1..n in batch order.
func ExportCards(cards []models.Card) (models.CardExport, error) {
	if len(cards) == 0 {
		return models.CardExport{}, models.Validationf("export cards", "cannot export empty card list")
	}
	gameID := cards[0].GameID
	out := models.CardExport{GameID: gameID, Cards: make([]models.Card, len(cards))}
	for i, c := range cards {
		if c.GameID != gameID {
			return models.CardExport{}, models.Validationf("export cards", "card %s belongs to game %s, batch is %s", c.ID, c.GameID, gameID)
		}
		c.Number = i + 1
		out.Cards[i] = c
	}
	return out, nil
}
