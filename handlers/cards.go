package handlers

import (
	"net/http"
	"time"

	"github.com/FiveEightyEight/musicbingo/game"
	"github.com/FiveEightyEight/musicbingo/models"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

type generateRequest struct {
	Songs  []models.Song `json:"songs"`
	Count  int           `json:"count"`
	Seed   *int64        `json:"seed"`
	GameID uuid.UUID     `json:"game_id"`
}

type generateResponse struct {
	models.CardExport
	// Tokens maps card ids to the string printed in each card's QR code.
	Tokens map[uuid.UUID]string `json:"tokens"`
	Stats  game.Stats           `json:"stats"`
}

// GenerateCards builds a card batch from a playlist without touching any game.
func GenerateCards(app *App) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req generateRequest
		if err := bind(c, "generate cards", &req); err != nil {
			return app.respondError(c, err)
		}
		if err := game.ValidatePlaylist(req.Songs); err != nil {
			return app.respondError(c, err)
		}

		start := time.Now()
		cards, err := game.GenerateCards(req.Songs, req.Count, game.GenerateOptions{Seed: req.Seed, GameID: req.GameID})
		if err != nil {
			return app.respondError(c, err)
		}
		export, err := game.ExportCards(cards)
		if err != nil {
			return app.respondError(c, err)
		}
		stats := game.Statistics(req.Songs, cards)
		app.Metrics.ObserveGeneration(len(cards), time.Since(start), stats.Overlap.Average)
		app.Log.Debug().
			Str("game_id", export.GameID.String()).
			Int("cards", stats.NumCards).
			Int("usage_min", stats.Usage.Min).
			Int("usage_max", stats.Usage.Max).
			Float64("overlap", stats.Overlap.Average).
			Msg("cards generated")

		tokens := make(map[uuid.UUID]string, len(cards))
		for _, card := range export.Cards {
			tokens[card.ID] = game.NewCardToken(card.ID, card.GameID).String()
		}
		return c.JSON(http.StatusOK, generateResponse{CardExport: export, Tokens: tokens, Stats: stats})
	}
}

func AddCard(app *App) echo.HandlerFunc {
	return func(c echo.Context) error {
		gameID, err := paramUUID(c, "id")
		if err != nil {
			return app.respondError(c, err)
		}
		var card models.Card
		if err := bind(c, "add card", &card); err != nil {
			return app.respondError(c, err)
		}
		if card.GameID == uuid.Nil {
			card.GameID = gameID
		}
		if err := app.Games.AddCard(gameID, card); err != nil {
			return app.respondError(c, err)
		}
		app.cacheSnapshot(c.Request().Context(), gameID)
		return c.JSON(http.StatusCreated, map[string]any{
			"success":     true,
			"card_id":     card.ID,
			"game_id":     gameID,
			"card_number": card.Number,
		})
	}
}

// AddCards accepts an exporter payload: {"game_id": ..., "cards": [...]}.
func AddCards(app *App) echo.HandlerFunc {
	return func(c echo.Context) error {
		gameID, err := paramUUID(c, "id")
		if err != nil {
			return app.respondError(c, err)
		}
		var req models.CardExport
		if err := bind(c, "add cards", &req); err != nil {
			return app.respondError(c, err)
		}
		if len(req.Cards) == 0 {
			return app.respondError(c, models.Validationf("add cards", "cards cannot be empty"))
		}
		if req.GameID != uuid.Nil && req.GameID != gameID {
			return app.respondError(c, models.Validationf("add cards", "cards were generated for game %s, not %s", req.GameID, gameID))
		}
		if err := app.Games.AddCards(gameID, req.Cards); err != nil {
			return app.respondError(c, err)
		}
		app.cacheSnapshot(c.Request().Context(), gameID)
		return c.JSON(http.StatusCreated, map[string]any{
			"success":     true,
			"game_id":     gameID,
			"cards_added": len(req.Cards),
		})
	}
}
