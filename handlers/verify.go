package handlers

import (
	"net/http"

	"github.com/FiveEightyEight/musicbingo/models"
	"github.com/labstack/echo/v4"
)

type tokenRequest struct {
	Token string `json:"token"`
}

func VerifyCard(app *App) echo.HandlerFunc {
	return func(c echo.Context) error {
		gameID, err := paramUUID(c, "game_id")
		if err != nil {
			return app.respondError(c, err)
		}
		cardID, err := paramUUID(c, "card_id")
		if err != nil {
			return app.respondError(c, err)
		}
		v, err := app.Games.VerifyCard(gameID, cardID)
		if err != nil {
			return app.respondError(c, err)
		}
		app.Metrics.ObserveVerification(v.Winner)
		return c.JSON(http.StatusOK, v)
	}
}

// VerifyToken checks a card from its scanned QR string.
func VerifyToken(app *App) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req tokenRequest
		if err := bind(c, "verify token", &req); err != nil {
			return app.respondError(c, err)
		}
		if req.Token == "" {
			return app.respondError(c, models.Validationf("verify token", "token is required"))
		}
		v, err := app.Games.VerifyToken(req.Token)
		if err != nil {
			return app.respondError(c, err)
		}
		app.Metrics.ObserveVerification(v.Winner)
		return c.JSON(http.StatusOK, v)
	}
}
