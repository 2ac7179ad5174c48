package handlers

import (
	"net/http"

	"github.com/FiveEightyEight/musicbingo/models"
	"github.com/labstack/echo/v4"
)

type saveGameRequest struct {
	Filename string `json:"filename"`
	Name     string `json:"name"`
}

func ListSavedGames(app *App) echo.HandlerFunc {
	return func(c echo.Context) error {
		infos, err := app.Files.List()
		if err != nil {
			return app.respondError(c, err)
		}
		return c.JSON(http.StatusOK, map[string]any{"games": infos})
	}
}

// LoadSavedGame brings a saved game into memory in setup. If the game is
// already live the live copy is returned unchanged.
func LoadSavedGame(app *App) echo.HandlerFunc {
	return func(c echo.Context) error {
		snap, err := app.Files.Load(c.Param("filename"))
		if err != nil {
			return app.respondError(c, err)
		}
		view, loaded, err := app.Games.LoadSnapshot(snap)
		if err != nil {
			return app.respondError(c, err)
		}
		if loaded {
			app.refreshGameCount()
			app.cacheSnapshot(c.Request().Context(), view.ID)
		}
		return c.JSON(http.StatusOK, map[string]any{
			"game_id":    view.ID,
			"name":       view.Name,
			"status":     view.Status,
			"card_count": view.CardCount,
			"loaded":     loaded,
		})
	}
}

func SaveGame(app *App) echo.HandlerFunc {
	return func(c echo.Context) error {
		gameID, err := paramUUID(c, "id")
		if err != nil {
			return app.respondError(c, err)
		}
		var req saveGameRequest
		if c.Request().ContentLength != 0 {
			if err := bind(c, "save game", &req); err != nil {
				return app.respondError(c, err)
			}
		}
		snap, err := app.Games.Snapshot(gameID, req.Name)
		if err != nil {
			return app.respondError(c, err)
		}
		filename := req.Filename
		if filename == "" {
			filename = gameID.String()
		}
		saved, err := app.Files.Save(snap, filename)
		if err != nil {
			return app.respondError(c, err)
		}
		return c.JSON(http.StatusOK, map[string]any{"game_id": gameID, "filename": saved})
	}
}

func WinnerHistory(app *App) echo.HandlerFunc {
	return func(c echo.Context) error {
		gameID, err := paramUUID(c, "id")
		if err != nil {
			return app.respondError(c, err)
		}
		if app.Archive == nil {
			return app.respondError(c, models.NotFoundf("winner history", "winner archive is disabled"))
		}
		history, err := app.Archive.History(c.Request().Context(), gameID)
		if err != nil {
			return app.respondError(c, err)
		}
		return c.JSON(http.StatusOK, map[string]any{"game_id": gameID, "winners": history})
	}
}
