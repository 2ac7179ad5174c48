package handlers

import (
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/FiveEightyEight/musicbingo/game"
	"github.com/FiveEightyEight/musicbingo/models"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const maxPlayerNameLength = 50

type createGameRequest struct {
	GameID   uuid.UUID          `json:"game_id"`
	Name     string             `json:"name"`
	Playlist []models.Song      `json:"playlist"`
	Pattern  models.PatternType `json:"pattern"`
}

type songRequest struct {
	SongID uuid.UUID `json:"song_id"`
	Played *bool     `json:"played"`
}

type songResponse struct {
	GameID      uuid.UUID       `json:"game_id"`
	SongID      uuid.UUID       `json:"song_id"`
	Played      bool            `json:"played"`
	TotalPlayed int             `json:"total_played"`
	NewWinners  []models.Winner `json:"new_winners"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

type prizeRequest struct {
	Prize string `json:"prize"`
}

type registerRequest struct {
	CardID     uuid.UUID `json:"card_id"`
	PlayerName string    `json:"player_name"`
}

type patternInfo struct {
	Pattern     models.PatternType `json:"pattern"`
	Name        string             `json:"name"`
	Description string             `json:"description"`
}

func describePattern(p models.PatternType) patternInfo {
	return patternInfo{Pattern: p, Name: p.DisplayName(), Description: p.Description()}
}

func CreateGame(app *App) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req createGameRequest
		if err := bind(c, "create game", &req); err != nil {
			return app.respondError(c, err)
		}

		view, err := app.Games.CreateGame(req.GameID, req.Name, req.Playlist, req.Pattern)
		if err != nil {
			return app.respondError(c, err)
		}
		app.refreshGameCount()
		app.cacheSnapshot(c.Request().Context(), view.ID)
		return c.JSON(http.StatusCreated, view)
	}
}

func ListLiveGames(app *App) echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]any{"games": app.Games.Games()})
	}
}

func GetGameState(app *App) echo.HandlerFunc {
	return func(c echo.Context) error {
		gameID, err := paramUUID(c, "id")
		if err != nil {
			return app.respondError(c, err)
		}
		view, err := app.Games.Game(gameID)
		if err != nil {
			return app.respondError(c, err)
		}
		return c.JSON(http.StatusOK, view)
	}
}

func DeleteGame(app *App) echo.HandlerFunc {
	return func(c echo.Context) error {
		gameID, err := paramUUID(c, "id")
		if err != nil {
			return app.respondError(c, err)
		}
		if err := app.Games.DeleteGame(gameID); err != nil {
			return app.respondError(c, err)
		}
		app.refreshGameCount()
		app.uncacheSnapshot(c.Request().Context(), gameID)
		return c.JSON(http.StatusOK, map[string]string{"message": "Game deleted successfully"})
	}
}

// ChangeStatus serves activate, pause, resume and complete.
func ChangeStatus(app *App, change func(*game.Service, uuid.UUID) (models.GameView, error)) echo.HandlerFunc {
	return func(c echo.Context) error {
		gameID, err := paramUUID(c, "id")
		if err != nil {
			return app.respondError(c, err)
		}
		view, err := change(app.Games, gameID)
		if err != nil {
			return app.respondError(c, err)
		}
		ctx := c.Request().Context()
		if view.Status == models.GameStatusCompleted {
			app.archiveWinners(ctx, gameID, view.Winners)
		}
		app.publish(ctx, models.GameEvent{Type: models.EventStatusChanged, GameID: gameID, Status: view.Status})
		return c.JSON(http.StatusOK, view)
	}
}

// SongPlayed marks a song played. MarkSong also accepts played=false.
func SongPlayed(app *App) echo.HandlerFunc {
	return markSong(app, true)
}

func MarkSong(app *App) echo.HandlerFunc {
	return markSong(app, false)
}

func markSong(app *App, alwaysPlayed bool) echo.HandlerFunc {
	return func(c echo.Context) error {
		gameID, err := paramUUID(c, "id")
		if err != nil {
			return app.respondError(c, err)
		}
		var req songRequest
		if err := bind(c, "mark song", &req); err != nil {
			return app.respondError(c, err)
		}
		if req.SongID == uuid.Nil {
			return app.respondError(c, models.Validationf("mark song", "song_id is required"))
		}
		played := alwaysPlayed || req.Played == nil || *req.Played

		winners, err := app.Games.MarkSong(gameID, req.SongID, played)
		if err != nil {
			return app.respondError(c, err)
		}
		view, err := app.Games.Game(gameID)
		if err != nil {
			return app.respondError(c, err)
		}

		ctx := c.Request().Context()
		eventType := models.EventSongUnplayed
		if played {
			eventType = models.EventSongPlayed
			app.Metrics.SongsPlayedTotal.Inc()
		}
		songID := req.SongID
		app.publish(ctx, models.GameEvent{Type: eventType, GameID: gameID, SongID: &songID})
		app.publishWinners(ctx, gameID, winners)

		if winners == nil {
			winners = []models.Winner{}
		}
		return c.JSON(http.StatusOK, songResponse{
			GameID:      gameID,
			SongID:      req.SongID,
			Played:      played,
			TotalPlayed: len(view.PlayedSongs),
			NewWinners:  winners,
			UpdatedAt:   view.UpdatedAt,
		})
	}
}

func RevealSong(app *App) echo.HandlerFunc {
	return func(c echo.Context) error {
		gameID, err := paramUUID(c, "id")
		if err != nil {
			return app.respondError(c, err)
		}
		songID, err := paramUUID(c, "song_id")
		if err != nil {
			return app.respondError(c, err)
		}
		if err := app.Games.RevealSong(gameID, songID); err != nil {
			return app.respondError(c, err)
		}
		view, err := app.Games.Game(gameID)
		if err != nil {
			return app.respondError(c, err)
		}
		app.publish(c.Request().Context(), models.GameEvent{Type: models.EventSongRevealed, GameID: gameID, SongID: &songID})
		return c.JSON(http.StatusOK, map[string]any{
			"game_id":        gameID,
			"song_id":        songID,
			"revealed_songs": view.RevealedSongs,
		})
	}
}

func ResetRound(app *App) echo.HandlerFunc {
	return func(c echo.Context) error {
		gameID, err := paramUUID(c, "id")
		if err != nil {
			return app.respondError(c, err)
		}
		cleared, err := app.Games.ResetRound(gameID)
		if err != nil {
			return app.respondError(c, err)
		}
		view, err := app.Games.Game(gameID)
		if err != nil {
			return app.respondError(c, err)
		}
		ctx := c.Request().Context()
		app.archiveWinners(ctx, gameID, cleared)
		app.Metrics.RoundsResetTotal.Inc()
		app.publish(ctx, models.GameEvent{Type: models.EventRoundReset, GameID: gameID})
		return c.JSON(http.StatusOK, view)
	}
}

func SetPattern(app *App) echo.HandlerFunc {
	return func(c echo.Context) error {
		gameID, err := paramUUID(c, "id")
		if err != nil {
			return app.respondError(c, err)
		}
		pattern, err := models.ParsePatternType(c.QueryParam("pattern"))
		if err != nil {
			return app.respondError(c, err)
		}
		if _, err := app.Games.SetPattern(gameID, pattern); err != nil {
			return app.respondError(c, err)
		}
		ctx := c.Request().Context()
		app.cacheSnapshot(ctx, gameID)
		app.publish(ctx, models.GameEvent{Type: models.EventPatternChanged, GameID: gameID, Pattern: pattern})
		return c.JSON(http.StatusOK, describePattern(pattern))
	}
}

func ListPatterns() echo.HandlerFunc {
	return func(c echo.Context) error {
		out := make([]patternInfo, len(models.PatternTypes))
		for i, p := range models.PatternTypes {
			out[i] = describePattern(p)
		}
		return c.JSON(http.StatusOK, map[string]any{"patterns": out})
	}
}

func SetPrize(app *App) echo.HandlerFunc {
	return func(c echo.Context) error {
		gameID, err := paramUUID(c, "id")
		if err != nil {
			return app.respondError(c, err)
		}
		var req prizeRequest
		if err := bind(c, "set prize", &req); err != nil {
			return app.respondError(c, err)
		}
		view, err := app.Games.SetPrize(gameID, req.Prize)
		if err != nil {
			return app.respondError(c, err)
		}
		app.publish(c.Request().Context(), models.GameEvent{Type: models.EventPrizeChanged, GameID: gameID, Prize: view.Prize})
		return c.JSON(http.StatusOK, map[string]any{"game_id": gameID, "prize": view.Prize})
	}
}

func RegisterCard(app *App) echo.HandlerFunc {
	return func(c echo.Context) error {
		gameID, err := paramUUID(c, "id")
		if err != nil {
			return app.respondError(c, err)
		}
		var req registerRequest
		if err := bind(c, "register card", &req); err != nil {
			return app.respondError(c, err)
		}
		name := strings.TrimSpace(req.PlayerName)
		if utf8.RuneCountInString(name) > maxPlayerNameLength {
			return app.respondError(c, models.Validationf("register card", "player name must be at most %d characters", maxPlayerNameLength))
		}
		reg, err := app.Games.RegisterCard(gameID, req.CardID, name)
		if err != nil {
			return app.respondError(c, err)
		}
		return c.JSON(http.StatusOK, reg)
	}
}

func ListRegistrations(app *App) echo.HandlerFunc {
	return func(c echo.Context) error {
		gameID, err := paramUUID(c, "id")
		if err != nil {
			return app.respondError(c, err)
		}
		regs, err := app.Games.Registrations(gameID)
		if err != nil {
			return app.respondError(c, err)
		}
		return c.JSON(http.StatusOK, map[string]any{"game_id": gameID, "registrations": regs})
	}
}

func CardStatuses(app *App) echo.HandlerFunc {
	return func(c echo.Context) error {
		gameID, err := paramUUID(c, "id")
		if err != nil {
			return app.respondError(c, err)
		}
		statuses, err := app.Games.CardStatuses(gameID)
		if err != nil {
			return app.respondError(c, err)
		}
		return c.JSON(http.StatusOK, map[string]any{"game_id": gameID, "cards": statuses})
	}
}
