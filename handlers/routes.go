package handlers

import (
	"net/http"

	"github.com/FiveEightyEight/musicbingo/game"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func homePath(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"service": "Music Bingo API", "status": "running"})
}

func health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "healthy"})
}

// RegisterRoutes mounts the whole API on e. gatherer backs /metrics.
func RegisterRoutes(e *echo.Echo, app *App, gatherer prometheus.Gatherer) {
	e.Use(middleware.RequestID())
	e.Use(app.Metrics.Middleware())

	e.GET("/", homePath)
	e.GET("/health", health)
	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	api := e.Group("/api")
	api.GET("/patterns", ListPatterns())
	api.POST("/cards/generate", GenerateCards(app))

	api.POST("/game/start", CreateGame(app))
	api.GET("/games/live", ListLiveGames(app))
	api.GET("/games", ListSavedGames(app))
	api.POST("/games/load/:filename", LoadSavedGame(app))

	g := api.Group("/game/:id")
	g.GET("/state", GetGameState(app))
	g.DELETE("", DeleteGame(app))
	g.POST("/card", AddCard(app))
	g.POST("/cards", AddCards(app))
	g.POST("/activate", ChangeStatus(app, (*game.Service).StartGame))
	g.POST("/pause", ChangeStatus(app, (*game.Service).PauseGame))
	g.POST("/resume", ChangeStatus(app, (*game.Service).ResumeGame))
	g.POST("/complete", ChangeStatus(app, (*game.Service).CompleteGame))
	g.POST("/song-played", SongPlayed(app))
	g.POST("/mark-song", MarkSong(app))
	g.POST("/reveal/:song_id", RevealSong(app))
	g.POST("/reset", ResetRound(app))
	g.POST("/pattern", SetPattern(app))
	g.POST("/prize", SetPrize(app))
	g.POST("/register", RegisterCard(app))
	g.GET("/registrations", ListRegistrations(app))
	g.GET("/card-status", CardStatuses(app))
	g.POST("/save", SaveGame(app))
	g.GET("/history", WinnerHistory(app))
	g.GET("/live", ConnectToGame(app))

	api.GET("/verify/:game_id/:card_id", VerifyCard(app))
	api.POST("/verify/token", VerifyToken(app))
}
