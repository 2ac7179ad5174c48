package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/FiveEightyEight/musicbingo/db"
	"github.com/FiveEightyEight/musicbingo/game"
	"github.com/FiveEightyEight/musicbingo/live"
	"github.com/FiveEightyEight/musicbingo/metrics"
	"github.com/FiveEightyEight/musicbingo/models"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// App carries the dependencies shared by every handler. Cache and Archive are
// optional and may be nil.
type App struct {
	Games    *game.Service
	Bus      live.Bus
	Files    *db.FileStore
	Cache    *db.RedisClient
	Archive  *db.Archive
	Metrics  *metrics.Metrics
	Log      zerolog.Logger
	Upgrader websocket.Upgrader
}

// NewUpgrader accepts websocket handshakes from the given origins; "*" or an
// empty list allows any origin.
func NewUpgrader(allowOrigins []string) websocket.Upgrader {
	allowed := make(map[string]struct{}, len(allowOrigins))
	for _, o := range allowOrigins {
		allowed[o] = struct{}{}
	}
	return websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			if _, all := allowed["*"]; all || len(allowed) == 0 {
				return true
			}
			_, ok := allowed[r.Header.Get("Origin")]
			return ok
		},
	}
}

// publish sends an event to live viewers. Failures are logged, never returned:
// the game state has already changed.
func (app *App) publish(ctx context.Context, event models.GameEvent) {
	if app.Bus == nil {
		return
	}
	if event.At.IsZero() {
		event.At = time.Now().UTC()
	}
	if err := app.Bus.Publish(ctx, event); err != nil {
		app.Log.Warn().Err(err).Str("game_id", event.GameID.String()).Str("type", string(event.Type)).Msg("failed to publish game event")
	}
}

func (app *App) publishWinners(ctx context.Context, gameID uuid.UUID, winners []models.Winner) {
	if len(winners) == 0 {
		return
	}
	for _, w := range winners {
		app.Metrics.WinnersTotal.WithLabelValues(string(w.Pattern)).Inc()
	}
	app.publish(ctx, models.GameEvent{Type: models.EventWinnerDetected, GameID: gameID, Winners: winners})
}

// cacheSnapshot mirrors a game's durable state into redis when enabled.
func (app *App) cacheSnapshot(ctx context.Context, gameID uuid.UUID) {
	if app.Cache == nil {
		return
	}
	snap, err := app.Games.Snapshot(gameID, "")
	if err != nil {
		return
	}
	if err := app.Cache.SaveSnapshot(ctx, snap); err != nil {
		app.Log.Warn().Err(err).Str("game_id", gameID.String()).Msg("failed to cache snapshot")
	}
}

func (app *App) uncacheSnapshot(ctx context.Context, gameID uuid.UUID) {
	if app.Cache == nil {
		return
	}
	if err := app.Cache.DeleteSnapshot(ctx, gameID); err != nil {
		app.Log.Warn().Err(err).Str("game_id", gameID.String()).Msg("failed to drop cached snapshot")
	}
}

func (app *App) archiveWinners(ctx context.Context, gameID uuid.UUID, winners []models.Winner) {
	if app.Archive == nil || len(winners) == 0 {
		return
	}
	if err := app.Archive.ArchiveWinners(ctx, gameID, winners); err != nil {
		app.Log.Error().Err(err).Str("game_id", gameID.String()).Msg("failed to archive winners")
	}
}

func (app *App) refreshGameCount() {
	app.Metrics.GamesLive.Set(float64(len(app.Games.Games())))
}

// RestoreCached loads every snapshot held in redis into the game service.
// Games already live are left alone.
func (app *App) RestoreCached(ctx context.Context) (int, error) {
	if app.Cache == nil {
		return 0, nil
	}
	ids, err := app.Cache.SnapshotIDs(ctx)
	if err != nil {
		return 0, err
	}
	restored := 0
	for _, id := range ids {
		snap, err := app.Cache.GetSnapshot(ctx, id)
		if err != nil {
			app.Log.Warn().Err(err).Str("game_id", id.String()).Msg("skipping cached snapshot")
			continue
		}
		if _, loaded, err := app.Games.LoadSnapshot(snap); err != nil {
			app.Log.Warn().Err(err).Str("game_id", id.String()).Msg("cached snapshot rejected")
		} else if loaded {
			restored++
		}
	}
	app.refreshGameCount()
	return restored, nil
}
