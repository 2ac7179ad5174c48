package handlers

import (
	"context"

	"github.com/FiveEightyEight/musicbingo/models"
	"github.com/labstack/echo/v4"
)

// liveMessage is what the live feed writes: the full state once on connect,
// then one message per game event.
type liveMessage struct {
	Type  string            `json:"type"`
	State *models.GameView  `json:"state,omitempty"`
	Event *models.GameEvent `json:"event,omitempty"`
}

// ConnectToGame streams a game's events over a websocket until either side hangs up.
func ConnectToGame(app *App) echo.HandlerFunc {
	return func(c echo.Context) error {
		gameID, err := paramUUID(c, "id")
		if err != nil {
			return app.respondError(c, err)
		}
		log := app.Log.With().Str("game_id", gameID.String()).Logger()

		view, err := app.Games.Game(gameID)
		if err != nil {
			return app.respondError(c, err)
		}

		ctx, cancel := context.WithCancel(c.Request().Context())
		defer cancel()

		updates, err := app.Bus.Subscribe(ctx, gameID)
		if err != nil {
			log.Error().Err(err).Msg("failed to subscribe to game")
			return app.respondError(c, err)
		}

		ws, err := app.Upgrader.Upgrade(c.Response(), c.Request(), nil)
		if err != nil {
			// Upgrade has already written the handshake error.
			log.Debug().Err(err).Msg("websocket upgrade failed")
			return nil
		}
		app.Metrics.LiveConnections.Inc()
		defer func() {
			ws.Close()
			app.Metrics.LiveConnections.Dec()
			log.Debug().Msg("live viewer disconnected")
		}()
		log.Debug().Msg("live viewer connected")

		if err := ws.WriteJSON(liveMessage{Type: "state", State: &view}); err != nil {
			log.Debug().Err(err).Msg("failed to send initial state")
			return nil
		}

		// Viewers never send commands; reading only notices the close.
		readErr := make(chan error, 1)
		go func() {
			for {
				if _, _, err := ws.ReadMessage(); err != nil {
					readErr <- err
					return
				}
			}
		}()

		for {
			select {
			case update, ok := <-updates:
				if !ok {
					return nil
				}
				if err := ws.WriteJSON(liveMessage{Type: "event", Event: &update}); err != nil {
					log.Debug().Err(err).Msg("failed to send update")
					return nil
				}
			case <-readErr:
				return nil
			case <-ctx.Done():
				return nil
			}
		}
	}
}
