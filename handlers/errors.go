package handlers

import (
	"errors"
	"net/http"

	"github.com/FiveEightyEight/musicbingo/models"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

func statusFor(err error) int {
	switch models.KindOf(err) {
	case models.KindNotFound:
		return http.StatusNotFound
	case models.KindValidation, models.KindStateConflict, models.KindGeneration:
		return http.StatusBadRequest
	}
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code
	}
	return http.StatusInternalServerError
}

// respondError writes the error body used by every endpoint:
// {"error": "...", "kind": "..."}.
func (app *App) respondError(c echo.Context, err error) error {
	status := statusFor(err)
	body := map[string]string{"error": err.Error()}
	if kind := models.KindOf(err); kind != "" {
		body["kind"] = string(kind)
	}
	var he *echo.HTTPError
	if errors.As(err, &he) {
		if msg, ok := he.Message.(string); ok {
			body["error"] = msg
		}
	}
	if status >= http.StatusInternalServerError {
		app.Log.Error().Err(err).
			Str("method", c.Request().Method).
			Str("path", c.Path()).
			Str("request_id", c.Response().Header().Get(echo.HeaderXRequestID)).
			Msg("request failed")
		body["error"] = "internal server error"
	}
	return c.JSON(status, body)
}

// bind decodes the request body; decode failures are validation errors.
func bind(c echo.Context, op string, v any) error {
	if err := c.Bind(v); err != nil {
		return models.Validationf(op, "invalid request format")
	}
	return nil
}

func paramUUID(c echo.Context, name string) (uuid.UUID, error) {
	raw := c.Param(name)
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, models.Validationf("parse "+name, "invalid %s %q", name, raw)
	}
	return id, nil
}
