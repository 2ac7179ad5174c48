package logging

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_JSON(t *testing.T) {
	var buf bytes.Buffer
	log := New("warn", FormatJSON, &buf)

	log.Info().Msg("hidden")
	assert.Zero(t, buf.Len())

	log.Warn().Str("game_id", "g1").Msg("shown")
	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "shown", line["message"])
	assert.Equal(t, "g1", line["game_id"])
	assert.Equal(t, "musicbingo", line["service"])
}

func TestNew_DefaultsToInfo(t *testing.T) {
	var buf bytes.Buffer
	log := New("loud", FormatJSON, &buf)
	assert.Equal(t, zerolog.InfoLevel, log.GetLevel())

	console := New("", FormatConsole, &buf)
	assert.Equal(t, zerolog.InfoLevel, console.GetLevel())
}

func TestRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	e := echo.New()
	e.Use(RequestLogger(New("info", FormatJSON, &buf)))
	e.GET("/ping", func(c echo.Context) error { return c.String(http.StatusOK, "pong") })

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "GET", line["method"])
	assert.Equal(t, "/ping", line["uri"])
	assert.Equal(t, float64(200), line["status"])
}
