package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveGeneration(t *testing.T) {
	m := New(prometheus.NewRegistry())
	m.ObserveGeneration(100, 20*time.Millisecond, 0.38)
	m.ObserveGeneration(5, time.Millisecond, 0.41)

	assert.Equal(t, 105.0, testutil.ToFloat64(m.CardsGeneratedTotal))
	assert.Equal(t, 0.41, testutil.ToFloat64(m.GenerationOverlap))
}

func TestObserveVerification(t *testing.T) {
	m := New(prometheus.NewRegistry())
	m.ObserveVerification(true)
	m.ObserveVerification(false)
	m.ObserveVerification(false)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.VerificationsTotal.WithLabelValues("winner")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.VerificationsTotal.WithLabelValues("no_win")))
}

func TestMiddleware_CountsByRoute(t *testing.T) {
	m := New(prometheus.NewRegistry())
	e := echo.New()
	e.Use(m.Middleware())
	e.GET("/api/game/:id/state", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	for _, id := range []string{"a", "b"} {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/game/"+id+"/state", nil))
		require.Equal(t, http.StatusOK, rec.Code)
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(m.RequestsTotal.WithLabelValues(http.MethodGet, "/api/game/:id/state", "200")))
}

func TestNew_SeparateRegistries(t *testing.T) {
	assert.NotPanics(t, func() {
		New(prometheus.NewRegistry())
		New(prometheus.NewRegistry())
	})
}
