package metrics

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all application metrics
type Metrics struct {
	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	// Generation metrics
	CardsGeneratedTotal prometheus.Counter
	GenerationSeconds   prometheus.Histogram
	GenerationOverlap   prometheus.Gauge

	// Game metrics
	GamesLive          prometheus.Gauge
	SongsPlayedTotal   prometheus.Counter
	WinnersTotal       *prometheus.CounterVec
	RoundsResetTotal   prometheus.Counter
	VerificationsTotal *prometheus.CounterVec

	// Live feed metrics
	LiveConnections prometheus.Gauge
}

// New registers every metric with reg. Tests pass a fresh prometheus.NewRegistry().
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "musicbingo_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "musicbingo_http_request_duration_seconds",
				Help:    "HTTP request latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),

		CardsGeneratedTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "musicbingo_cards_generated_total",
				Help: "Total number of bingo cards generated",
			},
		),
		GenerationSeconds: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "musicbingo_generation_duration_seconds",
				Help:    "Duration of card batch generation in seconds",
				Buckets: prometheus.ExponentialBuckets(0.001, 4, 8),
			},
		),
		GenerationOverlap: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "musicbingo_generation_overlap_ratio",
				Help: "Average pairwise overlap of the last generated batch",
			},
		),

		GamesLive: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "musicbingo_games_live",
				Help: "Number of games held in memory",
			},
		),
		SongsPlayedTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "musicbingo_songs_played_total",
				Help: "Total number of songs marked played",
			},
		),
		WinnersTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "musicbingo_winners_total",
				Help: "Total winners detected",
			},
			[]string{"pattern"},
		),
		RoundsResetTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "musicbingo_rounds_reset_total",
				Help: "Total number of round resets",
			},
		),
		VerificationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "musicbingo_verifications_total",
				Help: "Card verifications by outcome",
			},
			[]string{"result"},
		),

		LiveConnections: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "musicbingo_live_connections",
				Help: "Open live feed websocket connections",
			},
		),
	}
}

// ObserveGeneration records one generated batch.
func (m *Metrics) ObserveGeneration(cards int, took time.Duration, overlap float64) {
	m.CardsGeneratedTotal.Add(float64(cards))
	m.GenerationSeconds.Observe(took.Seconds())
	m.GenerationOverlap.Set(overlap)
}

func (m *Metrics) ObserveVerification(winner bool) {
	result := "no_win"
	if winner {
		result = "winner"
	}
	m.VerificationsTotal.WithLabelValues(result).Inc()
}

// Middleware counts requests by route template, not raw path.
func (m *Metrics) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			status := c.Response().Status
			if err != nil {
				if he, ok := err.(*echo.HTTPError); ok {
					status = he.Code
				}
			}
			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			m.RequestsTotal.WithLabelValues(c.Request().Method, route, strconv.Itoa(status)).Inc()
			m.RequestDuration.WithLabelValues(c.Request().Method, route).Observe(time.Since(start).Seconds())
			return err
		}
	}
}
