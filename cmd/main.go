package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/FiveEightyEight/musicbingo/config"
	"github.com/FiveEightyEight/musicbingo/db"
	"github.com/FiveEightyEight/musicbingo/game"
	"github.com/FiveEightyEight/musicbingo/handlers"
	"github.com/FiveEightyEight/musicbingo/live"
	"github.com/FiveEightyEight/musicbingo/logging"
	"github.com/FiveEightyEight/musicbingo/metrics"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

func main() {
	configFile := flag.String("config", "", "path to a config file")
	flag.Parse()

	loader := config.NewLoader()
	if *configFile != "" {
		loader.SetConfigFile(*configFile)
	}
	cfg, err := loader.Load()
	if err != nil {
		bootLog := logging.New("info", logging.FormatConsole, os.Stderr)
		bootLog.Fatal().Err(err).Msg("failed to load config")
	}
	log := logging.New(cfg.Log.Level, cfg.Log.Format, os.Stdout)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	app := &handlers.App{
		Games:    game.NewService(game.Options{AppendWinnerOnReplay: cfg.Games.AppendWinnerOnReplay}, log),
		Files:    db.NewFileStore(cfg.Games.Dir, log),
		Metrics:  metrics.New(reg),
		Log:      log,
		Upgrader: handlers.NewUpgrader(cfg.Server.AllowOrigins),
	}

	if cfg.Redis.Enabled {
		rdb := db.NewRedisClient(&redis.Options{
			Addr:     cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		}, log)
		if err := rdb.Ping(ctx); err != nil {
			log.Fatal().Err(err).Str("address", cfg.Redis.Address).Msg("failed to connect to redis")
		}
		defer rdb.Close()
		app.Cache = rdb
		app.Bus = rdb

		restored, err := app.RestoreCached(ctx)
		if err != nil {
			log.Error().Err(err).Msg("failed to restore cached games")
		} else {
			log.Info().Int("games", restored).Msg("restored cached games")
		}
	} else {
		app.Bus = live.NewHub(log)
	}

	if cfg.Archive.Enabled {
		archive, err := db.OpenArchive(cfg.Archive.Path, log)
		if err != nil {
			log.Fatal().Err(err).Str("path", cfg.Archive.Path).Msg("failed to open winner archive")
		}
		defer archive.Close()
		app.Archive = archive
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.Use(logging.RequestLogger(log))

	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: cfg.Server.AllowOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept},
	}))

	e.OPTIONS("/*", func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})

	handlers.RegisterRoutes(e, app, reg)

	go func() {
		log.Info().Str("addr", cfg.Server.Addr()).Str("games_dir", cfg.Games.Dir).
			Bool("redis", cfg.Redis.Enabled).Bool("archive", cfg.Archive.Enabled).
			Msg("music bingo server starting")
		if err := e.Start(cfg.Server.Addr()); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server stopped")
		}
	}()

	<-ctx.Done()
	shutdown(e, log)
}

func shutdown(e *echo.Echo, log zerolog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
		return
	}
	log.Info().Msg("server stopped")
}
