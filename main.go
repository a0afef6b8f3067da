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

	"sharpchess/internal/analysis"
	"sharpchess/internal/bot"
	"sharpchess/internal/cache"
	"sharpchess/internal/engine"
	"sharpchess/internal/game"
	"sharpchess/internal/handlers"
	"sharpchess/internal/jobs"
	"sharpchess/internal/logging"
	"sharpchess/internal/storage"
)

func main() {
	cfg := parseConfig(flag.CommandLine, os.Args[1:], os.Getenv)
	logging.Setup(cfg.Debug)
	log := logging.Logger
	log.Info().Str("commit", commit).Str("built", buildDate).Msg("sharpchess starting")

	eng, err := engine.New(engine.Config{Type: cfg.EngineType, Path: cfg.EnginePath, Options: cfg.EngineOptions})
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.EnginePath).Msg("start engine")
	}
	defer eng.Close()
	svc := analysis.NewService(eng)

	var (
		store   *storage.Store
		archive jobs.Archive
		rec     jobs.Recorder
	)
	if cfg.DSN != "" {
		db, err := storage.New(cfg.DSN)
		if err != nil {
			log.Fatal().Err(err).Msg("open database")
		}
		store = storage.NewStore(db)
		archive, rec = store, store
		log.Info().Msg("analysis archive enabled")
	}

	var resultCache jobs.Cache
	if cfg.RedisURL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		c, err := cache.New(ctx, cfg.RedisURL, cache.DefaultTTL)
		cancel()
		if err != nil {
			log.Warn().Err(err).Msg("redis unavailable, running without cache")
		} else {
			defer c.Close()
			resultCache = c
			log.Info().Msg("result cache enabled")
		}
	}
	if resultCache == nil && cfg.CacheDir != "" {
		d, err := cache.OpenDisk(cfg.CacheDir, cache.DefaultTTL)
		if err != nil {
			log.Warn().Err(err).Str("dir", cfg.CacheDir).Msg("disk cache unavailable")
		} else {
			defer d.Close()
			resultCache = d
			log.Info().Str("dir", cfg.CacheDir).Msg("disk result cache enabled")
		}
	}

	jh := jobs.NewHub(jobs.Runners(svc, resultCache, archive), rec)
	defer jh.Close()

	newBot, closeBot := botFactory(cfg)
	defer closeBot()
	hub := game.NewHub(newBot)

	h := handlers.NewHandler(hub, jh, store, log)
	h.Version = commit

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if store != nil && cfg.Retention > 0 {
		go prune(ctx, store, cfg.Retention)
	}

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           h.Routes(cfg.Origin),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Info().Str("addr", cfg.Addr).Msg("sharpchess listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("http server")
			stop()
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("http shutdown")
	}
}

// botFactory picks the opponent for new games. The engine bot is shared by
// every game and serializes its searches.
func botFactory(cfg config) (func() bot.Mover, func()) {
	if cfg.Bot != "engine" {
		return nil, func() {}
	}
	b, err := bot.NewEngine(cfg.EnginePath, cfg.BotDepth)
	if err != nil {
		logging.Logger.Warn().Err(err).Msg("engine bot unavailable, using random bot")
		return nil, func() {}
	}
	return func() bot.Mover { return b }, b.Close
}

func prune(ctx context.Context, store *storage.Store, retention time.Duration) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			n, err := store.Prune(ctx, now.Add(-retention))
			if err != nil {
				logging.Logger.Warn().Err(err).Msg("prune analyses")
				continue
			}
			if n > 0 {
				logging.Logger.Info().Int64("rows", n).Msg("pruned analyses")
			}
		}
	}
}
