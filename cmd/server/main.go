package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	router "github.com/dkeye/matchgate/internal/adapters/http"
	gateway "github.com/dkeye/matchgate/internal/adapters/signal"
	"github.com/dkeye/matchgate/internal/adapters/store"
	"github.com/dkeye/matchgate/internal/adapters/store/migrations"
	"github.com/dkeye/matchgate/internal/app"
	"github.com/dkeye/matchgate/internal/app/coord"
	"github.com/dkeye/matchgate/internal/config"
	"github.com/dkeye/matchgate/internal/core"
	"github.com/dkeye/matchgate/internal/domain"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Initialize zerolog global logger early so config.Load can use it.
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	matchStore, cleanup, err := buildStore(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build store")
	}
	defer cleanup()

	minIdle := make(map[domain.MatchType]int, len(cfg.Pools))
	for name, n := range cfg.Pools {
		mt, err := domain.ParseMatchType(name)
		if err != nil {
			log.Fatal().Str("match_type", name).Msg("unknown match type in pools config")
		}
		minIdle[mt] = n
	}

	pools := app.NewPoolRegistry(minIdle)
	registry := app.NewConnectionRegistry()

	ctl := &gateway.Controller{
		Registry:   registry,
		Pools:      pools,
		Store:      matchStore,
		ReadLimit:  cfg.ReadLimit,
		PingPeriod: cfg.PingPeriod,
	}
	if cfg.JoinLimit > 0 {
		ctl.Joins = gateway.NewJoinRateLimiter(cfg.JoinLimit, cfg.JoinWindow)
	}
	coordinator := coord.New(pools, matchStore, ctl)
	ctl.Coord = coordinator

	r := router.SetupRouter(ctx, cfg, ctl, matchStore)
	addr := fmt.Sprintf(":%d", cfg.Port)

	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("matchgate server started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	coordinator.Wait()
	log.Info().Msg("Server exited gracefully")
}

// buildStore wires the persistence collaborator: postgres when a database
// is configured, the in-memory store otherwise, with the redis active-match
// cache layered on when available.
func buildStore(ctx context.Context, cfg *config.Config) (core.MatchStore, func(), error) {
	if cfg.DatabaseURL == "" {
		log.Warn().Msg("no database_url configured, using in-memory store")
		return wrapCache(ctx, cfg, store.NewMemory(), func() {})
	}

	if err := migrations.Up(cfg.DatabaseURL); err != nil {
		return nil, nil, err
	}
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("pgx pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("postgres ping: %w", err)
	}
	return wrapCache(ctx, cfg, store.NewPostgres(pool), pool.Close)
}

func wrapCache(ctx context.Context, cfg *config.Config, backend core.MatchStore, cleanup func()) (core.MatchStore, func(), error) {
	if cfg.Redis.Addr == "" {
		return backend, cleanup, nil
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("redis ping: %w", err)
	}
	wrapped := store.NewActiveMatchCache(rdb, backend, 0)
	return wrapped, func() {
		_ = rdb.Close()
		cleanup()
	}, nil
}
