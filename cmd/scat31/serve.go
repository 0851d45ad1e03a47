package main

import (
	"context"
	"errors"
	"math/rand"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/dingxinghu/Scat31/cmd/scat31/shared"
	"github.com/dingxinghu/Scat31/internal/server"
)

// ServeCmd contains core server configuration
type ServeCmd struct {
	Addr        string `kong:"help='Server address (overrides config file)'"`
	Config      string `kong:"default='scat31.hcl',help='Path to HCL config file'"`
	Debug       bool   `kong:"help='Enable debug logging'"`
	TurnTimeout int    `kong:"default='-1',help='Idle human turn timeout in seconds, 0 disables (overrides config file)'"`
	Seed        *int64 `kong:"help='Deterministic seed for room deals (optional)'"`
}

func (c *ServeCmd) Run() error {
	cfg, err := server.LoadConfig(c.Config)
	if err != nil {
		return err
	}
	logger := shared.SetupLogger(cfg.Server.LogLevel, c.Debug)

	if c.Addr == "" {
		c.Addr = cfg.GetServerAddress()
	}
	if c.TurnTimeout >= 0 {
		cfg.Server.TurnTimeoutSeconds = c.TurnTimeout
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	var seed int64
	if c.Seed != nil {
		seed = *c.Seed
		logger.Info().Int64("seed", seed).Msg("Using deterministic seed")
	} else {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	var board *server.Leaderboard
	if cfg.Redis != nil {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		board = server.NewLeaderboard(rdb)
		logger.Info().Str("addr", cfg.Redis.Addr).Msg("Leaderboard enabled")
	}

	svc := server.NewGameService(logger, cfg, nil, board, rng)
	s := server.NewServer(logger, svc)

	logger.Info().
		Str("address", c.Addr).
		Int("turn_timeout_seconds", cfg.Server.TurnTimeoutSeconds).
		Msg("Starting Scat31 server")

	ctx := shared.SetupSignalHandler(logger)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := s.Start(c.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		logger.Info().Msg("Shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
