package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"movienight-server/internal/config"
	"movienight-server/internal/deps"
	"movienight-server/internal/jobs"
	"movienight-server/internal/server"
	"movienight-server/internal/storage"
	"movienight-server/internal/storage/memory"
	"movienight-server/internal/storage/postgres"
	"movienight-server/internal/storage/sqlite"
	"movienight-server/internal/voting"
	"movienight-server/pkg/cache"
	"movienight-server/pkg/session"
	"movienight-server/pkg/tmdb"
)

func main() {
	_ = godotenv.Load() // best-effort
	cfg := config.FromEnv()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := openStore(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("storage init failed")
	}
	defer store.Close()

	var c cache.Cache
	if addr := cfg.ValkeyAddr; addr != "" {
		vc, err := cache.NewValkey(addr, cfg.ValkeyPassword)
		if err != nil {
			log.Error().Err(err).Msg("valkey connect failed, using in-memory cache")
			c = cache.NewInMemory()
		} else {
			c = vc
		}
	} else {
		c = cache.NewInMemory()
	}

	adminHash, err := adminPasswordHash(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("admin password hash failed")
	}
	if adminHash == nil {
		log.Warn().Msg("no admin password configured; admin endpoints are disabled")
	}

	sd := deps.ServerDeps{
		Store:     store,
		Cache:     c,
		Sessions:  session.NewCacheStore(c, cfg.SessionSecret, cfg.SessionTTL),
		Resolver:  voting.NewResolver(store),
		AdminHash: adminHash,
		Name:      "movienight-server",
		StartedAt: time.Now(),
	}
	api := server.New(sd, cfg.CORSAllowedOrigins)

	// Background poster lookups
	var tmdbClient *tmdb.Client
	if cfg.TMDBAPIKey != "" {
		tmdbClient = tmdb.New(cfg.TMDBAPIKey, cfg.TMDBLanguage)
	}
	jobs.StartPosterBackfill(ctx, store, tmdbClient)

	addr := ":" + cfg.Port
	go func() {
		log.Info().Str("addr", addr).Msg("listening")
		if err := server.StartHTTP(ctx, addr, api.Router()); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()
	_, _ = fmt.Fprintln(os.Stderr, "shutting down...")
	time.Sleep(200 * time.Millisecond)
}

// openStore picks the storage backend from the DATABASE_URL scheme:
// postgres://... for Postgres, sqlite://path for SQLite, empty for the
// in-process store (dev convenience, nothing survives a restart).
func openStore(ctx context.Context, databaseURL string) (storage.Store, error) {
	switch {
	case databaseURL == "":
		log.Warn().Msg("DATABASE_URL not set; using volatile in-memory storage")
		return memory.New(), nil
	case strings.HasPrefix(databaseURL, "postgres://"), strings.HasPrefix(databaseURL, "postgresql://"):
		pool, err := postgres.Connect(ctx, databaseURL)
		if err != nil {
			return nil, fmt.Errorf("db connect: %w", err)
		}
		if err := postgres.Migrate(databaseURL); err != nil {
			pool.Close()
			return nil, fmt.Errorf("migrations: %w", err)
		}
		return postgres.New(pool), nil
	case strings.HasPrefix(databaseURL, "sqlite://"):
		return sqlite.Open(strings.TrimPrefix(databaseURL, "sqlite://"))
	default:
		return nil, fmt.Errorf("unsupported DATABASE_URL scheme: %s", databaseURL)
	}
}

func adminPasswordHash(cfg config.Config) ([]byte, error) {
	if cfg.AdminPasswordHash != "" {
		return []byte(cfg.AdminPasswordHash), nil
	}
	if cfg.AdminPassword != "" {
		return bcrypt.GenerateFromPassword([]byte(cfg.AdminPassword), bcrypt.DefaultCost)
	}
	return nil, nil
}
