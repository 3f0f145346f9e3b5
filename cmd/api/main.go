package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/Ansen-2255/ansen-portfolio/config"
	httpapi "github.com/Ansen-2255/ansen-portfolio/internal/api/http"
	"github.com/Ansen-2255/ansen-portfolio/internal/bootstrap"
	"github.com/Ansen-2255/ansen-portfolio/internal/db"
	"github.com/Ansen-2255/ansen-portfolio/internal/drafting"
	drafthttp "github.com/Ansen-2255/ansen-portfolio/internal/drafting/http"
	"github.com/Ansen-2255/ansen-portfolio/internal/identity"
	"github.com/Ansen-2255/ansen-portfolio/internal/logging"
	"github.com/Ansen-2255/ansen-portfolio/internal/portfolio"
	"github.com/Ansen-2255/ansen-portfolio/internal/projects/feed"
	"github.com/Ansen-2255/ansen-portfolio/internal/projects/repository"
	"github.com/Ansen-2255/ansen-portfolio/internal/projects/service"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "portfolio: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	logger, err := logging.Init(cfg.App.LogLevel, cfg.App.LogFormat)
	if err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	bootstrap.SetGinMode(cfg.App.Environment)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	store, sqlDB, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	if sqlDB != nil {
		defer sqlDB.Close()
	}

	changes, feedPing, closeFeed := openFeed(ctx, cfg, logger)
	defer closeFeed()

	svc := service.NewProjectService(store, changes)
	views := service.NewRegistry(svc, service.Options{CreateDebounce: cfg.Projects.CreateDebounce}, cfg.Projects.ViewIdleTTL)

	var seeder *portfolio.Seeder
	if cfg.Projects.SeedEnabled && svc.Ready() {
		seeder = portfolio.NewSeeder(svc, cfg.Projects.SeedDelay)
		seeder.OnSeeded = func(string) {
			rctx, rcancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer rcancel()
			views.ResyncAll(rctx)
		}
	}

	drafts, err := openDrafter(ctx, cfg, logger)
	if err != nil {
		return err
	}

	if cfg.Identity.OwnerID == "" {
		logger.Warn("OWNER_ID is not set, manager mode is unavailable")
	}

	router := bootstrap.BuildRouter(bootstrap.RouterDeps{
		ServiceName: cfg.App.ID,
		Version:     cfg.App.Version,
		DB:          sqlDB,
		FeedPing:    feedPing,
		Identity: identity.CookieOptions{
			Name:   cfg.Identity.CookieName,
			MaxAge: cfg.Identity.CookieMaxAge,
			Secure: cfg.Identity.CookieSecure,
		},
		OwnerID:     cfg.Identity.OwnerID,
		CORSOrigins: cfg.Server.CORSOrigins,
		Views:       views,
		Seeder:      seeder,
		Profiles:    portfolio.NewProfileStore(),
		Drafts:      drafthttp.New(drafts, cfg.Drafting.RatePerMinute),
	})

	scheduler := bootstrap.NewScheduler()
	if err := scheduler.Start(cfg.Projects.ResyncSchedule, views); err != nil {
		return fmt.Errorf("scheduler: %w", err)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
		// request contexts end on shutdown so event streams return
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	go func() {
		<-ctx.Done()
		logger.Info("shutting down")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("listening", zap.String("addr", srv.Addr), zap.String("env", cfg.App.Environment))
	err = srv.ListenAndServe()

	scheduler.Stop()
	if seeder != nil {
		seeder.Close()
	}
	views.Close()

	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server: %w", err)
	}
	return nil
}

// openStore returns a nil store when the data service is not configured;
// every data operation then fails with the not-ready error.
func openStore(ctx context.Context, cfg *config.Config) (service.Store, *sql.DB, error) {
	if !cfg.DataService.Ready() {
		zap.L().Warn("DATA_SERVICE_URL or DATA_SERVICE_KEY missing, data operations are disabled")
		return nil, nil, nil
	}

	dsn, err := cfg.DataService.DSN()
	if err != nil {
		return nil, nil, err
	}
	sqlDB, err := bootstrap.OpenDB(ctx, bootstrap.DBOptions{DSN: dsn, MaxConns: cfg.DataService.MaxConns})
	if err != nil {
		return nil, nil, err
	}
	if cfg.DataService.Migrate {
		if err := db.RunMigrations(ctx, sqlDB); err != nil {
			_ = sqlDB.Close()
			return nil, nil, err
		}
	}
	return repository.NewProjectRepository(sqlDB), sqlDB, nil
}

// openFeed connects the configured change feed. A feed that cannot be
// reached is logged and skipped; views then rely on their own writes and
// the periodic resync.
func openFeed(ctx context.Context, cfg *config.Config, logger *zap.Logger) (feed.Feed, httpapi.Pinger, func()) {
	noop := func() {}

	switch cfg.Feed.Driver {
	case config.FeedRedis:
		client, err := bootstrap.OpenRedis(ctx, cfg.Feed.RedisURL)
		if err != nil {
			logger.Warn("change feed unavailable", zap.String("driver", cfg.Feed.Driver), zap.Error(err))
			return nil, nil, noop
		}
		ping := func(ctx context.Context) error { return client.Ping(ctx).Err() }
		return feed.NewRedisFeed(client), ping, func() { _ = client.Close() }

	case config.FeedPostgres:
		if !cfg.DataService.Ready() {
			return nil, nil, noop
		}
		dsn, _ := cfg.DataService.DSN()
		pool, err := bootstrap.OpenPool(ctx, bootstrap.DBOptions{DSN: dsn, MaxConns: cfg.DataService.MaxConns})
		if err != nil {
			logger.Warn("change feed unavailable", zap.String("driver", cfg.Feed.Driver), zap.Error(err))
			return nil, nil, noop
		}
		return feed.NewPostgresFeed(pool), pool.Ping, pool.Close
	}
	return nil, nil, noop
}

func openDrafter(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*drafting.Drafter, error) {
	if cfg.Drafting.APIKey == "" {
		logger.Info("GENAI_API_KEY not set, description drafting disabled")
		return nil, nil
	}
	gen, err := drafting.NewGenAIGenerator(ctx, drafting.GenAIConfig{
		APIKey:  cfg.Drafting.APIKey,
		Model:   cfg.Drafting.Model,
		BaseURL: cfg.Drafting.BaseURL,
	})
	if err != nil {
		return nil, fmt.Errorf("drafting: %w", err)
	}
	policy := drafting.DefaultRetryPolicy()
	policy.MaxAttempts = cfg.Drafting.MaxAttempts
	policy.BaseDelay = cfg.Drafting.BaseDelay
	return drafting.NewDrafter(gen, policy), nil
}
