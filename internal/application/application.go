package application

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"aucwatch/internal/config"
	"aucwatch/internal/domain/service/identity"
	"aucwatch/internal/domain/service/snapshot"
	"aucwatch/internal/domain/value"
	"aucwatch/internal/infrastructure/cache"
	"aucwatch/internal/infrastructure/lostark"
	"aucwatch/internal/infrastructure/notifier"
	"aucwatch/internal/infrastructure/persistence"
	"aucwatch/internal/server"
	"aucwatch/internal/worker"
	"aucwatch/pkg/application/connectors"
	"aucwatch/pkg/application/modules"
	"aucwatch/pkg/logx"
	"aucwatch/pkg/middlewarex"
)

const (
	appName    = "aucwatch"
	appVersion = "1.0.0"

	httpReadHeaderTimeout = 5 * time.Second
)

func Run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config.Load: %w", err)
	}

	g, gCtx := errgroup.WithContext(ctx)

	// Connectors.
	postgres := &connectors.Postgres{
		DSN:             cfg.Postgres.DSN,
		MaxIdleConns:    cfg.Postgres.MaxIdleConns,
		MaxOpenConns:    cfg.Postgres.MaxOpenConns,
		ConnMaxLifetime: cfg.Postgres.ConnMaxLifetime,
	}
	db := postgres.Client(gCtx)
	defer postgres.Close(ctx)

	redis := &connectors.Redis{
		Address:            cfg.Redis.Address,
		Username:           cfg.Redis.Username,
		Password:           cfg.Redis.Password,
		DatabaseNumber:     cfg.Redis.DatabaseNumber,
		PoolSize:           cfg.Redis.PoolSize,
		MinIdleConnections: cfg.Redis.MinIdleConnections,
		MaxIdleConnections: cfg.Redis.MaxIdleConnections,
	}
	redisClient := redis.Client(gCtx)
	defer redis.Close(ctx)

	// Infrastructure.
	favoriteRepo := persistence.NewFavoriteRepository(db)
	historyRepo := persistence.NewPriceHistoryRepository(db)
	watchRepo := persistence.NewAutoWatchRepository(db)

	searchCache := cache.New(redisClient)
	searchClient := lostark.NewClient(cfg.Lostark)

	pushNotifier, err := notifier.NewTelegramNotifier(cfg.Bot.Token)
	if err != nil {
		return fmt.Errorf("notifier.NewTelegramNotifier: %w", err)
	}

	// Domain services.
	engine := identity.NewEngine(value.DefaultOptionTable())

	snapshots := snapshot.NewService(searchClient, historyRepo, searchCache, engine).
		WithMaxSearchPages(cfg.Collector.MaxSearchPages)

	// Collectors.
	snapshotCollector := worker.NewSnapshotCollector(favoriteRepo, snapshots, cfg.Collector.Concurrency)
	alertCollector := worker.NewAlertCollector(favoriteRepo, snapshots, pushNotifier, cfg.Collector.Concurrency)
	autoWatchCollector := worker.NewAutoWatchCollector(watchRepo, favoriteRepo, snapshots, cfg.Collector.AutoWatchWindow)

	// HTTP API.
	apiServer := server.NewServer(
		server.NewSearchServer(searchClient, searchCache, engine, watchRepo),
		server.NewHistoryServer(historyRepo),
	)

	masker := logx.NewSensitiveDataMasker()

	router := chi.NewRouter()
	router.Use(
		middlewarex.TraceID,
		middlewarex.Logger,
		middlewarex.Recovery,
		middlewarex.RequestLogging(masker, cfg.Server.LogFieldMaxLen),
		middlewarex.ResponseLogging(masker, cfg.Server.LogFieldMaxLen),
	)
	apiServer.RegisterRoutes(router)

	// Modules.
	modules.HTTPServer{
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	}.Run(gCtx, g, &http.Server{ //nolint:exhaustruct
		Addr:              cfg.Server.ListenAddress,
		Handler:           router,
		ReadHeaderTimeout: httpReadHeaderTimeout,
		BaseContext:       func(_ net.Listener) context.Context { return gCtx },
	})

	modules.ProbeServer{
		Name:          appName,
		Version:       appVersion,
		ListenAddress: cfg.Server.ProbeListenAddress,
	}.Run(gCtx, g)

	modules.MetricServer{
		ListenAddress: cfg.Server.MetricsListenAddress,
	}.Run(gCtx, g)

	modules.AsynqServer{
		RedisUsername: cfg.Redis.Username,
		RedisPassword: cfg.Redis.Password,
		RedisAddress:  cfg.Redis.Address,
		RedisDB:       cfg.Redis.DatabaseNumber,
	}.Run(gCtx, g,
		modules.AsynqQueues{"default": 1},
		worker.Handlers(snapshotCollector, alertCollector, autoWatchCollector)...,
	)

	modules.AsynqScheduler{
		RedisUsername: cfg.Redis.Username,
		RedisPassword: cfg.Redis.Password,
		RedisAddress:  cfg.Redis.Address,
		RedisDB:       cfg.Redis.DatabaseNumber,
	}.Run(gCtx, g,
		modules.AsynqPeriodicTask{Cronspec: cfg.Collector.SnapshotCron, Type: worker.TaskSnapshotCollect},
		modules.AsynqPeriodicTask{Cronspec: cfg.Collector.AlertCron, Type: worker.TaskAlertSweep},
		modules.AsynqPeriodicTask{Cronspec: cfg.Collector.AutoWatchCron, Type: worker.TaskAutoWatchSweep},
		modules.AsynqPeriodicTask{Cronspec: cfg.Collector.EvictionCron, Type: worker.TaskAutoWatchEvict},
	)

	return g.Wait()
}
