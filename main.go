package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"stadium-ticketing/cmd"
	"stadium-ticketing/internal/clock"
	"stadium-ticketing/internal/data/repository"
	"stadium-ticketing/internal/wire"
	"stadium-ticketing/migrations"
	"stadium-ticketing/pkg/cache"
	"stadium-ticketing/pkg/database"
	"stadium-ticketing/pkg/queue"
	"stadium-ticketing/pkg/utils"

	"github.com/spf13/pflag"
	"go.uber.org/zap"
)

func main() {
	migrateOnly := pflag.Bool("migrate", false, "apply database migrations and exit")
	worker := pflag.Bool("worker", false, "consume ticket events instead of serving HTTP")
	pflag.Parse()

	// Load config
	config, err := utils.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	logger, err := utils.InitLogger(config.App)
	if err != nil {
		log.Printf("Failed to init logger: %v. Using standard log.", err)
		logger, _ = zap.NewProduction()
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *worker {
		runWorker(ctx, config, logger)
		return
	}

	logger.Info("Starting application",
		zap.String("app", config.App.Name),
		zap.String("port", config.App.Port),
		zap.Bool("debug", config.App.Debug),
	)

	// Connect to database
	db, err := database.InitDB(config.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	logger.Info("Database connected successfully")

	if err := migrations.Apply(ctx, db.Pool(), logger); err != nil {
		logger.Fatal("Failed to apply migrations", zap.Error(err))
	}
	if *migrateOnly {
		return
	}

	infra := wire.Infra{
		DB:        db,
		Cache:     cache.NewNoop(),
		Publisher: queue.NewNoopPublisher(),
		Clock:     clock.NewSystem(),
	}

	if config.Redis.Enabled {
		rdb, err := cache.NewRedisClient(ctx, config.Redis)
		if err != nil {
			logger.Warn("Redis unavailable, running without cache and rate limit", zap.Error(err))
		} else {
			defer rdb.Close()
			infra.Cache = cache.NewRedisCache(rdb, config.Cache.TTL)
			infra.Redis = rdb
			logger.Info("Redis connected", zap.String("addr", config.Redis.Addr))
		}
	}

	if config.Queue.Enabled {
		publisher := queue.NewAMQPPublisher(config.Queue.URL, config.Queue.Name, logger)
		defer publisher.Close()
		infra.Publisher = publisher
	}

	// Initialize all repositories
	repos := repository.NewRepository(db, logger)

	// Wire all dependencies
	app := wire.Wiring(repos, infra, config, logger)

	if err := cmd.APIServer(ctx, app.Router, config.App.Port, logger); err != nil {
		logger.Error("HTTP server stopped", zap.Error(err))
		return
	}
	logger.Info("Server stopped")
}

func runWorker(ctx context.Context, config *utils.Config, logger *zap.Logger) {
	logger.Info("Starting ticket event worker", zap.String("queue", config.Queue.Name))

	consumer := queue.NewConsumer(config.Queue.URL, config.Queue.Name, logger)
	if err := cmd.Worker(ctx, consumer, logger); err != nil {
		logger.Error("Worker stopped", zap.Error(err))
		return
	}
	logger.Info("Worker stopped")
}
