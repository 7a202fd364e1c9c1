package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"go.uber.org/zap"

	"github.com/eugenenazirov/load-planner/internal/application"
	"github.com/eugenenazirov/load-planner/internal/config"
	"github.com/eugenenazirov/load-planner/internal/logging"
)

var signalNotify = signal.Notify

func main() {
	kingpinApp := kingpin.New("load-planner", "Load Planner - packs shipments into containers and reports utilization")
	configFile := kingpinApp.Flag("config", "Path to YAML configuration file").String()
	port := kingpinApp.Flag("port", "HTTP port exposed by the service").String()
	logLevel := kingpinApp.Flag("log-level", "Log level (debug, info, warn, error)").String()
	catalogFile := kingpinApp.Flag("catalog", "Path to a YAML or TOML catalog file").String()
	storageBackend := kingpinApp.Flag("storage", "Calculation history backend").Enum(config.StorageMemory, config.StorageMongo)
	mongoURI := kingpinApp.Flag("mongo-uri", "MongoDB connection URI").String()
	cacheBackend := kingpinApp.Flag("cache", "Preview cache backend").Enum(config.CacheNone, config.CacheMemory, config.CacheRedis)
	redisAddr := kingpinApp.Flag("redis-addr", "Redis address for the preview cache").String()
	maxUnits := kingpinApp.Flag("max-units", "Maximum units per calculation (set 0 to disable)").Default("-1").Int()
	rateLimitRPSFlag := kingpinApp.Flag("rate-limit-rps", "Requests per second allowed (set 0 to disable)").Default("-1").Float64()
	rateLimitBurstFlag := kingpinApp.Flag("rate-limit-burst", "Burst capacity for rate limiter (set 0 to disable)").Default("-1").Int()

	kingpin.MustParse(kingpinApp.Parse(os.Args[1:]))

	overrides := &config.CLIOverrides{
		ConfigFile:     *configFile,
		Port:           port,
		LogLevel:       logLevel,
		CatalogFile:    catalogFile,
		StorageBackend: storageBackend,
		MongoURI:       mongoURI,
		CacheBackend:   cacheBackend,
		RedisAddr:      redisAddr,
	}

	if *maxUnits >= 0 {
		overrides.MaxUnits = maxUnits
	}

	if *rateLimitRPSFlag >= 0 {
		overrides.RateLimitRPS = rateLimitRPSFlag
	}

	if *rateLimitBurstFlag >= 0 {
		overrides.RateLimitBurst = rateLimitBurstFlag
	}

	cfg, err := config.Load(overrides)
	if err != nil {
		panic(fmt.Sprintf("failed to load configuration: %v", err))
	}

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
	defer func() {
		_ = logger.Sync()
	}()

	app, err := application.New(cfg, logger)
	if err != nil {
		logger.Fatal("failed to initialize application", zap.Error(err))
	}

	if err := app.Start(); err != nil {
		logger.Fatal("failed to start server", zap.Error(err))
	}

	shutdown(app.Server(), cfg.ShutdownGracePeriod, logger, app.Close)
}

func shutdown(server *http.Server, timeout time.Duration, logger *zap.Logger, cleanup func(context.Context) error) {
	quit := make(chan os.Signal, 1)
	signalNotify(quit, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	<-quit
	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Warn("graceful shutdown failed", zap.Error(err))
		if closeErr := server.Close(); closeErr != nil {
			logger.Error("forced close failed", zap.Error(closeErr))
		}
	}

	if cleanup != nil {
		if err := cleanup(ctx); err != nil {
			logger.Warn("releasing resources failed", zap.Error(err))
		}
	}
}
