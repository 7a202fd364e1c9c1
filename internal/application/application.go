package application

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/eugenenazirov/load-planner/internal/api"
	"github.com/eugenenazirov/load-planner/internal/cache"
	"github.com/eugenenazirov/load-planner/internal/calculation"
	"github.com/eugenenazirov/load-planner/internal/catalog"
	"github.com/eugenenazirov/load-planner/internal/config"
	"github.com/eugenenazirov/load-planner/internal/storage"
)

const connectTimeout = 10 * time.Second

// App encapsulates the application dependencies and HTTP server.
type App struct {
	catalog catalog.Catalog
	store   calculation.Store
	cache   cache.Cache
	service *calculation.Service
	handler *api.Handler
	router  http.Handler
	logger  *zap.Logger
	server  *http.Server

	closers []func(context.Context) error
}

// New initializes the application with all dependencies from the provided configuration.
func New(cfg config.Config, logger *zap.Logger) (*App, error) {
	app := &App{logger: logger}

	cat, err := openCatalog(cfg.CatalogFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}
	app.catalog = cat

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	if err := app.openStore(ctx, cfg); err != nil {
		return nil, err
	}
	if err := app.openCache(ctx, cfg); err != nil {
		_ = app.Close(context.Background())
		return nil, err
	}

	calc := calculation.NewCalculator(cat, calculation.WithLookupConcurrency(cfg.LookupConcurrency))
	app.service = calculation.NewService(calc, app.store, app.cache, logger, calculation.ServiceConfig{
		MaxUnits: cfg.MaxUnits,
		CacheTTL: cfg.CacheTTL,
	})

	app.handler = api.NewHandler(app.service, cat, api.WithHandlerLogger(logger))
	app.router = api.NewRouter(app.handler, logger,
		api.WithLogging(cfg.EnableRequestLogging),
		api.WithRateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst),
	)
	app.server = NewServer(cfg, BuildRootHandler(app.router))

	logger.Info("application initialised",
		zap.String("storage", cfg.StorageBackend),
		zap.String("cache", cfg.CacheBackend),
		zap.String("catalog", catalogSource(cfg.CatalogFile)),
		zap.Int("max_units", cfg.MaxUnits),
	)
	return app, nil
}

func openCatalog(path string) (*catalog.MemoryCatalog, error) {
	if path == "" {
		return catalog.NewMemoryCatalog(), nil
	}

	if !filepath.IsAbs(path) {
		if _, err := os.Stat(path); err != nil {
			resolved, resolveErr := resolveProjectPath(path)
			if resolveErr != nil {
				return nil, resolveErr
			}
			path = resolved
		}
	}
	return catalog.NewMemoryCatalogFromFile(path)
}

func catalogSource(path string) string {
	if path == "" {
		return "built-in"
	}
	return path
}

func (a *App) openStore(ctx context.Context, cfg config.Config) error {
	switch cfg.StorageBackend {
	case config.StorageMongo:
		store, err := storage.NewMongoStorage(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return fmt.Errorf("failed to open mongo storage: %w", err)
		}
		a.store = store
		a.closers = append(a.closers, store.Close)
	default:
		a.store = storage.NewMemoryStorage()
	}
	return nil
}

func (a *App) openCache(ctx context.Context, cfg config.Config) error {
	switch cfg.CacheBackend {
	case config.CacheRedis:
		c, err := cache.NewRedisCache(ctx, cache.RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			Prefix:   "load-planner:",
		})
		if err != nil {
			return fmt.Errorf("failed to open redis cache: %w", err)
		}
		a.cache = c
	case config.CacheNone:
		a.cache = cache.NewNullCache()
	default:
		a.cache = cache.NewMemoryCache()
	}
	a.closers = append(a.closers, func(context.Context) error { return a.cache.Close() })
	return nil
}

// BuildRootHandler constructs the root HTTP handler that routes API requests
// and answers the bare root with a short service description.
func BuildRootHandler(apiHandler http.Handler) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/api/", apiHandler)
	mux.Handle("/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"service":"load-planner","api":"/api"}` + "\n"))
	}))
	return mux
}

// NewServer creates and configures an HTTP server from the provided configuration.
func NewServer(cfg config.Config, handler http.Handler) *http.Server {
	addr := cfg.Port
	if !strings.Contains(addr, ":") {
		addr = ":" + addr
	}

	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
	}
}

// Start starts the HTTP server in a goroutine and logs the listening address.
func (a *App) Start() error {
	go func() {
		a.logger.Info("server listening", zap.String("addr", a.server.Addr))
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Fatal("server error", zap.Error(err))
		}
	}()
	return nil
}

// Server returns the HTTP server instance for shutdown handling.
func (a *App) Server() *http.Server {
	return a.server
}

// Handler returns the root HTTP handler.
func (a *App) Handler() http.Handler {
	return a.server.Handler
}

// Close releases storage and cache connections in reverse order of creation.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

// resolveProjectPath locates a file or directory relative to the project root by walking up the directory tree.
func resolveProjectPath(relative string) (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}

	for {
		candidate := filepath.Join(dir, relative)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return "", fmt.Errorf("unable to locate %s", relative)
}
