package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.opentelemetry.io/contrib/instrumentation/go.mongodb.org/mongo-driver/mongo/otelmongo"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	apihttp "curately/catalogservice/internal/api/http"
	"curately/catalogservice/internal/app"
	"curately/catalogservice/internal/credentials"
	"curately/catalogservice/internal/draft"
	"curately/catalogservice/internal/metrics"
	"curately/catalogservice/internal/providers/books"
	"curately/catalogservice/internal/providers/games"
	"curately/catalogservice/internal/providers/places"
	"curately/catalogservice/internal/providers/tmdb"
	"curately/catalogservice/internal/providers/users"
	"curately/catalogservice/internal/providers/video"
	mongorepo "curately/catalogservice/internal/repository/mongo"
	"curately/catalogservice/internal/search"
	"curately/catalogservice/internal/telemetry"
)

func main() {
	cfg := app.LoadConfig()
	logger := newLogger(cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logger)
	metrics.Register(prometheus.DefaultRegisterer)

	shutdownTracer, err := telemetry.Init(context.Background(), "catalog-service")
	if err != nil {
		logger.Warn("otel init failed", slog.String("error", err.Error()))
	}
	defer func() {
		if shutdownTracer != nil {
			_ = shutdownTracer(context.Background())
		}
	}()

	logger.Info("configuration loaded",
		slog.String("service", "catalog-service"),
		slog.String("httpAddr", cfg.HTTPAddr),
		slog.String("logLevel", cfg.LogLevel),
		slog.String("logFormat", cfg.LogFormat),
		slog.Duration("requestTimeout", cfg.RequestTimeout),
		slog.Bool("hasTMDBKey", cfg.TMDBAPIKey != ""),
		slog.Bool("hasGeoapifyKey", cfg.GeoapifyAPIKey != ""),
		slog.Bool("hasRAWGKey", cfg.RAWGAPIKey != ""),
		slog.Bool("hasGoogleBooksKey", cfg.GoogleBooksAPIKey != ""),
		slog.Bool("hasYouTubeKey", cfg.YouTubeAPIKey != ""),
		slog.Bool("hasRedis", strings.TrimSpace(cfg.RedisURL) != ""),
		slog.Bool("hasMongo", strings.TrimSpace(cfg.MongoURI) != ""),
		slog.Duration("cacheTTL", cfg.CacheTTL),
	)

	redisClient := buildRedisClient(cfg, logger)
	repo := buildRepository(cfg, logger)

	httpClient := func() *http.Client {
		return &http.Client{Timeout: cfg.RequestTimeout, Transport: otelhttp.NewTransport(http.DefaultTransport)}
	}

	tmdbProvider := tmdb.NewProvider(tmdb.Config{
		APIKey:    cfg.TMDBAPIKey,
		BaseURL:   cfg.TMDBBaseURL,
		UserAgent: cfg.UserAgent,
		Client:    httpClient(),
	})
	placesProvider := places.NewProvider(places.Config{
		APIKey:    cfg.GeoapifyAPIKey,
		BaseURL:   cfg.GeoapifyBaseURL,
		UserAgent: cfg.UserAgent,
		Client:    httpClient(),
	})
	gamesProvider := games.NewProvider(games.Config{
		APIKey:    cfg.RAWGAPIKey,
		BaseURL:   cfg.RAWGBaseURL,
		UserAgent: cfg.UserAgent,
		Client:    httpClient(),
	})
	booksProvider := books.NewProvider(books.Config{
		APIKey:    cfg.GoogleBooksAPIKey,
		BaseURL:   cfg.GoogleBooksURL,
		UserAgent: cfg.UserAgent,
		Client:    httpClient(),
	})
	videoProvider := video.NewProvider(video.Config{
		APIKey:    cfg.YouTubeAPIKey,
		BaseURL:   cfg.YouTubeBaseURL,
		UserAgent: cfg.UserAgent,
		Client:    httpClient(),
	})
	var directory users.Directory
	if repo != nil {
		directory = repo
	}
	usersProvider := users.NewProvider(users.Config{Directory: directory})

	searchService := search.NewService([]search.Provider{
		placesProvider,
		tmdbProvider,
		gamesProvider,
		booksProvider,
		videoProvider,
		usersProvider,
	}, cfg.RequestTimeout, buildServiceOptions(cfg, redisClient)...)

	credentialService := buildCredentialService(cfg, redisClient,
		tmdbProvider, placesProvider, gamesProvider, booksProvider, videoProvider)

	serverOpts := []apihttp.ServerOption{
		apihttp.WithLogger(logger),
		apihttp.WithDrafts(draft.NewManager()),
		apihttp.WithCredentials(credentialService),
	}
	if repo != nil {
		serverOpts = append(serverOpts, apihttp.WithListRepository(repo))
	}

	handler := apihttp.NewServer(searchService, serverOpts...).Handler()
	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	rootCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	logger.Info("catalog service started",
		slog.String("addr", cfg.HTTPAddr),
		slog.Duration("timeout", cfg.RequestTimeout),
	)

	select {
	case <-rootCtx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("shutdown error", slog.String("error", err.Error()))
	}
	logger.Info("catalog service stopped")
}

func newLogger(levelRaw, formatRaw string) *slog.Logger {
	level := parseLogLevel(levelRaw)
	options := &slog.HandlerOptions{Level: level}
	format := strings.ToLower(strings.TrimSpace(formatRaw))
	if format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, options))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, options))
}

func parseLogLevel(raw string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func buildRedisClient(cfg app.Config, logger *slog.Logger) *redis.Client {
	redisURL := strings.TrimSpace(cfg.RedisURL)
	if redisURL == "" {
		return nil
	}
	redisOpts, err := redis.ParseURL(redisURL)
	if err != nil {
		logger.Warn("invalid redis url, redis features disabled", slog.String("error", err.Error()))
		return nil
	}
	client := redis.NewClient(redisOpts)
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis not reachable, redis features disabled", slog.String("error", err.Error()))
		return nil
	}
	logger.Info("redis connected", slog.String("addr", redisOpts.Addr))
	return client
}

func buildRepository(cfg app.Config, logger *slog.Logger) *mongorepo.Repository {
	mongoURI := strings.TrimSpace(cfg.MongoURI)
	if mongoURI == "" {
		logger.Info("mongo not configured, list persistence disabled")
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongorepo.Connect(ctx, mongoURI,
		options.Client().SetMonitor(otelmongo.NewMonitor()))
	if err != nil {
		logger.Warn("mongo not reachable, list persistence disabled", slog.String("error", err.Error()))
		return nil
	}
	repo := mongorepo.NewRepository(client, cfg.MongoDatabase)
	if err := repo.EnsureIndexes(ctx); err != nil {
		logger.Warn("mongo index setup failed", slog.String("error", err.Error()))
	}
	logger.Info("mongo connected", slog.String("database", cfg.MongoDatabase))
	return repo
}

func buildServiceOptions(cfg app.Config, redisClient *redis.Client) []search.ServiceOption {
	var opts []search.ServiceOption

	if cfg.CacheDisabled {
		opts = append(opts, search.WithCacheDisabled(true))
		return opts
	}
	if cfg.CacheTTL > 0 {
		opts = append(opts, search.WithCacheTTL(cfg.CacheTTL))
	}
	if redisClient != nil {
		opts = append(opts, search.WithRedisCache(search.NewRedisCacheBackend(redisClient)))
	}
	return opts
}

type keyedProvider interface {
	Name() string
	SetAPIKey(key string)
}

func buildCredentialService(cfg app.Config, redisClient *redis.Client, providers ...keyedProvider) *credentials.Service {
	var store credentials.Store
	if redisClient != nil {
		store = credentials.NewRedisStore(redisClient, "")
	}
	service := credentials.NewService(store)
	envKeys := map[string]string{
		"tmdb":        cfg.TMDBAPIKey,
		"geoapify":    cfg.GeoapifyAPIKey,
		"rawg":        cfg.RAWGAPIKey,
		"googlebooks": cfg.GoogleBooksAPIKey,
		"youtube":     cfg.YouTubeAPIKey,
	}
	for _, provider := range providers {
		service.Register(provider.Name(), provider, envKeys[provider.Name()])
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	service.Restore(ctx)
	return service
}
