package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cloud.google.com/go/firestore"
	"cloud.google.com/go/storage"
	"github.com/rs/zerolog"
	"google.golang.org/api/option"

	"github.com/coachastral/astro-daily/pkg/astrology"
	"github.com/coachastral/astro-daily/pkg/content"
	"github.com/coachastral/astro-daily/pkg/dailycache"
	"github.com/coachastral/astro-daily/pkg/microservice"
	"github.com/coachastral/astro-daily/pkg/rewrite"
)

func main() {
	configPath := flag.String("config", "", "path to optional YAML config file")
	flag.Parse()

	logger := zerolog.New(os.Stderr).With().Timestamp().Logger()

	if err := run(*configPath, logger); err != nil {
		logger.Fatal().Err(err).Msg("Service failed.")
	}
}

func run(configPath string, logger zerolog.Logger) error {
	cfg, err := LoadConfig(configPath)
	if err != nil {
		return err
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	logger = logger.Level(level)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	clock, err := content.NewClock(cfg.TZName)
	if err != nil {
		return err
	}

	astroClient, err := astrology.NewClient(&astrology.Config{
		BaseURL: cfg.Astro.BaseURL,
		UserID:  cfg.Astro.UserID,
		APIKey:  cfg.Astro.APIKey,
	}, logger)
	if err != nil {
		return err
	}
	defer func() {
		_ = astroClient.Close()
	}()

	rewriter, err := rewrite.NewRewriter(&rewrite.Config{
		APIKey: cfg.OpenAI.APIKey,
		Model:  cfg.OpenAI.Model,
	}, logger)
	if err != nil {
		return err
	}

	deps, err := newCacheDeps(ctx, cfg)
	if err != nil {
		return err
	}
	defer deps.close(logger)

	caches, err := buildCaches(ctx, cfg, deps, logger)
	if err != nil {
		return err
	}

	service, err := content.NewService(content.Config{
		Workers:         cfg.Workers,
		TZHoursOverride: cfg.HoroTZ,
		Lat:             cfg.Lat,
		Lon:             cfg.Lon,
		HouseType:       cfg.HouseType,
	}, clock, astroClient, rewriter, caches, logger)
	if err != nil {
		return err
	}

	server := microservice.NewBaseServer(logger, cfg.HTTPPort)
	microservice.NewAPI(service, clock, logger).Register(server.Mux())

	if err := server.Start(); err != nil {
		return err
	}
	logger.Info().Str("port", server.GetHTTPPort()).Str("cache_backend", cfg.Cache.Backend).Msg("astro-daily started.")

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// cacheDeps holds the shared clients for the cloud cache backends.
type cacheDeps struct {
	fsClient  *firestore.Client
	gcsClient dailycache.GCSClient
	rawGCS    *storage.Client
}

func newCacheDeps(ctx context.Context, cfg *Config) (*cacheDeps, error) {
	deps := &cacheDeps{}

	var opts []option.ClientOption
	if cfg.Cache.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.Cache.CredentialsFile))
	}

	switch cfg.Cache.Backend {
	case "firestore":
		if cfg.Cache.ProjectID == "" {
			return nil, fmt.Errorf("firestore cache backend requires a project id")
		}
		client, err := firestore.NewClient(ctx, cfg.Cache.ProjectID, opts...)
		if err != nil {
			return nil, fmt.Errorf("failed to create firestore client: %w", err)
		}
		deps.fsClient = client
	case "gcs":
		client, err := storage.NewClient(ctx, opts...)
		if err != nil {
			return nil, fmt.Errorf("failed to create storage client: %w", err)
		}
		deps.rawGCS = client
		deps.gcsClient = dailycache.NewGCSClientAdapter(client)
	}
	return deps, nil
}

func (d *cacheDeps) close(logger zerolog.Logger) {
	if d.fsClient != nil {
		if err := d.fsClient.Close(); err != nil {
			logger.Warn().Err(err).Msg("Error closing firestore client.")
		}
	}
	if d.rawGCS != nil {
		if err := d.rawGCS.Close(); err != nil {
			logger.Warn().Err(err).Msg("Error closing storage client.")
		}
	}
}

func buildCaches(ctx context.Context, cfg *Config, deps *cacheDeps, logger zerolog.Logger) (content.Caches, error) {
	horoscopes, err := newCache[content.DailyHoroscope](ctx, cfg, deps, logger)
	if err != nil {
		return content.Caches{}, err
	}
	detailed, err := newCache[content.DailyHoroscope](ctx, cfg, deps, logger)
	if err != nil {
		return content.Caches{}, err
	}
	tarot, err := newCache[content.TarotResult](ctx, cfg, deps, logger)
	if err != nil {
		return content.Caches{}, err
	}
	moon, err := newCache[content.MoonReport](ctx, cfg, deps, logger)
	if err != nil {
		return content.Caches{}, err
	}
	articles, err := newCache[content.DailyArticle](ctx, cfg, deps, logger)
	if err != nil {
		return content.Caches{}, err
	}
	return content.Caches{
		Horoscopes: horoscopes,
		Detailed:   detailed,
		Tarot:      tarot,
		Moon:       moon,
		Articles:   articles,
	}, nil
}

// newCache constructs one typed day cache on the configured backend. The
// composite keys already carry the content kind, so all kinds can share a
// directory, database or collection.
func newCache[V any](ctx context.Context, cfg *Config, deps *cacheDeps, logger zerolog.Logger) (dailycache.Cache[V], error) {
	switch cfg.Cache.Backend {
	case "memory":
		return dailycache.NewInMemoryCache[V](), nil
	case "file":
		return dailycache.NewFileCache[V](cfg.Cache.Dir, logger)
	case "redis":
		return dailycache.NewRedisCache[V](ctx, &dailycache.RedisConfig{
			Addr:     cfg.Cache.RedisAddr,
			Password: cfg.Cache.RedisPassword,
			DB:       cfg.Cache.RedisDB,
		}, logger)
	case "firestore":
		return dailycache.NewFirestoreCache[V](&dailycache.FirestoreConfig{
			ProjectID:      cfg.Cache.ProjectID,
			CollectionName: cfg.Cache.Collection,
		}, deps.fsClient, logger)
	case "gcs":
		return dailycache.NewGCSCache[V](deps.gcsClient, dailycache.GCSCacheConfig{
			BucketName:   cfg.Cache.Bucket,
			ObjectPrefix: cfg.Cache.ObjectPrefix,
		}, logger)
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Cache.Backend)
	}
}
