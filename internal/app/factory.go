package app

import (
	"context"
	"fmt"
	"io"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/Taichi-iskw/ytshelf/internal/config"
	"github.com/Taichi-iskw/ytshelf/internal/logging"
	"github.com/Taichi-iskw/ytshelf/internal/repository/catalog"
	"github.com/Taichi-iskw/ytshelf/internal/repository/download"
	libraryrepo "github.com/Taichi-iskw/ytshelf/internal/repository/library"
	"github.com/Taichi-iskw/ytshelf/internal/service/audio"
	"github.com/Taichi-iskw/ytshelf/internal/service/bulk"
	"github.com/Taichi-iskw/ytshelf/internal/service/extraction"
	"github.com/Taichi-iskw/ytshelf/internal/service/library"
	"github.com/Taichi-iskw/ytshelf/internal/service/progress"
	"github.com/Taichi-iskw/ytshelf/internal/service/search"
	"github.com/Taichi-iskw/ytshelf/internal/service/youtube"
)

// Services holds every wired component of the application
type Services struct {
	Config    *config.Config
	Log       zerolog.Logger
	Pool      *pgxpool.Pool
	Redis     *redis.Client
	Extractor extraction.Extractor
	Library   *library.Synchronizer
	Search    *search.Aggregator
	Bulk      *bulk.Executor
	Progress  progress.Store
}

// ServiceFactory creates application service instances
type ServiceFactory struct {
	logOut io.Writer
	log    zerolog.Logger
}

// NewServiceFactory creates a new service factory. Logs are written to
// logOut (stderr when nil) at the configured level and format.
func NewServiceFactory(logOut io.Writer) *ServiceFactory {
	return &ServiceFactory{logOut: logOut, log: zerolog.Nop()}
}

// LoadConfig loads the config file, falling back to environment-only
// configuration when the caller does not need the database
func (f *ServiceFactory) LoadConfig(needDatabase bool) (*config.Config, error) {
	cfg, err := config.NewConfig()
	if err == nil {
		return cfg, nil
	}
	if needDatabase {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	cfg = config.FromEnv()
	if verr := cfg.Validate(); verr != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", verr)
	}
	return cfg, nil
}

// CreateServices builds the full component graph. Without needDatabase no
// pool is opened and the library synchronizer is nil; search then runs
// without library exclusion.
func (f *ServiceFactory) CreateServices(ctx context.Context, needDatabase bool) (*Services, func(), error) {
	cfg, err := f.LoadConfig(needDatabase)
	if err != nil {
		return nil, nil, err
	}

	f.log = logging.New(cfg.LogLevel, cfg.LogFormat, f.logOut)
	svc := &Services{Config: cfg, Log: f.log}
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	svc.Extractor = extraction.NewExtractor(extraction.Settings{
		ToolPath:        cfg.Extraction.ToolPath,
		VideoTimeout:    cfg.Extraction.VideoTimeout,
		SearchTimeout:   cfg.Extraction.SearchTimeout,
		PlaylistTimeout: cfg.Extraction.PlaylistTimeout,
		RatePerSecond:   cfg.Extraction.RatePerSecond,
		Burst:           cfg.Extraction.Burst,
	}, f.log)

	if needDatabase {
		pool, err := config.NewDatabasePool(ctx, cfg)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		closers = append(closers, func() { config.CloseDatabasePool(pool) })
		svc.Pool = pool

		encoder := audio.NewEncoder(audio.Settings{
			ToolPath:      cfg.Extraction.ToolPath,
			OutputDir:     cfg.Audio.OutputDir,
			PublicBaseURL: cfg.Audio.PublicBaseURL,
			Format:        cfg.Audio.Format,
			Quality:       cfg.Audio.Quality,
			Timeout:       cfg.Audio.Timeout,
		}, f.log)

		svc.Library = library.NewSynchronizer(
			catalog.NewRepository(pool),
			libraryrepo.NewRepository(pool),
			download.NewRepository(pool),
			f.log,
			library.WithEncoder(encoder, cfg.Audio.RetainFor),
		)
	}

	provider, providerErr := f.createProvider(ctx, cfg, svc.Extractor)
	var index search.LibraryIndex
	if svc.Library != nil {
		index = svc.Library
	}
	svc.Search = search.NewAggregator(provider, providerErr, svc.Extractor, index, search.Settings{
		PlaylistLimit: cfg.Extraction.PlaylistLimit,
		SearchLimit:   cfg.Extraction.SearchLimit,
	}, f.log)

	client, err := config.NewRedisClient(ctx, cfg)
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	if client != nil {
		closers = append(closers, func() { client.Close() })
		svc.Redis = client
		svc.Progress = progress.NewRedisStore(client, cfg.Progress.TTL)
	} else {
		svc.Progress = progress.NewMemoryStore(cfg.Progress.TTL)
	}
	svc.Bulk = bulk.NewExecutor(svc.Progress, f.log)

	return svc, cleanup, nil
}

func (f *ServiceFactory) createProvider(ctx context.Context, cfg *config.Config, extractor extraction.Extractor) (youtube.VideoProvider, error) {
	if cfg.Search.Provider == config.ProviderYtDlp {
		return youtube.NewExtractorProvider(extractor), nil
	}
	provider, err := youtube.NewAPIProvider(ctx, cfg.YouTubeAPIKey, f.log)
	if err != nil {
		// playlists still work through the extractor
		f.log.Warn().Err(err).Msg("app: YouTube Data API provider unavailable")
		return nil, err
	}
	return provider, nil
}
