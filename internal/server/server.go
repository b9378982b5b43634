package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/Taichi-iskw/ytshelf/internal/model"
	"github.com/Taichi-iskw/ytshelf/internal/service/audio"
	"github.com/Taichi-iskw/ytshelf/internal/service/bulk"
	"github.com/Taichi-iskw/ytshelf/internal/service/progress"
)

// Searcher resolves search queries
type Searcher interface {
	Search(ctx context.Context, query, userID string) (*model.SearchResult, error)
}

// Library is the synchronizer surface exposed over HTTP
type Library interface {
	bulk.Library
	Add(ctx context.Context, userID string, records []model.VideoRecord) (*model.AddResult, error)
	ListLibrary(ctx context.Context, userID string, limit, offset int) ([]*model.LibraryItem, error)
	ListDownloads(ctx context.Context, userID string, limit, offset int) ([]*model.DownloadItem, error)
	LibraryExternalIDs(ctx context.Context, userID string) ([]string, error)
	CleanupArtifacts(ctx context.Context) (*audio.CleanupResult, error)
}

// Dependencies wires the services behind the routes
type Dependencies struct {
	Search   Searcher
	Library  Library
	Bulk     *bulk.Executor
	Progress progress.Store
	// Health reports datastore reachability; nil means always healthy
	Health func(ctx context.Context) error
}

// Settings configures the HTTP server
type Settings struct {
	ListenAddr    string
	RatePerSecond float64
	Burst         int
	// StaticDir, when set, is served under StaticPrefix (audio artifacts)
	StaticDir    string
	StaticPrefix string
}

// Server is the HTTP API
type Server struct {
	engine   *gin.Engine
	deps     Dependencies
	settings Settings
	log      zerolog.Logger
}

// New builds the gin engine and registers every route
func New(deps Dependencies, settings Settings, log zerolog.Logger) *Server {
	if settings.ListenAddr == "" {
		settings.ListenAddr = ":8080"
	}

	s := &Server{
		engine:   gin.New(),
		deps:     deps,
		settings: settings,
		log:      log.With().Str("component", "server").Logger(),
	}

	s.engine.Use(gin.Recovery(), requestLogger(s.log))
	s.routes()
	return s
}

func (s *Server) routes() {
	s.engine.GET("/healthz", s.handleHealth)

	if s.settings.StaticDir != "" {
		prefix := s.settings.StaticPrefix
		if prefix == "" {
			prefix = "/downloads"
		}
		s.engine.Static(prefix, s.settings.StaticDir)
	}

	api := s.engine.Group("/api")
	if s.settings.RatePerSecond > 0 {
		burst := s.settings.Burst
		if burst < 1 {
			burst = 1
		}
		api.Use(rateLimit(rate.NewLimiter(rate.Limit(s.settings.RatePerSecond), burst)))
	}

	api.POST("/search", s.handleSearch)

	api.GET("/library", s.handleListLibrary)
	api.GET("/library/video-ids", s.handleLibraryVideoIDs)
	api.POST("/library/add", s.handleAdd)
	api.POST("/library/download", s.handleDownload)
	api.POST("/library/delete", s.handleRemove)

	api.GET("/downloads", s.handleListDownloads)
	api.POST("/downloads/delete", s.handleDeleteDownload)
	api.POST("/user/delete-song", s.handleDeleteCompletely)

	api.POST("/download-mp3", s.handleMaterialize)
	api.POST("/cleanup-downloads", s.handleCleanup)

	api.POST("/bulk/:operation", s.handleBulk)
	api.GET("/progress/:sessionId", s.handleProgress)
}

// Handler exposes the engine for tests and embedding
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves until ctx is canceled, then shuts down gracefully
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.settings.ListenAddr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", s.settings.ListenAddr).Msg("server: listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.log.Info().Msg("server: shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
