package search

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	apperrors "github.com/Taichi-iskw/ytshelf/internal/errors"
	"github.com/Taichi-iskw/ytshelf/internal/metadata"
	"github.com/Taichi-iskw/ytshelf/internal/model"
	"github.com/Taichi-iskw/ytshelf/internal/service/extraction"
	"github.com/Taichi-iskw/ytshelf/internal/service/youtube"
)

// LibraryIndex lists the external ids a user already saved
type LibraryIndex interface {
	LibraryExternalIDs(ctx context.Context, userID string) ([]string, error)
}

// Settings bounds result counts
type Settings struct {
	PlaylistLimit int
	SearchLimit   int
}

// Aggregator classifies queries, resolves them and filters out saved items
type Aggregator struct {
	provider    youtube.VideoProvider
	providerErr error
	extractor   extraction.Extractor
	library     LibraryIndex
	settings    Settings
	log         zerolog.Logger
	now         func() time.Time
}

// NewAggregator creates an Aggregator. providerErr is returned for video and
// text queries when provider is nil (no API key configured); playlist queries
// only need the extractor.
func NewAggregator(provider youtube.VideoProvider, providerErr error, extractor extraction.Extractor, library LibraryIndex, settings Settings, log zerolog.Logger) *Aggregator {
	if settings.PlaylistLimit <= 0 {
		settings.PlaylistLimit = 50
	}
	if settings.SearchLimit <= 0 {
		settings.SearchLimit = 25
	}
	if provider == nil && providerErr == nil {
		providerErr = apperrors.New(apperrors.CodeConfiguration, "no metadata provider configured")
	}
	return &Aggregator{
		provider:    provider,
		providerErr: providerErr,
		extractor:   extractor,
		library:     library,
		settings:    settings,
		log:         log.With().Str("component", "search").Logger(),
		now:         time.Now,
	}
}

// Search resolves query and, when userID is set, removes results already in
// that user's library. An empty result set is not an error.
func (a *Aggregator) Search(ctx context.Context, query, userID string) (*model.SearchResult, error) {
	query = Sanitize(query)
	if query == "" {
		return nil, apperrors.New(apperrors.CodeInvalidArg, "query is required")
	}

	class := Classify(query)

	var (
		result *model.SearchResult
		err    error
	)
	switch class.Kind {
	case model.SearchKindPlaylist:
		result, err = a.searchPlaylist(ctx, query, class.ID)
	case model.SearchKindVideo:
		result, err = a.searchVideo(ctx, query)
	default:
		result, err = a.searchText(ctx, query)
	}
	if err != nil {
		return nil, err
	}

	if userID != "" && a.library != nil {
		a.exclude(ctx, result, userID)
	}
	return result, nil
}

func (a *Aggregator) searchVideo(ctx context.Context, query string) (*model.SearchResult, error) {
	if a.provider == nil {
		return nil, a.providerErr
	}
	rec, err := a.provider.LookupVideo(ctx, query)
	if err != nil {
		return nil, err
	}
	return model.NewVideoResult(rec.SourceURL, []model.VideoRecord{*rec}), nil
}

func (a *Aggregator) searchText(ctx context.Context, query string) (*model.SearchResult, error) {
	if a.provider == nil {
		return nil, a.providerErr
	}
	records, err := a.provider.SearchVideos(ctx, query, a.settings.SearchLimit)
	if err != nil {
		return nil, err
	}
	if len(records) > a.settings.SearchLimit {
		records = records[:a.settings.SearchLimit]
	}
	return model.NewTextResult(query, a.settings.SearchLimit, records), nil
}

// searchPlaylist always goes through the extractor in flat mode since
// auto-generated mixes cannot be enumerated through the video API
func (a *Aggregator) searchPlaylist(ctx context.Context, query, playlistID string) (*model.SearchResult, error) {
	if a.extractor == nil {
		return nil, apperrors.New(apperrors.CodeConfiguration, "extraction tool not configured")
	}

	target := query
	if !strings.HasPrefix(target, "http://") && !strings.HasPrefix(target, "https://") {
		target = youtube.CanonicalPlaylistURL(playlistID)
	}

	extracted, err := a.extractor.Extract(ctx, target, extraction.Options{
		Mode:  extraction.ModeFlatPlaylist,
		Limit: a.settings.PlaylistLimit,
	})
	if err != nil {
		return nil, err
	}

	records := metadata.NormalizeAll(extracted.Records, metadata.SourceTool, a.now())
	if len(records) > a.settings.PlaylistLimit {
		records = records[:a.settings.PlaylistLimit]
	}

	info := model.PlaylistInfo{ID: playlistID, Title: "Unknown Playlist", VideoCount: len(records)}
	if h := extracted.Playlist; h != nil {
		if h.Title != "" {
			info.Title = h.Title
		}
		info.Channel = metadata.FirstNonEmpty(h.Uploader, h.Channel)
		if h.PlaylistCount != nil && *h.PlaylistCount > 0 {
			info.VideoCount = *h.PlaylistCount
		}
		if h.ID != "" {
			info.ID = h.ID
		}
	}

	return model.NewPlaylistResult(info, records), nil
}

// exclude is best-effort: a failed lookup leaves results unfiltered
func (a *Aggregator) exclude(ctx context.Context, result *model.SearchResult, userID string) {
	ids, err := a.library.LibraryExternalIDs(ctx, userID)
	if err != nil {
		a.log.Warn().Err(err).Str("user_id", userID).Msg("search: library exclusion unavailable, returning unfiltered results")
		return
	}
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	result.Exclude(set)
}
