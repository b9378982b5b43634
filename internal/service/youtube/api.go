package youtube

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	ytapi "google.golang.org/api/youtube/v3"

	apperrors "github.com/Taichi-iskw/ytshelf/internal/errors"
	"github.com/Taichi-iskw/ytshelf/internal/metadata"
	"github.com/Taichi-iskw/ytshelf/internal/model"
)

// musicCategoryID restricts keyword searches to the Music category
const musicCategoryID = "10"

// APIProvider implements VideoProvider using YouTube Data API v3
type APIProvider struct {
	service *ytapi.Service
	log     zerolog.Logger
	now     func() time.Time
}

// NewAPIProvider creates a Data API backed provider. Extra client options
// (an endpoint override in tests) are appended after the API key.
func NewAPIProvider(ctx context.Context, apiKey string, log zerolog.Logger, opts ...option.ClientOption) (*APIProvider, error) {
	if apiKey == "" {
		return nil, apperrors.New(apperrors.CodeConfiguration, "YouTube API key not configured")
	}

	service, err := ytapi.NewService(ctx, append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)...)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeConfiguration, "failed to create YouTube API client")
	}

	return &APIProvider{
		service: service,
		log:     log.With().Str("component", "youtube-api").Logger(),
		now:     time.Now,
	}, nil
}

func (p *APIProvider) Name() string { return "api" }

// LookupVideo fetches one video's snippet, duration and statistics
func (p *APIProvider) LookupVideo(ctx context.Context, videoURL string) (*model.VideoRecord, error) {
	id := ExtractVideoID(videoURL)
	if id == "" {
		return nil, apperrors.New(apperrors.CodeInvalidArg, "invalid YouTube video URL")
	}

	records, err := p.videoDetails(ctx, []string{id})
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, apperrors.New(apperrors.CodeNotFound, "video not found")
	}
	return &records[0], nil
}

// SearchVideos runs a relevance-ordered music search and then fetches full
// details for the hits, preserving search order
func (p *APIProvider) SearchVideos(ctx context.Context, query string, limit int) ([]model.VideoRecord, error) {
	if limit <= 0 || limit > 50 {
		limit = 25
	}

	resp, err := p.service.Search.List([]string{"snippet"}).
		Q(query).
		Type("video").
		Order("relevance").
		VideoCategoryId(musicCategoryID).
		MaxResults(int64(limit)).
		Context(ctx).
		Do()
	if err != nil {
		p.log.Error().Err(err).Str("query", query).Msg("youtube-api: search failed")
		return nil, classifyAPIError(err, "YouTube search failed")
	}

	ids := make([]string, 0, len(resp.Items))
	for _, item := range resp.Items {
		if item.Id != nil && item.Id.VideoId != "" {
			ids = append(ids, item.Id.VideoId)
		}
	}
	if len(ids) == 0 {
		return []model.VideoRecord{}, nil
	}

	return p.videoDetails(ctx, ids)
}

func (p *APIProvider) videoDetails(ctx context.Context, ids []string) ([]model.VideoRecord, error) {
	resp, err := p.service.Videos.List([]string{"snippet", "contentDetails", "statistics"}).
		Id(ids...).
		Context(ctx).
		Do()
	if err != nil {
		p.log.Error().Err(err).Strs("ids", ids).Msg("youtube-api: videos.list failed")
		return nil, classifyAPIError(err, "failed to get video info")
	}

	byID := make(map[string]*ytapi.Video, len(resp.Items))
	for _, v := range resp.Items {
		byID[v.Id] = v
	}

	now := p.now()
	records := make([]model.VideoRecord, 0, len(ids))
	for _, id := range ids {
		v, ok := byID[id]
		if !ok {
			continue
		}
		records = append(records, metadata.Normalize(rawFromAPI(v), metadata.SourceAPI, now))
	}
	return records, nil
}

func rawFromAPI(v *ytapi.Video) metadata.RawRecord {
	raw := metadata.RawRecord{ID: v.Id}
	if s := v.Snippet; s != nil {
		raw.Title = s.Title
		raw.Channel = s.ChannelTitle
		raw.PublishedAt = s.PublishedAt
		if t := s.Thumbnails; t != nil {
			for _, d := range []*ytapi.Thumbnail{t.Default, t.Medium, t.High, t.Standard, t.Maxres} {
				if d != nil {
					raw.Thumbnails = append(raw.Thumbnails, metadata.Thumbnail{URL: d.Url, Width: int(d.Width), Height: int(d.Height)})
				}
			}
		}
	}
	if c := v.ContentDetails; c != nil {
		raw.DurationISO = c.Duration
	}
	if st := v.Statistics; st != nil {
		views := int64(st.ViewCount)
		raw.ViewCount = &views
	}
	return raw
}

func classifyAPIError(err error, message string) error {
	var apiErr *googleapi.Error
	if !errors.As(err, &apiErr) {
		return apperrors.Wrap(err, apperrors.CodeExternal, message)
	}

	switch {
	case apiErr.Code == http.StatusBadRequest && strings.Contains(apiErr.Message, "API key"):
		return apperrors.Wrap(err, apperrors.CodeConfiguration, "YouTube API key is invalid")
	case apiErr.Code == http.StatusForbidden:
		return apperrors.Wrap(err, apperrors.CodeExternal, "YouTube API quota exceeded or access denied")
	case apiErr.Code == http.StatusNotFound:
		return apperrors.Wrap(err, apperrors.CodeNotFound, message)
	default:
		return apperrors.Wrap(err, apperrors.CodeExternal, message)
	}
}
