package youtube

import (
	"context"
	"time"

	apperrors "github.com/Taichi-iskw/ytshelf/internal/errors"
	"github.com/Taichi-iskw/ytshelf/internal/metadata"
	"github.com/Taichi-iskw/ytshelf/internal/model"
	"github.com/Taichi-iskw/ytshelf/internal/service/extraction"
)

// ExtractorProvider implements VideoProvider on top of the extraction tool,
// for deployments without an API key
type ExtractorProvider struct {
	extractor extraction.Extractor
	now       func() time.Time
}

// NewExtractorProvider creates a tool backed provider
func NewExtractorProvider(extractor extraction.Extractor) *ExtractorProvider {
	return &ExtractorProvider{extractor: extractor, now: time.Now}
}

func (p *ExtractorProvider) Name() string { return "ytdlp" }

func (p *ExtractorProvider) LookupVideo(ctx context.Context, videoURL string) (*model.VideoRecord, error) {
	id := ExtractVideoID(videoURL)
	if id == "" {
		return nil, apperrors.New(apperrors.CodeInvalidArg, "invalid YouTube video URL")
	}

	result, err := p.extractor.Extract(ctx, metadata.CanonicalVideoURL(id), extraction.Options{Mode: extraction.ModeSingleVideo})
	if err != nil {
		return nil, err
	}

	records := metadata.NormalizeAll(result.Records, metadata.SourceTool, p.now())
	if len(records) == 0 {
		return nil, apperrors.New(apperrors.CodeNotFound, "video not found")
	}
	return &records[0], nil
}

func (p *ExtractorProvider) SearchVideos(ctx context.Context, query string, limit int) ([]model.VideoRecord, error) {
	result, err := p.extractor.Extract(ctx, query, extraction.Options{Mode: extraction.ModeSearch, Limit: limit})
	if err != nil {
		return nil, err
	}
	return metadata.NormalizeAll(result.Records, metadata.SourceTool, p.now()), nil
}
