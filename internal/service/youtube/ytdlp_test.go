package youtube

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	apperrors "github.com/Taichi-iskw/ytshelf/internal/errors"
	"github.com/Taichi-iskw/ytshelf/internal/metadata"
	"github.com/Taichi-iskw/ytshelf/internal/service/extraction"
)

type mockExtractor struct {
	mock.Mock
}

func (m *mockExtractor) Extract(ctx context.Context, target string, opts extraction.Options) (*extraction.Extraction, error) {
	args := m.Called(ctx, target, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*extraction.Extraction), args.Error(1)
}

func (m *mockExtractor) Available() error {
	return m.Called().Error(0)
}

func TestExtractorProvider_LookupVideo(t *testing.T) {
	ex := new(mockExtractor)
	duration := 75.0
	ex.On("Extract", mock.Anything, "https://www.youtube.com/watch?v=dQw4w9WgXcQ", extraction.Options{Mode: extraction.ModeSingleVideo}).
		Return(&extraction.Extraction{Records: []metadata.RawRecord{{ID: "dQw4w9WgXcQ", Title: "Song", Duration: &duration}}}, nil)

	p := NewExtractorProvider(ex)
	got, err := p.LookupVideo(context.Background(), "https://youtu.be/dQw4w9WgXcQ?si=share")

	require.NoError(t, err)
	assert.Equal(t, "dQw4w9WgXcQ", got.ExternalID)
	assert.Equal(t, "1:15", got.Duration)
	ex.AssertExpectations(t)
}

func TestExtractorProvider_SearchVideos(t *testing.T) {
	ex := new(mockExtractor)
	ex.On("Extract", mock.Anything, "lofi", extraction.Options{Mode: extraction.ModeSearch, Limit: 25}).
		Return(&extraction.Extraction{Records: []metadata.RawRecord{{ID: "a1"}, {ID: "a2", Title: "[Unavailable]"}}}, nil)

	p := NewExtractorProvider(ex)
	got, err := p.SearchVideos(context.Background(), "lofi", 25)

	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "a1", got[0].ExternalID)
}

func TestExtractorProvider_PropagatesToolErrors(t *testing.T) {
	ex := new(mockExtractor)
	ex.On("Extract", mock.Anything, "lofi", mock.Anything).
		Return(nil, apperrors.New(apperrors.CodeToolUnavailable, "yt-dlp missing"))

	_, err := NewExtractorProvider(ex).SearchVideos(context.Background(), "lofi", 25)
	assert.Equal(t, apperrors.CodeToolUnavailable, apperrors.CodeOf(err))
}
