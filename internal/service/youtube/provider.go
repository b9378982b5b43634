package youtube

import (
	"context"

	"github.com/Taichi-iskw/ytshelf/internal/model"
)

// VideoProvider resolves single videos and keyword searches into VideoRecords
type VideoProvider interface {
	Name() string
	LookupVideo(ctx context.Context, videoURL string) (*model.VideoRecord, error)
	SearchVideos(ctx context.Context, query string, limit int) ([]model.VideoRecord, error)
}
