package download

import (
	"context"

	"github.com/Taichi-iskw/ytshelf/internal/model"
)

// Artifact describes a produced audio file
type Artifact struct {
	URL           string
	FileSizeBytes int64
}

// Repository defines per-user download record operations
type Repository interface {
	Find(ctx context.Context, userID, songID string) (*model.DownloadRecord, error)
	// Insert records a download marker; a concurrent duplicate yields a CONFLICT error
	Insert(ctx context.Context, userID, songID string) (*model.DownloadRecord, error)
	// Upsert stores artifact details, creating the record when missing. The bool
	// reports whether a new row was created.
	Upsert(ctx context.Context, userID, songID string, artifact Artifact) (*model.DownloadRecord, bool, error)
	// Delete removes records addressed either by their own id or by the id of
	// the library reference for the same song
	Delete(ctx context.Context, userID string, ids []string) (int64, error)
	DeleteBySongIDs(ctx context.Context, userID string, songIDs []string) (int64, error)
	List(ctx context.Context, userID string, limit, offset int) ([]*model.DownloadItem, error)
}
