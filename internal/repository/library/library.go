package library

import (
	"context"

	"github.com/Taichi-iskw/ytshelf/internal/model"
)

// Repository defines per-user library reference operations. Every method is
// scoped by user id.
type Repository interface {
	// Find returns the reference for (userID, songID) or a NOT_FOUND error
	Find(ctx context.Context, userID, songID string) (*model.LibraryReference, error)
	// Insert creates a reference; a concurrent duplicate yields a CONFLICT error
	Insert(ctx context.Context, userID, songID string) (*model.LibraryReference, error)
	GetByID(ctx context.Context, userID, id string) (*model.LibraryReference, error)
	// Delete removes references by id and reports how many existed
	Delete(ctx context.Context, userID string, ids []string) (int64, error)
	DeleteBySongIDs(ctx context.Context, userID string, songIDs []string) (int64, error)
	// ResolveSongIDs maps library reference ids and download record ids to catalog ids
	ResolveSongIDs(ctx context.Context, userID string, ids []string) (map[string]string, error)
	List(ctx context.Context, userID string, limit, offset int) ([]*model.LibraryItem, error)
	ExternalIDs(ctx context.Context, userID string) ([]string, error)
}
