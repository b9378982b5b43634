package catalog

import (
	"context"

	"github.com/Taichi-iskw/ytshelf/internal/model"
)

// Repository defines operations on the shared song catalog. Entries are
// never deleted.
type Repository interface {
	// Upsert inserts a catalog entry keyed by external id or refreshes the
	// display fields of the existing one, returning the stored row
	Upsert(ctx context.Context, rec model.VideoRecord) (*model.CatalogEntry, error)
	GetByID(ctx context.Context, id string) (*model.CatalogEntry, error)
	GetByExternalID(ctx context.Context, externalID string) (*model.CatalogEntry, error)
	IncrementDownloadCount(ctx context.Context, id string) error
}
