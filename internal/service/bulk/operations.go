package bulk

import (
	"context"

	"github.com/Taichi-iskw/ytshelf/internal/model"
)

// Operation names accepted by Lookup
const (
	OpDownload       = "download"
	OpRemove         = "remove"
	OpDeleteDownload = "delete-download"
	OpDelete         = "delete"
	OpMaterialize    = "mp3"
)

// Library is the subset of the synchronizer the bulk operations drive
type Library interface {
	Download(ctx context.Context, userID string, referenceIDs []string) (*model.DownloadResult, error)
	RemoveFromLibrary(ctx context.Context, userID string, referenceIDs []string) (*model.DeleteResult, error)
	DeleteDownload(ctx context.Context, userID string, ids []string) (*model.DeleteResult, error)
	DeleteCompletely(ctx context.Context, userID string, ids []string) (*model.DeleteResult, error)
	Materialize(ctx context.Context, userID, referenceID string) (*model.MaterializeResult, error)
}

// Operations returns the bulk operations backed by lib, keyed by name
func Operations(lib Library) map[string]Operation {
	return map[string]Operation{
		OpDownload: {
			Name: OpDownload,
			Apply: func(ctx context.Context, userID string, ids []string) (Tally, error) {
				r, err := lib.Download(ctx, userID, ids)
				if r == nil {
					return Tally{}, err
				}
				return Tally{Succeeded: r.Downloaded, AlreadyDone: r.AlreadyDownloaded, Failed: r.Failed}, err
			},
		},
		OpRemove:         deleteOperation(OpRemove, lib.RemoveFromLibrary),
		OpDeleteDownload: deleteOperation(OpDeleteDownload, lib.DeleteDownload),
		OpDelete:         deleteOperation(OpDelete, lib.DeleteCompletely),
		OpMaterialize: {
			Name: OpMaterialize,
			Apply: func(ctx context.Context, userID string, ids []string) (Tally, error) {
				var t Tally
				var lastErr error
				for _, id := range ids {
					r, err := lib.Materialize(ctx, userID, id)
					switch {
					case err != nil:
						t.Failed++
						lastErr = err
					case r.Created:
						t.Succeeded++
					default:
						t.AlreadyDone++
					}
				}
				return t, lastErr
			},
		},
	}
}

// Lookup returns the named operation
func Lookup(lib Library, name string) (Operation, bool) {
	op, ok := Operations(lib)[name]
	return op, ok
}

func deleteOperation(name string, fn func(ctx context.Context, userID string, ids []string) (*model.DeleteResult, error)) Operation {
	return Operation{
		Name:    name,
		Batched: true,
		Apply: func(ctx context.Context, userID string, ids []string) (Tally, error) {
			r, err := fn(ctx, userID, ids)
			if r == nil {
				return Tally{}, err
			}
			return Tally{Succeeded: r.Deleted, Missing: r.Missing, Failed: r.Failed}, err
		},
	}
}
