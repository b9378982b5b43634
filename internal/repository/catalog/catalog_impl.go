package catalog

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	apperrors "github.com/Taichi-iskw/ytshelf/internal/errors"
	"github.com/Taichi-iskw/ytshelf/internal/metadata"
	"github.com/Taichi-iskw/ytshelf/internal/model"
	"github.com/Taichi-iskw/ytshelf/internal/repository/common"
)

const songColumns = "id, external_id, source_url, title, channel_name, duration, duration_seconds, thumbnail_url, view_count, published_at, total_download_count, created_at, updated_at"

// refresh keeps known values when the incoming record only carries defaults
const upsertSQL = `INSERT INTO songs (id, external_id, source_url, title, channel_name, duration, duration_seconds, thumbnail_url, view_count, published_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
ON CONFLICT (external_id) DO UPDATE SET
	source_url = EXCLUDED.source_url,
	title = CASE WHEN EXCLUDED.title = $11 THEN songs.title ELSE EXCLUDED.title END,
	channel_name = CASE WHEN EXCLUDED.channel_name = $12 THEN songs.channel_name ELSE EXCLUDED.channel_name END,
	duration = CASE WHEN EXCLUDED.duration_seconds > 0 THEN EXCLUDED.duration ELSE songs.duration END,
	duration_seconds = CASE WHEN EXCLUDED.duration_seconds > 0 THEN EXCLUDED.duration_seconds ELSE songs.duration_seconds END,
	thumbnail_url = COALESCE(NULLIF(EXCLUDED.thumbnail_url, ''), songs.thumbnail_url),
	view_count = GREATEST(EXCLUDED.view_count, songs.view_count),
	updated_at = now()
RETURNING ` + songColumns

// catalogRepository implements Repository using PostgreSQL
type catalogRepository struct {
	pool common.Pool
}

// NewRepository creates a new instance of catalog Repository
func NewRepository(pool common.Pool) Repository {
	return &catalogRepository{pool: pool}
}

func (r *catalogRepository) Upsert(ctx context.Context, rec model.VideoRecord) (*model.CatalogEntry, error) {
	if rec.ExternalID == "" {
		return nil, apperrors.New(apperrors.CodeInvalidArg, "external ID is required")
	}

	row := r.pool.QueryRow(ctx, upsertSQL,
		uuid.NewString(),
		rec.ExternalID,
		rec.SourceURL,
		rec.Title,
		rec.ChannelName,
		rec.Duration,
		rec.DurationSeconds,
		rec.ThumbnailURL,
		rec.ViewCount,
		rec.PublishedAt,
		metadata.DefaultTitle,
		metadata.DefaultChannel,
	)

	entry, err := scanSong(row)
	if err != nil {
		return nil, common.HandlePostgreSQLError(err, "failed to upsert song")
	}
	return entry, nil
}

func (r *catalogRepository) GetByID(ctx context.Context, id string) (*model.CatalogEntry, error) {
	row := r.pool.QueryRow(ctx, "SELECT "+songColumns+" FROM songs WHERE id = $1", id)
	entry, err := scanSong(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.Wrap(err, apperrors.CodeNotFound, "song not found")
		}
		return nil, common.HandlePostgreSQLError(err, "failed to get song")
	}
	return entry, nil
}

func (r *catalogRepository) GetByExternalID(ctx context.Context, externalID string) (*model.CatalogEntry, error) {
	row := r.pool.QueryRow(ctx, "SELECT "+songColumns+" FROM songs WHERE external_id = $1", externalID)
	entry, err := scanSong(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.Wrap(err, apperrors.CodeNotFound, "song not found")
		}
		return nil, common.HandlePostgreSQLError(err, "failed to get song by external ID")
	}
	return entry, nil
}

func (r *catalogRepository) IncrementDownloadCount(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, "UPDATE songs SET total_download_count = total_download_count + 1, updated_at = now() WHERE id = $1", id)
	if err != nil {
		return common.HandlePostgreSQLError(err, "failed to increment download count")
	}
	if tag.RowsAffected() == 0 {
		return apperrors.New(apperrors.CodeNotFound, "song not found")
	}
	return nil
}

func scanSong(row pgx.Row) (*model.CatalogEntry, error) {
	var s model.CatalogEntry
	err := row.Scan(
		&s.ID,
		&s.ExternalID,
		&s.SourceURL,
		&s.Title,
		&s.ChannelName,
		&s.Duration,
		&s.DurationSeconds,
		&s.ThumbnailURL,
		&s.ViewCount,
		&s.PublishedAt,
		&s.TotalDownloadCount,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}
