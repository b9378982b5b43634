package download

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	apperrors "github.com/Taichi-iskw/ytshelf/internal/errors"
	"github.com/Taichi-iskw/ytshelf/internal/model"
	"github.com/Taichi-iskw/ytshelf/internal/repository/common"
)

const recordColumns = "id, user_id, song_id, downloaded_at, artifact_url, file_size_bytes"

const upsertSQL = `INSERT INTO user_downloads (id, user_id, song_id, downloaded_at, artifact_url, file_size_bytes)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (user_id, song_id) DO UPDATE SET
	artifact_url = EXCLUDED.artifact_url,
	file_size_bytes = EXCLUDED.file_size_bytes,
	downloaded_at = EXCLUDED.downloaded_at
RETURNING ` + recordColumns + `, (xmax = 0) AS inserted`

const deleteSQL = `DELETE FROM user_downloads
WHERE user_id = $1
  AND (id = ANY($2)
       OR song_id IN (SELECT song_id FROM user_songs WHERE user_id = $1 AND id = ANY($2)))`

const listSQL = `SELECT ud.id, ud.user_id, ud.song_id, ud.downloaded_at, ud.artifact_url, ud.file_size_bytes,
	s.id, s.external_id, s.source_url, s.title, s.channel_name, s.duration, s.duration_seconds,
	s.thumbnail_url, s.view_count, s.published_at, s.total_download_count, s.created_at, s.updated_at
FROM user_downloads ud
JOIN songs s ON s.id = ud.song_id
WHERE ud.user_id = $1
ORDER BY ud.downloaded_at DESC, ud.id
LIMIT $2 OFFSET $3`

// downloadRepository implements Repository using PostgreSQL
type downloadRepository struct {
	pool common.Pool
}

// NewRepository creates a new instance of download Repository
func NewRepository(pool common.Pool) Repository {
	return &downloadRepository{pool: pool}
}

func (r *downloadRepository) Find(ctx context.Context, userID, songID string) (*model.DownloadRecord, error) {
	row := r.pool.QueryRow(ctx,
		"SELECT "+recordColumns+" FROM user_downloads WHERE user_id = $1 AND song_id = $2",
		userID, songID)

	var rec model.DownloadRecord
	err := row.Scan(&rec.ID, &rec.UserID, &rec.SongID, &rec.DownloadedAt, &rec.ArtifactURL, &rec.FileSizeBytes)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.Wrap(err, apperrors.CodeNotFound, "download record not found")
		}
		return nil, common.HandlePostgreSQLError(err, "failed to find download record")
	}
	return &rec, nil
}

func (r *downloadRepository) Insert(ctx context.Context, userID, songID string) (*model.DownloadRecord, error) {
	rec := &model.DownloadRecord{
		ID:           uuid.NewString(),
		UserID:       userID,
		SongID:       songID,
		DownloadedAt: time.Now().UTC(),
	}
	_, err := r.pool.Exec(ctx,
		"INSERT INTO user_downloads (id, user_id, song_id, downloaded_at) VALUES ($1, $2, $3, $4)",
		rec.ID, rec.UserID, rec.SongID, rec.DownloadedAt)
	if err != nil {
		return nil, common.HandlePostgreSQLError(err, "failed to record download")
	}
	return rec, nil
}

func (r *downloadRepository) Upsert(ctx context.Context, userID, songID string, artifact Artifact) (*model.DownloadRecord, bool, error) {
	row := r.pool.QueryRow(ctx, upsertSQL,
		uuid.NewString(), userID, songID, time.Now().UTC(), artifact.URL, artifact.FileSizeBytes)

	var (
		rec     model.DownloadRecord
		created bool
	)
	err := row.Scan(&rec.ID, &rec.UserID, &rec.SongID, &rec.DownloadedAt, &rec.ArtifactURL, &rec.FileSizeBytes, &created)
	if err != nil {
		return nil, false, common.HandlePostgreSQLError(err, "failed to store download artifact")
	}
	return &rec, created, nil
}

func (r *downloadRepository) Delete(ctx context.Context, userID string, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	tag, err := r.pool.Exec(ctx, deleteSQL, userID, ids)
	if err != nil {
		return 0, common.HandlePostgreSQLError(err, "failed to delete download records")
	}
	return tag.RowsAffected(), nil
}

func (r *downloadRepository) DeleteBySongIDs(ctx context.Context, userID string, songIDs []string) (int64, error) {
	if len(songIDs) == 0 {
		return 0, nil
	}
	tag, err := r.pool.Exec(ctx, "DELETE FROM user_downloads WHERE user_id = $1 AND song_id = ANY($2)", userID, songIDs)
	if err != nil {
		return 0, common.HandlePostgreSQLError(err, "failed to delete download records by song")
	}
	return tag.RowsAffected(), nil
}

func (r *downloadRepository) List(ctx context.Context, userID string, limit, offset int) ([]*model.DownloadItem, error) {
	rows, err := r.pool.Query(ctx, listSQL, userID, limit, offset)
	if err != nil {
		return nil, common.HandlePostgreSQLError(err, "failed to list downloads")
	}
	defer rows.Close()

	items := []*model.DownloadItem{}
	for rows.Next() {
		var item model.DownloadItem
		s := &item.Song
		err := rows.Scan(
			&item.ID, &item.UserID, &item.SongID, &item.DownloadedAt, &item.ArtifactURL, &item.FileSizeBytes,
			&s.ID, &s.ExternalID, &s.SourceURL, &s.Title, &s.ChannelName, &s.Duration, &s.DurationSeconds,
			&s.ThumbnailURL, &s.ViewCount, &s.PublishedAt, &s.TotalDownloadCount, &s.CreatedAt, &s.UpdatedAt,
		)
		if err != nil {
			return nil, common.HandlePostgreSQLError(err, "failed to scan download row")
		}
		items = append(items, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, common.HandlePostgreSQLError(err, "failed to iterate download rows")
	}
	return items, nil
}
