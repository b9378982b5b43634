package library

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

const listSQL = `SELECT us.id, us.user_id, us.song_id, us.added_at,
	s.id, s.external_id, s.source_url, s.title, s.channel_name, s.duration, s.duration_seconds,
	s.thumbnail_url, s.view_count, s.published_at, s.total_download_count, s.created_at, s.updated_at,
	ud.id, ud.downloaded_at, ud.artifact_url, ud.file_size_bytes
FROM user_songs us
JOIN songs s ON s.id = us.song_id
LEFT JOIN user_downloads ud ON ud.user_id = us.user_id AND ud.song_id = us.song_id
WHERE us.user_id = $1
ORDER BY us.added_at DESC, us.id
LIMIT $2 OFFSET $3`

const resolveSQL = `SELECT id, song_id FROM user_songs WHERE user_id = $1 AND id = ANY($2)
UNION ALL
SELECT id, song_id FROM user_downloads WHERE user_id = $1 AND id = ANY($2)`

// libraryRepository implements Repository using PostgreSQL
type libraryRepository struct {
	pool common.Pool
}

// NewRepository creates a new instance of library Repository
func NewRepository(pool common.Pool) Repository {
	return &libraryRepository{pool: pool}
}

func (r *libraryRepository) Find(ctx context.Context, userID, songID string) (*model.LibraryReference, error) {
	row := r.pool.QueryRow(ctx,
		"SELECT id, user_id, song_id, added_at FROM user_songs WHERE user_id = $1 AND song_id = $2",
		userID, songID)
	return scanReference(row, "failed to find library reference")
}

func (r *libraryRepository) Insert(ctx context.Context, userID, songID string) (*model.LibraryReference, error) {
	ref := &model.LibraryReference{
		ID:      uuid.NewString(),
		UserID:  userID,
		SongID:  songID,
		AddedAt: time.Now().UTC(),
	}
	_, err := r.pool.Exec(ctx,
		"INSERT INTO user_songs (id, user_id, song_id, added_at) VALUES ($1, $2, $3, $4)",
		ref.ID, ref.UserID, ref.SongID, ref.AddedAt)
	if err != nil {
		return nil, common.HandlePostgreSQLError(err, "failed to add song to library")
	}
	return ref, nil
}

func (r *libraryRepository) GetByID(ctx context.Context, userID, id string) (*model.LibraryReference, error) {
	row := r.pool.QueryRow(ctx,
		"SELECT id, user_id, song_id, added_at FROM user_songs WHERE user_id = $1 AND id = $2",
		userID, id)
	return scanReference(row, "failed to get library reference")
}

func (r *libraryRepository) Delete(ctx context.Context, userID string, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	tag, err := r.pool.Exec(ctx, "DELETE FROM user_songs WHERE user_id = $1 AND id = ANY($2)", userID, ids)
	if err != nil {
		return 0, common.HandlePostgreSQLError(err, "failed to delete library references")
	}
	return tag.RowsAffected(), nil
}

func (r *libraryRepository) DeleteBySongIDs(ctx context.Context, userID string, songIDs []string) (int64, error) {
	if len(songIDs) == 0 {
		return 0, nil
	}
	tag, err := r.pool.Exec(ctx, "DELETE FROM user_songs WHERE user_id = $1 AND song_id = ANY($2)", userID, songIDs)
	if err != nil {
		return 0, common.HandlePostgreSQLError(err, "failed to delete library references by song")
	}
	return tag.RowsAffected(), nil
}

func (r *libraryRepository) ResolveSongIDs(ctx context.Context, userID string, ids []string) (map[string]string, error) {
	resolved := make(map[string]string, len(ids))
	if len(ids) == 0 {
		return resolved, nil
	}

	rows, err := r.pool.Query(ctx, resolveSQL, userID, ids)
	if err != nil {
		return nil, common.HandlePostgreSQLError(err, "failed to resolve song ids")
	}
	defer rows.Close()

	for rows.Next() {
		var id, songID string
		if err := rows.Scan(&id, &songID); err != nil {
			return nil, common.HandlePostgreSQLError(err, "failed to scan song id")
		}
		resolved[id] = songID
	}
	if err := rows.Err(); err != nil {
		return nil, common.HandlePostgreSQLError(err, "failed to iterate song ids")
	}
	return resolved, nil
}

func (r *libraryRepository) List(ctx context.Context, userID string, limit, offset int) ([]*model.LibraryItem, error) {
	rows, err := r.pool.Query(ctx, listSQL, userID, limit, offset)
	if err != nil {
		return nil, common.HandlePostgreSQLError(err, "failed to list library")
	}
	defer rows.Close()

	items := []*model.LibraryItem{}
	for rows.Next() {
		var (
			item         model.LibraryItem
			downloadID   *string
			downloadedAt *time.Time
			artifactURL  *string
			fileSize     *int64
		)
		s := &item.Song
		err := rows.Scan(
			&item.ID, &item.UserID, &item.SongID, &item.AddedAt,
			&s.ID, &s.ExternalID, &s.SourceURL, &s.Title, &s.ChannelName, &s.Duration, &s.DurationSeconds,
			&s.ThumbnailURL, &s.ViewCount, &s.PublishedAt, &s.TotalDownloadCount, &s.CreatedAt, &s.UpdatedAt,
			&downloadID, &downloadedAt, &artifactURL, &fileSize,
		)
		if err != nil {
			return nil, common.HandlePostgreSQLError(err, "failed to scan library row")
		}
		if downloadID != nil {
			item.Downloaded = true
			item.Download = &model.DownloadRecord{
				ID:            *downloadID,
				UserID:        item.UserID,
				SongID:        item.SongID,
				ArtifactURL:   artifactURL,
				FileSizeBytes: fileSize,
			}
			if downloadedAt != nil {
				item.Download.DownloadedAt = *downloadedAt
			}
		}
		items = append(items, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, common.HandlePostgreSQLError(err, "failed to iterate library rows")
	}
	return items, nil
}

func (r *libraryRepository) ExternalIDs(ctx context.Context, userID string) ([]string, error) {
	rows, err := r.pool.Query(ctx,
		"SELECT s.external_id FROM user_songs us JOIN songs s ON s.id = us.song_id WHERE us.user_id = $1",
		userID)
	if err != nil {
		return nil, common.HandlePostgreSQLError(err, "failed to list library video ids")
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, common.HandlePostgreSQLError(err, "failed to scan video id")
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, common.HandlePostgreSQLError(err, "failed to iterate video ids")
	}
	return ids, nil
}

func scanReference(row pgx.Row, operation string) (*model.LibraryReference, error) {
	var ref model.LibraryReference
	if err := row.Scan(&ref.ID, &ref.UserID, &ref.SongID, &ref.AddedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.Wrap(err, apperrors.CodeNotFound, "library reference not found")
		}
		return nil, common.HandlePostgreSQLError(err, operation)
	}
	return &ref, nil
}
