package download

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/Taichi-iskw/ytshelf/internal/errors"
)

var recordCols = []string{"id", "user_id", "song_id", "downloaded_at", "artifact_url", "file_size_bytes"}

func TestDownloadRepository_Find(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	now := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	var noURL *string
	var noSize *int64

	mock.ExpectQuery("SELECT (.+) FROM user_downloads WHERE user_id = \\$1 AND song_id = \\$2").
		WithArgs("user-1", "song-1").
		WillReturnRows(pgxmock.NewRows(recordCols).AddRow("dl-1", "user-1", "song-1", now, noURL, noSize))
	mock.ExpectQuery("SELECT (.+) FROM user_downloads").
		WithArgs("user-1", "song-2").
		WillReturnRows(pgxmock.NewRows(recordCols))

	repo := NewRepository(mock)

	rec, err := repo.Find(context.Background(), "user-1", "song-1")
	require.NoError(t, err)
	assert.Equal(t, "dl-1", rec.ID)
	assert.Nil(t, rec.ArtifactURL)

	_, err = repo.Find(context.Background(), "user-1", "song-2")
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeNotFound, apperrors.CodeOf(err))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDownloadRepository_Insert(t *testing.T) {
	tests := []struct {
		name     string
		setup    func(mock pgxmock.PgxPoolIface)
		wantCode string
	}{
		{
			name: "success",
			setup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectExec("INSERT INTO user_downloads").
					WithArgs(pgxmock.AnyArg(), "user-1", "song-1", pgxmock.AnyArg()).
					WillReturnResult(pgxmock.NewResult("INSERT", 1))
			},
		},
		{
			name: "duplicate",
			setup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectExec("INSERT INTO user_downloads").
					WithArgs(pgxmock.AnyArg(), "user-1", "song-1", pgxmock.AnyArg()).
					WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "user_downloads_user_id_song_id_key"})
			},
			wantCode: apperrors.CodeConflict,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock, err := pgxmock.NewPool()
			require.NoError(t, err)
			defer mock.Close()

			tt.setup(mock)
			repo := NewRepository(mock)

			rec, err := repo.Insert(context.Background(), "user-1", "song-1")
			if tt.wantCode != "" {
				require.Error(t, err)
				assert.Equal(t, tt.wantCode, apperrors.CodeOf(err))
			} else {
				require.NoError(t, err)
				assert.NotEmpty(t, rec.ID)
				assert.Nil(t, rec.ArtifactURL)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestDownloadRepository_Upsert(t *testing.T) {
	now := time.Date(2026, 4, 2, 0, 0, 0, 0, time.UTC)
	url := "/downloads/v1.mp3"
	size := int64(1024)
	cols := append(append([]string{}, recordCols...), "inserted")

	tests := []struct {
		name        string
		inserted    bool
		wantCreated bool
	}{
		{name: "new record", inserted: true, wantCreated: true},
		{name: "existing marker gains artifact", inserted: false, wantCreated: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock, err := pgxmock.NewPool()
			require.NoError(t, err)
			defer mock.Close()

			mock.ExpectQuery("INSERT INTO user_downloads (.+) ON CONFLICT \\(user_id, song_id\\) DO UPDATE").
				WithArgs(pgxmock.AnyArg(), "user-1", "song-1", pgxmock.AnyArg(), url, size).
				WillReturnRows(pgxmock.NewRows(cols).AddRow("dl-1", "user-1", "song-1", now, &url, &size, tt.inserted))

			repo := NewRepository(mock)
			rec, created, err := repo.Upsert(context.Background(), "user-1", "song-1", Artifact{URL: url, FileSizeBytes: size})
			require.NoError(t, err)
			assert.Equal(t, tt.wantCreated, created)
			require.NotNil(t, rec.ArtifactURL)
			assert.Equal(t, url, *rec.ArtifactURL)
			assert.Equal(t, size, *rec.FileSizeBytes)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestDownloadRepository_Delete(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	ids := []string{"dl-1", "ref-2"}
	mock.ExpectExec("DELETE FROM user_downloads (.+) song_id IN \\(SELECT song_id FROM user_songs").
		WithArgs("user-1", ids).
		WillReturnResult(pgxmock.NewResult("DELETE", 2))

	repo := NewRepository(mock)
	n, err := repo.Delete(context.Background(), "user-1", ids)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	n, err = repo.Delete(context.Background(), "user-1", nil)
	require.NoError(t, err)
	assert.Zero(t, n)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDownloadRepository_DeleteBySongIDs(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec("DELETE FROM user_downloads WHERE user_id = \\$1 AND song_id = ANY").
		WithArgs("user-1", []string{"song-1"}).
		WillReturnError(&pgconn.PgError{Code: "08006"})

	repo := NewRepository(mock)
	_, err = repo.DeleteBySongIDs(context.Background(), "user-1", []string{"song-1"})
	require.Error(t, err)
	assert.Equal(t, apperrors.CodePersistence, apperrors.CodeOf(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDownloadRepository_List(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	now := time.Date(2026, 4, 3, 0, 0, 0, 0, time.UTC)
	url := "/downloads/v1.mp3"
	size := int64(2048)
	cols := append(append([]string{}, recordCols...),
		"s_id", "external_id", "source_url", "title", "channel_name", "duration", "duration_seconds",
		"thumbnail_url", "view_count", "published_at", "total_download_count", "created_at", "updated_at")

	mock.ExpectQuery("SELECT (.+) FROM user_downloads ud JOIN songs s").
		WithArgs("user-1", 20, 0).
		WillReturnRows(pgxmock.NewRows(cols).AddRow(
			"dl-1", "user-1", "song-1", now, &url, &size,
			"song-1", "v1", "https://www.youtube.com/watch?v=v1", "Song A", "Band", "3:33", 213,
			"thumb", int64(10), now, int64(1), now, now))

	repo := NewRepository(mock)
	items, err := repo.List(context.Background(), "user-1", 20, 0)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "dl-1", items[0].ID)
	assert.Equal(t, "v1", items[0].Song.ExternalID)
	assert.Equal(t, int64(1), items[0].Song.TotalDownloadCount)
	assert.NoError(t, mock.ExpectationsWereMet())
}
