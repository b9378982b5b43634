package common

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	apperrors "github.com/Taichi-iskw/ytshelf/internal/errors"
)

func TestHandlePostgreSQLError(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantCode    string
		wantMessage string
	}{
		{
			name:        "library duplicate",
			err:         &pgconn.PgError{Code: "23505", ConstraintName: "user_songs_user_id_song_id_key"},
			wantCode:    apperrors.CodeConflict,
			wantMessage: "song is already in the library",
		},
		{
			name:        "download duplicate",
			err:         &pgconn.PgError{Code: "23505", ConstraintName: "user_downloads_user_id_song_id_key"},
			wantCode:    apperrors.CodeConflict,
			wantMessage: "song is already downloaded",
		},
		{
			name:        "catalog duplicate",
			err:         &pgconn.PgError{Code: "23505", ConstraintName: "songs_external_id_key"},
			wantCode:    apperrors.CodeConflict,
			wantMessage: "song with this external ID already exists",
		},
		{
			name:        "missing song",
			err:         &pgconn.PgError{Code: "23503", ConstraintName: "user_songs_song_id_fkey"},
			wantCode:    apperrors.CodeDependency,
			wantMessage: "referenced song does not exist",
		},
		{
			name:     "check violation",
			err:      &pgconn.PgError{Code: "23514", ConstraintName: "songs_external_id_check"},
			wantCode: apperrors.CodeInvalidArg,
		},
		{
			name:     "connection lost",
			err:      &pgconn.PgError{Code: "08006"},
			wantCode: apperrors.CodePersistence,
		},
		{
			name:     "unknown pg code",
			err:      &pgconn.PgError{Code: "22001"},
			wantCode: apperrors.CodeInternal,
		},
		{
			name:     "no rows",
			err:      pgx.ErrNoRows,
			wantCode: apperrors.CodeNotFound,
		},
		{
			name:     "driver failure",
			err:      assert.AnError,
			wantCode: apperrors.CodePersistence,
		},
		{
			name:     "deadline",
			err:      context.DeadlineExceeded,
			wantCode: apperrors.CodePersistence,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := HandlePostgreSQLError(tt.err, "failed to do thing")
			assert.Equal(t, tt.wantCode, got.Code)
			if tt.wantMessage != "" {
				assert.Equal(t, tt.wantMessage, got.Message)
			}
			assert.ErrorIs(t, got, tt.err)
		})
	}

	assert.Nil(t, HandlePostgreSQLError(nil, "noop"))
}
