package library

import (
	"context"

	apperrors "github.com/Taichi-iskw/ytshelf/internal/errors"
	"github.com/Taichi-iskw/ytshelf/internal/model"
	"github.com/Taichi-iskw/ytshelf/internal/repository/download"
	"github.com/Taichi-iskw/ytshelf/internal/service/audio"
)

// Materialize produces the audio artifact for a library reference and stores
// its location on the user's download record. The catalog download count is
// only incremented when the record is new.
func (s *Synchronizer) Materialize(ctx context.Context, userID, referenceID string) (*model.MaterializeResult, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	if referenceID == "" {
		return nil, apperrors.New(apperrors.CodeInvalidArg, "song ID required")
	}
	if s.encoder == nil {
		return nil, apperrors.New(apperrors.CodeConfiguration, "audio encoding is not configured")
	}

	ref, err := s.library.GetByID(ctx, userID, referenceID)
	if err != nil {
		if apperrors.IsCode(err, apperrors.CodeNotFound) {
			return nil, apperrors.Wrap(err, apperrors.CodeNotFound, "song not found in your library")
		}
		return nil, err
	}

	song, err := s.catalog.GetByID(ctx, ref.SongID)
	if err != nil {
		return nil, err
	}

	artifact, err := s.encoder.Encode(ctx, audio.Source{
		ExternalID: song.ExternalID,
		SourceURL:  song.SourceURL,
		Title:      song.Title,
	})
	if err != nil {
		return nil, err
	}

	rec, created, err := s.downloads.Upsert(ctx, userID, song.ID, download.Artifact{
		URL:           artifact.URL,
		FileSizeBytes: artifact.SizeBytes,
	})
	if err != nil {
		s.log.Error().Err(err).Str("song_id", song.ID).Msg("library: storing artifact failed")
		return nil, err
	}
	if created {
		s.bumpDownloadCount(ctx, song.ID)
	}

	s.log.Info().
		Str("user_id", userID).
		Str("external_id", song.ExternalID).
		Str("file", artifact.FileName).
		Bool("reused", artifact.Reused).
		Bool("created", created).
		Msg("library: artifact ready")

	return &model.MaterializeResult{
		Download:      *rec,
		Created:       created,
		FileName:      artifact.FileName,
		FileSizeBytes: artifact.SizeBytes,
		Reused:        artifact.Reused,
	}, nil
}

// CleanupArtifacts prunes artifacts older than the configured retention
func (s *Synchronizer) CleanupArtifacts(ctx context.Context) (*audio.CleanupResult, error) {
	if s.encoder == nil {
		return nil, apperrors.New(apperrors.CodeConfiguration, "audio encoding is not configured")
	}
	return s.encoder.Cleanup(ctx, s.retainFor)
}
