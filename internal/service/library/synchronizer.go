package library

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	apperrors "github.com/Taichi-iskw/ytshelf/internal/errors"
	"github.com/Taichi-iskw/ytshelf/internal/metadata"
	"github.com/Taichi-iskw/ytshelf/internal/model"
	"github.com/Taichi-iskw/ytshelf/internal/repository/catalog"
	"github.com/Taichi-iskw/ytshelf/internal/repository/download"
	libraryrepo "github.com/Taichi-iskw/ytshelf/internal/repository/library"
	"github.com/Taichi-iskw/ytshelf/internal/service/audio"
)

// Synchronizer maintains the catalog, library reference and download record
// state for each user. Every lookup is scoped by user id first.
type Synchronizer struct {
	catalog   catalog.Repository
	library   libraryrepo.Repository
	downloads download.Repository
	encoder   audio.Encoder
	retainFor time.Duration
	now       func() time.Time
	log       zerolog.Logger
}

// Option customizes a Synchronizer
type Option func(*Synchronizer)

// WithEncoder enables audio materialization and artifact cleanup
func WithEncoder(encoder audio.Encoder, retainFor time.Duration) Option {
	return func(s *Synchronizer) {
		s.encoder = encoder
		if retainFor > 0 {
			s.retainFor = retainFor
		}
	}
}

// NewSynchronizer creates a Synchronizer over the three repositories
func NewSynchronizer(catalogRepo catalog.Repository, libraryRepo libraryrepo.Repository, downloadRepo download.Repository, log zerolog.Logger, opts ...Option) *Synchronizer {
	s := &Synchronizer{
		catalog:   catalogRepo,
		library:   libraryRepo,
		downloads: downloadRepo,
		retainFor: 24 * time.Hour,
		now:       time.Now,
		log:       log.With().Str("component", "library").Logger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Add upserts each record into the catalog and saves a library reference for
// userID. Items already saved count as duplicate; per-item failures are
// counted and do not abort the call. An error is returned only when the
// request is invalid or every item failed.
func (s *Synchronizer) Add(ctx context.Context, userID string, records []model.VideoRecord) (*model.AddResult, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, apperrors.New(apperrors.CodeInvalidArg, "at least one video is required")
	}

	result := &model.AddResult{}
	var lastErr error
	for _, rec := range records {
		outcome, err := s.addOne(ctx, userID, rec)
		switch outcome {
		case outcomeDone:
			result.Added++
		case outcomeSkipped:
			result.Duplicate++
		default:
			result.Failed++
			lastErr = err
		}
	}

	s.log.Info().
		Str("user_id", userID).
		Int("added", result.Added).
		Int("duplicate", result.Duplicate).
		Int("failed", result.Failed).
		Msg("library: add finished")

	if result.Failed == result.Total() {
		return result, allFailed(lastErr, "failed to add songs to library")
	}
	return result, nil
}

func (s *Synchronizer) addOne(ctx context.Context, userID string, rec model.VideoRecord) (outcome, error) {
	if strings.TrimSpace(rec.ExternalID) == "" {
		return outcomeFailed, apperrors.New(apperrors.CodeInvalidArg, "video id is required")
	}
	rec = metadata.Fill(rec, s.now().UTC())

	entry, err := s.catalog.Upsert(ctx, rec)
	if err != nil {
		s.log.Error().Err(err).Str("external_id", rec.ExternalID).Msg("library: catalog upsert failed")
		return outcomeFailed, err
	}

	_, err = s.library.Find(ctx, userID, entry.ID)
	switch {
	case err == nil:
		return outcomeSkipped, nil
	case !apperrors.IsCode(err, apperrors.CodeNotFound):
		s.log.Error().Err(err).Str("song_id", entry.ID).Msg("library: reference lookup failed")
		return outcomeFailed, err
	}

	if _, err := s.library.Insert(ctx, userID, entry.ID); err != nil {
		// lost the check-then-insert race to a concurrent add
		if apperrors.IsCode(err, apperrors.CodeConflict) {
			return outcomeSkipped, nil
		}
		s.log.Error().Err(err).Str("song_id", entry.ID).Msg("library: reference insert failed")
		return outcomeFailed, err
	}
	return outcomeDone, nil
}

// Download records download intent for the catalog entries behind the given
// library reference ids. No artifact is produced.
func (s *Synchronizer) Download(ctx context.Context, userID string, referenceIDs []string) (*model.DownloadResult, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	referenceIDs = model.UniqueIDs(referenceIDs)
	if len(referenceIDs) == 0 {
		return nil, apperrors.New(apperrors.CodeInvalidArg, "at least one song id is required")
	}

	result := &model.DownloadResult{}
	var lastErr error
	for _, id := range referenceIDs {
		outcome, err := s.downloadOne(ctx, userID, id)
		switch outcome {
		case outcomeDone:
			result.Downloaded++
		case outcomeSkipped:
			result.AlreadyDownloaded++
		default:
			result.Failed++
			lastErr = err
		}
	}

	s.log.Info().
		Str("user_id", userID).
		Int("downloaded", result.Downloaded).
		Int("already_downloaded", result.AlreadyDownloaded).
		Int("failed", result.Failed).
		Msg("library: download finished")

	if result.Failed == result.Total() {
		return result, allFailed(lastErr, "failed to record downloads")
	}
	return result, nil
}

func (s *Synchronizer) downloadOne(ctx context.Context, userID, referenceID string) (outcome, error) {
	ref, err := s.library.GetByID(ctx, userID, referenceID)
	if err != nil {
		if !apperrors.IsCode(err, apperrors.CodeNotFound) {
			s.log.Error().Err(err).Str("reference_id", referenceID).Msg("library: reference lookup failed")
		}
		return outcomeFailed, err
	}

	_, err = s.downloads.Find(ctx, userID, ref.SongID)
	switch {
	case err == nil:
		return outcomeSkipped, nil
	case !apperrors.IsCode(err, apperrors.CodeNotFound):
		s.log.Error().Err(err).Str("song_id", ref.SongID).Msg("library: download lookup failed")
		return outcomeFailed, err
	}

	if _, err := s.downloads.Insert(ctx, userID, ref.SongID); err != nil {
		if apperrors.IsCode(err, apperrors.CodeConflict) {
			return outcomeSkipped, nil
		}
		s.log.Error().Err(err).Str("song_id", ref.SongID).Msg("library: download insert failed")
		return outcomeFailed, err
	}

	s.bumpDownloadCount(ctx, ref.SongID)
	return outcomeDone, nil
}

// RemoveFromLibrary deletes library references by id. Download records and
// catalog entries are untouched.
func (s *Synchronizer) RemoveFromLibrary(ctx context.Context, userID string, referenceIDs []string) (*model.DeleteResult, error) {
	return s.deleteBatch(ctx, userID, referenceIDs, "remove", s.library.Delete)
}

// DeleteDownload deletes download records addressed by download id or by the
// library reference id of the same song. Library references are untouched.
func (s *Synchronizer) DeleteDownload(ctx context.Context, userID string, ids []string) (*model.DeleteResult, error) {
	return s.deleteBatch(ctx, userID, ids, "delete-download", s.downloads.Delete)
}

func (s *Synchronizer) deleteBatch(ctx context.Context, userID string, ids []string, op string,
	del func(ctx context.Context, userID string, ids []string) (int64, error)) (*model.DeleteResult, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	ids = model.UniqueIDs(ids)
	if len(ids) == 0 {
		return nil, apperrors.New(apperrors.CodeInvalidArg, "at least one id is required")
	}

	n, err := del(ctx, userID, ids)
	if err != nil {
		s.log.Error().Err(err).Str("user_id", userID).Str("op", op).Int("ids", len(ids)).Msg("library: delete failed")
		return &model.DeleteResult{Failed: len(ids)}, err
	}

	deleted := clampCount(n, len(ids))
	result := &model.DeleteResult{Deleted: deleted, Missing: len(ids) - deleted}
	s.log.Info().Str("user_id", userID).Str("op", op).Int("deleted", result.Deleted).Int("missing", result.Missing).Msg("library: delete finished")
	return result, nil
}

// DeleteCompletely removes both the library reference and the download
// record for every song addressed by ids (reference or download ids). The
// catalog entry survives.
func (s *Synchronizer) DeleteCompletely(ctx context.Context, userID string, ids []string) (*model.DeleteResult, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	ids = model.UniqueIDs(ids)
	if len(ids) == 0 {
		return nil, apperrors.New(apperrors.CodeInvalidArg, "at least one id is required")
	}

	resolved, err := s.library.ResolveSongIDs(ctx, userID, ids)
	if err != nil {
		s.log.Error().Err(err).Str("user_id", userID).Msg("library: resolving ids failed")
		return &model.DeleteResult{Failed: len(ids)}, err
	}

	found := 0
	seen := make(map[string]struct{}, len(resolved))
	songIDs := make([]string, 0, len(resolved))
	for _, id := range ids {
		songID, ok := resolved[id]
		if !ok {
			continue
		}
		found++
		if _, dup := seen[songID]; dup {
			continue
		}
		seen[songID] = struct{}{}
		songIDs = append(songIDs, songID)
	}

	result := &model.DeleteResult{Missing: len(ids) - found}
	if len(songIDs) == 0 {
		return result, nil
	}

	downloadsDeleted, err := s.downloads.DeleteBySongIDs(ctx, userID, songIDs)
	if err != nil {
		s.log.Error().Err(err).Str("user_id", userID).Msg("library: deleting downloads failed")
		result.Failed = found
		return result, err
	}
	libraryDeleted, err := s.library.DeleteBySongIDs(ctx, userID, songIDs)
	if err != nil {
		s.log.Error().Err(err).Str("user_id", userID).Msg("library: deleting references failed")
		result.Failed = found
		result.DownloadsDeleted = int(downloadsDeleted)
		return result, err
	}

	result.Deleted = found
	result.DownloadsDeleted = int(downloadsDeleted)
	result.LibraryDeleted = int(libraryDeleted)

	s.log.Info().
		Str("user_id", userID).
		Int("deleted", result.Deleted).
		Int("library_deleted", result.LibraryDeleted).
		Int("downloads_deleted", result.DownloadsDeleted).
		Msg("library: complete delete finished")
	return result, nil
}

// ListLibrary returns userID's saved songs with their download state
func (s *Synchronizer) ListLibrary(ctx context.Context, userID string, limit, offset int) ([]*model.LibraryItem, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	limit, offset = page(limit, offset)
	return s.library.List(ctx, userID, limit, offset)
}

// ListDownloads returns userID's download records
func (s *Synchronizer) ListDownloads(ctx context.Context, userID string, limit, offset int) ([]*model.DownloadItem, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	limit, offset = page(limit, offset)
	return s.downloads.List(ctx, userID, limit, offset)
}

// LibraryExternalIDs lists the external ids saved by userID
func (s *Synchronizer) LibraryExternalIDs(ctx context.Context, userID string) ([]string, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	return s.library.ExternalIDs(ctx, userID)
}

func (s *Synchronizer) bumpDownloadCount(ctx context.Context, songID string) {
	if err := s.catalog.IncrementDownloadCount(ctx, songID); err != nil {
		s.log.Warn().Err(err).Str("song_id", songID).Msg("library: failed to increment download count")
	}
}

type outcome int

const (
	outcomeFailed outcome = iota
	outcomeDone
	outcomeSkipped
)

func requireUser(userID string) error {
	if strings.TrimSpace(userID) == "" {
		return apperrors.New(apperrors.CodeUnauthenticated, "user ID required")
	}
	return nil
}

// allFailed keeps the code of the last item error so callers can map it
func allFailed(lastErr error, message string) error {
	if lastErr == nil {
		return apperrors.New(apperrors.CodeInternal, message)
	}
	return apperrors.Wrap(lastErr, apperrors.CodeOf(lastErr), message)
}

func clampCount(n int64, max int) int {
	if n < 0 {
		return 0
	}
	if n > int64(max) {
		return max
	}
	return int(n)
}

func page(limit, offset int) (int, int) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
