package library

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/Taichi-iskw/ytshelf/internal/errors"
	"github.com/Taichi-iskw/ytshelf/internal/model"
	"github.com/Taichi-iskw/ytshelf/internal/repository/download"
	"github.com/Taichi-iskw/ytshelf/internal/service/audio"
)

// memStore is an in-memory stand-in for the three tables, enforcing the same
// unique (user_id, song_id) constraints.
type memStore struct {
	mu        sync.Mutex
	songs     map[string]*model.CatalogEntry
	refs      map[string]*model.LibraryReference
	downloads map[string]*model.DownloadRecord

	upsertErr map[string]error // by external id
	// hideRefs makes Find miss existing rows, simulating a lost race
	hideRefs bool
	deleteErr error
}

func newMemStore() *memStore {
	return &memStore{
		songs:     map[string]*model.CatalogEntry{},
		refs:      map[string]*model.LibraryReference{},
		downloads: map[string]*model.DownloadRecord{},
		upsertErr: map[string]error{},
	}
}

type memCatalog struct{ *memStore }

func (m memCatalog) Upsert(ctx context.Context, rec model.VideoRecord) (*model.CatalogEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.upsertErr[rec.ExternalID]; err != nil {
		return nil, err
	}
	for _, s := range m.songs {
		if s.ExternalID == rec.ExternalID {
			s.Title = rec.Title
			cp := *s
			return &cp, nil
		}
	}
	s := &model.CatalogEntry{
		ID:              uuid.NewString(),
		ExternalID:      rec.ExternalID,
		SourceURL:       rec.SourceURL,
		Title:           rec.Title,
		ChannelName:     rec.ChannelName,
		Duration:        rec.Duration,
		DurationSeconds: rec.DurationSeconds,
		ThumbnailURL:    rec.ThumbnailURL,
		ViewCount:       rec.ViewCount,
		PublishedAt:     rec.PublishedAt,
	}
	m.songs[s.ID] = s
	cp := *s
	return &cp, nil
}

func (m memCatalog) GetByID(ctx context.Context, id string) (*model.CatalogEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.songs[id]
	if !ok {
		return nil, apperrors.New(apperrors.CodeNotFound, "song not found")
	}
	cp := *s
	return &cp, nil
}

func (m memCatalog) GetByExternalID(ctx context.Context, externalID string) (*model.CatalogEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.songs {
		if s.ExternalID == externalID {
			cp := *s
			return &cp, nil
		}
	}
	return nil, apperrors.New(apperrors.CodeNotFound, "song not found")
}

func (m memCatalog) IncrementDownloadCount(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.songs[id]
	if !ok {
		return apperrors.New(apperrors.CodeNotFound, "song not found")
	}
	s.TotalDownloadCount++
	return nil
}

type memLibrary struct{ *memStore }

func (m memLibrary) Find(ctx context.Context, userID, songID string) (*model.LibraryReference, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.hideRefs {
		for _, r := range m.refs {
			if r.UserID == userID && r.SongID == songID {
				cp := *r
				return &cp, nil
			}
		}
	}
	return nil, apperrors.New(apperrors.CodeNotFound, "library reference not found")
}

func (m memLibrary) Insert(ctx context.Context, userID, songID string) (*model.LibraryReference, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.refs {
		if r.UserID == userID && r.SongID == songID {
			return nil, apperrors.New(apperrors.CodeConflict, "song is already in the library")
		}
	}
	r := &model.LibraryReference{ID: uuid.NewString(), UserID: userID, SongID: songID, AddedAt: time.Now()}
	m.refs[r.ID] = r
	cp := *r
	return &cp, nil
}

func (m memLibrary) GetByID(ctx context.Context, userID, id string) (*model.LibraryReference, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.refs[id]
	if !ok || r.UserID != userID {
		return nil, apperrors.New(apperrors.CodeNotFound, "library reference not found")
	}
	cp := *r
	return &cp, nil
}

func (m memLibrary) Delete(ctx context.Context, userID string, ids []string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.deleteErr != nil {
		return 0, m.deleteErr
	}
	var n int64
	for _, id := range ids {
		if r, ok := m.refs[id]; ok && r.UserID == userID {
			delete(m.refs, id)
			n++
		}
	}
	return n, nil
}

func (m memLibrary) DeleteBySongIDs(ctx context.Context, userID string, songIDs []string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for id, r := range m.refs {
		if r.UserID == userID && contains(songIDs, r.SongID) {
			delete(m.refs, id)
			n++
		}
	}
	return n, nil
}

func (m memLibrary) ResolveSongIDs(ctx context.Context, userID string, ids []string) (map[string]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := map[string]string{}
	for _, id := range ids {
		if r, ok := m.refs[id]; ok && r.UserID == userID {
			out[id] = r.SongID
		}
		if d, ok := m.downloads[id]; ok && d.UserID == userID {
			out[id] = d.SongID
		}
	}
	return out, nil
}

func (m memLibrary) List(ctx context.Context, userID string, limit, offset int) ([]*model.LibraryItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	items := []*model.LibraryItem{}
	for _, r := range m.refs {
		if r.UserID != userID {
			continue
		}
		item := &model.LibraryItem{LibraryReference: *r, Song: *m.songs[r.SongID]}
		for _, d := range m.downloads {
			if d.UserID == userID && d.SongID == r.SongID {
				cp := *d
				item.Download = &cp
				item.Downloaded = true
			}
		}
		items = append(items, item)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Song.ExternalID < items[j].Song.ExternalID })
	return items, nil
}

func (m memLibrary) ExternalIDs(ctx context.Context, userID string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := []string{}
	for _, r := range m.refs {
		if r.UserID == userID {
			ids = append(ids, m.songs[r.SongID].ExternalID)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

type memDownloads struct{ *memStore }

func (m memDownloads) Find(ctx context.Context, userID, songID string) (*model.DownloadRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, d := range m.downloads {
		if d.UserID == userID && d.SongID == songID {
			cp := *d
			return &cp, nil
		}
	}
	return nil, apperrors.New(apperrors.CodeNotFound, "download record not found")
}

func (m memDownloads) Insert(ctx context.Context, userID, songID string) (*model.DownloadRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, d := range m.downloads {
		if d.UserID == userID && d.SongID == songID {
			return nil, apperrors.New(apperrors.CodeConflict, "song is already downloaded")
		}
	}
	d := &model.DownloadRecord{ID: uuid.NewString(), UserID: userID, SongID: songID, DownloadedAt: time.Now()}
	m.downloads[d.ID] = d
	cp := *d
	return &cp, nil
}

func (m memDownloads) Upsert(ctx context.Context, userID, songID string, artifact download.Artifact) (*model.DownloadRecord, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	url, size := artifact.URL, artifact.FileSizeBytes
	for _, d := range m.downloads {
		if d.UserID == userID && d.SongID == songID {
			d.ArtifactURL, d.FileSizeBytes = &url, &size
			cp := *d
			return &cp, false, nil
		}
	}
	d := &model.DownloadRecord{ID: uuid.NewString(), UserID: userID, SongID: songID, DownloadedAt: time.Now(), ArtifactURL: &url, FileSizeBytes: &size}
	m.downloads[d.ID] = d
	cp := *d
	return &cp, true, nil
}

func (m memDownloads) Delete(ctx context.Context, userID string, ids []string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for id, d := range m.downloads {
		if d.UserID != userID {
			continue
		}
		match := contains(ids, id)
		for _, refID := range ids {
			if r, ok := m.refs[refID]; ok && r.UserID == userID && r.SongID == d.SongID {
				match = true
			}
		}
		if match {
			delete(m.downloads, id)
			n++
		}
	}
	return n, nil
}

func (m memDownloads) DeleteBySongIDs(ctx context.Context, userID string, songIDs []string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for id, d := range m.downloads {
		if d.UserID == userID && contains(songIDs, d.SongID) {
			delete(m.downloads, id)
			n++
		}
	}
	return n, nil
}

func (m memDownloads) List(ctx context.Context, userID string, limit, offset int) ([]*model.DownloadItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	items := []*model.DownloadItem{}
	for _, d := range m.downloads {
		if d.UserID == userID {
			items = append(items, &model.DownloadItem{DownloadRecord: *d, Song: *m.songs[d.SongID]})
		}
	}
	return items, nil
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

type fakeEncoder struct {
	calls   int
	err     error
	cleanup *audio.CleanupResult
	retain  time.Duration
}

func (f *fakeEncoder) Encode(ctx context.Context, src audio.Source) (*audio.Artifact, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	name := audio.FileName(src.Title, src.ExternalID, "mp3")
	return &audio.Artifact{FileName: name, URL: "/downloads/" + name, SizeBytes: 4096, Reused: f.calls > 1}, nil
}

func (f *fakeEncoder) Cleanup(ctx context.Context, olderThan time.Duration) (*audio.CleanupResult, error) {
	f.retain = olderThan
	return f.cleanup, nil
}
