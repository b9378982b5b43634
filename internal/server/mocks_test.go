package server

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/Taichi-iskw/ytshelf/internal/model"
	"github.com/Taichi-iskw/ytshelf/internal/service/audio"
)

type mockSearcher struct {
	mock.Mock
}

func (m *mockSearcher) Search(ctx context.Context, query, userID string) (*model.SearchResult, error) {
	args := m.Called(ctx, query, userID)
	r, _ := args.Get(0).(*model.SearchResult)
	return r, args.Error(1)
}

type mockLibrary struct {
	mock.Mock
}

func (m *mockLibrary) Add(ctx context.Context, userID string, records []model.VideoRecord) (*model.AddResult, error) {
	args := m.Called(ctx, userID, records)
	r, _ := args.Get(0).(*model.AddResult)
	return r, args.Error(1)
}

func (m *mockLibrary) Download(ctx context.Context, userID string, ids []string) (*model.DownloadResult, error) {
	args := m.Called(ctx, userID, ids)
	r, _ := args.Get(0).(*model.DownloadResult)
	return r, args.Error(1)
}

func (m *mockLibrary) RemoveFromLibrary(ctx context.Context, userID string, ids []string) (*model.DeleteResult, error) {
	args := m.Called(ctx, userID, ids)
	r, _ := args.Get(0).(*model.DeleteResult)
	return r, args.Error(1)
}

func (m *mockLibrary) DeleteDownload(ctx context.Context, userID string, ids []string) (*model.DeleteResult, error) {
	args := m.Called(ctx, userID, ids)
	r, _ := args.Get(0).(*model.DeleteResult)
	return r, args.Error(1)
}

func (m *mockLibrary) DeleteCompletely(ctx context.Context, userID string, ids []string) (*model.DeleteResult, error) {
	args := m.Called(ctx, userID, ids)
	r, _ := args.Get(0).(*model.DeleteResult)
	return r, args.Error(1)
}

func (m *mockLibrary) Materialize(ctx context.Context, userID, id string) (*model.MaterializeResult, error) {
	args := m.Called(ctx, userID, id)
	r, _ := args.Get(0).(*model.MaterializeResult)
	return r, args.Error(1)
}

func (m *mockLibrary) ListLibrary(ctx context.Context, userID string, limit, offset int) ([]*model.LibraryItem, error) {
	args := m.Called(ctx, userID, limit, offset)
	r, _ := args.Get(0).([]*model.LibraryItem)
	return r, args.Error(1)
}

func (m *mockLibrary) ListDownloads(ctx context.Context, userID string, limit, offset int) ([]*model.DownloadItem, error) {
	args := m.Called(ctx, userID, limit, offset)
	r, _ := args.Get(0).([]*model.DownloadItem)
	return r, args.Error(1)
}

func (m *mockLibrary) LibraryExternalIDs(ctx context.Context, userID string) ([]string, error) {
	args := m.Called(ctx, userID)
	r, _ := args.Get(0).([]string)
	return r, args.Error(1)
}

func (m *mockLibrary) CleanupArtifacts(ctx context.Context) (*audio.CleanupResult, error) {
	args := m.Called(ctx)
	r, _ := args.Get(0).(*audio.CleanupResult)
	return r, args.Error(1)
}
