package search

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/Taichi-iskw/ytshelf/internal/model"
	"github.com/Taichi-iskw/ytshelf/internal/service/extraction"
)

type mockProvider struct {
	mock.Mock
}

func (m *mockProvider) Name() string { return "mock" }

func (m *mockProvider) LookupVideo(ctx context.Context, videoURL string) (*model.VideoRecord, error) {
	args := m.Called(ctx, videoURL)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.VideoRecord), args.Error(1)
}

func (m *mockProvider) SearchVideos(ctx context.Context, query string, limit int) ([]model.VideoRecord, error) {
	args := m.Called(ctx, query, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.VideoRecord), args.Error(1)
}

type mockExtractor struct {
	mock.Mock
}

func (m *mockExtractor) Extract(ctx context.Context, target string, opts extraction.Options) (*extraction.Extraction, error) {
	args := m.Called(ctx, target, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*extraction.Extraction), args.Error(1)
}

func (m *mockExtractor) Available() error {
	return m.Called().Error(0)
}

type mockLibrary struct {
	mock.Mock
}

func (m *mockLibrary) LibraryExternalIDs(ctx context.Context, userID string) ([]string, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}
