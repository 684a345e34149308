package sync

import (
	"context"

	"github.com/mymmrac/telego"
	"github.com/stretchr/testify/mock"

	"telegram-sync/internal/database"
	"telegram-sync/internal/database/models"
	"telegram-sync/internal/media"
)

// MockSyncStore is a mock implementing database.SyncStore
type MockSyncStore struct {
	mock.Mock
}

func (m *MockSyncStore) GetCheckpoint(ctx context.Context) (models.Checkpoint, error) {
	args := m.Called(ctx)
	return args.Get(0).(models.Checkpoint), args.Error(1)
}

func (m *MockSyncStore) AdvanceUpdateID(ctx context.Context, updateID int64) error {
	args := m.Called(ctx, updateID)
	return args.Error(0)
}

func (m *MockSyncStore) FinishRun(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockSyncStore) UpsertPost(ctx context.Context, post *models.Post) error {
	args := m.Called(ctx, post)
	return args.Error(0)
}

func (m *MockSyncStore) SetLocalImage(ctx context.Context, postID, localPath string) error {
	args := m.Called(ctx, postID, localPath)
	return args.Error(0)
}

func (m *MockSyncStore) ReplaceHashtags(ctx context.Context, postID string, tags []string) error {
	args := m.Called(ctx, postID, tags)
	return args.Error(0)
}

func (m *MockSyncStore) Release() error {
	args := m.Called()
	return args.Error(0)
}

// MockStoreProvider is a mock implementing database.StoreProvider
type MockStoreProvider struct {
	mock.Mock
}

func (m *MockStoreProvider) Acquire(ctx context.Context) (database.SyncStore, error) {
	args := m.Called(ctx)
	if store, ok := args.Get(0).(database.SyncStore); ok {
		return store, args.Error(1)
	}
	return nil, args.Error(1)
}

// MockUpdateSource is a mock implementing telegoapi.UpdateSource
type MockUpdateSource struct {
	mock.Mock
}

func (m *MockUpdateSource) GetUpdates(ctx context.Context, params *telego.GetUpdatesParams) ([]telego.Update, error) {
	args := m.Called(ctx, params)
	if updates, ok := args.Get(0).([]telego.Update); ok {
		return updates, args.Error(1)
	}
	return nil, args.Error(1)
}

// MockResolver is a mock implementing MediaResolver
type MockResolver struct {
	mock.Mock
}

func (m *MockResolver) ResolveAndMirror(ctx context.Context, fileID, postKey string) media.Resolution {
	args := m.Called(ctx, fileID, postKey)
	return args.Get(0).(media.Resolution)
}

// MockProcessor is a mock implementing PostProcessor
type MockProcessor struct {
	mock.Mock
}

func (m *MockProcessor) Upsert(ctx context.Context, store database.SyncStore, message *telego.Message) error {
	args := m.Called(ctx, store, message)
	return args.Error(0)
}
