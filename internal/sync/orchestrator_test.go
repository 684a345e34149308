package sync

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mymmrac/telego"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"telegram-sync/internal/database/models"
)

const (
	testBatchLimit = 100
	testInterval   = 15 * time.Minute
)

func newTestOrchestrator(provider *MockStoreProvider, source *MockUpdateSource, processor *MockProcessor) *Orchestrator {
	return NewOrchestrator(provider, source, NewFilter(testPolicy()), processor, testBatchLimit, testInterval)
}

func setupRun(checkpoint models.Checkpoint, updates []telego.Update) (*MockStoreProvider, *MockUpdateSource, *MockSyncStore) {
	store := new(MockSyncStore)
	store.On("GetCheckpoint", mock.Anything).Return(checkpoint, nil)
	store.On("FinishRun", mock.Anything).Return(nil)
	store.On("Release").Return(nil)

	provider := new(MockStoreProvider)
	provider.On("Acquire", mock.Anything).Return(store, nil)

	source := new(MockUpdateSource)
	source.On("GetUpdates", mock.Anything, mock.Anything).Return(updates, nil)

	return provider, source, store
}

func TestRun_HappyPath(t *testing.T) {
	updates := []telego.Update{channelPost(43, 1), channelPost(44, 2), channelPost(45, 3)}
	provider, source, store := setupRun(models.Checkpoint{LastUpdateID: 42}, updates)
	store.On("AdvanceUpdateID", mock.Anything, int64(45)).Return(nil)

	processor := new(MockProcessor)
	processor.On("Upsert", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	summary := newTestOrchestrator(provider, source, processor).Run(context.Background())

	assert.True(t, summary.Success)
	assert.Equal(t, 3, summary.Synced)
	assert.Equal(t, "bot_api", summary.Method)
	assert.NotEmpty(t, summary.NextSync)
	store.AssertExpectations(t)
}

func TestRun_ForwardOffsetFromCheckpoint(t *testing.T) {
	provider, source, _ := setupRun(models.Checkpoint{LastUpdateID: 42}, nil)

	newTestOrchestrator(provider, source, new(MockProcessor)).Run(context.Background())

	source.AssertCalled(t, "GetUpdates", mock.Anything,
		&telego.GetUpdatesParams{Offset: 43, Limit: testBatchLimit})
}

func TestRun_BootstrapOffset(t *testing.T) {
	provider, source, _ := setupRun(models.Checkpoint{}, nil)

	newTestOrchestrator(provider, source, new(MockProcessor)).Run(context.Background())

	source.AssertCalled(t, "GetUpdates", mock.Anything,
		&telego.GetUpdatesParams{Offset: -testBatchLimit, Limit: testBatchLimit})
}

// The cursor stops right before the first failed post, so the failure is
// retried next run.
func TestRun_CursorStopsAtFirstFailure(t *testing.T) {
	updates := []telego.Update{channelPost(43, 1), channelPost(44, 2), channelPost(45, 3)}
	provider, source, store := setupRun(models.Checkpoint{LastUpdateID: 42}, updates)
	store.On("AdvanceUpdateID", mock.Anything, int64(43)).Return(nil)

	processor := new(MockProcessor)
	processor.On("Upsert", mock.Anything, mock.Anything, updates[0].ChannelPost).Return(nil)
	processor.On("Upsert", mock.Anything, mock.Anything, updates[1].ChannelPost).Return(errors.New("storage hiccup"))
	processor.On("Upsert", mock.Anything, mock.Anything, updates[2].ChannelPost).Return(nil)

	summary := newTestOrchestrator(provider, source, processor).Run(context.Background())

	// One failed post does not abort the batch.
	assert.True(t, summary.Success)
	assert.Equal(t, 2, summary.Synced)
	store.AssertCalled(t, "AdvanceUpdateID", mock.Anything, int64(43))
	store.AssertNotCalled(t, "AdvanceUpdateID", mock.Anything, int64(45))
}

func TestRun_SkippedPostsAdvanceCursor(t *testing.T) {
	updates := []telego.Update{channelPost(43, 1), channelPost(44, 2)}
	provider, source, store := setupRun(models.Checkpoint{LastUpdateID: 42}, updates)
	store.On("AdvanceUpdateID", mock.Anything, int64(44)).Return(nil)

	processor := new(MockProcessor)
	processor.On("Upsert", mock.Anything, mock.Anything, updates[0].ChannelPost).
		Return(errors.Join(ErrPostSkipped, errors.New("quiz poll")))
	processor.On("Upsert", mock.Anything, mock.Anything, updates[1].ChannelPost).Return(nil)

	summary := newTestOrchestrator(provider, source, processor).Run(context.Background())

	assert.True(t, summary.Success)
	// Skipped posts are consumed but not counted.
	assert.Equal(t, 1, summary.Synced)
	store.AssertCalled(t, "AdvanceUpdateID", mock.Anything, int64(44))
}

func TestRun_FilteredUpdatesAdvanceCursor(t *testing.T) {
	foreign := channelPost(43, 1)
	foreign.ChannelPost.Chat.ID = -100999
	provider, source, store := setupRun(models.Checkpoint{LastUpdateID: 42}, []telego.Update{foreign})
	store.On("AdvanceUpdateID", mock.Anything, int64(43)).Return(nil)

	summary := newTestOrchestrator(provider, source, new(MockProcessor)).Run(context.Background())

	assert.True(t, summary.Success)
	assert.Equal(t, 0, summary.Synced)
	store.AssertCalled(t, "AdvanceUpdateID", mock.Anything, int64(43))
}

func TestRun_EmptyBatchStillFinishesRun(t *testing.T) {
	provider, source, store := setupRun(models.Checkpoint{LastUpdateID: 42, LastSync: time.Now()}, nil)

	summary := newTestOrchestrator(provider, source, new(MockProcessor)).Run(context.Background())

	assert.True(t, summary.Success)
	assert.Equal(t, 0, summary.Synced)
	store.AssertCalled(t, "FinishRun", mock.Anything)
	store.AssertNotCalled(t, "AdvanceUpdateID", mock.Anything, mock.Anything)
}

func TestRun_FetchFailureAbortsRun(t *testing.T) {
	store := new(MockSyncStore)
	store.On("GetCheckpoint", mock.Anything).Return(models.Checkpoint{LastUpdateID: 42}, nil)
	store.On("Release").Return(nil)

	provider := new(MockStoreProvider)
	provider.On("Acquire", mock.Anything).Return(store, nil)

	source := new(MockUpdateSource)
	source.On("GetUpdates", mock.Anything, mock.Anything).
		Return(nil, errors.New("telegram API error: bad gateway"))

	summary := newTestOrchestrator(provider, source, new(MockProcessor)).Run(context.Background())

	assert.False(t, summary.Success)
	assert.Equal(t, 0, summary.Synced)
	assert.Contains(t, summary.Error, "bad gateway")
	// Connection is still released and the checkpoint is untouched.
	store.AssertCalled(t, "Release")
	store.AssertNotCalled(t, "AdvanceUpdateID", mock.Anything, mock.Anything)
	store.AssertNotCalled(t, "FinishRun", mock.Anything)
}

func TestRun_AcquireFailure(t *testing.T) {
	provider := new(MockStoreProvider)
	provider.On("Acquire", mock.Anything).Return(nil, errors.New("pool exhausted"))

	summary := newTestOrchestrator(provider, new(MockUpdateSource), new(MockProcessor)).Run(context.Background())

	assert.False(t, summary.Success)
	assert.Contains(t, summary.Error, "pool exhausted")
}

func TestRun_CheckpointPersistFailureAbortsRun(t *testing.T) {
	updates := []telego.Update{channelPost(43, 1)}
	provider, source, store := setupRun(models.Checkpoint{LastUpdateID: 42}, updates)
	store.On("AdvanceUpdateID", mock.Anything, int64(43)).Return(errors.New("connection reset"))

	processor := new(MockProcessor)
	processor.On("Upsert", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	summary := newTestOrchestrator(provider, source, processor).Run(context.Background())

	assert.False(t, summary.Success)
	assert.Contains(t, summary.Error, "connection reset")
	store.AssertCalled(t, "Release")
}
