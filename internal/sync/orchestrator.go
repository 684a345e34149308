package sync

import (
	"context"
	"errors"
	"log"
	"math"
	"time"

	sentry "github.com/getsentry/sentry-go"
	"github.com/mymmrac/telego"

	"telegram-sync/internal/database"
	"telegram-sync/pkg/telegoapi"
)

const syncMethod = "bot_api"

// Summary is the result of one sync run, surfaced as-is by the manual
// trigger endpoint.
type Summary struct {
	Success  bool   `json:"success"`
	Synced   int    `json:"synced"`
	Method   string `json:"method"`
	NextSync string `json:"nextSync,omitempty"`
	Error    string `json:"error,omitempty"`
}

// PostProcessor writes one admitted post. Implemented by Upserter.
type PostProcessor interface {
	Upsert(ctx context.Context, store database.SyncStore, message *telego.Message) error
}

// Orchestrator drives one incremental sync run: checkpoint read, bounded
// batch fetch, filtering, sequential per-post processing and monotonic
// checkpoint advancement.
type Orchestrator struct {
	provider   database.StoreProvider
	source     telegoapi.UpdateSource
	filter     *Filter
	processor  PostProcessor
	batchLimit int
	interval   time.Duration
}

// NewOrchestrator creates the sync orchestrator.
func NewOrchestrator(
	provider database.StoreProvider,
	source telegoapi.UpdateSource,
	filter *Filter,
	processor PostProcessor,
	batchLimit int,
	interval time.Duration,
) *Orchestrator {
	if provider == nil {
		log.Fatal("Sync Orchestrator: store provider is nil")
	}
	if source == nil {
		log.Fatal("Sync Orchestrator: update source is nil")
	}
	if filter == nil {
		log.Fatal("Sync Orchestrator: filter is nil")
	}
	if processor == nil {
		log.Fatal("Sync Orchestrator: post processor is nil")
	}
	return &Orchestrator{
		provider:   provider,
		source:     source,
		filter:     filter,
		processor:  processor,
		batchLimit: batchLimit,
		interval:   interval,
	}
}

// Run executes one sync pass. Failures in fetching or checkpoint persistence
// abort the run; failures in individual posts are logged and retried next
// run because the cursor does not advance past them.
func (o *Orchestrator) Run(ctx context.Context) Summary {
	store, err := o.provider.Acquire(ctx)
	if err != nil {
		return o.fail(err)
	}
	defer func() {
		if releaseErr := store.Release(); releaseErr != nil {
			log.Printf("Error releasing DB connection: %v", releaseErr)
		} else {
			log.Println("DB connection released")
		}
	}()

	checkpoint, err := store.GetCheckpoint(ctx)
	if err != nil {
		return o.fail(err)
	}
	if !checkpoint.LastSync.IsZero() {
		log.Printf("Minutes since last sync: %.1f", time.Since(checkpoint.LastSync).Minutes())
	}

	// Strictly forward when a cursor exists, otherwise bootstrap from the
	// most recent batchLimit updates.
	offset := -o.batchLimit
	if checkpoint.LastUpdateID > 0 {
		offset = int(checkpoint.LastUpdateID) + 1
	}
	log.Printf("Starting Bot API sync, last_update_id: %d", checkpoint.LastUpdateID)

	updates, err := o.source.GetUpdates(ctx, &telego.GetUpdatesParams{
		Offset: offset,
		Limit:  o.batchLimit,
	})
	if err != nil {
		return o.fail(err)
	}
	log.Printf("Received %d updates from Telegram", len(updates))

	admitted := o.filter.Apply(updates)
	log.Printf("Found %d channel posts after filtering", len(admitted))

	synced := 0
	firstFailedID := int64(math.MaxInt64)
	for _, adm := range admitted {
		err := o.processor.Upsert(ctx, store, adm.Message)
		switch {
		case err == nil:
			synced++
		case errors.Is(err, ErrPostSkipped):
			log.Printf("Skipping post %d: %v", adm.Message.MessageID, err)
		default:
			log.Printf("Error processing post %d: %v", adm.Message.MessageID, err)
			sentry.CaptureException(err)
			if adm.UpdateID < firstFailedID {
				firstFailedID = adm.UpdateID
			}
		}
	}

	// Advance to the highest update id strictly below the first failure.
	// Filtered-out and skipped updates count as consumed; a failed post
	// blocks the cursor so it is retried next run.
	maxUpdateID := checkpoint.LastUpdateID
	for _, update := range updates {
		id := int64(update.UpdateID)
		if id < firstFailedID && id > maxUpdateID {
			maxUpdateID = id
		}
	}
	if maxUpdateID > checkpoint.LastUpdateID {
		if err := store.AdvanceUpdateID(ctx, maxUpdateID); err != nil {
			return o.fail(err)
		}
	}

	if err := store.FinishRun(ctx); err != nil {
		return o.fail(err)
	}

	log.Printf("Successfully synced %d posts, last_update_id: %d", synced, maxUpdateID)
	return Summary{
		Success:  true,
		Synced:   synced,
		Method:   syncMethod,
		NextSync: time.Now().Add(o.interval).UTC().Format(time.RFC3339),
	}
}

func (o *Orchestrator) fail(err error) Summary {
	log.Printf("Sync error: %v", err)
	sentry.CaptureException(err)
	return Summary{Success: false, Synced: 0, Method: syncMethod, Error: err.Error()}
}
