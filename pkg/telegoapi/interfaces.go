package telegoapi

import (
	"context"

	"github.com/mymmrac/telego"
)

// UpdateSource defines the update-fetching surface of the Telegram Bot API
// used by the sync engine. This allows using both the real telego.Bot and mocks.
type UpdateSource interface {
	GetUpdates(ctx context.Context, params *telego.GetUpdatesParams) ([]telego.Update, error)
}

// FileAPI defines the file-resolution surface used by the media pipeline.
type FileAPI interface {
	GetFile(ctx context.Context, params *telego.GetFileParams) (*telego.File, error)
}
