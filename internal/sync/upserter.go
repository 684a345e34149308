package sync

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/mymmrac/telego"

	"telegram-sync/internal/database"
	"telegram-sync/internal/database/models"
	"telegram-sync/internal/media"
	"telegram-sync/internal/textparse"
)

// ErrPostSkipped signals that a post was deliberately not written (quiz poll
// or suppression hashtag). Skipped posts still count as consumed for
// checkpoint advancement.
var ErrPostSkipped = errors.New("post skipped")

// MediaResolver is the media pipeline surface the upserter depends on.
type MediaResolver interface {
	ResolveAndMirror(ctx context.Context, fileID, postKey string) media.Resolution
}

// ChannelContext carries the static per-channel display fields and the
// operator policy applied to every post.
type ChannelContext struct {
	ChatID      string
	Name        string
	Avatar      string
	Designation string
	SkipHashtag string
}

// Upserter normalizes one admitted post and writes it idempotently.
type Upserter struct {
	resolver MediaResolver
	channel  ChannelContext
}

// NewUpserter creates a post upserter.
func NewUpserter(resolver MediaResolver, channel ChannelContext) *Upserter {
	if resolver == nil {
		log.Fatal("Post Upserter: media resolver is nil")
	}
	return &Upserter{resolver: resolver, channel: channel}
}

// Upsert writes message as a normalized post through the run's store.
// Returns ErrPostSkipped (wrapped) for posts that are deliberately not
// published; any other error means the content write failed and the post
// should be retried next run.
func (u *Upserter) Upsert(ctx context.Context, store database.SyncStore, message *telego.Message) error {
	if message.Poll != nil && message.Poll.Type == pollTypeQuiz {
		return fmt.Errorf("%w: quiz poll (message_id: %d)", ErrPostSkipped, message.MessageID)
	}

	fullText := message.Text
	if fullText == "" {
		fullText = message.Caption
	}

	hashtags := textparse.ExtractHashtags(fullText)
	if u.channel.SkipHashtag != "" && containsTag(hashtags, u.channel.SkipHashtag) {
		return fmt.Errorf("%w: suppressed by #%s (message_id: %d)",
			ErrPostSkipped, u.channel.SkipHashtag, message.MessageID)
	}

	title, paragraph := textparse.Decompose(fullText)

	postID := fmt.Sprintf("tg_%s_%d", u.channel.ChatID, message.MessageID)
	postKey := strconv.Itoa(message.MessageID)

	// Resolve the winning media reference. Resolution failure degrades to a
	// post without media, mirror failure to the Telegram CDN URL.
	ref := media.Classify(message)
	var resolution media.Resolution
	if ref.Kind != media.KindNone {
		resolution = u.resolver.ResolveAndMirror(ctx, ref.FileID, postKey)
	}

	post := &models.Post{
		ID:                postID,
		MessageID:         int64(message.MessageID),
		Text:              fullText,
		Title:             title,
		Paragraph:         paragraph,
		Date:              time.Unix(message.Date, 0).UTC(),
		TelegramLink:      telegramLink(u.channel.ChatID, message.MessageID),
		AuthorName:        u.channel.Name,
		AuthorImage:       u.channel.Avatar,
		AuthorDesignation: u.channel.Designation,
	}
	if ref.IsImage() {
		post.ImageURL = resolution.RemoteURL
	}
	if ref.IsVideo() {
		post.VideoURL = resolution.URL()
	}

	// Content first; media enrichment and hashtags follow and never roll the
	// row back.
	if err := store.UpsertPost(ctx, post); err != nil {
		return fmt.Errorf("failed to save post %d: %w", message.MessageID, err)
	}
	log.Printf("Post %d saved", message.MessageID)

	if ref.IsVideo() && ref.ThumbnailFileID != "" {
		thumb := u.resolver.ResolveAndMirror(ctx, ref.ThumbnailFileID, postKey)
		if thumb.Resolved() {
			if err := store.SetLocalImage(ctx, postID, thumb.DurableURL); err != nil {
				log.Printf("Error saving video thumbnail for post %d: %v", message.MessageID, err)
			} else {
				log.Printf("Video thumbnail mirrored for post %d: %s", message.MessageID, thumb.DurableURL)
			}
		}
	}

	if ref.IsImage() && resolution.Resolved() {
		if err := store.SetLocalImage(ctx, postID, resolution.DurableURL); err != nil {
			log.Printf("Error saving mirrored image for post %d: %v", message.MessageID, err)
		} else {
			log.Printf("Image mirrored for post %d: %s", message.MessageID, resolution.DurableURL)
		}
	}

	if err := store.ReplaceHashtags(ctx, postID, hashtags); err != nil {
		log.Printf("Error saving hashtags for post %d: %v", message.MessageID, err)
	}

	return nil
}

func containsTag(tags []string, wanted string) bool {
	for _, tag := range tags {
		if tag == wanted {
			return true
		}
	}
	return false
}

// telegramLink builds the canonical t.me link for a post: public channels by
// username, private ones through the t.me/c/ form with the -100 prefix cut.
func telegramLink(chatID string, messageID int) string {
	if strings.HasPrefix(chatID, "@") {
		return fmt.Sprintf("https://t.me/%s/%d", strings.TrimPrefix(chatID, "@"), messageID)
	}
	trimmed := chatID
	if len(trimmed) > 4 {
		trimmed = trimmed[4:]
	}
	return fmt.Sprintf("https://t.me/c/%s/%d", trimmed, messageID)
}
