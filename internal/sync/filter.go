package sync

import (
	"log"
	"strconv"

	"github.com/mymmrac/telego"
)

const pollTypeQuiz = "quiz"

// Policy configures which channel posts are admitted for syncing.
type Policy struct {
	// ChatID is the target channel identity, compared string-normalized
	// against each post's chat id.
	ChatID string
	// AllowForwards admits forwarded posts at all.
	AllowForwards bool
	// AllowedForwardChannelIDs, when non-empty, restricts forwarded posts to
	// these source channel identities.
	AllowedForwardChannelIDs []string
}

// Admitted is one update that passed all eligibility rules.
type Admitted struct {
	UpdateID int64
	Message  *telego.Message
}

// Filter applies the eligibility rules to raw update batches.
type Filter struct {
	policy         Policy
	allowedSources map[string]struct{}
}

// NewFilter creates a filter for the given policy.
func NewFilter(policy Policy) *Filter {
	allowed := make(map[string]struct{}, len(policy.AllowedForwardChannelIDs))
	for _, id := range policy.AllowedForwardChannelIDs {
		allowed[id] = struct{}{}
	}
	return &Filter{policy: policy, allowedSources: allowed}
}

// Apply returns the admitted posts of a batch in arrival order. Albums are
// collapsed to their first message, which carries the caption.
func (f *Filter) Apply(updates []telego.Update) []Admitted {
	var admitted []Admitted
	seenMediaGroups := make(map[string]struct{})

	for _, update := range updates {
		post := update.ChannelPost
		if post == nil {
			continue
		}
		if strconv.FormatInt(post.Chat.ID, 10) != f.policy.ChatID {
			continue
		}

		if post.ForwardOrigin != nil {
			if !f.policy.AllowForwards {
				log.Printf("Skipping forwarded post %d (forwards disabled)", post.MessageID)
				continue
			}
			if len(f.allowedSources) > 0 {
				sourceID, ok := forwardSourceID(post)
				if !ok {
					log.Printf("Skipping forwarded post %d (unknown source)", post.MessageID)
					continue
				}
				if _, allowed := f.allowedSources[sourceID]; !allowed {
					log.Printf("Skipping forwarded post %d (source %s not allowed)", post.MessageID, sourceID)
					continue
				}
			}
		}

		if post.Poll != nil && post.Poll.Type == pollTypeQuiz {
			log.Printf("Skipping quiz poll (message_id: %d)", post.MessageID)
			continue
		}

		if post.MediaGroupID != "" {
			if _, seen := seenMediaGroups[post.MediaGroupID]; seen {
				log.Printf("Skipping album image %d (media_group_id=%s)", post.MessageID, post.MediaGroupID)
				continue
			}
			seenMediaGroups[post.MediaGroupID] = struct{}{}
		}

		admitted = append(admitted, Admitted{UpdateID: int64(update.UpdateID), Message: post})
	}

	return admitted
}

// forwardSourceID resolves the source channel identity of a forwarded post,
// trying the forward-origin channel chat first and the sender chat second.
func forwardSourceID(post *telego.Message) (string, bool) {
	switch origin := post.ForwardOrigin.(type) {
	case *telego.MessageOriginChannel:
		return strconv.FormatInt(origin.Chat.ID, 10), true
	case *telego.MessageOriginChat:
		return strconv.FormatInt(origin.SenderChat.ID, 10), true
	default:
		return "", false
	}
}
