package models

import "time"

// Post is a normalized channel post persisted to the telegram_posts table.
// Identity is tg_<chatID>_<messageID>, stable across re-syncs of the same
// source message.
type Post struct {
	ID                string
	MessageID         int64
	Text              string
	Title             string
	Paragraph         string
	Date              time.Time
	ImageURL          string
	VideoURL          string
	TelegramLink      string
	AuthorName        string
	AuthorImage       string
	AuthorDesignation string
	ImageLocalPath    string
	ImageUploaded     bool
}
