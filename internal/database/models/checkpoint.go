package models

import "time"

// Checkpoint is the singleton sync_meta row. LastUpdateID is the exclusive
// progress cursor for the upstream fetch offset and only ever moves forward.
type Checkpoint struct {
	LastSync     time.Time
	LastUpdateID int64
	TotalPosts   int
}
