package model

import "time"

// ActivityType names the kind of event recorded for a user.
// The set is open: types other than the constants below are stored and
// listed as-is.
type ActivityType string

const (
	ActivityLogin       ActivityType = "LOGIN"
	ActivityPDFDownload ActivityType = "PDF_DOWNLOAD"
)

// Activity is an immutable event in a user's history.
//
// Timestamp is when the event happened; CreatedAt is when it was stored.
type Activity struct {
	ID        string       `json:"id"        db:"id"`
	UserID    int64        `json:"userId"    db:"user_id"`
	Type      ActivityType `json:"type"      db:"type"`
	Title     string       `json:"title"     db:"title"`
	Details   string       `json:"details"   db:"details"`
	Timestamp time.Time    `json:"timestamp" db:"timestamp"`
	CreatedAt time.Time    `json:"createdAt" db:"created_at"`
}
