package model

import "time"

// Report is the ledger record written each time a usage report is generated.
// URL holds the self-contained artifact URI.
type Report struct {
	ID        string    `json:"id"        db:"id"`
	UserID    int64     `json:"userId"    db:"user_id"`
	Title     string    `json:"title"     db:"title"`
	URL       string    `json:"url"       db:"url"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}
