package domain

import "time"

// Message is one mail item pulled from a source. ExternalID is the
// provider-assigned identifier and the natural key for deduplication;
// ID is assigned by the store on insert.
type Message struct {
	ID         int64     `db:"id" json:"id"`
	ExternalID string    `db:"external_id" json:"email_id"`
	Sender     string    `db:"sender" json:"sender"`
	Subject    string    `db:"subject" json:"subject"`
	Body       string    `db:"body" json:"-"`
	ReceivedAt time.Time `db:"received_at" json:"received_at"`
	CreatedAt  time.Time `db:"created_at" json:"-"`
}

// Summary holds the bullet-point digest of exactly one message.
type Summary struct {
	ID        int64     `db:"id" json:"summary_id"`
	MessageID int64     `db:"message_id" json:"message_id"`
	Text      string    `db:"summary_text" json:"summary_text"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	Seen      bool      `db:"seen" json:"seen"`
}

// MessageWithSummary is the joined projection returned by list queries,
// pipeline runs and notification payloads.
type MessageWithSummary struct {
	ID          int64     `db:"id" json:"id"`
	ExternalID  string    `db:"external_id" json:"email_id"`
	Sender      string    `db:"sender" json:"sender"`
	Subject     string    `db:"subject" json:"subject"`
	ReceivedAt  time.Time `db:"received_at" json:"received_at"`
	SummaryText string    `db:"summary_text" json:"summary_text"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	Seen        bool      `db:"seen" json:"seen"`
	SummaryID   int64     `db:"summary_id" json:"summary_id"`
}
