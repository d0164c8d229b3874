package service

//go:generate mockgen -source=interfaces.go -destination=mocks/mocks.go -package=mocks

import (
	"context"

	"echoloop/internal/domain"
)

// MailSource fetches unread messages received within the last
// sinceDays days, at most maxResults of them, in provider order.
type MailSource interface {
	Name() string
	FetchUnread(ctx context.Context, sinceDays, maxResults int) ([]domain.Message, error)
}

// Summarizer turns a message into newline-delimited bullet points.
type Summarizer interface {
	Name() string
	Summarize(ctx context.Context, subject, body string, maxWords int) (string, error)
}

type MessageStore interface {
	ExistsByExternalID(ctx context.Context, externalID string) (bool, error)
	Create(ctx context.Context, msg *domain.Message) (*domain.Message, error)
}

type SummaryStore interface {
	Create(ctx context.Context, text string, messageID int64) (*domain.Summary, error)
	ListWithMessages(ctx context.Context, offset, limit int) ([]domain.MessageWithSummary, error)
	MarkSeen(ctx context.Context, summaryID int64) error
}

// Notifier delivers one new-summary event to an external audience.
// Failures are logged by the pipeline, never propagated.
type Notifier interface {
	NotifyNewSummary(ctx context.Context, item domain.MessageWithSummary) error
}
