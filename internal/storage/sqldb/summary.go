package sqldb

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"echoloop/internal/domain"
)

type SummaryStore struct {
	db *sqlx.DB
}

func NewSummaryStore(db *sqlx.DB) *SummaryStore {
	return &SummaryStore{db: db}
}

// Create inserts the summary for messageID with seen=false. The unique
// message_id constraint is the backstop for the one-summary-per-message
// invariant.
func (s *SummaryStore) Create(ctx context.Context, text string, messageID int64) (*domain.Summary, error) {
	summary := &domain.Summary{
		MessageID: messageID,
		Text:      text,
		CreatedAt: time.Now().UTC(),
		Seen:      false,
	}

	query := s.db.Rebind(`
		INSERT INTO summaries (message_id, summary_text, created_at, seen)
		VALUES (?, ?, ?, ?)
		RETURNING id`)

	err := s.db.QueryRowContext(ctx, query,
		summary.MessageID,
		summary.Text,
		summary.CreatedAt,
		summary.Seen,
	).Scan(&summary.ID)

	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("summary for message %d: %w", messageID, domain.ErrDuplicateMessage)
		}
		return nil, fmt.Errorf("insert summary: %w", err)
	}

	return summary, nil
}

// ListWithMessages returns joined projections ordered newest summary
// first. The id tiebreak keeps the order stable for summaries created
// within the same instant.
func (s *SummaryStore) ListWithMessages(ctx context.Context, offset, limit int) ([]domain.MessageWithSummary, error) {
	query := s.db.Rebind(`
		SELECT m.id, m.external_id, m.sender, m.subject, m.received_at,
		       s.summary_text, s.created_at, s.seen, s.id AS summary_id
		FROM messages m
		JOIN summaries s ON s.message_id = m.id
		ORDER BY s.created_at DESC, s.id DESC
		LIMIT ? OFFSET ?`)

	items := []domain.MessageWithSummary{}
	if err := s.db.SelectContext(ctx, &items, query, limit, offset); err != nil {
		return nil, fmt.Errorf("list summaries: %w", err)
	}

	return items, nil
}

// MarkSeen flips the seen flag to true. Idempotent; returns
// domain.ErrNotFound for unknown ids.
func (s *SummaryStore) MarkSeen(ctx context.Context, summaryID int64) error {
	query := s.db.Rebind(`UPDATE summaries SET seen = TRUE WHERE id = ?`)

	res, err := s.db.ExecContext(ctx, query, summaryID)
	if err != nil {
		return fmt.Errorf("mark summary seen: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("mark summary seen: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("summary %d: %w", summaryID, domain.ErrNotFound)
	}

	return nil
}
