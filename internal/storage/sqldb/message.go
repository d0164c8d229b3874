package sqldb

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"echoloop/internal/domain"
)

type MessageStore struct {
	db *sqlx.DB
}

func NewMessageStore(db *sqlx.DB) *MessageStore {
	return &MessageStore{db: db}
}

func (s *MessageStore) ExistsByExternalID(ctx context.Context, externalID string) (bool, error) {
	var one int
	query := s.db.Rebind(`SELECT 1 FROM messages WHERE external_id = ? LIMIT 1`)

	err := s.db.QueryRowContext(ctx, query, externalID).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check message exists: %w", err)
	}
	return true, nil
}

// Create inserts msg, assigning the surrogate id and creation
// timestamp. A collision on external_id surfaces as
// domain.ErrDuplicateMessage so concurrent runs can treat it as a
// normal skip.
func (s *MessageStore) Create(ctx context.Context, msg *domain.Message) (*domain.Message, error) {
	msg.CreatedAt = time.Now().UTC()

	query := s.db.Rebind(`
		INSERT INTO messages (external_id, sender, subject, body, received_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		RETURNING id`)

	err := s.db.QueryRowContext(ctx, query,
		msg.ExternalID,
		msg.Sender,
		msg.Subject,
		msg.Body,
		msg.ReceivedAt,
		msg.CreatedAt,
	).Scan(&msg.ID)

	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("message %s: %w", msg.ExternalID, domain.ErrDuplicateMessage)
		}
		return nil, fmt.Errorf("insert message: %w", err)
	}

	return msg, nil
}
