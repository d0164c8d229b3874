// Package mockmail provides a deterministic mail source used when no
// Gmail credentials are configured and as the fallback when a live
// fetch fails. Its output is stable across runs so repeated ingestion
// deduplicates to zero new messages.
package mockmail

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"echoloop/internal/domain"
)

const SourceName = "mock"

// receivedStep is the fixed gap between consecutive synthetic messages,
// counted backward from now.
const receivedStep = 3 * time.Hour

var subjects = []string{
	"Team Meeting Next Week",
	"Quarterly Report Due",
	"New Project Proposal",
	"Website Update Progress",
	"Budget Review Meeting",
	"Client Feedback on Latest Release",
	"Holiday Schedule",
	"Office Maintenance Notice",
	"Training Session: New Tools",
	"Welcome to the Team!",
}

var senders = []string{
	"John Doe <john.doe@example.com>",
	"Jane Smith <jane.smith@example.com>",
	"Project Team <project@example.com>",
	"HR Department <hr@example.com>",
	"Tech Support <support@example.com>",
}

var bodies = []string{
	"Please review the attached documents before our meeting on Friday.",
	"I wanted to follow up on our conversation yesterday. Can we schedule a call to discuss next steps?",
	"The quarterly report is due next week. Please make sure to submit your section by Wednesday.",
	"We're excited to announce that we'll be launching the new website next month. Here are some previews.",
	"There will be scheduled maintenance this weekend. Please save all your work before leaving on Friday.",
}

type Source struct {
	now    func() time.Time
	logger *slog.Logger
}

func New(logger *slog.Logger) *Source {
	return &Source{
		now:    time.Now,
		logger: logger.With("source", SourceName),
	}
}

// NewWithClock is used by tests that need a fixed time base.
func NewWithClock(logger *slog.Logger, now func() time.Time) *Source {
	s := New(logger)
	s.now = now
	return s
}

func (s *Source) Name() string {
	return SourceName
}

// FetchUnread returns up to maxResults synthetic messages with strictly
// decreasing received timestamps. sinceDays is ignored; the synthetic
// window is always recent. It never fails.
func (s *Source) FetchUnread(ctx context.Context, sinceDays, maxResults int) ([]domain.Message, error) {
	count := maxResults
	if count > len(subjects) {
		count = len(subjects)
	}
	if count < 0 {
		count = 0
	}

	now := s.now().UTC()
	msgs := make([]domain.Message, 0, count)
	for i := 0; i < count; i++ {
		msgs = append(msgs, domain.Message{
			ExternalID: fmt.Sprintf("mock-%04d", i+1),
			Sender:     senders[i%len(senders)],
			Subject:    subjects[i],
			Body:       bodies[i%len(bodies)],
			ReceivedAt: now.Add(-time.Duration(i) * receivedStep),
		})
	}

	s.logger.Debug("generated mock messages", "count", len(msgs))
	return msgs, nil
}
