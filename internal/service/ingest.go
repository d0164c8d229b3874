package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"echoloop/internal/domain"
)

type IngestConfig struct {
	FetchDays       int
	FetchLimit      int
	SummaryMaxWords int
}

// IngestService runs one fetch→dedup→summarize→persist→notify pass per
// call. It keeps no state between runs; callers that need mutual
// exclusion across overlapping runs must serialize Ingest themselves.
type IngestService struct {
	source     MailSource
	fallback   MailSource
	summarizer Summarizer
	messages   MessageStore
	summaries  SummaryStore
	notifiers  []Notifier
	logger     *slog.Logger
	config     IngestConfig
}

// NewIngestService wires the pipeline. fallback is consulted when
// source fails; pass the same value twice when the primary source is
// already the deterministic mock.
func NewIngestService(
	source MailSource,
	fallback MailSource,
	summarizer Summarizer,
	messages MessageStore,
	summaries SummaryStore,
	notifiers []Notifier,
	logger *slog.Logger,
	cfg IngestConfig,
) *IngestService {
	return &IngestService{
		source:     source,
		fallback:   fallback,
		summarizer: summarizer,
		messages:   messages,
		summaries:  summaries,
		notifiers:  notifiers,
		logger:     logger.With("source", source.Name()),
		config:     cfg,
	}
}

// Ingest processes one batch of candidates and returns the projections
// created during this run, in processing order. An empty result is a
// normal outcome. Only storage failures abort the run; messages and
// summaries persisted before the failure stay committed.
func (s *IngestService) Ingest(ctx context.Context) ([]domain.MessageWithSummary, error) {
	start := time.Now()

	candidates, err := s.source.FetchUnread(ctx, s.config.FetchDays, s.config.FetchLimit)
	if err != nil {
		// The fallback decision lives here, not inside the source:
		// a dead provider degrades to deterministic mock data so a
		// run always has well-formed input.
		s.logger.Warn("mail fetch failed, falling back to mock data",
			"error", err,
			"fallback", s.fallback.Name(),
		)
		candidates, err = s.fallback.FetchUnread(ctx, s.config.FetchDays, s.config.FetchLimit)
		if err != nil {
			return nil, fmt.Errorf("fallback fetch: %w", err)
		}
	}

	stats := domain.IngestStats{Fetched: len(candidates)}
	results := make([]domain.MessageWithSummary, 0, len(candidates))

	for i := range candidates {
		item, outcome, err := s.processCandidate(ctx, &candidates[i])
		if err != nil {
			// Storage is the one dependency with no local recovery.
			return results, fmt.Errorf("process message %s: %w", candidates[i].ExternalID, err)
		}

		switch outcome {
		case outcomeSkipped:
			stats.Skipped++
		case outcomeNoSummary:
			stats.New++
			stats.SummaryFailed++
		case outcomeCreated:
			stats.New++
			results = append(results, *item)
			stats.Notified += s.notify(ctx, *item)
		}
	}

	stats.Duration = time.Since(start)

	s.logger.Info("ingestion run completed",
		"fetched", stats.Fetched,
		"new", stats.New,
		"skipped", stats.Skipped,
		"summary_failed", stats.SummaryFailed,
		"notified", stats.Notified,
		"duration", stats.Duration,
	)

	return results, nil
}

type candidateOutcome int

const (
	outcomeSkipped candidateOutcome = iota
	outcomeNoSummary
	outcomeCreated
)

// processCandidate walks one candidate through dedup, persistence and
// summarization. The message row is never rolled back on summarization
// failure so the next run will not re-summarize it.
func (s *IngestService) processCandidate(ctx context.Context, candidate *domain.Message) (*domain.MessageWithSummary, candidateOutcome, error) {
	exists, err := s.messages.ExistsByExternalID(ctx, candidate.ExternalID)
	if err != nil {
		return nil, 0, fmt.Errorf("check existing: %w", err)
	}
	if exists {
		s.logger.Debug("message already known, skipping", "external_id", candidate.ExternalID)
		return nil, outcomeSkipped, nil
	}

	msg, err := s.messages.Create(ctx, candidate)
	if err != nil {
		if errors.Is(err, domain.ErrDuplicateMessage) {
			// Lost a race with a concurrent run; same as a dedup skip.
			return nil, outcomeSkipped, nil
		}
		return nil, 0, fmt.Errorf("create message: %w", err)
	}

	text, err := s.summarizer.Summarize(ctx, msg.Subject, msg.Body, s.config.SummaryMaxWords)
	if err != nil || text == "" {
		s.logger.Warn("summarization yielded no text, skipping summary",
			"external_id", msg.ExternalID,
			"backend", s.summarizer.Name(),
			"error", err,
		)
		return nil, outcomeNoSummary, nil
	}

	summary, err := s.summaries.Create(ctx, text, msg.ID)
	if err != nil {
		return nil, 0, fmt.Errorf("create summary: %w", err)
	}

	return &domain.MessageWithSummary{
		ID:          msg.ID,
		ExternalID:  msg.ExternalID,
		Sender:      msg.Sender,
		Subject:     msg.Subject,
		ReceivedAt:  msg.ReceivedAt,
		SummaryText: summary.Text,
		CreatedAt:   summary.CreatedAt,
		Seen:        summary.Seen,
		SummaryID:   summary.ID,
	}, outcomeCreated, nil
}

// notify hands the event to every sink. Delivery failures stay local.
func (s *IngestService) notify(ctx context.Context, item domain.MessageWithSummary) int {
	delivered := 0
	for _, n := range s.notifiers {
		if err := n.NotifyNewSummary(ctx, item); err != nil {
			s.logger.Warn("notification delivery failed", "summary_id", item.SummaryID, "error", err)
			continue
		}
		delivered++
	}
	return delivered
}
