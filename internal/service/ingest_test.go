package service

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"echoloop/internal/domain"
	"echoloop/internal/service/mocks"
)

type IngestServiceTestSuite struct {
	suite.Suite
	ctrl *gomock.Controller

	source     *mocks.MockMailSource
	fallback   *mocks.MockMailSource
	summarizer *mocks.MockSummarizer
	messages   *mocks.MockMessageStore
	summaries  *mocks.MockSummaryStore
	notifier   *mocks.MockNotifier

	service *IngestService
	cfg     IngestConfig
	logger  *slog.Logger
}

func (s *IngestServiceTestSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())

	s.source = mocks.NewMockMailSource(s.ctrl)
	s.fallback = mocks.NewMockMailSource(s.ctrl)
	s.summarizer = mocks.NewMockSummarizer(s.ctrl)
	s.messages = mocks.NewMockMessageStore(s.ctrl)
	s.summaries = mocks.NewMockSummaryStore(s.ctrl)
	s.notifier = mocks.NewMockNotifier(s.ctrl)

	s.cfg = IngestConfig{
		FetchDays:       7,
		FetchLimit:      10,
		SummaryMaxWords: 100,
	}

	s.logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

	s.source.EXPECT().Name().Return("gmail").AnyTimes()
	s.fallback.EXPECT().Name().Return("mock").AnyTimes()
	s.summarizer.EXPECT().Name().Return("test-backend").AnyTimes()

	s.service = NewIngestService(
		s.source,
		s.fallback,
		s.summarizer,
		s.messages,
		s.summaries,
		[]Notifier{s.notifier},
		s.logger,
		s.cfg,
	)
}

func (s *IngestServiceTestSuite) TearDownTest() {
	s.ctrl.Finish()
}

func TestIngestServiceTestSuite(t *testing.T) {
	suite.Run(t, new(IngestServiceTestSuite))
}

func (s *IngestServiceTestSuite) messageFixture(externalID, subject string, receivedAt time.Time) domain.Message {
	return domain.Message{
		ExternalID: externalID,
		Sender:     "alice@example.com",
		Subject:    subject,
		Body:       "body of " + subject,
		ReceivedAt: receivedAt,
	}
}

func (s *IngestServiceTestSuite) TestIngest_NewAndKnownMessages() {
	ctx := context.Background()
	now := time.Now()

	candidates := []domain.Message{
		s.messageFixture("m-1", "Meeting tomorrow", now),
		s.messageFixture("m-2", "Weekly report", now.Add(-time.Hour)),
		s.messageFixture("m-3", "Already seen", now.Add(-2*time.Hour)),
	}

	s.source.EXPECT().FetchUnread(ctx, 7, 10).Return(candidates, nil)

	s.messages.EXPECT().ExistsByExternalID(ctx, "m-1").Return(false, nil)
	s.messages.EXPECT().ExistsByExternalID(ctx, "m-2").Return(false, nil)
	s.messages.EXPECT().ExistsByExternalID(ctx, "m-3").Return(true, nil)

	for i, id := range []int64{11, 12} {
		msg := candidates[i]
		msg.ID = id
		s.messages.EXPECT().Create(ctx, &candidates[i]).Return(&msg, nil)
		s.summarizer.EXPECT().Summarize(ctx, msg.Subject, msg.Body, 100).Return("• point", nil)
		s.summaries.EXPECT().Create(ctx, "• point", id).Return(&domain.Summary{
			ID:        id + 100,
			MessageID: id,
			Text:      "• point",
			CreatedAt: now,
		}, nil)
	}

	var notified []int64
	s.notifier.EXPECT().NotifyNewSummary(ctx, gomock.Any()).DoAndReturn(
		func(_ context.Context, item domain.MessageWithSummary) error {
			notified = append(notified, item.SummaryID)
			return nil
		},
	).Times(2)

	results, err := s.service.Ingest(ctx)

	s.NoError(err)
	s.Len(results, 2)
	s.Equal("m-1", results[0].ExternalID)
	s.Equal("m-2", results[1].ExternalID)
	s.Equal([]int64{111, 112}, notified)
}

func (s *IngestServiceTestSuite) TestIngest_SecondRunSkipsEverything() {
	ctx := context.Background()
	now := time.Now()

	candidates := []domain.Message{
		s.messageFixture("m-1", "Meeting tomorrow", now),
		s.messageFixture("m-2", "Weekly report", now),
	}

	s.source.EXPECT().FetchUnread(ctx, 7, 10).Return(candidates, nil)
	s.messages.EXPECT().ExistsByExternalID(ctx, "m-1").Return(true, nil)
	s.messages.EXPECT().ExistsByExternalID(ctx, "m-2").Return(true, nil)

	results, err := s.service.Ingest(ctx)

	s.NoError(err)
	s.Empty(results)
}

func (s *IngestServiceTestSuite) TestIngest_SummarizerFailureKeepsMessage() {
	ctx := context.Background()
	now := time.Now()

	candidates := []domain.Message{s.messageFixture("m-1", "Broken", now)}

	s.source.EXPECT().FetchUnread(ctx, 7, 10).Return(candidates, nil)
	s.messages.EXPECT().ExistsByExternalID(ctx, "m-1").Return(false, nil)

	created := candidates[0]
	created.ID = 11
	s.messages.EXPECT().Create(ctx, &candidates[0]).Return(&created, nil)

	s.summarizer.EXPECT().Summarize(ctx, "Broken", created.Body, 100).Return("", errors.New("model offline"))

	// No summary row, no notification.
	results, err := s.service.Ingest(ctx)

	s.NoError(err)
	s.Empty(results)
}

func (s *IngestServiceTestSuite) TestIngest_EmptySummaryTreatedAsFailure() {
	ctx := context.Background()
	now := time.Now()

	candidates := []domain.Message{s.messageFixture("m-1", "Blank", now)}

	s.source.EXPECT().FetchUnread(ctx, 7, 10).Return(candidates, nil)
	s.messages.EXPECT().ExistsByExternalID(ctx, "m-1").Return(false, nil)

	created := candidates[0]
	created.ID = 11
	s.messages.EXPECT().Create(ctx, &candidates[0]).Return(&created, nil)

	s.summarizer.EXPECT().Summarize(ctx, "Blank", created.Body, 100).Return("", nil)

	results, err := s.service.Ingest(ctx)

	s.NoError(err)
	s.Empty(results)
}

func (s *IngestServiceTestSuite) TestIngest_DuplicateRaceCountsAsSkip() {
	ctx := context.Background()
	now := time.Now()

	candidates := []domain.Message{s.messageFixture("m-1", "Raced", now)}

	s.source.EXPECT().FetchUnread(ctx, 7, 10).Return(candidates, nil)
	s.messages.EXPECT().ExistsByExternalID(ctx, "m-1").Return(false, nil)
	s.messages.EXPECT().Create(ctx, &candidates[0]).Return(nil, domain.ErrDuplicateMessage)

	results, err := s.service.Ingest(ctx)

	s.NoError(err)
	s.Empty(results)
}

func (s *IngestServiceTestSuite) TestIngest_StorageErrorAbortsWithPartialResults() {
	ctx := context.Background()
	now := time.Now()

	candidates := []domain.Message{
		s.messageFixture("m-1", "Good one", now),
		s.messageFixture("m-2", "Bad one", now),
	}

	s.source.EXPECT().FetchUnread(ctx, 7, 10).Return(candidates, nil)

	s.messages.EXPECT().ExistsByExternalID(ctx, "m-1").Return(false, nil)
	created := candidates[0]
	created.ID = 11
	s.messages.EXPECT().Create(ctx, &candidates[0]).Return(&created, nil)
	s.summarizer.EXPECT().Summarize(ctx, "Good one", created.Body, 100).Return("• point", nil)
	s.summaries.EXPECT().Create(ctx, "• point", int64(11)).Return(&domain.Summary{ID: 111, MessageID: 11, Text: "• point"}, nil)
	s.notifier.EXPECT().NotifyNewSummary(ctx, gomock.Any()).Return(nil)

	s.messages.EXPECT().ExistsByExternalID(ctx, "m-2").Return(false, errors.New("db gone"))

	results, err := s.service.Ingest(ctx)

	s.Error(err)
	s.Contains(err.Error(), "process message m-2")
	s.Len(results, 1)
	s.Equal("m-1", results[0].ExternalID)
}

func (s *IngestServiceTestSuite) TestIngest_FetchErrorFallsBackToMock() {
	ctx := context.Background()
	now := time.Now()

	candidates := []domain.Message{s.messageFixture("mock-0001", "Mocked", now)}

	s.source.EXPECT().FetchUnread(ctx, 7, 10).Return(nil, errors.New("imap timeout"))
	s.fallback.EXPECT().FetchUnread(ctx, 7, 10).Return(candidates, nil)

	s.messages.EXPECT().ExistsByExternalID(ctx, "mock-0001").Return(false, nil)
	created := candidates[0]
	created.ID = 11
	s.messages.EXPECT().Create(ctx, &candidates[0]).Return(&created, nil)
	s.summarizer.EXPECT().Summarize(ctx, "Mocked", created.Body, 100).Return("• point", nil)
	s.summaries.EXPECT().Create(ctx, "• point", int64(11)).Return(&domain.Summary{ID: 111, MessageID: 11, Text: "• point"}, nil)
	s.notifier.EXPECT().NotifyNewSummary(ctx, gomock.Any()).Return(nil)

	results, err := s.service.Ingest(ctx)

	s.NoError(err)
	s.Len(results, 1)
}

func (s *IngestServiceTestSuite) TestIngest_BothSourcesFailing() {
	ctx := context.Background()

	s.source.EXPECT().FetchUnread(ctx, 7, 10).Return(nil, errors.New("imap timeout"))
	s.fallback.EXPECT().FetchUnread(ctx, 7, 10).Return(nil, errors.New("also broken"))

	results, err := s.service.Ingest(ctx)

	s.Error(err)
	s.Nil(results)
	s.Contains(err.Error(), "fallback fetch")
}

func (s *IngestServiceTestSuite) TestIngest_NotifierFailureDoesNotAbort() {
	ctx := context.Background()
	now := time.Now()

	candidates := []domain.Message{s.messageFixture("m-1", "Notify me", now)}

	s.source.EXPECT().FetchUnread(ctx, 7, 10).Return(candidates, nil)
	s.messages.EXPECT().ExistsByExternalID(ctx, "m-1").Return(false, nil)
	created := candidates[0]
	created.ID = 11
	s.messages.EXPECT().Create(ctx, &candidates[0]).Return(&created, nil)
	s.summarizer.EXPECT().Summarize(ctx, "Notify me", created.Body, 100).Return("• point", nil)
	s.summaries.EXPECT().Create(ctx, "• point", int64(11)).Return(&domain.Summary{ID: 111, MessageID: 11, Text: "• point"}, nil)
	s.notifier.EXPECT().NotifyNewSummary(ctx, gomock.Any()).Return(errors.New("socket closed"))

	results, err := s.service.Ingest(ctx)

	s.NoError(err)
	s.Len(results, 1)
}

func (s *IngestServiceTestSuite) TestIngest_EmptyFetch() {
	ctx := context.Background()

	s.source.EXPECT().FetchUnread(ctx, 7, 10).Return([]domain.Message{}, nil)

	results, err := s.service.Ingest(ctx)

	s.NoError(err)
	s.Empty(results)
}
