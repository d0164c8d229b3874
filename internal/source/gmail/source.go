// Package gmail implements the live mail source on top of the Gmail
// REST API. Construction fails when credentials are absent; callers
// fall back to the mockmail source in that case.
package gmail

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"echoloop/internal/domain"
)

const SourceName = "gmail"

type Config struct {
	CredentialsFile string
	TokenFile       string
}

type Source struct {
	srv    *gmail.Service
	logger *slog.Logger
	now    func() time.Time
}

// New builds a Gmail source from stored OAuth credentials. It returns
// an error when the credentials or token files are missing or invalid;
// it never starts an interactive auth flow.
func New(ctx context.Context, cfg Config, logger *slog.Logger) (*Source, error) {
	b, err := os.ReadFile(cfg.CredentialsFile)
	if err != nil {
		return nil, fmt.Errorf("read credentials: %w", err)
	}

	oauthCfg, err := google.ConfigFromJSON(b, gmail.GmailReadonlyScope)
	if err != nil {
		return nil, fmt.Errorf("parse credentials: %w", err)
	}

	tok, err := tokenFromFile(cfg.TokenFile)
	if err != nil {
		return nil, fmt.Errorf("load token: %w", err)
	}

	srv, err := gmail.NewService(ctx, option.WithTokenSource(oauthCfg.TokenSource(ctx, tok)))
	if err != nil {
		return nil, fmt.Errorf("create gmail service: %w", err)
	}

	return &Source{
		srv:    srv,
		logger: logger.With("source", SourceName),
		now:    time.Now,
	}, nil
}

func (s *Source) Name() string {
	return SourceName
}

// FetchUnread lists unread messages received within the last sinceDays
// days, up to maxResults, and resolves each into a domain message. A
// single malformed message is dropped; only the list call itself can
// fail the whole fetch.
func (s *Source) FetchUnread(ctx context.Context, sinceDays, maxResults int) ([]domain.Message, error) {
	after := s.now().UTC().AddDate(0, 0, -sinceDays)
	query := fmt.Sprintf("is:unread after:%s", after.Format("2006/01/02"))

	listRes, err := s.srv.Users.Messages.List("me").
		Q(query).
		MaxResults(int64(maxResults)).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("list unread messages: %w", err)
	}

	s.logger.Info("found unread messages", "count", len(listRes.Messages), "query", query)

	msgs := make([]domain.Message, 0, len(listRes.Messages))
	for _, m := range listRes.Messages {
		full, err := s.srv.Users.Messages.Get("me", m.Id).Format("full").Context(ctx).Do()
		if err != nil {
			s.logger.Warn("failed to fetch message, dropping", "id", m.Id, "error", err)
			continue
		}

		parsed, err := s.parseMessage(full)
		if err != nil {
			s.logger.Warn("failed to parse message, dropping", "id", m.Id, "error", err)
			continue
		}

		msgs = append(msgs, parsed)
	}

	return msgs, nil
}

func tokenFromFile(path string) (*oauth2.Token, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var tok oauth2.Token
	if err := json.NewDecoder(f).Decode(&tok); err != nil {
		return nil, err
	}
	return &tok, nil
}
