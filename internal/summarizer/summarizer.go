// Package summarizer holds the summarization backends: an OpenAI
// chat-completion backend and a deterministic keyword mock. The mock
// is also the permanent fallback when no API key is configured.
package summarizer

import (
	"context"
	"log/slog"
	"strings"
)

// Backend maps a message to newline-delimited bullet points.
// Implementations return an error when no usable text could be
// produced; callers decide what a missing summary means.
type Backend interface {
	Summarize(ctx context.Context, subject, body string, maxWords int) (string, error)
	Name() string
}

type Config struct {
	APIKey string
	Model  string
	// MaxPromptChars bounds the body prefix embedded in the prompt.
	MaxPromptChars int
}

// New selects the backend once at startup. A missing API key
// downgrades to the mock for the process lifetime; there is no
// per-call retry of backend construction.
func New(cfg Config, logger *slog.Logger) Backend {
	if cfg.APIKey == "" {
		logger.Warn("no OpenAI API key configured, using mock summarizer")
		return NewMock()
	}
	return NewOpenAI(cfg, logger)
}

// bulletize passes already-bulleted model output through unchanged and
// otherwise re-emits each sentence as its own bullet line.
func bulletize(raw string) string {
	for _, line := range strings.Split(raw, "\n") {
		t := strings.TrimSpace(line)
		if strings.HasPrefix(t, "•") || strings.HasPrefix(t, "-") {
			return raw
		}
	}

	var bullets []string
	for _, sentence := range strings.Split(raw, ".") {
		sentence = strings.TrimSpace(sentence)
		if sentence == "" {
			continue
		}
		bullets = append(bullets, "• "+sentence+".")
	}
	return strings.Join(bullets, "\n")
}
