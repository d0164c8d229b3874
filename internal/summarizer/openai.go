package summarizer

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// OpenAI asks a chat model for bullet-point summaries with
// deterministic-leaning decoding parameters.
type OpenAI struct {
	api            openai.Client
	model          string
	maxPromptChars int
	logger         *slog.Logger
}

func NewOpenAI(cfg Config, logger *slog.Logger) *OpenAI {
	return &OpenAI{
		api:            openai.NewClient(option.WithAPIKey(cfg.APIKey)),
		model:          cfg.Model,
		maxPromptChars: cfg.MaxPromptChars,
		logger:         logger.With("backend", "openai"),
	}
}

func (o *OpenAI) Name() string {
	return "openai"
}

func (o *OpenAI) Summarize(ctx context.Context, subject, body string, maxWords int) (string, error) {
	// Bound inference cost; long bodies add little to a short summary.
	truncated := body
	if len(truncated) > o.maxPromptChars {
		truncated = truncated[:o.maxPromptChars]
	}

	prompt := fmt.Sprintf(
		"Summarize the following email as a short list of bullet points, at most %d words total. Start each line with \"• \".\n\nSubject: %s\n\nBody:\n%s",
		maxWords, subject, truncated,
	)

	resp, err := o.api.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: o.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
		Temperature:         openai.Float(0.3),
		FrequencyPenalty:    openai.Float(0.5),
		MaxCompletionTokens: openai.Int(int64(maxWords * 3)),
	})
	if err != nil {
		return "", fmt.Errorf("openai completion: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("empty completion response")
	}

	raw := strings.TrimSpace(resp.Choices[0].Message.Content)
	if raw == "" {
		return "", fmt.Errorf("blank completion text")
	}

	o.logger.Debug("model summary received", "chars", len(raw))

	return bulletize(raw), nil
}
