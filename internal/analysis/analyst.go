// Package analysis turns region aggregates and scored routes into short
// natural-language briefings using Claude.
package analysis

import (
	"context"
	"errors"
	"strings"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/saferoute/internal/resilience"
	"github.com/sells-group/saferoute/pkg/anthropic"
)

// ErrEmptyResponse is returned when the model answers without text.
var ErrEmptyResponse = eris.New("analysis: empty response")

// Analyst generates briefings through an Anthropic client.
type Analyst struct {
	client    anthropic.Client
	model     string
	maxTokens int64
	retry     resilience.RetryConfig
}

// NewAnalyst creates an Analyst. maxTokens <= 0 uses 1024.
func NewAnalyst(client anthropic.Client, model string, maxTokens int64) *Analyst {
	if maxTokens <= 0 {
		maxTokens = 1024
	}
	retry := resilience.DefaultRetryConfig()
	retry.ShouldRetry = retryable
	retry.OnRetry = resilience.RetryLogger("anthropic", "create_message")
	return &Analyst{client: client, model: model, maxTokens: maxTokens, retry: retry}
}

// withRetry returns a copy of a using cfg. ShouldRetry is kept if cfg has none.
func (a *Analyst) withRetry(cfg resilience.RetryConfig) *Analyst {
	if cfg.ShouldRetry == nil {
		cfg.ShouldRetry = retryable
	}
	cp := *a
	cp.retry = cfg
	return &cp
}

// Analyze sends prompt and returns the model's text. subject labels the
// usage log line.
func (a *Analyst) Analyze(ctx context.Context, subject, prompt string) (string, error) {
	if strings.TrimSpace(prompt) == "" {
		return "", eris.New("analysis: empty prompt")
	}

	req := anthropic.MessageRequest{
		Model:     a.model,
		MaxTokens: a.maxTokens,
		System:    systemPrompt,
		CacheTTL:  "1h",
		Prompt:    prompt,
	}

	resp, err := resilience.DoVal(ctx, a.retry, func(ctx context.Context) (*anthropic.MessageResponse, error) {
		return a.client.CreateMessage(ctx, req)
	})
	if err != nil {
		return "", eris.Wrapf(err, "analysis: %s", subject)
	}

	zap.L().Info("analysis: usage", append(resp.Usage.Fields(a.model), zap.String("subject", subject))...)

	text := strings.TrimSpace(resp.Text)
	if text == "" {
		zap.L().Warn("analysis: model returned no text",
			zap.String("subject", subject),
			zap.String("stop_reason", resp.StopReason),
		)
		return "", ErrEmptyResponse
	}
	return text, nil
}

// retryable treats rate limits, overload and 5xx API errors as transient in
// addition to network failures.
func retryable(err error) bool {
	var apiErr *sdk.Error
	if errors.As(err, &apiErr) {
		return resilience.IsTransientHTTPStatus(apiErr.StatusCode)
	}
	return resilience.IsTransient(err)
}
