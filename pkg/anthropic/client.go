// Package anthropic wraps the Messages API for single-turn briefings: one
// system prompt, one user prompt, one text answer.
package anthropic

import (
	"context"
	"strings"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Client sends a single-turn message.
type Client interface {
	CreateMessage(ctx context.Context, req MessageRequest) (*MessageResponse, error)
}

// MessageRequest is one system prompt and one user prompt.
type MessageRequest struct {
	Model     string
	MaxTokens int64
	System    string
	// CacheTTL marks the system prompt for prompt caching ("5m" or "1h").
	// Empty leaves it uncached.
	CacheTTL string
	Prompt   string
}

// MessageResponse is the model's answer with its text blocks joined.
type MessageResponse struct {
	ID         string
	Model      string
	StopReason string
	Text       string
	Usage      Usage
}

// Usage counts the tokens billed for one message.
type Usage struct {
	Input      int64
	Output     int64
	CacheWrite int64
	CacheRead  int64
}

// price is USD per million input and output tokens.
type price struct{ in, out float64 }

// prices is keyed by model family so dated model IDs resolve.
var prices = []struct {
	family string
	price  price
}{
	{"claude-haiku-4-5", price{1.00, 5.00}},
	{"claude-sonnet-4-5", price{3.00, 15.00}},
	{"claude-opus-4-1", price{15.00, 75.00}},
}

// Cost estimates the USD cost of u for model. Cache writes bill at 1.25x
// and cache reads at 0.1x the input rate. Unknown models cost 0.
func (u Usage) Cost(model string) float64 {
	for _, p := range prices {
		if !strings.HasPrefix(model, p.family) {
			continue
		}
		in := float64(u.Input) + 1.25*float64(u.CacheWrite) + 0.1*float64(u.CacheRead)
		return (in*p.price.in + float64(u.Output)*p.price.out) / 1e6
	}
	return 0
}

// Fields returns u as log fields, including the estimated cost for model.
func (u Usage) Fields(model string) []zap.Field {
	return []zap.Field{
		zap.String("model", model),
		zap.Int64("input_tokens", u.Input),
		zap.Int64("output_tokens", u.Output),
		zap.Int64("cache_write_tokens", u.CacheWrite),
		zap.Int64("cache_read_tokens", u.CacheRead),
		zap.Float64("estimated_cost_usd", u.Cost(model)),
	}
}

type sdkClient struct {
	client sdk.Client
}

// NewClient creates a Client backed by the SDK. opts are appended after the
// API key, e.g. option.WithBaseURL for a proxy.
func NewClient(apiKey string, opts ...option.RequestOption) Client {
	all := append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)
	return &sdkClient{client: sdk.NewClient(all...)}
}

func (c *sdkClient) CreateMessage(ctx context.Context, req MessageRequest) (*MessageResponse, error) {
	msg, err := c.client.Messages.New(ctx, newParams(req))
	if err != nil {
		return nil, eris.Wrap(err, "anthropic: create message")
	}

	var text []string
	for _, b := range msg.Content {
		if b.Type == "text" && b.Text != "" {
			text = append(text, b.Text)
		}
	}
	return &MessageResponse{
		ID:         msg.ID,
		Model:      string(msg.Model),
		StopReason: string(msg.StopReason),
		Text:       strings.Join(text, "\n"),
		Usage: Usage{
			Input:      msg.Usage.InputTokens,
			Output:     msg.Usage.OutputTokens,
			CacheWrite: msg.Usage.CacheCreationInputTokens,
			CacheRead:  msg.Usage.CacheReadInputTokens,
		},
	}, nil
}

func newParams(req MessageRequest) sdk.MessageNewParams {
	params := sdk.MessageNewParams{
		Model:     sdk.Model(req.Model),
		MaxTokens: req.MaxTokens,
		Messages:  []sdk.MessageParam{sdk.NewUserMessage(sdk.NewTextBlock(req.Prompt))},
	}
	if req.System == "" {
		return params
	}
	system := sdk.TextBlockParam{Text: req.System}
	if req.CacheTTL != "" {
		cc := sdk.NewCacheControlEphemeralParam()
		cc.TTL = sdk.CacheControlEphemeralTTL(req.CacheTTL)
		system.CacheControl = cc
	}
	params.System = []sdk.TextBlockParam{system}
	return params
}
