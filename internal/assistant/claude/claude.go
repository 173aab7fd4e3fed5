// Package claude runs recipe sessions against the Anthropic Messages API.
// The Messages API is stateless, so sessions and runs are kept in memory by
// runner.Runner: a run is one background CreateMessages call.
package claude

import (
	"context"
	"strings"

	"github.com/liushuangls/go-anthropic/v2"
	"github.com/vbonduro/eatai/internal/assistant"
	"github.com/vbonduro/eatai/internal/assistant/runner"
)

// defaultMaxTokens leaves room for three full recipes.
const defaultMaxTokens = 4096

type Client struct {
	*runner.Runner

	api       *anthropic.Client
	maxTokens int
}

var (
	_ assistant.Conversation  = (*Client)(nil)
	_ assistant.RunCanceller  = (*Client)(nil)
	_ assistant.SessionCloser = (*Client)(nil)
)

// New returns a Client. An empty baseURL uses the public Anthropic endpoint.
func New(apiKey, baseURL string) *Client {
	var opts []anthropic.ClientOption
	if baseURL != "" {
		opts = append(opts, anthropic.WithBaseURL(baseURL))
	}
	c := &Client{
		api:       anthropic.NewClient(apiKey, opts...),
		maxTokens: defaultMaxTokens,
	}
	c.Runner = runner.New(c.complete)
	return c
}

func (c *Client) complete(ctx context.Context, model, prompt string) (string, error) {
	resp, err := c.api.CreateMessages(ctx, anthropic.MessagesRequest{
		Model:     anthropic.Model(model),
		Messages:  []anthropic.Message{anthropic.NewUserTextMessage(prompt)},
		MaxTokens: c.maxTokens,
	})
	if err != nil {
		return "", err
	}

	var text strings.Builder
	for _, block := range resp.Content {
		text.WriteString(block.GetText())
	}
	return text.String(), nil
}
