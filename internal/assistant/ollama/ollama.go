// Package ollama runs recipe sessions against a self-hosted Ollama server
// through its /api/generate endpoint.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/vbonduro/eatai/internal/assistant"
	"github.com/vbonduro/eatai/internal/assistant/runner"
)

type Client struct {
	*runner.Runner

	host   string
	client *http.Client
}

var (
	_ assistant.Conversation  = (*Client)(nil)
	_ assistant.RunCanceller  = (*Client)(nil)
	_ assistant.SessionCloser = (*Client)(nil)
)

func New(host string) *Client {
	c := &Client{
		host:   strings.TrimRight(host, "/"),
		client: &http.Client{},
	}
	c.Runner = runner.New(c.complete)
	return c
}

type generateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

type generateResponse struct {
	Response string `json:"response"`
	Error    string `json:"error"`
}

func (c *Client) complete(ctx context.Context, model, prompt string) (string, error) {
	payload, err := json.Marshal(generateRequest{Model: model, Prompt: prompt})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.host+"/api/generate", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to call ollama: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	var body generateResponse
	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		if json.Unmarshal(raw, &body) == nil && body.Error != "" {
			return "", fmt.Errorf("ollama returned status %d: %s", resp.StatusCode, body.Error)
		}
		return "", fmt.Errorf("ollama returned status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	return body.Response, nil
}
