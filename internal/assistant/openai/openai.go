// Package openai implements the assistant boundary over the OpenAI
// Assistants v2 (threads, messages, runs) and Images APIs.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/vbonduro/eatai/internal/assistant"
	"github.com/vbonduro/eatai/internal/domain"
)

const (
	defaultBaseURL    = "https://api.openai.com/v1"
	defaultImageModel = "dall-e-2"
	defaultImageSize  = "512x512"

	// maxErrorBody bounds how much of a failed response ends up in an error.
	maxErrorBody = 2048
)

type Config struct {
	APIKey     string
	BaseURL    string
	ImageModel string
	ImageSize  string
}

type Client struct {
	apiKey     string
	baseURL    string
	imageModel string
	imageSize  string
	client     *http.Client
}

var (
	_ assistant.Client        = (*Client)(nil)
	_ assistant.RunCanceller  = (*Client)(nil)
	_ assistant.SessionCloser = (*Client)(nil)
)

func New(cfg Config) *Client {
	c := &Client{
		apiKey:     cfg.APIKey,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		imageModel: cfg.ImageModel,
		imageSize:  cfg.ImageSize,
		client:     &http.Client{},
	}
	if c.baseURL == "" {
		c.baseURL = defaultBaseURL
	}
	if c.imageModel == "" {
		c.imageModel = defaultImageModel
	}
	if c.imageSize == "" {
		c.imageSize = defaultImageSize
	}
	return c
}

type idResponse struct {
	ID string `json:"id"`
}

type runResponse struct {
	ID        string `json:"id"`
	Status    string `json:"status"`
	LastError *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"last_error"`
	IncompleteDetails *struct {
		Reason string `json:"reason"`
	} `json:"incomplete_details"`
}

type messageList struct {
	Data []struct {
		Role    string `json:"role"`
		Content []struct {
			Type string `json:"type"`
			Text struct {
				Value string `json:"value"`
			} `json:"text"`
		} `json:"content"`
	} `json:"data"`
}

type imageResponse struct {
	Data []struct {
		URL string `json:"url"`
	} `json:"data"`
}

func (c *Client) CreateSession(ctx context.Context) (string, error) {
	var thread idResponse
	if err := c.do(ctx, http.MethodPost, "/threads", struct{}{}, &thread); err != nil {
		return "", fmt.Errorf("create thread: %w", err)
	}
	if thread.ID == "" {
		return "", fmt.Errorf("%w: create thread: empty thread id", domain.ErrUpstream)
	}
	return thread.ID, nil
}

func (c *Client) PostPrompt(ctx context.Context, session, text string) error {
	body := map[string]string{"role": "user", "content": text}
	if err := c.do(ctx, http.MethodPost, "/threads/"+url.PathEscape(session)+"/messages", body, nil); err != nil {
		return fmt.Errorf("post message: %w", err)
	}
	return nil
}

func (c *Client) StartRun(ctx context.Context, session, modelID string) (string, error) {
	var run idResponse
	body := map[string]string{"assistant_id": modelID}
	if err := c.do(ctx, http.MethodPost, "/threads/"+url.PathEscape(session)+"/runs", body, &run); err != nil {
		return "", fmt.Errorf("create run: %w", err)
	}
	if run.ID == "" {
		return "", fmt.Errorf("%w: create run: empty run id", domain.ErrUpstream)
	}
	return run.ID, nil
}

func (c *Client) GetRunStatus(ctx context.Context, session, run string) (assistant.RunState, error) {
	var resp runResponse
	path := "/threads/" + url.PathEscape(session) + "/runs/" + url.PathEscape(run)
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return assistant.RunState{}, fmt.Errorf("retrieve run: %w", err)
	}
	return toRunState(resp)
}

// toRunState folds the API's run statuses onto assistant.RunStatus. Runs that
// stop for tool calls or hit a token limit cannot produce a reply here, so
// they count as failed.
func toRunState(resp runResponse) (assistant.RunState, error) {
	var reason string
	if resp.LastError != nil {
		reason = resp.LastError.Message
		if resp.LastError.Code != "" {
			reason = resp.LastError.Code + ": " + reason
		}
	}

	switch resp.Status {
	case "queued":
		return assistant.RunState{Status: assistant.RunQueued}, nil
	case "in_progress", "cancelling":
		return assistant.RunState{Status: assistant.RunInProgress}, nil
	case "completed":
		return assistant.RunState{Status: assistant.RunCompleted}, nil
	case "failed":
		return assistant.RunState{Status: assistant.RunFailed, FailureReason: reason}, nil
	case "cancelled":
		return assistant.RunState{Status: assistant.RunCancelled, FailureReason: reason}, nil
	case "expired":
		return assistant.RunState{Status: assistant.RunExpired, FailureReason: reason}, nil
	case "requires_action":
		return assistant.RunState{Status: assistant.RunFailed, FailureReason: "run requires tool action"}, nil
	case "incomplete":
		if resp.IncompleteDetails != nil && resp.IncompleteDetails.Reason != "" {
			reason = "incomplete: " + resp.IncompleteDetails.Reason
		}
		return assistant.RunState{Status: assistant.RunFailed, FailureReason: reason}, nil
	default:
		return assistant.RunState{}, fmt.Errorf("%w: unknown run status %q", domain.ErrUpstream, resp.Status)
	}
}

func (c *Client) GetLatestReply(ctx context.Context, session string) (string, error) {
	var list messageList
	path := "/threads/" + url.PathEscape(session) + "/messages?limit=1&order=desc"
	if err := c.do(ctx, http.MethodGet, path, nil, &list); err != nil {
		return "", fmt.Errorf("list messages: %w", err)
	}

	if len(list.Data) == 0 || list.Data[0].Role != "assistant" {
		return "", fmt.Errorf("%w: thread has no assistant reply", domain.ErrUpstream)
	}

	var sb strings.Builder
	for _, part := range list.Data[0].Content {
		if part.Type == "text" {
			sb.WriteString(part.Text.Value)
		}
	}
	if sb.Len() == 0 {
		return "", fmt.Errorf("%w: assistant reply has no text", domain.ErrUpstream)
	}
	return sb.String(), nil
}

func (c *Client) GenerateImage(ctx context.Context, prompt string) (string, error) {
	body := map[string]any{
		"model":  c.imageModel,
		"prompt": prompt,
		"n":      1,
		"size":   c.imageSize,
	}
	var resp imageResponse
	if err := c.do(ctx, http.MethodPost, "/images/generations", body, &resp); err != nil {
		return "", fmt.Errorf("generate image: %w", err)
	}
	if len(resp.Data) == 0 || resp.Data[0].URL == "" {
		return "", fmt.Errorf("%w: image response has no url", domain.ErrUpstream)
	}
	return resp.Data[0].URL, nil
}

func (c *Client) CancelRun(ctx context.Context, session, run string) error {
	path := "/threads/" + url.PathEscape(session) + "/runs/" + url.PathEscape(run) + "/cancel"
	if err := c.do(ctx, http.MethodPost, path, struct{}{}, nil); err != nil {
		return fmt.Errorf("cancel run: %w", err)
	}
	return nil
}

func (c *Client) CloseSession(ctx context.Context, session string) error {
	if err := c.do(ctx, http.MethodDelete, "/threads/"+url.PathEscape(session), nil, nil); err != nil {
		return fmt.Errorf("delete thread: %w", err)
	}
	return nil
}

// do sends one authenticated request and decodes a 2xx JSON body into out.
// Every failure is wrapped in domain.ErrUpstream.
func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("%w: failed to marshal request: %w", domain.ErrUpstream, err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("%w: failed to create request: %w", domain.ErrUpstream, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("OpenAI-Beta", "assistants=v2")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: failed to call openai: %w", domain.ErrUpstream, err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			slog.Error("failed to close openai response body", "error", err)
		}
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		errBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return fmt.Errorf("%w: openai returned status %d: %s", domain.ErrUpstream, resp.StatusCode, bytes.TrimSpace(errBody))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: failed to decode response: %w", domain.ErrUpstream, err)
	}
	return nil
}
