package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/pavelanni/classifier/internal/llm/prompts"
	"github.com/pavelanni/classifier/internal/model"
	"github.com/pavelanni/classifier/internal/session"

	openai "github.com/sashabaranov/go-openai"
)

// ErrEmptyCommentary is returned when the model answers with no text.
var ErrEmptyCommentary = errors.New("LLM returned empty commentary")

// Commentator produces a short free-text comment on a set of results.
type Commentator interface {
	Commentary(ctx context.Context, test model.Test, results []model.Result, lang string) (string, error)
}

type commentaryResponse struct {
	Commentary string `json:"commentary"`
}

// Client wraps an OpenAI-compatible API client.
type Client struct {
	api   *openai.Client
	model string
}

// New creates a new LLM client.
func New(baseURL, apiKey, modelName string) (*Client, error) {
	if modelName == "" {
		return nil, errors.New("model name is required")
	}
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	return &Client{
		api:   openai.NewClientWithConfig(config),
		model: modelName,
	}, nil
}

// Ping checks that the endpoint answers a model listing.
func (c *Client) Ping(ctx context.Context) error {
	if _, err := c.api.ListModels(ctx); err != nil {
		return fmt.Errorf("list models: %w", err)
	}
	return nil
}

// Commentary asks the model for a few encouraging sentences about the
// results, written in lang.
func (c *Client) Commentary(ctx context.Context, test model.Test, results []model.Result, lang string) (string, error) {
	summary := session.Summarize(results)
	prompt, err := prompts.BuildCommentaryPrompt(test, results, summary, lang)
	if err != nil {
		return "", fmt.Errorf("build prompt: %w", err)
	}

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: prompt},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Temperature: 0.5,
	})
	if err != nil {
		return "", fmt.Errorf("LLM API call: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("LLM returned no choices")
	}

	raw := resp.Choices[0].Message.Content
	slog.Debug("LLM response", "raw", raw)

	var out commentaryResponse
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return "", fmt.Errorf("parse LLM response: %w (raw: %s)", err, raw)
	}
	text := strings.TrimSpace(out.Commentary)
	if text == "" {
		return "", ErrEmptyCommentary
	}
	return text, nil
}
