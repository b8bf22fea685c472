// Package oracle implements the optional AI scoring collaborator on top of
// an OpenAI-compatible chat completion API.
package oracle

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	openai "github.com/sashabaranov/go-openai"

	"github.com/openexams/invigil/internal/evaluate"
)

// verdictPayload is the JSON object the model is instructed to return.
type verdictPayload struct {
	Score      float64 `json:"score"`
	Feedback   string  `json:"feedback"`
	Reasoning  string  `json:"reasoning"`
	Confidence float64 `json:"confidence"`
	Rubric     string  `json:"rubric"`
}

// Client wraps an OpenAI-compatible API client.
type Client struct {
	api     *openai.Client
	model   string
	variant Variant
}

// New creates an oracle client. An empty baseURL uses the default endpoint.
func New(baseURL, apiKey, modelName string, variant Variant) *Client {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	return &Client{
		api:     openai.NewClientWithConfig(config),
		model:   modelName,
		variant: variant,
	}
}

// Ping verifies the endpoint is reachable by listing models.
func (c *Client) Ping(ctx context.Context) error {
	if _, err := c.api.ListModels(ctx); err != nil {
		return fmt.Errorf("oracle health check: %w", err)
	}
	return nil
}

// EvaluateSubjectiveAnswer implements evaluate.Oracle.
func (c *Client) EvaluateSubjectiveAnswer(ctx context.Context, answer, prompt, reference string, maxScore int) (evaluate.OracleVerdict, error) {
	system := buildSystemPrompt(c.variant, prompt, reference, maxScore)

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: answer},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Temperature: 0.2,
	})
	if err != nil {
		return evaluate.OracleVerdict{}, fmt.Errorf("oracle API call: %w", err)
	}
	if len(resp.Choices) == 0 {
		return evaluate.OracleVerdict{}, fmt.Errorf("oracle returned no choices")
	}

	raw := resp.Choices[0].Message.Content
	slog.Debug("oracle response", "raw", raw)

	var payload verdictPayload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return evaluate.OracleVerdict{}, fmt.Errorf("parse oracle response: %w (raw: %s)", err, raw)
	}

	return evaluate.OracleVerdict{
		Score:      payload.Score,
		Feedback:   payload.Feedback,
		Reasoning:  payload.Reasoning,
		Confidence: payload.Confidence,
		Rubric:     payload.Rubric,
	}, nil
}
