package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const (
	defaultClaudeModel     = "claude-sonnet-4-5"
	claudeInsightMaxTokens = 1000
)

type claudeInsightRepositoryHandler struct {
	Client anthropic.Client
	Model  string
}

func NewClaudeInsightRepository(apiKey string, model string) InsightRepository {
	if model == "" {
		model = defaultClaudeModel
	}
	return claudeInsightRepositoryHandler{
		Client: anthropic.NewClient(option.WithAPIKey(apiKey)),
		Model:  model,
	}
}

func (h claudeInsightRepositoryHandler) Complete(ctx context.Context, systemMessage string, prompt string) (string, error) {
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(h.Model),
		MaxTokens: claudeInsightMaxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
		System: []anthropic.TextBlockParam{
			{Text: systemMessage},
		},
	}

	resp, err := h.Client.Messages.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("claude api call failed: %w", err)
	}

	var response strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			response.WriteString(block.Text)
		}
	}
	if response.Len() == 0 {
		return "", fmt.Errorf("no response generated by %s", h.Model)
	}

	return strings.TrimSpace(response.String()), nil
}
