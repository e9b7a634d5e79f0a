package repository

import (
	"context"
	"fmt"
	"strings"

	"portfolioreport/internal/logger"

	"github.com/ayush6624/go-chatgpt"
)

type gptInsightRepositoryHandler struct {
	GptClient *chatgpt.Client
	Model     chatgpt.ChatGPTModel
}

func NewGptInsightRepository(apiKey string, model string) (InsightRepository, error) {
	client, err := chatgpt.NewClient(apiKey)
	if err != nil {
		return nil, fmt.Errorf("failed to construct gpt client: %w", err)
	}

	m := chatgpt.GPT4
	if model != "" {
		m = chatgpt.ChatGPTModel(model)
	}

	return gptInsightRepositoryHandler{
		GptClient: client,
		Model:     m,
	}, nil
}

func (h gptInsightRepositoryHandler) Complete(ctx context.Context, systemMessage string, prompt string) (string, error) {
	log := logger.FromContext(ctx)

	response, err := h.GptClient.Send(ctx, &chatgpt.ChatCompletionRequest{
		Model: h.Model,
		Messages: []chatgpt.ChatMessage{
			{
				Role:    chatgpt.ChatGPTModelRoleSystem,
				Content: systemMessage,
			},
			{
				Role:    chatgpt.ChatGPTModelRoleUser,
				Content: prompt,
			},
		},
	})
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}
	if len(response.Choices) == 0 {
		return "", fmt.Errorf("chat completion returned no choices")
	}

	log.Infow("chat completion finished", "model", h.Model, "usage", fmt.Sprintf("%+v", response.Usage))

	return strings.TrimSpace(response.Choices[0].Message.Content), nil
}
