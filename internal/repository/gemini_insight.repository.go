package repository

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

const defaultGeminiModel = "gemini-2.5-flash"

type geminiInsightRepositoryHandler struct {
	Client *genai.Client
	Model  string
}

func NewGeminiInsightRepository(ctx context.Context, apiKey string, model string) (InsightRepository, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize genai client: %w", err)
	}
	if model == "" {
		model = defaultGeminiModel
	}

	return geminiInsightRepositoryHandler{
		Client: client,
		Model:  model,
	}, nil
}

func (h geminiInsightRepositoryHandler) Complete(ctx context.Context, systemMessage string, prompt string) (string, error) {
	config := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(systemMessage, genai.RoleUser),
	}
	contents := []*genai.Content{
		genai.NewContentFromText(prompt, genai.RoleUser),
	}

	resp, err := h.Client.Models.GenerateContent(ctx, h.Model, contents, config)
	if err != nil {
		return "", fmt.Errorf("gemini generation failed: %w", err)
	}

	var response strings.Builder
	if resp != nil {
		for _, candidate := range resp.Candidates {
			if candidate.Content == nil {
				continue
			}
			for _, part := range candidate.Content.Parts {
				response.WriteString(part.Text)
			}
			if response.Len() > 0 {
				break
			}
		}
	}
	if response.Len() == 0 {
		return "", fmt.Errorf("no response generated by %s", h.Model)
	}

	return strings.TrimSpace(response.String()), nil
}
