package repository

import (
	"context"
)

// InsightRepository sends one system + user prompt to a language model and
// returns its answer.
type InsightRepository interface {
	Complete(ctx context.Context, systemMessage string, prompt string) (string, error)
}
