package repository

import (
	"context"
)

// MessageRepository delivers a rendered Markdown report to its recipient.
type MessageRepository interface {
	SendMessage(ctx context.Context, text string) error
}
