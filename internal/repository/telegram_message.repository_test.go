package repository

import (
	"context"
	"testing"

	"portfolioreport/pkg/telegram"

	"github.com/stretchr/testify/require"
)

type recordingSender struct {
	chatID    string
	text      string
	parseMode string
}

func (r *recordingSender) SendMessage(ctx context.Context, chatID string, text string, parseMode string) error {
	r.chatID = chatID
	r.text = text
	r.parseMode = parseMode
	return nil
}

func Test_telegramMessageRepositoryHandler_SendMessage(t *testing.T) {
	sender := &recordingSender{}
	repo := NewTelegramMessageRepository(sender, "12345")

	err := repo.SendMessage(context.Background(), "*hi*")
	require.NoError(t, err)
	require.Equal(t, "12345", sender.chatID)
	require.Equal(t, "*hi*", sender.text)
	require.Equal(t, telegram.ParseMode_Markdown, sender.parseMode)
}
