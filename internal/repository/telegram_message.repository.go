package repository

import (
	"context"

	"portfolioreport/pkg/telegram"
)

type TelegramSender interface {
	SendMessage(ctx context.Context, chatID string, text string, parseMode string) error
}

type telegramMessageRepositoryHandler struct {
	Client TelegramSender
	ChatID string
}

func NewTelegramMessageRepository(client TelegramSender, chatID string) MessageRepository {
	return telegramMessageRepositoryHandler{
		Client: client,
		ChatID: chatID,
	}
}

func (h telegramMessageRepositoryHandler) SendMessage(ctx context.Context, text string) error {
	return h.Client.SendMessage(ctx, h.ChatID, text, telegram.ParseMode_Markdown)
}
