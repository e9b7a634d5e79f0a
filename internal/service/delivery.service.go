package service

import (
	"context"
	"fmt"
	"io"
	"os"

	"portfolioreport/internal/logger"
	"portfolioreport/internal/ratelimit"
	"portfolioreport/internal/repository"
)

const TestModeNotice = "Message would be sent in TEST MODE."

type DeliveryService interface {
	// Send reports whether the message reached the channel. It never
	// returns an error, failures are logged.
	Send(ctx context.Context, text string) bool
}

type deliveryServiceHandler struct {
	MessageRepository repository.MessageRepository
	Limiter           *ratelimit.Limiter
	TestMode          bool
	Out               io.Writer
}

func NewDeliveryService(messageRepository repository.MessageRepository, limiter *ratelimit.Limiter, testMode bool) DeliveryService {
	return deliveryServiceHandler{
		MessageRepository: messageRepository,
		Limiter:           limiter,
		TestMode:          testMode,
		Out:               os.Stdout,
	}
}

func (h deliveryServiceHandler) Send(ctx context.Context, text string) bool {
	log := logger.FromContext(ctx)

	if h.TestMode {
		fmt.Fprintln(h.Out, TestModeNotice)
		log.Info("delivery suppressed in test mode")
		return true
	}
	if h.MessageRepository == nil {
		log.Error("no delivery channel configured")
		return false
	}

	err := h.Limiter.Do(func() error {
		return h.MessageRepository.SendMessage(ctx, text)
	})
	if err != nil {
		log.Errorf("failed to send message: %v", err)
		return false
	}

	log.Info("message delivered")
	return true
}
