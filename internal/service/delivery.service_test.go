package service

import (
	"bytes"
	"context"
	"errors"
	"testing"

	mock_repository "portfolioreport/internal/repository/mocks"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func Test_deliveryServiceHandler_Send(t *testing.T) {
	ctx := context.Background()

	t.Run("delivers through the channel", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		messageRepository := mock_repository.NewMockMessageRepository(ctrl)
		messageRepository.EXPECT().SendMessage(gomock.Any(), "report").Return(nil)

		require.True(t, NewDeliveryService(messageRepository, nil, false).Send(ctx, "report"))
	})

	t.Run("failure is reported, not returned", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		messageRepository := mock_repository.NewMockMessageRepository(ctrl)
		messageRepository.EXPECT().SendMessage(gomock.Any(), "report").Return(errors.New("telegram api error 400: bad request"))

		require.False(t, NewDeliveryService(messageRepository, nil, false).Send(ctx, "report"))
	})

	t.Run("test mode prints a notice instead", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		messageRepository := mock_repository.NewMockMessageRepository(ctrl)

		out := &bytes.Buffer{}
		handler := deliveryServiceHandler{
			MessageRepository: messageRepository,
			TestMode:          true,
			Out:               out,
		}
		require.True(t, handler.Send(ctx, "report"))
		require.Equal(t, TestModeNotice+"\n", out.String())
	})

	t.Run("missing channel", func(t *testing.T) {
		require.False(t, NewDeliveryService(nil, nil, false).Send(ctx, "report"))
	})
}
