package service

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"portfolioreport/internal/domain"
	"portfolioreport/internal/ratelimit"
	"portfolioreport/internal/repository"
	mock_repository "portfolioreport/internal/repository/mocks"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func Test_quoteServiceHandler_GetQuote(t *testing.T) {
	ctx := context.Background()

	t.Run("normalizes provider errors", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		quoteRepository := mock_repository.NewMockQuoteRepository(ctrl)
		quoteRepository.EXPECT().
			GetQuote(gomock.Any(), "AAPL", domain.InstrumentType_Stock).
			Return(nil, errors.New("connection reset"))

		_, err := NewQuoteService(quoteRepository, nil).GetQuote(ctx, "AAPL", domain.InstrumentType_Stock)
		require.True(t, domain.IsDataUnavailable(err))
		require.ErrorContains(t, err, "connection reset")
	})

	t.Run("passes data unavailable through", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		quoteRepository := mock_repository.NewMockQuoteRepository(ctrl)
		original := domain.NewDataUnavailableError("XYZ", "no data", nil)
		quoteRepository.EXPECT().
			GetQuote(gomock.Any(), "XYZ", domain.InstrumentType_Stock).
			Return(nil, original)

		_, err := NewQuoteService(quoteRepository, nil).GetQuote(ctx, "XYZ", domain.InstrumentType_Stock)
		require.Equal(t, original, err)
	})

	t.Run("waits on the limiter between calls", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		quoteRepository := mock_repository.NewMockQuoteRepository(ctrl)
		quoteRepository.EXPECT().
			GetQuote(gomock.Any(), gomock.Any(), gomock.Any()).
			Return(&domain.Quote{CurrentPrice: dec("1")}, nil).
			Times(3)

		now := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
		sleeps := []time.Duration{}
		limiter := ratelimit.New(2, time.Minute, ratelimit.WithClock(
			func() time.Time { return now },
			func(d time.Duration) {
				sleeps = append(sleeps, d)
				now = now.Add(d)
			},
		))

		svc := NewQuoteService(quoteRepository, limiter)
		for i := 0; i < 3; i++ {
			_, err := svc.GetQuote(ctx, "BTC", domain.InstrumentType_Crypto)
			require.NoError(t, err)
		}
		require.Equal(t, []time.Duration{time.Minute}, sleeps)
	})

	t.Run("timed out provider call keeps the api key out of the report", func(t *testing.T) {
		release := make(chan struct{})
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-release:
			case <-r.Context().Done():
			}
		}))
		defer server.Close()
		defer close(release)

		httpClient := &http.Client{Timeout: 50 * time.Millisecond}
		quoteRepository := repository.NewAlphaVantageQuoteRepositoryWithBaseUrl(httpClient, "SECRETKEY123", server.URL)

		_, err := NewQuoteService(quoteRepository, nil).GetQuote(ctx, "AAPL", domain.InstrumentType_Stock)
		require.True(t, domain.IsDataUnavailable(err))
		require.NotContains(t, err.Error(), "SECRETKEY123")

		section := RenderPosition(domain.NewFailedPositionResult(0, "AAPL", nil, err))
		require.Contains(t, section, "❌ *AAPL*: Error fetching data: ")
		require.NotContains(t, section, "SECRETKEY123")
		require.NotContains(t, section, "apikey")
	})
}
