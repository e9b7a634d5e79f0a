package repository

import (
	"context"
	"errors"
	"net/http"

	"portfolioreport/internal/calculator"
	"portfolioreport/internal/domain"
	"portfolioreport/pkg/alphavantage"
)

// QuoteRepository fetches the latest daily quote for a ticker. Every failure
// comes back as a *domain.DataUnavailableError.
type QuoteRepository interface {
	GetQuote(ctx context.Context, ticker string, instrumentType domain.InstrumentType) (*domain.Quote, error)
}

// quoteFromBars turns provider bars into a quote, mapping "no bars" onto
// the shared failure type.
func quoteFromBars(ticker string, bars []domain.DailyBar) (*domain.Quote, error) {
	quote, err := calculator.QuoteFromBars(bars)
	if err != nil {
		return nil, domain.NewDataUnavailableError(ticker, "no data", nil)
	}
	return quote, nil
}

type alphaVantageQuoteRepositoryHandler struct {
	Client alphavantage.Client
}

func NewAlphaVantageQuoteRepository(httpClient *http.Client, apiKey string) QuoteRepository {
	return NewAlphaVantageQuoteRepositoryWithBaseUrl(httpClient, apiKey, alphavantage.DefaultBaseUrl)
}

func NewAlphaVantageQuoteRepositoryWithBaseUrl(httpClient *http.Client, apiKey string, baseUrl string) QuoteRepository {
	return alphaVantageQuoteRepositoryHandler{
		Client: alphavantage.Client{
			HttpClient: httpClient,
			ApiKey:     apiKey,
			BaseUrl:    baseUrl,
			Market:     "USD",
		},
	}
}

func (h alphaVantageQuoteRepositoryHandler) GetQuote(ctx context.Context, ticker string, instrumentType domain.InstrumentType) (*domain.Quote, error) {
	var (
		bars []alphavantage.Bar
		err  error
	)
	switch instrumentType {
	case domain.InstrumentType_Crypto:
		bars, err = h.Client.GetDailyCrypto(ctx, ticker)
	default:
		bars, err = h.Client.GetDailyStock(ctx, ticker)
	}
	if err != nil {
		apiErr := alphavantage.ApiError{}
		if errors.As(err, &apiErr) {
			return nil, domain.NewDataUnavailableError(ticker, apiErr.Kind, errors.New(apiErr.Message))
		}
		return nil, domain.NewDataUnavailableError(ticker, "request failed", err)
	}

	// only the two most recent bars matter and the client sorts newest first
	if len(bars) > 2 {
		bars = bars[:2]
	}
	dailyBars := make([]domain.DailyBar, 0, len(bars))
	for _, b := range bars {
		dailyBars = append(dailyBars, domain.DailyBar{
			Date:  b.Date,
			High:  b.High,
			Low:   b.Low,
			Close: b.Close,
		})
	}

	return quoteFromBars(ticker, dailyBars)
}
