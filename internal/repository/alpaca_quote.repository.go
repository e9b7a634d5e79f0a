package repository

import (
	"context"
	"strings"
	"time"

	"portfolioreport/internal/domain"

	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"
	"github.com/shopspring/decimal"
)

type alpacaQuoteRepositoryHandler struct {
	MdClient *marketdata.Client
	Now      func() time.Time
}

func NewAlpacaQuoteRepository(apiKey, apiSecret, endpoint string) QuoteRepository {
	mdClient := marketdata.NewClient(marketdata.ClientOpts{
		BaseURL:   endpoint,
		APIKey:    apiKey,
		APISecret: apiSecret,
	})

	return alpacaQuoteRepositoryHandler{
		MdClient: mdClient,
		Now:      time.Now,
	}
}

func alpacaCryptoSymbol(ticker string) string {
	if strings.Contains(ticker, "/") {
		return ticker
	}
	return ticker + "/USD"
}

func (h alpacaQuoteRepositoryHandler) GetQuote(ctx context.Context, ticker string, instrumentType domain.InstrumentType) (*domain.Quote, error) {
	end := h.Now().UTC()
	start := end.AddDate(0, 0, -7)

	bars := []domain.DailyBar{}
	switch instrumentType {
	case domain.InstrumentType_Crypto:
		result, err := h.MdClient.GetCryptoBars(alpacaCryptoSymbol(ticker), marketdata.GetCryptoBarsRequest{
			TimeFrame: marketdata.OneDay,
			Start:     start,
			End:       end,
		})
		if err != nil {
			return nil, domain.NewDataUnavailableError(ticker, "request failed", err)
		}
		for _, b := range result {
			bars = append(bars, domain.DailyBar{
				Date:  b.Timestamp,
				High:  decimal.NewFromFloat(b.High),
				Low:   decimal.NewFromFloat(b.Low),
				Close: decimal.NewFromFloat(b.Close),
			})
		}
	default:
		result, err := h.MdClient.GetBars(ticker, marketdata.GetBarsRequest{
			TimeFrame: marketdata.OneDay,
			Start:     start,
			End:       end,
		})
		if err != nil {
			return nil, domain.NewDataUnavailableError(ticker, "request failed", err)
		}
		for _, b := range result {
			bars = append(bars, domain.DailyBar{
				Date:  b.Timestamp,
				High:  decimal.NewFromFloat(b.High),
				Low:   decimal.NewFromFloat(b.Low),
				Close: decimal.NewFromFloat(b.Close),
			})
		}
	}

	return quoteFromBars(ticker, bars)
}
