package repository

import (
	"context"
	"strings"
	"time"

	"portfolioreport/internal/domain"

	"github.com/piquette/finance-go/chart"
	"github.com/piquette/finance-go/datetime"
)

type yahooQuoteRepositoryHandler struct {
	Now func() time.Time
}

// NewYahooQuoteRepository reads daily bars from the Yahoo chart endpoint.
// It needs no key, which makes it a fallback when Alpha Vantage's free tier
// is exhausted.
func NewYahooQuoteRepository() QuoteRepository {
	return yahooQuoteRepositoryHandler{
		Now: time.Now,
	}
}

func yahooSymbol(ticker string, instrumentType domain.InstrumentType) string {
	if instrumentType == domain.InstrumentType_Crypto && !strings.Contains(ticker, "-") {
		return ticker + "-USD"
	}
	return ticker
}

func (h yahooQuoteRepositoryHandler) GetQuote(ctx context.Context, ticker string, instrumentType domain.InstrumentType) (*domain.Quote, error) {
	end := h.Now()
	// a week back always spans at least two trading days
	start := end.AddDate(0, 0, -7)
	params := &chart.Params{
		Start:    datetime.New(&start),
		End:      datetime.New(&end),
		Symbol:   yahooSymbol(ticker, instrumentType),
		Interval: datetime.OneDay,
	}
	iter := chart.Get(params)

	bars := []domain.DailyBar{}
	for iter.Next() {
		bar := iter.Bar()
		if bar.Close.IsZero() {
			continue
		}
		bars = append(bars, domain.DailyBar{
			Date:  time.Unix(int64(bar.Timestamp), 0).UTC(),
			High:  bar.High,
			Low:   bar.Low,
			Close: bar.Close,
		})
	}
	if err := iter.Err(); err != nil {
		return nil, domain.NewDataUnavailableError(ticker, "request failed", err)
	}

	return quoteFromBars(ticker, bars)
}
