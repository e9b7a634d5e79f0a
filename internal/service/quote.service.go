package service

import (
	"context"

	"portfolioreport/internal/domain"
	"portfolioreport/internal/logger"
	"portfolioreport/internal/ratelimit"
	"portfolioreport/internal/repository"
)

type QuoteService interface {
	GetQuote(ctx context.Context, ticker string, instrumentType domain.InstrumentType) (*domain.Quote, error)
}

type quoteServiceHandler struct {
	QuoteRepository repository.QuoteRepository
	Limiter         *ratelimit.Limiter
}

func NewQuoteService(quoteRepository repository.QuoteRepository, limiter *ratelimit.Limiter) QuoteService {
	return quoteServiceHandler{
		QuoteRepository: quoteRepository,
		Limiter:         limiter,
	}
}

// GetQuote holds a quote slot for the duration of the provider call. Every
// failure comes back as a DataUnavailableError.
func (h quoteServiceHandler) GetQuote(ctx context.Context, ticker string, instrumentType domain.InstrumentType) (*domain.Quote, error) {
	log := logger.FromContext(ctx)

	quote, err := ratelimit.Call(h.Limiter, func() (*domain.Quote, error) {
		return h.QuoteRepository.GetQuote(ctx, ticker, instrumentType)
	})
	if err != nil {
		log.Errorf("error fetching data for %s: %v", ticker, err)
		if domain.IsDataUnavailable(err) {
			return nil, err
		}
		return nil, domain.NewDataUnavailableError(ticker, "request failed", err)
	}
	if quote == nil {
		return nil, domain.NewDataUnavailableError(ticker, "no data", nil)
	}

	log.Infof("fetched data for %s: price=%s, change=%s%%", ticker, quote.CurrentPrice.StringFixed(2), quote.DayChangePct.StringFixed(2))
	return quote, nil
}
