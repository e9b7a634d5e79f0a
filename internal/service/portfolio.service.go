package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"portfolioreport/internal/calculator"
	"portfolioreport/internal/domain"
	"portfolioreport/internal/logger"
	"portfolioreport/internal/repository"

	"github.com/shopspring/decimal"
)

var ErrEmptyPortfolio = errors.New("no data found in portfolio sheet")

// PortfolioService runs the batch loop: every input record becomes exactly
// one PositionResult, in input order.
type PortfolioService interface {
	// BuildReport reads the portfolio and processes it. The only error it
	// returns is an input failure, ErrEmptyPortfolio when the sheet
	// has no rows.
	BuildReport(ctx context.Context) (*domain.PortfolioReport, error)
}

type portfolioServiceHandler struct {
	PortfolioRepository repository.PortfolioRepository
	QuoteService        QuoteService
	InsightService      InsightService

	BatchSize  int
	BatchPause time.Duration
	Sleep      func(time.Duration)
}

// BatchSizeFor keeps one call per window free for the delivery call that
// shares the quota.
func BatchSizeFor(callsPerPeriod int) int {
	return max(1, callsPerPeriod-1)
}

func NewPortfolioService(
	portfolioRepository repository.PortfolioRepository,
	quoteService QuoteService,
	insightService InsightService,
	batchSize int,
	batchPause time.Duration,
) PortfolioService {
	return portfolioServiceHandler{
		PortfolioRepository: portfolioRepository,
		QuoteService:        quoteService,
		InsightService:      insightService,
		BatchSize:           max(1, batchSize),
		BatchPause:          batchPause,
		Sleep:               time.Sleep,
	}
}

func (h portfolioServiceHandler) BuildReport(ctx context.Context) (*domain.PortfolioReport, error) {
	log := logger.FromContext(ctx)
	profile := domain.ProfileFromContext(ctx)

	log.Infow("state transition", "state", domain.RunState_FetchingInput)
	_, endSpan := profile.StartNewSpan(string(domain.RunState_FetchingInput))
	records, err := h.PortfolioRepository.ListRecords(ctx)
	endSpan()
	if err != nil {
		return nil, fmt.Errorf("failed to read portfolio: %w", err)
	}
	if len(records) == 0 {
		return nil, ErrEmptyPortfolio
	}

	return h.processRecords(ctx, records), nil
}

func (h portfolioServiceHandler) processRecords(ctx context.Context, records []domain.PortfolioRecord) *domain.PortfolioReport {
	log := logger.FromContext(ctx)
	profile := domain.ProfileFromContext(ctx)

	batchSize := max(1, h.BatchSize)
	report := &domain.PortfolioReport{
		Results: make([]domain.PositionResult, 0, len(records)),
	}

	for start := 0; start < len(records); start += batchSize {
		end := min(start+batchSize, len(records))
		report.Batches++

		log.Infow("state transition", "state", domain.RunState_ProcessingBatch, "batch", report.Batches, "rows", end-start)
		_, endBatchSpan := profile.StartNewSpan(fmt.Sprintf("%s(%d)", domain.RunState_ProcessingBatch, report.Batches))
		for i := start; i < end; i++ {
			result := h.processRecord(ctx, i, records[i], &report.Totals)
			report.Results = append(report.Results, result)
		}
		endBatchSpan()

		if end < len(records) {
			log.Infow("state transition", "state", domain.RunState_WaitingForRateWindow, "pause", h.BatchPause.String())
			log.Infof("batch completed, waiting %s for rate limit", h.BatchPause)
			_, endPauseSpan := profile.StartNewSpan(string(domain.RunState_WaitingForRateWindow))
			h.Sleep(h.BatchPause)
			endPauseSpan()
			report.Pauses++
		}
	}

	log.Infow("portfolio processed",
		"rows", len(report.Results),
		"failed", report.FailedCount(),
		"batches", report.Batches,
		"pauses", report.Pauses,
	)
	return report
}

// processRecord turns one record into a result. Parse and quote errors
// become a failed result and leave totals untouched.
func (h portfolioServiceHandler) processRecord(ctx context.Context, index int, record domain.PortfolioRecord, totals *domain.PortfolioTotals) domain.PositionResult {
	ticker := record.NormalizedTicker()
	if ticker == "" {
		ticker = fmt.Sprintf("row %d", index+1)
	}

	row, err := domain.ParsePortfolioRecord(record)
	if err != nil {
		logger.FromContext(ctx).Warnw("skipping unparseable row", "index", index, "ticker", ticker, "error", err)
		return domain.NewFailedPositionResult(index, ticker, nil, err)
	}

	quote, err := h.QuoteService.GetQuote(ctx, row.Ticker, row.InstrumentType)
	if err != nil {
		return domain.NewFailedPositionResult(index, row.Ticker, row, err)
	}

	profitLoss := calculator.ProfitLoss(row.BuyPrice, quote.CurrentPrice, row.Quantity)
	*totals = calculator.AddPosition(*totals, *row, *quote, profitLoss)

	insight := h.InsightService.Analyze(ctx, InsightRequest{
		Ticker:       row.Ticker,
		CurrentPrice: quote.CurrentPrice,
		DayChangePct: quote.DayChangePct,
		BuyPrice:     row.BuyPrice,
	})

	return domain.PositionResult{
		Index:      index,
		Ticker:     row.Ticker,
		Row:        row,
		Quote:      quote,
		ProfitLoss: decimal.NewNullDecimal(profitLoss),
		Insight:    insight,
	}
}
