package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"portfolioreport/internal/logger"
	"portfolioreport/internal/repository"

	"github.com/shopspring/decimal"
)

const insightSystemMessage = "You are a leading financial analyst providing technical analysis " +
	"and recommendations on stocks and crypto. Your task is to analyze " +
	"the stock for promising profit."

var errInsightNotConfigured = errors.New("insight provider not configured")

type InsightRequest struct {
	Ticker       string
	CurrentPrice decimal.Decimal
	DayChangePct decimal.Decimal
	BuyPrice     decimal.Decimal
}

// InsightService never fails. A broken backend yields a placeholder that
// ends up in the report in place of the model's answer.
type InsightService interface {
	Analyze(ctx context.Context, req InsightRequest) string
}

type insightServiceHandler struct {
	InsightRepository repository.InsightRepository
}

// NewInsightService accepts a nil repository, in which case every row gets
// the "not configured" placeholder.
func NewInsightService(insightRepository repository.InsightRepository) InsightService {
	return insightServiceHandler{
		InsightRepository: insightRepository,
	}
}

func UnavailableInsight(err error) string {
	return fmt.Sprintf("AI analysis unavailable: %s", err.Error())
}

func buildInsightPrompt(req InsightRequest) string {
	lines := []string{
		fmt.Sprintf("Analyze the stock %s:", req.Ticker),
		fmt.Sprintf("- Current price: $%s", req.CurrentPrice.StringFixed(2)),
		fmt.Sprintf("- 1-day change: %s%%", req.DayChangePct.StringFixed(2)),
		fmt.Sprintf("- Buy price: $%s", req.BuyPrice.StringFixed(2)),
		"",
		"Gather information such as price action and technical analysis of this stock,",
		"also check for market sentiments quickly about this.",
		"Check the daily timeframe, weekly timeframe, and monthly timeframe.",
		"",
		"Just Provide output in format below - nothing else except below.",
		"- Daily Timeframe: [Bullish/Bearish]",
		"- Weekly Timeframe: [Bullish/Bearish]",
		"- Monthly Timeframe: [Bullish/Bearish]",
		"- Short Term [1-2 Months]: Sell/Hold/Buy",
		"- Long Term [3-6 months]: Sell/Hold/Buy",
		"- NOTE: [If buy more: According to my buy price, when should I add more?]",
		"        [If sell: What price to sell at?]",
		"    <keep it short, strong prediction and accurate. >",
	}
	return strings.Join(lines, "\n")
}

func (h insightServiceHandler) Analyze(ctx context.Context, req InsightRequest) string {
	log := logger.FromContext(ctx)

	if h.InsightRepository == nil {
		return UnavailableInsight(errInsightNotConfigured)
	}

	answer, err := h.InsightRepository.Complete(ctx, insightSystemMessage, buildInsightPrompt(req))
	if err == nil && strings.TrimSpace(answer) == "" {
		err = errors.New("empty response")
	}
	if err != nil {
		log.Errorf("AI analysis error for %s: %v", req.Ticker, err)
		return UnavailableInsight(err)
	}

	log.Infof("AI analysis for %s completed", req.Ticker)
	return strings.TrimSpace(answer)
}
