package calculator

import (
	"fmt"
	"sort"

	"portfolioreport/internal/domain"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

func ProfitLoss(buyPrice, currentPrice, quantity decimal.Decimal) decimal.Decimal {
	return currentPrice.Sub(buyPrice).Mul(quantity)
}

// PriorPrice returns yesterday's price for aggregation. The raw prior close
// wins when the provider had it; otherwise it is backed out of the percent
// change, and a zero change means the price did not move.
func PriorPrice(q domain.Quote) decimal.Decimal {
	if q.PriorClose.Valid {
		return q.PriorClose.Decimal
	}
	if q.DayChangePct.IsZero() {
		return q.CurrentPrice
	}
	divisor := decimal.NewFromInt(1).Add(q.DayChangePct.Div(hundred))
	if divisor.IsZero() {
		return q.CurrentPrice
	}
	return q.CurrentPrice.Div(divisor)
}

func PercentChange(from, to decimal.Decimal) decimal.Decimal {
	if from.IsZero() {
		return decimal.Zero
	}
	return to.Sub(from).Div(from).Mul(hundred)
}

// AddPosition folds one successful row into the running totals.
func AddPosition(totals domain.PortfolioTotals, row domain.PortfolioRow, quote domain.Quote, profitLoss decimal.Decimal) domain.PortfolioTotals {
	return domain.PortfolioTotals{
		Investment:   totals.Investment.Add(row.Investment()),
		CurrentWorth: totals.CurrentWorth.Add(quote.CurrentPrice.Mul(row.Quantity)),
		PriorWorth:   totals.PriorWorth.Add(PriorPrice(quote).Mul(row.Quantity)),
		ProfitLoss:   totals.ProfitLoss.Add(profitLoss),
	}
}

// QuoteFromBars derives a quote from daily bars in any order. The two most
// recent dated bars are compared, so weekends and holidays fall out without
// any calendar logic.
func QuoteFromBars(bars []domain.DailyBar) (*domain.Quote, error) {
	if len(bars) == 0 {
		return nil, fmt.Errorf("no data points")
	}

	sorted := make([]domain.DailyBar, len(bars))
	copy(sorted, bars)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date.After(sorted[j].Date)
	})

	latest := sorted[0]
	quote := &domain.Quote{
		CurrentPrice: latest.Close,
		DayChangePct: decimal.Zero,
		DayHigh:      latest.High,
		DayLow:       latest.Low,
	}
	if len(sorted) >= 2 {
		prior := sorted[1]
		quote.DayChangePct = PercentChange(prior.Close, latest.Close)
		quote.PriorClose = decimal.NewNullDecimal(prior.Close)
	}

	return quote, nil
}
