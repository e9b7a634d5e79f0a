package domain

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

type InstrumentType string

const (
	InstrumentType_Stock  InstrumentType = "stock"
	InstrumentType_Crypto InstrumentType = "crypto"
)

func ParseInstrumentType(in string) (InstrumentType, error) {
	switch strings.ToLower(strings.TrimSpace(in)) {
	case "", string(InstrumentType_Stock):
		return InstrumentType_Stock, nil
	case string(InstrumentType_Crypto):
		return InstrumentType_Crypto, nil
	}
	return "", fmt.Errorf("unknown instrument type %q", in)
}

// PortfolioRecord is one row as it comes out of the sheet, before any parsing.
type PortfolioRecord struct {
	Ticker     string `csv:"Ticker"`
	BuyInPrice string `csv:"BuyInPrice"`
	Quantity   string `csv:"Quantity"`
	Type       string `csv:"Type"`
}

type PortfolioRow struct {
	Ticker         string
	BuyPrice       decimal.Decimal
	Quantity       decimal.Decimal
	InstrumentType InstrumentType
}

func (r PortfolioRow) Investment() decimal.Decimal {
	return r.BuyPrice.Mul(r.Quantity)
}

// NormalizedTicker is the upper-cased ticker, used to label a row even
// when the rest of the record cannot be parsed.
func (r PortfolioRecord) NormalizedTicker() string {
	return strings.ToUpper(strings.TrimSpace(r.Ticker))
}

func ParsePortfolioRecord(r PortfolioRecord) (*PortfolioRow, error) {
	ticker := r.NormalizedTicker()
	if ticker == "" {
		return nil, fmt.Errorf("missing ticker")
	}

	buyPrice, err := parseNonNegative(r.BuyInPrice)
	if err != nil {
		return nil, fmt.Errorf("invalid buy price for %s: %w", ticker, err)
	}
	quantity, err := parseNonNegative(r.Quantity)
	if err != nil {
		return nil, fmt.Errorf("invalid quantity for %s: %w", ticker, err)
	}
	instrumentType, err := ParseInstrumentType(r.Type)
	if err != nil {
		return nil, fmt.Errorf("invalid type for %s: %w", ticker, err)
	}

	return &PortfolioRow{
		Ticker:         ticker,
		BuyPrice:       buyPrice,
		Quantity:       quantity,
		InstrumentType: instrumentType,
	}, nil
}

func parseNonNegative(in string) (decimal.Decimal, error) {
	// sheets exports sometimes carry currency symbols and thousands separators
	cleaned := strings.NewReplacer("$", "", ",", "", " ", "").Replace(strings.TrimSpace(in))
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%q is not a number", in)
	}
	if d.IsNegative() {
		return decimal.Zero, fmt.Errorf("%s is negative", d.String())
	}
	return d, nil
}

// PositionResult is the outcome of processing a single row. Either Quote and
// ProfitLoss are set, or Error is.
type PositionResult struct {
	Index      int
	Ticker     string
	Row        *PortfolioRow
	Quote      *Quote
	ProfitLoss decimal.NullDecimal
	Insight    string
	Error      string
}

func (p PositionResult) Failed() bool {
	return p.Error != ""
}

func NewFailedPositionResult(index int, ticker string, row *PortfolioRow, err error) PositionResult {
	return PositionResult{
		Index:  index,
		Ticker: ticker,
		Row:    row,
		Error:  err.Error(),
	}
}

type PortfolioTotals struct {
	Investment   decimal.Decimal
	CurrentWorth decimal.Decimal
	PriorWorth   decimal.Decimal
	ProfitLoss   decimal.Decimal
}

func (t PortfolioTotals) DayChange() decimal.Decimal {
	return t.CurrentWorth.Sub(t.PriorWorth)
}

type PortfolioReport struct {
	Results []PositionResult
	Totals  PortfolioTotals
	Batches int
	Pauses  int
}

func (r PortfolioReport) FailedCount() int {
	n := 0
	for _, result := range r.Results {
		if result.Failed() {
			n++
		}
	}
	return n
}
