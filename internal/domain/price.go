package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// DailyBar is a provider-neutral daily candle.
type DailyBar struct {
	Date  time.Time
	High  decimal.Decimal
	Low   decimal.Decimal
	Close decimal.Decimal
}

type Quote struct {
	CurrentPrice decimal.Decimal
	DayChangePct decimal.Decimal
	DayHigh      decimal.Decimal
	DayLow       decimal.Decimal
	// only set when the provider returned at least two bars
	PriorClose decimal.NullDecimal
}

// DataUnavailableError is the single failure signal quote providers return,
// whatever went wrong upstream.
type DataUnavailableError struct {
	Ticker string
	Reason string
	Err    error
}

func (e *DataUnavailableError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("data unavailable for %s: %s: %v", e.Ticker, e.Reason, e.Err)
	}
	return fmt.Sprintf("data unavailable for %s: %s", e.Ticker, e.Reason)
}

func (e *DataUnavailableError) Unwrap() error {
	return e.Err
}

func NewDataUnavailableError(ticker, reason string, err error) *DataUnavailableError {
	return &DataUnavailableError{
		Ticker: ticker,
		Reason: reason,
		Err:    err,
	}
}

func IsDataUnavailable(err error) bool {
	var target *DataUnavailableError
	return errors.As(err, &target)
}
