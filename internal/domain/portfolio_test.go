package domain

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestParsePortfolioRecord(t *testing.T) {
	t.Run("normalizes ticker and type", func(t *testing.T) {
		row, err := ParsePortfolioRecord(PortfolioRecord{
			Ticker:     " aapl ",
			BuyInPrice: "100.50",
			Quantity:   "10",
			Type:       "Stock",
		})
		require.NoError(t, err)
		require.Equal(t, "AAPL", row.Ticker)
		require.True(t, decimal.RequireFromString("100.5").Equal(row.BuyPrice))
		require.True(t, decimal.NewFromInt(10).Equal(row.Quantity))
		require.Equal(t, InstrumentType_Stock, row.InstrumentType)
	})

	t.Run("empty type defaults to stock", func(t *testing.T) {
		row, err := ParsePortfolioRecord(PortfolioRecord{Ticker: "MSFT", BuyInPrice: "1", Quantity: "1"})
		require.NoError(t, err)
		require.Equal(t, InstrumentType_Stock, row.InstrumentType)
	})

	t.Run("crypto with formatted price", func(t *testing.T) {
		row, err := ParsePortfolioRecord(PortfolioRecord{Ticker: "btc", BuyInPrice: "$30,000.25", Quantity: "0.5", Type: "CRYPTO"})
		require.NoError(t, err)
		require.Equal(t, InstrumentType_Crypto, row.InstrumentType)
		require.True(t, decimal.RequireFromString("30000.25").Equal(row.BuyPrice))
	})

	t.Run("rejects bad input", func(t *testing.T) {
		cases := []PortfolioRecord{
			{Ticker: "", BuyInPrice: "1", Quantity: "1"},
			{Ticker: "X", BuyInPrice: "abc", Quantity: "1"},
			{Ticker: "X", BuyInPrice: "1", Quantity: "-3"},
			{Ticker: "X", BuyInPrice: "1", Quantity: "1", Type: "bond"},
		}
		for _, c := range cases {
			_, err := ParsePortfolioRecord(c)
			require.Error(t, err, "%+v", c)
		}
	})
}

func TestDataUnavailableError(t *testing.T) {
	cause := errors.New("boom")
	err := NewDataUnavailableError("XYZ", "request failed", cause)

	require.True(t, IsDataUnavailable(err))
	require.True(t, IsDataUnavailable(errors.Join(errors.New("other"), err)))
	require.ErrorIs(t, err, cause)
	require.Equal(t, "data unavailable for XYZ: request failed: boom", err.Error())
	require.False(t, IsDataUnavailable(cause))
}
