package cmd

import (
	"context"
	"path/filepath"
	"testing"

	"portfolioreport/internal/util"

	"github.com/stretchr/testify/require"
)

func testSecrets(t *testing.T) *util.Secrets {
	dir := t.TempDir()
	return &util.Secrets{
		Settings: util.Settings{
			TestMode:           true,
			CallsPerPeriod:     5,
			PeriodSeconds:      60,
			HttpTimeoutSeconds: 5,
			QuoteProvider:      util.QuoteProvider_Yahoo,
			InsightProvider:    util.InsightProvider_None,
			DeliveryChannel:    util.DeliveryChannel_Telegram,
			Timezone:           "America/New_York",
			LogFile:            filepath.Join(dir, "report.log"),
			CsvPath:            filepath.Join(dir, "portfolio.csv"),
		},
	}
}

func TestInitializeDependencies(t *testing.T) {
	t.Run("test mode needs no delivery credentials", func(t *testing.T) {
		deps, err := InitializeDependencies(context.Background(), testSecrets(t))
		require.NoError(t, err)
		require.NotNil(t, deps.ReportApp)
		require.NotNil(t, deps.Logger)
	})

	t.Run("rejects missing provider credentials", func(t *testing.T) {
		secrets := testSecrets(t)
		secrets.Settings.QuoteProvider = util.QuoteProvider_AlphaVantage

		_, err := InitializeDependencies(context.Background(), secrets)
		require.ErrorContains(t, err, "alphaVantage")
	})

	t.Run("rejects unknown timezone", func(t *testing.T) {
		secrets := testSecrets(t)
		secrets.Settings.Timezone = "Mars/Olympus_Mons"

		_, err := InitializeDependencies(context.Background(), secrets)
		require.Error(t, err)
	})
}

func TestFlags_Apply(t *testing.T) {
	secrets := &util.Secrets{}
	Flags{TestMode: true, CsvPath: "p.csv", LogFile: "run.log"}.Apply(secrets)
	require.True(t, secrets.Settings.TestMode)
	require.Equal(t, "p.csv", secrets.Settings.CsvPath)
	require.Equal(t, "run.log", secrets.Settings.LogFile)

	secrets = &util.Secrets{Settings: util.Settings{TestMode: true, CsvPath: "keep.csv"}}
	Flags{}.Apply(secrets)
	require.True(t, secrets.Settings.TestMode)
	require.Equal(t, "keep.csv", secrets.Settings.CsvPath)
}
