package util

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	for _, key := range []string{
		"SECRETS_FILE", "REPORT_ENV", "TEST_MODE", "ALPHA_VANTAGE_API_KEY", "OPENAI_API_KEY",
		"TELEGRAM_BOT_TOKEN", "TELEGRAM_CHAT_ID", "GOOGLE_CREDS_JSON", "PORTFOLIO_SHEET_ID",
		"CALLS_PER_PERIOD", "PERIOD_SECONDS", "QUOTE_PROVIDER", "INSIGHT_PROVIDER", "DELIVERY_CHANNEL",
		"PORTFOLIO_CSV", "HTTP_TIMEOUT_SECONDS",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadSecrets(t *testing.T) {
	t.Run("json file with env overrides", func(t *testing.T) {
		clearEnv(t)
		dir := t.TempDir()
		path := filepath.Join(dir, "secrets.json")
		require.NoError(t, os.WriteFile(path, []byte(`{
			"alphaVantage": "av-file",
			"gpt": "gpt-file",
			"telegram": {"botToken": "bot", "chatId": "123"},
			"sheets": {"credentialsJson": "{}", "spreadsheetId": "sheet-id"},
			"settings": {"callsPerPeriod": 75, "periodSeconds": 60}
		}`), 0o600))

		t.Setenv("SECRETS_FILE", path)
		t.Setenv("ALPHA_VANTAGE_API_KEY", "av-env")
		t.Setenv("TEST_MODE", "True")

		secrets, err := LoadSecrets()
		require.NoError(t, err)

		require.Equal(t, "av-env", secrets.AlphaVantageApiKey)
		require.Equal(t, "gpt-file", secrets.ChatGPTApiKey)
		require.Equal(t, "123", secrets.Telegram.ChatID)
		require.True(t, secrets.Settings.TestMode)
		require.Equal(t, 75, secrets.Settings.CallsPerPeriod)
		require.Equal(t, time.Minute, secrets.Settings.Period())
		require.Equal(t, 30*time.Second, secrets.Settings.HttpTimeout())
		require.Equal(t, "Sheet2", secrets.Worksheet())
		require.Equal(t, "America/New_York", secrets.Settings.Timezone)
		require.NoError(t, secrets.Validate())
	})

	t.Run("toml file", func(t *testing.T) {
		clearEnv(t)
		path := filepath.Join(t.TempDir(), "secrets.toml")
		require.NoError(t, os.WriteFile(path, []byte(`
alphaVantage = "av"

[settings]
quoteProvider = "Yahoo"
periodSeconds = 12
`), 0o600))
		t.Setenv("SECRETS_FILE", path)

		secrets, err := LoadSecrets()
		require.NoError(t, err)
		require.Equal(t, "av", secrets.AlphaVantageApiKey)
		require.Equal(t, QuoteProvider_Yahoo, secrets.Settings.QuoteProvider)
		require.Equal(t, 12*time.Second, secrets.Settings.Period())
		require.Equal(t, "Sheet1", secrets.Worksheet())
	})

	t.Run("env only", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("SECRETS_FILE", "")
		t.Setenv("REPORT_ENV", "test")
		t.Chdir(t.TempDir())
		t.Setenv("PERIOD_SECONDS", "5")
		t.Setenv("CALLS_PER_PERIOD", "3")

		secrets, err := LoadSecrets()
		require.NoError(t, err)
		require.Equal(t, 3, secrets.Settings.CallsPerPeriod)
		require.Equal(t, 5*time.Second, secrets.Settings.Period())
	})

	t.Run("explicit missing file", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("SECRETS_FILE", filepath.Join(t.TempDir(), "nope.json"))
		_, err := LoadSecrets()
		require.Error(t, err)
	})

	t.Run("bad numeric env", func(t *testing.T) {
		clearEnv(t)
		t.Chdir(t.TempDir())
		t.Setenv("PERIOD_SECONDS", "sixty")
		_, err := LoadSecrets()
		require.ErrorContains(t, err, "PERIOD_SECONDS")
	})
}

func TestSecrets_Validate(t *testing.T) {
	base := func() Secrets {
		s := Secrets{
			AlphaVantageApiKey: "av",
			ChatGPTApiKey:      "gpt",
			Telegram:           TelegramSecrets{BotToken: "bot", ChatID: "1"},
			Sheets:             SheetsSecrets{CredentialsJSON: "{}", SpreadsheetID: "id"},
		}
		s.applyDefaults()
		return s
	}

	t.Run("valid", func(t *testing.T) {
		require.NoError(t, base().Validate())
	})

	t.Run("csv input needs no sheet credentials", func(t *testing.T) {
		s := base()
		s.Sheets = SheetsSecrets{}
		s.Settings.CsvPath = "portfolio.csv"
		require.NoError(t, s.Validate())
	})

	t.Run("missing telegram outside test mode", func(t *testing.T) {
		s := base()
		s.Telegram = TelegramSecrets{}
		require.ErrorContains(t, s.Validate(), "telegram.botToken")

		s.Settings.TestMode = true
		require.NoError(t, s.Validate())
	})

	t.Run("alpaca needs keys", func(t *testing.T) {
		s := base()
		s.Settings.QuoteProvider = QuoteProvider_Alpaca
		require.ErrorContains(t, s.Validate(), "alpaca.apiKey")
	})

	t.Run("unknown provider", func(t *testing.T) {
		s := base()
		s.Settings.InsightProvider = "oracle"
		require.Error(t, s.Validate())
	})
}

func TestFormatReportTimestamp(t *testing.T) {
	clock, err := ReportClock("America/New_York")
	require.NoError(t, err)
	require.Equal(t, "America/New_York", clock().Location().String())

	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	ts := time.Date(2024, 6, 7, 16, 5, 0, 0, loc)
	require.Equal(t, "2024-06-07 04:05 PM ET", FormatReportTimestamp(ts))

	require.Equal(t, "2024-06-07 04:05 PM UTC", FormatReportTimestamp(time.Date(2024, 6, 7, 16, 5, 0, 0, time.UTC)))

	_, err = ReportClock("Mars/Olympus")
	require.Error(t, err)
}
