package util

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

const (
	QuoteProvider_AlphaVantage = "alphavantage"
	QuoteProvider_Yahoo        = "yahoo"
	QuoteProvider_Alpaca       = "alpaca"

	InsightProvider_GPT    = "gpt"
	InsightProvider_Gemini = "gemini"
	InsightProvider_Claude = "claude"
	InsightProvider_None   = "none"

	DeliveryChannel_Telegram = "telegram"
	DeliveryChannel_Email    = "email"
)

type Secrets struct {
	AlphaVantageApiKey string          `json:"alphaVantage" toml:"alphaVantage"`
	ChatGPTApiKey      string          `json:"gpt" toml:"gpt"`
	GeminiApiKey       string          `json:"gemini" toml:"gemini"`
	AnthropicApiKey    string          `json:"anthropic" toml:"anthropic"`
	Alpaca             AlpacaSecrets   `json:"alpaca" toml:"alpaca"`
	Telegram           TelegramSecrets `json:"telegram" toml:"telegram"`
	Sheets             SheetsSecrets   `json:"sheets" toml:"sheets"`
	SES                SESSecrets      `json:"ses" toml:"ses"`
	Settings           Settings        `json:"settings" toml:"settings"`
}

type AlpacaSecrets struct {
	ApiKey    string `json:"apiKey" toml:"apiKey"`
	ApiSecret string `json:"apiSecret" toml:"apiSecret"`
	Endpoint  string `json:"endpoint" toml:"endpoint"`
}

type TelegramSecrets struct {
	BotToken string `json:"botToken" toml:"botToken"`
	ChatID   string `json:"chatId" toml:"chatId"`
}

type SheetsSecrets struct {
	// raw service account json, as GOOGLE_CREDS_JSON carries it
	CredentialsJSON string `json:"credentialsJson" toml:"credentialsJson"`
	CredentialsFile string `json:"credentialsFile" toml:"credentialsFile"`
	SpreadsheetID   string `json:"spreadsheetId" toml:"spreadsheetId"`
	Worksheet       string `json:"worksheet" toml:"worksheet"`
	TestWorksheet   string `json:"testWorksheet" toml:"testWorksheet"`
}

type SESSecrets struct {
	Region    string `json:"region" toml:"region"`
	FromEmail string `json:"fromEmail" toml:"fromEmail"`
	ToEmail   string `json:"toEmail" toml:"toEmail"`
}

type Settings struct {
	TestMode           bool   `json:"testMode" toml:"testMode"`
	CallsPerPeriod     int    `json:"callsPerPeriod" toml:"callsPerPeriod"`
	PeriodSeconds      int    `json:"periodSeconds" toml:"periodSeconds"`
	HttpTimeoutSeconds int    `json:"httpTimeoutSeconds" toml:"httpTimeoutSeconds"`
	QuoteProvider      string `json:"quoteProvider" toml:"quoteProvider"`
	InsightProvider    string `json:"insightProvider" toml:"insightProvider"`
	InsightModel       string `json:"insightModel" toml:"insightModel"`
	DeliveryChannel    string `json:"deliveryChannel" toml:"deliveryChannel"`
	Timezone           string `json:"timezone" toml:"timezone"`
	LogFile            string `json:"logFile" toml:"logFile"`
	CsvPath            string `json:"csvPath" toml:"csvPath"`
	Schedule           string `json:"schedule" toml:"schedule"`
}

func (s Settings) Period() time.Duration {
	return time.Duration(s.PeriodSeconds) * time.Second
}

func (s Settings) HttpTimeout() time.Duration {
	return time.Duration(s.HttpTimeoutSeconds) * time.Second
}

// Worksheet picks the tab to read; test runs read their own tab so a
// broken row never reaches the live sheet.
func (s Secrets) Worksheet() string {
	if s.Settings.TestMode {
		return s.Sheets.TestWorksheet
	}
	return s.Sheets.Worksheet
}

func secretsFile() (path string, explicit bool) {
	if f := os.Getenv("SECRETS_FILE"); f != "" {
		return f, true
	}
	switch strings.ToLower(os.Getenv("REPORT_ENV")) {
	case "dev":
		return "secrets-dev.json", false
	case "test":
		return "secrets-test.json", false
	}
	return "secrets.json", false
}

// LoadSecrets reads the secrets file for the current environment, if there
// is one, then lets environment variables override it.
func LoadSecrets() (*Secrets, error) {
	secrets := Secrets{}

	path, explicit := secretsFile()
	f, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := decodeSecrets(path, f, &secrets); err != nil {
			return nil, fmt.Errorf("could not parse %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist) && !explicit:
		// env-only configuration
	default:
		return nil, fmt.Errorf("could not open %s: %w", path, err)
	}

	if err := secrets.applyEnv(); err != nil {
		return nil, err
	}
	secrets.applyDefaults()

	return &secrets, nil
}

func decodeSecrets(path string, f []byte, out *Secrets) error {
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		return toml.Unmarshal(f, out)
	}
	return json.Unmarshal(f, out)
}

func (s *Secrets) applyEnv() error {
	envString("ALPHA_VANTAGE_API_KEY", &s.AlphaVantageApiKey)
	envString("OPENAI_API_KEY", &s.ChatGPTApiKey)
	envString("GEMINI_API_KEY", &s.GeminiApiKey)
	envString("ANTHROPIC_API_KEY", &s.AnthropicApiKey)
	envString("ALPACA_API_KEY", &s.Alpaca.ApiKey)
	envString("ALPACA_API_SECRET", &s.Alpaca.ApiSecret)
	envString("ALPACA_ENDPOINT", &s.Alpaca.Endpoint)
	envString("TELEGRAM_BOT_TOKEN", &s.Telegram.BotToken)
	envString("TELEGRAM_CHAT_ID", &s.Telegram.ChatID)
	envString("GOOGLE_CREDS_JSON", &s.Sheets.CredentialsJSON)
	envString("GOOGLE_APPLICATION_CREDENTIALS", &s.Sheets.CredentialsFile)
	envString("PORTFOLIO_SHEET_ID", &s.Sheets.SpreadsheetID)
	envString("PORTFOLIO_WORKSHEET", &s.Sheets.Worksheet)
	envString("PORTFOLIO_TEST_WORKSHEET", &s.Sheets.TestWorksheet)
	envString("SES_REGION", &s.SES.Region)
	envString("SES_FROM_EMAIL", &s.SES.FromEmail)
	envString("SES_TO_EMAIL", &s.SES.ToEmail)
	envString("QUOTE_PROVIDER", &s.Settings.QuoteProvider)
	envString("INSIGHT_PROVIDER", &s.Settings.InsightProvider)
	envString("INSIGHT_MODEL", &s.Settings.InsightModel)
	envString("DELIVERY_CHANNEL", &s.Settings.DeliveryChannel)
	envString("REPORT_TIMEZONE", &s.Settings.Timezone)
	envString("LOG_FILE", &s.Settings.LogFile)
	envString("PORTFOLIO_CSV", &s.Settings.CsvPath)
	envString("REPORT_SCHEDULE", &s.Settings.Schedule)

	if err := envBool("TEST_MODE", &s.Settings.TestMode); err != nil {
		return err
	}
	if err := envInt("CALLS_PER_PERIOD", &s.Settings.CallsPerPeriod); err != nil {
		return err
	}
	if err := envInt("PERIOD_SECONDS", &s.Settings.PeriodSeconds); err != nil {
		return err
	}
	if err := envInt("HTTP_TIMEOUT_SECONDS", &s.Settings.HttpTimeoutSeconds); err != nil {
		return err
	}
	return nil
}

func (s *Secrets) applyDefaults() {
	defaultString(&s.Settings.QuoteProvider, QuoteProvider_AlphaVantage)
	defaultString(&s.Settings.InsightProvider, InsightProvider_GPT)
	defaultString(&s.Settings.DeliveryChannel, DeliveryChannel_Telegram)
	defaultString(&s.Settings.Timezone, "America/New_York")
	defaultString(&s.Settings.LogFile, "stock_analysis.log")
	defaultString(&s.Sheets.Worksheet, "Sheet1")
	defaultString(&s.Sheets.TestWorksheet, "Sheet2")
	defaultString(&s.Alpaca.Endpoint, "https://data.alpaca.markets")
	if s.Settings.CallsPerPeriod <= 0 {
		s.Settings.CallsPerPeriod = 5
	}
	if s.Settings.PeriodSeconds <= 0 {
		s.Settings.PeriodSeconds = 60
	}
	if s.Settings.HttpTimeoutSeconds <= 0 {
		s.Settings.HttpTimeoutSeconds = 30
	}
	s.Settings.QuoteProvider = strings.ToLower(s.Settings.QuoteProvider)
	s.Settings.InsightProvider = strings.ToLower(s.Settings.InsightProvider)
	s.Settings.DeliveryChannel = strings.ToLower(s.Settings.DeliveryChannel)
}

// Validate checks that every selected provider has what it needs.
func (s Secrets) Validate() error {
	missing := []string{}
	require := func(value, name string) {
		if value == "" {
			missing = append(missing, name)
		}
	}

	if s.Settings.CsvPath == "" {
		require(s.Sheets.SpreadsheetID, "sheets.spreadsheetId")
		if s.Sheets.CredentialsJSON == "" && s.Sheets.CredentialsFile == "" {
			missing = append(missing, "sheets.credentialsJson")
		}
	}

	switch s.Settings.QuoteProvider {
	case QuoteProvider_AlphaVantage:
		require(s.AlphaVantageApiKey, "alphaVantage")
	case QuoteProvider_Yahoo:
	case QuoteProvider_Alpaca:
		require(s.Alpaca.ApiKey, "alpaca.apiKey")
		require(s.Alpaca.ApiSecret, "alpaca.apiSecret")
	default:
		return fmt.Errorf("unknown quote provider %q", s.Settings.QuoteProvider)
	}

	switch s.Settings.InsightProvider {
	case InsightProvider_GPT:
		require(s.ChatGPTApiKey, "gpt")
	case InsightProvider_Gemini:
		require(s.GeminiApiKey, "gemini")
	case InsightProvider_Claude:
		require(s.AnthropicApiKey, "anthropic")
	case InsightProvider_None:
	default:
		return fmt.Errorf("unknown insight provider %q", s.Settings.InsightProvider)
	}

	if !s.Settings.TestMode {
		switch s.Settings.DeliveryChannel {
		case DeliveryChannel_Telegram:
			require(s.Telegram.BotToken, "telegram.botToken")
			require(s.Telegram.ChatID, "telegram.chatId")
		case DeliveryChannel_Email:
			require(s.SES.Region, "ses.region")
			require(s.SES.FromEmail, "ses.fromEmail")
			require(s.SES.ToEmail, "ses.toEmail")
		default:
			return fmt.Errorf("unknown delivery channel %q", s.Settings.DeliveryChannel)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("missing configuration: %s", strings.Join(missing, ", "))
	}
	return nil
}

func envString(key string, out *string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*out = v
	}
}

func envBool(key string, out *bool) error {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return nil
	}
	b, err := strconv.ParseBool(strings.ToLower(v))
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	*out = b
	return nil
}

func envInt(key string, out *int) error {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return nil
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	*out = i
	return nil
}

func defaultString(field *string, value string) {
	if *field == "" {
		*field = value
	}
}
