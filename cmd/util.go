package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"portfolioreport/internal/app"
	"portfolioreport/internal/logger"
	"portfolioreport/internal/ratelimit"
	"portfolioreport/internal/repository"
	"portfolioreport/internal/service"
	"portfolioreport/internal/util"
	"portfolioreport/pkg/sheets"
	"portfolioreport/pkg/telegram"

	finance "github.com/piquette/finance-go"
	"go.uber.org/zap"
)

type Dependencies struct {
	Secrets   *util.Secrets
	Logger    *zap.SugaredLogger
	ReportApp app.ReportApp
}

// Flags are the command line overrides applied on top of the loaded
// secrets.
type Flags struct {
	TestMode bool
	CsvPath  string
	LogFile  string
}

func (f Flags) Apply(secrets *util.Secrets) {
	if f.TestMode {
		secrets.Settings.TestMode = true
	}
	if f.CsvPath != "" {
		secrets.Settings.CsvPath = f.CsvPath
	}
	if f.LogFile != "" {
		secrets.Settings.LogFile = f.LogFile
	}
}

func InitializeDependencies(ctx context.Context, secrets *util.Secrets) (*Dependencies, error) {
	if err := secrets.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	settings := secrets.Settings

	log := logger.New(settings.LogFile)
	zap.ReplaceGlobals(log.Desugar())

	httpClient := &http.Client{
		Timeout: settings.HttpTimeout(),
	}

	portfolioRepository, err := newPortfolioRepository(ctx, secrets)
	if err != nil {
		return nil, err
	}
	quoteRepository, err := newQuoteRepository(secrets, httpClient)
	if err != nil {
		return nil, err
	}
	insightRepository, err := newInsightRepository(ctx, secrets)
	if err != nil {
		return nil, err
	}

	var messageRepository repository.MessageRepository
	if !settings.TestMode {
		messageRepository, err = newMessageRepository(ctx, secrets, httpClient)
		if err != nil {
			return nil, err
		}
	}

	// quotes and delivery are throttled separately; the batch size still
	// leaves one slot of the quote window unused
	quoteLimiter := ratelimit.New(settings.CallsPerPeriod, settings.Period())
	deliveryLimiter := ratelimit.New(settings.CallsPerPeriod, settings.Period())

	quoteService := service.NewQuoteService(quoteRepository, quoteLimiter)
	insightService := service.NewInsightService(insightRepository)
	portfolioService := service.NewPortfolioService(
		portfolioRepository,
		quoteService,
		insightService,
		service.BatchSizeFor(settings.CallsPerPeriod),
		settings.Period(),
	)
	reportService := service.NewReportService()
	deliveryService := service.NewDeliveryService(messageRepository, deliveryLimiter, settings.TestMode)

	clock, err := util.ReportClock(settings.Timezone)
	if err != nil {
		return nil, err
	}

	reportApp := app.NewReportApp(
		portfolioService,
		reportService,
		deliveryService,
		clock,
	)

	log.Infow("dependencies initialized",
		"quoteProvider", settings.QuoteProvider,
		"insightProvider", settings.InsightProvider,
		"deliveryChannel", settings.DeliveryChannel,
		"testMode", settings.TestMode,
		"callsPerPeriod", settings.CallsPerPeriod,
		"period", settings.Period().String(),
	)

	return &Dependencies{
		Secrets:   secrets,
		Logger:    log,
		ReportApp: reportApp,
	}, nil
}

func newPortfolioRepository(ctx context.Context, secrets *util.Secrets) (repository.PortfolioRepository, error) {
	if secrets.Settings.CsvPath != "" {
		return repository.NewCsvPortfolioRepository(secrets.Settings.CsvPath), nil
	}

	credentials := []byte(secrets.Sheets.CredentialsJSON)
	if len(credentials) == 0 {
		f, err := os.ReadFile(secrets.Sheets.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("could not open %s: %w", secrets.Sheets.CredentialsFile, err)
		}
		credentials = f
	}

	client, err := sheets.NewServiceAccountClient(ctx, credentials, secrets.Settings.HttpTimeout())
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets client: %w", err)
	}

	return repository.NewSheetsPortfolioRepository(client, secrets.Sheets.SpreadsheetID, secrets.Worksheet()), nil
}

func newQuoteRepository(secrets *util.Secrets, httpClient *http.Client) (repository.QuoteRepository, error) {
	switch secrets.Settings.QuoteProvider {
	case util.QuoteProvider_AlphaVantage:
		return repository.NewAlphaVantageQuoteRepository(httpClient, secrets.AlphaVantageApiKey), nil
	case util.QuoteProvider_Yahoo:
		finance.SetHTTPClient(httpClient)
		return repository.NewYahooQuoteRepository(), nil
	case util.QuoteProvider_Alpaca:
		return repository.NewAlpacaQuoteRepository(
			secrets.Alpaca.ApiKey,
			secrets.Alpaca.ApiSecret,
			secrets.Alpaca.Endpoint,
		), nil
	}
	return nil, fmt.Errorf("unknown quote provider %q", secrets.Settings.QuoteProvider)
}

// newInsightRepository returns nil when insights are switched off.
func newInsightRepository(ctx context.Context, secrets *util.Secrets) (repository.InsightRepository, error) {
	model := secrets.Settings.InsightModel
	switch secrets.Settings.InsightProvider {
	case util.InsightProvider_GPT:
		return repository.NewGptInsightRepository(secrets.ChatGPTApiKey, model)
	case util.InsightProvider_Gemini:
		return repository.NewGeminiInsightRepository(ctx, secrets.GeminiApiKey, model)
	case util.InsightProvider_Claude:
		return repository.NewClaudeInsightRepository(secrets.AnthropicApiKey, model), nil
	case util.InsightProvider_None:
		return nil, nil
	}
	return nil, fmt.Errorf("unknown insight provider %q", secrets.Settings.InsightProvider)
}

func newMessageRepository(ctx context.Context, secrets *util.Secrets, httpClient *http.Client) (repository.MessageRepository, error) {
	switch secrets.Settings.DeliveryChannel {
	case util.DeliveryChannel_Telegram:
		client := telegram.NewClient(httpClient, secrets.Telegram.BotToken)
		return repository.NewTelegramMessageRepository(client, secrets.Telegram.ChatID), nil
	case util.DeliveryChannel_Email:
		emailRepository, err := repository.NewEmailMessageRepository(ctx, secrets.SES.Region, secrets.SES.FromEmail, secrets.SES.ToEmail)
		if err != nil {
			return nil, fmt.Errorf("failed to create email repository: %w", err)
		}
		return emailRepository, nil
	}
	return nil, fmt.Errorf("unknown delivery channel %q", secrets.Settings.DeliveryChannel)
}
