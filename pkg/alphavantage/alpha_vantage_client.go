package alphavantage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const DefaultBaseUrl = "https://www.alphavantage.co/query"

const (
	stockSeriesKey  = "Time Series (Daily)"
	cryptoSeriesKey = "Time Series (Digital Currency Daily)"
)

type Client struct {
	HttpClient *http.Client
	ApiKey     string
	BaseUrl    string
	// quote currency for digital currency series
	Market string
}

// Bar is one dated entry of a daily series.
type Bar struct {
	Date  time.Time
	High  decimal.Decimal
	Low   decimal.Decimal
	Close decimal.Decimal
}

// ApiError is returned for payloads that carry no data: an explicit error
// message, a rate limit note, or a series key that is not there.
type ApiError struct {
	Kind    string
	Message string
}

func (e ApiError) Error() string {
	return fmt.Sprintf("alpha vantage %s: %s", e.Kind, e.Message)
}

const (
	ApiErrorKind_Error      = "error"
	ApiErrorKind_RateLimit  = "rate limit"
	ApiErrorKind_MissingKey = "missing series"
)

func (c Client) baseUrl() string {
	if c.BaseUrl != "" {
		return c.BaseUrl
	}
	return DefaultBaseUrl
}

func (c Client) GetDailyStock(ctx context.Context, symbol string) ([]Bar, error) {
	params := url.Values{}
	params.Set("function", "TIME_SERIES_DAILY")
	params.Set("symbol", symbol)
	return c.getSeries(ctx, params, stockSeriesKey)
}

func (c Client) GetDailyCrypto(ctx context.Context, symbol string) ([]Bar, error) {
	market := c.Market
	if market == "" {
		market = "USD"
	}
	params := url.Values{}
	params.Set("function", "DIGITAL_CURRENCY_DAILY")
	params.Set("symbol", symbol)
	params.Set("market", market)
	return c.getSeries(ctx, params, cryptoSeriesKey)
}

func (c Client) getSeries(ctx context.Context, params url.Values, seriesKey string) ([]Bar, error) {
	params.Set("apikey", c.ApiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseUrl()+"?"+params.Encode(), nil)
	if err != nil {
		return nil, c.redact(err)
	}
	response, err := c.HttpClient.Do(req)
	if err != nil {
		return nil, c.transportError(err)
	}
	defer response.Body.Close()

	responseBytes, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, fmt.Errorf("received status code %d and failed to read body: %w", response.StatusCode, err)
	}
	if response.StatusCode != 200 {
		return nil, fmt.Errorf("failed with status code %d: %s", response.StatusCode, string(responseBytes))
	}

	return parseSeries(responseBytes, seriesKey)
}

// transportError drops the request URL, which carries the api key.
func (c Client) transportError(err error) error {
	urlErr := &url.Error{}
	if errors.As(err, &urlErr) {
		return c.redact(fmt.Errorf("%s request failed: %w", urlErr.Op, urlErr.Err))
	}
	return c.redact(err)
}

type redactedError struct {
	msg string
	err error
}

func (e redactedError) Error() string { return e.msg }
func (e redactedError) Unwrap() error { return e.err }

func (c Client) redact(err error) error {
	if c.ApiKey == "" || !strings.Contains(err.Error(), c.ApiKey) {
		return err
	}
	return redactedError{
		msg: strings.ReplaceAll(err.Error(), c.ApiKey, "<redacted>"),
		err: err,
	}
}

func parseSeries(responseBytes []byte, seriesKey string) ([]Bar, error) {
	responseJson := map[string]json.RawMessage{}
	if err := json.Unmarshal(responseBytes, &responseJson); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	if msg, ok := stringField(responseJson, "Error Message"); ok {
		return nil, ApiError{Kind: ApiErrorKind_Error, Message: msg}
	}
	// free tier answers throttled calls with 200 and a note instead of data
	for _, key := range []string{"Note", "Information"} {
		if msg, ok := stringField(responseJson, key); ok {
			return nil, ApiError{Kind: ApiErrorKind_RateLimit, Message: msg}
		}
	}

	rawSeries, ok := responseJson[seriesKey]
	if !ok {
		return nil, ApiError{Kind: ApiErrorKind_MissingKey, Message: fmt.Sprintf("no %q in response", seriesKey)}
	}
	series := map[string]map[string]string{}
	if err := json.Unmarshal(rawSeries, &series); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", seriesKey, err)
	}

	bars := make([]Bar, 0, len(series))
	for dateStr, fields := range series {
		date, err := time.Parse(time.DateOnly, dateStr)
		if err != nil {
			return nil, fmt.Errorf("invalid date %q: %w", dateStr, err)
		}
		bar := Bar{Date: date}
		if bar.High, err = field(fields, "2. high", "2a. high (USD)"); err != nil {
			return nil, fmt.Errorf("%s: %w", dateStr, err)
		}
		if bar.Low, err = field(fields, "3. low", "3a. low (USD)"); err != nil {
			return nil, fmt.Errorf("%s: %w", dateStr, err)
		}
		if bar.Close, err = field(fields, "4. close", "4a. close (USD)"); err != nil {
			return nil, fmt.Errorf("%s: %w", dateStr, err)
		}
		bars = append(bars, bar)
	}

	sort.Slice(bars, func(i, j int) bool {
		return bars[i].Date.After(bars[j].Date)
	})

	return bars, nil
}

func stringField(in map[string]json.RawMessage, key string) (string, bool) {
	raw, ok := in[key]
	if !ok {
		return "", false
	}
	s := ""
	if err := json.Unmarshal(raw, &s); err != nil {
		return string(raw), true
	}
	return s, true
}

// field reads the first key present; digital currency series used to
// suffix their fields with the market.
func field(fields map[string]string, keys ...string) (decimal.Decimal, error) {
	for _, k := range keys {
		if v, ok := fields[k]; ok {
			d, err := decimal.NewFromString(v)
			if err != nil {
				return decimal.Zero, fmt.Errorf("invalid %s %q: %w", k, v, err)
			}
			return d, nil
		}
	}
	return decimal.Zero, fmt.Errorf("missing field %s", keys[0])
}
