package sheets

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const (
	DefaultBaseUrl = "https://sheets.googleapis.com/v4/spreadsheets"

	readOnlyScope = "https://www.googleapis.com/auth/spreadsheets.readonly"
)

type Client struct {
	HttpClient *http.Client
	BaseUrl    string
}

// NewServiceAccountClient authenticates with a service account key, the
// same credential bundle the sheet is shared with.
func NewServiceAccountClient(ctx context.Context, credentialsJson []byte, timeout time.Duration) (*Client, error) {
	creds, err := google.CredentialsFromJSON(ctx, credentialsJson, readOnlyScope)
	if err != nil {
		return nil, fmt.Errorf("failed to parse google credentials: %w", err)
	}

	baseClient := &http.Client{Timeout: timeout}
	ctx = context.WithValue(ctx, oauth2.HTTPClient, baseClient)
	httpClient := oauth2.NewClient(ctx, creds.TokenSource)
	httpClient.Timeout = timeout

	return &Client{
		HttpClient: httpClient,
		BaseUrl:    DefaultBaseUrl,
	}, nil
}

type valueRange struct {
	Range          string     `json:"range"`
	MajorDimension string     `json:"majorDimension"`
	Values         [][]string `json:"values"`
}

type errResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// GetValues returns the formatted cell values of a range, row major. Trailing
// empty cells are omitted by the API, so rows can be ragged.
func (c Client) GetValues(ctx context.Context, spreadsheetID string, readRange string) ([][]string, error) {
	endpoint := fmt.Sprintf(
		"%s/%s/values/%s?majorDimension=ROWS&valueRenderOption=FORMATTED_VALUE",
		c.BaseUrl,
		url.PathEscape(spreadsheetID),
		url.PathEscape(readRange),
	)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	response, err := c.HttpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer response.Body.Close()

	responseBytes, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, fmt.Errorf("received status code %d and failed to read body: %w", response.StatusCode, err)
	}

	if response.StatusCode != 200 {
		errJson := errResponse{}
		if err := json.Unmarshal(responseBytes, &errJson); err != nil || errJson.Error.Message == "" {
			return nil, fmt.Errorf("failed with status code %d: %s", response.StatusCode, string(responseBytes))
		}
		return nil, fmt.Errorf("failed with status code %d: %s", response.StatusCode, errJson.Error.Message)
	}

	responseJson := valueRange{}
	if err := json.Unmarshal(responseBytes, &responseJson); err != nil {
		return nil, fmt.Errorf("failed to decode values: %w", err)
	}

	return responseJson.Values, nil
}
