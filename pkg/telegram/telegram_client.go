package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const (
	DefaultBaseUrl = "https://api.telegram.org"

	// Bot API rejects longer texts.
	MaxMessageLength = 4096

	ParseMode_Markdown = "Markdown"
)

type Client struct {
	HttpClient *http.Client
	BotToken   string
	BaseUrl    string
	// telegram throttles bots posting more than about one message per
	// second into the same chat
	Limiter *rate.Limiter
}

func NewClient(httpClient *http.Client, botToken string) *Client {
	return &Client{
		HttpClient: httpClient,
		BotToken:   botToken,
		BaseUrl:    DefaultBaseUrl,
		Limiter:    rate.NewLimiter(rate.Every(time.Second), 1),
	}
}

type sendMessageRequest struct {
	ChatID    string `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode,omitempty"`
}

type apiResponse struct {
	Ok          bool   `json:"ok"`
	ErrorCode   int    `json:"error_code"`
	Description string `json:"description"`
}

type APIError struct {
	StatusCode  int
	Description string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("telegram api error %d: %s", e.StatusCode, e.Description)
}

// SendMessage posts text to the chat, splitting it into several messages
// when it is over the length limit.
func (c *Client) SendMessage(ctx context.Context, chatID string, text string, parseMode string) error {
	chunks := SplitMessage(text, MaxMessageLength)
	for i, chunk := range chunks {
		if err := c.sendOne(ctx, chatID, chunk, parseMode); err != nil {
			return fmt.Errorf("failed to send part %d/%d: %w", i+1, len(chunks), err)
		}
	}
	return nil
}

func (c *Client) sendOne(ctx context.Context, chatID string, text string, parseMode string) error {
	if c.Limiter != nil {
		if err := c.Limiter.Wait(ctx); err != nil {
			return err
		}
	}

	payload, err := json.Marshal(sendMessageRequest{
		ChatID:    chatID,
		Text:      text,
		ParseMode: parseMode,
	})
	if err != nil {
		return err
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", c.BaseUrl, c.BotToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	response, err := c.HttpClient.Do(req)
	if err != nil {
		// the url carries the token, keep it out of the error
		return fmt.Errorf("failed to reach telegram: %w", redact(err, c.BotToken))
	}
	defer response.Body.Close()

	responseBytes, err := io.ReadAll(response.Body)
	if err != nil {
		return fmt.Errorf("received status code %d and failed to read body: %w", response.StatusCode, err)
	}

	if response.StatusCode != http.StatusOK {
		errJson := apiResponse{}
		if err := json.Unmarshal(responseBytes, &errJson); err != nil || errJson.Description == "" {
			return &APIError{StatusCode: response.StatusCode, Description: string(responseBytes)}
		}
		return &APIError{StatusCode: response.StatusCode, Description: errJson.Description}
	}

	return nil
}

type redactedError struct {
	msg string
	err error
}

func (e redactedError) Error() string { return e.msg }
func (e redactedError) Unwrap() error { return e.err }

func redact(err error, secret string) error {
	if secret == "" || !strings.Contains(err.Error(), secret) {
		return err
	}
	return redactedError{
		msg: strings.ReplaceAll(err.Error(), secret, "<redacted>"),
		err: err,
	}
}

// SplitMessage cuts text into pieces of at most limit bytes, preferring
// blank-line boundaries, then line boundaries. Lines longer than the limit
// are hard split.
func SplitMessage(text string, limit int) []string {
	if len(text) <= limit {
		return []string{text}
	}

	chunks := []string{}
	current := strings.Builder{}
	flush := func() {
		if current.Len() > 0 {
			chunks = append(chunks, current.String())
			current.Reset()
		}
	}

	for _, line := range strings.SplitAfter(text, "\n") {
		for len(line) > limit {
			flush()
			cut := safeCut(line, limit)
			chunks = append(chunks, line[:cut])
			line = line[cut:]
		}
		if current.Len()+len(line) > limit {
			flush()
		}
		current.WriteString(line)
		// blank line ends a section, good place to break if we are close
		if line == "\n" && current.Len() > limit*3/4 {
			flush()
		}
	}
	flush()

	return chunks
}

// safeCut backs off so a multi-byte rune is never split.
func safeCut(s string, limit int) int {
	cut := limit
	for cut > 0 && !isRuneStart(s[cut]) {
		cut--
	}
	if cut == 0 {
		return limit
	}
	return cut
}

func isRuneStart(b byte) bool {
	return b&0xC0 != 0x80
}
