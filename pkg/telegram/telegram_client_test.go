package telegram

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClient_SendMessage(t *testing.T) {
	t.Run("posts markdown to the chat", func(t *testing.T) {
		received := []sendMessageRequest{}
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, http.MethodPost, r.Method)
			require.Equal(t, "/botTOKEN/sendMessage", r.URL.Path)
			body := sendMessageRequest{}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			received = append(received, body)
			w.Write([]byte(`{"ok":true,"result":{}}`))
		}))
		defer server.Close()

		c := NewClient(server.Client(), "TOKEN")
		c.BaseUrl = server.URL
		c.Limiter = nil

		err := c.SendMessage(context.Background(), "42", "📊 *Portfolio Update*", ParseMode_Markdown)
		require.NoError(t, err)
		require.Equal(t, []sendMessageRequest{{
			ChatID:    "42",
			Text:      "📊 *Portfolio Update*",
			ParseMode: "Markdown",
		}}, received)
	})

	t.Run("non 200 surfaces the description", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"ok":false,"error_code":400,"description":"Bad Request: chat not found"}`))
		}))
		defer server.Close()

		c := NewClient(server.Client(), "TOKEN")
		c.BaseUrl = server.URL

		err := c.SendMessage(context.Background(), "42", "hi", ParseMode_Markdown)
		apiErr := &APIError{}
		require.True(t, errors.As(err, &apiErr))
		require.Equal(t, 400, apiErr.StatusCode)
		require.Equal(t, "Bad Request: chat not found", apiErr.Description)
	})

	t.Run("long reports go out in several messages", func(t *testing.T) {
		count := 0
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			body := sendMessageRequest{}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			require.LessOrEqual(t, len(body.Text), MaxMessageLength)
			count++
			w.Write([]byte(`{"ok":true}`))
		}))
		defer server.Close()

		c := NewClient(server.Client(), "TOKEN")
		c.BaseUrl = server.URL
		c.Limiter = nil

		section := strings.Repeat("- Price: `$100.00`\n", 20) + "\n"
		err := c.SendMessage(context.Background(), "42", strings.Repeat(section, 30), ParseMode_Markdown)
		require.NoError(t, err)
		require.Greater(t, count, 1)
	})

	t.Run("token is redacted from transport errors", func(t *testing.T) {
		c := NewClient(http.DefaultClient, "SECRET123")
		c.BaseUrl = "http://127.0.0.1:1"
		c.Limiter = nil

		err := c.SendMessage(context.Background(), "42", "hi", ParseMode_Markdown)
		require.Error(t, err)
		require.NotContains(t, err.Error(), "SECRET123")
	})
}

func TestSplitMessage(t *testing.T) {
	t.Run("short text is untouched", func(t *testing.T) {
		require.Equal(t, []string{"hello\nworld"}, SplitMessage("hello\nworld", 100))
	})

	t.Run("splits on lines and keeps every byte", func(t *testing.T) {
		text := strings.Repeat("line of text\n", 50)
		chunks := SplitMessage(text, 100)
		require.Greater(t, len(chunks), 1)
		for _, c := range chunks {
			require.LessOrEqual(t, len(c), 100)
			require.True(t, strings.HasSuffix(c, "\n"))
		}
		require.Equal(t, text, strings.Join(chunks, ""))
	})

	t.Run("hard splits an oversized line without breaking runes", func(t *testing.T) {
		text := strings.Repeat("🟢", 30)
		chunks := SplitMessage(text, 10)
		for _, c := range chunks {
			require.LessOrEqual(t, len(c), 10)
			require.True(t, strings.HasPrefix(c, "🟢"))
		}
		require.Equal(t, text, strings.Join(chunks, ""))
	})
}
