package notifier

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const telegramAPI = "https://api.telegram.org"

type TelegramNotifier struct {
	Token      string
	ChatID     string
	Retries    int
	RetryDelay time.Duration

	// BaseURL overrides the Bot API endpoint.
	BaseURL string
	Client  *http.Client
}

func NewTelegramNotifier(token, chatID string, retries int, retryDelay time.Duration) *TelegramNotifier {
	return &TelegramNotifier{
		Token:      token,
		ChatID:     chatID,
		Retries:    retries,
		RetryDelay: retryDelay,
		BaseURL:    telegramAPI,
		Client:     &http.Client{Timeout: 10 * time.Second},
	}
}

func (t *TelegramNotifier) Send(message string) error {
	base := strings.TrimRight(t.BaseURL, "/")
	if base == "" {
		base = telegramAPI
	}
	client := t.Client
	if client == nil {
		client = http.DefaultClient
	}

	apiURL := fmt.Sprintf("%s/bot%s/sendMessage", base, t.Token)
	resp, err := client.PostForm(apiURL, url.Values{
		"chat_id": {t.ChatID},
		"text":    {message},
	})
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("telegram send failed: %s", resp.Status)
	}
	return nil
}

func (t *TelegramNotifier) SendWithRetry(message string) error {
	if err := retry(t.Retries, t.RetryDelay, func() error { return t.Send(message) }); err != nil {
		return fmt.Errorf("telegram send failed after %d attempts: %w", max(t.Retries, 1), err)
	}
	return nil
}
