package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/mathstore/storefront-api/internal/config"
)

type Telegram struct {
	cfg   config.TelegramConfig
	httpc *http.Client
}

func NewTelegram(cfg config.TelegramConfig) *Telegram {
	return &Telegram{cfg: cfg, httpc: &http.Client{Timeout: 10 * time.Second}}
}

type sendMessageRequest struct {
	ChatID    string `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode"`
}

// NotifyPurchase posts the admin alert to the bot API. Amount is the
// gateway-formatted value ("12.00"); products are the purchased titles.
func (t *Telegram) NotifyPurchase(ctx context.Context, amount, email string, products []string) error {
	if !t.cfg.Configured() {
		return fmt.Errorf("telegram bot not configured")
	}

	body, err := json.Marshal(sendMessageRequest{
		ChatID:    t.cfg.ChatID,
		Text:      purchaseMessage(amount, email, products),
		ParseMode: "HTML",
	})
	if err != nil {
		return err
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", t.cfg.BaseURL, t.cfg.BotToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("telegram: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("telegram: status %d: %s", resp.StatusCode, raw)
	}
	return nil
}

func purchaseMessage(amount, email string, products []string) string {
	if email == "" {
		email = "Не указан"
	}
	productsText := "  Информация о товарах отсутствует"
	if len(products) > 0 {
		lines := make([]string, 0, len(products))
		for _, p := range products {
			lines = append(lines, "  • "+p)
		}
		productsText = strings.Join(lines, "\n")
	}
	return fmt.Sprintf(`🎉 <b>Новая покупка!</b>

💰 <b>Сумма:</b> %s ₽
📧 <b>Email покупателя:</b> %s

📦 <b>Купленные материалы:</b>
%s

✅ Оплата успешно прошла`, amount, email, productsText)
}
