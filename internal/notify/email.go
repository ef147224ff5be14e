// Package notify holds the purchase-confirmation senders. Both are
// best-effort from the reconciler's point of view: a dead relay never
// fails a paid order.
package notify

import (
	"context"
	"fmt"
	"strings"

	"gopkg.in/gomail.v2"

	"github.com/mathstore/storefront-api/internal/config"
	"github.com/mathstore/storefront-api/internal/orders"
)

// ItemsSource resolves an order's purchased items with their current
// download links.
type ItemsSource interface {
	ItemsWithAssets(ctx context.Context, orderID int64) ([]orders.ItemAssets, error)
}

type EmailSender struct {
	cfg   config.SMTPConfig
	items ItemsSource
}

func NewEmailSender(cfg config.SMTPConfig, items ItemsSource) *EmailSender {
	return &EmailSender{cfg: cfg, items: items}
}

// SendPurchaseEmail mails the buyer a list of every purchased product with
// whichever download variants exist. Returns orders.ErrOrderNotFound when
// the order has no items.
func (s *EmailSender) SendPurchaseEmail(ctx context.Context, customerEmail string, orderID int64) error {
	items, err := s.items.ItemsWithAssets(ctx, orderID)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		return orders.ErrOrderNotFound
	}
	if !s.cfg.Configured() {
		return fmt.Errorf("smtp relay not configured")
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.cfg.User)
	m.SetHeader("To", customerEmail)
	m.SetHeader("Subject", "Ваши материалы готовы к скачиванию")
	m.SetBody("text/html", renderPurchaseEmail(items))

	d := gomail.NewDialer(s.cfg.Host, s.cfg.Port, s.cfg.User, s.cfg.Password)
	if err := d.DialAndSend(m); err != nil {
		return fmt.Errorf("send purchase email: %w", err)
	}
	return nil
}

func renderPurchaseEmail(items []orders.ItemAssets) string {
	var b strings.Builder
	b.WriteString(`<html><body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333;">`)
	b.WriteString(`<div style="max-width: 600px; margin: 0 auto; padding: 20px;">`)
	b.WriteString(`<h2 style="color: #2563eb;">Спасибо за покупку! 🎉</h2>`)
	b.WriteString(`<p>Ваш заказ успешно оплачен. Ниже ссылки для скачивания материалов:</p>`)
	b.WriteString(`<div style="margin: 20px 0;">`)

	for _, it := range items {
		b.WriteString(`<div style="background: #f3f4f6; padding: 15px; margin: 10px 0; border-radius: 8px;">`)
		fmt.Fprintf(&b, `<h3 style="margin-top: 0; color: #1f2937;">%s</h3>`, it.Title)
		if it.WithAnswersURL != "" {
			fmt.Fprintf(&b, `<p>📄 <a href="%s" style="color: #2563eb;">Скачать с ответами</a></p>`, it.WithAnswersURL)
		}
		if it.WithoutAnswersURL != "" {
			fmt.Fprintf(&b, `<p>📝 <a href="%s" style="color: #2563eb;">Скачать без ответов</a></p>`, it.WithoutAnswersURL)
		}
		b.WriteString(`</div>`)
	}

	b.WriteString(`</div>`)
	b.WriteString(`<p style="margin-top: 30px; font-size: 14px; color: #6b7280;">Если у вас есть вопросы, просто ответьте на это письмо.</p>`)
	b.WriteString(`</div></body></html>`)
	return b.String()
}
