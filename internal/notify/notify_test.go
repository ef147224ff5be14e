package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mathstore/storefront-api/internal/config"
	"github.com/mathstore/storefront-api/internal/orders"
)

func TestTelegramNotifyPurchase(t *testing.T) {
	var got sendMessageRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/bottoken-123/sendMessage" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	tg := NewTelegram(config.TelegramConfig{BotToken: "token-123", ChatID: "42", BaseURL: srv.URL})
	err := tg.NotifyPurchase(context.Background(), "12.00", "buyer@example.com", []string{"Algebra Workbook", "Geometry Workbook"})
	if err != nil {
		t.Fatalf("NotifyPurchase: %v", err)
	}

	if got.ChatID != "42" || got.ParseMode != "HTML" {
		t.Errorf("request = %+v", got)
	}
	for _, want := range []string{"12.00", "buyer@example.com", "• Algebra Workbook", "• Geometry Workbook"} {
		if !strings.Contains(got.Text, want) {
			t.Errorf("message missing %q:\n%s", want, got.Text)
		}
	}
}

func TestTelegramNotifyPurchase_BotError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"ok":false,"description":"bot was blocked"}`))
	}))
	defer srv.Close()

	tg := NewTelegram(config.TelegramConfig{BotToken: "t", ChatID: "42", BaseURL: srv.URL})
	err := tg.NotifyPurchase(context.Background(), "1.00", "a@b.c", nil)
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "bot was blocked") {
		t.Errorf("raw bot response not preserved: %v", err)
	}
}

func TestTelegramNotifyPurchase_NotConfigured(t *testing.T) {
	tg := NewTelegram(config.TelegramConfig{})
	if err := tg.NotifyPurchase(context.Background(), "1.00", "a@b.c", nil); err == nil {
		t.Error("expected configuration error")
	}
}

func TestRenderPurchaseEmail(t *testing.T) {
	items := []orders.ItemAssets{
		{Title: "Algebra Workbook", WithAnswersURL: "https://cdn.example/a1.pdf", WithoutAnswersURL: "https://cdn.example/a2.pdf"},
		{Title: "Geometry Workbook", WithAnswersURL: "https://cdn.example/g1.pdf"},
		{Title: "Deleted Workbook"},
	}
	html := renderPurchaseEmail(items)

	for _, want := range []string{
		"Algebra Workbook", "https://cdn.example/a1.pdf", "https://cdn.example/a2.pdf",
		"Geometry Workbook", "https://cdn.example/g1.pdf",
		"Deleted Workbook",
	} {
		if !strings.Contains(html, want) {
			t.Errorf("email missing %q", want)
		}
	}
	// A title with no surviving links still appears, with no dead anchors
	// under it.
	if strings.Count(html, "<a href=") != 3 {
		t.Errorf("link count = %d, want 3", strings.Count(html, "<a href="))
	}
}
