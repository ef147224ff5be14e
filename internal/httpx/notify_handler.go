package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mathstore/storefront-api/internal/orders"
)

type EmailSender interface {
	SendPurchaseEmail(ctx context.Context, customerEmail string, orderID int64) error
}

type AdminNotifier interface {
	NotifyPurchase(ctx context.Context, amount, email string, products []string) error
}

// NotifyHandler exposes the senders as standalone endpoints for manual
// re-delivery; the reconciler calls the same senders in-process.
type NotifyHandler struct {
	Email    EmailSender
	Telegram AdminNotifier
	Log      *slog.Logger
}

func (h *NotifyHandler) Register(r chi.Router) {
	r.Post("/notify/email", h.sendEmail)
	r.Post("/notify/telegram", h.sendTelegram)
}

func (h *NotifyHandler) sendEmail(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CustomerEmail string `json:"customer_email"`
		OrderID       int64  `json:"order_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.CustomerEmail == "" || req.OrderID == 0 {
		writeError(w, http.StatusBadRequest, "Missing customer_email or order_id")
		return
	}

	if err := h.Email.SendPurchaseEmail(r.Context(), req.CustomerEmail, req.OrderID); err != nil {
		if errors.Is(err, orders.ErrOrderNotFound) {
			writeError(w, http.StatusNotFound, "Order not found")
			return
		}
		h.Log.Error("purchase email failed", "order_id", req.OrderID, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to send email")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "success", "message": "Email sent"})
}

func (h *NotifyHandler) sendTelegram(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Amount   string   `json:"amount"`
		Email    string   `json:"email"`
		Products []string `json:"products"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	if err := h.Telegram.NotifyPurchase(r.Context(), req.Amount, req.Email, req.Products); err != nil {
		h.Log.Error("telegram alert failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Telegram API error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Notification sent"})
}
