package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mathstore/storefront-api/internal/metrics"
	"github.com/mathstore/storefront-api/internal/reconcile"
	"github.com/mathstore/storefront-api/internal/yookassa"
)

// WebhookEnvelope is the gateway's notification body. Unauthenticated by
// design; the reconciler re-verifies everything money-relevant.
type WebhookEnvelope struct {
	Event  string           `json:"event"`
	Object yookassa.Payment `json:"object"`
}

type WebhookHandler struct {
	Reconciler *reconcile.Reconciler
	Metrics    *metrics.Metrics
	Log        *slog.Logger
}

func (h *WebhookHandler) Register(r chi.Router) {
	r.Post("/webhooks/yookassa", h.handle)
}

// handle acknowledges with 200 whenever it safely can: the gateway retries
// non-2xx responses, and retries of a persisted order are wasted work.
func (h *WebhookHandler) handle(w http.ResponseWriter, r *http.Request) {
	var env WebhookEnvelope
	if err := json.NewDecoder(r.Body).Decode(&env); err != nil {
		h.count("malformed")
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 25*time.Second)
	defer cancel()

	outcome, err := h.Reconciler.Handle(ctx, env.Event, env.Object)
	if err != nil {
		switch {
		case errors.Is(err, reconcile.ErrMissingPaymentID), errors.Is(err, reconcile.ErrMissingEmail):
			h.count("malformed")
			writeError(w, http.StatusBadRequest, "Missing payment data")
		default:
			h.count("error")
			h.Log.Error("webhook reconciliation failed", "payment_id", env.Object.ID, "error", err)
			writeError(w, http.StatusInternalServerError, "Internal server error")
		}
		return
	}

	h.count(string(outcome.State))
	if outcome.State == reconcile.StateIgnored {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ignored"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "success",
		"order_id": outcome.OrderID,
	})
}

func (h *WebhookHandler) count(outcome string) {
	if h.Metrics != nil {
		h.Metrics.Webhooks.WithLabelValues(outcome).Inc()
	}
}
