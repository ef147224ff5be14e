package httpx

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mathstore/storefront-api/internal/auth"
	"github.com/mathstore/storefront-api/internal/orders"
)

type OrderStore interface {
	ListAll(ctx context.Context) ([]orders.OrderWithItems, error)
	ListByEmail(ctx context.Context, email string) ([]orders.OrderWithItems, error)
}

type OrdersHandler struct {
	Orders OrderStore
	Auth   *auth.Service
	Log    *slog.Logger
}

func (h *OrdersHandler) Register(r chi.Router) {
	r.Get("/orders/my", h.listMine)
	r.Group(func(r chi.Router) {
		r.Use(AdminAuth(h.Auth))
		r.Get("/orders", h.listAll)
	})
}

// listAll is the admin purchase-history view.
func (h *OrdersHandler) listAll(w http.ResponseWriter, r *http.Request) {
	out, err := h.Orders.ListAll(r.Context())
	if err != nil {
		h.Log.Error("failed to list orders", "error", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if out == nil {
		out = []orders.OrderWithItems{}
	}
	writeJSON(w, http.StatusOK, out)
}

// listMine returns a guest's purchases looked up by the email they bought
// with.
func (h *OrdersHandler) listMine(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("email")
	if email == "" {
		writeError(w, http.StatusBadRequest, "Email is required")
		return
	}
	out, err := h.Orders.ListByEmail(r.Context(), email)
	if err != nil {
		h.Log.Error("failed to list orders by email", "error", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if out == nil {
		out = []orders.OrderWithItems{}
	}
	writeJSON(w, http.StatusOK, out)
}
