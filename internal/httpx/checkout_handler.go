package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/mathstore/storefront-api/internal/catalog"
	"github.com/mathstore/storefront-api/internal/metrics"
	"github.com/mathstore/storefront-api/internal/pricing"
	"github.com/mathstore/storefront-api/internal/redisx"
	"github.com/mathstore/storefront-api/internal/yookassa"
)

type PaymentCreator interface {
	CreatePayment(ctx context.Context, idempotenceKey string, req yookassa.CreatePaymentRequest) (*yookassa.Payment, error)
}

type ProductSource interface {
	GetByIDs(ctx context.Context, ids []int64) ([]catalog.Product, error)
}

type CheckoutHandler struct {
	Catalog ProductSource
	Gateway PaymentCreator
	Redis   *redis.Client // optional
	Metrics *metrics.Metrics
	Log     *slog.Logger
}

type CheckoutRequest struct {
	ProductIDs    []int64 `json:"product_ids"`
	CustomerEmail string  `json:"customer_email"`
	ReturnURL     string  `json:"return_url"`
}

type CheckoutResponse struct {
	PaymentURL      string `json:"payment_url"`
	PaymentID       string `json:"payment_id"`
	TotalAmount     int64  `json:"total_amount"`
	DiscountApplied bool   `json:"discount_applied"`
}

func (h *CheckoutHandler) Register(r chi.Router) {
	r.Post("/checkout", h.createPayment)
}

// createPayment prices the requested products from the catalog (never from
// client-supplied prices) and creates the gateway payment.
func (h *CheckoutHandler) createPayment(w http.ResponseWriter, r *http.Request) {
	var req CheckoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if len(req.ProductIDs) == 0 || req.CustomerEmail == "" || req.ReturnURL == "" {
		h.count("rejected")
		writeError(w, http.StatusBadRequest, "Missing product_ids, customer_email or return_url")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
	defer cancel()

	products, err := h.Catalog.GetByIDs(ctx, req.ProductIDs)
	if err != nil {
		h.count("failed")
		h.Log.Error("product lookup failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if len(products) == 0 {
		h.count("rejected")
		writeError(w, http.StatusNotFound, "Products not found")
		return
	}

	quote := pricing.Compute(products)

	// The idempotence key doubles as the order correlation token in
	// payment metadata, fresh per checkout attempt.
	idempotenceKey := uuid.NewString()

	payment, err := h.Gateway.CreatePayment(ctx, idempotenceKey, buildPaymentRequest(req, quote, idempotenceKey))
	if err != nil {
		h.count("failed")
		var apiErr *yookassa.APIError
		if errors.As(err, &apiErr) {
			h.Log.Error("gateway rejected payment creation", "status", apiErr.StatusCode, "body", apiErr.Body)
			writeJSON(w, http.StatusInternalServerError, map[string]string{
				"error":   "YooKassa API error",
				"details": apiErr.Body,
			})
			return
		}
		h.Log.Error("payment creation failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	h.cachePayment(ctx, payment.ID, quote.Total)
	h.count("created")

	resp := CheckoutResponse{
		PaymentID:       payment.ID,
		TotalAmount:     quote.Total,
		DiscountApplied: quote.DiscountApplied,
	}
	if payment.Confirmation != nil {
		resp.PaymentURL = payment.Confirmation.ConfirmationURL
	}
	h.Log.Info("payment created",
		"payment_id", payment.ID,
		"total", quote.Total,
		"discount_applied", quote.DiscountApplied,
		"products", len(products),
	)
	writeJSON(w, http.StatusOK, resp)
}

func buildPaymentRequest(req CheckoutRequest, quote pricing.Quote, idempotenceKey string) yookassa.CreatePaymentRequest {
	receiptItems := make([]yookassa.ReceiptItem, 0, len(quote.Items))
	for _, it := range quote.Items {
		receiptItems = append(receiptItems, yookassa.ReceiptItem{
			Description:    it.Title,
			Quantity:       "1",
			Amount:         yookassa.Amount{Value: yookassa.FormatAmount(it.Price), Currency: "RUB"},
			VATCode:        1,
			PaymentMode:    "full_payment",
			PaymentSubject: "commodity",
		})
	}
	return yookassa.CreatePaymentRequest{
		Amount:       yookassa.Amount{Value: yookassa.FormatAmount(quote.Total), Currency: "RUB"},
		Confirmation: yookassa.Confirmation{Type: "redirect", ReturnURL: req.ReturnURL},
		Capture:      true,
		Description:  quote.Description,
		Receipt: &yookassa.Receipt{
			Customer: yookassa.ReceiptCustomer{Email: req.CustomerEmail},
			Items:    receiptItems,
		},
		Metadata: yookassa.Metadata{
			OrderID:       idempotenceKey,
			ProductIDs:    joinIDs(req.ProductIDs),
			CustomerEmail: req.CustomerEmail,
		},
	}
}

func joinIDs(ids []int64) string {
	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		parts = append(parts, strconv.FormatInt(id, 10))
	}
	return strings.Join(parts, ",")
}

func (h *CheckoutHandler) cachePayment(ctx context.Context, paymentID string, total int64) {
	if h.Redis == nil {
		return
	}
	key := fmt.Sprintf(redisx.KeyCheckoutPayment, paymentID)
	_ = h.Redis.Set(ctx, key, strconv.FormatInt(total, 10), redisx.TTLCheckout).Err()
}

func (h *CheckoutHandler) count(result string) {
	if h.Metrics != nil {
		h.Metrics.Checkouts.WithLabelValues(result).Inc()
	}
}
