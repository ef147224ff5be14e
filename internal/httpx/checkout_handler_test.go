package httpx

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mathstore/storefront-api/internal/catalog"
	"github.com/mathstore/storefront-api/internal/yookassa"
)

type stubCatalog struct {
	products map[int64]catalog.Product
}

func (s *stubCatalog) GetByIDs(ctx context.Context, ids []int64) ([]catalog.Product, error) {
	var out []catalog.Product
	for _, id := range ids {
		if p, ok := s.products[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

type stubGateway struct {
	keys     []string
	requests []yookassa.CreatePaymentRequest
	err      error
}

func (s *stubGateway) CreatePayment(ctx context.Context, key string, req yookassa.CreatePaymentRequest) (*yookassa.Payment, error) {
	s.keys = append(s.keys, key)
	s.requests = append(s.requests, req)
	if s.err != nil {
		return nil, s.err
	}
	return &yookassa.Payment{
		ID:           "pay-abc",
		Status:       "pending",
		Amount:       req.Amount,
		Confirmation: &yookassa.Confirmation{Type: "redirect", ConfirmationURL: "https://gw.example/confirm"},
		Metadata:     req.Metadata,
	}, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func checkoutFixture(gw *stubGateway) *CheckoutHandler {
	return &CheckoutHandler{
		Catalog: &stubCatalog{products: map[int64]catalog.Product{
			1: {ID: 1, Title: "Algebra Workbook", Price: 500},
			2: {ID: 2, Title: "Geometry Workbook", Price: 700},
		}},
		Gateway: gw,
		Log:     discardLogger(),
	}
}

func postJSON(t *testing.T, h http.HandlerFunc, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	switch b := body.(type) {
	case string:
		buf.WriteString(b)
	default:
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(http.MethodPost, "/", &buf)
	rec := httptest.NewRecorder()
	h(rec, req)
	return rec
}

func TestCheckout_Success(t *testing.T) {
	gw := &stubGateway{}
	h := checkoutFixture(gw)

	rec := postJSON(t, h.createPayment, CheckoutRequest{
		ProductIDs:    []int64{1, 2},
		CustomerEmail: "buyer@example.com",
		ReturnURL:     "https://shop.example/thanks",
	})

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var resp CheckoutResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.TotalAmount != 1200 {
		t.Errorf("total_amount = %d, want 1200", resp.TotalAmount)
	}
	if resp.DiscountApplied {
		t.Error("discount_applied = true for 2 products")
	}
	if resp.PaymentURL != "https://gw.example/confirm" || resp.PaymentID != "pay-abc" {
		t.Errorf("response = %+v", resp)
	}

	req := gw.requests[0]
	if req.Amount.Value != "12.00" || req.Amount.Currency != "RUB" {
		t.Errorf("gateway amount = %+v", req.Amount)
	}
	if req.Metadata.ProductIDs != "1,2" || req.Metadata.CustomerEmail != "buyer@example.com" {
		t.Errorf("gateway metadata = %+v", req.Metadata)
	}
	if len(req.Receipt.Items) != 2 {
		t.Fatalf("receipt items = %d", len(req.Receipt.Items))
	}
	// Tax receipt lines carry pre-discount per-item prices.
	if req.Receipt.Items[0].Amount.Value != "5.00" || req.Receipt.Items[1].Amount.Value != "7.00" {
		t.Errorf("receipt item amounts = %q, %q", req.Receipt.Items[0].Amount.Value, req.Receipt.Items[1].Amount.Value)
	}
	if req.Confirmation.ReturnURL != "https://shop.example/thanks" {
		t.Errorf("return_url = %q", req.Confirmation.ReturnURL)
	}
}

func TestCheckout_FreshIdempotenceKeyPerAttempt(t *testing.T) {
	gw := &stubGateway{}
	h := checkoutFixture(gw)
	body := CheckoutRequest{ProductIDs: []int64{1}, CustomerEmail: "a@b.c", ReturnURL: "https://x"}

	postJSON(t, h.createPayment, body)
	postJSON(t, h.createPayment, body)

	if len(gw.keys) != 2 {
		t.Fatalf("gateway calls = %d", len(gw.keys))
	}
	if gw.keys[0] == gw.keys[1] {
		t.Error("idempotence key reused across checkouts")
	}
	if gw.requests[0].Metadata.OrderID != gw.keys[0] {
		t.Error("metadata order_id should be the idempotence key")
	}
}

func TestCheckout_Validation(t *testing.T) {
	tests := []struct {
		name string
		body any
		want int
	}{
		{"invalid json", "not json", http.StatusBadRequest},
		{"missing product_ids", CheckoutRequest{CustomerEmail: "a@b.c", ReturnURL: "https://x"}, http.StatusBadRequest},
		{"missing email", CheckoutRequest{ProductIDs: []int64{1}, ReturnURL: "https://x"}, http.StatusBadRequest},
		{"missing return_url", CheckoutRequest{ProductIDs: []int64{1}, CustomerEmail: "a@b.c"}, http.StatusBadRequest},
		{"unknown products", CheckoutRequest{ProductIDs: []int64{777}, CustomerEmail: "a@b.c", ReturnURL: "https://x"}, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := checkoutFixture(&stubGateway{})
			rec := postJSON(t, h.createPayment, tt.body)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d (body %s)", rec.Code, tt.want, rec.Body.String())
			}
		})
	}
}

func TestCheckout_GatewayRejected(t *testing.T) {
	gw := &stubGateway{err: &yookassa.APIError{StatusCode: 400, Body: `{"description":"bad shop"}`}}
	h := checkoutFixture(gw)

	rec := postJSON(t, h.createPayment, CheckoutRequest{
		ProductIDs: []int64{1}, CustomerEmail: "a@b.c", ReturnURL: "https://x",
	})

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp["error"] != "YooKassa API error" {
		t.Errorf("error = %q", resp["error"])
	}
	if resp["details"] != `{"description":"bad shop"}` {
		t.Errorf("details = %q, raw gateway body not surfaced", resp["details"])
	}
}
