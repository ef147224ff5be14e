package httpx

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mathstore/storefront-api/internal/catalog"
	"github.com/mathstore/storefront-api/internal/orders"
	"github.com/mathstore/storefront-api/internal/reconcile"
	"github.com/mathstore/storefront-api/internal/yookassa"
)

type memOrders struct {
	byPayment map[string]int64
	items     map[int64][]orders.OrderItem
	totals    map[int64]int64
	nextID    int64
	err       error
}

func newMemOrders() *memOrders {
	return &memOrders{
		byPayment: map[string]int64{},
		items:     map[int64][]orders.OrderItem{},
		totals:    map[int64]int64{},
	}
}

func (m *memOrders) CreateIfAbsent(ctx context.Context, o orders.Order, items []orders.OrderItem) (int64, bool, error) {
	if m.err != nil {
		return 0, false, m.err
	}
	if id, ok := m.byPayment[o.PaymentID]; ok {
		return id, false, nil
	}
	m.nextID++
	m.byPayment[o.PaymentID] = m.nextID
	m.items[m.nextID] = items
	m.totals[m.nextID] = o.TotalPrice
	return m.nextID, true, nil
}

type verifyGateway struct {
	payments map[string]*yookassa.Payment
}

func (g *verifyGateway) GetPayment(ctx context.Context, id string) (*yookassa.Payment, error) {
	if p, ok := g.payments[id]; ok {
		return p, nil
	}
	return nil, errors.New("payment not found at gateway")
}

type countingEmail struct{ calls int }

func (c *countingEmail) SendPurchaseEmail(ctx context.Context, email string, orderID int64) error {
	c.calls++
	return nil
}

type countingAdmin struct{ calls int }

func (c *countingAdmin) NotifyPurchase(ctx context.Context, amount, email string, products []string) error {
	c.calls++
	return nil
}

func webhookFixture(store *memOrders, email *countingEmail) *WebhookHandler {
	gw := &verifyGateway{payments: map[string]*yookassa.Payment{
		"pay-1": {
			ID:      "pay-1",
			Status:  yookassa.StatusSucceeded,
			Paid:    true,
			Amount:  yookassa.Amount{Value: "12.00", Currency: "RUB"},
			Receipt: &yookassa.Receipt{Customer: yookassa.ReceiptCustomer{Email: "buyer@example.com"}},
			Metadata: yookassa.Metadata{
				OrderID:       "corr-1",
				ProductIDs:    "1,2",
				CustomerEmail: "buyer@example.com",
			},
		},
	}}
	cat := &stubCatalog{products: map[int64]catalog.Product{
		1: {ID: 1, Title: "Algebra Workbook", Price: 500},
		2: {ID: 2, Title: "Geometry Workbook", Price: 700},
	}}
	return &WebhookHandler{
		Reconciler: &reconcile.Reconciler{
			Gateway: gw,
			Orders:  store,
			Catalog: cat,
			Email:   email,
			Admin:   &countingAdmin{},
			Service: "test",
			Log:     discardLogger(),
		},
		Log: discardLogger(),
	}
}

func deliver(t *testing.T, h *WebhookHandler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/webhooks/yookassa", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	h.handle(rec, req)
	return rec
}

const succeededEnvelope = `{
	"event": "payment.succeeded",
	"object": {
		"id": "pay-1",
		"status": "succeeded",
		"amount": {"value": "12.00", "currency": "RUB"},
		"metadata": {"product_ids": "1,2", "customer_email": "buyer@example.com"},
		"receipt": {"customer": {"email": "buyer@example.com"}}
	}
}`

func TestWebhook_CreatesOrderOnce(t *testing.T) {
	store := newMemOrders()
	email := &countingEmail{}
	h := webhookFixture(store, email)

	rec := deliver(t, h, succeededEnvelope)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Status  string `json:"status"`
		OrderID int64  `json:"order_id"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Status != "success" || resp.OrderID == 0 {
		t.Fatalf("response = %+v", resp)
	}

	if store.totals[resp.OrderID] != 1200 {
		t.Errorf("order total = %d, want 1200", store.totals[resp.OrderID])
	}
	if len(store.items[resp.OrderID]) != 2 {
		t.Errorf("order items = %d, want 2", len(store.items[resp.OrderID]))
	}

	// Identical redelivery: same 200, same order, no second row, no
	// second email.
	rec2 := deliver(t, h, succeededEnvelope)
	if rec2.Code != http.StatusOK {
		t.Fatalf("redelivery status = %d", rec2.Code)
	}
	if len(store.byPayment) != 1 {
		t.Errorf("orders stored = %d, want 1", len(store.byPayment))
	}
	if email.calls != 1 {
		t.Errorf("emails sent = %d, want 1", email.calls)
	}
}

func TestWebhook_IgnoresOtherEvents(t *testing.T) {
	store := newMemOrders()
	h := webhookFixture(store, &countingEmail{})

	rec := deliver(t, h, `{"event":"payment.canceled","object":{"id":"pay-1"}}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp map[string]any
	_ = json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp["status"] != "ignored" {
		t.Errorf("status field = %v", resp["status"])
	}
	if len(store.byPayment) != 0 {
		t.Error("order created for canceled event")
	}
}

func TestWebhook_BadRequests(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"malformed json", `{"event": `},
		{"missing payment id", `{"event":"payment.succeeded","object":{}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := webhookFixture(newMemOrders(), &countingEmail{})
			rec := deliver(t, h, tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rec.Code)
			}
		})
	}
}

func TestWebhook_StorageDown(t *testing.T) {
	store := newMemOrders()
	store.err = errors.New("connection refused")
	h := webhookFixture(store, &countingEmail{})

	rec := deliver(t, h, succeededEnvelope)
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
}
