// Package reconcile turns verified gateway payment events into durable
// order records. The orders.payment_id unique constraint is the only
// concurrency control: duplicate webhook deliveries race on the insert and
// the loser proceeds as a no-op.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/mathstore/storefront-api/internal/catalog"
	kafkax "github.com/mathstore/storefront-api/internal/kafka"
	"github.com/mathstore/storefront-api/internal/orders"
	"github.com/mathstore/storefront-api/internal/redisx"
	"github.com/mathstore/storefront-api/internal/yookassa"
)

// State follows the reconciliation of one webhook delivery.
type State string

const (
	StateReceived  State = "received"
	StateVerified  State = "verified"
	StatePersisted State = "persisted"
	StateNotified  State = "notified"
	StateIgnored   State = "ignored"
)

// EventPaymentSucceeded is the only event type that creates orders; every
// other type is acknowledged and ignored so the gateway stops retrying.
const EventPaymentSucceeded = "payment.succeeded"

var (
	ErrMissingPaymentID = errors.New("missing payment id")
	ErrMissingEmail     = errors.New("missing customer email")
)

type PaymentFetcher interface {
	GetPayment(ctx context.Context, id string) (*yookassa.Payment, error)
}

type OrderStore interface {
	CreateIfAbsent(ctx context.Context, o orders.Order, items []orders.OrderItem) (int64, bool, error)
}

type ProductSource interface {
	GetByIDs(ctx context.Context, ids []int64) ([]catalog.Product, error)
}

type EmailSender interface {
	SendPurchaseEmail(ctx context.Context, customerEmail string, orderID int64) error
}

type AdminNotifier interface {
	NotifyPurchase(ctx context.Context, amount, email string, products []string) error
}

type Reconciler struct {
	Gateway  PaymentFetcher
	Orders   OrderStore
	Catalog  ProductSource
	Email    EmailSender
	Admin    AdminNotifier
	Producer *kafkax.Producer // nil disables event publishing
	Redis    *redis.Client    // nil disables the dedup fast path
	Service  string
	Log      *slog.Logger
}

type Outcome struct {
	State   State
	OrderID int64
	Created bool
}

// Handle processes one webhook delivery: received -> verified -> persisted
// -> notified, or ignored for non-success events. Notification failures are
// logged and swallowed; only validation and storage errors surface.
func (r *Reconciler) Handle(ctx context.Context, eventType string, body yookassa.Payment) (Outcome, error) {
	if eventType != EventPaymentSucceeded {
		r.Log.Info("webhook event ignored", "event", eventType)
		return Outcome{State: StateIgnored}, nil
	}
	if body.ID == "" {
		return Outcome{State: StateReceived}, ErrMissingPaymentID
	}

	payment := r.verify(ctx, body)

	if payment.Status != "" && payment.Status != yookassa.StatusSucceeded {
		r.Log.Warn("payment not succeeded at gateway, ignoring",
			"payment_id", payment.ID, "status", payment.Status)
		return Outcome{State: StateIgnored}, nil
	}

	// Fast path for redelivery; advisory only, the DB constraint decides.
	if orderID, ok := r.dedupHit(ctx, payment.ID); ok {
		r.Log.Info("duplicate webhook short-circuited", "payment_id", payment.ID, "order_id", orderID)
		return Outcome{State: StatePersisted, OrderID: orderID}, nil
	}

	total, err := yookassa.ParseAmount(payment.Amount.Value)
	if err != nil {
		return Outcome{State: StateVerified}, fmt.Errorf("payment %s: %w", payment.ID, err)
	}
	email := customerEmail(payment)
	if email == "" {
		return Outcome{State: StateVerified}, ErrMissingEmail
	}

	ids := parseProductIDs(payment.Metadata.ProductIDs)
	products, err := r.Catalog.GetByIDs(ctx, ids)
	if err != nil {
		return Outcome{State: StateVerified}, err
	}
	items := r.snapshotItems(ids, products)

	orderID, created, err := r.Orders.CreateIfAbsent(ctx, orders.Order{
		GuestEmail:    email,
		TotalPrice:    total,
		PaymentID:     payment.ID,
		PaymentStatus: orders.PaymentStatusPaid,
	}, items)
	if err != nil {
		return Outcome{State: StateVerified}, err
	}
	r.rememberDedup(ctx, payment.ID, orderID)

	if !created {
		// Duplicate delivery: order already durable, skip re-notifying.
		r.Log.Info("order already persisted", "payment_id", payment.ID, "order_id", orderID)
		return Outcome{State: StatePersisted, OrderID: orderID}, nil
	}

	r.notify(ctx, payment, orderID, total, email, ids, products)
	return Outcome{State: StateNotified, OrderID: orderID, Created: true}, nil
}

// verify re-fetches the payment from the gateway with server credentials.
// Webhook endpoints are unauthenticated, so money fields from the inbound
// body are only a fallback, and using them is logged loudly.
func (r *Reconciler) verify(ctx context.Context, body yookassa.Payment) *yookassa.Payment {
	payment, err := r.Gateway.GetPayment(ctx, body.ID)
	if err != nil {
		r.Log.Warn("gateway verification failed, operating on unverified webhook data",
			"payment_id", body.ID, "error", err)
		return &body
	}
	return payment
}

func (r *Reconciler) snapshotItems(ids []int64, products []catalog.Product) []orders.OrderItem {
	byID := make(map[int64]catalog.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}
	items := make([]orders.OrderItem, 0, len(products))
	for _, id := range ids {
		p, ok := byID[id]
		if !ok {
			// Customer already paid; a vanished product must not abort
			// order creation.
			r.Log.Warn("product missing from catalog, omitting line item", "product_id", id)
			continue
		}
		items = append(items, orders.OrderItem{
			ProductID:    p.ID,
			ProductTitle: p.Title,
			ProductPrice: p.Price,
			FullPDFURL:   p.FullPDFWithAnswersURL,
			Quantity:     1,
		})
	}
	return items
}

func (r *Reconciler) notify(ctx context.Context, payment *yookassa.Payment, orderID, total int64, email string, ids []int64, products []catalog.Product) {
	if r.Email != nil {
		if err := r.Email.SendPurchaseEmail(ctx, email, orderID); err != nil {
			r.Log.Error("purchase email failed", "order_id", orderID, "error", err)
		}
	}
	if r.Admin != nil {
		titles := make([]string, 0, len(products))
		for _, p := range products {
			titles = append(titles, p.Title)
		}
		if err := r.Admin.NotifyPurchase(ctx, yookassa.FormatAmount(total), email, titles); err != nil {
			r.Log.Error("telegram alert failed", "order_id", orderID, "error", err)
		}
	}
	r.publishOrderPaid(payment.ID, orderID, email, total, ids)
}

func (r *Reconciler) publishOrderPaid(paymentID string, orderID int64, email string, total int64, ids []int64) {
	ev := orders.Envelope{
		EventID:       uuid.NewString(),
		EventType:     orders.EventOrderPaid,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      r.Service,
		CorrelationID: paymentID,
	}
	ev.Payload = kafkax.MustMarshal(orders.OrderPaidPayload{
		OrderID:    orderID,
		PaymentID:  paymentID,
		GuestEmail: email,
		TotalPrice: total,
		ProductIDs: ids,
	})
	r.Producer.Publish(orders.PartitionKey(paymentID), kafkax.MustMarshal(ev))
}

func (r *Reconciler) dedupHit(ctx context.Context, paymentID string) (int64, bool) {
	if r.Redis == nil {
		return 0, false
	}
	key := fmt.Sprintf(redisx.KeyWebhookDedup, paymentID)
	v, err := r.Redis.Get(ctx, key).Result()
	if err != nil {
		return 0, false
	}
	orderID, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, false
	}
	return orderID, true
}

func (r *Reconciler) rememberDedup(ctx context.Context, paymentID string, orderID int64) {
	if r.Redis == nil {
		return
	}
	key := fmt.Sprintf(redisx.KeyWebhookDedup, paymentID)
	_ = r.Redis.Set(ctx, key, strconv.FormatInt(orderID, 10), redisx.TTLWebhookDedup).Err()
}

func customerEmail(p *yookassa.Payment) string {
	if p.Receipt != nil && p.Receipt.Customer.Email != "" {
		return p.Receipt.Customer.Email
	}
	return p.Metadata.CustomerEmail
}

func parseProductIDs(csv string) []int64 {
	var ids []int64
	for _, part := range strings.Split(csv, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}
