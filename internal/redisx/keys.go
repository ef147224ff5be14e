package redisx

import "time"

const (
	// Fast-path webhook dedup: dedup:webhook:{payment_id} -> order_id.
	// Advisory only; the unique constraint on orders.payment_id is the
	// actual idempotency guarantee.
	KeyWebhookDedup = "dedup:webhook:%s"

	// Catalog list cache: catalog:products -> JSON array.
	KeyProductList = "catalog:products"

	// Checkout result cache: checkout:payment:{payment_id} -> JSON.
	KeyCheckoutPayment = "checkout:payment:%s"
)

var (
	TTLWebhookDedup = 48 * time.Hour
	TTLProductList  = 5 * time.Minute
	TTLCheckout     = 24 * time.Hour
)
