package orders

import (
	"encoding/json"
	"time"
)

const (
	EventOrderPaid = "OrderPaid"

	TopicOrderPaid = "storefront.order.paid"
)

// Envelope wraps every published event. Payload holds the event-specific
// JSON body.
type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	CorrelationID string          `json:"correlation_id,omitempty"` // gateway payment id
	Payload       json.RawMessage `json:"payload"`
}

type OrderPaidPayload struct {
	OrderID    int64   `json:"order_id"`
	PaymentID  string  `json:"payment_id"`
	GuestEmail string  `json:"guest_email"`
	TotalPrice int64   `json:"total_price"`
	ProductIDs []int64 `json:"product_ids"`
}

// PartitionKey keeps all events for one payment on one partition.
func PartitionKey(paymentID string) []byte { return []byte(paymentID) }
