package orders

import "time"

const (
	PaymentStatusPending = "pending"
	PaymentStatusPaid    = "paid"
)

// Order is created exactly once per gateway payment id and never mutated
// afterwards in the paid path.
type Order struct {
	ID            int64     `json:"id"`
	GuestEmail    string    `json:"guest_email"`
	TotalPrice    int64     `json:"total_price"`
	PaymentID     string    `json:"payment_id"`
	PaymentStatus string    `json:"payment_status"`
	CreatedAt     time.Time `json:"created_at"`
}

// OrderItem snapshots title/price/asset URL at purchase time so receipts
// survive later catalog edits or deletions.
type OrderItem struct {
	ID           int64  `json:"id"`
	OrderID      int64  `json:"order_id"`
	ProductID    int64  `json:"product_id"`
	ProductTitle string `json:"product_title"`
	ProductPrice int64  `json:"product_price"`
	FullPDFURL   string `json:"full_pdf_url"`
	Quantity     int    `json:"quantity"`
}

type OrderWithItems struct {
	Order
	Items []OrderItem `json:"items"`
}

// ItemAssets is what the purchase email renders: the snapshotted title plus
// whichever download variants the catalog still offers.
type ItemAssets struct {
	Title             string
	WithAnswersURL    string
	WithoutAnswersURL string
}
