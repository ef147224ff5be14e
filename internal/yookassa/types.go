package yookassa

// Wire types for the YooKassa v3 payments API. Only the fields the
// storefront touches are mapped.

type Amount struct {
	Value    string `json:"value"`
	Currency string `json:"currency"`
}

type Confirmation struct {
	Type            string `json:"type"`
	ReturnURL       string `json:"return_url,omitempty"`
	ConfirmationURL string `json:"confirmation_url,omitempty"`
}

type ReceiptCustomer struct {
	Email string `json:"email"`
}

type ReceiptItem struct {
	Description    string `json:"description"`
	Quantity       string `json:"quantity"`
	Amount         Amount `json:"amount"`
	VATCode        int    `json:"vat_code"`
	PaymentMode    string `json:"payment_mode"`
	PaymentSubject string `json:"payment_subject"`
}

type Receipt struct {
	Customer ReceiptCustomer `json:"customer"`
	Items    []ReceiptItem   `json:"items,omitempty"`
}

// Metadata is the only channel the webhook can trust for recovering what
// was purchased; webhook payload money fields are advisory.
type Metadata struct {
	OrderID       string `json:"order_id"`
	ProductIDs    string `json:"product_ids"`
	CustomerEmail string `json:"customer_email"`
}

type CreatePaymentRequest struct {
	Amount       Amount       `json:"amount"`
	Confirmation Confirmation `json:"confirmation"`
	Capture      bool         `json:"capture"`
	Description  string       `json:"description"`
	Receipt      *Receipt     `json:"receipt,omitempty"`
	Metadata     Metadata     `json:"metadata"`
}

type Payment struct {
	ID           string        `json:"id"`
	Status       string        `json:"status"`
	Paid         bool          `json:"paid"`
	Amount       Amount        `json:"amount"`
	Description  string        `json:"description"`
	Confirmation *Confirmation `json:"confirmation,omitempty"`
	Receipt      *Receipt      `json:"receipt,omitempty"`
	Metadata     Metadata      `json:"metadata"`
	CreatedAt    string        `json:"created_at"`
}

const StatusSucceeded = "succeeded"
