package domain

import "time"

type PaymentStatus string

const (
	PaymentStatusPending    PaymentStatus = "pending"
	PaymentStatusProcessing PaymentStatus = "processing"
	PaymentStatusCompleted  PaymentStatus = "completed"
	PaymentStatusFailed     PaymentStatus = "failed"
	PaymentStatusCancelled  PaymentStatus = "cancelled"
	PaymentStatusRefunded   PaymentStatus = "refunded"
)

func (s PaymentStatus) IsTerminal() bool {
	switch s {
	case PaymentStatusCompleted, PaymentStatusFailed, PaymentStatusCancelled, PaymentStatusRefunded:
		return true
	}
	return false
}

// Payment is one attempt to pay for an order. Attempts are never rewritten;
// only the refund fields change after a terminal status.
type Payment struct {
	ID              string            `json:"id"`
	OrderID         string            `json:"order_id"`
	VendorID        string            `json:"vendor_id"`
	CustomerID      string            `json:"customer_id"`
	Amount          float64           `json:"amount"`
	Currency        string            `json:"currency"`
	Gateway         string            `json:"gateway"`
	Status          PaymentStatus     `json:"status"`
	TransactionID   string            `json:"transaction_id,omitempty"`
	FailureReason   string            `json:"failure_reason,omitempty"`
	GatewayResponse map[string]string `json:"gateway_response,omitempty"`
	RefundAmount    float64           `json:"refund_amount,omitempty"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
}

func (p *Payment) Clone() *Payment {
	c := *p
	if p.GatewayResponse != nil {
		c.GatewayResponse = make(map[string]string, len(p.GatewayResponse))
		for k, v := range p.GatewayResponse {
			c.GatewayResponse[k] = v
		}
	}
	return &c
}

// Gateway describes an online payment processor enabled on the platform.
type Gateway struct {
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
	TestMode    bool   `json:"test_mode"`
	Enabled     bool   `json:"enabled"`
}
