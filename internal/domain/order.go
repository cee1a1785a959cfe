package domain

import "time"

type OrderType string

const (
	OrderTypeDelivery OrderType = "delivery"
	OrderTypePickup   OrderType = "pickup"
)

func (t OrderType) IsValid() bool {
	return t == OrderTypeDelivery || t == OrderTypePickup
}

type OrderStatus string

const (
	OrderStatusPending        OrderStatus = "pending"
	OrderStatusPendingPayment OrderStatus = "pending_payment"
	OrderStatusConfirmed      OrderStatus = "confirmed"
	OrderStatusPreparing      OrderStatus = "preparing"
	OrderStatusReady          OrderStatus = "ready"
	OrderStatusOutForDelivery OrderStatus = "out_for_delivery"
	OrderStatusDelivered      OrderStatus = "delivered"
	OrderStatusCancelled      OrderStatus = "cancelled"
)

// String representation (for logging)
func (s OrderStatus) String() string {
	return string(s)
}

// Payment method identifiers. Online gateways use their registry name.
const (
	PaymentMethodPayOnDelivery = "pay_on_delivery"
	PaymentMethodManual        = "manual_payment"
)

// OrderItem is a copy of the menu item taken when the order was placed.
type OrderItem struct {
	MenuItemID string   `json:"menu_item_id"`
	Name       string   `json:"name"`
	Price      float64  `json:"price"`
	Quantity   int      `json:"quantity"`
	Variation  string   `json:"variation,omitempty"`
	AddOns     []string `json:"add_ons,omitempty"`
}

type CustomerInfo struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

type Order struct {
	ID                    string       `json:"id"`
	VendorID              string       `json:"vendor_id"`
	CustomerID            string       `json:"customer_id"`
	Items                 []OrderItem  `json:"items"`
	Total                 float64      `json:"total"`
	Currency              string       `json:"currency"`
	OrderType             OrderType    `json:"order_type"`
	PaymentMethod         string       `json:"payment_method"`
	SelectedPaymentMethod string       `json:"selected_payment_method,omitempty"`
	PaymentProof          []byte       `json:"-"`
	PaymentProofType      string       `json:"payment_proof_type,omitempty"`
	PaymentID             string       `json:"payment_id,omitempty"`
	PaymentSessionID      string       `json:"-"`
	Status                OrderStatus  `json:"status"`
	Notes                 string       `json:"notes,omitempty"`
	CustomerInfo          CustomerInfo `json:"customer_info"`
	LoyaltyPointsEarned   int64        `json:"loyalty_points_earned"`
	CreatedAt             time.Time    `json:"created_at"`
	UpdatedAt             time.Time    `json:"updated_at"`
}

// HasProof reports whether a payment proof attachment is stored with the order.
func (o *Order) HasProof() bool {
	return len(o.PaymentProof) > 0
}

// Clone returns a deep copy so callers can't mutate stored snapshots.
func (o *Order) Clone() *Order {
	c := *o
	c.Items = make([]OrderItem, len(o.Items))
	for i, item := range o.Items {
		item.AddOns = append([]string(nil), item.AddOns...)
		c.Items[i] = item
	}
	c.PaymentProof = append([]byte(nil), o.PaymentProof...)
	return &c
}

// orderTransitions lists the moves a vendor may make. Leaving
// pending_payment for confirmed is reserved to a completed payment, which
// the payment processor records itself.
var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:        {OrderStatusConfirmed, OrderStatusCancelled},
	OrderStatusPendingPayment: {OrderStatusCancelled},
	OrderStatusConfirmed:      {OrderStatusPreparing, OrderStatusCancelled},
	OrderStatusPreparing:      {OrderStatusReady},
	OrderStatusReady:          {OrderStatusOutForDelivery, OrderStatusDelivered},
	OrderStatusOutForDelivery: {OrderStatusDelivered},
}

// CanTransitionTo reports whether the order may move from its current
// status to next. Delivery orders must pass through out_for_delivery and
// pickup orders never enter it.
func (o *Order) CanTransitionTo(next OrderStatus) bool {
	if o.Status == OrderStatusReady {
		switch next {
		case OrderStatusOutForDelivery:
			return o.OrderType == OrderTypeDelivery
		case OrderStatusDelivered:
			return o.OrderType == OrderTypePickup
		}
		return false
	}
	for _, s := range orderTransitions[o.Status] {
		if s == next {
			return true
		}
	}
	return false
}
