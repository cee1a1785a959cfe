package repository

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/mkmonette/dish-nation-suite-sub001/internal/domain"
)

type orderEventPayload struct {
	OrderID       string             `json:"order_id"`
	VendorID      string             `json:"vendor_id"`
	CustomerID    string             `json:"customer_id"`
	Status        domain.OrderStatus `json:"status"`
	PaymentMethod string             `json:"payment_method"`
	PaymentID     string             `json:"payment_id,omitempty"`
	Total         float64            `json:"total"`
	Currency      string             `json:"currency"`
	Items         []domain.OrderItem `json:"items,omitempty"`
	OccurredAt    time.Time          `json:"occurred_at"`
}

// OrderEvent builds the outbox payload for an order write. The proof
// attachment is never included.
func OrderEvent(eventType string, o *domain.Order) (*OutboxEvent, error) {
	payload := orderEventPayload{
		OrderID:       o.ID,
		VendorID:      o.VendorID,
		CustomerID:    o.CustomerID,
		Status:        o.Status,
		PaymentMethod: o.PaymentMethod,
		PaymentID:     o.PaymentID,
		Total:         o.Total,
		Currency:      o.Currency,
		OccurredAt:    time.Now().UTC(),
	}
	if eventType == EventOrderCreated {
		payload.Items = o.Items
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal order event: %w", err)
	}
	return &OutboxEvent{AggregateID: o.ID, EventType: eventType, Payload: data, CreatedAt: payload.OccurredAt}, nil
}

// PaymentEvent builds the outbox payload for a recorded payment attempt.
func PaymentEvent(p *domain.Payment) (*OutboxEvent, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payment event: %w", err)
	}
	return &OutboxEvent{AggregateID: p.OrderID, EventType: EventPaymentRecorded, Payload: data, CreatedAt: time.Now().UTC()}, nil
}
