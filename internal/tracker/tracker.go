// Package tracker maps an order's status onto the fixed sequence of steps
// shown to customers. It has no authority over transitions.
package tracker

import (
	"github.com/mkmonette/dish-nation-suite-sub001/internal/domain"
)

type StepState string

const (
	StepCompleted StepState = "completed"
	StepActive    StepState = "active"
	StepPending   StepState = "pending"
)

type Step struct {
	Status domain.OrderStatus `json:"status"`
	Label  string             `json:"label"`
	State  StepState          `json:"state"`
}

var labels = map[domain.OrderStatus]string{
	domain.OrderStatusPending:        "Order placed",
	domain.OrderStatusConfirmed:      "Confirmed",
	domain.OrderStatusPreparing:      "Preparing",
	domain.OrderStatusReady:          "Ready",
	domain.OrderStatusOutForDelivery: "Out for delivery",
	domain.OrderStatusDelivered:      "Delivered",
}

// Sequence returns the ordered statuses for an order type. Only delivery
// orders include out_for_delivery.
func Sequence(orderType domain.OrderType) []domain.OrderStatus {
	seq := []domain.OrderStatus{
		domain.OrderStatusPending,
		domain.OrderStatusConfirmed,
		domain.OrderStatusPreparing,
		domain.OrderStatusReady,
	}
	if orderType == domain.OrderTypeDelivery {
		seq = append(seq, domain.OrderStatusOutForDelivery)
	}
	return append(seq, domain.OrderStatusDelivered)
}

// Steps marks every step before the current status completed, the current
// one active and the rest pending. Statuses outside the sequence, including
// unknown ones, leave every step pending. An order awaiting payment sits
// on the first step.
func Steps(orderType domain.OrderType, status domain.OrderStatus) []Step {
	if status == domain.OrderStatusPendingPayment {
		status = domain.OrderStatusPending
	}

	seq := Sequence(orderType)
	current := -1
	for i, s := range seq {
		if s == status {
			current = i
			break
		}
	}

	steps := make([]Step, len(seq))
	for i, s := range seq {
		state := StepPending
		switch {
		case current < 0:
		case i < current:
			state = StepCompleted
		case i == current:
			state = StepActive
		}
		steps[i] = Step{Status: s, Label: labels[s], State: state}
	}

	// A delivered order has nothing left to wait for.
	if current == len(seq)-1 {
		steps[current].State = StepCompleted
	}
	return steps
}
