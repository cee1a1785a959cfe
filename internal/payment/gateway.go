package payment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sony/gobreaker/v2"

	"github.com/mkmonette/dish-nation-suite-sub001/internal/domain"
)

var ErrUnknownGateway = errors.New("unknown or disabled gateway")

// Registry is the platform-wide list of online gateways in configured order.
type Registry struct {
	gateways []domain.Gateway
}

func NewRegistry(gateways ...domain.Gateway) *Registry {
	return &Registry{gateways: append([]domain.Gateway(nil), gateways...)}
}

func (r *Registry) Enabled() []domain.Gateway {
	enabled := make([]domain.Gateway, 0, len(r.gateways))
	for _, g := range r.gateways {
		if g.Enabled {
			enabled = append(enabled, g)
		}
	}
	return enabled
}

func (r *Registry) Lookup(name string) (domain.Gateway, bool) {
	for _, g := range r.gateways {
		if g.Name == name && g.Enabled {
			return g, true
		}
	}
	return domain.Gateway{}, false
}

type CallbackRequest struct {
	Gateway   string
	SessionID string
	OrderID   string
	Amount    float64
	Currency  string
	Desired   Outcome
}

type CallbackResult struct {
	Success         bool
	TransactionID   string
	ErrorMessage    string
	GatewayResponse map[string]string
}

// Gateway answers the redirect callback of an online payment.
type Gateway interface {
	Callback(ctx context.Context, req CallbackRequest) (CallbackResult, error)
}

// Simulator stands in for real processors and answers with the desired
// outcome.
type Simulator struct {
	registry *Registry
}

func NewSimulator(registry *Registry) *Simulator {
	return &Simulator{registry: registry}
}

func (s *Simulator) Callback(_ context.Context, req CallbackRequest) (CallbackResult, error) {
	gw, ok := s.registry.Lookup(req.Gateway)
	if !ok {
		return CallbackResult{}, fmt.Errorf("%w: %s", ErrUnknownGateway, req.Gateway)
	}

	resp := map[string]string{
		"gateway":    gw.Name,
		"session_id": req.SessionID,
		"order_id":   req.OrderID,
		"amount":     fmt.Sprintf("%.2f", req.Amount),
		"currency":   req.Currency,
		"test_mode":  fmt.Sprintf("%t", gw.TestMode),
		"timestamp":  time.Now().UTC().Format(time.RFC3339),
	}

	if req.Desired == OutcomeSuccess {
		txn := "TXN-" + uuid.NewString()
		resp["status"] = "approved"
		resp["transaction_id"] = txn
		return CallbackResult{Success: true, TransactionID: txn, GatewayResponse: resp}, nil
	}

	msg := fmt.Sprintf("Payment was declined by %s", gw.DisplayName)
	resp["status"] = "declined"
	resp["message"] = msg
	return CallbackResult{Success: false, ErrorMessage: msg, GatewayResponse: resp}, nil
}

type BreakerSettings struct {
	MaxRequests         uint32
	Interval            time.Duration
	Timeout             time.Duration
	ConsecutiveFailures uint32
}

// BreakerGateway trips after consecutive gateway errors. Declined payments
// are answers, not errors, and never count against the breaker.
type BreakerGateway struct {
	next Gateway
	cb   *gobreaker.CircuitBreaker[CallbackResult]
}

func NewBreakerGateway(next Gateway, s BreakerSettings) *BreakerGateway {
	failures := s.ConsecutiveFailures
	if failures == 0 {
		failures = 5
	}
	cb := gobreaker.NewCircuitBreaker[CallbackResult](gobreaker.Settings{
		Name:        "payment-gateway",
		MaxRequests: s.MaxRequests,
		Interval:    s.Interval,
		Timeout:     s.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrUnknownGateway)
		},
	})
	return &BreakerGateway{next: next, cb: cb}
}

func (b *BreakerGateway) Callback(ctx context.Context, req CallbackRequest) (CallbackResult, error) {
	return b.cb.Execute(func() (CallbackResult, error) {
		return b.next.Callback(ctx, req)
	})
}

func (b *BreakerGateway) State() gobreaker.State {
	return b.cb.State()
}
