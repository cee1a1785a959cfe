package payment

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mkmonette/dish-nation-suite-sub001/internal/domain"
	"github.com/mkmonette/dish-nation-suite-sub001/internal/logger"
	"github.com/mkmonette/dish-nation-suite-sub001/internal/repository"
)

var (
	ErrMissingParams      = errors.New("gateway, session id and order id are required")
	ErrProcessingAborted  = errors.New("payment processing aborted")
	ErrInvalidSession     = errors.New("invalid or expired payment session")
	ErrNotAwaitingPayment = errors.New("order is not awaiting payment")
	ErrAlreadyProcessing  = errors.New("payment already in progress")
	ErrPaymentNotFound    = errors.New("payment not found")
	ErrNotRefundable      = errors.New("payment cannot be refunded")
	ErrOrderNotFound      = errors.New("order not found")
)

type State string

const (
	StateIdle       State = "idle"
	StateProcessing State = "processing"
	StateSucceeded  State = "succeeded"
	StateFailed     State = "failed"
)

// Request carries the parameters of a gateway redirect.
type Request struct {
	VendorID  string
	Gateway   string
	SessionID string
	OrderID   string
}

func (r Request) complete() bool {
	return r.Gateway != "" && r.SessionID != "" && r.OrderID != ""
}

// Result is the outcome of one processing attempt. RedirectURL is where the
// customer goes next.
type Result struct {
	OK          bool             `json:"ok"`
	State       State            `json:"state"`
	Order       *domain.Order    `json:"order,omitempty"`
	Payment     *domain.Payment  `json:"payment,omitempty"`
	RedirectURL string           `json:"redirect_url"`
	ErrorKind   domain.ErrorKind `json:"error_kind,omitempty"`
	Message     string           `json:"message,omitempty"`
	Err         error            `json:"-"`
}

type Processor struct {
	orders   repository.OrderRepository
	payments repository.PaymentRepository
	gateway  Gateway
	policy   OutcomePolicy
	delay    time.Duration
	inflight sync.Map
}

func NewProcessor(orders repository.OrderRepository, payments repository.PaymentRepository, gateway Gateway, policy OutcomePolicy, delay time.Duration) *Processor {
	return &Processor{
		orders:   orders,
		payments: payments,
		gateway:  gateway,
		policy:   policy,
		delay:    delay,
	}
}

// Process runs one attempt: idle → processing → succeeded | failed. Every
// attempt that reaches the gateway records exactly one Payment together
// with the order change, or nothing at all.
func (p *Processor) Process(ctx context.Context, req Request) Result {
	log := logger.FromContext(ctx).WithField("order_id", req.OrderID)

	if !req.complete() {
		return Result{State: StateFailed, RedirectURL: "/", ErrorKind: domain.ErrorKindValidation, Message: ErrMissingParams.Error(), Err: ErrMissingParams}
	}

	if _, busy := p.inflight.LoadOrStore(inflightKey(req), struct{}{}); busy {
		return p.reject(req, domain.ErrorKindValidation, ErrAlreadyProcessing)
	}
	defer p.inflight.Delete(inflightKey(req))

	order, err := p.orders.Get(ctx, repository.Key{VendorID: req.VendorID, ID: req.OrderID})
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			log.WithError(err).Error("failed to load order for payment")
		} else {
			log.Warn("payment callback for unknown order")
		}
		return Result{
			State:       StateFailed,
			RedirectURL: RetryURL(req.OrderID),
			ErrorKind:   domain.ErrorKindInternal,
			Message:     domain.GenericFailureMessage,
			Err:         ErrOrderNotFound,
		}
	}

	if order.Status != domain.OrderStatusPendingPayment {
		return p.reject(req, domain.ErrorKindValidation, ErrNotAwaitingPayment)
	}
	if order.PaymentSessionID == "" || order.PaymentSessionID != req.SessionID || order.PaymentMethod != req.Gateway {
		return p.reject(req, domain.ErrorKindValidation, ErrInvalidSession)
	}

	if err := p.wait(ctx); err != nil {
		log.Info("payment processing aborted before completion")
		return Result{State: StateIdle, ErrorKind: domain.ErrorKindInternal, Message: domain.GenericFailureMessage, Err: err}
	}

	// The session is spent before the gateway is called. A failed write below
	// sends the customer to the retry page for a fresh one.
	key := repository.Key{VendorID: order.VendorID, ID: order.ID}
	if err := p.orders.ClaimPaymentSession(ctx, key, req.SessionID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return p.reject(req, domain.ErrorKindValidation, ErrInvalidSession)
		}
		log.WithError(err).Error("failed to claim payment session")
		return Result{State: StateFailed, RedirectURL: RetryURL(order.ID), ErrorKind: domain.ErrorKindPersistence, Message: domain.GenericFailureMessage, Err: err}
	}

	outcome := p.policy.ResolveOutcome(ctx, order, req.Gateway)
	cbRes, cbErr := p.gateway.Callback(ctx, CallbackRequest{
		Gateway:   req.Gateway,
		SessionID: req.SessionID,
		OrderID:   order.ID,
		Amount:    order.Total,
		Currency:  order.Currency,
		Desired:   outcome,
	})
	if cbErr != nil {
		log.WithError(cbErr).Warn("gateway callback failed")
		cbRes = CallbackResult{ErrorMessage: "Payment gateway is currently unavailable"}
	}

	now := time.Now().UTC()
	payment := &domain.Payment{
		ID:              uuid.NewString(),
		OrderID:         order.ID,
		VendorID:        order.VendorID,
		CustomerID:      order.CustomerID,
		Amount:          order.Total,
		Currency:        order.Currency,
		Gateway:         req.Gateway,
		GatewayResponse: cbRes.GatewayResponse,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	order.PaymentSessionID = ""
	order.UpdatedAt = now
	if cbRes.Success {
		payment.Status = domain.PaymentStatusCompleted
		payment.TransactionID = cbRes.TransactionID
		order.Status = domain.OrderStatusConfirmed
		order.PaymentID = payment.ID
	} else {
		payment.Status = domain.PaymentStatusFailed
		payment.FailureReason = cbRes.ErrorMessage
	}

	if err := p.payments.RecordAttempt(ctx, payment, order); err != nil {
		log.WithError(err).WithField("payment_status", payment.Status).Error("failed to record payment attempt")
		return Result{State: StateFailed, RedirectURL: RetryURL(order.ID), ErrorKind: domain.ErrorKindPersistence, Message: domain.GenericFailureMessage, Err: err}
	}

	log = log.WithField("payment_id", payment.ID)
	if !cbRes.Success {
		log.WithField("reason", payment.FailureReason).Info("payment failed")
		return Result{State: StateFailed, Order: order, Payment: payment, RedirectURL: RetryURL(order.ID), ErrorKind: domain.ErrorKindPayment, Message: payment.FailureReason}
	}

	log.Info("payment completed")
	return Result{OK: true, State: StateSucceeded, Order: order, Payment: payment, RedirectURL: ConfirmationURL(order.ID)}
}

func (p *Processor) reject(req Request, kind domain.ErrorKind, err error) Result {
	return Result{State: StateFailed, RedirectURL: RetryURL(req.OrderID), ErrorKind: kind, Message: err.Error(), Err: err}
}

func (p *Processor) wait(ctx context.Context) error {
	if p.delay <= 0 {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("%w: %v", ErrProcessingAborted, err)
		}
		return nil
	}
	timer := time.NewTimer(p.delay)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("%w: %v", ErrProcessingAborted, ctx.Err())
	}
}

// NewSession issues a fresh payment session for an order awaiting payment.
// Earlier session ids stop working.
func (p *Processor) NewSession(ctx context.Context, vendorID, orderID string) (*domain.Order, error) {
	order, err := p.orders.Get(ctx, repository.Key{VendorID: vendorID, ID: orderID})
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load order: %w", err)
	}
	if order.Status != domain.OrderStatusPendingPayment {
		return nil, ErrNotAwaitingPayment
	}

	order.PaymentSessionID = NewSessionID()
	order.UpdatedAt = time.Now().UTC()
	if err := p.orders.Update(ctx, order); err != nil {
		return nil, fmt.Errorf("failed to update order: %w", err)
	}
	return order, nil
}

// Refund marks a completed payment refunded. A zero amount refunds in full.
func (p *Processor) Refund(ctx context.Context, vendorID, paymentID string, amount float64) (*domain.Payment, error) {
	payment, err := p.payments.Get(ctx, repository.Key{VendorID: vendorID, ID: paymentID})
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrPaymentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load payment: %w", err)
	}
	if payment.Status != domain.PaymentStatusCompleted {
		return nil, fmt.Errorf("%w: status is %s", ErrNotRefundable, payment.Status)
	}
	if amount == 0 {
		amount = payment.Amount
	}
	if amount < 0 || amount > payment.Amount {
		return nil, fmt.Errorf("%w: amount must be between 0 and %.2f", ErrNotRefundable, payment.Amount)
	}

	payment.Status = domain.PaymentStatusRefunded
	payment.RefundAmount = amount
	payment.UpdatedAt = time.Now().UTC()
	if err := p.payments.Update(ctx, payment); err != nil {
		return nil, fmt.Errorf("failed to update payment: %w", err)
	}
	logger.FromContext(ctx).WithField("payment_id", payment.ID).WithField("amount", amount).Info("payment refunded")
	return payment, nil
}

func NewSessionID() string {
	return "sess_" + uuid.NewString()
}

func inflightKey(req Request) string {
	return req.VendorID + "/" + req.OrderID
}

func ConfirmationURL(orderID string) string {
	return "/orders/" + url.PathEscape(orderID) + "/confirmation"
}

func RetryURL(orderID string) string {
	return "/orders/" + url.PathEscape(orderID) + "/retry-payment"
}

// ProcessURL is the gateway return address that triggers Process.
func ProcessURL(vendorID, gateway, sessionID, orderID string) string {
	q := url.Values{}
	q.Set("gateway", gateway)
	q.Set("session_id", sessionID)
	q.Set("order_id", orderID)
	return "/api/v1/stores/" + url.PathEscape(vendorID) + "/payment/process?" + q.Encode()
}
