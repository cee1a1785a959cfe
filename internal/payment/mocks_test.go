package payment

import (
	"context"
	"sync/atomic"

	"github.com/mkmonette/dish-nation-suite-sub001/internal/domain"
	"github.com/mkmonette/dish-nation-suite-sub001/internal/repository"
)

// MockGateway returns a canned answer and counts calls.
type MockGateway struct {
	Result CallbackResult
	Err    error
	Calls  atomic.Int32
	Last   CallbackRequest
}

func (m *MockGateway) Callback(_ context.Context, req CallbackRequest) (CallbackResult, error) {
	m.Calls.Add(1)
	m.Last = req
	return m.Result, m.Err
}

// MockPaymentRepository wraps a real repository and fails writes on demand.
type MockPaymentRepository struct {
	repository.PaymentRepository
	RecordErr error
}

func (m *MockPaymentRepository) RecordAttempt(ctx context.Context, p *domain.Payment, o *domain.Order) error {
	if m.RecordErr != nil {
		return m.RecordErr
	}
	return m.PaymentRepository.RecordAttempt(ctx, p, o)
}

type MockOrderRepository struct {
	repository.OrderRepository
	ClaimErr error
}

func (m *MockOrderRepository) ClaimPaymentSession(ctx context.Context, key repository.Key, sessionID string) error {
	if m.ClaimErr != nil {
		return m.ClaimErr
	}
	return m.OrderRepository.ClaimPaymentSession(ctx, key, sessionID)
}
