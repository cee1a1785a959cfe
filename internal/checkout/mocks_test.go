package checkout

import (
	"context"

	"github.com/mkmonette/dish-nation-suite-sub001/internal/domain"
	"github.com/mkmonette/dish-nation-suite-sub001/internal/repository"
)

// MockOrderRepository fails Create on demand.
type MockOrderRepository struct {
	repository.OrderRepository
	CreateErr error
}

func (m *MockOrderRepository) Create(ctx context.Context, o *domain.Order) error {
	if m.CreateErr != nil {
		return m.CreateErr
	}
	return m.OrderRepository.Create(ctx, o)
}

// MockCustomerRepository fails writes on demand.
type MockCustomerRepository struct {
	repository.CustomerRepository
	CreateErr error
	UpdateErr error
}

func (m *MockCustomerRepository) Create(ctx context.Context, c *domain.Customer) error {
	if m.CreateErr != nil {
		return m.CreateErr
	}
	return m.CustomerRepository.Create(ctx, c)
}

func (m *MockCustomerRepository) Update(ctx context.Context, c *domain.Customer) error {
	if m.UpdateErr != nil {
		return m.UpdateErr
	}
	return m.CustomerRepository.Update(ctx, c)
}
