package repository

import (
	"context"
	"errors"
	"time"

	"github.com/mkmonette/dish-nation-suite-sub001/internal/domain"
)

var (
	ErrNotFound      = errors.New("record not found")
	ErrAlreadyExists = errors.New("record already exists")
)

// Key addresses a record. VendorID is empty for records that are not
// vendor scoped (vendors themselves).
type Key struct {
	VendorID string
	ID       string
}

// Repository is the persistence contract every entity store satisfies.
// Lookups of missing records return ErrNotFound.
type Repository[T any] interface {
	Create(ctx context.Context, v T) error
	Get(ctx context.Context, key Key) (T, error)
	GetAll(ctx context.Context, vendorID string) ([]T, error)
	Update(ctx context.Context, v T) error
	Delete(ctx context.Context, key Key) error
}

type VendorRepository interface {
	Repository[*domain.Vendor]
}

type CustomerRepository interface {
	Repository[*domain.Customer]
	FindByPhone(ctx context.Context, vendorID, phone string) (*domain.Customer, error)
}

type MenuItemRepository interface {
	Repository[*domain.MenuItem]
}

type ManualPaymentMethodRepository interface {
	Repository[*domain.ManualPaymentMethod]
}

type LoyaltySettingsRepository interface {
	Repository[*domain.LoyaltySettings]
}

type OrderRepository interface {
	Repository[*domain.Order]
	ListByCustomer(ctx context.Context, vendorID, customerID string) ([]*domain.Order, error)
	// ClaimPaymentSession clears the session of an order awaiting payment
	// when it still holds sessionID. It returns ErrNotFound otherwise, so
	// only one caller can spend a session.
	ClaimPaymentSession(ctx context.Context, key Key, sessionID string) error
}

type PaymentRepository interface {
	Repository[*domain.Payment]
	ListByOrder(ctx context.Context, vendorID, orderID string) ([]*domain.Payment, error)
	// RecordAttempt stores a payment and the order it settles in one write.
	// Either both are persisted or neither is.
	RecordAttempt(ctx context.Context, p *domain.Payment, order *domain.Order) error
}

// OutboxEvent is a domain event waiting to be published.
type OutboxEvent struct {
	ID          int64
	AggregateID string
	EventType   string
	Payload     []byte
	CreatedAt   time.Time
}

const (
	EventOrderCreated       = "order.created"
	EventOrderStatusChanged = "order.status_changed"
	EventPaymentRecorded    = "payment.recorded"
)

type OutboxRepository interface {
	GetUnprocessedEvents(ctx context.Context, limit int) ([]*OutboxEvent, error)
	MarkEventAsProcessed(ctx context.Context, id int64) error
}

// Store bundles the entity repositories the services depend on.
type Store struct {
	Vendors        VendorRepository
	Customers      CustomerRepository
	MenuItems      MenuItemRepository
	PaymentMethods ManualPaymentMethodRepository
	Loyalty        LoyaltySettingsRepository
	Orders         OrderRepository
	Payments       PaymentRepository
	Outbox         OutboxRepository
}
