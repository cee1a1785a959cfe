package memory

import (
	"context"
	"sync"
	"time"

	"github.com/mkmonette/dish-nation-suite-sub001/internal/domain"
	"github.com/mkmonette/dish-nation-suite-sub001/internal/repository"
)

type vendorCollection struct {
	*Collection[*domain.Vendor]
}

type customerCollection struct {
	*Collection[*domain.Customer]
}

func (c customerCollection) FindByPhone(_ context.Context, vendorID, phone string) (*domain.Customer, error) {
	found := c.filter(vendorID, func(cu *domain.Customer) bool { return cu.Phone == phone })
	if len(found) == 0 {
		return nil, repository.ErrNotFound
	}
	return found[0], nil
}

type menuItemCollection struct {
	*Collection[*domain.MenuItem]
}

type paymentMethodCollection struct {
	*Collection[*domain.ManualPaymentMethod]
}

type loyaltyCollection struct {
	*Collection[*domain.LoyaltySettings]
}

// orderCollection records outbox events next to every write, mirroring the
// transactional outbox of the postgres repository.
type orderCollection struct {
	*Collection[*domain.Order]
	outbox *Outbox
}

func (c orderCollection) Create(ctx context.Context, o *domain.Order) error {
	if err := c.Collection.Create(ctx, o); err != nil {
		return err
	}
	return c.outbox.addOrderEvent(repository.EventOrderCreated, o)
}

func (c orderCollection) Update(ctx context.Context, o *domain.Order) error {
	if err := c.Collection.Update(ctx, o); err != nil {
		return err
	}
	return c.outbox.addOrderEvent(repository.EventOrderStatusChanged, o)
}

// GetAll returns the vendor's orders newest first.
func (c orderCollection) GetAll(ctx context.Context, vendorID string) ([]*domain.Order, error) {
	all, err := c.Collection.GetAll(ctx, vendorID)
	return newestFirst(all), err
}

func (c orderCollection) ClaimPaymentSession(_ context.Context, key repository.Key, sessionID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	o, exists := c.items[key]
	if !exists || o.Status != domain.OrderStatusPendingPayment || o.PaymentSessionID == "" || o.PaymentSessionID != sessionID {
		return repository.ErrNotFound
	}
	o.PaymentSessionID = ""
	o.UpdatedAt = time.Now().UTC()
	return nil
}

func (c orderCollection) ListByCustomer(_ context.Context, vendorID, customerID string) ([]*domain.Order, error) {
	return newestFirst(c.filter(vendorID, func(o *domain.Order) bool { return o.CustomerID == customerID })), nil
}

type paymentCollection struct {
	*Collection[*domain.Payment]
	orders *Collection[*domain.Order]
	outbox *Outbox
}

func (c paymentCollection) GetAll(ctx context.Context, vendorID string) ([]*domain.Payment, error) {
	all, err := c.Collection.GetAll(ctx, vendorID)
	return newestFirst(all), err
}

// RecordAttempt holds the order lock and then the payment lock while it
// writes both records. No other path takes both locks.
func (c paymentCollection) RecordAttempt(_ context.Context, p *domain.Payment, order *domain.Order) error {
	paymentEv, err := repository.PaymentEvent(p)
	if err != nil {
		return err
	}
	orderEv, err := repository.OrderEvent(repository.EventOrderStatusChanged, order)
	if err != nil {
		return err
	}

	c.orders.mu.Lock()
	defer c.orders.mu.Unlock()
	c.mu.Lock()
	defer c.mu.Unlock()

	orderKey := c.orders.keyOf(order)
	if _, exists := c.orders.items[orderKey]; !exists {
		return repository.ErrNotFound
	}
	paymentKey := c.keyOf(p)
	if _, exists := c.items[paymentKey]; exists {
		return repository.ErrAlreadyExists
	}

	c.items[paymentKey] = c.clone(p)
	c.order = append(c.order, paymentKey)
	c.orders.items[orderKey] = c.orders.clone(order)
	c.outbox.add(paymentEv)
	c.outbox.add(orderEv)
	return nil
}

func (c paymentCollection) Create(ctx context.Context, p *domain.Payment) error {
	if err := c.Collection.Create(ctx, p); err != nil {
		return err
	}
	ev, err := repository.PaymentEvent(p)
	if err != nil {
		return err
	}
	c.outbox.add(ev)
	return nil
}

func (c paymentCollection) ListByOrder(_ context.Context, vendorID, orderID string) ([]*domain.Payment, error) {
	return newestFirst(c.filter(vendorID, func(p *domain.Payment) bool { return p.OrderID == orderID })), nil
}

// Outbox keeps unpublished events in memory.
type Outbox struct {
	mu     sync.Mutex
	nextID int64
	events []*repository.OutboxEvent
	done   map[int64]bool
}

func NewOutbox() *Outbox {
	return &Outbox{done: make(map[int64]bool)}
}

func (o *Outbox) add(ev *repository.OutboxEvent) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.nextID++
	ev.ID = o.nextID
	o.events = append(o.events, ev)
}

func (o *Outbox) addOrderEvent(eventType string, order *domain.Order) error {
	ev, err := repository.OrderEvent(eventType, order)
	if err != nil {
		return err
	}
	o.add(ev)
	return nil
}

func (o *Outbox) GetUnprocessedEvents(_ context.Context, limit int) ([]*repository.OutboxEvent, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	result := make([]*repository.OutboxEvent, 0, limit)
	for _, ev := range o.events {
		if len(result) >= limit {
			break
		}
		if !o.done[ev.ID] {
			result = append(result, ev)
		}
	}
	return result, nil
}

func (o *Outbox) MarkEventAsProcessed(_ context.Context, id int64) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.done[id] = true
	return nil
}

// NewStore returns a repository.Store backed entirely by memory.
func NewStore() *repository.Store {
	outbox := NewOutbox()
	orders := NewCollection(
		func(o *domain.Order) repository.Key { return repository.Key{VendorID: o.VendorID, ID: o.ID} },
		(*domain.Order).Clone,
	)
	return &repository.Store{
		Vendors: vendorCollection{NewCollection(
			func(v *domain.Vendor) repository.Key { return repository.Key{ID: v.ID} },
			func(v *domain.Vendor) *domain.Vendor { c := *v; return &c },
		)},
		Customers: customerCollection{NewCollection(
			func(c *domain.Customer) repository.Key { return repository.Key{VendorID: c.VendorID, ID: c.ID} },
			func(c *domain.Customer) *domain.Customer { cp := *c; return &cp },
		)},
		MenuItems: menuItemCollection{NewCollection(
			func(m *domain.MenuItem) repository.Key { return repository.Key{VendorID: m.VendorID, ID: m.ID} },
			cloneMenuItem,
		)},
		PaymentMethods: paymentMethodCollection{NewCollection(
			func(m *domain.ManualPaymentMethod) repository.Key { return repository.Key{VendorID: m.VendorID, ID: m.ID} },
			func(m *domain.ManualPaymentMethod) *domain.ManualPaymentMethod { c := *m; return &c },
		)},
		Loyalty: loyaltyCollection{NewCollection(
			func(l *domain.LoyaltySettings) repository.Key { return repository.Key{VendorID: l.VendorID, ID: l.VendorID} },
			cloneLoyalty,
		)},
		Payments: paymentCollection{NewCollection(
			func(p *domain.Payment) repository.Key { return repository.Key{VendorID: p.VendorID, ID: p.ID} },
			(*domain.Payment).Clone,
		), orders, outbox},
		Orders: orderCollection{orders, outbox},
		Outbox: outbox,
	}
}

func cloneMenuItem(m *domain.MenuItem) *domain.MenuItem {
	c := *m
	c.Variations = append([]domain.Variation(nil), m.Variations...)
	c.AddOns = append([]domain.AddOn(nil), m.AddOns...)
	return &c
}

func cloneLoyalty(l *domain.LoyaltySettings) *domain.LoyaltySettings {
	c := *l
	c.RedemptionRules = append([]domain.RedemptionRule(nil), l.RedemptionRules...)
	return &c
}
