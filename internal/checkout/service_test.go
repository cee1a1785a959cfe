package checkout

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkmonette/dish-nation-suite-sub001/internal/cart"
	"github.com/mkmonette/dish-nation-suite-sub001/internal/catalog"
	"github.com/mkmonette/dish-nation-suite-sub001/internal/domain"
	"github.com/mkmonette/dish-nation-suite-sub001/internal/loyalty"
	"github.com/mkmonette/dish-nation-suite-sub001/internal/payment"
	"github.com/mkmonette/dish-nation-suite-sub001/internal/repository"
	"github.com/mkmonette/dish-nation-suite-sub001/internal/repository/memory"
)

type fixture struct {
	store   *repository.Store
	svc     *Service
	carts   *cart.MemoryStore
	catalog *catalog.Service
	burger  *domain.MenuItem
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	store := memory.NewStore()

	require.NoError(t, store.Vendors.Create(ctx, &domain.Vendor{ID: "vendor-1", Name: "Dish", Slug: "dish", Currency: "PHP", ManualPaymentEnabled: true}))
	require.NoError(t, store.PaymentMethods.Create(ctx, &domain.ManualPaymentMethod{ID: "gcash", VendorID: "vendor-1", Title: "GCash", Enabled: true}))
	require.NoError(t, store.PaymentMethods.Create(ctx, &domain.ManualPaymentMethod{ID: "bank", VendorID: "vendor-1", Title: "Bank", Enabled: false}))

	cat := catalog.NewService(store.MenuItems, nil)
	burger, err := cat.CreateItem(ctx, "vendor-1", &domain.MenuItem{
		Name:        "Burger",
		Price:       5,
		AddOns:      []domain.AddOn{{Name: "Cheese", Price: 1}},
		IsAvailable: true,
	})
	require.NoError(t, err)

	loyaltySvc := loyalty.NewService(store.Loyalty)
	_, err = loyaltySvc.Save(ctx, "vendor-1", &domain.LoyaltySettings{PointsPerPeso: 1, IsActive: true})
	require.NoError(t, err)

	carts := cart.NewMemoryStore()
	registry := payment.NewRegistry(testGateways...)
	return &fixture{
		store:   store,
		svc:     NewService(store, cat, carts, loyaltySvc, registry, "USD"),
		carts:   carts,
		catalog: cat,
		burger:  burger,
	}
}

func (f *fixture) burgerLines(t *testing.T) []cart.Line {
	t.Helper()
	lines, err := f.catalog.Resolve(context.Background(), "vendor-1", []cart.Selection{
		{MenuItemID: f.burger.ID, Quantity: 2, AddOnIDs: []string{f.burger.AddOns[0].ID}},
	})
	require.NoError(t, err)
	return lines
}

func cashPayload() *Payload {
	return &Payload{
		Customer:      domain.CustomerInfo{Name: "Ana", Phone: "0917", Address: "12 Mabini St"},
		OrderType:     domain.OrderTypeDelivery,
		PaymentMethod: domain.PaymentMethodPayOnDelivery,
	}
}

func manualPayload(t *testing.T) *Payload {
	t.Helper()
	att, err := NewAttachment("receipt.png", pngBytes)
	require.NoError(t, err)
	p := cashPayload()
	p.PaymentMethod = domain.PaymentMethodManual
	p.SelectedPaymentMethod = "gcash"
	p.Proof = att
	return p
}

func allOrders(t *testing.T, store *repository.Store) []*domain.Order {
	t.Helper()
	orders, err := store.Orders.GetAll(context.Background(), "vendor-1")
	require.NoError(t, err)
	return orders
}

func TestSubmit_CashOrder(t *testing.T) {
	f := newFixture(t)
	res := f.svc.Submit(context.Background(), "vendor-1", cashPayload(), f.burgerLines(t))

	require.True(t, res.OK, res.Message)
	order := res.Data.Order
	assert.Equal(t, 12.0, order.Total)
	assert.Equal(t, domain.OrderStatusPending, order.Status)
	assert.Equal(t, "PHP", order.Currency)
	assert.Equal(t, "/orders/"+order.ID+"/confirmation", res.Data.NextURL)
	require.Len(t, order.Items, 1)
	assert.Equal(t, 6.0, order.Items[0].Price)
	assert.Equal(t, []string{"Cheese"}, order.Items[0].AddOns)
	assert.Equal(t, int64(12), res.Data.PointsEarned)

	customer, err := f.store.Customers.FindByPhone(context.Background(), "vendor-1", "0917")
	require.NoError(t, err)
	assert.Equal(t, order.CustomerID, customer.ID)
	assert.Equal(t, int64(12), customer.LoyaltyPoints)
}

func TestSubmit_ReturningCustomerAccumulatesPoints(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first := f.svc.Submit(ctx, "vendor-1", cashPayload(), f.burgerLines(t))
	require.True(t, first.OK)
	second := f.svc.Submit(ctx, "vendor-1", cashPayload(), f.burgerLines(t))
	require.True(t, second.OK)

	assert.Equal(t, first.Data.Order.CustomerID, second.Data.Order.CustomerID)
	customer, err := f.store.Customers.FindByPhone(ctx, "vendor-1", "0917")
	require.NoError(t, err)
	assert.Equal(t, int64(24), customer.LoyaltyPoints)

	orders, err := f.store.Orders.ListByCustomer(ctx, "vendor-1", customer.ID)
	require.NoError(t, err)
	assert.Len(t, orders, 2)
}

func TestSubmit_ManualOrderStoresProof(t *testing.T) {
	f := newFixture(t)
	res := f.svc.Submit(context.Background(), "vendor-1", manualPayload(t), f.burgerLines(t))

	require.True(t, res.OK, res.Message)
	stored, err := f.store.Orders.Get(context.Background(), repository.Key{VendorID: "vendor-1", ID: res.Data.Order.ID})
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentMethodManual, stored.PaymentMethod)
	assert.Equal(t, "gcash", stored.SelectedPaymentMethod)
	assert.True(t, stored.HasProof())
	assert.Equal(t, "image/png", stored.PaymentProofType)
	assert.Equal(t, domain.OrderStatusPending, stored.Status)
}

func TestSubmit_ManualWithoutProofCreatesNothing(t *testing.T) {
	f := newFixture(t)
	p := manualPayload(t)
	p.Proof = nil

	res := f.svc.Submit(context.Background(), "vendor-1", p, f.burgerLines(t))

	assert.False(t, res.OK)
	assert.Equal(t, domain.ErrorKindValidation, res.ErrorKind)
	assert.Equal(t, "payment_proof", res.Field)
	assert.Empty(t, allOrders(t, f.store))
	payments, err := f.store.Payments.GetAll(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, payments)
	_, err = f.store.Customers.FindByPhone(context.Background(), "vendor-1", "0917")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestSubmit_ManualMethodChecks(t *testing.T) {
	f := newFixture(t)

	disabled := manualPayload(t)
	disabled.SelectedPaymentMethod = "bank"
	res := f.svc.Submit(context.Background(), "vendor-1", disabled, f.burgerLines(t))
	assert.Equal(t, "selected_payment_method", res.Field)

	unknown := manualPayload(t)
	unknown.SelectedPaymentMethod = "nope"
	res = f.svc.Submit(context.Background(), "vendor-1", unknown, f.burgerLines(t))
	assert.Equal(t, "selected_payment_method", res.Field)

	vendor, err := f.store.Vendors.Get(context.Background(), repository.Key{ID: "vendor-1"})
	require.NoError(t, err)
	vendor.ManualPaymentEnabled = false
	require.NoError(t, f.store.Vendors.Update(context.Background(), vendor))
	res = f.svc.Submit(context.Background(), "vendor-1", manualPayload(t), f.burgerLines(t))
	assert.Equal(t, "payment_method", res.Field)

	assert.Empty(t, allOrders(t, f.store))
}

func TestSubmit_GatewayOrderAwaitsPayment(t *testing.T) {
	f := newFixture(t)
	p := cashPayload()
	p.PaymentMethod = "stripe"

	res := f.svc.Submit(context.Background(), "vendor-1", p, f.burgerLines(t))

	require.True(t, res.OK)
	order := res.Data.Order
	assert.Equal(t, domain.OrderStatusPendingPayment, order.Status)
	assert.NotEmpty(t, order.PaymentSessionID)
	assert.Equal(t, payment.ProcessURL("vendor-1", "stripe", order.PaymentSessionID, order.ID), res.Data.NextURL)
}

func TestSubmit_UnknownGateway(t *testing.T) {
	f := newFixture(t)
	p := cashPayload()
	p.PaymentMethod = "paypal"

	res := f.svc.Submit(context.Background(), "vendor-1", p, f.burgerLines(t))
	assert.False(t, res.OK)
	assert.Equal(t, "payment_method", res.Field)
}

func TestSubmit_EmptyCartAndUnknownVendor(t *testing.T) {
	f := newFixture(t)

	res := f.svc.Submit(context.Background(), "vendor-1", cashPayload(), nil)
	assert.Equal(t, domain.ErrorKindValidation, res.ErrorKind)
	assert.Equal(t, "cart", res.Field)

	res = f.svc.Submit(context.Background(), "ghost", cashPayload(), f.burgerLines(t))
	assert.Equal(t, "vendor", res.Field)
}

func TestSubmit_PersistenceFailureLeavesNoOrder(t *testing.T) {
	f := newFixture(t)
	f.store.Orders = &MockOrderRepository{OrderRepository: f.store.Orders, CreateErr: errors.New("connection refused")}

	res := f.svc.Submit(context.Background(), "vendor-1", cashPayload(), f.burgerLines(t))

	assert.False(t, res.OK)
	assert.Equal(t, domain.ErrorKindPersistence, res.ErrorKind)
	assert.Equal(t, domain.GenericFailureMessage, res.Message)
	assert.NotContains(t, res.Message, "connection refused")
	assert.Empty(t, allOrders(t, f.store))

	// The customer may exist but is never credited for the lost order.
	customer, err := f.store.Customers.FindByPhone(context.Background(), "vendor-1", "0917")
	require.NoError(t, err)
	assert.Zero(t, customer.LoyaltyPoints)
}

func TestSubmit_CustomerWriteFailurePlacesNoOrder(t *testing.T) {
	f := newFixture(t)
	f.store.Customers = &MockCustomerRepository{CustomerRepository: f.store.Customers, CreateErr: errors.New("connection refused")}

	res := f.svc.Submit(context.Background(), "vendor-1", cashPayload(), f.burgerLines(t))

	assert.False(t, res.OK)
	assert.Equal(t, domain.ErrorKindPersistence, res.ErrorKind)
	assert.Empty(t, allOrders(t, f.store))
}

func TestSubmit_OrderReferencesStoredCustomer(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.store.Customers = &MockCustomerRepository{CustomerRepository: f.store.Customers, UpdateErr: errors.New("timeout")}

	res := f.svc.Submit(ctx, "vendor-1", cashPayload(), f.burgerLines(t))
	require.True(t, res.OK)

	customer, err := f.store.Customers.Get(ctx, repository.Key{VendorID: "vendor-1", ID: res.Data.Order.CustomerID})
	require.NoError(t, err)
	assert.Equal(t, "0917", customer.Phone)
}

func TestSubmit_MenuEditDoesNotAlterOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	res := f.svc.Submit(ctx, "vendor-1", cashPayload(), f.burgerLines(t))
	require.True(t, res.OK)

	f.burger.Name = "Cheeseburger"
	f.burger.Price = 50
	_, err := f.catalog.UpdateItem(ctx, "vendor-1", f.burger)
	require.NoError(t, err)

	stored, err := f.store.Orders.Get(ctx, repository.Key{VendorID: "vendor-1", ID: res.Data.Order.ID})
	require.NoError(t, err)
	assert.Equal(t, "Burger", stored.Items[0].Name)
	assert.Equal(t, 12.0, stored.Total)
}

func TestSubmitCart(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sess := &cart.Session{ID: "sess-1", VendorID: "vendor-1"}
	require.NoError(t, sess.Add(cart.Selection{MenuItemID: f.burger.ID, Quantity: 2, AddOnIDs: []string{f.burger.AddOns[0].ID}}))
	require.NoError(t, f.carts.Save(ctx, sess))

	res := f.svc.SubmitCart(ctx, "vendor-1", "sess-1", cashPayload())
	require.True(t, res.OK, res.Message)
	assert.Equal(t, 12.0, res.Data.Order.Total)

	_, err := f.carts.Get(ctx, "vendor-1", "sess-1")
	assert.ErrorIs(t, err, cart.ErrCartNotFound)

	res = f.svc.SubmitCart(ctx, "vendor-1", "sess-1", cashPayload())
	assert.Equal(t, "cart", res.Field)
}

func TestSubmitCart_UnavailableItem(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.carts.Save(ctx, &cart.Session{ID: "s", VendorID: "vendor-1", Lines: []cart.Selection{{MenuItemID: f.burger.ID, Quantity: 1}}}))

	f.burger.IsAvailable = false
	_, err := f.catalog.UpdateItem(ctx, "vendor-1", f.burger)
	require.NoError(t, err)

	res := f.svc.SubmitCart(ctx, "vendor-1", "s", cashPayload())
	assert.Equal(t, "cart", res.Field)
	assert.Empty(t, allOrders(t, f.store))
}

func TestPaymentOptions(t *testing.T) {
	f := newFixture(t)
	options, err := f.svc.PaymentOptions(context.Background(), "vendor-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"pay_on_delivery", "stripe", "paymongo", "manual_payment"}, ids(options))

	_, err = f.svc.PaymentOptions(context.Background(), "ghost")
	assert.ErrorIs(t, err, ErrVendorNotFound)
}

func TestSubmit_TimestampsSet(t *testing.T) {
	f := newFixture(t)
	before := time.Now().UTC().Add(-time.Second)
	res := f.svc.Submit(context.Background(), "vendor-1", cashPayload(), f.burgerLines(t))
	require.True(t, res.OK)
	assert.True(t, res.Data.Order.CreatedAt.After(before))
}
