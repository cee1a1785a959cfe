package checkout

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/mkmonette/dish-nation-suite-sub001/internal/cart"
	"github.com/mkmonette/dish-nation-suite-sub001/internal/catalog"
	"github.com/mkmonette/dish-nation-suite-sub001/internal/domain"
	"github.com/mkmonette/dish-nation-suite-sub001/internal/logger"
	"github.com/mkmonette/dish-nation-suite-sub001/internal/loyalty"
	"github.com/mkmonette/dish-nation-suite-sub001/internal/payment"
	"github.com/mkmonette/dish-nation-suite-sub001/internal/repository"
)

var ErrVendorNotFound = errors.New("store not found")

type Service struct {
	store           *repository.Store
	catalog         *catalog.Service
	carts           cart.Store
	loyalty         *loyalty.Service
	gateways        *payment.Registry
	defaultCurrency string
}

func NewService(store *repository.Store, catalog *catalog.Service, carts cart.Store, loyalty *loyalty.Service, gateways *payment.Registry, defaultCurrency string) *Service {
	return &Service{
		store:           store,
		catalog:         catalog,
		carts:           carts,
		loyalty:         loyalty,
		gateways:        gateways,
		defaultCurrency: defaultCurrency,
	}
}

// PaymentOptions reads vendor and gateway configuration fresh on every call.
func (s *Service) PaymentOptions(ctx context.Context, vendorID string) ([]PaymentOption, error) {
	vendor, err := s.vendor(ctx, vendorID)
	if err != nil {
		return nil, err
	}
	methods, err := s.store.PaymentMethods.GetAll(ctx, vendorID)
	if err != nil {
		return nil, err
	}
	return ResolvePaymentOptions(vendor, methods, s.gateways.Enabled()), nil
}

// SubmitCart prices the session cart against the current menu, submits it
// and clears the cart once the order is placed.
func (s *Service) SubmitCart(ctx context.Context, vendorID, sessionID string, p *Payload) Result {
	sess, err := s.carts.Get(ctx, vendorID, sessionID)
	if errors.Is(err, cart.ErrCartNotFound) {
		return invalid("cart", cart.ErrEmptyCart.Error())
	}
	if err != nil {
		logger.FromContext(ctx).WithError(err).Error("failed to load cart")
		return internalFailure()
	}

	lines, err := s.catalog.Resolve(ctx, vendorID, sess.Lines)
	if err != nil {
		if errors.Is(err, catalog.ErrItemNotFound) || errors.Is(err, catalog.ErrItemUnavailable) ||
			errors.Is(err, catalog.ErrUnknownVariation) || errors.Is(err, catalog.ErrUnknownAddOn) ||
			errors.Is(err, cart.ErrInvalidQuantity) {
			return invalid("cart", err.Error())
		}
		logger.FromContext(ctx).WithError(err).Error("failed to resolve cart")
		return internalFailure()
	}

	res := s.Submit(ctx, vendorID, p, lines)
	if res.OK {
		if err := s.carts.Delete(ctx, vendorID, sessionID); err != nil {
			logger.FromContext(ctx).WithError(err).Warn("failed to clear cart after checkout")
		}
	}
	return res
}

// Submit creates the order for a priced cart. The total is the cart total;
// loyalty points are credited but never deducted. Nothing is persisted when
// validation fails, and a failed order write leaves no order behind.
func (s *Service) Submit(ctx context.Context, vendorID string, p *Payload, lines []cart.Line) Result {
	log := logger.FromContext(ctx).WithField("vendor_id", vendorID)

	if len(lines) == 0 {
		return invalid("cart", cart.ErrEmptyCart.Error())
	}
	if p == nil {
		return invalid("form", "checkout form is required")
	}

	vendor, err := s.vendor(ctx, vendorID)
	if errors.Is(err, ErrVendorNotFound) {
		return invalid("vendor", err.Error())
	}
	if err != nil {
		log.WithError(err).Error("failed to load vendor")
		return internalFailure()
	}

	if res, ok := s.checkPaymentMethod(ctx, vendor, p); !ok {
		return res
	}

	customer, err := s.ensureCustomer(ctx, vendorID, p.Customer)
	if err != nil {
		log.WithError(err).Error("failed to save customer")
		return persistenceFailure()
	}

	settings, err := s.loyalty.Settings(ctx, vendorID)
	if err != nil {
		log.WithError(err).Warn("loyalty settings unavailable, no points credited")
		settings = nil
	}

	now := time.Now().UTC()
	total := cart.Total(lines)
	order := &domain.Order{
		ID:                  uuid.NewString(),
		VendorID:            vendorID,
		CustomerID:          customer.ID,
		Items:               cart.Snapshot(lines),
		Total:               total,
		Currency:            s.currency(vendor),
		OrderType:           p.OrderType,
		PaymentMethod:       p.PaymentMethod,
		Status:              domain.OrderStatusPending,
		Notes:               p.Notes,
		CustomerInfo:        p.Customer,
		LoyaltyPointsEarned: loyalty.EarnedPoints(settings, total),
		CreatedAt:           now,
		UpdatedAt:           now,
	}

	nextURL := payment.ConfirmationURL(order.ID)
	switch {
	case p.PaymentMethod == domain.PaymentMethodManual:
		order.SelectedPaymentMethod = p.SelectedPaymentMethod
		order.PaymentProof = p.Proof.Data
		order.PaymentProofType = p.Proof.ContentType
	case p.PaymentMethod != domain.PaymentMethodPayOnDelivery:
		order.Status = domain.OrderStatusPendingPayment
		order.PaymentSessionID = payment.NewSessionID()
		nextURL = payment.ProcessURL(vendorID, p.PaymentMethod, order.PaymentSessionID, order.ID)
	}

	if err := s.store.Orders.Create(ctx, order); err != nil {
		log.WithError(err).Error("failed to create order")
		return persistenceFailure()
	}

	// The customer row already exists, so a failed credit only costs the
	// informational points of this order.
	customer.Name = p.Customer.Name
	customer.Address = p.Customer.Address
	customer.LoyaltyPoints += order.LoyaltyPointsEarned
	customer.UpdatedAt = now
	if err := s.store.Customers.Update(ctx, customer); err != nil {
		log.WithError(err).WithField("order_id", order.ID).Warn("failed to credit loyalty points")
	}

	log.WithField("order_id", order.ID).WithField("payment_method", order.PaymentMethod).Info("order placed")
	return success(&Confirmation{Order: order, NextURL: nextURL, PointsEarned: order.LoyaltyPointsEarned})
}

func (s *Service) checkPaymentMethod(ctx context.Context, vendor *domain.Vendor, p *Payload) (Result, bool) {
	switch p.PaymentMethod {
	case domain.PaymentMethodPayOnDelivery:
		return Result{}, true
	case domain.PaymentMethodManual:
		if !vendor.ManualPaymentEnabled {
			return invalid("payment_method", "manual payment is not available for this store"), false
		}
		if p.SelectedPaymentMethod == "" {
			return invalid("selected_payment_method", "choose a manual payment method"), false
		}
		if p.Proof == nil || len(p.Proof.Data) == 0 {
			return invalid("payment_proof", "upload a proof of payment"), false
		}
		method, err := s.store.PaymentMethods.Get(ctx, repository.Key{VendorID: vendor.ID, ID: p.SelectedPaymentMethod})
		if errors.Is(err, repository.ErrNotFound) || (err == nil && !method.Enabled) {
			return invalid("selected_payment_method", "selected payment method is not available"), false
		}
		if err != nil {
			logger.FromContext(ctx).WithError(err).Error("failed to load manual payment method")
			return internalFailure(), false
		}
		return Result{}, true
	default:
		if _, ok := s.gateways.Lookup(p.PaymentMethod); !ok {
			return invalid("payment_method", "payment method is not available"), false
		}
		return Result{}, true
	}
}

// ensureCustomer returns the vendor's customer for the phone number,
// creating the record when it does not exist yet.
func (s *Service) ensureCustomer(ctx context.Context, vendorID string, info domain.CustomerInfo) (*domain.Customer, error) {
	existing, err := s.store.Customers.FindByPhone(ctx, vendorID, info.Phone)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	now := time.Now().UTC()
	customer := &domain.Customer{
		ID:        uuid.NewString(),
		VendorID:  vendorID,
		Name:      info.Name,
		Phone:     info.Phone,
		Address:   info.Address,
		CreatedAt: now,
		UpdatedAt: now,
	}
	err = s.store.Customers.Create(ctx, customer)
	if errors.Is(err, repository.ErrAlreadyExists) {
		// A concurrent checkout created the same phone number first.
		return s.store.Customers.FindByPhone(ctx, vendorID, info.Phone)
	}
	if err != nil {
		return nil, err
	}
	return customer, nil
}

func (s *Service) vendor(ctx context.Context, vendorID string) (*domain.Vendor, error) {
	vendor, err := s.store.Vendors.Get(ctx, repository.Key{ID: vendorID})
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrVendorNotFound
	}
	return vendor, err
}

func (s *Service) currency(v *domain.Vendor) string {
	if v.Currency != "" {
		return v.Currency
	}
	return s.defaultCurrency
}
