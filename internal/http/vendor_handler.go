package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/mkmonette/dish-nation-suite-sub001/internal/catalog"
	"github.com/mkmonette/dish-nation-suite-sub001/internal/domain"
	"github.com/mkmonette/dish-nation-suite-sub001/internal/logger"
	"github.com/mkmonette/dish-nation-suite-sub001/internal/loyalty"
	"github.com/mkmonette/dish-nation-suite-sub001/internal/payment"
	"github.com/mkmonette/dish-nation-suite-sub001/internal/repository"
)

var validate = validator.New()

// VendorHandler serves the authenticated store administration API. The
// vendor id always comes from the token, never from the request.
type VendorHandler struct {
	store     *repository.Store
	catalog   *catalog.Service
	loyalty   *loyalty.Service
	processor *payment.Processor
	timeout   time.Duration
}

func NewVendorHandler(store *repository.Store, catalog *catalog.Service, loyalty *loyalty.Service, processor *payment.Processor, timeout time.Duration) *VendorHandler {
	return &VendorHandler{
		store:     store,
		catalog:   catalog,
		loyalty:   loyalty,
		processor: processor,
		timeout:   timeout,
	}
}

// StoreSettingsDTO is the storefront profile a vendor manages. Saving it
// for the first time provisions the store.
type StoreSettingsDTO struct {
	Name                 string `json:"name" validate:"required,max=100"`
	Slug                 string `json:"slug" validate:"omitempty,max=60"`
	Currency             string `json:"currency" validate:"omitempty,len=3,uppercase"`
	ManualPaymentEnabled *bool  `json:"manual_payment_enabled"`
}

type ManualPaymentToggleDTO struct {
	Enabled bool `json:"enabled"`
}

type StatusChangeDTO struct {
	Status domain.OrderStatus `json:"status"`
}

type RefundRequestDTO struct {
	Amount float64 `json:"amount"`
}

type CustomerResponseDTO struct {
	*domain.Customer
	Redeemable []domain.RedemptionRule `json:"redeemable"`
}

// --- menu ---

func (h *VendorHandler) ListMenuItems(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	items, err := h.catalog.ListItems(ctx, vendorFromContext(r.Context()))
	if err != nil {
		logger.FromContext(ctx).WithError(err).Error("failed to list menu items")
		respondInternal(w)
		return
	}
	respondJSON(w, http.StatusOK, items)
}

func (h *VendorHandler) GetMenuItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	item, err := h.catalog.GetItem(ctx, vendorFromContext(r.Context()), chi.URLParam(r, "item_id"))
	if err != nil {
		h.respondCatalogError(ctx, w, err)
		return
	}
	respondJSON(w, http.StatusOK, item)
}

func (h *VendorHandler) CreateMenuItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var item domain.MenuItem
	if !decodeJSON(w, r, &item) {
		return
	}
	created, err := h.catalog.CreateItem(ctx, vendorFromContext(r.Context()), &item)
	if err != nil {
		h.respondCatalogError(ctx, w, err)
		return
	}
	respondJSON(w, http.StatusCreated, created)
}

func (h *VendorHandler) UpdateMenuItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var item domain.MenuItem
	if !decodeJSON(w, r, &item) {
		return
	}
	item.ID = chi.URLParam(r, "item_id")
	updated, err := h.catalog.UpdateItem(ctx, vendorFromContext(r.Context()), &item)
	if err != nil {
		h.respondCatalogError(ctx, w, err)
		return
	}
	respondJSON(w, http.StatusOK, updated)
}

func (h *VendorHandler) DeleteMenuItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	if err := h.catalog.DeleteItem(ctx, vendorFromContext(r.Context()), chi.URLParam(r, "item_id")); err != nil {
		h.respondCatalogError(ctx, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *VendorHandler) respondCatalogError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, catalog.ErrItemNotFound):
		respondError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, catalog.ErrInvalidItem):
		respondError(w, http.StatusBadRequest, "invalid_item", err.Error())
	default:
		logger.FromContext(ctx).WithError(err).Error("menu operation failed")
		respondInternal(w)
	}
}

// --- manual payment methods ---

func (h *VendorHandler) ListPaymentMethods(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	methods, err := h.store.PaymentMethods.GetAll(ctx, vendorFromContext(r.Context()))
	if err != nil {
		logger.FromContext(ctx).WithError(err).Error("failed to list payment methods")
		respondInternal(w)
		return
	}
	respondJSON(w, http.StatusOK, methods)
}

func (h *VendorHandler) CreatePaymentMethod(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var m domain.ManualPaymentMethod
	if !decodeJSON(w, r, &m) {
		return
	}
	if err := validate.Struct(&m); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_payment_method", err.Error())
		return
	}
	now := time.Now().UTC()
	m.ID = uuid.NewString()
	m.VendorID = vendorFromContext(r.Context())
	m.CreatedAt = now
	m.UpdatedAt = now

	if err := h.store.PaymentMethods.Create(ctx, &m); err != nil {
		logger.FromContext(ctx).WithError(err).Error("failed to create payment method")
		respondInternal(w)
		return
	}
	respondJSON(w, http.StatusCreated, m)
}

func (h *VendorHandler) UpdatePaymentMethod(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var m domain.ManualPaymentMethod
	if !decodeJSON(w, r, &m) {
		return
	}
	if err := validate.Struct(&m); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_payment_method", err.Error())
		return
	}

	key := repository.Key{VendorID: vendorFromContext(r.Context()), ID: chi.URLParam(r, "method_id")}
	existing, err := h.store.PaymentMethods.Get(ctx, key)
	if errors.Is(err, repository.ErrNotFound) {
		respondError(w, http.StatusNotFound, "not_found", "payment method not found")
		return
	}
	if err != nil {
		logger.FromContext(ctx).WithError(err).Error("failed to load payment method")
		respondInternal(w)
		return
	}

	existing.Title = m.Title
	existing.Instructions = m.Instructions
	existing.QRCode = m.QRCode
	existing.Enabled = m.Enabled
	existing.UpdatedAt = time.Now().UTC()
	if err := h.store.PaymentMethods.Update(ctx, existing); err != nil {
		logger.FromContext(ctx).WithError(err).Error("failed to update payment method")
		respondInternal(w)
		return
	}
	respondJSON(w, http.StatusOK, existing)
}

func (h *VendorHandler) DeletePaymentMethod(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	err := h.store.PaymentMethods.Delete(ctx, repository.Key{VendorID: vendorFromContext(r.Context()), ID: chi.URLParam(r, "method_id")})
	if errors.Is(err, repository.ErrNotFound) {
		respondError(w, http.StatusNotFound, "not_found", "payment method not found")
		return
	}
	if err != nil {
		logger.FromContext(ctx).WithError(err).Error("failed to delete payment method")
		respondInternal(w)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- store settings ---

func (h *VendorHandler) GetSettings(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	vendor, err := h.store.Vendors.Get(ctx, repository.Key{ID: vendorFromContext(r.Context())})
	if errors.Is(err, repository.ErrNotFound) {
		respondError(w, http.StatusNotFound, "not_found", "store not found")
		return
	}
	if err != nil {
		logger.FromContext(ctx).WithError(err).Error("failed to load vendor")
		respondInternal(w)
		return
	}
	respondJSON(w, http.StatusOK, vendor)
}

// PutSettings creates the token's store when it does not exist yet and
// updates its profile otherwise.
func (h *VendorHandler) PutSettings(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req StoreSettingsDTO
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := validate.Struct(req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_settings", err.Error())
		return
	}

	vendorID := vendorFromContext(r.Context())
	log := logger.FromContext(ctx).WithField("vendor_id", vendorID)
	now := time.Now().UTC()

	vendor, err := h.store.Vendors.Get(ctx, repository.Key{ID: vendorID})
	created := errors.Is(err, repository.ErrNotFound)
	if err != nil && !created {
		log.WithError(err).Error("failed to load vendor")
		respondInternal(w)
		return
	}
	if created {
		vendor = &domain.Vendor{ID: vendorID, CreatedAt: now}
	}

	vendor.Name = req.Name
	vendor.Slug = req.Slug
	if vendor.Slug == "" {
		vendor.Slug = vendorID
	}
	if req.Currency != "" {
		vendor.Currency = req.Currency
	}
	if req.ManualPaymentEnabled != nil {
		vendor.ManualPaymentEnabled = *req.ManualPaymentEnabled
	}
	vendor.UpdatedAt = now

	status := http.StatusOK
	if created {
		err = h.store.Vendors.Create(ctx, vendor)
		status = http.StatusCreated
	} else {
		err = h.store.Vendors.Update(ctx, vendor)
	}
	if err != nil {
		log.WithError(err).Error("failed to save vendor")
		respondInternal(w)
		return
	}
	if created {
		log.Info("store provisioned")
	}
	respondJSON(w, status, vendor)
}

func (h *VendorHandler) SetManualPayment(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req ManualPaymentToggleDTO
	if !decodeJSON(w, r, &req) {
		return
	}
	vendor, err := h.store.Vendors.Get(ctx, repository.Key{ID: vendorFromContext(r.Context())})
	if errors.Is(err, repository.ErrNotFound) {
		respondError(w, http.StatusNotFound, "not_found", "store not found")
		return
	}
	if err != nil {
		logger.FromContext(ctx).WithError(err).Error("failed to load vendor")
		respondInternal(w)
		return
	}

	vendor.ManualPaymentEnabled = req.Enabled
	vendor.UpdatedAt = time.Now().UTC()
	if err := h.store.Vendors.Update(ctx, vendor); err != nil {
		logger.FromContext(ctx).WithError(err).Error("failed to update vendor")
		respondInternal(w)
		return
	}
	respondJSON(w, http.StatusOK, vendor)
}

// --- loyalty ---

func (h *VendorHandler) GetLoyalty(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	settings, err := h.loyalty.Settings(ctx, vendorFromContext(r.Context()))
	if err != nil {
		logger.FromContext(ctx).WithError(err).Error("failed to load loyalty settings")
		respondInternal(w)
		return
	}
	respondJSON(w, http.StatusOK, settings)
}

func (h *VendorHandler) PutLoyalty(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var settings domain.LoyaltySettings
	if !decodeJSON(w, r, &settings) {
		return
	}
	saved, err := h.loyalty.Save(ctx, vendorFromContext(r.Context()), &settings)
	if errors.Is(err, loyalty.ErrInvalidSettings) {
		respondError(w, http.StatusBadRequest, "invalid_settings", err.Error())
		return
	}
	if err != nil {
		logger.FromContext(ctx).WithError(err).Error("failed to save loyalty settings")
		respondInternal(w)
		return
	}
	respondJSON(w, http.StatusOK, saved)
}

// --- customers ---

func (h *VendorHandler) ListCustomers(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	vendorID := vendorFromContext(r.Context())
	customers, err := h.store.Customers.GetAll(ctx, vendorID)
	if err != nil {
		logger.FromContext(ctx).WithError(err).Error("failed to list customers")
		respondInternal(w)
		return
	}
	settings, err := h.loyalty.Settings(ctx, vendorID)
	if err != nil {
		logger.FromContext(ctx).WithError(err).Warn("loyalty settings unavailable")
		settings = nil
	}

	resp := make([]CustomerResponseDTO, 0, len(customers))
	for _, c := range customers {
		redeemable := loyalty.Redeemable(settings, c.LoyaltyPoints)
		if redeemable == nil {
			redeemable = []domain.RedemptionRule{}
		}
		resp = append(resp, CustomerResponseDTO{Customer: c, Redeemable: redeemable})
	}
	respondJSON(w, http.StatusOK, resp)
}

// --- orders ---

func (h *VendorHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	orders, err := h.store.Orders.GetAll(ctx, vendorFromContext(r.Context()))
	if err != nil {
		logger.FromContext(ctx).WithError(err).Error("failed to list orders")
		respondInternal(w)
		return
	}
	respondJSON(w, http.StatusOK, orders)
}

func (h *VendorHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	order, ok := h.loadOrder(ctx, w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, order)
}

// GetOrderProof streams the stored proof-of-payment image.
func (h *VendorHandler) GetOrderProof(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	order, ok := h.loadOrder(ctx, w, r)
	if !ok {
		return
	}
	if !order.HasProof() {
		respondError(w, http.StatusNotFound, "not_found", "order has no payment proof")
		return
	}
	w.Header().Set("Content-Type", order.PaymentProofType)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(order.PaymentProof)
}

func (h *VendorHandler) ChangeOrderStatus(w http.ResponseWriter, r *http.Request) {
	var req StatusChangeDTO
	if !decodeJSON(w, r, &req) {
		return
	}
	h.transition(w, r, req.Status)
}

func (h *VendorHandler) CancelOrder(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, domain.OrderStatusCancelled)
}

func (h *VendorHandler) transition(w http.ResponseWriter, r *http.Request, next domain.OrderStatus) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	order, ok := h.loadOrder(ctx, w, r)
	if !ok {
		return
	}
	if !order.CanTransitionTo(next) {
		respondError(w, http.StatusConflict, "invalid_transition", "cannot move order from "+order.Status.String()+" to "+next.String())
		return
	}

	order.Status = next
	if next == domain.OrderStatusCancelled {
		order.PaymentSessionID = ""
	}
	order.UpdatedAt = time.Now().UTC()
	if err := h.store.Orders.Update(ctx, order); err != nil {
		logger.FromContext(ctx).WithError(err).Error("failed to update order status")
		respondInternal(w)
		return
	}
	logger.FromContext(ctx).WithField("order_id", order.ID).WithField("status", next).Info("order status changed")
	respondJSON(w, http.StatusOK, order)
}

func (h *VendorHandler) loadOrder(ctx context.Context, w http.ResponseWriter, r *http.Request) (*domain.Order, bool) {
	order, err := h.store.Orders.Get(ctx, repository.Key{VendorID: vendorFromContext(r.Context()), ID: chi.URLParam(r, "order_id")})
	if errors.Is(err, repository.ErrNotFound) {
		respondError(w, http.StatusNotFound, "not_found", "order not found")
		return nil, false
	}
	if err != nil {
		logger.FromContext(ctx).WithError(err).Error("failed to load order")
		respondInternal(w)
		return nil, false
	}
	return order, true
}

// --- payments ---

func (h *VendorHandler) RefundPayment(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req RefundRequestDTO
	if r.ContentLength != 0 && !decodeJSON(w, r, &req) {
		return
	}
	p, err := h.processor.Refund(ctx, vendorFromContext(r.Context()), chi.URLParam(r, "payment_id"), req.Amount)
	switch {
	case errors.Is(err, payment.ErrPaymentNotFound):
		respondError(w, http.StatusNotFound, "not_found", err.Error())
		return
	case errors.Is(err, payment.ErrNotRefundable):
		respondError(w, http.StatusConflict, "not_refundable", err.Error())
		return
	case err != nil:
		logger.FromContext(ctx).WithError(err).Error("refund failed")
		respondInternal(w)
		return
	}
	respondJSON(w, http.StatusOK, p)
}
