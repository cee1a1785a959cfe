package http

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/mkmonette/dish-nation-suite-sub001/internal/cart"
	"github.com/mkmonette/dish-nation-suite-sub001/internal/catalog"
	"github.com/mkmonette/dish-nation-suite-sub001/internal/checkout"
	"github.com/mkmonette/dish-nation-suite-sub001/internal/domain"
	"github.com/mkmonette/dish-nation-suite-sub001/internal/logger"
	"github.com/mkmonette/dish-nation-suite-sub001/internal/payment"
	"github.com/mkmonette/dish-nation-suite-sub001/internal/repository"
	"github.com/mkmonette/dish-nation-suite-sub001/internal/tracker"
)

const cartSessionHeader = "X-Cart-Session"

// StorefrontHandler serves the customer facing API of one store.
type StorefrontHandler struct {
	catalog   *catalog.Service
	checkout  *checkout.Service
	carts     cart.Store
	orders    repository.OrderRepository
	payments  repository.PaymentRepository
	processor *payment.Processor
	timeout   time.Duration
	maxUpload int64
}

func NewStorefrontHandler(
	catalog *catalog.Service,
	checkout *checkout.Service,
	carts cart.Store,
	store *repository.Store,
	processor *payment.Processor,
	timeout time.Duration,
	maxUpload int64,
) *StorefrontHandler {
	return &StorefrontHandler{
		catalog:   catalog,
		checkout:  checkout,
		carts:     carts,
		orders:    store.Orders,
		payments:  store.Payments,
		processor: processor,
		timeout:   timeout,
		maxUpload: maxUpload,
	}
}

type CartLineDTO struct {
	Index      int      `json:"index"`
	MenuItemID string   `json:"menu_item_id"`
	Name       string   `json:"name"`
	Quantity   int      `json:"quantity"`
	Variation  string   `json:"variation,omitempty"`
	AddOns     []string `json:"add_ons,omitempty"`
	UnitPrice  float64  `json:"unit_price"`
	LineTotal  float64  `json:"line_total"`
}

type CartResponseDTO struct {
	SessionID string        `json:"session_id"`
	Lines     []CartLineDTO `json:"lines"`
	Total     float64       `json:"total"`
}

type OrderResponseDTO struct {
	*domain.Order
	HasProof bool           `json:"has_proof"`
	Steps    []tracker.Step `json:"steps"`
}

type RetryResponseDTO struct {
	OrderID    string `json:"order_id"`
	PaymentURL string `json:"payment_url"`
}

func (h *StorefrontHandler) Menu(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	items, err := h.catalog.Menu(ctx, chi.URLParam(r, "vendor"))
	if err != nil {
		logger.FromContext(ctx).WithError(err).Error("failed to load menu")
		respondInternal(w)
		return
	}
	respondJSON(w, http.StatusOK, items)
}

func (h *StorefrontHandler) PaymentOptions(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	options, err := h.checkout.PaymentOptions(ctx, chi.URLParam(r, "vendor"))
	if errors.Is(err, checkout.ErrVendorNotFound) {
		respondError(w, http.StatusNotFound, "not_found", err.Error())
		return
	}
	if err != nil {
		logger.FromContext(ctx).WithError(err).Error("failed to resolve payment options")
		respondInternal(w)
		return
	}
	respondJSON(w, http.StatusOK, options)
}

func (h *StorefrontHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	vendorID := chi.URLParam(r, "vendor")
	sess, ok := h.loadCart(ctx, w, vendorID, r.Header.Get(cartSessionHeader))
	if !ok {
		return
	}
	h.respondCart(ctx, w, http.StatusOK, sess)
}

func (h *StorefrontHandler) AddCartLine(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var sel cart.Selection
	if !decodeJSON(w, r, &sel) {
		return
	}
	if sel.MenuItemID == "" {
		respondError(w, http.StatusBadRequest, "invalid_menu_item", "menu_item_id is required")
		return
	}
	if sel.Quantity < 1 || sel.Quantity > cart.MaxLineQuantity {
		respondError(w, http.StatusBadRequest, "invalid_quantity", cart.ErrInvalidQuantity.Error())
		return
	}

	vendorID := chi.URLParam(r, "vendor")
	sess, ok := h.loadCart(ctx, w, vendorID, r.Header.Get(cartSessionHeader))
	if !ok {
		return
	}

	// Price the selection first so invalid items never reach the cart.
	if _, err := h.catalog.Resolve(ctx, vendorID, []cart.Selection{sel}); err != nil {
		h.respondResolveError(ctx, w, err)
		return
	}
	if err := sess.Add(sel); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_quantity", err.Error())
		return
	}
	if !h.saveCart(ctx, w, sess) {
		return
	}
	h.respondCart(ctx, w, http.StatusCreated, sess)
}

func (h *StorefrontHandler) RemoveCartLine(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_index", "index must be an integer")
		return
	}

	vendorID := chi.URLParam(r, "vendor")
	sess, ok := h.loadCart(ctx, w, vendorID, r.Header.Get(cartSessionHeader))
	if !ok {
		return
	}
	if err := sess.Remove(index); err != nil {
		respondError(w, http.StatusNotFound, "not_found", err.Error())
		return
	}
	if !h.saveCart(ctx, w, sess) {
		return
	}
	h.respondCart(ctx, w, http.StatusOK, sess)
}

func (h *StorefrontHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	sessionID := r.Header.Get(cartSessionHeader)
	if sessionID != "" {
		if err := h.carts.Delete(ctx, chi.URLParam(r, "vendor"), sessionID); err != nil {
			logger.FromContext(ctx).WithError(err).Error("failed to clear cart")
			respondInternal(w)
			return
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

// Checkout accepts either a multipart form with an optional "proof" file or
// a JSON form carrying the proof as a data URL.
func (h *StorefrontHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	sessionID := r.Header.Get(cartSessionHeader)
	if sessionID == "" {
		respondError(w, http.StatusBadRequest, "missing_cart_session", cartSessionHeader+" header is required")
		return
	}

	form, upload, ok := h.parseCheckoutForm(w, r)
	if !ok {
		return
	}

	payload, err := checkout.BuildPayload(form, upload)
	if err != nil {
		var verr *checkout.ValidationError
		if errors.As(err, &verr) {
			respondJSON(w, http.StatusUnprocessableEntity, checkout.Result{
				ErrorKind: domain.ErrorKindValidation,
				Field:     verr.Field,
				Message:   verr.Message,
			})
			return
		}
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	res := h.checkout.SubmitCart(ctx, chi.URLParam(r, "vendor"), sessionID, payload)
	if res.OK {
		respondJSON(w, http.StatusCreated, res)
		return
	}
	respondJSON(w, statusFor(res.ErrorKind), res)
}

func (h *StorefrontHandler) parseCheckoutForm(w http.ResponseWriter, r *http.Request) (checkout.Form, *checkout.Attachment, bool) {
	var form checkout.Form
	if !strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
		return form, nil, decodeJSON(w, r, &form)
	}

	if err := r.ParseMultipartForm(h.maxUpload); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid multipart form")
		return form, nil, false
	}
	form = checkout.Form{
		CustomerName:          r.FormValue("customer_name"),
		Phone:                 r.FormValue("phone"),
		Address:               r.FormValue("address"),
		OrderType:             domain.OrderType(r.FormValue("order_type")),
		PaymentMethod:         r.FormValue("payment_method"),
		SelectedPaymentMethod: r.FormValue("selected_payment_method"),
		PaymentProof:          r.FormValue("payment_proof"),
		Notes:                 r.FormValue("notes"),
	}

	file, header, err := r.FormFile("proof")
	if errors.Is(err, http.ErrMissingFile) {
		return form, nil, true
	}
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid proof upload")
		return form, nil, false
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, checkout.MaxProofSize+1))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid proof upload")
		return form, nil, false
	}
	att, err := checkout.NewAttachment(header.Filename, data)
	if err != nil {
		respondJSON(w, http.StatusUnprocessableEntity, checkout.Result{
			ErrorKind: domain.ErrorKindValidation,
			Field:     "payment_proof",
			Message:   err.Error(),
		})
		return form, nil, false
	}
	return form, att, true
}

func (h *StorefrontHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	order, ok := h.loadOrder(ctx, w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, OrderResponseDTO{
		Order:    order,
		HasProof: order.HasProof(),
		Steps:    tracker.Steps(order.OrderType, order.Status),
	})
}

func (h *StorefrontHandler) ListOrderPayments(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	order, ok := h.loadOrder(ctx, w, r)
	if !ok {
		return
	}
	payments, err := h.payments.ListByOrder(ctx, order.VendorID, order.ID)
	if err != nil {
		logger.FromContext(ctx).WithError(err).Error("failed to list payments")
		respondInternal(w)
		return
	}
	respondJSON(w, http.StatusOK, payments)
}

// ProcessPayment is the gateway return address. It always answers with a
// redirect; the processing delay is bound to the request context so a
// client disconnect aborts the attempt.
func (h *StorefrontHandler) ProcessPayment(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	res := h.processor.Process(r.Context(), payment.Request{
		VendorID:  chi.URLParam(r, "vendor"),
		Gateway:   q.Get("gateway"),
		SessionID: q.Get("session_id"),
		OrderID:   q.Get("order_id"),
	})
	if errors.Is(res.Err, payment.ErrProcessingAborted) {
		respondError(w, http.StatusServiceUnavailable, "aborted", res.Message)
		return
	}
	http.Redirect(w, r, res.RedirectURL, http.StatusSeeOther)
}

func (h *StorefrontHandler) RetryPayment(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	vendorID := chi.URLParam(r, "vendor")
	order, err := h.processor.NewSession(ctx, vendorID, chi.URLParam(r, "order_id"))
	switch {
	case errors.Is(err, payment.ErrOrderNotFound):
		respondError(w, http.StatusNotFound, "not_found", err.Error())
		return
	case errors.Is(err, payment.ErrNotAwaitingPayment):
		respondError(w, http.StatusConflict, "not_awaiting_payment", err.Error())
		return
	case err != nil:
		logger.FromContext(ctx).WithError(err).Error("failed to issue payment session")
		respondInternal(w)
		return
	}
	respondJSON(w, http.StatusOK, RetryResponseDTO{
		OrderID:    order.ID,
		PaymentURL: payment.ProcessURL(vendorID, order.PaymentMethod, order.PaymentSessionID, order.ID),
	})
}

func (h *StorefrontHandler) loadOrder(ctx context.Context, w http.ResponseWriter, r *http.Request) (*domain.Order, bool) {
	order, err := h.orders.Get(ctx, repository.Key{VendorID: chi.URLParam(r, "vendor"), ID: chi.URLParam(r, "order_id")})
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

// loadCart returns the stored session or a fresh one when the header is
// missing or the session expired.
func (h *StorefrontHandler) loadCart(ctx context.Context, w http.ResponseWriter, vendorID, sessionID string) (*cart.Session, bool) {
	if sessionID == "" {
		return &cart.Session{ID: uuid.NewString(), VendorID: vendorID}, true
	}
	sess, err := h.carts.Get(ctx, vendorID, sessionID)
	if errors.Is(err, cart.ErrCartNotFound) {
		return &cart.Session{ID: sessionID, VendorID: vendorID}, true
	}
	if err != nil {
		logger.FromContext(ctx).WithError(err).Error("failed to load cart")
		respondInternal(w)
		return nil, false
	}
	return sess, true
}

func (h *StorefrontHandler) saveCart(ctx context.Context, w http.ResponseWriter, sess *cart.Session) bool {
	sess.UpdatedAt = time.Now().UTC()
	if err := h.carts.Save(ctx, sess); err != nil {
		logger.FromContext(ctx).WithError(err).Error("failed to save cart")
		respondInternal(w)
		return false
	}
	return true
}

func (h *StorefrontHandler) respondCart(ctx context.Context, w http.ResponseWriter, status int, sess *cart.Session) {
	lines, err := h.catalog.Resolve(ctx, sess.VendorID, sess.Lines)
	if err != nil {
		h.respondResolveError(ctx, w, err)
		return
	}

	resp := CartResponseDTO{SessionID: sess.ID, Lines: make([]CartLineDTO, 0, len(lines)), Total: cart.Total(lines)}
	for i, l := range lines {
		item := l.Snapshot()
		resp.Lines = append(resp.Lines, CartLineDTO{
			Index:      i,
			MenuItemID: item.MenuItemID,
			Name:       item.Name,
			Quantity:   item.Quantity,
			Variation:  item.Variation,
			AddOns:     item.AddOns,
			UnitPrice:  l.UnitPrice(),
			LineTotal:  l.LineTotal(),
		})
	}
	w.Header().Set(cartSessionHeader, sess.ID)
	respondJSON(w, status, resp)
}

func (h *StorefrontHandler) respondResolveError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, catalog.ErrItemNotFound):
		respondError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, catalog.ErrItemUnavailable), errors.Is(err, catalog.ErrUnknownVariation),
		errors.Is(err, catalog.ErrUnknownAddOn), errors.Is(err, cart.ErrInvalidQuantity):
		respondError(w, http.StatusUnprocessableEntity, "invalid_selection", err.Error())
	default:
		logger.FromContext(ctx).WithError(err).Error("failed to price cart")
		respondInternal(w)
	}
}
