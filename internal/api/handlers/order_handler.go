package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/commerce/internal/api/middleware"
	"github.com/vladislavdragonenkov/commerce/internal/authz"
	"github.com/vladislavdragonenkov/commerce/internal/domain"
	"github.com/vladislavdragonenkov/commerce/internal/service/orders"
)

// permittedOrderAttributes — атрибуты, которые PATCH /orders/{id} принимает
// от клиента. Всё остальное молча отбрасывается до передачи в оркестратор;
// валюта проходит фильтр и отклоняется уже бизнес-правилом неизменности.
var permittedOrderAttributes = map[string]struct{}{
	"email":                {},
	"special_instructions": {},
	"delivery_method":      {},
	"ship_address":         {},
	"currency":             {},
}

// OrderHandler обслуживает HTTP-операции жизненного цикла заказа.
type OrderHandler struct {
	orchestrator *orders.Orchestrator
	logger       *log.Entry
}

// NewOrderHandler создаёт HTTP-обработчик заказов.
func NewOrderHandler(orchestrator *orders.Orchestrator, logger *log.Entry) *OrderHandler {
	if logger == nil {
		logger = log.New().WithField("component", "http")
	}
	return &OrderHandler{orchestrator: orchestrator, logger: logger}
}

type createOrderRequest struct {
	StoreID  string `json:"store_id"`
	UserID   string `json:"user_id"`
	Currency string `json:"currency"`
}

// Create — POST /api/platform/orders.
func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if !decodeBody(w, r, &req) {
		return
	}

	order, err := h.orchestrator.Create(r.Context(), middleware.CallerFrom(r.Context()), orders.CreateParams{
		StoreID:  req.StoreID,
		UserID:   req.UserID,
		Currency: req.Currency,
	})
	if err != nil {
		writeFault(w, err)
		return
	}
	writeOrder(w, http.StatusCreated, order)
}

type addItemRequest struct {
	VariantID string            `json:"variant_id"`
	Quantity  any               `json:"quantity"`
	Options   map[string]string `json:"options"`
}

// AddItem — POST /api/platform/orders/{order_id}/add_item.
func (h *OrderHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req addItemRequest
	if !decodeBody(w, r, &req) {
		return
	}

	order, err := h.orchestrator.AddItem(r.Context(), middleware.CallerFrom(r.Context()), orders.AddItemParams{
		OrderID:   chi.URLParam(r, "order_id"),
		VariantID: req.VariantID,
		Quantity:  req.Quantity,
		Options:   req.Options,
	})
	if err != nil {
		writeFault(w, err)
		return
	}
	writeOrder(w, http.StatusOK, order)
}

// RemoveLineItem — DELETE /api/platform/orders/{order_id}/line_items/{line_item_id}.
func (h *OrderHandler) RemoveLineItem(w http.ResponseWriter, r *http.Request) {
	order, err := h.orchestrator.RemoveLineItem(
		r.Context(), middleware.CallerFrom(r.Context()),
		chi.URLParam(r, "order_id"), chi.URLParam(r, "line_item_id"),
	)
	if err != nil {
		writeFault(w, err)
		return
	}
	writeOrder(w, http.StatusOK, order)
}

type setQuantityRequest struct {
	LineItemID string `json:"line_item_id"`
	Quantity   any    `json:"quantity"`
}

// SetQuantity — PATCH /api/platform/orders/{order_id}/set_quantity.
func (h *OrderHandler) SetQuantity(w http.ResponseWriter, r *http.Request) {
	var req setQuantityRequest
	if !decodeBody(w, r, &req) {
		return
	}

	order, err := h.orchestrator.SetQuantity(r.Context(), middleware.CallerFrom(r.Context()), orders.SetQuantityParams{
		OrderID:    chi.URLParam(r, "order_id"),
		LineItemID: req.LineItemID,
		Quantity:   req.Quantity,
	})
	if err != nil {
		writeFault(w, err)
		return
	}
	writeOrder(w, http.StatusOK, order)
}

// Next — PATCH /api/platform/orders/{order_id}/next.
func (h *OrderHandler) Next(w http.ResponseWriter, r *http.Request) {
	h.runTransition(w, r, h.orchestrator.Next)
}

// Advance — PATCH /api/platform/orders/{order_id}/advance.
func (h *OrderHandler) Advance(w http.ResponseWriter, r *http.Request) {
	h.runTransition(w, r, h.orchestrator.Advance)
}

// Complete — PATCH /api/platform/orders/{order_id}/complete.
func (h *OrderHandler) Complete(w http.ResponseWriter, r *http.Request) {
	h.runTransition(w, r, h.orchestrator.Complete)
}

// Approve — PATCH /api/platform/orders/{order_id}/approve.
func (h *OrderHandler) Approve(w http.ResponseWriter, r *http.Request) {
	h.runTransition(w, r, h.orchestrator.Approve)
}

// Empty — PATCH /api/platform/orders/{order_id}/empty.
func (h *OrderHandler) Empty(w http.ResponseWriter, r *http.Request) {
	h.runTransition(w, r, h.orchestrator.Empty)
}

// Update — PATCH /api/platform/orders/{order_id}.
func (h *OrderHandler) Update(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Order map[string]any `json:"order"`
	}
	if !decodeBody(w, r, &body) {
		return
	}

	attributes := make(map[string]any, len(body.Order))
	for name, value := range body.Order {
		if _, ok := permittedOrderAttributes[name]; ok {
			attributes[name] = value
		}
	}

	order, err := h.orchestrator.Update(
		r.Context(), middleware.CallerFrom(r.Context()),
		chi.URLParam(r, "order_id"), attributes,
	)
	if err != nil {
		writeFault(w, err)
		return
	}
	writeOrder(w, http.StatusOK, order)
}

type couponRequest struct {
	CouponCode  string   `json:"coupon_code"`
	CouponCodes []string `json:"coupon_codes"`
}

// ApplyCouponCode — PATCH /api/platform/orders/{order_id}/apply_coupon_code.
func (h *OrderHandler) ApplyCouponCode(w http.ResponseWriter, r *http.Request) {
	var req couponRequest
	if !decodeBody(w, r, &req) {
		return
	}

	order, err := h.orchestrator.ApplyCouponCode(
		r.Context(), middleware.CallerFrom(r.Context()),
		chi.URLParam(r, "order_id"), req.CouponCode,
	)
	if err != nil {
		writeFault(w, err)
		return
	}
	writeOrder(w, http.StatusOK, order)
}

// RemoveCouponCode — DELETE /api/platform/orders/{order_id}/remove_coupon_code.
// Тело опционально: без него снимаются все применённые купоны.
func (h *OrderHandler) RemoveCouponCode(w http.ResponseWriter, r *http.Request) {
	var req couponRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeBadRequest(w, "malformed request body")
		return
	}

	codes := req.CouponCodes
	if len(codes) == 0 && req.CouponCode != "" {
		codes = []string{req.CouponCode}
	}

	order, err := h.orchestrator.RemoveCouponCode(
		r.Context(), middleware.CallerFrom(r.Context()),
		chi.URLParam(r, "order_id"), codes,
	)
	if err != nil {
		writeFault(w, err)
		return
	}
	writeOrder(w, http.StatusOK, order)
}

// Show — GET /api/platform/orders/{order_id}.
func (h *OrderHandler) Show(w http.ResponseWriter, r *http.Request) {
	order, err := h.orchestrator.Get(
		r.Context(), middleware.CallerFrom(r.Context()),
		chi.URLParam(r, "order_id"),
	)
	if err != nil {
		writeFault(w, err)
		return
	}
	writeOrder(w, http.StatusOK, order)
}

func (h *OrderHandler) runTransition(
	w http.ResponseWriter,
	r *http.Request,
	op func(ctx context.Context, caller authz.Caller, orderID string) (domain.Order, error),
) {
	order, err := op(r.Context(), middleware.CallerFrom(r.Context()), chi.URLParam(r, "order_id"))
	if err != nil {
		writeFault(w, err)
		return
	}
	writeOrder(w, http.StatusOK, order)
}

// decodeBody читает JSON-тело запроса; некорректный JSON — это 400,
// а не 422: тело даже не дошло до валидации параметров.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		writeBadRequest(w, "malformed request body")
		return false
	}
	return true
}
