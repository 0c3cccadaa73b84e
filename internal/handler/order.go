package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/xenking/docdesk/internal/domain/money"
	"github.com/xenking/docdesk/internal/domain/order"
)

type createOrderRequest struct {
	VariantID    string       `json:"variantId"`
	Quantity     int          `json:"quantity"`
	DeliveryType string       `json:"deliveryType"`
	DeliveryFee  int64        `json:"deliveryFee"`
	Customer     customerInfo `json:"customer"`
}

type customerInfo struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Address string `json:"address,omitempty"`
}

type fineView struct {
	Name       string `json:"name"`
	Amount     int64  `json:"amount"`
	LostReport bool   `json:"lostReport"`
}

// orderView is the API representation of an order together with its
// current price breakdown. Breakdown fields and their integer minor-unit
// values are read verbatim by the receipt and admin renderers.
type orderView struct {
	ID           string               `json:"id"`
	VariantID    string               `json:"variantId"`
	VariantName  string               `json:"variantName"`
	Quantity     int                  `json:"quantity"`
	DeliveryType string               `json:"deliveryType"`
	Customer     customerInfo         `json:"customer"`
	Fines        []fineView           `json:"fines"`
	PromoCode    string               `json:"promoCode,omitempty"`
	Status       string               `json:"status"`
	CreatedAt    time.Time            `json:"createdAt"`
	CompletedAt  *time.Time           `json:"completedAt,omitempty"`
	Breakdown    order.PriceBreakdown `json:"breakdown"`
}

func (h *Handler) orderToView(o *order.Order) (orderView, error) {
	breakdown, err := h.service.Breakdown(o)
	if err != nil {
		return orderView{}, err
	}

	fines := make([]fineView, len(o.Fines))
	for i, f := range o.Fines {
		fines[i] = fineView{Name: f.Name, Amount: int64(f.Amount), LostReport: f.LostReport}
	}

	return orderView{
		ID:           o.ID,
		VariantID:    o.Variant.ID,
		VariantName:  o.Variant.Name,
		Quantity:     o.Quantity,
		DeliveryType: string(o.DeliveryType),
		Customer:     customerInfo(o.Customer),
		Fines:        fines,
		PromoCode:    o.PromoCode,
		Status:       string(o.Status),
		CreatedAt:    o.CreatedAt,
		CompletedAt:  o.CompletedAt,
		Breakdown:    breakdown,
	}, nil
}

func (h *Handler) respondOrder(w http.ResponseWriter, r *http.Request, status int, o *order.Order) {
	view, err := h.orderToView(o)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondJSON(w, status, view)
}

// CreateOrder handles checkout: seed a pending order for a service variant.
func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	o, err := h.service.CreateOrder(r.Context(), order.CreateOrderRequest{
		VariantID:    req.VariantID,
		Quantity:     req.Quantity,
		DeliveryType: order.DeliveryType(req.DeliveryType),
		DeliveryFee:  money.Money(req.DeliveryFee),
		Customer:     order.CustomerInfo(req.Customer),
	})
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	h.respondOrder(w, r, http.StatusCreated, o)
}

// GetOrder returns an order with its recomputed price breakdown.
func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	o, err := h.service.GetOrder(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	h.respondOrder(w, r, http.StatusOK, o)
}

type applyPromoRequest struct {
	Code string `json:"code"`
}

// ApplyPromo validates and applies a promo code to the order.
func (h *Handler) ApplyPromo(w http.ResponseWriter, r *http.Request) {
	var req applyPromoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Code == "" {
		respondError(w, http.StatusBadRequest, "promo code required")
		return
	}

	o, err := h.service.ApplyPromoCode(r.Context(), chi.URLParam(r, "id"), req.Code, time.Now())
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	h.respondOrder(w, r, http.StatusOK, o)
}

// RemovePromo clears the order's promo code and restores its totals.
func (h *Handler) RemovePromo(w http.ResponseWriter, r *http.Request) {
	o, err := h.service.RemovePromoCode(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	h.respondOrder(w, r, http.StatusOK, o)
}

type updateChargesRequest struct {
	Fines     []fineView `json:"fines"`
	OtherFees int64      `json:"otherFees"`
	Discount  int64      `json:"discount"`
}

// UpdateCharges replaces the staff-editable fines, fees, and manual discount.
func (h *Handler) UpdateCharges(w http.ResponseWriter, r *http.Request) {
	var req updateChargesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	fines := make([]order.Fine, len(req.Fines))
	for i, f := range req.Fines {
		fines[i] = order.Fine{Name: f.Name, Amount: money.Money(f.Amount), LostReport: f.LostReport}
	}

	o, err := h.service.UpdateCharges(r.Context(), chi.URLParam(r, "id"),
		fines, money.Money(req.OtherFees), money.Money(req.Discount))
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	h.respondOrder(w, r, http.StatusOK, o)
}

type recordPaymentRequest struct {
	Amount int64 `json:"amount"`
}

// RecordPayment applies a partial payment to the order.
func (h *Handler) RecordPayment(w http.ResponseWriter, r *http.Request) {
	var req recordPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	o, err := h.service.RecordPayment(r.Context(), chi.URLParam(r, "id"), money.Money(req.Amount))
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	h.respondOrder(w, r, http.StatusOK, o)
}

type changeStatusRequest struct {
	Status string `json:"status"`
}

// ChangeStatus moves the order along the fulfillment state machine.
func (h *Handler) ChangeStatus(w http.ResponseWriter, r *http.Request) {
	var req changeStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	target, err := order.ParseStatus(req.Status)
	if err != nil {
		respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	o, err := h.service.ChangeStatus(r.Context(), chi.URLParam(r, "id"), target)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	h.respondOrder(w, r, http.StatusOK, o)
}
