// Package handler exposes the order lifecycle over a small REST surface.
// Handlers stay thin: decode, delegate to the domain service, map typed
// domain errors to HTTP responses.
package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/docdesk/internal/domain/order"
	"github.com/xenking/docdesk/internal/domain/promo"
)

// Handler serves the order API, delegating all business logic to the
// lifecycle service.
type Handler struct {
	service *order.Service
}

// New constructs a Handler over the lifecycle service.
func New(service *order.Service) *Handler {
	return &Handler{service: service}
}

// Routes mounts the order API on a chi router. The auth middleware guards
// every route: all operations act on customer orders.
func (h *Handler) Routes(auth func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(auth)

	r.Post("/orders", h.CreateOrder)
	r.Get("/orders/{id}", h.GetOrder)
	r.Post("/orders/{id}/promo", h.ApplyPromo)
	r.Delete("/orders/{id}/promo", h.RemovePromo)
	r.Put("/orders/{id}/charges", h.UpdateCharges)
	r.Post("/orders/{id}/payments", h.RecordPayment)
	r.Post("/orders/{id}/status", h.ChangeStatus)

	return r
}

// errorResponse is the JSON error body shared by all endpoints.
type errorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, errorResponse{Code: status, Message: message})
}

// respondDomainError maps typed domain failures to specific HTTP statuses
// so the UI can render a precise user-facing message. Unknown errors are
// logged and masked as 500.
func respondDomainError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, order.ErrOrderNotFound),
		errors.Is(err, order.ErrVariantNotFound):
		respondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, promo.ErrNotFound),
		errors.Is(err, promo.ErrInactive),
		errors.Is(err, promo.ErrExpired),
		errors.Is(err, promo.ErrUsageExceeded),
		errors.Is(err, promo.ErrBelowMinimum),
		errors.Is(err, order.ErrMissingAddress),
		errors.Is(err, order.ErrInvalidDeliveryType),
		errors.Is(err, order.ErrInvalidPaymentAmount),
		errors.Is(err, order.ErrNoPromoApplied):
		respondError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, order.ErrOrderClosed),
		errors.Is(err, order.ErrPromoAlreadyApplied),
		errors.Is(err, order.ErrPromoUsageConflict):
		respondError(w, http.StatusConflict, err.Error())
	default:
		var (
			iqErr  *order.InvalidQuantityError
			invErr *order.InvalidTransitionError
			opErr  *order.OverpaymentError
		)
		switch {
		case errors.As(err, &iqErr):
			respondError(w, http.StatusUnprocessableEntity, err.Error())
		case errors.As(err, &invErr):
			respondError(w, http.StatusConflict, err.Error())
		case errors.As(err, &opErr):
			respondError(w, http.StatusUnprocessableEntity, err.Error())
		default:
			zctx.From(r.Context()).Error("request failed", zap.Error(err))
			respondError(w, http.StatusInternalServerError, "internal error")
		}
	}
}
