package order

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xenking/docdesk/internal/domain/money"
	"github.com/xenking/docdesk/internal/domain/promo"
)

// Sentinel errors for lifecycle operations.
var (
	ErrVariantNotFound      = errors.New("service variant not found")
	ErrOrderNotFound        = errors.New("order not found")
	ErrOrderClosed          = errors.New("order is in a terminal state")
	ErrPromoAlreadyApplied  = errors.New("a promo code is already applied")
	ErrNoPromoApplied       = errors.New("no promo code applied")
	ErrInvalidDeliveryType  = errors.New("invalid delivery type")
	ErrMissingAddress       = errors.New("home delivery requires an address")
	ErrInvalidPaymentAmount = errors.New("payment amount must be positive")
	// ErrPromoUsageConflict means another checkout consumed the promo's
	// usage slot between validation and payment confirmation. The caller
	// reloads the order and retries.
	ErrPromoUsageConflict = errors.New("promo usage slot taken concurrently")
)

// OverpaymentError indicates a payment that would push the paid amount
// past the final total beyond the configured tolerance.
type OverpaymentError struct {
	Amount     money.Money
	Remaining  money.Money
	OverpaidBy money.Money
}

func (e *OverpaymentError) Error() string {
	return fmt.Sprintf("payment of %s exceeds remaining %s by %s",
		e.Amount, e.Remaining, e.OverpaidBy)
}

// CreateOrderRequest holds the checkout input for a new order.
type CreateOrderRequest struct {
	VariantID    string
	Quantity     int
	DeliveryType DeliveryType
	// DeliveryFee is the catalog's current home-delivery price; ignored
	// for office pickup.
	DeliveryFee money.Money
	Customer    CustomerInfo
}

// Service orchestrates pricing and the status state machine against
// persisted orders. It exposes the operations behind checkout, admin
// order editing, and payment confirmation.
type Service struct {
	orders   Repository
	variants VariantRepository
	promos   PromoRepository
	events   EventSink
	pricer   Pricer
	now      func() time.Time
}

// NewService creates a lifecycle Service with the required collaborators.
func NewService(
	orders Repository,
	variants VariantRepository,
	promos PromoRepository,
	events EventSink,
	pricer Pricer,
) *Service {
	return &Service{
		orders:   orders,
		variants: variants,
		promos:   promos,
		events:   events,
		pricer:   pricer,
		now:      time.Now,
	}
}

// Breakdown recomputes the price breakdown for the order's current
// snapshot. Read-only; receipts and admin views render its fields verbatim.
func (s *Service) Breakdown(o *Order) (PriceBreakdown, error) {
	return s.pricer.ComputeBreakdown(o)
}

// CreateOrder validates the checkout request, seeds a pending order with
// nothing paid, computes its initial breakdown, and persists it.
func (s *Service) CreateOrder(ctx context.Context, req CreateOrderRequest) (*Order, error) {
	if req.Quantity < 1 {
		return nil, &InvalidQuantityError{Quantity: req.Quantity}
	}
	switch req.DeliveryType {
	case DeliveryOffice:
	case DeliveryHome:
		if req.Customer.Address == "" {
			return nil, ErrMissingAddress
		}
	default:
		return nil, ErrInvalidDeliveryType
	}

	variant, err := s.variants.Get(ctx, req.VariantID)
	if err != nil {
		return nil, errors.Wrap(err, "get variant")
	}

	o := &Order{
		ID:           uuid.New().String(),
		Variant:      *variant,
		Quantity:     req.Quantity,
		Customer:     req.Customer,
		DeliveryType: req.DeliveryType,
		DeliveryFee:  req.DeliveryFee,
		Status:       StatusPending,
		CreatedAt:    s.now(),
	}

	if err := s.recompute(ctx, o); err != nil {
		return nil, err
	}

	if err := s.orders.Create(ctx, o); err != nil {
		return nil, errors.Wrap(err, "create order")
	}

	return o, nil
}

// GetOrder loads a single order.
func (s *Service) GetOrder(ctx context.Context, id string) (*Order, error) {
	o, err := s.orders.Get(ctx, id)
	if err != nil {
		return nil, errors.Wrap(err, "get order")
	}
	return o, nil
}

// ApplyPromoCode validates the code against the order subtotal at the
// given instant, stores the promo and its discount on the order, and
// recomputes totals. One promo per order; usage is not consumed here but
// at payment confirmation.
func (s *Service) ApplyPromoCode(ctx context.Context, orderID, code string, now time.Time) (*Order, error) {
	o, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return nil, errors.Wrap(err, "get order")
	}
	if o.Status.IsTerminal() {
		return nil, ErrOrderClosed
	}
	if o.HasPromo() {
		return nil, ErrPromoAlreadyApplied
	}

	rule, err := s.promos.FindByCode(ctx, code)
	if err != nil {
		return nil, errors.Wrap(err, "find promo")
	}

	subtotal := o.Variant.BasePrice.Mul(o.Quantity)
	applied, err := promo.Validate(rule, subtotal, now)
	if err != nil {
		return nil, err
	}

	o.PromoCode = applied.Rule.Code
	o.PromoID = applied.Rule.ID
	o.DiscountAmount = applied.Discount

	if err := s.recompute(ctx, o); err != nil {
		return nil, err
	}
	if err := s.orders.Update(ctx, o); err != nil {
		return nil, errors.Wrap(err, "update order")
	}

	return o, nil
}

// RemovePromoCode clears the promo fields and recomputes totals. Usage
// counters are never decremented: once consumed, a slot stays consumed,
// so removal cannot enable re-use races.
func (s *Service) RemovePromoCode(ctx context.Context, orderID string) (*Order, error) {
	o, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return nil, errors.Wrap(err, "get order")
	}
	if o.Status.IsTerminal() {
		return nil, ErrOrderClosed
	}
	if !o.HasPromo() {
		return nil, ErrNoPromoApplied
	}

	o.PromoCode = ""
	o.PromoID = ""
	o.DiscountAmount = 0

	if err := s.recompute(ctx, o); err != nil {
		return nil, err
	}
	if err := s.orders.Update(ctx, o); err != nil {
		return nil, errors.Wrap(err, "update order")
	}

	return o, nil
}

// UpdateCharges replaces the staff-editable pricing inputs — fines, other
// fees, and the manual discount — and recomputes totals. The per-fine
// surcharge is re-derived from the new fine list, so edited fines are
// surcharged the same way as checkout-time ones.
func (s *Service) UpdateCharges(ctx context.Context, orderID string, fines []Fine, otherFees, discount money.Money) (*Order, error) {
	if otherFees.IsNegative() || discount.IsNegative() {
		return nil, errors.New("fees and discount must not be negative")
	}
	for _, f := range fines {
		if f.Amount.IsNegative() {
			return nil, errors.Errorf("fine %q must not be negative", f.Name)
		}
	}

	o, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return nil, errors.Wrap(err, "get order")
	}
	if o.Status.IsTerminal() {
		return nil, ErrOrderClosed
	}

	o.Fines = fines
	o.OtherFees = otherFees
	o.Discount = discount

	if err := s.recompute(ctx, o); err != nil {
		return nil, err
	}
	if err := s.orders.Update(ctx, o); err != nil {
		return nil, errors.Wrap(err, "update order")
	}

	return o, nil
}

// RecordPayment applies a partial payment to the order and recomputes the
// remaining amount. The first payment that settles the order consumes the
// applied promo's usage slot through the repository's compare-and-swap.
func (s *Service) RecordPayment(ctx context.Context, orderID string, amount money.Money) (*Order, error) {
	if amount <= 0 {
		return nil, ErrInvalidPaymentAmount
	}

	o, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return nil, errors.Wrap(err, "get order")
	}
	if o.Status.IsTerminal() {
		return nil, ErrOrderClosed
	}

	paid := o.PaidAmount.Add(amount)

	breakdown, err := s.pricer.ComputeBreakdown(o)
	if err != nil {
		return nil, err
	}
	if overpaid := paid.SubFloor(breakdown.FinalTotal); overpaid > s.pricer.OverpayTolerance {
		return nil, &OverpaymentError{
			Amount:     amount,
			Remaining:  breakdown.RemainingAmount,
			OverpaidBy: overpaid,
		}
	}

	o.PaidAmount = paid
	if err := s.recompute(ctx, o); err != nil {
		return nil, err
	}

	if o.RemainingAmount == 0 && o.HasPromo() && !o.PromoUsageRecorded {
		if err := s.consumePromoUsage(ctx, o); err != nil {
			return nil, err
		}
	}

	if err := s.orders.Update(ctx, o); err != nil {
		return nil, errors.Wrap(err, "update order")
	}

	s.emitPaymentRecorded(ctx, PaymentRecorded{
		OrderID:   o.ID,
		Amount:    amount,
		Remaining: o.RemainingAmount,
	})

	return o, nil
}

// ChangeStatus moves the order along the status state machine, persists
// the result, and emits the StatusChanged event.
func (s *Service) ChangeStatus(ctx context.Context, orderID string, target Status) (*Order, error) {
	o, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return nil, errors.Wrap(err, "get order")
	}

	event, err := Transition(o, target, s.now())
	if err != nil {
		return nil, err
	}

	if err := s.orders.Update(ctx, o); err != nil {
		return nil, errors.Wrap(err, "update order")
	}

	if sinkErr := s.events.StatusChanged(ctx, event); sinkErr != nil {
		zctx.From(ctx).Error("emit status changed",
			zap.String("order_id", o.ID),
			zap.Error(sinkErr),
		)
	}

	return o, nil
}

// consumePromoUsage claims the order's promo usage slot via the
// repository's compare-and-swap. The limit is re-checked against the
// fresh counter first: concurrent checkouts may have exhausted the code
// since it was applied, and the CAS alone only detects counter movement,
// not the ceiling. A conflict means a concurrent checkout won the slot
// under the same expected counter.
func (s *Service) consumePromoUsage(ctx context.Context, o *Order) error {
	rule, err := s.promos.FindByCode(ctx, o.PromoCode)
	if err != nil {
		return errors.Wrap(err, "find promo for usage")
	}

	if rule.UsageLimit > 0 && rule.CurrentUsage >= rule.UsageLimit {
		return promo.ErrUsageExceeded
	}

	ok, err := s.promos.RecordUsage(ctx, rule.ID, rule.CurrentUsage)
	if err != nil {
		return errors.Wrap(err, "record promo usage")
	}
	if !ok {
		return ErrPromoUsageConflict
	}

	o.PromoUsageRecorded = true
	return nil
}

// recompute refreshes the order's remaining amount from a fresh breakdown
// and logs a consistency warning when the breakdown needs manual review.
func (s *Service) recompute(ctx context.Context, o *Order) error {
	breakdown, err := s.pricer.ComputeBreakdown(o)
	if err != nil {
		return err
	}

	o.RemainingAmount = breakdown.RemainingAmount

	if breakdown.ReviewRequired {
		zctx.From(ctx).Warn("paid amount exceeds final total",
			zap.String("order_id", o.ID),
			zap.Int64("overpaid_by", int64(breakdown.OverpaidBy)),
		)
	}

	return nil
}

func (s *Service) emitPaymentRecorded(ctx context.Context, event PaymentRecorded) {
	if err := s.events.PaymentRecorded(ctx, event); err != nil {
		zctx.From(ctx).Error("emit payment recorded",
			zap.String("order_id", event.OrderID),
			zap.Error(err),
		)
	}
}
