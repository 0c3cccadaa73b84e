package order

import (
	"fmt"

	"github.com/xenking/docdesk/internal/domain/money"
)

// FineSurcharge is the flat administrative surcharge added per ordinary
// (non-lost-report) fine, matching the fee policy printed on receipts.
const FineSurcharge money.Money = 10_00

// DefaultOverpayTolerance is the slack allowed between paid and final
// amounts before a breakdown is flagged for manual reconciliation.
const DefaultOverpayTolerance money.Money = 0

// InvalidQuantityError indicates an order with a non-positive quantity.
type InvalidQuantityError struct {
	Quantity int
}

func (e *InvalidQuantityError) Error() string {
	return fmt.Sprintf("quantity must be at least 1, got %d", e.Quantity)
}

// PriceBreakdown is the full pricing decomposition of an order. Field
// names and integer minor-currency units are a compatibility contract
// with the receipt and admin renderers, which read them verbatim.
type PriceBreakdown struct {
	Subtotal           money.Money `json:"subtotal"`
	FinesSurcharge     money.Money `json:"finesSurcharge"`
	OtherFeesTotal     money.Money `json:"otherFeesTotal"`
	DeliveryFeeApplied money.Money `json:"deliveryFeeApplied"`
	GrossTotal         money.Money `json:"grossTotal"`
	DiscountTotal      money.Money `json:"discountTotal"`
	FinalTotal         money.Money `json:"finalTotal"`
	PaidAmount         money.Money `json:"paidAmount"`
	RemainingAmount    money.Money `json:"remainingAmount"`
	// OverpaidBy and ReviewRequired flag paid > final beyond the pricer's
	// tolerance. A consistency warning for admin reconciliation, never a
	// blocking error: historical orders must still recompute.
	OverpaidBy     money.Money `json:"overpaidBy,omitempty"`
	ReviewRequired bool        `json:"reviewRequired,omitempty"`
}

// Pricer computes price breakdowns. The zero value uses
// DefaultOverpayTolerance.
type Pricer struct {
	// OverpayTolerance is how far PaidAmount may exceed FinalTotal before
	// the breakdown is flagged for review.
	OverpayTolerance money.Money
}

// ComputeBreakdown derives the complete price breakdown from the order's
// current snapshot. It is deterministic and idempotent: no clock, no
// randomness, no hidden state — promo validity was already settled when
// the discount was stored on the order.
//
// The pipeline is fixed, each step feeding the next:
//
//	subtotal   = basePrice * quantity
//	surcharge  = Σ ordinary fines + FineSurcharge per ordinary fine
//	other fees = otherFees + Σ lost-report fine amounts
//	delivery   = deliveryFee when home delivery, else 0
//	gross      = subtotal + surcharge + other fees + delivery
//	discount   = manual discount + promo discount
//	final      = max(0, gross - discount)
//	remaining  = max(0, final - paid)
func (p Pricer) ComputeBreakdown(o *Order) (PriceBreakdown, error) {
	if o.Quantity < 1 {
		return PriceBreakdown{}, &InvalidQuantityError{Quantity: o.Quantity}
	}

	subtotal := o.Variant.BasePrice.Mul(o.Quantity)

	var finesSurcharge, lostReportFees money.Money
	for _, fine := range o.Fines {
		if fine.LostReport {
			lostReportFees = lostReportFees.Add(fine.Amount)
			continue
		}
		finesSurcharge = finesSurcharge.Add(fine.Amount).Add(FineSurcharge)
	}

	otherFeesTotal := o.OtherFees.Add(lostReportFees)

	var deliveryFee money.Money
	if o.DeliveryType == DeliveryHome {
		deliveryFee = o.DeliveryFee
	}

	gross := subtotal.Add(finesSurcharge).Add(otherFeesTotal).Add(deliveryFee)

	discountTotal := o.Discount
	if o.HasPromo() {
		discountTotal = discountTotal.Add(o.DiscountAmount)
	}

	final := gross.SubFloor(discountTotal)
	remaining := final.SubFloor(o.PaidAmount)

	b := PriceBreakdown{
		Subtotal:           subtotal,
		FinesSurcharge:     finesSurcharge,
		OtherFeesTotal:     otherFeesTotal,
		DeliveryFeeApplied: deliveryFee,
		GrossTotal:         gross,
		DiscountTotal:      discountTotal,
		FinalTotal:         final,
		PaidAmount:         o.PaidAmount,
		RemainingAmount:    remaining,
	}

	if overpaid := o.PaidAmount.SubFloor(final); overpaid > p.OverpayTolerance {
		b.OverpaidBy = overpaid
		b.ReviewRequired = true
	}

	return b, nil
}
