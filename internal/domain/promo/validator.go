package promo

import (
	"time"

	"github.com/go-faster/errors"

	"github.com/xenking/docdesk/internal/domain/money"
)

// Validate checks a promo rule against the order subtotal at the given
// instant and computes the discount it grants. It is a pure function: the
// clock is an argument, the rule is never mutated, and usage accounting is
// deferred to Repository.RecordUsage once the order is durably persisted —
// validating twice for a retried request must not burn a usage slot.
//
// Check order: active flag, validity window, usage limit, minimum amount.
func Validate(rule *Rule, subtotal money.Money, now time.Time) (*Applied, error) {
	if !rule.Active {
		return nil, ErrInactive
	}

	if now.Before(rule.StartsAt) || now.After(rule.EndsAt) {
		return nil, ErrExpired
	}

	if rule.UsageLimit > 0 && rule.CurrentUsage >= rule.UsageLimit {
		return nil, ErrUsageExceeded
	}

	if subtotal < rule.MinOrderAmount {
		return nil, ErrBelowMinimum
	}

	discount, err := computeDiscount(rule, subtotal)
	if err != nil {
		return nil, err
	}

	return &Applied{Rule: *rule, Discount: discount}, nil
}

func computeDiscount(rule *Rule, subtotal money.Money) (money.Money, error) {
	switch rule.Type {
	case TypePercent:
		amount := subtotal.PercentOf(rule.Value)
		if rule.MaxDiscount > 0 {
			amount = money.Min(amount, rule.MaxDiscount)
		}
		return amount, nil
	case TypeFixed:
		// A fixed discount never exceeds the subtotal it applies to.
		return money.Min(money.Money(rule.Value), subtotal), nil
	default:
		return money.Zero, errors.Errorf("unsupported promo type: %q", rule.Type)
	}
}
