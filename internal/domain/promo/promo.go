package promo

import (
	"context"
	"time"

	"github.com/go-faster/errors"

	"github.com/xenking/docdesk/internal/domain/money"
)

// Type enumerates the supported promo discount strategies.
type Type string

const (
	// TypePercent applies a percentage-based discount to the order subtotal.
	TypePercent Type = "percent"
	// TypeFixed applies a fixed monetary discount capped at the subtotal.
	TypeFixed Type = "fixed"
)

var (
	// ErrNotFound is returned when a promo code does not exist.
	ErrNotFound = errors.New("promo code not found")
	// ErrInactive is returned when a promo code has been deactivated.
	ErrInactive = errors.New("promo code inactive")
	// ErrExpired is returned when a promo code is outside its valid time window.
	ErrExpired = errors.New("promo code expired")
	// ErrUsageExceeded is returned when a promo code has exhausted its allowed uses.
	ErrUsageExceeded = errors.New("promo code usage limit reached")
	// ErrBelowMinimum is returned when the order subtotal is below the
	// promo code's minimum order amount.
	ErrBelowMinimum = errors.New("order subtotal below promo minimum")
)

// Rule defines a promo code's discount behaviour and eligibility constraints.
// Usage is mutated only through Repository.RecordUsage; validation reads the
// snapshot it is given and never writes.
type Rule struct {
	ID             string
	Code           string
	Type           Type
	Value          int64
	MinOrderAmount money.Money
	// MaxDiscount caps percent discounts when positive. Zero means uncapped.
	MaxDiscount  money.Money
	StartsAt     time.Time
	EndsAt       time.Time
	UsageLimit   int
	CurrentUsage int
	Active       bool
}

// Applied holds the outcome of a successful validation: the rule that
// matched and the discount it grants against the validated subtotal.
type Applied struct {
	Rule     Rule
	Discount money.Money
}

// Repository provides lookup and usage accounting for promo rules.
//
// RecordUsage is a compare-and-swap: it increments the usage counter only
// when the stored counter still equals expectedUsage, and reports false on
// conflict. Callers re-load and re-validate after a conflict. This keeps
// limited-use codes from overselling under concurrent checkouts.
type Repository interface {
	FindByCode(ctx context.Context, code string) (*Rule, error)
	RecordUsage(ctx context.Context, promoID string, expectedUsage int) (bool, error)
}
