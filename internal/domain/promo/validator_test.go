package promo

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/docdesk/internal/domain/money"
)

func TestValidate(t *testing.T) {
	fixedNow := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	pastTime := fixedNow.Add(-24 * time.Hour)
	futureTime := fixedNow.Add(24 * time.Hour)

	base := Rule{
		ID:       "promo-1",
		Code:     "SAVE10",
		Type:     TypePercent,
		Value:    10,
		StartsAt: pastTime,
		EndsAt:   futureTime,
		Active:   true,
	}

	tests := []struct {
		name         string
		mutate       func(r *Rule)
		subtotal     money.Money
		wantDiscount money.Money
		wantErr      error
	}{
		{
			name:         "percent discount within window",
			subtotal:     30000,
			wantDiscount: 3000,
		},
		{
			name: "percent discount clamped to max",
			mutate: func(r *Rule) {
				r.MaxDiscount = 2000
			},
			subtotal:     30000,
			wantDiscount: 2000,
		},
		{
			name: "fixed discount",
			mutate: func(r *Rule) {
				r.Type = TypeFixed
				r.Value = 1000
			},
			subtotal:     20000,
			wantDiscount: 1000,
		},
		{
			name: "fixed discount capped at subtotal",
			mutate: func(r *Rule) {
				r.Type = TypeFixed
				r.Value = 5000
			},
			subtotal:     3000,
			wantDiscount: 3000,
		},
		{
			name: "inactive",
			mutate: func(r *Rule) {
				r.Active = false
			},
			subtotal: 30000,
			wantErr:  ErrInactive,
		},
		{
			name: "not yet started",
			mutate: func(r *Rule) {
				r.StartsAt = futureTime
				r.EndsAt = futureTime.Add(time.Hour)
			},
			subtotal: 30000,
			wantErr:  ErrExpired,
		},
		{
			name: "already ended",
			mutate: func(r *Rule) {
				r.StartsAt = pastTime.Add(-time.Hour)
				r.EndsAt = pastTime
			},
			subtotal: 30000,
			wantErr:  ErrExpired,
		},
		{
			name: "usage limit reached",
			mutate: func(r *Rule) {
				r.UsageLimit = 1
				r.CurrentUsage = 1
			},
			subtotal: 30000,
			wantErr:  ErrUsageExceeded,
		},
		{
			name: "usage under limit succeeds",
			mutate: func(r *Rule) {
				r.UsageLimit = 100
				r.CurrentUsage = 50
			},
			subtotal:     10000,
			wantDiscount: 1000,
		},
		{
			name: "no usage limit ignores counter",
			mutate: func(r *Rule) {
				r.UsageLimit = 0
				r.CurrentUsage = 9999
			},
			subtotal:     10000,
			wantDiscount: 1000,
		},
		{
			name: "below minimum order amount",
			mutate: func(r *Rule) {
				r.MinOrderAmount = 15000
			},
			subtotal: 14999,
			wantErr:  ErrBelowMinimum,
		},
		{
			name: "exactly at minimum succeeds",
			mutate: func(r *Rule) {
				r.MinOrderAmount = 15000
			},
			subtotal:     15000,
			wantDiscount: 1500,
		},
		{
			name: "inactive wins over expired",
			mutate: func(r *Rule) {
				r.Active = false
				r.EndsAt = pastTime
			},
			subtotal: 30000,
			wantErr:  ErrInactive,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rule := base
			if tt.mutate != nil {
				tt.mutate(&rule)
			}

			applied, err := Validate(&rule, tt.subtotal, fixedNow)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, applied)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantDiscount, applied.Discount)
			assert.Equal(t, rule.Code, applied.Rule.Code)
		})
	}
}

func TestValidateExhaustedSingleUse(t *testing.T) {
	// A single-use code that has been used fails regardless of dates and amounts.
	rule := Rule{
		Code:         "ONEUSE",
		Type:         TypeFixed,
		Value:        100,
		StartsAt:     time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC),
		EndsAt:       time.Date(2100, 1, 1, 0, 0, 0, 0, time.UTC),
		UsageLimit:   1,
		CurrentUsage: 1,
		Active:       true,
	}

	for _, subtotal := range []money.Money{0, 100, 1_000_000} {
		_, err := Validate(&rule, subtotal, time.Date(2050, 6, 1, 0, 0, 0, 0, time.UTC))
		require.ErrorIs(t, err, ErrUsageExceeded)
	}
}

func TestValidateDoesNotMutateRule(t *testing.T) {
	rule := Rule{
		Code:     "KEEP",
		Type:     TypePercent,
		Value:    10,
		StartsAt: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		EndsAt:   time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		Active:   true,
	}
	before := rule

	_, err := Validate(&rule, 10000, time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, before, rule)
}

func TestValidateUnsupportedType(t *testing.T) {
	rule := Rule{
		Code:     "WEIRD",
		Type:     Type("bogus"),
		StartsAt: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		EndsAt:   time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		Active:   true,
	}

	_, err := Validate(&rule, 10000, time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC))
	require.Error(t, err)
}
