package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/docdesk/internal/domain/money"
	"github.com/xenking/docdesk/internal/domain/promo"
)

const (
	getPromoByCodeSQL = `SELECT id, code, type, value, min_order_amount, max_discount,
		starts_at, ends_at, usage_limit, current_usage, active
		FROM promo_codes WHERE UPPER(code) = UPPER($1)`

	recordPromoUsageSQL = `UPDATE promo_codes SET current_usage = current_usage + 1
		WHERE id = $1 AND current_usage = $2
		AND (usage_limit = 0 OR current_usage < usage_limit)`
)

var _ promo.Repository = (*PromoRepository)(nil)

// PromoRepository implements promo.Repository backed by PostgreSQL.
type PromoRepository struct {
	pool *pgxpool.Pool
}

// NewPromoRepository returns a PromoRepository that uses the given pool.
func NewPromoRepository(pool *pgxpool.Pool) *PromoRepository {
	return &PromoRepository{pool: pool}
}

// FindByCode looks up a promo rule by its code (case-insensitive).
// Returns promo.ErrNotFound when no matching code exists. Deactivated
// codes are returned as-is; the validator owns the active check so the
// caller gets the specific inactive error instead of a generic miss.
func (r *PromoRepository) FindByCode(ctx context.Context, code string) (*promo.Rule, error) {
	rows, err := r.pool.Query(ctx, getPromoByCodeSQL, code)
	if err != nil {
		return nil, fmt.Errorf("finding promo by code %q: %w", code, err)
	}

	rule, err := pgx.CollectExactlyOneRow(rows, scanPromoRule)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, promo.ErrNotFound
		}
		return nil, fmt.Errorf("finding promo by code %q: %w", code, err)
	}
	return &rule, nil
}

// RecordUsage increments the usage counter only when it still equals
// expectedUsage and the limit (when set) is not yet reached, reporting
// false when a concurrent checkout won the slot or exhausted the code.
func (r *PromoRepository) RecordUsage(ctx context.Context, promoID string, expectedUsage int) (bool, error) {
	tag, err := r.pool.Exec(ctx, recordPromoUsageSQL, promoID, expectedUsage)
	if err != nil {
		return false, fmt.Errorf("recording usage for promo %q: %w", promoID, err)
	}
	return tag.RowsAffected() == 1, nil
}

func scanPromoRule(row pgx.CollectableRow) (promo.Rule, error) {
	var (
		rule         promo.Rule
		promoType    string
		minOrder     int64
		maxDiscount  int64
		startsAt     time.Time
		endsAt       time.Time
		usageLimit   int32
		currentUsage int32
	)
	err := row.Scan(
		&rule.ID, &rule.Code, &promoType, &rule.Value, &minOrder, &maxDiscount,
		&startsAt, &endsAt, &usageLimit, &currentUsage, &rule.Active,
	)
	rule.Type = promo.Type(promoType)
	rule.MinOrderAmount = money.Money(minOrder)
	rule.MaxDiscount = money.Money(maxDiscount)
	rule.StartsAt = startsAt
	rule.EndsAt = endsAt
	rule.UsageLimit = int(usageLimit)
	rule.CurrentUsage = int(currentUsage)
	return rule, err
}
