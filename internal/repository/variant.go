package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/docdesk/internal/domain/money"
	"github.com/xenking/docdesk/internal/domain/order"
)

const getVariantSQL = `SELECT id, service_id, name, base_price, eta_days
	FROM service_variants WHERE id = $1 AND active = TRUE`

var _ order.VariantRepository = (*VariantRepository)(nil)

// VariantRepository provides read-only access to the service variant
// catalog. The catalog itself is managed elsewhere; this side only reads.
type VariantRepository struct {
	pool *pgxpool.Pool
}

// NewVariantRepository returns a VariantRepository that uses the given pool.
func NewVariantRepository(pool *pgxpool.Pool) *VariantRepository {
	return &VariantRepository{pool: pool}
}

// Get loads an active variant by ID.
// Returns order.ErrVariantNotFound when no matching active variant exists.
func (r *VariantRepository) Get(ctx context.Context, id string) (*order.Variant, error) {
	rows, err := r.pool.Query(ctx, getVariantSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting variant %q: %w", id, err)
	}

	v, err := pgx.CollectExactlyOneRow(rows, scanVariant)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrVariantNotFound
		}
		return nil, fmt.Errorf("getting variant %q: %w", id, err)
	}
	return &v, nil
}

func scanVariant(row pgx.CollectableRow) (order.Variant, error) {
	var (
		v         order.Variant
		basePrice int64
	)
	err := row.Scan(&v.ID, &v.ServiceID, &v.Name, &basePrice, &v.ETADays)
	v.BasePrice = money.Money(basePrice)
	return v, err
}
