package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/docdesk/internal/domain/money"
	"github.com/xenking/docdesk/internal/domain/order"
)

const (
	createOrderSQL = `INSERT INTO orders (
		id, variant_id, quantity, customer, delivery_type, delivery_fee,
		fines, other_fees, discount, promo_code, promo_id, discount_amount,
		promo_usage_recorded, paid_amount, remaining_amount, status, created_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`

	getOrderSQL = `SELECT o.id, o.quantity, o.customer, o.delivery_type, o.delivery_fee,
		o.fines, o.other_fees, o.discount, o.promo_code, o.promo_id, o.discount_amount,
		o.promo_usage_recorded, o.paid_amount, o.remaining_amount, o.status,
		o.created_at, o.completed_at,
		v.id, v.service_id, v.name, v.base_price, v.eta_days
		FROM orders o
		JOIN service_variants v ON v.id = o.variant_id
		WHERE o.id = $1`

	updateOrderSQL = `UPDATE orders SET
		fines = $2, other_fees = $3, discount = $4,
		promo_code = $5, promo_id = $6, discount_amount = $7,
		promo_usage_recorded = $8, paid_amount = $9, remaining_amount = $10,
		status = $11, completed_at = $12
		WHERE id = $1`
)

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository implements order.Repository backed by PostgreSQL.
// Fines and customer info live in JSONB columns; every monetary column is
// a BIGINT in minor units.
type OrderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository returns an OrderRepository that uses the given pool.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// Create persists a new order.
func (r *OrderRepository) Create(ctx context.Context, o *order.Order) error {
	_, err := r.pool.Exec(ctx, createOrderSQL,
		o.ID, o.Variant.ID, o.Quantity, encodeCustomer(o.Customer),
		string(o.DeliveryType), int64(o.DeliveryFee),
		encodeFines(o.Fines), int64(o.OtherFees), int64(o.Discount),
		o.PromoCode, o.PromoID, int64(o.DiscountAmount),
		o.PromoUsageRecorded, int64(o.PaidAmount), int64(o.RemainingAmount),
		string(o.Status), o.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("creating order %q: %w", o.ID, err)
	}
	return nil
}

// Get loads an order together with its variant snapshot.
// Returns order.ErrOrderNotFound when no row matches.
func (r *OrderRepository) Get(ctx context.Context, id string) (*order.Order, error) {
	rows, err := r.pool.Query(ctx, getOrderSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting order %q: %w", id, err)
	}

	o, err := pgx.CollectExactlyOneRow(rows, scanOrder)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrOrderNotFound
		}
		return nil, fmt.Errorf("getting order %q: %w", id, err)
	}
	return o, nil
}

// Update persists the mutable fields of an existing order.
func (r *OrderRepository) Update(ctx context.Context, o *order.Order) error {
	tag, err := r.pool.Exec(ctx, updateOrderSQL,
		o.ID,
		encodeFines(o.Fines), int64(o.OtherFees), int64(o.Discount),
		o.PromoCode, o.PromoID, int64(o.DiscountAmount),
		o.PromoUsageRecorded, int64(o.PaidAmount), int64(o.RemainingAmount),
		string(o.Status), o.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("updating order %q: %w", o.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return order.ErrOrderNotFound
	}
	return nil
}

func scanOrder(row pgx.CollectableRow) (*order.Order, error) {
	var (
		o            order.Order
		customerJSON []byte
		finesJSON    []byte
		deliveryType string
		deliveryFee  int64
		otherFees    int64
		discount     int64
		discountAmt  int64
		paid         int64
		remaining    int64
		status       string
		completedAt  *time.Time
		basePrice    int64
	)
	err := row.Scan(
		&o.ID, &o.Quantity, &customerJSON, &deliveryType, &deliveryFee,
		&finesJSON, &otherFees, &discount, &o.PromoCode, &o.PromoID, &discountAmt,
		&o.PromoUsageRecorded, &paid, &remaining, &status,
		&o.CreatedAt, &completedAt,
		&o.Variant.ID, &o.Variant.ServiceID, &o.Variant.Name, &basePrice, &o.Variant.ETADays,
	)
	if err != nil {
		return nil, err
	}

	o.Customer, err = decodeCustomer(customerJSON)
	if err != nil {
		return nil, fmt.Errorf("decoding customer: %w", err)
	}
	o.Fines, err = decodeFines(finesJSON)
	if err != nil {
		return nil, fmt.Errorf("decoding fines: %w", err)
	}

	o.DeliveryType = order.DeliveryType(deliveryType)
	o.DeliveryFee = money.Money(deliveryFee)
	o.OtherFees = money.Money(otherFees)
	o.Discount = money.Money(discount)
	o.DiscountAmount = money.Money(discountAmt)
	o.PaidAmount = money.Money(paid)
	o.RemainingAmount = money.Money(remaining)
	o.Status = order.Status(status)
	o.CompletedAt = completedAt
	o.Variant.BasePrice = money.Money(basePrice)

	return &o, nil
}
