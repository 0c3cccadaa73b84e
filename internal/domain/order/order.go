package order

import (
	"context"
	"time"

	"github.com/xenking/docdesk/internal/domain/money"
	"github.com/xenking/docdesk/internal/domain/promo"
)

// DeliveryType selects how the finished documents reach the customer.
type DeliveryType string

const (
	// DeliveryOffice means pickup at the office; no delivery fee applies.
	DeliveryOffice DeliveryType = "office"
	// DeliveryHome means courier delivery; the order's delivery fee applies.
	DeliveryHome DeliveryType = "home"
)

// Variant is a priced, timed option of a catalog service (e.g. express vs
// standard passport renewal). Reference data owned by the catalog; the
// pricing core only ever reads it.
type Variant struct {
	ID        string
	ServiceID string
	Name      string
	BasePrice money.Money
	ETADays   int
}

// Fine is an extra government charge attached to an order, such as a
// lost-document report fee. Fines are value objects owned by their order.
type Fine struct {
	Name   string      `json:"name"`
	Amount money.Money `json:"amount"`
	// LostReport marks a lost-document report fee. Lost-report fines are
	// billed under other fees and skip the per-fine administrative
	// surcharge applied to ordinary fines.
	LostReport bool `json:"lost_report"`
}

// CustomerInfo identifies the ordering customer for fulfillment and
// delivery. Collected at checkout, stored on the order.
type CustomerInfo struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Address string `json:"address,omitempty"`
}

// Order is a customer's request for a document service, carrying its
// pricing inputs, payment progress, and fulfillment status.
//
// Status is mutated only through the state machine; the promo fields only
// through ApplyPromoCode/RemovePromoCode on the lifecycle service.
type Order struct {
	ID           string
	Variant      Variant
	Quantity     int
	Customer     CustomerInfo
	DeliveryType DeliveryType
	DeliveryFee  money.Money
	Fines        []Fine
	OtherFees    money.Money
	// Discount is the manual discount a staff member granted on top of
	// any promo code.
	Discount money.Money
	// PromoCode and PromoID are set while a promo is applied; DiscountAmount
	// holds the discount that promo granted at application time.
	PromoCode      string
	PromoID        string
	DiscountAmount money.Money
	// PromoUsageRecorded marks that this order has consumed its promo's
	// usage slot. Keeps the increment idempotent across retried payment
	// confirmations.
	PromoUsageRecorded bool
	PaidAmount         money.Money
	RemainingAmount    money.Money
	Status             Status
	CreatedAt          time.Time
	CompletedAt        *time.Time
}

// HasPromo reports whether a promo code is currently applied.
func (o *Order) HasPromo() bool {
	return o.PromoCode != ""
}

// Repository defines persistence operations for orders. Implementations
// must guard read-modify-write cycles on a single order (row lock or
// version check); the core assumes serializable reads per order.
type Repository interface {
	Create(ctx context.Context, order *Order) error
	Get(ctx context.Context, id string) (*Order, error)
	Update(ctx context.Context, order *Order) error
}

// VariantRepository provides read-only access to service variant
// reference data.
type VariantRepository interface {
	Get(ctx context.Context, id string) (*Variant, error)
}

// PromoRepository aliases the promo data access consumed by the lifecycle
// service, keeping its dependency surface in one package.
type PromoRepository = promo.Repository

// StatusChanged is emitted on every successful status transition. The
// notification collaborator consumes it; the core never sends
// notifications itself.
type StatusChanged struct {
	OrderID string
	From    Status
	To      Status
	At      time.Time
}

// PaymentRecorded is emitted when a payment is applied to an order.
type PaymentRecorded struct {
	OrderID   string
	Amount    money.Money
	Remaining money.Money
}

// EventSink receives domain events after the triggering mutation has been
// persisted. The lifecycle service logs sink failures instead of failing
// the operation: a lost notification never rolls back a persisted order.
type EventSink interface {
	StatusChanged(ctx context.Context, event StatusChanged) error
	PaymentRecorded(ctx context.Context, event PaymentRecorded) error
}
