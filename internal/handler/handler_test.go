package handler

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/docdesk/internal/domain/money"
	"github.com/xenking/docdesk/internal/domain/order"
	"github.com/xenking/docdesk/internal/domain/promo"
)

// --- Stubs ---

type stubOrderRepo struct {
	byID map[string]*order.Order
}

func (s *stubOrderRepo) Create(_ context.Context, o *order.Order) error {
	s.byID[o.ID] = o
	return nil
}

func (s *stubOrderRepo) Get(_ context.Context, id string) (*order.Order, error) {
	o, ok := s.byID[id]
	if !ok {
		return nil, order.ErrOrderNotFound
	}
	copied := *o
	return &copied, nil
}

func (s *stubOrderRepo) Update(_ context.Context, o *order.Order) error {
	s.byID[o.ID] = o
	return nil
}

type stubVariantRepo struct {
	variant *order.Variant
}

func (s *stubVariantRepo) Get(_ context.Context, id string) (*order.Variant, error) {
	if s.variant == nil || s.variant.ID != id {
		return nil, order.ErrVariantNotFound
	}
	return s.variant, nil
}

type stubPromoRepo struct {
	rule *promo.Rule
}

func (s *stubPromoRepo) FindByCode(_ context.Context, code string) (*promo.Rule, error) {
	if s.rule == nil || !strings.EqualFold(s.rule.Code, code) {
		return nil, promo.ErrNotFound
	}
	copied := *s.rule
	return &copied, nil
}

func (s *stubPromoRepo) RecordUsage(_ context.Context, _ string, _ int) (bool, error) {
	return true, nil
}

type stubSink struct{}

func (stubSink) StatusChanged(context.Context, order.StatusChanged) error { return nil }
func (stubSink) PaymentRecorded(context.Context, order.PaymentRecorded) error { return nil }

type stubKeyRepo struct {
	hash string
}

func (s *stubKeyRepo) FindByHash(_ context.Context, hash string) (*APIKeyInfo, error) {
	if hash != s.hash {
		return nil, ErrUnauthorized
	}
	return &APIKeyInfo{ID: "default", KeyHash: s.hash, Name: "test key"}, nil
}

// --- Helpers ---

const testAPIKey = "test-api-key"

func keyHash(key string) string {
	h := sha256.Sum256([]byte(key))
	return hex.EncodeToString(h[:])
}

func passportVariant() *order.Variant {
	return &order.Variant{
		ID:        "passport-express",
		ServiceID: "passport",
		Name:      "Passport renewal, express",
		BasePrice: 100_00,
		ETADays:   7,
	}
}

func pendingOrder() *order.Order {
	return &order.Order{
		ID:              "ord-1",
		Variant:         *passportVariant(),
		Quantity:        2,
		Customer:        order.CustomerInfo{Name: "Omar", Phone: "+201000000000", Address: "12 Nile St"},
		DeliveryType:    order.DeliveryHome,
		DeliveryFee:     50_00,
		Fines:           []order.Fine{{Name: "late renewal", Amount: 5_00}},
		Status:          order.StatusPending,
		CreatedAt:       time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC),
		RemainingAmount: 265_00,
	}
}

type testServer struct {
	router http.Handler
	orders *stubOrderRepo
	promos *stubPromoRepo
}

func newTestServer(t *testing.T, orders ...*order.Order) *testServer {
	t.Helper()

	byID := make(map[string]*order.Order, len(orders))
	for _, o := range orders {
		byID[o.ID] = o
	}

	orderRepo := &stubOrderRepo{byID: byID}
	promoRepo := &stubPromoRepo{}
	svc := order.NewService(orderRepo, &stubVariantRepo{variant: passportVariant()}, promoRepo, stubSink{}, order.Pricer{})

	h := New(svc)
	auth := APIKeyAuth(&stubKeyRepo{hash: keyHash(testAPIKey)})

	return &testServer{
		router: h.Routes(auth),
		orders: orderRepo,
		promos: promoRepo,
	}
}

func (ts *testServer) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("{}")
	} else {
		reader = strings.NewReader(body)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("X-API-Key", testAPIKey)
	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)
	return rec
}

func decodeView(t *testing.T, rec *httptest.ResponseRecorder) orderView {
	t.Helper()

	var view orderView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	return view
}

// --- Tests ---

func TestAPIKeyAuth(t *testing.T) {
	ts := newTestServer(t, pendingOrder())

	t.Run("MissingKey", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/orders/ord-1", nil)
		rec := httptest.NewRecorder()
		ts.router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("WrongKey", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/orders/ord-1", nil)
		req.Header.Set("X-API-Key", "not-the-key")
		rec := httptest.NewRecorder()
		ts.router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("ValidKey", func(t *testing.T) {
		rec := ts.do(t, http.MethodGet, "/orders/ord-1", "")
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestGetOrder(t *testing.T) {
	ts := newTestServer(t, pendingOrder())

	rec := ts.do(t, http.MethodGet, "/orders/ord-1", "")
	require.Equal(t, http.StatusOK, rec.Code)

	view := decodeView(t, rec)
	assert.Equal(t, "ord-1", view.ID)
	assert.Equal(t, "pending", view.Status)
	assert.Equal(t, int64(200_00), int64(view.Breakdown.Subtotal))
	assert.Equal(t, int64(15_00), int64(view.Breakdown.FinesSurcharge))
	assert.Equal(t, int64(265_00), int64(view.Breakdown.FinalTotal))
	assert.Equal(t, int64(265_00), int64(view.Breakdown.RemainingAmount))
}

func TestGetOrderNotFound(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/orders/missing", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateOrder(t *testing.T) {
	ts := newTestServer(t)

	body := `{
		"variantId": "passport-express",
		"quantity": 2,
		"deliveryType": "home",
		"deliveryFee": 5000,
		"customer": {"name": "Omar", "phone": "+201000000000", "address": "12 Nile St"}
	}`

	rec := ts.do(t, http.MethodPost, "/orders", body)
	require.Equal(t, http.StatusCreated, rec.Code)

	view := decodeView(t, rec)
	assert.NotEmpty(t, view.ID)
	assert.Equal(t, "pending", view.Status)
	assert.Equal(t, int64(250_00), int64(view.Breakdown.FinalTotal))

	stored, err := ts.orders.Get(context.Background(), view.ID)
	require.NoError(t, err)
	assert.Equal(t, money.Money(250_00), stored.RemainingAmount)
}

func TestCreateOrderValidation(t *testing.T) {
	ts := newTestServer(t)

	t.Run("MalformedBody", func(t *testing.T) {
		rec := ts.do(t, http.MethodPost, "/orders", `{"variantId":`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("BadDeliveryType", func(t *testing.T) {
		rec := ts.do(t, http.MethodPost, "/orders",
			`{"variantId": "passport-express", "quantity": 1, "deliveryType": "pigeon"}`)
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})

	t.Run("HomeWithoutAddress", func(t *testing.T) {
		rec := ts.do(t, http.MethodPost, "/orders",
			`{"variantId": "passport-express", "quantity": 1, "deliveryType": "home", "customer": {"name": "O", "phone": "1"}}`)
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})

	t.Run("ZeroQuantity", func(t *testing.T) {
		rec := ts.do(t, http.MethodPost, "/orders",
			`{"variantId": "passport-express", "quantity": 0, "deliveryType": "office"}`)
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})
}

func TestApplyPromo(t *testing.T) {
	now := time.Now()

	t.Run("Applied", func(t *testing.T) {
		ts := newTestServer(t, pendingOrder())
		ts.promos.rule = &promo.Rule{
			ID:       "promo-1",
			Code:     "WELCOME10",
			Type:     promo.TypePercent,
			Value:    10,
			StartsAt: now.Add(-time.Hour),
			EndsAt:   now.Add(time.Hour),
			Active:   true,
		}

		rec := ts.do(t, http.MethodPost, "/orders/ord-1/promo", `{"code": "WELCOME10"}`)
		require.Equal(t, http.StatusOK, rec.Code)

		view := decodeView(t, rec)
		assert.Equal(t, "WELCOME10", view.PromoCode)
		assert.Equal(t, int64(20_00), int64(view.Breakdown.DiscountTotal))
		assert.Equal(t, int64(245_00), int64(view.Breakdown.FinalTotal))
	})

	t.Run("UnknownCode", func(t *testing.T) {
		ts := newTestServer(t, pendingOrder())

		rec := ts.do(t, http.MethodPost, "/orders/ord-1/promo", `{"code": "NOPE"}`)
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})

	t.Run("Expired", func(t *testing.T) {
		ts := newTestServer(t, pendingOrder())
		ts.promos.rule = &promo.Rule{
			ID:       "promo-old",
			Code:     "OLDCODE",
			Type:     promo.TypeFixed,
			Value:    10_00,
			StartsAt: now.Add(-2 * time.Hour),
			EndsAt:   now.Add(-time.Hour),
			Active:   true,
		}

		rec := ts.do(t, http.MethodPost, "/orders/ord-1/promo", `{"code": "OLDCODE"}`)
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})

	t.Run("AlreadyApplied", func(t *testing.T) {
		o := pendingOrder()
		o.PromoCode = "WELCOME10"
		o.PromoID = "promo-1"
		o.DiscountAmount = 20_00
		ts := newTestServer(t, o)
		ts.promos.rule = &promo.Rule{
			ID:       "promo-2",
			Code:     "ANOTHER",
			Type:     promo.TypeFixed,
			Value:    5_00,
			StartsAt: now.Add(-time.Hour),
			EndsAt:   now.Add(time.Hour),
			Active:   true,
		}

		rec := ts.do(t, http.MethodPost, "/orders/ord-1/promo", `{"code": "ANOTHER"}`)
		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("EmptyCode", func(t *testing.T) {
		ts := newTestServer(t, pendingOrder())

		rec := ts.do(t, http.MethodPost, "/orders/ord-1/promo", `{"code": ""}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestRemovePromo(t *testing.T) {
	t.Run("Removed", func(t *testing.T) {
		o := pendingOrder()
		o.PromoCode = "WELCOME10"
		o.PromoID = "promo-1"
		o.DiscountAmount = 20_00
		ts := newTestServer(t, o)

		rec := ts.do(t, http.MethodDelete, "/orders/ord-1/promo", "")
		require.Equal(t, http.StatusOK, rec.Code)

		view := decodeView(t, rec)
		assert.Empty(t, view.PromoCode)
		assert.Equal(t, int64(265_00), int64(view.Breakdown.FinalTotal))
	})

	t.Run("NonePresent", func(t *testing.T) {
		ts := newTestServer(t, pendingOrder())

		rec := ts.do(t, http.MethodDelete, "/orders/ord-1/promo", "")
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})
}

func TestUpdateCharges(t *testing.T) {
	ts := newTestServer(t, pendingOrder())

	body := `{
		"fines": [
			{"name": "late renewal", "amount": 500, "lostReport": false},
			{"name": "lost passport report", "amount": 3000, "lostReport": true}
		],
		"otherFees": 200,
		"discount": 1000
	}`

	rec := ts.do(t, http.MethodPut, "/orders/ord-1/charges", body)
	require.Equal(t, http.StatusOK, rec.Code)

	view := decodeView(t, rec)
	assert.Len(t, view.Fines, 2)
	assert.Equal(t, int64(15_00), int64(view.Breakdown.FinesSurcharge))
	assert.Equal(t, int64(32_00), int64(view.Breakdown.OtherFeesTotal))
	assert.Equal(t, int64(10_00), int64(view.Breakdown.DiscountTotal))
}

func TestRecordPayment(t *testing.T) {
	t.Run("Partial", func(t *testing.T) {
		ts := newTestServer(t, pendingOrder())

		rec := ts.do(t, http.MethodPost, "/orders/ord-1/payments", `{"amount": 10000}`)
		require.Equal(t, http.StatusOK, rec.Code)

		view := decodeView(t, rec)
		assert.Equal(t, int64(100_00), int64(view.Breakdown.PaidAmount))
		assert.Equal(t, int64(165_00), int64(view.Breakdown.RemainingAmount))
	})

	t.Run("Overpay", func(t *testing.T) {
		ts := newTestServer(t, pendingOrder())

		rec := ts.do(t, http.MethodPost, "/orders/ord-1/payments", `{"amount": 30000}`)
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})

	t.Run("NonPositive", func(t *testing.T) {
		ts := newTestServer(t, pendingOrder())

		rec := ts.do(t, http.MethodPost, "/orders/ord-1/payments", `{"amount": 0}`)
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})
}

func TestChangeStatus(t *testing.T) {
	t.Run("Allowed", func(t *testing.T) {
		ts := newTestServer(t, pendingOrder())

		rec := ts.do(t, http.MethodPost, "/orders/ord-1/status", `{"status": "in_progress"}`)
		require.Equal(t, http.StatusOK, rec.Code)

		view := decodeView(t, rec)
		assert.Equal(t, "in_progress", view.Status)
	})

	t.Run("InvalidTransition", func(t *testing.T) {
		ts := newTestServer(t, pendingOrder())

		rec := ts.do(t, http.MethodPost, "/orders/ord-1/status", `{"status": "completed"}`)
		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("UnknownStatus", func(t *testing.T) {
		ts := newTestServer(t, pendingOrder())

		rec := ts.do(t, http.MethodPost, "/orders/ord-1/status", `{"status": "shipped"}`)
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})
}
