package main

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/docdesk/internal/repository"
)

type variantJSON struct {
	ID        string `json:"id"`
	ServiceID string `json:"serviceId"`
	Name      string `json:"name"`
	BasePrice int64  `json:"basePrice"`
	ETADays   int    `json:"etaDays"`
}

func main() {
	var (
		databaseURL  string
		variantsFile string
		apiKey       string
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&variantsFile, "variants-file", "db/seed/variants.json", "path to service variants JSON file")
	flag.StringVar(&apiKey, "api-key", "", "API key to seed (or DOCDESK_SEED_API_KEY env)")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}
	if apiKey == "" {
		apiKey = os.Getenv("DOCDESK_SEED_API_KEY")
	}
	if apiKey == "" {
		slog.Error("API key is required: set --api-key or DOCDESK_SEED_API_KEY")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, variantsFile, apiKey); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, databaseURL, variantsFile, apiKey string) error {
	slog.Info("connecting to database")

	pool, err := repository.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	slog.Info("running migrations")

	if err := repository.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	if err := seedVariants(ctx, pool, variantsFile); err != nil {
		return errors.Wrap(err, "seed variants")
	}

	if err := seedPromoCodes(ctx, pool); err != nil {
		return errors.Wrap(err, "seed promo codes")
	}

	if err := seedAPIKey(ctx, pool, apiKey); err != nil {
		return errors.Wrap(err, "seed api key")
	}

	return nil
}

const upsertVariantSQL = `
INSERT INTO service_variants (id, service_id, name, base_price, eta_days, active)
VALUES ($1, $2, $3, $4, $5, TRUE)
ON CONFLICT (id) DO UPDATE SET
    service_id = EXCLUDED.service_id,
    name       = EXCLUDED.name,
    base_price = EXCLUDED.base_price,
    eta_days   = EXCLUDED.eta_days,
    active     = TRUE
`

func seedVariants(ctx context.Context, pool *pgxpool.Pool, variantsFile string) error {
	slog.Info("reading variants file", slog.String("path", variantsFile))

	data, err := os.ReadFile(variantsFile)
	if err != nil {
		return errors.Wrap(err, "read variants file")
	}

	var variants []variantJSON
	if err := json.Unmarshal(data, &variants); err != nil {
		return errors.Wrap(err, "parse variants JSON")
	}

	slog.Info("upserting variants", slog.Int("count", len(variants)))

	for _, v := range variants {
		if _, err := pool.Exec(ctx, upsertVariantSQL,
			v.ID, v.ServiceID, v.Name, v.BasePrice, v.ETADays,
		); err != nil {
			return errors.Wrapf(err, "upsert variant %s", v.ID)
		}

		slog.Info("upserted variant", slog.String("id", v.ID), slog.String("name", v.Name))
	}

	return nil
}

const seedPromoSQL = `
INSERT INTO promo_codes (id, code, type, value, min_order_amount, max_discount, starts_at, ends_at, usage_limit, active)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, TRUE)
ON CONFLICT (code) DO UPDATE SET
    type             = EXCLUDED.type,
    value            = EXCLUDED.value,
    min_order_amount = EXCLUDED.min_order_amount,
    max_discount     = EXCLUDED.max_discount,
    starts_at        = EXCLUDED.starts_at,
    ends_at          = EXCLUDED.ends_at,
    usage_limit      = EXCLUDED.usage_limit,
    active           = TRUE
`

type promoSeed struct {
	id             string
	code           string
	promoType      string
	value          int64
	minOrderAmount int64
	maxDiscount    int64
	usageLimit     int
}

func seedPromoCodes(ctx context.Context, pool *pgxpool.Pool) error {
	slog.Info("seeding demo promo codes")

	startsAt := time.Now().UTC()
	endsAt := startsAt.AddDate(1, 0, 0)

	promos := []promoSeed{
		{
			id:          "seed-welcome10",
			code:        "WELCOME10",
			promoType:   "percent",
			value:       10,
			maxDiscount: 50_00,
		},
		{
			id:             "seed-gov50",
			code:           "GOV50",
			promoType:      "fixed",
			value:          50_00,
			minOrderAmount: 200_00,
		},
		{
			id:         "seed-firstdoc",
			code:       "FIRSTDOC",
			promoType:  "percent",
			value:      25,
			usageLimit: 1000,
		},
	}

	for _, p := range promos {
		if _, err := pool.Exec(ctx, seedPromoSQL,
			p.id, p.code, p.promoType, p.value, p.minOrderAmount, p.maxDiscount,
			startsAt, endsAt, p.usageLimit,
		); err != nil {
			return errors.Wrapf(err, "upsert promo code %s", p.code)
		}

		slog.Info("upserted promo code", slog.String("code", p.code), slog.String("type", p.promoType))
	}

	return nil
}

const upsertAPIKeySQL = `
INSERT INTO api_keys (id, key_hash, name, active)
VALUES ($1, $2, $3, TRUE)
ON CONFLICT (key_hash) DO UPDATE SET
    name   = EXCLUDED.name,
    active = TRUE
`

func seedAPIKey(ctx context.Context, pool *pgxpool.Pool, apiKey string) error {
	slog.Info("seeding default API key")

	hash := sha256.Sum256([]byte(apiKey))
	keyHash := hex.EncodeToString(hash[:])

	if _, err := pool.Exec(ctx, upsertAPIKeySQL, "default", keyHash, "Default test key"); err != nil {
		return errors.Wrap(err, "upsert default API key")
	}

	slog.Info("upserted API key", slog.String("id", "default"), slog.String("name", "Default test key"))

	return nil
}
