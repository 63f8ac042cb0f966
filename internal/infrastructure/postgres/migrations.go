package postgres

import (
	"context"
	"fmt"
)

type migration struct {
	version string
	name    string
	up      string
}

// migrations en orden; cada una se aplica una sola vez (tabla schema_migrations).
var migrations = []migration{
	{
		version: "20240101000001",
		name:    "create_catalog_items",
		up: `
CREATE TABLE IF NOT EXISTS catalog_items (
    id           TEXT PRIMARY KEY,
    kind         TEXT NOT NULL CHECK (kind IN ('PRODUCT', 'SERVICE')),
    name         TEXT NOT NULL DEFAULT '',
    category     TEXT NOT NULL DEFAULT '',
    brand        TEXT NOT NULL DEFAULT '',
    unit_measure TEXT NOT NULL DEFAULT '',
    unit_price   NUMERIC(18,4) NOT NULL DEFAULT 0,
    is_deleted   BOOLEAN NOT NULL DEFAULT false,
    deleted_at   TIMESTAMPTZ,
    created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_catalog_items_kind ON catalog_items (kind) WHERE is_deleted = false;
`,
	},
	{
		version: "20240101000002",
		name:    "create_stocks",
		up: `
CREATE TABLE IF NOT EXISTS stocks (
    id          TEXT PRIMARY KEY,
    product_id  TEXT NOT NULL,
    location_id TEXT NOT NULL,
    quantity    BIGINT NOT NULL DEFAULT 0,
    created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_stocks_product ON stocks (product_id);
CREATE INDEX IF NOT EXISTS idx_stocks_location ON stocks (location_id);
`,
	},
	{
		version: "20240101000003",
		name:    "create_stock_history",
		up: `
CREATE TABLE IF NOT EXISTS stock_history (
    id             TEXT PRIMARY KEY,
    stock_id       TEXT NOT NULL,
    product_id     TEXT NOT NULL,
    location_id    TEXT NOT NULL,
    actor          TEXT NOT NULL,
    change         BIGINT NOT NULL,
    reason         TEXT NOT NULL,
    current_amount BIGINT NOT NULL,
    reference      TEXT NOT NULL DEFAULT '',
    created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_stock_history_stock_created ON stock_history (stock_id, created_at);
CREATE INDEX IF NOT EXISTS idx_stock_history_created ON stock_history (created_at);
`,
	},
	{
		version: "20240101000004",
		name:    "create_expenses",
		up: `
CREATE TABLE IF NOT EXISTS expenses (
    id                 TEXT PRIMARY KEY,
    type               TEXT NOT NULL CHECK (type IN ('STOCKABLE', 'NONSTOCKABLE')),
    product_id         TEXT NOT NULL DEFAULT '',
    service_id         TEXT NOT NULL DEFAULT '',
    item_id            TEXT GENERATED ALWAYS AS (CASE WHEN type = 'STOCKABLE' THEN product_id ELSE service_id END) STORED,
    location_id        TEXT NOT NULL DEFAULT '',
    quantity           BIGINT NOT NULL,
    total_amount       NUMERIC(18,4) NOT NULL,
    date               TIMESTAMPTZ NOT NULL,
    payment_method     TEXT NOT NULL DEFAULT '',
    category           TEXT NOT NULL DEFAULT '',
    brand              TEXT NOT NULL DEFAULT '',
    vendor             TEXT NOT NULL DEFAULT '',
    note               TEXT NOT NULL DEFAULT '',
    is_stock_increment BOOLEAN NOT NULL DEFAULT false,
    is_paid            BOOLEAN NOT NULL DEFAULT false,
    created_by         TEXT NOT NULL DEFAULT '',
    created_at         TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at         TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_expenses_item_date ON expenses (item_id, date DESC, created_at DESC);
`,
	},
	{
		version: "20240101000005",
		name:    "create_payments",
		up: `
CREATE TABLE IF NOT EXISTS payments (
    id             TEXT PRIMARY KEY,
    expense_id     TEXT NOT NULL,
    amount         NUMERIC(18,4) NOT NULL,
    date           TIMESTAMPTZ NOT NULL,
    payment_method TEXT NOT NULL DEFAULT '',
    created_by     TEXT NOT NULL DEFAULT '',
    created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_payments_expense ON payments (expense_id);
`,
	},
	{
		version: "20240101000006",
		name:    "create_stock_counts_and_marketplace",
		up: `
CREATE TABLE IF NOT EXISTS stock_count_lines (
    count_id          TEXT NOT NULL,
    product_id        TEXT NOT NULL,
    location_id       TEXT NOT NULL,
    observed_quantity BIGINT NOT NULL,
    reconciled        BOOLEAN NOT NULL DEFAULT false,
    reconciled_at     TIMESTAMPTZ,
    PRIMARY KEY (count_id, product_id, location_id)
);

CREATE INDEX IF NOT EXISTS idx_stock_count_lines_product ON stock_count_lines (product_id);

CREATE TABLE IF NOT EXISTS marketplace_matches (
    catalog_item_id TEXT NOT NULL,
    marketplace     TEXT NOT NULL,
    external_id     TEXT NOT NULL DEFAULT '',
    created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    PRIMARY KEY (catalog_item_id, marketplace)
);
`,
	},
}

// Migrate aplica las migraciones pendientes, cada una en su propia transacción.
func Migrate(ctx context.Context, db Querier) (int, error) {
	_, err := db.Exec(ctx, `
CREATE TABLE IF NOT EXISTS schema_migrations (
    version    TEXT PRIMARY KEY,
    name       TEXT NOT NULL,
    applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`)
	if err != nil {
		return 0, fmt.Errorf("create schema_migrations: %w", err)
	}

	applied := 0
	runner := NewTxRunner(db)
	for _, m := range migrations {
		var done bool
		if err := db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM schema_migrations WHERE version = $1)`, m.version).Scan(&done); err != nil {
			return applied, fmt.Errorf("check migration %s: %w", m.name, err)
		}
		if done {
			continue
		}
		err := runner.Run(ctx, func(q Querier) error {
			if _, err := q.Exec(ctx, m.up); err != nil {
				return err
			}
			_, err := q.Exec(ctx, `INSERT INTO schema_migrations (version, name) VALUES ($1, $2)`, m.version, m.name)
			return err
		})
		if err != nil {
			return applied, fmt.Errorf("migration %s: %w", m.name, err)
		}
		applied++
	}
	return applied, nil
}
