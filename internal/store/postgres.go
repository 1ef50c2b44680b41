package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"magnate/internal/game"
)

const schemaDDL = `
CREATE SCHEMA IF NOT EXISTS game;

CREATE TABLE IF NOT EXISTS game.accounts (
    telegram_id     text PRIMARY KEY,
    first_name      text NOT NULL DEFAULT '',
    username        text NOT NULL DEFAULT '',
    balance         double precision NOT NULL DEFAULT 0,
    passive_income  double precision NOT NULL DEFAULT 0,
    level           integer NOT NULL DEFAULT 1,
    investments     jsonb NOT NULL DEFAULT '[]',
    last_accrual_at timestamptz NOT NULL DEFAULT now(),
    version         bigint NOT NULL DEFAULT 1,
    blocked         boolean NOT NULL DEFAULT false,
    created_at      timestamptz NOT NULL DEFAULT now(),
    updated_at      timestamptz NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS accounts_accruable_idx
    ON game.accounts (last_accrual_at)
    WHERE passive_income > 0;

CREATE TABLE IF NOT EXISTS game.investments (
    id            text PRIMARY KEY,
    name          text NOT NULL,
    description   text NOT NULL DEFAULT '',
    category      text NOT NULL,
    curve         text NOT NULL DEFAULT 'linear',
    base_income   double precision NOT NULL,
    base_cost     double precision NOT NULL,
    base_level    integer NOT NULL DEFAULT 1,
    multiplier    double precision NOT NULL DEFAULT 1.2,
    bonus_percent double precision NOT NULL DEFAULT 0,
    active        boolean NOT NULL DEFAULT true,
    sort_order    integer NOT NULL DEFAULT 0,
    created_at    timestamptz NOT NULL DEFAULT now()
);
`

// EnsureSchema creates the tables this process relies on. Safe to run on
// every startup.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, schemaDDL); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// PostgresAccounts implements AccountRepository on pgx. The account's
// investment list rides along as jsonb so a conditional update replaces
// the whole document in one statement.
type PostgresAccounts struct {
	db *pgxpool.Pool
}

func NewPostgresAccounts(db *pgxpool.Pool) *PostgresAccounts {
	return &PostgresAccounts{db: db}
}

const accountColumns = `
	telegram_id, first_name, username, balance, passive_income,
	level, investments, last_accrual_at, version, blocked, created_at
`

func (r *PostgresAccounts) Get(ctx context.Context, telegramID string) (*game.Account, error) {
	row := r.db.QueryRow(ctx, `
		SELECT `+accountColumns+`
		FROM game.accounts
		WHERE telegram_id = $1
	`, telegramID)
	return scanAccount(row)
}

func (r *PostgresAccounts) Upsert(ctx context.Context, acct *game.Account) (*game.Account, error) {
	invJSON, err := json.Marshal(acct.Investments)
	if err != nil {
		return nil, fmt.Errorf("encode investments: %w", err)
	}
	row := r.db.QueryRow(ctx, `
		INSERT INTO game.accounts
		    (telegram_id, first_name, username, balance, passive_income, level, investments, last_accrual_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (telegram_id) DO UPDATE
		    SET first_name = EXCLUDED.first_name,
		        username = EXCLUDED.username,
		        updated_at = now()
		RETURNING `+accountColumns+`
	`, acct.TelegramID, acct.FirstName, acct.Username, acct.Balance,
		acct.PassiveIncome, acct.Level, invJSON, acct.LastAccrualAt)
	return scanAccount(row)
}

func (r *PostgresAccounts) UpdateConditional(ctx context.Context, acct *game.Account, expectedVersion int64) (*game.Account, error) {
	invJSON, err := json.Marshal(acct.Investments)
	if err != nil {
		return nil, fmt.Errorf("encode investments: %w", err)
	}
	row := r.db.QueryRow(ctx, `
		UPDATE game.accounts
		SET balance = $1,
		    passive_income = $2,
		    level = $3,
		    investments = $4,
		    last_accrual_at = $5,
		    version = version + 1,
		    updated_at = now()
		WHERE telegram_id = $6 AND version = $7
		RETURNING `+accountColumns+`
	`, acct.Balance, acct.PassiveIncome, acct.Level, invJSON,
		acct.LastAccrualAt, acct.TelegramID, expectedVersion)
	updated, err := scanAccount(row)
	if err == game.ErrNotFound {
		// Distinguish a missing account from a lost race.
		if _, getErr := r.Get(ctx, acct.TelegramID); getErr == nil {
			return nil, game.ErrVersionConflict
		}
		return nil, game.ErrNotFound
	}
	return updated, err
}

func (r *PostgresAccounts) ListAccruable(ctx context.Context, cutoff time.Time) ([]*game.Account, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+accountColumns+`
		FROM game.accounts
		WHERE passive_income > 0 AND last_accrual_at < $1
		ORDER BY last_accrual_at
	`, cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectAccounts(rows)
}

func (r *PostgresAccounts) ListByAudience(ctx context.Context, f game.AudienceFilter) ([]*game.Account, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+accountColumns+`
		FROM game.accounts
		WHERE NOT blocked
		  AND ($1 <= 0 OR level >= $1)
		  AND ($2 <= 0 OR passive_income >= $2)
		ORDER BY telegram_id
	`, f.MinLevel, f.MinIncome)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectAccounts(rows)
}

func collectAccounts(rows pgx.Rows) ([]*game.Account, error) {
	var out []*game.Account
	for rows.Next() {
		acct, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, acct)
	}
	return out, rows.Err()
}

func scanAccount(row pgx.Row) (*game.Account, error) {
	var acct game.Account
	var invJSON []byte
	err := row.Scan(&acct.TelegramID, &acct.FirstName, &acct.Username,
		&acct.Balance, &acct.PassiveIncome, &acct.Level, &invJSON,
		&acct.LastAccrualAt, &acct.Version, &acct.Blocked, &acct.CreatedAt)
	if err == pgx.ErrNoRows {
		return nil, game.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if len(invJSON) > 0 {
		if err := json.Unmarshal(invJSON, &acct.Investments); err != nil {
			return nil, fmt.Errorf("decode investments: %w", err)
		}
	}
	return &acct, nil
}

// PostgresCatalog implements CatalogRepository on pgx.
type PostgresCatalog struct {
	db *pgxpool.Pool
}

func NewPostgresCatalog(db *pgxpool.Pool) *PostgresCatalog {
	return &PostgresCatalog{db: db}
}

const investmentColumns = `
	id, name, description, category, curve, base_income, base_cost,
	base_level, multiplier, bonus_percent, active, sort_order, created_at
`

func (r *PostgresCatalog) Get(ctx context.Context, id string) (*game.Investment, error) {
	row := r.db.QueryRow(ctx, `
		SELECT `+investmentColumns+`
		FROM game.investments
		WHERE id = $1
	`, id)
	return scanInvestment(row)
}

func (r *PostgresCatalog) ListActive(ctx context.Context, category string) ([]*game.Investment, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+investmentColumns+`
		FROM game.investments
		WHERE active AND ($1 = '' OR category = $1)
		ORDER BY sort_order, id
	`, category)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*game.Investment
	for rows.Next() {
		inv, err := scanInvestment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, inv)
	}
	return out, rows.Err()
}

func (r *PostgresCatalog) Put(ctx context.Context, inv *game.Investment) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO game.investments
		    (id, name, description, category, curve, base_income, base_cost,
		     base_level, multiplier, bonus_percent, active, sort_order)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (id) DO UPDATE
		    SET name = EXCLUDED.name,
		        description = EXCLUDED.description,
		        category = EXCLUDED.category,
		        curve = EXCLUDED.curve,
		        base_income = EXCLUDED.base_income,
		        base_cost = EXCLUDED.base_cost,
		        base_level = EXCLUDED.base_level,
		        multiplier = EXCLUDED.multiplier,
		        bonus_percent = EXCLUDED.bonus_percent,
		        active = EXCLUDED.active,
		        sort_order = EXCLUDED.sort_order
	`, inv.ID, inv.Name, inv.Description, inv.Category, inv.Curve,
		inv.BaseIncome, inv.BaseCost, inv.BaseLevel, inv.Multiplier,
		inv.BonusPercent, inv.Active, inv.SortOrder)
	return err
}

func scanInvestment(row pgx.Row) (*game.Investment, error) {
	var inv game.Investment
	err := row.Scan(&inv.ID, &inv.Name, &inv.Description, &inv.Category,
		&inv.Curve, &inv.BaseIncome, &inv.BaseCost, &inv.BaseLevel,
		&inv.Multiplier, &inv.BonusPercent, &inv.Active, &inv.SortOrder,
		&inv.CreatedAt)
	if err == pgx.ErrNoRows {
		return nil, game.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &inv, nil
}
