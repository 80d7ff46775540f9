// pkg/tenants/postgres.go
package tenants

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// pgStore implements Store backed by PostgreSQL.
type pgStore struct {
	dbPool *pgxpool.Pool      // Connection pool to PostgreSQL
	log    *zap.SugaredLogger // Logger for diagnostic output
}

// NewPostgresStore constructs a PostgreSQL-backed tenant store.
func NewPostgresStore(dbPool *pgxpool.Pool, log *zap.SugaredLogger) Store {
	return &pgStore{dbPool: dbPool, log: log}
}

// EnsureSchema creates required tables if they do not already exist.
// Safe to call repeatedly (idempotent).
func EnsureSchema(ctx context.Context, dbPool *pgxpool.Pool) error {
	_, err := dbPool.Exec(ctx, `
CREATE TABLE IF NOT EXISTS tenants (
  shop text PRIMARY KEY,
  access_token bytea,
  min_order_value bigint,
  surcharge bigint NOT NULL DEFAULT 0,
  surcharge_label jsonb NOT NULL DEFAULT '{}'::jsonb,
  created_at timestamptz NOT NULL DEFAULT NOW(),
  updated_at timestamptz NOT NULL DEFAULT NOW()
);
`)
	return err
}

// SeedFromEnv ingests initial tenant data (TENANT_SEED_JSON), dev/demo only.
// jsonSeed format:
//
//	[{"shop":"acme.myshopify.com","min_order_value":5000,"surcharge":500,
//	  "surcharge_label":{"en":"Small order fee"}}]
func SeedFromEnv(ctx context.Context, dbPool *pgxpool.Pool, jsonSeed string) error {
	if jsonSeed == "" {
		return nil
	}
	var entries []struct {
		Shop           string            `json:"shop"`
		MinOrderValue  *int64            `json:"min_order_value"`
		Surcharge      int64             `json:"surcharge"`
		SurchargeLabel map[string]string `json:"surcharge_label"`
	}
	if err := json.Unmarshal([]byte(jsonSeed), &entries); err != nil {
		return err
	}
	for _, entry := range entries {
		label := entry.SurchargeLabel
		if label == nil {
			label = map[string]string{}
		}
		_, err := dbPool.Exec(ctx, `INSERT INTO tenants(shop,min_order_value,surcharge,surcharge_label)
		  VALUES ($1,$2,$3,$4)
		  ON CONFLICT (shop) DO UPDATE SET min_order_value=EXCLUDED.min_order_value,surcharge=EXCLUDED.surcharge,surcharge_label=EXCLUDED.surcharge_label,updated_at=NOW()`,
			entry.Shop, entry.MinOrderValue, entry.Surcharge, label)
		if err != nil {
			return fmt.Errorf("seed %s: %w", entry.Shop, err)
		}
	}
	return nil
}

func (p *pgStore) FindByShop(ctx context.Context, shop string) (Tenant, error) {
	row := p.dbPool.QueryRow(ctx, `SELECT shop,access_token,min_order_value,surcharge,surcharge_label FROM tenants WHERE shop=$1`, shop)
	return scanTenant(row)
}

func (p *pgStore) ListShops(ctx context.Context) ([]string, error) {
	rows, err := p.dbPool.Query(ctx, `SELECT shop FROM tenants`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var shops []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		shops = append(shops, s)
	}
	return shops, rows.Err()
}

// UpsertCredentials merges only the credential column; an existing shop's
// configuration survives a re-install.
func (p *pgStore) UpsertCredentials(ctx context.Context, shop string, ciphertext []byte) (Tenant, error) {
	row := p.dbPool.QueryRow(ctx, `INSERT INTO tenants(shop,access_token)
	  VALUES ($1,$2)
	  ON CONFLICT (shop) DO UPDATE SET access_token=EXCLUDED.access_token,updated_at=NOW()
	  RETURNING shop,access_token,min_order_value,surcharge,surcharge_label`, shop, ciphertext)
	return scanTenant(row)
}

// UpsertConfig merges only the configuration columns; the stored credential
// survives a config change.
func (p *pgStore) UpsertConfig(ctx context.Context, shop string, minOrderValue, surcharge int64, label map[string]string) (Tenant, error) {
	if label == nil {
		label = map[string]string{}
	}
	row := p.dbPool.QueryRow(ctx, `INSERT INTO tenants(shop,min_order_value,surcharge,surcharge_label)
	  VALUES ($1,$2,$3,$4)
	  ON CONFLICT (shop) DO UPDATE SET min_order_value=EXCLUDED.min_order_value,surcharge=EXCLUDED.surcharge,surcharge_label=EXCLUDED.surcharge_label,updated_at=NOW()
	  RETURNING shop,access_token,min_order_value,surcharge,surcharge_label`, shop, minOrderValue, surcharge, label)
	return scanTenant(row)
}

func scanTenant(row pgx.Row) (Tenant, error) {
	var t Tenant
	var labelJSON []byte
	if err := row.Scan(&t.Shop, &t.AccessToken, &t.MinOrderValue, &t.Surcharge, &labelJSON); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Tenant{}, ErrNotFound
		}
		return Tenant{}, err
	}
	if len(labelJSON) > 0 {
		_ = json.Unmarshal(labelJSON, &t.SurchargeLabel)
	}
	if t.SurchargeLabel == nil {
		t.SurchargeLabel = map[string]string{}
	}
	return t, nil
}
