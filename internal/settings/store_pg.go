package settings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cleanmanager/cleanmanager/internal/platform/db"
	"github.com/cleanmanager/cleanmanager/internal/platform/httpx"
	"github.com/cleanmanager/cleanmanager/internal/profitability"
)

// PGConn is the subset of pgxpool.Pool used by PGStore.
type PGConn interface {
	db.TxBeginner
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

var _ PGConn = (*pgxpool.Pool)(nil)

// PGStore keeps configuration in the dashboard tables.
type PGStore struct {
	pool PGConn
}

// NewPGStore wraps a pool.
func NewPGStore(pool PGConn) *PGStore {
	return &PGStore{pool: pool}
}

// List implements Store.
func (s *PGStore) List(ctx context.Context, table, tenant string) ([]Record, error) {
	rows, err := s.pool.Query(ctx, buildSelect(table), tenant)
	if err != nil {
		return nil, fmt.Errorf("settings: select %s: %w", table, err)
	}
	recs, err := pgx.CollectRows(rows, scanRecord)
	if err != nil {
		return nil, fmt.Errorf("settings: scan %s: %w", table, err)
	}
	return recs, nil
}

// Create implements Store.
func (s *PGStore) Create(ctx context.Context, table string, rec Record) (Record, error) {
	sql, args := buildInsert(table, rec)
	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("settings: insert %s: %w", table, err)
	}
	created, err := pgx.CollectExactlyOneRow(rows, scanRecord)
	if err != nil {
		return nil, fmt.Errorf("settings: insert %s: %w", table, err)
	}
	return created, nil
}

// Update implements Store. The row is locked before it is rewritten.
func (s *PGStore) Update(ctx context.Context, table, tenant, id string, rec Record) (Record, error) {
	var updated Record
	err := db.WithTx(ctx, s.pool, func(tx pgx.Tx) error {
		lock := fmt.Sprintf(`SELECT 1 FROM %s WHERE id::text = $1 AND %s = $2 FOR UPDATE`,
			quote(table), quote(profitability.TenantField))
		tag, err := tx.Exec(ctx, lock, id, tenant)
		if err != nil {
			return fmt.Errorf("settings: lock %s %s: %w", table, id, err)
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("settings: %s %s: %w", table, id, httpx.ErrNotFound)
		}
		sql, args := buildUpdate(table, tenant, id, rec)
		rows, err := tx.Query(ctx, sql, args...)
		if err != nil {
			return fmt.Errorf("settings: update %s %s: %w", table, id, err)
		}
		updated, err = pgx.CollectExactlyOneRow(rows, scanRecord)
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("settings: %s %s: %w", table, id, httpx.ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("settings: update %s %s: %w", table, id, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// SetActive implements Store.
func (s *PGStore) SetActive(ctx context.Context, table, tenant, id string, active bool) error {
	sql := fmt.Sprintf(`UPDATE %s SET activo = $1 WHERE id::text = $2 AND %s = $3`,
		quote(table), quote(profitability.TenantField))
	tag, err := s.pool.Exec(ctx, sql, active, id, tenant)
	if err != nil {
		return fmt.Errorf("settings: toggle %s %s: %w", table, id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("settings: %s %s: %w", table, id, httpx.ErrNotFound)
	}
	return nil
}

// Delete implements Store.
func (s *PGStore) Delete(ctx context.Context, table, tenant, id string) error {
	sql := fmt.Sprintf(`DELETE FROM %s WHERE id::text = $1 AND %s = $2`,
		quote(table), quote(profitability.TenantField))
	tag, err := s.pool.Exec(ctx, sql, id, tenant)
	if err != nil {
		return fmt.Errorf("settings: delete %s %s: %w", table, id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("settings: %s %s: %w", table, id, httpx.ErrNotFound)
	}
	return nil
}

func buildSelect(table string) string {
	return fmt.Sprintf(`SELECT to_jsonb(t) FROM %s AS t WHERE t.%s = $1 ORDER BY t.id`,
		quote(table), quote(profitability.TenantField))
}

// buildInsert renders an INSERT with columns in a stable order.
func buildInsert(table string, rec Record) (string, []any) {
	cols := sortedColumns(rec)
	names := make([]string, len(cols))
	marks := make([]string, len(cols))
	args := make([]any, len(cols))
	for i, col := range cols {
		names[i] = quote(col)
		marks[i] = fmt.Sprintf("$%d", i+1)
		args[i] = rec[col]
	}
	sql := fmt.Sprintf(`INSERT INTO %s AS t (%s) VALUES (%s) RETURNING to_jsonb(t)`,
		quote(table), strings.Join(names, ", "), strings.Join(marks, ", "))
	return sql, args
}

// buildUpdate renders a tenant scoped UPDATE. id and the tenant column are
// never rewritten.
func buildUpdate(table, tenant, id string, rec Record) (string, []any) {
	cols := sortedColumns(rec)
	sets := make([]string, 0, len(cols))
	args := make([]any, 0, len(cols)+2)
	for _, col := range cols {
		if col == "id" || col == profitability.TenantField {
			continue
		}
		args = append(args, rec[col])
		sets = append(sets, fmt.Sprintf("%s = $%d", quote(col), len(args)))
	}
	args = append(args, id, tenant)
	sql := fmt.Sprintf(`UPDATE %s AS t SET %s WHERE t.id::text = $%d AND t.%s = $%d RETURNING to_jsonb(t)`,
		quote(table), strings.Join(sets, ", "), len(args)-1, quote(profitability.TenantField), len(args))
	return sql, args
}

func sortedColumns(rec Record) []string {
	cols := make([]string, 0, len(rec))
	for col := range rec {
		cols = append(cols, col)
	}
	sort.Strings(cols)
	return cols
}

func scanRecord(row pgx.CollectableRow) (Record, error) {
	var payload []byte
	if err := row.Scan(&payload); err != nil {
		return nil, err
	}
	var rec Record
	if err := json.Unmarshal(payload, &rec); err != nil {
		return nil, fmt.Errorf("decode row: %w", err)
	}
	return rec, nil
}

func quote(name string) string {
	return pgx.Identifier{name}.Sanitize()
}
