package profitability

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// undefinedTable is the SQLSTATE Postgres returns for a missing relation.
const undefinedTable = "42P01"

// Querier is the subset of pgxpool.Pool used by PGSource.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

var _ Querier = (*pgxpool.Pool)(nil)

// PGSource reads the dashboard tables straight from Postgres. Rows are
// serialised with to_jsonb so both sources share the same mapper.
type PGSource struct {
	db Querier
}

// NewPGSource wraps a pool.
func NewPGSource(db Querier) *PGSource {
	return &PGSource{db: db}
}

// ListRows implements RowSource. A table that does not exist yields no rows.
func (s *PGSource) ListRows(ctx context.Context, table, tenant string) ([]json.RawMessage, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("profitability: postgres source not configured")
	}
	query := fmt.Sprintf(`SELECT to_jsonb(t) FROM %s AS t WHERE t.%s = $1`,
		pgx.Identifier{table}.Sanitize(), pgx.Identifier{TenantField}.Sanitize())
	rows, err := s.db.Query(ctx, query, tenant)
	if err != nil {
		if isUndefinedTable(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("profitability: query %s: %w", table, err)
	}
	raw, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (json.RawMessage, error) {
		var payload []byte
		if err := row.Scan(&payload); err != nil {
			return nil, err
		}
		return json.RawMessage(payload), nil
	})
	if err != nil {
		if isUndefinedTable(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("profitability: scan %s: %w", table, err)
	}
	return raw, nil
}

func isUndefinedTable(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == undefinedTable
}
