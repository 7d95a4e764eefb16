package profitability

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/cleanmanager/cleanmanager/internal/platform/supa"
)

// Dashboard tables read by the engine.
const (
	TableBookings      = "cm_reservas"
	TableCommissions   = "cm_comisiones"
	TableRecurring     = "cm_gastos_recurrentes"
	TableExtraordinary = "cm_gastos_extra"
	TableSplits        = "cm_reparto_ingresos"
	TableProperties    = "cm_propiedades"
	TableInventory     = "cm_inventario"
	TableConsumption   = "cm_consumos_mes"

	// TenantField scopes every table to a tenant.
	TenantField = "cliente_email"
)

// ErrTenantRequired is returned when a load is attempted without a tenant.
var ErrTenantRequired = errors.New("profitability: tenant required")

// ErrSourceUnavailable wraps failures of the mandatory bookings read.
var ErrSourceUnavailable = errors.New("profitability: data source unavailable")

// Repository loads the snapshot the engine works on.
type Repository interface {
	LoadSnapshot(ctx context.Context, tenant string) (*Snapshot, error)
}

// RowSource lists the raw JSON rows of a tenant-scoped table.
type RowSource interface {
	ListRows(ctx context.Context, table, tenant string) ([]json.RawMessage, error)
}

// SnapshotLoader implements Repository on top of a RowSource, reading every
// table concurrently.
type SnapshotLoader struct {
	source RowSource
	logger *slog.Logger
}

// NewSnapshotLoader wires a RowSource into a Repository.
func NewSnapshotLoader(source RowSource, logger *slog.Logger) *SnapshotLoader {
	if logger == nil {
		logger = slog.Default()
	}
	return &SnapshotLoader{source: source, logger: logger}
}

// LoadSnapshot reads all tables for tenant. A failure reading bookings aborts
// the load; any other table that fails is logged and left empty.
func (l *SnapshotLoader) LoadSnapshot(ctx context.Context, tenant string) (*Snapshot, error) {
	if tenant == "" {
		return nil, ErrTenantRequired
	}
	if l == nil || l.source == nil {
		return nil, fmt.Errorf("%w: no row source", ErrSourceUnavailable)
	}

	var (
		snap        Snapshot
		consumption []consumptionRow
	)
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		raw, err := l.source.ListRows(gctx, TableBookings, tenant)
		if err != nil {
			return fmt.Errorf("%w: %s: %w", ErrSourceUnavailable, TableBookings, err)
		}
		snap.Bookings = decodeTable(l, TableBookings, raw, bookingRow.toBooking)
		return nil
	})
	loadOptional(g, gctx, l, TableCommissions, tenant, commissionRow.toRule, &snap.CommissionRules)
	loadOptional(g, gctx, l, TableRecurring, tenant, recurringRow.toExpense, &snap.RecurringExpenses)
	loadOptional(g, gctx, l, TableExtraordinary, tenant, extraordinaryRow.toExpense, &snap.ExtraordinaryExpenses)
	loadOptional(g, gctx, l, TableSplits, tenant, splitRow.toPolicy, &snap.SplitPolicies)
	loadOptional(g, gctx, l, TableProperties, tenant, propertyRow.toProperty, &snap.Properties)
	loadOptional(g, gctx, l, TableInventory, tenant, inventoryRow.toItem, &snap.Inventory)
	loadOptional(g, gctx, l, TableConsumption, tenant, func(r consumptionRow) consumptionRow { return r }, &consumption)

	if err := g.Wait(); err != nil {
		return nil, err
	}
	snap.Consumption = groupConsumption(consumption)
	return &snap, nil
}

// loadOptional schedules the read of a table whose failure must not abort the
// snapshot.
func loadOptional[R any, T any](g *errgroup.Group, ctx context.Context, l *SnapshotLoader, table, tenant string, convert func(R) T, dest *[]T) {
	g.Go(func() error {
		raw, err := l.source.ListRows(ctx, table, tenant)
		if err != nil {
			if ctx.Err() == nil {
				l.logger.Warn("load table", slog.String("table", table), slog.Any("error", err))
			}
			*dest = make([]T, 0)
			return nil
		}
		*dest = decodeTable(l, table, raw, convert)
		return nil
	})
}

func decodeTable[R any, T any](l *SnapshotLoader, table string, raw []json.RawMessage, convert func(R) T) []T {
	rows, skipped := decodeRows(raw, convert)
	if skipped > 0 {
		l.logger.Warn("skipped malformed rows", slog.String("table", table), slog.Int("count", skipped))
	}
	return rows
}

// APISource reads tables through the dashboard worker.
type APISource struct {
	client *supa.Client
}

// NewAPISource wraps a worker client.
func NewAPISource(client *supa.Client) *APISource {
	return &APISource{client: client}
}

// ListRows implements RowSource.
func (s *APISource) ListRows(ctx context.Context, table, tenant string) ([]json.RawMessage, error) {
	var rows []json.RawMessage
	if err := s.client.List(ctx, table, TenantField, tenant, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}
