package settings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleanmanager/cleanmanager/internal/platform/httpx"
	"github.com/cleanmanager/cleanmanager/internal/profitability"
)

type memStore struct {
	mu      sync.Mutex
	tables  map[string][]Record
	failing error
}

func newMemStore() *memStore {
	return &memStore{tables: map[string][]Record{
		profitability.TableProperties: {
			{"id": "p1", "propiedad_nombre": "Casa Azul", "cliente_email": "ana@example.com"},
			{"id": "p2", "propiedad_nombre": "Loft", "cliente_email": "otro@example.com"},
		},
	}}
}

func (m *memStore) List(_ context.Context, table, tenant string) ([]Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failing != nil {
		return nil, m.failing
	}
	var out []Record
	for _, r := range m.tables[table] {
		if r[profitability.TenantField] == tenant {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memStore) Create(_ context.Context, table string, rec Record) (Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tables[table] = append(m.tables[table], rec)
	return rec, nil
}

func (m *memStore) Update(_ context.Context, table, tenant, id string, rec Record) (Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, r := range m.tables[table] {
		if r.ID() == id && r[profitability.TenantField] == tenant {
			rec["id"] = id
			m.tables[table][i] = rec
			return rec, nil
		}
	}
	return nil, httpx.ErrNotFound
}

func (m *memStore) SetActive(_ context.Context, table, tenant, id string, active bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.tables[table] {
		if r.ID() == id && r[profitability.TenantField] == tenant {
			r["activo"] = active
			return nil
		}
	}
	return httpx.ErrNotFound
}

func (m *memStore) Delete(_ context.Context, table, tenant, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rows := m.tables[table]
	for i, r := range rows {
		if r.ID() == id && r[profitability.TenantField] == tenant {
			m.tables[table] = append(rows[:i], rows[i+1:]...)
			return nil
		}
	}
	return httpx.ErrNotFound
}

type countingInvalidator struct {
	calls int
	err   error
}

func (c *countingInvalidator) Invalidate(context.Context) error {
	c.calls++
	return c.err
}

func newTestService(t *testing.T) (*Service, *memStore, *countingInvalidator) {
	t.Helper()
	store := newMemStore()
	inv := &countingInvalidator{}
	svc := NewService(store, inv, nil)
	n := 0
	svc.newID = func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
	return svc, store, inv
}

func TestCreateCommissionAppliesDefaults(t *testing.T) {
	svc, store, inv := newTestService(t)

	rec, err := svc.Create(context.Background(), ResourceCommissions, "ana@example.com", &CommissionInput{
		Platform:    "booking",
		Kind:        "porcentaje",
		Percentage:  15,
		FixedAmount: 9,
		Property:    "p1",
	})
	require.NoError(t, err)

	assert.Equal(t, "id-1", rec.ID())
	assert.Equal(t, "booking", rec["nombre_mostrar"])
	assert.Equal(t, 0.0, rec["importe_fijo"])
	assert.Equal(t, 15.0, rec["porcentaje"])
	assert.Equal(t, true, rec["activo"])
	assert.Equal(t, "Casa Azul", rec["propiedad_nombre"])
	assert.Equal(t, "ana@example.com", rec[profitability.TenantField])
	assert.Len(t, store.tables[profitability.TableCommissions], 1)
	assert.Equal(t, 1, inv.calls)
}

func TestCreateRejectsInvalidPayload(t *testing.T) {
	svc, _, inv := newTestService(t)

	_, err := svc.Create(context.Background(), ResourceCommissions, "ana@example.com", &CommissionInput{
		Platform: "expedia",
		Kind:     "porcentaje",
	})
	require.ErrorIs(t, err, httpx.ErrValidation)
	assert.Contains(t, err.Error(), "plataforma (oneof)")
	assert.Zero(t, inv.calls)
}

func TestCreateRejectsForeignProperty(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.Create(context.Background(), ResourceCommissions, "ana@example.com", &CommissionInput{
		Platform: "airbnb", Kind: "fijo", FixedAmount: 10, Property: "p2",
	})
	require.ErrorIs(t, err, httpx.ErrValidation)
}

func TestCreateSplitDefaults(t *testing.T) {
	svc, _, _ := newTestService(t)

	rec, err := svc.Create(context.Background(), ResourceSplits, "ana@example.com", &SplitInput{Model: "porcentaje"})
	require.NoError(t, err)
	assert.Equal(t, 70.0, rec["porcentaje_propietario"])
	assert.Equal(t, "neto", rec["calcular_sobre"])
	assert.Equal(t, true, rec["descontar_limpieza"])
	assert.Equal(t, false, rec["descontar_suministros"])
	assert.Nil(t, rec["propiedad_id"])
}

func TestRecurringValidation(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, ResourceRecurring, "ana@example.com", &RecurringInput{Name: "Luz", Amount: 60, StartDate: "01/02/2024"})
	require.ErrorIs(t, err, httpx.ErrValidation)
	assert.Contains(t, err.Error(), "fecha_inicio (datetime)")

	_, err = svc.Create(ctx, ResourceRecurring, "ana@example.com", &RecurringInput{
		Name: "Luz", Amount: 60, StartDate: "2024-03-01", EndDate: "2024-02-01",
	})
	require.ErrorIs(t, err, httpx.ErrValidation)

	rec, err := svc.Create(ctx, ResourceRecurring, "ana@example.com", &RecurringInput{Name: " Luz ", Amount: 60, StartDate: "2024-01-01"})
	require.NoError(t, err)
	assert.Equal(t, "Luz", rec["nombre"])
	assert.Equal(t, "suministros", rec["categoria"])
	assert.Equal(t, "mensual", rec["periodicidad"])
	assert.Equal(t, true, rec["prorratear"])
	assert.Nil(t, rec["fecha_fin"])
	assert.NotContains(t, rec, "dia_cargo")
}

func TestUpdateRequiresOwnership(t *testing.T) {
	svc, store, inv := newTestService(t)
	ctx := context.Background()
	store.tables[profitability.TableExtraordinary] = []Record{
		{"id": "x1", "cliente_email": "otro@example.com", "concepto": "Caldera"},
	}

	_, err := svc.Update(ctx, ResourceExtraordinary, "ana@example.com", "x1", &ExtraordinaryInput{
		Date: "2024-03-10", Concept: "Caldera", Amount: 80,
	})
	require.ErrorIs(t, err, httpx.ErrNotFound)
	assert.Zero(t, inv.calls)

	rec, err := svc.Update(ctx, ResourceExtraordinary, "otro@example.com", "x1", &ExtraordinaryInput{
		Date: "2024-03-10", Concept: "Caldera nueva", Amount: 80,
	})
	require.NoError(t, err)
	assert.Equal(t, "Caldera nueva", rec["concepto"])
	assert.Equal(t, "otros", rec["categoria"])
	assert.Equal(t, 1, inv.calls)
}

func TestSetActiveAndDelete(t *testing.T) {
	svc, store, inv := newTestService(t)
	ctx := context.Background()

	rec, err := svc.Create(ctx, ResourceCommissions, "ana@example.com", &CommissionInput{Platform: "vrbo", Kind: "fijo", FixedAmount: 12})
	require.NoError(t, err)

	require.NoError(t, svc.SetActive(ctx, ResourceCommissions, "ana@example.com", rec.ID(), false))
	assert.Equal(t, false, store.tables[profitability.TableCommissions][0]["activo"])

	err = svc.SetActive(ctx, ResourceExtraordinary, "ana@example.com", rec.ID(), false)
	require.ErrorIs(t, err, httpx.ErrValidation)

	require.NoError(t, svc.Delete(ctx, ResourceCommissions, "ana@example.com", rec.ID()))
	assert.Empty(t, store.tables[profitability.TableCommissions])
	require.ErrorIs(t, svc.Delete(ctx, ResourceCommissions, "ana@example.com", rec.ID()), httpx.ErrNotFound)
	assert.Equal(t, 3, inv.calls)
}

func TestNumericIDs(t *testing.T) {
	var rows []Record
	require.NoError(t, json.Unmarshal([]byte(`[
		{"id": 1234567, "plataforma": "booking", "cliente_email": "ana@example.com"},
		{"id": 2500000, "propiedad_nombre": "Ático", "cliente_email": "ana@example.com"}
	]`), &rows))
	assert.Equal(t, "1234567", rows[0].ID())
	assert.Equal(t, "2500000", rows[1].ID())
	assert.Equal(t, "42", Record{"id": json.Number("42")}.ID())
	assert.Equal(t, "7", Record{"id": int64(7)}.ID())

	svc, store, _ := newTestService(t)
	ctx := context.Background()
	store.tables[profitability.TableCommissions] = []Record{rows[0]}
	store.tables[profitability.TableProperties] = append(store.tables[profitability.TableProperties], rows[1])

	rec, err := svc.Create(ctx, ResourceCommissions, "ana@example.com", &CommissionInput{
		Platform: "airbnb", Kind: "fijo", FixedAmount: 10, Property: "2500000",
	})
	require.NoError(t, err)
	assert.Equal(t, "Ático", rec["propiedad_nombre"])

	require.NoError(t, svc.SetActive(ctx, ResourceCommissions, "ana@example.com", "1234567", false))
	require.NoError(t, svc.Delete(ctx, ResourceCommissions, "ana@example.com", "1234567"))
}

func TestInvalidationFailureDoesNotFailWrite(t *testing.T) {
	svc, _, inv := newTestService(t)
	inv.err = errors.New("redis down")

	_, err := svc.Create(context.Background(), ResourceSplits, "ana@example.com", &SplitInput{Model: "neto"})
	require.NoError(t, err)
	assert.Equal(t, 1, inv.calls)
}

func TestTenantRequired(t *testing.T) {
	svc, _, _ := newTestService(t)
	_, err := svc.List(context.Background(), ResourceCommissions, "")
	require.ErrorIs(t, err, ErrTenantRequired)
	_, err = svc.Create(context.Background(), ResourceSplits, "", &SplitInput{Model: "neto"})
	require.ErrorIs(t, err, ErrTenantRequired)
}

func TestListWrapsStoreErrors(t *testing.T) {
	svc, store, _ := newTestService(t)
	store.failing = fmt.Errorf("%w: boom", httpx.ErrUpstream)

	_, err := svc.List(context.Background(), ResourceRecurring, "ana@example.com")
	require.ErrorIs(t, err, httpx.ErrUpstream)
}

func TestParseResource(t *testing.T) {
	res, err := ParseResource(" Comisiones ")
	require.NoError(t, err)
	assert.Equal(t, profitability.TableCommissions, res.Table())

	_, err = ParseResource("reservas")
	require.ErrorIs(t, err, httpx.ErrNotFound)
}
