package profitability

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockRepo struct {
	mu    sync.Mutex
	snap  *Snapshot
	err   error
	calls int
}

func (m *mockRepo) LoadSnapshot(ctx context.Context, tenant string) (*Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.snap.Clone(), nil
}

func (m *mockRepo) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

type recordingObserver struct {
	operations []string
	failures   int
}

func (r *recordingObserver) ObserveCalculation(operation string, elapsed time.Duration, err error) {
	r.operations = append(r.operations, operation)
	if err != nil {
		r.failures++
	}
}

func newTestService(t *testing.T, repo Repository) (*Service, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewService(repo, NewCache(client, time.Minute), nil), mr
}

func TestMonthlySummaryCaches(t *testing.T) {
	repo := &mockRepo{snap: marchSnapshot()}
	svc, _ := newTestService(t, repo)
	ctx := context.Background()
	q := Query{Tenant: "ana@example.com", Month: "2024-03"}

	summary, err := svc.MonthlySummary(ctx, q)
	require.NoError(t, err)
	assert.InDelta(t, 600, summary.GrossRevenue, 1e-9)
	assert.Equal(t, 1, repo.callCount())

	summary, err = svc.MonthlySummary(ctx, q)
	require.NoError(t, err)
	assert.InDelta(t, 350, summary.NetProfit, 1e-9)
	assert.Equal(t, 1, repo.callCount(), "second call should hit the cache")

	require.NoError(t, svc.Invalidate(ctx))
	repo.snap.Bookings = repo.snap.Bookings[:0]
	summary, err = svc.MonthlySummary(ctx, q)
	require.NoError(t, err)
	assert.Equal(t, 2, repo.callCount())
	assert.Zero(t, summary.GrossRevenue)
}

func TestMonthlySummaryKeysByProperty(t *testing.T) {
	repo := &mockRepo{snap: marchSnapshot()}
	svc, _ := newTestService(t, repo)
	ctx := context.Background()

	all, err := svc.MonthlySummary(ctx, Query{Tenant: "ana@example.com", Month: "2024-03"})
	require.NoError(t, err)
	casa, err := svc.MonthlySummary(ctx, Query{Tenant: "ana@example.com", Month: "2024-03", Property: " Casa Azul "})
	require.NoError(t, err)

	assert.InDelta(t, 600, all.GrossRevenue, 1e-9)
	assert.InDelta(t, 300, casa.GrossRevenue, 1e-9)
	assert.Equal(t, 2, repo.callCount())
}

func TestMonthlySummaryWithoutCache(t *testing.T) {
	repo := &mockRepo{snap: marchSnapshot()}
	obs := &recordingObserver{}
	svc := NewService(repo, nil, nil).WithObserver(obs)

	_, err := svc.MonthlySummary(context.Background(), Query{Tenant: "ana@example.com", Month: "2024-03"})
	require.NoError(t, err)
	_, err = svc.MonthlySummary(context.Background(), Query{Tenant: "ana@example.com", Month: "2024-03"})
	require.NoError(t, err)
	assert.Equal(t, 2, repo.callCount())
	assert.Equal(t, []string{"summary", "summary"}, obs.operations)
}

func TestMonthlySummaryValidatesBeforeLoading(t *testing.T) {
	repo := &mockRepo{snap: marchSnapshot()}
	obs := &recordingObserver{}
	svc, _ := newTestService(t, repo)
	svc.WithObserver(obs)
	ctx := context.Background()

	_, err := svc.MonthlySummary(ctx, Query{Tenant: "ana@example.com", Month: "2024-13"})
	assert.ErrorIs(t, err, ErrInvalidPeriod)
	_, err = svc.MonthlySummary(ctx, Query{Month: "2024-03"})
	assert.ErrorIs(t, err, ErrTenantRequired)
	assert.Zero(t, repo.callCount())
	assert.Equal(t, 2, obs.failures)
}

func TestMonthlySummaryDoesNotCacheFailures(t *testing.T) {
	repo := &mockRepo{err: errors.New("down")}
	svc, _ := newTestService(t, repo)
	ctx := context.Background()
	q := Query{Tenant: "ana@example.com", Month: "2024-03"}

	_, err := svc.MonthlySummary(ctx, q)
	require.Error(t, err)

	repo.err = nil
	repo.snap = marchSnapshot()
	summary, err := svc.MonthlySummary(ctx, q)
	require.NoError(t, err)
	assert.InDelta(t, 600, summary.GrossRevenue, 1e-9)
	assert.Equal(t, 2, repo.callCount())
}

func TestMonthlySummaryAmbiguousProperty(t *testing.T) {
	snap := marchSnapshot()
	snap.Properties = append(snap.Properties, Property{ID: "p3", Name: "Casa Azul"})
	svc, _ := newTestService(t, &mockRepo{snap: snap})

	_, err := svc.MonthlySummary(context.Background(), Query{Tenant: "ana@example.com", Month: "2024-03", Property: "Casa Azul"})
	assert.ErrorIs(t, err, ErrAmbiguousProperty)
}

func TestTrendUsesDefaultLengthAndCaches(t *testing.T) {
	repo := &mockRepo{snap: marchSnapshot()}
	svc, _ := newTestService(t, repo)
	svc.WithTrendMonths(3)
	ctx := context.Background()
	q := Query{Tenant: "ana@example.com", Month: "2024-03"}

	points, err := svc.Trend(ctx, q)
	require.NoError(t, err)
	require.Len(t, points, 3)
	assert.Equal(t, "2024-01", points[0].Month)
	assert.Equal(t, "2024-03", points[2].Month)
	assert.InDelta(t, 350, points[2].NetProfit, 1e-9)

	_, err = svc.Trend(ctx, q)
	require.NoError(t, err)
	assert.Equal(t, 1, repo.callCount())

	q.Months = 6
	points, err = svc.Trend(ctx, q)
	require.NoError(t, err)
	assert.Len(t, points, 6)
	assert.Equal(t, 2, repo.callCount())
}

func TestInvalidateWithoutCache(t *testing.T) {
	assert.NoError(t, NewService(&mockRepo{}, nil, nil).Invalidate(context.Background()))
}
