package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleanmanager/cleanmanager/internal/profitability"
	"github.com/cleanmanager/cleanmanager/jobs"
)

type stubService struct {
	last profitability.Query
	err  error
}

func (s *stubService) MonthlySummary(_ context.Context, q profitability.Query) (profitability.MonthlySummary, error) {
	s.last = q
	if s.err != nil {
		return profitability.MonthlySummary{}, s.err
	}
	return profitability.MonthlySummary{Month: q.Month, GrossRevenue: 12345.5, NetProfit: -80, Margin: 33.3}, nil
}

func (s *stubService) Trend(_ context.Context, q profitability.Query) ([]profitability.TrendPoint, error) {
	s.last = q
	return []profitability.TrendPoint{{Month: "2024-03", Revenue: 600, Expenses: 250, NetProfit: 350}}, nil
}

type stubQueue struct {
	payload jobs.ProfitabilityWarmupPayload
	closed  bool
}

func (q *stubQueue) TriggerWarmup(_ context.Context, p jobs.ProfitabilityWarmupPayload) (string, error) {
	q.payload = p
	return "task-1", nil
}

func (q *stubQueue) InspectQueue(context.Context) (QueueStats, error) {
	return QueueStats{Queue: jobs.QueueDefault, Pending: 2}, nil
}

func (q *stubQueue) Close() error {
	q.closed = true
	return nil
}

func run(t *testing.T, svc *stubService, queue *stubQueue, args ...string) (string, error) {
	t.Helper()
	closed := false
	root := NewRootCommand(Deps{
		Service: func(context.Context) (ProfitabilityService, func(), error) {
			return svc, func() { closed = true }, nil
		},
		Queue: func() (JobQueue, error) { return queue, nil },
		Now:   func() time.Time { return time.Date(2024, 3, 18, 9, 0, 0, 0, time.UTC) },
	})
	out := new(bytes.Buffer)
	root.SetOut(out)
	root.SetErr(new(bytes.Buffer))
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	if err == nil && len(args) > 0 && args[0] != "jobs" {
		assert.True(t, closed, "service closed")
	}
	return out.String(), err
}

func TestSummaryPrintsSpanishAmounts(t *testing.T) {
	svc := &stubService{}
	out, err := run(t, svc, nil, "summary", "--tenant", "ana@example.com", "--propiedad", " Casa Azul ")
	require.NoError(t, err)

	assert.Equal(t, profitability.Query{Tenant: "ana@example.com", Month: "2024-03", Property: "Casa Azul"}, svc.last)
	assert.Contains(t, out, "12.345,50 €")
	assert.Contains(t, out, "-80,00 €")
	assert.Contains(t, out, "33,3%")
	assert.Contains(t, out, " Casa Azul")
}

func TestSummaryJSON(t *testing.T) {
	out, err := run(t, &stubService{}, nil, "summary", "--tenant", "ana@example.com", "--mes", "2023-11", "--json")
	require.NoError(t, err)

	var body map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &body))
	assert.Equal(t, "2023-11", body["mes"])
}

func TestSummaryRequiresTenant(t *testing.T) {
	_, err := run(t, &stubService{}, nil, "summary")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tenant")
}

func TestSummaryPropagatesErrors(t *testing.T) {
	_, err := run(t, &stubService{err: profitability.ErrInvalidPeriod}, nil, "summary", "--tenant", "ana@example.com", "--mes", "2024-13")
	assert.True(t, errors.Is(err, profitability.ErrInvalidPeriod))
}

func TestTrendPassesMonths(t *testing.T) {
	svc := &stubService{}
	out, err := run(t, svc, nil, "trend", "--tenant", "ana@example.com", "--meses", "6")
	require.NoError(t, err)
	assert.Equal(t, 6, svc.last.Months)
	assert.Contains(t, out, "350,00 €")

	_, err = run(t, svc, nil, "trend", "--tenant", "ana@example.com", "--meses", "40")
	require.Error(t, err)
}

func TestJobsWarmupEnqueues(t *testing.T) {
	queue := &stubQueue{}
	out, err := run(t, nil, queue, "jobs", "warmup", "--tenant", "ana@example.com,luis@example.com", "--mes", "2024-02")
	require.NoError(t, err)

	assert.Equal(t, []string{"ana@example.com", "luis@example.com"}, queue.payload.Tenants)
	assert.Equal(t, "2024-02", queue.payload.Month)
	assert.Contains(t, out, "task-1")
	assert.True(t, queue.closed)

	_, err = run(t, nil, &stubQueue{}, "jobs", "warmup", "--mes", "marzo")
	require.ErrorIs(t, err, profitability.ErrInvalidPeriod)
}

func TestJobsStats(t *testing.T) {
	out, err := run(t, nil, &stubQueue{}, "jobs", "stats")
	require.NoError(t, err)
	assert.JSONEq(t, `{"queue":"default","pending":2,"active":0,"scheduled":0,"retry":0}`, out)
}
