package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/cleanmanager/cleanmanager/internal/jobs"
	"github.com/cleanmanager/cleanmanager/internal/profitability"
)

const tenantTimeout = 20 * time.Second

var defaultJobMetrics = jobmetrics.NewMetrics(nil)

// WarmupService is the part of the profitability service the job drives.
type WarmupService interface {
	MonthlySummary(ctx context.Context, q profitability.Query) (profitability.MonthlySummary, error)
	Trend(ctx context.Context, q profitability.Query) ([]profitability.TrendPoint, error)
}

// ProfitabilityWarmupJob fills the profitability cache so dashboard reads hit
// warm entries.
type ProfitabilityWarmupJob struct {
	Service WarmupService
	Tenants []string
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
	clock   func() time.Time
}

// NewProfitabilityWarmupJob wires dependencies for the warm-up handler.
// tenants is used when a task does not name any.
func NewProfitabilityWarmupJob(service WarmupService, tenants []string, logger *slog.Logger, metrics *jobmetrics.Metrics) *ProfitabilityWarmupJob {
	return &ProfitabilityWarmupJob{
		Service: service,
		Tenants: tenants,
		Logger:  logger,
		Metrics: metrics,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Handle processes warm-up tasks. A tenant failure is logged and the run
// continues; the task fails only when every tenant failed.
func (j *ProfitabilityWarmupJob) Handle(ctx context.Context, t *asynq.Task) (resultErr error) {
	if j == nil || j.Service == nil {
		return errors.New("profitability warmup: handler not configured")
	}
	var payload ProfitabilityWarmupPayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
	}
	month := strings.TrimSpace(payload.Month)
	if month == "" {
		month = profitability.MonthOf(j.now()).String()
	}
	if _, err := profitability.ParseMonth(month); err != nil {
		j.logger().Warn("invalid warmup month", slog.String("month", month))
		return asynq.SkipRetry
	}
	tenants := payload.Tenants
	if len(tenants) == 0 {
		tenants = j.Tenants
	}

	tracker := j.metrics().Track(TaskProfitabilityWarmup)
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	logger := j.logger().With(slog.String("month", month))
	if len(tenants) == 0 {
		logger.Info("no tenants configured for warmup")
		return resultErr
	}

	start := j.now()
	warmed, failed := 0, 0
	var lastErr error
	for _, tenant := range tenants {
		tenant = strings.TrimSpace(tenant)
		if tenant == "" {
			continue
		}
		if err := j.warmTenant(ctx, tenant, month); err != nil {
			failed++
			lastErr = err
			logger.Error("warm tenant", slog.String("tenant", tenant), slog.Any("error", err))
			continue
		}
		warmed++
	}
	j.metrics().AddWarmed("ok", warmed)
	j.metrics().AddWarmed("error", failed)

	if warmed == 0 && failed > 0 {
		resultErr = fmt.Errorf("profitability warmup: all %d tenants failed: %w", failed, lastErr)
		return resultErr
	}
	logger.Info("completed profitability warmup",
		slog.Int("tenants", warmed), slog.Int("failed", failed), slog.Duration("duration", j.now().Sub(start)))
	return resultErr
}

func (j *ProfitabilityWarmupJob) warmTenant(ctx context.Context, tenant, month string) error {
	ctx, cancel := context.WithTimeout(ctx, tenantTimeout)
	defer cancel()

	q := profitability.Query{Tenant: tenant, Month: month}
	if _, err := j.Service.MonthlySummary(ctx, q); err != nil {
		return err
	}
	if _, err := j.Service.Trend(ctx, q); err != nil {
		return err
	}
	return nil
}

func (j *ProfitabilityWarmupJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskProfitabilityWarmup))
	}
	return slog.Default().With(slog.String("job", TaskProfitabilityWarmup))
}

func (j *ProfitabilityWarmupJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}

func (j *ProfitabilityWarmupJob) now() time.Time {
	if j.clock != nil {
		return j.clock()
	}
	return time.Now().UTC()
}
