package profitability

import (
	"context"
	"log/slog"
	"strings"
	"time"
)

// Observer records how long profitability operations take.
type Observer interface {
	ObserveCalculation(operation string, elapsed time.Duration, err error)
}

// Query selects the tenant, month and optional property of a calculation.
type Query struct {
	Tenant   string
	Month    string
	Property string
	// Months is the trend length; zero uses the service default.
	Months int
}

// Service loads tenant snapshots, runs the engine and caches the results.
type Service struct {
	repo        Repository
	cache       *Cache
	logger      *slog.Logger
	observer    Observer
	trendMonths int
}

// NewService wires a Repository with a Cache helper. cache may be nil.
func NewService(repo Repository, cache *Cache, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, cache: cache, logger: logger, trendMonths: DefaultTrendMonths}
}

// WithObserver attaches a timing observer.
func (s *Service) WithObserver(o Observer) *Service {
	s.observer = o
	return s
}

// WithTrendMonths overrides the default trend length.
func (s *Service) WithTrendMonths(n int) *Service {
	if n > 0 {
		s.trendMonths = n
	}
	return s
}

// TrendMonths reports the default trend length.
func (s *Service) TrendMonths() int {
	return s.trendMonths
}

// MonthlySummary returns the profit-and-loss summary for q.
func (s *Service) MonthlySummary(ctx context.Context, q Query) (summary MonthlySummary, err error) {
	defer s.observe("summary", time.Now(), &err)

	q, month, err := s.prepare(q)
	if err != nil {
		return MonthlySummary{}, err
	}
	loader := func(ctx context.Context) (any, error) {
		snap, filter, err := s.load(ctx, q)
		if err != nil {
			return MonthlySummary{}, err
		}
		return CalcMonth(snap, month, filter), nil
	}

	if s.cache == nil {
		value, err := loader(ctx)
		if err != nil {
			return MonthlySummary{}, err
		}
		return value.(MonthlySummary), nil
	}

	key, err := s.cache.BuildKey(ctx, keySummary(q.Tenant, q.Property, month))
	if err != nil {
		return MonthlySummary{}, err
	}
	if err := s.cache.FetchJSON(ctx, key, &summary, loader); err != nil {
		return MonthlySummary{}, err
	}
	return summary, nil
}

// Trend returns the net profit series of the q.Months months ending at q.Month.
// The snapshot is loaded once for the whole series.
func (s *Service) Trend(ctx context.Context, q Query) (points []TrendPoint, err error) {
	defer s.observe("trend", time.Now(), &err)

	q, month, err := s.prepare(q)
	if err != nil {
		return nil, err
	}
	months := q.Months
	if months <= 0 {
		months = s.trendMonths
	}
	loader := func(ctx context.Context) (any, error) {
		snap, filter, err := s.load(ctx, q)
		if err != nil {
			return nil, err
		}
		return Trend(snap, month, filter, months), nil
	}

	if s.cache == nil {
		value, err := loader(ctx)
		if err != nil {
			return nil, err
		}
		return value.([]TrendPoint), nil
	}

	key, err := s.cache.BuildKey(ctx, keyTrend(q.Tenant, q.Property, month, months))
	if err != nil {
		return nil, err
	}
	if err := s.cache.FetchJSON(ctx, key, &points, loader); err != nil {
		return nil, err
	}
	return points, nil
}

// Invalidate drops every cached result. Settings writes call it.
func (s *Service) Invalidate(ctx context.Context) error {
	if s == nil || s.cache == nil {
		return nil
	}
	return s.cache.Bump(ctx)
}

func (s *Service) prepare(q Query) (Query, Month, error) {
	q.Tenant = strings.TrimSpace(q.Tenant)
	q.Property = strings.TrimSpace(q.Property)
	if q.Tenant == "" {
		return q, Month{}, ErrTenantRequired
	}
	month, err := ParseMonth(q.Month)
	if err != nil {
		return q, Month{}, err
	}
	return q, month, nil
}

func (s *Service) load(ctx context.Context, q Query) (*Snapshot, PropertyFilter, error) {
	snap, err := s.repo.LoadSnapshot(ctx, q.Tenant)
	if err != nil {
		return nil, PropertyFilter{}, err
	}
	filter, err := snap.ResolveProperty(q.Property)
	if err != nil {
		return nil, PropertyFilter{}, err
	}
	s.logger.Debug("profitability snapshot loaded",
		slog.String("tenant", q.Tenant),
		slog.Int("bookings", len(snap.Bookings)),
		slog.String("property", filter.ID))
	return snap, filter, nil
}

func (s *Service) observe(operation string, start time.Time, err *error) {
	if s.observer == nil {
		return
	}
	s.observer.ObserveCalculation(operation, time.Since(start), *err)
}
