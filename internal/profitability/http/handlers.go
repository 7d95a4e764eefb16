package profitabilityhttp

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/cleanmanager/cleanmanager/internal/platform/httpx"
	"github.com/cleanmanager/cleanmanager/internal/platform/supa"
	"github.com/cleanmanager/cleanmanager/internal/profitability"
	"github.com/cleanmanager/cleanmanager/internal/profitability/export"
	"github.com/cleanmanager/cleanmanager/internal/profitability/svg"
	"github.com/cleanmanager/cleanmanager/internal/shared"
)

const (
	requestTimeout = 10 * time.Second
	maxTrendMonths = 24
)

// ProfitabilityService defines the data contract used by the handler.
type ProfitabilityService interface {
	MonthlySummary(ctx context.Context, q profitability.Query) (profitability.MonthlySummary, error)
	Trend(ctx context.Context, q profitability.Query) ([]profitability.TrendPoint, error)
}

// Handler serves the profitability dashboard endpoints.
type Handler struct {
	logger  *slog.Logger
	service ProfitabilityService
	flight  singleflight.Group
	csvPool sync.Pool
	now     func() time.Time
}

// NewHandler constructs the profitability HTTP handler.
func NewHandler(logger *slog.Logger, service ProfitabilityService) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	h := &Handler{
		logger:  logger,
		service: service,
		now:     time.Now,
	}
	h.csvPool.New = func() any { return new(bytes.Buffer) }
	return h
}

// WithNow overrides the handler clock for testing.
func (h *Handler) WithNow(fn func() time.Time) {
	if fn != nil {
		h.now = fn
	}
}

func (h *Handler) handleSummary(w http.ResponseWriter, r *http.Request) {
	q, err := h.parseQuery(r)
	if err != nil {
		h.respondError(w, "parse query", err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	summary, err := h.summary(ctx, q)
	if err != nil {
		h.respondError(w, "load summary", err)
		return
	}
	httpx.JSON(w, http.StatusOK, summary)
}

func (h *Handler) handleTrend(w http.ResponseWriter, r *http.Request) {
	q, err := h.parseQuery(r)
	if err != nil {
		h.respondError(w, "parse query", err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	points, err := h.trend(ctx, q)
	if err != nil {
		h.respondError(w, "load trend", err)
		return
	}
	httpx.JSON(w, http.StatusOK, points)
}

func (h *Handler) handleCSV(w http.ResponseWriter, r *http.Request) {
	q, err := h.parseQuery(r)
	if err != nil {
		h.respondError(w, "parse query", err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	var (
		summary profitability.MonthlySummary
		points  []profitability.TrendPoint
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		summary, err = h.summary(gctx, q)
		return err
	})
	g.Go(func() error {
		var err error
		points, err = h.trend(gctx, q)
		return err
	})
	if err := g.Wait(); err != nil {
		h.respondError(w, "load export", err)
		return
	}

	buf := h.csvPool.Get().(*bytes.Buffer)
	buf.Reset()
	defer func() {
		buf.Reset()
		h.csvPool.Put(buf)
	}()

	if err := export.WriteSummaryCSV(buf, summary, q.Property); err != nil {
		h.respondError(w, "write summary csv", err)
		return
	}
	buf.WriteString("\n")
	if err := export.WriteExpenseDetailCSV(buf, summary); err != nil {
		h.respondError(w, "write expense csv", err)
		return
	}
	buf.WriteString("\n")
	if err := export.WriteTrendCSV(buf, points); err != nil {
		h.respondError(w, "write trend csv", err)
		return
	}

	filename := fmt.Sprintf("rentabilidad-%s.csv", summary.Month)
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", filename))
	if _, err := w.Write(buf.Bytes()); err != nil {
		h.logError("stream csv", err)
	}
}

func (h *Handler) handleChart(w http.ResponseWriter, r *http.Request) {
	q, err := h.parseQuery(r)
	if err != nil {
		h.respondError(w, "parse query", err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	points, err := h.trend(ctx, q)
	if err != nil {
		h.respondError(w, "load trend", err)
		return
	}
	series := make([]float64, 0, len(points))
	labels := make([]string, 0, len(points))
	for _, p := range points {
		series = append(series, p.NetProfit)
		labels = append(labels, p.Label)
	}
	if len(series) == 0 {
		series = []float64{0}
		labels = []string{q.Month}
	}
	chart, err := svg.Line(svg.DefaultWidth, svg.DefaultHeight, series, labels, svg.LineOpts{
		Title:       "Evolución del beneficio",
		Description: "Beneficio neto mensual",
		ShowDots:    true,
	})
	if err != nil {
		h.respondError(w, "render chart", err)
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	w.Header().Set("Cache-Control", "private, max-age=60")
	if _, err := w.Write([]byte(chart)); err != nil {
		h.logError("stream chart", err)
	}
}

func (h *Handler) summary(ctx context.Context, q profitability.Query) (profitability.MonthlySummary, error) {
	value, err, _ := h.collapse(ctx, flightKey("summary", q), func(ctx context.Context) (any, error) {
		return h.service.MonthlySummary(ctx, q)
	})
	if err != nil {
		return profitability.MonthlySummary{}, err
	}
	return value.(profitability.MonthlySummary), nil
}

func (h *Handler) trend(ctx context.Context, q profitability.Query) ([]profitability.TrendPoint, error) {
	value, err, _ := h.collapse(ctx, flightKey("trend", q), func(ctx context.Context) (any, error) {
		return h.service.Trend(ctx, q)
	})
	if err != nil {
		return nil, err
	}
	return value.([]profitability.TrendPoint), nil
}

func (h *Handler) parseQuery(r *http.Request) (profitability.Query, error) {
	tenant := shared.TenantFromContext(r.Context())
	if tenant == "" {
		var err error
		if tenant, err = shared.TenantFromRequest(r); err != nil {
			return profitability.Query{}, fmt.Errorf("%w: %v", httpx.ErrUnauthorized, err)
		}
	}
	values := r.URL.Query()
	month := strings.TrimSpace(values.Get("mes"))
	if month == "" {
		month = profitability.MonthOf(h.now()).String()
	}
	q := profitability.Query{
		Tenant:   tenant,
		Month:    month,
		Property: strings.TrimSpace(values.Get("propiedad")),
	}
	if raw := strings.TrimSpace(values.Get("meses")); raw != "" {
		months, err := strconv.Atoi(raw)
		if err != nil || months <= 0 || months > maxTrendMonths {
			return profitability.Query{}, validationError{field: "meses"}
		}
		q.Months = months
	}
	return q, nil
}

func (h *Handler) respondError(w http.ResponseWriter, op string, err error) {
	var vErr validationError
	var statusErr *supa.StatusError
	switch {
	case errors.As(err, &vErr):
		httpx.Problem(w, http.StatusBadRequest, "Parámetro no válido", vErr.Error())
	case errors.Is(err, profitability.ErrInvalidPeriod), errors.Is(err, profitability.ErrAmbiguousProperty):
		httpx.Problem(w, http.StatusBadRequest, "Parámetro no válido", err.Error())
	case errors.Is(err, profitability.ErrTenantRequired), errors.Is(err, httpx.ErrUnauthorized):
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", err.Error())
	case errors.Is(err, profitability.ErrSourceUnavailable), errors.As(err, &statusErr), errors.Is(err, supa.ErrNotConfigured):
		h.logError(op, err)
		httpx.Problem(w, http.StatusBadGateway, "Bad Gateway", "no se pudieron cargar los datos")
	case errors.Is(err, context.DeadlineExceeded):
		h.logError(op, err)
		httpx.Problem(w, http.StatusGatewayTimeout, "Gateway Timeout", "")
	default:
		h.logError(op, err)
		httpx.RespondError(w, err)
	}
}

func (h *Handler) logError(context string, err error) {
	if h.logger != nil {
		h.logger.Error(context, slog.Any("error", err))
	}
}

type validationError struct {
	field string
}

func (v validationError) Error() string {
	return fmt.Sprintf("invalid %s", v.field)
}

// HandleSummaryForTest exposes the summary handler for tests.
func (h *Handler) HandleSummaryForTest(w http.ResponseWriter, r *http.Request) { h.handleSummary(w, r) }

// HandleCSVForTest exposes the CSV handler for tests.
func (h *Handler) HandleCSVForTest(w http.ResponseWriter, r *http.Request) { h.handleCSV(w, r) }
