// Package cli implements the cleanctl commands.
package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/cleanmanager/cleanmanager/internal/profitability"
	"github.com/cleanmanager/cleanmanager/internal/profitability/export"
	"github.com/cleanmanager/cleanmanager/jobs"
)

// ProfitabilityService is what the report commands read from.
type ProfitabilityService interface {
	MonthlySummary(ctx context.Context, q profitability.Query) (profitability.MonthlySummary, error)
	Trend(ctx context.Context, q profitability.Query) ([]profitability.TrendPoint, error)
}

// JobQueue is what the queue commands drive.
type JobQueue interface {
	TriggerWarmup(ctx context.Context, payload jobs.ProfitabilityWarmupPayload) (string, error)
	InspectQueue(ctx context.Context) (QueueStats, error)
	Close() error
}

// Deps holds factories for the backends. They run only when a command
// needs them.
type Deps struct {
	Service func(ctx context.Context) (ProfitabilityService, func(), error)
	Queue   func() (JobQueue, error)
	Now     func() time.Time
}

type reportFlags struct {
	tenant   string
	month    string
	property string
	json     bool
}

// NewRootCommand builds the cleanctl command tree.
func NewRootCommand(deps Deps) *cobra.Command {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	root := &cobra.Command{
		Use:           "cleanctl",
		Short:         "Rentabilidad de propiedades desde la terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newSummaryCommand(deps), newTrendCommand(deps), newJobsCommand(deps))
	return root
}

func bindReportFlags(cmd *cobra.Command, f *reportFlags) {
	cmd.Flags().StringVar(&f.tenant, "tenant", "", "email del cliente (obligatorio)")
	cmd.Flags().StringVar(&f.month, "mes", "", "mes YYYY-MM (por defecto el actual)")
	cmd.Flags().StringVar(&f.property, "propiedad", "", "id o nombre de la propiedad")
	cmd.Flags().BoolVar(&f.json, "json", false, "salida JSON")
	_ = cmd.MarkFlagRequired("tenant")
}

func (f reportFlags) query(now time.Time) profitability.Query {
	month := strings.TrimSpace(f.month)
	if month == "" {
		month = profitability.MonthOf(now).String()
	}
	return profitability.Query{
		Tenant:   strings.TrimSpace(f.tenant),
		Month:    month,
		Property: strings.TrimSpace(f.property),
	}
}

func newSummaryCommand(deps Deps) *cobra.Command {
	var flags reportFlags
	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Resumen mensual de ingresos, gastos y beneficio",
		Example: `  cleanctl summary --tenant ana@example.com --mes 2024-03
  cleanctl summary --tenant ana@example.com --propiedad "Casa Azul" --json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, closeFn, err := openService(cmd.Context(), deps)
			if err != nil {
				return err
			}
			defer closeFn()

			q := flags.query(deps.Now())
			summary, err := svc.MonthlySummary(cmd.Context(), q)
			if err != nil {
				return err
			}
			if flags.json {
				return writeJSON(cmd.OutOrStdout(), summary)
			}
			return writeSummary(cmd.OutOrStdout(), summary, q.Property)
		},
	}
	bindReportFlags(cmd, &flags)
	return cmd
}

func newTrendCommand(deps Deps) *cobra.Command {
	var (
		flags  reportFlags
		months int
	)
	cmd := &cobra.Command{
		Use:   "trend",
		Short: "Evolución mensual hasta el mes indicado",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if months < 0 || months > 24 {
				return fmt.Errorf("--meses must be between 1 and 24")
			}
			svc, closeFn, err := openService(cmd.Context(), deps)
			if err != nil {
				return err
			}
			defer closeFn()

			q := flags.query(deps.Now())
			q.Months = months
			points, err := svc.Trend(cmd.Context(), q)
			if err != nil {
				return err
			}
			if flags.json {
				return writeJSON(cmd.OutOrStdout(), points)
			}
			return writeTrend(cmd.OutOrStdout(), points)
		},
	}
	bindReportFlags(cmd, &flags)
	cmd.Flags().IntVar(&months, "meses", 0, "número de meses (por defecto TREND_MONTHS)")
	return cmd
}

func newJobsCommand(deps Deps) *cobra.Command {
	jobsCmd := &cobra.Command{
		Use:   "jobs",
		Short: "Gestión de tareas en segundo plano",
	}

	var (
		tenants []string
		month   string
	)
	warmup := &cobra.Command{
		Use:   "warmup",
		Short: "Encola un precalentamiento de la caché de rentabilidad",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if month != "" {
				if _, err := profitability.ParseMonth(month); err != nil {
					return err
				}
			}
			queue, err := openQueue(deps)
			if err != nil {
				return err
			}
			defer queue.Close()

			id, err := queue.TriggerWarmup(cmd.Context(), jobs.ProfitabilityWarmupPayload{Tenants: tenants, Month: month})
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "encolada %s (%s)\n", jobs.TaskProfitabilityWarmup, id)
			return err
		},
	}
	warmup.Flags().StringSliceVar(&tenants, "tenant", nil, "clientes a precalentar (por defecto WARMUP_TENANTS)")
	warmup.Flags().StringVar(&month, "mes", "", "mes YYYY-MM (por defecto el actual)")

	stats := &cobra.Command{
		Use:   "stats",
		Short: "Estado de la cola por defecto",
		RunE: func(cmd *cobra.Command, _ []string) error {
			queue, err := openQueue(deps)
			if err != nil {
				return err
			}
			defer queue.Close()

			s, err := queue.InspectQueue(cmd.Context())
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), s)
		},
	}

	jobsCmd.AddCommand(warmup, stats)
	return jobsCmd
}

func openService(ctx context.Context, deps Deps) (ProfitabilityService, func(), error) {
	if deps.Service == nil {
		return nil, nil, errors.New("cleanctl: profitability service not configured")
	}
	svc, closeFn, err := deps.Service(ctx)
	if err != nil {
		return nil, nil, err
	}
	if closeFn == nil {
		closeFn = func() {}
	}
	return svc, closeFn, nil
}

func openQueue(deps Deps) (JobQueue, error) {
	if deps.Queue == nil {
		return nil, errors.New("cleanctl: job queue not configured")
	}
	return deps.Queue()
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeSummary(w io.Writer, s profitability.MonthlySummary, property string) error {
	if property == "" {
		property = "Todas"
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	rows := [][2]string{
		{"Mes", s.Month},
		{"Propiedad", property},
		{"Ingresos brutos", export.Amount(s.GrossRevenue)},
		{"Reservas", fmt.Sprintf("%d (%d noches)", s.BookingCount, s.Nights)},
		{"Ocupación", export.Percent(s.Occupancy)},
		{"Comisiones", export.Amount(s.CommissionCost)},
		{"Limpieza", export.Amount(s.CleaningCost)},
		{"Amenities", export.Amount(s.AmenityCost)},
		{"Suministros", export.Amount(s.UtilitiesCost)},
		{"Comunidad", export.Amount(s.CommunityCost)},
		{"Seguros", export.Amount(s.InsuranceCost)},
		{"Mantenimiento", export.Amount(s.MaintenanceCost)},
		{"Otros", export.Amount(s.OtherCost)},
		{"Gastos totales", export.Amount(s.TotalExpenses)},
		{"Beneficio neto", export.Amount(s.NetProfit)},
		{"Margen", export.Percent(s.Margin)},
		{"Pago propietario", export.Amount(s.OwnerPayout)},
		{"Beneficio gestor", export.Amount(s.ManagerProfit)},
	}
	for _, row := range rows {
		if _, err := fmt.Fprintf(tw, "%s\t%s\n", row[0], row[1]); err != nil {
			return err
		}
	}
	return tw.Flush()
}

func writeTrend(w io.Writer, points []profitability.TrendPoint) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	if _, err := fmt.Fprintln(tw, "Mes\tIngresos\tGastos\tBeneficio\t"); err != nil {
		return err
	}
	for _, p := range points {
		if _, err := fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t\n", p.Month,
			export.Amount(p.Revenue), export.Amount(p.Expenses), export.Amount(p.NetProfit)); err != nil {
			return err
		}
	}
	return tw.Flush()
}
