// Package export renders profitability results as CSV and formats amounts
// the way the dashboard displays them.
package export

import (
	"encoding/csv"
	"io"
	"strconv"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/cleanmanager/cleanmanager/internal/profitability"
)

// Amount formats v as euros with Spanish separators, e.g. "12.345,50 €".
func Amount(v float64) string {
	return printer().Sprintf("%.2f €", v)
}

// Percent formats v (already scaled to 0..100) with one decimal.
func Percent(v float64) string {
	return printer().Sprintf("%.1f%%", v)
}

// Printers keep formatting state, so each call gets its own.
func printer() *message.Printer {
	return message.NewPrinter(language.Spanish)
}

// WriteSummaryCSV serialises a monthly summary as concept/amount rows.
// Amounts are plain decimals so spreadsheets can sum them.
func WriteSummaryCSV(w io.Writer, summary profitability.MonthlySummary, property string) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()

	if property == "" {
		property = "Todas"
	}
	if err := writer.Write([]string{"Concepto", "Importe"}); err != nil {
		return err
	}
	records := [][]string{
		{"Mes", summary.Month},
		{"Propiedad", property},
		{"Ingresos brutos", formatFloat(summary.GrossRevenue)},
		{"Reservas", strconv.Itoa(summary.BookingCount)},
		{"Noches", strconv.Itoa(summary.Nights)},
		{"Ocupación %", formatFloat(summary.Occupancy)},
		{"Ticket medio", formatFloat(summary.AverageTicket)},
		{"RevPAR", formatFloat(summary.RevPAR)},
		{"Comisiones", formatFloat(summary.CommissionCost)},
		{"Limpieza", formatFloat(summary.CleaningCost)},
		{"Amenities", formatFloat(summary.AmenityCost)},
		{"Suministros", formatFloat(summary.UtilitiesCost)},
		{"Comunidad", formatFloat(summary.CommunityCost)},
		{"Seguros", formatFloat(summary.InsuranceCost)},
		{"Mantenimiento", formatFloat(summary.MaintenanceCost)},
		{"Otros", formatFloat(summary.OtherCost)},
		{"Gastos totales", formatFloat(summary.TotalExpenses)},
		{"Beneficio neto", formatFloat(summary.NetProfit)},
		{"Margen %", formatFloat(summary.Margin)},
		{"Pago propietario", formatFloat(summary.OwnerPayout)},
		{"Beneficio gestor", formatFloat(summary.ManagerProfit)},
	}
	for _, record := range records {
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// WriteExpenseDetailCSV lists the recurring and extraordinary expense lines
// charged in the month.
func WriteExpenseDetailCSV(w io.Writer, summary profitability.MonthlySummary) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()
	if err := writer.Write([]string{"Tipo", "Concepto", "Categoría", "Importe", "Pagado por"}); err != nil {
		return err
	}
	for _, line := range summary.RecurringLines {
		if err := writer.Write([]string{"recurrente", line.Name, line.Category, formatFloat(line.Amount), line.PaidBy}); err != nil {
			return err
		}
	}
	for _, line := range summary.ExtraordinaryLines {
		concept := line.Concept
		if line.Date != "" {
			concept = line.Date + " " + concept
		}
		if err := writer.Write([]string{"extraordinario", concept, line.Category, formatFloat(line.Amount), line.PaidBy}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// WriteTrendCSV emits the trend series, oldest month first.
func WriteTrendCSV(w io.Writer, points []profitability.TrendPoint) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()
	if err := writer.Write([]string{"Mes", "Ingresos", "Gastos", "Beneficio"}); err != nil {
		return err
	}
	for _, point := range points {
		if err := writer.Write([]string{
			point.Month,
			formatFloat(point.Revenue),
			formatFloat(point.Expenses),
			formatFloat(point.NetProfit),
		}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
