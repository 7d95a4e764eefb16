package profitability

// DefaultTrendMonths is the length of the dashboard trend series.
const DefaultTrendMonths = 6

// Calculate parses the month key, resolves the property filter and runs
// CalcMonth. Only malformed months and ambiguous property names fail.
func Calculate(snap *Snapshot, monthKey, propertyKey string) (MonthlySummary, error) {
	month, err := ParseMonth(monthKey)
	if err != nil {
		return MonthlySummary{}, err
	}
	filter, err := snap.ResolveProperty(propertyKey)
	if err != nil {
		return MonthlySummary{}, err
	}
	return CalcMonth(snap, month, filter), nil
}

// CalcMonth builds the profit-and-loss summary of one month.
func CalcMonth(snap *Snapshot, month Month, filter PropertyFilter) MonthlySummary {
	if snap == nil {
		snap = &Snapshot{}
	}
	bookings := SelectBookings(snap.Bookings, month, filter)

	gross := grossRevenue(bookings)
	count := len(bookings)
	nights := totalNights(bookings)
	days := month.Days()

	commissions := ResolveCommission(bookings, snap.CommissionRules, filter)
	cleaning := CleaningCost(snap, bookings, filter)
	amenities := AmenityCost(snap, month, filter)
	recurring := ProrateRecurring(snap.RecurringExpenses, month, filter)
	extra := FilterExtraordinary(snap.ExtraordinaryExpenses, month, filter)

	totalExpenses := commissions + cleaning + amenities + recurring.Total + extra.Total
	net := gross - totalExpenses

	split := ResolveSplit(snap.SplitPolicies, SplitInput{
		NetProfit:    net,
		GrossRevenue: gross,
		Nights:       nights,
		Bookings:     count,
	}, filter)

	summary := MonthlySummary{
		Month:    month.String(),
		Year:     month.Year,
		MonthNum: int(month.Month),

		GrossRevenue: gross,
		BookingCount: count,
		Nights:       nights,
		Occupancy:    ratio(float64(nights), float64(days)) * 100,
		RevPAR:       ratio(gross, float64(days)),

		CommissionCost:  commissions,
		CleaningCost:    cleaning,
		AmenityCost:     amenities,
		UtilitiesCost:   recurring.Utilities,
		CommunityCost:   recurring.Community,
		InsuranceCost:   recurring.Insurance,
		MaintenanceCost: extra.Maintenance,
		OtherCost:       recurring.Other + extra.Other,

		TotalExpenses: totalExpenses,
		NetProfit:     net,
		Margin:        ratio(net, gross) * 100,

		OwnerPayout:   split.Owner,
		ManagerProfit: split.Manager,

		RecurringLines:     recurring.Lines,
		ExtraordinaryLines: extra.Lines,
		Bookings:           bookings,
	}
	if count > 0 {
		summary.AverageTicket = gross / float64(count)
	}
	return summary
}

// Trend runs CalcMonth for the months ending at month, oldest first.
func Trend(snap *Snapshot, month Month, filter PropertyFilter, months int) []TrendPoint {
	if months <= 0 {
		months = DefaultTrendMonths
	}
	window := month.Window(months)
	points := make([]TrendPoint, 0, len(window))
	for _, m := range window {
		summary := CalcMonth(snap, m, filter)
		points = append(points, TrendPoint{
			Month:     m.String(),
			Label:     m.Label(),
			Revenue:   summary.GrossRevenue,
			Expenses:  summary.TotalExpenses,
			NetProfit: summary.NetProfit,
		})
	}
	return points
}

func ratio(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	return num / den
}
