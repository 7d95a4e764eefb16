package profitability

import "time"

// MonthlyCharge returns what a recurring expense costs in month, ignoring the
// active flag and property scope. Zero means the expense is not billed.
func MonthlyCharge(e RecurringExpense, month Month) float64 {
	if e.StartDate.IsZero() || !e.StartDate.Before(month.End()) {
		return 0
	}
	if e.EndDate != nil && e.EndDate.Before(month.Start()) {
		return 0
	}

	switch e.Periodicity {
	case PeriodicityMonthly:
		return e.Amount
	case PeriodicityBimonthly:
		return e.Amount / 2
	case PeriodicityQuarterly:
		return e.Amount / 3
	case PeriodicityAnnual:
		if e.Prorate {
			return e.Amount / 12
		}
		if month.Contains(annualChargeDate(e, month.Year)) {
			return e.Amount
		}
		return 0
	case PeriodicityOneTime:
		if month.Contains(e.StartDate) {
			return e.Amount
		}
		return 0
	default:
		return e.Amount
	}
}

// annualChargeDate is the day in year on which a non-prorated annual expense is
// billed. Days past the end of the charge month are clamped to its last day.
func annualChargeDate(e RecurringExpense, year int) time.Time {
	chargeMonth := e.ChargeMonth
	if chargeMonth < time.January || chargeMonth > time.December {
		chargeMonth = e.StartDate.UTC().Month()
	}
	m := Month{Year: year, Month: chargeMonth}
	day := e.ChargeDay
	if day < 1 {
		day = 1
	}
	if last := m.Days(); day > last {
		day = last
	}
	return time.Date(year, chargeMonth, day, 0, 0, 0, 0, time.UTC)
}

// ProrateRecurring charges every applicable recurring expense for month and
// rolls the amounts up by category.
func ProrateRecurring(expenses []RecurringExpense, month Month, filter PropertyFilter) RecurringResult {
	result := RecurringResult{Lines: make([]RecurringLine, 0)}
	for _, e := range expenses {
		if !e.Active || !filter.allowsScope(e.PropertyID) {
			continue
		}
		amount := MonthlyCharge(e, month)
		if amount <= 0 {
			continue
		}
		result.Total += amount
		switch e.Category {
		case CategoryUtilities:
			result.Utilities += amount
		case CategoryCommunity:
			result.Community += amount
		case CategoryInsurance:
			result.Insurance += amount
		default:
			result.Other += amount
		}
		result.Lines = append(result.Lines, RecurringLine{
			Name:        e.Name,
			Category:    e.Category,
			Amount:      amount,
			Periodicity: e.Periodicity,
			PaidBy:      e.PaidBy,
		})
	}
	return result
}
