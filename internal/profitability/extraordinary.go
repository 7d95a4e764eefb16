package profitability

const dateLayout = "2006-01-02"

// FilterExtraordinary keeps the extraordinary expenses dated within month and
// splits maintenance from everything else.
func FilterExtraordinary(expenses []ExtraordinaryExpense, month Month, filter PropertyFilter) ExtraordinaryResult {
	result := ExtraordinaryResult{Lines: make([]ExtraordinaryLine, 0)}
	for _, e := range expenses {
		if !month.Contains(e.Date) {
			continue
		}
		if !filter.allowsScope(e.PropertyID) {
			continue
		}
		result.Total += e.Amount
		if e.Category == CategoryMaintenance {
			result.Maintenance += e.Amount
		} else {
			result.Other += e.Amount
		}
		result.Lines = append(result.Lines, ExtraordinaryLine{
			Date:     e.Date.Format(dateLayout),
			Concept:  e.Concept,
			Category: e.Category,
			Amount:   e.Amount,
			PaidBy:   e.PaidBy,
		})
	}
	return result
}
