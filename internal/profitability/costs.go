package profitability

// CleaningCost charges the filtered property's fixed cleaning price once per
// booking. Without a filter or a configured price the cost is zero.
func CleaningCost(snap *Snapshot, bookings []Booking, filter PropertyFilter) float64 {
	prop, ok := snap.property(filter)
	if !ok || prop.CleaningPrice <= 0 {
		return 0
	}
	return float64(len(bookings)) * prop.CleaningPrice
}

// AmenityCost returns the month's amenity consumption. With a filter only the
// breakdown lines whose inventory item is global or scoped to the property count.
func AmenityCost(snap *Snapshot, month Month, filter PropertyFilter) float64 {
	consumption := snap.ConsumptionFor(month)
	if filter.IsZero() {
		return consumption.Total
	}
	prop, ok := snap.property(filter)
	if !ok {
		return 0
	}
	items := make(map[string]InventoryItem, len(snap.Inventory))
	for _, item := range snap.Inventory {
		if _, seen := items[item.Name]; !seen {
			items[item.Name] = item
		}
	}
	total := 0.0
	for _, line := range consumption.Breakdown {
		item, ok := items[line.Name]
		if !ok || !item.AppliesTo(prop.ID) {
			continue
		}
		total += line.Total
	}
	return total
}
