package profitability

import "math"

// SelectBookings returns the non-cancelled bookings checking out within month,
// in input order.
func SelectBookings(bookings []Booking, month Month, filter PropertyFilter) []Booking {
	selected := make([]Booking, 0)
	for _, b := range bookings {
		if b.Status == BookingStatusCancelled {
			continue
		}
		if !month.Contains(b.CheckOut) {
			continue
		}
		if !filter.MatchesBooking(b) {
			continue
		}
		selected = append(selected, b)
	}
	return selected
}

// Nights counts started days between check-in and check-out.
func Nights(b Booking) int {
	if b.CheckIn.IsZero() || b.CheckOut.IsZero() || b.CheckOut.Before(b.CheckIn) {
		return 0
	}
	return int(math.Ceil(b.CheckOut.Sub(b.CheckIn).Hours() / 24))
}

func grossRevenue(bookings []Booking) float64 {
	total := 0.0
	for _, b := range bookings {
		total += b.Price
	}
	return total
}

func totalNights(bookings []Booking) int {
	total := 0
	for _, b := range bookings {
		total += Nights(b)
	}
	return total
}
