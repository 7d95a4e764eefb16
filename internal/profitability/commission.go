package profitability

import (
	"sort"
	"strings"
)

var pmsOrigins = map[string]struct{}{
	"avaibook": {},
	"icnea":    {},
	"hostify":  {},
}

// DetectPlatform infers the channel a booking came from. The first hint that
// yields a value wins: explicit source, partner name, known PMS origins, raw
// origin, then direct.
func DetectPlatform(b Booking) Platform {
	if source := strings.TrimSpace(b.Source); source != "" {
		return Platform(strings.ToLower(source))
	}
	partner := strings.ToLower(b.PartnerName)
	switch {
	case strings.Contains(partner, "booking"):
		return PlatformBooking
	case strings.Contains(partner, "airbnb"):
		return PlatformAirbnb
	case strings.Contains(partner, "vrbo"), strings.Contains(partner, "homeaway"):
		return PlatformVrbo
	}
	origin := strings.ToLower(strings.TrimSpace(b.Origin))
	if _, ok := pmsOrigins[origin]; ok {
		return PlatformPMS
	}
	if origin != "" {
		return Platform(origin)
	}
	return PlatformDirect
}

// orderRules puts property-scoped rules ahead of general ones, keeping storage
// order inside each group.
func orderRules(rules []CommissionRule) []CommissionRule {
	ordered := make([]CommissionRule, len(rules))
	copy(ordered, rules)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Scoped() && !ordered[j].Scoped()
	})
	return ordered
}

// MatchCommissionRule returns the first applicable rule for the booking.
func MatchCommissionRule(b Booking, rules []CommissionRule, filter PropertyFilter) (CommissionRule, bool) {
	return matchOrdered(b, orderRules(rules), filter)
}

func matchOrdered(b Booking, ordered []CommissionRule, filter PropertyFilter) (CommissionRule, bool) {
	platform := DetectPlatform(b)
	for _, rule := range ordered {
		if !rule.Active || rule.Platform != platform {
			continue
		}
		if !rule.Scoped() {
			return rule, true
		}
		if (filter.ID != "" && rule.PropertyID == filter.ID) || rule.PropertyID == b.PropertyID {
			return rule, true
		}
	}
	return CommissionRule{}, false
}

// CommissionFor computes what a single rule charges for a booking.
func CommissionFor(b Booking, rule CommissionRule) float64 {
	switch rule.Kind {
	case CommissionPercentage:
		return b.Price * (rule.Percentage / 100)
	case CommissionFixed:
		return rule.FixedAmount
	default:
		return 0
	}
}

// ResolveCommission sums the platform commissions owed for bookings.
func ResolveCommission(bookings []Booking, rules []CommissionRule, filter PropertyFilter) float64 {
	ordered := orderRules(rules)
	total := 0.0
	for _, b := range bookings {
		rule, ok := matchOrdered(b, ordered, filter)
		if !ok {
			continue
		}
		total += CommissionFor(b, rule)
	}
	return total
}
