package profitability

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectPlatform(t *testing.T) {
	cases := []struct {
		name    string
		booking Booking
		want    Platform
	}{
		{"explicit source wins", Booking{Source: "Airbnb", PartnerName: "Booking.com"}, PlatformAirbnb},
		{"partner booking", Booking{PartnerName: "Booking.com"}, PlatformBooking},
		{"partner airbnb", Booking{PartnerName: "AIRBNB"}, PlatformAirbnb},
		{"partner homeaway", Booking{PartnerName: "HomeAway"}, PlatformVrbo},
		{"pms origin", Booking{Origin: "avaibook"}, PlatformPMS},
		{"hostify origin", Booking{Origin: "Hostify"}, PlatformPMS},
		{"raw origin", Booking{Origin: "Expedia"}, Platform("expedia")},
		{"no hints", Booking{}, PlatformDirect},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, DetectPlatform(tc.booking))
		})
	}
}

func TestResolveCommissionPercentageAndFixed(t *testing.T) {
	bookings := []Booking{
		{PropertyID: "p1", Price: 100, Source: "booking"},
		{PropertyID: "p1", Price: 0, Source: "booking"},
		{PropertyID: "p1", Price: 300, PartnerName: "Airbnb"},
		{PropertyID: "p1", Price: 90},
	}
	rules := []CommissionRule{
		{Platform: PlatformBooking, Kind: CommissionPercentage, Percentage: 15, Active: true},
		{Platform: PlatformAirbnb, Kind: CommissionFixed, FixedAmount: 20, Active: true},
	}
	got := ResolveCommission(bookings, rules, PropertyFilter{})
	assert.InDelta(t, 35, got, 1e-9)
}

func TestResolveCommissionPrefersScopedRule(t *testing.T) {
	bookings := []Booking{{PropertyID: "p1", Price: 200, Source: "booking"}}
	rules := []CommissionRule{
		{ID: "general", Platform: PlatformBooking, Kind: CommissionPercentage, Percentage: 15, Active: true},
		{ID: "scoped", Platform: PlatformBooking, Kind: CommissionPercentage, Percentage: 10, PropertyID: "p1", Active: true},
	}
	rule, ok := MatchCommissionRule(bookings[0], rules, PropertyFilter{})
	assert.True(t, ok)
	assert.Equal(t, "scoped", rule.ID)
	assert.InDelta(t, 20, ResolveCommission(bookings, rules, PropertyFilter{}), 1e-9)

	other := Booking{PropertyID: "p2", Price: 200, Source: "booking"}
	rule, ok = MatchCommissionRule(other, rules, PropertyFilter{})
	assert.True(t, ok)
	assert.Equal(t, "general", rule.ID)
}

func TestResolveCommissionSkipsInactiveAndUnmatched(t *testing.T) {
	bookings := []Booking{{PropertyID: "p1", Price: 100, Source: "vrbo"}}
	rules := []CommissionRule{
		{Platform: PlatformVrbo, Kind: CommissionPercentage, Percentage: 12, Active: false},
		{Platform: PlatformBooking, Kind: CommissionPercentage, Percentage: 15, Active: true},
	}
	assert.Zero(t, ResolveCommission(bookings, rules, PropertyFilter{}))
}

func TestResolveCommissionScopedToFilter(t *testing.T) {
	bookings := []Booking{{PropertyID: "", PropertyName: "Casa Azul", Price: 100, Source: "booking"}}
	rules := []CommissionRule{
		{Platform: PlatformBooking, Kind: CommissionFixed, FixedAmount: 12, PropertyID: "p9", Active: true},
	}
	assert.Zero(t, ResolveCommission(bookings, rules, PropertyFilter{}))
	assert.InDelta(t, 12, ResolveCommission(bookings, rules, PropertyFilter{ID: "p9", Name: "Casa Azul"}), 1e-9)
}

func TestResolveCommissionDoesNotReorderInput(t *testing.T) {
	rules := []CommissionRule{
		{ID: "a", Platform: PlatformBooking, Active: true},
		{ID: "b", Platform: PlatformBooking, PropertyID: "p1", Active: true},
	}
	ResolveCommission([]Booking{{PropertyID: "p1", Source: "booking"}}, rules, PropertyFilter{})
	assert.Equal(t, "a", rules[0].ID)
	assert.Equal(t, "b", rules[1].ID)
}
