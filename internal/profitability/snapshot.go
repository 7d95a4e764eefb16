package profitability

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// ErrAmbiguousProperty is returned when a display name matches several properties.
var ErrAmbiguousProperty = errors.New("profitability: property name is ambiguous")

// Snapshot holds every collection the engine reads for one tenant. It is loaded
// once per request and treated as read-only.
type Snapshot struct {
	Bookings              []Booking
	CommissionRules       []CommissionRule
	RecurringExpenses     []RecurringExpense
	ExtraordinaryExpenses []ExtraordinaryExpense
	SplitPolicies         []SplitPolicy
	Properties            []Property
	Inventory             []InventoryItem
	// Consumption is keyed by month (YYYY-MM).
	Consumption map[string]Consumption
}

// Clone returns a snapshot whose slices can be modified without touching s.
func (s *Snapshot) Clone() *Snapshot {
	if s == nil {
		return &Snapshot{}
	}
	out := &Snapshot{
		Bookings:              slices.Clone(s.Bookings),
		CommissionRules:       slices.Clone(s.CommissionRules),
		RecurringExpenses:     slices.Clone(s.RecurringExpenses),
		ExtraordinaryExpenses: slices.Clone(s.ExtraordinaryExpenses),
		SplitPolicies:         slices.Clone(s.SplitPolicies),
		Properties:            slices.Clone(s.Properties),
		Inventory:             make([]InventoryItem, len(s.Inventory)),
		Consumption:           make(map[string]Consumption, len(s.Consumption)),
	}
	for i, item := range s.Inventory {
		out.Inventory[i] = InventoryItem{Name: item.Name, PropertyIDs: slices.Clone(item.PropertyIDs)}
	}
	for k, v := range s.Consumption {
		out.Consumption[k] = Consumption{Total: v.Total, Breakdown: slices.Clone(v.Breakdown)}
	}
	return out
}

// ConsumptionFor returns the consumption of a month, zero when missing.
func (s *Snapshot) ConsumptionFor(m Month) Consumption {
	if s == nil || s.Consumption == nil {
		return Consumption{}
	}
	return s.Consumption[m.String()]
}

// PropertyFilter narrows a calculation to one property. The zero value means
// every property.
type PropertyFilter struct {
	ID   string
	Name string
}

// IsZero reports whether the filter is empty.
func (f PropertyFilter) IsZero() bool {
	return f.ID == "" && f.Name == ""
}

// MatchesBooking reports whether the booking belongs to the filtered property.
func (f PropertyFilter) MatchesBooking(b Booking) bool {
	if f.IsZero() {
		return true
	}
	if f.ID != "" && b.PropertyID == f.ID {
		return true
	}
	return f.Name != "" && b.PropertyName == f.Name
}

// allowsScope applies the property-scope rule shared by expenses: unscoped
// records always apply, scoped ones only to their own property.
func (f PropertyFilter) allowsScope(propertyID string) bool {
	if f.IsZero() || propertyID == "" {
		return true
	}
	return propertyID == f.ID
}

// ResolveProperty turns a property id or display name into a canonical filter.
func (s *Snapshot) ResolveProperty(key string) (PropertyFilter, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return PropertyFilter{}, nil
	}
	if s != nil {
		for _, p := range s.Properties {
			if p.ID == key {
				return PropertyFilter{ID: p.ID, Name: p.Name}, nil
			}
		}
		var found []Property
		for _, p := range s.Properties {
			if p.Name == key {
				found = append(found, p)
			}
		}
		switch len(found) {
		case 1:
			return PropertyFilter{ID: found[0].ID, Name: found[0].Name}, nil
		case 0:
		default:
			return PropertyFilter{}, fmt.Errorf("%w: %q matches %d properties", ErrAmbiguousProperty, key, len(found))
		}
	}
	return PropertyFilter{ID: key, Name: key}, nil
}

// property finds the filtered property.
func (s *Snapshot) property(f PropertyFilter) (Property, bool) {
	if s == nil || f.IsZero() {
		return Property{}, false
	}
	for _, p := range s.Properties {
		if f.ID != "" && p.ID == f.ID {
			return p, true
		}
	}
	for _, p := range s.Properties {
		if f.Name != "" && p.Name == f.Name {
			return p, true
		}
	}
	return Property{}, false
}
