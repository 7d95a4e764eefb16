package profitability

// SplitInput carries the month figures a split policy may need.
type SplitInput struct {
	NetProfit    float64
	GrossRevenue float64
	Nights       int
	Bookings     int
}

// SelectSplitPolicy returns the active policy for the filtered property, falling
// back to the active general policy.
func SelectSplitPolicy(policies []SplitPolicy, filter PropertyFilter) (SplitPolicy, bool) {
	if filter.ID != "" {
		for _, p := range policies {
			if p.Active && p.PropertyID == filter.ID {
				return p, true
			}
		}
	}
	for _, p := range policies {
		if p.Active && p.PropertyID == "" {
			return p, true
		}
	}
	return SplitPolicy{}, false
}

// ResolveSplit divides the month between owner and manager. The manager always
// receives net profit minus the owner share, which may be negative.
func ResolveSplit(policies []SplitPolicy, in SplitInput, filter PropertyFilter) Split {
	policy, ok := SelectSplitPolicy(policies, filter)
	owner := in.NetProfit * DefaultOwnerShare
	if ok {
		owner = ownerShare(policy, in)
	}
	return Split{Owner: owner, Manager: in.NetProfit - owner}
}

func ownerShare(p SplitPolicy, in SplitInput) float64 {
	switch p.Model {
	case SplitPercentage:
		base := in.NetProfit
		if p.Basis == BasisGross {
			base = in.GrossRevenue
		}
		return base * (p.OwnerPercent / 100)
	case SplitNet:
		return in.NetProfit
	case SplitFixedPerNight:
		return p.FixedAmount * float64(in.Nights)
	case SplitFixedPerBooking:
		return p.FixedAmount * float64(in.Bookings)
	default:
		return in.NetProfit * DefaultOwnerShare
	}
}
