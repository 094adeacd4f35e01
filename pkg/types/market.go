package types

// Platform identifies one of the two venues hosting binary markets.
type Platform string

const (
	PlatformPolymarket Platform = "polymarket"
	PlatformKalshi     Platform = "kalshi"
)

// DisplayName returns the venue name used in warnings and CLI output.
func (p Platform) DisplayName() string {
	switch p {
	case PlatformPolymarket:
		return "Polymarket"
	case PlatformKalshi:
		return "Kalshi"
	default:
		return string(p)
	}
}

// Valid reports whether p is a known venue.
func (p Platform) Valid() bool {
	return p == PlatformPolymarket || p == PlatformKalshi
}

// Side is the contract side of a leg.
type Side string

const (
	SideYes Side = "yes"
	SideNo  Side = "no"
)

// Valid reports whether s is YES or NO.
func (s Side) Valid() bool {
	return s == SideYes || s == SideNo
}

// Market is a normalized listing from one venue.
// YesPrice and NoPrice are in [0,1]; venues quote them independently so they
// do not have to sum to 1.
type Market struct {
	ID        string   `json:"id"`
	Platform  Platform `json:"platform"`
	Title     string   `json:"title"`
	Slug      string   `json:"slug"`
	Category  string   `json:"category"`
	EndDate   string   `json:"endDate"`
	YesPrice  float64  `json:"yesPrice"`
	NoPrice   float64  `json:"noPrice"`
	Volume    float64  `json:"volume"`
	Liquidity float64  `json:"liquidity"`
	Active    bool     `json:"active"`
	URL       string   `json:"url"`
}

// PriceFor returns the price of the given side.
func (m *Market) PriceFor(side Side) float64 {
	if side == SideNo {
		return m.NoPrice
	}
	return m.YesPrice
}
