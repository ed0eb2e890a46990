package agent

// Offering is one service an agent sells, as advertised in its listing or
// detail payload.
type Offering struct {
	Name        string
	Description string
	Type        string
	// Price is nil when the platform reports no price. PriceType
	// distinguishes fixed prices from percentage fees.
	Price         *float64
	PriceType     string
	SLAMinutes    int64
	RequiresFunds bool
	Requirement   string
	Deliverable   string
}
