package agent

import (
	"encoding/json"

	"github.com/m-mizutani/acpdex/pkg/domain/types"
)

// Fragments are the explicit optional-field mappings of the platform API
// payloads. The API is versioned by the third party: unknown fields are
// ignored, missing expected fields decode to null values. All coercion of
// numeric-looking strings happens here via the types.Flex* scalars.

// ListingFragment is one entry of the agent listing endpoint.
type ListingFragment struct {
	ID                 types.FlexString   `json:"id"`
	Name               types.FlexString   `json:"name"`
	Category           types.FlexString   `json:"category"`
	Description        types.FlexString   `json:"description"`
	Symbol             types.FlexString   `json:"symbol"`
	Role               types.FlexString   `json:"role"`
	Cluster            types.FlexString   `json:"cluster"`
	TwitterHandle      types.FlexString   `json:"twitterHandle"`
	ProfilePic         types.FlexString   `json:"profilePic"`
	WalletAddress      types.FlexString   `json:"walletAddress"`
	ContractAddress    types.FlexString   `json:"contractAddress"`
	TokenAddress       types.FlexString   `json:"tokenAddress"`
	OwnerAddress       types.FlexString   `json:"ownerAddress"`
	WalletBalance      types.FlexString   `json:"walletBalance"`
	HasGraduated       types.FlexBool     `json:"hasGraduated"`
	CreatedAt          types.FlexString   `json:"createdAt"`
	LastActiveAt       types.FlexString   `json:"lastActiveAt"`
	GrossAgenticAmount types.FlexFloat    `json:"grossAgenticAmount"`
	SuccessRate        types.FlexFloat    `json:"successRate"`
	Rating             types.FlexFloat    `json:"rating"`
	TransactionCount   types.FlexInt      `json:"transactionCount"`
	SuccessfulJobCount types.FlexInt      `json:"successfulJobCount"`
	UniqueBuyerCount   types.FlexInt      `json:"uniqueBuyerCount"`
	EnabledChains      []ChainFragment    `json:"enabledChains"`
	Offerings          []OfferingFragment `json:"offerings"`
}

// AgentID returns the normalized merge key of the entry
func (x *ListingFragment) AgentID() types.AgentID {
	return types.AgentID(x.ID.Or(""))
}

// DetailFragment is the per-agent detail payload. It is a superset of the
// listing entry with the offerings published under "jobs".
type DetailFragment struct {
	ListingFragment
	Jobs []OfferingFragment `json:"jobs"`
}

// MetricsFragment is one entry of the leaderboard endpoint, and also the
// shape of the per-agent metrics endpoint.
type MetricsFragment struct {
	ID                 types.FlexString `json:"id"`
	Volume             types.FlexFloat  `json:"volume"`
	GrossAgenticAmount types.FlexFloat  `json:"grossAgenticAmount"`
	Revenue            types.FlexFloat  `json:"revenue"`
	SuccessRate        types.FlexFloat  `json:"successRate"`
	Rating             types.FlexFloat  `json:"rating"`
	TransactionCount   types.FlexInt    `json:"transactionCount"`
	SuccessfulJobCount types.FlexInt    `json:"successfulJobCount"`
	UniqueBuyerCount   types.FlexInt    `json:"uniqueBuyerCount"`
	LastActiveAt       types.FlexString `json:"lastActiveAt"`
}

// AgentID returns the normalized merge key of the entry
func (x *MetricsFragment) AgentID() types.AgentID {
	return types.AgentID(x.ID.Or(""))
}

// ChainFragment is one enabled chain of an agent
type ChainFragment struct {
	Name types.FlexString `json:"name"`
}

// OfferingFragment is one offering/job entry. Requirement and deliverable
// arrive as free-form JSON (string or object) and are kept raw until the
// merge step stringifies them.
type OfferingFragment struct {
	Name          types.FlexString `json:"name"`
	Description   types.FlexString `json:"description"`
	Type          types.FlexString `json:"type"`
	Price         types.FlexFloat  `json:"price"`
	PriceV2       *PriceFragment   `json:"priceV2"`
	SLAMinutes    types.FlexInt    `json:"slaMinutes"`
	RequiredFunds types.FlexBool   `json:"requiredFunds"`
	Requirement   json.RawMessage  `json:"requirement"`
	Deliverable   json.RawMessage  `json:"deliverable"`
}

// PriceFragment is the structured price of an offering
type PriceFragment struct {
	Value types.FlexFloat  `json:"value"`
	Type  types.FlexString `json:"type"`
}

// PlatformMetricsFragment is the platform-wide metrics payload. The
// latest GAV sample is the platform AGDP figure.
type PlatformMetricsFragment struct {
	Result struct {
		GAV struct {
			SevenDays []struct {
				Value types.FlexFloat `json:"value"`
			} `json:"7D"`
		} `json:"GAV"`
	} `json:"result"`
}

// LatestAGDP returns the most recent platform AGDP sample, or 0 when the
// series is empty.
func (x *PlatformMetricsFragment) LatestAGDP() float64 {
	series := x.Result.GAV.SevenDays
	if len(series) == 0 {
		return 0
	}
	return series[len(series)-1].Value.Or(0)
}
