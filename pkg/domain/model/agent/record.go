package agent

import (
	"github.com/m-mizutani/acpdex/pkg/domain/types"
	"github.com/m-mizutani/acpdex/pkg/domain/types/apperr"
	"github.com/m-mizutani/goerr/v2"
)

// Record is one normalized row of collector output: the listing fragment
// of an agent merged with its leaderboard and per-agent detail fragments.
// A record missing its metrics fragment is kept and marked Partial, never
// dropped or silently zero-filled.
type Record struct {
	// Identity
	ID            types.AgentID
	Name          string
	Category      string
	Description   string
	Symbol        string
	Role          string
	Cluster       string
	PageURL       string
	AvatarURL     string
	TwitterHandle string

	// Addresses and chain info
	WalletAddress   string
	ContractAddress string
	TokenAddress    string
	OwnerAddress    string
	WalletBalance   string
	Chains          []string
	HasGraduated    bool
	CreatedAt       string

	// Metrics. SuccessRate is a 0-1 fraction. Rating is nil for agents
	// that have never been rated.
	Volume           float64
	GrossAGDP        float64
	Revenue          float64
	SuccessRate      float64
	Rating           *float64
	TransactionCount int64
	SuccessfulJobs   int64
	UniqueBuyers     int64
	Online           bool
	LastActiveAt     string

	Offerings []Offering

	// Partial marks a record that is missing its metrics fragment or
	// whose per-agent detail fetch failed.
	Partial bool
}

// Validate checks the invariants a record must hold before it enters the
// final collection.
func (x *Record) Validate() error {
	if !x.ID.IsValid() {
		return goerr.Wrap(apperr.ErrMissingAgentID, "record validation failed",
			goerr.V("name", x.Name))
	}
	if x.SuccessRate < 0 || x.SuccessRate > 1 {
		return goerr.New("success rate out of range",
			goerr.T(apperr.ErrTagValidation),
			goerr.V("id", x.ID),
			goerr.V("success_rate", x.SuccessRate))
	}
	return nil
}
