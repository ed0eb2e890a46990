package usecase

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/m-mizutani/acpdex/pkg/domain/model/agent"
	"github.com/m-mizutani/acpdex/pkg/domain/types"
)

// agentPageURL is the public detail page of an agent
const agentPageURL = "https://app.virtuals.io/acp/agent-details/%s"

// agdpCap is the ceiling the API applies to grossAgenticAmount. When both
// the gross figure and the volume hit it, the volume is the real number.
const agdpCap = 99_999_999.99

// onlineSentinelPrefix marks "always online" agents: the platform reports
// their last activity in year 2999.
const onlineSentinelPrefix = "2999"

// mergeRecord combines the listing, leaderboard, detail and per-agent
// metrics fragments of one agent into a final record. Precedence follows
// the freshness of the sources: per-agent metrics over leaderboard, detail
// over listing. Records missing their metrics fragment keep zero metrics
// and are flagged partial.
func mergeRecord(in *mergeInput) *agent.Record {
	l := in.listing
	if l == nil {
		l = &agent.ListingFragment{}
	}
	var d agent.ListingFragment
	var jobs []agent.OfferingFragment
	if in.detail != nil {
		d = in.detail.ListingFragment
		jobs = in.detail.Jobs
	}

	// Precedence is per field, not per fragment: a sparse per-agent
	// metrics payload must not shadow the leaderboard values.
	var dm, lb agent.MetricsFragment
	if in.detailMetrics != nil {
		dm = *in.detailMetrics
	}
	if in.lbMetrics != nil {
		lb = *in.lbMetrics
	}

	if len(jobs) == 0 {
		jobs = l.Offerings
	}

	volume := firstFloat(dm.Volume, lb.Volume, l.GrossAgenticAmount)
	lastActive := firstString(dm.LastActiveAt, lb.LastActiveAt, d.LastActiveAt, l.LastActiveAt)
	online := strings.HasPrefix(lastActive, onlineSentinelPrefix)
	if online {
		lastActive = ""
	}

	rec := &agent.Record{
		ID:            in.id,
		Name:          firstString(l.Name, d.Name),
		Category:      firstString(l.Category, d.Category),
		Description:   firstString(d.Description, l.Description),
		Symbol:        firstString(d.Symbol, l.Symbol),
		Role:          firstString(d.Role, l.Role),
		Cluster:       firstString(d.Cluster, l.Cluster),
		PageURL:       fmt.Sprintf(agentPageURL, in.id),
		AvatarURL:     firstString(d.ProfilePic, l.ProfilePic),
		TwitterHandle: firstString(d.TwitterHandle, l.TwitterHandle),

		WalletAddress:   firstString(d.WalletAddress, l.WalletAddress),
		ContractAddress: firstString(d.ContractAddress, l.ContractAddress),
		TokenAddress:    firstString(d.TokenAddress, l.TokenAddress),
		OwnerAddress:    firstString(d.OwnerAddress, l.OwnerAddress),
		WalletBalance:   firstString(d.WalletBalance, l.WalletBalance),
		Chains:          chainNames(l.EnabledChains, d.EnabledChains),
		HasGraduated:    d.HasGraduated.Or(false) || l.HasGraduated.Or(false),
		CreatedAt:       firstString(d.CreatedAt, l.CreatedAt),

		Volume:           volume,
		GrossAGDP:        fixCappedAGDP(firstFloat(dm.GrossAgenticAmount, lb.GrossAgenticAmount, l.GrossAgenticAmount), volume),
		Revenue:          firstFloat(dm.Revenue, lb.Revenue),
		SuccessRate:      normalizeSuccessRate(firstFlexFloat(dm.SuccessRate, lb.SuccessRate, d.SuccessRate, l.SuccessRate)),
		Rating:           firstFlexFloat(dm.Rating, lb.Rating, l.Rating, d.Rating).Ptr(),
		TransactionCount: firstInt(dm.TransactionCount, lb.TransactionCount, d.TransactionCount, l.TransactionCount),
		SuccessfulJobs:   firstInt(dm.SuccessfulJobCount, lb.SuccessfulJobCount, d.SuccessfulJobCount, l.SuccessfulJobCount),
		UniqueBuyers:     firstInt(dm.UniqueBuyerCount, lb.UniqueBuyerCount, d.UniqueBuyerCount, l.UniqueBuyerCount),
		Online:           online,
		LastActiveAt:     lastActive,

		Offerings: mergeOfferings(jobs),
	}

	// The record is complete only once both the listing and the metrics
	// fragments were merged and the detail fan-out succeeded for it.
	rec.Partial = in.stub ||
		(in.lbMetrics == nil && in.detailMetrics == nil) ||
		in.detailErr != nil || in.metricsErr != nil

	return rec
}

// fixCappedAGDP falls back to volume when the gross figure hit the API cap
func fixCappedAGDP(gross, volume float64) float64 {
	if gross >= agdpCap && volume > agdpCap {
		return volume
	}
	return gross
}

// normalizeSuccessRate converts the platform's percent figure to a 0-1
// fraction, clamped to the valid range.
func normalizeSuccessRate(v types.FlexFloat) float64 {
	rate := v.Or(0) / 100
	return min(max(rate, 0), 1)
}

func mergeOfferings(fragments []agent.OfferingFragment) []agent.Offering {
	if len(fragments) == 0 {
		return nil
	}

	offerings := make([]agent.Offering, 0, len(fragments))
	for _, f := range fragments {
		price := f.Price
		priceType := ""
		if f.PriceV2 != nil {
			if f.PriceV2.Value.Valid {
				price = f.PriceV2.Value
			}
			priceType = f.PriceV2.Type.Or("")
		}

		offerings = append(offerings, agent.Offering{
			Name:          f.Name.Or(""),
			Description:   f.Description.Or(""),
			Type:          f.Type.Or(""),
			Price:         price.Ptr(),
			PriceType:     priceType,
			SLAMinutes:    f.SLAMinutes.Or(0),
			RequiresFunds: f.RequiredFunds.Or(false),
			Requirement:   rawToString(f.Requirement),
			Deliverable:   rawToString(f.Deliverable),
		})
	}
	return offerings
}

// rawToString flattens a free-form JSON value (string or object) into a
// display string. Empty objects collapse to "".
func rawToString(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}

	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return string(raw)
	}
	out := buf.String()
	if out == "{}" || out == "[]" {
		return ""
	}
	return out
}

func chainNames(lists ...[]agent.ChainFragment) []string {
	for _, chains := range lists {
		if len(chains) == 0 {
			continue
		}
		names := make([]string, 0, len(chains))
		for _, c := range chains {
			if name := c.Name.Or(""); name != "" {
				names = append(names, name)
			}
		}
		if len(names) > 0 {
			return names
		}
	}
	return nil
}

func firstString(values ...types.FlexString) string {
	for _, v := range values {
		if v.Valid {
			return v.Value
		}
	}
	return ""
}

func firstFloat(values ...types.FlexFloat) float64 {
	return firstFlexFloat(values...).Or(0)
}

func firstFlexFloat(values ...types.FlexFloat) types.FlexFloat {
	for _, v := range values {
		if v.Valid {
			return v
		}
	}
	return types.FlexFloat{}
}

func firstInt(values ...types.FlexInt) int64 {
	for _, v := range values {
		if v.Valid {
			return v.Value
		}
	}
	return 0
}
