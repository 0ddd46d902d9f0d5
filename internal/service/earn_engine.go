package service

import (
	"github.com/shopspring/decimal"

	"github.com/loyalty-next/internal/constants"
	"github.com/loyalty-next/internal/models"
)

// EarnResult the earn decision for one campaign
type EarnResult struct {
	Campaign *models.Campaign
	Amount   int64 // signed earn in the campaign's unit
	Accepted bool  // false when the transaction does not qualify
}

// ComputeEarns evaluates a transaction amount against every campaign.
// Results keep the campaigns' order, which callers rely on for lock ordering.
func ComputeEarns(amount int64, campaigns []models.Campaign) []EarnResult {
	results := make([]EarnResult, 0, len(campaigns))
	for i := range campaigns {
		campaign := &campaigns[i]
		earn, accepted := computeEarn(amount, campaign)
		results = append(results, EarnResult{
			Campaign: campaign,
			Amount:   earn,
			Accepted: accepted,
		})
	}
	return results
}

func computeEarn(amount int64, campaign *models.Campaign) (int64, bool) {
	if campaign.EarnRule == nil {
		return 0, false
	}
	rule := campaign.EarnRule
	switch campaign.LoyaltyType {
	case constants.LoyaltyTypeAccumulator:
		return accumulatorEarn(amount, rule)
	case constants.LoyaltyTypeStamps:
		return stampsEarn(amount, rule)
	default:
		return 0, false
	}
}

// accumulatorEarn scales the amount by the increment multiplier. Rounding is
// half away from zero so a refund of the same magnitude reverses a prior earn
// exactly. The threshold and cap apply to the magnitude, keeping refunds
// symmetric with spends.
func accumulatorEarn(amount int64, rule *models.EarnRule) (int64, bool) {
	magnitude := amount
	if magnitude < 0 {
		magnitude = -magnitude
	}
	if rule.Threshold > 0 && magnitude < rule.Threshold {
		return 0, false
	}
	earn := decimal.NewFromInt(amount).
		Mul(rule.IncrementMultiplier).
		Round(0).
		IntPart()
	if rule.MaxAmount > 0 {
		if earn > rule.MaxAmount {
			earn = rule.MaxAmount
		} else if earn < -rule.MaxAmount {
			earn = -rule.MaxAmount
		}
	}
	return earn, true
}

// stampsEarn awards increments per whole threshold multiple. Go's truncating
// division makes the computation symmetric in sign: a sub-threshold refund
// earns nothing and a refund of two thresholds removes two increments.
func stampsEarn(amount int64, rule *models.EarnRule) (int64, bool) {
	if rule.Threshold <= 0 || rule.Increment <= 0 {
		return 0, false
	}
	units := amount / rule.Threshold
	if units == 0 {
		return 0, false
	}
	return units * rule.Increment, true
}
