package service

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/loyalty-next/internal/constants"
	"github.com/loyalty-next/internal/models"
)

func TestAccumulatorEarn(t *testing.T) {
	campaign := models.Campaign{
		LoyaltyType: constants.LoyaltyTypeAccumulator,
		EarnRule: &models.EarnRule{
			Threshold:           100,
			IncrementMultiplier: decimal.NewFromFloat(0.1),
		},
	}

	cases := []struct {
		name     string
		amount   int64
		want     int64
		accepted bool
	}{
		{name: "spend above threshold", amount: 2499, want: 250, accepted: true},
		{name: "spend below threshold", amount: 99, want: 0, accepted: false},
		{name: "spend at threshold", amount: 100, want: 10, accepted: true},
		{name: "rounds down below half", amount: 2444, want: 244, accepted: true},
		{name: "rounds half away from zero", amount: 2445, want: 245, accepted: true},
		{name: "refund mirrors spend rounding", amount: -2445, want: -245, accepted: true},
		{name: "refund below threshold magnitude", amount: -99, want: 0, accepted: false},
		{name: "refund above threshold magnitude", amount: -2499, want: -250, accepted: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			results := ComputeEarns(tc.amount, []models.Campaign{campaign})
			if len(results) != 1 {
				t.Fatalf("results want 1 got %d", len(results))
			}
			if results[0].Accepted != tc.accepted {
				t.Fatalf("accepted want %v got %v", tc.accepted, results[0].Accepted)
			}
			if results[0].Amount != tc.want {
				t.Fatalf("earn want %d got %d", tc.want, results[0].Amount)
			}
		})
	}
}

func TestAccumulatorEarnCapIsSymmetric(t *testing.T) {
	campaign := models.Campaign{
		LoyaltyType: constants.LoyaltyTypeAccumulator,
		EarnRule: &models.EarnRule{
			IncrementMultiplier: decimal.NewFromFloat(0.1),
			MaxAmount:           100,
		},
	}

	results := ComputeEarns(5000, []models.Campaign{campaign})
	if !results[0].Accepted || results[0].Amount != 100 {
		t.Fatalf("spend should be capped at 100, got %+v", results[0])
	}
	results = ComputeEarns(-5000, []models.Campaign{campaign})
	if !results[0].Accepted || results[0].Amount != -100 {
		t.Fatalf("refund should be capped at -100, got %+v", results[0])
	}
}

func TestStampsEarn(t *testing.T) {
	campaign := models.Campaign{
		LoyaltyType: constants.LoyaltyTypeStamps,
		EarnRule: &models.EarnRule{
			Threshold: 300,
			Increment: 2,
		},
	}

	cases := []struct {
		name     string
		amount   int64
		want     int64
		accepted bool
	}{
		{name: "below threshold", amount: 299, want: 0, accepted: false},
		{name: "one unit", amount: 300, want: 2, accepted: true},
		{name: "truncates partial units", amount: 899, want: 4, accepted: true},
		{name: "refund below threshold", amount: -299, want: 0, accepted: false},
		{name: "refund truncates toward zero", amount: -650, want: -4, accepted: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			results := ComputeEarns(tc.amount, []models.Campaign{campaign})
			if results[0].Accepted != tc.accepted {
				t.Fatalf("accepted want %v got %v", tc.accepted, results[0].Accepted)
			}
			if results[0].Amount != tc.want {
				t.Fatalf("earn want %d got %d", tc.want, results[0].Amount)
			}
		})
	}
}

func TestComputeEarnsRejectsIncompleteCampaigns(t *testing.T) {
	campaigns := []models.Campaign{
		{LoyaltyType: constants.LoyaltyTypeAccumulator}, // no earn rule
		{LoyaltyType: "unknown", EarnRule: &models.EarnRule{IncrementMultiplier: decimal.NewFromInt(1)}},
		{LoyaltyType: constants.LoyaltyTypeStamps, EarnRule: &models.EarnRule{Threshold: 300}}, // no increment
	}

	results := ComputeEarns(1000, campaigns)
	if len(results) != 3 {
		t.Fatalf("results want 3 got %d", len(results))
	}
	for i, result := range results {
		if result.Accepted {
			t.Fatalf("campaign %d should not be accepted: %+v", i, result)
		}
	}
}
