package models

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/loyalty-next/internal/constants"
)

// Campaign an earning scheme of a retailer
type Campaign struct {
	ID          uint       `gorm:"primarykey" json:"id"`
	RetailerID  uint       `gorm:"index;not null" json:"retailer_id"`
	Slug        string     `gorm:"uniqueIndex;size:64;not null" json:"slug"`
	Name        string     `gorm:"not null" json:"name"`
	Status      string     `gorm:"index;not null;default:draft" json:"status"` // draft / active / ended / cancelled
	LoyaltyType string     `gorm:"not null" json:"loyalty_type"`               // accumulator / stamps
	StartDate   *time.Time `json:"start_date"`
	EndDate     *time.Time `json:"end_date"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`

	EarnRule   *EarnRule   `gorm:"constraint:OnDelete:CASCADE" json:"earn_rule,omitempty"`
	RewardRule *RewardRule `gorm:"constraint:OnDelete:CASCADE" json:"reward_rule,omitempty"`
}

// TableName table name
func (Campaign) TableName() string {
	return "campaigns"
}

// IsActive reports whether the campaign currently earns
func (c *Campaign) IsActive() bool {
	return c.Status == constants.CampaignStatusActive
}

// CanTransitionTo reports whether the status change is a legal state machine edge
func (c *Campaign) CanTransitionTo(status string) bool {
	switch c.Status {
	case constants.CampaignStatusDraft:
		return status == constants.CampaignStatusActive || status == constants.CampaignStatusCancelled
	case constants.CampaignStatusActive:
		return status == constants.CampaignStatusEnded || status == constants.CampaignStatusCancelled
	default:
		// ended and cancelled are terminal
		return false
	}
}

// EarnRule how a transaction amount turns into earned units
type EarnRule struct {
	ID                  uint            `gorm:"primarykey" json:"id"`
	CampaignID          uint            `gorm:"uniqueIndex;not null" json:"campaign_id"`
	Threshold           int64           `gorm:"not null;default:0" json:"threshold"` // minimum qualifying |amount| in pence
	Increment           int64           `gorm:"not null;default:0" json:"increment"` // stamps added per threshold multiple
	IncrementMultiplier decimal.Decimal `gorm:"type:decimal(20,8);not null;default:1" json:"increment_multiplier"`
	MaxAmount           int64           `gorm:"not null;default:0" json:"max_amount"` // cap on |earn|, 0 = uncapped
	CreatedAt           time.Time       `json:"created_at"`
	UpdatedAt           time.Time       `json:"updated_at"`
}

// TableName table name
func (EarnRule) TableName() string {
	return "earn_rules"
}

// RewardRule when and how earned balance converts into rewards
type RewardRule struct {
	ID               uint      `gorm:"primarykey" json:"id"`
	CampaignID       uint      `gorm:"uniqueIndex;not null" json:"campaign_id"`
	RewardGoal       int64     `gorm:"not null" json:"reward_goal"`
	AllocationWindow int       `gorm:"not null;default:0" json:"allocation_window"` // days rewards stay pending, 0 = issue immediately
	RewardCap        int       `gorm:"not null;default:0" json:"reward_cap"`        // max rewards per transaction, 0 = uncapped
	RewardConfigID   uint      `gorm:"not null" json:"reward_config_id"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`

	RewardConfig *RewardConfig `json:"reward_config,omitempty"`
}

// TableName table name
func (RewardRule) TableName() string {
	return "reward_rules"
}
