package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RewardConfig per-retailer template for issued rewards
type RewardConfig struct {
	ID           uint      `gorm:"primarykey" json:"id"`
	RetailerID   uint      `gorm:"index;not null" json:"retailer_id"`
	Slug         string    `gorm:"uniqueIndex;size:64;not null" json:"slug"`
	ValidityDays int       `gorm:"not null;default:0" json:"validity_days"` // 0 = rewards never expire
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// TableName table name
func (RewardConfig) TableName() string {
	return "reward_configs"
}

// Reward an issued reward owned by an account holder
type Reward struct {
	ID              uint       `gorm:"primarykey" json:"id"`
	UUID            uuid.UUID  `gorm:"type:uuid;uniqueIndex;not null" json:"uuid"`
	Code            string     `gorm:"uniqueIndex;size:64;not null" json:"code"`
	AccountHolderID uint       `gorm:"index;not null" json:"account_holder_id"`
	RetailerID      uint       `gorm:"index;not null" json:"retailer_id"`
	CampaignID      *uint      `gorm:"index" json:"campaign_id"` // nil once the campaign row is gone
	RewardConfigID  uint       `gorm:"not null" json:"reward_config_id"`
	Reason          string     `gorm:"not null" json:"reason"` // goal_met / converted
	IssuedDate      time.Time  `gorm:"not null" json:"issued_date"`
	ExpiryDate      *time.Time `json:"expiry_date"`
	RedeemedDate    *time.Time `json:"redeemed_date"`
	CancelledDate   *time.Time `json:"cancelled_date"`
	Deleted         bool       `gorm:"not null;default:false" json:"deleted"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// TableName table name
func (Reward) TableName() string {
	return "rewards"
}

// BeforeCreate fills the reward UUID when absent
func (r *Reward) BeforeCreate(_ *gorm.DB) error {
	if r.UUID == uuid.Nil {
		r.UUID = uuid.New()
	}
	return nil
}

// PendingReward earned rewards held back for an allocation window
type PendingReward struct {
	ID              uint      `gorm:"primarykey" json:"id"`
	UUID            uuid.UUID `gorm:"type:uuid;uniqueIndex;not null" json:"uuid"`
	AccountHolderID uint      `gorm:"index;not null" json:"account_holder_id"`
	CampaignID      uint      `gorm:"index;not null" json:"campaign_id"`
	Value           int64     `gorm:"not null" json:"value"` // reward goal at crossing time
	Count           int       `gorm:"not null;default:1" json:"count"`
	TotalCostToUser int64     `gorm:"not null" json:"total_cost_to_user"` // spend that produced the crossing
	CreatedDate     time.Time `gorm:"not null" json:"created_date"`
	ConversionDate  time.Time `gorm:"not null" json:"conversion_date"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// TableName table name
func (PendingReward) TableName() string {
	return "pending_rewards"
}

// BeforeCreate fills the pending reward UUID when absent
func (p *PendingReward) BeforeCreate(_ *gorm.DB) error {
	if p.UUID == uuid.Nil {
		p.UUID = uuid.New()
	}
	return nil
}

// TotalValue the reward value the pending rows stand for
func (p *PendingReward) TotalValue() int64 {
	return int64(p.Count) * p.Value
}

// Slush spend above the reward value, absorbable by refunds
func (p *PendingReward) Slush() int64 {
	return p.TotalCostToUser - p.TotalValue()
}
