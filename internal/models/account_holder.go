package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AccountHolder a retailer's enrolled customer
type AccountHolder struct {
	ID            uint      `gorm:"primarykey" json:"id"`
	UUID          uuid.UUID `gorm:"type:uuid;uniqueIndex;not null" json:"uuid"`
	RetailerID    uint      `gorm:"index;not null;uniqueIndex:idx_account_holder_email_retailer,priority:2" json:"retailer_id"`
	Email         string    `gorm:"not null;uniqueIndex:idx_account_holder_email_retailer,priority:1" json:"email"`
	Status        string    `gorm:"not null;default:pending" json:"status"` // pending / active / inactive / failed
	AccountNumber *string   `gorm:"uniqueIndex" json:"account_number"`     // assigned on activation
	OptOutToken   uuid.UUID `gorm:"type:uuid;uniqueIndex;not null" json:"-"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`

	Balances       []CampaignBalance `gorm:"constraint:OnDelete:CASCADE" json:"balances,omitempty"`
	PendingRewards []PendingReward   `gorm:"constraint:OnDelete:CASCADE" json:"pending_rewards,omitempty"`
	Rewards        []Reward          `gorm:"constraint:OnDelete:CASCADE" json:"rewards,omitempty"`
}

// TableName table name
func (AccountHolder) TableName() string {
	return "account_holders"
}

// BeforeCreate fills the identity UUIDs when absent
func (a *AccountHolder) BeforeCreate(_ *gorm.DB) error {
	if a.UUID == uuid.Nil {
		a.UUID = uuid.New()
	}
	if a.OptOutToken == uuid.Nil {
		a.OptOutToken = uuid.New()
	}
	return nil
}
