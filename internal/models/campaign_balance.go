package models

import "time"

// CampaignBalance an account holder's running balance in one campaign
type CampaignBalance struct {
	ID              uint       `gorm:"primarykey" json:"id"`
	AccountHolderID uint       `gorm:"not null;uniqueIndex:idx_balance_holder_campaign,priority:1" json:"account_holder_id"`
	CampaignID      uint       `gorm:"not null;uniqueIndex:idx_balance_holder_campaign,priority:2" json:"campaign_id"`
	Balance         int64      `gorm:"not null;default:0" json:"balance"` // signed; negative means amount owed after refunds
	ResetDate       *time.Time `json:"reset_date"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// TableName table name
func (CampaignBalance) TableName() string {
	return "campaign_balances"
}
