package models

import "time"

// Transaction an inbound spend or refund event from a retailer system
type Transaction struct {
	ID                   uint      `gorm:"primarykey" json:"id"`
	TransactionID        string    `gorm:"size:128;not null;uniqueIndex:idx_tx_retailer_processed,priority:1" json:"transaction_id"`
	RetailerID           uint      `gorm:"not null;uniqueIndex:idx_tx_retailer_processed,priority:2" json:"retailer_id"`
	AccountHolderID      uint      `gorm:"index;not null" json:"account_holder_id"`
	Amount               int64     `gorm:"not null" json:"amount"` // signed pence, negative = refund
	MID                  string    `gorm:"column:mid;size:128;not null" json:"mid"`
	Datetime             time.Time `gorm:"not null" json:"datetime"`
	PaymentTransactionID string    `gorm:"size:128;not null;default:''" json:"payment_transaction_id"`
	Processed            *bool     `gorm:"uniqueIndex:idx_tx_retailer_processed,priority:3" json:"processed"` // true = applied, NULL = rejected duplicate
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`

	Earns []TransactionEarn `gorm:"constraint:OnDelete:CASCADE" json:"earns,omitempty"`
}

// TableName table name
func (Transaction) TableName() string {
	return "transactions"
}

// IsRefund reports whether the amount is negative
func (t *Transaction) IsRefund() bool {
	return t.Amount < 0
}

// TransactionEarn the earn decision recorded for one campaign
type TransactionEarn struct {
	ID            uint      `gorm:"primarykey" json:"id"`
	TransactionID uint      `gorm:"index;not null" json:"transaction_id"`
	CampaignID    uint      `gorm:"index;not null" json:"campaign_id"`
	LoyaltyType   string    `gorm:"not null" json:"loyalty_type"`
	EarnAmount    int64     `gorm:"not null" json:"earn_amount"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// TableName table name
func (TransactionEarn) TableName() string {
	return "transaction_earns"
}
