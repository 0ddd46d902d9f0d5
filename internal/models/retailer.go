package models

import (
	"time"

	"github.com/loyalty-next/internal/constants"
)

// Retailer tenant owning campaigns and account holders
type Retailer struct {
	ID                  uint      `gorm:"primarykey" json:"id"`
	Name                string    `gorm:"not null" json:"name"`
	Slug                string    `gorm:"uniqueIndex;size:32;not null" json:"slug"`
	Status              string    `gorm:"not null;default:active" json:"status"` // test / active / inactive
	LoyaltyName         string    `gorm:"size:64;not null" json:"loyalty_name"`
	AccountNumberPrefix string    `gorm:"size:6;not null" json:"account_number_prefix"`
	AccountNumberLength int       `gorm:"not null;default:10" json:"account_number_length"`
	BalanceLifespan     int       `gorm:"not null;default:0" json:"balance_lifespan"` // days until balances reset, 0 = never
	APIKeyHash          string    `gorm:"not null;default:''" json:"-"`               // bcrypt hash of the transaction API key
	CallbackURL         string    `gorm:"default:''" json:"callback_url"`             // enrolment callback target, optional
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`

	Stores    []RetailerStore `gorm:"constraint:OnDelete:CASCADE" json:"stores,omitempty"`
	Campaigns []Campaign      `gorm:"constraint:OnDelete:CASCADE" json:"campaigns,omitempty"`
}

// TableName table name
func (Retailer) TableName() string {
	return "retailers"
}

// IsTest reports whether the retailer is a test tenant
func (r *Retailer) IsTest() bool {
	return r.Status == constants.RetailerStatusTest
}

// RetailerStore a physical or virtual store of a retailer, keyed by mid
type RetailerStore struct {
	ID         uint      `gorm:"primarykey" json:"id"`
	RetailerID uint      `gorm:"index;not null" json:"retailer_id"`
	MID        string    `gorm:"column:mid;uniqueIndex;size:128;not null" json:"mid"`
	StoreName  string    `gorm:"size:128;not null" json:"store_name"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// TableName table name
func (RetailerStore) TableName() string {
	return "retailer_stores"
}
