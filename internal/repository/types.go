package repository

import "time"

// TransactionListFilter filter for transaction history queries
type TransactionListFilter struct {
	Page            int
	PageSize        int
	RetailerID      uint
	AccountHolderID uint
	Processed       *bool
	DatetimeFrom    *time.Time
	DatetimeTo      *time.Time
}

// RewardListFilter filter for issued reward queries
type RewardListFilter struct {
	Page            int
	PageSize        int
	AccountHolderID uint
	CampaignID      uint
	IncludeDeleted  bool
	IncludeExpired  bool
}

// AccountHolderListFilter filter for account holder queries
type AccountHolderListFilter struct {
	Page       int
	PageSize   int
	RetailerID uint
	Status     string
	Search     string
}
