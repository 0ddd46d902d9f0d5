package service

import "errors"

// Sentinel errors shared across services, matched with errors.Is at the handler boundary.
var (
	ErrRetailerNotFound          = errors.New("retailer not found")
	ErrRetailerInactive          = errors.New("retailer is inactive")
	ErrAccountHolderNotFound     = errors.New("account holder not found")
	ErrAccountHolderNotActive    = errors.New("account holder is not active")
	ErrAccountHolderExists       = errors.New("account holder already exists")
	ErrInvalidTxDate             = errors.New("transaction date predates the account")
	ErrNoActiveCampaigns         = errors.New("retailer has no active campaigns")
	ErrNoMatchingStore           = errors.New("no retailer store matches the mid")
	ErrDuplicateTransaction      = errors.New("duplicate transaction")
	ErrCampaignNotFound          = errors.New("campaign not found")
	ErrInvalidStatusRequested    = errors.New("invalid campaign status requested")
	ErrMissingCampaignComponents = errors.New("campaign is missing earn or reward rule")
	ErrRewardNotFound            = errors.New("reward not found")
)
