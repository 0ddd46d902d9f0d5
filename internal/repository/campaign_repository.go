package repository

import (
	"errors"
	"strings"

	"github.com/loyalty-next/internal/constants"
	"github.com/loyalty-next/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CampaignRepository campaign data access interface
type CampaignRepository interface {
	GetBySlug(retailerID uint, slug string) (*models.Campaign, error)
	GetBySlugForUpdate(retailerID uint, slug string) (*models.Campaign, error)
	GetWithRules(id uint) (*models.Campaign, error)
	ListActiveByRetailer(retailerID uint) ([]models.Campaign, error)
	CountActiveByRetailer(retailerID uint, excludeID uint) (int64, error)
	Create(campaign *models.Campaign) error
	Update(campaign *models.Campaign) error
	Transaction(fn func(tx *gorm.DB) error) error
	WithTx(tx *gorm.DB) *GormCampaignRepository
}

// GormCampaignRepository GORM campaign repository
type GormCampaignRepository struct {
	db *gorm.DB
}

// NewCampaignRepository creates the campaign repository
func NewCampaignRepository(db *gorm.DB) *GormCampaignRepository {
	return &GormCampaignRepository{db: db}
}

// WithTx binds a transaction
func (r *GormCampaignRepository) WithTx(tx *gorm.DB) *GormCampaignRepository {
	if tx == nil {
		return r
	}
	return &GormCampaignRepository{db: tx}
}

// Transaction runs fn inside a database transaction
func (r *GormCampaignRepository) Transaction(fn func(tx *gorm.DB) error) error {
	return r.db.Transaction(fn)
}

// GetBySlug fetches a campaign of one retailer by slug
func (r *GormCampaignRepository) GetBySlug(retailerID uint, slug string) (*models.Campaign, error) {
	slug = strings.TrimSpace(slug)
	if retailerID == 0 || slug == "" {
		return nil, nil
	}
	var campaign models.Campaign
	if err := r.db.Where("retailer_id = ? AND slug = ?", retailerID, slug).First(&campaign).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &campaign, nil
}

// GetBySlugForUpdate fetches a campaign by slug with a row lock
func (r *GormCampaignRepository) GetBySlugForUpdate(retailerID uint, slug string) (*models.Campaign, error) {
	slug = strings.TrimSpace(slug)
	if retailerID == 0 || slug == "" {
		return nil, nil
	}
	var campaign models.Campaign
	if err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("retailer_id = ? AND slug = ?", retailerID, slug).
		First(&campaign).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &campaign, nil
}

// GetWithRules fetches a campaign with its earn and reward rules preloaded
func (r *GormCampaignRepository) GetWithRules(id uint) (*models.Campaign, error) {
	if id == 0 {
		return nil, nil
	}
	var campaign models.Campaign
	if err := r.db.
		Preload("EarnRule").
		Preload("RewardRule").
		Preload("RewardRule.RewardConfig").
		First(&campaign, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &campaign, nil
}

// ListActiveByRetailer lists a retailer's active campaigns with rules, ascending id
func (r *GormCampaignRepository) ListActiveByRetailer(retailerID uint) ([]models.Campaign, error) {
	if retailerID == 0 {
		return []models.Campaign{}, nil
	}
	var campaigns []models.Campaign
	if err := r.db.
		Preload("EarnRule").
		Preload("RewardRule").
		Preload("RewardRule.RewardConfig").
		Where("retailer_id = ? AND status = ?", retailerID, constants.CampaignStatusActive).
		Order("id asc").
		Find(&campaigns).Error; err != nil {
		return nil, err
	}
	return campaigns, nil
}

// CountActiveByRetailer counts a retailer's active campaigns, optionally excluding one
func (r *GormCampaignRepository) CountActiveByRetailer(retailerID uint, excludeID uint) (int64, error) {
	if retailerID == 0 {
		return 0, nil
	}
	query := r.db.Model(&models.Campaign{}).
		Where("retailer_id = ? AND status = ?", retailerID, constants.CampaignStatusActive)
	if excludeID != 0 {
		query = query.Where("id <> ?", excludeID)
	}
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Create creates a campaign with its associations
func (r *GormCampaignRepository) Create(campaign *models.Campaign) error {
	return r.db.Create(campaign).Error
}

// Update updates a campaign row (associations untouched)
func (r *GormCampaignRepository) Update(campaign *models.Campaign) error {
	return r.db.Omit(clause.Associations).Save(campaign).Error
}
