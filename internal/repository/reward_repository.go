package repository

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/loyalty-next/internal/models"

	"gorm.io/gorm"
)

// RewardRepository issued reward data access interface
type RewardRepository interface {
	GetByUUID(id uuid.UUID) (*models.Reward, error)
	GetByCode(code string) (*models.Reward, error)
	GetConfigByID(id uint) (*models.RewardConfig, error)
	GetConfigBySlug(retailerID uint, slug string) (*models.RewardConfig, error)
	Create(reward *models.Reward) error
	CreateConfig(config *models.RewardConfig) error
	Update(reward *models.Reward) error
	CancelByCampaign(campaignID uint, cancelledAt time.Time) (int64, error)
	List(filter RewardListFilter) ([]models.Reward, int64, error)
	WithTx(tx *gorm.DB) *GormRewardRepository
}

// GormRewardRepository GORM reward repository
type GormRewardRepository struct {
	db *gorm.DB
}

// NewRewardRepository creates the reward repository
func NewRewardRepository(db *gorm.DB) *GormRewardRepository {
	return &GormRewardRepository{db: db}
}

// WithTx binds a transaction
func (r *GormRewardRepository) WithTx(tx *gorm.DB) *GormRewardRepository {
	if tx == nil {
		return r
	}
	return &GormRewardRepository{db: tx}
}

// GetByUUID fetches a reward by public UUID
func (r *GormRewardRepository) GetByUUID(id uuid.UUID) (*models.Reward, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	var reward models.Reward
	if err := r.db.Where("uuid = ?", id).First(&reward).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &reward, nil
}

// GetByCode fetches a reward by code
func (r *GormRewardRepository) GetByCode(code string) (*models.Reward, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, nil
	}
	var reward models.Reward
	if err := r.db.Where("code = ?", code).First(&reward).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &reward, nil
}

// GetConfigByID fetches a reward config by primary key
func (r *GormRewardRepository) GetConfigByID(id uint) (*models.RewardConfig, error) {
	if id == 0 {
		return nil, nil
	}
	var config models.RewardConfig
	if err := r.db.First(&config, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &config, nil
}

// GetConfigBySlug fetches a retailer's reward config by slug
func (r *GormRewardRepository) GetConfigBySlug(retailerID uint, slug string) (*models.RewardConfig, error) {
	slug = strings.TrimSpace(slug)
	if retailerID == 0 || slug == "" {
		return nil, nil
	}
	var config models.RewardConfig
	if err := r.db.Where("retailer_id = ? AND slug = ?", retailerID, slug).First(&config).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &config, nil
}

// Create creates a reward
func (r *GormRewardRepository) Create(reward *models.Reward) error {
	return r.db.Create(reward).Error
}

// CreateConfig creates a reward config
func (r *GormRewardRepository) CreateConfig(config *models.RewardConfig) error {
	return r.db.Create(config).Error
}

// Update updates a reward
func (r *GormRewardRepository) Update(reward *models.Reward) error {
	return r.db.Save(reward).Error
}

// CancelByCampaign soft-cancels every live reward of one campaign
func (r *GormRewardRepository) CancelByCampaign(campaignID uint, cancelledAt time.Time) (int64, error) {
	if campaignID == 0 {
		return 0, nil
	}
	result := r.db.Model(&models.Reward{}).
		Where("campaign_id = ? AND cancelled_date IS NULL AND redeemed_date IS NULL", campaignID).
		Update("cancelled_date", cancelledAt)
	return result.RowsAffected, result.Error
}

// List lists rewards with pagination
func (r *GormRewardRepository) List(filter RewardListFilter) ([]models.Reward, int64, error) {
	query := r.db.Model(&models.Reward{})
	if filter.AccountHolderID != 0 {
		query = query.Where("account_holder_id = ?", filter.AccountHolderID)
	}
	if filter.CampaignID != 0 {
		query = query.Where("campaign_id = ?", filter.CampaignID)
	}
	if !filter.IncludeDeleted {
		query = query.Where("deleted = ?", false)
	}
	if !filter.IncludeExpired {
		query = query.Where("expiry_date IS NULL OR expiry_date > ?", time.Now())
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)

	var rewards []models.Reward
	if err := query.Order("id desc").Find(&rewards).Error; err != nil {
		return nil, 0, err
	}
	return rewards, total, nil
}
