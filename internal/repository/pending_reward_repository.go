package repository

import (
	"errors"

	"github.com/google/uuid"
	"github.com/loyalty-next/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PendingRewardRepository pending reward data access interface
type PendingRewardRepository interface {
	GetByUUID(id uuid.UUID) (*models.PendingReward, error)
	ListForUpdate(accountHolderID, campaignID uint) ([]models.PendingReward, error)
	ListByCampaign(campaignID uint) ([]models.PendingReward, error)
	Create(pending *models.PendingReward) error
	Update(pending *models.PendingReward) error
	Delete(pending *models.PendingReward) error
	DeleteByCampaign(campaignID uint) error
	WithTx(tx *gorm.DB) *GormPendingRewardRepository
}

// GormPendingRewardRepository GORM pending reward repository
type GormPendingRewardRepository struct {
	db *gorm.DB
}

// NewPendingRewardRepository creates the pending reward repository
func NewPendingRewardRepository(db *gorm.DB) *GormPendingRewardRepository {
	return &GormPendingRewardRepository{db: db}
}

// WithTx binds a transaction
func (r *GormPendingRewardRepository) WithTx(tx *gorm.DB) *GormPendingRewardRepository {
	if tx == nil {
		return r
	}
	return &GormPendingRewardRepository{db: tx}
}

// GetByUUID fetches a pending reward by public UUID
func (r *GormPendingRewardRepository) GetByUUID(id uuid.UUID) (*models.PendingReward, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	var pending models.PendingReward
	if err := r.db.Where("uuid = ?", id).First(&pending).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &pending, nil
}

// ListForUpdate lists and locks one holder's pending rewards in a campaign, oldest first
func (r *GormPendingRewardRepository) ListForUpdate(accountHolderID, campaignID uint) ([]models.PendingReward, error) {
	if accountHolderID == 0 || campaignID == 0 {
		return []models.PendingReward{}, nil
	}
	var pendings []models.PendingReward
	if err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("account_holder_id = ? AND campaign_id = ?", accountHolderID, campaignID).
		Order("created_date asc, id asc").
		Find(&pendings).Error; err != nil {
		return nil, err
	}
	return pendings, nil
}

// ListByCampaign lists every pending reward of one campaign
func (r *GormPendingRewardRepository) ListByCampaign(campaignID uint) ([]models.PendingReward, error) {
	if campaignID == 0 {
		return []models.PendingReward{}, nil
	}
	var pendings []models.PendingReward
	if err := r.db.Where("campaign_id = ?", campaignID).
		Order("id asc").
		Find(&pendings).Error; err != nil {
		return nil, err
	}
	return pendings, nil
}

// Create creates a pending reward
func (r *GormPendingRewardRepository) Create(pending *models.PendingReward) error {
	return r.db.Create(pending).Error
}

// Update updates a pending reward
func (r *GormPendingRewardRepository) Update(pending *models.PendingReward) error {
	return r.db.Save(pending).Error
}

// Delete removes a pending reward row
func (r *GormPendingRewardRepository) Delete(pending *models.PendingReward) error {
	if pending == nil || pending.ID == 0 {
		return nil
	}
	return r.db.Delete(pending).Error
}

// DeleteByCampaign removes every pending reward of one campaign
func (r *GormPendingRewardRepository) DeleteByCampaign(campaignID uint) error {
	if campaignID == 0 {
		return nil
	}
	return r.db.Where("campaign_id = ?", campaignID).Delete(&models.PendingReward{}).Error
}
