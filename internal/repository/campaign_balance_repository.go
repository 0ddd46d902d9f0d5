package repository

import (
	"errors"
	"time"

	"github.com/loyalty-next/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CampaignBalanceRepository campaign balance data access interface
type CampaignBalanceRepository interface {
	Get(accountHolderID, campaignID uint) (*models.CampaignBalance, error)
	GetForUpdate(accountHolderID, campaignID uint) (*models.CampaignBalance, error)
	Create(balance *models.CampaignBalance) error
	CreateBatch(balances []models.CampaignBalance) error
	Update(balance *models.CampaignBalance) error
	DeleteByCampaign(campaignID uint) error
	ListByAccountHolder(accountHolderID uint) ([]models.CampaignBalance, error)
	ListDueForReset(now time.Time, limit int) ([]models.CampaignBalance, error)
	Transaction(fn func(tx *gorm.DB) error) error
	WithTx(tx *gorm.DB) *GormCampaignBalanceRepository
}

// GormCampaignBalanceRepository GORM campaign balance repository
type GormCampaignBalanceRepository struct {
	db *gorm.DB
}

// NewCampaignBalanceRepository creates the campaign balance repository
func NewCampaignBalanceRepository(db *gorm.DB) *GormCampaignBalanceRepository {
	return &GormCampaignBalanceRepository{db: db}
}

// WithTx binds a transaction
func (r *GormCampaignBalanceRepository) WithTx(tx *gorm.DB) *GormCampaignBalanceRepository {
	if tx == nil {
		return r
	}
	return &GormCampaignBalanceRepository{db: tx}
}

// Transaction runs fn inside a database transaction
func (r *GormCampaignBalanceRepository) Transaction(fn func(tx *gorm.DB) error) error {
	return r.db.Transaction(fn)
}

// Get fetches one balance row
func (r *GormCampaignBalanceRepository) Get(accountHolderID, campaignID uint) (*models.CampaignBalance, error) {
	if accountHolderID == 0 || campaignID == 0 {
		return nil, nil
	}
	var balance models.CampaignBalance
	if err := r.db.Where("account_holder_id = ? AND campaign_id = ?", accountHolderID, campaignID).
		First(&balance).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &balance, nil
}

// GetForUpdate fetches one balance row with a row lock
func (r *GormCampaignBalanceRepository) GetForUpdate(accountHolderID, campaignID uint) (*models.CampaignBalance, error) {
	if accountHolderID == 0 || campaignID == 0 {
		return nil, nil
	}
	var balance models.CampaignBalance
	if err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("account_holder_id = ? AND campaign_id = ?", accountHolderID, campaignID).
		First(&balance).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &balance, nil
}

// Create creates a balance row
func (r *GormCampaignBalanceRepository) Create(balance *models.CampaignBalance) error {
	return r.db.Create(balance).Error
}

// CreateBatch bulk-creates balance rows, ignoring ones that already exist
func (r *GormCampaignBalanceRepository) CreateBatch(balances []models.CampaignBalance) error {
	if len(balances) == 0 {
		return nil
	}
	return r.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&balances).Error
}

// Update updates a balance row
func (r *GormCampaignBalanceRepository) Update(balance *models.CampaignBalance) error {
	return r.db.Save(balance).Error
}

// DeleteByCampaign removes every balance row of one campaign
func (r *GormCampaignBalanceRepository) DeleteByCampaign(campaignID uint) error {
	if campaignID == 0 {
		return nil
	}
	return r.db.Where("campaign_id = ?", campaignID).Delete(&models.CampaignBalance{}).Error
}

// ListDueForReset lists balances whose lifespan has elapsed
func (r *GormCampaignBalanceRepository) ListDueForReset(now time.Time, limit int) ([]models.CampaignBalance, error) {
	if limit <= 0 {
		limit = 500
	}
	var balances []models.CampaignBalance
	if err := r.db.Where("reset_date IS NOT NULL AND reset_date <= ?", now).
		Order("id asc").
		Limit(limit).
		Find(&balances).Error; err != nil {
		return nil, err
	}
	return balances, nil
}

// ListByAccountHolder lists an account holder's balances, ascending campaign id
func (r *GormCampaignBalanceRepository) ListByAccountHolder(accountHolderID uint) ([]models.CampaignBalance, error) {
	if accountHolderID == 0 {
		return []models.CampaignBalance{}, nil
	}
	var balances []models.CampaignBalance
	if err := r.db.Where("account_holder_id = ?", accountHolderID).
		Order("campaign_id asc").
		Find(&balances).Error; err != nil {
		return nil, err
	}
	return balances, nil
}
