package repository

import (
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/loyalty-next/internal/constants"
	"github.com/loyalty-next/internal/models"

	"gorm.io/gorm"
)

// AccountHolderRepository account holder data access interface
type AccountHolderRepository interface {
	GetByID(id uint) (*models.AccountHolder, error)
	GetByUUID(id uuid.UUID) (*models.AccountHolder, error)
	GetByEmail(retailerID uint, email string) (*models.AccountHolder, error)
	Create(holder *models.AccountHolder) error
	Update(holder *models.AccountHolder) error
	AccountNumberExists(accountNumber string) (bool, error)
	ListActiveIDsByRetailer(retailerID uint) ([]uint, error)
	List(filter AccountHolderListFilter) ([]models.AccountHolder, int64, error)
	WithTx(tx *gorm.DB) *GormAccountHolderRepository
}

// GormAccountHolderRepository GORM account holder repository
type GormAccountHolderRepository struct {
	db *gorm.DB
}

// NewAccountHolderRepository creates the account holder repository
func NewAccountHolderRepository(db *gorm.DB) *GormAccountHolderRepository {
	return &GormAccountHolderRepository{db: db}
}

// WithTx binds a transaction
func (r *GormAccountHolderRepository) WithTx(tx *gorm.DB) *GormAccountHolderRepository {
	if tx == nil {
		return r
	}
	return &GormAccountHolderRepository{db: tx}
}

// GetByID fetches an account holder by primary key
func (r *GormAccountHolderRepository) GetByID(id uint) (*models.AccountHolder, error) {
	if id == 0 {
		return nil, nil
	}
	var holder models.AccountHolder
	if err := r.db.First(&holder, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &holder, nil
}

// GetByUUID fetches an account holder by public UUID
func (r *GormAccountHolderRepository) GetByUUID(id uuid.UUID) (*models.AccountHolder, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	var holder models.AccountHolder
	if err := r.db.Where("uuid = ?", id).First(&holder).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &holder, nil
}

// GetByEmail fetches an account holder by email within one retailer
func (r *GormAccountHolderRepository) GetByEmail(retailerID uint, email string) (*models.AccountHolder, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if retailerID == 0 || email == "" {
		return nil, nil
	}
	var holder models.AccountHolder
	if err := r.db.Where("retailer_id = ? AND email = ?", retailerID, email).First(&holder).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &holder, nil
}

// Create creates an account holder
func (r *GormAccountHolderRepository) Create(holder *models.AccountHolder) error {
	return r.db.Create(holder).Error
}

// Update updates an account holder
func (r *GormAccountHolderRepository) Update(holder *models.AccountHolder) error {
	return r.db.Save(holder).Error
}

// AccountNumberExists reports whether an account number is already assigned
func (r *GormAccountHolderRepository) AccountNumberExists(accountNumber string) (bool, error) {
	accountNumber = strings.TrimSpace(accountNumber)
	if accountNumber == "" {
		return false, nil
	}
	var count int64
	if err := r.db.Model(&models.AccountHolder{}).
		Where("account_number = ?", accountNumber).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// ListActiveIDsByRetailer lists the IDs of a retailer's active account holders
func (r *GormAccountHolderRepository) ListActiveIDsByRetailer(retailerID uint) ([]uint, error) {
	if retailerID == 0 {
		return []uint{}, nil
	}
	var ids []uint
	if err := r.db.Model(&models.AccountHolder{}).
		Where("retailer_id = ? AND status = ?", retailerID, constants.AccountHolderStatusActive).
		Order("id asc").
		Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

// List lists account holders with pagination
func (r *GormAccountHolderRepository) List(filter AccountHolderListFilter) ([]models.AccountHolder, int64, error) {
	query := r.db.Model(&models.AccountHolder{})
	if filter.RetailerID != 0 {
		query = query.Where("retailer_id = ?", filter.RetailerID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Search != "" {
		query = query.Where("email LIKE ?", "%"+filter.Search+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)

	var holders []models.AccountHolder
	if err := query.Order("id desc").Find(&holders).Error; err != nil {
		return nil, 0, err
	}
	return holders, total, nil
}
