package repository

import (
	"errors"
	"strings"

	"github.com/loyalty-next/internal/models"

	"gorm.io/gorm"
)

// RetailerRepository retailer data access interface
type RetailerRepository interface {
	GetBySlug(slug string) (*models.Retailer, error)
	GetByID(id uint) (*models.Retailer, error)
	Create(retailer *models.Retailer) error
	Update(retailer *models.Retailer) error
	GetStoreByMID(retailerID uint, mid string) (*models.RetailerStore, error)
	CreateStore(store *models.RetailerStore) error
	ListStores(retailerID uint) ([]models.RetailerStore, error)
	WithTx(tx *gorm.DB) *GormRetailerRepository
}

// GormRetailerRepository GORM retailer repository
type GormRetailerRepository struct {
	db *gorm.DB
}

// NewRetailerRepository creates the retailer repository
func NewRetailerRepository(db *gorm.DB) *GormRetailerRepository {
	return &GormRetailerRepository{db: db}
}

// WithTx binds a transaction
func (r *GormRetailerRepository) WithTx(tx *gorm.DB) *GormRetailerRepository {
	if tx == nil {
		return r
	}
	return &GormRetailerRepository{db: tx}
}

// GetBySlug fetches a retailer by slug
func (r *GormRetailerRepository) GetBySlug(slug string) (*models.Retailer, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return nil, nil
	}
	var retailer models.Retailer
	if err := r.db.Where("slug = ?", slug).First(&retailer).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &retailer, nil
}

// GetByID fetches a retailer by primary key
func (r *GormRetailerRepository) GetByID(id uint) (*models.Retailer, error) {
	if id == 0 {
		return nil, nil
	}
	var retailer models.Retailer
	if err := r.db.First(&retailer, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &retailer, nil
}

// Create creates a retailer
func (r *GormRetailerRepository) Create(retailer *models.Retailer) error {
	return r.db.Create(retailer).Error
}

// Update updates a retailer
func (r *GormRetailerRepository) Update(retailer *models.Retailer) error {
	return r.db.Save(retailer).Error
}

// GetStoreByMID fetches a retailer store by merchant identifier
func (r *GormRetailerRepository) GetStoreByMID(retailerID uint, mid string) (*models.RetailerStore, error) {
	mid = strings.TrimSpace(mid)
	if retailerID == 0 || mid == "" {
		return nil, nil
	}
	var store models.RetailerStore
	if err := r.db.Where("retailer_id = ? AND mid = ?", retailerID, mid).First(&store).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &store, nil
}

// CreateStore creates a retailer store
func (r *GormRetailerRepository) CreateStore(store *models.RetailerStore) error {
	return r.db.Create(store).Error
}

// ListStores lists a retailer's stores
func (r *GormRetailerRepository) ListStores(retailerID uint) ([]models.RetailerStore, error) {
	if retailerID == 0 {
		return []models.RetailerStore{}, nil
	}
	var stores []models.RetailerStore
	if err := r.db.Where("retailer_id = ?", retailerID).Order("id asc").Find(&stores).Error; err != nil {
		return nil, err
	}
	return stores, nil
}
