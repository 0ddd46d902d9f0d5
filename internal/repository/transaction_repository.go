package repository

import (
	"errors"
	"strings"

	"github.com/loyalty-next/internal/models"

	"gorm.io/gorm"
)

// TransactionRepository transaction ledger data access interface
type TransactionRepository interface {
	Get(retailerID uint, transactionID string, processed bool) (*models.Transaction, error)
	Create(txn *models.Transaction) error
	CreateEarn(earn *models.TransactionEarn) error
	List(filter TransactionListFilter) ([]models.Transaction, int64, error)
	Transaction(fn func(tx *gorm.DB) error) error
	WithTx(tx *gorm.DB) *GormTransactionRepository
}

// GormTransactionRepository GORM transaction repository
type GormTransactionRepository struct {
	db *gorm.DB
}

// NewTransactionRepository creates the transaction repository
func NewTransactionRepository(db *gorm.DB) *GormTransactionRepository {
	return &GormTransactionRepository{db: db}
}

// WithTx binds a transaction
func (r *GormTransactionRepository) WithTx(tx *gorm.DB) *GormTransactionRepository {
	if tx == nil {
		return r
	}
	return &GormTransactionRepository{db: tx}
}

// Transaction runs fn inside a database transaction
func (r *GormTransactionRepository) Transaction(fn func(tx *gorm.DB) error) error {
	return r.db.Transaction(fn)
}

// Get fetches one ledger row by external id and processed state
func (r *GormTransactionRepository) Get(retailerID uint, transactionID string, processed bool) (*models.Transaction, error) {
	transactionID = strings.TrimSpace(transactionID)
	if retailerID == 0 || transactionID == "" {
		return nil, nil
	}
	var txn models.Transaction
	if err := r.db.Where("retailer_id = ? AND transaction_id = ? AND processed = ?",
		retailerID, transactionID, processed).First(&txn).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &txn, nil
}

// Create inserts a ledger row
func (r *GormTransactionRepository) Create(txn *models.Transaction) error {
	return r.db.Create(txn).Error
}

// CreateEarn records the earn decision for one campaign
func (r *GormTransactionRepository) CreateEarn(earn *models.TransactionEarn) error {
	return r.db.Create(earn).Error
}

// List lists ledger rows with pagination
func (r *GormTransactionRepository) List(filter TransactionListFilter) ([]models.Transaction, int64, error) {
	query := r.db.Model(&models.Transaction{})
	if filter.RetailerID != 0 {
		query = query.Where("retailer_id = ?", filter.RetailerID)
	}
	if filter.AccountHolderID != 0 {
		query = query.Where("account_holder_id = ?", filter.AccountHolderID)
	}
	if filter.Processed != nil {
		query = query.Where("processed = ?", *filter.Processed)
	}
	if filter.DatetimeFrom != nil {
		query = query.Where("datetime >= ?", *filter.DatetimeFrom)
	}
	if filter.DatetimeTo != nil {
		query = query.Where("datetime <= ?", *filter.DatetimeTo)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)

	var txns []models.Transaction
	if err := query.Order("id desc").Find(&txns).Error; err != nil {
		return nil, 0, err
	}
	return txns, total, nil
}
