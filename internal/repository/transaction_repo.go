package repository

import (
	"errors"
	"strings"

	"lumen-finance-backend/internal/models"

	"gorm.io/gorm"
)

// ErrDuplicate is returned when an insert would collide with a row that is
// already present.
var ErrDuplicate = errors.New("record already exists")

type TransactionRepository struct {
	db *gorm.DB
}

func NewTransactionRepository(db *gorm.DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

// Add inserts a transaction, refusing duplicates by txn_id.
func (r *TransactionRepository) Add(txn *models.Transaction) error {
	exists, err := r.Exists(txn.TxnID)
	if err != nil {
		return err
	}
	if exists {
		return ErrDuplicate
	}
	return r.db.Create(txn).Error
}

// Exists checks for a transaction by its txn_id.
func (r *TransactionRepository) Exists(txnID string) (bool, error) {
	var count int64
	err := r.db.Model(&models.Transaction{}).Where("txn_id = ?", txnID).Count(&count).Error
	return count > 0, err
}

// CheckDuplicate looks for a row with the same date, amount and merchant.
// Gmail re-fetches the same emails on every sync, so txn_id alone is not
// enough to spot re-extractions.
func (r *TransactionRepository) CheckDuplicate(date string, amount float64, merchant string) (bool, error) {
	var count int64
	err := r.db.Model(&models.Transaction{}).
		Where("date = ? AND amount = ? AND merchant_name = ?", date, amount, merchant).
		Count(&count).Error
	return count > 0, err
}

// GetAll returns every transaction, newest first.
func (r *TransactionRepository) GetAll() ([]models.Transaction, error) {
	var txns []models.Transaction
	err := r.db.Order("created_at DESC").Find(&txns).Error
	return txns, err
}

// GetRecent returns the latest transactions up to limit.
func (r *TransactionRepository) GetRecent(limit int) ([]models.Transaction, error) {
	var txns []models.Transaction
	err := r.db.Order("created_at DESC").Limit(limit).Find(&txns).Error
	return txns, err
}

// GetByID fetches a single transaction by txn_id.
func (r *TransactionRepository) GetByID(txnID string) (*models.Transaction, error) {
	var txn models.Transaction
	err := r.db.First(&txn, "txn_id = ?", txnID).Error
	if err != nil {
		return nil, err
	}
	return &txn, nil
}

// GetByType returns transactions of one type (debit or credit), newest first.
func (r *TransactionRepository) GetByType(txnType string) ([]models.Transaction, error) {
	var txns []models.Transaction
	err := r.db.Where("type = ?", txnType).Order("created_at DESC").Find(&txns).Error
	return txns, err
}

// GetByDatePrefix returns transactions whose date starts with the given
// prefix, e.g. "2025-01" for one month.
func (r *TransactionRepository) GetByDatePrefix(prefix string) ([]models.Transaction, error) {
	var txns []models.Transaction
	err := r.db.Where("date LIKE ?", prefix+"%").Find(&txns).Error
	return txns, err
}

// GetByDateRange returns transactions dated between start and end
// inclusive (YYYY-MM-DD), oldest first.
func (r *TransactionRepository) GetByDateRange(start, end string) ([]models.Transaction, error) {
	var txns []models.Transaction
	err := r.db.Where("date BETWEEN ? AND ?", start, end).Order("date").Find(&txns).Error
	return txns, err
}

// GetSince returns transactions on or after the given date (YYYY-MM-DD),
// optionally filtered by type.
func (r *TransactionRepository) GetSince(date string, txnType string) ([]models.Transaction, error) {
	query := r.db.Where("date >= ?", date)
	if txnType != "" {
		query = query.Where("type = ?", txnType)
	}
	var txns []models.Transaction
	err := query.Find(&txns).Error
	return txns, err
}

// GetRecentByCategory returns recent transactions matching a category
// substring (case-insensitive), newest date first.
func (r *TransactionRepository) GetRecentByCategory(category string, limit int) ([]models.Transaction, error) {
	query := r.db.Model(&models.Transaction{})
	if category != "" {
		likeCat := "%" + strings.ToLower(category) + "%"
		query = query.Where("LOWER(category) LIKE ?", likeCat)
	}
	var txns []models.Transaction
	err := query.Order("date DESC").Limit(limit).Find(&txns).Error
	return txns, err
}

// CountAll returns the number of stored transactions.
func (r *TransactionRepository) CountAll() (int64, error) {
	var count int64
	err := r.db.Model(&models.Transaction{}).Count(&count).Error
	return count, err
}
