package repository

import (
	"lumen-finance-backend/internal/models"

	"gorm.io/gorm"
)

type ReceiptRepository struct {
	db *gorm.DB
}

func NewReceiptRepository(db *gorm.DB) *ReceiptRepository {
	return &ReceiptRepository{db: db}
}

// Add inserts a receipt, refusing duplicates by receipt_id.
func (r *ReceiptRepository) Add(receipt *models.Receipt) error {
	exists, err := r.Exists(receipt.ReceiptID)
	if err != nil {
		return err
	}
	if exists {
		return ErrDuplicate
	}
	return r.db.Create(receipt).Error
}

// Exists checks for a receipt by its receipt_id.
func (r *ReceiptRepository) Exists(receiptID string) (bool, error) {
	var count int64
	err := r.db.Model(&models.Receipt{}).Where("receipt_id = ?", receiptID).Count(&count).Error
	return count > 0, err
}

// ExistsByMessageID checks whether a Gmail message was already ingested.
func (r *ReceiptRepository) ExistsByMessageID(messageID string) (bool, error) {
	var count int64
	err := r.db.Model(&models.Receipt{}).
		Where("attachment_message_id = ?", messageID).
		Count(&count).Error
	return count > 0, err
}

// GetAll returns every receipt, newest first.
func (r *ReceiptRepository) GetAll() ([]models.Receipt, error) {
	var receipts []models.Receipt
	err := r.db.Order("created_at DESC").Find(&receipts).Error
	return receipts, err
}

// GetRecent returns the latest receipts up to limit.
func (r *ReceiptRepository) GetRecent(limit int) ([]models.Receipt, error) {
	var receipts []models.Receipt
	err := r.db.Order("created_at DESC").Limit(limit).Find(&receipts).Error
	return receipts, err
}

// Count returns the number of stored receipts.
func (r *ReceiptRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&models.Receipt{}).Count(&count).Error
	return count, err
}

// GetByID fetches a single receipt by receipt_id.
func (r *ReceiptRepository) GetByID(receiptID string) (*models.Receipt, error) {
	var receipt models.Receipt
	err := r.db.First(&receipt, "receipt_id = ?", receiptID).Error
	if err != nil {
		return nil, err
	}
	return &receipt, nil
}
