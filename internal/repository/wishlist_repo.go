package repository

import (
	"lumen-finance-backend/internal/models"

	"gorm.io/gorm"
)

type WishlistRepository struct {
	db *gorm.DB
}

func NewWishlistRepository(db *gorm.DB) *WishlistRepository {
	return &WishlistRepository{db: db}
}

// Add inserts a wishlist item.
func (r *WishlistRepository) Add(item *models.WishlistItem) error {
	return r.db.Create(item).Error
}

// GetByUser returns a user's wishlist items, newest first, up to limit.
func (r *WishlistRepository) GetByUser(userEmail string, limit int) ([]models.WishlistItem, error) {
	var items []models.WishlistItem
	err := r.db.Where("user_email = ?", userEmail).
		Order("created_at DESC").
		Limit(limit).
		Find(&items).Error
	return items, err
}

// GetByID fetches a single wishlist item.
func (r *WishlistRepository) GetByID(wishlistID string) (*models.WishlistItem, error) {
	var item models.WishlistItem
	err := r.db.First(&item, "wishlist_id = ?", wishlistID).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// Delete removes a wishlist item. Returns gorm.ErrRecordNotFound when the
// item does not exist.
func (r *WishlistRepository) Delete(wishlistID string) error {
	result := r.db.Where("wishlist_id = ?", wishlistID).Delete(&models.WishlistItem{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// CountByUser returns how many items a user has saved.
func (r *WishlistRepository) CountByUser(userEmail string) (int64, error) {
	var count int64
	err := r.db.Model(&models.WishlistItem{}).
		Where("user_email = ?", userEmail).
		Count(&count).Error
	return count, err
}
