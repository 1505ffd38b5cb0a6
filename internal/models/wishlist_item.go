package models

import (
	"time"
)

// WishlistItem is a planned purchase tracked per user.
type WishlistItem struct {
	WishlistID string `gorm:"primaryKey" json:"wishlist_id"`

	UserEmail string `gorm:"index;not null" json:"user_email"`

	ItemName      string  `gorm:"not null" json:"item_name"`
	ExpectedPrice float64 `gorm:"not null" json:"expected_price"`
	Category      string  `json:"category"`
	Notes         string  `json:"notes"`

	CreatedAt time.Time `json:"created_at"`
}

func (WishlistItem) TableName() string { return "wishlist" }
