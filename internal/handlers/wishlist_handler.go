package handler

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"lumen-finance-backend/internal/models"
	"lumen-finance-backend/internal/repository"
	"lumen-finance-backend/internal/services/advisor"
	"lumen-finance-backend/internal/services/auth"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// wishlistLimit caps how many items one user can track.
const wishlistLimit = 100

type WishlistHandler struct {
	wishlist *repository.WishlistRepository
	advisor  *advisor.Advisor
	logger   *logrus.Logger
}

func NewWishlistHandler(wishlist *repository.WishlistRepository, adv *advisor.Advisor, logger *logrus.Logger) *WishlistHandler {
	return &WishlistHandler{wishlist: wishlist, advisor: adv, logger: logger}
}

// List returns the signed-in user's wishlist.
func (h *WishlistHandler) List(c *gin.Context) {
	email, _ := auth.UserFromSession(c)
	items, err := h.wishlist.GetByUser(email, wishlistLimit)
	if err != nil {
		fail(c, http.StatusInternalServerError, "could not load wishlist")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "count": len(items), "items": items})
}

type createWishlistRequest struct {
	ItemName      string  `json:"item_name" binding:"required"`
	ExpectedPrice float64 `json:"expected_price" binding:"required,gt=0"`
	Category      string  `json:"category"`
	Notes         string  `json:"notes"`
}

// Create adds an item, guessing a category from the name when none is
// given.
func (h *WishlistHandler) Create(c *gin.Context) {
	var req createWishlistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "item_name and a positive expected_price are required")
		return
	}

	email, _ := auth.UserFromSession(c)
	count, err := h.wishlist.CountByUser(email)
	if err != nil {
		fail(c, http.StatusInternalServerError, "could not load wishlist")
		return
	}
	if count >= wishlistLimit {
		fail(c, http.StatusConflict, "wishlist is full, remove some items first")
		return
	}

	if req.Category == "" {
		req.Category = advisor.CategorizeItem(req.ItemName)
	}

	item := &models.WishlistItem{
		WishlistID: fmt.Sprintf("WISH_%s_%s",
			time.Now().Format("20060102150405"), uuid.New().String()[:8]),
		UserEmail:     email,
		ItemName:      req.ItemName,
		ExpectedPrice: req.ExpectedPrice,
		Category:      req.Category,
		Notes:         req.Notes,
	}

	if err := h.wishlist.Add(item); err != nil {
		fail(c, http.StatusInternalServerError, "could not store item")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "item": item})
}

// Delete removes one of the user's items.
func (h *WishlistHandler) Delete(c *gin.Context) {
	item, err := h.ownedItem(c)
	if err != nil {
		return
	}

	if err := h.wishlist.Delete(item.WishlistID); err != nil {
		fail(c, http.StatusInternalServerError, "could not delete item")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "item removed"})
}

// Advice runs the purchase advisor for one item.
func (h *WishlistHandler) Advice(c *gin.Context) {
	item, err := h.ownedItem(c)
	if err != nil {
		return
	}

	advice, err := h.advisor.Advise(c.Request.Context(), item)
	if err != nil {
		h.logger.WithError(err).Error("wishlist advice failed")
		fail(c, http.StatusInternalServerError, "could not build advice")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "item": item, "advice": advice})
}

// ownedItem loads the item behind :id, writing the error response itself
// when the item is missing or belongs to someone else.
func (h *WishlistHandler) ownedItem(c *gin.Context) (*models.WishlistItem, error) {
	item, err := h.wishlist.GetByID(c.Param("id"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			fail(c, http.StatusNotFound, "item not found")
			return nil, err
		}
		fail(c, http.StatusInternalServerError, "could not load item")
		return nil, err
	}

	email, _ := auth.UserFromSession(c)
	if item.UserEmail != email {
		fail(c, http.StatusNotFound, "item not found")
		return nil, gorm.ErrRecordNotFound
	}
	return item, nil
}
