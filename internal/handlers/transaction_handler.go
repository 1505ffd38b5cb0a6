package handler

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"lumen-finance-backend/internal/models"
	"lumen-finance-backend/internal/repository"
	"lumen-finance-backend/internal/services/analytics"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// recentLimit is how many rows the default transactions view shows.
const recentLimit = 40

type TransactionHandler struct {
	transactions *repository.TransactionRepository
	analyzer     *analytics.Analyzer
}

func NewTransactionHandler(transactions *repository.TransactionRepository, analyzer *analytics.Analyzer) *TransactionHandler {
	return &TransactionHandler{transactions: transactions, analyzer: analyzer}
}

// List returns the most recent transactions.
func (h *TransactionHandler) List(c *gin.Context) {
	txns, err := h.transactions.GetRecent(recentLimit)
	if err != nil {
		fail(c, http.StatusInternalServerError, "could not load transactions")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "count": len(txns), "transactions": txns})
}

// ListAll returns every stored transaction.
func (h *TransactionHandler) ListAll(c *gin.Context) {
	txns, err := h.transactions.GetAll()
	if err != nil {
		fail(c, http.StatusInternalServerError, "could not load transactions")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "count": len(txns), "transactions": txns})
}

// Get returns one transaction by id.
func (h *TransactionHandler) Get(c *gin.Context) {
	txn, err := h.transactions.GetByID(c.Param("id"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			fail(c, http.StatusNotFound, "transaction not found")
			return
		}
		fail(c, http.StatusInternalServerError, "could not load transaction")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "transaction": txn})
}

type createTransactionRequest struct {
	MerchantName string  `json:"merchant_name" binding:"required"`
	Amount       float64 `json:"amount" binding:"required,gt=0"`
	Type         string  `json:"type"`
	Date         string  `json:"date"`
	Category     string  `json:"category"`
	Description  string  `json:"description"`
}

// Create stores a manually entered transaction.
func (h *TransactionHandler) Create(c *gin.Context) {
	var req createTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "merchant_name and a positive amount are required")
		return
	}

	if req.Type != models.TypeCredit {
		req.Type = models.TypeDebit
	}
	if req.Date == "" {
		req.Date = time.Now().Format("2006-01-02")
	}
	if req.Category == "" {
		req.Category = "Other"
	}

	txn := &models.Transaction{
		TxnID: fmt.Sprintf("TXN_MANUAL_%s_%s",
			time.Now().Format("20060102150405"), uuid.New().String()[:8]),
		MerchantName:     req.MerchantName,
		Description:      req.Description,
		CleanDescription: req.Description,
		PaymentChannel:   "manual",
		Amount:           req.Amount,
		Type:             req.Type,
		Date:             req.Date,
		Category:         req.Category,
		ConfidenceScore:  1,
		EmbeddingVersion: 1,
	}

	if err := h.transactions.Add(txn); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			fail(c, http.StatusConflict, "transaction already exists")
			return
		}
		fail(c, http.StatusInternalServerError, "could not store transaction")
		return
	}

	h.analyzer.Invalidate()
	c.JSON(http.StatusCreated, gin.H{"success": true, "transaction": txn})
}
