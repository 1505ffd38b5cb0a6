package handler

import (
	"net/http"

	"lumen-finance-backend/internal/repository"

	"github.com/gin-gonic/gin"
)

// DebugHandler exposes raw table dumps and row counts for troubleshooting
// sync runs. Registered behind auth like everything else.
type DebugHandler struct {
	transactions *repository.TransactionRepository
	receipts     *repository.ReceiptRepository
	wishlist     *repository.WishlistRepository
}

func NewDebugHandler(
	transactions *repository.TransactionRepository,
	receipts *repository.ReceiptRepository,
	wishlist *repository.WishlistRepository,
) *DebugHandler {
	return &DebugHandler{transactions: transactions, receipts: receipts, wishlist: wishlist}
}

func (h *DebugHandler) Transactions(c *gin.Context) {
	txns, err := h.transactions.GetAll()
	if err != nil {
		fail(c, http.StatusInternalServerError, "could not load transactions")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "count": len(txns), "transactions": txns})
}

func (h *DebugHandler) Receipts(c *gin.Context) {
	receipts, err := h.receipts.GetAll()
	if err != nil {
		fail(c, http.StatusInternalServerError, "could not load receipts")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "count": len(receipts), "receipts": receipts})
}

func (h *DebugHandler) Stats(c *gin.Context) {
	txnCount, err := h.transactions.CountAll()
	if err != nil {
		fail(c, http.StatusInternalServerError, "could not count transactions")
		return
	}
	receiptCount, err := h.receipts.Count()
	if err != nil {
		fail(c, http.StatusInternalServerError, "could not count receipts")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":           true,
		"transaction_count": txnCount,
		"receipt_count":     receiptCount,
	})
}
