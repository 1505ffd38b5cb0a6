package handler

import (
	"net/http"

	"lumen-finance-backend/internal/repository"
	"lumen-finance-backend/internal/services/analytics"
	"lumen-finance-backend/internal/services/auth"
	"lumen-finance-backend/internal/services/gmailsync"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type SyncHandler struct {
	newSource    MailSourceFactory
	extractor    gmailsync.Extractor
	transactions *repository.TransactionRepository
	receipts     *repository.ReceiptRepository
	analyzer     *analytics.Analyzer
	logger       *logrus.Logger
}

func NewSyncHandler(
	newSource MailSourceFactory,
	extractor gmailsync.Extractor,
	transactions *repository.TransactionRepository,
	receipts *repository.ReceiptRepository,
	analyzer *analytics.Analyzer,
	logger *logrus.Logger,
) *SyncHandler {
	return &SyncHandler{
		newSource:    newSource,
		extractor:    extractor,
		transactions: transactions,
		receipts:     receipts,
		analyzer:     analyzer,
		logger:       logger,
	}
}

// Run pulls new transaction and receipt emails for the signed-in user.
func (h *SyncHandler) Run(c *gin.Context) {
	token, ok := auth.TokenFromSession(c)
	if !ok {
		fail(c, http.StatusUnauthorized, "authentication required")
		return
	}

	source, err := h.newSource(c.Request.Context(), token)
	if err != nil {
		h.logger.WithError(err).Error("sync.Run source setup failed")
		fail(c, http.StatusBadGateway, "could not reach gmail")
		return
	}

	syncer := gmailsync.NewSyncer(source, h.extractor, h.transactions, h.receipts, h.logger)
	summary, err := syncer.SyncAll(c.Request.Context())
	if err != nil {
		h.logger.WithError(err).Error("sync.Run failed")
		fail(c, http.StatusBadGateway, "sync failed, try signing in again")
		return
	}

	if summary.Transactions.New > 0 || summary.Receipts.New > 0 {
		h.analyzer.Invalidate()
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "summary": summary})
}
