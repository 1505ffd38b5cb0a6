package handler

import (
	"net/http"

	"lumen-finance-backend/internal/repository"
	"lumen-finance-backend/internal/services/analytics"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type DashboardHandler struct {
	analyzer     *analytics.Analyzer
	transactions *repository.TransactionRepository
	receipts     *repository.ReceiptRepository
	logger       *logrus.Logger
}

func NewDashboardHandler(
	analyzer *analytics.Analyzer,
	transactions *repository.TransactionRepository,
	receipts *repository.ReceiptRepository,
	logger *logrus.Logger,
) *DashboardHandler {
	return &DashboardHandler{
		analyzer:     analyzer,
		transactions: transactions,
		receipts:     receipts,
		logger:       logger,
	}
}

// Dashboard returns the analytics report plus the rows the main page
// renders alongside it.
func (h *DashboardHandler) Dashboard(c *gin.Context) {
	report, cached, err := h.analyzer.Report(c.Request.Context())
	if err != nil {
		h.logger.WithError(err).Error("dashboard report failed")
		fail(c, http.StatusInternalServerError, "could not build dashboard")
		return
	}

	recent, err := h.transactions.GetRecent(10)
	if err != nil {
		fail(c, http.StatusInternalServerError, "could not load transactions")
		return
	}

	receiptCount, err := h.receipts.Count()
	if err != nil {
		fail(c, http.StatusInternalServerError, "could not load receipts")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":             true,
		"cached":              cached,
		"report":              report,
		"recent_transactions": recent,
		"receipt_count":       receiptCount,
	})
}

// Anomalies returns the suspicious slice of the report.
func (h *DashboardHandler) Anomalies(c *gin.Context) {
	report, cached, err := h.analyzer.Report(c.Request.Context())
	if err != nil {
		h.logger.WithError(err).Error("anomalies report failed")
		fail(c, http.StatusInternalServerError, "could not build anomaly report")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"cached":    cached,
		"anomalies": report.Suspicious,
		"insights":  report.Insights,
	})
}
