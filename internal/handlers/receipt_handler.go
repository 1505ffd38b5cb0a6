package handler

import (
	"context"
	"errors"
	"mime"
	"net/http"

	"lumen-finance-backend/internal/repository"
	"lumen-finance-backend/internal/services/auth"
	"lumen-finance-backend/internal/services/gmailsync"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
	"gorm.io/gorm"
)

// MailSourceFactory builds a mailbox client for the signed-in user's
// token. Injected so handlers can be tested without the Gmail API.
type MailSourceFactory func(ctx context.Context, token *oauth2.Token) (gmailsync.MailSource, error)

// recentReceiptLimit is how many rows the default receipts view shows.
const recentReceiptLimit = 40

type ReceiptHandler struct {
	receipts  *repository.ReceiptRepository
	newSource MailSourceFactory
	logger    *logrus.Logger
}

func NewReceiptHandler(receipts *repository.ReceiptRepository, newSource MailSourceFactory, logger *logrus.Logger) *ReceiptHandler {
	return &ReceiptHandler{receipts: receipts, newSource: newSource, logger: logger}
}

// List returns the most recent receipts.
func (h *ReceiptHandler) List(c *gin.Context) {
	receipts, err := h.receipts.GetRecent(recentReceiptLimit)
	if err != nil {
		fail(c, http.StatusInternalServerError, "could not load receipts")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "count": len(receipts), "receipts": receipts})
}

// Get returns one receipt by id.
func (h *ReceiptHandler) Get(c *gin.Context) {
	receipt, err := h.receipts.GetByID(c.Param("id"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			fail(c, http.StatusNotFound, "receipt not found")
			return
		}
		fail(c, http.StatusInternalServerError, "could not load receipt")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "receipt": receipt})
}

// DownloadAttachment streams a Gmail attachment through the user's own
// token. Attachments are never stored server-side.
func (h *ReceiptHandler) DownloadAttachment(c *gin.Context) {
	token, ok := auth.TokenFromSession(c)
	if !ok {
		fail(c, http.StatusUnauthorized, "authentication required")
		return
	}

	messageID := c.Param("messageId")
	attachmentID := c.Param("attachmentId")
	filename := c.Param("filename")

	source, err := h.newSource(c.Request.Context(), token)
	if err != nil {
		h.logger.WithError(err).Error("receipt.DownloadAttachment source setup failed")
		fail(c, http.StatusBadGateway, "could not reach gmail")
		return
	}

	data, err := source.GetAttachment(c.Request.Context(), messageID, attachmentID)
	if err != nil {
		h.logger.WithError(err).Warn("receipt.DownloadAttachment fetch failed")
		fail(c, http.StatusBadGateway, "could not download attachment")
		return
	}

	c.Header("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": filename}))
	c.Data(http.StatusOK, "application/pdf", data)
}
