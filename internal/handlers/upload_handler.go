package handler

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"lumen-finance-backend/internal/repository"
	"lumen-finance-backend/internal/services/analytics"
	"lumen-finance-backend/internal/services/ocr"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type UploadHandler struct {
	ocr       *ocr.Service
	receipts  *repository.ReceiptRepository
	analyzer  *analytics.Analyzer
	uploadDir string
	logger    *logrus.Logger
}

func NewUploadHandler(
	ocrService *ocr.Service,
	receipts *repository.ReceiptRepository,
	analyzer *analytics.Analyzer,
	uploadDir string,
	logger *logrus.Logger,
) *UploadHandler {
	return &UploadHandler{
		ocr:       ocrService,
		receipts:  receipts,
		analyzer:  analyzer,
		uploadDir: uploadDir,
		logger:    logger,
	}
}

// Upload accepts a receipt file, runs OCR extraction and stores the
// resulting receipt. The file is kept on disk under a timestamped name so
// repeated uploads never collide.
func (h *UploadHandler) Upload(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		fail(c, http.StatusBadRequest, "no file in request, use form field 'file'")
		return
	}
	if file.Size == 0 {
		fail(c, http.StatusBadRequest, "uploaded file is empty")
		return
	}
	if !ocr.AllowedExtension(file.Filename) {
		fail(c, http.StatusBadRequest, "unsupported file type, use jpg, jpeg, png, webp or pdf")
		return
	}

	if err := os.MkdirAll(h.uploadDir, 0o755); err != nil {
		h.logger.WithError(err).Error("upload dir creation failed")
		fail(c, http.StatusInternalServerError, "could not store upload")
		return
	}

	storedName := fmt.Sprintf("%d_%s", time.Now().Unix(), filepath.Base(file.Filename))
	storedPath := filepath.Join(h.uploadDir, storedName)
	if err := c.SaveUploadedFile(file, storedPath); err != nil {
		h.logger.WithError(err).Error("upload save failed")
		fail(c, http.StatusInternalServerError, "could not store upload")
		return
	}

	data, raw, err := h.ocr.ProcessFile(c.Request.Context(), storedPath)
	if err != nil {
		var verr *ocr.ValidationError
		switch {
		case errors.As(err, &verr):
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"success":        false,
				"error":          "could not read required fields from the receipt",
				"missing_fields": verr.MissingFields,
			})
		case errors.Is(err, ocr.ErrShortResponse):
			fail(c, http.StatusUnprocessableEntity, "the image does not look like a readable receipt")
		case errors.Is(err, ocr.ErrUnsupportedFile):
			fail(c, http.StatusBadRequest, "unsupported file type")
		default:
			h.logger.WithError(err).Error("upload ocr failed")
			fail(c, http.StatusBadGateway, "receipt extraction failed, try again")
		}
		return
	}

	receipt := ocr.BuildReceipt(data, raw, storedName)
	if err := h.receipts.Add(receipt); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			fail(c, http.StatusConflict, "receipt already exists")
			return
		}
		fail(c, http.StatusInternalServerError, "could not store receipt")
		return
	}

	h.analyzer.Invalidate()
	c.JSON(http.StatusCreated, gin.H{"success": true, "receipt": receipt})
}
