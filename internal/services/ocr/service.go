package ocr

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"lumen-finance-backend/internal/models"

	"github.com/google/uuid"
	"github.com/ledongthuc/pdf"
	"github.com/sirupsen/logrus"
)

// ErrUnsupportedFile is returned for extensions the reader cannot handle.
var ErrUnsupportedFile = errors.New("unsupported file type")

var imageMimeTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".webp": "image/webp",
}

// AllowedExtension reports whether the upload endpoint accepts a file.
// ProcessFile additionally reads .txt, which uploads do not accept.
func AllowedExtension(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	if ext == ".pdf" {
		return true
	}
	_, ok := imageMimeTypes[ext]
	return ok
}

// reader abstracts the vision client so the service is testable without a
// model endpoint.
type reader interface {
	ReadImage(ctx context.Context, image []byte, mimeType string) (string, error)
	ReadText(ctx context.Context, text string) (string, error)
}

// Service turns an uploaded receipt file into a stored Receipt record.
type Service struct {
	vision reader
	logger *logrus.Logger
}

func NewService(vision reader, logger *logrus.Logger) *Service {
	return &Service{vision: vision, logger: logger}
}

// ProcessFile reads a stored upload, extracts receipt fields through the
// vision model and returns both the parsed data and the raw model response.
func (s *Service) ProcessFile(ctx context.Context, path string) (*ReceiptData, string, error) {
	ext := strings.ToLower(filepath.Ext(path))

	var response string
	var err error

	switch {
	case imageMimeTypes[ext] != "":
		var image []byte
		image, err = os.ReadFile(path)
		if err != nil {
			return nil, "", fmt.Errorf("read upload: %w", err)
		}
		response, err = s.vision.ReadImage(ctx, image, imageMimeTypes[ext])
	case ext == ".pdf":
		var text string
		text, err = extractPDFText(path)
		if err != nil {
			return nil, "", err
		}
		response, err = s.vision.ReadText(ctx, text)
	case ext == ".txt":
		var content []byte
		content, err = os.ReadFile(path)
		if err != nil {
			return nil, "", fmt.Errorf("read upload: %w", err)
		}
		response, err = s.vision.ReadText(ctx, string(content))
	default:
		return nil, "", fmt.Errorf("%w: %s", ErrUnsupportedFile, ext)
	}
	if err != nil {
		return nil, "", err
	}

	data, err := ParseReceiptJSON(response)
	if err != nil {
		return nil, response, err
	}

	s.logger.WithFields(logrus.Fields{
		"vendor": data.Vendor,
		"total":  float64(data.Total),
	}).Info("ocr.Service receipt extracted")

	return data, response, nil
}

// BuildReceipt maps extracted fields onto a Receipt record. Low OCR
// confidence marks the receipt suspicious for the anomaly views.
func BuildReceipt(data *ReceiptData, rawResponse, storedFilename string) *models.Receipt {
	extracted, _ := json.Marshal(data)

	return &models.Receipt{
		ReceiptID:                fmt.Sprintf("RCP_OCR_%s_%s", time.Now().Format("20060102150405"), uuid.New().String()[:8]),
		ReceiptType:              models.ReceiptTypeUploaded,
		IssueDate:                data.Date,
		MerchantName:             data.Vendor,
		SubtotalAmount:           float64(data.Subtotal),
		TaxAmount:                float64(data.Tax),
		TotalAmount:              float64(data.Total),
		PaymentMethod:            data.PaymentMethod,
		ExtractedConfidenceScore: float64(data.ConfidenceScore),
		IsSuspicious:             data.ConfidenceScore < 50,
		EmbeddingVersion:         1,
		AttachmentFilename:       &storedFilename,
		RawSnippet:               rawResponse,
		ExtractedData:            extracted,
	}
}

func extractPDFText(path string) (string, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	var buf bytes.Buffer
	textReader, err := r.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("extract pdf text: %w", err)
	}
	if _, err := buf.ReadFrom(textReader); err != nil {
		return "", fmt.Errorf("read pdf text: %w", err)
	}

	text := strings.TrimSpace(buf.String())
	if text == "" {
		return "", errors.New("pdf contains no extractable text")
	}
	return text, nil
}
