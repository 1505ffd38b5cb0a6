package models

import (
	"time"

	"gorm.io/datatypes"
)

// Receipt types
const (
	ReceiptTypeDigital  = "digital"
	ReceiptTypeUploaded = "uploaded"
)

// Receipt is an invoice or bill, either synced from a Gmail attachment or
// uploaded through the OCR endpoint. Gmail receipts carry attachment IDs;
// uploaded receipts carry the stored filename and the raw extracted JSON.
type Receipt struct {
	ReceiptID string `gorm:"primaryKey" json:"receipt_id"`

	ReceiptType string `json:"receipt_type"`
	IssueDate   string `gorm:"index" json:"issue_date"` // YYYY-MM-DD
	IssueTime   string `json:"issue_time"`              // HH:MM

	MerchantName    string `gorm:"index" json:"merchant_name"`
	MerchantAddress string `json:"merchant_address"`
	MerchantGST     string `json:"merchant_gst"`

	SubtotalAmount float64 `json:"subtotal_amount"`
	TaxAmount      float64 `json:"tax_amount"`
	TotalAmount    float64 `gorm:"index" json:"total_amount"`

	PaymentMethod string `json:"payment_method"`

	ExtractedConfidenceScore float64 `json:"extracted_confidence_score"`
	IsSuspicious             bool    `json:"is_suspicious"`
	EmbeddingVersion         int     `json:"embedding_version"`

	AttachmentFilename  *string `json:"attachment_filename"`
	AttachmentMessageID *string `gorm:"index" json:"attachment_message_id"`
	AttachmentID        *string `json:"attachment_id"`

	RawSnippet    string         `json:"raw_snippet"`
	ExtractedData datatypes.JSON `json:"extracted_data"`

	CreatedAt time.Time `json:"created_at"`
}

func (Receipt) TableName() string { return "receipts" }

// FromGmail reports whether the receipt was synced from a Gmail attachment
// rather than uploaded through OCR.
func (r *Receipt) FromGmail() bool {
	return r.AttachmentMessageID != nil && r.AttachmentID != nil
}
