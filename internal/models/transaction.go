package models

import (
	"time"
)

// Transaction types
const (
	TypeDebit  = "debit"
	TypeCredit = "credit"
)

// Transaction is one movement of money extracted from an email snippet.
// TxnID carries a TXN_ prefix assigned at extraction time.
type Transaction struct {
	TxnID string `gorm:"primaryKey" json:"txn_id"`

	Description      string `json:"description"`
	CleanDescription string `json:"clean_description"`
	MerchantName     string `gorm:"index" json:"merchant_name"`
	PaymentChannel   string `json:"payment_channel"`

	Amount          float64  `gorm:"index" json:"amount"`
	Type            string   `gorm:"index" json:"type"`
	Date            string   `gorm:"index" json:"date"` // YYYY-MM-DD
	Weekday         string   `json:"weekday"`
	TimeOfDay       string   `json:"time_of_day"`
	BalanceAfterTxn *float64 `json:"balance_after_txn"`

	Category           string  `gorm:"index" json:"category"`
	Subcategory        string  `json:"subcategory"`
	IsRecurring        bool    `json:"is_recurring"`
	RecurrenceInterval *string `json:"recurrence_interval"`
	ConfidenceScore    float64 `json:"confidence_score"`
	IsSuspicious       bool    `json:"is_suspicious"`

	EmbeddingVersion int    `json:"embedding_version"`
	RawEmailSnippet  string `json:"raw_email_snippet"`

	CreatedAt time.Time `json:"created_at"`
}

func (Transaction) TableName() string { return "transactions" }
