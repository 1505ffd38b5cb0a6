package extraction

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"lumen-finance-backend/internal/models"
	"lumen-finance-backend/internal/services/llm"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const transactionPrompt = `Extract the transaction details from the text below.

Return ONLY this exact format. EACH FIELD MUST BE ON ITS OWN LINE.
NO quotes, NO commas, NO JSON, NO extra text, NO code blocks.

txn_id:
description:
clean_description:
merchant_name:
merchant_type:
payment_channel:
amount:
type:
date:
weekday:
time_of_day:
balance_after_txn:
category:
subcategory:
transaction_mode:
is_recurring:
recurrence_interval:
confidence_score:
is_high_value:
is_suspicious:
embedding_version:

Text:
%s
`

const receiptPrompt = `Extract the receipt/invoice details from the text below.

Return ONLY this exact format. EACH FIELD MUST BE ON ITS OWN LINE.
NO quotes, NO commas, NO JSON, NO extra text, NO code blocks.

receipt_id:
receipt_type:
issue_date:
issue_time:
merchant_name:
merchant_address:
merchant_gst:
subtotal_amount:
tax_amount:
total_amount:
payment_method:
extracted_confidence_score:
is_suspicious:
embedding_version:

Text:
%s
`

// generator is the slice of the LLM router the extractor needs.
type generator interface {
	GenerateSimple(ctx context.Context, prompt, systemPrompt string) (llm.Result, error)
}

// Extractor turns free-form email text into structured transactions and
// receipts via the LLM router. Extraction never fails outright: when the
// LLM is unreachable or returns garbage, a fallback record carrying the raw
// text is produced so no fetched data is dropped.
type Extractor struct {
	llm    generator
	logger *logrus.Logger
}

func NewExtractor(router generator, logger *logrus.Logger) *Extractor {
	return &Extractor{llm: router, logger: logger}
}

// TransactionFromText runs the full pipeline: text -> LLM -> parsed model.
func (e *Extractor) TransactionFromText(ctx context.Context, text string) *models.Transaction {
	result, err := e.llm.GenerateSimple(ctx, fmt.Sprintf(transactionPrompt, text), "")
	if err == nil && result.Content != "" {
		txn := sanitizeTransaction(parseKeyValueLines(result.Content))

		// Accept when the LLM recovered a merchant or a positive amount.
		if txn.MerchantName != "Unknown" || txn.Amount > 0 {
			txn.RawEmailSnippet = text
			return txn
		}
	} else if err != nil {
		e.logger.WithError(err).Warn("extraction.TransactionFromText llm failed")
	}

	return fallbackTransaction(text)
}

// ReceiptFromText runs the receipt pipeline: text -> LLM -> parsed model.
func (e *Extractor) ReceiptFromText(ctx context.Context, text string) *models.Receipt {
	result, err := e.llm.GenerateSimple(ctx, fmt.Sprintf(receiptPrompt, text), "")
	if err == nil && result.Content != "" {
		receipt := sanitizeReceipt(parseKeyValueLines(result.Content))
		if receipt.TotalAmount > 0 {
			return receipt
		}
	} else if err != nil {
		e.logger.WithError(err).Warn("extraction.ReceiptFromText llm failed")
	}

	return fallbackReceipt()
}

// parseKeyValueLines splits a line-oriented "key: value" LLM response into a
// map, dropping lines without a colon and stripping stray quotes.
func parseKeyValueLines(text string) map[string]string {
	result := make(map[string]string)

	for _, line := range strings.Split(strings.TrimSpace(text), "\n") {
		line = strings.TrimSpace(line)
		key, value, found := strings.Cut(line, ":")
		if !found {
			continue
		}
		value = strings.TrimSpace(value)
		value = strings.Trim(value, `"'`)
		result[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}

	return result
}

func sanitizeTransaction(raw map[string]string) *models.Transaction {
	txn := &models.Transaction{
		TxnID:            stringOr(raw["txn_id"], newID("TXN")),
		Description:      raw["description"],
		CleanDescription: raw["clean_description"],
		MerchantName:     stringOr(raw["merchant_name"], "Unknown"),
		PaymentChannel:   stringOr(raw["payment_channel"], "Unknown"),
		Weekday:          raw["weekday"],
		TimeOfDay:        raw["time_of_day"],
		Category:         stringOr(raw["category"], "Other"),
		Subcategory:      raw["subcategory"],
	}

	if interval := raw["recurrence_interval"]; interval != "" && !isNullish(interval) {
		txn.RecurrenceInterval = &interval
	}

	switch {
	case strings.Contains(strings.ToLower(raw["type"]), "credit"):
		txn.Type = models.TypeCredit
	default:
		// Default to debit for spending.
		txn.Type = models.TypeDebit
	}

	if date := raw["date"]; date != "" && !isNullish(date) {
		txn.Date = date
	} else {
		txn.Date = time.Now().Format("2006-01-02")
	}

	txn.Amount = parseAmount(raw["amount"])

	if balance := raw["balance_after_txn"]; balance != "" && !isNullish(balance) {
		if v, err := strconv.ParseFloat(strings.ReplaceAll(balance, ",", ""), 64); err == nil {
			txn.BalanceAfterTxn = &v
		}
	}

	txn.ConfidenceScore = parseFloatOr(raw["confidence_score"], 0.8)
	txn.IsRecurring = parseBool(raw["is_recurring"])
	txn.IsSuspicious = parseBool(raw["is_suspicious"])
	txn.EmbeddingVersion = parseIntOr(raw["embedding_version"], 1)

	return txn
}

func sanitizeReceipt(raw map[string]string) *models.Receipt {
	receipt := &models.Receipt{
		ReceiptID:       stringOr(raw["receipt_id"], newID("RCP")),
		ReceiptType:     stringOr(raw["receipt_type"], models.ReceiptTypeDigital),
		IssueDate:       stringOr(raw["issue_date"], time.Now().Format("2006-01-02")),
		IssueTime:       raw["issue_time"],
		MerchantName:    stringOr(raw["merchant_name"], "Unknown"),
		MerchantAddress: raw["merchant_address"],
		MerchantGST:     raw["merchant_gst"],
		PaymentMethod:   stringOr(raw["payment_method"], "Unknown"),
	}

	receipt.SubtotalAmount = parseAmount(raw["subtotal_amount"])
	receipt.TaxAmount = parseAmount(raw["tax_amount"])
	receipt.TotalAmount = parseAmount(raw["total_amount"])
	receipt.ExtractedConfidenceScore = parseFloatOr(raw["extracted_confidence_score"], 0.8)
	receipt.IsSuspicious = parseBool(raw["is_suspicious"])
	receipt.EmbeddingVersion = parseIntOr(raw["embedding_version"], 1)

	return receipt
}

// fallbackTransaction stores the raw text with zero amount so the sync
// never loses an email it already fetched.
func fallbackTransaction(text string) *models.Transaction {
	now := time.Now()
	clean := text
	// Truncate on a rune boundary so a rupee sign is never split.
	if runes := []rune(clean); len(runes) > 200 {
		clean = string(runes[:200])
	}
	return &models.Transaction{
		TxnID:            newID("TXN_FALLBACK"),
		Description:      text,
		CleanDescription: clean,
		MerchantName:     "Unknown",
		PaymentChannel:   "Unknown",
		Type:             models.TypeDebit,
		Date:             now.Format("2006-01-02"),
		Weekday:          now.Weekday().String(),
		TimeOfDay:        now.Format("15:04"),
		Category:         "Uncategorized",
		ConfidenceScore:  0,
		EmbeddingVersion: 1,
		RawEmailSnippet:  text,
	}
}

func fallbackReceipt() *models.Receipt {
	now := time.Now()
	return &models.Receipt{
		ReceiptID:        newID("RCP_FALLBACK"),
		ReceiptType:      models.ReceiptTypeDigital,
		IssueDate:        now.Format("2006-01-02"),
		IssueTime:        now.Format("15:04"),
		MerchantName:     "Unknown",
		PaymentMethod:    "Unknown",
		EmbeddingVersion: 1,
	}
}

// newID builds a prefixed identifier like TXN_20250115103000_1a2b3c4d.
// The uuid fragment keeps extractions within the same second distinct.
func newID(prefix string) string {
	return fmt.Sprintf("%s_%s_%s", prefix, time.Now().Format("20060102150405"), uuid.New().String()[:8])
}

// parseAmount strips currency symbols and thousand separators before
// parsing, e.g. "₹1,250.50" -> 1250.50.
func parseAmount(s string) float64 {
	s = strings.NewReplacer("₹", "", "Rs.", "", "Rs", "", "INR", "", ",", "", " ", "").Replace(s)
	s = strings.TrimSpace(s)
	if s == "" || isNullish(s) {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

func parseFloatOr(s string, fallback float64) float64 {
	if s == "" || isNullish(s) {
		return fallback
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fallback
	}
	return v
}

func parseIntOr(s string, fallback int) int {
	v, err := strconv.Atoi(s)
	if err != nil {
		return fallback
	}
	return v
}

func parseBool(s string) bool {
	switch strings.ToLower(s) {
	case "true", "yes", "1":
		return true
	}
	return false
}

func stringOr(s, fallback string) string {
	if s == "" || isNullish(s) {
		return fallback
	}
	return s
}

func isNullish(s string) bool {
	switch strings.ToLower(s) {
	case "unknown", "none", "null", "n/a":
		return true
	}
	return false
}
