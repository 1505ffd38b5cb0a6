package extraction

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"lumen-finance-backend/internal/models"
	"lumen-finance-backend/internal/services/llm"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

type fakeLLM struct {
	content string
	err     error
	prompt  string
}

func (f *fakeLLM) GenerateSimple(_ context.Context, prompt, _ string) (llm.Result, error) {
	f.prompt = prompt
	if f.err != nil {
		return llm.Result{}, f.err
	}
	return llm.Result{Content: f.content, Provider: "local"}, nil
}

func newTestLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

func TestTransactionFromText(t *testing.T) {
	fake := &fakeLLM{content: `txn_id: TXN_20250110093000
description: UPI payment to Swiggy
clean_description: Swiggy order
merchant_name: Swiggy
payment_channel: UPI
amount: ₹1,250.50
type: debit
date: 2025-01-10
weekday: Friday
time_of_day: 09:30
balance_after_txn: 15000.25
category: Dining
subcategory: Food Delivery
is_recurring: false
recurrence_interval: null
confidence_score: 0.92
is_suspicious: false
embedding_version: 1`}

	extractor := NewExtractor(fake, newTestLogger())
	txn := extractor.TransactionFromText(context.Background(), "Rs 1250.50 debited via UPI to Swiggy")

	assert.Equal(t, "TXN_20250110093000", txn.TxnID)
	assert.Equal(t, "Swiggy", txn.MerchantName)
	assert.Equal(t, models.TypeDebit, txn.Type)
	assert.Equal(t, 1250.50, txn.Amount)
	assert.Equal(t, "2025-01-10", txn.Date)
	assert.Equal(t, "Dining", txn.Category)
	assert.Equal(t, 0.92, txn.ConfidenceScore)
	assert.False(t, txn.IsRecurring)
	assert.Nil(t, txn.RecurrenceInterval)
	if assert.NotNil(t, txn.BalanceAfterTxn) {
		assert.Equal(t, 15000.25, *txn.BalanceAfterTxn)
	}
	assert.Equal(t, "Rs 1250.50 debited via UPI to Swiggy", txn.RawEmailSnippet)
	assert.Contains(t, fake.prompt, "Rs 1250.50 debited via UPI to Swiggy")
}

func TestTransactionFromTextAppliesDefaults(t *testing.T) {
	fake := &fakeLLM{content: `merchant_name: Amazon
amount: 499`}

	extractor := NewExtractor(fake, newTestLogger())
	txn := extractor.TransactionFromText(context.Background(), "order confirmation")

	assert.True(t, strings.HasPrefix(txn.TxnID, "TXN_"))
	assert.Equal(t, models.TypeDebit, txn.Type)
	assert.Equal(t, "Other", txn.Category)
	assert.Equal(t, 0.8, txn.ConfidenceScore)
	assert.Equal(t, 1, txn.EmbeddingVersion)
	assert.NotEmpty(t, txn.Date)
}

func TestTransactionFromTextFallsBackOnError(t *testing.T) {
	fake := &fakeLLM{err: errors.New("connection refused")}

	extractor := NewExtractor(fake, newTestLogger())
	txn := extractor.TransactionFromText(context.Background(), "some bank alert")

	assert.True(t, strings.HasPrefix(txn.TxnID, "TXN_FALLBACK_"))
	assert.Equal(t, "Unknown", txn.MerchantName)
	assert.Equal(t, float64(0), txn.Amount)
	assert.Equal(t, "some bank alert", txn.RawEmailSnippet)
}

func TestFallbackTruncatesOnRuneBoundary(t *testing.T) {
	fake := &fakeLLM{err: errors.New("connection refused")}
	extractor := NewExtractor(fake, newTestLogger())

	long := strings.Repeat("₹", 300)
	txn := extractor.TransactionFromText(context.Background(), long)

	assert.True(t, utf8.ValidString(txn.CleanDescription))
	assert.Equal(t, 200, len([]rune(txn.CleanDescription)))
	assert.Equal(t, long, txn.RawEmailSnippet, "raw snippet keeps the full text")
}

func TestTransactionFromTextFallsBackOnUselessExtraction(t *testing.T) {
	fake := &fakeLLM{content: `merchant_name: Unknown
amount: 0`}

	extractor := NewExtractor(fake, newTestLogger())
	txn := extractor.TransactionFromText(context.Background(), "newsletter text")

	assert.True(t, strings.HasPrefix(txn.TxnID, "TXN_FALLBACK_"))
}

func TestReceiptFromText(t *testing.T) {
	fake := &fakeLLM{content: `receipt_id: RCP_001
receipt_type: digital
issue_date: 2025-01-12
merchant_name: Big Bazaar
subtotal_amount: 900
tax_amount: 100
total_amount: ₹1,000.00
payment_method: Card
extracted_confidence_score: 0.85`}

	extractor := NewExtractor(fake, newTestLogger())
	receipt := extractor.ReceiptFromText(context.Background(), "invoice attached")

	assert.Equal(t, "RCP_001", receipt.ReceiptID)
	assert.Equal(t, "Big Bazaar", receipt.MerchantName)
	assert.Equal(t, 1000.0, receipt.TotalAmount)
	assert.Equal(t, 100.0, receipt.TaxAmount)
	assert.Equal(t, 0.85, receipt.ExtractedConfidenceScore)
}

func TestReceiptFromTextFallsBackOnZeroTotal(t *testing.T) {
	fake := &fakeLLM{content: `merchant_name: Some Store
total_amount: 0`}

	extractor := NewExtractor(fake, newTestLogger())
	receipt := extractor.ReceiptFromText(context.Background(), "promo mail")

	assert.True(t, strings.HasPrefix(receipt.ReceiptID, "RCP_FALLBACK_"))
	assert.Equal(t, "Unknown", receipt.MerchantName)
}

func TestParseKeyValueLines(t *testing.T) {
	parsed := parseKeyValueLines("merchant_name: \"Zomato\"\nnot a field line\namount: 250\n")

	assert.Equal(t, "Zomato", parsed["merchant_name"])
	assert.Equal(t, "250", parsed["amount"])
	assert.NotContains(t, parsed, "not a field line")
}

func TestParseAmount(t *testing.T) {
	assert.Equal(t, 1250.5, parseAmount("₹1,250.50"))
	assert.Equal(t, 300.0, parseAmount("Rs. 300"))
	assert.Equal(t, 42.0, parseAmount("INR 42"))
	assert.Equal(t, 0.0, parseAmount("not a number"))
	assert.Equal(t, 0.0, parseAmount(""))
	assert.Equal(t, 0.0, parseAmount("null"))
}
