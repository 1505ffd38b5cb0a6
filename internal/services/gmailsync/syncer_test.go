package gmailsync

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"lumen-finance-backend/internal/models"
	"lumen-finance-backend/internal/repository"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type fakeMail struct {
	messages map[string]*Message
	listErr  error
	failGet  map[string]bool
}

func (f *fakeMail) ListMessageIDs(_ context.Context, _ string, _ int64) ([]string, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	ids := make([]string, 0, len(f.messages))
	for id := range f.messages {
		ids = append(ids, id)
	}
	return ids, nil
}

func (f *fakeMail) GetMessage(_ context.Context, id string) (*Message, error) {
	if f.failGet[id] {
		return nil, errors.New("gmail 500")
	}
	msg, ok := f.messages[id]
	if !ok {
		return nil, errors.New("not found")
	}
	return msg, nil
}

func (f *fakeMail) GetAttachment(context.Context, string, string) ([]byte, error) {
	return []byte("%PDF-1.4"), nil
}

// fakeExtractor produces deterministic records keyed by message text.
type fakeExtractor struct {
	seq int
}

func (f *fakeExtractor) TransactionFromText(_ context.Context, text string) *models.Transaction {
	f.seq++
	return &models.Transaction{
		TxnID:        fmt.Sprintf("TXN_TEST_%d", f.seq),
		MerchantName: text[:10],
		Amount:       float64(100 * f.seq),
		Type:         models.TypeDebit,
		Date:         time.Now().Format("2006-01-02"),
		Category:     "Other",
	}
}

func (f *fakeExtractor) ReceiptFromText(_ context.Context, _ string) *models.Receipt {
	f.seq++
	return &models.Receipt{
		ReceiptID:    fmt.Sprintf("RCP_TEST_%d", f.seq),
		ReceiptType:  models.ReceiptTypeDigital,
		IssueDate:    time.Now().Format("2006-01-02"),
		MerchantName: "Store",
		TotalAmount:  float64(50 * f.seq),
	}
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Transaction{}, &models.Receipt{}))
	return db
}

func newTestLogger() *logrus.Logger {
	l := logrus.New()
	l.SetLevel(logrus.PanicLevel)
	return l
}

func TestSyncTransactionsStoresNewRows(t *testing.T) {
	db := newTestDB(t)
	txnRepo := repository.NewTransactionRepository(db)
	rcpRepo := repository.NewReceiptRepository(db)

	mail := &fakeMail{messages: map[string]*Message{
		"m1": {ID: "m1", Subject: "Alert", Snippet: "Rs 450 debited to Swiggy via UPI"},
		"m2": {ID: "m2", Subject: "Alert", Snippet: "Rs 1200 debited to BigBazaar card"},
	}}

	syncer := NewSyncer(mail, &fakeExtractor{}, txnRepo, rcpRepo, newTestLogger())
	result, err := syncer.SyncTransactions(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 2, result.New)
	assert.Equal(t, 0, result.Skipped)
	assert.Equal(t, 0, result.Errors)

	count, err := txnRepo.CountAll()
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)
}

func TestSyncTransactionsSkipsContentDuplicates(t *testing.T) {
	db := newTestDB(t)
	txnRepo := repository.NewTransactionRepository(db)
	rcpRepo := repository.NewReceiptRepository(db)

	today := time.Now().Format("2006-01-02")
	require.NoError(t, txnRepo.Add(&models.Transaction{
		TxnID: "TXN_OLD", MerchantName: "Subject: A", Amount: 100,
		Type: models.TypeDebit, Date: today, Category: "Other",
	}))

	mail := &fakeMail{messages: map[string]*Message{
		"m1": {ID: "m1", Subject: "Alert one long subject"},
	}}

	// The fake extractor's first transaction matches the stored row on
	// date, amount and merchant.
	syncer := NewSyncer(mail, &fakeExtractor{}, txnRepo, rcpRepo, newTestLogger())
	result, err := syncer.SyncTransactions(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 0, result.New)
	assert.Equal(t, 1, result.Skipped)
}

func TestSyncTransactionsCountsFetchErrors(t *testing.T) {
	db := newTestDB(t)
	txnRepo := repository.NewTransactionRepository(db)
	rcpRepo := repository.NewReceiptRepository(db)

	mail := &fakeMail{
		messages: map[string]*Message{
			"bad": {ID: "bad", Subject: "Alert from bank x"},
		},
		failGet: map[string]bool{"bad": true},
	}

	syncer := NewSyncer(mail, &fakeExtractor{}, txnRepo, rcpRepo, newTestLogger())
	result, err := syncer.SyncTransactions(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 0, result.New)
	assert.Equal(t, 1, result.Errors)
}

func TestSyncReceiptsKeepsAttachmentRefs(t *testing.T) {
	db := newTestDB(t)
	txnRepo := repository.NewTransactionRepository(db)
	rcpRepo := repository.NewReceiptRepository(db)

	mail := &fakeMail{messages: map[string]*Message{
		"r1": {
			ID:      "r1",
			Subject: "Your invoice",
			Snippet: "Order total Rs 640",
			Attachments: []Attachment{
				{Filename: "invoice.pdf", AttachmentID: "att_123"},
			},
		},
	}}

	syncer := NewSyncer(mail, &fakeExtractor{}, txnRepo, rcpRepo, newTestLogger())
	result, err := syncer.SyncReceipts(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, result.New)

	stored, err := rcpRepo.GetAll()
	require.NoError(t, err)
	require.Len(t, stored, 1)
	require.NotNil(t, stored[0].AttachmentMessageID)
	assert.Equal(t, "r1", *stored[0].AttachmentMessageID)
	require.NotNil(t, stored[0].AttachmentID)
	assert.Equal(t, "att_123", *stored[0].AttachmentID)
	assert.True(t, stored[0].FromGmail())
}

func TestSyncReceiptsSkipsKnownMessages(t *testing.T) {
	db := newTestDB(t)
	txnRepo := repository.NewTransactionRepository(db)
	rcpRepo := repository.NewReceiptRepository(db)

	knownID := "r1"
	require.NoError(t, rcpRepo.Add(&models.Receipt{
		ReceiptID:           "RCP_OLD",
		ReceiptType:         models.ReceiptTypeDigital,
		MerchantName:        "Store",
		TotalAmount:         640,
		AttachmentMessageID: &knownID,
	}))

	mail := &fakeMail{messages: map[string]*Message{
		"r1": {ID: "r1", Subject: "Your invoice"},
	}}

	syncer := NewSyncer(mail, &fakeExtractor{}, txnRepo, rcpRepo, newTestLogger())
	result, err := syncer.SyncReceipts(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 0, result.New)
	assert.Equal(t, 1, result.Skipped)
}

func TestSyncAllListFailurePropagates(t *testing.T) {
	db := newTestDB(t)
	txnRepo := repository.NewTransactionRepository(db)
	rcpRepo := repository.NewReceiptRepository(db)

	mail := &fakeMail{listErr: errors.New("invalid_grant")}
	syncer := NewSyncer(mail, &fakeExtractor{}, txnRepo, rcpRepo, newTestLogger())

	_, err := syncer.SyncAll(context.Background())
	assert.Error(t, err)
}

func TestMessageTextJoinsParts(t *testing.T) {
	msg := &Message{Subject: "Alert", Snippet: "Rs 100 debited", Body: "full body"}
	assert.Equal(t, "Subject: Alert\nRs 100 debited\nfull body", msg.Text())
}
