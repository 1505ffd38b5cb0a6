package repository

import (
	"testing"
	"time"

	"lumen-finance-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Transaction{}, &models.Receipt{}, &models.WishlistItem{}))
	return db
}

func TestTransactionAddRejectsDuplicateID(t *testing.T) {
	repo := NewTransactionRepository(newTestDB(t))

	txn := &models.Transaction{TxnID: "TXN_1", MerchantName: "Swiggy", Amount: 450, Type: models.TypeDebit, Date: "2025-01-10"}
	require.NoError(t, repo.Add(txn))

	err := repo.Add(&models.Transaction{TxnID: "TXN_1", MerchantName: "Swiggy", Amount: 450, Type: models.TypeDebit, Date: "2025-01-10"})
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestTransactionCheckDuplicateMatchesContent(t *testing.T) {
	repo := NewTransactionRepository(newTestDB(t))

	require.NoError(t, repo.Add(&models.Transaction{
		TxnID: "TXN_1", MerchantName: "Swiggy", Amount: 450, Type: models.TypeDebit, Date: "2025-01-10",
	}))

	dup, err := repo.CheckDuplicate("2025-01-10", 450, "Swiggy")
	require.NoError(t, err)
	assert.True(t, dup)

	dup, err = repo.CheckDuplicate("2025-01-11", 450, "Swiggy")
	require.NoError(t, err)
	assert.False(t, dup)
}

func TestTransactionGetSinceFiltersByDateAndType(t *testing.T) {
	repo := NewTransactionRepository(newTestDB(t))

	rows := []models.Transaction{
		{TxnID: "TXN_1", Amount: 100, Type: models.TypeDebit, Date: "2025-01-05"},
		{TxnID: "TXN_2", Amount: 200, Type: models.TypeDebit, Date: "2025-02-05"},
		{TxnID: "TXN_3", Amount: 300, Type: models.TypeCredit, Date: "2025-02-06"},
	}
	for _, row := range rows {
		require.NoError(t, repo.Add(&row))
	}

	txns, err := repo.GetSince("2025-02-01", models.TypeDebit)
	require.NoError(t, err)
	require.Len(t, txns, 1)
	assert.Equal(t, "TXN_2", txns[0].TxnID)

	txns, err = repo.GetSince("2025-02-01", "")
	require.NoError(t, err)
	assert.Len(t, txns, 2)
}

func TestTransactionGetByDateRangeInclusive(t *testing.T) {
	repo := NewTransactionRepository(newTestDB(t))

	rows := []models.Transaction{
		{TxnID: "TXN_1", Amount: 100, Type: models.TypeDebit, Date: "2025-01-31"},
		{TxnID: "TXN_2", Amount: 200, Type: models.TypeDebit, Date: "2025-02-01"},
		{TxnID: "TXN_3", Amount: 300, Type: models.TypeDebit, Date: "2025-02-28"},
		{TxnID: "TXN_4", Amount: 400, Type: models.TypeDebit, Date: "2025-03-01"},
	}
	for _, row := range rows {
		require.NoError(t, repo.Add(&row))
	}

	txns, err := repo.GetByDateRange("2025-02-01", "2025-02-28")
	require.NoError(t, err)
	require.Len(t, txns, 2)
	assert.Equal(t, "TXN_2", txns[0].TxnID, "oldest first, boundaries included")
	assert.Equal(t, "TXN_3", txns[1].TxnID)
}

func TestTransactionGetRecentByCategory(t *testing.T) {
	repo := NewTransactionRepository(newTestDB(t))

	rows := []models.Transaction{
		{TxnID: "TXN_1", Amount: 100, Type: models.TypeDebit, Date: "2025-01-05", Category: "Dining"},
		{TxnID: "TXN_2", Amount: 200, Type: models.TypeDebit, Date: "2025-01-06", Category: "Food Delivery"},
		{TxnID: "TXN_3", Amount: 300, Type: models.TypeDebit, Date: "2025-01-07", Category: "Transport"},
	}
	for _, row := range rows {
		require.NoError(t, repo.Add(&row))
	}

	txns, err := repo.GetRecentByCategory("d", 10)
	require.NoError(t, err)
	assert.Len(t, txns, 2, "substring match should hit Dining and Food Delivery")

	txns, err = repo.GetRecentByCategory("", 2)
	require.NoError(t, err)
	require.Len(t, txns, 2)
	assert.Equal(t, "TXN_3", txns[0].TxnID, "newest date first")
}

func TestReceiptExistsByMessageID(t *testing.T) {
	repo := NewReceiptRepository(newTestDB(t))

	messageID := "gmail-msg-1"
	require.NoError(t, repo.Add(&models.Receipt{
		ReceiptID: "RCP_1", MerchantName: "Store", TotalAmount: 100,
		AttachmentMessageID: &messageID,
	}))

	exists, err := repo.ExistsByMessageID("gmail-msg-1")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = repo.ExistsByMessageID("gmail-msg-2")
	require.NoError(t, err)
	assert.False(t, exists)

	count, err := repo.Count()
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
}

func TestWishlistDeleteMissingRow(t *testing.T) {
	repo := NewWishlistRepository(newTestDB(t))

	err := repo.Delete("WISH_MISSING")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestWishlistGetByUserNewestFirst(t *testing.T) {
	repo := NewWishlistRepository(newTestDB(t))

	first := &models.WishlistItem{WishlistID: "WISH_1", UserEmail: "a@b.c", ItemName: "old", ExpectedPrice: 1, CreatedAt: time.Now().Add(-time.Hour)}
	second := &models.WishlistItem{WishlistID: "WISH_2", UserEmail: "a@b.c", ItemName: "new", ExpectedPrice: 2, CreatedAt: time.Now()}
	require.NoError(t, repo.Add(first))
	require.NoError(t, repo.Add(second))
	require.NoError(t, repo.Add(&models.WishlistItem{WishlistID: "WISH_3", UserEmail: "x@y.z", ItemName: "other user", ExpectedPrice: 3}))

	items, err := repo.GetByUser("a@b.c", 10)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "WISH_2", items[0].WishlistID)

	count, err := repo.CountByUser("a@b.c")
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)
}
