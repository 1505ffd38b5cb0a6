package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	handler "lumen-finance-backend/internal/handlers"
	"lumen-finance-backend/internal/models"
	"lumen-finance-backend/internal/repository"
	"lumen-finance-backend/internal/services/advisor"
	"lumen-finance-backend/internal/services/analytics"
	"lumen-finance-backend/internal/services/auth"
	"lumen-finance-backend/internal/services/gmailsync"
	"lumen-finance-backend/internal/services/llm"
	"lumen-finance-backend/internal/services/ocr"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type fakeLLM struct{}

func (fakeLLM) GenerateSimple(context.Context, string, string) (llm.Result, error) {
	return llm.Result{}, fmt.Errorf("llm disabled in tests")
}

type fakeMailSource struct{}

func (fakeMailSource) ListMessageIDs(context.Context, string, int64) ([]string, error) {
	return nil, nil
}

func (fakeMailSource) GetMessage(context.Context, string) (*gmailsync.Message, error) {
	return nil, fmt.Errorf("not implemented")
}

func (fakeMailSource) GetAttachment(context.Context, string, string) ([]byte, error) {
	return []byte("%PDF-1.4"), nil
}

type fakeVision struct {
	response string
}

func (f *fakeVision) ReadImage(context.Context, []byte, string) (string, error) {
	return f.response, nil
}

func (f *fakeVision) ReadText(context.Context, string) (string, error) {
	return f.response, nil
}

type testEnv struct {
	router       *gin.Engine
	transactions *repository.TransactionRepository
	receipts     *repository.ReceiptRepository
	wishlist     *repository.WishlistRepository
	cookies      []*http.Cookie
}

func newTestLogger() *logrus.Logger {
	l := logrus.New()
	l.SetLevel(logrus.PanicLevel)
	return l
}

func newTestEnv(t *testing.T, visionResponse string) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Transaction{}, &models.Receipt{}, &models.WishlistItem{}))

	transactionRepo := repository.NewTransactionRepository(db)
	receiptRepo := repository.NewReceiptRepository(db)
	wishlistRepo := repository.NewWishlistRepository(db)

	log := newTestLogger()
	analyzer := analytics.NewAnalyzer(transactionRepo, fakeLLM{}, log)
	purchaseAdvisor := advisor.NewAdvisor(transactionRepo, fakeLLM{}, log)
	ocrService := ocr.NewService(&fakeVision{response: visionResponse}, log)

	transactionHandler := handler.NewTransactionHandler(transactionRepo, analyzer)
	wishlistHandler := handler.NewWishlistHandler(wishlistRepo, purchaseAdvisor, log)
	uploadHandler := handler.NewUploadHandler(ocrService, receiptRepo, analyzer, t.TempDir(), log)
	receiptHandler := handler.NewReceiptHandler(receiptRepo, func(context.Context, *oauth2.Token) (gmailsync.MailSource, error) {
		return fakeMailSource{}, nil
	}, log)
	dashboardHandler := handler.NewDashboardHandler(analyzer, transactionRepo, receiptRepo, log)

	r := gin.New()
	r.Use(sessions.Sessions(auth.SessionName, cookie.NewStore([]byte("test-secret"))))

	// Test-only login that seeds a session without the OAuth dance.
	r.GET("/test/login", func(c *gin.Context) {
		err := auth.SaveLogin(c, &oauth2.Token{AccessToken: "fake"}, "user@example.com", "Test User")
		require.NoError(t, err)
		c.Status(http.StatusOK)
	})

	protected := r.Group("/api")
	protected.Use(handler.RequireAuth())
	protected.GET("/transactions", transactionHandler.List)
	protected.POST("/transactions", transactionHandler.Create)
	protected.GET("/transactions/:id", transactionHandler.Get)
	protected.GET("/wishlist", wishlistHandler.List)
	protected.POST("/wishlist", wishlistHandler.Create)
	protected.DELETE("/wishlist/:id", wishlistHandler.Delete)
	protected.GET("/receipts", receiptHandler.List)
	protected.POST("/receipts/upload", uploadHandler.Upload)
	protected.GET("/attachments/:messageId/:attachmentId/:filename", receiptHandler.DownloadAttachment)
	protected.GET("/dashboard", dashboardHandler.Dashboard)

	return &testEnv{
		router:       r,
		transactions: transactionRepo,
		receipts:     receiptRepo,
		wishlist:     wishlistRepo,
	}
}

func (e *testEnv) login(t *testing.T) {
	t.Helper()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/test/login", nil)
	e.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	e.cookies = w.Result().Cookies()
}

func (e *testEnv) do(method, path string, body []byte, contentType string) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	for _, c := range e.cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func TestRequireAuthRejectsAnonymous(t *testing.T) {
	env := newTestEnv(t, "")

	w := env.do(http.MethodGet, "/api/transactions", nil, "")

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), `"success":false`)
}

func TestCreateAndListTransactions(t *testing.T) {
	env := newTestEnv(t, "")
	env.login(t)

	body := []byte(`{"merchant_name": "Decathlon", "amount": 2999, "category": "Shopping"}`)
	w := env.do(http.MethodPost, "/api/transactions", body, "application/json")
	require.Equal(t, http.StatusCreated, w.Code)

	var created struct {
		Transaction models.Transaction `json:"transaction"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.True(t, strings.HasPrefix(created.Transaction.TxnID, "TXN_MANUAL_"))
	assert.Equal(t, models.TypeDebit, created.Transaction.Type)

	w = env.do(http.MethodGet, "/api/transactions", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Decathlon")
}

func TestCreateTransactionValidation(t *testing.T) {
	env := newTestEnv(t, "")
	env.login(t)

	w := env.do(http.MethodPost, "/api/transactions", []byte(`{"merchant_name": "X", "amount": -5}`), "application/json")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetTransactionNotFound(t *testing.T) {
	env := newTestEnv(t, "")
	env.login(t)

	w := env.do(http.MethodGet, "/api/transactions/TXN_MISSING", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestWishlistLifecycle(t *testing.T) {
	env := newTestEnv(t, "")
	env.login(t)

	body := []byte(`{"item_name": "Sony headphones", "expected_price": 24999}`)
	w := env.do(http.MethodPost, "/api/wishlist", body, "application/json")
	require.Equal(t, http.StatusCreated, w.Code)

	var created struct {
		Item models.WishlistItem `json:"item"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.True(t, strings.HasPrefix(created.Item.WishlistID, "WISH_"))
	assert.Equal(t, "electronics", created.Item.Category, "category should be guessed from the name")
	assert.Equal(t, "user@example.com", created.Item.UserEmail)

	w = env.do(http.MethodGet, "/api/wishlist", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Sony headphones")

	w = env.do(http.MethodDelete, "/api/wishlist/"+created.Item.WishlistID, nil, "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = env.do(http.MethodDelete, "/api/wishlist/"+created.Item.WishlistID, nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestWishlistHidesOtherUsersItems(t *testing.T) {
	env := newTestEnv(t, "")
	env.login(t)

	require.NoError(t, env.wishlist.Add(&models.WishlistItem{
		WishlistID: "WISH_OTHER", UserEmail: "someone@else.com",
		ItemName: "secret", ExpectedPrice: 1,
	}))

	w := env.do(http.MethodDelete, "/api/wishlist/WISH_OTHER", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func multipartBody(t *testing.T, filename string, content []byte) ([]byte, string) {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())
	return buf.Bytes(), writer.FormDataContentType()
}

func TestUploadRejectsUnsupportedType(t *testing.T) {
	env := newTestEnv(t, "")
	env.login(t)

	body, contentType := multipartBody(t, "notes.txt", []byte("hello"))
	w := env.do(http.MethodPost, "/api/receipts/upload", body, contentType)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "unsupported file type")
}

func TestUploadStoresExtractedReceipt(t *testing.T) {
	env := newTestEnv(t, `{"vendor": "Cafe Coffee Day", "date": "2025-03-01", "total": 420, "category": "dining", "payment_method": "card", "confidence_score": 91}`)
	env.login(t)

	body, contentType := multipartBody(t, "bill.jpg", []byte{0xff, 0xd8, 0xff, 0xe0})
	w := env.do(http.MethodPost, "/api/receipts/upload", body, contentType)
	require.Equal(t, http.StatusCreated, w.Code)

	stored, err := env.receipts.GetAll()
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, "Cafe Coffee Day", stored[0].MerchantName)
	assert.Equal(t, models.ReceiptTypeUploaded, stored[0].ReceiptType)
	assert.False(t, stored[0].IsSuspicious)
}

func TestUploadMissingFieldsIs422(t *testing.T) {
	env := newTestEnv(t, `{"vendor": "", "date": "", "total": 0}`)
	env.login(t)

	body, contentType := multipartBody(t, "bill.png", []byte{0x89, 0x50, 0x4e, 0x47})
	w := env.do(http.MethodPost, "/api/receipts/upload", body, contentType)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), "missing_fields")
}

func TestListReceiptsCapsAtRecentWindow(t *testing.T) {
	env := newTestEnv(t, "")
	env.login(t)

	for i := 0; i < 45; i++ {
		require.NoError(t, env.receipts.Add(&models.Receipt{
			ReceiptID:    fmt.Sprintf("RCP_%03d", i),
			ReceiptType:  models.ReceiptTypeDigital,
			MerchantName: "Amazon",
			TotalAmount:  float64(100 + i),
			IssueDate:    "2025-03-01",
		}))
	}

	w := env.do(http.MethodGet, "/api/receipts", nil, "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Count    int              `json:"count"`
		Receipts []models.Receipt `json:"receipts"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 40, resp.Count)
	assert.Len(t, resp.Receipts, 40)
}

func TestDownloadAttachmentEscapesFilename(t *testing.T) {
	env := newTestEnv(t, "")
	env.login(t)

	w := env.do(http.MethodGet, "/api/attachments/msg1/att1/inv%22oice.pdf", nil, "")
	require.Equal(t, http.StatusOK, w.Code)

	disposition := w.Header().Get("Content-Disposition")
	_, params, err := mime.ParseMediaType(disposition)
	require.NoError(t, err)
	assert.Equal(t, `inv"oice.pdf`, params["filename"])
	assert.Equal(t, "%PDF-1.4", w.Body.String())
}

func TestDashboardReturnsReport(t *testing.T) {
	env := newTestEnv(t, "")
	env.login(t)

	require.NoError(t, env.transactions.Add(&models.Transaction{
		TxnID: "TXN_1", MerchantName: "Swiggy", Amount: 450,
		Type: models.TypeDebit, Date: "2025-03-01", Category: "Dining",
	}))

	w := env.do(http.MethodGet, "/api/dashboard", nil, "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Cached bool `json:"cached"`
		Report struct {
			TotalDebit float64 `json:"total_debit"`
		} `json:"report"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Cached)
	assert.Equal(t, 450.0, resp.Report.TotalDebit)
}
