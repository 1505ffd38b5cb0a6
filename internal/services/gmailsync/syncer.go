package gmailsync

import (
	"context"
	"errors"

	"lumen-finance-backend/internal/models"
	"lumen-finance-backend/internal/repository"

	"github.com/sirupsen/logrus"
)

// Extractor turns message text into structured records.
type Extractor interface {
	TransactionFromText(ctx context.Context, text string) *models.Transaction
	ReceiptFromText(ctx context.Context, text string) *models.Receipt
}

// Result counts what one sync pass did.
type Result struct {
	New     int `json:"new"`
	Skipped int `json:"skipped"`
	Errors  int `json:"errors"`
}

// Summary is the combined outcome of a full sync.
type Summary struct {
	Transactions Result `json:"transactions"`
	Receipts     Result `json:"receipts"`
}

// Syncer pulls transaction alerts and receipt emails from a mailbox,
// extracts them and stores new rows. Re-running a sync is safe: already
// stored messages are counted as skipped.
type Syncer struct {
	mail         MailSource
	extractor    Extractor
	transactions *repository.TransactionRepository
	receipts     *repository.ReceiptRepository
	logger       *logrus.Logger
}

func NewSyncer(
	mail MailSource,
	extractor Extractor,
	transactions *repository.TransactionRepository,
	receipts *repository.ReceiptRepository,
	logger *logrus.Logger,
) *Syncer {
	return &Syncer{
		mail:         mail,
		extractor:    extractor,
		transactions: transactions,
		receipts:     receipts,
		logger:       logger,
	}
}

// SyncAll runs the transaction pass then the receipt pass.
func (s *Syncer) SyncAll(ctx context.Context) (*Summary, error) {
	txnResult, err := s.SyncTransactions(ctx)
	if err != nil {
		return nil, err
	}
	rcpResult, err := s.SyncReceipts(ctx)
	if err != nil {
		return nil, err
	}
	return &Summary{Transactions: txnResult, Receipts: rcpResult}, nil
}

// SyncTransactions fetches bank alert emails and stores the transactions
// extracted from them.
func (s *Syncer) SyncTransactions(ctx context.Context) (Result, error) {
	var result Result

	ids, err := s.mail.ListMessageIDs(ctx, transactionQuery, maxResultsPerSync)
	if err != nil {
		return result, err
	}

	for _, id := range ids {
		msg, err := s.mail.GetMessage(ctx, id)
		if err != nil {
			s.logger.WithError(err).WithField("message_id", id).Warn("gmailsync fetch failed")
			result.Errors++
			continue
		}

		txn := s.extractor.TransactionFromText(ctx, msg.Text())

		// The same alert is re-fetched on every sync, so match on content,
		// not just the extracted id.
		dup, err := s.transactions.CheckDuplicate(txn.Date, txn.Amount, txn.MerchantName)
		if err != nil {
			result.Errors++
			continue
		}
		if dup && txn.Amount > 0 {
			result.Skipped++
			continue
		}

		switch err := s.transactions.Add(txn); {
		case err == nil:
			result.New++
		case errors.Is(err, repository.ErrDuplicate):
			result.Skipped++
		default:
			s.logger.WithError(err).WithField("txn_id", txn.TxnID).Warn("gmailsync store failed")
			result.Errors++
		}
	}

	s.logger.WithFields(logrus.Fields{
		"new": result.New, "skipped": result.Skipped, "errors": result.Errors,
	}).Info("gmailsync transactions done")

	return result, nil
}

// SyncReceipts fetches invoice emails with PDF attachments and stores the
// receipts extracted from their text, keeping attachment references for
// later download.
func (s *Syncer) SyncReceipts(ctx context.Context) (Result, error) {
	var result Result

	ids, err := s.mail.ListMessageIDs(ctx, receiptQuery, maxResultsPerSync)
	if err != nil {
		return result, err
	}

	for _, id := range ids {
		exists, err := s.receipts.ExistsByMessageID(id)
		if err != nil {
			result.Errors++
			continue
		}
		if exists {
			result.Skipped++
			continue
		}

		msg, err := s.mail.GetMessage(ctx, id)
		if err != nil {
			s.logger.WithError(err).WithField("message_id", id).Warn("gmailsync fetch failed")
			result.Errors++
			continue
		}

		receipt := s.extractor.ReceiptFromText(ctx, msg.Text())
		receipt.RawSnippet = msg.Snippet

		messageID := msg.ID
		receipt.AttachmentMessageID = &messageID
		if len(msg.Attachments) > 0 {
			filename := msg.Attachments[0].Filename
			attachmentID := msg.Attachments[0].AttachmentID
			receipt.AttachmentFilename = &filename
			receipt.AttachmentID = &attachmentID
		}

		switch err := s.receipts.Add(receipt); {
		case err == nil:
			result.New++
		case errors.Is(err, repository.ErrDuplicate):
			result.Skipped++
		default:
			s.logger.WithError(err).WithField("receipt_id", receipt.ReceiptID).Warn("gmailsync store failed")
			result.Errors++
		}
	}

	s.logger.WithFields(logrus.Fields{
		"new": result.New, "skipped": result.Skipped, "errors": result.Errors,
	}).Info("gmailsync receipts done")

	return result, nil
}
