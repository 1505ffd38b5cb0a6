package gmailsync

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"golang.org/x/oauth2"
	gmail "google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

// Gmail search queries. Transaction alerts come from bank and UPI sender
// domains; receipts are PDF attachments on invoice-like subjects.
const (
	transactionQuery = `(from:alerts@hdfcbank.net OR from:alerts@axisbank.com OR from:alerts@icicibank.com OR from:noreply@sbi.co.in OR from:alerts@kotak.com OR "UPI") (credited OR debited OR "payment of" OR "txn")`
	receiptQuery     = `(subject:invoice OR subject:receipt OR subject:"your order" OR subject:bill) has:attachment filename:pdf`

	maxResultsPerSync = 50
)

// Attachment identifies one downloadable file on a message.
type Attachment struct {
	Filename     string
	AttachmentID string
}

// Message is the slice of a Gmail message the sync works with.
type Message struct {
	ID          string
	Subject     string
	Snippet     string
	Body        string
	Attachments []Attachment
}

// Text joins the readable parts of the message for extraction.
func (m *Message) Text() string {
	parts := []string{}
	if m.Subject != "" {
		parts = append(parts, "Subject: "+m.Subject)
	}
	if m.Snippet != "" {
		parts = append(parts, m.Snippet)
	}
	if m.Body != "" {
		parts = append(parts, m.Body)
	}
	return strings.Join(parts, "\n")
}

// MailSource is the mailbox the syncer reads from. Splitting it from the
// Gmail client keeps the sync logic testable without network access.
type MailSource interface {
	ListMessageIDs(ctx context.Context, query string, max int64) ([]string, error)
	GetMessage(ctx context.Context, id string) (*Message, error)
	GetAttachment(ctx context.Context, messageID, attachmentID string) ([]byte, error)
}

// GmailSource reads a user's mailbox through the Gmail API with their
// OAuth token.
type GmailSource struct {
	svc *gmail.Service
}

func NewGmailSource(ctx context.Context, oauthCfg *oauth2.Config, token *oauth2.Token) (*GmailSource, error) {
	svc, err := gmail.NewService(ctx, option.WithTokenSource(oauthCfg.TokenSource(ctx, token)))
	if err != nil {
		return nil, fmt.Errorf("create gmail client: %w", err)
	}
	return &GmailSource{svc: svc}, nil
}

func (g *GmailSource) ListMessageIDs(ctx context.Context, query string, max int64) ([]string, error) {
	resp, err := g.svc.Users.Messages.List("me").Q(query).MaxResults(max).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}

	ids := make([]string, 0, len(resp.Messages))
	for _, msg := range resp.Messages {
		ids = append(ids, msg.Id)
	}
	return ids, nil
}

func (g *GmailSource) GetMessage(ctx context.Context, id string) (*Message, error) {
	raw, err := g.svc.Users.Messages.Get("me", id).Format("full").Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("get message %s: %w", id, err)
	}

	msg := &Message{ID: id, Snippet: raw.Snippet}
	if raw.Payload != nil {
		for _, header := range raw.Payload.Headers {
			if header.Name == "Subject" {
				msg.Subject = header.Value
				break
			}
		}
		collectParts(raw.Payload, msg)
	}
	return msg, nil
}

func (g *GmailSource) GetAttachment(ctx context.Context, messageID, attachmentID string) ([]byte, error) {
	body, err := g.svc.Users.Messages.Attachments.Get("me", messageID, attachmentID).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("get attachment: %w", err)
	}

	data, err := base64.URLEncoding.DecodeString(body.Data)
	if err != nil {
		return nil, fmt.Errorf("decode attachment: %w", err)
	}
	return data, nil
}

// collectParts walks the MIME tree, picking up plain-text bodies and
// attachment references.
func collectParts(part *gmail.MessagePart, msg *Message) {
	if part.Filename != "" && part.Body != nil && part.Body.AttachmentId != "" {
		msg.Attachments = append(msg.Attachments, Attachment{
			Filename:     part.Filename,
			AttachmentID: part.Body.AttachmentId,
		})
	}

	if part.MimeType == "text/plain" && part.Body != nil && part.Body.Data != "" {
		if data, err := base64.URLEncoding.DecodeString(part.Body.Data); err == nil {
			if msg.Body != "" {
				msg.Body += "\n"
			}
			msg.Body += string(data)
		}
	}

	for _, child := range part.Parts {
		collectParts(child, msg)
	}
}
