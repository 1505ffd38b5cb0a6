package ocr

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"

	"lumen-finance-backend/internal/config"

	openai "github.com/sashabaranov/go-openai"
	"github.com/sirupsen/logrus"
)

const receiptVisionPrompt = `You are reading a photo or scan of a purchase receipt.

Extract the details and return ONLY a JSON object in exactly this shape,
with no markdown, no code fences and no commentary:

{
  "vendor": "store or merchant name",
  "date": "YYYY-MM-DD",
  "items": [{"name": "item name", "quantity": 1, "price": 0.00}],
  "subtotal": 0.00,
  "tax": 0.00,
  "total": 0.00,
  "category": "groceries|dining|transportation|utilities|entertainment|shopping|healthcare|education|electronics|home|other",
  "payment_method": "cash|card|upi|other",
  "confidence_score": 0
}

confidence_score is 0-100 and reflects how legible the receipt is.
Use null for values you cannot read.`

// ErrShortResponse is returned when the vision model answers with fewer
// than 10 characters, which never holds a usable receipt.
var ErrShortResponse = errors.New("vision response too short to contain a receipt")

// visionChat is the slice of the OpenAI client the vision reader needs.
type visionChat interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// VisionClient reads receipt images and PDF text through an
// OpenAI-compatible vision model.
type VisionClient struct {
	chat   visionChat
	model  string
	logger *logrus.Logger
}

func NewVisionClient(cfg *config.Config, logger *logrus.Logger) *VisionClient {
	clientCfg := openai.DefaultConfig(cfg.VisionAPIKey)
	clientCfg.BaseURL = cfg.VisionBaseURL
	return &VisionClient{
		chat:   openai.NewClientWithConfig(clientCfg),
		model:  cfg.VisionModel,
		logger: logger,
	}
}

// ReadImage runs OCR extraction on raw image bytes and returns the model's
// text response.
func (v *VisionClient) ReadImage(ctx context.Context, image []byte, mimeType string) (string, error) {
	dataURL := fmt.Sprintf("data:%s;base64,%s", mimeType, base64.StdEncoding.EncodeToString(image))

	resp, err := v.chat.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: v.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{Type: openai.ChatMessagePartTypeText, Text: receiptVisionPrompt},
					{
						Type:     openai.ChatMessagePartTypeImageURL,
						ImageURL: &openai.ChatMessageImageURL{URL: dataURL},
					},
				},
			},
		},
		MaxTokens: 600,
	})
	if err != nil {
		return "", fmt.Errorf("vision completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("vision completion returned no choices")
	}

	content := resp.Choices[0].Message.Content
	if len(content) < 10 {
		v.logger.WithField("length", len(content)).Warn("ocr.VisionClient short response")
		return "", ErrShortResponse
	}
	return content, nil
}

// ReadText runs the same extraction over text already pulled out of a PDF.
func (v *VisionClient) ReadText(ctx context.Context, text string) (string, error) {
	resp, err := v.chat.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: v.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleUser,
				Content: receiptVisionPrompt + "\n\nReceipt text:\n" + text,
			},
		},
		MaxTokens: 600,
	})
	if err != nil {
		return "", fmt.Errorf("vision completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("vision completion returned no choices")
	}

	content := resp.Choices[0].Message.Content
	if len(content) < 10 {
		return "", ErrShortResponse
	}
	return content, nil
}
