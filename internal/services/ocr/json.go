package ocr

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var jsonObjectPattern = regexp.MustCompile(`(?s)\{.*\}`)

// ReceiptData is the structured result the vision model is prompted to
// return for an uploaded receipt.
type ReceiptData struct {
	Vendor          string        `json:"vendor"`
	Date            string        `json:"date"`
	Items           []ReceiptItem `json:"items"`
	Subtotal        FlexFloat     `json:"subtotal"`
	Tax             FlexFloat     `json:"tax"`
	Total           FlexFloat     `json:"total"`
	Category        string        `json:"category"`
	PaymentMethod   string        `json:"payment_method"`
	ConfidenceScore FlexFloat     `json:"confidence_score"`
}

type ReceiptItem struct {
	Name     string    `json:"name"`
	Quantity FlexFloat `json:"quantity"`
	Price    FlexFloat `json:"price"`
}

// FlexFloat tolerates numeric fields the model quotes as strings,
// sometimes with a currency symbol.
type FlexFloat float64

func (f *FlexFloat) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" {
		*f = 0
		return nil
	}
	s = strings.Trim(s, `"`)
	s = strings.NewReplacer("₹", "", "Rs.", "", "Rs", "", ",", "", " ", "").Replace(s)
	if s == "" {
		*f = 0
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("parse number %q: %w", s, err)
	}
	*f = FlexFloat(v)
	return nil
}

// ValidationError reports which required receipt fields the model failed
// to extract.
type ValidationError struct {
	MissingFields []string
}

func (e *ValidationError) Error() string {
	return "missing required fields: " + strings.Join(e.MissingFields, ", ")
}

// CleanJSONResponse strips markdown code fences and surrounding prose,
// keeping only the outermost JSON object.
func CleanJSONResponse(response string) string {
	cleaned := strings.TrimSpace(response)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	cleaned = strings.TrimSpace(cleaned)

	if match := jsonObjectPattern.FindString(cleaned); match != "" {
		return match
	}
	return cleaned
}

// ParseReceiptJSON cleans and decodes a vision model response, then checks
// the fields a receipt record cannot be stored without.
func ParseReceiptJSON(response string) (*ReceiptData, error) {
	cleaned := CleanJSONResponse(response)

	var data ReceiptData
	if err := json.Unmarshal([]byte(cleaned), &data); err != nil {
		return nil, fmt.Errorf("decode receipt json: %w", err)
	}

	var missing []string
	if strings.TrimSpace(data.Vendor) == "" {
		missing = append(missing, "vendor")
	}
	if strings.TrimSpace(data.Date) == "" {
		missing = append(missing, "date")
	}
	if data.Total <= 0 {
		missing = append(missing, "total")
	}
	if len(missing) > 0 {
		return nil, &ValidationError{MissingFields: missing}
	}

	return &data, nil
}
