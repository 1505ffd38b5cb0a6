package assistant

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"lumen-finance-backend/internal/models"
	"lumen-finance-backend/internal/repository"

	openai "github.com/sashabaranov/go-openai"
	"github.com/shopspring/decimal"
)

// Toolset exposes read-only aggregate queries over stored transactions.
// The assistant never sees raw emails or tokens, only what these tools
// return.
type Toolset struct {
	transactions *repository.TransactionRepository
}

func NewToolset(transactions *repository.TransactionRepository) *Toolset {
	return &Toolset{transactions: transactions}
}

// Definitions returns the OpenAI function schemas for every tool.
func (t *Toolset) Definitions() []openai.Tool {
	return []openai.Tool{
		toolDef("get_monthly_spending_summary",
			"Total spending, income and per-category breakdown for one calendar month.",
			map[string]any{
				"month": map[string]any{"type": "integer", "description": "Month number 1-12. Defaults to the current month."},
				"year":  map[string]any{"type": "integer", "description": "Four digit year. Defaults to the current year."},
			}),
		toolDef("get_top_spending_categories",
			"Highest spending categories over a recent window of days.",
			map[string]any{
				"limit": map[string]any{"type": "integer", "description": "How many categories to return. Defaults to 5."},
				"days":  map[string]any{"type": "integer", "description": "Window size in days. Defaults to 30."},
			}),
		toolDef("detect_anomalies",
			"Unusually large debits above a percentile threshold, plus explicitly flagged rows.",
			map[string]any{
				"threshold_percentile": map[string]any{"type": "integer", "description": "Percentile cutoff for large amounts, 50-99. Defaults to 95."},
			}),
		toolDef("get_recent_transactions",
			"Most recent transactions, optionally filtered by category.",
			map[string]any{
				"limit":    map[string]any{"type": "integer", "description": "How many rows to return, max 50. Defaults to 10."},
				"category": map[string]any{"type": "string", "description": "Category substring to filter by, case-insensitive."},
			}),
	}
}

// Names returns the valid tool names for request validation.
func (t *Toolset) Names() []string {
	defs := t.Definitions()
	names := make([]string, 0, len(defs))
	for _, def := range defs {
		names = append(names, def.Function.Name)
	}
	return names
}

// Execute dispatches one tool call. The result is a JSON string ready to
// feed back to the model as a tool message.
func (t *Toolset) Execute(name string, args json.RawMessage) (string, error) {
	switch name {
	case "get_monthly_spending_summary":
		return t.monthlySummary(args)
	case "get_top_spending_categories":
		return t.topCategories(args)
	case "detect_anomalies":
		return t.detectAnomalies(args)
	case "get_recent_transactions":
		return t.recentTransactions(args)
	}
	return "", fmt.Errorf("unknown tool %q", name)
}

func (t *Toolset) monthlySummary(args json.RawMessage) (string, error) {
	var params struct {
		Month int `json:"month"`
		Year  int `json:"year"`
	}
	decodeArgs(args, &params)

	now := time.Now()
	if params.Month < 1 || params.Month > 12 {
		params.Month = int(now.Month())
	}
	if params.Year < 2000 {
		params.Year = now.Year()
	}

	prefix := fmt.Sprintf("%04d-%02d", params.Year, params.Month)
	txns, err := t.transactions.GetByDatePrefix(prefix)
	if err != nil {
		return "", err
	}

	spent := decimal.Zero
	received := decimal.Zero
	byCategory := make(map[string]decimal.Decimal)
	for _, txn := range txns {
		amount := decimal.NewFromFloat(txn.Amount)
		if txn.Type == models.TypeCredit {
			received = received.Add(amount)
			continue
		}
		spent = spent.Add(amount)
		byCategory[txn.Category] = byCategory[txn.Category].Add(amount)
	}

	categories := make(map[string]float64, len(byCategory))
	for category, total := range byCategory {
		categories[category] = total.Round(2).InexactFloat64()
	}

	return encodeResult(map[string]any{
		"month":             prefix,
		"transaction_count": len(txns),
		"total_spent":       spent.Round(2).InexactFloat64(),
		"total_received":    received.Round(2).InexactFloat64(),
		"by_category":       categories,
	})
}

func (t *Toolset) topCategories(args json.RawMessage) (string, error) {
	var params struct {
		Limit int `json:"limit"`
		Days  int `json:"days"`
	}
	decodeArgs(args, &params)

	if params.Limit <= 0 {
		params.Limit = 5
	}
	if params.Days <= 0 {
		params.Days = 30
	}

	since := time.Now().AddDate(0, 0, -params.Days).Format("2006-01-02")
	txns, err := t.transactions.GetSince(since, models.TypeDebit)
	if err != nil {
		return "", err
	}

	byCategory := make(map[string]decimal.Decimal)
	for _, txn := range txns {
		byCategory[txn.Category] = byCategory[txn.Category].Add(decimal.NewFromFloat(txn.Amount))
	}

	type entry struct {
		Category string  `json:"category"`
		Total    float64 `json:"total"`
	}
	entries := make([]entry, 0, len(byCategory))
	for category, total := range byCategory {
		entries = append(entries, entry{Category: category, Total: total.Round(2).InexactFloat64()})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Total != entries[j].Total {
			return entries[i].Total > entries[j].Total
		}
		return entries[i].Category < entries[j].Category
	})
	if len(entries) > params.Limit {
		entries = entries[:params.Limit]
	}

	return encodeResult(map[string]any{
		"since":      since,
		"days":       params.Days,
		"categories": entries,
	})
}

func (t *Toolset) detectAnomalies(args json.RawMessage) (string, error) {
	var params struct {
		ThresholdPercentile int `json:"threshold_percentile"`
	}
	decodeArgs(args, &params)

	if params.ThresholdPercentile < 50 || params.ThresholdPercentile > 99 {
		params.ThresholdPercentile = 95
	}

	txns, err := t.transactions.GetByType(models.TypeDebit)
	if err != nil {
		return "", err
	}

	amounts := make([]float64, 0, len(txns))
	for _, txn := range txns {
		if txn.Amount > 0 {
			amounts = append(amounts, txn.Amount)
		}
	}

	threshold := 0.0
	if len(amounts) >= 5 {
		sort.Float64s(amounts)
		idx := len(amounts) * params.ThresholdPercentile / 100
		if idx >= len(amounts) {
			idx = len(amounts) - 1
		}
		threshold = amounts[idx]
	}

	type anomaly struct {
		TxnID    string  `json:"txn_id"`
		Merchant string  `json:"merchant"`
		Amount   float64 `json:"amount"`
		Date     string  `json:"date"`
		Reason   string  `json:"reason"`
	}
	anomalies := []anomaly{}
	for _, txn := range txns {
		switch {
		case txn.IsSuspicious:
			anomalies = append(anomalies, anomaly{txn.TxnID, txn.MerchantName, txn.Amount, txn.Date, "flagged at extraction"})
		case threshold > 0 && txn.Amount >= threshold:
			anomalies = append(anomalies, anomaly{txn.TxnID, txn.MerchantName, txn.Amount, txn.Date,
				fmt.Sprintf("above the %dth percentile", params.ThresholdPercentile)})
		}
	}

	return encodeResult(map[string]any{
		"threshold_percentile": params.ThresholdPercentile,
		"threshold_amount":     threshold,
		"anomalies":            anomalies,
	})
}

func (t *Toolset) recentTransactions(args json.RawMessage) (string, error) {
	var params struct {
		Limit    int    `json:"limit"`
		Category string `json:"category"`
	}
	decodeArgs(args, &params)

	if params.Limit <= 0 {
		params.Limit = 10
	}
	if params.Limit > 50 {
		params.Limit = 50
	}

	txns, err := t.transactions.GetRecentByCategory(params.Category, params.Limit)
	if err != nil {
		return "", err
	}

	type row struct {
		TxnID    string  `json:"txn_id"`
		Date     string  `json:"date"`
		Merchant string  `json:"merchant"`
		Category string  `json:"category"`
		Type     string  `json:"type"`
		Amount   float64 `json:"amount"`
	}
	rows := make([]row, 0, len(txns))
	for _, txn := range txns {
		rows = append(rows, row{txn.TxnID, txn.Date, txn.MerchantName, txn.Category, txn.Type, txn.Amount})
	}

	return encodeResult(map[string]any{
		"count":        len(rows),
		"transactions": rows,
	})
}

func toolDef(name, description string, properties map[string]any) openai.Tool {
	return openai.Tool{
		Type: openai.ToolTypeFunction,
		Function: &openai.FunctionDefinition{
			Name:        name,
			Description: description,
			Parameters: map[string]any{
				"type":       "object",
				"properties": properties,
			},
		},
	}
}

// decodeArgs tolerates empty or malformed argument blobs; every tool has
// usable defaults.
func decodeArgs(args json.RawMessage, dst any) {
	if len(args) == 0 {
		return
	}
	_ = json.Unmarshal(args, dst)
}

func encodeResult(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("encode tool result: %w", err)
	}
	return string(data), nil
}
