package advisor

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"lumen-finance-backend/internal/models"
	"lumen-finance-backend/internal/repository"
	"lumen-finance-backend/internal/services/llm"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

const advicePrompt = `You are a cautious personal finance advisor. A user is considering a
purchase. Their recent spending is summarized below (amounts in ₹).

%s

Planned purchase:
  item: %s
  category: %s
  expected price: ₹%.2f
  notes: %s

Respond with ONLY a JSON object in exactly this shape, no markdown and no
code fences:

{
  "should_buy_now": true,
  "reasons": ["short reason", "..."],
  "risk": "low|medium|high",
  "confidence": 0.0,
  "summary": "one paragraph of advice"
}`

// spendingWindowDays is how far back the advisor looks when judging
// affordability.
const spendingWindowDays = 90

// PurchaseAdvice is the verdict returned for one wishlist item.
type PurchaseAdvice struct {
	ShouldBuyNow bool     `json:"should_buy_now"`
	Reasons      []string `json:"reasons"`
	Risk         string   `json:"risk"`
	Confidence   float64  `json:"confidence"`
	Summary      string   `json:"summary"`
}

// generator is the slice of the LLM router the advisor needs.
type generator interface {
	GenerateSimple(ctx context.Context, prompt, systemPrompt string) (llm.Result, error)
}

// Advisor judges wishlist purchases against recent spending. When no LLM
// is reachable it falls back to a rule on the item price versus the
// recent monthly net flow.
type Advisor struct {
	transactions *repository.TransactionRepository
	llm          generator
	logger       *logrus.Logger
}

func NewAdvisor(transactions *repository.TransactionRepository, router generator, logger *logrus.Logger) *Advisor {
	return &Advisor{transactions: transactions, llm: router, logger: logger}
}

type spendingSummary struct {
	totalSpent    float64
	totalReceived float64
	monthlyNet    float64
	topCategory   string
	categorySpend float64
	text          string
}

// Advise produces a purchase verdict for one wishlist item.
func (a *Advisor) Advise(ctx context.Context, item *models.WishlistItem) (*PurchaseAdvice, error) {
	summary, err := a.buildSpendingSummary(item.Category)
	if err != nil {
		return nil, fmt.Errorf("summarize spending: %w", err)
	}

	prompt := fmt.Sprintf(advicePrompt, summary.text, item.ItemName, item.Category, item.ExpectedPrice, item.Notes)

	result, err := a.llm.GenerateSimple(ctx, prompt, "")
	if err == nil {
		if advice, ok := parseAdvice(result.Content); ok {
			return advice, nil
		}
		a.logger.Warn("advisor.Advise unparseable response, using fallback")
	} else {
		a.logger.WithError(err).Warn("advisor.Advise llm failed, using fallback")
	}

	return fallbackAdvice(item, summary), nil
}

func (a *Advisor) buildSpendingSummary(itemCategory string) (*spendingSummary, error) {
	since := time.Now().AddDate(0, 0, -spendingWindowDays).Format("2006-01-02")
	txns, err := a.transactions.GetSince(since, "")
	if err != nil {
		return nil, err
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

	summary := &spendingSummary{
		totalSpent:    spent.Round(2).InexactFloat64(),
		totalReceived: received.Round(2).InexactFloat64(),
	}
	summary.monthlyNet = received.Sub(spent).Div(decimal.NewFromInt(3)).Round(2).InexactFloat64()

	topTotal := decimal.Zero
	for category, total := range byCategory {
		if total.GreaterThan(topTotal) {
			topTotal = total
			summary.topCategory = category
		}
	}

	if itemCategory != "" {
		for category, total := range byCategory {
			if strings.EqualFold(category, itemCategory) {
				summary.categorySpend = total.Round(2).InexactFloat64()
			}
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Last %d days: spent ₹%.2f, received ₹%.2f (%d transactions).\n",
		spendingWindowDays, summary.totalSpent, summary.totalReceived, len(txns))
	fmt.Fprintf(&b, "Average monthly net flow: ₹%.2f.\n", summary.monthlyNet)
	if summary.topCategory != "" {
		fmt.Fprintf(&b, "Biggest spending category: %s.\n", summary.topCategory)
	}
	if summary.categorySpend > 0 {
		fmt.Fprintf(&b, "Already spent ₹%.2f on %s in this window.\n", summary.categorySpend, itemCategory)
	}
	summary.text = b.String()

	return summary, nil
}

func parseAdvice(content string) (*PurchaseAdvice, bool) {
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start < 0 || end <= start {
		return nil, false
	}

	var advice PurchaseAdvice
	if err := json.Unmarshal([]byte(content[start:end+1]), &advice); err != nil {
		return nil, false
	}
	if advice.Summary == "" {
		return nil, false
	}

	switch advice.Risk {
	case "low", "medium", "high":
	default:
		advice.Risk = "medium"
	}
	if advice.Reasons == nil {
		advice.Reasons = []string{}
	}
	return &advice, true
}

// fallbackAdvice applies a simple affordability rule: buy when the price
// fits inside one month of positive net flow.
func fallbackAdvice(item *models.WishlistItem, summary *spendingSummary) *PurchaseAdvice {
	affordable := summary.monthlyNet > 0 && item.ExpectedPrice <= summary.monthlyNet

	advice := &PurchaseAdvice{
		ShouldBuyNow: affordable,
		Confidence:   0.5,
		Reasons: []string{
			fmt.Sprintf("Expected price is ₹%.2f against an average monthly net flow of ₹%.2f.",
				item.ExpectedPrice, summary.monthlyNet),
		},
	}

	if affordable {
		advice.Risk = "low"
		advice.Summary = fmt.Sprintf(
			"%s fits within your recent monthly surplus, buying now looks reasonable.", item.ItemName)
	} else {
		advice.Risk = "high"
		advice.ShouldBuyNow = false
		advice.Summary = fmt.Sprintf(
			"%s costs more than your recent monthly surplus, consider waiting or saving first.", item.ItemName)
		advice.Reasons = append(advice.Reasons, "Spending has been close to or above income recently.")
	}

	return advice
}
