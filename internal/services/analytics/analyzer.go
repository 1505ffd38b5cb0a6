package analytics

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"lumen-finance-backend/internal/models"
	"lumen-finance-backend/internal/repository"
	"lumen-finance-backend/internal/services/llm"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

const insightsPrompt = `You are a personal finance analyst. The summary below describes one
user's recent transactions (amounts in ₹).

%s

Respond with ONLY a JSON object in exactly this shape, no markdown and no
code fences:

{
  "summary": "two sentence overview of the spending",
  "patterns": ["notable pattern", "..."],
  "risky_behaviors": ["risky habit", "..."],
  "suspicious": ["suspicious observation", "..."],
  "savings_tips": ["actionable tip", "..."]
}`

// ChartSeries is a label/value pair set ready for a frontend chart.
type ChartSeries struct {
	Labels []string  `json:"labels"`
	Values []float64 `json:"values"`
}

type CategoryTotal struct {
	Category string  `json:"category"`
	Total    float64 `json:"total"`
}

type Patterns struct {
	RecurringCount       int    `json:"recurring_count"`
	MostFrequentMerchant string `json:"most_frequent_merchant"`
	PeakWeekday          string `json:"peak_weekday"`
}

// Insights is the JSON shape the LLM is asked to produce. A deterministic
// fallback fills it when no provider is reachable.
type Insights struct {
	Summary        string   `json:"summary"`
	Patterns       []string `json:"patterns"`
	RiskyBehaviors []string `json:"risky_behaviors"`
	Suspicious     []string `json:"suspicious"`
	SavingsTips    []string `json:"savings_tips"`
}

// Report is the full analytics payload behind the dashboard and anomaly
// endpoints.
type Report struct {
	TransactionCount int     `json:"transaction_count"`
	TotalDebit       float64 `json:"total_debit"`
	TotalCredit      float64 `json:"total_credit"`
	NetFlow          float64 `json:"net_flow"`

	CategoryBreakdown ChartSeries     `json:"category_breakdown"`
	TopCategories     []CategoryTotal `json:"top_categories"`
	DailySpending     ChartSeries     `json:"daily_spending"`
	MonthlySpending   ChartSeries     `json:"monthly_spending"`

	Patterns    Patterns             `json:"patterns"`
	Suspicious  []models.Transaction `json:"suspicious"`
	Insights    Insights             `json:"insights"`
	GeneratedAt time.Time            `json:"generated_at"`
}

// generator is the slice of the LLM router the analyzer needs.
type generator interface {
	GenerateSimple(ctx context.Context, prompt, systemPrompt string) (llm.Result, error)
}

// Analyzer computes spending reports from stored transactions. Money is
// summed with decimals so long debit lists don't accumulate float drift.
type Analyzer struct {
	transactions *repository.TransactionRepository
	llm          generator
	logger       *logrus.Logger
	cache        *reportCache
}

func NewAnalyzer(transactions *repository.TransactionRepository, router generator, logger *logrus.Logger) *Analyzer {
	return &Analyzer{
		transactions: transactions,
		llm:          router,
		logger:       logger,
		cache:        newReportCache(),
	}
}

// Report builds the full analytics payload, serving a cached copy when one
// is fresh. The second return reports a cache hit.
func (a *Analyzer) Report(ctx context.Context) (*Report, bool, error) {
	if cached, ok := a.cache.get(); ok {
		return cached, true, nil
	}

	txns, err := a.transactions.GetAll()
	if err != nil {
		return nil, false, fmt.Errorf("load transactions: %w", err)
	}

	report := a.build(txns)
	report.Insights = a.insights(ctx, report)
	a.cache.set(report)

	return report, false, nil
}

// Invalidate drops the cached report, used after a sync writes new rows.
func (a *Analyzer) Invalidate() { a.cache.clear() }

func (a *Analyzer) build(txns []models.Transaction) *Report {
	report := &Report{
		TransactionCount: len(txns),
		GeneratedAt:      time.Now(),
	}

	debitTotal := decimal.Zero
	creditTotal := decimal.Zero
	categoryTotals := make(map[string]decimal.Decimal)
	merchantCounts := make(map[string]int)
	weekdayCounts := make(map[string]int)
	monthTotals := make(map[string]decimal.Decimal)

	for _, txn := range txns {
		amount := decimal.NewFromFloat(txn.Amount)

		if txn.Type == models.TypeCredit {
			creditTotal = creditTotal.Add(amount)
			continue
		}

		debitTotal = debitTotal.Add(amount)
		category := txn.Category
		if category == "" {
			category = "Uncategorized"
		}
		categoryTotals[category] = categoryTotals[category].Add(amount)

		if txn.MerchantName != "" && txn.MerchantName != "Unknown" {
			merchantCounts[txn.MerchantName]++
		}
		if txn.IsRecurring {
			report.Patterns.RecurringCount++
		}
		if weekday := weekdayOf(txn); weekday != "" {
			weekdayCounts[weekday]++
		}
		if len(txn.Date) >= 7 {
			month := txn.Date[:7]
			monthTotals[month] = monthTotals[month].Add(amount)
		}
	}

	report.TotalDebit = round2(debitTotal)
	report.TotalCredit = round2(creditTotal)
	report.NetFlow = round2(creditTotal.Sub(debitTotal))

	report.CategoryBreakdown = seriesFromTotals(categoryTotals)
	report.TopCategories = topCategories(categoryTotals, 4)
	report.DailySpending = dailySeries(txns, 7)
	report.MonthlySpending = seriesFromTotals(monthTotals)

	report.Patterns.MostFrequentMerchant = maxKey(merchantCounts)
	report.Patterns.PeakWeekday = maxKey(weekdayCounts)

	report.Suspicious = suspiciousTransactions(txns, 10)

	return report
}

// insights asks the LLM for a narrative read of the report, falling back to
// a deterministic summary when no provider answers.
func (a *Analyzer) insights(ctx context.Context, report *Report) Insights {
	summary := describeReport(report)

	result, err := a.llm.GenerateSimple(ctx, fmt.Sprintf(insightsPrompt, summary), "")
	if err == nil {
		var insights Insights
		cleaned := extractJSONObject(result.Content)
		if jsonErr := json.Unmarshal([]byte(cleaned), &insights); jsonErr == nil && insights.Summary != "" {
			return insights
		}
		a.logger.Warn("analytics.Analyzer unparseable insights response, using fallback")
	} else {
		a.logger.WithError(err).Warn("analytics.Analyzer insights llm failed, using fallback")
	}

	return fallbackInsights(report)
}

func fallbackInsights(report *Report) Insights {
	insights := Insights{
		Summary: fmt.Sprintf(
			"You spent ₹%.2f across %d transactions and received ₹%.2f.",
			report.TotalDebit, report.TransactionCount, report.TotalCredit,
		),
		Patterns:       []string{},
		RiskyBehaviors: []string{},
		Suspicious:     []string{},
		SavingsTips:    []string{"Review your largest spending category for quick savings."},
	}

	if len(report.TopCategories) > 0 {
		top := report.TopCategories[0]
		insights.Patterns = append(insights.Patterns,
			fmt.Sprintf("%s is your biggest category at ₹%.2f.", top.Category, top.Total))
	}
	if report.Patterns.MostFrequentMerchant != "" {
		insights.Patterns = append(insights.Patterns,
			fmt.Sprintf("You transact most often with %s.", report.Patterns.MostFrequentMerchant))
	}
	if report.NetFlow < 0 {
		insights.RiskyBehaviors = append(insights.RiskyBehaviors,
			"Spending exceeded income over this period.")
	}
	if len(report.Suspicious) > 0 {
		insights.Suspicious = append(insights.Suspicious,
			fmt.Sprintf("%d transactions look unusual, review them on the anomalies page.", len(report.Suspicious)))
	}

	return insights
}

// suspiciousTransactions returns flagged rows plus debits in the top 5% by
// amount, capped at limit.
func suspiciousTransactions(txns []models.Transaction, limit int) []models.Transaction {
	threshold := percentileAmount(txns, 0.95)

	seen := make(map[string]bool)
	out := []models.Transaction{}
	add := func(txn models.Transaction) {
		if len(out) < limit && !seen[txn.TxnID] {
			seen[txn.TxnID] = true
			out = append(out, txn)
		}
	}

	for _, txn := range txns {
		if txn.IsSuspicious {
			add(txn)
		}
	}
	for _, txn := range txns {
		if txn.Type == models.TypeDebit && threshold > 0 && txn.Amount >= threshold {
			add(txn)
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Amount > out[j].Amount })
	return out
}

// percentileAmount returns the amount at the given percentile among debits,
// or 0 when there are too few rows for a percentile to mean anything.
func percentileAmount(txns []models.Transaction, pct float64) float64 {
	amounts := []float64{}
	for _, txn := range txns {
		if txn.Type == models.TypeDebit && txn.Amount > 0 {
			amounts = append(amounts, txn.Amount)
		}
	}
	if len(amounts) < 5 {
		return 0
	}

	sort.Float64s(amounts)
	idx := int(pct * float64(len(amounts)))
	if idx >= len(amounts) {
		idx = len(amounts) - 1
	}
	return amounts[idx]
}

func dailySeries(txns []models.Transaction, days int) ChartSeries {
	totals := make(map[string]decimal.Decimal)
	for _, txn := range txns {
		if txn.Type == models.TypeDebit {
			totals[txn.Date] = totals[txn.Date].Add(decimal.NewFromFloat(txn.Amount))
		}
	}

	series := ChartSeries{Labels: []string{}, Values: []float64{}}
	for i := days - 1; i >= 0; i-- {
		day := time.Now().AddDate(0, 0, -i).Format("2006-01-02")
		series.Labels = append(series.Labels, day)
		series.Values = append(series.Values, round2(totals[day]))
	}
	return series
}

func seriesFromTotals(totals map[string]decimal.Decimal) ChartSeries {
	labels := make([]string, 0, len(totals))
	for label := range totals {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	series := ChartSeries{Labels: labels, Values: make([]float64, 0, len(labels))}
	for _, label := range labels {
		series.Values = append(series.Values, round2(totals[label]))
	}
	return series
}

func topCategories(totals map[string]decimal.Decimal, limit int) []CategoryTotal {
	out := make([]CategoryTotal, 0, len(totals))
	for category, total := range totals {
		out = append(out, CategoryTotal{Category: category, Total: round2(total)})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Total != out[j].Total {
			return out[i].Total > out[j].Total
		}
		return out[i].Category < out[j].Category
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

func maxKey(counts map[string]int) string {
	best := ""
	bestCount := 0
	for key, count := range counts {
		if count > bestCount || (count == bestCount && key < best) || best == "" {
			best = key
			bestCount = count
		}
	}
	return best
}

func weekdayOf(txn models.Transaction) string {
	if txn.Weekday != "" {
		return txn.Weekday
	}
	if parsed, err := time.Parse("2006-01-02", txn.Date); err == nil {
		return parsed.Weekday().String()
	}
	return ""
}

func describeReport(report *Report) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Transactions: %d\n", report.TransactionCount)
	fmt.Fprintf(&b, "Total spent: ₹%.2f, total received: ₹%.2f, net: ₹%.2f\n",
		report.TotalDebit, report.TotalCredit, report.NetFlow)
	for _, cat := range report.TopCategories {
		fmt.Fprintf(&b, "Category %s: ₹%.2f\n", cat.Category, cat.Total)
	}
	if report.Patterns.MostFrequentMerchant != "" {
		fmt.Fprintf(&b, "Most frequent merchant: %s\n", report.Patterns.MostFrequentMerchant)
	}
	if report.Patterns.PeakWeekday != "" {
		fmt.Fprintf(&b, "Busiest weekday: %s\n", report.Patterns.PeakWeekday)
	}
	fmt.Fprintf(&b, "Recurring transactions: %d\n", report.Patterns.RecurringCount)
	fmt.Fprintf(&b, "Flagged as suspicious: %d\n", len(report.Suspicious))
	return b.String()
}

// extractJSONObject pulls the outermost {...} from a response that may be
// wrapped in fences or prose.
func extractJSONObject(s string) string {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start >= 0 && end > start {
		return s[start : end+1]
	}
	return s
}

func round2(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}
