package service

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"flip-lending/domain"
)

var creditLabels = map[domain.CreditTier]string{
	domain.CreditExcellent: "Excellent",
	domain.CreditGood:      "Good",
	domain.CreditFair:      "Fair",
}

var experienceLabels = map[domain.ExperienceTier]string{
	domain.ExperienceHigh:     "Highly experienced",
	domain.ExperienceModerate: "Moderate experience",
	domain.ExperienceLimited:  "Limited experience",
}

// RenderRiskReport formats a report as the plain-text analysis shown to
// lenders. The output is a pure function of the report.
func RenderRiskReport(r domain.RiskReport) string {
	var b strings.Builder

	b.WriteString("🤖 AI DEAL ANALYSIS\n\n")

	fmt.Fprintf(&b, "📊 RISK ASSESSMENT: %s\n", r.RiskTier)
	fmt.Fprintf(&b, "LTV at %s%% %s\n\n", decimal.NewFromFloat(r.LoanToValue).String(), ltvCommentary(r.RiskTier))

	b.WriteString("💰 PROFIT POTENTIAL\n")
	fmt.Fprintf(&b, "Estimated profit margin: %s%%\n", decimal.NewFromFloat(r.ProfitMarginDisplay).StringFixed(1))
	fmt.Fprintf(&b, "ARV: %s\n", formatUSD(r.AfterRepairValue))
	fmt.Fprintf(&b, "Total in: %s\n\n", formatUSD(r.TotalCost))

	b.WriteString("👤 BORROWER PROFILE\n")
	fmt.Fprintf(&b, "Credit Score: %d - %s\n", r.CreditScore, creditLabels[r.CreditTier])
	fmt.Fprintf(&b, "Experience: %d flips - %s\n\n", r.CompletedDeals, experienceLabels[r.ExperienceTier])

	b.WriteString("📋 RECOMMENDATIONS\n")
	lines := make([]string, 0, len(r.Flags))
	for _, f := range r.Flags {
		prefix := "⚠️"
		if f.Positive {
			prefix = "✅"
		}
		lines = append(lines, prefix+" "+f.Message)
	}
	b.WriteString(strings.Join(lines, "\n"))

	return b.String()
}

func ltvCommentary(tier domain.RiskTier) string {
	switch tier {
	case domain.RiskHigh:
		return "exceeds recommended 75% threshold"
	case domain.RiskMedium:
		return "is within acceptable range but monitor closely"
	default:
		return "is excellent - well below 75%"
	}
}

var usd = message.NewPrinter(language.AmericanEnglish)

// formatUSD renders whole dollars with thousands separators, e.g. $1,250,000.
func formatUSD(amount float64) string {
	dollars := decimal.NewFromFloat(amount).Round(0).IntPart()
	if dollars < 0 {
		return usd.Sprintf("-$%d", -dollars)
	}
	return usd.Sprintf("$%d", dollars)
}
