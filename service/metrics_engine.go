package service

import (
	"math"

	"flip-lending/domain"
)

// Risk, credit and experience thresholds. Tier escalation uses strict
// comparisons for LTV, so 65 and 75 belong to the lower tier.
const (
	HighRiskLTV   = 75.0
	MediumRiskLTV = 65.0

	ExcellentCreditScore = 720
	GoodCreditScore      = 680

	HighExperienceDeals     = 10
	ModerateExperienceDeals = 5

	ThinMarginPercent     = 15.0
	ApprovalMaxLTV        = 70.0
	ApprovalMinMarginPct  = 20.0
	ApprovalMinCredit     = ExcellentCreditScore
	ApprovalMinExperience = HighExperienceDeals
)

// roundTo2Decimals redondea un float64 a 2 decimales
func roundTo2Decimals(value float64) float64 {
	return math.Round(value*100) / 100
}

func roundTo1Decimal(value float64) float64 {
	return math.Round(value*10) / 10
}

// ComputeLTV returns the purchase price as a whole percentage of the ARV.
// A zero ARV yields 0.
func ComputeLTV(purchasePrice, arv float64) float64 {
	if arv == 0 {
		return 0
	}
	return math.Round(purchasePrice / arv * 100)
}

// ComputeLTC returns the project cost as a whole percentage of the ARV.
// A zero ARV yields 0.
func ComputeLTC(purchasePrice, rehabBudget, arv float64) float64 {
	if arv == 0 {
		return 0
	}
	return math.Round((purchasePrice + rehabBudget) / arv * 100)
}

func ComputeTotalCost(purchasePrice, rehabBudget float64) float64 {
	return purchasePrice + rehabBudget
}

// ComputeProfit may return a negative value for a loss-making deal.
func ComputeProfit(arv, totalCost float64) float64 {
	return arv - totalCost
}

// ComputeROI returns profit as a percentage of total cost, or 0 when there
// is no cost to divide by.
func ComputeROI(profit, totalCost float64) float64 {
	if totalCost == 0 {
		return 0
	}
	return profit / totalCost * 100
}

// ComputeFinancials derives every financial field from the three raw inputs.
func ComputeFinancials(purchasePrice, rehabBudget, arv float64) domain.DealFinancials {
	totalCost := ComputeTotalCost(purchasePrice, rehabBudget)
	profit := ComputeProfit(arv, totalCost)

	return domain.DealFinancials{
		PurchasePrice:      purchasePrice,
		RehabBudget:        rehabBudget,
		AfterRepairValue:   arv,
		LoanToValue:        ComputeLTV(purchasePrice, arv),
		LoanToCost:         ComputeLTC(purchasePrice, rehabBudget, arv),
		TotalCost:          totalCost,
		ProjectedProfit:    profit,
		ReturnOnInvestment: ComputeROI(profit, totalCost),
	}
}

func ClassifyRisk(ltv float64) domain.RiskTier {
	switch {
	case ltv > HighRiskLTV:
		return domain.RiskHigh
	case ltv > MediumRiskLTV:
		return domain.RiskMedium
	default:
		return domain.RiskLow
	}
}

func ClassifyCredit(score int) domain.CreditTier {
	switch {
	case score >= ExcellentCreditScore:
		return domain.CreditExcellent
	case score >= GoodCreditScore:
		return domain.CreditGood
	default:
		return domain.CreditFair
	}
}

func ClassifyExperience(completedDeals int) domain.ExperienceTier {
	switch {
	case completedDeals >= HighExperienceDeals:
		return domain.ExperienceHigh
	case completedDeals >= ModerateExperienceDeals:
		return domain.ExperienceModerate
	default:
		return domain.ExperienceLimited
	}
}

// ComputeProfitMargin is the projected profit over the purchase price, in
// percent. A zero purchase price yields 0.
func ComputeProfitMargin(purchasePrice, rehabBudget, arv float64) float64 {
	if purchasePrice == 0 {
		return 0
	}
	return (arv - purchasePrice - rehabBudget) / purchasePrice * 100
}

// BuildRiskReport classifies a deal and assembles its recommendation flags.
// Only the raw inputs of f are read; LTV is always recomputed.
func BuildRiskReport(f domain.DealFinancials, b domain.BorrowerProfile) domain.RiskReport {
	ltv := ComputeLTV(f.PurchasePrice, f.AfterRepairValue)
	margin := ComputeProfitMargin(f.PurchasePrice, f.RehabBudget, f.AfterRepairValue)

	report := domain.RiskReport{
		RiskTier:         ClassifyRisk(ltv),
		LoanToValue:      ltv,
		ProfitMargin:     roundTo2Decimals(margin),
		AfterRepairValue: f.AfterRepairValue,
		TotalCost:        ComputeTotalCost(f.PurchasePrice, f.RehabBudget),
		CreditScore:      b.CreditScore,
		CreditTier:       ClassifyCredit(b.CreditScore),
		CompletedDeals:   b.CompletedDeals,
		ExperienceTier:   ClassifyExperience(b.CompletedDeals),
		Flags:            []domain.RecommendationFlag{},

		ProfitMarginDisplay: roundTo1Decimal(margin),
	}

	if ltv > HighRiskLTV {
		report.Flags = append(report.Flags, domain.RecommendationFlag{
			Code:    domain.FlagHighLTV,
			Message: "Request additional equity or reduce loan amount",
		})
	}
	if margin < ThinMarginPercent {
		report.Flags = append(report.Flags, domain.RecommendationFlag{
			Code:    domain.FlagThinMargin,
			Message: "Thin profit margin - verify rehab budget accuracy",
		})
	}
	if b.CreditScore < GoodCreditScore {
		report.Flags = append(report.Flags, domain.RecommendationFlag{
			Code:    domain.FlagLowCredit,
			Message: "Below average credit - consider higher rate or points",
		})
	}
	if b.CompletedDeals < ModerateExperienceDeals {
		report.Flags = append(report.Flags, domain.RecommendationFlag{
			Code:    domain.FlagLimitedExperience,
			Message: "Limited experience - recommend stricter oversight",
		})
	}

	warnings := len(report.Flags)
	if warnings == 0 &&
		ltv <= ApprovalMaxLTV &&
		margin >= ApprovalMinMarginPct &&
		b.CreditScore >= ApprovalMinCredit &&
		b.CompletedDeals >= ApprovalMinExperience {
		report.Recommended = true
		report.Flags = append(report.Flags, domain.RecommendationFlag{
			Code:     domain.FlagRecommended,
			Message:  "Strong deal - recommended for approval",
			Positive: true,
		})
	} else {
		report.Flags = append(report.Flags, domain.RecommendationFlag{
			Code:    domain.FlagReview,
			Message: "Review recommendations before proceeding",
		})
	}

	return report
}
