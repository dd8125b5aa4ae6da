package domain

// FinancingTerms is the cost of carrying the requested loan over the hold
// period. Fix-and-flip loans are interest-only; principal is repaid at exit.
type FinancingTerms struct {
	LoanAmount         float64 `json:"loan_amount"`
	MonthlyPayment     float64 `json:"monthly_payment"`
	TotalInterest      float64 `json:"total_interest"`
	PointsCost         float64 `json:"points_cost"`
	TotalFinancingCost float64 `json:"total_financing_cost"`
	NetProfit          float64 `json:"net_profit"`
}
