package domain

// CalculatorInput is the public form-preview request. Borrower fields are
// optional; when both are present the full risk report is produced.
type CalculatorInput struct {
	PurchasePrice    float64 `json:"purchase_price" validate:"gte=0"`
	RehabBudget      float64 `json:"rehab_budget" validate:"gte=0"`
	AfterRepairValue float64 `json:"arv" validate:"gte=0"`
	CreditScore      *int    `json:"credit_score,omitempty" validate:"omitempty,gte=300,lte=850"`
	CompletedDeals   *int    `json:"completed_deals,omitempty" validate:"omitempty,gte=0"`
}

type CalculatorResult struct {
	Financials DealFinancials `json:"financials"`
	RiskTier   RiskTier       `json:"risk_tier"`
	Report     *RiskReport    `json:"report,omitempty"`
	Text       string         `json:"text,omitempty"`
}
