package domain

// DealFinancials holds the raw deal inputs together with every value derived
// from them. Derived fields are only ever produced by the metrics engine.
type DealFinancials struct {
	PurchasePrice    float64 `json:"purchase_price"`
	RehabBudget      float64 `json:"rehab_budget"`
	AfterRepairValue float64 `json:"arv"`

	LoanToValue        float64 `json:"ltv"`
	LoanToCost         float64 `json:"ltc"`
	TotalCost          float64 `json:"total_cost"`
	ProjectedProfit    float64 `json:"projected_profit"`
	ReturnOnInvestment float64 `json:"roi"`
}

// BorrowerProfile carries the borrower attributes used by risk classification.
type BorrowerProfile struct {
	BorrowerID     string `json:"borrower_id,omitempty"`
	CreditScore    int    `json:"credit_score" validate:"gte=300,lte=850"`
	CompletedDeals int    `json:"completed_deals" validate:"gte=0"`
}

type RiskTier string

const (
	RiskLow    RiskTier = "LOW"
	RiskMedium RiskTier = "MEDIUM"
	RiskHigh   RiskTier = "HIGH"
)

type CreditTier string

const (
	CreditExcellent CreditTier = "EXCELLENT"
	CreditGood      CreditTier = "GOOD"
	CreditFair      CreditTier = "FAIR"
)

type ExperienceTier string

const (
	ExperienceHigh     ExperienceTier = "HIGH"
	ExperienceModerate ExperienceTier = "MODERATE"
	ExperienceLimited  ExperienceTier = "LIMITED"
)
