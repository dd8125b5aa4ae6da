package domain

type FlagCode string

const (
	FlagHighLTV           FlagCode = "ltv_too_high"
	FlagThinMargin        FlagCode = "thin_margin"
	FlagLowCredit         FlagCode = "low_credit"
	FlagLimitedExperience FlagCode = "limited_experience"
	FlagRecommended       FlagCode = "recommended_for_approval"
	FlagReview            FlagCode = "review_before_proceeding"
)

type RecommendationFlag struct {
	Code     FlagCode `json:"code"`
	Message  string   `json:"message"`
	Positive bool     `json:"positive"`
}

// RiskReport is the structured result of a deal analysis. The last flag is
// always either FlagRecommended or FlagReview.
//
// ProfitMargin and ProfitMarginDisplay are both rounded from the unrounded
// margin, to two and one decimals respectively.
type RiskReport struct {
	RiskTier            RiskTier             `json:"risk_tier"`
	LoanToValue         float64              `json:"ltv"`
	ProfitMargin        float64              `json:"profit_margin"`
	ProfitMarginDisplay float64              `json:"profit_margin_display"`
	AfterRepairValue    float64              `json:"arv"`
	TotalCost           float64              `json:"total_cost"`
	CreditScore         int                  `json:"credit_score"`
	CreditTier          CreditTier           `json:"credit_tier"`
	CompletedDeals      int                  `json:"completed_deals"`
	ExperienceTier      ExperienceTier       `json:"experience_tier"`
	Flags               []RecommendationFlag `json:"flags"`
	Recommended         bool                 `json:"recommended"`
}

type DealAnalysis struct {
	DealID string     `json:"deal_id"`
	Report RiskReport `json:"report"`
	Text   string     `json:"text"`
}
