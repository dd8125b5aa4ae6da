package domain

import "time"

type DealStatus string

const (
	DealActive DealStatus = "active"
	DealFunded DealStatus = "funded"
	DealClosed DealStatus = "closed"
)

// CanTransitionTo reports whether a deal may move from s to next.
func (s DealStatus) CanTransitionTo(next DealStatus) bool {
	switch s {
	case DealActive:
		return next == DealFunded || next == DealClosed
	case DealFunded:
		return next == DealClosed
	}
	return false
}

func (s DealStatus) Valid() bool {
	return s == DealActive || s == DealFunded || s == DealClosed
}

// Deal mirrors the persisted deal record. LTV and LTC are stored alongside
// the raw inputs but are recomputed whenever a deal is read.
type Deal struct {
	ID          string     `json:"id"`
	BorrowerID  string     `json:"borrower_id"`
	Address     string     `json:"address"`
	City        string     `json:"city"`
	State       string     `json:"state"`
	Zip         string     `json:"zip"`
	Description string     `json:"description,omitempty"`
	Status      DealStatus `json:"status"`

	PurchasePrice    float64 `json:"purchase_price"`
	RehabBudget      float64 `json:"rehab_budget"`
	AfterRepairValue float64 `json:"arv"`
	LoanToValue      float64 `json:"ltv"`
	LoanToCost       float64 `json:"ltc"`

	Structure DealStructure `json:"structure"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// StatusChange is one entry of a deal's status timeline.
type StatusChange struct {
	DealID  string     `json:"deal_id"`
	From    DealStatus `json:"from"`
	To      DealStatus `json:"to"`
	ActorID string     `json:"actor_id"`
	At      time.Time  `json:"at"`
}

// DealStructure is the optional loan request attached to a deal.
type DealStructure struct {
	LoanAmount       float64 `json:"loan_amount,omitempty" validate:"gte=0"`
	InterestRate     float64 `json:"interest_rate,omitempty" validate:"gte=0,lte=100"`
	Points           float64 `json:"points,omitempty" validate:"gte=0,lte=20"`
	HoldPeriodMonths int     `json:"hold_period_months,omitempty" validate:"gte=0,lte=120"`
	ExitStrategy     string  `json:"exit_strategy,omitempty" validate:"omitempty,oneof=sell refinance rent"`
}

// RequestedAmount is the amount a lender would have to fund: the explicit
// loan amount when present, otherwise the full project cost.
func (d Deal) RequestedAmount() float64 {
	if d.Structure.LoanAmount > 0 {
		return d.Structure.LoanAmount
	}
	return d.PurchasePrice + d.RehabBudget
}

// DealInput is the borrower submission form.
type DealInput struct {
	Address          string        `json:"address" validate:"required,max=200"`
	City             string        `json:"city" validate:"required,max=100"`
	State            string        `json:"state" validate:"required,len=2,alpha"`
	Zip              string        `json:"zip" validate:"required,numeric,len=5"`
	Description      string        `json:"description" validate:"max=4000"`
	PurchasePrice    float64       `json:"purchase_price" validate:"gt=0"`
	RehabBudget      float64       `json:"rehab_budget" validate:"gte=0"`
	AfterRepairValue float64       `json:"arv" validate:"gt=0"`
	Structure        DealStructure `json:"structure"`
}

// DealView is a deal as presented to callers, with freshly derived financials.
type DealView struct {
	Deal
	Financials DealFinancials  `json:"financials"`
	RiskTier   RiskTier        `json:"risk_tier"`
	Financing  *FinancingTerms `json:"financing,omitempty"`
	Timeline   []StatusChange  `json:"timeline,omitempty"`
}
