package domain

import "time"

type Lender struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Email         string    `json:"email"`
	MaxLoanAmount float64   `json:"max_loan_amount"`
	MaxLTV        float64   `json:"max_ltv"`
	CreatedAt     time.Time `json:"created_at"`
}

// Accepts reports whether the deal fits the lender's lending box.
func (l Lender) Accepts(ltv, requestedAmount float64) bool {
	return ltv <= l.MaxLTV && requestedAmount <= l.MaxLoanAmount
}

type LenderInput struct {
	Name          string  `json:"name" validate:"required,max=200"`
	Email         string  `json:"email" validate:"required,email"`
	MaxLoanAmount float64 `json:"max_loan_amount" validate:"gt=0"`
	MaxLTV        float64 `json:"max_ltv" validate:"gt=0,lte=100"`
}

type MatchStatus string

const (
	MatchInterested MatchStatus = "interested"
	MatchApproved   MatchStatus = "approved"
	MatchDeclined   MatchStatus = "declined"
)

type Match struct {
	ID        string      `json:"id"`
	DealID    string      `json:"deal_id"`
	LenderID  string      `json:"lender_id"`
	Status    MatchStatus `json:"status"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

type MatchDecision struct {
	Status MatchStatus `json:"status" validate:"required,oneof=approved declined"`
}

type Note struct {
	ID        string    `json:"id"`
	DealID    string    `json:"deal_id"`
	AuthorID  string    `json:"author_id"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

type NoteInput struct {
	Body string `json:"body" validate:"required,max=4000"`
}
