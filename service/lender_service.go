package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"flip-lending/auth"
	"flip-lending/domain"
	"flip-lending/repository"
)

type LenderService struct {
	repo   repository.Gateway
	logger *slog.Logger
	now    func() time.Time
	newID  func() string
}

func NewLenderService(repo repository.Gateway, logger *slog.Logger) *LenderService {
	if logger == nil {
		logger = slog.Default()
	}
	return &LenderService{
		repo:   repo,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
		newID:  func() string { return uuid.NewString() },
	}
}

// RegisterLender creates or replaces the caller's lending criteria. The
// lender id is the caller's user id.
func (s *LenderService) RegisterLender(
	ctx context.Context,
	actor auth.AuthContext,
	input domain.LenderInput,
) (domain.Lender, error) {
	if err := requireLender(actor); err != nil {
		return domain.Lender{}, err
	}

	input.Name = strings.TrimSpace(input.Name)
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))
	if err := validateInput(input); err != nil {
		return domain.Lender{}, err
	}
	if err := checkAmounts(input.MaxLoanAmount); err != nil {
		return domain.Lender{}, err
	}

	lender := domain.Lender{
		ID:            actor.UserID,
		Name:          input.Name,
		Email:         input.Email,
		MaxLoanAmount: input.MaxLoanAmount,
		MaxLTV:        input.MaxLTV,
		CreatedAt:     s.now(),
	}
	if err := s.repo.SaveLender(ctx, lender); err != nil {
		return domain.Lender{}, fmt.Errorf("register lender: %w", err)
	}

	s.logger.Info("lender registered",
		"lender_id", lender.ID,
		"max_loan_amount", lender.MaxLoanAmount,
		"max_ltv", lender.MaxLTV,
	)

	return lender, nil
}

// EligibleLenders returns the lenders whose lending box the deal fits.
func (s *LenderService) EligibleLenders(
	ctx context.Context,
	actor auth.AuthContext,
	dealID string,
) ([]domain.Lender, error) {
	deal, err := s.visibleDeal(ctx, actor, dealID)
	if err != nil {
		return nil, err
	}

	lenders, err := s.repo.ListLenders(ctx)
	if err != nil {
		return nil, fmt.Errorf("list lenders: %w", err)
	}

	ltv := ComputeLTV(deal.PurchasePrice, deal.AfterRepairValue)
	requested := deal.RequestedAmount()

	eligible := make([]domain.Lender, 0, len(lenders))
	for _, l := range lenders {
		if l.Accepts(ltv, requested) {
			eligible = append(eligible, l)
		}
	}
	return eligible, nil
}

// ExpressInterest opens a match between the calling lender and an active deal.
func (s *LenderService) ExpressInterest(
	ctx context.Context,
	actor auth.AuthContext,
	dealID string,
) (domain.Match, error) {
	if err := requireLender(actor); err != nil {
		return domain.Match{}, err
	}

	if _, err := s.repo.FindLender(ctx, actor.UserID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Match{}, fmt.Errorf("lender profile required: %w", domain.ErrForbidden)
		}
		return domain.Match{}, fmt.Errorf("express interest: %w", err)
	}

	deal, err := s.repo.FindDeal(ctx, dealID)
	if err != nil {
		return domain.Match{}, fmt.Errorf("express interest: %w", err)
	}
	if deal.Status != domain.DealActive {
		return domain.Match{}, fmt.Errorf("deal %s is %s: %w", deal.ID, deal.Status, domain.ErrConflict)
	}

	now := s.now()
	match := domain.Match{
		ID:        s.newID(),
		DealID:    deal.ID,
		LenderID:  actor.UserID,
		Status:    domain.MatchInterested,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.CreateMatch(ctx, match); err != nil {
		return domain.Match{}, fmt.Errorf("express interest: %w", err)
	}

	s.logger.Info("lender interested", "deal_id", deal.ID, "lender_id", actor.UserID, "match_id", match.ID)
	return match, nil
}

// DecideMatch lets the owning borrower approve or decline an interested match.
func (s *LenderService) DecideMatch(
	ctx context.Context,
	actor auth.AuthContext,
	matchID string,
	decision domain.MatchDecision,
) (domain.Match, error) {
	if err := requireBorrower(actor); err != nil {
		return domain.Match{}, err
	}
	if err := validateInput(decision); err != nil {
		return domain.Match{}, err
	}

	match, err := s.repo.FindMatch(ctx, matchID)
	if err != nil {
		return domain.Match{}, fmt.Errorf("decide match: %w", err)
	}
	deal, err := s.repo.FindDeal(ctx, match.DealID)
	if err != nil {
		return domain.Match{}, fmt.Errorf("decide match: %w", err)
	}
	if deal.BorrowerID != actor.UserID {
		return domain.Match{}, fmt.Errorf("match %s: %w", match.ID, domain.ErrNotFound)
	}
	if match.Status != domain.MatchInterested {
		return domain.Match{}, fmt.Errorf("match %s already %s: %w", match.ID, match.Status, domain.ErrInvalidTransition)
	}

	now := s.now()
	if err := s.repo.UpdateMatchStatus(ctx, match.ID, domain.MatchInterested, decision.Status, now); err != nil {
		return domain.Match{}, fmt.Errorf("decide match: %w", err)
	}

	s.logger.Info("match decided", "match_id", match.ID, "deal_id", deal.ID, "status", decision.Status)

	match.Status = decision.Status
	match.UpdatedAt = now
	return match, nil
}

// ListDealMatches returns every match to the owning borrower and only the
// caller's own match to a lender.
func (s *LenderService) ListDealMatches(
	ctx context.Context,
	actor auth.AuthContext,
	dealID string,
) ([]domain.Match, error) {
	deal, err := s.visibleDeal(ctx, actor, dealID)
	if err != nil {
		return nil, err
	}

	matches, err := s.repo.ListMatchesByDeal(ctx, deal.ID)
	if err != nil {
		return nil, fmt.Errorf("list matches: %w", err)
	}
	if !actor.IsLender() {
		return matches, nil
	}

	own := make([]domain.Match, 0, 1)
	for _, m := range matches {
		if m.LenderID == actor.UserID {
			own = append(own, m)
		}
	}
	return own, nil
}

func (s *LenderService) AddNote(
	ctx context.Context,
	actor auth.AuthContext,
	dealID string,
	input domain.NoteInput,
) (domain.Note, error) {
	if err := requireLender(actor); err != nil {
		return domain.Note{}, err
	}

	input.Body = strings.TrimSpace(input.Body)
	if err := validateInput(input); err != nil {
		return domain.Note{}, err
	}

	deal, err := s.repo.FindDeal(ctx, dealID)
	if err != nil {
		return domain.Note{}, fmt.Errorf("add note: %w", err)
	}

	note := domain.Note{
		ID:        s.newID(),
		DealID:    deal.ID,
		AuthorID:  actor.UserID,
		Body:      input.Body,
		CreatedAt: s.now(),
	}
	if err := s.repo.AddNote(ctx, note); err != nil {
		return domain.Note{}, fmt.Errorf("add note: %w", err)
	}
	return note, nil
}

func (s *LenderService) ListNotes(ctx context.Context, actor auth.AuthContext, dealID string) ([]domain.Note, error) {
	if err := requireLender(actor); err != nil {
		return nil, err
	}
	if _, err := s.repo.FindDeal(ctx, dealID); err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}

	notes, err := s.repo.ListNotes(ctx, dealID)
	if err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}
	return notes, nil
}

func (s *LenderService) visibleDeal(ctx context.Context, actor auth.AuthContext, dealID string) (domain.Deal, error) {
	if !actor.Authenticated() {
		return domain.Deal{}, domain.ErrUnauthenticated
	}
	deal, err := s.repo.FindDeal(ctx, dealID)
	if err != nil {
		return domain.Deal{}, fmt.Errorf("find deal: %w", err)
	}
	if err := canViewDeal(actor, deal); err != nil {
		return domain.Deal{}, err
	}
	return deal, nil
}
