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

type DealService struct {
	repo   repository.Gateway
	logger *slog.Logger
	now    func() time.Time
	newID  func() string
}

// NewDealService creates a new DealService on the given gateway.
func NewDealService(repo repository.Gateway, logger *slog.Logger) *DealService {
	if logger == nil {
		logger = slog.Default()
	}
	return &DealService{
		repo:   repo,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
		newID:  func() string { return uuid.NewString() },
	}
}

func checkAmounts(values ...float64) error {
	for _, v := range values {
		if v > MaxDealAmount {
			return fmt.Errorf("%w: amount exceeds the maximum of $%.2f", domain.ErrInvalidInput, MaxDealAmount)
		}
	}
	return nil
}

// presentDeal recomputes every derived field from the raw inputs. Stored
// LTV/LTC values are never trusted.
func presentDeal(d domain.Deal) domain.DealView {
	f := ComputeFinancials(d.PurchasePrice, d.RehabBudget, d.AfterRepairValue)
	d.LoanToValue = f.LoanToValue
	d.LoanToCost = f.LoanToCost
	view := domain.DealView{
		Deal:       d,
		Financials: f,
		RiskTier:   ClassifyRisk(f.LoanToValue),
	}
	if terms, ok := ComputeFinancing(d.Structure, f.ProjectedProfit); ok {
		view.Financing = &terms
	}
	return view
}

func presentDeals(deals []domain.Deal) []domain.DealView {
	views := make([]domain.DealView, 0, len(deals))
	for _, d := range deals {
		views = append(views, presentDeal(d))
	}
	return views
}

// SubmitDeal validates a borrower submission, derives its metrics and
// persists it as an active deal owned by the caller.
func (s *DealService) SubmitDeal(
	ctx context.Context,
	actor auth.AuthContext,
	input domain.DealInput,
) (domain.DealView, error) {
	if err := requireBorrower(actor); err != nil {
		return domain.DealView{}, err
	}

	input.Address = strings.TrimSpace(input.Address)
	input.City = strings.TrimSpace(input.City)
	input.State = strings.ToUpper(strings.TrimSpace(input.State))
	input.Zip = strings.TrimSpace(input.Zip)
	input.Structure.ExitStrategy = strings.ToLower(strings.TrimSpace(input.Structure.ExitStrategy))

	if err := validateInput(input); err != nil {
		return domain.DealView{}, err
	}
	if err := checkAmounts(input.PurchasePrice, input.RehabBudget, input.AfterRepairValue, input.Structure.LoanAmount); err != nil {
		return domain.DealView{}, err
	}

	f := ComputeFinancials(input.PurchasePrice, input.RehabBudget, input.AfterRepairValue)
	now := s.now()

	deal := domain.Deal{
		ID:               s.newID(),
		BorrowerID:       actor.UserID,
		Address:          input.Address,
		City:             input.City,
		State:            input.State,
		Zip:              input.Zip,
		Description:      input.Description,
		Status:           domain.DealActive,
		PurchasePrice:    f.PurchasePrice,
		RehabBudget:      f.RehabBudget,
		AfterRepairValue: f.AfterRepairValue,
		LoanToValue:      f.LoanToValue,
		LoanToCost:       f.LoanToCost,
		Structure:        input.Structure,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	if err := s.repo.CreateDeal(ctx, deal); err != nil {
		return domain.DealView{}, fmt.Errorf("submit deal: %w", err)
	}

	s.logger.Info("deal submitted",
		"deal_id", deal.ID,
		"borrower_id", deal.BorrowerID,
		"ltv", deal.LoanToValue,
		"ltc", deal.LoanToCost,
	)

	return presentDeal(deal), nil
}

func (s *DealService) GetDeal(ctx context.Context, actor auth.AuthContext, id string) (domain.DealView, error) {
	deal, err := s.repo.FindDeal(ctx, id)
	if err != nil {
		return domain.DealView{}, fmt.Errorf("get deal: %w", err)
	}
	if err := canViewDeal(actor, deal); err != nil {
		return domain.DealView{}, err
	}

	view := presentDeal(deal)
	if view.Timeline, err = s.repo.ListStatusChanges(ctx, deal.ID); err != nil {
		return domain.DealView{}, fmt.Errorf("get deal timeline: %w", err)
	}
	return view, nil
}

// ListActiveDeals is the lender dashboard: active deals, newest first,
// optionally filtered by a case-insensitive match on address, city or state.
func (s *DealService) ListActiveDeals(
	ctx context.Context,
	actor auth.AuthContext,
	search string,
) ([]domain.DealView, error) {
	if err := requireLender(actor); err != nil {
		return nil, err
	}

	search = strings.ToLower(strings.TrimSpace(search))
	if len(search) > MaxSearchLength {
		return nil, fmt.Errorf("%w: search exceeds %d characters", domain.ErrInvalidInput, MaxSearchLength)
	}

	deals, err := s.repo.ListDealsByStatus(ctx, domain.DealActive)
	if err != nil {
		return nil, fmt.Errorf("list active deals: %w", err)
	}

	if search == "" {
		return presentDeals(deals), nil
	}

	filtered := make([]domain.Deal, 0, len(deals))
	for _, d := range deals {
		if strings.Contains(strings.ToLower(d.Address), search) ||
			strings.Contains(strings.ToLower(d.City), search) ||
			strings.Contains(strings.ToLower(d.State), search) {
			filtered = append(filtered, d)
		}
	}
	return presentDeals(filtered), nil
}

func (s *DealService) ListBorrowerDeals(ctx context.Context, actor auth.AuthContext) ([]domain.DealView, error) {
	if err := requireBorrower(actor); err != nil {
		return nil, err
	}

	deals, err := s.repo.ListDealsByBorrower(ctx, actor.UserID)
	if err != nil {
		return nil, fmt.Errorf("list borrower deals: %w", err)
	}
	return presentDeals(deals), nil
}

// UpdateDealStatus moves a deal along active -> funded -> closed. The owner
// may apply any valid transition; a lender may only fund a deal on which it
// holds an approved match. Applied changes are appended to the deal timeline.
func (s *DealService) UpdateDealStatus(
	ctx context.Context,
	actor auth.AuthContext,
	id string,
	status domain.DealStatus,
) (domain.DealView, error) {
	if !actor.Authenticated() {
		return domain.DealView{}, domain.ErrUnauthenticated
	}
	if !status.Valid() {
		return domain.DealView{}, fmt.Errorf("%w: unknown status %q", domain.ErrInvalidInput, status)
	}

	deal, err := s.repo.FindDeal(ctx, id)
	if err != nil {
		return domain.DealView{}, fmt.Errorf("update deal status: %w", err)
	}
	if err := canViewDeal(actor, deal); err != nil {
		return domain.DealView{}, err
	}

	if actor.IsLender() {
		if status != domain.DealFunded {
			return domain.DealView{}, fmt.Errorf("lenders may only fund deals: %w", domain.ErrForbidden)
		}
		approved, err := s.hasApprovedMatch(ctx, deal.ID, actor.UserID)
		if err != nil {
			return domain.DealView{}, err
		}
		if !approved {
			return domain.DealView{}, fmt.Errorf("no approved match on deal %s: %w", deal.ID, domain.ErrForbidden)
		}
	}

	if !deal.Status.CanTransitionTo(status) {
		return domain.DealView{}, fmt.Errorf("%s -> %s: %w", deal.Status, status, domain.ErrInvalidTransition)
	}

	change := domain.StatusChange{
		DealID:  deal.ID,
		From:    deal.Status,
		To:      status,
		ActorID: actor.UserID,
		At:      s.now(),
	}
	if err := s.repo.UpdateDealStatus(ctx, change); err != nil {
		return domain.DealView{}, fmt.Errorf("update deal status: %w", err)
	}

	s.logger.Info("deal status changed",
		"deal_id", deal.ID,
		"from", deal.Status,
		"to", status,
		"actor", actor.UserID,
	)

	deal.Status = status
	deal.UpdatedAt = change.At
	return presentDeal(deal), nil
}

func (s *DealService) hasApprovedMatch(ctx context.Context, dealID, lenderID string) (bool, error) {
	matches, err := s.repo.ListMatchesByDeal(ctx, dealID)
	if err != nil {
		return false, fmt.Errorf("list matches: %w", err)
	}
	for _, m := range matches {
		if m.LenderID == lenderID && m.Status == domain.MatchApproved {
			return true, nil
		}
	}
	return false, nil
}

func (s *DealService) SaveBorrowerProfile(
	ctx context.Context,
	actor auth.AuthContext,
	profile domain.BorrowerProfile,
) (domain.BorrowerProfile, error) {
	if err := requireBorrower(actor); err != nil {
		return domain.BorrowerProfile{}, err
	}
	if err := validateInput(profile); err != nil {
		return domain.BorrowerProfile{}, err
	}

	profile.BorrowerID = actor.UserID
	if err := s.repo.SaveProfile(ctx, profile); err != nil {
		return domain.BorrowerProfile{}, fmt.Errorf("save borrower profile: %w", err)
	}
	return profile, nil
}

// BorrowerProfile returns the caller's profile, or a zero profile when none
// has been stored yet.
func (s *DealService) BorrowerProfile(ctx context.Context, actor auth.AuthContext) (domain.BorrowerProfile, error) {
	if err := requireBorrower(actor); err != nil {
		return domain.BorrowerProfile{}, err
	}
	return loadProfile(ctx, s.repo, actor.UserID)
}

func loadProfile(ctx context.Context, repo repository.ProfileRepository, borrowerID string) (domain.BorrowerProfile, error) {
	profile, err := repo.FindProfile(ctx, borrowerID)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.BorrowerProfile{BorrowerID: borrowerID}, nil
	}
	if err != nil {
		return domain.BorrowerProfile{}, fmt.Errorf("load borrower profile: %w", err)
	}
	return profile, nil
}
