package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flip-lending/auth"
	"flip-lending/domain"
	"flip-lending/repository"
)

func newTestLenderService(repo repository.Gateway) *LenderService {
	seq := &sequence{base: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	svc := NewLenderService(repo, discardLogger())
	svc.newID = func() string { return "match-" + seq.id() }
	svc.now = seq.now
	return svc
}

func registerLender(t *testing.T, svc *LenderService, actor auth.AuthContext, maxLoan, maxLTV float64) domain.Lender {
	t.Helper()
	lender, err := svc.RegisterLender(context.Background(), actor, domain.LenderInput{
		Name:          "Capital " + actor.UserID,
		Email:         actor.UserID + "@example.com",
		MaxLoanAmount: maxLoan,
		MaxLTV:        maxLTV,
	})
	require.NoError(t, err)
	return lender
}

func TestRegisterLender(t *testing.T) {
	svc := newTestLenderService(repository.NewGatewayMemory())
	ctx := context.Background()

	lender, err := svc.RegisterLender(ctx, lenderX, domain.LenderInput{
		Name: " Summit Capital ", Email: "Deals@Summit.com", MaxLoanAmount: 500000, MaxLTV: 70,
	})
	require.NoError(t, err)
	assert.Equal(t, lenderX.UserID, lender.ID)
	assert.Equal(t, "Summit Capital", lender.Name)
	assert.Equal(t, "deals@summit.com", lender.Email)

	_, err = svc.RegisterLender(ctx, lenderX, domain.LenderInput{Name: "x", Email: "nope", MaxLoanAmount: 1, MaxLTV: 50})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = svc.RegisterLender(ctx, lenderX, domain.LenderInput{Name: "x", Email: "a@b.co", MaxLoanAmount: 1, MaxLTV: 120})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = svc.RegisterLender(ctx, borrowerA, domain.LenderInput{Name: "x", Email: "a@b.co", MaxLoanAmount: 1, MaxLTV: 50})
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestEligibleLenders(t *testing.T) {
	repo := repository.NewGatewayMemory()
	svc := newTestLenderService(repo)
	ctx := context.Background()

	// LTV 57, requested amount defaults to total cost of 250k.
	seedDeal(t, repo, "deal-1", 200000, 50000, 350000)

	registerLender(t, svc, lenderX, 300000, 60)
	registerLender(t, svc, lenderY, 200000, 80)
	registerLender(t, svc, auth.AuthContext{UserID: "lender-z", Role: auth.RoleLender}, 1000000, 50)

	eligible, err := svc.EligibleLenders(ctx, lenderX, "deal-1")
	require.NoError(t, err)
	require.Len(t, eligible, 1)
	assert.Equal(t, lenderX.UserID, eligible[0].ID)

	owner, err := svc.EligibleLenders(ctx, borrowerA, "deal-1")
	require.NoError(t, err)
	assert.Len(t, owner, 1)

	_, err = svc.EligibleLenders(ctx, borrowerB, "deal-1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestEligibleLenders_UsesLoanAmount(t *testing.T) {
	repo := repository.NewGatewayMemory()
	svc := newTestLenderService(repo)
	ctx := context.Background()

	deal := domain.Deal{
		ID: "deal-2", BorrowerID: borrowerA.UserID, Status: domain.DealActive,
		PurchasePrice: 200000, RehabBudget: 50000, AfterRepairValue: 350000,
		Structure: domain.DealStructure{LoanAmount: 150000},
	}
	require.NoError(t, repo.CreateDeal(ctx, deal))
	registerLender(t, svc, lenderY, 200000, 80)

	eligible, err := svc.EligibleLenders(ctx, lenderY, "deal-2")
	require.NoError(t, err)
	require.Len(t, eligible, 1)
	assert.Equal(t, lenderY.UserID, eligible[0].ID)
}

func TestExpressInterest(t *testing.T) {
	repo := repository.NewGatewayMemory()
	svc := newTestLenderService(repo)
	ctx := context.Background()
	seedDeal(t, repo, "deal-1", 200000, 50000, 350000)

	_, err := svc.ExpressInterest(ctx, lenderX, "deal-1")
	assert.ErrorIs(t, err, domain.ErrForbidden, "profile required first")

	registerLender(t, svc, lenderX, 300000, 60)

	match, err := svc.ExpressInterest(ctx, lenderX, "deal-1")
	require.NoError(t, err)
	assert.Equal(t, domain.MatchInterested, match.Status)
	assert.Equal(t, "deal-1", match.DealID)

	_, err = svc.ExpressInterest(ctx, lenderX, "deal-1")
	assert.ErrorIs(t, err, domain.ErrConflict)

	_, err = svc.ExpressInterest(ctx, lenderX, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = svc.ExpressInterest(ctx, borrowerA, "deal-1")
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestExpressInterest_InactiveDeal(t *testing.T) {
	repo := repository.NewGatewayMemory()
	svc := newTestLenderService(repo)
	ctx := context.Background()
	seedDeal(t, repo, "deal-1", 200000, 50000, 350000)
	require.NoError(t, repo.UpdateDealStatus(ctx, domain.StatusChange{
		DealID: "deal-1", From: domain.DealActive, To: domain.DealClosed, ActorID: borrowerA.UserID, At: time.Now(),
	}))
	registerLender(t, svc, lenderX, 300000, 60)

	_, err := svc.ExpressInterest(ctx, lenderX, "deal-1")
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestDecideMatch_ThenLenderFunds(t *testing.T) {
	repo := repository.NewGatewayMemory()
	lenders := newTestLenderService(repo)
	deals := newTestDealService(repo)
	ctx := context.Background()

	view, err := deals.SubmitDeal(ctx, borrowerA, validDealInput())
	require.NoError(t, err)
	registerLender(t, lenders, lenderX, 300000, 60)

	match, err := lenders.ExpressInterest(ctx, lenderX, view.ID)
	require.NoError(t, err)

	_, err = lenders.DecideMatch(ctx, borrowerB, match.ID, domain.MatchDecision{Status: domain.MatchApproved})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = lenders.DecideMatch(ctx, borrowerA, match.ID, domain.MatchDecision{Status: domain.MatchInterested})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	approved, err := lenders.DecideMatch(ctx, borrowerA, match.ID, domain.MatchDecision{Status: domain.MatchApproved})
	require.NoError(t, err)
	assert.Equal(t, domain.MatchApproved, approved.Status)

	_, err = lenders.DecideMatch(ctx, borrowerA, match.ID, domain.MatchDecision{Status: domain.MatchDeclined})
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	funded, err := deals.UpdateDealStatus(ctx, lenderX, view.ID, domain.DealFunded)
	require.NoError(t, err)
	assert.Equal(t, domain.DealFunded, funded.Status)
}

type staleMatches struct {
	*repository.GatewayMemory
	snapshot domain.Match
}

func (s staleMatches) FindMatch(context.Context, string) (domain.Match, error) {
	return s.snapshot, nil
}

func TestDecideMatch_StaleRead(t *testing.T) {
	repo := repository.NewGatewayMemory()
	lenders := newTestLenderService(repo)
	ctx := context.Background()
	seedDeal(t, repo, "deal-1", 200000, 50000, 350000)
	registerLender(t, lenders, lenderX, 300000, 60)

	match, err := lenders.ExpressInterest(ctx, lenderX, "deal-1")
	require.NoError(t, err)
	_, err = lenders.DecideMatch(ctx, borrowerA, match.ID, domain.MatchDecision{Status: domain.MatchApproved})
	require.NoError(t, err)

	stale := newTestLenderService(staleMatches{GatewayMemory: repo, snapshot: match})
	_, err = stale.DecideMatch(ctx, borrowerA, match.ID, domain.MatchDecision{Status: domain.MatchDeclined})
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	stored, err := repo.FindMatch(ctx, match.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.MatchApproved, stored.Status)
}

func TestListDealMatches(t *testing.T) {
	repo := repository.NewGatewayMemory()
	svc := newTestLenderService(repo)
	ctx := context.Background()
	seedDeal(t, repo, "deal-1", 200000, 50000, 350000)
	registerLender(t, svc, lenderX, 300000, 60)
	registerLender(t, svc, lenderY, 300000, 60)

	_, err := svc.ExpressInterest(ctx, lenderX, "deal-1")
	require.NoError(t, err)
	_, err = svc.ExpressInterest(ctx, lenderY, "deal-1")
	require.NoError(t, err)

	all, err := svc.ListDealMatches(ctx, borrowerA, "deal-1")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	own, err := svc.ListDealMatches(ctx, lenderY, "deal-1")
	require.NoError(t, err)
	require.Len(t, own, 1)
	assert.Equal(t, lenderY.UserID, own[0].LenderID)

	_, err = svc.ListDealMatches(ctx, borrowerB, "deal-1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestNotes(t *testing.T) {
	repo := repository.NewGatewayMemory()
	svc := newTestLenderService(repo)
	ctx := context.Background()
	seedDeal(t, repo, "deal-1", 200000, 50000, 350000)

	_, err := svc.AddNote(ctx, lenderX, "deal-1", domain.NoteInput{Body: "Comps look thin on the north side."})
	require.NoError(t, err)
	_, err = svc.AddNote(ctx, lenderY, "deal-1", domain.NoteInput{Body: "Asked for contractor bids."})
	require.NoError(t, err)

	notes, err := svc.ListNotes(ctx, lenderX, "deal-1")
	require.NoError(t, err)
	require.Len(t, notes, 2)
	assert.Equal(t, lenderX.UserID, notes[0].AuthorID)
	assert.Equal(t, lenderY.UserID, notes[1].AuthorID)

	_, err = svc.AddNote(ctx, lenderX, "deal-1", domain.NoteInput{Body: "   "})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = svc.AddNote(ctx, lenderX, "missing", domain.NoteInput{Body: "hi"})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = svc.ListNotes(ctx, borrowerA, "deal-1")
	assert.ErrorIs(t, err, domain.ErrForbidden)
}
