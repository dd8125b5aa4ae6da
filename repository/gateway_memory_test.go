package repository

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flip-lending/domain"
)

func testDeal(id, borrower string, status domain.DealStatus, createdAt time.Time) domain.Deal {
	return domain.Deal{
		ID:               id,
		BorrowerID:       borrower,
		Address:          "1234 SE Division St",
		City:             "Portland",
		State:            "OR",
		Zip:              "97202",
		Status:           status,
		PurchasePrice:    200000,
		RehabBudget:      50000,
		AfterRepairValue: 350000,
		CreatedAt:        createdAt,
		UpdatedAt:        createdAt,
	}
}

func TestGatewayMemory_Deals(t *testing.T) {
	ctx := context.Background()
	repo := NewGatewayMemory()
	base := time.Date(2025, 12, 10, 9, 0, 0, 0, time.UTC)

	require.NoError(t, repo.CreateDeal(ctx, testDeal("d1", "b1", domain.DealActive, base)))
	require.NoError(t, repo.CreateDeal(ctx, testDeal("d2", "b2", domain.DealActive, base.Add(time.Hour))))
	require.NoError(t, repo.CreateDeal(ctx, testDeal("d3", "b1", domain.DealFunded, base.Add(2*time.Hour))))

	t.Run("duplicate id conflicts", func(t *testing.T) {
		err := repo.CreateDeal(ctx, testDeal("d1", "b1", domain.DealActive, base))
		assert.ErrorIs(t, err, domain.ErrConflict)
	})

	t.Run("find", func(t *testing.T) {
		d, err := repo.FindDeal(ctx, "d2")
		require.NoError(t, err)
		assert.Equal(t, "b2", d.BorrowerID)

		_, err = repo.FindDeal(ctx, "missing")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("list by status newest first", func(t *testing.T) {
		deals, err := repo.ListDealsByStatus(ctx, domain.DealActive)
		require.NoError(t, err)
		require.Len(t, deals, 2)
		assert.Equal(t, "d2", deals[0].ID)
		assert.Equal(t, "d1", deals[1].ID)
	})

	t.Run("list by borrower", func(t *testing.T) {
		deals, err := repo.ListDealsByBorrower(ctx, "b1")
		require.NoError(t, err)
		require.Len(t, deals, 2)
		assert.Equal(t, "d3", deals[0].ID)
	})

	t.Run("update status", func(t *testing.T) {
		at := base.Add(24 * time.Hour)
		change := domain.StatusChange{DealID: "d1", From: domain.DealActive, To: domain.DealClosed, ActorID: "b1", At: at}
		require.NoError(t, repo.UpdateDealStatus(ctx, change))

		d, err := repo.FindDeal(ctx, "d1")
		require.NoError(t, err)
		assert.Equal(t, domain.DealClosed, d.Status)
		assert.Equal(t, at, d.UpdatedAt)

		timeline, err := repo.ListStatusChanges(ctx, "d1")
		require.NoError(t, err)
		assert.Equal(t, []domain.StatusChange{change}, timeline)

		missing := change
		missing.DealID = "missing"
		assert.ErrorIs(t, repo.UpdateDealStatus(ctx, missing), domain.ErrNotFound)
	})

	t.Run("stale expected status", func(t *testing.T) {
		// d2 is closed by its owner while a lender still holds the active snapshot.
		closed := domain.StatusChange{DealID: "d2", From: domain.DealActive, To: domain.DealClosed, ActorID: "b2", At: base}
		require.NoError(t, repo.UpdateDealStatus(ctx, closed))

		funded := domain.StatusChange{DealID: "d2", From: domain.DealActive, To: domain.DealFunded, ActorID: "l1", At: base}
		assert.ErrorIs(t, repo.UpdateDealStatus(ctx, funded), domain.ErrInvalidTransition)

		d, err := repo.FindDeal(ctx, "d2")
		require.NoError(t, err)
		assert.Equal(t, domain.DealClosed, d.Status)

		timeline, err := repo.ListStatusChanges(ctx, "d2")
		require.NoError(t, err)
		assert.Len(t, timeline, 1)
	})
}

func TestGatewayMemory_ConcurrentStatusChanges(t *testing.T) {
	ctx := context.Background()
	repo := NewGatewayMemory()
	at := time.Date(2025, 12, 10, 9, 0, 0, 0, time.UTC)
	require.NoError(t, repo.CreateDeal(ctx, testDeal("d1", "b1", domain.DealActive, at)))

	targets := []domain.DealStatus{domain.DealFunded, domain.DealClosed, domain.DealFunded, domain.DealClosed}
	errs := make(chan error, len(targets))
	var wg sync.WaitGroup
	for _, to := range targets {
		wg.Add(1)
		go func(to domain.DealStatus) {
			defer wg.Done()
			errs <- repo.UpdateDealStatus(ctx, domain.StatusChange{DealID: "d1", From: domain.DealActive, To: to, At: at})
		}(to)
	}
	wg.Wait()
	close(errs)

	applied := 0
	for err := range errs {
		if err == nil {
			applied++
			continue
		}
		assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	}
	assert.Equal(t, 1, applied)

	timeline, err := repo.ListStatusChanges(ctx, "d1")
	require.NoError(t, err)
	assert.Len(t, timeline, 1)
}

func TestGatewayMemory_ListReturnsCopies(t *testing.T) {
	ctx := context.Background()
	repo := NewGatewayMemory()
	require.NoError(t, repo.CreateDeal(ctx, testDeal("d1", "b1", domain.DealActive, time.Now())))

	deals, err := repo.ListDealsByStatus(ctx, domain.DealActive)
	require.NoError(t, err)
	deals[0].Status = domain.DealClosed

	stored, err := repo.FindDeal(ctx, "d1")
	require.NoError(t, err)
	assert.Equal(t, domain.DealActive, stored.Status)
}

func TestGatewayMemory_Profiles(t *testing.T) {
	ctx := context.Background()
	repo := NewGatewayMemory()

	_, err := repo.FindProfile(ctx, "b1")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	require.NoError(t, repo.SaveProfile(ctx, domain.BorrowerProfile{BorrowerID: "b1", CreditScore: 700, CompletedDeals: 3}))
	require.NoError(t, repo.SaveProfile(ctx, domain.BorrowerProfile{BorrowerID: "b1", CreditScore: 740, CompletedDeals: 4}))

	p, err := repo.FindProfile(ctx, "b1")
	require.NoError(t, err)
	assert.Equal(t, 740, p.CreditScore)
	assert.Equal(t, 4, p.CompletedDeals)
}

func TestGatewayMemory_Lenders(t *testing.T) {
	ctx := context.Background()
	repo := NewGatewayMemory()
	created := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, repo.SaveLender(ctx, domain.Lender{ID: "l2", Name: "Zeta Capital", CreatedAt: created}))
	require.NoError(t, repo.SaveLender(ctx, domain.Lender{ID: "l1", Name: "Alpha Lending", CreatedAt: created}))
	require.NoError(t, repo.SaveLender(ctx, domain.Lender{ID: "l1", Name: "Alpha Lending", MaxLTV: 70, CreatedAt: time.Now()}))

	lenders, err := repo.ListLenders(ctx)
	require.NoError(t, err)
	require.Len(t, lenders, 2)
	assert.Equal(t, "l1", lenders[0].ID)

	l1, err := repo.FindLender(ctx, "l1")
	require.NoError(t, err)
	assert.Equal(t, 70.0, l1.MaxLTV)
	assert.Equal(t, created, l1.CreatedAt, "re-registration keeps the original creation time")

	_, err = repo.FindLender(ctx, "nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestGatewayMemory_Matches(t *testing.T) {
	ctx := context.Background()
	repo := NewGatewayMemory()
	now := time.Now()

	require.NoError(t, repo.CreateMatch(ctx, domain.Match{ID: "m1", DealID: "d1", LenderID: "l1", Status: domain.MatchInterested, CreatedAt: now}))
	err := repo.CreateMatch(ctx, domain.Match{ID: "m2", DealID: "d1", LenderID: "l1", Status: domain.MatchInterested, CreatedAt: now})
	assert.ErrorIs(t, err, domain.ErrConflict)

	require.NoError(t, repo.CreateMatch(ctx, domain.Match{ID: "m3", DealID: "d1", LenderID: "l2", Status: domain.MatchInterested, CreatedAt: now}))

	matches, err := repo.ListMatchesByDeal(ctx, "d1")
	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, "m1", matches[0].ID)

	require.NoError(t, repo.UpdateMatchStatus(ctx, "m3", domain.MatchInterested, domain.MatchApproved, now))
	m, err := repo.FindMatch(ctx, "m3")
	require.NoError(t, err)
	assert.Equal(t, domain.MatchApproved, m.Status)

	err = repo.UpdateMatchStatus(ctx, "m3", domain.MatchInterested, domain.MatchDeclined, now)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	assert.ErrorIs(t, repo.UpdateMatchStatus(ctx, "zz", domain.MatchInterested, domain.MatchApproved, now), domain.ErrNotFound)
}

func TestGatewayMemory_Notes(t *testing.T) {
	ctx := context.Background()
	repo := NewGatewayMemory()

	require.NoError(t, repo.AddNote(ctx, domain.Note{ID: "n1", DealID: "d1", Body: "ARV supported by two comps"}))
	require.NoError(t, repo.AddNote(ctx, domain.Note{ID: "n2", DealID: "d2", Body: "other deal"}))
	require.NoError(t, repo.AddNote(ctx, domain.Note{ID: "n3", DealID: "d1", Body: "third flip with us"}))

	notes, err := repo.ListNotes(ctx, "d1")
	require.NoError(t, err)
	require.Len(t, notes, 2)
	assert.Equal(t, "n1", notes[0].ID)
	assert.Equal(t, "n3", notes[1].ID)
}
