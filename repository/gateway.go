package repository

import (
	"context"
	"time"

	"flip-lending/domain"
)

// DealRepository stores deal records. Listings are returned newest first.
//
// UpdateDealStatus applies change only while the deal is still in
// change.From and appends it to the deal's timeline; a deal that moved on in
// the meantime yields domain.ErrInvalidTransition.
type DealRepository interface {
	CreateDeal(ctx context.Context, deal domain.Deal) error
	FindDeal(ctx context.Context, id string) (domain.Deal, error)
	ListDealsByStatus(ctx context.Context, status domain.DealStatus) ([]domain.Deal, error)
	ListDealsByBorrower(ctx context.Context, borrowerID string) ([]domain.Deal, error)
	UpdateDealStatus(ctx context.Context, change domain.StatusChange) error
	ListStatusChanges(ctx context.Context, dealID string) ([]domain.StatusChange, error)
}

type ProfileRepository interface {
	SaveProfile(ctx context.Context, profile domain.BorrowerProfile) error
	FindProfile(ctx context.Context, borrowerID string) (domain.BorrowerProfile, error)
}

type LenderRepository interface {
	SaveLender(ctx context.Context, lender domain.Lender) error
	FindLender(ctx context.Context, id string) (domain.Lender, error)
	ListLenders(ctx context.Context) ([]domain.Lender, error)
}

// MatchRepository stores lender interest in deals. CreateMatch returns
// domain.ErrConflict when the lender already has a match on the deal.
// UpdateMatchStatus is guarded on from like UpdateDealStatus.
type MatchRepository interface {
	CreateMatch(ctx context.Context, match domain.Match) error
	FindMatch(ctx context.Context, id string) (domain.Match, error)
	ListMatchesByDeal(ctx context.Context, dealID string) ([]domain.Match, error)
	UpdateMatchStatus(ctx context.Context, id string, from, to domain.MatchStatus, at time.Time) error
}

// NoteRepository lists notes oldest first.
type NoteRepository interface {
	AddNote(ctx context.Context, note domain.Note) error
	ListNotes(ctx context.Context, dealID string) ([]domain.Note, error)
}

// Gateway is the persistence boundary the services are built on. Lookups of
// missing records return an error wrapping domain.ErrNotFound.
type Gateway interface {
	DealRepository
	ProfileRepository
	LenderRepository
	MatchRepository
	NoteRepository
	Ping(ctx context.Context) error
}
