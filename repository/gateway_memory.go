package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"flip-lending/domain"
)

// GatewayMemory is an in-memory implementation of Gateway.
type GatewayMemory struct {
	mu       sync.RWMutex
	deals    []domain.Deal
	profiles map[string]domain.BorrowerProfile
	lenders  map[string]domain.Lender
	matches  []domain.Match
	notes    []domain.Note
	timeline []domain.StatusChange
}

// NewGatewayMemory creates a new in-memory gateway.
func NewGatewayMemory() *GatewayMemory {
	return &GatewayMemory{
		deals:    []domain.Deal{},
		profiles: make(map[string]domain.BorrowerProfile),
		lenders:  make(map[string]domain.Lender),
		matches:  []domain.Match{},
		notes:    []domain.Note{},
		timeline: []domain.StatusChange{},
	}
}

func (r *GatewayMemory) Ping(context.Context) error {
	return nil
}

// CreateDeal stores the deal in memory.
func (r *GatewayMemory) CreateDeal(_ context.Context, deal domain.Deal) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, d := range r.deals {
		if d.ID == deal.ID {
			return fmt.Errorf("deal %s: %w", deal.ID, domain.ErrConflict)
		}
	}
	r.deals = append(r.deals, deal)
	return nil
}

func (r *GatewayMemory) FindDeal(_ context.Context, id string) (domain.Deal, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, d := range r.deals {
		if d.ID == id {
			return d, nil
		}
	}
	return domain.Deal{}, fmt.Errorf("deal %s: %w", id, domain.ErrNotFound)
}

func (r *GatewayMemory) ListDealsByStatus(_ context.Context, status domain.DealStatus) ([]domain.Deal, error) {
	return r.listDeals(func(d domain.Deal) bool { return d.Status == status }), nil
}

func (r *GatewayMemory) ListDealsByBorrower(_ context.Context, borrowerID string) ([]domain.Deal, error) {
	return r.listDeals(func(d domain.Deal) bool { return d.BorrowerID == borrowerID }), nil
}

// listDeals returns matching deals newest first; ties keep the most recent
// insertion first.
func (r *GatewayMemory) listDeals(keep func(domain.Deal) bool) []domain.Deal {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := []domain.Deal{}
	for i := len(r.deals) - 1; i >= 0; i-- {
		if keep(r.deals[i]) {
			out = append(out, r.deals[i])
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

func (r *GatewayMemory) UpdateDealStatus(_ context.Context, change domain.StatusChange) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.deals {
		if r.deals[i].ID != change.DealID {
			continue
		}
		if r.deals[i].Status != change.From {
			return fmt.Errorf("deal %s is %s, not %s: %w",
				change.DealID, r.deals[i].Status, change.From, domain.ErrInvalidTransition)
		}
		r.deals[i].Status = change.To
		r.deals[i].UpdatedAt = change.At
		r.timeline = append(r.timeline, change)
		return nil
	}
	return fmt.Errorf("deal %s: %w", change.DealID, domain.ErrNotFound)
}

// ListStatusChanges returns the deal's timeline oldest first.
func (r *GatewayMemory) ListStatusChanges(_ context.Context, dealID string) ([]domain.StatusChange, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := []domain.StatusChange{}
	for _, c := range r.timeline {
		if c.DealID == dealID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *GatewayMemory) SaveProfile(_ context.Context, profile domain.BorrowerProfile) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.profiles[profile.BorrowerID] = profile
	return nil
}

func (r *GatewayMemory) FindProfile(_ context.Context, borrowerID string) (domain.BorrowerProfile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.profiles[borrowerID]
	if !ok {
		return domain.BorrowerProfile{}, fmt.Errorf("profile %s: %w", borrowerID, domain.ErrNotFound)
	}
	return p, nil
}

func (r *GatewayMemory) SaveLender(_ context.Context, lender domain.Lender) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.lenders[lender.ID]; ok {
		lender.CreatedAt = existing.CreatedAt
	}
	r.lenders[lender.ID] = lender
	return nil
}

func (r *GatewayMemory) FindLender(_ context.Context, id string) (domain.Lender, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	l, ok := r.lenders[id]
	if !ok {
		return domain.Lender{}, fmt.Errorf("lender %s: %w", id, domain.ErrNotFound)
	}
	return l, nil
}

// ListLenders returns lenders ordered by name.
func (r *GatewayMemory) ListLenders(context.Context) ([]domain.Lender, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.Lender, 0, len(r.lenders))
	for _, l := range r.lenders {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name == out[j].Name {
			return out[i].ID < out[j].ID
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

func (r *GatewayMemory) CreateMatch(_ context.Context, match domain.Match) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, m := range r.matches {
		if m.ID == match.ID || (m.DealID == match.DealID && m.LenderID == match.LenderID) {
			return fmt.Errorf("match for deal %s and lender %s: %w", match.DealID, match.LenderID, domain.ErrConflict)
		}
	}
	r.matches = append(r.matches, match)
	return nil
}

func (r *GatewayMemory) FindMatch(_ context.Context, id string) (domain.Match, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, m := range r.matches {
		if m.ID == id {
			return m, nil
		}
	}
	return domain.Match{}, fmt.Errorf("match %s: %w", id, domain.ErrNotFound)
}

func (r *GatewayMemory) ListMatchesByDeal(_ context.Context, dealID string) ([]domain.Match, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := []domain.Match{}
	for _, m := range r.matches {
		if m.DealID == dealID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *GatewayMemory) UpdateMatchStatus(_ context.Context, id string, from, to domain.MatchStatus, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.matches {
		if r.matches[i].ID != id {
			continue
		}
		if r.matches[i].Status != from {
			return fmt.Errorf("match %s is %s, not %s: %w", id, r.matches[i].Status, from, domain.ErrInvalidTransition)
		}
		r.matches[i].Status = to
		r.matches[i].UpdatedAt = at
		return nil
	}
	return fmt.Errorf("match %s: %w", id, domain.ErrNotFound)
}

func (r *GatewayMemory) AddNote(_ context.Context, note domain.Note) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.notes = append(r.notes, note)
	return nil
}

func (r *GatewayMemory) ListNotes(_ context.Context, dealID string) ([]domain.Note, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := []domain.Note{}
	for _, n := range r.notes {
		if n.DealID == dealID {
			out = append(out, n)
		}
	}
	return out, nil
}
