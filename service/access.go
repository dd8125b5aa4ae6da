package service

import (
	"fmt"

	"flip-lending/auth"
	"flip-lending/domain"
)

func requireBorrower(actor auth.AuthContext) error {
	if !actor.Authenticated() {
		return domain.ErrUnauthenticated
	}
	if !actor.IsBorrower() {
		return fmt.Errorf("borrower role required: %w", domain.ErrForbidden)
	}
	return nil
}

func requireLender(actor auth.AuthContext) error {
	if !actor.Authenticated() {
		return domain.ErrUnauthenticated
	}
	if !actor.IsLender() {
		return fmt.Errorf("lender role required: %w", domain.ErrForbidden)
	}
	return nil
}

// canViewDeal lets lenders see every deal and borrowers only their own.
func canViewDeal(actor auth.AuthContext, deal domain.Deal) error {
	if !actor.Authenticated() {
		return domain.ErrUnauthenticated
	}
	if actor.IsLender() || deal.BorrowerID == actor.UserID {
		return nil
	}
	// Hide the existence of other borrowers' deals.
	return fmt.Errorf("deal %s: %w", deal.ID, domain.ErrNotFound)
}
