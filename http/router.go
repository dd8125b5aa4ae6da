package http

import (
	"log/slog"
	"net/http"

	"flip-lending/auth"
)

// Router bundles the handlers and middleware that make up the API.
type Router struct {
	Deals    *DealHandler
	Analysis *AnalysisHandler
	Lenders  *LenderHandler
	Health   http.Handler
	Tokens   auth.TokenValidator
	Limiter  *RateLimiter
	Metrics  *Metrics
	Logger   *slog.Logger
}

// Handler registers every route on a ServeMux and wraps it with logging and
// bearer-token authentication. Role checks are repeated in the services.
func (rt Router) Handler() http.Handler {
	mux := http.NewServeMux()

	handle := func(route string, h http.Handler) {
		mux.Handle(route, rt.Metrics.Instrument(route, h))
	}
	borrower := func(h http.HandlerFunc) http.Handler {
		return auth.RequireRole(h, auth.RoleBorrower)
	}
	lender := func(h http.HandlerFunc) http.Handler {
		return auth.RequireRole(h, auth.RoleLender)
	}
	member := func(h http.HandlerFunc) http.Handler {
		return auth.RequireRole(h, auth.RoleBorrower, auth.RoleLender)
	}

	handle("/deals", member(rt.Deals.Deals))
	handle("/deals/mine", borrower(rt.Deals.MyDeals))
	handle("/deals/{id}", member(rt.Deals.Deal))
	handle("/deals/{id}/status", member(rt.Deals.UpdateStatus))
	handle("/deals/{id}/analysis", lender(rt.Analysis.AnalyzeDeal))
	handle("/deals/{id}/lenders", member(rt.Lenders.EligibleLenders))
	handle("/deals/{id}/interest", lender(rt.Lenders.ExpressInterest))
	handle("/deals/{id}/matches", member(rt.Lenders.DealMatches))
	handle("/deals/{id}/notes", lender(rt.Lenders.Notes))
	handle("/matches/{id}/decision", borrower(rt.Lenders.DecideMatch))
	handle("/borrower/profile", borrower(rt.Deals.BorrowerProfile))
	handle("/lender/profile", lender(rt.Lenders.RegisterLender))

	handle("/metrics/calculate", RateLimitMiddleware(
		rt.Limiter,
		rt.Metrics,
		http.HandlerFunc(rt.Analysis.Calculate),
	))

	mux.Handle("/healthz", rt.Health)
	mux.Handle("/metrics", rt.Metrics.Handler())

	logger := rt.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return LoggingMiddleware(logger, auth.Middleware(rt.Tokens, mux))
}
