package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"flip-lending/auth"
	"flip-lending/domain"
	"flip-lending/repository"
)

type AnalysisService struct {
	repo   repository.Gateway
	cache  repository.CacheRepository
	ttl    time.Duration
	logger *slog.Logger
}

// NewAnalysisService creates an AnalysisService. A nil cache disables
// caching; a non-positive ttl falls back to DefaultAnalysisTTL.
func NewAnalysisService(
	repo repository.Gateway,
	cache repository.CacheRepository,
	ttl time.Duration,
	logger *slog.Logger,
) *AnalysisService {
	if ttl <= 0 {
		ttl = DefaultAnalysisTTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &AnalysisService{
		repo:   repo,
		cache:  cache,
		ttl:    ttl,
		logger: logger,
	}
}

// AnalyzeDeal builds the risk report for a deal and the borrower behind it.
func (s *AnalysisService) AnalyzeDeal(
	ctx context.Context,
	actor auth.AuthContext,
	dealID string,
) (domain.DealAnalysis, error) {
	if err := requireLender(actor); err != nil {
		return domain.DealAnalysis{}, err
	}

	deal, err := s.repo.FindDeal(ctx, dealID)
	if err != nil {
		return domain.DealAnalysis{}, fmt.Errorf("analyze deal: %w", err)
	}

	profile, err := loadProfile(ctx, s.repo, deal.BorrowerID)
	if err != nil {
		return domain.DealAnalysis{}, err
	}

	key := analysisCacheKey(deal, profile)
	if cached, ok := s.fromCache(ctx, key); ok {
		s.logger.Debug("analysis cache hit", "deal_id", deal.ID)
		return cached, nil
	}

	f := ComputeFinancials(deal.PurchasePrice, deal.RehabBudget, deal.AfterRepairValue)
	report := BuildRiskReport(f, profile)
	analysis := domain.DealAnalysis{
		DealID: deal.ID,
		Report: report,
		Text:   RenderRiskReport(report),
	}

	s.toCache(ctx, key, analysis)

	s.logger.Info("deal analyzed",
		"deal_id", deal.ID,
		"lender_id", actor.UserID,
		"risk_tier", report.RiskTier,
		"recommended", report.Recommended,
	)

	return analysis, nil
}

func (s *AnalysisService) fromCache(ctx context.Context, key string) (domain.DealAnalysis, bool) {
	if s.cache == nil {
		return domain.DealAnalysis{}, false
	}
	raw, ok := s.cache.Get(ctx, key)
	if !ok {
		return domain.DealAnalysis{}, false
	}

	var analysis domain.DealAnalysis
	if err := json.Unmarshal([]byte(raw), &analysis); err != nil {
		s.logger.Warn("discarding unreadable cached analysis", "key", key, "error", err)
		return domain.DealAnalysis{}, false
	}
	return analysis, true
}

func (s *AnalysisService) toCache(ctx context.Context, key string, analysis domain.DealAnalysis) {
	if s.cache == nil {
		return
	}
	payload, err := json.Marshal(analysis)
	if err != nil {
		s.logger.Warn("failed to encode analysis for cache", "key", key, "error", err)
		return
	}
	if err := s.cache.Set(ctx, key, string(payload), s.ttl); err != nil {
		s.logger.Warn("failed to cache analysis", "key", key, "error", err)
	}
}

// analysisCacheKey changes whenever any input of the report changes, so an
// edited deal or profile never hits a stale entry.
func analysisCacheKey(deal domain.Deal, profile domain.BorrowerProfile) string {
	h := sha256.New()
	for _, part := range []string{
		strconv.FormatFloat(deal.PurchasePrice, 'f', -1, 64),
		strconv.FormatFloat(deal.RehabBudget, 'f', -1, 64),
		strconv.FormatFloat(deal.AfterRepairValue, 'f', -1, 64),
		strconv.Itoa(profile.CreditScore),
		strconv.Itoa(profile.CompletedDeals),
	} {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}
	return analysisCachePrefix + deal.ID + ":" + hex.EncodeToString(h.Sum(nil))
}

// Calculate is the stateless preview used by the deal form.
func (s *AnalysisService) Calculate(input domain.CalculatorInput) (domain.CalculatorResult, error) {
	return Calculate(input)
}

// Calculate derives financials and risk tier for raw inputs. The risk report
// is only produced when both borrower fields are supplied.
func Calculate(input domain.CalculatorInput) (domain.CalculatorResult, error) {
	if err := validateInput(input); err != nil {
		return domain.CalculatorResult{}, err
	}
	if err := checkAmounts(input.PurchasePrice, input.RehabBudget, input.AfterRepairValue); err != nil {
		return domain.CalculatorResult{}, err
	}

	f := ComputeFinancials(input.PurchasePrice, input.RehabBudget, input.AfterRepairValue)
	result := domain.CalculatorResult{
		Financials: f,
		RiskTier:   ClassifyRisk(f.LoanToValue),
	}

	if input.CreditScore != nil && input.CompletedDeals != nil {
		report := BuildRiskReport(f, domain.BorrowerProfile{
			CreditScore:    *input.CreditScore,
			CompletedDeals: *input.CompletedDeals,
		})
		result.Report = &report
		result.Text = RenderRiskReport(report)
	}

	return result, nil
}
