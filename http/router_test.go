package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flip-lending/auth"
	"flip-lending/domain"
	"flip-lending/repository"
	"flip-lending/service"
)

type testServer struct {
	handler http.Handler
	tokens  *auth.JWTService
	metrics *Metrics
	limiter *RateLimiter
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	repo := repository.NewGatewayMemory()
	cache := repository.NewMemoryCache()

	tokens, err := auth.NewJWTService(auth.JWTConfig{
		Secret:     "test-secret",
		Issuer:     "flip-lending",
		Expiration: time.Hour,
	})
	require.NoError(t, err)

	metrics := NewMetrics()
	limiter := NewRateLimiter(60, 3)
	t.Cleanup(limiter.Stop)

	router := Router{
		Deals:    NewDealHandler(service.NewDealService(repo, logger)),
		Analysis: NewAnalysisHandler(service.NewAnalysisService(repo, cache, time.Hour, logger), metrics),
		Lenders:  NewLenderHandler(service.NewLenderService(repo, logger)),
		Health:   HealthHandler(repo),
		Tokens:   tokens,
		Limiter:  limiter,
		Metrics:  metrics,
		Logger:   logger,
	}

	return &testServer{
		handler: router.Handler(),
		tokens:  tokens,
		metrics: metrics,
		limiter: limiter,
	}
}

func (s *testServer) token(t *testing.T, userID string, role auth.Role) string {
	t.Helper()
	token, err := s.tokens.GenerateToken(userID, role)
	require.NoError(t, err)
	return token
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	s.handler.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v))
	return v
}

var dealBody = map[string]any{
	"address":        "123 Main St",
	"city":           "Austin",
	"state":          "TX",
	"zip":            "78701",
	"purchase_price": 550000,
	"rehab_budget":   90000,
	"arv":            750000,
}

func TestMarketplaceFlow(t *testing.T) {
	s := newTestServer(t)
	borrower := s.token(t, "borrower-1", auth.RoleBorrower)
	lender := s.token(t, "lender-1", auth.RoleLender)

	w := s.do(t, http.MethodPut, "/borrower/profile", borrower, map[string]any{
		"credit_score": 720, "completed_deals": 12,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = s.do(t, http.MethodPost, "/deals", borrower, dealBody)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	deal := decode[domain.DealView](t, w)
	assert.Equal(t, 73.0, deal.LoanToValue)
	assert.Equal(t, domain.RiskMedium, deal.RiskTier)

	w = s.do(t, http.MethodGet, "/deals?q=austin", lender, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]domain.DealView](t, w), 1)

	w = s.do(t, http.MethodGet, "/deals/"+deal.ID+"/analysis", lender, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	analysis := decode[domain.DealAnalysis](t, w)
	assert.Equal(t, domain.RiskMedium, analysis.Report.RiskTier)
	assert.Contains(t, analysis.Text, "⚠️ Review recommendations before proceeding")

	w = s.do(t, http.MethodPut, "/lender/profile", lender, map[string]any{
		"name": "Summit Capital", "email": "deals@summit.com", "max_loan_amount": 700000, "max_ltv": 75,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = s.do(t, http.MethodGet, "/deals/"+deal.ID+"/lenders", borrower, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]domain.Lender](t, w), 1)

	w = s.do(t, http.MethodPost, "/deals/"+deal.ID+"/interest", lender, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	match := decode[domain.Match](t, w)

	w = s.do(t, http.MethodPost, "/deals/"+deal.ID+"/interest", lender, nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = s.do(t, http.MethodPost, "/matches/"+match.ID+"/decision", borrower, map[string]string{"status": "approved"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = s.do(t, http.MethodPost, "/deals/"+deal.ID+"/status", lender, map[string]string{"status": "funded"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, domain.DealFunded, decode[domain.DealView](t, w).Status)

	w = s.do(t, http.MethodPost, "/deals/"+deal.ID+"/status", borrower, map[string]string{"status": "active"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = s.do(t, http.MethodGet, "/deals/mine", borrower, nil)
	require.Equal(t, http.StatusOK, w.Code)
	mine := decode[[]domain.DealView](t, w)
	require.Len(t, mine, 1)
	assert.Equal(t, domain.DealFunded, mine[0].Status)

	w = s.do(t, http.MethodGet, "/deals/"+deal.ID+"/matches", borrower, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]domain.Match](t, w), 1)
}

func TestNotesEndpoints(t *testing.T) {
	s := newTestServer(t)
	borrower := s.token(t, "borrower-1", auth.RoleBorrower)
	lender := s.token(t, "lender-1", auth.RoleLender)

	w := s.do(t, http.MethodPost, "/deals", borrower, dealBody)
	require.Equal(t, http.StatusCreated, w.Code)
	deal := decode[domain.DealView](t, w)

	w = s.do(t, http.MethodPost, "/deals/"+deal.ID+"/notes", lender, map[string]string{"body": "Check the roof."})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = s.do(t, http.MethodGet, "/deals/"+deal.ID+"/notes", lender, nil)
	require.Equal(t, http.StatusOK, w.Code)
	notes := decode[[]domain.Note](t, w)
	require.Len(t, notes, 1)
	assert.Equal(t, "Check the roof.", notes[0].Body)

	w = s.do(t, http.MethodGet, "/deals/"+deal.ID+"/notes", borrower, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(t, http.MethodDelete, "/deals/"+deal.ID+"/notes", lender, nil)
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestAuthErrors(t *testing.T) {
	s := newTestServer(t)
	borrower := s.token(t, "borrower-1", auth.RoleBorrower)
	other := s.token(t, "borrower-2", auth.RoleBorrower)

	w := s.do(t, http.MethodGet, "/deals", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(t, http.MethodGet, "/deals", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(t, http.MethodGet, "/deals", borrower, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(t, http.MethodPost, "/deals", borrower, dealBody)
	require.Equal(t, http.StatusCreated, w.Code)
	deal := decode[domain.DealView](t, w)

	w = s.do(t, http.MethodGet, "/deals/"+deal.ID, other, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(t, http.MethodGet, "/deals/"+deal.ID+"/analysis", borrower, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestSubmitDeal_BadRequests(t *testing.T) {
	s := newTestServer(t)
	borrower := s.token(t, "borrower-1", auth.RoleBorrower)

	req := httptest.NewRequest(http.MethodPost, "/deals", strings.NewReader("{"))
	req.Header.Set("Authorization", "Bearer "+borrower)
	w := httptest.NewRecorder()
	s.handler.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodPost, "/deals", borrower, map[string]any{"address": "1 A St"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "invalid input")
}

func TestCalculateEndpoint(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/metrics/calculate", "", map[string]any{
		"purchase_price": 200000, "rehab_budget": 50000, "arv": 350000,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	result := decode[domain.CalculatorResult](t, w)
	assert.Equal(t, 57.0, result.Financials.LoanToValue)
	assert.Equal(t, 71.0, result.Financials.LoanToCost)
	assert.Equal(t, domain.RiskLow, result.RiskTier)
	assert.Nil(t, result.Report)

	w = s.do(t, http.MethodGet, "/metrics/calculate", "", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestCalculateEndpoint_RateLimited(t *testing.T) {
	s := newTestServer(t)
	body := map[string]any{"purchase_price": 1, "arv": 2}

	for i := 0; i < 3; i++ {
		w := s.do(t, http.MethodPost, "/metrics/calculate", "", body)
		require.Equal(t, http.StatusOK, w.Code)
	}

	w := s.do(t, http.MethodPost, "/metrics/calculate", "", body)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/metrics/calculate", "", map[string]any{
		"purchase_price": 200000, "rehab_budget": 50000, "arv": 350000,
		"credit_score": 700, "completed_deals": 3,
	})
	require.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `fliplending_risk_reports_total{tier="LOW"} 1`)
	assert.Contains(t, w.Body.String(), `fliplending_http_requests_total{code="200",method="POST",route="/metrics/calculate"} 1`)
}

type failingPinger struct{}

func (failingPinger) Ping(context.Context) error { return errors.New("connection refused") }

func TestHealthHandler(t *testing.T) {
	w := httptest.NewRecorder()
	HealthHandler(repository.NewGatewayMemory()).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	HealthHandler(failingPinger{}).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestDealHandler_PathValue(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	repo := repository.NewGatewayMemory()
	handler := NewDealHandler(service.NewDealService(repo, logger))

	require.NoError(t, repo.CreateDeal(context.Background(), domain.Deal{
		ID: "deal-1", BorrowerID: "b-1", Status: domain.DealActive,
		PurchasePrice: 100000, AfterRepairValue: 200000,
	}))

	req := httptest.NewRequest(http.MethodGet, "/deals/deal-1", nil)
	req.SetPathValue("id", "deal-1")
	req = req.WithContext(auth.WithContext(req.Context(), auth.AuthContext{UserID: "l-1", Role: auth.RoleLender}))
	w := httptest.NewRecorder()

	handler.Deal(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	view := decode[domain.DealView](t, w)
	assert.Equal(t, 50.0, view.LoanToValue)
}
