package http

import (
	"net/http"

	"flip-lending/auth"
	"flip-lending/domain"
	"flip-lending/service"
)

type AnalysisHandler struct {
	service *service.AnalysisService
	metrics *Metrics
}

func NewAnalysisHandler(service *service.AnalysisService, metrics *Metrics) *AnalysisHandler {
	return &AnalysisHandler{service: service, metrics: metrics}
}

func (h *AnalysisHandler) AnalyzeDeal(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}

	analysis, err := h.service.AnalyzeDeal(r.Context(), auth.FromContext(r.Context()), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}

	if h.metrics != nil {
		h.metrics.ObserveReport(analysis.Report.RiskTier)
	}
	writeJSON(w, http.StatusOK, analysis)
}

// Calculate is the public metrics preview used while filling in a deal.
func (h *AnalysisHandler) Calculate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}

	var input domain.CalculatorInput
	if !decodeJSON(w, r, &input) {
		return
	}

	result, err := h.service.Calculate(input)
	if err != nil {
		writeError(w, err)
		return
	}

	if h.metrics != nil && result.Report != nil {
		h.metrics.ObserveReport(result.Report.RiskTier)
	}
	writeJSON(w, http.StatusOK, result)
}
