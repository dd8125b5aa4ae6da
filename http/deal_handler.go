package http

import (
	"net/http"

	"flip-lending/auth"
	"flip-lending/domain"
	"flip-lending/service"
)

type DealHandler struct {
	service *service.DealService
}

func NewDealHandler(service *service.DealService) *DealHandler {
	return &DealHandler{service: service}
}

// Deals serves the lender dashboard on GET and deal submission on POST.
func (h *DealHandler) Deals(w http.ResponseWriter, r *http.Request) {
	actor := auth.FromContext(r.Context())

	switch r.Method {
	case http.MethodGet:
		deals, err := h.service.ListActiveDeals(r.Context(), actor, r.URL.Query().Get("q"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, deals)

	case http.MethodPost:
		var input domain.DealInput
		if !decodeJSON(w, r, &input) {
			return
		}
		deal, err := h.service.SubmitDeal(r.Context(), actor, input)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, deal)

	default:
		methodNotAllowed(w)
	}
}

func (h *DealHandler) MyDeals(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}

	deals, err := h.service.ListBorrowerDeals(r.Context(), auth.FromContext(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, deals)
}

func (h *DealHandler) Deal(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}

	deal, err := h.service.GetDeal(r.Context(), auth.FromContext(r.Context()), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, deal)
}

type statusRequest struct {
	Status domain.DealStatus `json:"status"`
}

func (h *DealHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}

	var req statusRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	deal, err := h.service.UpdateDealStatus(r.Context(), auth.FromContext(r.Context()), r.PathValue("id"), req.Status)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, deal)
}

// BorrowerProfile reads the caller's profile on GET and replaces it on PUT.
func (h *DealHandler) BorrowerProfile(w http.ResponseWriter, r *http.Request) {
	actor := auth.FromContext(r.Context())

	switch r.Method {
	case http.MethodGet:
		profile, err := h.service.BorrowerProfile(r.Context(), actor)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, profile)

	case http.MethodPut:
		var profile domain.BorrowerProfile
		if !decodeJSON(w, r, &profile) {
			return
		}
		saved, err := h.service.SaveBorrowerProfile(r.Context(), actor, profile)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, saved)

	default:
		methodNotAllowed(w)
	}
}
