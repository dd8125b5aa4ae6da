package http

import (
	"net/http"

	"flip-lending/auth"
	"flip-lending/domain"
	"flip-lending/service"
)

type LenderHandler struct {
	service *service.LenderService
}

func NewLenderHandler(service *service.LenderService) *LenderHandler {
	return &LenderHandler{service: service}
}

func (h *LenderHandler) RegisterLender(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		methodNotAllowed(w)
		return
	}

	var input domain.LenderInput
	if !decodeJSON(w, r, &input) {
		return
	}

	lender, err := h.service.RegisterLender(r.Context(), auth.FromContext(r.Context()), input)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, lender)
}

func (h *LenderHandler) EligibleLenders(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}

	lenders, err := h.service.EligibleLenders(r.Context(), auth.FromContext(r.Context()), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, lenders)
}

func (h *LenderHandler) ExpressInterest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}

	match, err := h.service.ExpressInterest(r.Context(), auth.FromContext(r.Context()), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, match)
}

func (h *LenderHandler) DecideMatch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}

	var decision domain.MatchDecision
	if !decodeJSON(w, r, &decision) {
		return
	}

	match, err := h.service.DecideMatch(r.Context(), auth.FromContext(r.Context()), r.PathValue("id"), decision)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, match)
}

func (h *LenderHandler) DealMatches(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}

	matches, err := h.service.ListDealMatches(r.Context(), auth.FromContext(r.Context()), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, matches)
}

// Notes lists a deal's internal notes on GET and appends one on POST.
func (h *LenderHandler) Notes(w http.ResponseWriter, r *http.Request) {
	actor := auth.FromContext(r.Context())
	dealID := r.PathValue("id")

	switch r.Method {
	case http.MethodGet:
		notes, err := h.service.ListNotes(r.Context(), actor, dealID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, notes)

	case http.MethodPost:
		var input domain.NoteInput
		if !decodeJSON(w, r, &input) {
			return
		}
		note, err := h.service.AddNote(r.Context(), actor, dealID, input)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, note)

	default:
		methodNotAllowed(w)
	}
}
