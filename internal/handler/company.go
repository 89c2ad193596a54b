package handler

import (
	"net/http"

	"github.com/dangerclosesec/bizcontrol/internal/service"
)

type CompanyHandler struct {
	companyService *service.CompanyService
}

func NewCompanyHandler(companyService *service.CompanyService) *CompanyHandler {
	return &CompanyHandler{companyService: companyService}
}

// Create answers with the creator's admin membership.
func (h *CompanyHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input service.CompanyInput
	if !decodeJSON(w, r, &input) {
		return
	}

	membership, err := h.companyService.Create(r.Context(), actor(r), input)
	if err != nil {
		respondWithDomainError(w, r, err)
		return
	}
	respondWithData(w, http.StatusCreated, membership)
}

func (h *CompanyHandler) List(w http.ResponseWriter, r *http.Request) {
	companies, err := h.companyService.List(r.Context(), actor(r), pageParams(r))
	if err != nil {
		respondWithDomainError(w, r, err)
		return
	}
	respondWithData(w, http.StatusOK, companies)
}

func (h *CompanyHandler) Get(w http.ResponseWriter, r *http.Request) {
	companyID, ok := uuidParam(w, r, "companyID")
	if !ok {
		return
	}

	company, err := h.companyService.Get(r.Context(), actor(r), companyID)
	if err != nil {
		respondWithDomainError(w, r, err)
		return
	}
	respondWithData(w, http.StatusOK, company)
}

func (h *CompanyHandler) Update(w http.ResponseWriter, r *http.Request) {
	companyID, ok := uuidParam(w, r, "companyID")
	if !ok {
		return
	}
	var input service.CompanyInput
	if !decodeJSON(w, r, &input) {
		return
	}

	company, err := h.companyService.Update(r.Context(), actor(r), companyID, input)
	if err != nil {
		respondWithDomainError(w, r, err)
		return
	}
	respondWithData(w, http.StatusOK, company)
}

func (h *CompanyHandler) Delete(w http.ResponseWriter, r *http.Request) {
	companyID, ok := uuidParam(w, r, "companyID")
	if !ok {
		return
	}

	if err := h.companyService.Delete(r.Context(), actor(r), companyID); err != nil {
		respondWithDomainError(w, r, err)
		return
	}
	respondNoContent(w)
}
