package handler

import (
	"net/http"

	"github.com/dangerclosesec/bizcontrol/internal/service"
)

type DepartmentHandler struct {
	departmentService *service.DepartmentService
}

func NewDepartmentHandler(departmentService *service.DepartmentService) *DepartmentHandler {
	return &DepartmentHandler{departmentService: departmentService}
}

func (h *DepartmentHandler) List(w http.ResponseWriter, r *http.Request) {
	companyID, ok := uuidParam(w, r, "companyID")
	if !ok {
		return
	}

	departments, err := h.departmentService.List(r.Context(), actor(r), companyID)
	if err != nil {
		respondWithDomainError(w, r, err)
		return
	}
	respondWithData(w, http.StatusOK, departments)
}

func (h *DepartmentHandler) Create(w http.ResponseWriter, r *http.Request) {
	companyID, ok := uuidParam(w, r, "companyID")
	if !ok {
		return
	}
	var input service.DepartmentInput
	if !decodeJSON(w, r, &input) {
		return
	}

	department, err := h.departmentService.Create(r.Context(), actor(r), companyID, input)
	if err != nil {
		respondWithDomainError(w, r, err)
		return
	}
	respondWithData(w, http.StatusCreated, department)
}

func (h *DepartmentHandler) Update(w http.ResponseWriter, r *http.Request) {
	companyID, ok := uuidParam(w, r, "companyID")
	if !ok {
		return
	}
	departmentID, ok := uuidParam(w, r, "departmentID")
	if !ok {
		return
	}
	var input service.DepartmentInput
	if !decodeJSON(w, r, &input) {
		return
	}

	department, err := h.departmentService.Update(r.Context(), actor(r), companyID, departmentID, input)
	if err != nil {
		respondWithDomainError(w, r, err)
		return
	}
	respondWithData(w, http.StatusOK, department)
}

func (h *DepartmentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	companyID, ok := uuidParam(w, r, "companyID")
	if !ok {
		return
	}
	departmentID, ok := uuidParam(w, r, "departmentID")
	if !ok {
		return
	}

	if err := h.departmentService.Delete(r.Context(), actor(r), companyID, departmentID); err != nil {
		respondWithDomainError(w, r, err)
		return
	}
	respondNoContent(w)
}
