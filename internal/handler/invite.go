package handler

import (
	"net/http"

	"github.com/dangerclosesec/bizcontrol/internal/domain"
	"github.com/dangerclosesec/bizcontrol/internal/service"
	"github.com/go-chi/chi/v5"
)

type InviteHandler struct {
	inviteService *service.InviteService
}

func NewInviteHandler(inviteService *service.InviteService) *InviteHandler {
	return &InviteHandler{inviteService: inviteService}
}

func (h *InviteHandler) List(w http.ResponseWriter, r *http.Request) {
	companyID, ok := uuidParam(w, r, "companyID")
	if !ok {
		return
	}

	invites, err := h.inviteService.ListByCompany(r.Context(), actor(r), companyID)
	if err != nil {
		respondWithDomainError(w, r, err)
		return
	}
	respondWithData(w, http.StatusOK, invites)
}

// Create stores the invite and queues the mail; delivery happens after the
// response.
func (h *InviteHandler) Create(w http.ResponseWriter, r *http.Request) {
	companyID, ok := uuidParam(w, r, "companyID")
	if !ok {
		return
	}
	var input service.InviteInput
	if !decodeJSON(w, r, &input) {
		return
	}

	invite, err := h.inviteService.Create(r.Context(), actor(r), companyID, input)
	if err != nil {
		respondWithDomainError(w, r, err)
		return
	}
	respondWithData(w, http.StatusCreated, invite)
}

func (h *InviteHandler) Revoke(w http.ResponseWriter, r *http.Request) {
	companyID, ok := uuidParam(w, r, "companyID")
	if !ok {
		return
	}

	if err := h.inviteService.Revoke(r.Context(), actor(r), companyID, chi.URLParam(r, "code")); err != nil {
		respondWithDomainError(w, r, err)
		return
	}
	respondNoContent(w)
}

func (h *InviteHandler) Accept(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	if code == "" {
		respondWithDomainError(w, r, domain.ErrInviteNotFound)
		return
	}

	membership, err := h.inviteService.Accept(r.Context(), actor(r), code)
	if err != nil {
		respondWithDomainError(w, r, err)
		return
	}
	respondWithData(w, http.StatusCreated, membership)
}
