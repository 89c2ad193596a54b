package handler

import (
	"net/http"

	"github.com/dangerclosesec/bizcontrol/internal/service"
)

type MembershipHandler struct {
	membershipService *service.MembershipService
}

func NewMembershipHandler(membershipService *service.MembershipService) *MembershipHandler {
	return &MembershipHandler{membershipService: membershipService}
}

func (h *MembershipHandler) List(w http.ResponseWriter, r *http.Request) {
	companyID, ok := uuidParam(w, r, "companyID")
	if !ok {
		return
	}

	memberships, err := h.membershipService.List(r.Context(), actor(r), companyID)
	if err != nil {
		respondWithDomainError(w, r, err)
		return
	}
	respondWithData(w, http.StatusOK, memberships)
}

// Update applies a partial change. Absent fields are kept, explicit nulls
// clear department and manager.
func (h *MembershipHandler) Update(w http.ResponseWriter, r *http.Request) {
	companyID, ok := uuidParam(w, r, "companyID")
	if !ok {
		return
	}
	membershipID, ok := uuidParam(w, r, "membershipID")
	if !ok {
		return
	}
	var input service.MembershipUpdateInput
	if !decodeJSON(w, r, &input) {
		return
	}

	membership, err := h.membershipService.Update(r.Context(), actor(r), companyID, membershipID, input)
	if err != nil {
		respondWithDomainError(w, r, err)
		return
	}
	respondWithData(w, http.StatusOK, membership)
}

func (h *MembershipHandler) Delete(w http.ResponseWriter, r *http.Request) {
	companyID, ok := uuidParam(w, r, "companyID")
	if !ok {
		return
	}
	membershipID, ok := uuidParam(w, r, "membershipID")
	if !ok {
		return
	}

	if err := h.membershipService.Delete(r.Context(), actor(r), companyID, membershipID); err != nil {
		respondWithDomainError(w, r, err)
		return
	}
	respondNoContent(w)
}

func (h *MembershipHandler) Leave(w http.ResponseWriter, r *http.Request) {
	companyID, ok := uuidParam(w, r, "companyID")
	if !ok {
		return
	}

	if err := h.membershipService.Leave(r.Context(), actor(r), companyID); err != nil {
		respondWithDomainError(w, r, err)
		return
	}
	respondNoContent(w)
}
