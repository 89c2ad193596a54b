package handler

import (
	"net/http"
	"time"

	"github.com/dangerclosesec/bizcontrol/internal/middleware"
	"github.com/dangerclosesec/bizcontrol/internal/service"
)

// AdminHandler serves the superuser back-office. Every route but login
// runs behind middleware.AdminSession.
type AdminHandler struct {
	userService       *service.UserService
	companyService    *service.CompanyService
	membershipService *service.MembershipService
	inviteService     *service.InviteService
	cookieSecure      bool
	sessionTTL        time.Duration
}

func NewAdminHandler(
	userService *service.UserService,
	companyService *service.CompanyService,
	membershipService *service.MembershipService,
	inviteService *service.InviteService,
	cookieSecure bool,
	sessionTTL time.Duration,
) *AdminHandler {
	return &AdminHandler{
		userService:       userService,
		companyService:    companyService,
		membershipService: membershipService,
		inviteService:     inviteService,
		cookieSecure:      cookieSecure,
		sessionTTL:        sessionTTL,
	}
}

func (h *AdminHandler) Login(w http.ResponseWriter, r *http.Request) {
	var input service.LoginInput
	if !decodeJSON(w, r, &input) {
		return
	}

	output, err := h.userService.AdminLogin(r.Context(), input)
	if err != nil {
		respondWithDomainError(w, r, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.AdminCookieName,
		Value:    output.Token,
		Path:     "/admin",
		MaxAge:   int(h.sessionTTL.Seconds()),
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteStrictMode,
	})
	respondWithData(w, http.StatusOK, output.User)
}

func (h *AdminHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.AdminCookieName,
		Value:    "",
		Path:     "/admin",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteStrictMode,
	})
	respondNoContent(w)
}

func (h *AdminHandler) Users(w http.ResponseWriter, r *http.Request) {
	users, total, err := h.userService.List(r.Context(), pageParams(r))
	if err != nil {
		respondWithDomainError(w, r, err)
		return
	}
	respondWithPage(w, users, total)
}

func (h *AdminHandler) Companies(w http.ResponseWriter, r *http.Request) {
	companies, err := h.companyService.List(r.Context(), actor(r), pageParams(r))
	if err != nil {
		respondWithDomainError(w, r, err)
		return
	}
	respondWithData(w, http.StatusOK, companies)
}

func (h *AdminHandler) Memberships(w http.ResponseWriter, r *http.Request) {
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

func (h *AdminHandler) Invites(w http.ResponseWriter, r *http.Request) {
	invites, total, err := h.inviteService.ListAll(r.Context(), pageParams(r))
	if err != nil {
		respondWithDomainError(w, r, err)
		return
	}
	respondWithPage(w, invites, total)
}

func (h *AdminHandler) SweepInvites(w http.ResponseWriter, r *http.Request) {
	deleted, err := h.inviteService.SweepExpired(r.Context())
	if err != nil {
		respondWithDomainError(w, r, err)
		return
	}
	respondWithData(w, http.StatusOK, map[string]int64{"deleted": deleted})
}
