// internal/handler/auth.go
package handler

import (
	"log/slog"
	"net/http"

	"github.com/dangerclosesec/bizcontrol/internal/model"
	"github.com/dangerclosesec/bizcontrol/internal/service"
	chmw "github.com/go-chi/chi/v5/middleware"
)

type AuthHandler struct {
	userService *service.UserService
}

func NewAuthHandler(userService *service.UserService) *AuthHandler {
	return &AuthHandler{userService: userService}
}

type AuthResponse struct {
	BaseResponse
	User  *model.User `json:"user"`
	Token string      `json:"token"`
}

func (h *AuthHandler) SignupHandler(w http.ResponseWriter, r *http.Request) {
	var input service.SignupInput
	if !decodeJSON(w, r, &input) {
		return
	}

	output, err := h.userService.Signup(r.Context(), input)
	if err != nil {
		slog.InfoContext(r.Context(), "User registration rejected", "error", err, "requestID", chmw.GetReqID(r.Context()))
		respondWithDomainError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, AuthResponse{
		BaseResponse: BaseResponse{Ok: true},
		User:         output.User,
		Token:        output.Token,
	})
}

func (h *AuthHandler) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var input service.LoginInput
	if !decodeJSON(w, r, &input) {
		return
	}

	output, err := h.userService.Login(r.Context(), input)
	if err != nil {
		respondWithDomainError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, AuthResponse{
		BaseResponse: BaseResponse{Ok: true},
		User:         output.User,
		Token:        output.Token,
	})
}

func (h *AuthHandler) MeHandler(w http.ResponseWriter, r *http.Request) {
	user, err := h.userService.Me(r.Context(), actor(r))
	if err != nil {
		respondWithDomainError(w, r, err)
		return
	}
	respondWithData(w, http.StatusOK, user)
}

func (h *AuthHandler) DeleteMeHandler(w http.ResponseWriter, r *http.Request) {
	if err := h.userService.DeleteMe(r.Context(), actor(r)); err != nil {
		respondWithDomainError(w, r, err)
		return
	}
	respondNoContent(w)
}
