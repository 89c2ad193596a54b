package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/dangerclosesec/bizcontrol/internal/domain"
	"github.com/dangerclosesec/bizcontrol/internal/middleware"
	"github.com/dangerclosesec/bizcontrol/internal/policy"
	"github.com/dangerclosesec/bizcontrol/internal/repository"
	"github.com/dangerclosesec/bizcontrol/internal/service"
	"github.com/go-chi/chi/v5"
	chmw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
)

type ErrorResponse struct { // TypeGen: ErrorResponse
	BaseResponse
	Error   string    `json:"error"`
	Details *[]string `json:"details,omitempty"`
}

type BaseResponse struct { // TypeGen: DefaultResponse
	Ok bool `json:"ok"`
}

// DataResponse wraps a successful payload.
type DataResponse struct {
	BaseResponse
	Data  interface{} `json:"data"`
	Total *int64      `json:"total,omitempty"`
}

func respondWithData(w http.ResponseWriter, code int, data interface{}) {
	respondWithJSON(w, code, DataResponse{BaseResponse: BaseResponse{Ok: true}, Data: data})
}

func respondWithPage(w http.ResponseWriter, data interface{}, total int64) {
	respondWithJSON(w, http.StatusOK, DataResponse{BaseResponse: BaseResponse{Ok: true}, Data: data, Total: &total})
}

func respondNoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// respondWithError sends an error response with a message
func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, ErrorResponse{Error: message})
}

// respondWithJSON sends a JSON response
func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)

	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

// statusFor maps an error category to its HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrUnprocessable):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

// respondWithDomainError answers with the status of err's category. Store
// failures and anything uncategorised are logged and hidden.
func respondWithDomainError(w http.ResponseWriter, r *http.Request, err error) {
	code := statusFor(err)

	var verr *service.ValidationError
	if errors.As(err, &verr) {
		details := verr.Details
		respondWithJSON(w, http.StatusUnprocessableEntity, ErrorResponse{Error: "Invalid input", Details: &details})
		return
	}

	if code == http.StatusInternalServerError {
		slog.ErrorContext(r.Context(), "Request failed", "error", err, "requestID", chmw.GetReqID(r.Context()))
		if errors.Is(err, domain.ErrInternal) {
			respondWithError(w, code, domain.Message(err))
			return
		}
		respondWithError(w, code, "Internal server error")
		return
	}
	respondWithError(w, code, domain.Message(err))
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return false
	}
	return true
}

// uuidParam parses a path parameter. A malformed id cannot name anything,
// so it answers 404.
func uuidParam(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		respondWithError(w, http.StatusNotFound, fmt.Sprintf("%s not found", name))
		return uuid.Nil, false
	}
	return id, true
}

func actor(r *http.Request) policy.Actor {
	a, _ := middleware.ActorFrom(r.Context())
	return a
}

func pageParams(r *http.Request) repository.PageParams {
	q := r.URL.Query()
	offset, _ := strconv.Atoi(q.Get("offset"))
	limit, _ := strconv.Atoi(q.Get("limit"))
	if offset < 0 {
		offset = 0
	}
	return repository.PageParams{Offset: offset, Limit: limit}
}
