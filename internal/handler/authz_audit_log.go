package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/dangerclosesec/bizcontrol/internal/repository"
	"github.com/dangerclosesec/bizcontrol/internal/service"
)

// AuthzAuditLogHandler handles API requests related to authorization audit logs
type AuthzAuditLogHandler struct {
	auditLogService *service.AuthzAuditLogService
}

// NewAuthzAuditLogHandler creates a new audit log handler
func NewAuthzAuditLogHandler(auditLogService *service.AuthzAuditLogService) *AuthzAuditLogHandler {
	return &AuthzAuditLogHandler{
		auditLogService: auditLogService,
	}
}

// GetAuditLogs handles requests to retrieve audit logs with filtering
func (h *AuthzAuditLogHandler) GetAuditLogs(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	params := repository.QueryParams{
		ActionType: q.Get("action_type"),
		EntityType: q.Get("entity_type"),
		EntityID:   q.Get("entity_id"),
		SubjectID:  q.Get("subject_id"),
		Permission: q.Get("permission"),
	}

	if resultStr := q.Get("result"); resultStr != "" {
		result, err := strconv.ParseBool(resultStr)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "result must be a boolean")
			return
		}
		params.Result = &result
	}

	for key, dst := range map[string]*time.Time{"start_time": &params.StartTime, "end_time": &params.EndTime} {
		raw := q.Get(key)
		if raw == "" {
			continue
		}
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, key+" must be an RFC3339 timestamp")
			return
		}
		*dst = t.UTC()
	}

	page := pageParams(r)
	params.Limit = page.Limit
	params.Offset = page.Offset

	logs, total, err := h.auditLogService.GetAuditLogs(r.Context(), actor(r), params)
	if err != nil {
		respondWithDomainError(w, r, err)
		return
	}
	respondWithPage(w, logs, total)
}

// GetAuditLogByID handles requests to retrieve a specific audit log by ID
func (h *AuthzAuditLogHandler) GetAuditLogByID(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}

	log, err := h.auditLogService.GetAuditLogByID(r.Context(), actor(r), id)
	if err != nil {
		respondWithDomainError(w, r, err)
		return
	}
	respondWithData(w, http.StatusOK, log)
}
