package handler

import (
	"net/http"
	"strconv"

	"github.com/dangerclosesec/bizcontrol/internal/domain"
	"github.com/dangerclosesec/bizcontrol/internal/service"
)

type TaskHandler struct {
	taskService   *service.TaskService
	ratingService *service.RatingService
}

func NewTaskHandler(taskService *service.TaskService, ratingService *service.RatingService) *TaskHandler {
	return &TaskHandler{taskService: taskService, ratingService: ratingService}
}

func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	companyID, ok := uuidParam(w, r, "companyID")
	if !ok {
		return
	}

	tasks, err := h.taskService.List(r.Context(), actor(r), companyID)
	if err != nil {
		respondWithDomainError(w, r, err)
		return
	}
	respondWithData(w, http.StatusOK, tasks)
}

func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	companyID, ok := uuidParam(w, r, "companyID")
	if !ok {
		return
	}
	var input service.TaskInput
	if !decodeJSON(w, r, &input) {
		return
	}

	task, err := h.taskService.Create(r.Context(), actor(r), companyID, input)
	if err != nil {
		respondWithDomainError(w, r, err)
		return
	}
	respondWithData(w, http.StatusCreated, task)
}

func (h *TaskHandler) Get(w http.ResponseWriter, r *http.Request) {
	companyID, ok := uuidParam(w, r, "companyID")
	if !ok {
		return
	}
	taskID, ok := uuidParam(w, r, "taskID")
	if !ok {
		return
	}

	task, err := h.taskService.Get(r.Context(), actor(r), companyID, taskID)
	if err != nil {
		respondWithDomainError(w, r, err)
		return
	}
	respondWithData(w, http.StatusOK, task)
}

func (h *TaskHandler) Update(w http.ResponseWriter, r *http.Request) {
	companyID, ok := uuidParam(w, r, "companyID")
	if !ok {
		return
	}
	taskID, ok := uuidParam(w, r, "taskID")
	if !ok {
		return
	}
	var patch service.TaskPatch
	if !decodeJSON(w, r, &patch) {
		return
	}

	task, err := h.taskService.Update(r.Context(), actor(r), companyID, taskID, patch)
	if err != nil {
		respondWithDomainError(w, r, err)
		return
	}
	respondWithData(w, http.StatusOK, task)
}

func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	companyID, ok := uuidParam(w, r, "companyID")
	if !ok {
		return
	}
	taskID, ok := uuidParam(w, r, "taskID")
	if !ok {
		return
	}

	if err := h.taskService.Delete(r.Context(), actor(r), companyID, taskID); err != nil {
		respondWithDomainError(w, r, err)
		return
	}
	respondNoContent(w)
}

func (h *TaskHandler) ListComments(w http.ResponseWriter, r *http.Request) {
	companyID, ok := uuidParam(w, r, "companyID")
	if !ok {
		return
	}
	taskID, ok := uuidParam(w, r, "taskID")
	if !ok {
		return
	}

	comments, err := h.taskService.ListComments(r.Context(), actor(r), companyID, taskID)
	if err != nil {
		respondWithDomainError(w, r, err)
		return
	}
	respondWithData(w, http.StatusOK, comments)
}

func (h *TaskHandler) AddComment(w http.ResponseWriter, r *http.Request) {
	companyID, ok := uuidParam(w, r, "companyID")
	if !ok {
		return
	}
	taskID, ok := uuidParam(w, r, "taskID")
	if !ok {
		return
	}
	var input service.CommentInput
	if !decodeJSON(w, r, &input) {
		return
	}

	comment, err := h.taskService.AddComment(r.Context(), actor(r), companyID, taskID, input)
	if err != nil {
		respondWithDomainError(w, r, err)
		return
	}
	respondWithData(w, http.StatusCreated, comment)
}

func (h *TaskHandler) UpdateComment(w http.ResponseWriter, r *http.Request) {
	companyID, ok := uuidParam(w, r, "companyID")
	if !ok {
		return
	}
	taskID, ok := uuidParam(w, r, "taskID")
	if !ok {
		return
	}
	commentID, ok := uuidParam(w, r, "commentID")
	if !ok {
		return
	}
	var input service.CommentInput
	if !decodeJSON(w, r, &input) {
		return
	}

	comment, err := h.taskService.UpdateComment(r.Context(), actor(r), companyID, taskID, commentID, input)
	if err != nil {
		respondWithDomainError(w, r, err)
		return
	}
	respondWithData(w, http.StatusOK, comment)
}

func (h *TaskHandler) DeleteComment(w http.ResponseWriter, r *http.Request) {
	companyID, ok := uuidParam(w, r, "companyID")
	if !ok {
		return
	}
	taskID, ok := uuidParam(w, r, "taskID")
	if !ok {
		return
	}
	commentID, ok := uuidParam(w, r, "commentID")
	if !ok {
		return
	}

	if err := h.taskService.DeleteComment(r.Context(), actor(r), companyID, taskID, commentID); err != nil {
		respondWithDomainError(w, r, err)
		return
	}
	respondNoContent(w)
}

func (h *TaskHandler) Evaluate(w http.ResponseWriter, r *http.Request) {
	companyID, ok := uuidParam(w, r, "companyID")
	if !ok {
		return
	}
	taskID, ok := uuidParam(w, r, "taskID")
	if !ok {
		return
	}
	var input service.RatingInput
	if !decodeJSON(w, r, &input) {
		return
	}

	rating, err := h.ratingService.Evaluate(r.Context(), actor(r), companyID, taskID, input)
	if err != nil {
		respondWithDomainError(w, r, err)
		return
	}
	respondWithData(w, http.StatusCreated, rating)
}

// Ratings returns the caller's quarterly summary. Missing year or quarter
// default to the current one.
func (h *TaskHandler) Ratings(w http.ResponseWriter, r *http.Request) {
	companyID, ok := uuidParam(w, r, "companyID")
	if !ok {
		return
	}

	var period [2]int
	for i, key := range []string{"year", "quarter"} {
		raw := r.URL.Query().Get(key)
		if raw == "" {
			continue
		}
		v, err := strconv.Atoi(raw)
		if err != nil {
			respondWithDomainError(w, r, domain.ErrInvalidPeriod)
			return
		}
		period[i] = v
	}

	summary, err := h.ratingService.Summary(r.Context(), actor(r), companyID, period[0], period[1])
	if err != nil {
		respondWithDomainError(w, r, err)
		return
	}
	respondWithData(w, http.StatusOK, summary)
}
