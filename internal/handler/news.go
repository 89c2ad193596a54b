package handler

import (
	"net/http"

	"github.com/dangerclosesec/bizcontrol/internal/service"
)

type NewsHandler struct {
	newsService *service.NewsService
}

func NewNewsHandler(newsService *service.NewsService) *NewsHandler {
	return &NewsHandler{newsService: newsService}
}

func (h *NewsHandler) List(w http.ResponseWriter, r *http.Request) {
	companyID, ok := uuidParam(w, r, "companyID")
	if !ok {
		return
	}

	news, err := h.newsService.List(r.Context(), actor(r), companyID)
	if err != nil {
		respondWithDomainError(w, r, err)
		return
	}
	respondWithData(w, http.StatusOK, news)
}

func (h *NewsHandler) Create(w http.ResponseWriter, r *http.Request) {
	companyID, ok := uuidParam(w, r, "companyID")
	if !ok {
		return
	}
	var input service.NewsInput
	if !decodeJSON(w, r, &input) {
		return
	}

	news, err := h.newsService.Create(r.Context(), actor(r), companyID, input)
	if err != nil {
		respondWithDomainError(w, r, err)
		return
	}
	respondWithData(w, http.StatusCreated, news)
}

func (h *NewsHandler) Update(w http.ResponseWriter, r *http.Request) {
	companyID, ok := uuidParam(w, r, "companyID")
	if !ok {
		return
	}
	newsID, ok := uuidParam(w, r, "newsID")
	if !ok {
		return
	}
	var input service.NewsInput
	if !decodeJSON(w, r, &input) {
		return
	}

	news, err := h.newsService.Update(r.Context(), actor(r), companyID, newsID, input)
	if err != nil {
		respondWithDomainError(w, r, err)
		return
	}
	respondWithData(w, http.StatusOK, news)
}

func (h *NewsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	companyID, ok := uuidParam(w, r, "companyID")
	if !ok {
		return
	}
	newsID, ok := uuidParam(w, r, "newsID")
	if !ok {
		return
	}

	if err := h.newsService.Delete(r.Context(), actor(r), companyID, newsID); err != nil {
		respondWithDomainError(w, r, err)
		return
	}
	respondNoContent(w)
}
