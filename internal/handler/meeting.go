package handler

import (
	"net/http"

	"github.com/dangerclosesec/bizcontrol/internal/service"
	"github.com/go-chi/chi/v5"
)

type MeetingHandler struct {
	meetingService  *service.MeetingService
	calendarService *service.CalendarService
}

func NewMeetingHandler(meetingService *service.MeetingService, calendarService *service.CalendarService) *MeetingHandler {
	return &MeetingHandler{meetingService: meetingService, calendarService: calendarService}
}

func (h *MeetingHandler) List(w http.ResponseWriter, r *http.Request) {
	companyID, ok := uuidParam(w, r, "companyID")
	if !ok {
		return
	}

	meetings, err := h.meetingService.List(r.Context(), actor(r), companyID)
	if err != nil {
		respondWithDomainError(w, r, err)
		return
	}
	respondWithData(w, http.StatusOK, meetings)
}

func (h *MeetingHandler) Create(w http.ResponseWriter, r *http.Request) {
	companyID, ok := uuidParam(w, r, "companyID")
	if !ok {
		return
	}
	var input service.MeetingInput
	if !decodeJSON(w, r, &input) {
		return
	}

	meeting, err := h.meetingService.Create(r.Context(), actor(r), companyID, input)
	if err != nil {
		respondWithDomainError(w, r, err)
		return
	}
	respondWithData(w, http.StatusCreated, meeting)
}

func (h *MeetingHandler) Get(w http.ResponseWriter, r *http.Request) {
	companyID, ok := uuidParam(w, r, "companyID")
	if !ok {
		return
	}
	meetingID, ok := uuidParam(w, r, "meetingID")
	if !ok {
		return
	}

	meeting, err := h.meetingService.Get(r.Context(), actor(r), companyID, meetingID)
	if err != nil {
		respondWithDomainError(w, r, err)
		return
	}
	respondWithData(w, http.StatusOK, meeting)
}

func (h *MeetingHandler) Update(w http.ResponseWriter, r *http.Request) {
	companyID, ok := uuidParam(w, r, "companyID")
	if !ok {
		return
	}
	meetingID, ok := uuidParam(w, r, "meetingID")
	if !ok {
		return
	}
	var input service.MeetingInput
	if !decodeJSON(w, r, &input) {
		return
	}

	meeting, err := h.meetingService.Update(r.Context(), actor(r), companyID, meetingID, input)
	if err != nil {
		respondWithDomainError(w, r, err)
		return
	}
	respondWithData(w, http.StatusOK, meeting)
}

func (h *MeetingHandler) Delete(w http.ResponseWriter, r *http.Request) {
	companyID, ok := uuidParam(w, r, "companyID")
	if !ok {
		return
	}
	meetingID, ok := uuidParam(w, r, "meetingID")
	if !ok {
		return
	}

	if err := h.meetingService.Delete(r.Context(), actor(r), companyID, meetingID); err != nil {
		respondWithDomainError(w, r, err)
		return
	}
	respondNoContent(w)
}

func (h *MeetingHandler) ListAttendees(w http.ResponseWriter, r *http.Request) {
	companyID, ok := uuidParam(w, r, "companyID")
	if !ok {
		return
	}
	meetingID, ok := uuidParam(w, r, "meetingID")
	if !ok {
		return
	}

	attendees, err := h.meetingService.ListAttendees(r.Context(), actor(r), companyID, meetingID)
	if err != nil {
		respondWithDomainError(w, r, err)
		return
	}
	respondWithData(w, http.StatusOK, attendees)
}

func (h *MeetingHandler) AddAttendee(w http.ResponseWriter, r *http.Request) {
	companyID, ok := uuidParam(w, r, "companyID")
	if !ok {
		return
	}
	meetingID, ok := uuidParam(w, r, "meetingID")
	if !ok {
		return
	}
	var input service.AttendeeInput
	if !decodeJSON(w, r, &input) {
		return
	}

	attendee, err := h.meetingService.AddAttendee(r.Context(), actor(r), companyID, meetingID, input)
	if err != nil {
		respondWithDomainError(w, r, err)
		return
	}
	respondWithData(w, http.StatusCreated, attendee)
}

func (h *MeetingHandler) RemoveAttendee(w http.ResponseWriter, r *http.Request) {
	companyID, ok := uuidParam(w, r, "companyID")
	if !ok {
		return
	}
	meetingID, ok := uuidParam(w, r, "meetingID")
	if !ok {
		return
	}
	userID, ok := uuidParam(w, r, "userID")
	if !ok {
		return
	}

	if err := h.meetingService.RemoveAttendee(r.Context(), actor(r), companyID, meetingID, userID); err != nil {
		respondWithDomainError(w, r, err)
		return
	}
	respondNoContent(w)
}

// Calendar lists news, tasks and meetings of the day, month or year.
func (h *MeetingHandler) Calendar(w http.ResponseWriter, r *http.Request) {
	companyID, ok := uuidParam(w, r, "companyID")
	if !ok {
		return
	}

	calendar, err := h.calendarService.Get(r.Context(), actor(r), companyID, chi.URLParam(r, "scope"))
	if err != nil {
		respondWithDomainError(w, r, err)
		return
	}
	respondWithData(w, http.StatusOK, calendar)
}
