package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"casedeck-backend/internal/middleware"
	"casedeck-backend/internal/models"
	"casedeck-backend/internal/services"
)

type StudyHandler struct {
	studyService *services.StudyService
}

func NewStudyHandler(studyService *services.StudyService) *StudyHandler {
	return &StudyHandler{studyService: studyService}
}

// Start opens a study session. An empty body or missing case_id studies all
// cases shuffled; a case_id studies that single case in original card order.
func (h *StudyHandler) Start(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CaseID *string `json:"case_id"`
	}
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
			return
		}
	}

	var caseID *uuid.UUID
	if req.CaseID != nil && *req.CaseID != "" {
		id, err := uuid.Parse(*req.CaseID)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid case_id", r))
			return
		}
		caseID = &id
	}

	userID := middleware.GetUserID(r.Context())
	view, err := h.studyService.Start(r.Context(), userID, caseID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, view)
}

func (h *StudyHandler) Current(w http.ResponseWriter, r *http.Request) {
	h.withSession(w, r, h.studyService.Current)
}

func (h *StudyHandler) Next(w http.ResponseWriter, r *http.Request) {
	h.withSession(w, r, h.studyService.Next)
}

func (h *StudyHandler) Prev(w http.ResponseWriter, r *http.Request) {
	h.withSession(w, r, h.studyService.Prev)
}

func (h *StudyHandler) Flip(w http.ResponseWriter, r *http.Request) {
	h.withSession(w, r, h.studyService.Flip)
}

func (h *StudyHandler) Close(w http.ResponseWriter, r *http.Request) {
	sessionID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid session ID", r))
		return
	}

	userID := middleware.GetUserID(r.Context())
	if err := h.studyService.Close(r.Context(), userID, sessionID); err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Study session closed"})
}

func (h *StudyHandler) withSession(
	w http.ResponseWriter,
	r *http.Request,
	op func(ctx context.Context, userID, sessionID uuid.UUID) (*models.StudyCardView, error),
) {
	sessionID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid session ID", r))
		return
	}

	userID := middleware.GetUserID(r.Context())
	view, err := op(r.Context(), userID, sessionID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, view)
}
