package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"casedeck-backend/internal/middleware"
	"casedeck-backend/internal/models"
	"casedeck-backend/internal/services"
)

const (
	maxSaveBodyBytes  = 50 * 1024 * 1024 // whole multipart save
	maxImageBytes     = 10 * 1024 * 1024 // single image part
	multipartMemLimit = 8 * 1024 * 1024
)

type CaseHandler struct {
	caseService *services.CaseService
}

func NewCaseHandler(caseService *services.CaseService) *CaseHandler {
	return &CaseHandler{caseService: caseService}
}

func (h *CaseHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	cases := h.caseService.List(r.Context(), userID)
	writeJSON(w, http.StatusOK, map[string]interface{}{"cases": cases})
}

func (h *CaseHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid case ID", r))
		return
	}

	userID := middleware.GetUserID(r.Context())
	c, err := h.caseService.Get(r.Context(), userID, id)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"case": c})
}

func (h *CaseHandler) Create(w http.ResponseWriter, r *http.Request) {
	draft, cleanup, ok := h.decodeDraft(w, r)
	if !ok {
		return
	}
	defer cleanup()

	userID := middleware.GetUserID(r.Context())
	c, err := h.caseService.Create(r.Context(), userID, draft)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{"case": c})
}

func (h *CaseHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid case ID", r))
		return
	}

	draft, cleanup, ok := h.decodeDraft(w, r)
	if !ok {
		return
	}
	defer cleanup()

	userID := middleware.GetUserID(r.Context())
	c, err := h.caseService.Update(r.Context(), userID, id, draft)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"case": c})
}

func (h *CaseHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid case ID", r))
		return
	}

	userID := middleware.GetUserID(r.Context())
	if err := h.caseService.Delete(r.Context(), userID, id); err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Case deleted"})
}

// decodeDraft accepts either a plain JSON body or multipart/form-data with a
// "case" JSON part plus front_image_<i>/back_image_<i> file parts. It writes
// the error response itself when decoding fails. The returned cleanup closes
// any opened file parts once the service is done with them.
func (h *CaseHandler) decodeDraft(w http.ResponseWriter, r *http.Request) (services.CaseDraft, func(), bool) {
	noop := func() {}

	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		return h.decodeMultipartDraft(w, r)
	}

	var req models.SaveCaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return services.CaseDraft{}, noop, false
	}
	return draftFromRequest(req), noop, true
}

func (h *CaseHandler) decodeMultipartDraft(w http.ResponseWriter, r *http.Request) (services.CaseDraft, func(), bool) {
	noop := func() {}

	r.Body = http.MaxBytesReader(w, r.Body, maxSaveBodyBytes)
	if err := r.ParseMultipartForm(multipartMemLimit); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid multipart body", r))
		return services.CaseDraft{}, noop, false
	}

	var req models.SaveCaseRequest
	if err := json.Unmarshal([]byte(r.FormValue("case")), &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid case payload", r))
		return services.CaseDraft{}, noop, false
	}

	draft := draftFromRequest(req)

	var closers []io.Closer
	cleanup := func() {
		for _, c := range closers {
			c.Close()
		}
		r.MultipartForm.RemoveAll()
	}

	for i := range draft.Flashcards {
		for _, side := range []struct {
			field  string
			target **services.ImageUpload
		}{
			{fmt.Sprintf("front_image_%d", i), &draft.Flashcards[i].NewFrontImage},
			{fmt.Sprintf("back_image_%d", i), &draft.Flashcards[i].NewBackImage},
		} {
			upload, closer, err := openImagePart(r, side.field)
			if err != nil {
				cleanup()
				writeJSON(w, http.StatusUnsupportedMediaType, errorResp("UNSUPPORTED_FORMAT", err.Error(), r))
				return services.CaseDraft{}, noop, false
			}
			if upload != nil {
				*side.target = upload
				closers = append(closers, closer)
			}
		}
	}

	return draft, cleanup, true
}

// openImagePart returns nil when the part is absent, an error when it is
// present but not an image or too large.
func openImagePart(r *http.Request, field string) (*services.ImageUpload, io.Closer, error) {
	file, header, err := r.FormFile(field)
	if err == http.ErrMissingFile {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("unreadable file part %s", field)
	}

	if header.Size > maxImageBytes {
		file.Close()
		return nil, nil, fmt.Errorf("image %s exceeds 10MB limit", field)
	}

	// Sniff the first bytes; only images are accepted.
	head := make([]byte, 512)
	n, _ := io.ReadFull(file, head)
	head = head[:n]
	if !strings.HasPrefix(http.DetectContentType(head), "image/") {
		file.Close()
		return nil, nil, fmt.Errorf("file part %s is not an image", field)
	}

	upload := &services.ImageUpload{
		Filename: header.Filename,
		Data:     io.MultiReader(bytes.NewReader(head), file),
	}
	return upload, file, nil
}

func draftFromRequest(req models.SaveCaseRequest) services.CaseDraft {
	draft := services.CaseDraft{
		Title: req.Title,
		Stems: req.Stems,
	}
	for _, fc := range req.Flashcards {
		draft.Flashcards = append(draft.Flashcards, services.FlashcardDraft{
			Front:              fc.Front,
			Back:               fc.Back,
			ExistingFrontImage: fc.FrontImage,
			ExistingBackImage:  fc.BackImage,
		})
	}
	return draft
}
