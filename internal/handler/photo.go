package handler

import (
	"encoding/base64"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/chippn/chippn/internal/auth"
	"github.com/chippn/chippn/internal/model"
	"github.com/chippn/chippn/internal/photos"
	"github.com/chippn/chippn/internal/store"
	"github.com/chippn/chippn/internal/verify"
)

// maxPhotoBytes bounds decoded photo size at 10 MB.
const maxPhotoBytes = 10 << 20

type PhotoHandler struct {
	photoStore   *photos.Store
	verifyClient *verify.Client
	choreStore   *store.ChoreStore
	logger       *slog.Logger
}

func NewPhotoHandler(ps *photos.Store, vc *verify.Client, cs *store.ChoreStore, logger *slog.Logger) *PhotoHandler {
	return &PhotoHandler{
		photoStore:   ps,
		verifyClient: vc,
		choreStore:   cs,
		logger:       logger,
	}
}

type photoUploadRequest struct {
	ImageBase64 string `json:"image_base64"`
}

// Upload stores a chore evidence photo and returns its public URL. The URL is
// attached to the assignment on the subsequent complete call.
func (h *PhotoHandler) Upload(w http.ResponseWriter, r *http.Request) {
	if h.photoStore == nil {
		writeError(w, http.StatusServiceUnavailable, "photo storage is not configured")
		return
	}

	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	assignment, c, ok := h.loadAssignment(w, r, id)
	if !ok {
		return
	}

	var req photoUploadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.ImageBase64 == "" {
		writeError(w, http.StatusBadRequest, "image is required")
		return
	}

	data, err := base64.StdEncoding.DecodeString(req.ImageBase64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid base64 image")
		return
	}
	if len(data) > maxPhotoBytes {
		writeError(w, http.StatusRequestEntityTooLarge, "image too large")
		return
	}

	url, err := h.photoStore.Upload(r.Context(), c.HouseholdID, assignment.ID, data)
	if err != nil {
		h.logger.Error("upload photo", "assignment_id", assignment.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to upload photo")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"photo_url": url})
}

type verifyRequest struct {
	ImageBase64 string `json:"image_base64"`
	MediaType   string `json:"media_type"`
}

// Verify asks the vision model whether the photo shows the chore done. The
// verdict is advisory and service failures resolve through the client's
// failure policy, so this endpoint always returns a result.
func (h *PhotoHandler) Verify(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	_, c, ok := h.loadAssignment(w, r, id)
	if !ok {
		return
	}

	var req verifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.ImageBase64 == "" {
		writeError(w, http.StatusBadRequest, "image is required")
		return
	}

	result := h.verifyClient.VerifyPhoto(r.Context(), req.ImageBase64, req.MediaType, c.Name, c.PhotoGuidance)
	writeJSON(w, http.StatusOK, result)
}

func (h *PhotoHandler) loadAssignment(w http.ResponseWriter, r *http.Request, id int64) (*model.ChoreAssignment, *model.Chore, bool) {
	assignment, err := h.choreStore.GetAssignment(id)
	if err != nil {
		h.logger.Error("get assignment", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get assignment")
		return nil, nil, false
	}
	if assignment == nil {
		writeError(w, http.StatusNotFound, "assignment not found")
		return nil, nil, false
	}

	c, err := h.choreStore.GetByID(assignment.ChoreID)
	if err != nil {
		h.logger.Error("get chore", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get chore")
		return nil, nil, false
	}
	if c == nil || c.HouseholdID != auth.HouseholdID(r.Context()) {
		writeError(w, http.StatusNotFound, "assignment not found")
		return nil, nil, false
	}
	return assignment, c, true
}
