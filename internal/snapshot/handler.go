package snapshot

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/mathviz/mathviz/backend-go/internal/auth"
	"github.com/mathviz/mathviz/backend-go/internal/scene"
)

const maxDocumentSize = 8 << 20 // 8MB

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type createRequest struct {
	Name string     `json:"name"`
	Area scene.Area `json:"area"`
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())

	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if req.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name is required"})
		return
	}
	if req.Area == "" {
		req.Area = scene.AreaGraphing
	}

	sc, err := h.service.Create(r.Context(), req.Name, req.Area, userID)
	if err != nil {
		HandleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, sc)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())
	sceneID := mux.Vars(r)["sceneId"]

	sc, err := h.service.Get(r.Context(), sceneID, userID)
	if err != nil {
		HandleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, sc)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())

	scenes, err := h.service.List(r.Context(), userID)
	if err != nil {
		slog.Error("list scenes failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}

	writeJSON(w, http.StatusOK, scenes)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())
	sceneID := mux.Vars(r)["sceneId"]

	if err := h.service.Delete(r.Context(), sceneID, userID); err != nil {
		HandleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// GetLatestSnapshot writes the newest saved document as is.
func (h *Handler) GetLatestSnapshot(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())
	sceneID := mux.Vars(r)["sceneId"]

	snap, err := h.service.Latest(r.Context(), sceneID, userID)
	if err != nil {
		HandleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Snapshot-Version", strconv.Itoa(snap.Version))
	w.WriteHeader(http.StatusOK)
	w.Write(snap.Document)
}

// SaveSnapshot stores the request body as the next version.
func (h *Handler) SaveSnapshot(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())
	sceneID := mux.Vars(r)["sceneId"]

	doc, err := scene.Decode(http.MaxBytesReader(w, r.Body, maxDocumentSize))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid document"})
		return
	}

	snap, err := h.service.Save(r.Context(), sceneID, userID, doc)
	if err != nil {
		HandleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{"id": snap.ID, "version": snap.Version})
}

// HandleServiceError maps service errors to JSON responses.
func HandleServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrNoSnapshot):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
	case errors.Is(err, ErrForbidden):
		writeJSON(w, http.StatusForbidden, map[string]string{"error": "forbidden"})
	case errors.Is(err, ErrInvalidArea):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid area"})
	case errors.Is(err, scene.ErrAreaMismatch):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
	default:
		slog.Error("service error", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
