package export

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/png"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/mathviz/mathviz/backend-go/internal/auth"
	"github.com/mathviz/mathviz/backend-go/internal/engine"
	"github.com/mathviz/mathviz/backend-go/internal/render"
	"github.com/mathviz/mathviz/backend-go/internal/scene"
	"github.com/mathviz/mathviz/backend-go/internal/snapshot"
	"github.com/mathviz/mathviz/backend-go/internal/viewport"
)

// Sessions finds the export registry of a live session and the user who
// owns it.
type Sessions interface {
	Exports(sessionID string) (reg *Registry, ownerID string, ok bool)
}

// Documents loads the newest saved document of a scene.
type Documents interface {
	LatestDocument(ctx context.Context, sceneID, userID string) (*scene.Document, error)
}

type Handler struct {
	renderer *render.Renderer
	sessions Sessions
	docs     Documents
	opts     engine.Options
}

func NewHandler(renderer *render.Renderer, sessions Sessions, docs Documents, opts engine.Options) *Handler {
	return &Handler{renderer: renderer, sessions: sessions, docs: docs, opts: opts}
}

// CaptureSession serves the current frame of a live session's area.
func (h *Handler) CaptureSession(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())
	vars := mux.Vars(r)
	sessionID, area := vars["sessionId"], scene.Area(vars["area"])

	reg, owner, ok := h.sessions.Exports(sessionID)
	if !ok {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	if owner != userID {
		writeError(w, http.StatusForbidden, "forbidden")
		return
	}

	img, err := reg.Capture(area)
	switch {
	case errors.Is(err, ErrUnknownArea):
		writeError(w, http.StatusBadRequest, "invalid area")
		return
	case errors.Is(err, ErrNotRegistered), errors.Is(err, ErrNoFrame):
		writeError(w, http.StatusConflict, err.Error())
		return
	case err != nil:
		slog.Error("capture frame failed", "session", sessionID, "area", area, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writePNG(w, img, fmt.Sprintf("%s-%s", sessionID, area))
}

// RenderScene renders the newest saved document of a scene at the default
// view. Optional width and height query values resize the canvas.
func (h *Handler) RenderScene(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())
	sceneID := mux.Vars(r)["sceneId"]

	size, err := h.canvasSize(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	doc, err := h.docs.LatestDocument(r.Context(), sceneID, userID)
	if err != nil {
		snapshot.HandleServiceError(w, err)
		return
	}
	if doc.Type == scene.Area3D {
		writeError(w, http.StatusUnprocessableEntity, "3D scenes are rendered in the browser")
		return
	}

	opts := h.opts
	opts.Area = doc.Type
	opts.Canvas = size
	opts.Notifier = engine.NotifierFunc(func(msg string) {
		slog.Warn("render notice", "scene", sceneID, "message", msg)
	})
	e := engine.New(opts)
	defer e.Close()
	if err := e.LoadDocument(doc); err != nil {
		slog.Error("load document for render", "scene", sceneID, "error", err)
		writeError(w, http.StatusUnprocessableEntity, "document cannot be rendered")
		return
	}

	img, err := h.renderer.Draw(e.Frame())
	if err != nil {
		if errors.Is(err, render.ErrBadSize) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		slog.Error("render scene failed", "scene", sceneID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writePNG(w, img, sceneID)
}

func (h *Handler) canvasSize(r *http.Request) (viewport.Size, error) {
	size := h.opts.Canvas
	q := r.URL.Query()
	for _, dim := range []struct {
		key string
		dst *float64
	}{{"width", &size.Width}, {"height", &size.Height}} {
		v := q.Get(dim.key)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > render.MaxSide {
			return size, fmt.Errorf("invalid %s", dim.key)
		}
		*dim.dst = float64(n)
	}
	return size, nil
}

func writePNG(w http.ResponseWriter, img image.Image, name string) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		slog.Error("encode png", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`inline; filename="%s.png"`, name))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	buf.WriteTo(w)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
