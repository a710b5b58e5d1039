package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/coder/websocket"

	"github.com/mathviz/mathviz/backend-go/internal/engine"
	"github.com/mathviz/mathviz/backend-go/internal/export"
	"github.com/mathviz/mathviz/backend-go/internal/render"
	"github.com/mathviz/mathviz/backend-go/internal/scene"
	"github.com/mathviz/mathviz/backend-go/internal/snapshot"
	"github.com/mathviz/mathviz/backend-go/internal/typeid"
)

var ErrStopped = errors.New("session hub stopped")

// Store loads and saves scene documents on behalf of a user.
type Store interface {
	LatestDocument(ctx context.Context, sceneID, userID string) (*scene.Document, error)
	Save(ctx context.Context, sceneID, userID string, doc *scene.Document) (*snapshot.Snapshot, error)
}

type Hub struct {
	mu       sync.RWMutex
	sessions map[string]*Session // sessionID -> session

	register   chan *Session
	unregister chan *Session
	stopped    chan struct{}
	stopOnce   sync.Once

	store    Store
	renderer *render.Renderer
	opts     engine.Options
	autosave time.Duration
}

// NewHub creates a hub whose sessions start from opts and save every
// autosave interval while they have unsaved changes.
func NewHub(store Store, renderer *render.Renderer, opts engine.Options, autosave time.Duration) *Hub {
	if autosave <= 0 {
		autosave = 30 * time.Second
	}
	return &Hub{
		sessions:   make(map[string]*Session),
		register:   make(chan *Session),
		unregister: make(chan *Session),
		stopped:    make(chan struct{}),
		store:      store,
		renderer:   renderer,
		opts:       opts,
		autosave:   autosave,
	}
}

func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case s := <-h.register:
			h.addSession(s)
		case s := <-h.unregister:
			h.removeSession(s)
		case <-ctx.Done():
			h.Stop(context.Background())
			return
		case <-h.stopped:
			return
		}
	}
}

func (h *Hub) Register(s *Session) error {
	select {
	case h.register <- s:
		return nil
	case <-h.stopped:
		return ErrStopped
	}
}

func (h *Hub) Unregister(s *Session) {
	select {
	case h.unregister <- s:
	case <-h.stopped:
	}
}

// addSession starts the session's run loop once it is visible to Exports.
func (h *Hub) addSession(s *Session) {
	select {
	case <-h.stopped:
		s.Close()
		go s.run(h.autosave)
		return
	default:
	}

	h.mu.Lock()
	h.sessions[s.ID] = s
	n := len(h.sessions)
	h.mu.Unlock()

	go s.run(h.autosave)
	slog.Info("session opened", "session", s.ID, "scene", s.SceneID, "user", s.UserID, "open", n)
}

func (h *Hub) removeSession(s *Session) {
	h.mu.Lock()
	_, ok := h.sessions[s.ID]
	delete(h.sessions, s.ID)
	h.mu.Unlock()
	if !ok {
		return
	}

	s.Close()
	slog.Info("session closed", "session", s.ID, "scene", s.SceneID, "user", s.UserID)
}

// Open loads the newest document of a scene into a fresh engine. The
// session does nothing until it is handed to Serve.
func (h *Hub) Open(ctx context.Context, sceneID, userID string) (*Session, error) {
	doc, err := h.store.LatestDocument(ctx, sceneID, userID)
	if err != nil {
		return nil, err
	}

	opts := h.opts
	opts.Area = doc.Type
	opts.Notifier = nil
	e := engine.New(opts)
	if err := e.LoadDocument(doc); err != nil {
		e.Close()
		return nil, fmt.Errorf("load scene %s: %w", sceneID, err)
	}

	s := &Session{
		ID:       typeid.NewSessionID(),
		SceneID:  sceneID,
		UserID:   userID,
		hub:      h,
		engine:   e,
		exports:  export.NewRegistry(),
		in:       make(chan []byte, inboxSize),
		send:     make(chan []byte, outboxSize),
		savedRev: e.Revision(),
		done:     make(chan struct{}),
		finished: make(chan struct{}),
	}
	e.SetNotifier(engine.NotifierFunc(s.notify))

	unhook, err := s.exports.Register(e.Area(), export.EngineCapture(e, h.renderer))
	if err != nil {
		e.Close()
		return nil, err
	}
	s.unhook = unhook
	return s, nil
}

// Serve runs an opened session over conn until the client goes away.
func (h *Hub) Serve(ctx context.Context, conn *websocket.Conn, s *Session) {
	s.conn = conn
	if err := h.Register(s); err != nil {
		h.Discard(s)
		conn.Close(websocket.StatusGoingAway, "server shutting down")
		return
	}

	go s.WritePump(ctx)
	s.ReadPump(ctx)
}

// Discard releases a session that was opened but never served.
func (h *Hub) Discard(s *Session) {
	s.unhook()
	s.engine.Close()
}

// Exports finds a live session's export registry and its owner.
func (h *Hub) Exports(sessionID string) (*export.Registry, string, bool) {
	h.mu.RLock()
	s, ok := h.sessions[sessionID]
	h.mu.RUnlock()
	if !ok {
		return nil, "", false
	}
	return s.exports, s.UserID, true
}

// Len is the number of live sessions.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions)
}

// Stop closes every session and waits for their final saves, or for ctx.
func (h *Hub) Stop(ctx context.Context) {
	h.stopOnce.Do(func() { close(h.stopped) })

	h.mu.Lock()
	sessions := make([]*Session, 0, len(h.sessions))
	for _, s := range h.sessions {
		sessions = append(sessions, s)
	}
	h.sessions = make(map[string]*Session)
	h.mu.Unlock()

	for _, s := range sessions {
		s.Close()
	}
	for _, s := range sessions {
		select {
		case <-s.Finished():
		case <-ctx.Done():
			slog.Warn("gave up waiting for session save", "session", s.ID, "scene", s.SceneID)
			return
		}
	}
	slog.Info("session hub stopped", "saved", len(sessions))
}
