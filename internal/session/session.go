package session

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/coder/websocket"

	"github.com/mathviz/mathviz/backend-go/internal/engine"
	"github.com/mathviz/mathviz/backend-go/internal/export"
	"github.com/mathviz/mathviz/backend-go/internal/scene"
)

const (
	writeWait  = 10 * time.Second
	pingPeriod = 30 * time.Second
	saveWait   = 10 * time.Second
	maxMsgSize = 1 << 20
	inboxSize  = 64
	outboxSize = 256
)

// Session is one websocket connection driving its own engine. The engine is
// touched only by the run loop; the pumps exchange raw bytes with it.
type Session struct {
	ID      string
	SceneID string
	UserID  string

	hub     *Hub
	conn    *websocket.Conn
	engine  *engine.Engine
	exports *export.Registry
	unhook  func()

	in   chan []byte
	send chan []byte

	seq      int64
	savedRev uint64

	closeOnce sync.Once
	done      chan struct{}
	finished  chan struct{}
}

// Exports is the session's export registry.
func (s *Session) Exports() *export.Registry { return s.exports }

// Area is the canvas area of the session's scene.
func (s *Session) Area() scene.Area { return s.engine.Area() }

// Close stops the run loop, which saves unsaved changes on its way out.
func (s *Session) Close() {
	s.closeOnce.Do(func() { close(s.done) })
}

// Finished is closed once the run loop has saved and exited.
func (s *Session) Finished() <-chan struct{} { return s.finished }

// run owns the engine until the session closes.
func (s *Session) run(autosave time.Duration) {
	defer close(s.finished)
	defer close(s.send)
	defer s.unhook()

	ticker := time.NewTicker(autosave)
	defer ticker.Stop()

	s.sendJSON(TypeWelcome, WelcomePayload{SessionID: s.ID, SceneID: s.SceneID, Area: s.engine.Area()})
	s.sendFrame(s.engine.Render())

	for {
		select {
		case data := <-s.in:
			s.handle(data)
		case <-ticker.C:
			s.save(false)
		case <-s.done:
			s.save(false)
			s.engine.Close()
			return
		}
	}
}

func (s *Session) handle(data []byte) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		slog.Warn("invalid message", "error", err, "session", s.ID)
		s.sendJSON(TypeError, ErrorPayload{Reason: "invalid message"})
		return
	}

	if msg.Type == TypeDocumentSave {
		s.save(true)
		return
	}

	frame, err := Apply(s.engine, &msg)
	if err != nil {
		if errors.Is(err, ErrUnknownType) {
			slog.Warn("unknown message type", "type", msg.Type, "session", s.ID)
		} else {
			slog.Debug("rejected message", "type", msg.Type, "error", err, "session", s.ID)
		}
		s.sendJSON(TypeError, ErrorPayload{Reason: err.Error(), Type: msg.Type})
		return
	}
	if frame != "" {
		s.sendFrame(frame)
	}
}

// save stores the engine's document when it changed since the last save,
// or always when forced.
func (s *Session) save(force bool) {
	rev := s.engine.Revision()
	if !force && rev == s.savedRev {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), saveWait)
	defer cancel()

	snap, err := s.hub.store.Save(ctx, s.SceneID, s.UserID, s.engine.Document())
	if err != nil {
		slog.Error("save scene failed", "error", err, "scene", s.SceneID, "session", s.ID)
		s.sendJSON(TypeError, ErrorPayload{Reason: "save failed", Type: TypeDocumentSave})
		return
	}
	s.savedRev = rev
	slog.Debug("scene saved", "scene", s.SceneID, "version", snap.Version, "session", s.ID)
	s.sendJSON(TypeSaved, SavedPayload{Version: snap.Version})
}

func (s *Session) notify(message string) {
	s.sendJSON(TypeNotice, NoticePayload{Message: message})
}

func (s *Session) sendFrame(frame string) {
	s.sendRaw(TypeFrame, json.RawMessage(frame))
}

func (s *Session) sendJSON(typ string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		slog.Error("marshal payload", "error", err, "type", typ)
		return
	}
	s.sendRaw(typ, data)
}

func (s *Session) sendRaw(typ string, payload json.RawMessage) {
	s.seq++
	data, err := json.Marshal(&Message{Type: typ, SessionID: s.ID, Seq: s.seq, Payload: payload})
	if err != nil {
		slog.Error("marshal message", "error", err)
		return
	}

	select {
	case s.send <- data:
	default:
		slog.Warn("session send buffer full, dropping message", "type", typ, "session", s.ID)
	}
}

func (s *Session) ReadPump(ctx context.Context) {
	defer func() {
		s.hub.Unregister(s)
		s.conn.Close(websocket.StatusNormalClosure, "")
	}()

	s.conn.SetReadLimit(maxMsgSize)

	for {
		_, data, err := s.conn.Read(ctx)
		if err != nil {
			if websocket.CloseStatus(err) == websocket.StatusNormalClosure ||
				websocket.CloseStatus(err) == websocket.StatusGoingAway {
				return
			}
			slog.Debug("read error", "error", err, "session", s.ID)
			return
		}

		select {
		case s.in <- data:
		case <-s.done:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (s *Session) WritePump(ctx context.Context) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		s.conn.Close(websocket.StatusNormalClosure, "")
	}()

	for {
		select {
		case message, ok := <-s.send:
			if !ok {
				return
			}

			writeCtx, cancel := context.WithTimeout(ctx, writeWait)
			err := s.conn.Write(writeCtx, websocket.MessageText, message)
			cancel()
			if err != nil {
				slog.Debug("write error", "error", err, "session", s.ID)
				return
			}

		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, writeWait)
			err := s.conn.Ping(pingCtx)
			cancel()
			if err != nil {
				return
			}

		case <-ctx.Done():
			return
		}
	}
}
