package session

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/coder/websocket"

	"github.com/mathviz/mathviz/backend-go/internal/engine"
	"github.com/mathviz/mathviz/backend-go/internal/render"
	"github.com/mathviz/mathviz/backend-go/internal/scene"
	"github.com/mathviz/mathviz/backend-go/internal/snapshot"
)

type memStore struct {
	mu    sync.Mutex
	docs  map[string]*scene.Document
	saves int
	saved chan int
}

func newMemStore() *memStore {
	return &memStore{
		docs: map[string]*scene.Document{
			"scene_geo":   scene.NewEmptyDocument(scene.AreaGeometry),
			"scene_graph": scene.NewSampleDocument(scene.AreaGraphing),
		},
		saved: make(chan int, 16),
	}
}

func (m *memStore) LatestDocument(_ context.Context, sceneID, userID string) (*scene.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.docs[sceneID]
	if !ok {
		return nil, snapshot.ErrNotFound
	}
	if userID != "owner" {
		return nil, snapshot.ErrForbidden
	}
	return doc, nil
}

func (m *memStore) Save(_ context.Context, sceneID, _ string, doc *scene.Document) (*snapshot.Snapshot, error) {
	m.mu.Lock()
	m.docs[sceneID] = doc
	m.saves++
	n := m.saves
	m.mu.Unlock()
	m.saved <- n
	return &snapshot.Snapshot{SceneID: sceneID, Version: n + 1}, nil
}

func newTestHub(t *testing.T, store Store) *Hub {
	t.Helper()
	rd, err := render.New()
	if err != nil {
		t.Fatalf("render.New: %v", err)
	}
	t.Cleanup(func() { rd.Close() })

	h := NewHub(store, rd, engine.DefaultOptions(), time.Hour)
	ctx, cancel := context.WithCancel(context.Background())
	go h.Run(ctx)
	t.Cleanup(func() {
		cancel()
		h.Stop(context.Background())
	})
	return h
}

func dial(t *testing.T, h *Hub, sceneID string) *websocket.Conn {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s, err := h.Open(r.Context(), sceneID, "owner")
		if err != nil {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}
		h.Serve(context.Background(), conn, s)
	}))
	t.Cleanup(srv.Close)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	conn, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.CloseNow() })
	return conn
}

func send(t *testing.T, conn *websocket.Conn, typ string, payload any) {
	t.Helper()
	msg := Message{Type: typ}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			t.Fatal(err)
		}
		msg.Payload = data
	}
	data, _ := json.Marshal(msg)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := conn.Write(ctx, websocket.MessageText, data); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func recv(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, data, err := conn.Read(ctx)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	return msg
}

func TestSessionFlow(t *testing.T) {
	store := newMemStore()
	h := newTestHub(t, store)
	conn := dial(t, h, "scene_geo")

	welcome := recv(t, conn)
	if welcome.Type != TypeWelcome {
		t.Fatalf("first message = %q", welcome.Type)
	}
	var w WelcomePayload
	json.Unmarshal(welcome.Payload, &w)
	if w.SceneID != "scene_geo" || w.Area != scene.AreaGeometry || !strings.HasPrefix(w.SessionID, "sess_") {
		t.Errorf("welcome = %+v", w)
	}
	if msg := recv(t, conn); msg.Type != TypeFrame {
		t.Fatalf("second message = %q", msg.Type)
	}

	reg, owner, ok := h.Exports(w.SessionID)
	if !ok || owner != "owner" {
		t.Fatalf("Exports(%s) = %v, %q, %v", w.SessionID, reg, owner, ok)
	}
	if areas := reg.Areas(); len(areas) != 1 || areas[0] != scene.AreaGeometry {
		t.Errorf("registered areas = %v", areas)
	}
	img, err := reg.Capture(scene.AreaGeometry)
	if err != nil {
		t.Fatalf("capture: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 1200 || b.Dy() != 800 {
		t.Errorf("capture bounds = %v", b)
	}

	send(t, conn, TypeToolSet, ToolPayload{Tool: string(engine.ToolPoint)})
	if msg := recv(t, conn); msg.Type != TypeFrame {
		t.Fatalf("tool.set reply = %q", msg.Type)
	}

	send(t, conn, TypeClick, PointPayload{X: 600, Y: 400})
	msg := recv(t, conn)
	if msg.Type != TypeFrame {
		t.Fatalf("click reply = %q", msg.Type)
	}
	var f engine.Frame
	if err := json.Unmarshal(msg.Payload, &f); err != nil {
		t.Fatalf("frame: %v", err)
	}
	if f.Area != scene.AreaGeometry || len(f.Commands) == 0 {
		t.Errorf("frame area %q with %d commands", f.Area, len(f.Commands))
	}

	send(t, conn, "input.shake", nil)
	msg = recv(t, conn)
	var ep ErrorPayload
	json.Unmarshal(msg.Payload, &ep)
	if msg.Type != TypeError || ep.Type != "input.shake" {
		t.Errorf("unknown type reply = %q %+v", msg.Type, ep)
	}

	send(t, conn, TypeDocumentSave, nil)
	msg = recv(t, conn)
	if msg.Type != TypeSaved {
		t.Fatalf("save reply = %q", msg.Type)
	}
	<-store.saved

	store.mu.Lock()
	shapes := len(store.docs["scene_geo"].Shapes)
	store.mu.Unlock()
	if shapes != 1 {
		t.Errorf("saved document has %d shapes, want 1", shapes)
	}
}

func TestSessionSavesOnClose(t *testing.T) {
	store := newMemStore()
	h := newTestHub(t, store)
	conn := dial(t, h, "scene_geo")

	recv(t, conn) // welcome
	recv(t, conn) // first frame
	send(t, conn, TypeToolSet, ToolPayload{Tool: string(engine.ToolPoint)})
	recv(t, conn)
	send(t, conn, TypeClick, PointPayload{X: 100, Y: 100})
	recv(t, conn)

	conn.Close(websocket.StatusNormalClosure, "")

	select {
	case <-store.saved:
	case <-time.After(5 * time.Second):
		t.Fatal("closing the connection did not save the scene")
	}
}

func TestOpenErrors(t *testing.T) {
	h := newTestHub(t, newMemStore())

	if _, err := h.Open(context.Background(), "scene_none", "owner"); !errors.Is(err, snapshot.ErrNotFound) {
		t.Errorf("missing scene err = %v", err)
	}
	if _, err := h.Open(context.Background(), "scene_geo", "other"); !errors.Is(err, snapshot.ErrForbidden) {
		t.Errorf("foreign scene err = %v", err)
	}
	if _, _, ok := h.Exports("sess_missing"); ok {
		t.Error("Exports found a session that was never opened")
	}
}

func TestApply(t *testing.T) {
	raw := func(v any) json.RawMessage {
		data, _ := json.Marshal(v)
		return data
	}

	tests := []struct {
		name      string
		msg       Message
		wantFrame bool
		wantErr   bool
	}{
		{"render", Message{Type: TypeRender}, true, false},
		{"click", Message{Type: TypeClick, Payload: raw(PointPayload{X: 10, Y: 10})}, true, false},
		{"click without payload", Message{Type: TypeClick}, false, true},
		{"click bad payload", Message{Type: TypeClick, Payload: json.RawMessage(`"x"`)}, false, true},
		{"pointer move without drag", Message{Type: TypePointer, Payload: raw(PointerPayload{Phase: "move"})}, false, false},
		{"pointer bad phase", Message{Type: TypePointer, Payload: raw(PointerPayload{Phase: "hover"})}, false, true},
		{"tick", Message{Type: TypeTick, Payload: raw(TickPayload{Timestamp: 16})}, true, false},
		{"tool", Message{Type: TypeToolSet, Payload: raw(ToolPayload{Tool: "Circle"})}, true, false},
		{"bad tool", Message{Type: TypeToolSet, Payload: raw(ToolPayload{Tool: "Lasso"})}, false, true},
		{"color", Message{Type: TypeColorSet, Payload: raw(ColorPayload{Color: "#ff0000"})}, false, false},
		{"zoom in", Message{Type: TypeZoom, Payload: raw(ZoomPayload{Direction: "in"})}, true, false},
		{"zoom sideways", Message{Type: TypeZoom, Payload: raw(ZoomPayload{Direction: "left"})}, false, true},
		{"snap", Message{Type: TypeSnap, Payload: raw(TogglePayload{Enabled: true})}, false, false},
		{"equations", Message{Type: TypeEquationsSet, Payload: raw(EquationsPayload{Equations: []string{"x^2"}})}, true, false},
		{"table add bad row", Message{Type: TypeTableAdd, Payload: raw(TableAddPayload{X: "a", Ys: []string{"1"}})}, false, false},
		{"table clear", Message{Type: TypeTableClear}, true, false},
		{"document load garbage", Message{Type: TypeDocumentLoad, Payload: json.RawMessage(`{"type":"nope"}`)}, false, false},
		{"sample", Message{Type: TypeDocumentSample}, true, false},
		{"unknown", Message{Type: "input.shake"}, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := engine.New(engine.Options{
				Area:     scene.AreaGraphing,
				Canvas:   engine.DefaultOptions().Canvas,
				Notifier: engine.NotifierFunc(func(string) {}),
			})
			defer e.Close()

			frame, err := Apply(e, &tt.msg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if (frame != "") != tt.wantFrame {
				t.Errorf("frame = %q, wantFrame %v", frame, tt.wantFrame)
			}
		})
	}

	e := engine.New(engine.DefaultOptions())
	defer e.Close()
	if _, err := Apply(e, &Message{Type: "input.shake"}); !errors.Is(err, ErrUnknownType) {
		t.Errorf("unknown type err = %v", err)
	}
}
