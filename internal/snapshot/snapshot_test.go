package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"

	"github.com/mathviz/mathviz/backend-go/internal/auth"
	"github.com/mathviz/mathviz/backend-go/internal/geom"
	"github.com/mathviz/mathviz/backend-go/internal/scene"
)

// repos returns every repository available to the test run. Postgres joins
// when MATHVIZ_TEST_POSTGRES holds a connection url.
func repos(t *testing.T) map[string]Repository {
	t.Helper()
	ctx := context.Background()
	out := map[string]Repository{}

	lite, err := Open(ctx, "sqlite://"+filepath.Join(t.TempDir(), "db", "test.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { lite.Close() })
	out["sqlite"] = lite

	if url := os.Getenv("MATHVIZ_TEST_POSTGRES"); url != "" {
		pg, err := Open(ctx, url)
		if err != nil {
			t.Fatalf("open postgres: %v", err)
		}
		t.Cleanup(func() { pg.Close() })
		out["postgres"] = pg
	}
	return out
}

func TestOpenRejectsUnknownScheme(t *testing.T) {
	for _, url := range []string{"mysql://x", "sqlite://", "nothing"} {
		if _, err := Open(context.Background(), url); !errors.Is(err, ErrUnsupported) {
			t.Errorf("Open(%q) error = %v", url, err)
		}
	}
}

func TestServiceLifecycle(t *testing.T) {
	for name, repo := range repos(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			svc := NewService(repo)

			sc, err := svc.Create(ctx, "Parabola", scene.AreaGraphing, "user-1")
			if err != nil {
				t.Fatalf("Create: %v", err)
			}
			if !strings.HasPrefix(sc.ID, "scene_") {
				t.Errorf("id = %q", sc.ID)
			}

			snap, err := svc.Latest(ctx, sc.ID, "user-1")
			if err != nil || snap.Version != 1 {
				t.Fatalf("Latest = %+v, %v", snap, err)
			}

			doc := &scene.Document{
				Type:      scene.AreaGraphing,
				Equations: []scene.Equation{{Value: "x^2"}},
				Shapes:    []scene.Element{scene.NewPoint(geom.V(10, 20), "A", scene.ColorPoint)},
				Timestamp: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
			}
			saved, err := svc.Save(ctx, sc.ID, "user-1", doc)
			if err != nil || saved.Version != 2 {
				t.Fatalf("Save = %+v, %v", saved, err)
			}

			got, err := svc.LatestDocument(ctx, sc.ID, "user-1")
			if err != nil {
				t.Fatalf("LatestDocument: %v", err)
			}
			if len(got.Equations) != 1 || got.Equations[0].Value != "x^2" || len(got.Shapes) != 1 || got.Shapes[0].Label != "A" {
				t.Errorf("document = %+v", got)
			}

			list, err := svc.List(ctx, "user-1")
			if err != nil || len(list) != 1 || list[0].ID != sc.ID {
				t.Errorf("List = %+v, %v", list, err)
			}
			if list, _ := svc.List(ctx, "user-2"); len(list) != 0 {
				t.Errorf("other user sees %+v", list)
			}

			if err := svc.Delete(ctx, sc.ID, "user-1"); err != nil {
				t.Fatalf("Delete: %v", err)
			}
			if _, err := svc.Get(ctx, sc.ID, "user-1"); !errors.Is(err, ErrNotFound) {
				t.Errorf("Get after delete = %v", err)
			}
		})
	}
}

func TestServiceErrors(t *testing.T) {
	for name, repo := range repos(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			svc := NewService(repo)
			sc, err := svc.Create(ctx, "Triangle", scene.AreaGeometry, "owner")
			if err != nil {
				t.Fatalf("Create: %v", err)
			}

			tests := []struct {
				name string
				err  error
				want error
			}{
				{"bad area", func() error { _, err := svc.Create(ctx, "x", "4dgraph", "owner"); return err }(), ErrInvalidArea},
				{"stranger reads", func() error { _, err := svc.Latest(ctx, sc.ID, "stranger"); return err }(), ErrForbidden},
				{"stranger deletes", svc.Delete(ctx, sc.ID, "stranger"), ErrForbidden},
				{"missing scene", func() error { _, err := svc.Get(ctx, "scene_missing", "owner"); return err }(), ErrNotFound},
				{"wrong area", func() error {
					_, err := svc.Save(ctx, sc.ID, "owner", &scene.Document{Type: scene.AreaGraphing})
					return err
				}(), scene.ErrAreaMismatch},
			}
			for _, tt := range tests {
				t.Run(tt.name, func(t *testing.T) {
					if !errors.Is(tt.err, tt.want) {
						t.Errorf("err = %v, want %v", tt.err, tt.want)
					}
				})
			}
		})
	}
}

func TestServicePrunes(t *testing.T) {
	for name, repo := range repos(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			svc := NewService(repo)
			svc.keep = 2
			sc, err := svc.Create(ctx, "Busy", scene.AreaGraphing, "owner")
			if err != nil {
				t.Fatalf("Create: %v", err)
			}
			for range 4 {
				if _, err := svc.Save(ctx, sc.ID, "owner", &scene.Document{Type: scene.AreaGraphing}); err != nil {
					t.Fatalf("Save: %v", err)
				}
			}
			// Versions 1..5 written, 4 and 5 kept.
			if n, err := repo.PruneSnapshots(ctx, sc.ID, 2); err != nil || n != 0 {
				t.Errorf("second prune removed %d, %v", n, err)
			}
			latest, err := repo.LatestSnapshot(ctx, sc.ID)
			if err != nil || latest.Version != 5 {
				t.Errorf("latest = %+v, %v", latest, err)
			}
		})
	}
}

func newTestRouter(t *testing.T) (*mux.Router, *Service) {
	t.Helper()
	svc := NewService(repos(t)["sqlite"])
	h := NewHandler(svc)

	r := mux.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(auth.WithUserID(req.Context(), req.Header.Get("X-User"))))
		})
	})
	r.HandleFunc("/scenes", h.List).Methods("GET")
	r.HandleFunc("/scenes", h.Create).Methods("POST")
	r.HandleFunc("/scenes/{sceneId}", h.Get).Methods("GET")
	r.HandleFunc("/scenes/{sceneId}", h.Delete).Methods("DELETE")
	r.HandleFunc("/scenes/{sceneId}/snapshots/latest", h.GetLatestSnapshot).Methods("GET")
	r.HandleFunc("/scenes/{sceneId}/snapshots", h.SaveSnapshot).Methods("PUT")
	return r, svc
}

func do(r http.Handler, method, path, user, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("X-User", user)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestHandler(t *testing.T) {
	r, _ := newTestRouter(t)

	rec := do(r, "POST", "/scenes", "u1", `{"name":"Sine","area":"graphing"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d: %s", rec.Code, rec.Body)
	}
	var sc Scene
	if err := json.NewDecoder(rec.Body).Decode(&sc); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name   string
		method string
		path   string
		user   string
		body   string
		want   int
	}{
		{"create without name", "POST", "/scenes", "u1", `{}`, http.StatusBadRequest},
		{"create bad body", "POST", "/scenes", "u1", `{`, http.StatusBadRequest},
		{"create bad area", "POST", "/scenes", "u1", `{"name":"x","area":"nope"}`, http.StatusBadRequest},
		{"get", "GET", "/scenes/" + sc.ID, "u1", "", http.StatusOK},
		{"get forbidden", "GET", "/scenes/" + sc.ID, "u2", "", http.StatusForbidden},
		{"get missing", "GET", "/scenes/scene_none", "u1", "", http.StatusNotFound},
		{"save", "PUT", "/scenes/" + sc.ID + "/snapshots", "u1", `{"type":"graphing","equations":[{"value":"sin(x)"}]}`, http.StatusCreated},
		{"save wrong area", "PUT", "/scenes/" + sc.ID + "/snapshots", "u1", `{"type":"geometry","equations":[]}`, http.StatusUnprocessableEntity},
		{"save invalid", "PUT", "/scenes/" + sc.ID + "/snapshots", "u1", `not json`, http.StatusBadRequest},
		{"list", "GET", "/scenes", "u1", "", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if rec := do(r, tt.method, tt.path, tt.user, tt.body); rec.Code != tt.want {
				t.Errorf("status = %d, want %d: %s", rec.Code, tt.want, rec.Body)
			}
		})
	}

	rec = do(r, "GET", "/scenes/"+sc.ID+"/snapshots/latest", "u1", "")
	if rec.Code != http.StatusOK || rec.Header().Get("X-Snapshot-Version") != "2" {
		t.Fatalf("latest = %d %v", rec.Code, rec.Header())
	}
	doc, err := scene.Decode(rec.Body)
	if err != nil || len(doc.Equations) != 1 || doc.Equations[0].Value != "sin(x)" {
		t.Errorf("latest document = %+v, %v", doc, err)
	}

	if rec := do(r, "DELETE", "/scenes/"+sc.ID, "u1", ""); rec.Code != http.StatusNoContent {
		t.Errorf("delete status = %d", rec.Code)
	}
}
