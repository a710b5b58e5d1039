package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/coder/websocket"
	"github.com/gogpu/gg"
	"github.com/gorilla/mux"

	"github.com/mathviz/mathviz/backend-go/internal/auth"
	"github.com/mathviz/mathviz/backend-go/internal/config"
	"github.com/mathviz/mathviz/backend-go/internal/engine"
	"github.com/mathviz/mathviz/backend-go/internal/export"
	mw "github.com/mathviz/mathviz/backend-go/internal/middleware"
	"github.com/mathviz/mathviz/backend-go/internal/render"
	"github.com/mathviz/mathviz/backend-go/internal/session"
	"github.com/mathviz/mathviz/backend-go/internal/snapshot"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.Level()}))
	slog.SetDefault(logger)
	engine.SetLogger(logger.With("component", "engine"))
	gg.SetLogger(logger.With("component", "gg"))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	repo, err := snapshot.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("open scene store", "error", err)
		os.Exit(1)
	}
	defer repo.Close()

	authService, err := auth.NewService(cfg.JWTSecret)
	if err != nil {
		slog.Error("auth service", "error", err)
		os.Exit(1)
	}
	authHandler := auth.NewHandler(authService)

	sceneService := snapshot.NewService(repo)
	sceneHandler := snapshot.NewHandler(sceneService)

	renderer, err := render.New()
	if err != nil {
		slog.Error("load renderer", "error", err)
		os.Exit(1)
	}
	defer renderer.Close()

	opts := cfg.EngineOptions()
	hub := session.NewHub(sceneService, renderer, opts, cfg.AutosaveInterval)
	go hub.Run(ctx)

	exportHandler := export.NewHandler(renderer, hub, sceneService, opts)

	origins := cfg.Origins()

	r := mux.NewRouter()

	// Global middleware
	r.Use(mw.Recovery)
	r.Use(mw.Logger)
	r.Use(mw.CORS(origins))

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	r.HandleFunc("/auth/guest", authHandler.Guest).Methods("POST", "OPTIONS")

	// Protected API routes
	api := r.PathPrefix("/api").Subrouter()
	api.Use(authService.AuthMiddleware)

	api.HandleFunc("/me", authHandler.Me).Methods("GET")
	api.HandleFunc("/scenes", sceneHandler.List).Methods("GET")
	api.HandleFunc("/scenes", sceneHandler.Create).Methods("POST", "OPTIONS")
	api.HandleFunc("/scenes/{sceneId}", sceneHandler.Get).Methods("GET")
	api.HandleFunc("/scenes/{sceneId}", sceneHandler.Delete).Methods("DELETE", "OPTIONS")
	api.HandleFunc("/scenes/{sceneId}/snapshots/latest", sceneHandler.GetLatestSnapshot).Methods("GET")
	api.HandleFunc("/scenes/{sceneId}/snapshots", sceneHandler.SaveSnapshot).Methods("PUT", "OPTIONS")
	api.HandleFunc("/scenes/{sceneId}/export.png", exportHandler.RenderScene).Methods("GET")
	api.HandleFunc("/sessions/{sessionId}/export/{area}.png", exportHandler.CaptureSession).Methods("GET")

	// WebSocket endpoint, token in the query string
	acceptOpts := &websocket.AcceptOptions{OriginPatterns: mw.OriginHosts(origins)}
	r.Handle("/ws/scene/{sceneId}", authService.AuthMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handleWebSocket(w, r, hub, acceptOpts)
	})))

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down server")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer shutdownCancel()

		// Close sessions first so their final saves land before the store closes
		slog.Info("saving open scenes...")
		hub.Stop(shutdownCtx)

		srv.Shutdown(shutdownCtx)
	}()

	slog.Info("server starting", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}

func handleWebSocket(w http.ResponseWriter, r *http.Request, hub *session.Hub, opts *websocket.AcceptOptions) {
	sceneID := mux.Vars(r)["sceneId"]
	userID := auth.UserIDFromContext(r.Context())

	sess, err := hub.Open(r.Context(), sceneID, userID)
	if err != nil {
		snapshot.HandleServiceError(w, err)
		return
	}

	conn, err := websocket.Accept(w, r, opts)
	if err != nil {
		slog.Error("websocket accept", "error", err)
		hub.Discard(sess)
		return
	}

	hub.Serve(r.Context(), conn, sess)
}
