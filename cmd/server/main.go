package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/jacob1911/pencil-app/internal/asset"
	"github.com/jacob1911/pencil-app/internal/auth"
	"github.com/jacob1911/pencil-app/internal/config"
	"github.com/jacob1911/pencil-app/internal/document"
	"github.com/jacob1911/pencil-app/internal/export"
	mw "github.com/jacob1911/pencil-app/internal/middleware"
	"github.com/jacob1911/pencil-app/internal/session"
	"github.com/jacob1911/pencil-app/internal/store"
	"github.com/jacob1911/pencil-app/internal/trace"
)

// sandboxTraceID is the shared try-it-out room: anonymous access, nothing
// persisted.
const sandboxTraceID = "trace_sandbox"

func main() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})))

	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	st, err := store.New(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("connect to database", "error", err)
		os.Exit(1)
	}
	defer st.Close()

	authService := auth.NewService(st, cfg.JWTSecret)
	authHandler := auth.NewHandler(authService)

	traceService := trace.NewService(st)
	traceHandler := trace.NewHandler(traceService)

	// Document loader for the session hub
	docLoader := func(traceID string) (*document.TraceDocument, error) {
		if traceID == sandboxTraceID {
			return document.NewEmptyDocument("", 0, 0), nil
		}
		// Background context since this runs in a room goroutine
		return traceService.LatestDocument(context.Background(), traceID)
	}

	// Document saver for the session hub
	docSaver := func(traceID string, doc *document.TraceDocument) error {
		if traceID == sandboxTraceID {
			return nil
		}
		return traceService.SaveSnapshot(context.Background(), traceID, doc)
	}

	hub := session.NewHub(docLoader, docSaver)
	go hub.Run()

	assetHandler := asset.NewHandler(cfg.ImageDir)
	exportHandler := export.NewHandler(assetHandler)

	wsOrigins := originPatterns(cfg.AllowedOrigins)

	r := mux.NewRouter()

	// Global middleware
	r.Use(mw.Recovery)
	r.Use(mw.Logger)
	r.Use(mw.CORS(cfg.AllowedOrigins))

	// Auth routes (public)
	r.HandleFunc("/auth/register", authHandler.Register).Methods("POST")
	r.HandleFunc("/auth/login", authHandler.Login).Methods("POST")

	// Health check
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	// Image endpoints (public, shared by the sandbox and signed-in users)
	r.HandleFunc("/images/upload", assetHandler.Upload).Methods("POST", "OPTIONS")
	r.PathPrefix("/images/").Handler(assetHandler.Serve()).Methods("GET")

	// Export endpoints (public, the sandbox exports without an account)
	r.HandleFunc("/export/merge", exportHandler.Merge).Methods("POST", "OPTIONS")
	r.HandleFunc("/export/svg", exportHandler.ExportSVG).Methods("POST", "OPTIONS")
	r.HandleFunc("/export/pdf", exportHandler.ExportPDF).Methods("POST", "OPTIONS")

	// Protected API routes
	api := r.PathPrefix("/api").Subrouter()
	api.Use(authService.AuthMiddleware)

	api.HandleFunc("/me", authHandler.Me).Methods("GET")
	api.HandleFunc("/traces", traceHandler.List).Methods("GET")
	api.HandleFunc("/traces", traceHandler.Create).Methods("POST")
	api.HandleFunc("/traces/{traceId}", traceHandler.Get).Methods("GET")
	api.HandleFunc("/traces/{traceId}", traceHandler.Delete).Methods("DELETE")
	api.HandleFunc("/traces/{traceId}/document", traceHandler.GetDocument).Methods("GET")

	// WebSocket endpoint
	r.HandleFunc("/ws/trace/{traceId}", func(w http.ResponseWriter, r *http.Request) {
		handleWebSocket(w, r, hub, authService, traceService, wsOrigins)
	})

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down server")

		// Stop hub first to save all dirty documents
		hub.Stop()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		srv.Shutdown(shutdownCtx)
	}()

	slog.Info("server starting", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}

func handleWebSocket(w http.ResponseWriter, r *http.Request, hub *session.Hub, authSvc *auth.Service, traceSvc *trace.Service, origins []string) {
	vars := mux.Vars(r)
	traceID := vars["traceId"]

	var userID string
	var displayName string

	if traceID == sandboxTraceID {
		// Anonymous user for the sandbox
		userID = "anon-" + uuid.New().String()[:8]
		displayName = "Anonymous"
	} else {
		// Auth via query param for real traces
		token := r.URL.Query().Get("token")
		if token == "" {
			http.Error(w, "missing token", http.StatusUnauthorized)
			return
		}

		var err error
		userID, err = authSvc.ValidateToken(token)
		if err != nil {
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}

		// Only the owner may open a trace session
		if _, err := traceSvc.Get(r.Context(), traceID, userID); err != nil {
			switch {
			case errors.Is(err, trace.ErrNotFound):
				http.Error(w, "trace not found", http.StatusNotFound)
			case errors.Is(err, trace.ErrForbidden):
				http.Error(w, "forbidden", http.StatusForbidden)
			default:
				slog.Error("check trace access", "trace", traceID, "error", err)
				http.Error(w, "internal error", http.StatusInternalServerError)
			}
			return
		}

		user, err := authSvc.GetUser(r.Context(), userID)
		if err != nil {
			http.Error(w, "user not found", http.StatusInternalServerError)
			return
		}
		displayName = user.DisplayName
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: origins,
	})
	if err != nil {
		slog.Error("websocket accept", "error", err)
		return
	}

	clientID := uuid.New().String()
	client := session.NewClient(hub, conn, userID, displayName, traceID, clientID)

	hub.Register(client)

	ctx := r.Context()
	go client.WritePump(ctx)
	client.ReadPump(ctx)
}

// originPatterns strips the scheme off the configured origins for the
// websocket origin check.
func originPatterns(allowedOrigins string) []string {
	var patterns []string
	for _, o := range strings.Split(allowedOrigins, ",") {
		o = strings.TrimSpace(o)
		o = strings.TrimPrefix(o, "https://")
		o = strings.TrimPrefix(o, "http://")
		if o != "" {
			patterns = append(patterns, o)
		}
	}
	return patterns
}
