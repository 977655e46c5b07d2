package server

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/offnotes/offnotes/internal/attachment"
	"github.com/offnotes/offnotes/internal/blob"
	"github.com/offnotes/offnotes/internal/handler"
	"github.com/offnotes/offnotes/internal/middleware"
	"github.com/offnotes/offnotes/internal/store"
	ws "github.com/offnotes/offnotes/internal/websocket"
)

type Server struct {
	db           *sql.DB
	hub          *ws.Hub
	authH        *handler.AuthHandler
	folderH      *handler.FolderHandler
	noteH        *handler.NoteHandler
	attachmentH  *handler.AttachmentHandler
	searchH      *handler.SearchHandler
	sessionStore *store.SessionStore
	rateLimiter  *middleware.RateLimiter
	logger       *slog.Logger
}

func New(db *sql.DB, blobCfg blob.Config, logger *slog.Logger) *Server {
	hub := ws.NewHub(logger.With("component", "websocket"))

	userStore := store.NewUserStore(db)
	sessionStore := store.NewSessionStore(db)
	folderStore := store.NewFolderStore(db)
	noteStore := store.NewNoteStore(db)
	attachmentStore := store.NewAttachmentStore(db)

	blobStore := blob.New(blobCfg)
	attachmentMgr := attachment.NewManager(blobStore, attachmentStore, logger.With("component", "attachment"))

	return &Server{
		db:           db,
		hub:          hub,
		authH:        handler.NewAuthHandler(userStore, sessionStore, logger.With("component", "auth")),
		folderH:      handler.NewFolderHandler(folderStore, hub, logger.With("component", "folder")),
		noteH:        handler.NewNoteHandler(noteStore, folderStore, attachmentMgr, hub, logger.With("component", "note")),
		attachmentH:  handler.NewAttachmentHandler(attachmentMgr, noteStore, hub, logger.With("component", "file")),
		searchH:      handler.NewSearchHandler(noteStore, logger.With("component", "search")),
		sessionStore: sessionStore,
		rateLimiter:  middleware.NewRateLimiter(),
		logger:       logger,
	}
}

// SessionStore returns the session store for cleanup tasks.
func (s *Server) SessionStore() *store.SessionStore {
	return s.sessionStore
}

// RateLimiter returns the rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

func (s *Server) Router() http.Handler {
	outerMux := http.NewServeMux()

	// Public routes (no auth required)
	outerMux.HandleFunc("POST /register", s.rateLimitedHandler(s.authH.Register))
	outerMux.HandleFunc("POST /login", s.rateLimitedHandler(s.authH.Login))
	outerMux.HandleFunc("GET /health", s.healthHandler)

	// Protected routes — wrapped with RequireAuth middleware
	protectedMux := http.NewServeMux()
	s.registerProtectedRoutes(protectedMux)

	authMiddleware := middleware.RequireAuth(s.sessionStore)
	outerMux.Handle("/", authMiddleware(protectedMux))

	// Apply request logging middleware
	return middleware.RequestLogger(s.logger.With("component", "http"))(outerMux)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) rateLimitedHandler(h http.HandlerFunc) http.HandlerFunc {
	keyFunc := func(r *http.Request) string {
		return middleware.RealIP(r)
	}
	rl := middleware.RateLimit(s.rateLimiter, keyFunc, 10, time.Minute)
	return func(w http.ResponseWriter, r *http.Request) {
		rl(http.HandlerFunc(h)).ServeHTTP(w, r)
	}
}

func (s *Server) registerProtectedRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /logout", s.authH.Logout)
	mux.HandleFunc("GET /me", s.authH.Me)

	// Folder API routes
	mux.HandleFunc("POST /api/folders", s.folderH.Create)
	mux.HandleFunc("GET /api/folders", s.folderH.List)
	mux.HandleFunc("PUT /api/folders/{id}", s.folderH.Update)
	mux.HandleFunc("DELETE /api/folders/{id}", s.folderH.Delete)

	// Note API routes
	mux.HandleFunc("POST /api/notes", s.noteH.Create)
	mux.HandleFunc("GET /api/notes", s.noteH.List)
	mux.HandleFunc("GET /api/notes/{id}", s.noteH.Get)
	mux.HandleFunc("PUT /api/notes/{id}", s.noteH.Update)
	mux.HandleFunc("DELETE /api/notes/{id}", s.noteH.Delete)

	// File/attachment API routes
	mux.HandleFunc("POST /api/files/upload", s.attachmentH.Upload)
	mux.HandleFunc("DELETE /api/files/delete", s.attachmentH.Delete)
	mux.HandleFunc("GET /api/files", s.attachmentH.ListFiles)
	mux.HandleFunc("GET /api/attachments/{noteId}", s.attachmentH.ListByNote)

	// Search
	mux.HandleFunc("GET /api/search", s.searchH.Search)

	// WebSocket change notifications
	mux.HandleFunc("GET /ws", ws.HandleWebSocket(s.hub))
}
