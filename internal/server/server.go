package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/dukerupert/north/internal/backup"
	"github.com/dukerupert/north/internal/engine"
	"github.com/dukerupert/north/internal/handler"
	"github.com/dukerupert/north/internal/middleware"
	"github.com/dukerupert/north/internal/push"
	"github.com/dukerupert/north/internal/store"
	ws "github.com/dukerupert/north/internal/websocket"
)

// Config wires the server to already-constructed components. PushService and
// BackupManager are optional; their routes are only registered when set.
type Config struct {
	Engine         *engine.Engine
	Hub            *ws.Hub
	PushStore      *store.PushStore
	PushService    *push.Service
	BackupManager  *backup.Manager
	APIToken       string
	AllowedOrigins []string
	RateLimit      int
	RateWindow     time.Duration
	Logger         *slog.Logger
}

type Server struct {
	hub            *ws.Hub
	contractH      *handler.ContractHandler
	progressH      *handler.ProgressHandler
	pushH          *handler.PushHandler
	backupH        *handler.BackupHandler
	rateLimiter    *middleware.RateLimiter
	rateLimit      int
	rateWindow     time.Duration
	apiToken       string
	allowedOrigins []string
	logger         *slog.Logger
}

func New(cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	hub := cfg.Hub
	if hub == nil {
		hub = ws.NewHub(logger)
	}

	s := &Server{
		hub:            hub,
		contractH:      handler.NewContractHandler(cfg.Engine, logger.With("component", "contract")),
		progressH:      handler.NewProgressHandler(cfg.Engine, logger.With("component", "progress")),
		rateLimiter:    middleware.NewRateLimiter(),
		rateLimit:      cfg.RateLimit,
		rateWindow:     cfg.RateWindow,
		apiToken:       cfg.APIToken,
		allowedOrigins: cfg.AllowedOrigins,
		logger:         logger,
	}
	if s.rateLimit <= 0 {
		s.rateLimit = 10
	}
	if s.rateWindow <= 0 {
		s.rateWindow = time.Minute
	}
	if cfg.PushStore != nil && cfg.PushService != nil && cfg.PushService.Configured() {
		s.pushH = handler.NewPushHandler(cfg.PushStore, cfg.PushService, logger.With("component", "push_handler"))
	}
	if cfg.BackupManager != nil {
		s.backupH = handler.NewBackupHandler(cfg.BackupManager, logger.With("component", "backup_handler"))
	}
	return s
}

// Hub returns the websocket hub so engine changes can be broadcast.
func (s *Server) Hub() *ws.Hub {
	return s.hub
}

// RateLimiter returns the rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

func (s *Server) Router() http.Handler {
	outerMux := http.NewServeMux()
	outerMux.HandleFunc("GET /health", s.healthHandler)

	protectedMux := http.NewServeMux()
	s.registerProtectedRoutes(protectedMux)
	outerMux.Handle("/", middleware.RequireToken(s.apiToken)(protectedMux))

	return middleware.RequestLogger(s.logger.With("component", "http"))(outerMux)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) rateLimitedHandler(h http.HandlerFunc) http.Handler {
	return middleware.RateLimit(s.rateLimiter, middleware.RealIP, s.rateLimit, s.rateWindow)(h)
}

func (s *Server) registerProtectedRoutes(mux *http.ServeMux) {
	// Contracts
	mux.HandleFunc("GET /api/contracts", s.contractH.List)
	mux.HandleFunc("POST /api/contracts", s.contractH.Create)
	mux.HandleFunc("GET /api/contracts/summary", s.contractH.Summary)
	mux.HandleFunc("GET /api/contracts/{id}", s.contractH.Get)
	mux.HandleFunc("GET /api/contracts/{id}/share", s.contractH.Share)
	mux.HandleFunc("POST /api/contracts/{id}/proof", s.contractH.SubmitProof)
	mux.HandleFunc("POST /api/contracts/{id}/fail", s.contractH.Fail)
	mux.Handle("POST /api/contracts/{id}/miss", s.rateLimitedHandler(s.contractH.Miss))
	mux.Handle("POST /api/contracts/{id}/accountability", s.rateLimitedHandler(s.contractH.MarkAccountabilitySent))
	mux.HandleFunc("POST /api/contracts/{id}/reactions", s.contractH.React)

	// Focus and rewards
	mux.HandleFunc("POST /api/focus/sessions", s.progressH.RecordSession)
	mux.HandleFunc("GET /api/focus", s.progressH.Focus)
	mux.HandleFunc("GET /api/rewards", s.progressH.Rewards)
	mux.HandleFunc("PUT /api/rewards/companion", s.progressH.SelectCompanion)

	// Journal, streak and suggested actions
	mux.HandleFunc("GET /api/journal", s.progressH.ListJournal)
	mux.HandleFunc("POST /api/journal", s.progressH.AddJournal)
	mux.HandleFunc("DELETE /api/journal/{id}", s.progressH.DeleteJournal)
	mux.HandleFunc("GET /api/streak", s.progressH.Streak)
	mux.HandleFunc("GET /api/actions", s.progressH.ListActions)
	mux.HandleFunc("POST /api/actions", s.progressH.AddAction)
	mux.HandleFunc("POST /api/actions/{id}/complete", s.progressH.CompleteAction)

	if s.pushH != nil {
		mux.HandleFunc("POST /api/push/subscribe", s.pushH.Subscribe)
		mux.HandleFunc("GET /api/push/subscriptions", s.pushH.ListSubscriptions)
		mux.HandleFunc("DELETE /api/push/subscriptions/{id}", s.pushH.Unsubscribe)
		mux.HandleFunc("GET /api/push/vapid-key", s.pushH.GetVAPIDKey)
		mux.HandleFunc("POST /api/push/test", s.pushH.TestNotification)
	}

	if s.backupH != nil {
		mux.HandleFunc("GET /api/backups", s.backupH.List)
		mux.HandleFunc("POST /api/backups", s.backupH.RunNow)
		mux.HandleFunc("GET /api/backups/status", s.backupH.Status)
		mux.HandleFunc("POST /api/backups/restore", s.backupH.Restore)
	}

	mux.HandleFunc("GET /ws", ws.HandleWebSocket(s.hub, s.allowedOrigins))
}
