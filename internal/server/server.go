package server

import (
	"database/sql"
	"log/slog"
	"net/http"
	"time"

	"github.com/dukerupert/chorely/internal/auth"
	"github.com/dukerupert/chorely/internal/chore"
	"github.com/dukerupert/chorely/internal/group"
	"github.com/dukerupert/chorely/internal/handler"
	"github.com/dukerupert/chorely/internal/middleware"
	"github.com/dukerupert/chorely/internal/store"
	ws "github.com/dukerupert/chorely/internal/websocket"
)

const (
	joinLimit   = 10
	signinLimit = 10
	limitWindow = time.Minute
)

type Options struct {
	DevSignin    bool
	SecureCookie bool
	// AllowedOrigins are host patterns accepted for WebSocket upgrades. Empty
	// skips the origin check.
	AllowedOrigins []string
	// Location is used for due-date arithmetic and day boundaries.
	Location *time.Location
}

type Server struct {
	hub         *ws.Hub
	issuer      *auth.Issuer
	userStore   *store.UserStore
	groupSvc    *group.Service
	authH       *handler.AuthHandler
	userH       *handler.UserHandler
	groupH      *handler.GroupHandler
	choreH      *handler.ChoreHandler
	rateLimiter *middleware.RateLimiter
	opts        Options
	logger      *slog.Logger
}

// New wires stores, services and handlers. Change notifications go to
// notifier, which defaults to hub when nil.
func New(db *sql.DB, issuer *auth.Issuer, hub *ws.Hub, notifier handler.Notifier, opts Options, logger *slog.Logger) *Server {
	if notifier == nil {
		notifier = hub
	}
	loc := opts.Location
	if loc == nil {
		loc = time.UTC
	}
	now := func() time.Time { return time.Now().In(loc) }

	userStore := store.NewUserStore(db)
	groupStore := store.NewGroupStore(db)
	choreStore := store.NewChoreStore(db)
	activityStore := store.NewActivityStore(db)

	groupSvc := group.NewService(groupStore, userStore, activityStore, now, logger)
	choreSvc := chore.NewService(choreStore, groupStore, userStore, now, logger)

	return &Server{
		hub:         hub,
		issuer:      issuer,
		userStore:   userStore,
		groupSvc:    groupSvc,
		authH:       handler.NewAuthHandler(userStore, issuer, opts.DevSignin, opts.SecureCookie, logger.With("component", "auth")),
		userH:       handler.NewUserHandler(userStore, logger.With("component", "user_handler")),
		groupH:      handler.NewGroupHandler(groupSvc, notifier, logger.With("component", "group_handler")),
		choreH:      handler.NewChoreHandler(choreSvc, notifier, logger.With("component", "chore_handler")),
		rateLimiter: middleware.NewRateLimiter(),
		opts:        opts,
		logger:      logger,
	}
}

// RateLimiter returns the rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

func (s *Server) Router() http.Handler {
	outerMux := http.NewServeMux()

	// Public routes
	outerMux.HandleFunc("GET /health", handler.Health)
	outerMux.Handle("POST /auth/signin", s.rateLimited("signin", signinLimit, s.authH.SignIn))
	outerMux.HandleFunc("POST /auth/signout", s.authH.SignOut)

	protectedMux := http.NewServeMux()
	s.registerProtectedRoutes(protectedMux)

	authMiddleware := middleware.RequireAuth(s.issuer, s.userStore, s.logger)
	outerMux.Handle("/api/", authMiddleware(protectedMux))
	outerMux.Handle("/ws", authMiddleware(protectedMux))

	return middleware.RequestLogger(s.logger.With("component", "http"))(outerMux)
}

func (s *Server) rateLimited(prefix string, limit int, h http.HandlerFunc) http.Handler {
	return middleware.RateLimit(s.rateLimiter, middleware.UserOrIP(prefix), limit, limitWindow)(h)
}

func (s *Server) registerProtectedRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/user", s.userH.Get)
	mux.HandleFunc("PATCH /api/user", s.userH.Update)

	// Group API routes
	mux.HandleFunc("GET /api/groups", s.groupH.List)
	mux.HandleFunc("POST /api/groups", s.groupH.Create)
	mux.HandleFunc("GET /api/groups/{id}", s.groupH.Get)
	mux.Handle("POST /api/groups/join", s.rateLimited("join", joinLimit, s.groupH.Join))
	mux.HandleFunc("POST /api/groups/leave", s.groupH.Leave)
	mux.HandleFunc("GET /api/activities", s.groupH.Activities)

	// Chore API routes
	mux.HandleFunc("GET /api/chores", s.choreH.List)
	mux.HandleFunc("GET /api/chores/mine", s.choreH.Mine)
	mux.HandleFunc("POST /api/chores", s.choreH.Create)
	mux.HandleFunc("GET /api/chores/{id}", s.choreH.Get)
	mux.HandleFunc("PUT /api/chores/{id}", s.choreH.Update)
	mux.HandleFunc("DELETE /api/chores/{id}", s.choreH.Delete)
	mux.HandleFunc("POST /api/chores/{id}/complete", s.choreH.Complete)
	mux.HandleFunc("GET /api/chores/{id}/completions", s.choreH.Completions)

	// Change feed
	mux.HandleFunc("GET /ws", ws.HandleWebSocket(s.hub, handler.GroupFeedAuthorizer(s.groupSvc), s.opts.AllowedOrigins, s.logger.With("component", "websocket")))
}
