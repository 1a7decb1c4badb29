package server

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/chippn/chippn/internal/billing"
	"github.com/chippn/chippn/internal/handler"
	"github.com/chippn/chippn/internal/middleware"
	"github.com/chippn/chippn/internal/photos"
	"github.com/chippn/chippn/internal/push"
	"github.com/chippn/chippn/internal/store"
	"github.com/chippn/chippn/internal/verify"
	ws "github.com/chippn/chippn/internal/websocket"
)

// Config collects external service settings. Empty values disable the
// corresponding feature rather than failing startup.
type Config struct {
	Stripe          billing.StripeConfig
	Photos          photos.Config
	AnthropicKey    string
	VerifyModel     string
	ExpoAccessToken string
}

type Server struct {
	db             *sql.DB
	hub            *ws.Hub
	authH          *handler.AuthHandler
	householdH     *handler.HouseholdHandler
	choreH         *handler.ChoreHandler
	chatH          *handler.ChatHandler
	notificationH  *handler.NotificationHandler
	billingH       *handler.BillingHandler
	photoH         *handler.PhotoHandler
	wsH            *ws.Handler
	sessionStore   *store.SessionStore
	householdStore *store.HouseholdStore
	reminderStore  *store.ReminderStore
	rateLimiter    *middleware.RateLimiter
	pushScheduler  *push.Scheduler
	logger         *slog.Logger
}

func New(db *sql.DB, cfg Config, logger *slog.Logger) *Server {
	hub := ws.NewHub(logger.With("component", "websocket"))

	userStore := store.NewUserStore(db)
	sessionStore := store.NewSessionStore(db)
	householdStore := store.NewHouseholdStore(db)
	choreStore := store.NewChoreStore(db)
	chatStore := store.NewChatStore(db)
	tokenStore := store.NewNotificationTokenStore(db)
	subStore := store.NewSubscriptionStore(db)
	reminderStore := store.NewReminderStore(db)

	stripeClient := billing.NewStripeClient(cfg.Stripe)
	statusService := billing.NewStatusService(subStore)

	photoStore := photos.NewStore(cfg.Photos)

	verifyOpts := []verify.Option{}
	if cfg.VerifyModel != "" {
		verifyOpts = append(verifyOpts, verify.WithModel(cfg.VerifyModel))
	}
	verifyClient := verify.NewClient(cfg.AnthropicKey, logger.With("component", "verify"), verifyOpts...)

	pushService := push.NewService(cfg.ExpoAccessToken)
	pushScheduler := push.NewScheduler(pushService, choreStore, tokenStore, reminderStore, logger.With("component", "push"))

	return &Server{
		db:             db,
		hub:            hub,
		authH:          handler.NewAuthHandler(userStore, sessionStore, logger.With("component", "auth")),
		householdH:     handler.NewHouseholdHandler(householdStore, logger.With("component", "household")),
		choreH:         handler.NewChoreHandler(choreStore, householdStore, hub, logger.With("component", "chore")),
		chatH:          handler.NewChatHandler(chatStore, hub, logger.With("component", "chat")),
		notificationH:  handler.NewNotificationHandler(tokenStore, logger.With("component", "notification")),
		billingH:       handler.NewBillingHandler(stripeClient, subStore, statusService, userStore, logger.With("component", "billing")),
		photoH:         handler.NewPhotoHandler(photoStore, verifyClient, choreStore, logger.With("component", "photo")),
		wsH:            ws.NewHandler(hub, logger.With("component", "websocket")),
		sessionStore:   sessionStore,
		householdStore: householdStore,
		reminderStore:  reminderStore,
		rateLimiter:    middleware.NewRateLimiter(),
		pushScheduler:  pushScheduler,
		logger:         logger,
	}
}

// SessionStore returns the session store for cleanup tasks.
func (s *Server) SessionStore() *store.SessionStore {
	return s.sessionStore
}

// ReminderStore returns the reminder log store for cleanup tasks.
func (s *Server) ReminderStore() *store.ReminderStore {
	return s.reminderStore
}

// RateLimiter returns the rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

// PushScheduler returns the reminder scheduler.
func (s *Server) PushScheduler() *push.Scheduler {
	return s.pushScheduler
}

func (s *Server) Router() http.Handler {
	outerMux := http.NewServeMux()

	// Public routes
	outerMux.HandleFunc("POST /register", s.rateLimited(s.authH.Register))
	outerMux.HandleFunc("POST /login", s.rateLimited(s.authH.Login))
	outerMux.HandleFunc("POST /api/billing/webhook", s.billingH.Webhook)
	outerMux.HandleFunc("GET /health", s.healthHandler)

	// Protected routes behind RequireAuth
	protectedMux := http.NewServeMux()
	s.registerProtectedRoutes(protectedMux)

	authMiddleware := middleware.RequireAuth(s.sessionStore, s.householdStore)
	outerMux.Handle("/", authMiddleware(protectedMux))

	return middleware.RequestLogger(s.logger.With("component", "http"))(outerMux)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) rateLimited(h http.HandlerFunc) http.HandlerFunc {
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
	mux.HandleFunc("GET /api/me", s.authH.Me)
	mux.HandleFunc("PUT /api/me", s.authH.UpdateProfile)

	// Household routes
	mux.HandleFunc("POST /api/households", s.householdH.Create)
	mux.HandleFunc("POST /api/households/join", s.householdH.Join)
	mux.HandleFunc("POST /api/households/leave", s.householdH.Leave)
	mux.HandleFunc("GET /api/households/current", s.householdH.Current)

	// Notification token routes (no household required)
	mux.HandleFunc("POST /api/notification-tokens", s.notificationH.Register)
	mux.HandleFunc("DELETE /api/notification-tokens", s.notificationH.Unregister)

	// Billing routes (no household required)
	mux.HandleFunc("POST /api/billing/checkout", s.billingH.Checkout)
	mux.HandleFunc("GET /api/subscription", s.billingH.SubscriptionStatus)

	// Everything below requires a household membership
	householdMux := http.NewServeMux()

	householdMux.HandleFunc("GET /api/households/members", s.householdH.Members)

	householdMux.HandleFunc("POST /api/chores", s.choreH.Create)
	householdMux.HandleFunc("GET /api/chores", s.choreH.List)
	householdMux.HandleFunc("GET /api/chores/mine", s.choreH.Mine)
	householdMux.HandleFunc("DELETE /api/chores/{id}", s.choreH.Delete)
	householdMux.HandleFunc("POST /api/assignments/{id}/complete", s.choreH.Complete)
	householdMux.HandleFunc("POST /api/assignments/{id}/photo", s.photoH.Upload)
	householdMux.HandleFunc("POST /api/assignments/{id}/verify", s.photoH.Verify)

	householdMux.HandleFunc("GET /api/messages", s.chatH.List)
	householdMux.HandleFunc("POST /api/messages", s.chatH.Send)

	householdMux.Handle("GET /ws", s.wsH)

	mux.Handle("/api/households/members", middleware.RequireHousehold(householdMux))
	mux.Handle("/api/chores", middleware.RequireHousehold(householdMux))
	mux.Handle("/api/chores/", middleware.RequireHousehold(householdMux))
	mux.Handle("/api/assignments/", middleware.RequireHousehold(householdMux))
	mux.Handle("/api/messages", middleware.RequireHousehold(householdMux))
	mux.Handle("/ws", middleware.RequireHousehold(householdMux))
}
