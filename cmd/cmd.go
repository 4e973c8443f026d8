package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"showup-backend/internal/cache"
	"showup-backend/internal/config"
	"showup-backend/internal/handlers"
	"showup-backend/internal/middleware"
	"showup-backend/internal/repository"
	"showup-backend/internal/services"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"
)

func Run() {
	configPath := pflag.StringP("config", "c", "config.yaml", "path to the YAML config file")
	pflag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Setup logger
	setupLogger(cfg.Log.Level)

	ctx := context.Background()

	// Connect to database
	db, closeDB, err := repository.Open(ctx, cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer closeDB()
	log.Info().Str("driver", cfg.Database.Driver).Msg("Database connection established")

	store := repository.NewStore(db)

	concertCache, err := cache.New(ctx, cfg.Redis)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to redis")
	}
	defer concertCache.Close()

	pusher, err := services.NewPusher(cfg.APNs)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create APNs client")
	}

	// Initialize services
	userService := services.NewUserService(store, cfg.JWT.Secret, cfg.JWT.ExpDays)
	squadService := services.NewSquadService(store)
	joinService := services.NewJoinService(store)
	swipeService := services.NewSwipeService(store)
	matchService := services.NewMatchService(store, cfg.Messaging.BaseURL)
	interestService := services.NewInterestService(store)
	concertService := services.NewConcertService(store, concertCache)
	avatarService, err := services.NewAvatarService(ctx, store, cfg.AWS)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create avatar service")
	}
	wsHub := services.NewWSHub()
	notifier := services.NewNotifier(store, wsHub, pusher)

	// Initialize handlers
	h := Handlers{
		User:      handlers.NewUserHandler(userService, avatarService),
		Squad:     handlers.NewSquadHandler(squadService, joinService, notifier),
		Concert:   handlers.NewConcertHandler(concertService, interestService, swipeService, squadService, notifier),
		Match:     handlers.NewMatchHandler(matchService, squadService),
		Identity:  handlers.NewIdentityHandler(userService),
		WebSocket: handlers.NewWebSocketHandler(wsHub, userService, joinService),
	}

	r := NewRouter(h, userService, cfg.Identity.WebhookSecret)

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info().
			Str("host", cfg.Server.Host).
			Int("port", cfg.Server.Port).
			Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	// Hijacked websocket connections are not tracked by Shutdown
	srv.RegisterOnShutdown(func() {
		log.Info().Int("connections", wsHub.OnlineCount()).Msg("Dropping websocket connections")
	})
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}

// Handlers groups the HTTP handlers mounted by NewRouter
type Handlers struct {
	User      *handlers.UserHandler
	Squad     *handlers.SquadHandler
	Concert   *handlers.ConcertHandler
	Match     *handlers.MatchHandler
	Identity  *handlers.IdentityHandler
	WebSocket *handlers.WebSocketHandler
}

// NewRouter mounts every route
func NewRouter(h Handlers, validator middleware.TokenValidator, identitySecret string) chi.Router {
	r := chi.NewRouter()

	// Middleware
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(corsMiddleware)

	r.Route("/api/v1", func(r chi.Router) {
		// Public routes
		r.Post("/users", h.User.CreateUser)

		r.With(middleware.IdentitySecret(identitySecret)).
			Post("/identity/users/{user_id}/verified", h.Identity.EmailVerified)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(middleware.AuthMiddleware(validator))

			r.Put("/users/me/push-token", h.User.UpdatePushToken)
			r.Post("/users/me/avatar", h.User.UploadAvatar)
			r.Get("/users/{user_id}", h.User.GetUser)
			r.Patch("/users/{user_id}", h.User.UpdateUser)

			r.Get("/squads/me", h.Squad.GetMySquad)
			r.Post("/squads/me/leave", h.Squad.LeaveSquad)
			r.Get("/squads/me/join-requests", h.Squad.ListJoinRequests)
			r.Post("/squads/me/join-requests", h.Squad.RequestJoin)
			r.Post("/squads/me/join-requests/{squad_id}/accept", h.Squad.AcceptJoinRequest)
			r.Post("/squads/me/join-requests/{squad_id}/deny", h.Squad.DenyJoinRequest)
			r.Get("/squads/{squad_id}", h.Squad.GetSquad)

			r.Get("/concerts", h.Concert.ListConcerts)
			r.Get("/concerts/{concert_id}", h.Concert.GetConcert)
			r.Post("/concerts/{concert_id}/interested", h.Concert.MarkInterested)
			r.Post("/concerts/{concert_id}/going", h.Concert.MarkGoing)
			r.Get("/concerts/{concert_id}/candidates", h.Concert.GetCandidates)
			r.Post("/concerts/{concert_id}/swipes", h.Concert.Swipe)

			r.Get("/matches", h.Match.ListMatches)
			r.Get("/matches/{squad_id}/channel", h.Match.GetChannel)
		})
	})

	// WebSocket route
	r.Get("/ws", h.WebSocket.HandleWebSocket)

	return r
}

// setupLogger configures zerolog logger
func setupLogger(level string) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	parsed, err := zerolog.ParseLevel(level)
	if err != nil || parsed == zerolog.NoLevel {
		parsed = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(parsed)
}

// corsMiddleware handles CORS
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
