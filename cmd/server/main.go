package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/conquestlab/landgrab/internal/auth"
	"github.com/conquestlab/landgrab/internal/bot"
	"github.com/conquestlab/landgrab/internal/config"
	"github.com/conquestlab/landgrab/internal/handler"
	"github.com/conquestlab/landgrab/internal/logger"
	"github.com/conquestlab/landgrab/internal/middleware"
	"github.com/conquestlab/landgrab/internal/repository"
	"github.com/conquestlab/landgrab/internal/repository/postgres"
	redisrepo "github.com/conquestlab/landgrab/internal/repository/redis"
	"github.com/conquestlab/landgrab/internal/service"
	"github.com/conquestlab/landgrab/pkg/conquest"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Config load failed")
	}
	logger.Init(cfg.LogLevel, cfg.LogFile, cfg.Dev)
	bot.ModelPath = cfg.ModelPath
	log.Info().Str("port", cfg.Port).Bool("postgres", cfg.DatabaseURL != "").Msg("Config loaded")

	// Postgres is optional: without it the server still hosts games but
	// has no lobby catalog, no action history, and no user profiles.
	var (
		userRepo repository.UserRepository
		catalog  repository.GameCatalog
		journal  repository.ActionJournal
	)
	if cfg.DatabaseURL != "" {
		db, err := postgres.Connect(cfg.DatabaseURL)
		if err != nil {
			log.Fatal().Err(err).Msg("Database connection failed")
		}
		defer db.Close()
		userRepo = postgres.NewUserRepo(db)
		catalog = postgres.NewGameRepo(db)
		journal = postgres.NewActionRepo(db)
	} else {
		log.Warn().Msg("DATABASE_URL not set, running without catalog, history, and profiles")
	}

	// Redis holds the live game documents and is required.
	redisClient, err := redisrepo.NewClient(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Redis connection failed")
	}
	defer redisClient.Close()

	// Rules
	rules := conquest.DefaultRules()
	if !cfg.GatherCap {
		rules.GatherCap.Enabled = false
	}
	rules.VulnerableSweep = cfg.VulnerableSweep
	resolver := conquest.NewResolver(rules)
	gameMap := conquest.StandardMap()

	// Auth
	jwtMgr := auth.NewJWTManager(cfg.JWTSecret)
	var googleOAuth *auth.OAuthProvider
	if cfg.GoogleEnabled() {
		googleOAuth = auth.NewGoogleOAuth(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GoogleRedirectURL)
	}

	// WebSocket hub
	wsHub := handler.NewHub()

	// Services
	gameSvc := service.NewGameService(redisClient, catalog, resolver, gameMap, wsHub)
	actionSvc := service.NewActionService(redisClient, catalog, journal, resolver, gameMap, wsHub)

	// Bot watcher (plays the server-hosted bot seats)
	botEngine := bot.NewEngine(gameMap)
	watcher := service.NewBotWatcher(redisClient, catalog, actionSvc, botEngine)

	// Handlers
	authHandler := handler.NewAuthHandler(googleOAuth, jwtMgr, userRepo)
	userHandler := handler.NewUserHandler(userRepo)
	gameHandler := handler.NewGameHandler(gameSvc, actionSvc, gameMap)
	wsHandler := handler.NewWSHandler(wsHub, jwtMgr)

	// Router
	mux := http.NewServeMux()
	authMw := auth.Middleware(jwtMgr)

	// Health
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	// Auth (public; the specific patterns win over the /api/v1/ subtree)
	mux.HandleFunc("POST /api/v1/auth/guest", authHandler.GuestLogin)
	mux.HandleFunc("GET /api/v1/auth/google/login", authHandler.GoogleLogin)
	mux.HandleFunc("GET /api/v1/auth/google/callback", authHandler.GoogleCallback)
	mux.HandleFunc("POST /api/v1/auth/refresh", authHandler.RefreshToken)

	// Protected API routes
	api := http.NewServeMux()
	api.HandleFunc("GET /users/me", userHandler.GetMe)
	api.HandleFunc("PATCH /users/me", userHandler.UpdateMe)
	api.HandleFunc("GET /users/{id}", userHandler.GetUser)
	api.HandleFunc("POST /games", gameHandler.CreateOrJoin)
	api.HandleFunc("GET /games", gameHandler.ListGames)
	api.HandleFunc("GET /games/{id}", gameHandler.GetGame)
	api.HandleFunc("DELETE /games/{id}", gameHandler.DeleteGame)
	api.HandleFunc("POST /games/{id}/setup", gameHandler.SetupCountries)
	api.HandleFunc("POST /games/{id}/claim", gameHandler.Claim)
	api.HandleFunc("POST /games/{id}/actions", gameHandler.SubmitAction)
	api.HandleFunc("POST /games/{id}/bots", gameHandler.AddBot)
	api.HandleFunc("GET /games/{id}/history", gameHandler.History)
	api.HandleFunc("POST /games/{id}/finish", gameHandler.FinishGame)
	api.HandleFunc("GET /maps/standard", gameHandler.StandardMap)

	mux.Handle("/api/v1/", http.StripPrefix("/api/v1", authMw(api)))

	// WebSocket (auth via query param, not middleware)
	mux.HandleFunc("GET /ws", wsHandler.ServeWS)

	// Apply global middleware
	root := middleware.Chain(mux, middleware.Logger, middleware.CORS(cfg.AllowOrigins), middleware.JSON)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      root,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start the bot watcher
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go watcher.Start(ctx)

	go func() {
		log.Info().Str("port", cfg.Port).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server")

	cancel()
	wsHub.Close()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("Server shutdown error")
	}
	log.Info().Msg("Server stopped")
}
