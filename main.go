package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"gowa-bridge/config"
	"gowa-bridge/database"
	"gowa-bridge/internal/handler"
	"gowa-bridge/internal/helper"
	customMiddleware "gowa-bridge/internal/middleware"
	"gowa-bridge/internal/service"
	"gowa-bridge/internal/wa"
	"gowa-bridge/internal/ws"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

func main() {

	// Utility mode: print a bcrypt hash for API_PASSWORD_HASH and exit.
	if len(os.Args) == 3 && os.Args[1] == "hash-password" {
		hash, err := helper.HashPassword(os.Args[2])
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to hash password")
		}
		fmt.Println(hash)
		return
	}

	// Load .env (ignored when the file does not exist, e.g. in production)
	_ = godotenv.Load()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	if os.Getenv("LOG_LEVEL") == "debug" {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	cfg := config.Load()

	if cfg.DBConnectionString == "" {
		log.Fatal().Msg("DATABASE_URL is not set")
	}
	database.InitWhatsmeow(cfg.DBConnectionString)

	if cfg.WebhookURL == "" {
		log.Warn().Msg("WEBHOOK_URL is not set, inbound messages will not be forwarded")
	}
	if cfg.JWTSecret == "" {
		log.Warn().Msg("JWT_SECRET is not set")
	}

	wsEnv := strings.ToLower(os.Getenv("ENABLE_WEBSOCKET_EVENTS"))
	config.EnableWebsocketEvents = (wsEnv == "" || wsEnv == "true")

	service.InitAuthConfig(cfg.JWTSecret, cfg.APIUsername, cfg.APIPassword)

	// WebSocket hub for operator frontends
	hub := ws.NewHub()
	go hub.Run()

	// Wire the session pipeline: transport -> lifecycle manager -> relay ->
	// backend. The manager owns all state; everything else reads through it.
	backend := service.NewBackend(cfg.WebhookURL, cfg.ContactSyncURL, cfg.PendingPaymentsURL)

	var manager *service.Manager
	client := wa.NewMeow(database.Container, func(evt wa.Event) {
		manager.HandleEvent(evt)
	})

	relay := service.NewRelay(client, backend)
	manager = service.NewManager(client, relay, service.ManagerConfig{
		WatchdogTimeout:   cfg.ReadyWatchdogTimeout,
		SyncInterval:      cfg.ContactSyncInterval,
		ReconnectDelay:    cfg.ReconnectDelay,
		RestartDelay:      cfg.RestartDelay,
		DestroyRetryDelay: cfg.DestroyRetryDelay,
	})

	syncer := service.NewRosterSync(client, backend, manager)
	manager.SetSyncer(syncer)
	if config.EnableWebsocketEvents {
		manager.SetRealtime(hub)
	}

	broadcaster := service.NewBroadcaster(client)
	reminders := service.NewReminders(client, backend)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go manager.Run(ctx)
	go relay.Run(ctx)

	// Setup Echo
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())

	originsEnv := os.Getenv("CORS_ALLOW_ORIGINS")
	if originsEnv == "" {
		originsEnv = "*"
	}
	allowOrigins := strings.Split(originsEnv, ",")
	for i, o := range allowOrigins {
		allowOrigins[i] = strings.TrimSpace(o)
	}
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: allowOrigins,
		AllowMethods: []string{echo.GET, echo.POST, echo.OPTIONS},
		AllowHeaders: []string{
			echo.HeaderOrigin,
			echo.HeaderContentType,
			echo.HeaderAccept,
			echo.HeaderAuthorization,
		},
	}))

	rateLimit := config.GetEnvAsInt("RATE_LIMIT_PER_SECOND", 10)
	rateBurst := config.GetEnvAsInt("RATE_LIMIT_BURST", 10)
	rateWindow := config.GetEnvAsInt("RATE_LIMIT_WINDOW_MINUTES", 3)
	e.Use(middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		Store: middleware.NewRateLimiterMemoryStoreWithConfig(
			middleware.RateLimiterMemoryStoreConfig{
				Rate:      rate.Limit(rateLimit),
				Burst:     rateBurst,
				ExpiresIn: time.Duration(rateWindow) * time.Minute,
			},
		),
	}))

	e.HTTPErrorHandler = func(err error, c echo.Context) {
		code := http.StatusInternalServerError
		message := "Internal Server Error"

		if he, ok := err.(*echo.HTTPError); ok {
			code = he.Code
			message = fmt.Sprintf("%v", he.Message)
		}
		response := map[string]interface{}{
			"success": false,
			"error":   message,
		}
		switch code {
		case http.StatusUnauthorized:
			response["message"] = "Authentication required. Please login first."
		case http.StatusMethodNotAllowed:
			response["message"] = "Method not allowed for this endpoint"
		case http.StatusNotFound:
			response["message"] = "Endpoint not found"
		}
		c.JSON(code, response)
	}

	statusHandler := handler.NewStatusHandler(manager)
	sessionHandler := handler.NewSessionHandler(manager)
	syncHandler := handler.NewSyncHandler(syncer)
	broadcastHandler := handler.NewBroadcastHandler(broadcaster)
	reminderHandler := handler.NewReminderHandler(reminders)

	// Public routes
	e.POST("/login", handler.LoginOperator)
	e.GET("/ws", handler.WebSocketHandler(hub))
	e.GET("/", handler.Health)

	// Routes behind operator JWT
	api := e.Group("/api", customMiddleware.JWTAuthMiddleware())
	api.GET("/status", statusHandler.GetStatus)
	api.GET("/diagnostics", statusHandler.GetDiagnostics)
	api.POST("/disconnect", sessionHandler.Disconnect)
	api.POST("/clear-session", sessionHandler.ClearSession)
	api.POST("/sync-contacts", syncHandler.Trigger)
	api.POST("/broadcast", broadcastHandler.Send)
	api.POST("/send-reminders", reminderHandler.Trigger)

	log.Info().Str("port", cfg.Port).Msg("Server starting")
	log.Fatal().Err(e.Start(":" + cfg.Port)).Msg("Server stopped")
}
