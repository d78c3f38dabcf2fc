package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	"smart-parking-dashboard/pkg/auth"
	"smart-parking-dashboard/pkg/config"
	"smart-parking-dashboard/pkg/dashboard"
	"smart-parking-dashboard/pkg/handlers"
	"smart-parking-dashboard/pkg/metrics"
	"smart-parking-dashboard/pkg/pricing"
	"smart-parking-dashboard/pkg/store"
	"smart-parking-dashboard/pkg/upstream"
	"smart-parking-dashboard/web"

	"github.com/a-h/templ"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	configPath := flag.String("config", "config.yaml", "Path to configuration file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}

	// Setup logger
	logger := setupLogger(cfg)
	log.Logger = logger

	// Initialize state store
	dataStore := store.New()

	// Initialize auth
	authService := auth.New(&cfg.Auth)

	// Initialize the parking API client
	client := upstream.NewClient(cfg.Upstream.BaseURL, time.Duration(cfg.Upstream.TimeoutSeconds)*time.Second, logger)

	// Initialize the view-model
	dash := dashboard.New(client, dataStore, authService, pricing.RealClock{}, logger)

	// Initialize handlers
	h := handlers.New(dash, authService, logger)

	// Setup Gin router
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(handlers.RequestLogger(logger))

	// Auth middleware
	r.Use(authService.Middleware())

	// Static assets
	r.StaticFS("/static", web.StaticFS())

	// Page routes
	r.GET("/login", func(c *gin.Context) {
		render(c, http.StatusOK, web.LoginPage())
	})

	r.GET("/", func(c *gin.Context) {
		render(c, http.StatusOK, web.DashboardPage())
	})

	r.GET("/logout", h.Logout)

	// Operational routes
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	// API routes
	api := r.Group("/api")
	{
		api.POST("/login", h.Login)
		api.POST("/account", h.CreateAccount)
		api.GET("/session", h.Session)

		// Spot board
		api.GET("/spots", h.ListSpots)
		api.GET("/spots/available", h.ListAvailableSpots)
		api.POST("/spots/:id/reserve", h.ReserveSpot)

		// Wallet
		api.GET("/wallet", h.Wallet)
		api.POST("/wallet/funds", h.AddFunds)

		// Reservations
		api.GET("/reservations", h.Reservations)

		// Spot administration
		api.POST("/spots", auth.RequireAdmin(), h.AddSpot)
		api.POST("/spots/:id/release", auth.RequireAdmin(), h.ReleaseSpot)
		api.DELETE("/spots/:id", auth.RequireAdmin(), h.DeleteSpot)
	}

	// Start server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	logger.Info().
		Str("addr", addr).
		Str("upstream", cfg.Upstream.BaseURL).
		Msg("Starting Smart Parking dashboard")

	if err := r.Run(addr); err != nil {
		logger.Fatal().Err(err).Msg("Failed to start server")
	}
}

// setupLogger configures zerolog from the loaded config.
func setupLogger(cfg *config.Config) zerolog.Logger {
	level := zerolog.InfoLevel
	switch cfg.LogLevel {
	case "debug":
		level = zerolog.DebugLevel
	case "info":
		level = zerolog.InfoLevel
	case "warn":
		level = zerolog.WarnLevel
	case "error":
		level = zerolog.ErrorLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.LogFormat == "console" {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}
	return zerolog.New(os.Stdout).With().Timestamp().Logger()
}

// render renders a templ component
func render(c *gin.Context, status int, template templ.Component) {
	c.Status(status)
	c.Header("Content-Type", "text/html; charset=utf-8")
	if err := template.Render(c.Request.Context(), c.Writer); err != nil {
		c.String(http.StatusInternalServerError, "Template rendering error")
	}
}
