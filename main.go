package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"attend-backend/eligibility"
	"attend-backend/handlers"
	"attend-backend/store"
)

func connectToDatabase(dbURL string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(context.Background(), dbURL)
	if err != nil {
		return nil, err
	}

	// Test the connection
	if err := pool.Ping(context.Background()); err != nil {
		return nil, err
	}

	log.Println("Successfully connected to the database!")
	return pool, nil
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using default environment variables")
	}

	cfg, err := loadConfig()
	if err != nil {
		log.Fatalf("Unable to parse configuration: %v\n", err)
	}
	if cfg.JWTSecret == "" {
		log.Println("Warning: JWT_SECRET is empty, authenticated self check-in will reject all tokens")
	}

	// Database connection
	pool, err := connectToDatabase(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Unable to connect to database: %v\n", err)
	}
	defer pool.Close()

	// Wire the store, engine and handlers
	st := store.New(pool)
	engine := eligibility.NewEngine(st, cfg.eligibilityConfig())

	checkinHandler := handlers.NewCheckinHandler(st, engine, cfg.eligibilityConfig())
	sessionHandler := handlers.NewSessionHandler(st)
	personHandler := handlers.NewPersonHandler(st)

	// Setup Gin
	router := gin.Default()

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.AllowOrigins
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization"}
	router.Use(cors.New(corsConfig))

	// Tenant-scoped API routes
	api := router.Group("/:orgSlug/api")
	{
		// Check-in routes
		api.POST("/self-checkin/public", checkinHandler.PublicSelfCheckin)
		api.POST("/self-checkin/auth", handlers.RequireAuth(cfg.JWTSecret), checkinHandler.AuthSelfCheckin)
		api.POST("/events/:eventId/kiosk-checkin", checkinHandler.KioskCheckin)

		// Session routes
		api.POST("/sessions", sessionHandler.CreateSession)
		api.GET("/sessions", sessionHandler.ListSessions)
		api.GET("/sessions/:id", sessionHandler.GetSession)
		api.PUT("/sessions/:id/status", sessionHandler.UpdateSessionStatus)
		api.POST("/sessions/:id/qr-token", sessionHandler.RotateQRToken)
		api.GET("/sessions/:id/attendance", sessionHandler.ListAttendance)

		// People routes
		api.POST("/people", personHandler.CreatePerson)
		api.GET("/people", personHandler.ListPeople)
		api.GET("/people/:id", personHandler.GetPerson)
	}

	// Health check route
	router.GET("/api/v1/test-db", func(c *gin.Context) {
		if err := pool.Ping(c); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Database connection failed: " + err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "Database connection OK"})
	})

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"timestamp": time.Now().Unix(),
		})
	})

	log.Printf("Server starting on port %s\n", cfg.Port)
	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatalf("Failed to start server: %v\n", err)
	}
}
