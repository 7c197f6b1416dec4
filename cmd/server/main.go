package main

import (
	"context"
	"fmt"
	"log"
	"memorial-ledger-backend/internal/action"
	"memorial-ledger-backend/internal/attachment"
	"memorial-ledger-backend/internal/collaborator"
	"memorial-ledger-backend/internal/config"
	"memorial-ledger-backend/internal/db"
	"memorial-ledger-backend/internal/feedback"
	"memorial-ledger-backend/internal/ledger"
	"memorial-ledger-backend/internal/memorial"
	"memorial-ledger-backend/internal/middleware"
	"memorial-ledger-backend/internal/obituary"
	"memorial-ledger-backend/internal/statusupdate"
	"memorial-ledger-backend/internal/template"
	"memorial-ledger-backend/internal/worker"
	"memorial-ledger-backend/redis"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func main() {
	// Load configuration
	config.LoadConfig()

	// Connect to database
	if err := db.ConnectDb(); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.CloseDb()

	// Migrate database schema
	db.Migrate()

	// Initialize Redis cache
	cache := redis.NewCache(config.AppConfig.RedisAddress)

	// Background worker pool for async cache writes
	workers := worker.NewPool(4)
	defer workers.Shutdown()

	// Initialize repositories
	ledgerRepo := ledger.NewRepository(db.AppDb)
	actionRepo := action.NewRepository(db.AppDb)
	attachmentRepo := attachment.NewRepository(db.AppDb)
	collaboratorRepo := collaborator.NewRepository(db.AppDb)
	statusUpdateRepo := statusupdate.NewRepository(db.AppDb)
	templateRepo := template.NewRepository(db.AppDb)
	memorialRepo := memorial.NewRepository(db.AppDb)
	feedbackRepo := feedback.NewRepository(db.AppDb)

	// Initialize services
	ledgerService := ledger.NewService(ledgerRepo, statusUpdateRepo, cache, workers)
	actionService := action.NewService(actionRepo, ledgerService, statusUpdateRepo)
	attachmentService := attachment.NewService(attachmentRepo, actionRepo, ledgerService, statusUpdateRepo)
	collaboratorService := collaborator.NewService(collaboratorRepo, ledgerService, statusUpdateRepo)
	statusUpdateService := statusupdate.NewService(statusUpdateRepo, ledgerService, actionRepo, ledgerService)
	templateService := template.NewService(templateRepo, ledgerService, template.DefaultCatalog())
	memorialService := memorial.NewService(memorialRepo)
	obituaryClient := obituary.NewClient(
		config.AppConfig.ObituaryServiceAddress,
		config.AppConfig.ObituaryServiceEmail,
		config.AppConfig.ObituaryServiceSecret,
	)
	obituaryService := obituary.NewService(obituaryClient, cache)

	// Initialize handlers
	ledgerHandler := ledger.NewHandler(ledgerService)
	actionHandler := action.NewHandler(actionService)
	attachmentHandler := attachment.NewHandler(attachmentService)
	collaboratorHandler := collaborator.NewHandler(collaboratorService)
	statusUpdateHandler := statusupdate.NewHandler(statusUpdateService)
	templateHandler := template.NewHandler(templateService)
	memorialHandler := memorial.NewHandler(memorialService)
	obituaryHandler := obituary.NewHandler(obituaryService)
	feedbackHandler := feedback.NewHandler(feedbackRepo)

	// Initialize Gin router
	router := gin.Default()
	router.Use(middleware.ErrorHandler())

	// cors setting
	corsConfig := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: false,
	}

	if config.AppConfig.Environment == "development" {
		// Allow all origins in development
		corsConfig.AllowAllOrigins = true
	} else {
		// Restrict origins in production
		corsConfig.AllowOrigins = []string{config.AppConfig.FrontendAddress}
	}
	router.Use(cors.New(corsConfig))

	authorized := router.Group("/", middleware.AuthGuard(config.AppConfig.JWTSecret))

	// Ledger routes
	authorized.POST("/ledgers", ledgerHandler.Create)
	authorized.GET("/ledgers", ledgerHandler.List)
	authorized.GET("/ledgers/:ledgerId", ledgerHandler.Show)
	authorized.PATCH("/ledgers/:ledgerId", ledgerHandler.Update)
	authorized.DELETE("/ledgers/:ledgerId", ledgerHandler.Delete)
	authorized.GET("/ledgers/:ledgerId/role", ledgerHandler.ShowRole)

	// Action routes
	authorized.POST("/ledgers/:ledgerId/actions", actionHandler.Create)
	authorized.GET("/ledgers/:ledgerId/actions", actionHandler.List)
	authorized.GET("/ledgers/:ledgerId/actions/:actionId", actionHandler.Show)
	authorized.PATCH("/ledgers/:ledgerId/actions/:actionId", actionHandler.Update)
	authorized.DELETE("/ledgers/:ledgerId/actions/:actionId", actionHandler.Delete)

	// Attachment routes
	authorized.POST("/actions/:actionId/attachments", attachmentHandler.Create)
	authorized.GET("/actions/:actionId/attachments", attachmentHandler.List)
	authorized.GET("/actions/:actionId/attachments/empty", attachmentHandler.ListEmpty)
	authorized.GET("/actions/:actionId/attachments/slot/:slotKey", attachmentHandler.ShowBySlotKey)
	authorized.GET("/actions/:actionId/attachments/:id", attachmentHandler.Show)
	authorized.PATCH("/actions/:actionId/attachments/:id", attachmentHandler.Fill)
	authorized.DELETE("/actions/:actionId/attachments/:id", attachmentHandler.Delete)

	// Collaborator routes
	authorized.POST("/ledgers/:ledgerId/collaborators", collaboratorHandler.Add)
	authorized.GET("/ledgers/:ledgerId/collaborators", collaboratorHandler.List)
	authorized.GET("/ledgers/:ledgerId/collaborators/:id", collaboratorHandler.Show)
	authorized.PATCH("/ledgers/:ledgerId/collaborators/:id", collaboratorHandler.UpdateRole)
	authorized.DELETE("/ledgers/:ledgerId/collaborators/:id", collaboratorHandler.Remove)

	// Status update (audit trail) routes
	authorized.POST("/ledgers/:ledgerId/status-updates", statusUpdateHandler.CreateNote)
	authorized.GET("/ledgers/:ledgerId/status-updates", statusUpdateHandler.List)
	authorized.GET("/actions/:actionId/status-updates", statusUpdateHandler.ListByAction)
	authorized.GET("/status-updates/recent", statusUpdateHandler.ListRecent)
	authorized.GET("/status-updates/:id", statusUpdateHandler.Show)

	// Template routes
	authorized.GET("/templates", templateHandler.ListTemplates)
	authorized.GET("/templates/:id", templateHandler.ShowTemplate)
	authorized.GET("/action-definitions", templateHandler.ListActionDefinitions)
	authorized.POST("/ledgers/:ledgerId/apply-template", templateHandler.ApplyTemplate)
	authorized.POST("/ledgers/:ledgerId/apply-actions", templateHandler.ApplyActions)
	authorized.GET("/ledgers/:ledgerId/suggestions", templateHandler.Suggestions)

	// Memorial routes
	authorized.POST("/memorials", memorialHandler.Create)
	authorized.GET("/memorials", memorialHandler.Feed)
	authorized.GET("/memorials/nearby", memorialHandler.Nearby)
	authorized.GET("/memorials/:id", memorialHandler.Show)
	authorized.PATCH("/memorials/:id", memorialHandler.Update)
	authorized.DELETE("/memorials/:id", memorialHandler.Delete)
	authorized.GET("/memorials/:id/obituary", obituaryHandler.Show)

	// Feedback routes
	authorized.POST("/feedback", feedbackHandler.Create)
	authorized.GET("/feedback", feedbackHandler.List)

	// Server configuration
	serverPort := config.AppConfig.ServerPort
	server := &http.Server{
		Addr:    fmt.Sprintf(":%s", serverPort),
		Handler: router.Handler(),
	}

	// Start server
	go func() {
		log.Printf("Server listening on port %s", serverPort)
		err := server.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Println("Server shutdown error:", err)
	}

	<-ctx.Done()
	log.Println("Server shutdown complete")
}
