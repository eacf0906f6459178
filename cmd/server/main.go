package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gigchat/internal/config"
	"gigchat/internal/handler"
	"gigchat/internal/model"
	"gigchat/internal/repository"
	"gigchat/internal/service"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	log.Printf("GigChat Job Search")
	log.Printf("Version: %s", Version)
	log.Printf("Build Time: %s", BuildTime)
	log.Printf("Git Commit: %s", GitCommit)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	gin.SetMode(cfg.Server.GinMode)

	// Initialize database connection
	repo, err := repository.NewJobRepository(
		cfg.GetPostgreSQLDSN(),
		cfg.PostgreSQL.MaxConnections,
		cfg.PostgreSQL.MaxIdleConnections,
	)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer repo.Close()

	log.Println("Connected to PostgreSQL database")

	// OpenAI-compatible client for classification and 1536-d embeddings
	openaiClient := service.NewOpenAIClient(&cfg.OpenAI)
	if cfg.OpenAI.Enabled {
		log.Printf("OpenAI client initialized")
		log.Printf("   - API Base: %s", cfg.OpenAI.APIBase)
		log.Printf("   - Chat model: %s", cfg.OpenAI.ChatModel)
		log.Printf("   - Embedding model: %s", cfg.OpenAI.EmbeddingModel)
	} else {
		log.Println("OpenAI is disabled - classification and 1536-d embeddings will not work")
		log.Println("   Set OPENAI_API_KEY environment variable to enable them")
	}

	// Embedding providers: constructed once here and injected everywhere
	// they are used.
	localEmbedder := service.NewLocalEmbedder(&cfg.LocalEmbed)
	openaiEmbedder := service.NewOpenAIEmbedder(openaiClient, cfg.OpenAI.EmbeddingDimensions)

	// Category list for the classifier prompt; an empty list on failure is
	// tolerable, the prompt just offers no categories.
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	categories, err := repo.Categories(ctx)
	cancel()
	if err != nil {
		log.Printf("Failed to load categories: %v", err)
		categories = []string{}
	} else {
		log.Printf("Loaded %d categories", len(categories))
	}

	// Dialogue graph
	classifier := service.NewClassifier(openaiClient)
	graph := service.NewChatGraph(
		classifier,
		repo,
		repository.ValidateTimeConditions,
		categories,
		cfg.Search.DefaultEmbeddingModel,
		cfg.Search.DefaultSimilarityThreshold,
	)
	graph.RegisterProvider(model.EmbeddingModelLocal, localEmbedder, repository.EmbeddingColumn768)
	graph.RegisterProvider(model.EmbeddingModelOpenAI, openaiEmbedder, repository.EmbeddingColumn1536)

	// Backfill jobs, one per embedding column
	backfill768 := service.NewBackfillJob(repo, localEmbedder, repository.EmbeddingColumn768)
	backfill1536 := service.NewBackfillJob(repo, openaiEmbedder, repository.EmbeddingColumn1536)

	log.Println("Services initialized")

	// Handlers
	chatHandler := handler.NewChatHandler(graph, cfg.Search.DefaultEmbeddingModel, cfg.Search.DefaultSimilarityThreshold)
	adminHandler := handler.NewAdminHandler(backfill768, backfill1536)
	jobHandler := handler.NewJobHandler(repo)

	// Router
	router := gin.New()
	router.Use(gin.Logger(), handler.Recovery())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{cfg.Server.AllowedOrigins}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Content-Type", "Authorization"}
	corsConfig.AllowCredentials = true
	router.Use(cors.New(corsConfig))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "healthy",
			"service": "gigchat-job-search",
			"version": Version,
		})
	})

	router.POST("/chat", chatHandler.Chat)
	router.GET("/jobs/:id", jobHandler.Get)

	admin := router.Group("/admin")
	{
		admin.POST("/update_embeddings768", adminHandler.UpdateEmbeddings768)
		admin.POST("/update_embeddings1536", adminHandler.UpdateEmbeddings1536)
	}

	// Start server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	log.Printf("Starting server on %s", addr)

	go func() {
		if err := router.Run(addr); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	log.Println("Server stopped")
}
