package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/princeprakhar/roomies-backend/internal/api/routes"
	"github.com/princeprakhar/roomies-backend/internal/config"
	"github.com/princeprakhar/roomies-backend/internal/database"
	"github.com/princeprakhar/roomies-backend/internal/services"
	"github.com/princeprakhar/roomies-backend/internal/store"
	"github.com/princeprakhar/roomies-backend/pkg/logger"
	"github.com/redis/go-redis/v9"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	// Initialize logger
	logger.Init()

	// Load configuration
	cfg := config.Load()

	st, err := openStore(cfg)
	if err != nil {
		logger.Fatal("Failed to initialize store: ", err)
	}
	defer st.Close(context.Background())

	var rdb *redis.Client
	if cfg.RedisURL != "" {
		rdb, err = database.InitRedis(cfg.RedisURL)
		if err != nil {
			logger.Fatal("Failed to connect to redis: ", err)
		}
		defer rdb.Close()
	} else {
		logger.Warn("REDIS_URL not set, sanctions, chat fan-out and rate limits stay in process")
	}

	infra := routes.Infrastructure{Store: st, Redis: rdb}
	if cfg.S3BucketName != "" {
		infra.Photos = services.NewS3Service(cfg.S3Region, cfg.S3BucketName, cfg.S3AccessKey, cfg.S3SecretKey)
	} else {
		logger.Warn("S3_BUCKET_NAME not set, photo uploads are disabled")
	}

	// Set Gin mode
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Initialize router
	router := gin.New()

	// Setup routes
	routes.SetupRoutes(router, infra, cfg)

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("Server starting on port " + cfg.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server: ", err)
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown failed: ", err)
	}
}

func openStore(cfg *config.Config) (store.Store, error) {
	switch cfg.StoreDriver {
	case "memory":
		logger.Warn("Using the in-memory store, data is lost on restart")
		return store.NewMemory(), nil

	case "mongo":
		client, err := database.InitMongo(cfg.MongoURI)
		if err != nil {
			return nil, err
		}
		m := store.NewMongo(client, cfg.MongoDatabase)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := m.EnsureIndexes(ctx); err != nil {
			return nil, err
		}
		logger.Infof("Connected to MongoDB database %s", cfg.MongoDatabase)
		return m, nil

	default:
		db, err := database.InitPostgres(cfg.DatabaseURL, cfg.Environment != "production")
		if err != nil {
			return nil, err
		}
		logger.Info("Connected to PostgreSQL")
		return store.NewPostgres(db), nil
	}
}
