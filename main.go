package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/daloestt55/connecta-sub001/internal/db"
	"github.com/daloestt55/connecta-sub001/internal/handlers"
	"github.com/daloestt55/connecta-sub001/internal/middleware"
	"github.com/daloestt55/connecta-sub001/internal/observability"
	"github.com/daloestt55/connecta-sub001/internal/rabbitmq"
	"github.com/daloestt55/connecta-sub001/internal/realtime"
	"github.com/daloestt55/connecta-sub001/internal/repositories"
	"github.com/daloestt55/connecta-sub001/internal/session"
	"github.com/daloestt55/connecta-sub001/internal/store"
	"github.com/daloestt55/connecta-sub001/internal/telemetry"
	"github.com/daloestt55/connecta-sub001/internal/ws"
)

func main() {
	_ = godotenv.Load()

	database, err := db.Connect()
	if err != nil {
		log.Fatalf("failed to connect to db: %v", err)
	}

	shutdownTracing, err := telemetry.SetupTracing(context.Background(),
		getEnv("OTLP_ENDPOINT", "localhost:4317"), "connecta-sync")
	if err != nil {
		log.Fatalf("failed to set up tracing: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracing(ctx)
	}()

	publisher := rabbitmq.NewPublisher(os.Getenv("AMQP_URL"), getEnv("AMQP_EXCHANGE", "connecta.events"))
	defer publisher.Close()
	audit := telemetry.NewAuditEmitter(publisher, "audit.connecta-sync", "connecta-sync", getEnv("ENVIRONMENT", "dev"))

	messageRepo := repositories.NewMessageRepo(database)
	friendRepo := repositories.NewFriendRepo(database)
	objectRepo := repositories.NewObjectRepo(database)
	loginCodeRepo := repositories.NewLoginCodeRepo(database)

	listener, err := realtime.NewListener(db.DSN(), messageRepo)
	if err != nil {
		log.Fatalf("failed to start realtime listener: %v", err)
	}
	defer listener.Close()

	sessions := session.NewManager([]byte(getEnv("JWT_SECRET", "dev-secret")), 24*time.Hour)

	conversationStore := store.New(messageRepo, friendRepo, objectRepo, listener,
		getEnv("PUBLIC_BASE_URL", "http://localhost:8083"))

	hub := ws.NewHub()

	authHandler := handlers.NewAuthHandler(loginCodeRepo, sessions, audit)
	messageHandler := handlers.NewMessageHandler(conversationStore, audit)
	friendHandler := handlers.NewFriendHandler(friendRepo)
	storageHandler := handlers.NewStorageHandler(conversationStore, objectRepo)
	messageWS := ws.NewMessageWebSocketHandler(hub, conversationStore, sessions)

	router := gin.Default()

	// middlewares
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware("connecta-sync"))
	router.Use(observability.HTTPMetricsMiddleware())

	authMiddleware := middleware.AuthMiddleware(sessions)

	router.POST("/auth/code", authHandler.RequestLoginCode)
	router.POST("/auth/verify", authHandler.VerifyLoginCode)

	router.POST("/messages", authMiddleware, messageHandler.SendMessage)
	router.GET("/messages/:friend_id", authMiddleware, messageHandler.GetMessages)
	router.POST("/messages/:friend_id/read", authMiddleware, messageHandler.MarkMessagesAsRead)
	router.DELETE("/messages/:message_id", authMiddleware, messageHandler.DeleteMessage)
	router.GET("/conversations", authMiddleware, messageHandler.GetConversations)

	router.GET("/friends", authMiddleware, friendHandler.ListFriends)
	router.POST("/friends", authMiddleware, friendHandler.AddFriend)

	router.POST("/storage/:bucket", authMiddleware, storageHandler.Upload)
	router.GET("/storage/:bucket/*key", storageHandler.ServeObject)

	router.GET("/ws/messages/:friend_id", messageWS.Handle)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	port := getEnv("PORT", "8083")
	if err := router.Run(":" + port); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}
