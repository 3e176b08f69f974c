package main

import (
	"context"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/vntam/chat-realtime-sub000/internal/auth"
	"github.com/vntam/chat-realtime-sub000/internal/config"
	"github.com/vntam/chat-realtime-sub000/internal/db"
	"github.com/vntam/chat-realtime-sub000/internal/handlers"
	"github.com/vntam/chat-realtime-sub000/internal/middleware"
	"github.com/vntam/chat-realtime-sub000/internal/notifier"
	"github.com/vntam/chat-realtime-sub000/internal/observability"
	"github.com/vntam/chat-realtime-sub000/internal/repositories"
	"github.com/vntam/chat-realtime-sub000/internal/service"
	"github.com/vntam/chat-realtime-sub000/internal/telemetry"
	"github.com/vntam/chat-realtime-sub000/internal/users"
	"github.com/vntam/chat-realtime-sub000/internal/ws"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	ctx := context.Background()
	shutdownTracing, err := telemetry.InitTracing(ctx, cfg.OTLPEndpoint, cfg.Environment)
	if err != nil {
		log.Fatalf("failed to init tracing: %v", err)
	}
	defer shutdownTracing(ctx)

	database, err := db.Connect(cfg.DBDSN)
	if err != nil {
		log.Fatalf("failed to connect to db: %v", err)
	}
	defer database.Close()

	publisher := notifier.NewPublisher(cfg.AMQPURL, cfg.AMQPExchange)
	queue := notifier.NewQueue(publisher, cfg.NotifierQueue)
	defer queue.Close()

	repositories.SetPageBounds(cfg.DefaultPageSize, cfg.MaxPageSize)

	convRepo := repositories.NewConversationRepo(database)
	messageRepo := repositories.NewMessageRepo(database)
	deliveryRepo := repositories.NewDeliveryRepo(database)
	settingsRepo := repositories.NewSettingsRepo(database)
	nicknameRepo := repositories.NewNicknameRepo(database)

	directory := users.NewHTTPDirectory(cfg.UserServiceURL)
	verifier := auth.NewJWTVerifier(cfg.AccessSecret)

	hub := ws.NewHub()

	conversations := service.NewConversationService(convRepo, messageRepo, hub, queue, directory)
	messages := service.NewMessageService(convRepo, messageRepo, deliveryRepo, settingsRepo, hub, queue, directory)
	settings := service.NewSettingsService(convRepo, settingsRepo, hub)
	nicknames := service.NewNicknameService(convRepo, nicknameRepo, hub)

	gateway := ws.NewGateway(hub, verifier, convRepo, conversations, messages, settings, nicknames)

	conversationHandler := handlers.NewConversationHandler(conversations, directory)
	messageHandler := handlers.NewMessageHandler(messages, directory)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware("chat-engine"))
	router.Use(observability.HTTPMetricsMiddleware())

	router.GET("/healthz", func(c *gin.Context) { c.JSON(200, gin.H{"status": "ok"}) })
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	authMiddleware := middleware.AuthMiddleware(verifier)

	router.GET("/conversations", authMiddleware, conversationHandler.ListConversations)
	router.GET("/conversations/:conversation_id", authMiddleware, conversationHandler.GetConversation)
	router.GET("/conversations/:conversation_id/messages", authMiddleware, messageHandler.ListMessages)
	router.GET("/messages/unread-count", authMiddleware, messageHandler.UnreadCount)
	router.GET("/messages/search", authMiddleware, messageHandler.SearchMessages)

	router.GET("/ws", gateway.Handle)

	handlers.RegisterDebugRoutes(router, publisher, cfg.DebugEndpoints)

	log.Printf("chat engine listening port=%s notifier=%s", cfg.HTTPPort, notifier.PublisherMode(publisher))
	if err := router.Run(":" + cfg.HTTPPort); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
