// internal/app/server.go
package app

import (
	"context"
	"fmt"
	"log"

	"caseflow-service/internal/config"
	"caseflow-service/internal/db"
	eventsHandler "caseflow-service/internal/handlers/events"
	notifyH "caseflow-service/internal/handlers/notification"
	wsHandler "caseflow-service/internal/handlers/websocket"
	"caseflow-service/internal/middleware"
	"caseflow-service/internal/pkg/jwt"
	"caseflow-service/internal/pkg/session"
	"caseflow-service/internal/registry"
	"caseflow-service/internal/repository/postgres"
	"caseflow-service/internal/service/dispatch"
	notifyUsecase "caseflow-service/internal/service/notification"
	"caseflow-service/internal/websocket"
	wsHandlers "caseflow-service/internal/websocket/handler"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Server struct {
	cfg    config.AppConfig
	engine *gin.Engine
	logger *zap.Logger

	cancel context.CancelFunc
}

func NewServer() *Server {
	cfg := config.Load()
	engine := gin.New()
	return &Server{cfg: cfg, engine: engine}
}

func (s *Server) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	// ----- PostgreSQL -----
	pool, err := db.ConnectDB()
	if err != nil {
		return fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		return fmt.Errorf("failed to ping PostgreSQL: %w", err)
	}

	// ----- Redis -----
	redisClient, err := db.NewRedisClient(db.RedisConfig{
		Addresses: []string{s.cfg.RedisAddr},
		Password:  s.cfg.RedisPass,
		DB:        0,
		PoolSize:  10,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}
	log.Println("[REDIS] connected")

	// ----- Logger -----
	logger, err := zap.NewProduction()
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	defer logger.Sync()
	s.logger = logger

	// ----- JWT verifier -----
	// Tokens are minted by the auth subsystem; this service only verifies.
	jwtVerifier, err := jwt.LoadVerifier(s.cfg.JWT)
	if err != nil {
		return fmt.Errorf("failed to load JWT verifier: %w", err)
	}

	// ----- Session Manager -----
	sessionManager := session.NewManager(redisClient)

	// ----- Repositories -----
	notifyRepo := postgres.NewNotificationRepository(pool)

	// ----- Services -----
	notifService := notifyUsecase.NewService(notifyRepo, logger)

	// ----- WebSocket Hub -----
	connRegistry := registry.NewInMemory()
	hub := websocket.NewHub(connRegistry, jwtVerifier, sessionManager, logger)

	notificationWSHandler := wsHandlers.NewNotificationHandler(notifService, logger)
	hub.RegisterHandler(notificationWSHandler)

	go hub.Run(ctx)

	// ----- Delivery orchestrator -----
	orchestrator := dispatch.NewOrchestrator(notifService, hub, logger)

	// ----- Expiry sweeper -----
	go notifService.RunSweeper(ctx, s.cfg.SweepInterval)

	// ----- Handlers -----
	notifHandler := notifyH.NewNotificationHandler(notifService, hub)
	wsHandlerInst := wsHandler.NewWebSocketHandler(hub, s.cfg.AllowedOrigins, logger)
	eventsHandlerInst := eventsHandler.NewEventsHandler(orchestrator, logger)

	// ----- Middlewares -----
	authMiddleware := middleware.NewAuthMiddleware(jwtVerifier, sessionManager)

	s.engine.Use(
		middleware.RecoveryMiddleware(logger),
		middleware.LoggingMiddleware(logger),
		middleware.CORSMiddleware(s.cfg.AllowedOrigins),
	)

	// ----- Router -----
	handlers := &Handlers{
		NotifHandler:   notifHandler,
		EventsHandler:  eventsHandlerInst,
		WSHandler:      wsHandlerInst,
		AuthMiddleware: authMiddleware,
	}
	SetupRouter(s.engine, logger, handlers)

	// ----- Start HTTP -----
	log.Printf("server running on %s", s.cfg.HTTPAddr)
	return s.engine.Run(s.cfg.HTTPAddr)
}

// Shutdown stops the hub and background workers.
func (s *Server) Shutdown() {
	if s.cancel != nil {
		s.cancel()
	}
}
