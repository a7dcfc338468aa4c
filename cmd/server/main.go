package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/actasweb/api/internal/client"
	"github.com/actasweb/api/internal/config"
	"github.com/actasweb/api/internal/handler"
	"github.com/actasweb/api/internal/media"
	"github.com/actasweb/api/internal/middleware"
	"github.com/actasweb/api/internal/pipeline"
	"github.com/actasweb/api/internal/service"
	"github.com/actasweb/api/internal/store"
	"github.com/actasweb/api/internal/worker"
	ws "github.com/actasweb/api/internal/websocket"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	for _, dir := range []string{cfg.Storage.UploadDir, cfg.Storage.SessionsDir, cfg.Storage.ActasDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			log.Fatalf("Failed to create %s: %v", dir, err)
		}
	}

	// Initialize Redis client
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	ctx := context.Background()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Printf("Warning: Redis not available: %v", err)
	}

	// Initialize Asynq client
	asynqClient := asynq.NewClient(asynq.RedisClientOpt{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer asynqClient.Close()

	validate := validator.New()

	// Initialize WebSocket hub
	hub := ws.NewHub()
	go hub.Run()

	// Initialize external clients
	speechClient := client.NewSpeechClient(&cfg.Speech)
	ocrClient := client.NewOCRClient(&cfg.OCR)
	geminiClient := client.NewGeminiClient(&cfg.Gemini)

	// Initialize R2 client (optional - continues if not configured)
	var objectStore client.ObjectStore
	if cfg.R2.AccessKeyID != "" && cfg.R2.SecretAccessKey != "" {
		r2Client, err := client.NewR2Client(&cfg.R2)
		if err != nil {
			log.Printf("Warning: R2 client not initialized: %v", err)
		} else {
			objectStore = r2Client
		}
	} else {
		log.Println("Info: R2 storage not configured, actas stay local only")
	}

	// Initialize job store and pipeline
	jobStore := store.NewRedisStore(redisClient, 24*time.Hour)
	processor := pipeline.NewMeetingProcessor(
		pipeline.NewAudioPipeline(speechClient),
		pipeline.NewSpeakerResolver(media.NewFrameOpener(), ocrClient),
		cfg.Storage.TokenFile,
	)

	// Initialize services
	meetingService := service.NewMeetingService(jobStore, asynqClient)
	minutesService := service.NewMinutesService(geminiClient, objectStore, cfg.Storage.ActasDir)
	sessionService := service.NewSessionService(cfg.Storage.SessionsDir, cfg.Storage.ActasDir)
	mediaService := service.NewMediaService(cfg.Storage.UploadDir)

	// Initialize handlers
	meetingHandler := handler.NewMeetingHandler(meetingService, cfg.Storage.UploadDir)
	minutesHandler := handler.NewMinutesHandler(minutesService, meetingService, validate)
	sessionHandler := handler.NewSessionHandler(sessionService, validate)
	mediaHandler := handler.NewMediaHandler(mediaService, validate)

	// Initialize middleware
	authMiddleware := middleware.NewAuthMiddleware(cfg.JWT.Secret)
	rateLimiter := middleware.NewRateLimiter(redisClient)

	// Initialize Fiber app
	app := fiber.New(fiber.Config{
		ErrorHandler: customErrorHandler,
		BodyLimit:    4 * 1024 * 1024 * 1024,
	})

	// Global middleware
	app.Use(recover.New())
	isDebug := strings.EqualFold(cfg.Server.LogLevel, "debug")
	logFormat := "[${time}] ${status} - ${latency} ${method} ${path}\n"
	if isDebug {
		logFormat = "[${time}] ${status} - ${latency} ${method} ${path} ${queryParams} ${reqHeaders}\n"
		log.Println("Debug logging enabled")
	}
	app.Use(logger.New(logger.Config{
		Format: logFormat,
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization",
	}))

	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"message": "API de Actas funcionando",
		})
	})

	// Health check
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "ok",
			"services": fiber.Map{
				"speech": speechClient.IsConfigured(),
				"ocr":    ocrClient.IsConfigured(),
				"gemini": geminiClient.IsConfigured(),
				"r2":     objectStore != nil,
				"redis":  redisClient.Ping(c.Context()).Err() == nil,
			},
		})
	})

	// Uploaded videos and generated actas
	app.Static("/files", cfg.Storage.UploadDir)
	app.Static("/actas", cfg.Storage.ActasDir)

	// API routes
	api := app.Group("/api", authMiddleware.Authenticate())

	meetings := api.Group("/meetings")
	meetings.Post("/upload", rateLimiter.UploadLimit(cfg.RateLimit.UploadPerHour), meetingHandler.Upload)
	meetings.Get("/status/:jobId", meetingHandler.Status)
	meetings.Post("/:jobId/minutes", rateLimiter.MinutesLimit(cfg.RateLimit.MinutesPerHour), minutesHandler.Generate)

	sessions := api.Group("/sessions")
	sessions.Post("/", sessionHandler.Save)
	sessions.Get("/", sessionHandler.List)
	sessions.Get("/:name", sessionHandler.Load)

	api.Post("/media/trim", rateLimiter.TrimLimit(cfg.RateLimit.TrimPerHour), mediaHandler.Trim)

	// WebSocket routes
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	app.Get("/ws/jobs/:jobId", websocket.New(func(c *websocket.Conn) {
		jobID := c.Params("jobId")
		hub.HandleConnection(c, jobID)
	}))

	// Start Asynq worker server
	go startWorkerServer(cfg, meetingService, processor, hub)

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		log.Println("Shutting down server...")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.Printf("Server shutdown error: %v", err)
		}
	}()

	addr := ":" + cfg.Server.Port
	log.Printf("Server starting on %s", addr)
	if err := app.Listen(addr); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}

func startWorkerServer(
	cfg *config.Config,
	meetingService *service.MeetingService,
	processor *pipeline.MeetingProcessor,
	hub *ws.Hub,
) {
	asynqLogLevel := asynq.InfoLevel
	if strings.EqualFold(cfg.Server.LogLevel, "debug") {
		asynqLogLevel = asynq.DebugLevel
	} else if strings.EqualFold(cfg.Server.LogLevel, "warn") {
		asynqLogLevel = asynq.WarnLevel
	} else if strings.EqualFold(cfg.Server.LogLevel, "error") {
		asynqLogLevel = asynq.ErrorLevel
	}

	srv := asynq.NewServer(
		asynq.RedisClientOpt{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		},
		asynq.Config{
			// One job at a time: each job monopolizes the speech sidecar,
			// which holds a single model resident.
			Concurrency: 1,
			Queues: map[string]int{
				"meetings": 1,
			},
			LogLevel: asynqLogLevel,
		},
	)

	meetingWorker := worker.NewMeetingWorker(meetingService, processor, hub)

	mux := asynq.NewServeMux()
	mux.HandleFunc(service.TaskTypeMeeting, meetingWorker.ProcessTask)

	if err := srv.Run(mux); err != nil {
		log.Printf("Asynq worker error: %v", err)
	}
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	return c.Status(code).JSON(fiber.Map{
		"error": fiber.Map{
			"code":    "SERVICE_ERROR",
			"message": message,
		},
	})
}
