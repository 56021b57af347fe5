package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"live_support/internal/ai"
	authhdl "live_support/internal/api/auth/handler"
	authsvc "live_support/internal/api/auth/service"
	chathdl "live_support/internal/api/chat/handler"
	chatsvc "live_support/internal/api/chat/service"
	"live_support/internal/api/middleware"
	"live_support/internal/api/router"
	"live_support/internal/database"
	"live_support/internal/events"
	"live_support/internal/global"
	"live_support/internal/logger"
	"live_support/internal/notification"
	"live_support/internal/notification/channels"
	"live_support/internal/tasks"
	"live_support/internal/worker"
)

// initLogger khởi tạo và cấu hình logger cho toàn bộ ứng dụng
func initLogger() {
	// Logger sẽ tự động đọc environment variables để cấu hình
	if err := logger.Init(nil); err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}

	log := logger.GetAppLogger()
	log.Info("Logger system initialized successfully")
}

// Hàm main
func main() {
	// Khởi tạo logger
	initLogger()

	// Khởi tạo các biến toàn cục (config, validator, database)
	InitGlobal()

	// Đăng ký các collection vào registry
	InitRegistry()

	log := logger.GetAppLogger()
	cfg := global.ServerConfig

	// Task runner xử lý các tác vụ nền (welcome, AI reply, notification, pre-identify)
	runner := tasks.NewRunner(4, 256)
	bus := events.NewBus(runner)

	// Khởi tạo các service
	userService, err := authsvc.NewUserService()
	if err != nil {
		log.Fatalf("Failed to create user service: %v", err)
	}
	sessionService, err := chatsvc.NewSessionService()
	if err != nil {
		log.Fatalf("Failed to create session service: %v", err)
	}
	messageService, err := chatsvc.NewMessageService()
	if err != nil {
		log.Fatalf("Failed to create message service: %v", err)
	}
	contactService, err := chatsvc.NewContactService()
	if err != nil {
		log.Fatalf("Failed to create contact service: %v", err)
	}
	conversationService, err := chatsvc.NewConversationService()
	if err != nil {
		log.Fatalf("Failed to create conversation service: %v", err)
	}
	mergeService, err := chatsvc.NewMergeService(sessionService, messageService, contactService, conversationService)
	if err != nil {
		log.Fatalf("Failed to create merge service: %v", err)
	}

	// Provider clients (inject vào các service cần dùng)
	geminiClient := ai.NewGeminiClient(cfg.GeminiAPIKey, cfg.GeminiModel, cfg.GeminiBaseURL)
	pushClient := channels.NewExpoPushClient(cfg.ExpoPushURL)
	emailClient := channels.NewSMTPEmailClient(channels.SMTPConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     cfg.SMTPFrom,
		FromName: "Live Support",
	})

	orchestrator := chatsvc.NewOrchestrator(
		sessionService, messageService, userService, geminiClient,
		time.Duration(cfg.AILeaseTTLSeconds)*time.Second,
		int64(cfg.AIContextLimit),
	)
	bootstrapService := chatsvc.NewBootstrapService(sessionService, messageService, contactService, userService, geminiClient)
	archiveService := chatsvc.NewArchiveService(conversationService, messageService, contactService, geminiClient)
	cleanupService := chatsvc.NewCleanupService(sessionService, messageService, cfg.SessionRetentionDays, int64(cfg.SessionCleanupPageSize))
	dispatcher := notification.NewDispatcher(userService, pushClient, emailClient, cfg.FrontendURL)

	// Đăng ký các handler xử lý sự kiện lên bus
	orchestrator.Subscribe(bus)
	bootstrapService.Subscribe(bus)
	dispatcher.Subscribe(bus)

	// Background workers
	workerCtx, cancelWorkers := context.WithCancel(context.Background())
	cleanupWorker := worker.NewSessionCleanupWorker(cleanupService, time.Duration(cfg.SessionCleanupHours)*time.Hour)
	go cleanupWorker.Start(workerCtx)
	mergeResumeWorker := worker.NewMergeResumeWorker(mergeService, 5*time.Minute)
	go mergeResumeWorker.Start(workerCtx)

	// Khởi tạo handlers và Fiber app
	handlers := &router.Handlers{
		User:    authhdl.NewUserHandler(userService),
		Visitor: chathdl.NewVisitorHandler(sessionService, messageService, bus),
		Session: chathdl.NewSessionHandler(sessionService, messageService, cleanupService, bus),
		Merge:   chathdl.NewMergeHandler(mergeService, contactService, conversationService, messageService, archiveService, bus),
	}
	app := InitFiberApp(handlers, middleware.AuthMiddleware(userService))

	// Graceful shutdown khi nhận SIGINT/SIGTERM
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigCh
		log.Infof("Received signal %v, shutting down...", sig)
		if err := app.Shutdown(); err != nil {
			log.Errorf("Error during server shutdown: %v", err)
		}
	}()

	log.Infof("Starting Fiber server on %s", cfg.Address)
	if err := app.Listen(cfg.Address); err != nil {
		log.Fatalf("Error in Fiber Listen: %v", err)
	}

	// Server đã dừng nhận request — dừng workers và drain task queue
	cancelWorkers()
	runner.Stop()
	if err := database.CloseInstance(global.MongoDB_Session); err != nil {
		log.Errorf("Error closing MongoDB connection: %v", err)
	}
	log.Info("Shutdown complete")
}
