package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"donation_backend/database"
	"donation_backend/internal/auth"
	"donation_backend/internal/config"
	"donation_backend/internal/email"
	"donation_backend/internal/handlers"
	"donation_backend/internal/logger"
	"donation_backend/internal/middleware"
	"donation_backend/internal/models"
	"donation_backend/internal/repositories"
	"donation_backend/internal/routes"
	"donation_backend/internal/services"
	"donation_backend/internal/storage"
	"donation_backend/internal/validator"
	"donation_backend/internal/workers"
	"donation_backend/pkg/apperrors"
	"donation_backend/pkg/rabbitmq"
	"donation_backend/ws"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// repositorySet - stateless репозитории, общие для сервисов и воркеров
type repositorySet struct {
	users         repositories.UserRepository
	organizations repositories.OrganizationRepository
	donors        repositories.DonorRepository
	donations     repositories.DonationRepository
	contributions repositories.ContributionRepository
	payments      repositories.PaymentRepository
	notifications repositories.NotificationRepository
}

func newRepositorySet() repositorySet {
	return repositorySet{
		users:         repositories.NewUserRepository(),
		organizations: repositories.NewOrganizationRepository(),
		donors:        repositories.NewDonorRepository(),
		donations:     repositories.NewDonationRepository(),
		contributions: repositories.NewContributionRepository(),
		payments:      repositories.NewPaymentRepository(),
		notifications: repositories.NewNotificationRepository(),
	}
}

func Run() {
	config.LoadConfig()
	cfg := config.AppConfig
	logger.InitWithFile(cfg.Server.Env, logger.FileOptions{
		Filename:   cfg.Logging.File,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAgeDays: cfg.Logging.MaxAgeDays,
	})
	apperrors.SetDebug(cfg.IsDevelopment())
	logger.Info("Logger initialized", "env", cfg.Server.Env)

	if cfg.JWT.Secret == "" {
		logger.Fatal("JWT secret is not configured")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("Connecting to database...")
	gormDB, err := database.Connect(database.Options{
		DSN:          cfg.Database.DSN,
		MaxOpenConns: cfg.Database.MaxOpenConns,
		MaxIdleConns: cfg.Database.MaxIdleConns,
		Debug:        cfg.IsDevelopment(),
	})
	if err != nil {
		logger.Fatal("Failed to connect to database", "error", err)
	}
	logger.Info("Database connected")

	if err := database.AutoMigrate(gormDB); err != nil {
		logger.Fatal("Database migration failed", "error", err)
	}

	repos := newRepositorySet()
	if err := seedFirstAdmin(ctx, gormDB, repos.users, cfg); err != nil {
		// Если не удалось создать админа (проблемы с БД и т.д.) - не запускаем сервер
		logger.Fatal("Failed to seed first admin user", "error", err)
	}

	// --- Инфраструктура уведомлений ---
	locker, redisClient := initializeLocker(ctx, cfg)
	if redisClient != nil {
		defer redisClient.Close()
	}

	publisher := rabbitmq.NewPublisher(cfg.RabbitMQ.URL, cfg.RabbitMQ.Exchange)
	defer publisher.Close()

	mailer := email.NewSender(email.SMTPConfig{
		Host:      cfg.Email.SMTPHost,
		Port:      cfg.Email.SMTPPort,
		Username:  cfg.Email.SMTPUsername,
		Password:  cfg.Email.SMTPPassword,
		FromEmail: cfg.Email.FromEmail,
		FromName:  cfg.Email.FromName,
	})

	wsManager := ws.NewWebSocketManager()
	go wsManager.Run(ctx)

	transactor := repositories.NewTransactor(gormDB)
	dispatcher, err := workers.NewNotificationDispatcher(workers.DispatcherDeps{
		Transactor: transactor,
		Store:      repos.notifications,
		Admins:     repos.users,
		Pusher:     wsManager,
		Publisher:  publisher,
		Mailer:     mailer,
	}, cfg.Notifications.QueueSize, cfg.Notifications.Workers)
	if err != nil {
		logger.Fatal("Failed to create notification dispatcher", "error", err)
	}
	dispatcher.Start(ctx)

	// 1. Инициализируем сервисы
	serviceContainer := initializeServices(cfg, transactor, repos, locker, dispatcher)

	// 2. Инициализируем Gin и маршруты
	ginRouter := SetupRouter(cfg, gormDB, serviceContainer, wsManager)

	address := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:              address,
		Handler:           ginRouter,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Server starting", "address", address)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server startup error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("Shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown failed", "error", err)
	}
	// Очередь дочищается после остановки HTTP, чтобы не терять уведомления уже принятых запросов
	if err := dispatcher.Shutdown(shutdownCtx); err != nil {
		logger.Error("Notification dispatcher shutdown failed", "error", err)
	}
	logger.Info("Server stopped")
}

func SetupRouter(cfg *config.Config, gormDB *gorm.DB, serviceContainer *services.ServiceContainer, wsManager *ws.WebSocketManager) *gin.Engine {
	authenticator := middleware.NewAuthenticator(auth.NewTokenParser(cfg.JWT.Secret), serviceContainer.VerificationService)

	appHandlers := initializeHandlers(serviceContainer, authenticator.Required())
	wsHandler := ws.NewWebSocketHandler(wsManager)

	ginRouter := initializeGinRouter(cfg)
	routes.RegisterRoutes(ginRouter, appHandlers, wsHandler, authenticator.Required(), routes.HealthCheck(gormDB))
	return ginRouter
}

// initializeLocker - Redis опционален: без него дубликаты отсекает уникальный индекс
func initializeLocker(ctx context.Context, cfg *config.Config) (storage.SubmissionLocker, *redis.Client) {
	if cfg.Redis.Addr == "" {
		logger.Warn("Redis is not configured, submission locks are disabled")
		return storage.NoopLocker{}, nil
	}
	client, err := storage.NewRedisClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		logger.Warn("Redis is unavailable, submission locks are disabled", "error", err)
		return storage.NoopLocker{}, nil
	}
	logger.Info("Redis connected", "addr", cfg.Redis.Addr)
	return storage.NewRedisLocker(client, cfg.Redis.Prefix), client
}

func initializeServices(
	cfg *config.Config,
	transactor repositories.Transactor,
	repos repositorySet,
	locker storage.SubmissionLocker,
	dispatcher services.Dispatcher,
) *services.ServiceContainer {
	return services.NewServiceContainer(services.Dependencies{
		Transactor:        transactor,
		Users:             repos.users,
		Organizations:     repos.organizations,
		Donors:            repos.donors,
		Donations:         repos.donations,
		Contributions:     repos.contributions,
		Payments:          repos.payments,
		Notifications:     repos.notifications,
		Locker:            locker,
		Dispatcher:        dispatcher,
		PickupBuffer:      cfg.Scheduling.PickupBuffer,
		SubmissionLockTTL: cfg.Scheduling.SubmissionLock,
	})
}

func initializeHandlers(services *services.ServiceContainer, authRequired gin.HandlerFunc) *handlers.AppHandlers {
	customValidator := validator.New()
	baseHandler := handlers.NewBaseHandler(customValidator, authRequired)

	return &handlers.AppHandlers{
		DonationHandler:     handlers.NewDonationHandler(baseHandler, services.DonationService),
		ContributionHandler: handlers.NewContributionHandler(baseHandler, services.LifecycleService),
		PaymentHandler:      handlers.NewPaymentHandler(baseHandler, services.VerificationService),
		OrganizationHandler: handlers.NewOrganizationHandler(baseHandler, services.VerificationService),
		AdminHandler:        handlers.NewAdminHandler(baseHandler, services.VerificationService),
		NotificationHandler: handlers.NewNotificationHandler(baseHandler, services.NotificationService),
	}
}

func initializeGinRouter(cfg *config.Config) *gin.Engine {
	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggingMiddleware())
	router.Use(middleware.CORSMiddleware(cfg.Server.AllowedOrigins))
	return router
}

func seedFirstAdmin(ctx context.Context, db *gorm.DB, users repositories.UserRepository, cfg *config.Config) error {
	adminEmail := cfg.FirstAdminEmail
	adminPassword := cfg.FirstAdminPassword

	if adminEmail == "" || adminPassword == "" {
		logger.Warn("FIRST_ADMIN_EMAIL or FIRST_ADMIN_PASSWORD is not set. Skipping admin seeding.")
		return nil
	}

	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		_, err := users.FindByEmail(tx, adminEmail)
		if err == nil {
			logger.Info("Admin user already exists. Skipping creation.", "email", adminEmail)
			return nil
		}
		if !errors.Is(err, repositories.ErrUserNotFound) {
			return fmt.Errorf("failed to check for admin user: %w", err)
		}

		logger.Warn("No admin user found with specified email. Creating first admin...", "email", adminEmail)

		hashedPassword, err := auth.HashSeedPassword(adminPassword)
		if err != nil {
			return fmt.Errorf("failed to hash admin password: %w", err)
		}

		newAdmin := &models.User{
			Email:        adminEmail,
			PasswordHash: hashedPassword,
			Role:         models.RoleAdmin,
			Status:       models.UserStatusActive,
		}
		if err := users.Create(tx, newAdmin); err != nil {
			return fmt.Errorf("failed to create admin user in database: %w", err)
		}

		logger.Info("Created first admin user", "email", adminEmail)
		return nil
	})
}
