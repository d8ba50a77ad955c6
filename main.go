package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"medbook/config"
	"medbook/cron"
	"medbook/database"
	bookingRepo "medbook/database/repository/booking"
	documentRepo "medbook/database/repository/document"
	notificationRepo "medbook/database/repository/notification"
	paymentRepo "medbook/database/repository/payment"
	"medbook/handlers"
	"medbook/middleware"
	"medbook/models"
	"medbook/routes"
	"medbook/services/booking"
	"medbook/services/documents"
	"medbook/services/events"
	"medbook/services/notification"
	"medbook/services/payment"
	"medbook/services/storage"
	"medbook/services/tasks"
	"medbook/utils"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	logger := utils.InitializeLogger(cfg.IsProduction(), cfg.LogLevel, cfg.LogFile)
	defer logger.Sync()

	if cfg.JWTSecret == "" {
		logger.Fatal("main: JWT_SECRET is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	mongoClient, err := database.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("main: database unavailable", zap.Error(err))
	}
	db := mongoClient.Database(cfg.DatabaseName)

	bookings := bookingRepo.NewMongoBookingRepo(db)
	docs := documentRepo.NewMongoDocumentRepo(db)
	payments := paymentRepo.NewMongoPaymentRepo(db)
	inbox := notificationRepo.NewMongoNotificationRepo(db)
	for name, repo := range map[string]interface {
		EnsureIndexes(context.Context) error
	}{"bookings": bookings, "documents": docs, "payments": payments, "notifications": inbox} {
		if err := repo.EnsureIndexes(ctx); err != nil {
			logger.Fatal("main: failed to create indexes", zap.String("collection", name), zap.Error(err))
		}
	}

	cache, err := utils.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisCacheDB)
	if err != nil {
		logger.Fatal("main: redis unavailable", zap.Error(err))
	}
	defer cache.Close()

	queueOpt := asynq.RedisClientOpt{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisQueueDB}
	queue := asynq.NewClient(queueOpt)
	defer queue.Close()
	notifier := notification.NewQueueNotifier(queue, logger)

	var publisher events.Publisher = events.NoopPublisher{}
	if brokers := cfg.Brokers(); len(brokers) > 0 {
		publisher = events.NewKafkaPublisher(brokers, cfg.KafkaTopic, logger)
	}
	defer publisher.Close()

	store, err := newObjectStore(ctx, cfg)
	if err != nil {
		logger.Fatal("main: object storage unavailable", zap.Error(err))
	}

	gateways := map[models.PaymentProvider]payment.Gateway{}
	if cfg.StripeKey != "" {
		gateways[models.ProviderStripe] = payment.NewStripeGateway(cfg.StripeKey)
	}
	if cfg.RazorpayKeyID != "" && cfg.RazorpayKeySecret != "" {
		gateways[models.ProviderRazorpay] = payment.NewRazorpayGateway(cfg.RazorpayKeyID, cfg.RazorpayKeySecret)
	}
	if len(gateways) == 0 {
		logger.Warn("main: no payment gateway configured, payment endpoints will reject requests")
	}

	tx := database.NewMongoTransactor(mongoClient)
	bookingService := booking.NewBookingService(bookings, tx, notifier, publisher, logger)
	documentService := documents.NewDocumentService(bookings, docs, store, notifier, logger)
	paymentService := payment.NewPaymentService(payments, bookingService, tx, gateways,
		payment.NewRedisIdempotencyStore(cache), notifier, publisher, logger, cfg.CancelOnFullRefund)

	fcm, err := utils.NewMessagingClient(ctx, cfg.FirebaseCredentialsFile)
	if err != nil {
		logger.Fatal("main: firebase unavailable", zap.Error(err))
	}
	senders := map[string]notification.Sender{
		tasks.TypeNotifyEmail: notification.NewEmailSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword, cfg.SMTPFrom),
		tasks.TypeNotifySMS:   notification.NewSMSSender(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioFrom),
		tasks.TypeNotifyPush:  notification.NewPushSender(fcm),
		tasks.TypeNotifyInApp: notification.NewInboxSender(inbox),
	}
	worker := cron.NewNotificationWorker(cron.WorkerOptions{
		RedisAddr:     cfg.RedisAddr,
		RedisPassword: cfg.RedisPassword,
		RedisDB:       cfg.RedisQueueDB,
		Concurrency:   cfg.WorkerConcurrency,
	}, senders, logger)
	if err := worker.Start(); err != nil {
		logger.Fatal("main: notification worker failed to start", zap.Error(err))
	}

	health := utils.NewHealthMonitor(mongoClient, cache)
	health.Start(ctx, 30*time.Second)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	handlerBundle := handlers.NewHandlerBundle(handlers.BundleDeps{
		Logger:         logger,
		Tokens:         utils.NewTokenIssuer(cfg.JWTSecret),
		RateLimiter:    middleware.NewRateLimiter(cfg.MaxRequestsPerMin),
		Health:         health,
		Bookings:       bookingService,
		Documents:      documentService,
		Payments:       paymentService,
		Inbox:          &notification.InboxService{Repo: inbox},
		UploadMaxBytes: cfg.UploadMaxBytes,
	})
	routes.RegisterRoutes(router, handlerBundle)

	srv := &http.Server{
		Addr:    "0.0.0.0:" + cfg.AppPort,
		Handler: router,
	}

	logger.Sugar().Infof("Starting server on %s...", srv.Addr)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Sugar().Fatalf("main: server failed to start: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("main: server is shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("main: server forced to shutdown", zap.Error(err))
	}
	worker.Shutdown()
	if err := mongoClient.Disconnect(shutdownCtx); err != nil {
		logger.Warn("main: failed to disconnect from MongoDB", zap.Error(err))
	}

	logger.Info("main: server stopped gracefully")
}

func newObjectStore(ctx context.Context, cfg *config.Config) (storage.ObjectStore, error) {
	switch cfg.StorageDriver {
	case "gcs":
		return storage.NewGCSStore(ctx, cfg.GCSCredentialsFile, cfg.GCSBucket)
	case "cloudinary", "":
		return storage.NewCloudinaryStore(cfg.CloudinaryCloudName, cfg.CloudinaryAPIKey, cfg.CloudinaryAPISecret)
	default:
		return nil, errors.New("unknown STORAGE_DRIVER " + cfg.StorageDriver)
	}
}
