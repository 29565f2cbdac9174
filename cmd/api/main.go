package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/robfig/cron/v3"
	config "github.com/selfdrive/rentals/configs"
	"github.com/selfdrive/rentals/database"
	"github.com/selfdrive/rentals/handlers"
	"github.com/selfdrive/rentals/jobs"
	"github.com/selfdrive/rentals/middleware"
	"github.com/selfdrive/rentals/notifications"
	"github.com/selfdrive/rentals/payments"
	"github.com/selfdrive/rentals/repositories"
	"github.com/selfdrive/rentals/routes"
	"github.com/selfdrive/rentals/services"
	"github.com/selfdrive/rentals/settings"
	"github.com/selfdrive/rentals/utils"
	"github.com/selfdrive/rentals/websocket"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

func main() {
	cfg := config.Load()

	logger, err := utils.InitLogger(cfg.LogPath, cfg.Debug)
	if err != nil {
		log.Fatalf("🔥 Failed to initialise logger: %v", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.ConnectDB(cfg.DatabaseURL, cfg.Debug)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	if err := database.Migrate(db); err != nil {
		logger.Fatal("Failed to migrate database", zap.Error(err))
	}
	if err := database.SeedTemplates(ctx, db, logger); err != nil {
		logger.Fatal("Failed to seed templates", zap.Error(err))
	}
	if err := database.SeedCancellationReasons(ctx, db); err != nil {
		logger.Warn("Failed to seed cancellation reasons", zap.Error(err))
	}
	logger.Info("Database ready")

	orderRepo := repositories.NewOrderRepository(db)
	creds, err := settings.NewProvider(&repositories.SettingRepository{DB: db}, cfg.SettingsKey)
	if err != nil {
		logger.Fatal("Invalid SETTINGS_ENCRYPTION_KEY", zap.Error(err))
	}

	pdfPool := notifications.NewChromePool(cfg.PDFPoolSize, time.Duration(cfg.PDFTimeoutSecs)*time.Second, logger)
	var archive notifications.Archiver
	if cfg.CloudinaryURL != "" {
		archive = &notifications.CloudinaryArchiver{URL: cfg.CloudinaryURL}
	}

	dispatcher := &notifications.Dispatcher{
		Templates: &notifications.Resolver{Store: &repositories.TemplateRepository{DB: db}},
		Cars:      &repositories.CarRepository{DB: db},
		Orders:    orderRepo,
		Mailer:    notifications.NewBrevoMailer(creds, logger),
		Sender:    creds,
		Payments: &payments.Provider{
			Settings:      creds,
			Gateway:       payments.NewRazorpayClient(),
			PublicSiteURL: cfg.PublicSiteURL,
			Log:           logger,
		},
		PDF:     pdfPool,
		Archive: archive,
		Brand: notifications.Branding{
			CompanyName:   cfg.CompanyName,
			SupportEmail:  cfg.SupportEmail,
			PublicSiteURL: cfg.PublicSiteURL,
		},
		AdminCopyEmail: cfg.AdminCopyEmail,
		Log:            logger,
	}
	queue := notifications.NewTaskQueue(cfg.NotifyQueueSize, cfg.NotifyWorkers, 2*time.Minute, logger)
	notifier := &notifications.AsyncNotifier{Queue: queue, Dispatcher: dispatcher}

	hubCtx, stopHub := context.WithCancel(context.Background())
	hub := websocket.NewHub(logger)
	go hub.Run(hubCtx)

	orderService := &services.OrderService{
		Orders:            orderRepo,
		Notifications:     &repositories.NotificationRepository{DB: db},
		Hub:               hub,
		Notifier:          notifier,
		Reasons:           &repositories.CancellationReasonRepository{DB: db},
		BookingPrefix:     cfg.BookingIDPrefix,
		StrictTransitions: cfg.StrictTransitions,
		Log:               logger,
	}
	paymentService := &services.PaymentService{
		Orders:   orderRepo,
		Settings: creds,
		Notifier: notifier,
		Log:      logger,
	}

	limiter := middleware.NewIPRateLimiter(rate.Limit(cfg.RateLimitRPS), cfg.RateLimitBurst)

	c := cron.New(cron.WithChain(cron.Recover(cron.DefaultLogger), cron.SkipIfStillRunning(cron.DefaultLogger)))
	reminders := &jobs.TripReminderJob{Orders: orderRepo, Notifier: notifier, Log: logger}
	if _, err := c.AddFunc("*/5 * * * *", reminders.Run); err != nil {
		logger.Fatal("Failed to schedule trip reminders", zap.Error(err))
	}
	if _, err := c.AddFunc("@every 1m", func() { limiter.Cleanup(3 * time.Minute) }); err != nil {
		logger.Fatal("Failed to schedule limiter cleanup", zap.Error(err))
	}
	c.Start()
	logger.Info("Cron jobs scheduled")

	app := fiber.New(fiber.Config{
		AppName:       cfg.Name,
		CaseSensitive: true,
		StrictRouting: true,
		ReadTimeout:   15 * time.Second,
		WriteTimeout:  15 * time.Second,
		IdleTimeout:   60 * time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			logger.Error("Unhandled request error",
				zap.Error(err), zap.String("path", c.Path()), zap.String("method", c.Method()))
			return c.Status(code).JSON(fiber.Map{
				"status":  "error",
				"code":    code,
				"message": err.Error(),
			})
		},
	})

	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-Razorpay-Signature, Sec-WebSocket-Key, Sec-WebSocket-Version",
		AllowMethods: "GET, POST, PUT, DELETE, OPTIONS",
		MaxAge:       86400,
	}))
	app.Use(recover.New())
	app.Use(middleware.RequestLogger(logger))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	deps := routes.Deps{
		Orders:    &handlers.OrderHandler{Orders: orderService, Log: logger},
		Payments:  &handlers.PaymentHandler{Payments: paymentService, Log: logger},
		Sockets:   &handlers.AdminSocketHandler{Hub: hub, JWTSecret: cfg.JWTSecret, Log: logger},
		JWTSecret: cfg.JWTSecret,
		Limiter:   limiter,
	}
	routes.OrderRoutes(app, deps)
	routes.PaymentRoutes(app, deps)
	routes.AdminSocketRoutes(app, deps)

	go func() {
		logger.Info("Server is running", zap.String("port", cfg.Port))
		if err := app.Listen(":" + cfg.Port); err != nil {
			logger.Error("Server stopped", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Warn("HTTP shutdown incomplete", zap.Error(err))
	}
	<-c.Stop().Done()
	if err := queue.Shutdown(shutdownCtx); err != nil {
		logger.Warn("Notification queue did not drain", zap.Error(err))
	}
	pdfPool.Close()
	stopHub()
}
