package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/ManuelReschke/PixCheckout/app/controllers"
	"github.com/ManuelReschke/PixCheckout/app/repository"
	"github.com/ManuelReschke/PixCheckout/internal/pkg/cache"
	"github.com/ManuelReschke/PixCheckout/internal/pkg/database"
	"github.com/ManuelReschke/PixCheckout/internal/pkg/env"
	"github.com/ManuelReschke/PixCheckout/internal/pkg/metrics/counter"
	"github.com/ManuelReschke/PixCheckout/internal/pkg/payment"
	"github.com/ManuelReschke/PixCheckout/internal/pkg/router"
	"github.com/ManuelReschke/PixCheckout/internal/pkg/s3backup"
)

const shutdownTimeout = 10 * time.Second

func main() {
	app := NewApplication()

	go func() {
		addr := fmt.Sprintf("%s:%s", env.GetEnv("APP_HOST", "0.0.0.0"), env.GetEnv("APP_PORT", "3000"))
		if err := app.Listen(addr); err != nil {
			log.Fatalf("[Server] %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("[Server] Shutting down...")
	if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
		log.Errorf("[Server] Shutdown: %v", err)
	}
	if err := database.Close(); err != nil {
		log.Errorf("[Database] Close: %v", err)
	}
	if err := cache.Close(); err != nil {
		log.Errorf("[Cache] Close: %v", err)
	}
}

func NewApplication() *fiber.App {
	env.SetupEnvFile()
	db := database.SetupDatabase()
	cache.SetupCache()
	repository.InitializeFactory(db)

	outcomes := counter.NewWebhookOutcomes(cache.GetClient())
	payments := payment.NewServiceFromDB(db, payment.NewPushinPayClientFromEnv(), payment.Options{
		CallbackURL:    payment.CallbackURLFromBase(env.GetEnv("BASE_URL", "")),
		FallbackWindow: env.GetDuration("PAYMENT_FALLBACK_WINDOW", 0),
		Cache:          cache.NewOrderStatusCache(cache.GetClient(), env.GetDuration("ORDER_STATUS_CACHE_TTL", 0)),
		Archiver:       newArchiver(),
		Counter:        outcomes,
	})
	controllers.InitializeControllers(payments, outcomes)

	// Define possible base paths
	basePaths := []string{
		"./",        // Current directory
		"../../",    // From cmd/pixcheckout to project root
		"../../../", // Fallback
	}

	basePath := ""
	for _, path := range basePaths {
		if _, err := os.Stat(path + "public/docs"); !os.IsNotExist(err) {
			basePath = path
			break
		}
	}

	app := fiber.New(fiber.Config{
		AppName:   "PixCheckout",
		BodyLimit: 1 << 20,
	})

	// recovery and logging
	app.Use(recover.New(), logger.New())

	// SWAGGER / OPENAPI
	if basePath != "" {
		app.Use(swagger.New(swagger.Config{
			BasePath: "/docs/api/",
			FilePath: basePath + "public/docs/v1/openapi.yml",
			Path:     "v1",
		}))
	} else {
		log.Warn("[Server] public/docs not found, API docs disabled")
	}

	// ROUTER
	router.InstallRouter(app)

	return app
}

// newArchiver returns the S3 payload archive, or nil when it is disabled or
// cannot be reached. Payments work without it.
func newArchiver() payment.PayloadArchiver {
	cfg, err := s3backup.LoadConfig()
	if err != nil {
		log.Errorf("[S3Archive] Invalid configuration: %v", err)
		return nil
	}
	if !cfg.IsEnabled() {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	client, err := s3backup.NewClient(ctx, cfg)
	if err != nil {
		log.Errorf("[S3Archive] Disabled: %v", err)
		return nil
	}
	return client
}
