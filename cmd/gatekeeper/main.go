package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gatekeeper/internal/auth"
	"gatekeeper/internal/checkin"
	"gatekeeper/internal/checkin/checkin_api"
	"gatekeeper/internal/config"
	"gatekeeper/internal/events"
	eventsdb "gatekeeper/internal/events/db"
	"gatekeeper/internal/events/event_api"
	"gatekeeper/internal/inventory"
	inventoryredis "gatekeeper/internal/inventory/redis"
	"gatekeeper/internal/kafka"
	"gatekeeper/internal/ledger"
	ledgerdb "gatekeeper/internal/ledger/db"
	"gatekeeper/internal/logger"
	"gatekeeper/internal/media"
	"gatekeeper/internal/payment"
	"gatekeeper/internal/payment/payment_api"
	"gatekeeper/internal/purchase"
	"gatekeeper/internal/purchase/purchase_api"
	"gatekeeper/internal/qr"
	"gatekeeper/internal/sse"
	"gatekeeper/internal/stats"
	"gatekeeper/internal/stats/stats_api"
	"gatekeeper/internal/tiers"
	tiersdb "gatekeeper/internal/tiers/db"
	"gatekeeper/internal/tiers/tier_api"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
)

func main() {
	if err := godotenv.Load(); err != nil {
		fmt.Println("No .env file found, relying on environment")
	}

	log := logger.NewLogger()
	defer log.Close()

	cfg := config.Load()

	bunDB := connectDatabase(cfg, log)
	defer bunDB.Close()

	redisClient := connectRedis(cfg, log)
	defer redisClient.Close()

	var producer *kafka.Producer
	if cfg.Kafka.Enabled {
		if err := kafka.EnsureTopicsExist(cfg.Kafka.Brokers, kafka.RequiredTopics()); err != nil {
			log.Warn("KAFKA", fmt.Sprintf("Topic setup failed, continuing without Kafka: %v", err))
		} else {
			producer = kafka.NewProducer(cfg.Kafka.Brokers)
			defer producer.Close()
			log.Info("KAFKA", fmt.Sprintf("Producer connected to %v", cfg.Kafka.Brokers))
		}
	}

	mediaStore, err := media.NewDiskStore(cfg.Media.Dir, cfg.Media.BaseURL)
	if err != nil {
		log.Fatal("MEDIA", fmt.Sprintf("Failed to prepare media store: %v", err))
	}

	qrSecret := os.Getenv("QR_SECRET_KEY")
	if qrSecret == "" {
		qrSecret = "gatekeeper-dev-secret"
		log.Warn("QR", "QR_SECRET_KEY not set, using development secret")
	}
	qrGenerator := qr.NewQRGenerator(qrSecret)

	var payments purchase.Payments
	if stripeService, err := payment.NewStripeService(log); err != nil {
		log.Warn("STRIPE", "STRIPE_SECRET_KEY not set, card payments disabled")
	} else {
		payments = stripeService
	}

	var purchasePublisher purchase.Publisher
	var checkinPublisher checkin.Publisher
	if producer != nil {
		purchasePublisher = producer
		checkinPublisher = producer
	}

	salesEvents := sse.NewSalesEventEmitter()

	tierDB := &tiersdb.DB{Bun: bunDB}
	eventService := events.NewEventService(&eventsdb.DB{Bun: bunDB}, mediaStore, log)
	tierService := tiers.NewTierService(tierDB, log)
	inventoryService := inventory.NewInventoryService(tierDB, log)
	ledgerService := ledger.NewLedgerService(&ledgerdb.DB{Bun: bunDB}, log)
	tierLocks := inventoryredis.NewRedis(redisClient)
	purchaseService := purchase.NewPurchaseService(
		inventoryService, ledgerService, tierDB, tierLocks,
		purchasePublisher, salesEvents, payments, log)
	checkInService := checkin.NewCheckInService(ledgerService, checkinPublisher, log)
	statsService := stats.NewService(bunDB)

	eventHandler := &event_api.Handler{EventService: eventService, Logger: log}
	tierHandler := &tier_api.Handler{TierService: tierService, Inventory: inventoryService, Logger: log}
	purchaseHandler := &purchase_api.Handler{PurchaseService: purchaseService, QRGenerator: qrGenerator, Logger: log}
	checkInHandler := &checkin_api.Handler{CheckInService: checkInService, QRGenerator: qrGenerator, Logger: log}
	statsHandler := &stats_api.Handler{StatsService: statsService, SalesEvents: salesEvents, Logger: log}
	paymentHandler := &payment_api.Handler{WebhookSecret: os.Getenv("STRIPE_WEBHOOK_SECRET"), Logger: log}

	requireAuth := auth.PassthroughMiddleware()
	if cfg.Auth.Enabled {
		requireAuth = auth.Middleware(cfg.Auth.OIDCIssuer)
	} else {
		log.Warn("AUTH", "AUTH_ENABLED=false, accepting unverified tokens")
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(log))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	r.Handle("/media/*", http.StripPrefix("/media/", http.FileServer(http.Dir(cfg.Media.Dir))))

	r.Route("/api", func(r chi.Router) {
		// Discovery surface, no auth required.
		r.Get("/events/{eventID}", eventHandler.GetEvent)
		r.Get("/events/{eventID}/tiers", tierHandler.ListTiers)
		r.Get("/tiers/{tierID}/availability", tierHandler.GetAvailability)

		// Stripe authenticates webhooks via signature, not bearer tokens.
		r.Post("/payments/webhook", paymentHandler.HandleWebhook)

		r.Group(func(r chi.Router) {
			r.Use(requireAuth)

			r.Get("/events", eventHandler.ListEvents)
			r.Post("/events", eventHandler.CreateEvent)
			r.Put("/events/{eventID}", eventHandler.UpdateEvent)
			r.Post("/events/{eventID}/poster", eventHandler.UploadPoster)

			r.Post("/events/{eventID}/tiers", tierHandler.CreateTier)
			r.Put("/tiers/{tierID}", tierHandler.UpdateTier)

			r.Post("/purchase", purchaseHandler.Purchase)
			r.Post("/checkin", checkInHandler.CheckIn)

			r.Get("/events/{eventID}/stats", statsHandler.GetEventStats)
			r.Get("/events/{eventID}/checkins/count", statsHandler.GetCheckedInCount)
			r.Get("/events/{eventID}/sales/stream", statsHandler.StreamSales)
		})
	})

	server := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info("SERVER", fmt.Sprintf("Listening on %s", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("SERVER", fmt.Sprintf("Server failed: %v", err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("SERVER", "Shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Error("SERVER", fmt.Sprintf("Forced shutdown: %v", err))
	}
	log.Info("SERVER", "Stopped")
}

func connectDatabase(cfg *config.Config, log *logger.Logger) *bun.DB {
	sqlDB, err := sql.Open("postgres", cfg.Database.DSN)
	if err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("Failed to open database: %v", err))
	}
	sqlDB.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.Database.MaxLifetime)

	for attempt := 1; attempt <= 10; attempt++ {
		if err = sqlDB.Ping(); err == nil {
			break
		}
		log.Warn("DATABASE", fmt.Sprintf("Ping failed (attempt %d/10): %v", attempt, err))
		time.Sleep(2 * time.Second)
	}
	if err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("Database unreachable: %v", err))
	}

	log.Info("DATABASE", "Connected to Postgres")
	return bun.NewDB(sqlDB, pgdialect.New())
}

func connectRedis(cfg *config.Config, log *logger.Logger) *redis.Client {
	client := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		log.Fatal("REDIS", fmt.Sprintf("Redis unreachable at %s: %v", cfg.Redis.Addr, err))
	}

	log.Info("REDIS", fmt.Sprintf("Connected to Redis at %s", cfg.Redis.Addr))
	return client
}

func requestLogger(log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			log.LogAPI(r.Method, r.URL.Path, fmt.Sprintf("%d", ww.Status()), time.Since(start).String())
		})
	}
}
