package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/SherClockHolmes/webpush-go"

	"resort-booking-backend/config"
	"resort-booking-backend/internal/api"
	"resort-booking-backend/internal/booking"
	"resort-booking-backend/internal/db"
	"resort-booking-backend/internal/keylock"
	"resort-booking-backend/internal/notification"
	"resort-booking-backend/internal/store"
	"resort-booking-backend/internal/waitlist"
)

func main() {
	logger := log.New(os.Stdout, "resort-backend ", log.LstdFlags)

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./config/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Fatalf("failed to load configuration from %s: %v", configPath, err)
	}
	logger.Printf("configuration loaded successfully from %s", configPath)

	webpushOptions := webpush.Options{
		VAPIDPublicKey:  cfg.Push.PublicKey,
		VAPIDPrivateKey: cfg.Push.PrivateKey,
		Subscriber:      cfg.Push.Subject,
		TTL:             cfg.Push.TTL,
	}
	if cfg.Push.PublicKey == "" || cfg.Push.PrivateKey == "" {
		logger.Println("VAPID keys are not configured; waitlist offers will not be pushed")
	}

	gormDB, err := db.Init(&cfg.Database)
	if err != nil {
		logger.Fatalf("failed to initialize database: %v", err)
	}
	logger.Println("database initialized successfully")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	appStore := store.NewGormStore(gormDB)
	logger.Println("data store initialized")

	// Commit workflow and waitlist manager share one lock set so writes and
	// re-evaluations for the same resource serialize.
	locks := keylock.New()
	planner := booking.NewPlanner(appStore)
	workflow := booking.NewWorkflow(appStore, locks, cfg.Booking.LockTimeout)
	manager := waitlist.NewManager(appStore, planner, workflow, locks,
		cfg.Waitlist.OfferWindow, cfg.Waitlist.MaxOffers, cfg.Waitlist.SweepInterval)
	workflow.OnFreed = func(tenantID, resourceID string, start, end time.Time) {
		if err := manager.Reevaluate(ctx, tenantID, resourceID, start, end); err != nil {
			logger.Printf("waitlist re-evaluation for resource %s failed: %v", resourceID, err)
		}
	}

	workerPool := notification.NewWorkerPool(cfg.WorkerPool.Size, appStore, &webpushOptions)
	workerPool.Start(ctx)
	manager.SetNotifier(workerPool)

	go manager.Run(ctx)

	handler := api.NewHandler(appStore, planner, workflow, manager, &webpushOptions)
	router := api.NewRouter(&cfg.Server, handler)
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		logger.Printf("HTTP server starting on port %d", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("HTTP server ListenAndServe: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	<-stop
	logger.Println("Shutdown signal received, stopping services...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Fatalf("HTTP server Shutdown: %v", err)
	}

	logger.Println("Server gracefully stopped")
}
