package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/robfig/cron/v3"
	"github.com/stripe/stripe-go/v82"
	"go.uber.org/zap"

	"fieldservice/internal/api"
	"fieldservice/internal/auth"
	"fieldservice/internal/db"
	"fieldservice/internal/repository"
	"fieldservice/internal/service"
)

func newLogger() *zap.Logger {
	if os.Getenv("ENV") == "production" {
		logger, err := zap.NewProduction()
		if err != nil {
			log.Fatalf("Failed to build logger: %v", err)
		}
		return logger
	}
	logger, err := zap.NewDevelopment()
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	return logger
}

func main() {
	godotenv.Load()
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL not set")
	}
	database, err := sql.Open("postgres", dbURL)
	if err != nil {
		log.Fatalf("Failed to open DB: %v", err)
	}
	if err := database.Ping(); err != nil {
		log.Fatalf("Failed to connect to DB: %v", err)
	}
	if err := db.Migrate(context.Background(), database); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	logger := newLogger()
	defer logger.Sync()

	stripe.Key = os.Getenv("STRIPE_SECRET_KEY")

	settingsRepo := repository.NewSettingsRepository(database)
	bookingRepo := repository.NewBookingRepository(database)
	workOrderRepo := repository.NewWorkOrderRepository(database)
	jobRepo := repository.NewJobRepository(database)
	dispatcherRepo := repository.NewDispatcherAuthRepository(database)

	stripeService := service.NewStripeService()
	senderService := service.NewSenderService(logger)
	schedulingService := service.NewSchedulingService(settingsRepo, bookingRepo, workOrderRepo, senderService, logger)
	workOrderService := service.NewWorkOrderService(workOrderRepo, settingsRepo, stripeService, senderService, logger)
	authService := service.NewDispatcherAuthService(dispatcherRepo)
	jobService := service.NewJobService(jobRepo)

	schedulingHandler := api.NewSchedulingHandler(schedulingService)
	adminHandler := api.NewAdminHandler(workOrderService)
	authHandler := api.NewDispatcherAuthHandler(authService)
	stripeHandler := api.NewStripeWebhookHandler(os.Getenv("STRIPE_WEBHOOK_SECRET"), workOrderService)

	r := mux.NewRouter()

	// Public endpoints
	r.HandleFunc("/api/availability", schedulingHandler.CheckAvailability).Methods("POST")
	r.HandleFunc("/api/work-orders/{id}/schedule", schedulingHandler.ScheduleWorkOrder).Methods("POST")
	r.HandleFunc("/api/work-orders/{id}/auto-schedule", schedulingHandler.AutoScheduleWorkOrder).Methods("POST")
	r.HandleFunc("/api/work-orders/{id}/deposit", stripeHandler.StartDepositCheckout).Methods("POST")
	r.HandleFunc("/api/work-orders/by-session", stripeHandler.GetWorkOrderBySessionID).Methods("GET")
	r.HandleFunc("/api/stripe/webhook", stripeHandler.HandleWebhook).Methods("POST")
	r.HandleFunc("/api/admin/login", authHandler.Login).Methods("POST")

	// Dispatcher endpoints (protected)
	admin := r.PathPrefix("/admin").Subrouter()
	admin.Use(auth.DispatcherAuthMiddleware)
	admin.HandleFunc("/work-orders", adminHandler.CreateWorkOrder).Methods("POST")
	admin.HandleFunc("/work-orders", adminHandler.ListWorkOrders).Methods("GET")
	admin.HandleFunc("/work-orders/{id}", adminHandler.GetWorkOrder).Methods("GET")
	admin.HandleFunc("/work-orders/{id}", adminHandler.AmendWorkOrder).Methods("PUT")
	admin.HandleFunc("/work-orders/{id}", adminHandler.CancelWorkOrder).Methods("DELETE")
	admin.HandleFunc("/settings", adminHandler.GetSettings).Methods("GET")
	admin.HandleFunc("/settings", adminHandler.UpdateSettings).Methods("PUT")
	admin.HandleFunc("/dispatchers", authHandler.CreateDispatcher).Methods("POST")

	c := cron.New()
	c.AddFunc("*/5 * * * *", func() {
		if err := jobService.StartDueWorkOrders(); err != nil {
			logger.Error("start-due job failed", zap.Error(err))
		}
		if err := jobService.CompleteFinishedWorkOrders(); err != nil {
			logger.Error("complete-finished job failed", zap.Error(err))
		}
	})
	c.Start()
	defer c.Stop()

	corsHandler := handlers.CORS(
		handlers.AllowedOrigins([]string{os.Getenv("FRONTEND_URL"), "http://localhost:3000"}),
		handlers.AllowedMethods([]string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
		handlers.AllowedHeaders([]string{"Content-Type", "Authorization", "X-Company-ID"}),
	)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	log.Printf("Server running on port %s", port)
	log.Fatal(http.ListenAndServe(":"+port, corsHandler(r)))
}
