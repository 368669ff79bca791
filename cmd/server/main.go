package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/yourorg/estateman/internal/featureflags"
	"github.com/yourorg/estateman/internal/handler"
	"github.com/yourorg/estateman/internal/infrastructure/logger"
	"github.com/yourorg/estateman/internal/infrastructure/mailer"
	"github.com/yourorg/estateman/internal/infrastructure/redis"
	"github.com/yourorg/estateman/internal/observability/metrics"
	"github.com/yourorg/estateman/internal/observability/tracing"
	"github.com/yourorg/estateman/internal/repository"
	"github.com/yourorg/estateman/internal/security/audit"
	"github.com/yourorg/estateman/internal/security/auth"
	"github.com/yourorg/estateman/internal/security/middleware"
	"github.com/yourorg/estateman/internal/security/ratelimit"
	"github.com/yourorg/estateman/internal/service"
	"github.com/yourorg/estateman/internal/worker"
	"github.com/yourorg/estateman/pkg/cache"
	"github.com/yourorg/estateman/pkg/config"
	"github.com/yourorg/estateman/pkg/database"
)

func main() {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 2. Initialize structured logger
	log := logger.NewLogger(cfg.LogLevel)
	log.Info("starting estate management server", slog.String("environment", cfg.Environment))

	// 3. Tracing (no-op unless an OTLP endpoint is configured)
	shutdownTracing, err := tracing.Init(context.Background(), log, "estateman", cfg.Environment)
	if err != nil {
		log.Error("failed to initialize tracing", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer shutdownTracing(context.Background())

	// 4. Database
	pool, err := database.NewConnectionPool(context.Background(), &database.Config{
		Host:     cfg.DatabaseHost,
		Port:     cfg.DatabasePort,
		User:     cfg.DatabaseUser,
		Password: cfg.DatabasePassword,
		Database: cfg.DatabaseName,
		SSLMode:  cfg.DatabaseSSLMode,
	}, log)
	if err != nil {
		log.Error("failed to connect to database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer pool.Close()
	db := pool.GetDB()

	// 5. Report cache: Redis when configured, in-process otherwise
	var reportCache service.ReportCache
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = redis.NewClient(cfg.RedisURL)
		if err != nil {
			log.Error("failed to connect to Redis", slog.String("error", err.Error()))
			os.Exit(1)
		}
		defer redisClient.Close()
		reportCache = redisClient
	} else {
		log.Info("REDIS_URL not set, using in-process report cache")
		reportCache = cache.New()
	}

	// 6. Outbound email
	var mail mailer.Mailer
	if cfg.SendGridAPIKey == "" || featureflags.Enabled(featureflags.DisableEmail) {
		log.Info("email disabled, sends will be logged only")
		mail = mailer.NewNoop(log)
	} else {
		mail = mailer.NewBreaker(mailer.NewSendGrid(cfg.SendGridAPIKey, cfg.EmailFromName, cfg.EmailFromAddr, log), log)
	}

	// 7. Repositories
	userRepo := repository.NewPostgresUserRepository(db, log)
	houseRepo := repository.NewPostgresHouseRepository(db, log)
	tenantRepo := repository.NewPostgresTenantRepository(db, log)
	contractRepo := repository.NewPostgresContractRepository(db, log)
	billRepo := repository.NewPostgresBillRepository(db, log)
	paymentRepo := repository.NewPostgresPaymentRepository(db, log)
	maintenanceRepo := repository.NewPostgresMaintenanceRepository(db, log)
	notificationRepo := repository.NewPostgresNotificationRepository(db, log)

	// 8. Security components
	tokenManager := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTIssuer, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	rateLimiter := ratelimit.NewLimiter(cfg.RateLimitPerMinute, time.Minute)
	auditLogger := audit.NewLogger(log)

	// 9. Services
	notificationService := service.NewNotificationService(notificationRepo, log)
	authService := service.NewAuthService(userRepo, tokenManager, mail, log)
	approvalService := service.NewApprovalService(userRepo, tenantRepo, houseRepo, notificationService, log)
	houseService := service.NewHouseService(houseRepo, tenantRepo, log)
	tenancyService := service.NewTenancyService(tenantRepo, houseRepo, userRepo, contractRepo, log)
	billingService := service.NewBillingService(billRepo, paymentRepo, tenantRepo, notificationService, log)
	settlementService := service.NewSettlementService(paymentRepo, billRepo, tenantRepo, notificationService, log)
	maintenanceService := service.NewMaintenanceService(maintenanceRepo, houseRepo, userRepo, notificationService, log)
	occupancyService := service.NewOccupancyService(houseRepo, tenantRepo, log)
	reportService := service.NewReportService(
		paymentRepo, billRepo, tenantRepo, houseRepo, userRepo, maintenanceRepo,
		notificationService, reportCache, cfg.ReportCacheTTL, log,
	)

	// 10. Handlers
	authHandler := handler.NewAuthHandler(authService, log)
	usersHandler := handler.NewUsersHandler(authService, approvalService, userRepo, log)
	housesHandler := handler.NewHousesHandler(houseService, log)
	tenantsHandler := handler.NewTenantsHandler(tenancyService, log)
	contractsHandler := handler.NewContractsHandler(tenancyService, log)
	billsHandler := handler.NewBillsHandler(billingService, log)
	paymentsHandler := handler.NewPaymentsHandler(billingService, settlementService, log)
	maintenanceHandler := handler.NewMaintenanceHandler(maintenanceService, log)
	reportsHandler := handler.NewReportsHandler(reportService, log)
	notificationsHandler := handler.NewNotificationsHandler(notificationService, log)
	notificationStream := handler.NewNotificationStreamHandler(notificationService, tokenManager, log, cfg.CORSAllowedOrigins)

	// 11. Routes
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/auth/register", authHandler.Register)
	mux.HandleFunc("POST /api/auth/verify-email", authHandler.VerifyEmail)
	mux.HandleFunc("POST /api/auth/login", authHandler.Login)
	mux.HandleFunc("POST /api/auth/refresh", authHandler.Refresh)

	mux.HandleFunc("GET /api/users", usersHandler.List)
	mux.HandleFunc("POST /api/users", usersHandler.CreateStaff)
	mux.HandleFunc("GET /api/users/me", usersHandler.Me)
	mux.HandleFunc("PATCH /api/users/me", usersHandler.UpdateProfile)
	mux.HandleFunc("POST /api/users/complete_profile", usersHandler.CompleteProfile)
	mux.HandleFunc("GET /api/users/pending_approvals", usersHandler.PendingApprovals)
	mux.HandleFunc("GET /api/users/{id}", usersHandler.Get)
	mux.HandleFunc("DELETE /api/users/{id}", usersHandler.Delete)
	mux.HandleFunc("POST /api/users/{id}/approve", usersHandler.Approve)
	mux.HandleFunc("POST /api/users/{id}/reject", usersHandler.Reject)
	mux.HandleFunc("POST /api/users/{id}/reset_password", usersHandler.ResetPassword)

	mux.HandleFunc("GET /api/houses", housesHandler.List)
	mux.HandleFunc("POST /api/houses", housesHandler.Create)
	mux.HandleFunc("GET /api/houses/vacant", housesHandler.Vacant)
	mux.HandleFunc("GET /api/houses/stats", housesHandler.Stats)
	mux.HandleFunc("GET /api/houses/{id}", housesHandler.Get)
	mux.HandleFunc("PUT /api/houses/{id}", housesHandler.Update)
	mux.HandleFunc("DELETE /api/houses/{id}", housesHandler.Delete)

	mux.HandleFunc("GET /api/tenants", tenantsHandler.List)
	mux.HandleFunc("POST /api/tenants", tenantsHandler.Create)
	mux.HandleFunc("GET /api/tenants/expiring", tenantsHandler.Expiring)
	mux.HandleFunc("GET /api/tenants/{id}", tenantsHandler.Get)
	mux.HandleFunc("PUT /api/tenants/{id}", tenantsHandler.Update)
	mux.HandleFunc("DELETE /api/tenants/{id}", tenantsHandler.Delete)

	mux.HandleFunc("GET /api/contracts", contractsHandler.List)
	mux.HandleFunc("POST /api/contracts", contractsHandler.Create)
	mux.HandleFunc("GET /api/contracts/{id}", contractsHandler.Get)
	mux.HandleFunc("DELETE /api/contracts/{id}", contractsHandler.Delete)

	mux.HandleFunc("GET /api/bills", billsHandler.List)
	mux.HandleFunc("POST /api/bills", billsHandler.Create)
	mux.HandleFunc("GET /api/bills/{id}", billsHandler.Get)
	mux.HandleFunc("PUT /api/bills/{id}", billsHandler.Update)
	mux.HandleFunc("DELETE /api/bills/{id}", billsHandler.Delete)

	mux.HandleFunc("GET /api/payments", paymentsHandler.List)
	mux.HandleFunc("POST /api/payments", paymentsHandler.Create)
	mux.HandleFunc("GET /api/payments/{id}", paymentsHandler.Get)
	mux.HandleFunc("POST /api/payments/{id}/verify", paymentsHandler.Verify)
	mux.HandleFunc("DELETE /api/payments/{id}", paymentsHandler.Delete)

	mux.HandleFunc("GET /api/maintenance", maintenanceHandler.List)
	mux.HandleFunc("POST /api/maintenance", maintenanceHandler.Create)
	mux.HandleFunc("GET /api/maintenance/completed", maintenanceHandler.Completed)
	mux.HandleFunc("GET /api/maintenance/all", maintenanceHandler.All)
	mux.HandleFunc("GET /api/maintenance/stats", maintenanceHandler.Stats)
	mux.HandleFunc("GET /api/maintenance/{id}", maintenanceHandler.Get)
	mux.HandleFunc("POST /api/maintenance/{id}/assign", maintenanceHandler.Assign)
	mux.HandleFunc("POST /api/maintenance/{id}/update_status", maintenanceHandler.UpdateStatus)
	mux.HandleFunc("POST /api/maintenance/{id}/ping", maintenanceHandler.Ping)

	mux.HandleFunc("GET /api/reports/dashboard_summary", reportsHandler.Dashboard)
	mux.HandleFunc("GET /api/reports/monthly_trends", reportsHandler.Trends)
	mux.HandleFunc("GET /api/reports/occupancy_stats", reportsHandler.Occupancy)
	mux.HandleFunc("GET /api/reports/debtors", reportsHandler.Debtors)
	mux.HandleFunc("POST /api/reports/debtors/{id}/ping", reportsHandler.PingDebtor)

	mux.HandleFunc("GET /api/notifications", notificationsHandler.List)
	mux.HandleFunc("POST /api/notifications/{id}/read", notificationsHandler.MarkRead)
	mux.Handle("GET /ws/notifications", notificationStream)

	mux.Handle("/metrics", promhttp.Handler())

	// Health and readiness endpoints (no auth required)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := pool.Health(ctx); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte("database not ready"))
			return
		}
		if redisClient != nil {
			if err := redisClient.Ping(ctx); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				w.Write([]byte("redis not ready"))
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ready"))
	})

	// CORS middleware honoring configured origins
	handlerWithCORS := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if originAllowed(cfg.CORSAllowedOrigins, origin) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
		} else if len(cfg.CORSAllowedOrigins) > 0 {
			w.Header().Set("Access-Control-Allow-Origin", cfg.CORSAllowedOrigins[0])
		}
		w.Header().Set("Vary", "Origin")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, OPTIONS, DELETE")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Accept, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		mux.ServeHTTP(w, r)
	})

	// Chain middleware: request ID -> metrics -> JWT -> audit -> rate limit -> CORS -> mux.
	// JWT runs first so audit entries carry the actor and rate limiting
	// buckets per user instead of per connection.
	rootHandler := withRequestID(
		metrics.HTTPMetricsMiddleware(
			middleware.JWTMiddleware(tokenManager, log)(
				middleware.AuditMiddleware(auditLogger)(
					middleware.RateLimitMiddleware(rateLimiter, log)(handlerWithCORS),
				),
			),
		),
		log,
	)
	rootHandler = otelhttp.NewHandler(rootHandler, "http.server")

	// 12. Background occupancy reconciliation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if featureflags.Enabled(featureflags.DisableOccupancyWorker) {
		log.Info("occupancy worker disabled by flag")
	} else {
		occupancyWorker := worker.NewOccupancyWorker(occupancyService, log, cfg.OccupancySyncInterval)
		go occupancyWorker.Start(ctx)
	}

	// 13. HTTP server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      rootHandler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	log.Info("server starting",
		slog.Int("port", cfg.ServerPort),
		slog.String("auth", "jwt"),
		slog.Int("rate_limit", cfg.RateLimitPerMinute),
		slog.String("rate_limit_window", "1m"),
	)

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", slog.String("error", err.Error()))
		}
	}()

	<-sigChan
	log.Info("shutdown signal received")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown error", slog.String("error", err.Error()))
	}

	cancel() // Stop occupancy worker
	rateLimiter.Stop()
	log.Info("server stopped")
}

// withRequestID attaches a request ID to the context and response headers for traceability
func withRequestID(next http.Handler, log *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := uuid.NewString()
		w.Header().Set("X-Request-ID", reqID)

		ctx := context.WithValue(r.Context(), audit.RequestIDKey{}, reqID)
		start := time.Now()

		next.ServeHTTP(w, r.WithContext(ctx))

		log.Info("request completed",
			slog.String("request_id", reqID),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Duration("duration_ms", time.Since(start)),
		)
	})
}

func originAllowed(allowed []string, origin string) bool {
	if origin == "" {
		return false
	}
	for _, a := range allowed {
		if a == "*" || a == origin {
			return true
		}
	}
	return false
}
