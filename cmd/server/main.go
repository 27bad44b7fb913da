package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"ptcoach/pt-server/internal/api"
	"ptcoach/pt-server/internal/auth"
	"ptcoach/pt-server/internal/config"
	"ptcoach/pt-server/internal/llm"
	"ptcoach/pt-server/internal/logging"
	"ptcoach/pt-server/internal/metrics"
	"ptcoach/pt-server/internal/ratelimit"
	"ptcoach/pt-server/internal/repository/mongo"
	"ptcoach/pt-server/internal/service"
	"ptcoach/pt-server/internal/storage"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	log "github.com/sirupsen/logrus"
)

// @title PT Server API
// @version 1.0
// @description Personal training backend: workouts, templates, AI plans and onboarding.
// @BasePath /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the identity token.
func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warnf("failed to load .env file: %v", err)
	}

	// --- Configuration ---
	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatalf("FATAL: Could not load config: %v", err)
	}

	logging.Setup(logging.LoggerSetupParams{
		LogFileName:   cfg.Log.File,
		LogToStdout:   cfg.Log.Stdout,
		LogLevel:      cfg.Log.Level,
		LogFormatJSON: cfg.Log.JSON,
	})
	log.Infoln("Starting PT Server...")

	location, err := cfg.Server.Location()
	if err != nil {
		log.Fatalf("FATAL: Invalid server timezone '%s': %v", cfg.Server.Timezone, err)
	}
	calendar := service.NewCalendar(location)

	// --- Metrics ---
	promRegistry := prometheus.NewRegistry()
	var metricsManager *metrics.Manager
	var metricsHandler http.Handler
	if cfg.Metrics.Enabled {
		promRegistry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		metricsManager = metrics.NewManager(cfg.Metrics.Namespace, "server", promRegistry)
		metricsHandler = promhttp.HandlerFor(promRegistry, promhttp.HandlerOpts{})
	}

	// --- Database Connection ---
	dbClient, err := mongo.ConnectDB(cfg.Database.URI)
	if err != nil {
		log.Fatalf("FATAL: Could not connect to MongoDB: %v", err)
	}
	defer func() {
		log.Infoln("Disconnecting MongoDB...")
		if err := mongo.DisconnectDB(dbClient); err != nil {
			log.Errorf("failed to disconnect MongoDB: %v", err)
		}
	}()
	appDB := dbClient.Database(cfg.Database.Name)

	indexCtx, cancelIndexes := context.WithTimeout(context.Background(), time.Minute)
	if err := mongo.EnsureIndexes(indexCtx, appDB); err != nil {
		log.Errorf("failed to ensure indexes: %v", err)
	}
	cancelIndexes()

	// --- Rate Limiting ---
	redisCtx, cancelRedis := context.WithTimeout(context.Background(), 5*time.Second)
	rdb := ratelimit.NewRedisClient(redisCtx, cfg.Redis)
	cancelRedis()
	if rdb != nil {
		defer func() {
			if err := rdb.Close(); err != nil {
				log.Errorf("failed to close redis client: %v", err)
			}
		}()
	}
	limiter := ratelimit.NewLimiter(rdb)

	// --- Initialize Storage ---
	var fileStorage storage.FileStorage
	if cfg.S3.BucketName != "" {
		s3Ctx, cancelS3 := context.WithTimeout(context.Background(), 10*time.Second)
		fileStorage, err = storage.NewS3Storage(s3Ctx, cfg.S3)
		cancelS3()
		if err != nil {
			log.Fatalf("FATAL: Failed to initialize S3 storage: %v", err)
		}
	} else {
		log.Warnln("s3 bucket not set, workout export disabled")
	}

	// --- LLM ---
	generator, err := llm.NewAnthropicGenerator(llm.AnthropicConfig{
		APIKey:    cfg.LLM.APIKey,
		BaseURL:   cfg.LLM.BaseURL,
		Model:     cfg.LLM.Model,
		MaxTokens: cfg.LLM.MaxTokens,
		Timeout:   cfg.LLM.Timeout,
	}, metricsManager)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize LLM client: %v", err)
	}

	verifier, err := auth.NewJWTVerifier(cfg.Auth.Secret, cfg.Auth.Issuer)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize token verifier: %v", err)
	}

	// --- Initialize Repositories ---
	tx := mongo.NewTransactor(dbClient, cfg.Database.UseTransactions)
	userRepo := mongo.NewMongoUserRepository(appDB)
	templateRepo := mongo.NewMongoTemplateRepository(appDB)
	planRepo := mongo.NewMongoTrainingPlanRepository(appDB)
	workoutRepo := mongo.NewMongoWorkoutRepository(appDB)

	// --- Initialize Services ---
	services := api.Services{
		Users:       service.NewUserService(userRepo),
		Workouts:    service.NewWorkoutService(tx, workoutRepo, templateRepo, calendar),
		Suggestions: service.NewSuggestionService(tx, workoutRepo, templateRepo, generator, calendar),
		Exports:     service.NewExportService(workoutRepo, fileStorage, cfg.S3.ExportURLTTL, calendar),
		Templates:   service.NewTemplateService(tx, templateRepo, planRepo, workoutRepo),
		Plans:       service.NewPlanService(tx, userRepo, templateRepo, planRepo, workoutRepo, generator, calendar, cfg.Plan.DefaultWeeks, metricsManager),
		Onboarding:  service.NewOnboardingService(userRepo, generator),
		Generation:  service.NewGenerationService(generator),
	}

	// --- Initialize Gin Engine ---
	router := gin.New()
	api.SetupRoutes(router, services, api.RouterOptions{
		Verifier:       verifier,
		Limiter:        limiter,
		LLMPerMinute:   cfg.RateLimit.LLMPerMinute,
		MetricsManager: metricsManager,
		MetricsHandler: metricsHandler,
	})

	var handler http.Handler = router
	if len(cfg.Server.CORSAllowedOrigins) > 0 {
		handler = cors.New(cors.Options{
			AllowedOrigins:   cfg.Server.CORSAllowedOrigins,
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete},
			AllowedHeaders:   []string{"Authorization", "Content-Type", "X-Request-ID"},
			ExposedHeaders:   []string{"X-Request-ID", "Retry-After"},
			AllowCredentials: true,
		}).Handler(router)
	}

	// --- Start HTTP Server ---
	// Write timeout leaves room for plan generation, the slowest LLM call.
	server := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.LLM.Timeout + 30*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Infof(" > server listening on: [%s]", cfg.Server.Address)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("FATAL: ListenAndServe Error: %v", err)
		}
	}()

	// --- Graceful Shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Infoln("Shutting down server...")

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()

	if err := server.Shutdown(ctxShutdown); err != nil {
		log.Errorf("server forced to shutdown: %v", err)
	}

	log.Infoln("Server exiting.")
}
