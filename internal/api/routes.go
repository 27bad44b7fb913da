package api

import (
	"net/http"
	"ptcoach/pt-server/internal/auth"
	"ptcoach/pt-server/internal/metrics"
	"ptcoach/pt-server/internal/ratelimit"
	"ptcoach/pt-server/internal/service"

	"github.com/gin-gonic/gin"
)

const llmRateLimitScope = "llm"

// Services bundles what the routes are served from.
type Services struct {
	Users       service.UserService
	Workouts    service.WorkoutService
	Suggestions service.SuggestionService
	Exports     service.ExportService
	Templates   service.TemplateService
	Plans       service.PlanService
	Onboarding  service.OnboardingService
	Generation  service.GenerationService
}

type RouterOptions struct {
	Verifier       auth.Verifier
	Limiter        ratelimit.RequestRateLimiter // nil disables rate limiting
	LLMPerMinute   int
	MetricsManager *metrics.Manager
	// MetricsHandler is mounted at /metrics when set.
	MetricsHandler http.Handler
}

func SetupRoutes(router *gin.Engine, services Services, opts RouterOptions) {
	workoutHandler := NewWorkoutHandler(services.Workouts, services.Suggestions, services.Exports)
	templateHandler := NewTemplateHandler(services.Templates)
	planHandler := NewPlanHandler(services.Plans)
	onboardingHandler := NewOnboardingHandler(services.Onboarding)
	generationHandler := NewGenerationHandler(services.Generation)

	router.Use(PanicRecovery(opts.MetricsManager), RequestID(), LogRequest())
	if opts.MetricsManager != nil {
		router.Use(RequestMetrics(opts.MetricsManager))
	}

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})
	if opts.MetricsHandler != nil {
		router.GET("/metrics", gin.WrapH(opts.MetricsHandler))
	}

	authMiddleware := AuthMiddleware(opts.Verifier, services.Users)
	llmLimit := RateLimit(opts.Limiter, llmRateLimitScope, opts.LLMPerMinute, opts.MetricsManager)

	protected := router.Group("/api/v1")
	protected.Use(authMiddleware)
	{
		protected.GET("/me", func(c *gin.Context) {
			userID, ok := callerID(c)
			if !ok {
				return
			}
			user, err := services.Users.GetByID(c.Request.Context(), userID)
			if err != nil {
				respondError(c, err, "Failed to retrieve user.")
				return
			}
			c.JSON(http.StatusOK, UserResponse{ID: user.ID.Hex(), Email: user.Email, CreatedAt: user.CreatedAt})
		})

		// --- Workout Routes ---
		workoutGroup := protected.Group("/workouts")
		{
			workoutGroup.POST("", workoutHandler.CreateWorkout)
			workoutGroup.GET("", workoutHandler.ListWorkouts)
			workoutGroup.POST("/export", workoutHandler.ExportWorkouts)
			workoutGroup.GET("/:id", workoutHandler.GetWorkout)
			workoutGroup.PATCH("/:id", workoutHandler.UpdateWorkout)
			workoutGroup.DELETE("/:id", workoutHandler.DeleteWorkout)
			workoutGroup.PATCH("/:id/exercises", workoutHandler.ReplaceExercises)
			workoutGroup.POST("/:id/start", workoutHandler.StartWorkout)
			workoutGroup.POST("/:id/cancel", workoutHandler.CancelWorkout)
			workoutGroup.POST("/:id/finish", workoutHandler.FinishWorkout)
			workoutGroup.POST("/:id/suggest", llmLimit, workoutHandler.SuggestForWorkout)
		}

		// --- Template Routes ---
		templateGroup := protected.Group("/templates")
		{
			templateGroup.POST("", templateHandler.CreateTemplate)
			templateGroup.GET("", templateHandler.ListTemplates)
			templateGroup.GET("/:id", templateHandler.GetTemplate)
			templateGroup.DELETE("/:id", templateHandler.DeleteTemplate)
		}

		// --- Plan Routes ---
		protected.POST("/generate-training-plan", llmLimit, planHandler.GenerateTrainingPlan)
		protected.GET("/training-plan", planHandler.GetLatestPlan)

		// --- Onboarding Routes ---
		onboardingGroup := protected.Group("/onboarding")
		{
			onboardingGroup.POST("/message", llmLimit, onboardingHandler.Message)
			onboardingGroup.GET("/state", onboardingHandler.GetState)
		}

		protected.POST("/generate-workout", llmLimit, generationHandler.GenerateWorkout)
		protected.POST("/chat", llmLimit, generationHandler.Chat)
	}
}
