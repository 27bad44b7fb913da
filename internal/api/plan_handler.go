package api

import (
	"errors"
	"io"
	"net/http"
	"ptcoach/pt-server/internal/domain"
	"ptcoach/pt-server/internal/service"
	"strconv"

	"github.com/gin-gonic/gin"
)

type PlanHandler struct {
	planService service.PlanService
}

func NewPlanHandler(planService service.PlanService) *PlanHandler {
	return &PlanHandler{planService: planService}
}

// GenerateTrainingPlan godoc
// @Summary Generate a training plan
// @Description Asks the model for a plan built from the onboarding state in the body, or the
// @Description stored onboarding state when the body is empty. Templates, the plan and the
// @Description workouts of every scheduled week are created.
// @Tags Plans
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param weeks query int false "Number of weeks to schedule"
// @Param start_date query string false "First day of the schedule (YYYY-MM-DD), next Monday by default"
// @Param state body domain.OnboardingState false "Onboarding state"
// @Success 201 {object} GeneratedPlanResponse
// @Failure 400 {object} gin.H "Invalid input or no onboarding information"
// @Failure 500 {object} gin.H "Generation failed"
// @Router /generate-training-plan [post]
func (h *PlanHandler) GenerateTrainingPlan(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}

	var opts service.GeneratePlanOptions
	if raw := c.Query("weeks"); raw != "" {
		weeks, err := strconv.Atoi(raw)
		if err != nil {
			abortWithError(c, http.StatusBadRequest, "weeks must be an integer")
			return
		}
		opts.Weeks = weeks
	}
	if raw := c.Query("start_date"); raw != "" {
		start, err := domain.ParseDate(raw)
		if err != nil {
			abortWithError(c, http.StatusBadRequest, "start_date must be formatted as YYYY-MM-DD")
			return
		}
		opts.StartDate = &start
	}

	var state *domain.OnboardingState
	var body domain.OnboardingState
	if err := c.ShouldBindJSON(&body); err != nil {
		if !errors.Is(err, io.EOF) {
			abortWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
			return
		}
	} else {
		state = &body
	}

	generated, err := h.planService.GenerateTrainingPlan(c.Request.Context(), userID, state, opts)
	if err != nil {
		respondError(c, err, "Failed to generate training plan.")
		return
	}
	c.JSON(http.StatusCreated, GeneratedPlanResponse{
		TrainingPlanResponse: MapPlanToResponse(&generated.PlanView),
		StartDate:            generated.StartDate,
		WorkoutsCreated:      generated.WorkoutsCreated,
	})
}

func (h *PlanHandler) GetLatestPlan(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}

	view, err := h.planService.GetLatestPlan(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err, "Failed to retrieve training plan.")
		return
	}
	c.JSON(http.StatusOK, MapPlanToResponse(view))
}
