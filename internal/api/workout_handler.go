package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"ptcoach/pt-server/internal/domain"
	"ptcoach/pt-server/internal/repository"
	"ptcoach/pt-server/internal/service"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type WorkoutHandler struct {
	workoutService    service.WorkoutService
	suggestionService service.SuggestionService
	exportService     service.ExportService
}

func NewWorkoutHandler(
	workoutService service.WorkoutService,
	suggestionService service.SuggestionService,
	exportService service.ExportService,
) *WorkoutHandler {
	return &WorkoutHandler{
		workoutService:    workoutService,
		suggestionService: suggestionService,
		exportService:     exportService,
	}
}

// parseIDParam reads an ObjectID path parameter, answering 400 when it is malformed.
func parseIDParam(c *gin.Context, name, label string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(c.Param(name))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid "+label+" ID format.")
		return primitive.NilObjectID, false
	}
	return id, true
}

// parsePage reads skip and limit, capping limit at repository.DefaultPageLimit.
func parsePage(c *gin.Context) (repository.Page, bool) {
	page := repository.Page{Limit: repository.DefaultPageLimit}
	if raw := c.Query("skip"); raw != "" {
		skip, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || skip < 0 {
			abortWithError(c, http.StatusBadRequest, "skip must be a non-negative integer")
			return page, false
		}
		page.Skip = skip
	}
	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || limit < 1 || limit > repository.DefaultPageLimit {
			abortWithError(c, http.StatusBadRequest, "limit must be between 1 and "+strconv.Itoa(repository.DefaultPageLimit))
			return page, false
		}
		page.Limit = limit
	}
	return page, true
}

// callerID resolves the authenticated account or aborts with 401.
func callerID(c *gin.Context) (primitive.ObjectID, bool) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify user.")
		return primitive.NilObjectID, false
	}
	return userID, true
}

// CreateWorkout godoc
// @Summary Create an ad-hoc workout
// @Tags Workouts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param workout body CreateWorkoutRequest true "Workout date, optional template and times"
// @Success 201 {object} WorkoutResponse
// @Failure 400 {object} gin.H "Invalid input"
// @Failure 404 {object} gin.H "Template not found"
// @Router /workouts [post]
func (h *WorkoutHandler) CreateWorkout(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}

	var req CreateWorkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	workout, err := h.workoutService.Create(c.Request.Context(), userID, service.CreateWorkoutInput{
		Date:       req.Date,
		TemplateID: req.TemplateID,
		StartTime:  req.StartTime,
		EndTime:    req.EndTime,
	})
	if err != nil {
		respondError(c, err, "Failed to create workout.")
		return
	}
	c.JSON(http.StatusCreated, MapWorkoutToResponse(workout))
}

// ListWorkouts godoc
// @Summary List workouts
// @Description Without a date only summaries are returned. With a date the full workouts
// @Description are returned and template-backed workouts are snapshotted.
// @Tags Workouts
// @Produce json
// @Security BearerAuth
// @Param date query string false "YYYY-MM-DD"
// @Param skip query int false "Offset"
// @Param limit query int false "Page size (max 100)"
// @Router /workouts [get]
func (h *WorkoutHandler) ListWorkouts(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	page, ok := parsePage(c)
	if !ok {
		return
	}

	filter := repository.WorkoutFilter{Page: page}
	if raw := c.Query("date"); raw != "" {
		date, err := domain.ParseDate(raw)
		if err != nil {
			abortWithError(c, http.StatusBadRequest, "date must be formatted as YYYY-MM-DD")
			return
		}
		filter.Date = &date
	}

	workouts, err := h.workoutService.List(c.Request.Context(), userID, filter)
	if err != nil {
		respondError(c, err, "Failed to retrieve workouts.")
		return
	}
	if filter.Date != nil {
		c.JSON(http.StatusOK, MapWorkoutsToResponse(workouts))
		return
	}
	c.JSON(http.StatusOK, MapWorkoutsToSummaryResponse(workouts))
}

func (h *WorkoutHandler) GetWorkout(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	workoutID, ok := parseIDParam(c, "id", "workout")
	if !ok {
		return
	}

	workout, err := h.workoutService.Get(c.Request.Context(), userID, workoutID)
	if err != nil {
		respondError(c, err, "Failed to retrieve workout.")
		return
	}
	c.JSON(http.StatusOK, MapWorkoutToResponse(workout))
}

// UpdateWorkout godoc
// @Summary Partially update a workout
// @Description Omitted fields are unchanged; start_time or end_time set to null are cleared.
// @Tags Workouts
// @Router /workouts/{id} [patch]
func (h *WorkoutHandler) UpdateWorkout(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	workoutID, ok := parseIDParam(c, "id", "workout")
	if !ok {
		return
	}

	var req UpdateWorkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	workout, err := h.workoutService.Update(c.Request.Context(), userID, workoutID, req.toPatch())
	if err != nil {
		respondError(c, err, "Failed to update workout.")
		return
	}
	c.JSON(http.StatusOK, MapWorkoutToResponse(workout))
}

// ReplaceExercises godoc
// @Summary Replace the tracked exercises of a workout
// @Description The list sent replaces the stored list as a whole.
// @Tags Workouts
// @Router /workouts/{id}/exercises [patch]
func (h *WorkoutHandler) ReplaceExercises(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	workoutID, ok := parseIDParam(c, "id", "workout")
	if !ok {
		return
	}

	var req ReplaceExercisesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	workout, err := h.workoutService.ReplaceExercises(c.Request.Context(), userID, workoutID, req.Exercises)
	if err != nil {
		respondError(c, err, "Failed to update exercises.")
		return
	}
	c.JSON(http.StatusOK, MapWorkoutToResponse(workout))
}

type transitionFunc func(ctx context.Context, ownerID, id primitive.ObjectID) (*domain.Workout, error)

func (h *WorkoutHandler) transition(c *gin.Context, action string, do transitionFunc) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	workoutID, ok := parseIDParam(c, "id", "workout")
	if !ok {
		return
	}

	workout, err := do(c.Request.Context(), userID, workoutID)
	if err != nil {
		respondError(c, err, "Failed to "+action+" workout.")
		return
	}
	c.JSON(http.StatusOK, MapWorkoutToResponse(workout))
}

// StartWorkout godoc
// @Summary Start a workout scheduled for today
// @Tags Workouts
// @Failure 400 {object} gin.H "Already started, finished, or not scheduled for today"
// @Router /workouts/{id}/start [post]
func (h *WorkoutHandler) StartWorkout(c *gin.Context) {
	h.transition(c, "start", h.workoutService.Start)
}

func (h *WorkoutHandler) CancelWorkout(c *gin.Context) {
	h.transition(c, "cancel", h.workoutService.Cancel)
}

func (h *WorkoutHandler) FinishWorkout(c *gin.Context) {
	h.transition(c, "finish", h.workoutService.Finish)
}

func (h *WorkoutHandler) DeleteWorkout(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	workoutID, ok := parseIDParam(c, "id", "workout")
	if !ok {
		return
	}

	if err := h.workoutService.Delete(c.Request.Context(), userID, workoutID); err != nil {
		respondError(c, err, "Failed to delete workout.")
		return
	}
	c.Status(http.StatusNoContent)
}

// SuggestForWorkout godoc
// @Summary Suggest reps and weights for a workout
// @Description Suggestions are based on the last four weeks of finished workouts and are not saved.
// @Tags Workouts
// @Param context body SuggestRequest false "Optional training context"
// @Success 200 {object} service.WorkoutSuggestions
// @Failure 400 {object} gin.H "Workout finished or has no template"
// @Failure 500 {object} gin.H "Generation failed"
// @Router /workouts/{id}/suggest [post]
func (h *WorkoutHandler) SuggestForWorkout(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	workoutID, ok := parseIDParam(c, "id", "workout")
	if !ok {
		return
	}

	var req SuggestRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		abortWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	suggestions, err := h.suggestionService.Suggest(c.Request.Context(), userID, workoutID, service.SuggestionContext{
		TrainingPhase: req.TrainingPhase,
		Goal:          req.Goal,
		Notes:         req.Notes,
	})
	if err != nil {
		respondError(c, err, "Failed to generate suggestions.")
		return
	}
	c.JSON(http.StatusOK, suggestions)
}

func (h *WorkoutHandler) ExportWorkouts(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}

	result, err := h.exportService.ExportFinished(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err, "Failed to export workouts.")
		return
	}
	c.JSON(http.StatusOK, result)
}
