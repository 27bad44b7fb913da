package api

import (
	"encoding/json"
	"ptcoach/pt-server/internal/domain"
	"ptcoach/pt-server/internal/llm"
	"ptcoach/pt-server/internal/service"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// --- Request DTOs ---

type CreateWorkoutRequest struct {
	Date       domain.Date         `json:"date"`
	TemplateID *primitive.ObjectID `json:"template_id"`
	StartTime  *time.Time          `json:"start_time"`
	EndTime    *time.Time          `json:"end_time"`
}

// optionalDate records whether "date" was present at all, and whether it was null.
type optionalDate struct {
	set   bool
	value *domain.Date
}

func (o *optionalDate) UnmarshalJSON(data []byte) error {
	o.set = true
	if string(data) == "null" {
		o.value = nil
		return nil
	}
	var d domain.Date
	if err := json.Unmarshal(data, &d); err != nil {
		return err
	}
	o.value = &d
	return nil
}

type optionalTime struct {
	set   bool
	value *time.Time
}

func (o *optionalTime) UnmarshalJSON(data []byte) error {
	o.set = true
	if string(data) == "null" {
		o.value = nil
		return nil
	}
	var t time.Time
	if err := json.Unmarshal(data, &t); err != nil {
		return err
	}
	o.value = &t
	return nil
}

// UpdateWorkoutRequest is a partial update. Omitted fields are left alone;
// an explicit null clears start_time or end_time.
type UpdateWorkoutRequest struct {
	Date      optionalDate `json:"date"`
	StartTime optionalTime `json:"start_time"`
	EndTime   optionalTime `json:"end_time"`
}

func (r UpdateWorkoutRequest) toPatch() domain.WorkoutPatch {
	return domain.WorkoutPatch{
		Date:      r.Date.value,
		ClearDate: r.Date.set && r.Date.value == nil,
		StartTime: domain.OptionalTime{Set: r.StartTime.set, Value: r.StartTime.value},
		EndTime:   domain.OptionalTime{Set: r.EndTime.set, Value: r.EndTime.value},
	}
}

type ReplaceExercisesRequest struct {
	Exercises []domain.TrackedExercise `json:"exercises" binding:"required"`
}

type SuggestRequest struct {
	TrainingPhase string `json:"training_phase"`
	Goal          string `json:"goal"`
	Notes         string `json:"notes"`
}

type CreateTemplateRequest struct {
	Name        string                    `json:"name" binding:"required"`
	Description *string                   `json:"description"`
	Exercises   []domain.TemplateExercise `json:"exercises" binding:"required"`
}

type OnboardingMessageRequest struct {
	ConversationHistory []llm.Message `json:"conversation_history" binding:"dive"`
	LatestMessage       string        `json:"latest_message"`
}

type GenerateWorkoutRequest struct {
	Prompt          string `json:"prompt" binding:"required"`
	Difficulty      string `json:"difficulty"`
	DurationMinutes int    `json:"duration_minutes" binding:"omitempty,min=1,max=600"`
}

type ChatRequest struct {
	Messages  []llm.Message `json:"messages" binding:"required,min=1,dive"`
	MaxTokens int           `json:"max_tokens" binding:"omitempty,min=1,max=8192"`
}

// --- Response DTOs ---

type WorkoutSummaryResponse struct {
	ID         string               `json:"id"`
	Date       domain.Date          `json:"date"`
	TemplateID *string              `json:"template_id"`
	StartTime  *time.Time           `json:"start_time"`
	EndTime    *time.Time           `json:"end_time"`
	Status     domain.WorkoutStatus `json:"status"`
	CreatedAt  time.Time            `json:"created_at"`
	UpdatedAt  time.Time            `json:"updated_at"`
}

type WorkoutResponse struct {
	WorkoutSummaryResponse
	Exercises []domain.TrackedExercise `json:"exercises"`
}

type TemplateResponse struct {
	ID          string                    `json:"id"`
	Name        string                    `json:"name"`
	Description *string                   `json:"description"`
	Exercises   []domain.TemplateExercise `json:"exercises"`
	CreatedAt   time.Time                 `json:"created_at"`
	UpdatedAt   time.Time                 `json:"updated_at"`
}

type TrainingPlanResponse struct {
	ID          string             `json:"id"`
	Description string             `json:"description"`
	Templates   []TemplateResponse `json:"templates"`
	Microcycle  []int              `json:"microcycle"`
	CreatedAt   time.Time          `json:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at"`
}

type GeneratedPlanResponse struct {
	TrainingPlanResponse
	StartDate       domain.Date `json:"start_date"`
	WorkoutsCreated int         `json:"workouts_created"`
}

type ChatResponse struct {
	Role    llm.Role `json:"role"`
	Content string   `json:"content"`
}

type UserResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// --- Mappers ---

func hexPtr(id *primitive.ObjectID) *string {
	if id == nil {
		return nil
	}
	s := id.Hex()
	return &s
}

func MapWorkoutToSummaryResponse(w *domain.Workout) WorkoutSummaryResponse {
	return WorkoutSummaryResponse{
		ID:         w.ID.Hex(),
		Date:       w.Date,
		TemplateID: hexPtr(w.TemplateID),
		StartTime:  w.StartTime,
		EndTime:    w.EndTime,
		Status:     w.Status(),
		CreatedAt:  w.CreatedAt,
		UpdatedAt:  w.UpdatedAt,
	}
}

// MapWorkoutToResponse keeps nil exercises as null: the workout has not been snapshotted.
func MapWorkoutToResponse(w *domain.Workout) WorkoutResponse {
	return WorkoutResponse{
		WorkoutSummaryResponse: MapWorkoutToSummaryResponse(w),
		Exercises:              w.Exercises,
	}
}

func MapWorkoutsToResponse(workouts []domain.Workout) []WorkoutResponse {
	res := make([]WorkoutResponse, len(workouts))
	for i := range workouts {
		res[i] = MapWorkoutToResponse(&workouts[i])
	}
	return res
}

func MapWorkoutsToSummaryResponse(workouts []domain.Workout) []WorkoutSummaryResponse {
	res := make([]WorkoutSummaryResponse, len(workouts))
	for i := range workouts {
		res[i] = MapWorkoutToSummaryResponse(&workouts[i])
	}
	return res
}

func MapTemplateToResponse(t *domain.Template) TemplateResponse {
	return TemplateResponse{
		ID:          t.ID.Hex(),
		Name:        t.Name,
		Description: t.Description,
		Exercises:   t.Exercises,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

func MapTemplatesToResponse(templates []domain.Template) []TemplateResponse {
	res := make([]TemplateResponse, len(templates))
	for i := range templates {
		res[i] = MapTemplateToResponse(&templates[i])
	}
	return res
}

func MapPlanToResponse(view *service.PlanView) TrainingPlanResponse {
	return TrainingPlanResponse{
		ID:          view.Plan.ID.Hex(),
		Description: view.Plan.Description,
		Templates:   MapTemplatesToResponse(view.Templates),
		Microcycle:  view.Plan.Microcycle(),
		CreatedAt:   view.Plan.CreatedAt,
		UpdatedAt:   view.Plan.UpdatedAt,
	}
}
