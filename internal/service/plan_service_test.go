package service

import (
	"context"
	"errors"
	"ptcoach/pt-server/internal/domain"
	"ptcoach/pt-server/internal/llm"
	"ptcoach/pt-server/internal/llm/mocks"
	"ptcoach/pt-server/internal/metrics"
	"ptcoach/pt-server/internal/repository"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/mock/gomock"
)

// Lower is used on three days of the week, Upper on two.
const planReply = "```json\n" + `{
  "description": "2-template strength plan",
  "templates": [
    {"name": "Lower", "description": "squat focus", "exercises": [{"name": "Barbell Squat", "sets": 3, "rep_min": 5, "rep_max": 5}]},
    {"name": "Upper", "exercises": [{"name": "Bench Press", "sets": 4, "rep_min": 8, "rep_max": 12}]}
  ],
  "microcycle": [0, 1, -1, 0, 1, 0, -1]
}` + "\n```"

func newPlanService(h *harness, generator llm.Generator, m *metrics.Manager) PlanService {
	return NewPlanService(h.tx, h.users, h.templates, h.plans, h.workouts, generator, testCalendar(), 12, m)
}

func onboardedState() *domain.OnboardingState {
	return &domain.OnboardingState{
		FitnessGoals:        []string{"strength", "muscle"},
		ExperienceLevel:     stringPtr("intermediate"),
		DaysPerWeek:         intPtr(5),
		EquipmentAvailable:  []string{"barbell", "rack"},
		InjuriesLimitations: []string{},
	}
}

func TestPlanService_GenerateTrainingPlan(t *testing.T) {
	h := newHarness()
	ctrl := gomock.NewController(t)
	generator := mocks.NewMockGenerator(ctrl)
	metricsManager := metrics.NewTestManager()
	svc := newPlanService(h, generator, metricsManager)

	generator.EXPECT().Generate(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, req llm.Request) (string, error) {
			assert.Equal(t, "plan", req.Operation)
			require.Len(t, req.Messages, 1)
			prompt := req.Messages[0].Content
			assert.Contains(t, prompt, "Fitness Goals: strength, muscle")
			assert.Contains(t, prompt, "Training Days Per Week: 5")
			assert.Contains(t, prompt, "Available Equipment: barbell, rack")
			assert.NotContains(t, prompt, "Injuries/Limitations")
			return planReply, nil
		})

	monday := domain.NewDate(2025, time.June, 16)
	generated, err := svc.GenerateTrainingPlan(t.Context(), h.ownerID, onboardedState(), GeneratePlanOptions{Weeks: 2, StartDate: &monday})
	require.NoError(t, err)

	assert.Equal(t, "2-template strength plan", generated.Plan.Description)
	require.Len(t, generated.Templates, 2)
	assert.Equal(t, 2, h.templates.count(), "one template row per generated template")
	assert.Equal(t, []int{0, 1, -1, 0, 1, 0, -1}, generated.Plan.Microcycle())
	assert.Equal(t, 10, generated.WorkoutsCreated)
	assert.Equal(t, 10.0, testutil.ToFloat64(metricsManager.CounterWorkoutsGenerated))

	workouts, err := h.workouts.List(t.Context(), h.ownerID, repository.WorkoutFilter{})
	require.NoError(t, err)
	require.Len(t, workouts, 10)

	lower, upper := generated.Templates[0].ID, generated.Templates[1].ID
	offsets := []int{0, 1, 3, 4, 5, 7, 8, 10, 11, 12}
	templates := []primitive.ObjectID{lower, upper, lower, upper, lower, lower, upper, lower, upper, lower}
	for i, w := range workouts {
		assert.Equal(t, monday.AddDays(offsets[i]), w.Date, "workout %d", i)
		require.NotNil(t, w.TemplateID)
		assert.Equal(t, templates[i], *w.TemplateID, "workout %d", i)
		assert.Nil(t, w.Exercises)
		assert.Nil(t, w.StartTime)
	}
}

func TestPlanService_DefaultsToNextMonday(t *testing.T) {
	h := newHarness()
	ctrl := gomock.NewController(t)
	generator := mocks.NewMockGenerator(ctrl)
	svc := newPlanService(h, generator, nil)

	generator.EXPECT().Generate(gomock.Any(), gomock.Any()).Return(planReply, nil)

	generated, err := svc.GenerateTrainingPlan(t.Context(), h.ownerID, onboardedState(), GeneratePlanOptions{})
	require.NoError(t, err)
	assert.Equal(t, domain.NewDate(2025, time.June, 16), generated.StartDate)
	assert.Equal(t, 12*5, generated.WorkoutsCreated)
}

func TestPlanService_UsesStoredStateWhenBodyEmpty(t *testing.T) {
	h := newHarness()
	ctrl := gomock.NewController(t)
	generator := mocks.NewMockGenerator(ctrl)
	svc := newPlanService(h, generator, nil)

	_, err := svc.GenerateTrainingPlan(t.Context(), h.ownerID, &domain.OnboardingState{}, GeneratePlanOptions{})
	assert.ErrorIs(t, err, ErrOnboardingStateEmpty)
	assert.ErrorIs(t, err, domain.ErrValidation)

	require.NoError(t, h.users.SaveOnboardingState(t.Context(), h.ownerID, domain.OnboardingState{
		FitnessGoals: []string{"endurance"},
	}))
	generator.EXPECT().Generate(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, req llm.Request) (string, error) {
			assert.Contains(t, req.Messages[0].Content, "Fitness Goals: endurance")
			return planReply, nil
		})
	_, err = svc.GenerateTrainingPlan(t.Context(), h.ownerID, nil, GeneratePlanOptions{Weeks: 1})
	require.NoError(t, err)
}

func TestPlanService_RejectsBadInputBeforeGenerating(t *testing.T) {
	h := newHarness()
	ctrl := gomock.NewController(t)
	svc := newPlanService(h, mocks.NewMockGenerator(ctrl), nil)

	_, err := svc.GenerateTrainingPlan(t.Context(), h.ownerID, onboardedState(), GeneratePlanOptions{Weeks: -1})
	assert.ErrorIs(t, err, ErrPlanWeeksOutOfRange)

	_, err = svc.GenerateTrainingPlan(t.Context(), h.ownerID, onboardedState(), GeneratePlanOptions{Weeks: MaxPlanWeeks + 1})
	assert.ErrorIs(t, err, ErrPlanWeeksOutOfRange)

	yesterday := fixedToday.AddDays(-1)
	_, err = svc.GenerateTrainingPlan(t.Context(), h.ownerID, onboardedState(), GeneratePlanOptions{StartDate: &yesterday})
	assert.ErrorIs(t, err, ErrPlanStartDateInvalid)
}

func TestPlanService_GenerationFailures(t *testing.T) {
	testCases := []struct {
		name      string
		reply     string
		genErr    error
		wantInMsg string
	}{
		{
			name:      "provider error",
			genErr:    errors.New("overloaded"),
			wantInMsg: "Training plan generation request failed: overloaded",
		},
		{
			name:      "not json",
			reply:     "Here is your plan!",
			wantInMsg: "Training plan generation returned invalid JSON",
		},
		{
			name:      "index out of range",
			reply:     `{"description":"x","templates":[{"name":"A","exercises":[{"name":"Squat","sets":3,"rep_min":5,"rep_max":5}]}],"microcycle":[0,1,-1]}`,
			wantInMsg: "out of range",
		},
		{
			name:      "invalid exercise",
			reply:     `{"description":"x","templates":[{"name":"A","exercises":[{"name":"Squat","sets":0,"rep_min":5,"rep_max":5}]}],"microcycle":[0]}`,
			wantInMsg: "sets must be positive",
		},
		{
			name:      "empty microcycle",
			reply:     `{"description":"x","templates":[],"microcycle":[]}`,
			wantInMsg: "microcycle must not be empty",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			h := newHarness()
			ctrl := gomock.NewController(t)
			generator := mocks.NewMockGenerator(ctrl)
			svc := newPlanService(h, generator, nil)
			generator.EXPECT().Generate(gomock.Any(), gomock.Any()).Return(tc.reply, tc.genErr)

			_, err := svc.GenerateTrainingPlan(t.Context(), h.ownerID, onboardedState(), GeneratePlanOptions{})
			require.Error(t, err)
			assert.ErrorIs(t, err, llm.ErrGeneration)
			assert.Contains(t, err.Error(), tc.wantInMsg)
			assert.Equal(t, 0, h.templates.count())
			assert.Empty(t, h.plans.plans)
		})
	}
}

func TestPlanService_GetLatestPlan(t *testing.T) {
	h := newHarness()
	ctrl := gomock.NewController(t)
	generator := mocks.NewMockGenerator(ctrl)
	svc := newPlanService(h, generator, nil)

	_, err := svc.GetLatestPlan(t.Context(), h.ownerID)
	assert.ErrorIs(t, err, ErrPlanNotFound)

	generator.EXPECT().Generate(gomock.Any(), gomock.Any()).Return(planReply, nil)
	generated, err := svc.GenerateTrainingPlan(t.Context(), h.ownerID, onboardedState(), GeneratePlanOptions{Weeks: 1})
	require.NoError(t, err)

	latest, err := svc.GetLatestPlan(t.Context(), h.ownerID)
	require.NoError(t, err)
	assert.Equal(t, generated.Plan.ID, latest.Plan.ID)
	require.Len(t, latest.Templates, 2)
	assert.Equal(t, "Lower", latest.Templates[0].Name)
	assert.Equal(t, "Upper", latest.Templates[1].Name)
	assert.Equal(t, []int{0, 1, -1, 0, 1, 0, -1}, latest.Plan.Microcycle())
}
