package service

import (
	"context"
	"errors"
	"fmt"
	"ptcoach/pt-server/internal/domain"
	"ptcoach/pt-server/internal/llm"
	"ptcoach/pt-server/internal/metrics"
	"ptcoach/pt-server/internal/repository"
	"strings"

	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/multierr"
)

const (
	MaxPlanWeeks    = 104
	planMaxTokens   = 4096
	planErrorPrefix = "Training plan generation"
)

// --- Error Definitions ---
var (
	ErrPlanNotFound         = errors.New("No training plan found")
	ErrOnboardingStateEmpty = &domain.ValidationError{Subject: "onboarding state", Err: errors.New("no onboarding information provided or stored")}
	ErrPlanWeeksOutOfRange  = &domain.ValidationError{Subject: "weeks", Err: fmt.Errorf("must be between 1 and %d", MaxPlanWeeks)}
	ErrPlanStartDateInvalid = &domain.ValidationError{Subject: "start_date", Err: errors.New("must not be in the past")}
)

// GeneratePlanOptions controls expansion. Zero values select the defaults:
// the configured number of weeks, starting on the next Monday after today.
type GeneratePlanOptions struct {
	Weeks     int
	StartDate *domain.Date
}

// PlanView is a plan together with its templates, in plan order.
type PlanView struct {
	Plan      *domain.TrainingPlan
	Templates []domain.Template
}

type GeneratedPlan struct {
	PlanView
	StartDate       domain.Date
	WorkoutsCreated int
}

type PlanService interface {
	// GenerateTrainingPlan asks the model for a plan, stores its templates and
	// schedule, and creates the workouts of the expanded microcycle. A nil or
	// empty state falls back to the stored onboarding state.
	GenerateTrainingPlan(ctx context.Context, ownerID primitive.ObjectID, state *domain.OnboardingState, opts GeneratePlanOptions) (*GeneratedPlan, error)
	GetLatestPlan(ctx context.Context, ownerID primitive.ObjectID) (*PlanView, error)
}

type planService struct {
	tx           repository.Transactor
	userRepo     repository.UserRepository
	templateRepo repository.TemplateRepository
	planRepo     repository.TrainingPlanRepository
	workoutRepo  repository.WorkoutRepository
	generator    llm.Generator
	calendar     Calendar
	defaultWeeks int
	metrics      *metrics.Manager
}

func NewPlanService(
	tx repository.Transactor,
	userRepo repository.UserRepository,
	templateRepo repository.TemplateRepository,
	planRepo repository.TrainingPlanRepository,
	workoutRepo repository.WorkoutRepository,
	generator llm.Generator,
	calendar Calendar,
	defaultWeeks int,
	metricsManager *metrics.Manager,
) PlanService {
	if defaultWeeks <= 0 {
		defaultWeeks = 12
	}
	return &planService{
		tx:           tx,
		userRepo:     userRepo,
		templateRepo: templateRepo,
		planRepo:     planRepo,
		workoutRepo:  workoutRepo,
		generator:    generator,
		calendar:     calendar,
		defaultWeeks: defaultWeeks,
		metrics:      metricsManager,
	}
}

type generatedTemplate struct {
	Name        string                    `json:"name"`
	Description *string                   `json:"description"`
	Exercises   []domain.TemplateExercise `json:"exercises"`
}

// generatedPlan is the model's answer: templates plus a microcycle of
// indices into them, domain.RestDay for rest.
type generatedPlan struct {
	Description string              `json:"description"`
	Templates   []generatedTemplate `json:"templates"`
	Microcycle  []int               `json:"microcycle"`
}

func (p *generatedPlan) Validate() error {
	var err error
	if len(p.Microcycle) == 0 {
		err = multierr.Append(err, errors.New("microcycle must not be empty"))
	}
	for i, t := range p.Templates {
		template := domain.Template{Name: t.Name, Exercises: t.Exercises}
		if tErr := template.Validate(); tErr != nil {
			err = multierr.Append(err, fmt.Errorf("templates[%d]: %w", i, tErr))
		}
	}
	if _, sErr := domain.BuildSchedule(p.Microcycle, make([]primitive.ObjectID, len(p.Templates))); sErr != nil {
		err = multierr.Append(err, sErr)
	}
	return err
}

func (s *planService) GenerateTrainingPlan(ctx context.Context, ownerID primitive.ObjectID, state *domain.OnboardingState, opts GeneratePlanOptions) (*GeneratedPlan, error) {
	weeks := opts.Weeks
	if weeks == 0 {
		weeks = s.defaultWeeks
	}
	if weeks < 1 || weeks > MaxPlanWeeks {
		return nil, ErrPlanWeeksOutOfRange
	}
	today := s.calendar.Today()
	start := domain.NextMonday(today)
	if opts.StartDate != nil {
		if opts.StartDate.Before(today) {
			return nil, ErrPlanStartDateInvalid
		}
		start = *opts.StartDate
	}

	if state == nil || state.IsEmpty() {
		stored, err := s.userRepo.GetOnboardingState(ctx, ownerID)
		if err != nil && !errors.Is(err, repository.ErrMalformedRecord) {
			return nil, err
		}
		state = stored
	}
	if state == nil || state.IsEmpty() {
		return nil, ErrOnboardingStateEmpty
	}

	plan, err := llm.GenerateJSON[generatedPlan](ctx, s.generator, llm.Request{
		Operation: "plan",
		System:    planSystemPrompt,
		Messages:  llm.UserMessage(buildPlanPrompt(*state)),
		MaxTokens: planMaxTokens,
	}, planErrorPrefix)
	if err != nil {
		return nil, err
	}

	result := &GeneratedPlan{StartDate: start}
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		result.PlanView, result.WorkoutsCreated, err = s.savePlan(ctx, ownerID, plan, start, weeks)
		return err
	})
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.CounterWorkoutsGenerated.Add(float64(result.WorkoutsCreated))
	}
	log.Infof("generated plan %s for user %s: %d templates, %d workouts from %s",
		result.Plan.ID.Hex(), ownerID.Hex(), len(result.Templates), result.WorkoutsCreated, start)
	return result, nil
}

// savePlan writes one template per generated template, however many days use
// it, then the plan and the expanded workouts.
func (s *planService) savePlan(ctx context.Context, ownerID primitive.ObjectID, generated *generatedPlan, start domain.Date, weeks int) (PlanView, int, error) {
	templates := make([]domain.Template, 0, len(generated.Templates))
	templateIDs := make([]primitive.ObjectID, 0, len(generated.Templates))
	for _, gt := range generated.Templates {
		template := domain.Template{
			OwnerID:     ownerID,
			Name:        strings.TrimSpace(gt.Name),
			Description: gt.Description,
			Exercises:   gt.Exercises,
		}
		id, err := s.templateRepo.Create(ctx, &template)
		if err != nil {
			return PlanView{}, 0, fmt.Errorf("saving template %q: %w", gt.Name, err)
		}
		templates = append(templates, template)
		templateIDs = append(templateIDs, id)
	}

	schedule, err := domain.BuildSchedule(generated.Microcycle, templateIDs)
	if err != nil {
		return PlanView{}, 0, err
	}
	plan := &domain.TrainingPlan{
		OwnerID:     ownerID,
		Description: generated.Description,
		TemplateIDs: templateIDs,
		Schedule:    schedule,
	}
	if _, err := s.planRepo.Create(ctx, plan); err != nil {
		return PlanView{}, 0, fmt.Errorf("saving plan: %w", err)
	}

	workouts, err := domain.ExpandMicrocycle(plan.Schedule, start, weeks)
	if err != nil {
		return PlanView{}, 0, err
	}
	for i := range workouts {
		workouts[i].OwnerID = ownerID
	}
	created, err := s.workoutRepo.CreateMany(ctx, workouts)
	if err != nil {
		return PlanView{}, 0, fmt.Errorf("saving workouts: %w", err)
	}
	return PlanView{Plan: plan, Templates: templates}, created, nil
}

func (s *planService) GetLatestPlan(ctx context.Context, ownerID primitive.ObjectID) (*PlanView, error) {
	plan, err := s.planRepo.GetLatest(ctx, ownerID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPlanNotFound
		}
		return nil, err
	}
	templates, err := s.templateRepo.GetByIDs(ctx, plan.TemplateIDs, ownerID)
	if err != nil {
		return nil, err
	}
	return &PlanView{Plan: plan, Templates: templates}, nil
}

func buildPlanPrompt(state domain.OnboardingState) string {
	parts := []string{"Generate a weekly training plan based on the following information:"}
	if len(state.FitnessGoals) > 0 {
		parts = append(parts, "Fitness Goals: "+strings.Join(state.FitnessGoals, ", "))
	}
	if state.ExperienceLevel != nil && *state.ExperienceLevel != "" {
		parts = append(parts, "Experience Level: "+*state.ExperienceLevel)
	}
	if state.CurrentRoutine != nil && *state.CurrentRoutine != "" {
		parts = append(parts, "Current Routine: "+*state.CurrentRoutine)
	}
	if state.DaysPerWeek != nil && *state.DaysPerWeek > 0 {
		parts = append(parts, fmt.Sprintf("Training Days Per Week: %d", *state.DaysPerWeek))
	}
	if len(state.EquipmentAvailable) > 0 {
		parts = append(parts, "Available Equipment: "+strings.Join(state.EquipmentAvailable, ", "))
	}
	if len(state.InjuriesLimitations) > 0 {
		parts = append(parts, "Injuries/Limitations: "+strings.Join(state.InjuriesLimitations, ", "))
	}
	if state.Preferences != nil && *state.Preferences != "" {
		parts = append(parts, "Preferences: "+*state.Preferences)
	}
	return strings.Join(parts, "\n")
}
