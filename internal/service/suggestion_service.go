package service

import (
	"context"
	"errors"
	"fmt"
	"ptcoach/pt-server/internal/domain"
	"ptcoach/pt-server/internal/llm"
	"ptcoach/pt-server/internal/repository"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/multierr"
)

const (
	suggestionHistoryDays = 28
	suggestionMaxTokens   = 4096
)

// --- Error Definitions ---
var (
	ErrSuggestFinishedWorkout = &domain.StateError{Msg: "Cannot generate suggestions for completed workouts"}
	ErrSuggestNoTemplate      = &domain.StateError{Msg: "Cannot generate suggestions for workouts without a template"}
)

// SuggestionContext is optional training context supplied by the user.
type SuggestionContext struct {
	TrainingPhase string
	Goal          string
	Notes         string
}

type SetSuggestion struct {
	Reps   int     `json:"reps"`
	Weight float64 `json:"weight"`
}

type ExerciseSuggestion struct {
	Name  string          `json:"name"`
	Sets  []SetSuggestion `json:"sets"`
	Notes *string         `json:"notes"`
}

// WorkoutSuggestions is the generated advice. It is never written to the workout.
type WorkoutSuggestions struct {
	Exercises    []ExerciseSuggestion `json:"exercises"`
	OverallNotes *string              `json:"overall_notes"`
}

func (s *WorkoutSuggestions) Validate() error {
	if s.Exercises == nil {
		return errors.New("exercises is required")
	}
	var err error
	for i, ex := range s.Exercises {
		if strings.TrimSpace(ex.Name) == "" {
			err = multierr.Append(err, fmt.Errorf("exercises[%d]: name is required", i))
		}
		if ex.Sets == nil {
			err = multierr.Append(err, fmt.Errorf("exercises[%d]: sets is required", i))
		}
		for j, set := range ex.Sets {
			if set.Reps < 0 || set.Weight < 0 {
				err = multierr.Append(err, fmt.Errorf("exercises[%d].sets[%d]: reps and weight must not be negative", i, j))
			}
		}
	}
	return err
}

type SuggestionService interface {
	// Suggest proposes reps and weights for each exercise of a workout from the
	// last four weeks of finished workouts.
	Suggest(ctx context.Context, ownerID, workoutID primitive.ObjectID, sc SuggestionContext) (*WorkoutSuggestions, error)
}

type suggestionService struct {
	tx          repository.Transactor
	workoutRepo repository.WorkoutRepository
	snapshots   snapshotter
	generator   llm.Generator
	calendar    Calendar
}

func NewSuggestionService(
	tx repository.Transactor,
	workoutRepo repository.WorkoutRepository,
	templateRepo repository.TemplateRepository,
	generator llm.Generator,
	calendar Calendar,
) SuggestionService {
	return &suggestionService{
		tx:          tx,
		workoutRepo: workoutRepo,
		snapshots:   snapshotter{templateRepo: templateRepo},
		generator:   generator,
		calendar:    calendar,
	}
}

func (s *suggestionService) Suggest(ctx context.Context, ownerID, workoutID primitive.ObjectID, sc SuggestionContext) (*WorkoutSuggestions, error) {
	var (
		workout *domain.Workout
		history []domain.Workout
	)
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		w, err := getWorkout(ctx, s.workoutRepo, ownerID, workoutID)
		if err != nil {
			return err
		}
		if w.EndTime != nil {
			return ErrSuggestFinishedWorkout
		}
		if w.TemplateID == nil {
			return ErrSuggestNoTemplate
		}

		changed, err := s.snapshots.ensure(ctx, w)
		if err != nil {
			return err
		}
		if changed {
			if err := s.workoutRepo.Update(ctx, w); err != nil {
				return err
			}
		}

		since := s.calendar.Today().AddDays(-suggestionHistoryDays)
		history, err = s.workoutRepo.ListFinishedSince(ctx, ownerID, since)
		if err != nil {
			return err
		}
		workout = w
		return nil
	})
	if err != nil {
		return nil, err
	}

	return llm.GenerateJSON[WorkoutSuggestions](ctx, s.generator, llm.Request{
		Operation: "suggest",
		System:    suggestionSystemPrompt,
		Messages:  llm.UserMessage(buildSuggestionPrompt(workout, history, sc)),
		MaxTokens: suggestionMaxTokens,
	}, "Workout suggestions")
}

func formatPrescription(exercises []domain.TrackedExercise) string {
	lines := make([]string, 0, len(exercises))
	for _, ex := range exercises {
		lines = append(lines, fmt.Sprintf("- %s: %d sets × %d-%d reps", ex.Name, ex.TargetSets, ex.TargetRepMin, ex.TargetRepMax))
	}
	return strings.Join(lines, "\n")
}

// buildHistorySummary condenses the history of every exercise of w, in workout order.
func buildHistorySummary(w *domain.Workout, history []domain.Workout) string {
	if len(w.Exercises) == 0 {
		return "No template exercises available."
	}

	parts := make([]string, 0, len(w.Exercises))
	for _, ex := range w.Exercises {
		summary := domain.SummarizeExerciseHistory(history, ex.Name)
		if summary.TotalSessions == 0 {
			parts = append(parts, fmt.Sprintf("%s:\n  No previous history found.", ex.Name))
			continue
		}

		var recent []string
		for _, session := range summary.RecentSessions {
			completed, avgReps, avgWeight, ok := session.CompletedSetAverages()
			if !ok {
				continue
			}
			recent = append(recent, fmt.Sprintf("%s: %d×%d @ %.1f lbs", session.Date, completed, int(avgReps), avgWeight))
		}
		recentText := "No completed sets"
		if len(recent) > 0 {
			recentText = strings.Join(recent, ", ")
		}

		bestText := "None"
		if summary.Best != nil {
			bestText = fmt.Sprintf("%.1f lbs × %d reps", summary.Best.Weight, summary.Best.Reps)
		}

		parts = append(parts, fmt.Sprintf("%s:\n  Recent: %s\n  Trend: %s\n  Best: %s", ex.Name, recentText, summary.Trend, bestText))
	}
	return strings.Join(parts, "\n\n")
}

func buildSuggestionPrompt(w *domain.Workout, history []domain.Workout, sc SuggestionContext) string {
	parts := []string{
		"Generate workout suggestions for the following session:",
		"",
		"TEMPLATE PRESCRIPTION:",
		formatPrescription(w.Exercises),
		"",
		"PERFORMANCE HISTORY (Last 4 weeks):",
		buildHistorySummary(w, history),
	}
	if sc.TrainingPhase != "" {
		parts = append(parts, "", "TRAINING PHASE: "+sc.TrainingPhase)
	}
	if sc.Goal != "" {
		parts = append(parts, "", "TRAINING GOAL: "+sc.Goal)
	}
	if sc.Notes != "" {
		parts = append(parts, "", "ADDITIONAL NOTES: "+sc.Notes)
	}
	return strings.Join(parts, "\n")
}
