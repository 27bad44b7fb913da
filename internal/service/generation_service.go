package service

import (
	"context"
	"errors"
	"fmt"
	"ptcoach/pt-server/internal/llm"
	"strings"

	"go.uber.org/multierr"
)

const (
	DefaultChatMaxTokens = 1024
	workoutMaxTokens     = 4096
)

type GenerateWorkoutInput struct {
	Prompt          string
	Difficulty      string
	DurationMinutes int
}

type Equipment struct {
	Name string `json:"name"`
}

type Exercise struct {
	Name      string    `json:"name"`
	Equipment Equipment `json:"equipment"`
}

type GeneratedSet struct {
	Reps            int      `json:"reps"`
	Weight          *float64 `json:"weight"`
	DurationSeconds *int     `json:"duration_seconds"`
	RestSeconds     *int     `json:"rest_seconds"`
}

type GeneratedWorkoutExercise struct {
	Exercise Exercise       `json:"exercise"`
	Sets     []GeneratedSet `json:"sets"`
}

// GeneratedWorkout is a one-off workout. It is returned to the caller and not stored.
type GeneratedWorkout struct {
	Exercises []GeneratedWorkoutExercise `json:"exercises"`
}

func (w *GeneratedWorkout) Validate() error {
	if len(w.Exercises) == 0 {
		return errors.New("exercises must not be empty")
	}
	var err error
	for i, ex := range w.Exercises {
		if strings.TrimSpace(ex.Exercise.Name) == "" {
			err = multierr.Append(err, fmt.Errorf("exercises[%d]: exercise name is required", i))
		}
		if len(ex.Sets) == 0 {
			err = multierr.Append(err, fmt.Errorf("exercises[%d]: sets must not be empty", i))
		}
	}
	return err
}

type GenerationService interface {
	GenerateWorkout(ctx context.Context, in GenerateWorkoutInput) (*GeneratedWorkout, error)
	// Chat forwards a conversation to the model and returns its reply.
	Chat(ctx context.Context, messages []llm.Message, maxTokens int) (string, error)
}

type generationService struct {
	generator llm.Generator
}

func NewGenerationService(generator llm.Generator) GenerationService {
	return &generationService{generator: generator}
}

func (s *generationService) GenerateWorkout(ctx context.Context, in GenerateWorkoutInput) (*GeneratedWorkout, error) {
	prompt := "Generate a workout based on: " + in.Prompt
	if in.Difficulty != "" {
		prompt += "\nDifficulty: " + in.Difficulty
	}
	if in.DurationMinutes > 0 {
		prompt += fmt.Sprintf("\nTarget duration: %d minutes", in.DurationMinutes)
	}

	return llm.GenerateJSON[GeneratedWorkout](ctx, s.generator, llm.Request{
		Operation: "workout",
		System:    workoutSystemPrompt,
		Messages:  llm.UserMessage(prompt),
		MaxTokens: workoutMaxTokens,
	}, "Workout generation")
}

func (s *generationService) Chat(ctx context.Context, messages []llm.Message, maxTokens int) (string, error) {
	if maxTokens <= 0 {
		maxTokens = DefaultChatMaxTokens
	}
	text, err := s.generator.Generate(ctx, llm.Request{
		Operation: "chat",
		Messages:  messages,
		MaxTokens: maxTokens,
	})
	if err != nil {
		return "", &llm.GenerationError{Prefix: "Chat", Kind: llm.FailureProvider, Err: err}
	}
	return text, nil
}
