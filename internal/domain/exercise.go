package domain

import (
	"errors"
	"fmt"
	"strings"

	"go.uber.org/multierr"
)

func (e TrackedExercise) validate() error {
	var err error
	if strings.TrimSpace(e.Name) == "" {
		err = multierr.Append(err, errors.New("name is required"))
	}
	if e.TargetSets < 0 || e.TargetRepMin < 0 || e.TargetRepMax < 0 {
		err = multierr.Append(err, errors.New("target values must not be negative"))
	}
	if e.Sets == nil {
		err = multierr.Append(err, errors.New("sets is required"))
	}
	for i, s := range e.Sets {
		if s.Reps != nil && *s.Reps < 0 {
			err = multierr.Append(err, fmt.Errorf("sets[%d]: reps must not be negative", i))
		}
		if s.Weight != nil && *s.Weight < 0 {
			err = multierr.Append(err, fmt.Errorf("sets[%d]: weight must not be negative", i))
		}
	}
	return err
}

// ValidateTrackedExercises checks the shape of a full exercise list. It is used
// both for incoming replacements and for documents read back from storage.
func ValidateTrackedExercises(exercises []TrackedExercise) error {
	var err error
	for i, ex := range exercises {
		if exErr := ex.validate(); exErr != nil {
			err = multierr.Append(err, fmt.Errorf("exercises[%d]: %w", i, exErr))
		}
	}
	if err != nil {
		return &ValidationError{Subject: "tracked exercises", Err: err}
	}
	return nil
}

// CloneTrackedExercises deep-copies a list so no set, pointer or slice is shared
// between the copy and the original.
func CloneTrackedExercises(exercises []TrackedExercise) []TrackedExercise {
	if exercises == nil {
		return nil
	}
	out := make([]TrackedExercise, len(exercises))
	for i, ex := range exercises {
		out[i] = ex
		out[i].Notes = clonePtr(ex.Notes)
		if ex.Sets != nil {
			out[i].Sets = make([]WorkoutSet, len(ex.Sets))
			for j, s := range ex.Sets {
				out[i].Sets[j] = WorkoutSet{
					Reps:      clonePtr(s.Reps),
					Weight:    clonePtr(s.Weight),
					Completed: s.Completed,
					Notes:     clonePtr(s.Notes),
				}
			}
		}
	}
	return out
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	return append(make([]string, 0, len(s)), s...)
}
