package domain

import (
	"fmt"
	"time"
)

// Lifecycle guard violations.
var (
	ErrAlreadyStarted  = &StateError{Msg: "Workout has already been started"}
	ErrNotStarted      = &StateError{Msg: "Workout has not been started"}
	ErrAlreadyFinished = &StateError{Msg: "Workout has already been finished"}
	ErrFinishedWorkout = &StateError{Msg: "Cannot modify a finished workout"}
	ErrEndWithoutStart = &StateError{Msg: "Workout cannot have an end time without a start time"}
	ErrDateRequired    = &StateError{Msg: "Workout date cannot be cleared"}
	ErrEndBeforeStart  = &StateError{Msg: "Workout end time cannot be before its start time"}
)

// StartDateError reports an attempt to start a workout on a day other than its scheduled date.
type StartDateError struct {
	Scheduled Date
	Today     Date
}

func (e *StartDateError) Error() string {
	when := "past"
	if e.Scheduled.After(e.Today) {
		when = "future"
	}
	return fmt.Sprintf(
		"Can only start workouts scheduled for today. This workout is scheduled for %s, a %s date",
		e.Scheduled, when,
	)
}

func (e *StartDateError) Unwrap() error { return ErrInvalidState }

// Future reports whether the workout was started too early (as opposed to too late).
func (e *StartDateError) Future() bool { return e.Scheduled.After(e.Today) }

// Start moves a scheduled workout to in-progress. Snapshotting is the caller's job.
func (w *Workout) Start(now time.Time, today Date) error {
	if w.StartTime != nil {
		return ErrAlreadyStarted
	}
	if !w.Date.Equal(today) {
		return &StartDateError{Scheduled: w.Date, Today: today}
	}
	started := now.UTC()
	w.StartTime = &started
	return nil
}

// Cancel returns an in-progress workout to scheduled. Logged exercises are kept.
func (w *Workout) Cancel() error {
	if err := w.requireInProgress(); err != nil {
		return err
	}
	w.StartTime = nil
	return nil
}

func (w *Workout) Finish(now time.Time) error {
	if err := w.requireInProgress(); err != nil {
		return err
	}
	finished := now.UTC()
	w.EndTime = &finished
	return nil
}

func (w *Workout) requireInProgress() error {
	if w.StartTime == nil {
		return ErrNotStarted
	}
	if w.EndTime != nil {
		return ErrAlreadyFinished
	}
	return nil
}

// EnsureMutable rejects any change to a finished workout.
func (w *Workout) EnsureMutable() error {
	if w.EndTime != nil {
		return ErrFinishedWorkout
	}
	return nil
}

// OptionalTime distinguishes an omitted field (Set == false) from an explicit null.
type OptionalTime struct {
	Set   bool
	Value *time.Time
}

// WorkoutPatch is a partial update: only set fields are applied.
type WorkoutPatch struct {
	Date      *Date
	ClearDate bool
	StartTime OptionalTime
	EndTime   OptionalTime
}

// ApplyPatch applies p and reports whether the workout became started by it.
// The workout is left untouched when an error is returned.
func (w *Workout) ApplyPatch(p WorkoutPatch) (bool, error) {
	if err := w.EnsureMutable(); err != nil {
		return false, err
	}
	if p.ClearDate {
		return false, ErrDateRequired
	}

	next := *w
	if p.Date != nil {
		next.Date = *p.Date
	}
	if p.StartTime.Set {
		next.StartTime = utcPtr(p.StartTime.Value)
	}
	if p.EndTime.Set {
		next.EndTime = utcPtr(p.EndTime.Value)
	}
	if err := next.ValidateTimes(); err != nil {
		return false, err
	}

	*w = next
	return p.StartTime.Set && p.StartTime.Value != nil, nil
}

// ValidateTimes enforces that a workout can only end after it started.
func (w *Workout) ValidateTimes() error {
	if w.EndTime == nil {
		return nil
	}
	if w.StartTime == nil {
		return ErrEndWithoutStart
	}
	if w.EndTime.Before(*w.StartTime) {
		return ErrEndBeforeStart
	}
	return nil
}

// ReplaceExercises performs the full-replacement exercise update. The stored
// list becomes a deep copy of exercises, in the given order.
func (w *Workout) ReplaceExercises(exercises []TrackedExercise) error {
	if err := w.EnsureMutable(); err != nil {
		return err
	}
	if exercises == nil {
		exercises = []TrackedExercise{}
	}
	if err := ValidateTrackedExercises(exercises); err != nil {
		return err
	}
	w.Exercises = CloneTrackedExercises(exercises)
	return nil
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
