package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// WorkoutSet is one performed (or planned) set. Every field is independently resettable.
type WorkoutSet struct {
	Reps      *int     `bson:"reps" json:"reps"`
	Weight    *float64 `bson:"weight" json:"weight"`
	Completed bool     `bson:"completed" json:"completed"`
	Notes     *string  `bson:"notes" json:"notes"`
}

// TrackedExercise is the mutable, per-workout copy of a prescription.
// Target fields are frozen at snapshot time; len(Sets) is adjusted independently.
type TrackedExercise struct {
	Name         string       `bson:"name" json:"name"`
	TargetSets   int          `bson:"targetSets" json:"target_sets"`
	TargetRepMin int          `bson:"targetRepMin" json:"target_rep_min"`
	TargetRepMax int          `bson:"targetRepMax" json:"target_rep_max"`
	Sets         []WorkoutSet `bson:"sets" json:"sets"`
	Notes        *string      `bson:"notes" json:"notes"`
}

// Workout is a single dated training session.
//
// Exercises is nil until the template has been snapshotted into it; a workout
// without a template keeps nil exercises until the user supplies some.
type Workout struct {
	ID         primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	OwnerID    primitive.ObjectID  `bson:"ownerId" json:"owner_id"`
	Date       Date                `bson:"date" json:"date"`
	TemplateID *primitive.ObjectID `bson:"templateId" json:"template_id"`
	StartTime  *time.Time          `bson:"startTime" json:"start_time"`
	EndTime    *time.Time          `bson:"endTime" json:"end_time"`
	Exercises  []TrackedExercise   `bson:"exercises" json:"exercises"`
	CreatedAt  time.Time           `bson:"createdAt" json:"created_at"`
	UpdatedAt  time.Time           `bson:"updatedAt" json:"updated_at"`
}

// WorkoutStatus is derived from the start and end timestamps.
type WorkoutStatus string

const (
	StatusScheduled  WorkoutStatus = "scheduled"
	StatusInProgress WorkoutStatus = "in_progress"
	StatusFinished   WorkoutStatus = "finished"
)

// Status is derived from the recorded start and end times.
func (w Workout) Status() WorkoutStatus {
	switch {
	case w.EndTime != nil:
		return StatusFinished
	case w.StartTime != nil:
		return StatusInProgress
	default:
		return StatusScheduled
	}
}

// NeedsSnapshot reports whether the template prescription still has to be copied in.
func (w Workout) NeedsSnapshot() bool {
	return w.TemplateID != nil && w.Exercises == nil
}
