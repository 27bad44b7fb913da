package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/multierr"
)

// TemplateExercise is one prescribed exercise of a template.
type TemplateExercise struct {
	Name   string `bson:"name" json:"name"`
	Sets   int    `bson:"sets" json:"sets"`
	RepMin int    `bson:"repMin" json:"rep_min"`
	RepMax int    `bson:"repMax" json:"rep_max"` // equal to RepMin for fixed reps
}

// Template is an immutable workout prescription. Workout operations never write to it.
type Template struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	OwnerID     primitive.ObjectID `bson:"ownerId" json:"owner_id"`
	Name        string             `bson:"name" json:"name"`
	Description *string            `bson:"description,omitempty" json:"description"`
	Exercises   []TemplateExercise `bson:"exercises" json:"exercises"`
	CreatedAt   time.Time          `bson:"createdAt" json:"created_at"`
	UpdatedAt   time.Time          `bson:"updatedAt" json:"updated_at"`
}

func (e TemplateExercise) validate() error {
	var err error
	if strings.TrimSpace(e.Name) == "" {
		err = multierr.Append(err, errors.New("name is required"))
	}
	if e.Sets <= 0 {
		err = multierr.Append(err, fmt.Errorf("sets must be positive, got %d", e.Sets))
	}
	if e.RepMin <= 0 {
		err = multierr.Append(err, fmt.Errorf("rep_min must be positive, got %d", e.RepMin))
	}
	if e.RepMax < e.RepMin {
		err = multierr.Append(err, fmt.Errorf("rep_max (%d) must be >= rep_min (%d)", e.RepMax, e.RepMin))
	}
	return err
}

// ValidateTemplateExercises checks every prescription and reports all problems at once.
func ValidateTemplateExercises(exercises []TemplateExercise) error {
	var err error
	for i, ex := range exercises {
		if exErr := ex.validate(); exErr != nil {
			err = multierr.Append(err, fmt.Errorf("exercises[%d]: %w", i, exErr))
		}
	}
	if err != nil {
		return &ValidationError{Subject: "template exercises", Err: err}
	}
	return nil
}

func (t *Template) Validate() error {
	var err error
	if strings.TrimSpace(t.Name) == "" {
		err = multierr.Append(err, errors.New("name is required"))
	}
	if t.Exercises == nil {
		err = multierr.Append(err, errors.New("exercises is required"))
	}
	if exErr := ValidateTemplateExercises(t.Exercises); exErr != nil {
		var ve *ValidationError
		if errors.As(exErr, &ve) {
			exErr = ve.Err
		}
		err = multierr.Append(err, exErr)
	}
	if err != nil {
		return &ValidationError{Subject: "template", Err: err}
	}
	return nil
}
