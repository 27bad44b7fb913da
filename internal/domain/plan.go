package domain

import (
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/multierr"
)

// RestDay marks a microcycle day without a workout.
const RestDay = -1

// ScheduleItem is one day of a plan's microcycle. A nil TemplateID is a rest day.
type ScheduleItem struct {
	DayIndex   int                 `bson:"dayIndex" json:"day_index"`
	TemplateID *primitive.ObjectID `bson:"templateId" json:"template_id"`
}

// TrainingPlan owns a repeating microcycle and the templates created for it.
type TrainingPlan struct {
	ID          primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	OwnerID     primitive.ObjectID   `bson:"ownerId" json:"owner_id"`
	Description string               `bson:"description" json:"description"`
	TemplateIDs []primitive.ObjectID `bson:"templateIds" json:"template_ids"`
	Schedule    []ScheduleItem       `bson:"schedule" json:"schedule"`
	CreatedAt   time.Time            `bson:"createdAt" json:"created_at"`
	UpdatedAt   time.Time            `bson:"updatedAt" json:"updated_at"`
}

// ValidateSchedule requires unique day indices covering 0..len(items)-1.
func ValidateSchedule(items []ScheduleItem) error {
	var err error
	seen := make(map[int]struct{}, len(items))
	for i, item := range items {
		if item.DayIndex < 0 {
			err = multierr.Append(err, fmt.Errorf("schedule[%d]: day_index must not be negative", i))
			continue
		}
		if item.DayIndex >= len(items) {
			err = multierr.Append(err, fmt.Errorf("schedule[%d]: day_index %d leaves a gap in a %d-day microcycle", i, item.DayIndex, len(items)))
			continue
		}
		if _, dup := seen[item.DayIndex]; dup {
			err = multierr.Append(err, fmt.Errorf("schedule[%d]: duplicate day_index %d", i, item.DayIndex))
		}
		seen[item.DayIndex] = struct{}{}
	}
	if err != nil {
		return &ValidationError{Subject: "schedule", Err: err}
	}
	return nil
}

// BuildSchedule turns a microcycle of template indices (RestDay for rest) into
// schedule items pointing at templateIDs. Templates used on several days share one id.
func BuildSchedule(microcycle []int, templateIDs []primitive.ObjectID) ([]ScheduleItem, error) {
	var err error
	items := make([]ScheduleItem, 0, len(microcycle))
	for day, idx := range microcycle {
		item := ScheduleItem{DayIndex: day}
		switch {
		case idx == RestDay:
		case idx >= 0 && idx < len(templateIDs):
			id := templateIDs[idx]
			item.TemplateID = &id
		default:
			err = multierr.Append(err, fmt.Errorf("microcycle[%d]: template index %d out of range", day, idx))
		}
		items = append(items, item)
	}
	if err != nil {
		return nil, &ValidationError{Subject: "microcycle", Err: err}
	}
	return items, nil
}

// Microcycle renders the plan schedule back as indices into TemplateIDs, ordered by day.
func (p *TrainingPlan) Microcycle() []int {
	position := make(map[primitive.ObjectID]int, len(p.TemplateIDs))
	for i, id := range p.TemplateIDs {
		position[id] = i
	}
	length := 0
	for _, item := range p.Schedule {
		length = max(length, item.DayIndex+1)
	}
	out := make([]int, length)
	for i := range out {
		out[i] = RestDay
	}
	for _, item := range p.Schedule {
		if item.TemplateID == nil {
			continue
		}
		if idx, ok := position[*item.TemplateID]; ok {
			out[item.DayIndex] = idx
		}
	}
	return out
}

// ExpandMicrocycle materializes weeks*7 days of the repeating schedule starting at
// start. Rest days produce no workout. Existing workouts are not consulted, so
// repeated calls create duplicates.
func ExpandMicrocycle(schedule []ScheduleItem, start Date, weeks int) ([]Workout, error) {
	if len(schedule) == 0 {
		return nil, fmt.Errorf("%w: plan has no schedule items", ErrInvalidPlan)
	}
	if weeks <= 0 {
		return nil, fmt.Errorf("%w: number of weeks must be positive, got %d", ErrInvalidPlan, weeks)
	}
	if start.IsZero() {
		return nil, fmt.Errorf("%w: start date is required", ErrInvalidPlan)
	}
	if err := ValidateSchedule(schedule); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPlan, err)
	}

	byDay := make(map[int]*primitive.ObjectID, len(schedule))
	for _, item := range schedule {
		byDay[item.DayIndex] = item.TemplateID
	}

	cycle := len(schedule)
	var workouts []Workout
	for d := 0; d < weeks*7; d++ {
		templateID := byDay[d%cycle]
		if templateID == nil {
			continue
		}
		id := *templateID
		workouts = append(workouts, Workout{
			Date:       start.AddDays(d),
			TemplateID: &id,
		})
	}
	return workouts, nil
}
