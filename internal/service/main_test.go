package service

import (
	"ptcoach/pt-server/internal/domain"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// 2025-06-10 is a Tuesday.
var (
	fixedNow   = time.Date(2025, time.June, 10, 9, 0, 0, 0, time.UTC)
	fixedToday = domain.NewDate(2025, time.June, 10)
)

func testCalendar() Calendar {
	return NewCalendarWithClock(time.UTC, func() time.Time { return fixedNow })
}

type harness struct {
	tx        *noopTransactor
	users     *fakeUserRepo
	templates *fakeTemplateRepo
	plans     *fakePlanRepo
	workouts  *fakeWorkoutRepo
	ownerID   primitive.ObjectID
}

func newHarness() *harness {
	return &harness{
		tx:        &noopTransactor{},
		users:     newFakeUserRepo(),
		templates: newFakeTemplateRepo(),
		plans:     &fakePlanRepo{},
		workouts:  newFakeWorkoutRepo(),
		ownerID:   primitive.NewObjectID(),
	}
}

func (h *harness) workoutService() WorkoutService {
	return NewWorkoutService(h.tx, h.workouts, h.templates, testCalendar())
}

func (h *harness) seedTemplate(t *testing.T, name string, exercises ...domain.TemplateExercise) domain.Template {
	t.Helper()
	template := domain.Template{OwnerID: h.ownerID, Name: name, Exercises: exercises}
	_, err := h.templates.Create(t.Context(), &template)
	require.NoError(t, err)
	return template
}

func (h *harness) seedWorkout(t *testing.T, w domain.Workout) domain.Workout {
	t.Helper()
	if w.OwnerID.IsZero() {
		w.OwnerID = h.ownerID
	}
	_, err := h.workouts.Create(t.Context(), &w)
	require.NoError(t, err)
	return w
}

func intPtr(v int) *int { return &v }
func floatPtr(v float64) *float64 { return &v }
func stringPtr(v string) *string { return &v }
func timePtr(v time.Time) *time.Time { return &v }

var (
	squat = domain.TemplateExercise{Name: "Barbell Squat", Sets: 3, RepMin: 5, RepMax: 5}
	bench = domain.TemplateExercise{Name: "Bench Press", Sets: 4, RepMin: 8, RepMax: 12}
)
