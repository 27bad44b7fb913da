package service

import (
	"context"
	"errors"
	"ptcoach/pt-server/internal/domain"
	"ptcoach/pt-server/internal/repository"
	"time"

	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// --- Error Definitions ---
var (
	ErrWorkoutNotFound = errors.New("Workout not found")
)

type CreateWorkoutInput struct {
	Date       domain.Date
	TemplateID *primitive.ObjectID
	StartTime  *time.Time
	EndTime    *time.Time
}

// WorkoutService owns the workout lifecycle. Every operation that exposes or
// mutates a workout's exercises snapshots its template first when needed.
type WorkoutService interface {
	Create(ctx context.Context, ownerID primitive.ObjectID, in CreateWorkoutInput) (*domain.Workout, error)
	// List snapshots the returned workouts only when filtering by date.
	List(ctx context.Context, ownerID primitive.ObjectID, filter repository.WorkoutFilter) ([]domain.Workout, error)
	Get(ctx context.Context, ownerID, id primitive.ObjectID) (*domain.Workout, error)
	Update(ctx context.Context, ownerID, id primitive.ObjectID, patch domain.WorkoutPatch) (*domain.Workout, error)
	ReplaceExercises(ctx context.Context, ownerID, id primitive.ObjectID, exercises []domain.TrackedExercise) (*domain.Workout, error)
	Start(ctx context.Context, ownerID, id primitive.ObjectID) (*domain.Workout, error)
	Cancel(ctx context.Context, ownerID, id primitive.ObjectID) (*domain.Workout, error)
	Finish(ctx context.Context, ownerID, id primitive.ObjectID) (*domain.Workout, error)
	Delete(ctx context.Context, ownerID, id primitive.ObjectID) error
}

type workoutService struct {
	tx           repository.Transactor
	workoutRepo  repository.WorkoutRepository
	templateRepo repository.TemplateRepository
	snapshots    snapshotter
	calendar     Calendar
}

func NewWorkoutService(
	tx repository.Transactor,
	workoutRepo repository.WorkoutRepository,
	templateRepo repository.TemplateRepository,
	calendar Calendar,
) WorkoutService {
	return &workoutService{
		tx:           tx,
		workoutRepo:  workoutRepo,
		templateRepo: templateRepo,
		snapshots:    snapshotter{templateRepo: templateRepo},
		calendar:     calendar,
	}
}

func (s *workoutService) Create(ctx context.Context, ownerID primitive.ObjectID, in CreateWorkoutInput) (*domain.Workout, error) {
	if in.Date.IsZero() {
		return nil, domain.ErrDateRequired
	}
	workout := &domain.Workout{
		OwnerID:    ownerID,
		Date:       in.Date,
		TemplateID: in.TemplateID,
		StartTime:  utc(in.StartTime),
		EndTime:    utc(in.EndTime),
	}
	if err := workout.ValidateTimes(); err != nil {
		return nil, err
	}

	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if workout.TemplateID != nil {
			if _, err := s.templateRepo.GetByID(ctx, *workout.TemplateID, ownerID); err != nil {
				if errors.Is(err, repository.ErrNotFound) {
					return ErrTemplateNotFound
				}
				return err
			}
		}
		_, err := s.workoutRepo.Create(ctx, workout)
		return err
	})
	if err != nil {
		return nil, err
	}
	return workout, nil
}

func (s *workoutService) List(ctx context.Context, ownerID primitive.ObjectID, filter repository.WorkoutFilter) ([]domain.Workout, error) {
	if filter.Limit <= 0 {
		filter.Limit = repository.DefaultPageLimit
	}
	if filter.Skip < 0 {
		filter.Skip = 0
	}

	var workouts []domain.Workout
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		workouts, err = s.workoutRepo.List(ctx, ownerID, filter)
		if err != nil || filter.Date == nil {
			return err
		}
		for i := range workouts {
			if err := s.snapshotAndSave(ctx, &workouts[i]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return workouts, nil
}

// Get snapshots a template-backed workout on first read, finished or not.
func (s *workoutService) Get(ctx context.Context, ownerID, id primitive.ObjectID) (*domain.Workout, error) {
	return s.mutate(ctx, ownerID, id, func(ctx context.Context, w *domain.Workout) (bool, error) {
		return s.snapshots.ensure(ctx, w)
	})
}

func (s *workoutService) Update(ctx context.Context, ownerID, id primitive.ObjectID, patch domain.WorkoutPatch) (*domain.Workout, error) {
	return s.mutate(ctx, ownerID, id, func(ctx context.Context, w *domain.Workout) (bool, error) {
		startedNow, err := w.ApplyPatch(patch)
		if err != nil {
			return false, err
		}
		if startedNow {
			if _, err := s.snapshots.ensure(ctx, w); err != nil {
				return false, err
			}
		}
		return true, nil
	})
}

// ReplaceExercises stores exercises as the workout's complete exercise list.
func (s *workoutService) ReplaceExercises(ctx context.Context, ownerID, id primitive.ObjectID, exercises []domain.TrackedExercise) (*domain.Workout, error) {
	return s.mutate(ctx, ownerID, id, func(ctx context.Context, w *domain.Workout) (bool, error) {
		if err := w.EnsureMutable(); err != nil {
			return false, err
		}
		if _, err := s.snapshots.ensure(ctx, w); err != nil {
			return false, err
		}
		if err := w.ReplaceExercises(exercises); err != nil {
			return false, err
		}
		return true, nil
	})
}

func (s *workoutService) Start(ctx context.Context, ownerID, id primitive.ObjectID) (*domain.Workout, error) {
	return s.mutate(ctx, ownerID, id, func(ctx context.Context, w *domain.Workout) (bool, error) {
		if err := w.Start(s.calendar.Now(), s.calendar.Today()); err != nil {
			return false, err
		}
		if _, err := s.snapshots.ensure(ctx, w); err != nil {
			return false, err
		}
		return true, nil
	})
}

func (s *workoutService) Cancel(ctx context.Context, ownerID, id primitive.ObjectID) (*domain.Workout, error) {
	return s.mutate(ctx, ownerID, id, func(_ context.Context, w *domain.Workout) (bool, error) {
		return true, w.Cancel()
	})
}

func (s *workoutService) Finish(ctx context.Context, ownerID, id primitive.ObjectID) (*domain.Workout, error) {
	return s.mutate(ctx, ownerID, id, func(_ context.Context, w *domain.Workout) (bool, error) {
		return true, w.Finish(s.calendar.Now())
	})
}

func (s *workoutService) Delete(ctx context.Context, ownerID, id primitive.ObjectID) error {
	if err := s.workoutRepo.Delete(ctx, id, ownerID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrWorkoutNotFound
		}
		return err
	}
	return nil
}

// mutate loads a workout, applies fn and persists the result when fn reports a
// change, all inside one transaction. Nothing is written when fn fails.
func (s *workoutService) mutate(
	ctx context.Context,
	ownerID, id primitive.ObjectID,
	fn func(ctx context.Context, w *domain.Workout) (bool, error),
) (*domain.Workout, error) {
	var workout *domain.Workout
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		w, err := getWorkout(ctx, s.workoutRepo, ownerID, id)
		if err != nil {
			return err
		}
		changed, err := fn(ctx, w)
		if err != nil {
			return err
		}
		if changed {
			if err := s.workoutRepo.Update(ctx, w); err != nil {
				return err
			}
		}
		workout = w
		return nil
	})
	if err != nil {
		return nil, err
	}
	return workout, nil
}

func (s *workoutService) snapshotAndSave(ctx context.Context, w *domain.Workout) error {
	changed, err := s.snapshots.ensure(ctx, w)
	if err != nil {
		return err
	}
	if !changed {
		return nil
	}
	log.Debugf("snapshotted template %s into workout %s", w.TemplateID.Hex(), w.ID.Hex())
	return s.workoutRepo.Update(ctx, w)
}

func getWorkout(ctx context.Context, repo repository.WorkoutRepository, ownerID, id primitive.ObjectID) (*domain.Workout, error) {
	workout, err := repo.GetByID(ctx, id, ownerID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrWorkoutNotFound
		}
		return nil, err
	}
	return workout, nil
}

func utc(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
