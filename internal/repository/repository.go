package repository

import (
	"context"
	"ptcoach/pt-server/internal/domain"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Error constants for the repository layer.
var (
	ErrNotFound = RepositoryError("not found")
	// ErrMalformedRecord is returned when a stored document no longer matches
	// the expected shape (for example an older exercise layout).
	ErrMalformedRecord = RepositoryError("malformed record")
)

// RepositoryError helps distinguish repository errors
type RepositoryError string

func (e RepositoryError) Error() string {
	return string(e)
}

// Transactor runs fn as one unit of work. Repositories called with the
// context passed to fn take part in the same transaction.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// UserRepository defines the interface for interacting with user data.
type UserRepository interface {
	GetOrCreateBySubject(ctx context.Context, subject, email string) (*domain.User, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.User, error)
	// GetOnboardingState returns nil, nil when nothing has been stored yet.
	GetOnboardingState(ctx context.Context, userID primitive.ObjectID) (*domain.OnboardingState, error)
	SaveOnboardingState(ctx context.Context, userID primitive.ObjectID, state domain.OnboardingState) error
}

// TemplateRepository defines the interface for interacting with template data.
// Every lookup is scoped to the owner.
type TemplateRepository interface {
	Create(ctx context.Context, template *domain.Template) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id, ownerID primitive.ObjectID) (*domain.Template, error)
	GetByIDs(ctx context.Context, ids []primitive.ObjectID, ownerID primitive.ObjectID) ([]domain.Template, error)
	List(ctx context.Context, ownerID primitive.ObjectID, page Page) ([]domain.Template, error)
	Delete(ctx context.Context, id, ownerID primitive.ObjectID) error
}

// TrainingPlanRepository defines the interface for interacting with training plan data.
type TrainingPlanRepository interface {
	Create(ctx context.Context, plan *domain.TrainingPlan) (primitive.ObjectID, error)
	GetLatest(ctx context.Context, ownerID primitive.ObjectID) (*domain.TrainingPlan, error)
	ReferencesTemplate(ctx context.Context, ownerID, templateID primitive.ObjectID) (bool, error)
}

// WorkoutRepository defines the interface for interacting with workout data.
type WorkoutRepository interface {
	Create(ctx context.Context, workout *domain.Workout) (primitive.ObjectID, error)
	CreateMany(ctx context.Context, workouts []domain.Workout) (int, error)
	GetByID(ctx context.Context, id, ownerID primitive.ObjectID) (*domain.Workout, error)
	List(ctx context.Context, ownerID primitive.ObjectID, filter WorkoutFilter) ([]domain.Workout, error)
	// ListFinishedSince returns finished workouts dated on or after since, newest date first.
	ListFinishedSince(ctx context.Context, ownerID primitive.ObjectID, since domain.Date) ([]domain.Workout, error)
	// Update overwrites every mutable field of the stored workout.
	Update(ctx context.Context, workout *domain.Workout) error
	Delete(ctx context.Context, id, ownerID primitive.ObjectID) error
	// ClearTemplate detaches workouts from a deleted template.
	ClearTemplate(ctx context.Context, ownerID, templateID primitive.ObjectID) (int64, error)
}

// Page is an offset/limit window.
type Page struct {
	Skip  int64
	Limit int64
}

const DefaultPageLimit = 100

// WorkoutFilter narrows a workout listing. A nil Date lists every day.
type WorkoutFilter struct {
	Date *domain.Date
	Page
}
