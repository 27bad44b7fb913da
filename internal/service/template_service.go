package service

import (
	"context"
	"errors"
	"ptcoach/pt-server/internal/domain"
	"ptcoach/pt-server/internal/repository"
	"strings"

	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// --- Error Definitions ---
var (
	ErrTemplateNotFound = errors.New("Template not found")
	ErrTemplateInUse    = &domain.StateError{Msg: "Template is used by a training plan and cannot be deleted"}
)

type CreateTemplateInput struct {
	Name        string
	Description *string
	Exercises   []domain.TemplateExercise
}

type TemplateService interface {
	List(ctx context.Context, ownerID primitive.ObjectID, page repository.Page) ([]domain.Template, error)
	Get(ctx context.Context, ownerID, id primitive.ObjectID) (*domain.Template, error)
	Create(ctx context.Context, ownerID primitive.ObjectID, in CreateTemplateInput) (*domain.Template, error)
	// Delete removes a template no plan uses and detaches the workouts created from it.
	Delete(ctx context.Context, ownerID, id primitive.ObjectID) error
}

type templateService struct {
	tx           repository.Transactor
	templateRepo repository.TemplateRepository
	planRepo     repository.TrainingPlanRepository
	workoutRepo  repository.WorkoutRepository
}

func NewTemplateService(
	tx repository.Transactor,
	templateRepo repository.TemplateRepository,
	planRepo repository.TrainingPlanRepository,
	workoutRepo repository.WorkoutRepository,
) TemplateService {
	return &templateService{
		tx:           tx,
		templateRepo: templateRepo,
		planRepo:     planRepo,
		workoutRepo:  workoutRepo,
	}
}

func (s *templateService) List(ctx context.Context, ownerID primitive.ObjectID, page repository.Page) ([]domain.Template, error) {
	return s.templateRepo.List(ctx, ownerID, page)
}

func (s *templateService) Get(ctx context.Context, ownerID, id primitive.ObjectID) (*domain.Template, error) {
	template, err := s.templateRepo.GetByID(ctx, id, ownerID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrTemplateNotFound
		}
		return nil, err
	}
	return template, nil
}

func (s *templateService) Create(ctx context.Context, ownerID primitive.ObjectID, in CreateTemplateInput) (*domain.Template, error) {
	template := &domain.Template{
		OwnerID:     ownerID,
		Name:        strings.TrimSpace(in.Name),
		Description: in.Description,
		Exercises:   in.Exercises,
	}
	if err := template.Validate(); err != nil {
		return nil, err
	}
	if _, err := s.templateRepo.Create(ctx, template); err != nil {
		return nil, err
	}
	return template, nil
}

func (s *templateService) Delete(ctx context.Context, ownerID, id primitive.ObjectID) error {
	return s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.Get(ctx, ownerID, id); err != nil {
			return err
		}

		used, err := s.planRepo.ReferencesTemplate(ctx, ownerID, id)
		if err != nil {
			return err
		}
		if used {
			return ErrTemplateInUse
		}

		detached, err := s.workoutRepo.ClearTemplate(ctx, ownerID, id)
		if err != nil {
			return err
		}
		if err := s.templateRepo.Delete(ctx, id, ownerID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrTemplateNotFound
			}
			return err
		}

		log.Debugf("deleted template %s, detached %d workouts", id.Hex(), detached)
		return nil
	})
}
