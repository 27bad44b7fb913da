package service

import (
	"context"
	"errors"
	"ptcoach/pt-server/internal/domain"
	"ptcoach/pt-server/internal/repository"
)

// snapshotter is the single place where a workout's template prescription is
// copied into its exercises.
type snapshotter struct {
	templateRepo repository.TemplateRepository
}

// ensure snapshots w when it has a template and no exercises yet, and reports
// whether w changed. Workouts that already hold exercises are never touched.
func (s snapshotter) ensure(ctx context.Context, w *domain.Workout) (bool, error) {
	if !w.NeedsSnapshot() {
		return false, nil
	}
	template, err := s.templateRepo.GetByID(ctx, *w.TemplateID, w.OwnerID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return false, ErrTemplateNotFound
		}
		return false, err
	}
	w.Exercises = domain.Snapshot(template.Exercises)
	return true, nil
}
