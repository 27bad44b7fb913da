package service

import (
	"bytes"
	"context"
	"io"
	"ptcoach/pt-server/internal/domain"
	"ptcoach/pt-server/internal/repository"
	"sort"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// noopTransactor runs the unit of work directly and counts the units.
type noopTransactor struct {
	calls int
}

func (t *noopTransactor) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	t.calls++
	return fn(ctx)
}

type fakeUserRepo struct {
	mu        sync.Mutex
	users     map[primitive.ObjectID]domain.User
	states    map[primitive.ObjectID]domain.OnboardingState
	getErr    error
	saveErr   error
	saveCalls int
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{
		users:  map[primitive.ObjectID]domain.User{},
		states: map[primitive.ObjectID]domain.OnboardingState{},
	}
}

func (r *fakeUserRepo) GetOrCreateBySubject(_ context.Context, subject, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Subject == subject {
			u.Email = email
			r.users[u.ID] = u
			return &u, nil
		}
	}
	now := time.Now().UTC()
	u := domain.User{ID: primitive.NewObjectID(), Subject: subject, Email: email, CreatedAt: now, UpdatedAt: now}
	r.users[u.ID] = u
	return &u, nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &u, nil
}

func (r *fakeUserRepo) GetOnboardingState(_ context.Context, userID primitive.ObjectID) (*domain.OnboardingState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.getErr != nil {
		return nil, r.getErr
	}
	state, ok := r.states[userID]
	if !ok {
		return nil, nil
	}
	clone := state.Clone()
	return &clone, nil
}

func (r *fakeUserRepo) SaveOnboardingState(_ context.Context, userID primitive.ObjectID, state domain.OnboardingState) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.saveCalls++
	if r.saveErr != nil {
		return r.saveErr
	}
	r.states[userID] = state.Clone()
	return nil
}

type fakeTemplateRepo struct {
	mu        sync.Mutex
	templates map[primitive.ObjectID]domain.Template
	order     []primitive.ObjectID
}

func newFakeTemplateRepo() *fakeTemplateRepo {
	return &fakeTemplateRepo{templates: map[primitive.ObjectID]domain.Template{}}
}

func cloneTemplate(t domain.Template) domain.Template {
	t.Exercises = append([]domain.TemplateExercise(nil), t.Exercises...)
	return t
}

func (r *fakeTemplateRepo) Create(_ context.Context, template *domain.Template) (primitive.ObjectID, error) {
	if err := template.Validate(); err != nil {
		return primitive.NilObjectID, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	template.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	template.CreatedAt = now
	template.UpdatedAt = now
	r.templates[template.ID] = cloneTemplate(*template)
	r.order = append(r.order, template.ID)
	return template.ID, nil
}

func (r *fakeTemplateRepo) GetByID(_ context.Context, id, ownerID primitive.ObjectID) (*domain.Template, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.templates[id]
	if !ok || t.OwnerID != ownerID {
		return nil, repository.ErrNotFound
	}
	clone := cloneTemplate(t)
	return &clone, nil
}

func (r *fakeTemplateRepo) GetByIDs(ctx context.Context, ids []primitive.ObjectID, ownerID primitive.ObjectID) ([]domain.Template, error) {
	out := []domain.Template{}
	for _, id := range ids {
		t, err := r.GetByID(ctx, id, ownerID)
		if err != nil {
			continue
		}
		out = append(out, *t)
	}
	return out, nil
}

func (r *fakeTemplateRepo) List(_ context.Context, ownerID primitive.ObjectID, page repository.Page) ([]domain.Template, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []domain.Template{}
	for _, id := range r.order {
		if t, ok := r.templates[id]; ok && t.OwnerID == ownerID {
			out = append(out, cloneTemplate(t))
		}
	}
	return paginate(out, page), nil
}

func (r *fakeTemplateRepo) Delete(_ context.Context, id, ownerID primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.templates[id]
	if !ok || t.OwnerID != ownerID {
		return repository.ErrNotFound
	}
	delete(r.templates, id)
	return nil
}

func (r *fakeTemplateRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.templates)
}

type fakePlanRepo struct {
	mu    sync.Mutex
	plans []domain.TrainingPlan
}

func (r *fakePlanRepo) Create(_ context.Context, plan *domain.TrainingPlan) (primitive.ObjectID, error) {
	if err := domain.ValidateSchedule(plan.Schedule); err != nil {
		return primitive.NilObjectID, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	plan.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	plan.CreatedAt = now
	plan.UpdatedAt = now
	r.plans = append(r.plans, *plan)
	return plan.ID, nil
}

func (r *fakePlanRepo) GetLatest(_ context.Context, ownerID primitive.ObjectID) (*domain.TrainingPlan, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.plans) - 1; i >= 0; i-- {
		if r.plans[i].OwnerID == ownerID {
			p := r.plans[i]
			return &p, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakePlanRepo) ReferencesTemplate(_ context.Context, ownerID, templateID primitive.ObjectID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.plans {
		if p.OwnerID != ownerID {
			continue
		}
		for _, item := range p.Schedule {
			if item.TemplateID != nil && *item.TemplateID == templateID {
				return true, nil
			}
		}
	}
	return false, nil
}

type fakeWorkoutRepo struct {
	mu          sync.Mutex
	workouts    map[primitive.ObjectID]domain.Workout
	order       []primitive.ObjectID
	updateCalls int
}

func newFakeWorkoutRepo() *fakeWorkoutRepo {
	return &fakeWorkoutRepo{workouts: map[primitive.ObjectID]domain.Workout{}}
}

func cloneWorkout(w domain.Workout) domain.Workout {
	if w.Exercises != nil {
		w.Exercises = domain.CloneTrackedExercises(w.Exercises)
	}
	return w
}

func (r *fakeWorkoutRepo) Create(_ context.Context, workout *domain.Workout) (primitive.ObjectID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	workout.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	workout.CreatedAt = now
	workout.UpdatedAt = now
	r.workouts[workout.ID] = cloneWorkout(*workout)
	r.order = append(r.order, workout.ID)
	return workout.ID, nil
}

func (r *fakeWorkoutRepo) CreateMany(ctx context.Context, workouts []domain.Workout) (int, error) {
	for i := range workouts {
		if _, err := r.Create(ctx, &workouts[i]); err != nil {
			return i, err
		}
	}
	return len(workouts), nil
}

func (r *fakeWorkoutRepo) GetByID(_ context.Context, id, ownerID primitive.ObjectID) (*domain.Workout, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.workouts[id]
	if !ok || w.OwnerID != ownerID {
		return nil, repository.ErrNotFound
	}
	clone := cloneWorkout(w)
	return &clone, nil
}

func (r *fakeWorkoutRepo) List(_ context.Context, ownerID primitive.ObjectID, filter repository.WorkoutFilter) ([]domain.Workout, error) {
	out := r.all(ownerID)
	filtered := out[:0]
	for _, w := range out {
		if filter.Date == nil || w.Date.Equal(*filter.Date) {
			filtered = append(filtered, w)
		}
	}
	sort.SliceStable(filtered, func(i, j int) bool { return filtered[i].Date.Before(filtered[j].Date) })
	return paginate(filtered, filter.Page), nil
}

func (r *fakeWorkoutRepo) ListFinishedSince(_ context.Context, ownerID primitive.ObjectID, since domain.Date) ([]domain.Workout, error) {
	out := []domain.Workout{}
	for _, w := range r.all(ownerID) {
		if w.EndTime != nil && !w.Date.Before(since) {
			out = append(out, w)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return out, nil
}

func (r *fakeWorkoutRepo) Update(_ context.Context, workout *domain.Workout) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.updateCalls++
	stored, ok := r.workouts[workout.ID]
	if !ok || stored.OwnerID != workout.OwnerID {
		return repository.ErrNotFound
	}
	workout.UpdatedAt = time.Now().UTC()
	r.workouts[workout.ID] = cloneWorkout(*workout)
	return nil
}

func (r *fakeWorkoutRepo) Delete(_ context.Context, id, ownerID primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.workouts[id]
	if !ok || w.OwnerID != ownerID {
		return repository.ErrNotFound
	}
	delete(r.workouts, id)
	return nil
}

func (r *fakeWorkoutRepo) ClearTemplate(_ context.Context, ownerID, templateID primitive.ObjectID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for id, w := range r.workouts {
		if w.OwnerID == ownerID && w.TemplateID != nil && *w.TemplateID == templateID {
			w.TemplateID = nil
			r.workouts[id] = w
			n++
		}
	}
	return n, nil
}

func (r *fakeWorkoutRepo) all(ownerID primitive.ObjectID) []domain.Workout {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []domain.Workout{}
	for _, id := range r.order {
		if w, ok := r.workouts[id]; ok && w.OwnerID == ownerID {
			out = append(out, cloneWorkout(w))
		}
	}
	return out
}

func (r *fakeWorkoutRepo) stored(id primitive.ObjectID) domain.Workout {
	r.mu.Lock()
	defer r.mu.Unlock()
	return cloneWorkout(r.workouts[id])
}

func paginate[T any](items []T, page repository.Page) []T {
	start := min(int(page.Skip), len(items))
	items = items[start:]
	if page.Limit > 0 && int(page.Limit) < len(items) {
		items = items[:page.Limit]
	}
	return items
}

type fakeStorage struct {
	objects    map[string][]byte
	presignErr error
	deleted    []string
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{objects: map[string][]byte{}}
}

func (s *fakeStorage) PutObject(_ context.Context, key, _ string, body io.Reader) error {
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(body); err != nil {
		return err
	}
	s.objects[key] = buf.Bytes()
	return nil
}

func (s *fakeStorage) GeneratePresignedDownloadURL(_ context.Context, key string, _ time.Duration) (string, error) {
	if s.presignErr != nil {
		return "", s.presignErr
	}
	return "https://storage.test/" + key + "?signed", nil
}

func (s *fakeStorage) DeleteObject(_ context.Context, key string) error {
	delete(s.objects, key)
	s.deleted = append(s.deleted, key)
	return nil
}
