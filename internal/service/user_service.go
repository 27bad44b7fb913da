package service

import (
	"context"
	"errors"
	"ptcoach/pt-server/internal/domain"
	"ptcoach/pt-server/internal/repository"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// --- Error Definitions ---
var (
	ErrUserNotFound    = errors.New("user not found")
	ErrIdentityInvalid = errors.New("identity subject and email are required")
)

type UserService interface {
	// GetOrCreate resolves the caller's account, creating it on first contact.
	GetOrCreate(ctx context.Context, subject, email string) (*domain.User, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.User, error)
}

type userService struct {
	userRepo repository.UserRepository
}

func NewUserService(userRepo repository.UserRepository) UserService {
	return &userService{userRepo: userRepo}
}

func (s *userService) GetOrCreate(ctx context.Context, subject, email string) (*domain.User, error) {
	subject = strings.TrimSpace(subject)
	email = strings.ToLower(strings.TrimSpace(email))
	if subject == "" || email == "" {
		return nil, ErrIdentityInvalid
	}
	return s.userRepo.GetOrCreateBySubject(ctx, subject, email)
}

func (s *userService) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}
