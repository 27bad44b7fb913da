package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"ptcoach/pt-server/internal/domain"
	"ptcoach/pt-server/internal/repository"
	"ptcoach/pt-server/internal/storage"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// --- Error Definitions ---
var (
	ErrExportUnavailable = errors.New("workout export is not configured")
)

type ExportResult struct {
	Key       string    `json:"key"`
	URL       string    `json:"url"`
	Count     int       `json:"count"`
	ExpiresAt time.Time `json:"expires_at"`
}

type exportDocument struct {
	ExportedAt time.Time        `json:"exported_at"`
	Workouts   []domain.Workout `json:"workouts"`
}

type ExportService interface {
	// ExportFinished uploads every finished workout of the owner as one JSON
	// document and returns a temporary download link to it.
	ExportFinished(ctx context.Context, ownerID primitive.ObjectID) (*ExportResult, error)
}

type exportService struct {
	workoutRepo repository.WorkoutRepository
	fileStorage storage.FileStorage
	urlTTL      time.Duration
	calendar    Calendar
}

// NewExportService accepts a nil fileStorage; exports then fail with ErrExportUnavailable.
func NewExportService(workoutRepo repository.WorkoutRepository, fileStorage storage.FileStorage, urlTTL time.Duration, calendar Calendar) ExportService {
	if urlTTL <= 0 {
		urlTTL = storage.DefaultPresignedURLExpiry
	}
	return &exportService{
		workoutRepo: workoutRepo,
		fileStorage: fileStorage,
		urlTTL:      urlTTL,
		calendar:    calendar,
	}
}

func (s *exportService) ExportFinished(ctx context.Context, ownerID primitive.ObjectID) (*ExportResult, error) {
	if s.fileStorage == nil {
		return nil, ErrExportUnavailable
	}

	workouts, err := s.workoutRepo.ListFinishedSince(ctx, ownerID, domain.Date{})
	if err != nil {
		return nil, err
	}

	now := s.calendar.Now()
	body, err := json.Marshal(exportDocument{ExportedAt: now, Workouts: workouts})
	if err != nil {
		return nil, fmt.Errorf("encoding export: %w", err)
	}

	key := fmt.Sprintf("exports/%s/%s.json", ownerID.Hex(), uuid.NewString())
	if err := s.fileStorage.PutObject(ctx, key, "application/json", bytes.NewReader(body)); err != nil {
		return nil, err
	}

	url, err := s.fileStorage.GeneratePresignedDownloadURL(ctx, key, s.urlTTL)
	if err != nil {
		if delErr := s.fileStorage.DeleteObject(ctx, key); delErr != nil {
			log.Warnf("failed to remove unreachable export '%s': %v", key, delErr)
		}
		return nil, err
	}

	return &ExportResult{
		Key:       key,
		URL:       url,
		Count:     len(workouts),
		ExpiresAt: now.Add(s.urlTTL),
	}, nil
}
