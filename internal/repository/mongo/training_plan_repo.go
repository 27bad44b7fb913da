package mongo

import (
	"context"
	"errors"
	"ptcoach/pt-server/internal/domain"
	"ptcoach/pt-server/internal/repository"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const trainingPlanCollectionName = "training_plans"

type mongoTrainingPlanRepository struct {
	collection *mongo.Collection
}

func NewMongoTrainingPlanRepository(db *mongo.Database) repository.TrainingPlanRepository {
	return &mongoTrainingPlanRepository{
		collection: db.Collection(trainingPlanCollectionName),
	}
}

// Create stores a plan together with its embedded schedule.
func (r *mongoTrainingPlanRepository) Create(ctx context.Context, plan *domain.TrainingPlan) (primitive.ObjectID, error) {
	if plan.OwnerID == primitive.NilObjectID {
		return primitive.NilObjectID, errors.New("plan owner ID is required")
	}
	if err := domain.ValidateSchedule(plan.Schedule); err != nil {
		return primitive.NilObjectID, err
	}

	plan.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	plan.CreatedAt = now
	plan.UpdatedAt = now

	result, err := r.collection.InsertOne(ctx, plan)
	if err != nil {
		return primitive.NilObjectID, err
	}
	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted ID")
	}
	return insertedID, nil
}

// GetLatest returns the owner's most recently created plan.
func (r *mongoTrainingPlanRepository) GetLatest(ctx context.Context, ownerID primitive.ObjectID) (*domain.TrainingPlan, error) {
	var plan domain.TrainingPlan
	opts := options.FindOne().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}})
	err := r.collection.FindOne(ctx, bson.M{"ownerId": ownerID}, opts).Decode(&plan)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &plan, nil
}

// ReferencesTemplate reports whether any of the owner's plans schedules templateID.
func (r *mongoTrainingPlanRepository) ReferencesTemplate(ctx context.Context, ownerID, templateID primitive.ObjectID) (bool, error) {
	count, err := r.collection.CountDocuments(ctx,
		bson.M{"ownerId": ownerID, "schedule.templateId": templateID},
		options.Count().SetLimit(1),
	)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func EnsureTrainingPlanIndexes(ctx context.Context, collection *mongo.Collection) error {
	return createIndexes(ctx, collection, []mongo.IndexModel{
		{Keys: bson.D{{Key: "ownerId", Value: 1}, {Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "ownerId", Value: 1}, {Key: "schedule.templateId", Value: 1}}},
	})
}
