package mongo

import (
	"context"
	"errors"
	"fmt"
	"ptcoach/pt-server/internal/domain"
	"ptcoach/pt-server/internal/repository"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const workoutCollectionName = "workouts"

type mongoWorkoutRepository struct {
	collection *mongo.Collection
}

func NewMongoWorkoutRepository(db *mongo.Database) repository.WorkoutRepository {
	return &mongoWorkoutRepository{
		collection: db.Collection(workoutCollectionName),
	}
}

func (r *mongoWorkoutRepository) Create(ctx context.Context, workout *domain.Workout) (primitive.ObjectID, error) {
	if err := validateNewWorkout(workout); err != nil {
		return primitive.NilObjectID, err
	}

	workout.ID = primitive.NewObjectID() // Generate ID before insertion
	now := time.Now().UTC()
	workout.CreatedAt = now
	workout.UpdatedAt = now

	// Insert the document; exercises stay absent until the workout is snapshotted
	result, err := r.collection.InsertOne(ctx, workout)
	if err != nil {
		return primitive.NilObjectID, err
	}
	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted ID")
	}
	return insertedID, nil
}

// CreateMany inserts generated workouts in one round trip, preserving order.
func (r *mongoWorkoutRepository) CreateMany(ctx context.Context, workouts []domain.Workout) (int, error) {
	if len(workouts) == 0 {
		return 0, nil
	}

	now := time.Now().UTC()
	docs := make([]interface{}, len(workouts))
	for i := range workouts {
		if err := validateNewWorkout(&workouts[i]); err != nil {
			return 0, fmt.Errorf("workout %d: %w", i, err)
		}
		workouts[i].ID = primitive.NewObjectID()
		workouts[i].CreatedAt = now
		workouts[i].UpdatedAt = now
		docs[i] = workouts[i]
	}

	result, err := r.collection.InsertMany(ctx, docs, options.InsertMany().SetOrdered(true)) // Stop at the first failure
	if err != nil {
		return 0, err
	}
	return len(result.InsertedIDs), nil
}

// GetByID retrieves a workout owned by ownerID.
func (r *mongoWorkoutRepository) GetByID(ctx context.Context, id, ownerID primitive.ObjectID) (*domain.Workout, error) {
	// Decode from raw so malformed exercise arrays surface as ErrMalformedRecord
	raw, err := r.collection.FindOne(ctx, bson.M{"_id": id, "ownerId": ownerID}).Raw()
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound // Same error for missing and foreign workouts
		}
		return nil, err
	}
	return decodeWorkout(raw)
}

// List returns the owner's workouts ordered by date, then creation.
func (r *mongoWorkoutRepository) List(ctx context.Context, ownerID primitive.ObjectID, filter repository.WorkoutFilter) ([]domain.Workout, error) {
	query := bson.M{"ownerId": ownerID}
	if filter.Date != nil {
		query["date"] = *filter.Date // Dates are stored at UTC midnight, so equality matches the day
	}

	findOptions := options.Find().
		SetSort(bson.D{{Key: "date", Value: 1}, {Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}}).
		SetSkip(filter.Skip).
		SetLimit(filter.Limit)

	cursor, err := r.collection.Find(ctx, query, findOptions)
	if err != nil {
		return nil, err
	}
	return decodeWorkouts(ctx, cursor)
}

func (r *mongoWorkoutRepository) ListFinishedSince(ctx context.Context, ownerID primitive.ObjectID, since domain.Date) ([]domain.Workout, error) {
	query := bson.M{
		"ownerId": ownerID,
		"endTime": bson.M{"$ne": nil}, // Finished workouts only
		"date":    bson.M{"$gte": since},
	}
	findOptions := options.Find().SetSort(bson.D{{Key: "date", Value: -1}, {Key: "endTime", Value: -1}})

	cursor, err := r.collection.Find(ctx, query, findOptions)
	if err != nil {
		return nil, err
	}
	return decodeWorkouts(ctx, cursor)
}

// Update overwrites the mutable fields of a workout. Ownership is part of the filter.
func (r *mongoWorkoutRepository) Update(ctx context.Context, workout *domain.Workout) error {
	if workout.ID == primitive.NilObjectID {
		return errors.New("workout ID is required for update")
	}
	if workout.Exercises != nil {
		if err := domain.ValidateTrackedExercises(workout.Exercises); err != nil {
			return err
		}
	}

	workout.UpdatedAt = time.Now().UTC()
	filter := bson.M{"_id": workout.ID, "ownerId": workout.OwnerID}
	update := bson.M{
		"$set": bson.M{
			"date":       workout.Date,
			"templateId": workout.TemplateID,
			"startTime":  workout.StartTime,
			"endTime":    workout.EndTime,
			"exercises":  workout.Exercises,
			"updatedAt":  workout.UpdatedAt,
		},
	}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *mongoWorkoutRepository) Delete(ctx context.Context, id, ownerID primitive.ObjectID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id, "ownerId": ownerID})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *mongoWorkoutRepository) ClearTemplate(ctx context.Context, ownerID, templateID primitive.ObjectID) (int64, error) {
	result, err := r.collection.UpdateMany(ctx,
		bson.M{"ownerId": ownerID, "templateId": templateID},
		bson.M{"$set": bson.M{"templateId": nil, "updatedAt": time.Now().UTC()}},
	)
	if err != nil {
		return 0, err
	}
	return result.ModifiedCount, nil
}

func validateNewWorkout(workout *domain.Workout) error {
	if workout.OwnerID == primitive.NilObjectID {
		return errors.New("workout owner ID is required")
	}
	if workout.Date.IsZero() {
		return errors.New("workout date is required")
	}
	if workout.Exercises != nil {
		return domain.ValidateTrackedExercises(workout.Exercises)
	}
	return nil
}

// decodeWorkout decodes and validates a stored workout. Exercise documents
// written by older versions may not match the current shape.
func decodeWorkout(raw bson.Raw) (*domain.Workout, error) {
	var workout domain.Workout
	if err := bson.Unmarshal(raw, &workout); err != nil {
		return nil, fmt.Errorf("%w: workout: %v", repository.ErrMalformedRecord, err)
	}
	if workout.Exercises != nil {
		if err := domain.ValidateTrackedExercises(workout.Exercises); err != nil {
			return nil, fmt.Errorf("%w: workout %s: %v", repository.ErrMalformedRecord, workout.ID.Hex(), err)
		}
	}
	if err := workout.ValidateTimes(); err != nil {
		return nil, fmt.Errorf("%w: workout %s: %v", repository.ErrMalformedRecord, workout.ID.Hex(), err)
	}
	return &workout, nil
}

func decodeWorkouts(ctx context.Context, cursor *mongo.Cursor) ([]domain.Workout, error) {
	defer cursor.Close(ctx)

	workouts := []domain.Workout{}
	for cursor.Next(ctx) {
		workout, err := decodeWorkout(cursor.Current)
		if err != nil {
			return nil, err
		}
		workouts = append(workouts, *workout)
	}
	if err := cursor.Err(); err != nil {
		return nil, err
	}
	return workouts, nil
}

// EnsureWorkoutIndexes creates necessary indexes for the workouts collection.
func EnsureWorkoutIndexes(ctx context.Context, collection *mongo.Collection) error {
	return createIndexes(ctx, collection, []mongo.IndexModel{
		{
			// listing by day and the history window
			Keys: bson.D{{Key: "ownerId", Value: 1}, {Key: "date", Value: 1}},
		},
		{
			Keys:    bson.D{{Key: "ownerId", Value: 1}, {Key: "templateId", Value: 1}},
			Options: options.Index().SetSparse(true),
		},
	})
}
