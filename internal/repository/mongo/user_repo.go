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

const userCollectionName = "users"

// mongoUserRepository implements the repository.UserRepository interface using MongoDB.
type mongoUserRepository struct {
	collection *mongo.Collection
}

// NewMongoUserRepository creates a new instance of mongoUserRepository.
func NewMongoUserRepository(db *mongo.Database) repository.UserRepository {
	return &mongoUserRepository{
		collection: db.Collection(userCollectionName),
	}
}

// GetOrCreateBySubject upserts the user keyed by the identity subject. The
// email is refreshed on every call; the id and createdAt are set only on insert.
func (r *mongoUserRepository) GetOrCreateBySubject(ctx context.Context, subject, email string) (*domain.User, error) {
	if subject == "" {
		return nil, errors.New("identity subject is required")
	}

	now := time.Now().UTC()
	filter := bson.M{"subject": subject}
	update := bson.M{
		"$set": bson.M{
			"email":     email,
			"updatedAt": now,
		},
		"$setOnInsert": bson.M{
			"_id":       primitive.NewObjectID(),
			"subject":   subject,
			"createdAt": now,
		},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var user domain.User
	err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&user)
	if err != nil {
		// Two first requests racing on the unique index: the loser reads the winner's row.
		if mongo.IsDuplicateKeyError(err) {
			return r.getBySubject(ctx, subject)
		}
		return nil, err
	}
	return &user, nil
}

func (r *mongoUserRepository) getBySubject(ctx context.Context, subject string) (*domain.User, error) {
	var user domain.User
	err := r.collection.FindOne(ctx, bson.M{"subject": subject}).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

// GetByID retrieves a user by their ObjectID.
func (r *mongoUserRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.User, error) {
	var user domain.User
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

// onboardingProjection reads the raw onboarding payload so a malformed value
// does not prevent the user document itself from decoding.
type onboardingProjection struct {
	OnboardingData bson.RawValue `bson:"onboardingData"`
}

func (r *mongoUserRepository) GetOnboardingState(ctx context.Context, userID primitive.ObjectID) (*domain.OnboardingState, error) {
	var doc onboardingProjection
	opts := options.FindOne().SetProjection(bson.M{"onboardingData": 1})
	err := r.collection.FindOne(ctx, bson.M{"_id": userID}, opts).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	switch doc.OnboardingData.Type {
	case 0, bson.TypeNull, bson.TypeUndefined:
		return nil, nil
	case bson.TypeEmbeddedDocument:
	default:
		return nil, fmt.Errorf("%w: onboarding data has BSON type %s", repository.ErrMalformedRecord, doc.OnboardingData.Type)
	}

	var state domain.OnboardingState
	if err := doc.OnboardingData.Unmarshal(&state); err != nil {
		return nil, fmt.Errorf("%w: onboarding data: %v", repository.ErrMalformedRecord, err)
	}
	return &state, nil
}

func (r *mongoUserRepository) SaveOnboardingState(ctx context.Context, userID primitive.ObjectID, state domain.OnboardingState) error {
	update := bson.M{
		"$set": bson.M{
			"onboardingData": state,
			"updatedAt":      time.Now().UTC(),
		},
	}
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": userID}, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// EnsureUserIndexes creates the unique subject index used for get-or-create.
func EnsureUserIndexes(ctx context.Context, collection *mongo.Collection) error {
	return createIndexes(ctx, collection, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "subject", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	})
}
