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

const templateCollectionName = "templates"

// mongoTemplateRepository implements repository.TemplateRepository
type mongoTemplateRepository struct {
	collection *mongo.Collection
}

// NewMongoTemplateRepository creates a new Template repository backed by MongoDB.
func NewMongoTemplateRepository(db *mongo.Database) repository.TemplateRepository {
	return &mongoTemplateRepository{
		collection: db.Collection(templateCollectionName),
	}
}

// Create inserts a new template into the database.
func (r *mongoTemplateRepository) Create(ctx context.Context, template *domain.Template) (primitive.ObjectID, error) {
	if template.OwnerID == primitive.NilObjectID {
		return primitive.NilObjectID, errors.New("template owner ID is required")
	}
	if err := template.Validate(); err != nil {
		return primitive.NilObjectID, err
	}

	template.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	template.CreatedAt = now
	template.UpdatedAt = now

	result, err := r.collection.InsertOne(ctx, template)
	if err != nil {
		return primitive.NilObjectID, err
	}

	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted ID")
	}
	return insertedID, nil
}

// GetByID retrieves a template owned by ownerID.
func (r *mongoTemplateRepository) GetByID(ctx context.Context, id, ownerID primitive.ObjectID) (*domain.Template, error) {
	raw, err := r.collection.FindOne(ctx, bson.M{"_id": id, "ownerId": ownerID}).Raw()
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return decodeTemplate(raw)
}

// GetByIDs returns the owner's templates among ids, in the order of ids.
// Ids that do not resolve are skipped.
func (r *mongoTemplateRepository) GetByIDs(ctx context.Context, ids []primitive.ObjectID, ownerID primitive.ObjectID) ([]domain.Template, error) {
	if len(ids) == 0 {
		return []domain.Template{}, nil
	}
	cursor, err := r.collection.Find(ctx, bson.M{"_id": bson.M{"$in": ids}, "ownerId": ownerID})
	if err != nil {
		return nil, err
	}
	found, err := decodeTemplates(ctx, cursor)
	if err != nil {
		return nil, err
	}

	byID := make(map[primitive.ObjectID]domain.Template, len(found))
	for _, t := range found {
		byID[t.ID] = t
	}
	ordered := make([]domain.Template, 0, len(ids))
	for _, id := range ids {
		if t, ok := byID[id]; ok {
			ordered = append(ordered, t)
		}
	}
	return ordered, nil
}

// List returns a page of the owner's templates, oldest first.
func (r *mongoTemplateRepository) List(ctx context.Context, ownerID primitive.ObjectID, page repository.Page) ([]domain.Template, error) {
	findOptions := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}}).
		SetSkip(page.Skip).
		SetLimit(page.Limit)

	cursor, err := r.collection.Find(ctx, bson.M{"ownerId": ownerID}, findOptions)
	if err != nil {
		return nil, err
	}
	return decodeTemplates(ctx, cursor)
}

// Delete removes a template, filtered by owner.
func (r *mongoTemplateRepository) Delete(ctx context.Context, id, ownerID primitive.ObjectID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id, "ownerId": ownerID})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func decodeTemplate(raw bson.Raw) (*domain.Template, error) {
	var template domain.Template
	if err := bson.Unmarshal(raw, &template); err != nil {
		return nil, fmt.Errorf("%w: template: %v", repository.ErrMalformedRecord, err)
	}
	if err := domain.ValidateTemplateExercises(template.Exercises); err != nil {
		return nil, fmt.Errorf("%w: template %s: %v", repository.ErrMalformedRecord, template.ID.Hex(), err)
	}
	return &template, nil
}

func decodeTemplates(ctx context.Context, cursor *mongo.Cursor) ([]domain.Template, error) {
	defer cursor.Close(ctx)

	templates := []domain.Template{}
	for cursor.Next(ctx) {
		template, err := decodeTemplate(cursor.Current)
		if err != nil {
			return nil, err
		}
		templates = append(templates, *template)
	}
	if err := cursor.Err(); err != nil {
		return nil, err
	}
	return templates, nil
}

// EnsureTemplateIndexes creates necessary indexes for the templates collection.
func EnsureTemplateIndexes(ctx context.Context, collection *mongo.Collection) error {
	return createIndexes(ctx, collection, []mongo.IndexModel{
		{Keys: bson.D{{Key: "ownerId", Value: 1}, {Key: "createdAt", Value: 1}}},
	})
}
