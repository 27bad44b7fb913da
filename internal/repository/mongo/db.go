package mongo

import (
	"context"
	"ptcoach/pt-server/internal/repository"
	"time"

	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Default connection timeout
const defaultTimeout = 10 * time.Second

// ConnectDB establishes a connection to MongoDB using the provided URI.
// It returns the mongo.Client which can be used to access databases and collections.
func ConnectDB(uri string) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel() // Release the timer even when Connect fails

	// Connect using options parsed from the URI
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}

	// Ping the primary: Connect succeeds even when the server is unreachable.
	pingCtx, pingCancel := context.WithTimeout(context.Background(), 5*time.Second) // Shorter timeout for ping
	defer pingCancel()

	if err = client.Ping(pingCtx, readpref.Primary()); err != nil {
		disconnectCtx, disconnectCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer disconnectCancel()
		_ = client.Disconnect(disconnectCtx) // Ping error is the one worth returning
		return nil, err
	}

	// Connection verified
	return client, nil
}

// DisconnectDB gracefully disconnects the MongoDB client.
func DisconnectDB(client *mongo.Client) error {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()
	return client.Disconnect(ctx)
}

// EnsureIndexes creates the indexes of every collection used by the service.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	ensure := []struct {
		collection string
		fn         func(context.Context, *mongo.Collection) error
	}{
		{userCollectionName, EnsureUserIndexes},
		{templateCollectionName, EnsureTemplateIndexes},
		{trainingPlanCollectionName, EnsureTrainingPlanIndexes},
		{workoutCollectionName, EnsureWorkoutIndexes},
	}
	for _, e := range ensure {
		if err := e.fn(ctx, db.Collection(e.collection)); err != nil {
			return err
		}
		log.Debugf("indexes ensured for collection %s", e.collection)
	}
	return nil
}

// mongoTransactor implements repository.Transactor with client sessions.
// Multi-document transactions need a replica set, so they can be switched off.
type mongoTransactor struct {
	client  *mongo.Client
	enabled bool // false on standalone servers: fn runs without a session
}

func NewTransactor(client *mongo.Client, enabled bool) repository.Transactor {
	return &mongoTransactor{client: client, enabled: enabled}
}

func (t *mongoTransactor) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if !t.enabled {
		return fn(ctx)
	}

	// Start a session; WithTransaction retries fn on transient transaction errors
	session, err := t.client.StartSession()
	if err != nil {
		return err
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc) // sc carries the session, so repository calls join the transaction
	})
	return err
}

// createIndexes creates the given indexes; existing identical indexes are a no-op.
func createIndexes(ctx context.Context, collection *mongo.Collection, indexes []mongo.IndexModel) error {
	if _, err := collection.Indexes().CreateMany(ctx, indexes); err != nil {
		log.Warnf("failed to create indexes for collection %s: %s", collection.Name(), err)
		return err
	}
	return nil
}
