package mongo

import (
	"context"
	"errors"
	"time"

	"github.com/PauloVieira29/Fitness/internal/logging"
	"github.com/PauloVieira29/Fitness/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const defaultTimeout = 10 * time.Second

// ConnectDB establishes a connection to MongoDB and pings the primary.
func ConnectDB(uri string) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}

	pingCtx, pingCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer pingCancel()

	if err = client.Ping(pingCtx, readpref.Primary()); err != nil {
		disconnectCtx, disconnectCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer disconnectCancel()
		_ = client.Disconnect(disconnectCtx)
		return nil, err
	}
	return client, nil
}

// DisconnectDB gracefully disconnects the MongoDB client.
func DisconnectDB(client *mongo.Client) error {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()
	return client.Disconnect(ctx)
}

// EnsureIndexes creates the indexes of every collection. Failures are
// logged per collection and do not stop the others.
func EnsureIndexes(ctx context.Context, db *mongo.Database) {
	steps := []struct {
		collection string
		ensure     func(context.Context, *mongo.Collection) error
	}{
		{userCollectionName, EnsureUserIndexes},
		{trainerRequestCollectionName, EnsureTrainerRequestIndexes},
		{planCollectionName, EnsurePlanIndexes},
		{planTemplateCollectionName, EnsurePlanTemplateIndexes},
		{entryCollectionName, EnsureEntryIndexes},
		{uploadCollectionName, EnsureUploadIndexes},
		{messageCollectionName, EnsureMessageIndexes},
		{notificationCollectionName, EnsureNotificationIndexes},
		{specialtyCollectionName, EnsureSpecialtyIndexes},
	}
	for _, s := range steps {
		if err := s.ensure(ctx, db.Collection(s.collection)); err != nil {
			logging.Warn().Err(err).Str("collection", s.collection).Msg("Failed to create indexes")
		}
	}
}

// insertedObjectID converts the InsertedID of an insert result.
func insertedObjectID(id interface{}) (primitive.ObjectID, error) {
	oid, ok := id.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted ID")
	}
	return oid, nil
}

// mapFindErr maps mongo.ErrNoDocuments to repository.ErrNotFound.
func mapFindErr(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return repository.ErrNotFound
	}
	return err
}

// mapWriteErr maps duplicate key errors to repository.ErrDuplicate.
func mapWriteErr(err error) error {
	if mongo.IsDuplicateKeyError(err) {
		return repository.ErrDuplicate
	}
	return err
}
