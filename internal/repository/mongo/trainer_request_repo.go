package mongo

import (
	"context"
	"time"

	"github.com/PauloVieira29/Fitness/internal/domain"
	"github.com/PauloVieira29/Fitness/internal/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const trainerRequestCollectionName = "trainer_change_requests"

// mongoTrainerRequestRepository implements repository.TrainerRequestRepository
type mongoTrainerRequestRepository struct {
	collection *mongo.Collection
}

func NewMongoTrainerRequestRepository(db *mongo.Database) repository.TrainerRequestRepository {
	return &mongoTrainerRequestRepository{
		collection: db.Collection(trainerRequestCollectionName),
	}
}

func (r *mongoTrainerRequestRepository) Create(ctx context.Context, req *domain.TrainerChangeRequest) (primitive.ObjectID, error) {
	req.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	req.CreatedAt = now
	req.UpdatedAt = now
	if req.Status == "" {
		req.Status = domain.RequestPending
	}

	result, err := r.collection.InsertOne(ctx, req)
	if err != nil {
		return primitive.NilObjectID, mapWriteErr(err)
	}
	return insertedObjectID(result.InsertedID)
}

func (r *mongoTrainerRequestRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.TrainerChangeRequest, error) {
	var req domain.TrainerChangeRequest
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&req); err != nil {
		return nil, mapFindErr(err)
	}
	return &req, nil
}

func (r *mongoTrainerRequestRepository) ExistsPending(ctx context.Context, clientID, newTrainerID primitive.ObjectID) (bool, error) {
	filter := bson.M{"client": clientID, "newTrainer": newTrainerID, "status": domain.RequestPending}
	n, err := r.collection.CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *mongoTrainerRequestRepository) list(ctx context.Context, filter bson.M) ([]domain.TrainerChangeRequest, error) {
	findOptions := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	requests := []domain.TrainerChangeRequest{}
	if err = cursor.All(ctx, &requests); err != nil {
		return nil, err
	}
	return requests, cursor.Err()
}

func (r *mongoTrainerRequestRepository) ListPendingForTrainer(ctx context.Context, trainerID primitive.ObjectID) ([]domain.TrainerChangeRequest, error) {
	return r.list(ctx, bson.M{"newTrainer": trainerID, "status": domain.RequestPending})
}

func (r *mongoTrainerRequestRepository) ListPending(ctx context.Context) ([]domain.TrainerChangeRequest, error) {
	return r.list(ctx, bson.M{"status": domain.RequestPending})
}

// Decide only matches pending requests, so a decided request cannot be
// decided again even by two concurrent callers.
func (r *mongoTrainerRequestRepository) Decide(ctx context.Context, id primitive.ObjectID, status domain.RequestStatus) error {
	filter := bson.M{"_id": id, "status": domain.RequestPending}
	update := bson.M{"$set": bson.M{"status": status, "updatedAt": time.Now().UTC()}}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func EnsureTrainerRequestIndexes(ctx context.Context, collection *mongo.Collection) error {
	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "newTrainer", Value: 1}, {Key: "status", Value: 1}}},
		{Keys: bson.D{{Key: "client", Value: 1}, {Key: "newTrainer", Value: 1}, {Key: "status", Value: 1}}},
	}
	_, err := collection.Indexes().CreateMany(ctx, indexes)
	return err
}
