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

const planCollectionName = "plans"

// mongoPlanRepository implements repository.PlanRepository
type mongoPlanRepository struct {
	collection *mongo.Collection
}

func NewMongoPlanRepository(db *mongo.Database) repository.PlanRepository {
	return &mongoPlanRepository{
		collection: db.Collection(planCollectionName),
	}
}

// Create inserts a plan. The unique client index turns a concurrent
// second insert into repository.ErrDuplicate.
func (r *mongoPlanRepository) Create(ctx context.Context, plan *domain.Plan) (primitive.ObjectID, error) {
	plan.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	plan.CreatedAt = now
	plan.UpdatedAt = now

	result, err := r.collection.InsertOne(ctx, plan)
	if err != nil {
		return primitive.NilObjectID, mapWriteErr(err)
	}
	return insertedObjectID(result.InsertedID)
}

func (r *mongoPlanRepository) GetByClient(ctx context.Context, clientID primitive.ObjectID) (*domain.Plan, error) {
	var plan domain.Plan
	if err := r.collection.FindOne(ctx, bson.M{"client": clientID}).Decode(&plan); err != nil {
		return nil, mapFindErr(err)
	}
	return &plan, nil
}

func (r *mongoPlanRepository) DeleteByClient(ctx context.Context, clientID primitive.ObjectID) (int64, error) {
	result, err := r.collection.DeleteMany(ctx, bson.M{"client": clientID})
	if err != nil {
		return 0, err
	}
	return result.DeletedCount, nil
}

func (r *mongoPlanRepository) CountByTrainer(ctx context.Context, trainerID primitive.ObjectID) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{"trainer": trainerID})
}

func (r *mongoPlanRepository) ListByTrainer(ctx context.Context, trainerID primitive.ObjectID, clientID *primitive.ObjectID) ([]domain.Plan, error) {
	filter := bson.M{"trainer": trainerID}
	if clientID != nil {
		filter["client"] = *clientID
	}
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	plans := []domain.Plan{}
	if err := cursor.All(ctx, &plans); err != nil {
		return nil, err
	}
	return plans, nil
}

func EnsurePlanIndexes(ctx context.Context, collection *mongo.Collection) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "client", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "trainer", Value: 1}},
		},
	}
	_, err := collection.Indexes().CreateMany(ctx, indexes)
	return err
}
