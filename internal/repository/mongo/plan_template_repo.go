package mongo

import (
	"context"
	"errors"
	"time"

	"github.com/PauloVieira29/Fitness/internal/domain"
	"github.com/PauloVieira29/Fitness/internal/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const planTemplateCollectionName = "plan_templates"

// mongoPlanTemplateRepository implements repository.PlanTemplateRepository
type mongoPlanTemplateRepository struct {
	collection *mongo.Collection
}

func NewMongoPlanTemplateRepository(db *mongo.Database) repository.PlanTemplateRepository {
	return &mongoPlanTemplateRepository{
		collection: db.Collection(planTemplateCollectionName),
	}
}

func (r *mongoPlanTemplateRepository) Create(ctx context.Context, tpl *domain.PlanTemplate) (primitive.ObjectID, error) {
	if tpl.Trainer == primitive.NilObjectID || tpl.Name == "" {
		return primitive.NilObjectID, errors.New("template requires trainer and name")
	}
	tpl.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	tpl.CreatedAt = now
	tpl.UpdatedAt = now

	result, err := r.collection.InsertOne(ctx, tpl)
	if err != nil {
		return primitive.NilObjectID, err
	}
	return insertedObjectID(result.InsertedID)
}

func (r *mongoPlanTemplateRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.PlanTemplate, error) {
	var tpl domain.PlanTemplate
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&tpl); err != nil {
		return nil, mapFindErr(err)
	}
	return &tpl, nil
}

// GetByTrainerID returns the trainer's templates, newest first.
func (r *mongoPlanTemplateRepository) GetByTrainerID(ctx context.Context, trainerID primitive.ObjectID) ([]domain.PlanTemplate, error) {
	findOptions := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := r.collection.Find(ctx, bson.M{"trainer": trainerID}, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	templates := []domain.PlanTemplate{}
	if err = cursor.All(ctx, &templates); err != nil {
		return nil, err
	}
	return templates, cursor.Err()
}

// Update rewrites the editable fields; the filter includes the trainer so
// a template can only be changed by its owner.
func (r *mongoPlanTemplateRepository) Update(ctx context.Context, tpl *domain.PlanTemplate) error {
	filter := bson.M{"_id": tpl.ID, "trainer": tpl.Trainer}
	tpl.UpdatedAt = time.Now().UTC()
	update := bson.M{"$set": bson.M{
		"name":            tpl.Name,
		"weeks":           tpl.Weeks,
		"sessionsPerWeek": tpl.SessionsPerWeek,
		"days":            tpl.Days,
		"notes":           tpl.Notes,
		"updatedAt":       tpl.UpdatedAt,
	}}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *mongoPlanTemplateRepository) Delete(ctx context.Context, id, trainerID primitive.ObjectID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id, "trainer": trainerID})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func EnsurePlanTemplateIndexes(ctx context.Context, collection *mongo.Collection) error {
	_, err := collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "trainer", Value: 1}, {Key: "createdAt", Value: -1}},
	})
	return err
}
