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

const specialtyCollectionName = "specialties"

// caseInsensitive compares strings ignoring case (and accents for en).
var caseInsensitive = &options.Collation{Locale: "en", Strength: 2}

// mongoSpecialtyRepository implements repository.SpecialtyRepository
type mongoSpecialtyRepository struct {
	collection *mongo.Collection
}

func NewMongoSpecialtyRepository(db *mongo.Database) repository.SpecialtyRepository {
	return &mongoSpecialtyRepository{
		collection: db.Collection(specialtyCollectionName),
	}
}

func (r *mongoSpecialtyRepository) Create(ctx context.Context, s *domain.Specialty) (primitive.ObjectID, error) {
	s.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	s.CreatedAt = now
	s.UpdatedAt = now

	result, err := r.collection.InsertOne(ctx, s)
	if err != nil {
		return primitive.NilObjectID, mapWriteErr(err)
	}
	return insertedObjectID(result.InsertedID)
}

func (r *mongoSpecialtyRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Specialty, error) {
	var s domain.Specialty
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&s); err != nil {
		return nil, mapFindErr(err)
	}
	return &s, nil
}

func (r *mongoSpecialtyRepository) GetByName(ctx context.Context, name string) (*domain.Specialty, error) {
	var s domain.Specialty
	opts := options.FindOne().SetCollation(caseInsensitive)
	if err := r.collection.FindOne(ctx, bson.M{"name": name}, opts).Decode(&s); err != nil {
		return nil, mapFindErr(err)
	}
	return &s, nil
}

func (r *mongoSpecialtyRepository) List(ctx context.Context, activeOnly bool) ([]domain.Specialty, error) {
	filter := bson.M{}
	if activeOnly {
		filter["active"] = true
	}
	findOptions := options.Find().SetSort(bson.D{{Key: "name", Value: 1}}).SetCollation(caseInsensitive)
	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	specialties := []domain.Specialty{}
	if err = cursor.All(ctx, &specialties); err != nil {
		return nil, err
	}
	return specialties, cursor.Err()
}

func (r *mongoSpecialtyRepository) Update(ctx context.Context, s *domain.Specialty) error {
	s.UpdatedAt = time.Now().UTC()
	update := bson.M{"$set": bson.M{
		"name":        s.Name,
		"slug":        s.Slug,
		"description": s.Description,
		"icon":        s.Icon,
		"active":      s.Active,
		"updatedAt":   s.UpdatedAt,
	}}
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": s.ID}, update)
	if err != nil {
		return mapWriteErr(err)
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *mongoSpecialtyRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func EnsureSpecialtyIndexes(ctx context.Context, collection *mongo.Collection) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "name", Value: 1}},
			Options: options.Index().SetUnique(true).SetCollation(caseInsensitive),
		},
		{
			Keys: bson.D{{Key: "slug", Value: 1}},
		},
	}
	_, err := collection.Indexes().CreateMany(ctx, indexes)
	return err
}
