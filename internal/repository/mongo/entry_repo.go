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

const entryCollectionName = "entries"

// mongoEntryRepository implements repository.EntryRepository
type mongoEntryRepository struct {
	collection *mongo.Collection
}

func NewMongoEntryRepository(db *mongo.Database) repository.EntryRepository {
	return &mongoEntryRepository{
		collection: db.Collection(entryCollectionName),
	}
}

// Create inserts an entry; a second entry for the same client and day
// yields repository.ErrDuplicate.
func (r *mongoEntryRepository) Create(ctx context.Context, entry *domain.Entry) (primitive.ObjectID, error) {
	entry.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	entry.CreatedAt = now
	entry.UpdatedAt = now

	result, err := r.collection.InsertOne(ctx, entry)
	if err != nil {
		return primitive.NilObjectID, mapWriteErr(err)
	}
	return insertedObjectID(result.InsertedID)
}

func (r *mongoEntryRepository) GetByClientAndDate(ctx context.Context, clientID primitive.ObjectID, date time.Time) (*domain.Entry, error) {
	var entry domain.Entry
	if err := r.collection.FindOne(ctx, bson.M{"client": clientID, "date": date}).Decode(&entry); err != nil {
		return nil, mapFindErr(err)
	}
	return &entry, nil
}

func (r *mongoEntryRepository) Update(ctx context.Context, entry *domain.Entry, wasCompleted bool) (bool, error) {
	entry.UpdatedAt = time.Now().UTC()
	update := bson.M{"$set": bson.M{
		"completed":      entry.Completed,
		"completedAt":    entry.CompletedAt,
		"reason":         entry.Reason,
		"proofMedia":     entry.ProofMedia,
		"caloriesBurned": entry.CaloriesBurned,
		"notes":          entry.Notes,
		"updatedAt":      entry.UpdatedAt,
	}}

	filter := bson.M{"_id": entry.ID, "completed": wasCompleted}
	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, err
	}
	return result.MatchedCount == 1, nil
}

func (r *mongoEntryRepository) Find(ctx context.Context, f repository.EntryFilter) ([]domain.Entry, error) {
	filter := bson.M{"client": f.ClientID}
	if f.CompletedOnly {
		filter["completed"] = true
	}
	if f.From != nil || f.To != nil {
		dateRange := bson.M{}
		if f.From != nil {
			dateRange["$gte"] = *f.From
		}
		if f.To != nil {
			dateRange["$lte"] = *f.To
		}
		filter["date"] = dateRange
	}
	order := -1
	if f.Ascending {
		order = 1
	}

	cursor, err := r.collection.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "date", Value: order}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	entries := []domain.Entry{}
	if err = cursor.All(ctx, &entries); err != nil {
		return nil, err
	}
	return entries, cursor.Err()
}

func EnsureEntryIndexes(ctx context.Context, collection *mongo.Collection) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "client", Value: 1}, {Key: "date", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "client", Value: 1}, {Key: "completedAt", Value: -1}},
		},
	}
	_, err := collection.Indexes().CreateMany(ctx, indexes)
	return err
}
