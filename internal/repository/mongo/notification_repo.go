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

const notificationCollectionName = "notifications"

// mongoNotificationRepository implements repository.NotificationRepository
type mongoNotificationRepository struct {
	collection *mongo.Collection
}

func NewMongoNotificationRepository(db *mongo.Database) repository.NotificationRepository {
	return &mongoNotificationRepository{
		collection: db.Collection(notificationCollectionName),
	}
}

func (r *mongoNotificationRepository) Create(ctx context.Context, n *domain.Notification) (primitive.ObjectID, error) {
	n.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	n.CreatedAt = now
	n.UpdatedAt = now

	result, err := r.collection.InsertOne(ctx, n)
	if err != nil {
		return primitive.NilObjectID, err
	}
	return insertedObjectID(result.InsertedID)
}

func (r *mongoNotificationRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Notification, error) {
	var n domain.Notification
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&n); err != nil {
		return nil, mapFindErr(err)
	}
	return &n, nil
}

func (r *mongoNotificationRepository) ListRecent(ctx context.Context, recipient primitive.ObjectID, limit int) ([]domain.Notification, error) {
	findOptions := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}).
		SetLimit(int64(limit))
	cursor, err := r.collection.Find(ctx, bson.M{"recipient": recipient}, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	notifications := []domain.Notification{}
	if err = cursor.All(ctx, &notifications); err != nil {
		return nil, err
	}
	return notifications, cursor.Err()
}

func (r *mongoNotificationRepository) MarkRead(ctx context.Context, id primitive.ObjectID) error {
	update := bson.M{"$set": bson.M{"isRead": true, "updatedAt": time.Now().UTC()}}
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *mongoNotificationRepository) MarkReadByKind(ctx context.Context, recipient primitive.ObjectID, kind domain.NotificationKind, relatedID *primitive.ObjectID) (int64, error) {
	filter := bson.M{"recipient": recipient, "type": kind, "isRead": false}
	if relatedID != nil {
		filter["relatedId"] = *relatedID
	}
	update := bson.M{"$set": bson.M{"isRead": true, "updatedAt": time.Now().UTC()}}
	result, err := r.collection.UpdateMany(ctx, filter, update)
	if err != nil {
		return 0, err
	}
	return result.ModifiedCount, nil
}

func (r *mongoNotificationRepository) ExistsSince(ctx context.Context, recipient primitive.ObjectID, kind domain.NotificationKind, since time.Time) (bool, error) {
	filter := bson.M{"recipient": recipient, "type": kind, "createdAt": bson.M{"$gte": since}}
	n, err := r.collection.CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func EnsureNotificationIndexes(ctx context.Context, collection *mongo.Collection) error {
	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "recipient", Value: 1}, {Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "recipient", Value: 1}, {Key: "type", Value: 1}, {Key: "isRead", Value: 1}}},
	}
	_, err := collection.Indexes().CreateMany(ctx, indexes)
	return err
}
