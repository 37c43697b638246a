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

const messageCollectionName = "messages"

// mongoMessageRepository implements repository.MessageRepository
type mongoMessageRepository struct {
	collection *mongo.Collection
}

func NewMongoMessageRepository(db *mongo.Database) repository.MessageRepository {
	return &mongoMessageRepository{
		collection: db.Collection(messageCollectionName),
	}
}

func (r *mongoMessageRepository) Create(ctx context.Context, msg *domain.Message) (primitive.ObjectID, error) {
	msg.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	msg.CreatedAt = now
	msg.UpdatedAt = now
	if msg.DeletedFor == nil {
		msg.DeletedFor = []primitive.ObjectID{}
	}

	result, err := r.collection.InsertOne(ctx, msg)
	if err != nil {
		return primitive.NilObjectID, err
	}
	return insertedObjectID(result.InsertedID)
}

func pairFilter(a, b primitive.ObjectID) bson.M {
	return bson.M{"$or": bson.A{
		bson.M{"from": a, "to": b},
		bson.M{"from": b, "to": a},
	}}
}

func (r *mongoMessageRepository) Thread(ctx context.Context, viewer, partner primitive.ObjectID) ([]domain.Message, error) {
	filter := pairFilter(viewer, partner)
	filter["deletedFor"] = bson.M{"$ne": viewer}

	cursor, err := r.collection.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	messages := []domain.Message{}
	if err = cursor.All(ctx, &messages); err != nil {
		return nil, err
	}
	return messages, cursor.Err()
}

// Conversations groups the viewer's visible messages by partner and keeps
// the newest message of each group.
func (r *mongoMessageRepository) Conversations(ctx context.Context, viewer primitive.ObjectID) ([]domain.Conversation, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{
			"$or":        bson.A{bson.M{"from": viewer}, bson.M{"to": viewer}},
			"deletedFor": bson.M{"$ne": viewer},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}}},
		{{Key: "$group", Value: bson.M{
			"_id": bson.M{"$cond": bson.A{
				bson.M{"$eq": bson.A{"$from", viewer}}, "$to", "$from",
			}},
			"lastMessage": bson.M{"$first": "$$ROOT"},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "lastMessage.createdAt", Value: -1}, {Key: "lastMessage._id", Value: -1}}}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var rows []struct {
		Partner     primitive.ObjectID `bson:"_id"`
		LastMessage domain.Message     `bson:"lastMessage"`
	}
	if err = cursor.All(ctx, &rows); err != nil {
		return nil, err
	}

	conversations := make([]domain.Conversation, 0, len(rows))
	for _, row := range rows {
		conversations = append(conversations, domain.Conversation{Partner: row.Partner, LastMessage: row.LastMessage})
	}
	return conversations, cursor.Err()
}

func (r *mongoMessageRepository) MarkReadFrom(ctx context.Context, sender, recipient primitive.ObjectID) (int64, error) {
	filter := bson.M{"from": sender, "to": recipient, "read": false}
	update := bson.M{"$set": bson.M{"read": true, "updatedAt": time.Now().UTC()}}
	result, err := r.collection.UpdateMany(ctx, filter, update)
	if err != nil {
		return 0, err
	}
	return result.ModifiedCount, nil
}

// HideConversation adds viewer to deletedFor with set-union semantics.
func (r *mongoMessageRepository) HideConversation(ctx context.Context, viewer, partner primitive.ObjectID) (int64, error) {
	update := bson.M{"$addToSet": bson.M{"deletedFor": viewer}}
	result, err := r.collection.UpdateMany(ctx, pairFilter(viewer, partner), update)
	if err != nil {
		return 0, err
	}
	return result.ModifiedCount, nil
}

func (r *mongoMessageRepository) UnreadBySender(ctx context.Context, recipient primitive.ObjectID) ([]domain.UnreadCount, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"to": recipient, "read": false, "deletedFor": bson.M{"$ne": recipient}}}},
		{{Key: "$group", Value: bson.M{"_id": "$from", "count": bson.M{"$sum": 1}}}},
	}
	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	counts := []domain.UnreadCount{}
	if err = cursor.All(ctx, &counts); err != nil {
		return nil, err
	}
	return counts, cursor.Err()
}

func EnsureMessageIndexes(ctx context.Context, collection *mongo.Collection) error {
	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "from", Value: 1}, {Key: "to", Value: 1}, {Key: "createdAt", Value: 1}}},
		{Keys: bson.D{{Key: "to", Value: 1}, {Key: "read", Value: 1}}},
	}
	_, err := collection.Indexes().CreateMany(ctx, indexes)
	return err
}
