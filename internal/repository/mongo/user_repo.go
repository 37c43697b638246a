package mongo

import (
	"context"
	"regexp"
	"time"

	"github.com/PauloVieira29/Fitness/internal/domain"
	"github.com/PauloVieira29/Fitness/internal/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const userCollectionName = "users"

// mongoUserRepository implements the repository.UserRepository interface using MongoDB.
type mongoUserRepository struct {
	collection *mongo.Collection
}

// NewMongoUserRepository creates a new instance of mongoUserRepository.
func NewMongoUserRepository(db *mongo.Database) repository.UserRepository {
	return &mongoUserRepository{
		collection: db.Collection(userCollectionName),
	}
}

// Create inserts a new user. A taken username yields repository.ErrDuplicate.
func (r *mongoUserRepository) Create(ctx context.Context, user *domain.User) (primitive.ObjectID, error) {
	user.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now

	result, err := r.collection.InsertOne(ctx, user)
	if err != nil {
		return primitive.NilObjectID, mapWriteErr(err)
	}
	return insertedObjectID(result.InsertedID)
}

func (r *mongoUserRepository) findOne(ctx context.Context, filter bson.M, opts ...*options.FindOneOptions) (*domain.User, error) {
	var user domain.User
	if err := r.collection.FindOne(ctx, filter, opts...).Decode(&user); err != nil {
		return nil, mapFindErr(err)
	}
	return &user, nil
}

func (r *mongoUserRepository) find(ctx context.Context, filter bson.M, opts ...*options.FindOptions) ([]domain.User, error) {
	cursor, err := r.collection.Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	users := []domain.User{}
	if err = cursor.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, cursor.Err()
}

func (r *mongoUserRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *mongoUserRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"username": username})
}

// Update sets the mutable fields of user. The profile counters are left
// alone; they change only through the Inc/Raise methods.
func (r *mongoUserRepository) Update(ctx context.Context, user *domain.User) error {
	p := user.Profile
	set := bson.M{
		"username":                 user.Username,
		"passwordHash":             user.PasswordHash,
		"role":                     user.Role,
		"isActive":                 user.IsActive,
		"validated":                user.Validated,
		"notificationSettings":     user.NotificationSettings,
		"profile.name":             p.Name,
		"profile.email":            p.Email,
		"profile.bio":              p.Bio,
		"profile.goal":             p.Goal,
		"profile.weight":           p.Weight,
		"profile.initialWeight":    p.InitialWeight,
		"profile.lastWeightUpdate": p.LastWeightUpdate,
		"profile.height":           p.Height,
		"profile.birthDate":        p.BirthDate,
		"profile.avatarUrl":        p.AvatarURL,
		"profile.weightLost":       p.WeightLost,
		"profile.specialties":      p.Specialties,
		"profile.weightHistory":    p.WeightHistory,
		"updatedAt":                time.Now().UTC(),
	}
	// trainerAssigned is written only by SetTrainer.
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": user.ID}, bson.M{"$set": set})
	if err != nil {
		return mapWriteErr(err)
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *mongoUserRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// List returns the newest users first.
func (r *mongoUserRepository) List(ctx context.Context, limit int) ([]domain.User, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}).SetLimit(int64(limit))
	return r.find(ctx, bson.M{}, opts)
}

// FindFirstByRole returns the oldest account holding role.
func (r *mongoUserRepository) FindFirstByRole(ctx context.Context, role domain.Role) (*domain.User, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "createdAt", Value: 1}})
	return r.findOne(ctx, bson.M{"role": role}, opts)
}

func trainerDirectoryFilter(query string) bson.M {
	filter := bson.M{"role": domain.RoleTrainer, "validated": true, "isActive": true}
	if query != "" {
		filter["profile.name"] = bson.M{"$regex": regexp.QuoteMeta(query), "$options": "i"}
	}
	return filter
}

func (r *mongoUserRepository) ListTrainers(ctx context.Context, f repository.TrainerFilter) ([]domain.User, int64, error) {
	filter := trainerDirectoryFilter(f.Query)
	total, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "profile.name", Value: 1}, {Key: "_id", Value: 1}}).
		SetSkip(int64((f.Page - 1) * f.Limit)).
		SetLimit(int64(f.Limit))
	trainers, err := r.find(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	return trainers, total, nil
}

func (r *mongoUserRepository) ListClientsOfTrainer(ctx context.Context, trainerID primitive.ObjectID) ([]domain.User, error) {
	opts := options.Find().SetSort(bson.D{{Key: "profile.name", Value: 1}})
	return r.find(ctx, bson.M{"role": domain.RoleClient, "trainerAssigned": trainerID}, opts)
}

func (r *mongoUserRepository) CountClientsOfTrainer(ctx context.Context, trainerID primitive.ObjectID) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{"role": domain.RoleClient, "trainerAssigned": trainerID})
}

func (r *mongoUserRepository) SetTrainer(ctx context.Context, clientID primitive.ObjectID, trainerID *primitive.ObjectID) error {
	filter := bson.M{"_id": clientID, "role": domain.RoleClient}
	update := bson.M{"$set": bson.M{"updatedAt": time.Now().UTC()}}
	if trainerID != nil {
		update["$set"].(bson.M)["trainerAssigned"] = *trainerID
	} else {
		update["$unset"] = bson.M{"trainerAssigned": ""}
	}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *mongoUserRepository) CountWithSpecialty(ctx context.Context, specialtyID primitive.ObjectID) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{"profile.specialties": specialtyID})
}

func (r *mongoUserRepository) updateCounter(ctx context.Context, id primitive.ObjectID, update bson.M) error {
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *mongoUserRepository) IncTotalPlans(ctx context.Context, trainerID primitive.ObjectID, delta int) error {
	return r.updateCounter(ctx, trainerID, bson.M{"$inc": bson.M{"profile.totalPlans": delta}})
}

// RaiseTotalPlans relies on $max so concurrent writers can only move the
// counter upward.
func (r *mongoUserRepository) RaiseTotalPlans(ctx context.Context, trainerID primitive.ObjectID, atLeast int) error {
	return r.updateCounter(ctx, trainerID, bson.M{"$max": bson.M{"profile.totalPlans": atLeast}})
}

func (r *mongoUserRepository) IncTotalWorkouts(ctx context.Context, clientID primitive.ObjectID, delta int) error {
	return r.updateCounter(ctx, clientID, bson.M{"$inc": bson.M{"profile.totalWorkouts": delta}})
}

// EnsureUserIndexes creates necessary indexes for the users collection.
func EnsureUserIndexes(ctx context.Context, collection *mongo.Collection) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "username", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "role", Value: 1}},
		},
		{
			Keys:    bson.D{{Key: "trainerAssigned", Value: 1}},
			Options: options.Index().SetSparse(true),
		},
		{
			Keys: bson.D{{Key: "profile.specialties", Value: 1}},
		},
	}
	_, err := collection.Indexes().CreateMany(ctx, indexes)
	return err
}
