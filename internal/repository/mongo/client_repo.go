package mongo

import (
	"adiestra/events-app/internal/domain"
	"adiestra/events-app/internal/repository"
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const clientCollectionName = "clients"

// mongoClientRepository implements the repository.ClientRepository interface using MongoDB.
type mongoClientRepository struct {
	collection *mongo.Collection
}

// NewMongoClientRepository creates a new instance of mongoClientRepository.
func NewMongoClientRepository(db *mongo.Database) repository.ClientRepository {
	return &mongoClientRepository{
		collection: db.Collection(clientCollectionName),
	}
}

// Create inserts a new client into the database.
func (r *mongoClientRepository) Create(ctx context.Context, client *domain.Client) (primitive.ObjectID, error) {
	if client.UserID == primitive.NilObjectID || client.Name == "" {
		return primitive.NilObjectID, errors.New("client user ID and name are required")
	}

	client.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	client.CreatedAt = now
	client.UpdatedAt = now

	result, err := r.collection.InsertOne(ctx, client)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return primitive.NilObjectID, repository.ErrDuplicateKey
		}
		return primitive.NilObjectID, err
	}

	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted ID")
	}
	return insertedID, nil
}

// GetByID retrieves a client by their MongoDB ObjectID.
func (r *mongoClientRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Client, error) {
	var client domain.Client
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&client)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &client, nil
}

// GetByUserID retrieves the client record owned by the given user account.
func (r *mongoClientRepository) GetByUserID(ctx context.Context, userID primitive.ObjectID) (*domain.Client, error) {
	var client domain.Client
	err := r.collection.FindOne(ctx, bson.M{"userId": userID}).Decode(&client)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &client, nil
}

// GetAll retrieves every client.
func (r *mongoClientRepository) GetAll(ctx context.Context) ([]domain.Client, error) {
	cursor, err := r.collection.Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var clients []domain.Client
	if err = cursor.All(ctx, &clients); err != nil {
		return nil, err
	}
	return clients, nil
}

// Update persists name changes. UserID and EnrolledEventIDs are managed
// through their dedicated operations.
func (r *mongoClientRepository) Update(ctx context.Context, client *domain.Client) error {
	filter := bson.M{"_id": client.ID}
	update := bson.M{
		"$set": bson.M{
			"name":      client.Name,
			"updatedAt": time.Now().UTC(),
		},
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

// Delete removes a client record.
func (r *mongoClientRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// AddEnrolledEvent mirrors a committed enrollment onto the client record.
func (r *mongoClientRepository) AddEnrolledEvent(ctx context.Context, clientID, eventID primitive.ObjectID) error {
	filter := bson.M{"_id": clientID}
	update := bson.M{
		"$addToSet": bson.M{"enrolledEventIds": eventID},
		"$set":      bson.M{"updatedAt": time.Now().UTC()},
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

// RemoveEnrolledEvent pulls the event from the client's enrollment set.
// Removing an absent membership is a successful no-op.
func (r *mongoClientRepository) RemoveEnrolledEvent(ctx context.Context, clientID, eventID primitive.ObjectID) error {
	filter := bson.M{"_id": clientID}
	update := bson.M{
		"$pull": bson.M{"enrolledEventIds": eventID},
		"$set":  bson.M{"updatedAt": time.Now().UTC()},
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

// RemoveEventFromAll pulls the event id out of every client's enrollment set.
// Used by the cascading event delete; safe to retry.
func (r *mongoClientRepository) RemoveEventFromAll(ctx context.Context, eventID primitive.ObjectID) error {
	update := bson.M{
		"$pull": bson.M{"enrolledEventIds": eventID},
	}
	_, err := r.collection.UpdateMany(ctx, bson.M{"enrolledEventIds": eventID}, update)
	return err
}

// FindByEnrolledEvents returns the clients enrolled in any of the given events.
func (r *mongoClientRepository) FindByEnrolledEvents(ctx context.Context, eventIDs []primitive.ObjectID) ([]domain.Client, error) {
	if len(eventIDs) == 0 {
		return []domain.Client{}, nil
	}

	filter := bson.M{"enrolledEventIds": bson.M{"$in": eventIDs}}
	cursor, err := r.collection.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var clients []domain.Client
	if err = cursor.All(ctx, &clients); err != nil {
		return nil, err
	}
	return clients, nil
}

// EnsureClientIndexes creates necessary indexes for the clients collection.
func EnsureClientIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "userId", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "enrolledEventIds", Value: 1}},
			Options: options.Index(),
		},
	}

	_, _ = collection.Indexes().CreateMany(ctx, indexes)
}
