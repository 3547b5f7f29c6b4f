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

const eventCollectionName = "events"

// mongoEventRepository implements the repository.EventRepository interface using MongoDB.
type mongoEventRepository struct {
	collection *mongo.Collection
}

// NewMongoEventRepository creates a new instance of mongoEventRepository.
func NewMongoEventRepository(db *mongo.Database) repository.EventRepository {
	return &mongoEventRepository{
		collection: db.Collection(eventCollectionName),
	}
}

// Create inserts a new event into the database.
func (r *mongoEventRepository) Create(ctx context.Context, event *domain.Event) (primitive.ObjectID, error) {
	if event.TrainerID == primitive.NilObjectID || event.Name == "" || event.Date.IsZero() {
		return primitive.NilObjectID, errors.New("event trainer ID, name, and date are required")
	}
	if event.Capacity != nil && *event.Capacity <= 0 {
		return primitive.NilObjectID, errors.New("event capacity must be positive")
	}

	event.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	event.CreatedAt = now
	event.UpdatedAt = now

	result, err := r.collection.InsertOne(ctx, event)
	if err != nil {
		return primitive.NilObjectID, err
	}

	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted ID")
	}
	return insertedID, nil
}

// GetByID retrieves an event by its MongoDB ObjectID.
func (r *mongoEventRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Event, error) {
	var event domain.Event
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&event)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &event, nil
}

// GetByIDs retrieves the events whose ids are in the given list. Missing ids
// are simply absent from the result.
func (r *mongoEventRepository) GetByIDs(ctx context.Context, ids []primitive.ObjectID) ([]domain.Event, error) {
	if len(ids) == 0 {
		return []domain.Event{}, nil
	}

	cursor, err := r.collection.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var events []domain.Event
	if err = cursor.All(ctx, &events); err != nil {
		return nil, err
	}
	return events, nil
}

// GetAll retrieves every event.
func (r *mongoEventRepository) GetAll(ctx context.Context) ([]domain.Event, error) {
	cursor, err := r.collection.Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var events []domain.Event
	if err = cursor.All(ctx, &events); err != nil {
		return nil, err
	}
	return events, nil
}

// GetByTrainerID retrieves the events owned by a trainer.
func (r *mongoEventRepository) GetByTrainerID(ctx context.Context, trainerID primitive.ObjectID) ([]domain.Event, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"trainerId": trainerID})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var events []domain.Event
	if err = cursor.All(ctx, &events); err != nil {
		return nil, err
	}
	return events, nil
}

// Update persists event field changes. TrainerID and Attendees are immutable
// here; the owner and the enrollment set have dedicated operations.
func (r *mongoEventRepository) Update(ctx context.Context, event *domain.Event) error {
	if event.Capacity != nil && *event.Capacity <= 0 {
		return errors.New("event capacity must be positive")
	}

	filter := bson.M{"_id": event.ID}
	update := bson.M{
		"$set": bson.M{
			"name":        event.Name,
			"description": event.Description,
			"date":        event.Date,
			"capacity":    event.Capacity,
			"imageKey":    event.ImageKey,
			"guestList":   event.GuestList,
			"updatedAt":   time.Now().UTC(),
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

// Delete removes an event record. Deleting an absent event is a no-op so the
// cascading delete sequence stays retry-safe.
func (r *mongoEventRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	_, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	return err
}

// AddAttendee commits an enrollment. The filter admits the write only when
// the client is not already enrolled and the event either has no capacity or
// still has a free seat, so the count check and the append are a single
// atomic store operation. Two concurrent calls against the last seat cannot
// both match.
func (r *mongoEventRepository) AddAttendee(ctx context.Context, eventID, clientID primitive.ObjectID) error {
	filter := bson.M{
		"_id":       eventID,
		"attendees": bson.M{"$ne": clientID},
		"$expr": bson.M{"$or": bson.A{
			// No capacity set: unlimited.
			bson.M{"$eq": bson.A{bson.M{"$ifNull": bson.A{"$capacity", nil}}, nil}},
			// Seats left.
			bson.M{"$lt": bson.A{
				bson.M{"$size": bson.M{"$ifNull": bson.A{"$attendees", bson.A{}}}},
				"$capacity",
			}},
		}},
	}
	update := bson.M{
		"$addToSet": bson.M{"attendees": clientID},
		"$set":      bson.M{"updatedAt": time.Now().UTC()},
	}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		// Event absent, duplicate join, or full house. The caller re-reads
		// the event to tell these apart; the commit itself stays atomic.
		return repository.ErrPreconditionFailed
	}
	return nil
}

// RemoveAttendee pulls the client from the enrollment set. Removing an
// absent attendee is a successful no-op.
func (r *mongoEventRepository) RemoveAttendee(ctx context.Context, eventID, clientID primitive.ObjectID) error {
	filter := bson.M{"_id": eventID}
	update := bson.M{
		"$pull": bson.M{"attendees": clientID},
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

// EnsureEventIndexes creates necessary indexes for the events collection.
func EnsureEventIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "trainerId", Value: 1}},
			Options: options.Index(),
		},
		{
			Keys:    bson.D{{Key: "date", Value: 1}},
			Options: options.Index(),
		},
	}

	_, _ = collection.Indexes().CreateMany(ctx, indexes)
}
