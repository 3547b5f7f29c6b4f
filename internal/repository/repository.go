package repository

import (
	"adiestra/events-app/internal/domain"
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Error constants for the repository layer. Services translate these into
// their own error vocabulary.
var (
	ErrNotFound     = RepositoryError("not found")
	ErrDuplicateKey = RepositoryError("duplicate key")
	ErrUpdateFailed = RepositoryError("update failed")

	// ErrPreconditionFailed is returned by conditional writes whose filter
	// matched no document (e.g. the capacity-checked enrollment commit).
	// Callers re-read the entity to classify the cause.
	ErrPreconditionFailed = RepositoryError("precondition failed")
)

// RepositoryError helps distinguish repository errors
type RepositoryError string

func (e RepositoryError) Error() string {
	return string(e)
}

// UserRepository defines the interface for interacting with user accounts.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (primitive.ObjectID, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.User, error)
	SetResetToken(ctx context.Context, id primitive.ObjectID, token string, expiry time.Time) error
	UpdatePassword(ctx context.Context, id primitive.ObjectID, passwordHash string) error
	Delete(ctx context.Context, id primitive.ObjectID) error
}

// TrainerRepository defines the interface for interacting with trainer records.
type TrainerRepository interface {
	Create(ctx context.Context, trainer *domain.Trainer) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Trainer, error)
	GetByUserID(ctx context.Context, userID primitive.ObjectID) (*domain.Trainer, error)
	GetAll(ctx context.Context) ([]domain.Trainer, error)
	Update(ctx context.Context, trainer *domain.Trainer) error
	Delete(ctx context.Context, id primitive.ObjectID) error

	// Cross-entity link maintenance, driven by the event service.
	AddEventID(ctx context.Context, trainerID, eventID primitive.ObjectID) error
	RemoveEventID(ctx context.Context, trainerID, eventID primitive.ObjectID) error

	// SetRating upserts the client's score: replaces an existing entry or
	// appends a new one, never both. Each step is a single conditional update.
	SetRating(ctx context.Context, trainerID, clientID primitive.ObjectID, score float64) error
}

// ClientRepository defines the interface for interacting with client records.
type ClientRepository interface {
	Create(ctx context.Context, client *domain.Client) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Client, error)
	GetByUserID(ctx context.Context, userID primitive.ObjectID) (*domain.Client, error)
	GetAll(ctx context.Context) ([]domain.Client, error)
	Update(ctx context.Context, client *domain.Client) error
	Delete(ctx context.Context, id primitive.ObjectID) error

	AddEnrolledEvent(ctx context.Context, clientID, eventID primitive.ObjectID) error
	// RemoveEnrolledEvent is idempotent: removing an absent membership succeeds.
	RemoveEnrolledEvent(ctx context.Context, clientID, eventID primitive.ObjectID) error
	// RemoveEventFromAll pulls the event id out of every client's enrollment
	// set (cascading delete support).
	RemoveEventFromAll(ctx context.Context, eventID primitive.ObjectID) error
	// FindByEnrolledEvents returns clients enrolled in any of the given events.
	FindByEnrolledEvents(ctx context.Context, eventIDs []primitive.ObjectID) ([]domain.Client, error)
}

// EventRepository defines the interface for interacting with event records.
type EventRepository interface {
	Create(ctx context.Context, event *domain.Event) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Event, error)
	GetByIDs(ctx context.Context, ids []primitive.ObjectID) ([]domain.Event, error)
	GetAll(ctx context.Context) ([]domain.Event, error)
	GetByTrainerID(ctx context.Context, trainerID primitive.ObjectID) ([]domain.Event, error)
	Update(ctx context.Context, event *domain.Event) error
	Delete(ctx context.Context, id primitive.ObjectID) error

	// AddAttendee appends the client to the event's enrollment set only if
	// the client is not already in it and the event has a free seat. The
	// check and the write are one store operation; ErrPreconditionFailed
	// means the filter matched nothing and the caller must classify why.
	AddAttendee(ctx context.Context, eventID, clientID primitive.ObjectID) error
	// RemoveAttendee is idempotent.
	RemoveAttendee(ctx context.Context, eventID, clientID primitive.ObjectID) error
}

// ProfileRepository defines the interface for interacting with trainer profiles.
type ProfileRepository interface {
	Create(ctx context.Context, profile *domain.Profile) (primitive.ObjectID, error)
	GetByTrainerID(ctx context.Context, trainerID primitive.ObjectID) (*domain.Profile, error)
	Update(ctx context.Context, profile *domain.Profile) error
	DeleteByTrainerID(ctx context.Context, trainerID primitive.ObjectID) error
}
