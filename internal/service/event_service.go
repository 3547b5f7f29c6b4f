package service

import (
	"adiestra/events-app/internal/domain"
	"adiestra/events-app/internal/repository"
	"adiestra/events-app/internal/storage"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// --- Error Definitions ---
var (
	ErrEventNotFound     = errors.New("event not found")
	ErrEventAccessDenied = errors.New("access denied to this event")
	ErrInvalidEventData  = errors.New("invalid event data")
)

// EventInput carries the fields a trainer supplies when creating an event.
type EventInput struct {
	Name        string
	Description string
	Date        time.Time
	Capacity    *int
	GuestList   []primitive.ObjectID
}

// EventUpdate carries a partial edit; nil fields are left unchanged. The
// owning trainer is immutable and has no field here.
type EventUpdate struct {
	Name        *string
	Description *string
	Date        *time.Time
	Capacity    *int
	GuestList   *[]primitive.ObjectID
}

// --- Service Interface ---
type EventService interface {
	ListEvents(ctx context.Context, viewer *Viewer, includeHistory bool) ([]domain.Event, error)
	GetEvent(ctx context.Context, viewer *Viewer, eventID primitive.ObjectID) (*domain.Event, error)
	GetTrainerEvents(ctx context.Context, viewer *Viewer, trainerID primitive.ObjectID) ([]domain.Event, error)
	CreateEvent(ctx context.Context, actor *Viewer, trainerID primitive.ObjectID, input EventInput) (*domain.Event, error)
	UpdateEvent(ctx context.Context, actor *Viewer, trainerID, eventID primitive.ObjectID, update EventUpdate) (*domain.Event, error)
	DeleteEvent(ctx context.Context, actor *Viewer, trainerID, eventID primitive.ObjectID) error
	ImageUploadURL(ctx context.Context, actor *Viewer, trainerID, eventID primitive.ObjectID, contentType string) (string, error)
	ImageDownloadURL(ctx context.Context, viewer *Viewer, eventID primitive.ObjectID) (string, error)
}

// --- Service Implementation ---

// eventService owns every multi-entity write around events: creating an
// event links it into the trainer's set, deleting one unlinks it from the
// trainer and from every enrolled client before the record goes away.
type eventService struct {
	eventRepo   repository.EventRepository
	trainerRepo repository.TrainerRepository
	clientRepo  repository.ClientRepository
	fileStorage storage.FileStorage
}

// NewEventService creates a new instance of eventService.
func NewEventService(
	eventRepo repository.EventRepository,
	trainerRepo repository.TrainerRepository,
	clientRepo repository.ClientRepository,
	fileStorage storage.FileStorage,
) EventService {
	return &eventService{
		eventRepo:   eventRepo,
		trainerRepo: trainerRepo,
		clientRepo:  clientRepo,
		fileStorage: fileStorage,
	}
}

// ListEvents returns the events visible to the viewer.
func (s *eventService) ListEvents(ctx context.Context, viewer *Viewer, includeHistory bool) ([]domain.Event, error) {
	events, err := s.eventRepo.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	return VisibleEvents(viewer, events, time.Now().UTC(), includeHistory), nil
}

// GetEvent returns a single event if the viewer may see it.
func (s *eventService) GetEvent(ctx context.Context, viewer *Viewer, eventID primitive.ObjectID) (*domain.Event, error) {
	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, err
	}
	if !CanView(viewer, event, time.Now().UTC()) {
		return nil, ErrEventAccessDenied
	}
	return event, nil
}

// GetTrainerEvents lists a trainer's events, visibility-filtered. The owner
// and admins see the full history.
func (s *eventService) GetTrainerEvents(ctx context.Context, viewer *Viewer, trainerID primitive.ObjectID) ([]domain.Event, error) {
	events, err := s.eventRepo.GetByTrainerID(ctx, trainerID)
	if err != nil {
		return nil, err
	}
	includeHistory := viewer.IsAdmin() || viewer.OwnsTrainer(trainerID)
	return VisibleEvents(viewer, events, time.Now().UTC(), includeHistory), nil
}

// CreateEvent creates an event owned by the trainer and links it into the
// trainer's event set in the same logical operation.
func (s *eventService) CreateEvent(ctx context.Context, actor *Viewer, trainerID primitive.ObjectID, input EventInput) (*domain.Event, error) {
	if !actor.IsAdmin() && !actor.OwnsTrainer(trainerID) {
		return nil, ErrEventAccessDenied
	}
	if input.Name == "" || input.Date.IsZero() {
		return nil, ErrInvalidEventData
	}
	if input.Capacity != nil && *input.Capacity <= 0 {
		return nil, ErrInvalidEventData
	}

	// The owner must exist before anything is written (referenced by the
	// new event's trainerId).
	if _, err := s.trainerRepo.GetByID(ctx, trainerID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrTrainerNotFound
		}
		return nil, err
	}

	event := &domain.Event{
		TrainerID:   trainerID,
		Name:        input.Name,
		Description: input.Description,
		Date:        input.Date,
		Capacity:    input.Capacity,
		GuestList:   input.GuestList,
	}

	eventID, err := s.eventRepo.Create(ctx, event)
	if err != nil {
		return nil, err
	}
	event.ID = eventID

	if err := s.trainerRepo.AddEventID(ctx, trainerID, eventID); err != nil {
		// Unlinkable event is an orphan; undo the insert.
		_ = s.eventRepo.Delete(ctx, eventID)
		return nil, err
	}
	return event, nil
}

// UpdateEvent applies a partial edit to an event owned by the trainer.
func (s *eventService) UpdateEvent(ctx context.Context, actor *Viewer, trainerID, eventID primitive.ObjectID, update EventUpdate) (*domain.Event, error) {
	event, err := s.loadOwnedEvent(ctx, trainerID, eventID)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && !actor.OwnsTrainer(trainerID) {
		return nil, ErrEventAccessDenied
	}

	if update.Name != nil {
		event.Name = *update.Name
	}
	if update.Description != nil {
		event.Description = *update.Description
	}
	if update.Date != nil {
		event.Date = *update.Date
	}
	if update.Capacity != nil {
		if *update.Capacity <= 0 {
			return nil, ErrInvalidEventData
		}
		event.Capacity = update.Capacity
	}
	if update.GuestList != nil {
		event.GuestList = *update.GuestList
	}

	if err := s.eventRepo.Update(ctx, event); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, err
	}
	return event, nil
}

// DeleteEvent removes an event and every reference to it. The removals run
// in a fixed order (trainer link, client links, event record) and each step
// is idempotent, so a partially applied delete can simply be retried.
func (s *eventService) DeleteEvent(ctx context.Context, actor *Viewer, trainerID, eventID primitive.ObjectID) error {
	event, err := s.loadOwnedEvent(ctx, trainerID, eventID)
	if err != nil {
		return err
	}
	if !actor.IsAdmin() && !actor.OwnsTrainer(event.TrainerID) {
		return ErrEventAccessDenied
	}

	if err := s.trainerRepo.RemoveEventID(ctx, event.TrainerID, eventID); err != nil && !errors.Is(err, repository.ErrNotFound) {
		return err
	}
	if err := s.clientRepo.RemoveEventFromAll(ctx, eventID); err != nil {
		return err
	}
	return s.eventRepo.Delete(ctx, eventID)
}

// ImageUploadURL returns a presigned PUT URL for the event image and stores
// the generated object key on the event.
func (s *eventService) ImageUploadURL(ctx context.Context, actor *Viewer, trainerID, eventID primitive.ObjectID, contentType string) (string, error) {
	event, err := s.loadOwnedEvent(ctx, trainerID, eventID)
	if err != nil {
		return "", err
	}
	if !actor.IsAdmin() && !actor.OwnsTrainer(event.TrainerID) {
		return "", ErrEventAccessDenied
	}

	key := fmt.Sprintf("events/%s/%s", eventID.Hex(), uuid.NewString())
	url, err := s.fileStorage.GeneratePresignedUploadURL(ctx, key, contentType, storage.DefaultPresignedURLExpiry)
	if err != nil {
		return "", err
	}

	event.ImageKey = key
	if err := s.eventRepo.Update(ctx, event); err != nil {
		return "", err
	}
	return url, nil
}

// ImageDownloadURL returns a presigned GET URL for the event image.
func (s *eventService) ImageDownloadURL(ctx context.Context, viewer *Viewer, eventID primitive.ObjectID) (string, error) {
	event, err := s.GetEvent(ctx, viewer, eventID)
	if err != nil {
		return "", err
	}
	if event.ImageKey == "" {
		return "", ErrEventNotFound
	}
	return s.fileStorage.GeneratePresignedDownloadURL(ctx, event.ImageKey, storage.DefaultPresignedURLExpiry)
}

// loadOwnedEvent fetches an event and checks it belongs to the trainer in
// the request path. A mismatch reads as not-found to avoid leaking other
// trainers' event ids.
func (s *eventService) loadOwnedEvent(ctx context.Context, trainerID, eventID primitive.ObjectID) (*domain.Event, error) {
	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, err
	}
	if event.TrainerID != trainerID {
		return nil, ErrEventNotFound
	}
	return event, nil
}
