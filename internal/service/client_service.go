package service

import (
	"adiestra/events-app/internal/domain"
	"adiestra/events-app/internal/repository"
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// --- Error Definitions ---
var (
	ErrClientNotFound     = errors.New("client not found")
	ErrClientExists       = errors.New("user already owns a client record")
	ErrClientAccessDenied = errors.New("access denied to this client")
	ErrAlreadyEnrolled    = errors.New("client already enrolled in this event")

	// ErrEventFull is a business outcome, not a system failure: the event
	// had no free seat at the moment of commit.
	ErrEventFull = errors.New("event has reached capacity")
)

// How often the conditional enrollment commit is retried when it loses a
// race that a re-read cannot explain (e.g. a seat freed up in between).
const enrollAttempts = 3

// ClientInput carries the fields supplied when creating a client.
type ClientInput struct {
	UserID primitive.ObjectID
	Name   string
}

// ClientUpdate carries a partial edit; nil fields are left unchanged.
type ClientUpdate struct {
	Name *string
}

// --- Service Interface ---
type ClientService interface {
	CreateClient(ctx context.Context, input ClientInput) (*domain.Client, error)
	GetClient(ctx context.Context, id primitive.ObjectID) (*domain.Client, error)
	GetAllClients(ctx context.Context) ([]domain.Client, error)
	UpdateClient(ctx context.Context, actor *Viewer, id primitive.ObjectID, update ClientUpdate) (*domain.Client, error)
	DeleteClient(ctx context.Context, actor *Viewer, id primitive.ObjectID) error

	// Enrollment coordination.
	Enroll(ctx context.Context, actor *Viewer, clientID, eventID primitive.ObjectID) error
	Cancel(ctx context.Context, actor *Viewer, clientID, eventID primitive.ObjectID) error
	GetEnrolledEvents(ctx context.Context, actor *Viewer, clientID primitive.ObjectID) ([]domain.Event, error)
}

// --- Service Implementation ---

// clientService implements the ClientService interface.
type clientService struct {
	clientRepo repository.ClientRepository
	userRepo   repository.UserRepository
	eventRepo  repository.EventRepository
}

// NewClientService creates a new instance of clientService.
func NewClientService(
	clientRepo repository.ClientRepository,
	userRepo repository.UserRepository,
	eventRepo repository.EventRepository,
) ClientService {
	return &clientService{
		clientRepo: clientRepo,
		userRepo:   userRepo,
		eventRepo:  eventRepo,
	}
}

// CreateClient creates a client record for a user account. The referenced
// user must exist and carry the client role; a user owns at most one client
// record.
func (s *clientService) CreateClient(ctx context.Context, input ClientInput) (*domain.Client, error) {
	if input.UserID == primitive.NilObjectID || input.Name == "" {
		return nil, errors.New("client user ID and name are required")
	}

	user, err := s.userRepo.GetByID(ctx, input.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrRoleMismatch
		}
		return nil, err
	}
	if !user.IsClient() {
		return nil, ErrRoleMismatch
	}

	client := &domain.Client{
		UserID: input.UserID,
		Name:   input.Name,
	}
	clientID, err := s.clientRepo.Create(ctx, client)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			return nil, ErrClientExists
		}
		return nil, err
	}
	client.ID = clientID
	return client, nil
}

// GetClient retrieves a client by id.
func (s *clientService) GetClient(ctx context.Context, id primitive.ObjectID) (*domain.Client, error) {
	client, err := s.clientRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrClientNotFound
		}
		return nil, err
	}
	return client, nil
}

// GetAllClients retrieves every client.
func (s *clientService) GetAllClients(ctx context.Context) ([]domain.Client, error) {
	return s.clientRepo.GetAll(ctx)
}

// UpdateClient applies a partial edit to the client record.
func (s *clientService) UpdateClient(ctx context.Context, actor *Viewer, id primitive.ObjectID, update ClientUpdate) (*domain.Client, error) {
	if !actor.IsAdmin() && !actor.OwnsClient(id) {
		return nil, ErrClientAccessDenied
	}

	client, err := s.GetClient(ctx, id)
	if err != nil {
		return nil, err
	}
	if update.Name != nil {
		client.Name = *update.Name
	}

	if err := s.clientRepo.Update(ctx, client); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrClientNotFound
		}
		return nil, err
	}
	return client, nil
}

// DeleteClient removes a client and the owning user account. Rejected while
// the client is enrolled in an event that has not taken place yet.
func (s *clientService) DeleteClient(ctx context.Context, actor *Viewer, id primitive.ObjectID) error {
	if !actor.IsAdmin() && !actor.OwnsClient(id) {
		return ErrClientAccessDenied
	}

	client, err := s.GetClient(ctx, id)
	if err != nil {
		return err
	}

	events, err := s.eventRepo.GetByIDs(ctx, client.EnrolledEventIDs)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	for i := range events {
		if !events[i].IsPast(now) {
			return ErrHasActiveEvents
		}
	}

	if err := s.clientRepo.Delete(ctx, id); err != nil && !errors.Is(err, repository.ErrNotFound) {
		return err
	}
	return s.userRepo.Delete(ctx, client.UserID)
}

// Enroll registers the client for an event. The ordered checks each reject
// independently; the capacity check and the attendee append commit as one
// conditional store write, so concurrent enrollments against the last seat
// cannot both succeed.
func (s *clientService) Enroll(ctx context.Context, actor *Viewer, clientID, eventID primitive.ObjectID) error {
	if !actor.IsAdmin() && !actor.OwnsClient(clientID) {
		return ErrClientAccessDenied
	}

	client, err := s.GetClient(ctx, clientID)
	if err != nil {
		return err
	}

	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrEventNotFound
		}
		return err
	}

	clientViewer := &Viewer{Role: domain.RoleClient, ClientID: clientID}
	if !CanView(clientViewer, event, time.Now().UTC()) {
		return ErrEventAccessDenied
	}
	if client.IsEnrolled(eventID) || event.HasAttendee(clientID) {
		return ErrAlreadyEnrolled
	}

	if err := s.commitEnrollment(ctx, eventID, clientID); err != nil {
		return err
	}

	if err := s.clientRepo.AddEnrolledEvent(ctx, clientID, eventID); err != nil {
		// Keep both sides of the link consistent: give the seat back.
		_ = s.eventRepo.RemoveAttendee(ctx, eventID, clientID)
		return err
	}
	return nil
}

// commitEnrollment performs the atomic seat claim and classifies a failed
// precondition by re-reading the event. An unexplained failure (the seat
// count moved between the write and the read) is retried.
func (s *clientService) commitEnrollment(ctx context.Context, eventID, clientID primitive.ObjectID) error {
	for attempt := 0; attempt < enrollAttempts; attempt++ {
		err := s.eventRepo.AddAttendee(ctx, eventID, clientID)
		if err == nil {
			return nil
		}
		if !errors.Is(err, repository.ErrPreconditionFailed) {
			return err
		}

		event, readErr := s.eventRepo.GetByID(ctx, eventID)
		if readErr != nil {
			if errors.Is(readErr, repository.ErrNotFound) {
				return ErrEventNotFound
			}
			return readErr
		}
		if event.HasAttendee(clientID) {
			return ErrAlreadyEnrolled
		}
		if event.IsFull() {
			return ErrEventFull
		}
	}
	return ErrEventFull
}

// Cancel removes the client's membership for an event. Cancelling an absent
// membership is a successful no-op, so retried cancels are harmless.
func (s *clientService) Cancel(ctx context.Context, actor *Viewer, clientID, eventID primitive.ObjectID) error {
	if !actor.IsAdmin() && !actor.OwnsClient(clientID) {
		return ErrClientAccessDenied
	}

	if _, err := s.GetClient(ctx, clientID); err != nil {
		return err
	}

	if err := s.clientRepo.RemoveEnrolledEvent(ctx, clientID, eventID); err != nil {
		return err
	}
	// The event may already be gone (cascading delete); that still counts
	// as a successful cancel.
	if err := s.eventRepo.RemoveAttendee(ctx, eventID, clientID); err != nil && !errors.Is(err, repository.ErrNotFound) {
		return err
	}
	return nil
}

// GetEnrolledEvents lists the events the client is registered for.
func (s *clientService) GetEnrolledEvents(ctx context.Context, actor *Viewer, clientID primitive.ObjectID) ([]domain.Event, error) {
	if !actor.IsAdmin() && !actor.OwnsClient(clientID) {
		return nil, ErrClientAccessDenied
	}

	client, err := s.GetClient(ctx, clientID)
	if err != nil {
		return nil, err
	}
	return s.eventRepo.GetByIDs(ctx, client.EnrolledEventIDs)
}
