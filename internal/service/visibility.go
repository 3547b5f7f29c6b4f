package service

import (
	"adiestra/events-app/internal/domain"
	"adiestra/events-app/internal/repository"
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Viewer identifies the caller for authorization and visibility decisions.
// A nil *Viewer is an unauthenticated request. TrainerID/ClientID hold the
// caller's entity record id when the role has one.
type Viewer struct {
	UserID    primitive.ObjectID
	Role      domain.Role
	TrainerID primitive.ObjectID
	ClientID  primitive.ObjectID
}

func (v *Viewer) IsAdmin() bool {
	return v != nil && v.Role == domain.RoleAdmin
}

// OwnsTrainer reports whether the viewer is the trainer with the given id.
func (v *Viewer) OwnsTrainer(trainerID primitive.ObjectID) bool {
	return v != nil && v.Role == domain.RoleTrainer && v.TrainerID == trainerID
}

// OwnsClient reports whether the viewer is the client with the given id.
func (v *Viewer) OwnsClient(clientID primitive.ObjectID) bool {
	return v != nil && v.Role == domain.RoleClient && v.ClientID == clientID
}

// CanView is the single visibility predicate for events. Pure: no side
// effects, no store access.
//
//   - unauthenticated: public, non-past events only
//   - admin: everything
//   - trainer: own events (private or past included) plus public events
//   - client: public events plus private events they are invited to
func CanView(viewer *Viewer, event *domain.Event, now time.Time) bool {
	if viewer == nil {
		return !event.IsPrivate() && !event.IsPast(now)
	}
	switch viewer.Role {
	case domain.RoleAdmin:
		return true
	case domain.RoleTrainer:
		if event.TrainerID == viewer.TrainerID {
			return true
		}
		return !event.IsPrivate()
	case domain.RoleClient:
		if event.IsPrivate() {
			return event.HasGuest(viewer.ClientID)
		}
		return true
	default:
		return false
	}
}

// VisibleEvents filters a listing down to what the viewer may see. On top of
// CanView, past events that do not belong to the viewer are dropped unless
// the caller explicitly asked for history.
func VisibleEvents(viewer *Viewer, events []domain.Event, now time.Time, includeHistory bool) []domain.Event {
	visible := make([]domain.Event, 0, len(events))
	for i := range events {
		event := &events[i]
		if !CanView(viewer, event, now) {
			continue
		}
		if !includeHistory && event.IsPast(now) && !viewer.IsAdmin() {
			// Own and enrolled history stays listed only on request.
			owned := viewer.OwnsTrainer(event.TrainerID)
			enrolled := viewer != nil && viewer.Role == domain.RoleClient && event.HasAttendee(viewer.ClientID)
			if !owned && !enrolled {
				continue
			}
		}
		visible = append(visible, *event)
	}
	return visible
}

// ViewerResolver maps an authenticated user onto the Viewer used by the
// visibility and ownership checks.
type ViewerResolver struct {
	trainerRepo repository.TrainerRepository
	clientRepo  repository.ClientRepository
}

// NewViewerResolver creates a new ViewerResolver.
func NewViewerResolver(trainerRepo repository.TrainerRepository, clientRepo repository.ClientRepository) *ViewerResolver {
	return &ViewerResolver{trainerRepo: trainerRepo, clientRepo: clientRepo}
}

// Resolve builds the Viewer for a user id and role. A trainer or client user
// without its entity record resolves to a viewer with a nil entity id; the
// predicates then treat them like any other authenticated outsider.
func (r *ViewerResolver) Resolve(ctx context.Context, userID primitive.ObjectID, role domain.Role) (*Viewer, error) {
	viewer := &Viewer{UserID: userID, Role: role}
	switch role {
	case domain.RoleTrainer:
		trainer, err := r.trainerRepo.GetByUserID(ctx, userID)
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			return nil, err
		}
		if trainer != nil {
			viewer.TrainerID = trainer.ID
		}
	case domain.RoleClient:
		client, err := r.clientRepo.GetByUserID(ctx, userID)
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			return nil, err
		}
		if client != nil {
			viewer.ClientID = client.ID
		}
	}
	return viewer, nil
}
