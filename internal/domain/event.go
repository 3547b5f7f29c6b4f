package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Event is a capacity-limited happening owned by a single trainer.
//
// Attendees is the authoritative enrollment set: the capacity check commits
// against this document in a single conditional update, and each enrolled
// client's EnrolledEventIDs mirrors it. GuestList holds invited clients; a
// non-empty guest list makes the event private.
type Event struct {
	ID          primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	TrainerID   primitive.ObjectID   `bson:"trainerId" json:"trainerId"` // Owner, immutable after creation
	Name        string               `bson:"name" json:"name"`
	Description string               `bson:"description,omitempty" json:"description,omitempty"`
	Date        time.Time            `bson:"date" json:"date"`
	Capacity    *int                 `bson:"capacity,omitempty" json:"capacity,omitempty"` // nil = unlimited
	ImageKey    string               `bson:"imageKey,omitempty" json:"imageKey,omitempty"`
	GuestList   []primitive.ObjectID `bson:"guestList,omitempty" json:"guestList,omitempty"`
	Attendees   []primitive.ObjectID `bson:"attendees,omitempty" json:"attendees,omitempty"`
	CreatedAt   time.Time            `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time            `bson:"updatedAt" json:"updatedAt"`
}

// IsPrivate reports whether the event is restricted to its guest list.
func (e *Event) IsPrivate() bool {
	return len(e.GuestList) > 0
}

// IsPast reports whether the event's date has already passed.
func (e *Event) IsPast(now time.Time) bool {
	return e.Date.Before(now)
}

// HasGuest reports whether the client is on the guest list.
func (e *Event) HasGuest(clientID primitive.ObjectID) bool {
	for _, id := range e.GuestList {
		if id == clientID {
			return true
		}
	}
	return false
}

// HasAttendee reports whether the client is currently enrolled.
func (e *Event) HasAttendee(clientID primitive.ObjectID) bool {
	for _, id := range e.Attendees {
		if id == clientID {
			return true
		}
	}
	return false
}

// IsFull reports whether the enrollment set has reached capacity.
// Events without a capacity are never full.
func (e *Event) IsFull() bool {
	return e.Capacity != nil && len(e.Attendees) >= *e.Capacity
}
