package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Client represents a client profile owned by a user with RoleClient.
// EnrolledEventIDs mirrors Event.Attendees; the enrollment service keeps
// both sides consistent.
type Client struct {
	ID               primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	UserID           primitive.ObjectID   `bson:"userId" json:"userId"` // 1:1, immutable, unique
	Name             string               `bson:"name" json:"name"`
	EnrolledEventIDs []primitive.ObjectID `bson:"enrolledEventIds,omitempty" json:"enrolledEventIds,omitempty"`
	CreatedAt        time.Time            `bson:"createdAt" json:"createdAt"`
	UpdatedAt        time.Time            `bson:"updatedAt" json:"updatedAt"`
}

// IsEnrolled reports whether the client holds a membership for the event.
func (c *Client) IsEnrolled(eventID primitive.ObjectID) bool {
	for _, id := range c.EnrolledEventIDs {
		if id == eventID {
			return true
		}
	}
	return false
}
