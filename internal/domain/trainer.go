package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Rating is a single client's score for a trainer. A trainer holds at most
// one rating per client; re-rating replaces the existing entry.
type Rating struct {
	ClientID primitive.ObjectID `bson:"clientId" json:"clientId"`
	Score    float64            `bson:"score" json:"score"`
}

// Trainer represents a trainer profile owned by a user with RoleTrainer.
// EventIDs mirrors Event.TrainerID and is maintained by the event service,
// which is the only writer of cross-entity links.
type Trainer struct {
	ID        primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	UserID    primitive.ObjectID   `bson:"userId" json:"userId"` // 1:1, immutable, unique
	Name      string               `bson:"name" json:"name"`
	Bio       string               `bson:"bio,omitempty" json:"bio,omitempty"`
	ImageKey  string               `bson:"imageKey,omitempty" json:"imageKey,omitempty"`
	EventIDs  []primitive.ObjectID `bson:"eventIds,omitempty" json:"eventIds,omitempty"`
	Ratings   []Rating             `bson:"ratings,omitempty" json:"-"`
	CreatedAt time.Time            `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time            `bson:"updatedAt" json:"updatedAt"`
}

// AverageRating computes the arithmetic mean of all ratings. The second
// return value is false when the trainer has no ratings yet: the average is
// undefined, not zero.
func (t *Trainer) AverageRating() (float64, bool) {
	if len(t.Ratings) == 0 {
		return 0, false
	}
	var sum float64
	for _, r := range t.Ratings {
		sum += r.Score
	}
	return sum / float64(len(t.Ratings)), true
}
