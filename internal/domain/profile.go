package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Profile holds a trainer's public commercial details. One per trainer;
// deleted together with the trainer.
type Profile struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	TrainerID primitive.ObjectID `bson:"trainerId" json:"trainerId"` // Unique
	Price     float64            `bson:"price,omitempty" json:"price,omitempty"`
	Contact   string             `bson:"contact" json:"contact"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`
}
