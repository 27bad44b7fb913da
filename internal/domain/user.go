package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User is created on first authenticated contact and keyed by the identity
// provider's stable subject. Onboarding data is stored on the same document but
// read through a dedicated repository call, since it may be malformed.
type User struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Subject   string             `bson:"subject" json:"-"` // unique
	Email     string             `bson:"email" json:"email"`
	CreatedAt time.Time          `bson:"createdAt" json:"created_at"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updated_at"`
}
