package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Entry records whether a client trained on a given calendar day.
// (Client, Date) is unique.
type Entry struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Client         primitive.ObjectID `bson:"client" json:"client"`
	Date           time.Time          `bson:"date" json:"date"`
	Completed      bool               `bson:"completed" json:"completed"`
	CompletedAt    *time.Time         `bson:"completedAt" json:"completedAt"`
	Reason         string             `bson:"reason,omitempty" json:"reason,omitempty"`
	ProofMedia     string             `bson:"proofMedia,omitempty" json:"proofMedia,omitempty"`
	CaloriesBurned float64            `bson:"caloriesBurned" json:"caloriesBurned"`
	Notes          string             `bson:"notes,omitempty" json:"notes,omitempty"`
	CreatedAt      time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt      time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// EntryBucket is one row of the completed-workout statistics.
type EntryBucket struct {
	Key      string  `json:"_id"`
	Count    int     `json:"count"`
	Calories float64 `json:"calories"`
}
