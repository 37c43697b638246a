package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// RequestStatus tracks the trainer change request lifecycle.
type RequestStatus string

const (
	RequestPending  RequestStatus = "pending"
	RequestAccepted RequestStatus = "accepted"
	RequestRejected RequestStatus = "rejected"
)

// TrainerChangeRequest asks for a client to be assigned to NewTrainer.
// Requests are never deleted; decided ones form the audit trail.
type TrainerChangeRequest struct {
	ID             primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	Client         primitive.ObjectID  `bson:"client" json:"client"`
	CurrentTrainer *primitive.ObjectID `bson:"currentTrainer,omitempty" json:"currentTrainer,omitempty"` // trainer at request time, if any
	NewTrainer     primitive.ObjectID  `bson:"newTrainer" json:"newTrainer"`
	Status         RequestStatus       `bson:"status" json:"status"`
	CreatedAt      time.Time           `bson:"createdAt" json:"createdAt"`
	UpdatedAt      time.Time           `bson:"updatedAt" json:"updatedAt"`
}

func (r *TrainerChangeRequest) IsPending() bool {
	return r.Status == RequestPending
}
