package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// NotificationKind classifies feed items.
type NotificationKind string

const (
	NotificationMessage NotificationKind = "message"
	NotificationPlan    NotificationKind = "plan"
	NotificationSystem  NotificationKind = "system"
	NotificationAlert   NotificationKind = "alert"
)

// Notification is an item of a user's feed.
type Notification struct {
	ID        primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	Recipient primitive.ObjectID  `bson:"recipient" json:"recipient"`
	Kind      NotificationKind    `bson:"type" json:"type"`
	Content   string              `bson:"content" json:"content"`
	RelatedID *primitive.ObjectID `bson:"relatedId,omitempty" json:"relatedId,omitempty"`
	IsRead    bool                `bson:"isRead" json:"isRead"`
	CreatedAt time.Time           `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time           `bson:"updatedAt" json:"updatedAt"`
}

// Allows reports whether the settings let a notification of kind through.
// Alerts are always delivered.
func (s NotificationSettings) Allows(kind NotificationKind) bool {
	switch kind {
	case NotificationMessage:
		return s.Messages
	case NotificationPlan:
		return s.Plans
	case NotificationSystem:
		return s.System
	default:
		return true
	}
}
