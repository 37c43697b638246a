package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Message is a direct message between two users.
type Message struct {
	ID   primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	From primitive.ObjectID `bson:"from" json:"from"`
	To   primitive.ObjectID `bson:"to" json:"to"`
	Text string             `bson:"text" json:"text"`
	Read bool               `bson:"read" json:"read"`
	// DeletedFor lists users who hid the message from their own view.
	DeletedFor []primitive.ObjectID `bson:"deletedFor" json:"-"`
	CreatedAt  time.Time            `bson:"createdAt" json:"createdAt"`
	UpdatedAt  time.Time            `bson:"updatedAt" json:"updatedAt"`
}

// HiddenFor reports whether userID soft-deleted the message.
func (m *Message) HiddenFor(userID primitive.ObjectID) bool {
	for _, id := range m.DeletedFor {
		if id == userID {
			return true
		}
	}
	return false
}

// Partner returns the other participant from userID's point of view.
func (m *Message) Partner(userID primitive.ObjectID) primitive.ObjectID {
	if m.From == userID {
		return m.To
	}
	return m.From
}

// Conversation is the latest visible message exchanged with one partner.
type Conversation struct {
	Partner     primitive.ObjectID
	LastMessage Message
}

// UnreadCount is the number of unread messages from one sender.
type UnreadCount struct {
	Sender primitive.ObjectID `bson:"_id"`
	Count  int                `bson:"count"`
}
