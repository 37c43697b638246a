// Package memory implements the repository interfaces in process memory.
// It backs the "memory" database driver and the service/API tests.
package memory

import (
	"sync"
	"time"

	"github.com/PauloVieira29/Fitness/internal/domain"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Store holds every collection behind a single lock.
type Store struct {
	mu            sync.RWMutex
	users         map[primitive.ObjectID]domain.User
	requests      map[primitive.ObjectID]domain.TrainerChangeRequest
	plans         map[primitive.ObjectID]domain.Plan
	templates     map[primitive.ObjectID]domain.PlanTemplate
	entries       map[primitive.ObjectID]domain.Entry
	uploads       map[primitive.ObjectID]domain.Upload
	messages      map[primitive.ObjectID]domain.Message
	notifications map[primitive.ObjectID]domain.Notification
	specialties   map[primitive.ObjectID]domain.Specialty
	clock         clock
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		users:         map[primitive.ObjectID]domain.User{},
		requests:      map[primitive.ObjectID]domain.TrainerChangeRequest{},
		plans:         map[primitive.ObjectID]domain.Plan{},
		templates:     map[primitive.ObjectID]domain.PlanTemplate{},
		entries:       map[primitive.ObjectID]domain.Entry{},
		uploads:       map[primitive.ObjectID]domain.Upload{},
		messages:      map[primitive.ObjectID]domain.Message{},
		notifications: map[primitive.ObjectID]domain.Notification{},
		specialties:   map[primitive.ObjectID]domain.Specialty{},
	}
}

// clock hands out strictly increasing timestamps so that ordering by
// creation time is deterministic within one clock tick. Guarded by Store.mu.
type clock struct {
	last time.Time
}

func (c *clock) now() time.Time {
	t := time.Now().UTC()
	if !t.After(c.last) {
		t = c.last.Add(time.Microsecond)
	}
	c.last = t
	return t
}

func copyUser(u domain.User) domain.User {
	u.Profile.Specialties = append([]primitive.ObjectID(nil), u.Profile.Specialties...)
	u.Profile.WeightHistory = append([]domain.WeightRecord(nil), u.Profile.WeightHistory...)
	if u.TrainerAssigned != nil {
		id := *u.TrainerAssigned
		u.TrainerAssigned = &id
	}
	return u
}

func copyMessage(m domain.Message) domain.Message {
	m.DeletedFor = append([]primitive.ObjectID{}, m.DeletedFor...)
	return m
}
