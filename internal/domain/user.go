package domain

import (
	"math"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Role type to distinguish between user roles
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleTrainer Role = "trainer"
	RoleClient  Role = "client"
)

// Valid reports whether r is one of the three known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleTrainer, RoleClient:
		return true
	}
	return false
}

// MaxClientsPerTrainer is the trainer capacity.
const MaxClientsPerTrainer = 10

// User represents an account of any role.
type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Username     string             `bson:"username" json:"username"` // unique
	PasswordHash string             `bson:"passwordHash" json:"-"`
	Role         Role               `bson:"role" json:"role"`
	IsActive     bool               `bson:"isActive" json:"isActive"`
	// Trainers must be validated by an admin before they are discoverable.
	Validated bool `bson:"validated" json:"validated"`

	// --- Client-specific ---
	TrainerAssigned *primitive.ObjectID `bson:"trainerAssigned,omitempty" json:"trainerAssigned,omitempty"`

	Profile              Profile              `bson:"profile" json:"profile"`
	NotificationSettings NotificationSettings `bson:"notificationSettings" json:"notificationSettings"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// Profile holds the editable personal data plus body metrics and counters.
type Profile struct {
	Name             string               `bson:"name,omitempty" json:"name,omitempty"`
	Email            string               `bson:"email,omitempty" json:"email,omitempty"`
	Bio              string               `bson:"bio,omitempty" json:"bio,omitempty"`
	Goal             string               `bson:"goal,omitempty" json:"goal,omitempty"`
	Weight           float64              `bson:"weight,omitempty" json:"weight,omitempty"`
	InitialWeight    float64              `bson:"initialWeight,omitempty" json:"initialWeight,omitempty"`
	LastWeightUpdate *time.Time           `bson:"lastWeightUpdate,omitempty" json:"lastWeightUpdate,omitempty"`
	Height           float64              `bson:"height,omitempty" json:"height,omitempty"`
	BirthDate        *time.Time           `bson:"birthDate,omitempty" json:"birthDate,omitempty"`
	AvatarURL        string               `bson:"avatarUrl,omitempty" json:"avatarUrl,omitempty"`
	TotalPlans       int                  `bson:"totalPlans" json:"totalPlans"`
	TotalWorkouts    int                  `bson:"totalWorkouts" json:"totalWorkouts"`
	WeightLost       float64              `bson:"weightLost" json:"weightLost"`
	Specialties      []primitive.ObjectID `bson:"specialties,omitempty" json:"specialties,omitempty"`
	WeightHistory    []WeightRecord       `bson:"weightHistory,omitempty" json:"weightHistory,omitempty"`
}

// WeightRecord is one point of the weight history, at most one per day.
type WeightRecord struct {
	Weight float64   `bson:"weight" json:"weight"`
	Date   time.Time `bson:"date" json:"date"`
}

// NotificationSettings are the per-category opt-in flags.
type NotificationSettings struct {
	Messages bool `bson:"messages" json:"messages"`
	Plans    bool `bson:"plans" json:"plans"`
	System   bool `bson:"system" json:"system"`
}

// DefaultNotificationSettings has every category enabled.
func DefaultNotificationSettings() NotificationSettings {
	return NotificationSettings{Messages: true, Plans: true, System: true}
}

func (u *User) IsTrainer() bool {
	return u.Role == RoleTrainer
}

func (u *User) IsClient() bool {
	return u.Role == RoleClient
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// DisplayName prefers the profile name over the username.
func (u *User) DisplayName() string {
	if u.Profile.Name != "" {
		return u.Profile.Name
	}
	return u.Username
}

// HasTrainer reports whether the client is assigned to trainerID.
func (u *User) HasTrainer(trainerID primitive.ObjectID) bool {
	return u.TrainerAssigned != nil && *u.TrainerAssigned == trainerID
}

// RecordWeight applies a weight reading taken at `at`. The first reading
// becomes the initial weight. The history keeps one record per calendar
// day: a reading on the same day as the last record replaces it.
func (p *Profile) RecordWeight(weight float64, at time.Time) {
	if p.InitialWeight == 0 {
		p.InitialWeight = weight
	}
	p.Weight = weight
	stamp := at
	p.LastWeightUpdate = &stamp

	rec := WeightRecord{Weight: weight, Date: at}
	if n := len(p.WeightHistory); n > 0 && SameDay(at, p.WeightHistory[n-1].Date) {
		p.WeightHistory[n-1] = rec
	} else {
		p.WeightHistory = append(p.WeightHistory, rec)
	}
	p.WeightLost = Round1(p.InitialWeight - p.Weight)
}

// Round1 rounds to one decimal place.
func Round1(v float64) float64 {
	return math.Round(v*10) / 10
}
