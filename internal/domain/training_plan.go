package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	DefaultPlanName        = "Custom plan"
	DefaultPlanWeeks       = 8
	DefaultTemplateWeeks   = 4
	DefaultSessionsPerWeek = 4
	MaxExercisesPerPlanDay = 10
)

// ValidSessionsPerWeek reports whether n is an allowed weekly frequency.
func ValidSessionsPerWeek(n int) bool {
	return n == 3 || n == 4 || n == 5
}

// Plan is the single active workout plan of a client.
type Plan struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Trainer         primitive.ObjectID `bson:"trainer" json:"trainer"`
	Client          primitive.ObjectID `bson:"client" json:"client"` // at most one plan per client
	Name            string             `bson:"name" json:"name"`
	Weeks           int                `bson:"weeks" json:"weeks"`
	SessionsPerWeek int                `bson:"sessionsPerWeek" json:"sessionsPerWeek"`
	Days            []WorkoutDay       `bson:"days" json:"days"`
	Notes           string             `bson:"notes,omitempty" json:"notes,omitempty"`
	IsFromTemplate  bool               `bson:"isFromTemplate" json:"isFromTemplate"`
	CreatedAt       time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt       time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// DayFor returns the plan day scheduled on wd, if any.
func (p *Plan) DayFor(wd time.Weekday) (*WorkoutDay, bool) {
	for i := range p.Days {
		if d, ok := ParseWeekday(p.Days[i].DayOfWeek); ok && d == wd {
			return &p.Days[i], true
		}
	}
	return nil, false
}

// PlanTemplate is a reusable, trainer-owned plan blueprint.
type PlanTemplate struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Trainer         primitive.ObjectID `bson:"trainer" json:"trainer"`
	Name            string             `bson:"name" json:"name"`
	Weeks           int                `bson:"weeks" json:"weeks"`
	SessionsPerWeek int                `bson:"sessionsPerWeek" json:"sessionsPerWeek"`
	Days            []WorkoutDay       `bson:"days" json:"days"`
	Notes           string             `bson:"notes,omitempty" json:"notes,omitempty"`
	CreatedAt       time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt       time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// CloneDays deep-copies days so a plan never shares slices with its template.
func CloneDays(days []WorkoutDay) []WorkoutDay {
	out := make([]WorkoutDay, len(days))
	for i, d := range days {
		out[i] = WorkoutDay{
			DayOfWeek: d.DayOfWeek,
			Exercises: append([]Exercise(nil), d.Exercises...),
		}
		if out[i].Exercises == nil {
			out[i].Exercises = []Exercise{}
		}
	}
	return out
}
