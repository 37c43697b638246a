package domain

// WorkoutDay is one scheduled training day of a plan or template.
type WorkoutDay struct {
	DayOfWeek string     `bson:"dayOfWeek" json:"dayOfWeek"` // English weekday name, e.g. "Monday"
	Exercises []Exercise `bson:"exercises" json:"exercises"`
}

// HasWorkout reports whether the day has at least one exercise.
func (d *WorkoutDay) HasWorkout() bool {
	return len(d.Exercises) > 0
}
