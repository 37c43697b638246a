package domain

// Exercise is a single prescribed exercise inside a WorkoutDay.
type Exercise struct {
	Name  string `bson:"name" json:"name"`
	Sets  int    `bson:"sets" json:"sets"`
	Reps  string `bson:"reps" json:"reps"` // free form, e.g. "8-12"
	Rest  string `bson:"rest,omitempty" json:"rest,omitempty"`
	Notes string `bson:"notes,omitempty" json:"notes,omitempty"`
	Media string `bson:"media,omitempty" json:"media,omitempty"` // URL of a demo video or image
}
