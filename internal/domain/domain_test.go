package domain

import (
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Strength Training", "strength-training"},
		{"  Pilates & Yoga!! ", "pilates-yoga"},
		{"Musculação", "musculacao"},
		{"Cross--Fit 2.0", "cross-fit-2-0"},
		{"***", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := Slugify(tt.in); got != tt.want {
				t.Errorf("Slugify(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestRecordWeight(t *testing.T) {
	day1 := time.Date(2024, 3, 4, 8, 0, 0, 0, time.UTC)
	var p Profile

	p.RecordWeight(82.4, day1)
	if p.InitialWeight != 82.4 || p.Weight != 82.4 || p.WeightLost != 0 {
		t.Fatalf("first reading: %+v", p)
	}

	// Same day replaces the last record.
	p.RecordWeight(82.0, day1.Add(10*time.Hour))
	if len(p.WeightHistory) != 1 || p.WeightHistory[0].Weight != 82.0 {
		t.Fatalf("history = %+v", p.WeightHistory)
	}

	p.RecordWeight(80.9, day1.AddDate(0, 0, 3))
	if len(p.WeightHistory) != 2 {
		t.Fatalf("history length = %d, want 2", len(p.WeightHistory))
	}
	if p.InitialWeight != 82.4 {
		t.Errorf("initial weight moved to %v", p.InitialWeight)
	}
	if p.WeightLost != 1.5 {
		t.Errorf("weight lost = %v, want 1.5", p.WeightLost)
	}
	if p.LastWeightUpdate == nil || !p.LastWeightUpdate.Equal(day1.AddDate(0, 0, 3)) {
		t.Errorf("last update = %v", p.LastWeightUpdate)
	}
}

func TestCalendarHelpers(t *testing.T) {
	// Sunday 10 March 2024, late evening.
	sunday := time.Date(2024, 3, 10, 23, 30, 0, 0, time.UTC)

	if got := StartOfWeek(sunday); !got.Equal(time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("StartOfWeek(sunday) = %v", got)
	}
	monday := time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)
	if got := StartOfWeek(monday); !got.Equal(StartOfDay(monday)) {
		t.Errorf("StartOfWeek(monday) = %v", got)
	}
	if got := StartOfMonth(sunday); !got.Equal(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("StartOfMonth = %v", got)
	}
	if !SameDay(sunday, time.Date(2024, 3, 10, 0, 0, 1, 0, time.UTC)) {
		t.Error("SameDay rejected two times on the same date")
	}
	if SameDay(sunday, monday) {
		t.Error("SameDay accepted different dates")
	}
}

func TestParseWeekday(t *testing.T) {
	tests := []struct {
		in   string
		want time.Weekday
		ok   bool
	}{
		{"Monday", time.Monday, true},
		{"sunday", time.Sunday, true},
		{" FRIDAY ", time.Friday, true},
		{"Mon", 0, false},
		{"", 0, false},
	}
	for _, tt := range tests {
		got, ok := ParseWeekday(tt.in)
		if ok != tt.ok || (ok && got != tt.want) {
			t.Errorf("ParseWeekday(%q) = %v, %v", tt.in, got, ok)
		}
	}
}

func TestNotificationSettingsAllows(t *testing.T) {
	s := NotificationSettings{Messages: false, Plans: true, System: false}
	tests := map[NotificationKind]bool{
		NotificationMessage: false,
		NotificationPlan:    true,
		NotificationSystem:  false,
		NotificationAlert:   true,
	}
	for kind, want := range tests {
		if got := s.Allows(kind); got != want {
			t.Errorf("Allows(%s) = %v, want %v", kind, got, want)
		}
	}
}

func TestPlanDayFor(t *testing.T) {
	p := Plan{Days: []WorkoutDay{
		{DayOfWeek: "Monday", Exercises: []Exercise{{Name: "Squat", Sets: 5}}},
		{DayOfWeek: "wednesday"},
	}}
	if d, ok := p.DayFor(time.Monday); !ok || !d.HasWorkout() {
		t.Errorf("Monday = %+v, %v", d, ok)
	}
	if d, ok := p.DayFor(time.Wednesday); !ok || d.HasWorkout() {
		t.Errorf("Wednesday = %+v, %v", d, ok)
	}
	if _, ok := p.DayFor(time.Sunday); ok {
		t.Error("Sunday should be a rest day")
	}
}

func TestCloneDaysIsDeep(t *testing.T) {
	src := []WorkoutDay{{DayOfWeek: "Monday", Exercises: []Exercise{{Name: "Row", Sets: 3}}}, {DayOfWeek: "Friday"}}
	out := CloneDays(src)
	out[0].Exercises[0].Name = "Changed"
	if src[0].Exercises[0].Name != "Row" {
		t.Error("clone shares exercises with the source")
	}
	if out[1].Exercises == nil {
		t.Error("empty day should clone to an empty slice")
	}
}

func TestMessageParticipants(t *testing.T) {
	a, b := primitive.NewObjectID(), primitive.NewObjectID()
	m := Message{From: a, To: b, DeletedFor: []primitive.ObjectID{b}}
	if m.Partner(a) != b || m.Partner(b) != a {
		t.Error("Partner returned the wrong participant")
	}
	if !m.HiddenFor(b) || m.HiddenFor(a) {
		t.Error("HiddenFor mismatch")
	}
}
