package service

import (
	"context"
	"testing"
	"time"

	"github.com/PauloVieira29/Fitness/internal/domain"
	"github.com/PauloVieira29/Fitness/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func (f *fixture) entries() EntryService {
	return NewEntryService(f.store.Users(), f.store.Entries(), f.store.Plans(), f.store.Notifications())
}

// wednesday is 2024-05-15 10:00 local; ISO week 20.
func wednesday() time.Time {
	return time.Date(2024, time.May, 15, 10, 0, 0, 0, time.Local)
}

func day(month time.Month, d int) time.Time {
	return time.Date(2024, month, d, 12, 0, 0, 0, time.Local)
}

func TestUpsert_RejectsFutureCompletion(t *testing.T) {
	freezeClock(t, wednesday())
	f := newFixture(t)
	svc := f.entries()
	client := f.addUser(t, "client", domain.RoleClient)

	_, err := svc.Upsert(f.ctx, client.ID, EntryInput{Date: day(time.May, 16), Completed: true})
	wantErr(t, err, ErrFutureCompletion)
	wantKind(t, err, KindForbidden)

	// Planning ahead without completing is fine.
	if _, err := svc.Upsert(f.ctx, client.ID, EntryInput{Date: day(time.May, 16), Notes: "rest"}); err != nil {
		t.Fatalf("future non-completion: %v", err)
	}

	_, err = svc.Upsert(f.ctx, client.ID, EntryInput{Date: day(time.May, 15), Completed: true, CaloriesBurned: -1})
	wantErr(t, err, ErrNegativeCalories)

	bad := 25.0
	_, err = svc.Upsert(f.ctx, client.ID, EntryInput{Date: day(time.May, 15), Completed: true, Weight: &bad})
	wantErr(t, err, ErrInvalidWeight)
}

func TestUpsert_OneEntryPerDay(t *testing.T) {
	freezeClock(t, wednesday())
	f := newFixture(t)
	svc := f.entries()
	client := f.addUser(t, "client", domain.RoleClient)

	first, err := svc.Upsert(f.ctx, client.ID, EntryInput{
		Date:      time.Date(2024, time.May, 15, 7, 30, 0, 0, time.Local),
		Completed: true,
		Notes:     "morning run",
	})
	if err != nil {
		t.Fatalf("first upsert: %v", err)
	}
	if first.CompletedAt == nil {
		t.Errorf("completedAt not set")
	}
	if got := f.reload(t, client.ID).Profile.TotalWorkouts; got != 1 {
		t.Errorf("totalWorkouts = %d, want 1", got)
	}

	second, err := svc.Upsert(f.ctx, client.ID, EntryInput{
		Date:           time.Date(2024, time.May, 15, 21, 0, 0, 0, time.Local),
		Completed:      true,
		CaloriesBurned: 420,
	})
	if err != nil {
		t.Fatalf("second upsert: %v", err)
	}
	if second.ID != first.ID {
		t.Fatalf("second upsert created a new entry")
	}
	if second.Notes != "morning run" {
		t.Errorf("notes = %q, want previous value kept", second.Notes)
	}
	if got := f.reload(t, client.ID).Profile.TotalWorkouts; got != 1 {
		t.Errorf("totalWorkouts = %d after re-completion, want 1", got)
	}

	all, err := f.store.Entries().Find(f.ctx, repository.EntryFilter{ClientID: client.ID})
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("entries = %d, want 1", len(all))
	}
	if all[0].CaloriesBurned != 420 {
		t.Errorf("calories = %v, want 420", all[0].CaloriesBurned)
	}

	undone, err := svc.Upsert(f.ctx, client.ID, EntryInput{Date: day(time.May, 15), Completed: false, Reason: "sick"})
	if err != nil {
		t.Fatalf("undo: %v", err)
	}
	if undone.CompletedAt != nil || undone.Reason != "sick" {
		t.Errorf("unexpected entry after undo: %+v", undone)
	}
	if got := f.reload(t, client.ID).Profile.TotalWorkouts; got != 0 {
		t.Errorf("totalWorkouts = %d after undo, want 0", got)
	}
}

func TestUpsert_CompletionRecordsWeightAndNotifies(t *testing.T) {
	freezeClock(t, wednesday())
	f := newFixture(t)
	client := f.addUser(t, "client", domain.RoleClient)

	w := 78.5
	if _, err := f.entries().Upsert(f.ctx, client.ID, EntryInput{Date: day(time.May, 15), Completed: true, Weight: &w}); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	got := f.reload(t, client.ID)
	if got.Profile.Weight != 78.5 || len(got.Profile.WeightHistory) != 1 {
		t.Errorf("weight not recorded: %+v", got.Profile)
	}
	if n := countKind(f.notifications(t, client.ID), domain.NotificationSystem); n != 1 {
		t.Errorf("system notifications = %d, want 1", n)
	}
}

func TestStats_Buckets(t *testing.T) {
	freezeClock(t, wednesday())
	f := newFixture(t)
	svc := f.entries()
	client := f.addUser(t, "client", domain.RoleClient)

	for _, in := range []EntryInput{
		{Date: day(time.April, 29), Completed: true, CaloriesBurned: 100},
		{Date: day(time.May, 13), Completed: true, CaloriesBurned: 200},
		{Date: day(time.May, 14), Completed: false},
		{Date: day(time.May, 15), Completed: true, CaloriesBurned: 300},
	} {
		if _, err := svc.Upsert(f.ctx, client.ID, in); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	tests := []struct {
		period string
		want   []domain.EntryBucket
	}{
		{"", []domain.EntryBucket{{Key: "2024-W18", Count: 1, Calories: 100}, {Key: "2024-W20", Count: 2, Calories: 500}}},
		{"week", []domain.EntryBucket{{Key: "2024-W18", Count: 1, Calories: 100}, {Key: "2024-W20", Count: 2, Calories: 500}}},
		{"month", []domain.EntryBucket{{Key: "2024-04", Count: 1, Calories: 100}, {Key: "2024-05", Count: 2, Calories: 500}}},
	}
	for _, tt := range tests {
		t.Run("period="+tt.period, func(t *testing.T) {
			got, err := svc.Stats(f.ctx, client, nil, tt.period)
			if err != nil {
				t.Fatalf("stats: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("buckets = %+v, want %+v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("bucket %d = %+v, want %+v", i, got[i], tt.want[i])
				}
			}
		})
	}

	_, err := svc.Stats(f.ctx, client, nil, "year")
	wantErr(t, err, ErrInvalidPeriod)
}

func TestEntryAccess(t *testing.T) {
	f := newFixture(t)
	svc := f.entries()
	trainer := f.addUser(t, "trainer", domain.RoleTrainer)
	stranger := f.addUser(t, "stranger", domain.RoleTrainer)
	admin := f.addUser(t, "admin", domain.RoleAdmin)
	client := f.addUser(t, "client", domain.RoleClient, withTrainer(trainer.ID))
	other := f.addUser(t, "other", domain.RoleClient)

	tests := []struct {
		name   string
		viewer *domain.User
		want   error
	}{
		{"own trainer", trainer, nil},
		{"admin", admin, nil},
		{"self", client, nil},
		{"other trainer", stranger, ErrNotYourClient},
		{"other client", other, ErrEntryAccess},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id := client.ID
			_, err := svc.History(f.ctx, tt.viewer, &id, HistoryFilter{})
			if tt.want == nil {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			wantErr(t, err, tt.want)
		})
	}
}

func TestCheckMissedWorkout(t *testing.T) {
	freezeClock(t, wednesday())

	seedPlan := func(t *testing.T, f *fixture, clientID primitive.ObjectID, days ...string) {
		t.Helper()
		plan := &domain.Plan{Client: clientID, Trainer: primitive.NewObjectID(), Name: "p"}
		for _, d := range days {
			plan.Days = append(plan.Days, domain.WorkoutDay{DayOfWeek: d, Exercises: exercises(1)})
		}
		if _, err := f.store.Plans().Create(f.ctx, plan); err != nil {
			t.Fatalf("seed plan: %v", err)
		}
	}

	t.Run("no plan", func(t *testing.T) {
		f := newFixture(t)
		client := f.addUser(t, "client", domain.RoleClient)
		got, err := f.entries().CheckMissedWorkout(f.ctx, client.ID)
		if err != nil {
			t.Fatalf("check: %v", err)
		}
		if got.Missed || got.Notified {
			t.Errorf("got %+v, want nothing missed", got)
		}
	})

	t.Run("rest day", func(t *testing.T) {
		f := newFixture(t)
		client := f.addUser(t, "client", domain.RoleClient)
		seedPlan(t, f, client.ID, "Monday")
		got, err := f.entries().CheckMissedWorkout(f.ctx, client.ID)
		if err != nil {
			t.Fatalf("check: %v", err)
		}
		if got.Missed {
			t.Errorf("got %+v, want not missed", got)
		}
	})

	t.Run("completed", func(t *testing.T) {
		f := newFixture(t)
		client := f.addUser(t, "client", domain.RoleClient)
		seedPlan(t, f, client.ID, "Tuesday")
		if _, err := f.entries().Upsert(f.ctx, client.ID, EntryInput{Date: day(time.May, 14), Completed: true}); err != nil {
			t.Fatalf("upsert: %v", err)
		}
		got, err := f.entries().CheckMissedWorkout(f.ctx, client.ID)
		if err != nil {
			t.Fatalf("check: %v", err)
		}
		if got.Missed {
			t.Errorf("got %+v, want not missed", got)
		}
	})

	t.Run("missed notifies once", func(t *testing.T) {
		f := newFixture(t)
		client := f.addUser(t, "client", domain.RoleClient, func(u *domain.User) {
			u.NotificationSettings = domain.NotificationSettings{}
		})
		seedPlan(t, f, client.ID, "Tuesday")

		got, err := f.entries().CheckMissedWorkout(f.ctx, client.ID)
		if err != nil {
			t.Fatalf("check: %v", err)
		}
		if !got.Missed || !got.Notified {
			t.Fatalf("got %+v, want missed and notified", got)
		}
		again, err := f.entries().CheckMissedWorkout(f.ctx, client.ID)
		if err != nil {
			t.Fatalf("second check: %v", err)
		}
		if !again.Missed || again.Notified {
			t.Errorf("got %+v on second check, want missed without a new alert", again)
		}
		if n := countKind(f.notifications(t, client.ID), domain.NotificationAlert); n != 1 {
			t.Errorf("alerts = %d, want 1", n)
		}
	})
}

// racingEntries runs between once, right after the next day lookup.
type racingEntries struct {
	repository.EntryRepository
	between func()
}

func (r *racingEntries) GetByClientAndDate(ctx context.Context, clientID primitive.ObjectID, date time.Time) (*domain.Entry, error) {
	e, err := r.EntryRepository.GetByClientAndDate(ctx, clientID, date)
	if fn := r.between; fn != nil {
		r.between = nil
		fn()
	}
	return e, err
}

func TestUpsert_ConcurrentCompletionCountsOnce(t *testing.T) {
	freezeClock(t, wednesday())
	f := newFixture(t)
	plain := f.entries()
	client := f.addUser(t, "client", domain.RoleClient)

	if _, err := plain.Upsert(f.ctx, client.ID, EntryInput{Date: day(time.May, 15)}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	entries := &racingEntries{EntryRepository: f.store.Entries()}
	entries.between = func() {
		if _, err := plain.Upsert(f.ctx, client.ID, EntryInput{Date: day(time.May, 15), Completed: true}); err != nil {
			t.Fatalf("competing upsert: %v", err)
		}
	}
	racing := NewEntryService(f.store.Users(), entries, f.store.Plans(), f.store.Notifications())

	got, err := racing.Upsert(f.ctx, client.ID, EntryInput{Date: day(time.May, 15), Completed: true, CaloriesBurned: 250})
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if !got.Completed || got.CaloriesBurned != 250 {
		t.Errorf("entry = %+v", got)
	}
	if n := f.reload(t, client.ID).Profile.TotalWorkouts; n != 1 {
		t.Errorf("total workouts = %d, want 1", n)
	}
	if n := countKind(f.notifications(t, client.ID), domain.NotificationSystem); n != 1 {
		t.Errorf("system notifications = %d, want 1", n)
	}
}
