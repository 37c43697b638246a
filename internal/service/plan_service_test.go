package service

import (
	"strings"
	"testing"
	"time"

	"github.com/PauloVieira29/Fitness/internal/domain"
)

func (f *fixture) plans() PlanService {
	return NewPlanService(f.store.Users(), f.store.Plans(), f.store.PlanTemplates(), f.store.Entries(), f.store.Notifications())
}

func exercises(n int) []domain.Exercise {
	out := make([]domain.Exercise, n)
	for i := range out {
		out[i] = domain.Exercise{Name: "Squat", Sets: 3, Reps: "10"}
	}
	return out
}

func TestPlanInputNormalize(t *testing.T) {
	tests := []struct {
		name    string
		in      PlanInput
		cap     bool
		wantErr string
	}{
		{name: "defaults", in: PlanInput{}},
		{name: "lowercase weekday", in: PlanInput{Days: []domain.WorkoutDay{{DayOfWeek: "monday", Exercises: exercises(1)}}}},
		{name: "bad weekday", in: PlanInput{Days: []domain.WorkoutDay{{DayOfWeek: "Funday"}}}, wantErr: "invalid dayOfWeek"},
		{name: "repeated day", in: PlanInput{Days: []domain.WorkoutDay{{DayOfWeek: "Monday"}, {DayOfWeek: "MONDAY"}}}, wantErr: "more than once"},
		{name: "sessions out of range", in: PlanInput{SessionsPerWeek: 6}, wantErr: "sessionsPerWeek"},
		{name: "negative weeks", in: PlanInput{Weeks: -1}, wantErr: "weeks"},
		{name: "missing sets", in: PlanInput{Days: []domain.WorkoutDay{{DayOfWeek: "Friday", Exercises: []domain.Exercise{{Name: "Row"}}}}}, wantErr: "sets"},
		{name: "eleven exercises capped", in: PlanInput{Days: []domain.WorkoutDay{{DayOfWeek: "Monday", Exercises: exercises(11)}}}, cap: true, wantErr: "Monday has 11"},
		{name: "eleven exercises uncapped", in: PlanInput{Days: []domain.WorkoutDay{{DayOfWeek: "Monday", Exercises: exercises(11)}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := tt.in.normalize(domain.DefaultPlanWeeks, tt.cap)
			if tt.wantErr != "" {
				wantKind(t, err, KindValidation)
				if !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("error %q does not mention %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if out.Weeks != domain.DefaultPlanWeeks || out.SessionsPerWeek != domain.DefaultSessionsPerWeek {
				t.Errorf("defaults not applied: %+v", out)
			}
			for _, d := range out.Days {
				if _, ok := domain.ParseWeekday(d.DayOfWeek); !ok || d.DayOfWeek[0] < 'A' || d.DayOfWeek[0] > 'Z' {
					t.Errorf("day %q not canonical", d.DayOfWeek)
				}
			}
		})
	}
}

func TestCreateDirect_RejectsElevenExercises(t *testing.T) {
	f := newFixture(t)
	trainer := f.addUser(t, "trainer", domain.RoleTrainer)
	client := f.addUser(t, "client", domain.RoleClient, withTrainer(trainer.ID))

	_, err := f.plans().CreateDirect(f.ctx, trainer.ID, client.ID, PlanInput{
		Days: []domain.WorkoutDay{{DayOfWeek: "Monday", Exercises: exercises(11)}},
	})
	wantKind(t, err, KindValidation)
	if _, err := f.store.Plans().GetByClient(f.ctx, client.ID); err == nil {
		t.Fatal("plan stored despite validation failure")
	}
}

func TestCreateDirect_NotYourClient(t *testing.T) {
	f := newFixture(t)
	trainer := f.addUser(t, "trainer", domain.RoleTrainer)
	other := f.addUser(t, "other", domain.RoleTrainer)
	client := f.addUser(t, "client", domain.RoleClient, withTrainer(other.ID))

	_, err := f.plans().CreateDirect(f.ctx, trainer.ID, client.ID, PlanInput{})
	wantErr(t, err, ErrNotYourClient)
}

func TestPlanReplacement(t *testing.T) {
	f := newFixture(t)
	svc := f.plans()
	templates := NewTemplateService(f.store.PlanTemplates())

	trainer := f.addUser(t, "trainer", domain.RoleTrainer)
	client := f.addUser(t, "client", domain.RoleClient, withTrainer(trainer.ID))

	tpl, err := templates.Create(f.ctx, trainer.ID, PlanInput{
		Name: "Strength",
		Days: []domain.WorkoutDay{{DayOfWeek: "Tuesday", Exercises: exercises(2)}},
	})
	if err != nil {
		t.Fatalf("create template: %v", err)
	}
	if tpl.Weeks != domain.DefaultTemplateWeeks {
		t.Errorf("template weeks = %d, want %d", tpl.Weeks, domain.DefaultTemplateWeeks)
	}

	first, err := svc.ApplyTemplate(f.ctx, trainer.ID, client.ID, tpl.ID)
	if err != nil {
		t.Fatalf("apply template: %v", err)
	}
	if !first.Plan.IsFromTemplate || first.Plan.Name != "Strength" {
		t.Errorf("unexpected plan from template: %+v", first.Plan)
	}

	second, err := svc.CreateDirect(f.ctx, trainer.ID, client.ID, PlanInput{
		Days: []domain.WorkoutDay{{DayOfWeek: "Friday", Exercises: exercises(10)}},
	})
	if err != nil {
		t.Fatalf("create direct: %v", err)
	}
	if second.Plan.Name != domain.DefaultPlanName {
		t.Errorf("name = %q, want default", second.Plan.Name)
	}

	plans, err := f.store.Plans().ListByTrainer(f.ctx, trainer.ID, &client.ID)
	if err != nil {
		t.Fatalf("list plans: %v", err)
	}
	if len(plans) != 1 || plans[0].ID != second.Plan.ID {
		t.Fatalf("client has %d plans, want only the latest", len(plans))
	}
	if got := f.reload(t, trainer.ID).Profile.TotalPlans; got != 2 {
		t.Errorf("totalPlans = %d, want 2", got)
	}
}

func TestApplyTemplate_ForeignTemplate(t *testing.T) {
	f := newFixture(t)
	trainer := f.addUser(t, "trainer", domain.RoleTrainer)
	other := f.addUser(t, "other", domain.RoleTrainer)
	client := f.addUser(t, "client", domain.RoleClient, withTrainer(trainer.ID))

	tpl, err := NewTemplateService(f.store.PlanTemplates()).Create(f.ctx, other.ID, PlanInput{Name: "Theirs"})
	if err != nil {
		t.Fatalf("create template: %v", err)
	}
	_, err = f.plans().ApplyTemplate(f.ctx, trainer.ID, client.ID, tpl.ID)
	wantErr(t, err, ErrTemplateNotFound)
}

func TestGetForClient_MarksPlanNotificationsRead(t *testing.T) {
	f := newFixture(t)
	svc := f.plans()
	trainer := f.addUser(t, "trainer", domain.RoleTrainer)
	client := f.addUser(t, "client", domain.RoleClient, withTrainer(trainer.ID))

	_, err := svc.GetForClient(f.ctx, client.ID)
	wantErr(t, err, ErrPlanNotFound)

	if _, err := svc.CreateDirect(f.ctx, trainer.ID, client.ID, PlanInput{}); err != nil {
		t.Fatalf("create: %v", err)
	}
	list := f.notifications(t, client.ID)
	if len(list) != 1 || list[0].Kind != domain.NotificationPlan || list[0].IsRead {
		t.Fatalf("want one unread plan notification, got %+v", list)
	}

	view, err := svc.GetForClient(f.ctx, client.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if view.Trainer == nil || view.Trainer.ID != trainer.ID {
		t.Errorf("trainer not populated")
	}
	if list := f.notifications(t, client.ID); !list[0].IsRead {
		t.Errorf("plan notification still unread")
	}
}

func TestRemoveForClient(t *testing.T) {
	f := newFixture(t)
	svc := f.plans()
	trainer := f.addUser(t, "trainer", domain.RoleTrainer)
	other := f.addUser(t, "other", domain.RoleTrainer)
	client := f.addUser(t, "client", domain.RoleClient, withTrainer(trainer.ID))

	wantErr(t, svc.RemoveForClient(f.ctx, trainer.ID, client.ID), ErrPlanNotFound)
	if _, err := svc.CreateDirect(f.ctx, trainer.ID, client.ID, PlanInput{}); err != nil {
		t.Fatalf("create: %v", err)
	}
	wantErr(t, svc.RemoveForClient(f.ctx, other.ID, client.ID), ErrPlanAccessDenied)
	if err := svc.RemoveForClient(f.ctx, trainer.ID, client.ID); err != nil {
		t.Fatalf("remove: %v", err)
	}
}

func TestMyStats(t *testing.T) {
	loc := time.Local
	// Wednesday
	now := time.Date(2024, time.May, 15, 18, 0, 0, 0, loc)
	freezeClock(t, now)

	f := newFixture(t)
	trainer := f.addUser(t, "trainer", domain.RoleTrainer)
	client := f.addUser(t, "client", domain.RoleClient, withTrainer(trainer.ID), func(u *domain.User) {
		u.Profile.RecordWeight(82, time.Date(2024, time.April, 20, 9, 0, 0, 0, loc))
		u.Profile.RecordWeight(80, time.Date(2024, time.May, 10, 9, 0, 0, 0, loc))
	})
	if _, err := f.plans().CreateDirect(f.ctx, trainer.ID, client.ID, PlanInput{
		Days: []domain.WorkoutDay{
			{DayOfWeek: "Monday", Exercises: exercises(1)},
			{DayOfWeek: "Wednesday", Exercises: exercises(1)},
			{DayOfWeek: "Friday", Exercises: exercises(1)},
			{DayOfWeek: "Saturday", Exercises: exercises(1)},
		},
	}); err != nil {
		t.Fatalf("create plan: %v", err)
	}

	for _, e := range []domain.Entry{
		{Date: time.Date(2024, time.April, 30, 0, 0, 0, 0, loc), Completed: true},
		{Date: time.Date(2024, time.May, 2, 0, 0, 0, 0, loc), Completed: true},
		{Date: time.Date(2024, time.May, 13, 0, 0, 0, 0, loc), Completed: true},
		{Date: time.Date(2024, time.May, 14, 0, 0, 0, 0, loc), Completed: false},
		{Date: time.Date(2024, time.May, 15, 0, 0, 0, 0, loc), Completed: true, CaloriesBurned: 350},
	} {
		e.Client = client.ID
		if _, err := f.store.Entries().Create(f.ctx, &e); err != nil {
			t.Fatalf("seed entry: %v", err)
		}
	}

	stats, err := f.plans().MyStats(f.ctx, client.ID)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.WorkoutsThisMonth != 3 {
		t.Errorf("workoutsThisMonth = %d, want 3", stats.WorkoutsThisMonth)
	}
	if stats.WeeklyAdherence != "50%" {
		t.Errorf("weeklyAdherence = %q, want 50%%", stats.WeeklyAdherence)
	}
	if stats.WeightLostThisMonth != "2.0 kg" {
		t.Errorf("weightLostThisMonth = %q, want 2.0 kg", stats.WeightLostThisMonth)
	}
	if stats.CaloriesToday != 350 {
		t.Errorf("caloriesToday = %v, want 350", stats.CaloriesToday)
	}
}

func TestAdherence(t *testing.T) {
	tests := []struct {
		done, planned int
		want          string
	}{
		{0, 0, "0%"},
		{1, 3, "33%"},
		{2, 3, "67%"},
		{5, 4, "100%"},
	}
	for _, tt := range tests {
		if got := adherence(tt.done, tt.planned); got != tt.want {
			t.Errorf("adherence(%d, %d) = %q, want %q", tt.done, tt.planned, got, tt.want)
		}
	}
}
