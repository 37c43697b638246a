package service

import (
	"fmt"
	"testing"

	"github.com/PauloVieira29/Fitness/internal/domain"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func (f *fixture) users() UserService {
	return NewUserService(f.store.Users(), f.store.Specialties())
}

func strPtr(s string) *string { return &s }

func TestChangePassword(t *testing.T) {
	f := newFixture(t)
	svc := f.users()
	u := f.addUser(t, "client", domain.RoleClient)

	tests := []struct {
		name                   string
		current, next, confirm string
		want                   error
	}{
		{"missing field", testPassword, "", "", ErrPasswordFieldsRequired},
		{"mismatch", testPassword, "newpass1", "newpass2", ErrPasswordMismatch},
		{"too short", testPassword, "abc", "abc", ErrPasswordTooShort},
		{"wrong current", "nope", "newpass1", "newpass1", ErrCurrentPassword},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := svc.ChangePassword(f.ctx, u.ID, tt.current, tt.next, tt.confirm)
			wantErr(t, err, tt.want)
			wantKind(t, err, KindValidation)
		})
	}

	if err := svc.ChangePassword(f.ctx, u.ID, testPassword, "newpass1", "newpass1"); err != nil {
		t.Fatalf("change: %v", err)
	}
	if !checkPassword(f.reload(t, u.ID), "newpass1") {
		t.Errorf("password not updated")
	}
}

func TestUpdateProfile(t *testing.T) {
	f := newFixture(t)
	svc := f.users()
	client := f.addUser(t, "client", domain.RoleClient)
	trainer := f.addUser(t, "trainer", domain.RoleTrainer)

	active := &domain.Specialty{Name: "Yoga", Slug: "yoga", Active: true}
	inactive := &domain.Specialty{Name: "Boxing", Slug: "boxing"}
	for _, sp := range []*domain.Specialty{active, inactive} {
		if _, err := f.store.Specialties().Create(f.ctx, sp); err != nil {
			t.Fatalf("seed specialty: %v", err)
		}
	}

	weight := 72.0
	view, err := svc.UpdateProfile(f.ctx, client.ID, ProfilePatch{Name: strPtr("  Ana "), Weight: &weight})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if view.User.Profile.Name != "Ana" || view.User.Profile.Weight != 72 {
		t.Errorf("unexpected profile %+v", view.User.Profile)
	}

	bad := 500.0
	_, err = svc.UpdateProfile(f.ctx, client.ID, ProfilePatch{Weight: &bad})
	wantErr(t, err, ErrInvalidWeight)

	_, err = svc.UpdateProfile(f.ctx, client.ID, ProfilePatch{Specialties: []primitive.ObjectID{active.ID}})
	wantErr(t, err, ErrSpecialtiesForbidden)

	_, err = svc.UpdateProfile(f.ctx, trainer.ID, ProfilePatch{Specialties: []primitive.ObjectID{inactive.ID}})
	wantErr(t, err, ErrUnknownSpecialty)

	view, err = svc.UpdateProfile(f.ctx, trainer.ID, ProfilePatch{Specialties: []primitive.ObjectID{active.ID, active.ID}})
	if err != nil {
		t.Fatalf("set specialties: %v", err)
	}
	if len(view.User.Profile.Specialties) != 1 || len(view.Specialties) != 1 || view.Specialties[0].Name != "Yoga" {
		t.Errorf("specialties not populated: %+v", view.Specialties)
	}
}

func TestRecordWeight(t *testing.T) {
	f := newFixture(t)
	svc := f.users()
	u := f.addUser(t, "client", domain.RoleClient)

	for _, w := range []float64{30, 300, 0} {
		_, err := svc.RecordWeight(f.ctx, u.ID, w)
		wantErr(t, err, ErrInvalidWeight)
	}
	if _, err := svc.RecordWeight(f.ctx, u.ID, 90); err != nil {
		t.Fatalf("first: %v", err)
	}
	p, err := svc.RecordWeight(f.ctx, u.ID, 87.5)
	if err != nil {
		t.Fatalf("second: %v", err)
	}
	if p.InitialWeight != 90 || p.WeightLost != 2.5 {
		t.Errorf("profile = %+v, want initial 90 and 2.5 lost", p)
	}
	if len(p.WeightHistory) != 1 {
		t.Errorf("same-day readings should collapse, got %d", len(p.WeightHistory))
	}
}

func TestListTrainers(t *testing.T) {
	f := newFixture(t)
	svc := f.users()
	for i := 0; i < 15; i++ {
		f.addUser(t, fmt.Sprintf("trainer%02d", i), domain.RoleTrainer)
	}
	f.addUser(t, "unvalidated", domain.RoleTrainer, func(u *domain.User) { u.Validated = false })
	f.addUser(t, "client", domain.RoleClient)

	page, err := svc.ListTrainers(f.ctx, "", 0, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if page.Total != 15 || page.Page != 1 || page.Pages != 2 || len(page.Trainers) != DefaultTrainerPageSize {
		t.Errorf("page = total %d page %d pages %d len %d", page.Total, page.Page, page.Pages, len(page.Trainers))
	}

	page, err = svc.ListTrainers(f.ctx, "", 2, 1000)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if page.Pages != 1 || len(page.Trainers) != 0 {
		t.Errorf("limit not capped: pages %d len %d", page.Pages, len(page.Trainers))
	}

	page, err = svc.ListTrainers(f.ctx, "TRAINER01", 1, 10)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if page.Total != 1 {
		t.Errorf("search total = %d, want 1", page.Total)
	}
}

func TestGetTrainerAndClients(t *testing.T) {
	f := newFixture(t)
	svc := f.users()
	trainer := f.addUser(t, "trainer", domain.RoleTrainer)
	other := f.addUser(t, "other", domain.RoleTrainer)
	hidden := f.addUser(t, "hidden", domain.RoleTrainer, func(u *domain.User) { u.Validated = false })
	client := f.addUser(t, "client", domain.RoleClient, withTrainer(trainer.ID))

	view, err := svc.GetTrainer(f.ctx, trainer.ID)
	if err != nil {
		t.Fatalf("get trainer: %v", err)
	}
	if view.ClientsCount != 1 {
		t.Errorf("clientsCount = %d, want 1", view.ClientsCount)
	}
	_, err = svc.GetTrainer(f.ctx, hidden.ID)
	wantErr(t, err, ErrTrainerNotFound)
	_, err = svc.GetTrainer(f.ctx, client.ID)
	wantErr(t, err, ErrTrainerNotFound)

	clients, err := svc.MyClients(f.ctx, trainer.ID)
	if err != nil {
		t.Fatalf("my clients: %v", err)
	}
	if len(clients) != 1 || clients[0].ID != client.ID {
		t.Errorf("clients = %+v", clients)
	}

	_, err = svc.GetClient(f.ctx, other.ID, client.ID)
	wantErr(t, err, ErrNotYourClient)
}

func TestSupportAgent(t *testing.T) {
	f := newFixture(t)
	svc := f.users()

	_, err := svc.SupportAgent(f.ctx)
	wantErr(t, err, ErrSupportUnavailable)

	admin := f.addUser(t, "admin", domain.RoleAdmin)
	f.addUser(t, "admin2", domain.RoleAdmin)
	got, err := svc.SupportAgent(f.ctx)
	if err != nil {
		t.Fatalf("support: %v", err)
	}
	if got.ID != admin.ID {
		t.Errorf("support agent = %s, want the first admin", got.Username)
	}
}
