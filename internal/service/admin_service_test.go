package service

import (
	"testing"

	"github.com/PauloVieira29/Fitness/internal/domain"
)

func (f *fixture) admin() AdminService {
	return NewAdminService(f.store.Users(), f.store.Specialties())
}

func TestAdminCreateAndPatch(t *testing.T) {
	f := newFixture(t)
	svc := f.admin()
	trainer := f.addUser(t, "trainer", domain.RoleTrainer)

	created, err := svc.CreateUser(f.ctx, AdminUserInput{Username: "coach", Password: "pw123456", Role: domain.RoleTrainer})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.Validated {
		t.Errorf("admin-created trainer should start unvalidated")
	}
	helper, err := svc.CreateUser(f.ctx, AdminUserInput{Username: "helper", Password: "pw123456", Role: domain.RoleAdmin})
	if err != nil {
		t.Fatalf("create admin: %v", err)
	}
	if !helper.Validated {
		t.Errorf("non-trainer accounts start validated")
	}

	_, err = svc.CreateUser(f.ctx, AdminUserInput{Username: "coach", Password: "x"})
	wantErr(t, err, ErrUsernameTaken)

	validated, err := svc.ValidateTrainer(f.ctx, created.ID)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if !validated.Validated {
		t.Errorf("trainer not validated")
	}
	_, err = svc.ValidateTrainer(f.ctx, helper.ID)
	wantErr(t, err, ErrNotATrainer)

	client := f.addUser(t, "client", domain.RoleClient, withTrainer(trainer.ID))
	role := domain.RoleTrainer
	patched, err := svc.UpdateUser(f.ctx, client.ID, AdminUserPatch{
		Username: strPtr("promoted"),
		Role:     &role,
		Profile:  &ProfilePatch{Bio: strPtr("new coach")},
	})
	if err != nil {
		t.Fatalf("patch: %v", err)
	}
	stored := f.reload(t, patched.ID)
	if stored.Username != "promoted" || stored.Role != domain.RoleTrainer || stored.TrainerAssigned != nil || stored.Profile.Bio != "new coach" {
		t.Errorf("unexpected patched user %+v", stored)
	}

	_, err = svc.UpdateUser(f.ctx, client.ID, AdminUserPatch{Username: strPtr("coach")})
	wantErr(t, err, ErrUsernameTaken)
}

func TestAdminStatusAndDelete(t *testing.T) {
	f := newFixture(t)
	svc := f.admin()
	admin := f.addUser(t, "admin", domain.RoleAdmin)
	target := f.addUser(t, "target", domain.RoleClient)

	tests := []struct {
		name     string
		target   *domain.User
		password string
		want     error
		kind     Kind
	}{
		{"no password", target, "", ErrAdminPasswordRequired, KindValidation},
		{"wrong password", target, "nope", ErrAdminPassword, KindUnauthorized},
		{"self", admin, testPassword, ErrSelfTarget, KindValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.SetStatus(f.ctx, admin.ID, tt.target.ID, tt.password, false)
			wantErr(t, err, tt.want)
			wantKind(t, err, tt.kind)

			err = svc.DeleteUser(f.ctx, admin.ID, tt.target.ID, tt.password)
			wantErr(t, err, tt.want)
		})
	}

	got, err := svc.SetStatus(f.ctx, admin.ID, target.ID, testPassword, false)
	if err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	if got.IsActive || f.reload(t, target.ID).IsActive {
		t.Errorf("target still active")
	}

	if err := svc.DeleteUser(f.ctx, admin.ID, target.ID, testPassword); err != nil {
		t.Fatalf("delete: %v", err)
	}
	_, err = svc.SetStatus(f.ctx, admin.ID, target.ID, testPassword, true)
	wantErr(t, err, ErrUserNotFound)

	users, err := svc.ListUsers(f.ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(users) != 1 {
		t.Errorf("users = %d, want 1", len(users))
	}
}
