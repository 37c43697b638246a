package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/PauloVieira29/Fitness/internal/domain"
	"github.com/PauloVieira29/Fitness/internal/repository/memory"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"
)

const testPassword = "secret123"

type fixture struct {
	ctx   context.Context
	store *memory.Store
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return &fixture{ctx: context.Background(), store: memory.NewStore()}
}

// freezeClock pins the service clock to now for the duration of the test.
func freezeClock(t *testing.T, now time.Time) {
	t.Helper()
	prev := nowFunc
	nowFunc = func() time.Time { return now }
	t.Cleanup(func() { nowFunc = prev })
}

func (f *fixture) addUser(t *testing.T, username string, role domain.Role, opts ...func(*domain.User)) *domain.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	u := &domain.User{
		Username:             username,
		PasswordHash:         string(hash),
		Role:                 role,
		IsActive:             true,
		Validated:            true,
		NotificationSettings: domain.DefaultNotificationSettings(),
		Profile:              domain.Profile{Name: username},
	}
	for _, opt := range opts {
		opt(u)
	}
	if _, err := f.store.Users().Create(f.ctx, u); err != nil {
		t.Fatalf("create user %s: %v", username, err)
	}
	return u
}

func withTrainer(id primitive.ObjectID) func(*domain.User) {
	return func(u *domain.User) { u.TrainerAssigned = &id }
}

func (f *fixture) reload(t *testing.T, id primitive.ObjectID) *domain.User {
	t.Helper()
	u, err := f.store.Users().GetByID(f.ctx, id)
	if err != nil {
		t.Fatalf("reload user: %v", err)
	}
	return u
}

func (f *fixture) notifications(t *testing.T, id primitive.ObjectID) []domain.Notification {
	t.Helper()
	list, err := f.store.Notifications().ListRecent(f.ctx, id, 0)
	if err != nil {
		t.Fatalf("list notifications: %v", err)
	}
	return list
}

func countKind(list []domain.Notification, kind domain.NotificationKind) int {
	n := 0
	for _, item := range list {
		if item.Kind == kind {
			n++
		}
	}
	return n
}

func wantErr(t *testing.T, got, want error) {
	t.Helper()
	if !errors.Is(got, want) {
		t.Fatalf("error = %v, want %v", got, want)
	}
}

func wantKind(t *testing.T, err error, kind Kind) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected an error of kind %d, got nil", kind)
	}
	if got := KindOf(err); got != kind {
		t.Fatalf("KindOf(%v) = %d, want %d", err, got, kind)
	}
}
