package service

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"

	"github.com/PauloVieira29/Fitness/internal/domain"
	"github.com/PauloVieira29/Fitness/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"
)

// Trainer directory paging.
const (
	DefaultTrainerPageSize = 12
	MaxTrainerPageSize     = 50
	MinPasswordLength      = 6
)

// --- Error Definitions ---
var (
	ErrPasswordFieldsRequired = newError(KindValidation, "all password fields are required")
	ErrPasswordMismatch       = newError(KindValidation, "the new passwords do not match")
	ErrPasswordTooShort       = newError(KindValidation, "the new password must be at least 6 characters long")
	ErrCurrentPassword        = newError(KindValidation, "current password is incorrect")
	ErrSpecialtiesForbidden   = newError(KindValidation, "only trainers can set specialties")
	ErrUnknownSpecialty       = newError(KindValidation, "unknown or inactive specialty")
	ErrSupportUnavailable     = newError(KindNotFound, "support is unavailable")
)

// ProfilePatch carries the profile fields a user may edit; nil means
// untouched. ClearBirthDate removes the birth date.
type ProfilePatch struct {
	Name           *string
	Email          *string
	Bio            *string
	Goal           *string
	Weight         *float64
	Height         *float64
	BirthDate      *time.Time
	ClearBirthDate bool
	AvatarURL      *string
	Specialties    []primitive.ObjectID // nil means untouched
}

// UserView is a user with referenced specialties loaded.
type UserView struct {
	User        domain.User
	Specialties []domain.Specialty
}

// TrainerView adds the live client count to a trainer profile.
type TrainerView struct {
	UserView
	ClientsCount int64
}

// TrainerPage is one page of the trainer directory.
type TrainerPage struct {
	Trainers []domain.User
	Total    int64
	Page     int
	Pages    int
}

type UserService interface {
	Me(ctx context.Context, userID primitive.ObjectID) (*UserView, error)
	UpdateProfile(ctx context.Context, userID primitive.ObjectID, patch ProfilePatch) (*UserView, error)
	ChangePassword(ctx context.Context, userID primitive.ObjectID, current, next, confirm string) error
	RecordWeight(ctx context.Context, userID primitive.ObjectID, weight float64) (*domain.Profile, error)
	ListTrainers(ctx context.Context, query string, page, limit int) (*TrainerPage, error)
	GetTrainer(ctx context.Context, trainerID primitive.ObjectID) (*TrainerView, error)
	MyClients(ctx context.Context, trainerID primitive.ObjectID) ([]domain.User, error)
	GetClient(ctx context.Context, trainerID, clientID primitive.ObjectID) (*UserView, error)
	SupportAgent(ctx context.Context) (*domain.User, error)
}

type userService struct {
	userRepo      repository.UserRepository
	specialtyRepo repository.SpecialtyRepository
}

func NewUserService(userRepo repository.UserRepository, specialtyRepo repository.SpecialtyRepository) UserService {
	return &userService{userRepo: userRepo, specialtyRepo: specialtyRepo}
}

func (s *userService) get(ctx context.Context, id primitive.ObjectID) (*domain.User, error) {
	u, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return u, nil
}

func (s *userService) view(ctx context.Context, u *domain.User) (*UserView, error) {
	specs, err := loadSpecialties(ctx, s.specialtyRepo, u.Profile.Specialties)
	if err != nil {
		return nil, err
	}
	return &UserView{User: *u, Specialties: specs}, nil
}

// loadSpecialties resolves ids, skipping ones that no longer exist.
func loadSpecialties(ctx context.Context, repo repository.SpecialtyRepository, ids []primitive.ObjectID) ([]domain.Specialty, error) {
	out := make([]domain.Specialty, 0, len(ids))
	for _, id := range ids {
		sp, err := repo.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				continue
			}
			return nil, err
		}
		out = append(out, *sp)
	}
	return out, nil
}

func (s *userService) Me(ctx context.Context, userID primitive.ObjectID) (*UserView, error) {
	u, err := s.get(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.view(ctx, u)
}

func (s *userService) UpdateProfile(ctx context.Context, userID primitive.ObjectID, patch ProfilePatch) (*UserView, error) {
	u, err := s.get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if patch.Specialties != nil && !u.IsTrainer() {
		return nil, ErrSpecialtiesForbidden
	}
	if err := applyProfilePatch(ctx, s.specialtyRepo, u, patch); err != nil {
		return nil, err
	}
	if err := s.userRepo.Update(ctx, u); err != nil {
		return nil, err
	}
	return s.view(ctx, u)
}

// applyProfilePatch validates and applies patch to u in memory.
func applyProfilePatch(ctx context.Context, specialties repository.SpecialtyRepository, u *domain.User, patch ProfilePatch) error {
	p := &u.Profile
	if patch.Weight != nil {
		if !validWeight(*patch.Weight) {
			return ErrInvalidWeight
		}
		p.RecordWeight(*patch.Weight, nowFunc())
	}
	if patch.Height != nil {
		if *patch.Height < 0 {
			return validationf("height must be positive")
		}
		p.Height = *patch.Height
	}
	if patch.Specialties != nil {
		ids := make([]primitive.ObjectID, 0, len(patch.Specialties))
		seen := map[primitive.ObjectID]bool{}
		for _, id := range patch.Specialties {
			if seen[id] {
				continue
			}
			sp, err := specialties.GetByID(ctx, id)
			if err != nil {
				if errors.Is(err, repository.ErrNotFound) {
					return ErrUnknownSpecialty
				}
				return err
			}
			if !sp.Active {
				return ErrUnknownSpecialty
			}
			seen[id] = true
			ids = append(ids, id)
		}
		p.Specialties = ids
	}

	set := func(dst *string, v *string) {
		if v != nil {
			*dst = strings.TrimSpace(*v)
		}
	}
	set(&p.Name, patch.Name)
	set(&p.Email, patch.Email)
	set(&p.Bio, patch.Bio)
	set(&p.Goal, patch.Goal)
	set(&p.AvatarURL, patch.AvatarURL)

	switch {
	case patch.ClearBirthDate:
		p.BirthDate = nil
	case patch.BirthDate != nil:
		d := *patch.BirthDate
		p.BirthDate = &d
	}
	return nil
}

func (s *userService) ChangePassword(ctx context.Context, userID primitive.ObjectID, current, next, confirm string) error {
	if current == "" || next == "" || confirm == "" {
		return ErrPasswordFieldsRequired
	}
	if next != confirm {
		return ErrPasswordMismatch
	}
	if len(next) < MinPasswordLength {
		return ErrPasswordTooShort
	}

	u, err := s.get(ctx, userID)
	if err != nil {
		return err
	}
	if !checkPassword(u, current) {
		return ErrCurrentPassword
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(next), bcrypt.DefaultCost)
	if err != nil {
		return ErrHashingFailed
	}
	u.PasswordHash = string(hash)
	return s.userRepo.Update(ctx, u)
}

func (s *userService) RecordWeight(ctx context.Context, userID primitive.ObjectID, weight float64) (*domain.Profile, error) {
	if !validWeight(weight) {
		return nil, ErrInvalidWeight
	}
	u, err := s.get(ctx, userID)
	if err != nil {
		return nil, err
	}
	u.Profile.RecordWeight(weight, nowFunc())
	if err := s.userRepo.Update(ctx, u); err != nil {
		return nil, err
	}
	return &u.Profile, nil
}

func (s *userService) ListTrainers(ctx context.Context, query string, page, limit int) (*TrainerPage, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = DefaultTrainerPageSize
	}
	if limit > MaxTrainerPageSize {
		limit = MaxTrainerPageSize
	}
	trainers, total, err := s.userRepo.ListTrainers(ctx, repository.TrainerFilter{
		Query: strings.TrimSpace(query),
		Page:  page,
		Limit: limit,
	})
	if err != nil {
		return nil, err
	}
	return &TrainerPage{
		Trainers: trainers,
		Total:    total,
		Page:     page,
		Pages:    int(math.Ceil(float64(total) / float64(limit))),
	}, nil
}

func (s *userService) GetTrainer(ctx context.Context, trainerID primitive.ObjectID) (*TrainerView, error) {
	u, err := s.userRepo.GetByID(ctx, trainerID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrTrainerNotFound
		}
		return nil, err
	}
	if !u.IsTrainer() || !u.Validated {
		return nil, ErrTrainerNotFound
	}
	v, err := s.view(ctx, u)
	if err != nil {
		return nil, err
	}
	count, err := s.userRepo.CountClientsOfTrainer(ctx, trainerID)
	if err != nil {
		return nil, err
	}
	return &TrainerView{UserView: *v, ClientsCount: count}, nil
}

func (s *userService) MyClients(ctx context.Context, trainerID primitive.ObjectID) ([]domain.User, error) {
	return s.userRepo.ListClientsOfTrainer(ctx, trainerID)
}

func (s *userService) GetClient(ctx context.Context, trainerID, clientID primitive.ObjectID) (*UserView, error) {
	client, err := ownedClient(ctx, s.userRepo, trainerID, clientID)
	if err != nil {
		return nil, err
	}
	return s.view(ctx, client)
}

func (s *userService) SupportAgent(ctx context.Context) (*domain.User, error) {
	admin, err := s.userRepo.FindFirstByRole(ctx, domain.RoleAdmin)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrSupportUnavailable
		}
		return nil, err
	}
	return admin, nil
}
