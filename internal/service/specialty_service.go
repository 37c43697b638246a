package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/PauloVieira29/Fitness/internal/domain"
	"github.com/PauloVieira29/Fitness/internal/logging"
	"github.com/PauloVieira29/Fitness/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// --- Error Definitions ---
var (
	ErrSpecialtyNotFound   = newError(KindNotFound, "specialty not found")
	ErrSpecialtyExists     = newError(KindConflict, "a specialty with this name already exists")
	ErrSpecialtyName       = newError(KindValidation, "name must be between 2 and 50 characters")
	ErrSpecialtyDesc       = newError(KindValidation, "description must be at most 300 characters")
	ErrSpecialtyInUse      = newError(KindConflict, "specialty is still used by trainers")
	ErrSpecialtyNameNeeded = newError(KindValidation, "name is required")
)

// SpecialtyInput creates a specialty. Active defaults to true.
type SpecialtyInput struct {
	Name        string
	Description string
	Icon        string
	Active      *bool
}

// SpecialtyPatch edits a specialty; nil fields are untouched.
type SpecialtyPatch struct {
	Name        *string
	Description *string
	Icon        *string
	Active      *bool
}

type SpecialtyService interface {
	ListActive(ctx context.Context) ([]domain.Specialty, error)
	List(ctx context.Context) ([]domain.Specialty, error)
	Create(ctx context.Context, in SpecialtyInput) (*domain.Specialty, error)
	Update(ctx context.Context, id primitive.ObjectID, patch SpecialtyPatch) (*domain.Specialty, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
}

type specialtyService struct {
	specialtyRepo repository.SpecialtyRepository
	userRepo      repository.UserRepository
}

func NewSpecialtyService(specialtyRepo repository.SpecialtyRepository, userRepo repository.UserRepository) SpecialtyService {
	return &specialtyService{specialtyRepo: specialtyRepo, userRepo: userRepo}
}

func (s *specialtyService) ListActive(ctx context.Context) ([]domain.Specialty, error) {
	list, err := s.specialtyRepo.List(ctx, true)
	if err != nil {
		return nil, err
	}
	sort.Slice(list, func(i, j int) bool {
		return strings.ToLower(list[i].Name) < strings.ToLower(list[j].Name)
	})
	return list, nil
}

func (s *specialtyService) List(ctx context.Context) ([]domain.Specialty, error) {
	return s.specialtyRepo.List(ctx, false)
}

func checkSpecialtyName(name string) error {
	if name == "" {
		return ErrSpecialtyNameNeeded
	}
	if n := utf8.RuneCountInString(name); n < domain.SpecialtyNameMin || n > domain.SpecialtyNameMax {
		return ErrSpecialtyName
	}
	return nil
}

func checkSpecialtyDescription(desc string) error {
	if utf8.RuneCountInString(desc) > domain.SpecialtyDescriptionMax {
		return ErrSpecialtyDesc
	}
	return nil
}

// nameTaken reports whether another specialty already uses name.
func (s *specialtyService) nameTaken(ctx context.Context, name string, self primitive.ObjectID) (bool, error) {
	existing, err := s.specialtyRepo.GetByName(ctx, name)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return existing.ID != self, nil
}

func (s *specialtyService) Create(ctx context.Context, in SpecialtyInput) (*domain.Specialty, error) {
	// 1. Validate
	name := strings.TrimSpace(in.Name)
	if err := checkSpecialtyName(name); err != nil {
		return nil, err
	}
	desc := strings.TrimSpace(in.Description)
	if err := checkSpecialtyDescription(desc); err != nil {
		return nil, err
	}

	// 2. Uniqueness, case-insensitive
	taken, err := s.nameTaken(ctx, name, primitive.NilObjectID)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrSpecialtyExists
	}

	// 3. Persist
	sp := &domain.Specialty{
		Name:        name,
		Slug:        domain.Slugify(name),
		Description: desc,
		Icon:        strings.TrimSpace(in.Icon),
		Active:      in.Active == nil || *in.Active,
	}
	id, err := s.specialtyRepo.Create(ctx, sp)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrSpecialtyExists
		}
		return nil, err
	}
	sp.ID = id
	logging.Ctx(ctx).Info().Str("specialty_id", id.Hex()).Str("name", name).Msg("Specialty created")
	return sp, nil
}

func (s *specialtyService) Update(ctx context.Context, id primitive.ObjectID, patch SpecialtyPatch) (*domain.Specialty, error) {
	sp, err := s.specialtyRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrSpecialtyNotFound
		}
		return nil, err
	}

	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if err := checkSpecialtyName(name); err != nil {
			return nil, err
		}
		taken, err := s.nameTaken(ctx, name, sp.ID)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, ErrSpecialtyExists
		}
		sp.Name = name
		sp.Slug = domain.Slugify(name)
	}
	if patch.Description != nil {
		desc := strings.TrimSpace(*patch.Description)
		if err := checkSpecialtyDescription(desc); err != nil {
			return nil, err
		}
		sp.Description = desc
	}
	if patch.Icon != nil {
		sp.Icon = strings.TrimSpace(*patch.Icon)
	}
	if patch.Active != nil {
		sp.Active = *patch.Active
	}

	if err := s.specialtyRepo.Update(ctx, sp); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrSpecialtyExists
		}
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrSpecialtyNotFound
		}
		return nil, err
	}
	return sp, nil
}

func (s *specialtyService) Delete(ctx context.Context, id primitive.ObjectID) error {
	if _, err := s.specialtyRepo.GetByID(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrSpecialtyNotFound
		}
		return err
	}
	inUse, err := s.userRepo.CountWithSpecialty(ctx, id)
	if err != nil {
		return err
	}
	if inUse > 0 {
		return ErrSpecialtyInUse
	}
	if err := s.specialtyRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrSpecialtyNotFound
		}
		return err
	}
	logging.Ctx(ctx).Info().Str("specialty_id", id.Hex()).Msg("Specialty deleted")
	return nil
}
