package service

import (
	"context"
	"errors"
	"strings"

	"github.com/PauloVieira29/Fitness/internal/domain"
	"github.com/PauloVieira29/Fitness/internal/logging"
	"github.com/PauloVieira29/Fitness/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"
)

// AdminUserLimit caps the admin user listing.
const AdminUserLimit = 300

// --- Error Definitions ---
var (
	ErrAdminPasswordRequired = newError(KindValidation, "your password is required")
	ErrAdminPassword         = newError(KindUnauthorized, "incorrect admin password")
	ErrSelfTarget            = newError(KindValidation, "you cannot perform this action on your own account")
	ErrNotATrainer           = newError(KindValidation, "user is not a trainer")
)

// AdminUserInput creates an account of any role.
type AdminUserInput struct {
	Username string
	Password string
	Role     domain.Role
	Profile  ProfileFields
}

// AdminUserPatch edits any account; nil fields are untouched.
type AdminUserPatch struct {
	Username *string
	Role     *domain.Role
	Password *string
	Profile  *ProfilePatch
}

type AdminService interface {
	ListUsers(ctx context.Context) ([]domain.User, error)
	CreateUser(ctx context.Context, in AdminUserInput) (*domain.User, error)
	UpdateUser(ctx context.Context, userID primitive.ObjectID, patch AdminUserPatch) (*domain.User, error)
	ValidateTrainer(ctx context.Context, trainerID primitive.ObjectID) (*domain.User, error)
	// SetStatus and DeleteUser re-check the acting admin's password.
	SetStatus(ctx context.Context, adminID, targetID primitive.ObjectID, password string, active bool) (*domain.User, error)
	DeleteUser(ctx context.Context, adminID, targetID primitive.ObjectID, password string) error
}

type adminService struct {
	userRepo      repository.UserRepository
	specialtyRepo repository.SpecialtyRepository
}

func NewAdminService(userRepo repository.UserRepository, specialtyRepo repository.SpecialtyRepository) AdminService {
	return &adminService{userRepo: userRepo, specialtyRepo: specialtyRepo}
}

func (s *adminService) ListUsers(ctx context.Context) ([]domain.User, error) {
	return s.userRepo.List(ctx, AdminUserLimit)
}

func (s *adminService) CreateUser(ctx context.Context, in AdminUserInput) (*domain.User, error) {
	username := strings.TrimSpace(in.Username)
	if username == "" || in.Password == "" {
		return nil, ErrMissingCredentials
	}
	role := in.Role
	if role == "" {
		role = domain.RoleClient
	}
	if !role.Valid() {
		return nil, validationf("unknown role %q", role)
	}

	if _, err := s.userRepo.GetByUsername(ctx, username); err == nil {
		return nil, ErrUsernameTaken
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	user, err := newUser(username, in.Password, role, in.Profile)
	if err != nil {
		return nil, err
	}
	if _, err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrUsernameTaken
		}
		return nil, err
	}
	logging.Ctx(ctx).Info().Str("user_id", user.ID.Hex()).Str("role", string(role)).Msg("Admin created user")
	return user, nil
}

func (s *adminService) load(ctx context.Context, id primitive.ObjectID) (*domain.User, error) {
	u, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return u, nil
}

func (s *adminService) UpdateUser(ctx context.Context, userID primitive.ObjectID, patch AdminUserPatch) (*domain.User, error) {
	u, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}

	// 1. Username, unique
	if patch.Username != nil {
		name := strings.TrimSpace(*patch.Username)
		if name == "" {
			return nil, validationf("username cannot be empty")
		}
		if name != u.Username {
			if other, err := s.userRepo.GetByUsername(ctx, name); err == nil && other.ID != u.ID {
				return nil, ErrUsernameTaken
			} else if err != nil && !errors.Is(err, repository.ErrNotFound) {
				return nil, err
			}
			u.Username = name
		}
	}

	// 2. Role. Only clients keep a trainer link.
	dropTrainer := false
	if patch.Role != nil {
		if !patch.Role.Valid() {
			return nil, validationf("unknown role %q", *patch.Role)
		}
		dropTrainer = u.IsClient() && *patch.Role != domain.RoleClient && u.TrainerAssigned != nil
		u.Role = *patch.Role
	}

	// 3. Password
	if patch.Password != nil && *patch.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(*patch.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, ErrHashingFailed
		}
		u.PasswordHash = string(hash)
	}

	// 4. Profile
	if patch.Profile != nil {
		if patch.Profile.Specialties != nil && !u.IsTrainer() {
			return nil, ErrSpecialtiesForbidden
		}
		if err := applyProfilePatch(ctx, s.specialtyRepo, u, *patch.Profile); err != nil {
			return nil, err
		}
	}

	// The link is cleared while the account is still a client.
	if dropTrainer {
		if err := s.userRepo.SetTrainer(ctx, u.ID, nil); err != nil {
			return nil, err
		}
		u.TrainerAssigned = nil
	}

	if err := s.userRepo.Update(ctx, u); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrUsernameTaken
		}
		return nil, err
	}
	return u, nil
}

func (s *adminService) ValidateTrainer(ctx context.Context, trainerID primitive.ObjectID) (*domain.User, error) {
	u, err := s.load(ctx, trainerID)
	if err != nil {
		return nil, err
	}
	if !u.IsTrainer() {
		return nil, ErrNotATrainer
	}
	if u.Validated {
		return u, nil
	}
	u.Validated = true
	if err := s.userRepo.Update(ctx, u); err != nil {
		return nil, err
	}
	logging.Ctx(ctx).Info().Str("trainer_id", trainerID.Hex()).Msg("Trainer validated")
	return u, nil
}

// confirmAdmin checks the acting admin's password and that the target is
// someone else, in that order.
func (s *adminService) confirmAdmin(ctx context.Context, adminID, targetID primitive.ObjectID, password string) (*domain.User, error) {
	if password == "" {
		return nil, ErrAdminPasswordRequired
	}
	admin, err := s.load(ctx, adminID)
	if err != nil {
		return nil, err
	}
	if !checkPassword(admin, password) {
		return nil, ErrAdminPassword
	}
	target, err := s.load(ctx, targetID)
	if err != nil {
		return nil, err
	}
	if target.ID == admin.ID {
		return nil, ErrSelfTarget
	}
	return target, nil
}

func (s *adminService) SetStatus(ctx context.Context, adminID, targetID primitive.ObjectID, password string, active bool) (*domain.User, error) {
	target, err := s.confirmAdmin(ctx, adminID, targetID, password)
	if err != nil {
		return nil, err
	}
	target.IsActive = active
	if err := s.userRepo.Update(ctx, target); err != nil {
		return nil, err
	}
	logging.Ctx(ctx).Info().
		Str("admin_id", adminID.Hex()).
		Str("user_id", targetID.Hex()).
		Bool("active", active).
		Msg("User status changed")
	return target, nil
}

func (s *adminService) DeleteUser(ctx context.Context, adminID, targetID primitive.ObjectID, password string) error {
	if _, err := s.confirmAdmin(ctx, adminID, targetID, password); err != nil {
		return err
	}
	if err := s.userRepo.Delete(ctx, targetID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	logging.Ctx(ctx).Info().Str("admin_id", adminID.Hex()).Str("user_id", targetID.Hex()).Msg("User deleted")
	return nil
}
