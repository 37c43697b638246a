package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/PauloVieira29/Fitness/internal/domain"
	"github.com/PauloVieira29/Fitness/internal/logging"
	"github.com/PauloVieira29/Fitness/internal/repository"

	"github.com/golang-jwt/jwt/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"
)

const tokenIssuer = "fitness-app"

// --- Error Definitions ---
var (
	ErrMissingCredentials   = newError(KindValidation, "username and password are required")
	ErrUsernameTaken        = newError(KindConflict, "username already exists")
	ErrAdminSelfRegister    = newError(KindValidation, "admin accounts cannot be self-registered")
	ErrInvalidRole          = newError(KindValidation, "role must be client or trainer")
	ErrAuthenticationFailed = newError(KindValidation, "invalid credentials")
	ErrAccountDeactivated   = &Error{Kind: KindForbidden, Msg: "this account has been deactivated", Code: "ACCOUNT_DEACTIVATED"}
	ErrWrongPassword        = newError(KindUnauthorized, "incorrect password")
	ErrInvalidToken         = newError(KindUnauthorized, "invalid or expired token")
	ErrHashingFailed        = errors.New("failed to hash password")
	ErrTokenGeneration      = errors.New("failed to generate authentication token")
)

// RegisterInput carries the public registration fields.
type RegisterInput struct {
	Username string
	Password string
	Role     domain.Role // empty means client
	Profile  ProfileFields
}

// ProfileFields are the user-editable profile attributes.
type ProfileFields struct {
	Name      string
	Email     string
	Bio       string
	Goal      string
	Weight    float64
	Height    float64
	BirthDate *time.Time
}

func (f ProfileFields) apply(p *domain.Profile, now time.Time) {
	p.Name = strings.TrimSpace(f.Name)
	p.Email = strings.TrimSpace(f.Email)
	p.Bio = f.Bio
	p.Goal = f.Goal
	p.Height = f.Height
	p.BirthDate = f.BirthDate
	if f.Weight > 0 {
		p.RecordWeight(f.Weight, now)
	}
}

type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (token string, user *domain.User, err error)
	Login(ctx context.Context, username, password string) (token string, user *domain.User, err error)
	Deactivate(ctx context.Context, userID primitive.ObjectID, password string) error
	Reactivate(ctx context.Context, username, password string) (token string, user *domain.User, err error)
	// Authenticate verifies a bearer token and loads its active principal.
	Authenticate(ctx context.Context, tokenString string) (*domain.User, error)
}

// authService implements the AuthService interface.
type authService struct {
	userRepo      repository.UserRepository
	jwtSecret     string
	jwtExpiration time.Duration
}

// NewAuthService creates a new instance of authService.
func NewAuthService(userRepo repository.UserRepository, jwtSecret string, jwtExpiration time.Duration) AuthService {
	if jwtSecret == "" {
		panic("JWT secret cannot be empty") // Critical configuration
	}
	if jwtExpiration <= 0 {
		jwtExpiration = 7 * 24 * time.Hour
	}
	return &authService{
		userRepo:      userRepo,
		jwtSecret:     jwtSecret,
		jwtExpiration: jwtExpiration,
	}
}

// Register handles new user registration.
func (s *authService) Register(ctx context.Context, in RegisterInput) (string, *domain.User, error) {
	// 1. Basic input validation
	username := strings.TrimSpace(in.Username)
	if username == "" || in.Password == "" {
		return "", nil, ErrMissingCredentials
	}
	role := in.Role
	if role == "" {
		role = domain.RoleClient
	}
	if role == domain.RoleAdmin {
		return "", nil, ErrAdminSelfRegister
	}
	if !role.Valid() {
		return "", nil, ErrInvalidRole
	}

	// 2. Check if the username is taken
	if _, err := s.userRepo.GetByUsername(ctx, username); err == nil {
		return "", nil, ErrUsernameTaken
	} else if !errors.Is(err, repository.ErrNotFound) {
		return "", nil, err
	}

	// 3. Build and persist the user
	user, err := newUser(username, in.Password, role, in.Profile)
	if err != nil {
		return "", nil, err
	}
	if _, err := s.userRepo.Create(ctx, user); err != nil {
		// Lost a race against another registration; the unique index caught it.
		if errors.Is(err, repository.ErrDuplicate) {
			return "", nil, ErrUsernameTaken
		}
		return "", nil, err
	}

	// 4. Issue a session
	token, err := s.generateJWT(user)
	if err != nil {
		return "", nil, ErrTokenGeneration
	}
	logging.Ctx(ctx).Info().Str("user_id", user.ID.Hex()).Str("role", string(role)).Msg("User registered")
	return token, user, nil
}

// newUser builds an active account. Trainers start unvalidated.
func newUser(username, password string, role domain.Role, profile ProfileFields) (*domain.User, error) {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, ErrHashingFailed
	}
	user := &domain.User{
		Username:             username,
		PasswordHash:         string(hashedPassword),
		Role:                 role,
		IsActive:             true,
		Validated:            role != domain.RoleTrainer,
		NotificationSettings: domain.DefaultNotificationSettings(),
	}
	profile.apply(&user.Profile, nowFunc())
	return user, nil
}

// Login handles user authentication and JWT generation.
func (s *authService) Login(ctx context.Context, username, password string) (string, *domain.User, error) {
	if strings.TrimSpace(username) == "" || password == "" {
		return "", nil, ErrMissingCredentials
	}

	user, err := s.userRepo.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", nil, ErrAuthenticationFailed
		}
		return "", nil, err
	}
	if !checkPassword(user, password) {
		return "", nil, ErrAuthenticationFailed
	}
	// Only after the password matched, so the flag does not leak.
	if !user.IsActive {
		return "", nil, ErrAccountDeactivated
	}

	token, err := s.generateJWT(user)
	if err != nil {
		return "", nil, ErrTokenGeneration
	}
	return token, user, nil
}

func (s *authService) Deactivate(ctx context.Context, userID primitive.ObjectID, password string) error {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	if !checkPassword(user, password) {
		return ErrWrongPassword
	}
	user.IsActive = false
	if err := s.userRepo.Update(ctx, user); err != nil {
		return err
	}
	logging.Ctx(ctx).Info().Str("user_id", userID.Hex()).Msg("Account deactivated")
	return nil
}

func (s *authService) Reactivate(ctx context.Context, username, password string) (string, *domain.User, error) {
	user, err := s.userRepo.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", nil, ErrUserNotFound
		}
		return "", nil, err
	}
	if !checkPassword(user, password) {
		return "", nil, ErrWrongPassword
	}
	if !user.IsActive {
		user.IsActive = true
		if err := s.userRepo.Update(ctx, user); err != nil {
			return "", nil, err
		}
	}
	token, err := s.generateJWT(user)
	if err != nil {
		return "", nil, ErrTokenGeneration
	}
	return token, user, nil
}

func (s *authService) Authenticate(ctx context.Context, tokenString string) (*domain.User, error) {
	claims := &jwtClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.jwtSecret), nil
	})
	if err != nil || !token.Valid || claims.UserID == "" {
		return nil, ErrInvalidToken
	}
	id, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		return nil, ErrInvalidToken
	}

	// The stored role wins over the claim; roles can change after issuance.
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, ErrInvalidToken
	}
	return user, nil
}

func checkPassword(user *domain.User, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) == nil
}

// --- JWT Helper ---

// jwtClaims defines the structure of the JWT payload.
type jwtClaims struct {
	UserID string      `json:"uid"`
	Role   domain.Role `json:"role"`
	jwt.RegisteredClaims
}

// generateJWT creates a new JWT token for the given user.
func (s *authService) generateJWT(user *domain.User) (string, error) {
	now := time.Now()
	claims := &jwtClaims{
		UserID: user.ID.Hex(),
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.Hex(),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.jwtExpiration)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    tokenIssuer,
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.jwtSecret))
}
