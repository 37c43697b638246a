package api

import (
	"net/http"

	"github.com/PauloVieira29/Fitness/internal/domain"
	"github.com/PauloVieira29/Fitness/internal/service"

	"github.com/gin-gonic/gin"
)

// AuthHandler holds the authentication service dependency.
type AuthHandler struct {
	authService service.AuthService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// --- Request/Response Structs ---

// ProfileRequest is the profile block accepted at account creation.
type ProfileRequest struct {
	Name      string  `json:"name" binding:"max=100"`
	Email     string  `json:"email" binding:"omitempty,email"`
	Bio       string  `json:"bio" binding:"max=1000"`
	Goal      string  `json:"goal" binding:"max=200"`
	Weight    float64 `json:"weight" binding:"gte=0"`
	Height    float64 `json:"height" binding:"gte=0"`
	BirthDate *Date   `json:"birthDate"`
}

func (p *ProfileRequest) fields() service.ProfileFields {
	if p == nil {
		return service.ProfileFields{}
	}
	return service.ProfileFields{
		Name:      p.Name,
		Email:     p.Email,
		Bio:       p.Bio,
		Goal:      p.Goal,
		Weight:    p.Weight,
		Height:    p.Height,
		BirthDate: p.BirthDate.Ptr(),
	}
}

type RegisterRequest struct {
	Username string          `json:"username"`
	Password string          `json:"password"`
	Role     domain.Role     `json:"role"`
	Profile  *ProfileRequest `json:"profile"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type PasswordRequest struct {
	Password string `json:"password"`
}

// --- Handler Methods ---

// Register godoc
// @Summary Register a new user (Trainer or Client)
// @Description Creates a new account and logs it in. Trainers wait for admin validation before they are listed.
// @Tags Auth
// @Accept json
// @Produce json
// @Param user body RegisterRequest true "Registration details"
// @Success 201 {object} AuthResponse
// @Failure 400 {object} gin.H "Invalid input or username taken"
// @Failure 429 {object} gin.H "Too many attempts"
// @Router /auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if !bindJSON(c, &req) {
		return
	}

	token, user, err := h.authService.Register(c.Request.Context(), service.RegisterInput{
		Username: req.Username,
		Password: req.Password,
		Role:     req.Role,
		Profile:  req.Profile.fields(),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, AuthResponse{Token: token, User: MapUserToResponse(user)})
}

// Login godoc
// @Summary Log in a user
// @Description Authenticates a user and returns a JWT token. Deactivated accounts get 403 with code ACCOUNT_DEACTIVATED.
// @Tags Auth
// @Accept json
// @Produce json
// @Param credentials body LoginRequest true "Login credentials"
// @Success 200 {object} AuthResponse
// @Failure 400 {object} gin.H "Invalid credentials"
// @Failure 403 {object} gin.H "Account deactivated"
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if !bindJSON(c, &req) {
		return
	}

	token, user, err := h.authService.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, AuthResponse{Token: token, User: MapUserToResponse(user)})
}

// Deactivate godoc
// @Summary Deactivate my account
// @Tags Auth
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body PasswordRequest true "Current password"
// @Success 200 {object} gin.H
// @Failure 401 {object} gin.H "Wrong password"
// @Router /auth/deactivate [post]
func (h *AuthHandler) Deactivate(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req PasswordRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := h.authService.Deactivate(c.Request.Context(), userID, req.Password); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Account deactivated"})
}

// Reactivate godoc
// @Summary Reactivate a deactivated account
// @Tags Auth
// @Accept json
// @Produce json
// @Param credentials body LoginRequest true "Login credentials"
// @Success 200 {object} AuthResponse
// @Failure 401 {object} gin.H "Wrong password"
// @Failure 404 {object} gin.H "Unknown user"
// @Router /auth/reactivate [post]
func (h *AuthHandler) Reactivate(c *gin.Context) {
	var req LoginRequest
	if !bindJSON(c, &req) {
		return
	}

	token, user, err := h.authService.Reactivate(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, AuthResponse{Token: token, User: MapUserToResponse(user)})
}
