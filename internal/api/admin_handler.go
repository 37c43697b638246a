package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/PauloVieira29/Fitness/internal/domain"
	"github.com/PauloVieira29/Fitness/internal/service"

	"github.com/gin-gonic/gin"
)

// AdminHandler serves account administration and pairing overrides.
type AdminHandler struct {
	adminService   service.AdminService
	pairingService service.PairingService
}

func NewAdminHandler(adminService service.AdminService, pairingService service.PairingService) *AdminHandler {
	return &AdminHandler{adminService: adminService, pairingService: pairingService}
}

// --- DTOs ---

type AdminCreateUserRequest struct {
	Username string          `json:"username"`
	Password string          `json:"password"`
	Role     domain.Role     `json:"role" binding:"required,oneof=admin trainer client"`
	Profile  *ProfileRequest `json:"profile"`
}

type AdminUpdateUserRequest struct {
	Username *string                    `json:"username"`
	Role     *domain.Role               `json:"role" binding:"omitempty,oneof=admin trainer client"`
	Password *string                    `json:"password"`
	Profile  map[string]json.RawMessage `json:"profile"`
}

type AdminStatusRequest struct {
	Password string `json:"password"`
	IsActive *bool  `json:"isActive" binding:"required"`
}

type DecisionRequest struct {
	Accept *bool `json:"accept" binding:"required"`
}

// bindOptionalJSON is bindJSON for bodies that may be absent.
func bindOptionalJSON(c *gin.Context, obj any) bool {
	if err := c.ShouldBindJSON(obj); err != nil && !errors.Is(err, io.EOF) {
		abortWithError(c, http.StatusBadRequest, validationMessage(err))
		return false
	}
	return true
}

// --- Users ---

// ListUsers godoc
// @Summary Newest 300 accounts
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Success 200 {array} UserResponse
// @Router /admin/users [get]
func (h *AdminHandler) ListUsers(c *gin.Context) {
	users, err := h.adminService.ListUsers(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, mapUsersToResponse(users))
}

// CreateUser godoc
// @Summary Create an account of any role
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param user body AdminCreateUserRequest true "Account"
// @Success 201 {object} UserResponse
// @Router /admin/users [post]
func (h *AdminHandler) CreateUser(c *gin.Context) {
	var req AdminCreateUserRequest
	if !bindJSON(c, &req) {
		return
	}
	user, err := h.adminService.CreateUser(c.Request.Context(), service.AdminUserInput{
		Username: req.Username,
		Password: req.Password,
		Role:     req.Role,
		Profile:  req.Profile.fields(),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, MapUserToResponse(user))
}

// UpdateUser godoc
// @Summary Edit an account
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Param user body AdminUpdateUserRequest true "Changes"
// @Success 200 {object} UserResponse
// @Router /admin/users/{id} [patch]
func (h *AdminHandler) UpdateUser(c *gin.Context) {
	userID, ok := pathObjectID(c, "id")
	if !ok {
		return
	}
	var req AdminUpdateUserRequest
	if !bindJSON(c, &req) {
		return
	}
	patch := service.AdminUserPatch{
		Username: req.Username,
		Role:     req.Role,
		Password: req.Password,
	}
	if req.Profile != nil {
		profile, err := parseProfilePatch(req.Profile)
		if err != nil {
			abortWithError(c, http.StatusBadRequest, err.Error())
			return
		}
		patch.Profile = &profile
	}

	user, err := h.adminService.UpdateUser(c.Request.Context(), userID, patch)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapUserToResponse(user))
}

// ValidateTrainer godoc
// @Summary Validate a trainer so clients can find them
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param id path string true "Trainer ID"
// @Success 200 {object} UserResponse
// @Router /admin/users/{id}/validate [post]
func (h *AdminHandler) ValidateTrainer(c *gin.Context) {
	trainerID, ok := pathObjectID(c, "id")
	if !ok {
		return
	}
	user, err := h.adminService.ValidateTrainer(c.Request.Context(), trainerID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapUserToResponse(user))
}

// SetStatus godoc
// @Summary Activate or deactivate an account
// @Description Requires the acting admin's password. Admins cannot target themselves.
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Param body body AdminStatusRequest true "Password and new status"
// @Success 200 {object} UserResponse
// @Failure 401 {object} gin.H "Wrong admin password"
// @Router /admin/users/{id}/status [post]
func (h *AdminHandler) SetStatus(c *gin.Context) {
	adminID, ok := currentUserID(c)
	if !ok {
		return
	}
	targetID, ok := pathObjectID(c, "id")
	if !ok {
		return
	}
	var req AdminStatusRequest
	if !bindJSON(c, &req) {
		return
	}
	user, err := h.adminService.SetStatus(c.Request.Context(), adminID, targetID, req.Password, *req.IsActive)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapUserToResponse(user))
}

// DeleteUser godoc
// @Summary Delete an account
// @Description Requires the acting admin's password. Admins cannot target themselves.
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Param body body PasswordRequest true "Admin password"
// @Success 200 {object} gin.H
// @Failure 401 {object} gin.H "Wrong admin password"
// @Router /admin/users/{id} [delete]
func (h *AdminHandler) DeleteUser(c *gin.Context) {
	adminID, ok := currentUserID(c)
	if !ok {
		return
	}
	targetID, ok := pathObjectID(c, "id")
	if !ok {
		return
	}
	var req PasswordRequest
	if !bindOptionalJSON(c, &req) {
		return
	}
	if err := h.adminService.DeleteUser(c.Request.Context(), adminID, targetID, req.Password); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "User deleted"})
}

// --- Trainer change requests ---

// ListChangeRequests godoc
// @Summary All pending trainer change requests
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Success 200 {array} TrainerRequestResponse
// @Router /admin/trainer-change-requests [get]
func (h *AdminHandler) ListChangeRequests(c *gin.Context) {
	views, err := h.pairingService.ListPending(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, mapRequestViews(views))
}

// DecideChangeRequest godoc
// @Summary Accept or reject any pending request
// @Description Accepting applies the same capacity check as the trainer path.
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Request ID"
// @Param body body DecisionRequest true "Decision"
// @Success 200 {object} gin.H
// @Router /admin/trainer-change/{id} [post]
func (h *AdminHandler) DecideChangeRequest(c *gin.Context) {
	requestID, ok := pathObjectID(c, "id")
	if !ok {
		return
	}
	var req DecisionRequest
	if !bindJSON(c, &req) {
		return
	}
	decided, err := h.pairingService.Adjudicate(c.Request.Context(), requestID, *req.Accept)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Request " + string(decided.Status), "request": decided})
}
