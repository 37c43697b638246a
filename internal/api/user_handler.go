package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strconv"

	"github.com/PauloVieira29/Fitness/internal/service"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type UserHandler struct {
	userService    service.UserService
	pairingService service.PairingService
	entryService   service.EntryService
	mediaService   service.MediaService
}

func NewUserHandler(
	userService service.UserService,
	pairingService service.PairingService,
	entryService service.EntryService,
	mediaService service.MediaService,
) *UserHandler {
	return &UserHandler{
		userService:    userService,
		pairingService: pairingService,
		entryService:   entryService,
		mediaService:   mediaService,
	}
}

// --- DTOs ---

type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
	ConfirmPassword string `json:"confirmPassword"`
}

type WeightRequest struct {
	Weight float64 `json:"weight" binding:"required"`
}

type AssignTrainerRequest struct {
	TrainerID string `json:"trainerId" binding:"required,objectid"`
}

type TrainerChangeRequest struct {
	NewTrainerID string `json:"newTrainerId" binding:"required,objectid"`
}

// --- Profile patch decoding ---

// parseProfilePatch decodes a flat profile patch. Unknown keys are
// rejected by name.
func parseProfilePatch(raw map[string]json.RawMessage) (service.ProfilePatch, error) {
	var patch service.ProfilePatch

	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		value := raw[key]
		var err error
		switch key {
		case "name":
			patch.Name, err = decodeString(value)
		case "email":
			patch.Email, err = decodeString(value)
		case "bio":
			patch.Bio, err = decodeString(value)
		case "goal":
			patch.Goal, err = decodeString(value)
		case "avatarUrl":
			patch.AvatarURL, err = decodeString(value)
		case "weight":
			patch.Weight, err = decodeFloat(value)
		case "height":
			patch.Height, err = decodeFloat(value)
		case "birthDate":
			var d *Date
			if err = json.Unmarshal(value, &d); err == nil {
				if t := d.Ptr(); t != nil {
					patch.BirthDate = t
				} else {
					patch.ClearBirthDate = true
				}
			}
		case "specialties":
			patch.Specialties, err = decodeObjectIDs(value)
		default:
			return patch, fmt.Errorf("field %q cannot be updated", key)
		}
		if err != nil {
			return patch, fmt.Errorf("field %q has an invalid value", key)
		}
	}
	return patch, nil
}

func decodeString(value json.RawMessage) (*string, error) {
	var s *string
	if err := json.Unmarshal(value, &s); err != nil {
		return nil, err
	}
	if s == nil {
		empty := ""
		return &empty, nil
	}
	return s, nil
}

func decodeFloat(value json.RawMessage) (*float64, error) {
	var f *float64
	if err := json.Unmarshal(value, &f); err != nil {
		return nil, err
	}
	if f == nil {
		return nil, errors.New("null is not a number")
	}
	return f, nil
}

// decodeObjectIDs never returns nil on success so that an empty list
// clears the field.
func decodeObjectIDs(value json.RawMessage) ([]primitive.ObjectID, error) {
	var hexes []string
	if err := json.Unmarshal(value, &hexes); err != nil {
		return nil, err
	}
	ids := make([]primitive.ObjectID, 0, len(hexes))
	for _, h := range hexes {
		id, err := primitive.ObjectIDFromHex(h)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// --- Handler Methods ---

// GetMe godoc
// @Summary Get my profile
// @Tags Users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} UserResponse
// @Router /users/me [get]
func (h *UserHandler) GetMe(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	view, err := h.userService.Me(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, mapUserView(view))
}

// UpdateMe godoc
// @Summary Update my profile
// @Description Accepts name, email, bio, goal, weight, height, birthDate, avatarUrl and, for trainers, specialties. Any other key is rejected.
// @Tags Users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Success 200 {object} UserResponse
// @Failure 400 {object} gin.H "Unknown field or invalid value"
// @Router /users/me [patch]
func (h *UserHandler) UpdateMe(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	var raw map[string]json.RawMessage
	if err := c.ShouldBindJSON(&raw); err != nil {
		abortWithError(c, http.StatusBadRequest, validationMessage(err))
		return
	}
	patch, err := parseProfilePatch(raw)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, err.Error())
		return
	}

	view, err := h.userService.UpdateProfile(c.Request.Context(), userID, patch)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, mapUserView(view))
}

// ChangePassword godoc
// @Summary Change my password
// @Tags Users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body ChangePasswordRequest true "Passwords"
// @Success 200 {object} gin.H
// @Failure 400 {object} gin.H "Wrong current password, mismatch or too short"
// @Router /users/me/password [patch]
func (h *UserHandler) ChangePassword(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req ChangePasswordRequest
	if !bindJSON(c, &req) {
		return
	}
	err := h.userService.ChangePassword(c.Request.Context(), userID, req.CurrentPassword, req.NewPassword, req.ConfirmPassword)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Password updated"})
}

// RecordWeight godoc
// @Summary Record my current weight
// @Tags Users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body WeightRequest true "Weight in kg, between 30 and 300"
// @Success 200 {object} gin.H
// @Router /users/me/weight [post]
func (h *UserHandler) RecordWeight(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req WeightRequest
	if !bindJSON(c, &req) {
		return
	}
	profile, err := h.userService.RecordWeight(c.Request.Context(), userID, req.Weight)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"profile": profile})
}

// UploadAvatar godoc
// @Summary Upload my avatar
// @Tags Users
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param file formData file true "Image"
// @Success 200 {object} gin.H
// @Failure 503 {object} gin.H "Storage unavailable"
// @Router /users/me/avatar [post]
func (h *UserHandler) UploadAvatar(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	file, closeFile, err := formFile(c)
	if err != nil {
		respondError(c, err)
		return
	}
	defer closeFile()

	upload, err := h.mediaService.UploadAvatar(c.Request.Context(), userID, file)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": upload.URL, "avatarUrl": upload.URL})
}

// ListTrainers godoc
// @Summary Browse validated trainers
// @Tags Users
// @Produce json
// @Security BearerAuth
// @Param q query string false "Name contains"
// @Param page query int false "Page, from 1"
// @Param limit query int false "Page size, max 50"
// @Success 200 {object} TrainerPageResponse
// @Router /users/trainers [get]
func (h *UserHandler) ListTrainers(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(service.DefaultTrainerPageSize)))

	result, err := h.userService.ListTrainers(c.Request.Context(), c.Query("q"), page, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, TrainerPageResponse{
		Trainers: mapUsersToResponse(result.Trainers),
		Total:    result.Total,
		Page:     result.Page,
		Pages:    result.Pages,
	})
}

// GetTrainer godoc
// @Summary Get a trainer profile
// @Tags Users
// @Produce json
// @Security BearerAuth
// @Param id path string true "Trainer ID"
// @Success 200 {object} TrainerResponse
// @Failure 404 {object} gin.H "Trainer not found"
// @Router /users/trainers/{id} [get]
func (h *UserHandler) GetTrainer(c *gin.Context) {
	trainerID, ok := pathObjectID(c, "id")
	if !ok {
		return
	}
	view, err := h.userService.GetTrainer(c.Request.Context(), trainerID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, TrainerResponse{UserResponse: mapUserView(&view.UserView), ClientsCount: view.ClientsCount})
}

// MyClients godoc
// @Summary List my clients
// @Tags Users
// @Produce json
// @Security BearerAuth
// @Success 200 {array} UserResponse
// @Router /users/my-clients [get]
func (h *UserHandler) MyClients(c *gin.Context) {
	trainerID, ok := currentUserID(c)
	if !ok {
		return
	}
	clients, err := h.userService.MyClients(c.Request.Context(), trainerID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, mapUsersToResponse(clients))
}

// GetUser godoc
// @Summary Get one of my clients
// @Tags Users
// @Produce json
// @Security BearerAuth
// @Param id path string true "Client ID"
// @Success 200 {object} UserResponse
// @Failure 403 {object} gin.H "Not your client"
// @Router /users/{id} [get]
func (h *UserHandler) GetUser(c *gin.Context) {
	trainerID, ok := currentUserID(c)
	if !ok {
		return
	}
	clientID, ok := pathObjectID(c, "id")
	if !ok {
		return
	}
	view, err := h.userService.GetClient(c.Request.Context(), trainerID, clientID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, mapUserView(view))
}

// SupportAgent godoc
// @Summary Get the support contact
// @Tags Users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} UserSummary
// @Failure 404 {object} gin.H "No admin account"
// @Router /users/support-agent [get]
func (h *UserHandler) SupportAgent(c *gin.Context) {
	agent, err := h.userService.SupportAgent(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"id":       agent.ID.Hex(),
		"username": agent.Username,
		"profile":  gin.H{"name": agent.Profile.Name},
	})
}

// AssignTrainer godoc
// @Summary Ask a trainer to take me on
// @Tags Pairing
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body AssignTrainerRequest true "Trainer"
// @Success 201 {object} TrainerRequestResponse
// @Failure 400 {object} gin.H "Duplicate request, trainer full or already assigned"
// @Failure 404 {object} gin.H "Trainer not found or not validated"
// @Router /users/me/assign-trainer [post]
func (h *UserHandler) AssignTrainer(c *gin.Context) {
	var req AssignTrainerRequest
	if !bindJSON(c, &req) {
		return
	}
	h.requestAssignment(c, req.TrainerID)
}

// RequestTrainerChange godoc
// @Summary Ask to switch to another trainer
// @Tags Pairing
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body TrainerChangeRequest true "New trainer"
// @Success 201 {object} TrainerRequestResponse
// @Router /users/me/request-trainer-change [post]
func (h *UserHandler) RequestTrainerChange(c *gin.Context) {
	var req TrainerChangeRequest
	if !bindJSON(c, &req) {
		return
	}
	h.requestAssignment(c, req.NewTrainerID)
}

func (h *UserHandler) requestAssignment(c *gin.Context, trainerHex string) {
	clientID, ok := currentUserID(c)
	if !ok {
		return
	}
	trainerID, err := primitive.ObjectIDFromHex(trainerHex)
	if err != nil {
		respondError(c, service.ErrInvalidID)
		return
	}
	view, err := h.pairingService.RequestAssignment(c.Request.Context(), clientID, trainerID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, mapRequestView(view))
}

// CheckMissedWorkout godoc
// @Summary Check yesterday's workout
// @Description Creates one alert notification when yesterday's scheduled workout was not completed.
// @Tags Entries
// @Produce json
// @Security BearerAuth
// @Success 200 {object} gin.H
// @Router /users/me/check-missed-workout [post]
func (h *UserHandler) CheckMissedWorkout(c *gin.Context) {
	clientID, ok := currentUserID(c)
	if !ok {
		return
	}
	result, err := h.entryService.CheckMissedWorkout(c.Request.Context(), clientID)
	if err != nil {
		respondError(c, err)
		return
	}
	resp := gin.H{"missed": result.Missed, "notified": result.Notified}
	if result.Reason != "" {
		resp["reason"] = result.Reason
	}
	c.JSON(http.StatusOK, resp)
}

// formFile reads the multipart "file" field. The returned func closes it.
func formFile(c *gin.Context) (service.FileInput, func(), error) {
	header, err := c.FormFile("file")
	if err != nil {
		return service.FileInput{}, nil, service.ErrNoFile
	}
	f, err := header.Open()
	if err != nil {
		return service.FileInput{}, nil, err
	}
	return service.FileInput{
		FileName:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Body:        f,
	}, func() { _ = f.Close() }, nil
}
