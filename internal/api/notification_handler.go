package api

import (
	"net/http"

	"github.com/PauloVieira29/Fitness/internal/service"

	"github.com/gin-gonic/gin"
)

type NotificationHandler struct {
	notificationService service.NotificationService
}

func NewNotificationHandler(notificationService service.NotificationService) *NotificationHandler {
	return &NotificationHandler{notificationService: notificationService}
}

type SettingsRequest struct {
	Messages *bool `json:"messages"`
	Plans    *bool `json:"plans"`
	System   *bool `json:"system"`
}

// List godoc
// @Summary My 20 most recent notifications
// @Tags Notifications
// @Produce json
// @Security BearerAuth
// @Success 200 {array} domain.Notification
// @Router /notifications [get]
func (h *NotificationHandler) List(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	items, err := h.notificationService.List(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, emptyIfNil(items))
}

// MarkRead godoc
// @Summary Mark a notification as read
// @Tags Notifications
// @Produce json
// @Security BearerAuth
// @Param id path string true "Notification ID"
// @Success 200 {object} domain.Notification
// @Failure 403 {object} gin.H "Not your notification"
// @Failure 404 {object} gin.H "Notification not found"
// @Router /notifications/{id}/read [put]
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	notificationID, ok := pathObjectID(c, "id")
	if !ok {
		return
	}
	n, err := h.notificationService.MarkRead(c.Request.Context(), notificationID, userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, n)
}

// UpdateSettings godoc
// @Summary Change my notification opt-ins
// @Description Keys left out keep their value.
// @Tags Notifications
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param settings body SettingsRequest true "Flags"
// @Success 200 {object} domain.NotificationSettings
// @Router /notifications/settings [put]
func (h *NotificationHandler) UpdateSettings(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req SettingsRequest
	if !bindJSON(c, &req) {
		return
	}
	settings, err := h.notificationService.UpdateSettings(c.Request.Context(), userID, service.SettingsPatch{
		Messages: req.Messages,
		Plans:    req.Plans,
		System:   req.System,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, settings)
}
