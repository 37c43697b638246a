package api

import (
	"net/http"

	"github.com/PauloVieira29/Fitness/internal/service"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TrainerHandler serves the trainer side of the pairing ledger.
type TrainerHandler struct {
	pairingService service.PairingService
}

func NewTrainerHandler(pairingService service.PairingService) *TrainerHandler {
	return &TrainerHandler{pairingService: pairingService}
}

// --- DTOs ---

type ResolveRequest struct {
	Action string `json:"action" binding:"required,oneof=accept reject"`
}

type AlertClientRequest struct {
	ClientID string `json:"clientId" binding:"required,objectid"`
	Message  string `json:"message" binding:"max=500"`
}

// --- Handler Methods ---

// GetRequests godoc
// @Summary List pending requests addressed to me
// @Tags Trainer
// @Produce json
// @Security BearerAuth
// @Success 200 {array} TrainerRequestResponse
// @Router /trainers/requests [get]
func (h *TrainerHandler) GetRequests(c *gin.Context) {
	trainerID, ok := currentUserID(c)
	if !ok {
		return
	}
	views, err := h.pairingService.ListPendingForTrainer(c.Request.Context(), trainerID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, mapRequestViews(views))
}

// ResolveRequest godoc
// @Summary Accept or reject a request
// @Description Accepting re-checks the 10 client capacity; a full trainer leaves the request pending.
// @Tags Trainer
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Request ID"
// @Param body body ResolveRequest true "accept or reject"
// @Success 200 {object} gin.H
// @Failure 400 {object} gin.H "Trainer full or request already decided"
// @Failure 403 {object} gin.H "Request addressed to another trainer"
// @Failure 404 {object} gin.H "Request not found"
// @Router /trainers/requests/{id}/resolve [post]
func (h *TrainerHandler) ResolveRequest(c *gin.Context) {
	trainerID, ok := currentUserID(c)
	if !ok {
		return
	}
	requestID, ok := pathObjectID(c, "id")
	if !ok {
		return
	}
	var req ResolveRequest
	if !bindJSON(c, &req) {
		return
	}

	decided, err := h.pairingService.Resolve(c.Request.Context(), requestID, trainerID, req.Action == "accept")
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Request " + string(decided.Status), "request": decided})
}

// RemoveClient godoc
// @Summary Stop training a client
// @Description Clears the assignment and deletes the client's plan.
// @Tags Trainer
// @Produce json
// @Security BearerAuth
// @Param id path string true "Client ID"
// @Success 200 {object} gin.H
// @Failure 403 {object} gin.H "Not your client"
// @Router /trainers/clients/{id}/remove [patch]
func (h *TrainerHandler) RemoveClient(c *gin.Context) {
	trainerID, ok := currentUserID(c)
	if !ok {
		return
	}
	clientID, ok := pathObjectID(c, "id")
	if !ok {
		return
	}
	if err := h.pairingService.RemoveClient(c.Request.Context(), trainerID, clientID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Client removed"})
}

// AlertClient godoc
// @Summary Send an alert to one of my clients
// @Tags Trainer
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body AlertClientRequest true "Client and optional message"
// @Success 201 {object} gin.H
// @Failure 403 {object} gin.H "Not your client"
// @Router /trainers/alert-client [post]
func (h *TrainerHandler) AlertClient(c *gin.Context) {
	trainerID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req AlertClientRequest
	if !bindJSON(c, &req) {
		return
	}
	clientID, _ := primitive.ObjectIDFromHex(req.ClientID) // checked by the objectid tag

	if err := h.pairingService.AlertClient(c.Request.Context(), trainerID, clientID, req.Message); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Alert sent"})
}
