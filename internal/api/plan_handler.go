package api

import (
	"net/http"

	"github.com/PauloVieira29/Fitness/internal/domain"
	"github.com/PauloVieira29/Fitness/internal/service"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PlanHandler serves plans and plan templates.
type PlanHandler struct {
	planService     service.PlanService
	templateService service.TemplateService
}

func NewPlanHandler(planService service.PlanService, templateService service.TemplateService) *PlanHandler {
	return &PlanHandler{planService: planService, templateService: templateService}
}

// --- DTOs ---

type DayRequest struct {
	DayOfWeek string            `json:"dayOfWeek" binding:"required,weekday"`
	Exercises []domain.Exercise `json:"exercises"`
}

// PlanFields is the body shared by plans and templates.
type PlanFields struct {
	Name            string       `json:"name" binding:"max=100"`
	Weeks           int          `json:"weeks" binding:"omitempty,min=1,max=104"`
	SessionsPerWeek int          `json:"sessionsPerWeek" binding:"omitempty,sessions"`
	Days            []DayRequest `json:"days" binding:"dive"`
	Notes           string       `json:"notes" binding:"max=2000"`
}

func (f PlanFields) input() service.PlanInput {
	days := make([]domain.WorkoutDay, len(f.Days))
	for i, d := range f.Days {
		days[i] = domain.WorkoutDay{DayOfWeek: d.DayOfWeek, Exercises: d.Exercises}
	}
	return service.PlanInput{
		Name:            f.Name,
		Weeks:           f.Weeks,
		SessionsPerWeek: f.SessionsPerWeek,
		Days:            days,
		Notes:           f.Notes,
	}
}

type CreatePlanRequest struct {
	ClientID string `json:"clientId" binding:"required,objectid"`
	PlanFields
}

type FromTemplateRequest struct {
	ClientID   string `json:"clientId" binding:"required,objectid"`
	TemplateID string `json:"templateId" binding:"required,objectid"`
}

// --- Plans ---

// CreatePlan godoc
// @Summary Prescribe a plan to one of my clients
// @Description Replaces the client's current plan. At most 10 exercises per day.
// @Tags Plans
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param plan body CreatePlanRequest true "Plan"
// @Success 201 {object} gin.H
// @Failure 400 {object} gin.H "Invalid plan"
// @Failure 403 {object} gin.H "Not your client"
// @Router /plans [post]
func (h *PlanHandler) CreatePlan(c *gin.Context) {
	trainerID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req CreatePlanRequest
	if !bindJSON(c, &req) {
		return
	}
	clientID, _ := primitive.ObjectIDFromHex(req.ClientID)

	view, err := h.planService.CreateDirect(c.Request.Context(), trainerID, clientID, req.input())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"plan": mapPlanView(view)})
}

// CreateFromTemplate godoc
// @Summary Apply one of my templates to a client
// @Tags Plans
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body FromTemplateRequest true "Client and template"
// @Success 201 {object} gin.H
// @Failure 404 {object} gin.H "Template not found"
// @Router /plans/from-template [post]
func (h *PlanHandler) CreateFromTemplate(c *gin.Context) {
	trainerID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req FromTemplateRequest
	if !bindJSON(c, &req) {
		return
	}
	clientID, _ := primitive.ObjectIDFromHex(req.ClientID)
	templateID, _ := primitive.ObjectIDFromHex(req.TemplateID)

	view, err := h.planService.ApplyTemplate(c.Request.Context(), trainerID, clientID, templateID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"plan": mapPlanView(view)})
}

// ListPlans godoc
// @Summary List the plans I prescribed
// @Tags Plans
// @Produce json
// @Security BearerAuth
// @Param client query string false "Only this client"
// @Success 200 {array} PlanResponse
// @Router /plans [get]
func (h *PlanHandler) ListPlans(c *gin.Context) {
	trainerID, ok := currentUserID(c)
	if !ok {
		return
	}
	clientID, ok := queryObjectID(c, "client")
	if !ok {
		return
	}
	views, err := h.planService.ListForTrainer(c.Request.Context(), trainerID, clientID)
	if err != nil {
		respondError(c, err)
		return
	}
	out := make([]PlanResponse, len(views))
	for i := range views {
		out[i] = mapPlanView(&views[i])
	}
	c.JSON(http.StatusOK, out)
}

// MyPlan godoc
// @Summary Get my plan
// @Description Also marks my unread plan notifications as read.
// @Tags Plans
// @Produce json
// @Security BearerAuth
// @Success 200 {object} PlanResponse
// @Failure 404 {object} gin.H "No plan yet"
// @Router /plans/my [get]
func (h *PlanHandler) MyPlan(c *gin.Context) {
	clientID, ok := currentUserID(c)
	if !ok {
		return
	}
	view, err := h.planService.GetForClient(c.Request.Context(), clientID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, mapPlanView(view))
}

// MyStats godoc
// @Summary Dashboard statistics for my plan
// @Tags Plans
// @Produce json
// @Security BearerAuth
// @Success 200 {object} PlanStatsResponse
// @Router /plans/my/stats [get]
func (h *PlanHandler) MyStats(c *gin.Context) {
	clientID, ok := currentUserID(c)
	if !ok {
		return
	}
	stats, err := h.planService.MyStats(c.Request.Context(), clientID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, PlanStatsResponse{
		WorkoutsThisMonth:   stats.WorkoutsThisMonth,
		WeeklyAdherence:     stats.WeeklyAdherence,
		CaloriesToday:       stats.CaloriesToday,
		WeightLostThisMonth: stats.WeightLostThisMonth,
	})
}

// ClientPlan godoc
// @Summary Get the plan of one of my clients
// @Tags Plans
// @Produce json
// @Security BearerAuth
// @Param clientId path string true "Client ID"
// @Success 200 {object} PlanResponse
// @Failure 403 {object} gin.H "Not your client"
// @Failure 404 {object} gin.H "No plan"
// @Router /plans/client/{clientId} [get]
func (h *PlanHandler) ClientPlan(c *gin.Context) {
	trainerID, ok := currentUserID(c)
	if !ok {
		return
	}
	clientID, ok := pathObjectID(c, "clientId")
	if !ok {
		return
	}
	view, err := h.planService.GetAsTrainer(c.Request.Context(), trainerID, clientID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, mapPlanView(view))
}

// DeleteClientPlan godoc
// @Summary Delete the plan of one of my clients
// @Tags Plans
// @Produce json
// @Security BearerAuth
// @Param clientId path string true "Client ID"
// @Success 200 {object} gin.H
// @Failure 403 {object} gin.H "Plan belongs to another trainer"
// @Router /plans/client/{clientId} [delete]
func (h *PlanHandler) DeleteClientPlan(c *gin.Context) {
	trainerID, ok := currentUserID(c)
	if !ok {
		return
	}
	clientID, ok := pathObjectID(c, "clientId")
	if !ok {
		return
	}
	if err := h.planService.RemoveForClient(c.Request.Context(), trainerID, clientID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Plan deleted"})
}

// --- Templates ---

// ListTemplates godoc
// @Summary List my plan templates
// @Tags Templates
// @Produce json
// @Security BearerAuth
// @Success 200 {array} domain.PlanTemplate
// @Router /plan-templates [get]
func (h *PlanHandler) ListTemplates(c *gin.Context) {
	trainerID, ok := currentUserID(c)
	if !ok {
		return
	}
	templates, err := h.templateService.List(c.Request.Context(), trainerID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, emptyIfNil(templates))
}

// CreateTemplate godoc
// @Summary Create a plan template
// @Tags Templates
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param template body PlanFields true "Template"
// @Success 201 {object} domain.PlanTemplate
// @Router /plan-templates [post]
func (h *PlanHandler) CreateTemplate(c *gin.Context) {
	trainerID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req PlanFields
	if !bindJSON(c, &req) {
		return
	}
	tpl, err := h.templateService.Create(c.Request.Context(), trainerID, req.input())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, tpl)
}

// GetTemplate godoc
// @Summary Get one of my templates
// @Tags Templates
// @Produce json
// @Security BearerAuth
// @Param id path string true "Template ID"
// @Success 200 {object} domain.PlanTemplate
// @Failure 404 {object} gin.H "Template not found"
// @Router /plan-templates/{id} [get]
func (h *PlanHandler) GetTemplate(c *gin.Context) {
	trainerID, ok := currentUserID(c)
	if !ok {
		return
	}
	templateID, ok := pathObjectID(c, "id")
	if !ok {
		return
	}
	tpl, err := h.templateService.Get(c.Request.Context(), trainerID, templateID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, tpl)
}

// UpdateTemplate godoc
// @Summary Replace one of my templates
// @Tags Templates
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Template ID"
// @Param template body PlanFields true "Template"
// @Success 200 {object} domain.PlanTemplate
// @Router /plan-templates/{id} [put]
func (h *PlanHandler) UpdateTemplate(c *gin.Context) {
	trainerID, ok := currentUserID(c)
	if !ok {
		return
	}
	templateID, ok := pathObjectID(c, "id")
	if !ok {
		return
	}
	var req PlanFields
	if !bindJSON(c, &req) {
		return
	}
	tpl, err := h.templateService.Update(c.Request.Context(), trainerID, templateID, req.input())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, tpl)
}

// DeleteTemplate godoc
// @Summary Delete one of my templates
// @Tags Templates
// @Produce json
// @Security BearerAuth
// @Param id path string true "Template ID"
// @Success 200 {object} gin.H
// @Router /plan-templates/{id} [delete]
func (h *PlanHandler) DeleteTemplate(c *gin.Context) {
	trainerID, ok := currentUserID(c)
	if !ok {
		return
	}
	templateID, ok := pathObjectID(c, "id")
	if !ok {
		return
	}
	if err := h.templateService.Delete(c.Request.Context(), trainerID, templateID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Template deleted"})
}
