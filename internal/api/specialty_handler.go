package api

import (
	"net/http"

	"github.com/PauloVieira29/Fitness/internal/service"

	"github.com/gin-gonic/gin"
)

type SpecialtyHandler struct {
	specialtyService service.SpecialtyService
}

func NewSpecialtyHandler(specialtyService service.SpecialtyService) *SpecialtyHandler {
	return &SpecialtyHandler{specialtyService: specialtyService}
}

type SpecialtyRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Icon        string `json:"icon" binding:"max=200"`
	Active      *bool  `json:"active"`
}

type SpecialtyPatchRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Icon        *string `json:"icon" binding:"omitempty,max=200"`
	Active      *bool   `json:"active"`
}

// ListActive godoc
// @Summary Active specialties, by name
// @Tags Specialties
// @Produce json
// @Success 200 {array} domain.Specialty
// @Router /specialties [get]
func (h *SpecialtyHandler) ListActive(c *gin.Context) {
	items, err := h.specialtyService.ListActive(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, emptyIfNil(items))
}

// ListAll godoc
// @Summary Every specialty, active or not
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Success 200 {array} domain.Specialty
// @Router /admin/specialties [get]
func (h *SpecialtyHandler) ListAll(c *gin.Context) {
	items, err := h.specialtyService.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, emptyIfNil(items))
}

// Create godoc
// @Summary Create a specialty
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param specialty body SpecialtyRequest true "Specialty"
// @Success 201 {object} domain.Specialty
// @Failure 400 {object} gin.H "Invalid or duplicate name"
// @Router /admin/specialties [post]
func (h *SpecialtyHandler) Create(c *gin.Context) {
	var req SpecialtyRequest
	if !bindJSON(c, &req) {
		return
	}
	sp, err := h.specialtyService.Create(c.Request.Context(), service.SpecialtyInput{
		Name:        req.Name,
		Description: req.Description,
		Icon:        req.Icon,
		Active:      req.Active,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, sp)
}

// Update godoc
// @Summary Edit a specialty
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Specialty ID"
// @Param specialty body SpecialtyPatchRequest true "Changes"
// @Success 200 {object} domain.Specialty
// @Router /admin/specialties/{id} [patch]
func (h *SpecialtyHandler) Update(c *gin.Context) {
	id, ok := pathObjectID(c, "id")
	if !ok {
		return
	}
	var req SpecialtyPatchRequest
	if !bindJSON(c, &req) {
		return
	}
	sp, err := h.specialtyService.Update(c.Request.Context(), id, service.SpecialtyPatch{
		Name:        req.Name,
		Description: req.Description,
		Icon:        req.Icon,
		Active:      req.Active,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sp)
}

// Delete godoc
// @Summary Delete a specialty no trainer uses
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param id path string true "Specialty ID"
// @Success 200 {object} gin.H
// @Failure 400 {object} gin.H "Still referenced by a profile"
// @Router /admin/specialties/{id} [delete]
func (h *SpecialtyHandler) Delete(c *gin.Context) {
	id, ok := pathObjectID(c, "id")
	if !ok {
		return
	}
	if err := h.specialtyService.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Specialty deleted"})
}
