package api

import (
	"net/http"

	"github.com/PauloVieira29/Fitness/internal/service"

	"github.com/gin-gonic/gin"
)

// EntryHandler serves the daily workout log.
type EntryHandler struct {
	entryService service.EntryService
	mediaService service.MediaService
}

func NewEntryHandler(entryService service.EntryService, mediaService service.MediaService) *EntryHandler {
	return &EntryHandler{entryService: entryService, mediaService: mediaService}
}

type EntryRequest struct {
	Date           *Date    `json:"date" binding:"required"`
	Completed      bool     `json:"completed"`
	Reason         string   `json:"reason" binding:"max=500"`
	ProofMedia     string   `json:"proofMedia" binding:"max=1000"`
	CaloriesBurned float64  `json:"caloriesBurned"`
	Notes          string   `json:"notes" binding:"max=2000"`
	Weight         *float64 `json:"weight"`
}

// UpsertEntry godoc
// @Summary Log a day
// @Description Creates or updates my entry for the given date. Future dates cannot be completed.
// @Tags Entries
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param entry body EntryRequest true "Entry"
// @Success 200 {object} domain.Entry
// @Failure 400 {object} gin.H "Invalid entry"
// @Failure 403 {object} gin.H "Completing a future workout"
// @Router /entries [post]
func (h *EntryHandler) UpsertEntry(c *gin.Context) {
	clientID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req EntryRequest
	if !bindJSON(c, &req) {
		return
	}
	if req.Date.IsZero() {
		abortWithError(c, http.StatusBadRequest, "Validation error: date is required")
		return
	}

	entry, err := h.entryService.Upsert(c.Request.Context(), clientID, service.EntryInput{
		Date:           req.Date.Time,
		Completed:      req.Completed,
		Reason:         req.Reason,
		ProofMedia:     req.ProofMedia,
		CaloriesBurned: req.CaloriesBurned,
		Notes:          req.Notes,
		Weight:         req.Weight,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, entry)
}

// ListEntries godoc
// @Summary Entry history
// @Tags Entries
// @Produce json
// @Security BearerAuth
// @Param client query string false "Client ID (trainers)"
// @Param startDate query string false "YYYY-MM-DD, inclusive"
// @Param endDate query string false "YYYY-MM-DD, inclusive"
// @Param sort query string false "asc or desc (default)"
// @Success 200 {array} domain.Entry
// @Failure 403 {object} gin.H "Not your client"
// @Router /entries [get]
func (h *EntryHandler) ListEntries(c *gin.Context) {
	viewer, ok := currentUser(c)
	if !ok {
		return
	}
	clientID, ok := queryObjectID(c, "client")
	if !ok {
		return
	}
	from, ok := queryDate(c, "startDate")
	if !ok {
		return
	}
	to, ok := queryDate(c, "endDate")
	if !ok {
		return
	}
	sortOrder := c.DefaultQuery("sort", "desc")
	if sortOrder != "asc" && sortOrder != "desc" {
		abortWithError(c, http.StatusBadRequest, "sort must be asc or desc")
		return
	}

	entries, err := h.entryService.History(c.Request.Context(), viewer, clientID, service.HistoryFilter{
		From:      from,
		To:        to,
		Ascending: sortOrder == "asc",
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, emptyIfNil(entries))
}

// EntryStats godoc
// @Summary Completed workouts per week or month
// @Tags Entries
// @Produce json
// @Security BearerAuth
// @Param period query string false "week (default) or month"
// @Param client query string false "Client ID (trainers)"
// @Success 200 {array} domain.EntryBucket
// @Router /entries/stats [get]
func (h *EntryHandler) EntryStats(c *gin.Context) {
	viewer, ok := currentUser(c)
	if !ok {
		return
	}
	clientID, ok := queryObjectID(c, "client")
	if !ok {
		return
	}
	buckets, err := h.entryService.Stats(c.Request.Context(), viewer, clientID, c.DefaultQuery("period", service.PeriodWeek))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, emptyIfNil(buckets))
}

// UploadProof godoc
// @Summary Upload a workout proof photo or video
// @Tags Entries
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param file formData file true "Image or video"
// @Success 200 {object} gin.H
// @Failure 400 {object} gin.H "Missing, too large or unsupported file"
// @Failure 503 {object} gin.H "Storage unavailable"
// @Router /upload/proof [post]
func (h *EntryHandler) UploadProof(c *gin.Context) {
	clientID, ok := currentUserID(c)
	if !ok {
		return
	}
	file, closeFile, err := formFile(c)
	if err != nil {
		respondError(c, err)
		return
	}
	defer closeFile()

	upload, err := h.mediaService.UploadProof(c.Request.Context(), clientID, file)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": upload.URL})
}
