package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"civic_trust/internal/geo"
	"civic_trust/internal/middleware"
	"civic_trust/internal/models"
	"civic_trust/internal/services"
)

type reportInput struct {
	Type        string     `json:"type" binding:"required"`
	Description string     `json:"description"`
	Location    string     `json:"location" binding:"required"`
	Image       string     `json:"image"`
	Status      string     `json:"status"`
	Area        string     `json:"area"`
	Ward        string     `json:"ward"`
	Zone        string     `json:"zone"`
	SLADeadline *time.Time `json:"slaDeadline"`
}

type voteInput struct {
	Type string `json:"type" binding:"required"`
}

type verifyInput struct {
	IsFixed *bool `json:"isFixed" binding:"required"`
}

func (h *Handler) ListReports(c *gin.Context) {
	c.JSON(http.StatusOK, h.svc.ListReports())
}

// ReportsGeoJSON serves the reports that carry coordinates as a GeoJSON
// FeatureCollection for the map view.
func (h *Handler) ReportsGeoJSON(c *gin.Context) {
	c.JSON(http.StatusOK, geo.FeatureCollection(h.svc.ListReports()))
}

func (h *Handler) GetReport(c *gin.Context) {
	report, err := h.svc.GetReport(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (h *Handler) CreateReport(c *gin.Context) {
	var input reportInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "type and location are required"})
		return
	}

	report, err := h.svc.CreateReport(c.Request.Context(), middleware.UserID(c), services.ReportInput{
		Type:        input.Type,
		Description: input.Description,
		Location:    input.Location,
		Image:       input.Image,
		Status:      models.ReportStatus(input.Status),
		Area:        input.Area,
		Ward:        input.Ward,
		Zone:        input.Zone,
		SLADeadline: input.SLADeadline,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, report)
}

func (h *Handler) VoteReport(c *gin.Context) {
	var input voteInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "vote type is required"})
		return
	}

	report, err := h.svc.RecordVote(c.Request.Context(), c.Param("id"), middleware.UserID(c), models.VoteType(input.Type))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (h *Handler) VerifyFix(c *gin.Context) {
	var input verifyInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "isFixed is required"})
		return
	}

	report, err := h.svc.VerifyFix(c.Request.Context(), c.Param("id"), *input.IsFixed)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}
