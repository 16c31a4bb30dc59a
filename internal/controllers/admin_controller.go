package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"civic_trust/internal/middleware"
	"civic_trust/internal/models"
	"civic_trust/internal/services"
)

type statusInput struct {
	Status string `json:"status" binding:"required"`
}

type assignInput struct {
	ContractorID string     `json:"contractorId" binding:"required"`
	SLADeadline  *time.Time `json:"slaDeadline"`
}

type contractorInput struct {
	Name      string `json:"name" binding:"required"`
	Specialty string `json:"specialty"`
	Phone     string `json:"phone"`
	Status    string `json:"status"`
}

type budgetInput struct {
	Allocated  float64 `json:"allocated"`
	Utilized   float64 `json:"utilized"`
	Percentage float64 `json:"percentage"`
}

// AdminStats returns the dashboard figures for the caller's jurisdiction.
func (h *Handler) AdminStats(c *gin.Context) {
	stats, err := h.svc.AdminStats(middleware.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *Handler) AdminReports(c *gin.Context) {
	reports, err := h.svc.VisibleReports(middleware.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, reports)
}

func (h *Handler) ListContractors(c *gin.Context) {
	c.JSON(http.StatusOK, h.svc.ListContractors())
}

func (h *Handler) CreateContractor(c *gin.Context) {
	var input contractorInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "contractor name is required"})
		return
	}
	contractor, err := h.svc.CreateContractor(c.Request.Context(), services.ContractorInput{
		Name:      input.Name,
		Specialty: input.Specialty,
		Phone:     input.Phone,
		Status:    input.Status,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, contractor)
}

func (h *Handler) ListCitizens(c *gin.Context) {
	c.JSON(http.StatusOK, h.svc.ListCitizens())
}

func (h *Handler) UpdateReportStatus(c *gin.Context) {
	var input statusInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "status is required"})
		return
	}
	report, err := h.svc.UpdateReportStatus(c.Request.Context(), c.Param("id"), models.ReportStatus(input.Status))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (h *Handler) AssignContractor(c *gin.Context) {
	var input assignInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "contractorId is required"})
		return
	}
	report, err := h.svc.AssignContractor(c.Request.Context(), c.Param("id"), input.ContractorID, input.SLADeadline)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (h *Handler) UpdateBudget(c *gin.Context) {
	var input budgetInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	budget, err := h.svc.SetBudget(c.Request.Context(), models.Budget{
		Allocated:  input.Allocated,
		Utilized:   input.Utilized,
		Percentage: input.Percentage,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, budget)
}
