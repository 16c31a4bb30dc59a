package routes

import (
	"github.com/gin-gonic/gin"

	"civic_trust/internal/models"
)

func AdminRoutes(r *gin.RouterGroup, d Deps) {
	admin := r.Group("/admin")
	admin.Use(d.JWT.RequireAuthWithRole(models.RoleAdmin))
	{
		admin.GET("/stats", d.Handler.AdminStats)
		admin.GET("/reports", d.Handler.AdminReports)
		admin.GET("/contractors", d.Handler.ListContractors)
		admin.POST("/contractors", d.Handler.CreateContractor)
		admin.GET("/users", d.Handler.ListCitizens)
		admin.PUT("/reports/:id/status", d.Handler.UpdateReportStatus)
		admin.PUT("/reports/:id/assign", d.Handler.AssignContractor)
		admin.PUT("/budget", d.Handler.UpdateBudget)
	}
}
