package routes

import (
	"github.com/gin-gonic/gin"
)

func ReportRoutes(r *gin.RouterGroup, d Deps) {
	reports := r.Group("/reports")
	{
		reports.GET("", d.Handler.ListReports)
		reports.GET("/geojson", d.Handler.ReportsGeoJSON)
		reports.GET("/:id", d.Handler.GetReport)

		reports.POST("", d.JWT.RequireAuth(), d.Handler.CreateReport)
		reports.POST("/:id/vote", d.JWT.RequireAuth(), d.VoteLimiter.Middleware(), d.Handler.VoteReport)
		reports.POST("/:id/verify", d.JWT.RequireAuth(), d.VoteLimiter.Middleware(), d.Handler.VerifyFix)
	}
}
