package routes

import (
	"github.com/gin-gonic/gin"
)

func UserRoutes(r *gin.RouterGroup, d Deps) {
	r.GET("/leaderboard", d.Handler.Leaderboard)

	user := r.Group("/user")
	user.Use(d.JWT.RequireAuth())
	{
		user.GET("", d.Handler.CurrentUser)
		user.POST("/score", d.Handler.AwardScore)
	}
}
