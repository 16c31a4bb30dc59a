package routes

import (
	"github.com/gin-gonic/gin"
)

func AuthRoutes(r *gin.RouterGroup, d Deps) {
	auth := r.Group("/auth")
	{
		auth.POST("/signup", d.Handler.Signup)
		auth.POST("/login", d.Handler.Login)
	}
}
