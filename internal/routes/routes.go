package routes

import (
	"io"

	ginlog "github.com/gin-contrib/logger"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"civic_trust/internal/controllers"
	"civic_trust/internal/metrics"
	"civic_trust/internal/middleware"
)

type Deps struct {
	Handler     *controllers.Handler
	JWT         *middleware.JWTManager
	VoteLimiter *middleware.RateLimiter
	// TrustedProxies feeds gin's ClientIP; nil trusts no forwarding header.
	TrustedProxies []string
	// AccessLog receives one line per request; nil disables access logs.
	AccessLog io.Writer
}

func SetupRouter(d Deps) *gin.Engine {
	r := gin.New()
	if err := r.SetTrustedProxies(d.TrustedProxies); err != nil {
		logrus.WithError(err).Error("invalid trusted proxy list, trusting none")
		_ = r.SetTrustedProxies(nil)
	}
	r.Use(gin.Recovery())
	if d.AccessLog != nil {
		r.Use(ginlog.SetLogger(
			ginlog.WithWriter(d.AccessLog),
			ginlog.WithUTC(true),
			ginlog.WithSkipPath([]string{"/healthz", "/metrics"}),
		))
	}

	r.GET("/", d.Handler.Home)
	r.GET("/healthz", d.Handler.Health)
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	api := r.Group("/api")
	AuthRoutes(api, d)
	ReportRoutes(api, d)
	UserRoutes(api, d)
	AdminRoutes(api, d)
	WebSocketRoutes(r, d)

	return r
}
