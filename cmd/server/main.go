package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"civic_trust/internal/config"
	"civic_trust/internal/controllers"
	"civic_trust/internal/logger"
	"civic_trust/internal/middleware"
	"civic_trust/internal/persistence"
	"civic_trust/internal/routes"
	"civic_trust/internal/services"
	"civic_trust/internal/store"
)

func main() {
	cfg := config.Load()

	// Initialize structured logging to file
	out := logger.Setup(cfg.LogFile, cfg.LogLevel)
	gin.SetMode(gin.ReleaseMode)

	gateway, err := persistence.Open(cfg)
	if err != nil {
		logrus.WithError(err).Fatal("could not open storage")
	}
	defer gateway.Close()

	hub := controllers.NewReportHub(cfg.CORSOrigin)
	defer hub.Close()

	svc := services.NewCivicService(store.New(), gateway, services.Options{
		BestEffort:         cfg.PersistBestEffort,
		Retries:            cfg.PersistRetries,
		RetryInterval:      cfg.PersistRetryInterval,
		EnforceUniqueVotes: cfg.EnforceUniqueVotes,
		Publisher:          hub,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := svc.Restore(ctx); err != nil {
		logrus.WithError(err).Fatal("could not restore state")
	}

	jwt := middleware.NewJWTManager(cfg.JWTSecret, cfg.JWTTTL)
	r := routes.SetupRouter(routes.Deps{
		Handler:        controllers.New(svc, jwt, hub),
		JWT:            jwt,
		VoteLimiter:    middleware.NewRateLimiter(cfg.VoteRatePerMinute),
		TrustedProxies: cfg.TrustedProxies,
		AccessLog:      out,
	})

	srv := &http.Server{
		Addr:              "0.0.0.0:" + cfg.Port,
		Handler:           middleware.EnableCORS(cfg.CORSOrigin, r),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logrus.WithFields(logrus.Fields{"port": cfg.Port, "storage": gateway.Name()}).Info("Server running")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.WithError(err).Fatal("server stopped unexpectedly")
		}
	}()

	<-ctx.Done()
	logrus.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logrus.WithError(err).Error("graceful shutdown failed")
	}
}
