// Package controllers holds the gin handlers for the civic reporting API.
package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"civic_trust/internal/middleware"
	"civic_trust/internal/models"
	"civic_trust/internal/services"
)

type Handler struct {
	svc *services.CivicService
	jwt *middleware.JWTManager
	hub *ReportHub
}

func New(svc *services.CivicService, jwt *middleware.JWTManager, hub *ReportHub) *Handler {
	return &Handler{svc: svc, jwt: jwt, hub: hub}
}

func (h *Handler) Home(c *gin.Context) {
	c.String(http.StatusOK, "Civic Trust API is running!")
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "storage": h.svc.StorageDriver()})
}

// respondError maps the service error taxonomy onto HTTP statuses.
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, services.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, services.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, services.ErrUnauthorized):
		status = http.StatusUnauthorized
	case errors.Is(err, services.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, services.ErrConflict):
		status = http.StatusConflict
	}

	if status == http.StatusInternalServerError {
		logrus.WithError(err).WithField("path", c.FullPath()).Error("request failed")
		msg := "internal server error"
		if errors.Is(err, services.ErrPersistence) {
			msg = "could not save changes, please retry"
		}
		c.JSON(status, gin.H{"error": msg})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

// userResponse is the public view of a user; the password hash never
// leaves the service.
type userResponse struct {
	ID           string            `json:"id"`
	Name         string            `json:"name"`
	Email        string            `json:"email"`
	Role         models.Role       `json:"role"`
	Score        int               `json:"score"`
	AdminLevel   models.AdminLevel `json:"adminLevel,omitempty"`
	AssignedArea string            `json:"assignedArea,omitempty"`
	AssignedZone string            `json:"assignedZone,omitempty"`
}

func toUserResponse(u models.User) userResponse {
	resp := userResponse{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role, Score: u.Score}
	if u.IsAdmin() {
		resp.AdminLevel = u.AdminLevel
		resp.AssignedArea = u.AssignedArea
		resp.AssignedZone = u.AssignedZone
	}
	return resp
}
