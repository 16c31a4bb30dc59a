package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"civic_trust/internal/middleware"
)

type scoreInput struct {
	Points *int `json:"points" binding:"required"`
}

func (h *Handler) CurrentUser(c *gin.Context) {
	user, err := h.svc.GetUser(middleware.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"score": user.Score, "user": toUserResponse(user)})
}

func (h *Handler) AwardScore(c *gin.Context) {
	var input scoreInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "points is required"})
		return
	}

	score, err := h.svc.AwardScore(c.Request.Context(), middleware.UserID(c), *input.Points)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"score": score})
}

func (h *Handler) Leaderboard(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a non-negative integer"})
			return
		}
		limit = n
	}
	c.JSON(http.StatusOK, h.svc.Leaderboard(limit))
}
